// Command voiceagent is a terminal demo of the booking agent: it hosts one
// call on engine/inmem, reads caller utterances from stdin, converts each
// into a booking.ToolSync via the llm package, and prints the agent's Ask/
// Hangup/TransferToHuman text to stdout. Grounded on cmd/demo/main.go's
// wiring style (flags, goa.design/clue/log context setup) generalized from
// "register a stub agent and run one turn" to "host one real call to
// completion."
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"goa.design/clue/log"

	"github.com/ridewire/voicebooking/adapters/addressparser"
	"github.com/ridewire/voicebooking/adapters/amender"
	"github.com/ridewire/voicebooking/adapters/callerlookup"
	"github.com/ridewire/voicebooking/adapters/dispatcher"
	"github.com/ridewire/voicebooking/adapters/geocoder"
	"github.com/ridewire/voicebooking/adapters/human"
	"github.com/ridewire/voicebooking/adapters/timeparser"
	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/config"
	"github.com/ridewire/voicebooking/engine"
	"github.com/ridewire/voicebooking/engine/inmem"
	"github.com/ridewire/voicebooking/ledger"
	ledgermongo "github.com/ridewire/voicebooking/ledger/mongo"
	"github.com/ridewire/voicebooking/llm"
	"github.com/ridewire/voicebooking/telemetry"
)

func main() {
	var (
		configF      = flag.String("config", "", "path to the deployment YAML config")
		callIDF      = flag.String("call-id", "demo-call", "identifier for this demo call")
		callerPhoneF = flag.String("caller-phone", "", "caller's phone number, used for the caller-id lookup")
		dbgF         = flag.Bool("debug", false, "enable debug-level logging")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := telemetry.NewClueLogger()

	if *configF == "" {
		log.Fatal(ctx, fmt.Errorf("-config is required"))
	}
	cfg, err := config.Load(*configF)
	if err != nil {
		log.Fatal(ctx, err)
	}

	collaborators, ledgerStore, callerLookup, closeFn, err := wireCollaborators(ctx, cfg, logger)
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer closeFn()

	anthropic, err := llm.NewFromAPIKey(os.Getenv("ANTHROPIC_API_KEY"), cfg.Model.DefaultModel, cfg.Model.MaxTokens)
	if err != nil {
		log.Fatal(ctx, err)
	}

	greeting := "Good day, how can I help you today?"
	if callerLookup != nil && *callerPhoneF != "" {
		profile, err := callerLookup.Lookup(ctx, *callerPhoneF)
		if err != nil {
			log.Print(ctx, log.KV{K: "caller-lookup-err", V: err.Error()})
		} else {
			log.Print(ctx, log.KV{K: "caller-account-id", V: profile.AccountID}, log.KV{K: "caller-vip", V: profile.VIP})
			if profile.DisplayName != "" {
				greeting = fmt.Sprintf("Good day %s, how can I help you today?", profile.DisplayName)
			}
		}
	}

	core := booking.New(booking.Options{
		RetryCaps:     cfg.RetryCaps.RetryCaps(),
		AddressParser: addressParserFunc(addressparser.Parse),
		TimeParser:    timeParserFunc(timeparser.Parse),
		CallID:        *callIDF,
	})

	sink := &stdoutSink{}
	eng := inmem.New(logger)
	handle, err := eng.StartCall(ctx, engine.CallOptions{
		CallID:        *callIDF,
		Core:          core,
		Collaborators: collaborators,
		Sink:          sink,
		Ledger:        ledgerStore,
	})
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer handle.Close(ctx)

	log.Printf(ctx, "call %s started, type what the caller says (Ctrl-D to quit)", *callIDF)
	sink.Speak(ctx, *callIDF, greeting)
	var turns []llm.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		turns = append(turns, llm.Turn{Role: "user", Text: line})

		toolSync, err := anthropic.NextToolSync(ctx, turns)
		if err != nil {
			log.Print(ctx, log.KV{K: "err", V: err.Error()})
			continue
		}
		if toolSync == nil {
			log.Printf(ctx, "model produced no tool call for this turn")
			continue
		}
		if err := handle.Deliver(ctx, *toolSync); err != nil {
			log.Print(ctx, log.KV{K: "deliver-err", V: err.Error()})
		}
	}
}

// stdoutSink implements engine.Sink by printing the agent's spoken line.
type stdoutSink struct{}

func (stdoutSink) Speak(_ context.Context, callID, text string) {
	fmt.Printf("[%s] agent: %s\n", callID, text)
}

type addressParserFunc func(string) booking.ParsedAddress

func (f addressParserFunc) Parse(raw string) booking.ParsedAddress { return f(raw) }

type timeParserFunc func(string) booking.ParsedTime

func (f timeParserFunc) Parse(raw string) booking.ParsedTime { return f(raw) }

// wireCollaborators constructs the HTTP/Redis/Mongo-backed collaborators
// from cfg. Any adapter whose base URL is left empty is simply omitted --
// engine treats a nil collaborator as a failed backend call, never a panic.
// The returned *callerlookup.Client is an out-of-band collaborator: it is
// never part of engine.Collaborators because booking.Core has no notion of
// caller identity, only booking state.
func wireCollaborators(ctx context.Context, cfg *config.Config, logger telemetry.Logger) (engine.Collaborators, ledger.Store, *callerlookup.Client, func(), error) {
	var collaborators engine.Collaborators
	noop := func() {}

	if cfg.Adapters.Geocoder.BaseURL != "" {
		c, err := geocoder.New(geocoder.Options{
			BaseURL:           cfg.Adapters.Geocoder.BaseURL,
			Timeout:           cfg.Adapters.Geocoder.Timeout,
			RequestsPerSecond: cfg.Adapters.Geocoder.RequestsPerSecond,
		})
		if err != nil {
			return collaborators, nil, nil, noop, err
		}
		collaborators.Geocoder = c
	}
	if cfg.Adapters.Dispatcher.BaseURL != "" {
		c, err := dispatcher.New(dispatcher.Options{
			BaseURL:           cfg.Adapters.Dispatcher.BaseURL,
			Timeout:           cfg.Adapters.Dispatcher.Timeout,
			RequestsPerSecond: cfg.Adapters.Dispatcher.RequestsPerSecond,
		})
		if err != nil {
			return collaborators, nil, nil, noop, err
		}
		collaborators.Dispatcher = c
	}
	if cfg.Adapters.Amender.BaseURL != "" {
		c, err := amender.New(amender.Options{
			BaseURL:           cfg.Adapters.Amender.BaseURL,
			Timeout:           cfg.Adapters.Amender.Timeout,
			RequestsPerSecond: cfg.Adapters.Amender.RequestsPerSecond,
		})
		if err != nil {
			return collaborators, nil, nil, noop, err
		}
		collaborators.Amender = c
	}
	humanSinks := human.New(human.Options{CallID: "", Logger: logger})
	collaborators.HumanTransfer = humanSinks
	collaborators.HangupSink = humanSinks

	store := ledger.Store(ledger.NewMemStore())
	closeFn := noop
	if cfg.Adapters.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Adapters.Mongo.URI))
		if err != nil {
			return collaborators, nil, nil, noop, fmt.Errorf("voiceagent: connect mongo: %w", err)
		}
		coll := client.Database(cfg.Adapters.Mongo.Database).Collection(cfg.Adapters.Mongo.Collection)
		store = ledgermongo.New(coll)
		closeFn = func() { _ = client.Disconnect(context.Background()) }
	}

	var callerLookup *callerlookup.Client
	if cfg.Adapters.CallerLookup.BaseURL != "" && cfg.Adapters.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Adapters.Redis.Addr})
		cl, err := callerlookup.New(callerlookup.Options{
			BaseURL: cfg.Adapters.CallerLookup.BaseURL,
			Redis:   rdb,
			TTL:     cfg.Adapters.Redis.TTL,
		})
		if err != nil {
			return collaborators, nil, nil, closeFn, fmt.Errorf("voiceagent: construct caller lookup: %w", err)
		}
		callerLookup = cl
		prevClose := closeFn
		closeFn = func() {
			prevClose()
			_ = rdb.Close()
		}
	}

	return collaborators, store, callerLookup, closeFn, nil
}
