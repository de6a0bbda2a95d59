// Package inmem hosts calls as an in-process goroutine with a buffered
// channel mailbox per call. It is not durable across process restarts --
// suited to local development, the demo binary, and tests. Grounded on the
// wfCtx single-writer posture of the teacher's in-memory workflow engine:
// exactly one goroutine ever calls booking.Core.Step for a given call.
package inmem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/engine"
	"github.com/ridewire/voicebooking/ledger"
	"github.com/ridewire/voicebooking/telemetry"
)

// ErrClosed is returned by Deliver once the call's mailbox has been closed.
var ErrClosed = errors.New("inmem: call mailbox closed")

// Engine hosts calls as in-process goroutines.
type Engine struct {
	logger telemetry.Logger
}

// New constructs an in-memory Engine. A nil logger falls back to NoopLogger.
func New(logger telemetry.Logger) *Engine {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &Engine{logger: logger}
}

// StartCall launches the call's mailbox goroutine and returns immediately;
// the first Ask (from Core.Start) is delivered to opts.Sink asynchronously.
func (e *Engine) StartCall(ctx context.Context, opts engine.CallOptions) (engine.Handle, error) {
	h := &handle{
		mailbox: make(chan mailboxItem, 16),
		done:    make(chan struct{}),
		logger:  e.logger,
	}
	go h.run(opts)
	return h, nil
}

type mailboxItem struct {
	toolSync *booking.ToolSync
	result   *booking.BackendResult
}

type handle struct {
	mailbox   chan mailboxItem
	done      chan struct{}
	closeOnce sync.Once
	logger    telemetry.Logger
	seq       int
}

func (h *handle) Deliver(ctx context.Context, event booking.ToolSync) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.mailbox <- mailboxItem{toolSync: &event}:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *handle) Close(ctx context.Context) error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// run is the call's single writer: it owns opts.Core exclusively and is the
// only goroutine that ever calls Step.
func (h *handle) run(opts engine.CallOptions) {
	ctx := context.Background()
	h.dispatch(ctx, opts, opts.Core.Start())

	for {
		select {
		case item := <-h.mailbox:
			var event booking.Event
			if item.toolSync != nil {
				event = *item.toolSync
			} else {
				event = *item.result
			}
			action := opts.Core.Step(event)
			h.recordEntry(ctx, opts, event, action)
			h.dispatch(ctx, opts, action)
		case <-h.done:
			return
		}
	}
}

// recordEntry appends one ledger entry per Step call. A nil opts.Ledger
// records nothing.
func (h *handle) recordEntry(ctx context.Context, opts engine.CallOptions, event booking.Event, action booking.Action) {
	if opts.Ledger == nil {
		return
	}
	entry := ledger.NewEntry(opts.CallID, h.seq, time.Now().UTC(), event, action)
	h.seq++
	if err := opts.Ledger.Append(ctx, entry); err != nil {
		h.logger.Warn(ctx, "failed to append ledger entry", "call_id", opts.CallID, "seq", entry.Seq, "err", err)
	}
}

// dispatch executes action against the wired collaborators. Results of
// asynchronous actions (Geocode*/Dispatch/Amend) are posted back onto the
// mailbox so the next Step call observes them in arrival order, same as any
// caller-originated ToolSync.
func (h *handle) dispatch(ctx context.Context, opts engine.CallOptions, action booking.Action) {
	switch a := action.(type) {
	case booking.Ask:
		if opts.Sink != nil {
			opts.Sink.Speak(ctx, opts.CallID, a.Text)
		}
	case booking.Hangup:
		if opts.Sink != nil {
			opts.Sink.Speak(ctx, opts.CallID, a.Text)
		}
		if opts.Collaborators.HangupSink != nil {
			opts.Collaborators.HangupSink.Hangup(a.Text)
		}
		h.Close(ctx)
	case booking.TransferToHuman:
		if opts.Collaborators.HumanTransfer != nil {
			opts.Collaborators.HumanTransfer.Transfer(a.Reason)
		}
	case booking.GeocodePickup:
		go h.resolveGeocode(opts, booking.BackendGeocodePickup, a.Raw)
	case booking.GeocodeDropoff:
		go h.resolveGeocode(opts, booking.BackendGeocodeDropoff, a.Raw)
	case booking.Dispatch:
		go h.resolveDispatch(opts, a)
	case booking.Amend:
		go h.resolveAmend(opts, a)
	case booking.None:
		h.logger.Debug(ctx, "no-op action", "call_id", opts.CallID, "reason", a.Reason)
	}
}

func (h *handle) resolveGeocode(opts engine.CallOptions, kind booking.BackendType, raw string) {
	if opts.Collaborators.Geocoder == nil {
		h.postResult(booking.BackendResult{Type: kind, OK: false, Error: "no geocoder configured"})
		return
	}
	res := opts.Collaborators.Geocoder.Geocode(raw)
	h.postResult(booking.BackendResult{
		Type:              kind,
		OK:                res.OK,
		NormalizedAddress: res.NormalizedAddress,
		Ambiguous:         res.Ambiguous,
		Alternatives:      res.Alternatives,
	})
}

func (h *handle) resolveDispatch(opts engine.CallOptions, a booking.Dispatch) {
	if opts.Collaborators.Dispatcher == nil {
		h.postResult(booking.BackendResult{Type: booking.BackendDispatch, OK: false, Error: "no dispatcher configured"})
		return
	}
	res := opts.Collaborators.Dispatcher.Dispatch(a.Slots)
	h.postResult(booking.BackendResult{Type: booking.BackendDispatch, OK: res.OK, BookingID: res.BookingID, Error: res.Error})
}

func (h *handle) resolveAmend(opts engine.CallOptions, a booking.Amend) {
	if opts.Collaborators.Amender == nil {
		h.postResult(booking.BackendResult{Type: booking.BackendAmend, OK: false, Error: "no amender configured"})
		return
	}
	res := opts.Collaborators.Amender.Amend(a.BookingID, a.Slots)
	h.postResult(booking.BackendResult{Type: booking.BackendAmend, OK: res.OK, Error: res.Error})
}

func (h *handle) postResult(result booking.BackendResult) {
	select {
	case h.mailbox <- mailboxItem{result: &result}:
	case <-h.done:
	}
}
