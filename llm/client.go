// Package llm converts a speech model's tool-use turns into booking.ToolSync
// events. It wraps github.com/anthropics/anthropic-sdk-go, advertises a
// single "sync_slots" tool matching booking.ToolSync's shape, and validates
// every tool call's arguments against a compiled JSON Schema before handing
// them to the core -- the core itself never sees malformed input.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/telemetry"
)

// MessagesClient captures the subset of the Anthropic SDK used by Client. It
// is satisfied by *sdk.MessageService so callers can substitute a mock in
// tests.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the model adapter.
type Options struct {
	// DefaultModel is the Claude model identifier used for every turn.
	DefaultModel string
	// MaxTokens caps the completion length. Required, must be positive.
	MaxTokens int
	// SystemPrompt is prepended as the system turn on every call.
	SystemPrompt string
	// Logger receives a warning whenever a tool call is dropped for failing
	// schema validation.
	Logger telemetry.Logger
}

// Client turns transcript turns into booking.ToolSync events.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	systemPrompt string
	schema       *jsonschema.Schema
	logger       telemetry.Logger
}

// New builds a Client from the provided Anthropic Messages client and
// configuration.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("llm: anthropic client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("llm: default model identifier is required")
	}
	if opts.MaxTokens <= 0 {
		return nil, errors.New("llm: max tokens must be positive")
	}
	schema, err := compileSyncSlotsSchema()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTokens:    opts.MaxTokens,
		systemPrompt: opts.SystemPrompt,
		schema:       schema,
		logger:       logger,
	}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP client,
// reading ANTHROPIC_API_KEY from the environment when apiKey is empty.
func NewFromAPIKey(apiKey, defaultModel string, maxTokens int) (*Client, error) {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	ac := sdk.NewClient(opts...)
	return New(&ac.Messages, Options{DefaultModel: defaultModel, MaxTokens: maxTokens})
}

// syncSlotsToolName is the tool name advertised to the model, matching the
// booking.ToolSync shape regardless of how many individual slot-setting
// intents the caller expressed in a single turn.
const syncSlotsToolName = "sync_slots"

// toolArgs mirrors booking.ToolSync's fields as the JSON shape the model's
// tool_use arguments are expected to take.
type toolArgs struct {
	Pickup              string `json:"pickup,omitempty"`
	Destination         string `json:"destination,omitempty"`
	Passengers          int    `json:"passengers,omitempty"`
	PickupTime          string `json:"pickup_time,omitempty"`
	Intent              string `json:"intent,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// NextToolSync issues one Messages.New call against turns and converts the
// first sync_slots tool_use block in the response into a booking.ToolSync.
// It returns (nil, nil) when the model's turn contains no tool call at all
// (e.g. it asked a clarifying question in plain text instead) -- this is not
// an error, just nothing for the core to process yet.
func (c *Client) NextToolSync(ctx context.Context, turns []Turn) (*booking.ToolSync, error) {
	params := sdk.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Model:     sdk.Model(c.defaultModel),
		Messages:  encodeTurns(turns),
		Tools:     []sdk.ToolUnionParam{syncSlotsTool()},
	}
	if c.systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: c.systemPrompt}}
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic messages.new: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type != "tool_use" || block.Name != syncSlotsToolName {
			continue
		}
		raw, err := json.Marshal(block.Input)
		if err != nil {
			return nil, fmt.Errorf("llm: marshal tool_use input: %w", err)
		}
		if err := validateArguments(c.schema, raw); err != nil {
			c.logger.Warn(ctx, "dropping tool call that failed schema validation", "tool_use_id", block.ID, "err", err)
			continue
		}
		var args toolArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			c.logger.Warn(ctx, "dropping tool call with unparseable arguments", "tool_use_id", block.ID, "err", err)
			continue
		}
		turnID := block.ID
		if turnID == "" {
			turnID = uuid.NewString()
		}
		return &booking.ToolSync{
			TurnID:              turnID,
			Pickup:              args.Pickup,
			Destination:         args.Destination,
			Passengers:          args.Passengers,
			PickupTime:          args.PickupTime,
			Intent:              args.Intent,
			SpecialInstructions: args.SpecialInstructions,
		}, nil
	}
	return nil, nil
}

func encodeTurns(turns []Turn) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := sdk.NewTextBlock(t.Text)
		if t.Role == "assistant" {
			out = append(out, sdk.NewAssistantMessage(block))
		} else {
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func syncSlotsTool() sdk.ToolUnionParam {
	var schema map[string]any
	_ = json.Unmarshal([]byte(syncSlotsSchemaJSON), &schema)
	u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schema}, syncSlotsToolName)
	if u.OfTool != nil {
		u.OfTool.Description = sdk.String(syncSlotsDescription)
	}
	return u
}
