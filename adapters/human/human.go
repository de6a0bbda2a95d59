// Package human implements booking.HumanTransfer and booking.HangupSink as
// fire-and-forget log-plus-webhook-stub sinks. Neither collaborator reports
// a BackendResult back to the core (spec.md §4.F), so failures here are only
// ever logged, never surfaced as a retryable outcome.
package human

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ridewire/voicebooking/telemetry"
)

// Options configures the Sinks.
type Options struct {
	// WebhookURL, if set, receives a POST for every transfer/hangup event.
	// A webhook failure is logged and otherwise ignored.
	WebhookURL string
	CallID     string
	Logger     telemetry.Logger
	HTTPClient *http.Client
}

// Sinks implements both booking.HumanTransfer and booking.HangupSink.
type Sinks struct {
	webhookURL string
	callID     string
	logger     telemetry.Logger
	http       *http.Client
}

// New constructs Sinks. A nil Logger falls back to telemetry.NoopLogger.
func New(opts Options) *Sinks {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	return &Sinks{
		webhookURL: opts.WebhookURL,
		callID:     opts.CallID,
		logger:     logger,
		http:       httpClient,
	}
}

type webhookEvent struct {
	CallID string `json:"call_id"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}

// Transfer implements booking.HumanTransfer.
func (s *Sinks) Transfer(reason string) {
	ctx := context.Background()
	s.logger.Info(ctx, "transferring call to human agent", "call_id", s.callID, "reason", reason)
	s.notify(ctx, "transfer", reason)
}

// Hangup implements booking.HangupSink.
func (s *Sinks) Hangup(text string) {
	ctx := context.Background()
	s.logger.Info(ctx, "ending call", "call_id", s.callID, "text", text)
	s.notify(ctx, "hangup", text)
}

func (s *Sinks) notify(ctx context.Context, kind, text string) {
	if s.webhookURL == "" {
		return
	}
	body, err := json.Marshal(webhookEvent{CallID: s.callID, Kind: kind, Text: text})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Warn(ctx, "human sink webhook failed", "call_id", s.callID, "kind", kind, "err", err)
		return
	}
	defer resp.Body.Close()
}
