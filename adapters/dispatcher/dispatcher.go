// Package dispatcher implements booking.Dispatcher against a fleet
// management HTTP API. Same rate-limit/instrumentation posture as
// adapters/geocoder.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ridewire/voicebooking/booking"
)

// Options configures the dispatcher client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client implements booking.Dispatcher over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a dispatcher Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("dispatcher: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}, nil
}

type dispatchRequest struct {
	Pickup              string `json:"pickup"`
	Dropoff             string `json:"dropoff"`
	Passengers          int    `json:"passengers"`
	PickupTimeUTC       string `json:"pickup_time_utc,omitempty"`
	IsAsap              bool   `json:"is_asap"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type dispatchResponse struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error,omitempty"`
}

// Dispatch implements booking.Dispatcher.
func (c *Client) Dispatch(slots booking.BookingSlots) booking.DispatchResult {
	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return booking.DispatchResult{OK: false, Error: "rate limited"}
	}

	reqBody := dispatchRequest{
		Pickup:              slots.Pickup.Normalized,
		Dropoff:             slots.Dropoff.Normalized,
		Passengers:          slots.Passengers,
		IsAsap:              slots.PickupTime.IsAsap,
		SpecialInstructions: slots.SpecialInstructions,
	}
	if !slots.PickupTime.IsAsap && !slots.PickupTime.Absolute.IsZero() {
		reqBody.PickupTimeUTC = slots.PickupTime.Absolute.Format(time.RFC3339)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return booking.DispatchResult{OK: false, Error: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return booking.DispatchResult{OK: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return booking.DispatchResult{OK: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	var out dispatchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return booking.DispatchResult{OK: false, Error: "malformed dispatcher response"}
	}
	if resp.StatusCode != http.StatusOK || out.BookingID == "" {
		if out.Error == "" {
			out.Error = fmt.Sprintf("dispatcher returned status %d", resp.StatusCode)
		}
		return booking.DispatchResult{OK: false, Error: out.Error}
	}
	return booking.DispatchResult{OK: true, BookingID: out.BookingID}
}
