// Package amender implements booking.Amender against a fleet management
// HTTP API's amendment endpoint. Same rate-limit/instrumentation posture as
// adapters/geocoder and adapters/dispatcher.
package amender

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

// Options configures the amender client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client implements booking.Amender over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs an amender Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("amender: base URL is required")
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

type amendRequest struct {
	Pickup              string `json:"pickup"`
	Dropoff             string `json:"dropoff"`
	Passengers          int    `json:"passengers"`
	PickupTimeUTC       string `json:"pickup_time_utc,omitempty"`
	IsAsap              bool   `json:"is_asap"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type amendResponse struct {
	Error string `json:"error,omitempty"`
}

// Amend implements booking.Amender.
func (c *Client) Amend(bookingID string, slots booking.BookingSlots) booking.AmendResult {
	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return booking.AmendResult{OK: false, Error: "rate limited"}
	}

	reqBody := amendRequest{
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
		return booking.AmendResult{OK: false, Error: err.Error()}
	}
	url := fmt.Sprintf("%s/bookings/%s", c.baseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return booking.AmendResult{OK: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return booking.AmendResult{OK: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var out amendResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)
		if out.Error == "" {
			out.Error = fmt.Sprintf("amender returned status %d", resp.StatusCode)
		}
		return booking.AmendResult{OK: false, Error: out.Error}
	}
	return booking.AmendResult{OK: true}
}
