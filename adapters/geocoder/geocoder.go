// Package geocoder implements booking.Geocoder against an HTTP geocoding
// API. Calls are rate limited with golang.org/x/time/rate and instrumented
// with otelhttp, matching the client-wrapping idiom the teacher uses at its
// own provider boundary (features/model/anthropic, features/model/middleware).
package geocoder

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

// Options configures the geocoder client.
type Options struct {
	// BaseURL is the geocoding service's base URL, e.g. "https://geo.internal".
	BaseURL string
	// Timeout bounds a single geocode request. Defaults to 5s.
	Timeout time.Duration
	// RequestsPerSecond caps outbound call rate. Defaults to 10.
	RequestsPerSecond float64
	// HTTPClient overrides the underlying transport; mainly for tests.
	HTTPClient *http.Client
}

// Client implements booking.Geocoder over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a geocoder Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("geocoder: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
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

type geocodeRequest struct {
	Address string `json:"address"`
}

type geocodeResponse struct {
	NormalizedAddress string   `json:"normalized_address"`
	Ambiguous         bool     `json:"ambiguous"`
	Alternatives      []string `json:"alternatives,omitempty"`
}

// Geocode implements booking.Geocoder. It never returns an error to the
// caller -- a transport failure or non-2xx response is reported as
// GeocodeResult{OK: false}, consistent with the asynchronous-collaborator
// contract in booking.Geocoder's doc comment.
func (c *Client) Geocode(raw string) booking.GeocodeResult {
	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return booking.GeocodeResult{OK: false}
	}

	body, err := json.Marshal(geocodeRequest{Address: raw})
	if err != nil {
		return booking.GeocodeResult{OK: false}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/geocode", bytes.NewReader(body))
	if err != nil {
		return booking.GeocodeResult{OK: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return booking.GeocodeResult{OK: false}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return booking.GeocodeResult{OK: false}
	}

	var out geocodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return booking.GeocodeResult{OK: false}
	}
	if out.NormalizedAddress == "" {
		return booking.GeocodeResult{OK: false}
	}
	if out.Ambiguous {
		return booking.GeocodeResult{
			OK:           false,
			Ambiguous:    true,
			Alternatives: out.Alternatives,
		}
	}
	return booking.GeocodeResult{
		OK:                true,
		NormalizedAddress: out.NormalizedAddress,
	}
}
