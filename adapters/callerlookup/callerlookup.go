// Package callerlookup resolves caller-id metadata (spec.md §1's "caller
// lookup") over HTTP, caching hits in Redis keyed by phone number. This
// caches customer profile data across calls, not BookingState -- it does not
// violate the "no persistence of booking state across calls" non-goal.
// Grounded on registry/result_stream.go's "local cache, then Redis fallback,
// TTL via a plain Set" pattern.
package callerlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Profile is the caller metadata returned by a lookup.
type Profile struct {
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	VIP         bool   `json:"vip,omitempty"`
}

// DefaultTTL bounds how long a cached profile is trusted before a fresh
// lookup is made.
const DefaultTTL = 10 * time.Minute

// Options configures the Client.
type Options struct {
	BaseURL    string
	Redis      *redis.Client
	TTL        time.Duration
	HTTPClient *http.Client
}

// Client looks up caller profiles, preferring a process-local cache, then
// Redis, before falling back to the HTTP API.
type Client struct {
	baseURL string
	rdb     *redis.Client
	ttl     time.Duration
	http    *http.Client

	mu    sync.RWMutex
	local map[string]Profile
}

// New constructs a Client. BaseURL and Redis are required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("callerlookup: base URL is required")
	}
	if opts.Redis == nil {
		return nil, fmt.Errorf("callerlookup: redis client is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	return &Client{
		baseURL: opts.BaseURL,
		rdb:     opts.Redis,
		ttl:     ttl,
		http:    httpClient,
		local:   make(map[string]Profile),
	}, nil
}

func redisKey(phone string) string {
	return fmt.Sprintf("voicebooking:callerlookup:%s", phone)
}

// Lookup resolves a caller profile for phone, checking the local cache then
// Redis before calling the lookup API. A failed API call with no cached
// value returns a zero Profile and the error.
func (c *Client) Lookup(ctx context.Context, phone string) (Profile, error) {
	c.mu.RLock()
	if p, ok := c.local[phone]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	if raw, err := c.rdb.Get(ctx, redisKey(phone)).Result(); err == nil {
		var p Profile
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			c.storeLocal(phone, p)
			return p, nil
		}
	}

	p, err := c.fetch(ctx, phone)
	if err != nil {
		return Profile{}, err
	}
	c.storeLocal(phone, p)
	if raw, jsonErr := json.Marshal(p); jsonErr == nil {
		_ = c.rdb.Set(ctx, redisKey(phone), raw, c.ttl).Err()
	}
	return p, nil
}

func (c *Client) storeLocal(phone string, p Profile) {
	c.mu.Lock()
	c.local[phone] = p
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context, phone string) (Profile, error) {
	url := fmt.Sprintf("%s/callers/%s", c.baseURL, phone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("callerlookup: status %d", resp.StatusCode)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("callerlookup: decode response: %w", err)
	}
	return p, nil
}
