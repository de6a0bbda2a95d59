// Package config loads the YAML document that configures a deployment of
// the voice booking agent: retry ceilings, model selection, and adapter
// endpoints. Grounded on the teacher's integration test scenario-file
// loader (os.ReadFile + yaml.Unmarshal into a plain struct), generalized
// from scenario steps to deployment configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ridewire/voicebooking/booking"
)

// Config is the top-level document loaded from YAML.
type Config struct {
	RetryCaps RetryCapsConfig `yaml:"retryCaps"`
	Model     ModelConfig     `yaml:"model"`
	Adapters  AdapterConfig   `yaml:"adapters"`
}

// RetryCapsConfig mirrors booking.RetryCaps. A zero/omitted field falls
// back to booking.DefaultRetryCaps when resolved via RetryCaps().
type RetryCapsConfig struct {
	MaxPickupRetries        int `yaml:"maxPickupRetries"`
	MaxDropoffRetries       int `yaml:"maxDropoffRetries"`
	MaxPassengersRetries    int `yaml:"maxPassengersRetries"`
	MaxTimeRetries          int `yaml:"maxTimeRetries"`
	MaxConfirmRetries       int `yaml:"maxConfirmRetries"`
	MaxPickupVerifyRetries  int `yaml:"maxPickupVerifyRetries"`
	MaxDropoffVerifyRetries int `yaml:"maxDropoffVerifyRetries"`
	MaxAmendMenuRetries     int `yaml:"maxAmendMenuRetries"`
}

// RetryCaps resolves the configured caps, defaulting any omitted field via
// booking.NewRetryCaps.
func (c RetryCapsConfig) RetryCaps() booking.RetryCaps {
	return booking.NewRetryCaps(booking.RetryCaps{
		MaxPickupRetries:        c.MaxPickupRetries,
		MaxDropoffRetries:       c.MaxDropoffRetries,
		MaxPassengersRetries:    c.MaxPassengersRetries,
		MaxTimeRetries:          c.MaxTimeRetries,
		MaxConfirmRetries:       c.MaxConfirmRetries,
		MaxPickupVerifyRetries:  c.MaxPickupVerifyRetries,
		MaxDropoffVerifyRetries: c.MaxDropoffVerifyRetries,
		MaxAmendMenuRetries:     c.MaxAmendMenuRetries,
	})
}

// ModelConfig selects the speech model and its token budget.
type ModelConfig struct {
	DefaultModel string `yaml:"defaultModel"`
	MaxTokens    int    `yaml:"maxTokens"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// AdapterConfig carries base URLs, timeouts, and connection strings for
// every backend collaborator adapter.
type AdapterConfig struct {
	Geocoder     HTTPAdapterConfig `yaml:"geocoder"`
	Dispatcher   HTTPAdapterConfig `yaml:"dispatcher"`
	Amender      HTTPAdapterConfig `yaml:"amender"`
	CallerLookup HTTPAdapterConfig `yaml:"callerLookup"`
	Redis        RedisConfig       `yaml:"redis"`
	Mongo        MongoConfig       `yaml:"mongo"`
}

// HTTPAdapterConfig configures a rate-limited HTTP backend adapter (the
// shape shared by adapters/geocoder, adapters/dispatcher, and
// adapters/amender).
type HTTPAdapterConfig struct {
	BaseURL           string        `yaml:"baseURL"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
}

// RedisConfig configures the Redis client backing adapters/callerlookup.
type RedisConfig struct {
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

// MongoConfig configures the ledger/mongo store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied deployment config path
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}
