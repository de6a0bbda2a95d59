package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
retryCaps:
  maxPickupRetries: 5
model:
  defaultModel: claude-3.5-sonnet
  maxTokens: 512
  systemPrompt: You are a taxi booking assistant.
adapters:
  geocoder:
    baseURL: http://geocoder.internal
    timeout: 5s
    requestsPerSecond: 10
  dispatcher:
    baseURL: http://dispatch.internal
    timeout: 10s
    requestsPerSecond: 5
  amender:
    baseURL: http://dispatch.internal
    timeout: 10s
    requestsPerSecond: 5
  callerLookup:
    baseURL: http://callerlookup.internal
    timeout: 3s
    requestsPerSecond: 20
  redis:
    addr: redis.internal:6379
    ttl: 10m
  mongo:
    uri: mongodb://mongo.internal:27017
    database: voicebooking
    collection: ledger
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	return path
}

func TestLoad_PopulatesAllSections(t *testing.T) {
	path := writeSample(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "claude-3.5-sonnet", cfg.Model.DefaultModel)
	require.Equal(t, 512, cfg.Model.MaxTokens)
	require.Equal(t, "http://geocoder.internal", cfg.Adapters.Geocoder.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Adapters.Geocoder.Timeout)
	require.Equal(t, "http://callerlookup.internal", cfg.Adapters.CallerLookup.BaseURL)
	require.Equal(t, "redis.internal:6379", cfg.Adapters.Redis.Addr)
	require.Equal(t, 10*time.Minute, cfg.Adapters.Redis.TTL)
	require.Equal(t, "voicebooking", cfg.Adapters.Mongo.Database)
}

func TestRetryCapsConfig_DefaultsOmittedFields(t *testing.T) {
	path := writeSample(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	caps := cfg.RetryCaps.RetryCaps()
	require.Equal(t, 5, caps.MaxPickupRetries, "explicitly set field must be honored")
	require.Equal(t, 3, caps.MaxDropoffRetries, "omitted field must fall back to the default")
	require.Equal(t, 2, caps.MaxConfirmRetries, "omitted field must fall back to the default")
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
