package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"MAILQ_REDIS_ADDR", "MAILQ_REDIS_PASSWORD", "MAILQ_REDIS_DB", "MAILQ_BASE_DELAY", "MAILQ_MAX_DELAY",
		"MAILQ_COMPLETED_TTL", "MAILQ_FAILED_CAP", "MAILQ_RETRY_BATCH", "MAILQ_LOG_LEVEL", "MAILQ_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("MAILQ_REDIS_ADDR", "redis:6380")
	t.Setenv("MAILQ_REDIS_PASSWORD", "secret")
	t.Setenv("MAILQ_REDIS_DB", "2")
	t.Setenv("MAILQ_BASE_DELAY", "30s")
	t.Setenv("MAILQ_MAX_DELAY", "600")
	t.Setenv("MAILQ_COMPLETED_TTL", "2h")
	t.Setenv("MAILQ_FAILED_CAP", "50")
	t.Setenv("MAILQ_RETRY_BATCH", "not-a-number")
	t.Setenv("MAILQ_LOG_LEVEL", "DEBUG")
	t.Setenv("MAILQ_LOG_FORMAT", "json")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.BaseDelay)
	assert.Equal(t, 10*time.Minute, cfg.MaxDelay, "bare numbers are seconds")
	assert.Equal(t, 2*time.Hour, cfg.CompletedTTL)
	assert.Equal(t, 50, cfg.FailedCap)
	assert.Equal(t, 100, cfg.RetryBatch, "unparseable value keeps the default")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate_AppliesDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]Config{
		"negative db":   {RedisDB: -1},
		"max below min": {BaseDelay: time.Hour, MaxDelay: time.Minute},
		"log level":     {LogLevel: "verbose"},
		"log format":    {LogFormat: "xml"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, cfg.Validate())
		})
	}
}
