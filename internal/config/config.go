// Package config loads mailq settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings shared by every mailq command.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// BaseDelay is the first backoff step. Default: 60s
	BaseDelay time.Duration
	// MaxDelay caps the backoff. Default: 1h
	MaxDelay time.Duration
	// CompletedTTL is how long completed records live. Default: 24h
	CompletedTTL time.Duration
	// FailedCap is the number of failed jobs kept by cleanup. Default: 1000
	FailedCap int
	// RetryBatch is the number of due retries promoted per poll. Default: 100
	RetryBatch int

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string
	// LogFormat is text or json. Default: text
	LogFormat string
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		RedisAddr:    "localhost:6379",
		BaseDelay:    60 * time.Second,
		MaxDelay:     time.Hour,
		CompletedTTL: 24 * time.Hour,
		FailedCap:    1000,
		RetryBatch:   100,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads MAILQ_* variables over the defaults. Unparseable values keep
// the default.
func Load() Config {
	d := Default()
	return Config{
		RedisAddr:     getEnv("MAILQ_REDIS_ADDR", d.RedisAddr),
		RedisPassword: getEnv("MAILQ_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("MAILQ_REDIS_DB", d.RedisDB),
		BaseDelay:     getEnvDuration("MAILQ_BASE_DELAY", d.BaseDelay),
		MaxDelay:      getEnvDuration("MAILQ_MAX_DELAY", d.MaxDelay),
		CompletedTTL:  getEnvDuration("MAILQ_COMPLETED_TTL", d.CompletedTTL),
		FailedCap:     getEnvInt("MAILQ_FAILED_CAP", d.FailedCap),
		RetryBatch:    getEnvInt("MAILQ_RETRY_BATCH", d.RetryBatch),
		LogLevel:      getEnv("MAILQ_LOG_LEVEL", d.LogLevel),
		LogFormat:     getEnv("MAILQ_LOG_FORMAT", d.LogFormat),
	}
}

// Validate applies defaults for zero values and rejects inconsistent settings.
func (c *Config) Validate() error {
	d := Default()

	if c.RedisAddr == "" {
		c.RedisAddr = d.RedisAddr
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.CompletedTTL <= 0 {
		c.CompletedTTL = d.CompletedTTL
	}
	if c.FailedCap <= 0 {
		c.FailedCap = d.FailedCap
	}
	if c.RetryBatch <= 0 {
		c.RetryBatch = d.RetryBatch
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)

	if c.RedisDB < 0 {
		return errors.New("config: redis db must be >= 0")
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("config: max delay %s is below base delay %s", c.MaxDelay, c.BaseDelay)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
