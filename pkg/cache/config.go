package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the response cache.
type Config struct {
	// Enabled controls whether caching is active. When false no middleware
	// is applied and all requests pass through uncached.
	Enabled bool

	// PolicyTTL is the TTL for the approval policies endpoint. Policies
	// are loaded once at startup, so this can be generous.
	PolicyTTL time.Duration

	// ReadTTL is the TTL for portfolio and version read endpoints. Kept
	// short because mutations from other replicas do not invalidate this
	// process's cache.
	ReadTTL time.Duration

	// MaxSize is the maximum number of entries per cache instance.
	MaxSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		PolicyTTL: 300 * time.Second,
		ReadTTL:   15 * time.Second,
		MaxSize:   1000,
	}
}

// ConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - JURIS_CACHE_ENABLED: "true" or "false" (default: "true")
//   - JURIS_CACHE_POLICY_TTL: duration in seconds (default: 300)
//   - JURIS_CACHE_READ_TTL: duration in seconds (default: 15)
//   - JURIS_CACHE_MAX_SIZE: max entries per cache (default: 1000)
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("JURIS_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("JURIS_CACHE_POLICY_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PolicyTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("JURIS_CACHE_READ_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ReadTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("JURIS_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}
	return cfg
}
