package audit

import (
	"os"
	"strconv"
)

// Config controls audit behavior.
type Config struct {
	RetentionDays int  // Default 365
	LogDenied     bool // Whether to log denied (403) actions
	Enabled       bool // Whether the request audit middleware is active
}

// DefaultConfig returns the default configuration. Baseline governance
// records are kept a year; regulated tenants typically configure more.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 365,
		LogDenied:     true,
		Enabled:       true,
	}
}

// ConfigFromEnv loads config from environment variables:
// JURIS_AUDIT_RETENTION_DAYS, JURIS_AUDIT_LOG_DENIED, JURIS_AUDIT_ENABLED.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("JURIS_AUDIT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}

	if v := os.Getenv("JURIS_AUDIT_LOG_DENIED"); v != "" {
		cfg.LogDenied, _ = strconv.ParseBool(v)
	}

	if v := os.Getenv("JURIS_AUDIT_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}

	return cfg
}
