// Package ha provides the high-availability primitives for running the
// baseline server with multiple replicas: serialization of database
// migrations so concurrent AutoMigrate calls cannot race.
package ha

import (
	"os"
	"strconv"
)

// Config holds configuration for high-availability features.
type Config struct {
	// MigrationLockEnabled controls whether database migration locking
	// is used to prevent concurrent schema changes.
	MigrationLockEnabled bool

	// Identity is the unique identity of this instance, recorded on the
	// fallback lock row. Defaults to the hostname.
	Identity string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return &Config{
		MigrationLockEnabled: true,
		Identity:             hostname,
	}
}

// ConfigFromEnv loads config from environment variables:
// JURIS_HA_MIGRATION_LOCK, JURIS_HA_IDENTITY.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("JURIS_HA_MIGRATION_LOCK"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.MigrationLockEnabled = enabled
		}
	}
	if v := os.Getenv("JURIS_HA_IDENTITY"); v != "" {
		cfg.Identity = v
	}

	return cfg
}
