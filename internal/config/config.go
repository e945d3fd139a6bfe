// Package config loads mergo's process-wide settings from environment
// variables, optionally populated from a ".env" file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds mergo's tunable runtime settings.
type Config struct {
	// Diff3 controls whether rendered conflicts include the base section.
	Diff3 bool
	// ConflictMarkerSize is the repeat count for "<"/"|"/"="/">" marker
	// lines.
	ConflictMarkerSize int
	// CompactConflicts, when true, factors out conflict sides' common
	// leading/trailing lines.
	CompactConflicts bool
	// MergeTimeout bounds how long the structured-merge pass is given before
	// the cascade falls back to the line-based result.
	MergeTimeout time.Duration
	// AttemptCacheDSN is the storage DSN for the persisted attempt cache
	// (sqlite file path, or a libsql URL); empty disables the cache.
	AttemptCacheDSN string
	// AttemptCacheRetention is how many past attempts are kept per file
	// before the oldest are pruned.
	AttemptCacheRetention int
	// Verbose turns on debug logging.
	Verbose bool
}

// Load reads configuration from the environment, after loading a ".env"
// file in the working directory if one is present (missing is not an
// error).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Diff3:                 true,
		ConflictMarkerSize:    7,
		CompactConflicts:      false,
		MergeTimeout:          5 * time.Second,
		AttemptCacheDSN:       os.Getenv("MERGO_ATTEMPT_CACHE_DSN"),
		AttemptCacheRetention: 20,
		Verbose:               boolEnv("MERGO_VERBOSE", false),
	}

	if v := os.Getenv("MERGO_CONFLICT_MARKER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ConflictMarkerSize = n
		}
	}
	if v := os.Getenv("MERGO_DIFF3"); v != "" {
		cfg.Diff3 = boolEnv("MERGO_DIFF3", cfg.Diff3)
	}
	if v := os.Getenv("MERGO_COMPACT"); v != "" {
		cfg.CompactConflicts = boolEnv("MERGO_COMPACT", cfg.CompactConflicts)
	}
	if v := os.Getenv("MERGO_MERGE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MergeTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("MERGO_ATTEMPT_CACHE_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AttemptCacheRetention = n
		}
	}

	return cfg
}

func boolEnv(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
