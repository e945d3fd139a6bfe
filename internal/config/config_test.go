package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MERGO_ATTEMPT_CACHE_DSN", "")
	t.Setenv("MERGO_CONFLICT_MARKER_SIZE", "")
	t.Setenv("MERGO_MERGE_TIMEOUT_MS", "")

	cfg := Load()

	assert.True(t, cfg.Diff3)
	assert.Equal(t, 7, cfg.ConflictMarkerSize)
	assert.Equal(t, 5*time.Second, cfg.MergeTimeout)
	assert.Equal(t, 20, cfg.AttemptCacheRetention)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MERGO_CONFLICT_MARKER_SIZE", "9")
	t.Setenv("MERGO_DIFF3", "false")
	t.Setenv("MERGO_MERGE_TIMEOUT_MS", "250")
	t.Setenv("MERGO_ATTEMPT_CACHE_RETENTION", "5")

	cfg := Load()

	assert.Equal(t, 9, cfg.ConflictMarkerSize)
	assert.False(t, cfg.Diff3)
	assert.Equal(t, 250*time.Millisecond, cfg.MergeTimeout)
	assert.Equal(t, 5, cfg.AttemptCacheRetention)
}

func TestBoolEnvInvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("MERGO_VERBOSE", "not-a-bool")
	assert.False(t, boolEnv("MERGO_VERBOSE", false))
}
