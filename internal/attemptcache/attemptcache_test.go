package attemptcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndPrune(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "attempts.db")
	cache, err := Open(dsn, 2, false)
	require.NoError(t, err)
	defer cache.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Record(Attempt{
			FilePath:     "main.go",
			Method:       "structured",
			ConflictMass: i,
		}))
	}

	recent, err := cache.Recent("main.go", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.turso.io/db"))
	assert.True(t, isURL("libsql://example.turso.io/db"))
	assert.False(t, isURL("/tmp/attempts.db"))
}
