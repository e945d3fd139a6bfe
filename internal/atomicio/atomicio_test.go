package atomicio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w := New(DefaultConfig())

	require.NoError(t, w.WriteFile(path, "first\n"))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(got))

	require.NoError(t, w.WriteFile(path, "second\n"))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))

	_, err = os.Stat(path + DefaultConfig().TempSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileNoStaleLockLeftBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w := New(DefaultConfig())
	require.NoError(t, w.WriteFile(path, "content\n"))

	_, err := os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err))
}
