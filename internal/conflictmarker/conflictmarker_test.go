package conflictmarker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/settings"
)

func TestParseDiff3Chunk(t *testing.T) {
	text := "before\n<<<<<<< LEFT\nleft text\n||||||| BASE\nbase text\n=======\nright text\n>>>>>>> RIGHT\nafter\n"

	parsed, err := Parse(text, false)
	require.NoError(t, err)
	require.True(t, parsed.HasConflicts())
	require.Len(t, parsed.Chunks, 3)

	assert.False(t, parsed.Chunks[0].IsConflict)
	assert.Equal(t, "before\n", parsed.Chunks[0].Lines)

	conflict := parsed.Chunks[1]
	assert.True(t, conflict.IsConflict)
	assert.True(t, conflict.HasBase)
	assert.Equal(t, "left text\n", conflict.Left)
	assert.Equal(t, "base text\n", conflict.Base)
	assert.Equal(t, "right text\n", conflict.Right)

	assert.Equal(t, "after\n", parsed.Chunks[2].Lines)
}

func TestParseDiff2RejectedWhenDiff3Required(t *testing.T) {
	text := "<<<<<<< LEFT\nleft\n=======\nright\n>>>>>>> RIGHT\n"
	_, err := Parse(text, true)
	assert.Error(t, err)
}

func TestParseDiff2AllowedByDefault(t *testing.T) {
	text := "<<<<<<< LEFT\nleft\n=======\nright\n>>>>>>> RIGHT\n"
	parsed, err := Parse(text, false)
	require.NoError(t, err)
	require.Len(t, parsed.Chunks, 1)
	assert.False(t, parsed.Chunks[0].HasBase)
}

func TestRenderRoundTrip(t *testing.T) {
	text := "plain\n<<<<<<< LEFT\nl\n||||||| BASE\nb\n=======\nr\n>>>>>>> RIGHT\n"
	parsed, err := Parse(text, false)
	require.NoError(t, err)

	out := parsed.Render(settings.Default())
	assert.Equal(t, text, out)
}
