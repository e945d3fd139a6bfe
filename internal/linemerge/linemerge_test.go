package linemerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff3NoConflictWhenOnlyOneSideChanges(t *testing.T) {
	base := "a\nb\nc\n"
	left := "a\nb\nc\n"
	right := "a\nX\nc\n"

	result := Diff3(base, left, right)

	assert.False(t, result.HasConflict)
	assert.Equal(t, "a\nX\nc\n", result.Text)
}

func TestDiff3IdenticalEditsOnBothSides(t *testing.T) {
	base := "a\nb\nc\n"
	left := "a\nX\nc\n"
	right := "a\nX\nc\n"

	result := Diff3(base, left, right)

	assert.False(t, result.HasConflict)
	assert.Equal(t, "a\nX\nc\n", result.Text)
}

func TestDiff3ConflictingEdits(t *testing.T) {
	base := "a\nb\nc\n"
	left := "a\nleft\nc\n"
	right := "a\nright\nc\n"

	result := Diff3(base, left, right)

	assert.True(t, result.HasConflict)
	assert.Contains(t, result.Text, "<<<<<<< LEFT")
	assert.Contains(t, result.Text, "||||||| BASE")
	assert.Contains(t, result.Text, "=======")
	assert.Contains(t, result.Text, ">>>>>>> RIGHT")
	assert.Positive(t, result.ConflictMass)
}
