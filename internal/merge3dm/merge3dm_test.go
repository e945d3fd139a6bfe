package merge3dm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/settings"
)

func registry(t *testing.T) *langprofile.Registry {
	t.Helper()
	r := langprofile.NewRegistry()
	builtin.Register(r)
	return r
}

func profileFor(t *testing.T, name string) *langprofile.Profile {
	t.Helper()
	p, ok := registry(t).ByName(name)
	require.True(t, ok)
	return p
}

func mergeGo(t *testing.T, base, left, right string) *Result {
	t.Helper()
	res, err := Merge(context.Background(), base, left, right, profileFor(t, "go"), settings.Default())
	require.NoError(t, err)
	return res
}

func TestMergeIdempotentWhenAllThreeRevisionsMatch(t *testing.T) {
	src := "package p\n\nfunc F() int {\n\treturn 1\n}\n"

	res := mergeGo(t, src, src, src)

	assert.False(t, res.HasConflict)
	assert.Equal(t, src, res.Text)
}

func TestMergeIdentityWhenOnlyOneSideChanges(t *testing.T) {
	base := "package p\n\nfunc F() int {\n\treturn 1\n}\n"
	left := "package p\n\nfunc F() int {\n\treturn 2\n}\n"

	res := mergeGo(t, base, left, base)

	assert.False(t, res.HasConflict)
	assert.Equal(t, left, res.Text)
}

func TestMergeLeftRightSymmetryOnNonConflictingEdits(t *testing.T) {
	base := "package p\n\nfunc F() {\n\tx := 1\n\ty := 2\n}\n"
	left := "package p\n\nfunc F() {\n\tx := 10\n\ty := 2\n}\n"
	right := "package p\n\nfunc F() {\n\tx := 1\n\ty := 20\n}\n"
	want := "package p\n\nfunc F() {\n\tx := 10\n\ty := 20\n}\n"

	forward := mergeGo(t, base, left, right)
	swapped := mergeGo(t, base, right, left)

	assert.False(t, forward.HasConflict)
	assert.False(t, swapped.HasConflict)
	assert.Equal(t, want, forward.Text)
	assert.Equal(t, want, swapped.Text)
}

func TestMergeConflictingEditsProduceConflictMarkers(t *testing.T) {
	base := "package p\n\nfunc F() int {\n\treturn 1\n}\n"
	left := "package p\n\nfunc F() int {\n\treturn 2\n}\n"
	right := "package p\n\nfunc F() int {\n\treturn 3\n}\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "go"), settings.Default())

	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	assert.Contains(t, res.Text, "<<<<<<< LEFT")
	assert.Contains(t, res.Text, ">>>>>>> RIGHT")
	assert.Positive(t, res.ConflictMass)
}

func TestMergeGoImportListCommutesBothSidesAdd(t *testing.T) {
	base := "package p\n\nimport (\n\t\"fmt\"\n)\n"
	left := "package p\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n"
	right := "package p\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "go"), settings.Default())

	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Contains(t, res.Text, "\"fmt\"")
	assert.Contains(t, res.Text, "\"os\"")
	assert.Contains(t, res.Text, "\"strings\"")
}

func TestMergeJavaScriptObjectKeyAdditionBothSidesPreservesBraces(t *testing.T) {
	base := "const o = {\n  a: 1\n};\n"
	left := "const o = {\n  a: 1,\n  b: 2\n};\n"
	right := "const o = {\n  a: 1,\n  c: 3\n};\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "javascript"), settings.Default())

	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Contains(t, res.Text, "{")
	assert.Contains(t, res.Text, "}")
	assert.Contains(t, res.Text, "b: 2")
	assert.Contains(t, res.Text, "c: 3")
}

func TestMergePythonDictKeyAdditionBothSidesPreservesBraces(t *testing.T) {
	base := "d = {\n    'a': 1,\n}\n"
	left := "d = {\n    'a': 1,\n    'b': 2,\n}\n"
	right := "d = {\n    'a': 1,\n    'c': 3,\n}\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "python"), settings.Default())

	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Contains(t, res.Text, "{")
	assert.Contains(t, res.Text, "}")
	assert.Contains(t, res.Text, "'b': 2")
	assert.Contains(t, res.Text, "'c': 3")
}

func TestMergeFunctionAdditionsAtDifferentAnchorsIsConflictFree(t *testing.T) {
	base := "package p\n\nfunc A() {}\n\nfunc E() {}\n"
	left := "package p\n\nfunc A() {}\n\nfunc D() {}\n\nfunc E() {}\n"
	right := "package p\n\nfunc A() {}\n\nfunc E() {}\n\nfunc F() {}\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "go"), settings.Default())

	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Contains(t, res.Text, "func D()")
	assert.Contains(t, res.Text, "func F()")
}

func TestMergeFunctionAdditionsAtSameAnchorPointIsAConflict(t *testing.T) {
	base := "package p\n\nfunc A() {}\n"
	left := "package p\n\nfunc A() {}\n\nfunc B() {}\n"
	right := "package p\n\nfunc A() {}\n\nfunc C() {}\n"

	res, err := Merge(context.Background(), base, left, right, profileFor(t, "go"), settings.Default())

	require.NoError(t, err)
	assert.True(t, res.HasConflict, "two unrelated insertions at the same anchor point have no well-defined order and must conflict")
}
