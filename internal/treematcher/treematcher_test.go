package treematcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/matching"
)

func goProfile(t *testing.T) *langprofile.Profile {
	t.Helper()
	r := langprofile.NewRegistry()
	builtin.Register(r)
	p, ok := r.ByName("go")
	require.True(t, ok)
	return p
}

func parseGo(t *testing.T, src string) *ast.Node {
	t.Helper()
	arena := ast.NewArena(len(src))
	root, err := ast.Parse(context.Background(), src, goProfile(t), arena)
	require.NoError(t, err)
	return root
}

func TestMatchTreesExactMatchCompletenessOnIdenticalInputs(t *testing.T) {
	src := "package p\n\nfunc F() int {\n\treturn 1\n}\n"
	left := parseGo(t, src)
	right := parseGo(t, src)

	m := Default(goProfile(t))
	result := m.MatchTrees(left, right, nil)

	leftNodes := left.DFS()
	for _, n := range leftNodes {
		_, ok := result.Exact.GetFromLeft(n)
		assert.True(t, ok, "expected every node of an identical tree to be exactly matched: %s", n)
	}
	assert.Equal(t, len(leftNodes), result.Exact.Len())
}

// diceSimilarity's formula (2*|common|/(|dfs(a)|+|dfs(b)|)) is only
// symmetric in the node-matching sense when the matched relation used to
// count "common" descendants is itself built with the matching pair's
// roles swapped to match — the function always resolves "common" via
// matched.GetFromLeft, so a true left/right-symmetry check needs a matched
// relation built in each direction, not just swapped call arguments.
func TestDiceSimilarityIsSymmetricAcrossMatchingDirection(t *testing.T) {
	left := parseGo(t, "package p\n\nfunc F() {\n\tx := 1\n\ty := 2\n}\n")
	right := parseGo(t, "package p\n\nfunc F() {\n\tx := 1\n\tz := 3\n}\n")

	forward := matchedFromExact(left, right)
	backward := matchedFromExact(right, left)

	ab := diceSimilarity(left, right, forward)
	ba := diceSimilarity(right, left, backward)

	assert.InDelta(t, ab, ba, 1e-9)
}

func TestDiceSimilarityIsOneForIdenticalSubtrees(t *testing.T) {
	left := parseGo(t, "package p\n\nfunc F() int { return 1 }\n")
	right := parseGo(t, "package p\n\nfunc F() int { return 1 }\n")

	matched := matchedFromExact(left, right)

	score := diceSimilarity(left, right, matched)

	assert.InDelta(t, 1.0, score, 1e-9)
}

func matchedFromExact(left, right *ast.Node) *matching.Matching {
	m := Default(nil)
	matched, _ := m.topDownPass(left, right, nil)
	return matched
}
