package treebuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/matching"
	"github.com/oxhq/mergo/internal/pcs"
	"github.com/oxhq/mergo/internal/revision"
	"github.com/oxhq/mergo/internal/settings"
	"github.com/oxhq/mergo/internal/textrender"
	"github.com/oxhq/mergo/internal/treematcher"
)

// unionRest mirrors merge3dm's own helper of the same name: the
// non-exact (container + linear-recovery) portion of a detailed matching.
func unionRest(d treematcher.DetailedMatching) *matching.Matching {
	out := matching.New()
	if d.Container != nil {
		out.AddMatching(d.Container)
	}
	if d.Recovery != nil {
		out.AddMatching(d.Recovery)
	}
	return out
}

func profileByName(t *testing.T, name string) *langprofile.Profile {
	t.Helper()
	r := langprofile.NewRegistry()
	builtin.Register(r)
	p, ok := r.ByName(name)
	require.True(t, ok)
	return p
}

// buildAndRender runs the matching/class-mapping/PCS/build/render stages
// directly (bypassing merge3dm's parallel orchestration, but exercising the
// exact same sequence) so treebuilder's output can be asserted without a
// signature post-processing pass in between.
func buildAndRender(t *testing.T, profile *langprofile.Profile, base, left, right string) string {
	t.Helper()
	ctx := context.Background()

	baseRoot, err := ast.Parse(ctx, base, profile, ast.NewArena(len(base)))
	require.NoError(t, err)
	leftRoot, err := ast.Parse(ctx, left, profile, ast.NewArena(len(left)))
	require.NoError(t, err)
	rightRoot, err := ast.Parse(ctx, right, profile, ast.NewArena(len(right)))
	require.NoError(t, err)

	matcher := treematcher.Default(profile)
	bl := matcher.MatchTrees(baseRoot, leftRoot, nil)
	br := matcher.MatchTrees(baseRoot, rightRoot, nil)
	lr := matcher.MatchTrees(leftRoot, rightRoot, nil)

	cm := classmapping.New()
	cm.AddMatching(revision.Base, revision.Left, bl.Exact, true)
	cm.AddMatching(revision.Base, revision.Left, unionRest(bl), false)
	cm.AddMatching(revision.Base, revision.Right, br.Exact, true)
	cm.AddMatching(revision.Base, revision.Right, unionRest(br), false)
	cm.AddMatching(revision.Left, revision.Right, lr.Exact, true)
	cm.AddMatching(revision.Left, revision.Right, unionRest(lr), false)

	cs := pcs.NewChangeSet()
	cs.AddTree(revision.Base, baseRoot, cm)
	cs.AddTree(revision.Left, leftRoot, cm)
	cs.AddTree(revision.Right, rightRoot, cm)
	cs.CleanupBaseConflicts()

	baseCS := pcs.NewChangeSet()
	baseCS.AddTree(revision.Base, baseRoot, cm)

	rootLeader := cm.Leader(revision.Base, baseRoot)
	b := New(cs, baseCS, cm, profile)
	tree, err := b.BuildTree(rootLeader)
	require.NoError(t, err)

	text, _ := textrender.Render(tree, settings.Default())
	return text
}

func TestBuildTreeMixedChildrenKeepWhitespaceBetweenSiblings(t *testing.T) {
	profile := profileByName(t, "go")
	base := "package p\n\nfunc A() {\n\tx := 1\n}\n"
	left := "package p\n\nfunc A() {\n\tx := 2\n}\n"

	got := buildAndRender(t, profile, base, left, base)

	assert.Equal(t, left, got)
}

func TestBuildTreeCommutativeParentReplaysDelimiters(t *testing.T) {
	profile := profileByName(t, "javascript")
	base := "const o = {\n  a: 1\n};\n"
	left := "const o = {\n  a: 1,\n  b: 2\n};\n"
	right := "const o = {\n  a: 1,\n  c: 3\n};\n"

	got := buildAndRender(t, profile, base, left, right)

	assert.Contains(t, got, "{")
	assert.Contains(t, got, "}")
	assert.Contains(t, got, "b: 2")
	assert.Contains(t, got, "c: 3")
}

func TestBuildTreeCommutativeParentEmptyAfterAllRemoved(t *testing.T) {
	profile := profileByName(t, "go")
	base := "package p\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n"
	left := "package p\n\nimport (\n\t\"fmt\"\n)\n"

	got := buildAndRender(t, profile, base, left, base)

	assert.Contains(t, got, "\"fmt\"")
	assert.NotContains(t, got, "\"os\"")
}
