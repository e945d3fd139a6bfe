package classmapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/matching"
	"github.com/oxhq/mergo/internal/revision"
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

func TestUnionMergesTwoSingletonClustersIntoOne(t *testing.T) {
	base := parseGo(t, "package p\n")
	left := parseGo(t, "package p\n")
	cm := New()

	baseLeader := cm.Leader(revision.Base, base)
	leftLeaderBefore := cm.Leader(revision.Left, left)
	assert.NotEqual(t, baseLeader.AsRepresentative(), leftLeaderBefore.AsRepresentative())

	m := matching.New()
	m.Add(base, left)
	cm.AddMatching(revision.Base, revision.Left, m, true)

	baseLeaderAfter := cm.Leader(revision.Base, base)
	leftLeaderAfter := cm.Leader(revision.Left, left)
	assert.Equal(t, baseLeaderAfter.AsRepresentative(), leftLeaderAfter.AsRepresentative())
}

func TestIsIsomorphicInAllRevisionsRequiresTwoExactMatches(t *testing.T) {
	base := parseGo(t, "package p\n")
	left := parseGo(t, "package p\n")
	right := parseGo(t, "package p\n")
	cm := New()

	bl := matching.New()
	bl.Add(base, left)
	cm.AddMatching(revision.Base, revision.Left, bl, true)

	l := cm.Leader(revision.Base, base)
	assert.False(t, cm.IsIsomorphicInAllRevisions(l))

	br := matching.New()
	br.Add(base, right)
	cm.AddMatching(revision.Base, revision.Right, br, true)

	assert.True(t, cm.IsIsomorphicInAllRevisions(cm.Leader(revision.Base, base)))
}

func TestIsReformattingDetectsSameHashDifferentSource(t *testing.T) {
	base := parseGo(t, "package p\n\nfunc F(){return 1}\n")
	left := parseGo(t, "package p\n\nfunc F() { return 1 }\n")
	cm := New()

	m := matching.New()
	m.Add(base, left)
	cm.AddMatching(revision.Base, revision.Left, m, true)

	l := cm.Leader(revision.Base, base)

	assert.Equal(t, base.Hash, left.Hash)
	assert.NotEqual(t, base.Source, left.Source)
	assert.True(t, cm.IsReformatting(l, revision.Left))
	assert.False(t, cm.IsReformatting(l, revision.Base))
}

func TestNodeAtRevReturnsOkFalseForAbsentRevision(t *testing.T) {
	base := parseGo(t, "package p\n")
	cm := New()
	l := cm.Leader(revision.Base, base)

	_, ok := cm.NodeAtRev(l, revision.Right)

	assert.False(t, ok)
}
