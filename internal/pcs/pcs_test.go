package pcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/revision"
)

func parseGo(t *testing.T, src string) *ast.Node {
	t.Helper()
	r := langprofile.NewRegistry()
	builtin.Register(r)
	p, ok := r.ByName("go")
	require.True(t, ok)
	arena := ast.NewArena(len(src))
	root, err := ast.Parse(context.Background(), src, p, arena)
	require.NoError(t, err)
	return root
}

// A tree flattened into PCS triples and walked back out via Successors
// starting from the left marker must reproduce the same child order at
// every level it was built from, for a change-set built from a single
// revision (no conflicting facts to reconcile).
func TestAddTreeRoundTripsChildOrder(t *testing.T) {
	src := "package p\n\nfunc A() {}\n\nfunc B() {}\n\nfunc C() {}\n"
	root := parseGo(t, src)

	cm := classmapping.New()
	cs := NewChangeSet()
	cs.AddTree(revision.Base, root, cm)

	var walk func(node *ast.Node)
	walk = func(node *ast.Node) {
		parent := cm.Leader(revision.Base, node)
		parentNode := Of(revision.NewNESet(revision.NewSet(revision.Base)), parent)

		cur := Left()
		var got []*ast.Node
		for {
			successors := cs.Successors(parentNode, cur)
			require.Len(t, successors, 1, "single-revision change-set must have exactly one successor")
			next := successors[0]
			if next.Kind == RightMarker {
				break
			}
			childLeader := next.Leader
			childRev, ok := cm.NodeAtRev(childLeader, revision.Base)
			require.True(t, ok)
			got = append(got, childRev)
			cur = next
		}

		assert.Equal(t, node.Children, got)
		for _, c := range got {
			walk(c)
		}
	}
	walk(root)
}

func TestInconsistentTriplesEmptyForSingleRevision(t *testing.T) {
	root := parseGo(t, "package p\n\nfunc A() {}\n")

	cm := classmapping.New()
	cs := NewChangeSet()
	cs.AddTree(revision.Base, root, cm)

	assert.Empty(t, cs.InconsistentTriples())
}

func TestCleanupBaseConflictsRemovesOverriddenBaseTriple(t *testing.T) {
	base := parseGo(t, "package p\n\nfunc A() {}\n\nfunc B() {}\n")
	left := parseGo(t, "package p\n\nfunc A() {}\n\nfunc C() {}\n")

	cm := classmapping.New()
	cs := NewChangeSet()
	cs.AddTree(revision.Base, base, cm)
	cs.AddTree(revision.Left, left, cm)

	before := cs.Len()
	cs.CleanupBaseConflicts()

	assert.LessOrEqual(t, cs.Len(), before)
	assert.Empty(t, cs.InconsistentTriples())
}
