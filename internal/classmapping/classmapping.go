// Package classmapping implements cross-revision equivalence classes: a
// union-find clustering of (revision, node) pairs built from the three
// pairwise matchings, exposing a canonical "leader" per cluster.
package classmapping

import (
	"fmt"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/matching"
	"github.com/oxhq/mergo/internal/revision"
)

// RevNode identifies a node within a specific revision's tree. Equality is
// by node identity (pointer), matching RevNode's id-based equality in the
// original.
type RevNode struct {
	Rev  revision.Revision
	Node *ast.Node
}

func (r RevNode) String() string {
	return fmt.Sprintf("%s:%s", r.Rev, r.Node)
}

// Leader is the canonical representative of an equivalence class. When two
// clusters are unioned, the leader of the cluster holding union's first
// argument is kept, so the leader is not necessarily the earliest-added
// member.
type Leader struct {
	Rep RevNode
}

// AsRepresentative returns the underlying RevNode.
func (l Leader) AsRepresentative() RevNode { return l.Rep }

type cluster struct {
	members      map[RevNode]bool
	leader       RevNode
	revisions    revision.Set
	exactMatches int
}

// ClassMapping is the union-find structure over (revision, node) pairs.
type ClassMapping struct {
	parent  map[RevNode]RevNode
	byLabel map[RevNode]*cluster
}

// New builds an empty class mapping.
func New() *ClassMapping {
	return &ClassMapping{
		parent:  make(map[RevNode]RevNode),
		byLabel: make(map[RevNode]*cluster),
	}
}

func (cm *ClassMapping) ensure(rn RevNode) {
	if _, ok := cm.parent[rn]; ok {
		return
	}
	cm.parent[rn] = rn
	cm.byLabel[rn] = &cluster{
		members:   map[RevNode]bool{rn: true},
		leader:    rn,
		revisions: revision.NewSet(rn.Rev),
	}
}

func (cm *ClassMapping) find(rn RevNode) RevNode {
	cm.ensure(rn)
	root := rn
	for cm.parent[root] != root {
		root = cm.parent[root]
	}
	// path compression
	for cm.parent[rn] != root {
		next := cm.parent[rn]
		cm.parent[rn] = root
		rn = next
	}
	return root
}

// AddMatching folds a pairwise matching between revA and revB into the
// class mapping. exact marks whether this matching comes from the exact
// (isomorphic subtree) pass — used to count isomorphic-in-all-revisions
// clusters.
func (cm *ClassMapping) AddMatching(revA, revB revision.Revision, m *matching.Matching, exact bool) {
	if m == nil {
		return
	}
	m.IterLeftToRight(func(a, b *ast.Node) {
		cm.union(RevNode{Rev: revA, Node: a}, RevNode{Rev: revB, Node: b}, exact)
	})
}

func (cm *ClassMapping) union(a, b RevNode, exact bool) {
	cm.ensure(a)
	cm.ensure(b)
	ra, rb := cm.find(a), cm.find(b)
	ca, cb := cm.byLabel[ra], cm.byLabel[rb]
	if ca == cb {
		if exact {
			ca.exactMatches++
		}
		return
	}

	// Keep ra's leader (the cluster of the first argument) and attach cb's
	// members to ca.
	for member := range cb.members {
		ca.members[member] = true
		cm.parent[member] = ra
	}
	ca.revisions = ca.revisions.Union(cb.revisions)
	ca.exactMatches += cb.exactMatches
	if exact {
		ca.exactMatches++
	}
	delete(cm.byLabel, rb)
}

// Leader returns the canonical leader of the cluster containing (rev,
// node), creating a singleton cluster if the node hasn't been seen before.
func (cm *ClassMapping) Leader(rev revision.Revision, node *ast.Node) Leader {
	rn := RevNode{Rev: rev, Node: node}
	root := cm.find(rn)
	return Leader{Rep: cm.byLabel[root].leader}
}

func (cm *ClassMapping) clusterFor(l Leader) *cluster {
	root := cm.find(l.Rep)
	return cm.byLabel[root]
}

// Representatives returns a map from revision to the node representing this
// leader's cluster in that revision, for every revision present.
func (cm *ClassMapping) Representatives(l Leader) map[revision.Revision]*ast.Node {
	c := cm.clusterFor(l)
	out := make(map[revision.Revision]*ast.Node)
	for member := range c.members {
		if _, ok := out[member.Rev]; !ok {
			out[member.Rev] = member.Node
		}
	}
	return out
}

// NodeAtRev returns the node representing this leader's cluster in rev, if
// present.
func (cm *ClassMapping) NodeAtRev(l Leader, rev revision.Revision) (*ast.Node, bool) {
	n, ok := cm.Representatives(l)[rev]
	return n, ok
}

// ChildrenAtRev returns the leaders of the children (in order) of this
// leader's representative node in rev, or nil if the leader has no
// representative there.
func (cm *ClassMapping) ChildrenAtRev(l Leader, rev revision.Revision) []Leader {
	n, ok := cm.NodeAtRev(l, rev)
	if !ok {
		return nil
	}
	out := make([]Leader, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, cm.Leader(rev, c))
	}
	return out
}

// RevisionSet returns the set of revisions in which this leader's cluster
// has a representative.
func (cm *ClassMapping) RevisionSet(l Leader) revision.Set {
	return cm.clusterFor(l).revisions
}

// IsIsomorphicInAllRevisions reports whether this leader's cluster has at
// least 2 exact (isomorphism) matches, which by transitivity means the
// subtree is isomorphic across all three revisions present.
func (cm *ClassMapping) IsIsomorphicInAllRevisions(l Leader) bool {
	return cm.clusterFor(l).exactMatches >= 2
}

// IsReformatting reports whether the hash at rev equals the hash at Base
// but the raw (unindented) source differs — i.e. rev only reformatted this
// subtree without changing its structure.
func (cm *ClassMapping) IsReformatting(l Leader, rev revision.Revision) bool {
	baseNode, ok := cm.NodeAtRev(l, revision.Base)
	if !ok || rev == revision.Base {
		return false
	}
	revNode, ok := cm.NodeAtRev(l, rev)
	if !ok {
		return false
	}
	return baseNode.Hash == revNode.Hash && baseNode.Source != revNode.Source
}

// FieldName returns the field name of this leader's representative node
// (the same across every revision it appears in, by construction), or "".
func (cm *ClassMapping) FieldName(l Leader) string {
	return l.Rep.Node.FieldName
}
