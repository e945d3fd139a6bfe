// Package mergedtree defines the MergedTree sum type: the result of
// reconstructing a tree from a cleaned change-set.
package mergedtree

import (
	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/revision"
)

// Kind tags which variant a MergedTree value holds. Downstream code must
// switch on Kind exhaustively rather than collapsing this into a single
// "node with flags" structure.
type Kind int

const (
	// KindExact: a subtree reproducible verbatim from any listed revision.
	KindExact Kind = iota
	// KindMixed: composed from heterogeneous children.
	KindMixed
	// KindConflict: an unresolved divergence at this position.
	KindConflict
	// KindLineBasedMerge: a local fallback produced by line diff3.
	KindLineBasedMerge
	// KindCommutativeChildSeparator: a synthetic separator inserted while
	// commutatively reordering children.
	KindCommutativeChildSeparator
)

// Tree is the tagged union. Only the fields relevant to Kind are valid.
type Tree struct {
	Kind Kind

	// KindExact / KindMixed / KindLineBasedMerge
	Leader classmapping.Leader
	Hash    uint64

	// KindMixed
	Children []*Tree

	// KindConflict
	ConflictBase  []*ast.Node
	ConflictLeft  []*ast.Node
	ConflictRight []*ast.Node

	// KindLineBasedMerge
	Text         string
	ConflictMass int

	// KindCommutativeChildSeparator
	SeparatorText string
}

// NewExact builds an ExactTree node for a leader reproducible verbatim from
// any of its representative revisions.
func NewExact(l classmapping.Leader) *Tree {
	return &Tree{Kind: KindExact, Leader: l, Hash: l.AsRepresentative().Node.Hash}
}

// NewMixed builds a MixedTree node from already-built children.
func NewMixed(l classmapping.Leader, children []*Tree) *Tree {
	h := l.AsRepresentative().Node.Hash
	return &Tree{Kind: KindMixed, Leader: l, Children: children, Hash: h}
}

// NewConflict builds a Conflict node holding the three divergent sub-chains.
func NewConflict(base, left, right []*ast.Node) *Tree {
	return &Tree{Kind: KindConflict, ConflictBase: base, ConflictLeft: left, ConflictRight: right}
}

// NewLineBasedMerge builds a LineBasedMerge node for a subtree that could
// not be reconciled structurally.
func NewLineBasedMerge(l classmapping.Leader, text string, conflictMass int) *Tree {
	return &Tree{Kind: KindLineBasedMerge, Leader: l, Text: text, ConflictMass: conflictMass}
}

// NewSeparator builds a CommutativeChildSeparator node.
func NewSeparator(text string) *Tree {
	return &Tree{Kind: KindCommutativeChildSeparator, SeparatorText: text}
}

// GrammarName returns the grammar kind of the node backing this subtree, if
// any (Conflict and CommutativeChildSeparator have none).
func (t *Tree) GrammarName() (string, bool) {
	switch t.Kind {
	case KindExact, KindMixed, KindLineBasedMerge:
		return t.Leader.AsRepresentative().Node.GrammarName, true
	default:
		return "", false
	}
}

// FieldName returns the field name of the node backing this subtree, if any.
func (t *Tree) FieldName() (string, bool) {
	switch t.Kind {
	case KindExact, KindMixed, KindLineBasedMerge:
		return t.Leader.AsRepresentative().Node.FieldName, true
	default:
		return "", false
	}
}

// CountConflicts returns the number of Conflict nodes in this subtree.
func (t *Tree) CountConflicts() int {
	n := 0
	if t.Kind == KindConflict {
		n++
	}
	for _, c := range t.Children {
		n += c.CountConflicts()
	}
	return n
}

// ConflictMassTotal sums the byte length of every side of every conflict in
// this subtree, used to rank candidate merges.
func (t *Tree) ConflictMassTotal() int {
	mass := 0
	switch t.Kind {
	case KindConflict:
		mass += sumLen(t.ConflictBase) + sumLen(t.ConflictLeft) + sumLen(t.ConflictRight)
	case KindLineBasedMerge:
		mass += t.ConflictMass
	}
	for _, c := range t.Children {
		mass += c.ConflictMassTotal()
	}
	return mass
}

func sumLen(nodes []*ast.Node) int {
	n := 0
	for _, node := range nodes {
		n += len(node.Source)
	}
	return n
}

// Contains reports whether this subtree (an ExactTree) includes rev among
// the revisions it is reproducible from — used by commutative merging to
// check whether a removed child was actually left unmodified.
func (t *Tree) Contains(cm *classmapping.ClassMapping, rev revision.Revision) bool {
	if t.Kind != KindExact {
		return false
	}
	return cm.RevisionSet(t.Leader).Has(rev)
}
