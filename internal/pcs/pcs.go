// Package pcs implements the Parent/Predecessor/Successor triple encoding
// used by the 3DM merge algorithm: each tree is flattened into a normalized
// relation of PCS triples, one per (parent, predecessor, successor)
// adjacency, tagged with the revision it was observed in.
package pcs

import (
	"fmt"

	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/revision"
)

// NodeKind distinguishes the four forms a PCS component can take.
type NodeKind int

const (
	// VirtualRoot is the marker corresponding to the root of the document (⊥).
	VirtualRoot NodeKind = iota
	// LeftMarker marks the start of a list of children (⊣).
	LeftMarker
	// NodeRef is an actual node from the trees being merged.
	NodeRef
	// RightMarker marks the end of a list of children (⊢).
	RightMarker
)

// Node is one component of a PCS triple.
type Node struct {
	Kind      NodeKind
	Revisions revision.NESet // only meaningful when Kind == NodeRef
	Leader    classmapping.Leader
}

func Root() Node                   { return Node{Kind: VirtualRoot} }
func Left() Node                   { return Node{Kind: LeftMarker} }
func Right() Node                  { return Node{Kind: RightMarker} }
func Of(revs revision.NESet, l classmapping.Leader) Node {
	return Node{Kind: NodeRef, Revisions: revs, Leader: l}
}

func (n Node) String() string {
	switch n.Kind {
	case VirtualRoot:
		return "<root>"
	case LeftMarker:
		return "<start>"
	case RightMarker:
		return "<end>"
	default:
		return n.Leader.AsRepresentative().String()
	}
}

// key identifies a PCS node for equality/hashing purposes, ignoring
// revision (two PCS nodes referring to the same leader are equal
// regardless of which NESet produced them), matching PCSNode's hand-rolled
// PartialEq/Hash in the original.
func (n Node) key() any {
	switch n.Kind {
	case NodeRef:
		return n.Leader.AsRepresentative()
	default:
		return n.Kind
	}
}

// Triple is a single PCS fact: parent is the parent of both predecessor and
// successor, and predecessor immediately precedes successor among parent's
// children, in the given revision.
type Triple struct {
	Parent      Node
	Predecessor Node
	Successor   Node
	Revision    revision.Revision
}

// key ignores Revision, matching the original's PartialEq/Hash for PCS
// (so triples from different revisions can be recognized as "the same
// fact").
type tripleKey struct {
	parent, predecessor, successor any
}

func (t Triple) key() tripleKey {
	return tripleKey{t.Parent.key(), t.Predecessor.key(), t.Successor.key()}
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", t.Parent, t.Predecessor, t.Successor, t.Revision)
}
