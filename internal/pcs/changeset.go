package pcs

import (
	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/revision"
)

// ChangeSet is the multiset of PCS triples gathered from one or more trees,
// indexed three ways so that tree reconstruction can walk it efficiently.
type ChangeSet struct {
	triples       map[tripleKey]Triple
	byParent      map[any][]Triple
	byPredecessor map[any][]Triple
	bySuccessor   map[any][]Triple
}

// NewChangeSet builds an empty change-set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		triples:       make(map[tripleKey]Triple),
		byParent:      make(map[any][]Triple),
		byPredecessor: make(map[any][]Triple),
		bySuccessor:   make(map[any][]Triple),
	}
}

// Add inserts a triple, deduplicating on (parent, predecessor, successor)
// regardless of revision: the same fact added again from another revision
// is dropped, so the stored Revision is that of the first revision that
// added it, and Len and Iter see each distinct fact once.
func (cs *ChangeSet) Add(t Triple) {
	k := t.key()
	if _, ok := cs.triples[k]; ok {
		return
	}
	cs.triples[k] = t
	cs.byParent[t.Parent.key()] = append(cs.byParent[t.Parent.key()], t)
	cs.byPredecessor[t.Predecessor.key()] = append(cs.byPredecessor[t.Predecessor.key()], t)
	cs.bySuccessor[t.Successor.key()] = append(cs.bySuccessor[t.Successor.key()], t)
}

// Remove deletes a triple (used by the 3DM cleanup rule).
func (cs *ChangeSet) Remove(t Triple) {
	k := t.key()
	if _, ok := cs.triples[k]; !ok {
		return
	}
	delete(cs.triples, k)
	cs.byParent[t.Parent.key()] = removeTriple(cs.byParent[t.Parent.key()], t)
	cs.byPredecessor[t.Predecessor.key()] = removeTriple(cs.byPredecessor[t.Predecessor.key()], t)
	cs.bySuccessor[t.Successor.key()] = removeTriple(cs.bySuccessor[t.Successor.key()], t)
}

func removeTriple(list []Triple, t Triple) []Triple {
	out := list[:0]
	for _, x := range list {
		if x.key() != t.key() {
			out = append(out, x)
		}
	}
	return out
}

// Len returns the number of distinct triples.
func (cs *ChangeSet) Len() int { return len(cs.triples) }

// Iter returns every triple in the change-set.
func (cs *ChangeSet) Iter() []Triple {
	out := make([]Triple, 0, len(cs.triples))
	for _, t := range cs.triples {
		out = append(out, t)
	}
	return out
}

// ByParent returns every triple sharing the given parent.
func (cs *ChangeSet) ByParent(parent Node) []Triple { return cs.byParent[parent.key()] }

// ByPredecessor returns every triple with the given predecessor, under any
// parent; callers filter further by parent.
func (cs *ChangeSet) ByPredecessor(pred Node) []Triple { return cs.byPredecessor[pred.key()] }

// BySuccessor returns every triple sharing the given successor.
func (cs *ChangeSet) BySuccessor(succ Node) []Triple { return cs.bySuccessor[succ.key()] }

// Successors returns the distinct successor nodes that follow pred under
// parent, deduplicated by leader. May return zero, one, or several
// candidates depending on how the three revisions agree.
func (cs *ChangeSet) Successors(parent, pred Node) []Node {
	seen := make(map[any]bool)
	var out []Node
	for _, t := range cs.ByPredecessor(pred) {
		if t.Parent.key() != parent.key() {
			continue
		}
		k := t.Successor.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t.Successor)
	}
	return out
}

// AddTree flattens node's subtree (as observed in revision rev) into PCS
// triples and adds them to the change-set. Recursion stops at any cluster
// already known to be isomorphic in all three revisions, since such a
// subtree will be reconstructed verbatim as an ExactTree and does not need
// its internal structure represented in the change-set.
func (cs *ChangeSet) AddTree(rev revision.Revision, root *ast.Node, cm *classmapping.ClassMapping) {
	rootLeader := cm.Leader(rev, root)
	rootNode := nodeFor(cm, rootLeader)
	cs.Add(Triple{Parent: Root(), Predecessor: Left(), Successor: rootNode, Revision: rev})
	cs.Add(Triple{Parent: Root(), Predecessor: rootNode, Successor: Right(), Revision: rev})
	cs.addNodeRecursively(rev, root, cm)
}

func (cs *ChangeSet) addNodeRecursively(rev revision.Revision, node *ast.Node, cm *classmapping.ClassMapping) {
	leader := cm.Leader(rev, node)
	if cm.IsIsomorphicInAllRevisions(leader) {
		return
	}
	parentNode := nodeFor(cm, leader)
	prev := Left()
	for _, child := range node.Children {
		childLeader := cm.Leader(rev, child)
		childNode := nodeFor(cm, childLeader)
		cs.Add(Triple{Parent: parentNode, Predecessor: prev, Successor: childNode, Revision: rev})
		prev = childNode
		cs.addNodeRecursively(rev, child, cm)
	}
	cs.Add(Triple{Parent: parentNode, Predecessor: prev, Successor: Right(), Revision: rev})
}

func nodeFor(cm *classmapping.ClassMapping, l classmapping.Leader) Node {
	revs := cm.RevisionSet(l)
	if revs.IsEmpty() {
		revs = revs.Add(l.AsRepresentative().Rev)
	}
	return Of(revision.NewNESet(revs), l)
}

// InconsistentTriples reports pairs of triples that share a parent and
// predecessor but disagree on successor (or share parent and successor but
// disagree on predecessor) — the structural conflict-detection rule.
func (cs *ChangeSet) InconsistentTriples() [][2]Triple {
	var out [][2]Triple
	bySuccGroup := groupByParentAndPred(cs.Iter())
	for _, group := range bySuccGroup {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Successor.key() != group[j].Successor.key() {
					out = append(out, [2]Triple{group[i], group[j]})
				}
			}
		}
	}
	byPredGroup := groupByParentAndSucc(cs.Iter())
	for _, group := range byPredGroup {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Predecessor.key() != group[j].Predecessor.key() {
					out = append(out, [2]Triple{group[i], group[j]})
				}
			}
		}
	}
	return out
}

type pairKey struct{ a, b any }

func groupByParentAndPred(triples []Triple) map[pairKey][]Triple {
	m := make(map[pairKey][]Triple)
	for _, t := range triples {
		k := pairKey{t.Parent.key(), t.Predecessor.key()}
		m[k] = append(m[k], t)
	}
	return m
}

func groupByParentAndSucc(triples []Triple) map[pairKey][]Triple {
	m := make(map[pairKey][]Triple)
	for _, t := range triples {
		k := pairKey{t.Parent.key(), t.Successor.key()}
		m[k] = append(m[k], t)
	}
	return m
}

// CleanupBaseConflicts implements the 3DM cleanup rule: a Base-revision
// triple is removed from the change-set if any non-Base triple conflicts
// with it at the same parent (same predecessor, different successor, or
// vice-versa). Other inconsistencies (Left vs Right) are preserved and
// become conflicts at build time.
func (cs *ChangeSet) CleanupBaseConflicts() {
	var toRemove []Triple
	for _, t := range cs.Iter() {
		if t.Revision != revision.Base {
			continue
		}
		if cs.conflictsWithNonBase(t) {
			toRemove = append(toRemove, t)
		}
	}
	for _, t := range toRemove {
		cs.Remove(t)
	}
}

func (cs *ChangeSet) conflictsWithNonBase(t Triple) bool {
	for _, other := range cs.ByPredecessor(t.Predecessor) {
		if other.Revision == revision.Base {
			continue
		}
		if other.Parent.key() == t.Parent.key() && other.Successor.key() != t.Successor.key() {
			return true
		}
	}
	for _, other := range cs.BySuccessor(t.Successor) {
		if other.Revision == revision.Base {
			continue
		}
		if other.Parent.key() == t.Parent.key() && other.Predecessor.key() != t.Predecessor.key() {
			return true
		}
	}
	return false
}
