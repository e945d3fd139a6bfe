// Package matching implements a one-to-one correspondence between nodes of
// two trees, as produced by a tree-matching algorithm.
package matching

import "github.com/oxhq/mergo/internal/ast"

// Matching is a one-to-one relation between nodes of a "left" tree and a
// "right" tree. Nodes with different grammar kinds cannot be matched;
// leaves with different source text cannot be matched either (both
// enforced by callers, not by this type, to keep it a pure relation).
type Matching struct {
	leftToRight map[*ast.Node]*ast.Node
	rightToLeft map[*ast.Node]*ast.Node
}

// New creates an empty matching.
func New() *Matching {
	return &Matching{
		leftToRight: make(map[*ast.Node]*ast.Node),
		rightToLeft: make(map[*ast.Node]*ast.Node),
	}
}

// Add records that l matches r. It performs no check: adding a pair whose
// side is already matched to something else leaves the old partner's
// reverse entry in place, so callers must check CanBeMatched first.
func (m *Matching) Add(l, r *ast.Node) {
	m.leftToRight[l] = r
	m.rightToLeft[r] = l
}

// CanBeMatched reports whether adding (l, r) would keep the relation
// one-to-one.
func (m *Matching) CanBeMatched(l, r *ast.Node) bool {
	if existing, ok := m.leftToRight[l]; ok && existing != r {
		return false
	}
	if existing, ok := m.rightToLeft[r]; ok && existing != l {
		return false
	}
	return true
}

// AreMatched reports whether l and r are matched to each other.
func (m *Matching) AreMatched(l, r *ast.Node) bool {
	matched, ok := m.leftToRight[l]
	return ok && matched == r
}

// GetFromLeft returns the right-side node matched to l, if any.
func (m *Matching) GetFromLeft(l *ast.Node) (*ast.Node, bool) {
	r, ok := m.leftToRight[l]
	return r, ok
}

// GetFromRight returns the left-side node matched to r, if any.
func (m *Matching) GetFromRight(r *ast.Node) (*ast.Node, bool) {
	l, ok := m.rightToLeft[r]
	return l, ok
}

// Len returns the number of matched pairs.
func (m *Matching) Len() int { return len(m.leftToRight) }

// AddMatching merges every pair of other into m. Existing pairs in m take
// priority: a conflicting pair from other is skipped.
func (m *Matching) AddMatching(other *Matching) {
	if other == nil {
		return
	}
	for l, r := range other.leftToRight {
		if m.CanBeMatched(l, r) {
			m.Add(l, r)
		}
	}
}

// IterLeftToRight calls fn for every matched pair.
func (m *Matching) IterLeftToRight(fn func(l, r *ast.Node)) {
	for l, r := range m.leftToRight {
		fn(l, r)
	}
}

// Translate rebuilds this matching in terms of id-equivalent nodes in newLeft
// and newRight (used after truncation produces a new tree sharing ids with
// the original), by matching nodes whose ID is equal.
func (m *Matching) Translate(newLeft, newRight *ast.Node) *Matching {
	leftByID := make(map[int]*ast.Node)
	for _, n := range newLeft.DFS() {
		leftByID[n.ID] = n
	}
	rightByID := make(map[int]*ast.Node)
	for _, n := range newRight.DFS() {
		rightByID[n.ID] = n
	}
	out := New()
	for l, r := range m.leftToRight {
		nl, lok := leftByID[l.ID]
		nr, rok := rightByID[r.ID]
		if lok && rok {
			out.Add(nl, nr)
		}
	}
	return out
}
