// Package treematcher implements a GumTree-style matcher between two trees:
// a top-down exact pass over isomorphic subtrees, a bottom-up container
// pass scored by Dice similarity, and a linear recovery pass over the
// residual unmatched descendants.
package treematcher

import (
	"sort"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/matching"
)

// Matcher holds the tunable thresholds of the GumTree classic algorithm.
type Matcher struct {
	// MinHeight is the minimum subtree height considered in the top-down
	// pass (typical 1-2).
	MinHeight int
	// SimThreshold is the minimum Dice similarity to accept a bottom-up
	// container match (typical 0.4-0.6).
	SimThreshold float64
	// LangProfile is consulted by callers wanting signature-aware linear
	// recovery; the matcher itself only needs grammar kinds.
	LangProfile *langprofile.Profile
}

// Default returns a Matcher with the thresholds used throughout the
// original implementation.
func Default(profile *langprofile.Profile) *Matcher {
	return &Matcher{MinHeight: 1, SimThreshold: 0.5, LangProfile: profile}
}

// DetailedMatching keeps track of how each link was inferred.
type DetailedMatching struct {
	Full      *matching.Matching
	Exact     *matching.Matching
	Container *matching.Matching
	Recovery  *matching.Matching
}

// MatchTrees runs the full three-phase algorithm between left and right,
// optionally seeded with an initial (partial) matching that the top-down
// pass starts from; merge3dm passes nil for all three pairs.
func (m *Matcher) MatchTrees(left, right *ast.Node, initial *matching.Matching) DetailedMatching {
	matched, exact := m.topDownPass(left, right, initial)

	arena := ast.NewArena(left.DescendantCount() + right.DescendantCount())
	truncatedLeft := left.Truncate(func(n *ast.Node) bool {
		_, ok := exact.GetFromLeft(n)
		return ok
	}, arena)
	truncatedRight := right.Truncate(func(n *ast.Node) bool {
		_, ok := exact.GetFromRight(n)
		return ok
	}, arena)

	truncatedMatching := matched.Translate(truncatedLeft, truncatedRight)
	container, recovery := m.bottomUpPass(truncatedLeft, truncatedRight, truncatedMatching)

	full := matched
	containerFull := container.Translate(left, right)
	recoveryFull := recovery.Translate(left, right)
	full.AddMatching(containerFull)
	full.AddMatching(recoveryFull)

	return DetailedMatching{
		Full:      full,
		Exact:     exact,
		Container: containerFull,
		Recovery:  recoveryFull,
	}
}

func (m *Matcher) topDownPass(left, right *ast.Node, initial *matching.Matching) (*matching.Matching, *matching.Matching) {
	matched := matching.New()
	exact := matching.New()
	if initial != nil {
		matched.AddMatching(initial)
	}

	l1 := newPriorityList()
	l2 := newPriorityList()
	l1.push(left)
	l2.push(right)

	for min(l1.peekMax(), l2.peekMax()) >= m.MinHeight {
		pm1, pm2 := l1.peekMax(), l2.peekMax()
		switch {
		case pm1 > pm2:
			for _, t := range l1.pop() {
				l1.open(t)
			}
		case pm1 < pm2:
			for _, t := range l2.pop() {
				l2.open(t)
			}
		default:
			h1 := l1.pop()
			h2 := l2.pop()
			dupsLeft := duplicateHashes(h1)
			dupsRight := duplicateHashes(h2)

			matched1 := make(map[*ast.Node]bool)
			matched2 := make(map[*ast.Node]bool)
			for _, t1 := range h1 {
				for _, t2 := range h2 {
					if exact.AreMatched(t1, t2) {
						matched1[t1] = true
						matched2[t2] = true
						continue
					}
					if !t1.IsomorphicTo(t2) {
						continue
					}
					if dupsLeft[t1.Hash] || dupsRight[t2.Hash] {
						continue // ambiguous: deferred, never resolved further (matches original's auxiliary set)
					}
					if matched.CanBeMatched(t1, t2) {
						matched1[t1] = true
						matched2[t2] = true
						dl, dr := t1.DFS(), t2.DFS()
						for i := range dl {
							exact.Add(dl[i], dr[i])
							matched.Add(dl[i], dr[i])
						}
					}
				}
			}
			for _, n := range h1 {
				if !matched1[n] {
					l1.open(n)
				}
			}
			for _, n := range h2 {
				if !matched2[n] {
					l2.open(n)
				}
			}
		}
	}

	return matched, exact
}

func duplicateHashes(nodes []*ast.Node) map[uint64]bool {
	counts := make(map[uint64]int)
	for _, n := range nodes {
		counts[n.Hash]++
	}
	dups := make(map[uint64]bool)
	for h, c := range counts {
		if c > 1 {
			dups[h] = true
		}
	}
	return dups
}

func (m *Matcher) bottomUpPass(left, right *ast.Node, matched *matching.Matching) (*matching.Matching, *matching.Matching) {
	container := matching.New()
	recovery := matching.New()

	for _, leftNode := range left.Postfix() {
		if leftNode.IsRoot() {
			m.lastChanceMatch(leftNode, right, matched, recovery, container)
			continue
		}
		if _, ok := matched.GetFromLeft(leftNode); ok || leftNode.IsLeaf() {
			continue
		}

		candidates := candidateAncestors(leftNode, matched, right)
		var best *ast.Node
		bestScore := -1.0
		for _, cand := range candidates {
			if cand.GrammarName != leftNode.GrammarName {
				continue
			}
			if _, ok := matched.GetFromRight(cand); ok {
				continue
			}
			score := diceSimilarity(leftNode, cand, matched)
			if score > bestScore {
				bestScore = score
				best = cand
			}
		}
		if best != nil && bestScore >= m.SimThreshold {
			container.Add(leftNode, best)
			matched.Add(leftNode, best)
			m.lastChanceMatch(leftNode, best, matched, recovery, container)
		}
	}

	return container, recovery
}

// candidateAncestors returns, for the right tree, the set of ancestors of
// every node matched to a descendant of leftNode.
func candidateAncestors(leftNode *ast.Node, matched *matching.Matching, right *ast.Node) []*ast.Node {
	seen := make(map[*ast.Node]bool)
	var out []*ast.Node
	for _, descendant := range leftNode.DFS() {
		r, ok := matched.GetFromLeft(descendant)
		if !ok {
			continue
		}
		for anc := r.Parent(); anc != nil; anc = anc.Parent() {
			if !seen[anc] {
				seen[anc] = true
				out = append(out, anc)
			}
		}
	}
	// Stable order so matching is deterministic given the same input.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// diceSimilarity computes 2*|matched descendants in common| / (|dfs(a)| +
// |dfs(b)|), the Dice coefficient used to score candidate container
// matches. It is symmetric and always within [0,1].
func diceSimilarity(a, b *ast.Node, matched *matching.Matching) float64 {
	common := 0
	for _, d := range a.DFS() {
		if r, ok := matched.GetFromLeft(d); ok {
			for _, bd := range b.DFS() {
				if bd == r {
					common++
					break
				}
			}
		}
	}
	total := len(a.DFS()) + len(b.DFS())
	if total == 0 {
		return 0
	}
	return 2 * float64(common) / float64(total)
}

// lastChanceMatch is the linear recovery pass: group unmatched children of
// a and b by grammar kind, and pair them up whenever exactly one candidate
// exists on each side (two leaves only when their source text is equal). A full tree-edit-distance recovery pass would catch
// more reordered-leaf-run cases but is not implemented (see DESIGN.md).
func (m *Matcher) lastChanceMatch(a, b *ast.Node, matched *matching.Matching, recovery, container *matching.Matching) {
	leftByKind := make(map[string][]*ast.Node)
	for _, c := range a.Children {
		if _, ok := matched.GetFromLeft(c); ok {
			continue
		}
		leftByKind[c.GrammarName] = append(leftByKind[c.GrammarName], c)
	}
	rightByKind := make(map[string][]*ast.Node)
	for _, c := range b.Children {
		if _, ok := matched.GetFromRight(c); ok {
			continue
		}
		rightByKind[c.GrammarName] = append(rightByKind[c.GrammarName], c)
	}
	for kind, lefts := range leftByKind {
		rights := rightByKind[kind]
		if len(lefts) != 1 || len(rights) != 1 {
			continue
		}
		l, r := lefts[0], rights[0]
		if l.IsLeaf() && r.IsLeaf() && l.Source != r.Source {
			continue
		}
		if !matched.CanBeMatched(l, r) {
			continue
		}
		recovery.Add(l, r)
		matched.Add(l, r)
		m.lastChanceMatch(l, r, matched, recovery, container)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
