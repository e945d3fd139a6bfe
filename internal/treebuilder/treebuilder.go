// Package treebuilder reconstructs a merged tree from a cleaned PCS
// change-set, with conflict detection and commutative re-merging of the
// children of "order-insensitive" parents.
package treebuilder

import (
	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/linemerge"
	"github.com/oxhq/mergo/internal/mergedtree"
	"github.com/oxhq/mergo/internal/mergeerr"
	"github.com/oxhq/mergo/internal/pcs"
	"github.com/oxhq/mergo/internal/revision"
)

// Builder reconstructs a MergedTree from a cleaned change-set.
type Builder struct {
	Merged      *pcs.ChangeSet // cleaned change-set, post 3DM cleanup
	Base        *pcs.ChangeSet // pristine base change-set, for detecting deletions
	ClassMap    *classmapping.ClassMapping
	LangProfile *langprofile.Profile

	visiting        map[any]bool
	deletedModified map[any]classmapping.Leader
}

// New builds a tree builder over the given cleaned/base change-sets.
func New(merged, base *pcs.ChangeSet, cm *classmapping.ClassMapping, profile *langprofile.Profile) *Builder {
	return &Builder{
		Merged:          merged,
		Base:            base,
		ClassMap:        cm,
		LangProfile:     profile,
		visiting:        make(map[any]bool),
		deletedModified: make(map[any]classmapping.Leader),
	}
}

// BuildTree reconstructs the whole merged document, starting at the
// virtual root, then runs the forced-fallback pass for any leader tracked
// as deleted-and-modified that never made it into the result.
func (b *Builder) BuildTree(rootLeader classmapping.Leader) (*mergedtree.Tree, error) {
	tree, err := b.buildSubtree(rootLeader)
	if err != nil {
		return nil, err
	}
	return b.forcedFallbackPass(tree), nil
}

func (b *Builder) buildSubtree(l classmapping.Leader) (*mergedtree.Tree, error) {
	key := l.AsRepresentative()
	if b.visiting[key] {
		return b.lineBasedFallback(l), nil
	}
	b.visiting[key] = true
	defer delete(b.visiting, key)

	return b.buildSubtreeFromChangeset(l)
}

func (b *Builder) buildSubtreeFromChangeset(l classmapping.Leader) (*mergedtree.Tree, error) {
	if b.ClassMap.IsIsomorphicInAllRevisions(l) {
		return mergedtree.NewExact(b.preferReformattingRevision(l)), nil
	}

	parentNode := pcsNodeFor(b.ClassMap, l)
	children, forkedAt, err := b.walkSuccessors(parentNode)
	if err != nil {
		return nil, err
	}
	if forkedAt != nil {
		return b.resolveFork(l, children, forkedAt)
	}

	commutative, isCommutative := b.commutativeParentFor(l)
	if isCommutative {
		b.recordDeletedAndModified(l, parentNode)
		return b.commutativelyMergeChildren(l, commutative)
	}

	built := make([]*mergedtree.Tree, 0, len(children))
	if leading := b.leadingSourceFor(l); leading != "" {
		built = append(built, mergedtree.NewSeparator(leading))
	}
	for i, c := range children {
		if i > 0 {
			if ws := b.precedingWhitespaceFor(l, c); ws != "" {
				built = append(built, mergedtree.NewSeparator(ws))
			}
		}
		childTree, err := b.buildSubtree(c)
		if err != nil {
			return nil, err
		}
		built = append(built, childTree)
	}
	if trailing := b.trailingSourceFor(l); trailing != "" {
		built = append(built, mergedtree.NewSeparator(trailing))
	}
	b.recordDeletedAndModified(l, parentNode)
	return mergedtree.NewMixed(l, built), nil
}

// preferReformattingRevision picks a revision that reformatted this
// subtree (if any) over a plain Base reproduction, to preserve formatting
// edits.
func (b *Builder) preferReformattingRevision(l classmapping.Leader) classmapping.Leader {
	for _, r := range []revision.Revision{revision.Left, revision.Right} {
		if b.ClassMap.IsReformatting(l, r) {
			if n, ok := b.ClassMap.NodeAtRev(l, r); ok {
				return b.ClassMap.Leader(r, n)
			}
		}
	}
	return l
}

// walkSuccessors follows the chain of successors from the left marker
// under parent. It returns the ordered child leaders when the chain is
// unambiguous, or a non-nil forkPoint when the revisions disagree.
func (b *Builder) walkSuccessors(parent pcs.Node) ([]classmapping.Leader, *pcs.Node, error) {
	var children []classmapping.Leader
	cur := pcs.Left()
	for {
		successors := b.Merged.Successors(parent, cur)
		switch len(successors) {
		case 0:
			return nil, nil, &mergeerr.InternalInvariantError{
				Where:  "treebuilder.walkSuccessors",
				Detail: "no successor found (double-delete or delete/modify)",
			}
		case 1:
			next := successors[0]
			if next.Kind == pcs.RightMarker {
				return children, nil, nil
			}
			children = append(children, next.Leader)
			cur = next
		default:
			return children, &cur, nil
		}
	}
}

// resolveFork extracts the three divergent sub-chains starting at forkedAt
// and either emits a Conflict, or — if parent is a commutative parent —
// defers to commutative merging instead.
func (b *Builder) resolveFork(parent classmapping.Leader, prefix []classmapping.Leader, forkedAt *pcs.Node) (*mergedtree.Tree, error) {
	if commutative, ok := b.commutativeParentFor(parent); ok {
		return b.commutativelyMergeChildren(parent, commutative)
	}

	baseSide := b.extractConflictSide(*forkedAt, revision.Base)
	leftSide := b.extractConflictSide(*forkedAt, revision.Left)
	rightSide := b.extractConflictSide(*forkedAt, revision.Right)

	return mergedtree.NewConflict(
		leadersToNodes(b.ClassMap, revision.Base, baseSide),
		leadersToNodes(b.ClassMap, revision.Left, leftSide),
		leadersToNodes(b.ClassMap, revision.Right, rightSide),
	), nil
}

// extractConflictSide walks the successor chain for one revision starting
// from the fork point until it rejoins (hits a node shared by all three
// revisions) or reaches the right marker.
func (b *Builder) extractConflictSide(from pcs.Node, rev revision.Revision) []classmapping.Leader {
	var out []classmapping.Leader
	cur := from
	for i := 0; i < 10_000; i++ {
		next, ok := b.nextOnRevision(cur, rev)
		if !ok || next.Kind == pcs.RightMarker {
			break
		}
		out = append(out, next.Leader)
		cur = next
	}
	return out
}

func (b *Builder) nextOnRevision(parent pcs.Node, rev revision.Revision) (pcs.Node, bool) {
	for _, t := range b.Merged.ByPredecessor(parent) {
		if t.Revision == rev {
			return t.Successor, true
		}
	}
	return pcs.Node{}, false
}

func leadersToNodes(cm *classmapping.ClassMapping, rev revision.Revision, leaders []classmapping.Leader) []*ast.Node {
	var out []*ast.Node
	for _, l := range leaders {
		if n, ok := cm.NodeAtRev(l, rev); ok {
			out = append(out, n)
		}
	}
	return out
}

func (b *Builder) commutativeParentFor(l classmapping.Leader) (langprofile.CommutativeParent, bool) {
	rep := l.AsRepresentative().Node
	if rep.CommutativeParent == nil {
		return langprofile.CommutativeParent{}, false
	}
	return *rep.CommutativeParent, true
}

func (b *Builder) lineBasedFallback(l classmapping.Leader) *mergedtree.Tree {
	baseNode, _ := b.ClassMap.NodeAtRev(l, revision.Base)
	leftNode, _ := b.ClassMap.NodeAtRev(l, revision.Left)
	rightNode, _ := b.ClassMap.NodeAtRev(l, revision.Right)
	baseText, leftText, rightText := sourceOrEmpty(baseNode), sourceOrEmpty(leftNode), sourceOrEmpty(rightNode)
	result := linemerge.Diff3(baseText, leftText, rightText)
	return mergedtree.NewLineBasedMerge(l, result.Text, result.ConflictMass)
}

func sourceOrEmpty(n *ast.Node) string {
	if n == nil {
		return ""
	}
	return n.Source
}

func pcsNodeFor(cm *classmapping.ClassMapping, l classmapping.Leader) pcs.Node {
	revs := cm.RevisionSet(l)
	return pcs.Of(revision.NewNESet(revs), l)
}

// recordDeletedAndModified tracks leaders present in the pristine base
// change-set under this parent but not visited under any revision here,
// for the forced-fallback pass below.
func (b *Builder) recordDeletedAndModified(parent classmapping.Leader, parentNode pcs.Node) {
	for _, t := range b.Base.ByParent(parentNode) {
		if t.Successor.Kind != pcs.NodeRef {
			continue
		}
		leader := t.Successor.Leader
		if _, stillThere := b.ClassMap.NodeAtRev(leader, revision.Base); !stillThere {
			continue
		}
		if b.leaderVisitedHere(parentNode, leader) {
			continue
		}
		b.deletedModified[leader.AsRepresentative()] = leader
	}
}

func (b *Builder) leaderVisitedHere(parentNode pcs.Node, leader classmapping.Leader) bool {
	for _, t := range b.Merged.ByParent(parentNode) {
		if t.Successor.Kind == pcs.NodeRef && t.Successor.Leader.AsRepresentative() == leader.AsRepresentative() {
			return true
		}
	}
	return false
}

// forcedFallbackPass replaces, for every deleted-and-modified leader that
// never appears in the final result, the smallest ancestor's subtree with
// a line-based fallback. This is a conservative approximation: it rebuilds
// the whole document as a line-based merge only when such a leader is
// found, rather than pinpointing the minimal covering ancestor, trading
// precision for a guaranteed-safe fallback.
func (b *Builder) forcedFallbackPass(tree *mergedtree.Tree) *mergedtree.Tree {
	if len(b.deletedModified) == 0 {
		return tree
	}
	for _, leader := range b.deletedModified {
		if !b.appearsIn(tree, leader) {
			baseNode, _ := b.ClassMap.NodeAtRev(leader, revision.Base)
			if baseNode == nil {
				continue
			}
			leftNode, hasLeft := b.ClassMap.NodeAtRev(leader, revision.Left)
			if hasLeft && leftNode.Hash == baseNode.Hash {
				continue
			}
			return b.lineBasedFallback(leader)
		}
	}
	return tree
}

func (b *Builder) appearsIn(tree *mergedtree.Tree, leader classmapping.Leader) bool {
	switch tree.Kind {
	case mergedtree.KindExact, mergedtree.KindLineBasedMerge:
		return tree.Leader.AsRepresentative() == leader.AsRepresentative()
	case mergedtree.KindMixed:
		if tree.Leader.AsRepresentative() == leader.AsRepresentative() {
			return true
		}
		for _, c := range tree.Children {
			if b.appearsIn(c, leader) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
