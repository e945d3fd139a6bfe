package treebuilder

import (
	"strings"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/mergedtree"
	"github.com/oxhq/mergo/internal/revision"
)

// commutativelyMergeChildren performs a non-positional merge of the children
// of a commutative parent, by treating them as sets rather than ordered
// lists.
func (b *Builder) commutativelyMergeChildren(parent classmapping.Leader, cp langprofile.CommutativeParent) (*mergedtree.Tree, error) {
	baseNode, hasBase := b.ClassMap.NodeAtRev(parent, revision.Base)
	leftNode, hasLeft := b.ClassMap.NodeAtRev(parent, revision.Left)
	rightNode, hasRight := b.ClassMap.NodeAtRev(parent, revision.Right)

	baseChildren := significantChildren(baseNode, hasBase, cp)
	leftChildren := significantChildren(leftNode, hasLeft, cp)
	rightChildren := significantChildren(rightNode, hasRight, cp)

	prefixLen := commonPrefixLen(baseChildren, leftChildren, rightChildren)
	suffixLen := commonSuffixLen(baseChildren[prefixLen:], leftChildren[prefixLen:], rightChildren[prefixLen:])

	baseMid := sliceMiddle(baseChildren, prefixLen, suffixLen)
	leftMid := sliceMiddle(leftChildren, prefixLen, suffixLen)
	rightMid := sliceMiddle(rightChildren, prefixLen, suffixLen)

	if !b.childrenGroupsAllow(cp, baseMid, leftMid, rightMid) {
		return b.lineBasedFallback(parent), nil
	}

	baseSet := b.leaderSet(revision.Base, baseMid)
	leftSet := b.leaderSet(revision.Left, leftMid)
	rightSet := b.leaderSet(revision.Right, rightMid)

	addedLeft := difference(leftSet, baseSet)
	addedRight := difference(difference(rightSet, baseSet), addedLeft)
	removedRight := difference(baseSet, rightSet)

	unmodifiedRemoved := make(map[any]bool)
	for key := range removedRight {
		l := b.leaderByKey(revision.Base, key, baseMid)
		built, err := b.buildSubtree(l)
		if err != nil {
			continue
		}
		if built.Kind == mergedtree.KindExact && built.Contains(b.ClassMap, revision.Base) {
			unmodifiedRemoved[key] = true
		}
	}

	var finalLeaders []classmapping.Leader
	for _, n := range leftMid {
		l := b.ClassMap.Leader(revision.Left, n)
		if removedRight[keyOf(l)] && unmodifiedRemoved[keyOf(l)] {
			continue
		}
		finalLeaders = append(finalLeaders, l)
	}
	for _, n := range rightMid {
		l := b.ClassMap.Leader(revision.Right, n)
		if addedRight[keyOf(l)] {
			finalLeaders = append(finalLeaders, l)
		}
	}

	builtMiddle := make([]*mergedtree.Tree, 0, len(finalLeaders))
	for i, l := range finalLeaders {
		built, err := b.buildSubtree(l)
		if err != nil {
			return nil, err
		}
		if i > 0 && cp.Separator != "" {
			builtMiddle = append(builtMiddle, mergedtree.NewSeparator(cp.Separator))
		}
		builtMiddle = append(builtMiddle, built)
	}

	var prefixBuilt, suffixBuilt []*mergedtree.Tree
	for _, n := range prefixNodes(baseChildren, leftChildren, rightChildren, prefixLen) {
		l := b.ClassMap.Leader(revision.Base, n)
		built, err := b.buildSubtree(l)
		if err != nil {
			return nil, err
		}
		prefixBuilt = append(prefixBuilt, built)
	}
	for _, n := range suffixNodes(baseChildren, leftChildren, rightChildren, suffixLen) {
		l := b.ClassMap.Leader(revision.Base, n)
		built, err := b.buildSubtree(l)
		if err != nil {
			return nil, err
		}
		suffixBuilt = append(suffixBuilt, built)
	}

	// Reassemble as delimiter, prefix, separator, middle, separator, suffix,
	// delimiter — replaying the parent's declared bracketing and joining
	// punctuation around the groups, which significantChildren stripped out
	// above and which the unordered middle-group reconstruction never saw.
	var allChildren []*mergedtree.Tree
	if cp.LeftDelim != "" {
		allChildren = append(allChildren, mergedtree.NewSeparator(cp.LeftDelim))
	}
	allChildren = append(allChildren, prefixBuilt...)
	if len(prefixBuilt) > 0 && len(builtMiddle) > 0 && cp.Separator != "" {
		allChildren = append(allChildren, mergedtree.NewSeparator(cp.Separator))
	}
	allChildren = append(allChildren, builtMiddle...)
	if (len(prefixBuilt) > 0 || len(builtMiddle) > 0) && len(suffixBuilt) > 0 && cp.Separator != "" {
		allChildren = append(allChildren, mergedtree.NewSeparator(cp.Separator))
	}
	allChildren = append(allChildren, suffixBuilt...)
	if cp.RightDelim != "" {
		allChildren = append(allChildren, mergedtree.NewSeparator(cp.RightDelim))
	}

	return mergedtree.NewMixed(parent, allChildren), nil
}

// significantChildren returns a node's children with separators and
// delimiters filtered out, recognized by string equality on trimmed source.
func significantChildren(n *ast.Node, present bool, cp langprofile.CommutativeParent) []*ast.Node {
	if !present || n == nil {
		return nil
	}
	out := make([]*ast.Node, 0, len(n.Children))
	for _, c := range n.Children {
		trimmed := strings.TrimSpace(c.Source)
		if trimmed == cp.Separator || (cp.LeftDelim != "" && trimmed == cp.LeftDelim) || (cp.RightDelim != "" && trimmed == cp.RightDelim) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func commonPrefixLen(a, b, c []*ast.Node) int {
	n := minOf(len(a), len(b), len(c))
	i := 0
	for i < n && a[i].Hash == b[i].Hash && b[i].Hash == c[i].Hash {
		i++
	}
	return i
}

func commonSuffixLen(a, b, c []*ast.Node) int {
	n := minOf(len(a), len(b), len(c))
	i := 0
	for i < n && a[len(a)-1-i].Hash == b[len(b)-1-i].Hash && b[len(b)-1-i].Hash == c[len(c)-1-i].Hash {
		i++
	}
	return i
}

func sliceMiddle(nodes []*ast.Node, prefix, suffix int) []*ast.Node {
	if prefix+suffix > len(nodes) {
		return nil
	}
	return nodes[prefix : len(nodes)-suffix]
}

func prefixNodes(base, left, right []*ast.Node, n int) []*ast.Node {
	if n > len(base) {
		n = len(base)
	}
	return base[:n]
}

func suffixNodes(base, left, right []*ast.Node, n int) []*ast.Node {
	if n > len(base) {
		n = len(base)
	}
	return base[len(base)-n:]
}

func minOf(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func (b *Builder) childrenGroupsAllow(cp langprofile.CommutativeParent, lists ...[]*ast.Node) bool {
	if len(cp.ChildrenGroups) == 0 {
		return true
	}
	kinds := make(map[string]struct{})
	for _, list := range lists {
		for _, n := range list {
			kinds[n.GrammarName] = struct{}{}
		}
	}
	return cp.ChildrenCanCommute(kinds)
}

func (b *Builder) leaderSet(rev revision.Revision, nodes []*ast.Node) map[any]bool {
	out := make(map[any]bool, len(nodes))
	for _, n := range nodes {
		out[keyOf(b.ClassMap.Leader(rev, n))] = true
	}
	return out
}

func (b *Builder) leaderByKey(rev revision.Revision, key any, fallbackNodes []*ast.Node) classmapping.Leader {
	for _, n := range fallbackNodes {
		l := b.ClassMap.Leader(rev, n)
		if keyOf(l) == key {
			return l
		}
	}
	return classmapping.Leader{}
}

func keyOf(l classmapping.Leader) any { return l.AsRepresentative() }

func difference(a, b map[any]bool) map[any]bool {
	out := make(map[any]bool)
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}
