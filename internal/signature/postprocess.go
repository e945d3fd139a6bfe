package signature

import (
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/mergedtree"
)

// Postprocess walks a reconstructed merged tree and replaces any
// commutative-parent subtree whose children collapsed onto a duplicate
// signature with a line-based merge of that subtree, since the structural
// merge produced a result with a hidden identity clash that tree matching
// could not see.
func Postprocess(t *mergedtree.Tree, cm *classmapping.ClassMapping, profile *langprofile.Profile, fallback func(classmapping.Leader) *mergedtree.Tree) *mergedtree.Tree {
	if t == nil {
		return t
	}
	if t.Kind == mergedtree.KindMixed && isCommutativeParent(t, profile) {
		if HasConflicts(significantMergedChildren(t), profile) {
			return fallback(t.Leader)
		}
	}
	for i, c := range t.Children {
		t.Children[i] = Postprocess(c, cm, profile, fallback)
	}
	return t
}

func isCommutativeParent(t *mergedtree.Tree, profile *langprofile.Profile) bool {
	kind, ok := t.GrammarName()
	if !ok {
		return false
	}
	_, isCommutative := profile.GetCommutativeParent(kind)
	return isCommutative
}

// significantMergedChildren filters out synthetic separator nodes before
// signature comparison.
func significantMergedChildren(t *mergedtree.Tree) []*mergedtree.Tree {
	out := make([]*mergedtree.Tree, 0, len(t.Children))
	for _, c := range t.Children {
		if c.Kind == mergedtree.KindCommutativeChildSeparator {
			continue
		}
		out = append(out, c)
	}
	return out
}
