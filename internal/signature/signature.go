// Package signature extracts structured identity keys for children of a
// commutative parent, so that post-processing can detect two children that
// collapsed onto the same identity (e.g. two object entries both keyed "a")
// even though the tree-matching step never flagged a conflict.
package signature

import (
	"strings"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/mergedtree"
)

// Key is a structured identity: one string per path declared in the
// language's SignatureDefinition for this node kind, each the concatenated,
// whitespace-trimmed source of every node reached by that path.
type Key struct {
	Parts []string
}

// Equal reports whether two signatures denote the same identity.
func (k Key) Equal(other Key) bool {
	if len(k.Parts) != len(other.Parts) {
		return false
	}
	for i := range k.Parts {
		if k.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string { return strings.Join(k.Parts, "\x1f") }

// FromNode extracts the signature of an original (pre-merge) AST node, per
// its grammar kind's declared SignatureDefinition, or (Key{}, false) if the
// language declares no signature for this kind.
func FromNode(n *ast.Node, profile *langprofile.Profile) (Key, bool) {
	def, ok := profile.FindSignatureDefinition(n.GrammarName)
	if !ok {
		return Key{}, false
	}
	parts := make([]string, 0, len(def.Paths))
	for _, path := range def.Paths {
		parts = append(parts, extractPath(n, path))
	}
	return Key{Parts: parts}, true
}

// FromMergedNode extracts the signature of a node inside a reconstructed
// merged tree, walking the same declared paths but over MergedTree children
// (whose grammar kind is read off the underlying leader's representative
// node). An ExactTree has no MergedTree children, so it is read through its
// representative AST node with FromNode.
func FromMergedNode(t *mergedtree.Tree, profile *langprofile.Profile) (Key, bool) {
	if t.Kind == mergedtree.KindExact {
		return FromNode(t.Leader.AsRepresentative().Node, profile)
	}
	kind, ok := t.GrammarName()
	if !ok {
		return Key{}, false
	}
	def, ok := profile.FindSignatureDefinition(kind)
	if !ok {
		return Key{}, false
	}
	parts := make([]string, 0, len(def.Paths))
	for _, path := range def.Paths {
		parts = append(parts, extractMergedPath(t, path))
	}
	return Key{Parts: parts}, true
}

func extractPath(n *ast.Node, path langprofile.Path) string {
	frontier := []*ast.Node{n}
	for _, step := range path.Steps {
		var next []*ast.Node
		for _, f := range frontier {
			next = append(next, stepChildren(f, step)...)
		}
		frontier = next
	}
	var sb strings.Builder
	for _, f := range frontier {
		sb.WriteString(strings.TrimSpace(f.Source))
	}
	return sb.String()
}

func stepChildren(n *ast.Node, step langprofile.PathStep) []*ast.Node {
	switch step.Kind {
	case langprofile.StepField:
		return n.FieldChildren(step.Value)
	case langprofile.StepChildKind:
		var out []*ast.Node
		for _, c := range n.Children {
			if c.GrammarName == step.Value {
				out = append(out, c)
			}
		}
		return out
	default:
		return nil
	}
}

// extractMergedPath mirrors extractPath over MixedTree children. A node
// reached by the last step contributes its text if it is an ExactTree or a
// LineBasedMerge, and nothing otherwise (a Conflict node has no stable
// identity to extract).
func extractMergedPath(t *mergedtree.Tree, path langprofile.Path) string {
	frontier := []*mergedtree.Tree{t}
	for _, step := range path.Steps {
		var next []*mergedtree.Tree
		for _, f := range frontier {
			next = append(next, mergedStepChildren(f, step)...)
		}
		frontier = next
	}
	var sb strings.Builder
	for _, f := range frontier {
		sb.WriteString(strings.TrimSpace(sourceOf(f)))
	}
	return sb.String()
}

func mergedStepChildren(t *mergedtree.Tree, step langprofile.PathStep) []*mergedtree.Tree {
	var out []*mergedtree.Tree
	for _, c := range t.Children {
		switch step.Kind {
		case langprofile.StepField:
			if name, ok := c.FieldName(); ok && name == step.Value {
				out = append(out, c)
			}
		case langprofile.StepChildKind:
			if kind, ok := c.GrammarName(); ok && kind == step.Value {
				out = append(out, c)
			}
		}
	}
	return out
}

func sourceOf(t *mergedtree.Tree) string {
	switch t.Kind {
	case mergedtree.KindExact:
		return t.Leader.AsRepresentative().Node.Source
	case mergedtree.KindLineBasedMerge:
		return t.Text
	default:
		return ""
	}
}

// HasConflicts reports whether, among a commutative parent's reconstructed
// children, two or more resolve to the same signature — meaning the merge
// silently produced a duplicate identity (e.g. two keys "a" in a merged JSON
// object) even though no PCS-level conflict was raised.
func HasConflicts(children []*mergedtree.Tree, profile *langprofile.Profile) bool {
	return !allUnique(children, profile)
}

func allUnique(children []*mergedtree.Tree, profile *langprofile.Profile) bool {
	var seen []Key
	for _, c := range children {
		key, ok := FromMergedNode(c, profile)
		if !ok {
			continue
		}
		for _, s := range seen {
			if s.Equal(key) {
				return false
			}
		}
		seen = append(seen, key)
	}
	return true
}
