package treebuilder

import (
	"strings"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/revision"
)

// whitespaceRevisionPreference is the order in which revisions are
// consulted for a child's original spacing: left and right are an author's
// own edits, more likely to already be in the shape the merge should keep,
// base is the fallback when neither side touched this node.
var whitespaceRevisionPreference = []revision.Revision{revision.Left, revision.Right, revision.Base}

// precedingWhitespaceFor returns the whitespace that should separate child
// from whatever ends up before it in the reconstructed tree, by reusing the
// whitespace that preceded it in whichever revision's own tree still has a
// predecessor for it, re-indented to parent's ancestor indentation. This is
// the per-child whitespace-selection half of the merged-text emitter: a
// MixedTree's children are rebuilt from heterogeneous revisions and have no
// separator of their own, so without this every pair of siblings would be
// rendered back-to-back.
func (b *Builder) precedingWhitespaceFor(parent, child classmapping.Leader) string {
	for _, rev := range whitespaceRevisionPreference {
		n, ok := b.ClassMap.NodeAtRev(child, rev)
		if !ok || n.Parent() == nil {
			continue
		}
		if ws := n.PrecedingWhitespace(); ws != "" {
			return b.reindent(parent, n, ws)
		}
	}
	return ""
}

// leadingSourceFor returns the whitespace (if any) between the start of l's
// own span and the start of its first child, again preferring left, then
// right, then base.
func (b *Builder) leadingSourceFor(l classmapping.Leader) string {
	for _, rev := range whitespaceRevisionPreference {
		if n, ok := b.ClassMap.NodeAtRev(l, rev); ok {
			if leading := n.LeadingSource(); leading != "" {
				return leading
			}
		}
	}
	return ""
}

// trailingSourceFor returns the whitespace (if any) between the end of l's
// last child and the end of l's own span.
func (b *Builder) trailingSourceFor(l classmapping.Leader) string {
	for _, rev := range whitespaceRevisionPreference {
		if n, ok := b.ClassMap.NodeAtRev(l, rev); ok {
			if trailing := n.TrailingWhitespace(); trailing != "" {
				return trailing
			}
		}
	}
	return ""
}

// reindent rewrites ws's trailing indentation so the shift it encodes
// relative to srcNode's own ancestor indentation is preserved relative to
// parent's ancestor indentation instead — the re-indentation-by-ancestor-
// prefix rule, needed when a child is carried over from a revision whose
// surrounding block nests to a different depth than where it ends up in
// the merged tree.
func (b *Builder) reindent(parent classmapping.Leader, srcNode *ast.Node, ws string) string {
	idx := strings.LastIndex(ws, "\n")
	if idx < 0 {
		return ws
	}
	shift, ok := srcNode.IndentationShift()
	if !ok {
		return ws
	}
	targetAncestor, _ := parent.AsRepresentative().Node.AncestorIndentation()
	return ws[:idx+1] + targetAncestor + shift
}
