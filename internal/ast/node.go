// Package ast implements an arena-allocated syntax tree: nodes carry a
// precomputed isomorphism hash, a cached DFS slice, a cached descendant
// count, and a parent back-edge that is published exactly once after
// construction completes, driving go-tree-sitter through the usual
// sitter.NewParser()/ParseCtx/TreeCursor idiom.
package ast

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/mergo/internal/langprofile"
)

// VirtualLineKind is the synthetic grammar kind assigned to the per-line
// children created when a leaf's source spans multiple lines, matching the
// original's "@virtual_line@" marker.
const VirtualLineKind = "@virtual_line@"

// Node is one node of a parsed syntax tree.
type Node struct {
	// Hash is invariant under isomorphism: two subtrees with equal hashes
	// are presumed isomorphic (and verified by IsomorphicTo).
	Hash uint64

	Children      []*Node
	fieldChildren map[string][]*Node

	// Source is the slice of the original document this node spans.
	Source string
	// GrammarName is the tree-sitter node kind, or VirtualLineKind for
	// synthetic per-line leaves.
	GrammarName string
	// FieldName is the field this node is reachable from on its parent,
	// or "" if none.
	FieldName string

	ByteStart int
	ByteEnd   int

	// ID is unique within one parsed tree, allocated contiguously from 1.
	ID int

	descendantCount int
	parent          *Node

	CommutativeParent *langprofile.CommutativeParent
	LangProfile       *langprofile.Profile

	dfs []*Node
}

// Arena owns every node allocated while parsing one tree, so the whole tree
// can be released together at the end of a merge. Go's GC makes manual
// freeing unnecessary, but the allocation boundary is kept explicit so
// construction never mutates a node after it has been published to other
// goroutines.
type Arena struct {
	nodes []*Node
}

// NewArena creates an empty arena, optionally pre-sizing its backing store.
func NewArena(sizeHint int) *Arena {
	return &Arena{nodes: make([]*Node, 0, sizeHint)}
}

func (a *Arena) alloc(n Node) *Node {
	node := new(Node)
	*node = n
	a.nodes = append(a.nodes, node)
	return node
}

// Len returns the number of nodes allocated in this arena.
func (a *Arena) Len() int { return len(a.nodes) }

// Parse parses source under the given language profile, returning the root
// node. The parent back-edges and DFS caches are fully published before
// this function returns, so the resulting tree may be freely shared across
// goroutines (read-only) without further synchronization.
func Parse(ctx context.Context, source string, profile *langprofile.Profile, arena *Arena) (*Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(profile.Language)
	tree, err := parser.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", profile.Name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing %s source: tree-sitter returned no tree", profile.Name)
	}

	nextID := 1
	root, err := build(tree.RootNode(), source, profile, arena, &nextID)
	if err != nil {
		return nil, err
	}
	if profile.InjectionQuery != "" {
		spans := locateInjections(tree.RootNode(), source, profile)
		spliceInjections(ctx, root, spans, arena, &nextID)
	}
	publishParents(root, nil)
	publishDFS(root)
	return root, nil
}

func build(tn *sitter.Node, globalSource string, profile *langprofile.Profile, arena *Arena, nextID *int) (*Node, error) {
	if tn.HasError() && tn.ChildCount() == 0 {
		start := tn.StartPoint()
		end := tn.EndPoint()
		return nil, fmt.Errorf("parse error at %d:%d..%d:%d", start.Row, start.Column, end.Row, end.Column)
	}

	atomic := profile.IsAtomicNodeType(tn.Type())
	var children []*Node
	fieldChildren := make(map[string][]*Node)

	if !atomic {
		count := int(tn.ChildCount())
		for i := 0; i < count; i++ {
			childTN := tn.Child(i)
			if childTN == nil {
				continue
			}
			child, err := build(childTN, globalSource, profile, arena, nextID)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			if fieldName := tn.FieldNameForChild(i); fieldName != "" {
				child.FieldName = fieldName
				fieldChildren[fieldName] = append(fieldChildren[fieldName], child)
			}
		}
	}

	start := int(tn.StartByte())
	end := int(tn.EndByte())
	localSource := globalSource[start:end]

	// Strip a trailing newline from the node's own span so that it is
	// treated as whitespace between siblings instead of part of this
	// node's source, matching ast.rs's newline-trimming rule.
	if len(children) == 0 && strings.HasSuffix(localSource, "\n") && tn.Parent() != nil {
		trimmed := strings.TrimRight(localSource, "\n")
		end = start + len(trimmed)
		localSource = trimmed
	}

	grammarName := tn.Type()

	// Split a multi-line leaf into one synthetic child per line, so
	// multi-line comments diff line by line.
	if len(children) == 0 && strings.Contains(localSource, "\n") {
		children = splitIntoLines(localSource, start, profile, arena, nextID)
	}

	h := fnv.New64a()
	h.Write([]byte(grammarName))
	h.Write([]byte(profile.Name))
	if len(children) == 0 {
		h.Write([]byte(localSource))
	} else {
		for _, c := range children {
			writeUint64(h, c.Hash)
		}
	}

	descendantCount := 1
	for _, c := range children {
		descendantCount += c.descendantCount
	}

	var cpPtr *langprofile.CommutativeParent
	if commutativeParent, ok := profile.GetCommutativeParent(grammarName); ok {
		cpPtr = &commutativeParent
	}

	node := arena.alloc(Node{
		Hash:              h.Sum64(),
		Children:          children,
		fieldChildren:     fieldChildren,
		Source:            localSource,
		GrammarName:       grammarName,
		ByteStart:         start,
		ByteEnd:           end,
		ID:                *nextID,
		descendantCount:   descendantCount,
		CommutativeParent: cpPtr,
		LangProfile:       profile,
	})
	*nextID++
	return node, nil
}

func splitIntoLines(localSource string, start int, profile *langprofile.Profile, arena *Arena, nextID *int) []*Node {
	var children []*Node
	offset := start
	lines := strings.SplitAfter(localSource, "\n")
	for _, line := range lines {
		noNewline := strings.TrimRight(line, "\n")
		trimmed := strings.TrimLeft(noNewline, " \t")
		if trimmed == "" {
			offset += len(line)
			continue
		}
		startPos := offset + (len(noNewline) - len(trimmed))
		h := fnv.New64a()
		h.Write([]byte(trimmed))
		children = append(children, arena.alloc(Node{
			Hash:            h.Sum64(),
			Source:          trimmed,
			GrammarName:     VirtualLineKind,
			ByteStart:       startPos,
			ByteEnd:         startPos + len(trimmed),
			ID:              *nextID,
			descendantCount: 1,
			LangProfile:     profile,
		}))
		*nextID++
		offset += len(line)
	}
	return children
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	h.Write(b[:])
}

// publishParents walks the tree once, setting each child's parent pointer.
// This is the one and only mutation performed after a node is allocated;
// once it returns, the tree is safe to share read-only across goroutines.
func publishParents(n *Node, parent *Node) {
	n.parent = parent
	for _, c := range n.Children {
		publishParents(c, n)
	}
}

func publishDFS(root *Node) {
	order := make([]*Node, 0, root.descendantCount)
	var walk func(*Node)
	walk = func(n *Node) {
		start := len(order)
		order = append(order, n)
		for _, c := range n.Children {
			walk(c)
		}
		n.dfs = order[start:]
	}
	walk(root)
}

// Parent returns the parent of this node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// IsRoot reports whether this node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLeaf reports whether this node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// DescendantCount returns the number of nodes in this node's subtree,
// including itself.
func (n *Node) DescendantCount() int { return n.descendantCount }

// DFS returns the depth-first pre-order slice of this node's subtree,
// including itself as the first element.
func (n *Node) DFS() []*Node { return n.dfs }

// FieldChildren returns the children reachable via the given field name.
func (n *Node) FieldChildren(field string) []*Node { return n.fieldChildren[field] }

// Height returns the height of this node's subtree (0 for a leaf).
func (n *Node) Height() int {
	if n.IsLeaf() {
		return 0
	}
	max := 0
	for _, c := range n.Children {
		if h := c.Height(); h > max {
			max = h
		}
	}
	return max + 1
}

// IsomorphicTo reports whether this node's subtree is isomorphic to
// other's: equal hashes, confirmed by a linear walk (to guard against hash
// collisions).
func (n *Node) IsomorphicTo(other *Node) bool {
	if n.Hash != other.Hash {
		return false
	}
	return n.isomorphicWalk(other)
}

func (n *Node) isomorphicWalk(other *Node) bool {
	if n.GrammarName != other.GrammarName || n.LangProfile != other.LangProfile {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	if len(n.Children) == 0 {
		return n.Source == other.Source
	}
	for i, c := range n.Children {
		if !c.isomorphicWalk(other.Children[i]) {
			return false
		}
	}
	return true
}

// Postfix returns every node in this subtree in postfix (children before
// parent) order.
func (n *Node) Postfix() []*Node {
	out := make([]*Node, 0, n.descendantCount)
	var walk func(*Node)
	walk = func(node *Node) {
		for _, c := range node.Children {
			walk(c)
		}
		out = append(out, node)
	}
	walk(n)
	return out
}

// Truncate returns a copy of this subtree in which every node matching
// keep is turned into a leaf (its children are dropped but its id, hash and
// source range are preserved), used by the tree matcher's bottom-up pass to
// work over a coarser tree built from the exact-matching roots.
func (n *Node) Truncate(keep func(*Node) bool, arena *Arena) *Node {
	copied := n.truncateRec(keep, arena)
	publishParents(copied, nil)
	publishDFS(copied)
	return copied
}

func (n *Node) truncateRec(keep func(*Node) bool, arena *Arena) *Node {
	if keep(n) || n.IsLeaf() {
		return arena.alloc(Node{
			Hash:              n.Hash,
			Source:            n.Source,
			GrammarName:       n.GrammarName,
			FieldName:         n.FieldName,
			ByteStart:         n.ByteStart,
			ByteEnd:           n.ByteEnd,
			ID:                n.ID,
			descendantCount:   1,
			CommutativeParent: n.CommutativeParent,
			LangProfile:       n.LangProfile,
		})
	}
	fieldChildren := make(map[string][]*Node)
	children := make([]*Node, 0, len(n.Children))
	descendantCount := 1
	for _, c := range n.Children {
		tc := c.truncateRec(keep, arena)
		children = append(children, tc)
		descendantCount += tc.descendantCount
		if c.FieldName != "" {
			fieldChildren[c.FieldName] = append(fieldChildren[c.FieldName], tc)
		}
	}
	return arena.alloc(Node{
		Hash:              n.Hash,
		Children:          children,
		fieldChildren:     fieldChildren,
		Source:            n.Source,
		GrammarName:       n.GrammarName,
		FieldName:         n.FieldName,
		ByteStart:         n.ByteStart,
		ByteEnd:           n.ByteEnd,
		ID:                n.ID,
		descendantCount:   descendantCount,
		CommutativeParent: n.CommutativeParent,
		LangProfile:       n.LangProfile,
	})
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d[%d:%d]", n.GrammarName, n.ID, n.ByteStart, n.ByteEnd)
}

// PrecedingWhitespace returns the source text between this node's
// predecessor (its previous sibling in document order) and this node's own
// start, or "" if it has no parent or no predecessor. Since every direct
// child of a node is now kept (named and unnamed alike), this span is pure
// whitespace in practice, matching ast.rs's preceding_whitespace.
func (n *Node) PrecedingWhitespace() string {
	if n.parent == nil {
		return ""
	}
	idx := n.siblingIndex()
	if idx <= 0 {
		return ""
	}
	predecessor := n.parent.Children[idx-1]
	start := predecessor.ByteEnd - n.parent.ByteStart
	end := n.ByteStart - n.parent.ByteStart
	if start < 0 || end > len(n.parent.Source) || start > end {
		return ""
	}
	return n.parent.Source[start:end]
}

// LeadingSource returns the source between the start of n and the start of
// its first child, or "" if n has no children or no such gap.
func (n *Node) LeadingSource() string {
	if len(n.Children) == 0 {
		return ""
	}
	offset := n.Children[0].ByteStart - n.ByteStart
	if offset <= 0 {
		return ""
	}
	return n.Source[:offset]
}

func (n *Node) siblingIndex() int {
	for i, c := range n.parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// PrecedingIndentation returns the indentation (the text of
// PrecedingWhitespace following its last newline) and whether the preceding
// whitespace contained a newline at all.
func (n *Node) PrecedingIndentation() (string, bool) {
	ws := n.PrecedingWhitespace()
	idx := strings.LastIndex(ws, "\n")
	if idx < 0 {
		return "", false
	}
	return ws[idx+1:], true
}

// AncestorIndentation returns the preceding indentation of the closest
// strict ancestor that has one.
func (n *Node) AncestorIndentation() (string, bool) {
	for anc := n.parent; anc != nil; anc = anc.parent {
		if ind, ok := anc.PrecedingIndentation(); ok {
			return ind, true
		}
	}
	return "", false
}

// IndentationShift returns this node's own preceding indentation with its
// ancestor's indentation prefix stripped off, i.e. the indentation this node
// adds on top of its surrounding context. Returns ok=false if n has no
// preceding indentation of its own.
func (n *Node) IndentationShift() (string, bool) {
	own, ok := n.PrecedingIndentation()
	if !ok {
		return "", false
	}
	ancestor, hasAncestor := n.AncestorIndentation()
	if !hasAncestor {
		return own, true
	}
	if shift, ok := strings.CutPrefix(own, ancestor); ok {
		return shift, true
	}
	// Ancestor indentation isn't a literal prefix (mixed tabs/spaces): fall
	// back to the node's own indentation rather than guessing a shift.
	return own, true
}

// TrailingWhitespace returns the source between the end of n's last child
// and n's own end, provided that span is non-empty and entirely whitespace.
func (n *Node) TrailingWhitespace() string {
	if len(n.Children) == 0 {
		return ""
	}
	last := n.Children[len(n.Children)-1]
	offset := last.ByteEnd - n.ByteStart
	if offset < 0 || offset > len(n.Source) {
		return ""
	}
	extra := n.Source[offset:]
	if extra != "" && strings.TrimSpace(extra) == "" {
		return extra
	}
	return ""
}
