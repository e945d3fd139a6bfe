package ast

import (
	"context"
	"fmt"
	"hash/fnv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/mergo/internal/langprofile"
)

// injectionSpan marks a byte range, captured by a language profile's
// InjectionQuery, that should be re-parsed under a different profile.
type injectionSpan struct {
	start, end int
	profile    *langprofile.Profile
}

// locateInjections runs profile's InjectionQuery (if any) once over the
// whole parsed tree, resolving each match's "injection.content" capture to
// the profile named by its "injection.language" capture, mirroring
// locate_injections. A query that fails to compile, or a language name with
// no registered profile, is simply skipped rather than failing the parse.
func locateInjections(root *sitter.Node, source string, profile *langprofile.Profile) []injectionSpan {
	if profile.InjectionQuery == "" {
		return nil
	}
	query, err := sitter.NewQuery([]byte(profile.InjectionQuery), profile.Language)
	if err != nil {
		return nil
	}

	cursor := sitter.NewQueryCursor()
	cursor.Exec(query, root)

	var spans []injectionSpan
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, []byte(source))

		var content *sitter.Node
		var langName string
		for _, cap := range match.Captures {
			n := cap.Node
			switch query.CaptureNameForId(cap.Index) {
			case "injection.content":
				content = &n
			case "injection.language":
				langName = source[n.StartByte():n.EndByte()]
			}
		}
		if content == nil || langName == "" {
			continue
		}
		injected, ok := profile.ResolveInjected(langName)
		if !ok {
			continue
		}
		spans = append(spans, injectionSpan{
			start:   int(content.StartByte()),
			end:     int(content.EndByte()),
			profile: injected,
		})
	}
	return spans
}

func findInjection(spans []injectionSpan, start, end int) (*langprofile.Profile, bool) {
	for _, s := range spans {
		if s.start == start && s.end == end {
			return s.profile, true
		}
	}
	return nil, false
}

// spliceInjections walks an already-built tree and, at every node whose
// byte range matches a located injection span, replaces its children with
// a single re-parsed subtree under the injected profile. Applied after the
// ordinary recursive build so that build itself never has to carry
// injection state through its hot path.
func spliceInjections(ctx context.Context, n *Node, spans []injectionSpan, arena *Arena, nextID *int) {
	if len(spans) == 0 {
		return
	}
	if injectedProfile, ok := findInjection(spans, n.ByteStart, n.ByteEnd); ok {
		if injRoot, err := parseInjected(ctx, n.Source, n.ByteStart, injectedProfile, arena, nextID); err == nil {
			n.Children = []*Node{injRoot}
			n.fieldChildren = nil
			n.descendantCount = 1 + injRoot.descendantCount
			recomputeHash(n)
		}
		return
	}
	for _, c := range n.Children {
		spliceInjections(ctx, c, spans, arena, nextID)
	}
}

// parseInjected parses sub (the content captured by an injection point)
// under profile, then shifts every resulting node's byte range by
// baseOffset so it lines up with the outer document's coordinates.
func parseInjected(ctx context.Context, sub string, baseOffset int, profile *langprofile.Profile, arena *Arena, nextID *int) (*Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(profile.Language)
	tree, err := parser.ParseCtx(ctx, nil, []byte(sub))
	if err != nil {
		return nil, fmt.Errorf("parsing injected %s content: %w", profile.Name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing injected %s content: tree-sitter returned no tree", profile.Name)
	}
	root, err := build(tree.RootNode(), sub, profile, arena, nextID)
	if err != nil {
		return nil, err
	}
	shiftByteRange(root, baseOffset)
	return root, nil
}

func shiftByteRange(n *Node, offset int) {
	n.ByteStart += offset
	n.ByteEnd += offset
	for _, c := range n.Children {
		shiftByteRange(c, offset)
	}
}

// recomputeHash rebuilds n's isomorphism hash from its (now spliced-in)
// children, the same way build does for any other non-leaf node.
func recomputeHash(n *Node) {
	h := fnv.New64a()
	h.Write([]byte(n.GrammarName))
	if n.LangProfile != nil {
		h.Write([]byte(n.LangProfile.Name))
	}
	for _, c := range n.Children {
		writeUint64(h, c.Hash)
	}
	n.Hash = h.Sum64()
}
