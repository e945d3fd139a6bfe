// Package textrender pretty-prints a reconstructed MergedTree back to text,
// emitting diff3-style conflict markers at Conflict nodes.
package textrender

import (
	"strings"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/mergedtree"
	"github.com/oxhq/mergo/internal/settings"
)

// Render flattens a MergedTree into final text, tracking whether any
// conflict was emitted.
func Render(t *mergedtree.Tree, s settings.DisplaySettings) (text string, hasConflict bool) {
	var sb strings.Builder
	conflict := renderRec(&sb, t, s)
	return sb.String(), conflict
}

func renderRec(sb *strings.Builder, t *mergedtree.Tree, s settings.DisplaySettings) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case mergedtree.KindExact:
		sb.WriteString(t.Leader.AsRepresentative().Node.Source)
		return false
	case mergedtree.KindLineBasedMerge:
		sb.WriteString(t.Text)
		return t.ConflictMass > 0 || strings.Contains(t.Text, s.LeftMarker())
	case mergedtree.KindCommutativeChildSeparator:
		sb.WriteString(t.SeparatorText)
		return false
	case mergedtree.KindMixed:
		conflict := false
		for _, c := range t.Children {
			if renderRec(sb, c, s) {
				conflict = true
			}
		}
		return conflict
	case mergedtree.KindConflict:
		renderConflict(sb, t, s)
		return true
	default:
		return false
	}
}

func renderConflict(sb *strings.Builder, t *mergedtree.Tree, s settings.DisplaySettings) {
	leftText := joinSource(t.ConflictLeft)
	baseText := joinSource(t.ConflictBase)
	rightText := joinSource(t.ConflictRight)

	var prefix, suffix string
	if s.Compact != nil && *s.Compact {
		prefix, leftText, baseText, rightText = stripCommonPrefix(leftText, baseText, rightText)
		leftText, baseText, rightText, suffix = stripCommonSuffix(leftText, baseText, rightText)
	}

	sb.WriteString(prefix)
	sb.WriteString(s.LeftMarker())
	sb.WriteString("\n")
	writeWithTrailingNewline(sb, leftText)
	if s.Diff3 {
		sb.WriteString(s.BaseMarker())
		sb.WriteString("\n")
		writeWithTrailingNewline(sb, baseText)
	}
	sb.WriteString(s.MiddleMarker())
	sb.WriteString("\n")
	writeWithTrailingNewline(sb, rightText)
	sb.WriteString(s.RightMarker())
	sb.WriteString("\n")
	sb.WriteString(suffix)
}

func writeWithTrailingNewline(sb *strings.Builder, text string) {
	sb.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
}

func joinSource(nodes []*ast.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.Source)
	}
	return sb.String()
}

// stripCommonPrefix/stripCommonSuffix factor out leading/trailing lines
// shared by all three conflict sides, so a conflict whose only difference is
// in the middle of a block doesn't redundantly repeat identical context on
// every side. Only applied when DisplaySettings.Compact is set, since it
// changes which lines appear inside the markers. Kept deliberately
// conservative: only whole shared lines at the very start/end are factored
// out, not partial-line common substrings.
func stripCommonPrefix(a, b, c string) (prefix, ra, rb, rc string) {
	la, lb, lc := splitKeepEnds(a), splitKeepEnds(b), splitKeepEnds(c)
	n := minLen(len(la), len(lb), len(lc))
	i := 0
	for i < n && la[i] == lb[i] && lb[i] == lc[i] {
		i++
	}
	return strings.Join(la[:i], ""), strings.Join(la[i:], ""), strings.Join(lb[i:], ""), strings.Join(lc[i:], "")
}

func stripCommonSuffix(a, b, c string) (ra, rb, rc, suffix string) {
	la, lb, lc := splitKeepEnds(a), splitKeepEnds(b), splitKeepEnds(c)
	n := minLen(len(la), len(lb), len(lc))
	i := 0
	for i < n && la[len(la)-1-i] == lb[len(lb)-1-i] && lb[len(lb)-1-i] == lc[len(lc)-1-i] {
		i++
	}
	cut := func(lines []string) (string, string) {
		if i == 0 {
			return strings.Join(lines, ""), ""
		}
		return strings.Join(lines[:len(lines)-i], ""), strings.Join(lines[len(lines)-i:], "")
	}
	var suf string
	ra, suf = cut(la)
	rb, _ = cut(lb)
	rc, _ = cut(lc)
	return ra, rb, rc, suf
}

func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func minLen(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
