// Package linemerge implements the line-based diff3 fallback used when a
// subtree cannot be reconciled structurally, and as the first pass of the
// cascading merge strategy. It derives a three-way merge from two
// independent two-way diffs (base-vs-left, base-vs-right) via
// github.com/pmezard/go-difflib, rather than depending on a diff3-native
// library.
package linemerge

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	conflictMarkerSize = 7
	leftLabel          = "LEFT"
	rightLabel         = "RIGHT"
)

// Result holds the textual output of a line-based three-way merge and the
// total byte mass of any conflicts it contains, used to compare candidate
// merges in the cascade.
type Result struct {
	Text         string
	ConflictMass int
	HasConflict  bool
}

// Diff3 performs a line-based three-way merge of base/left/right, emitting
// diff3-style conflict markers for any hunk where both sides changed the
// same region differently.
func Diff3(base, left, right string) Result {
	baseLines := splitLines(base)
	leftLines := splitLines(left)
	rightLines := splitLines(right)

	anchors := commonAnchors(baseLines, leftLines, rightLines)

	var out []string
	mass := 0
	hasConflict := false

	prevBase, prevLeft, prevRight := 0, 0, 0
	emitHunk := func(baseEnd, leftEnd, rightEnd int) {
		baseSeg := baseLines[prevBase:baseEnd]
		leftSeg := leftLines[prevLeft:leftEnd]
		rightSeg := rightLines[prevRight:rightEnd]

		switch {
		case linesEqual(leftSeg, baseSeg):
			out = append(out, rightSeg...)
		case linesEqual(rightSeg, baseSeg):
			out = append(out, leftSeg...)
		case linesEqual(leftSeg, rightSeg):
			out = append(out, leftSeg...)
		default:
			hasConflict = true
			mass += lineLen(baseSeg) + lineLen(leftSeg) + lineLen(rightSeg)
			out = append(out, conflictBlock(leftSeg, baseSeg, rightSeg)...)
		}
	}

	for _, a := range anchors {
		emitHunk(a.baseStart, a.leftStart, a.rightStart)
		out = append(out, baseLines[a.baseStart:a.baseStart+a.size]...)
		prevBase = a.baseStart + a.size
		prevLeft = a.leftStart + a.size
		prevRight = a.rightStart + a.size
	}
	emitHunk(len(baseLines), len(leftLines), len(rightLines))

	return Result{Text: strings.Join(out, ""), ConflictMass: mass, HasConflict: hasConflict}
}

type anchor struct {
	baseStart, leftStart, rightStart, size int
}

// commonAnchors finds base-index ranges reproduced verbatim in both left and
// right, by intersecting the matching blocks of (base, left) with those of
// (base, right). These ranges are safe synchronization points: everything
// between two consecutive anchors is a genuine diff3 hunk.
func commonAnchors(base, left, right []string) []anchor {
	leftBlocks := difflib.NewMatcher(base, left).GetMatchingBlocks()
	rightBlocks := difflib.NewMatcher(base, right).GetMatchingBlocks()

	var out []anchor
	for _, lb := range leftBlocks {
		if lb.Size == 0 {
			continue
		}
		for _, rb := range rightBlocks {
			if rb.Size == 0 {
				continue
			}
			start := maxInt(lb.A, rb.A)
			end := minInt(lb.A+lb.Size, rb.A+rb.Size)
			if end <= start {
				continue
			}
			out = append(out, anchor{
				baseStart:  start,
				leftStart:  lb.B + (start - lb.A),
				rightStart: rb.B + (start - rb.A),
				size:       end - start,
			})
		}
	}
	return out
}

func conflictBlock(left, base, right []string) []string {
	out := make([]string, 0, len(left)+len(base)+len(right)+4)
	out = append(out, marker('<', leftLabel))
	out = append(out, left...)
	out = append(out, marker('|', "BASE"))
	out = append(out, base...)
	out = append(out, marker('=', ""))
	out = append(out, right...)
	out = append(out, marker('>', rightLabel))
	return out
}

func marker(ch byte, label string) string {
	m := strings.Repeat(string(ch), conflictMarkerSize)
	if label != "" {
		m += " " + label
	}
	return m + "\n"
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lineLen(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
