// Package conflictmarker parses and renders diff3-style conflict markers in
// plain text, used by the "solve" subcommand to re-resolve conflicts left in
// a file by a previous (possibly line-based) merge.
package conflictmarker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oxhq/mergo/internal/mergeerr"
	"github.com/oxhq/mergo/internal/settings"
)

// Chunk is either a Conflict or a run of unconflicted Lines.
type Chunk struct {
	IsConflict bool

	// valid when !IsConflict
	Lines string

	// valid when IsConflict
	Left  string
	Base  string // only set if the source was in diff3 form
	Right string
	HasBase bool
}

// ParsedMerge is a file broken into a sequence of conflicted/unconflicted
// chunks.
type ParsedMerge struct {
	Chunks []Chunk
}

var (
	diff2Pattern = regexp.MustCompile(`(?s)^<<<<<<< .*?\n(.*?)=======\n(.*?)>>>>>>> .*?\n`)
	diff3Pattern = regexp.MustCompile(`(?s)^<<<<<<< .*?\n(.*?)\|\|\|\|\|\|\| .*?\n(.*?)=======\n(.*?)>>>>>>> .*?\n`)
)

// Parse splits text into conflict/non-conflict chunks, recognizing both
// diff2-style (no base section) and diff3-style conflict markers, and
// rejecting diff2 markers when the caller requires diff3 form (the "solve"
// subcommand's --expect-diff3 behavior).
func Parse(text string, requireDiff3 bool) (*ParsedMerge, error) {
	var chunks []Chunk
	rest := text
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() > 0 {
			chunks = append(chunks, Chunk{Lines: plain.String()})
			plain.Reset()
		}
	}

	for len(rest) > 0 {
		if loc := diff3Pattern.FindStringSubmatchIndex(rest); loc != nil && loc[0] == 0 {
			m := diff3Pattern.FindStringSubmatch(rest)
			flushPlain()
			chunks = append(chunks, Chunk{IsConflict: true, Left: m[1], Base: m[2], Right: m[3], HasBase: true})
			rest = rest[loc[1]:]
			continue
		}
		if loc := diff2Pattern.FindStringSubmatchIndex(rest); loc != nil && loc[0] == 0 {
			if requireDiff3 {
				return nil, &mergeerr.InternalInvariantError{
					Where:  "conflictmarker.Parse",
					Detail: "found diff2-style conflict markers where diff3 form (with a base section) was required",
				}
			}
			m := diff2Pattern.FindStringSubmatch(rest)
			flushPlain()
			chunks = append(chunks, Chunk{IsConflict: true, Left: m[1], Right: m[2]})
			rest = rest[loc[1]:]
			continue
		}
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			plain.WriteString(rest)
			rest = ""
			break
		}
		plain.WriteString(rest[:nl+1])
		rest = rest[nl+1:]
	}
	flushPlain()
	return &ParsedMerge{Chunks: chunks}, nil
}

// HasConflicts reports whether any chunk is a conflict.
func (pm *ParsedMerge) HasConflicts() bool {
	for _, c := range pm.Chunks {
		if c.IsConflict {
			return true
		}
	}
	return false
}

// Render reassembles the parsed merge back into text, re-emitting markers
// for any chunk still marked as a conflict (used after "solve" has resolved
// some but not all chunks).
func (pm *ParsedMerge) Render(s settings.DisplaySettings) string {
	var sb strings.Builder
	for _, c := range pm.Chunks {
		if !c.IsConflict {
			sb.WriteString(c.Lines)
			continue
		}
		sb.WriteString(s.LeftMarker())
		sb.WriteString("\n")
		sb.WriteString(c.Left)
		if s.Diff3 && c.HasBase {
			sb.WriteString(s.BaseMarker())
			sb.WriteString("\n")
			sb.WriteString(c.Base)
		}
		sb.WriteString(s.MiddleMarker())
		sb.WriteString("\n")
		sb.WriteString(c.Right)
		sb.WriteString(s.RightMarker())
		sb.WriteString("\n")
	}
	return sb.String()
}

// String is a debug helper.
func (c Chunk) String() string {
	if !c.IsConflict {
		return fmt.Sprintf("plain(%d bytes)", len(c.Lines))
	}
	return fmt.Sprintf("conflict(left=%d base=%d right=%d)", len(c.Left), len(c.Base), len(c.Right))
}
