// Package cascade implements the top-level merge strategy: try a
// line-based (diff3) merge first; if it leaves conflicts, additionally
// attempt a full structured merge, and keep whichever candidate has the
// lower conflict mass (preferring one with no "additional issues" reported
// by the structured pass, such as a parse failure).
package cascade

import (
	"context"

	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/linemerge"
	"github.com/oxhq/mergo/internal/merge3dm"
	"github.com/oxhq/mergo/internal/settings"
)

// Method identifies which strategy produced the winning result.
type Method int

const (
	MethodLineBased Method = iota
	MethodStructured
)

func (m Method) String() string {
	if m == MethodStructured {
		return "structured"
	}
	return "line-based"
}

// Outcome is the result of the cascading merge, including which method won.
type Outcome struct {
	Text             string
	HasConflict      bool
	ConflictMass     int
	Method           Method
	AdditionalIssues bool
}

// Merge runs the cascading strategy. If profile is nil (unrecognized
// language/extension), only the line-based merge is attempted, matching the
// original's behavior for files with no language support.
func Merge(ctx context.Context, base, left, right string, profile *langprofile.Profile, s settings.DisplaySettings) (Outcome, error) {
	lineResult := linemerge.Diff3(base, left, right)
	lineOutcome := Outcome{
		Text:         lineResult.Text,
		HasConflict:  lineResult.HasConflict,
		ConflictMass: lineResult.ConflictMass,
		Method:       MethodLineBased,
	}

	if !lineResult.HasConflict || profile == nil {
		return lineOutcome, nil
	}

	var structured *merge3dm.Result
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		structured, err = merge3dm.Merge(ctx, base, left, right, profile, s)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Out of time: the worker is abandoned and the line-based result stands.
		return lineOutcome, nil
	}
	if err != nil {
		// A structured-merge failure (e.g. a parse error) is an "additional
		// issue": fall back to the line-based candidate rather than failing
		// the whole merge.
		lineOutcome.AdditionalIssues = true
		return lineOutcome, nil
	}
	structuredOutcome := Outcome{
		Text:         structured.Text,
		HasConflict:  structured.HasConflict,
		ConflictMass: structured.ConflictMass,
		Method:       MethodStructured,
	}

	return selectBest(lineOutcome, structuredOutcome), nil
}

// selectBest picks the candidate with no additional issues and the lower
// conflict mass, preferring the structured candidate on a tie (it carries
// more semantic information than a line-based merge).
func selectBest(lineOutcome, structuredOutcome Outcome) Outcome {
	if lineOutcome.AdditionalIssues && !structuredOutcome.AdditionalIssues {
		return structuredOutcome
	}
	if structuredOutcome.AdditionalIssues && !lineOutcome.AdditionalIssues {
		return lineOutcome
	}
	if structuredOutcome.ConflictMass <= lineOutcome.ConflictMass {
		return structuredOutcome
	}
	return lineOutcome
}
