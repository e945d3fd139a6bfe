// Package mergeerr defines the error taxonomy shared by every stage of the
// merge pipeline, so that callers can recover with errors.As instead of
// string matching.
package mergeerr

import "fmt"

// ParseError means the source did not parse under the selected grammar.
// Recovery: fall through to a line-based merge.
type ParseError struct {
	Lang string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %v", e.Lang, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedLanguageError means no language profile matches the file
// extension. Recovery: fall through to a line-based merge.
type UnsupportedLanguageError struct {
	Extension string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language for extension %q", e.Extension)
}

// InternalInvariantError means the PCS builder or tree builder reached a
// state that should be unreachable (cycle, more than two conflict sides,
// virtual root without a child). Recovery: local line-based fallback on the
// enclosing subtree.
type InternalInvariantError struct {
	Where  string
	Detail string
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Where, e.Detail)
}

// SyntaxErrorAfterMergeError means the pretty-printed merge does not
// re-parse isomorphically; only relevant for debug/minimizer tooling which
// is out of scope here, but the type is kept so the taxonomy is complete.
type SyntaxErrorAfterMergeError struct {
	Detail string
}

func (e *SyntaxErrorAfterMergeError) Error() string {
	return fmt.Sprintf("merge output does not re-parse isomorphically: %s", e.Detail)
}

// TimeoutError means the structured attempt exceeded its time budget.
// Recovery: return the line-based result.
type TimeoutError struct {
	BudgetMS int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("structured merge exceeded %dms budget", e.BudgetMS)
}

// IOFailureError is fatal and reported to the caller with exit code -1.
type IOFailureError struct {
	Path string
	Err  error
}

func (e *IOFailureError) Error() string {
	return fmt.Sprintf("io failure on %s: %v", e.Path, e.Err)
}

func (e *IOFailureError) Unwrap() error { return e.Err }
