// Package settings holds the display/formatting knobs that control how
// conflicts are rendered and parsed as diff3-style markers.
package settings

import "fmt"

// DefaultConflictMarkerSize is the number of marker characters
// ("<", "|", "=", ">") repeated on each marker line, matching git/diff3
// convention.
const DefaultConflictMarkerSize = 7

// DisplaySettings controls conflict-marker rendering and revision naming.
type DisplaySettings struct {
	// Diff3 includes the base ("|||||||") section in rendered conflicts.
	Diff3 bool
	// Compact renders a conflict's unchanged common prefix/suffix lines only
	// once instead of repeating them on every side, when true. A nil value
	// is treated as false.
	Compact *bool
	// ConflictMarkerSize is the repeat count for marker characters.
	ConflictMarkerSize int

	BaseRevisionName  string
	LeftRevisionName  string
	RightRevisionName string
}

// Default returns the settings used when the CLI is not given explicit
// revision names or marker-size overrides.
func Default() DisplaySettings {
	return DisplaySettings{
		Diff3:              true,
		ConflictMarkerSize: DefaultConflictMarkerSize,
		BaseRevisionName:   "BASE",
		LeftRevisionName:   "LEFT",
		RightRevisionName:  "RIGHT",
	}
}

func (s DisplaySettings) markerSize() int {
	if s.ConflictMarkerSize <= 0 {
		return DefaultConflictMarkerSize
	}
	return s.ConflictMarkerSize
}

func repeat(ch byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ch
	}
	return string(b)
}

// LeftMarker renders e.g. "<<<<<<< LEFT".
func (s DisplaySettings) LeftMarker() string {
	return fmt.Sprintf("%s %s", repeat('<', s.markerSize()), s.leftName())
}

// BaseMarker renders e.g. "||||||| BASE". Only meaningful when Diff3 is set.
func (s DisplaySettings) BaseMarker() string {
	return fmt.Sprintf("%s %s", repeat('|', s.markerSize()), s.baseName())
}

// MiddleMarker renders the bare "=======" separator.
func (s DisplaySettings) MiddleMarker() string {
	return repeat('=', s.markerSize())
}

// RightMarker renders e.g. ">>>>>>> RIGHT".
func (s DisplaySettings) RightMarker() string {
	return fmt.Sprintf("%s %s", repeat('>', s.markerSize()), s.rightName())
}

func (s DisplaySettings) leftName() string {
	if s.LeftRevisionName == "" {
		return "LEFT"
	}
	return s.LeftRevisionName
}

func (s DisplaySettings) baseName() string {
	if s.BaseRevisionName == "" {
		return "BASE"
	}
	return s.BaseRevisionName
}

func (s DisplaySettings) rightName() string {
	if s.RightRevisionName == "" {
		return "RIGHT"
	}
	return s.RightRevisionName
}

// WithRevisionNames returns a copy of s with the three revision labels set,
// matching DisplaySettings::add_revision_names.
func (s DisplaySettings) WithRevisionNames(base, left, right string) DisplaySettings {
	s.BaseRevisionName = base
	s.LeftRevisionName = left
	s.RightRevisionName = right
	return s
}
