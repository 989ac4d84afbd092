package model

import "fmt"

// WarningKind classifies a non-fatal extraction problem.
type WarningKind int

const (
	// WarningStructural covers list type coercions, flattened nesting and
	// ambiguous caption association.
	WarningStructural WarningKind = iota
	// WarningResolution covers images or tables that could not be resolved
	// and were dropped.
	WarningResolution
)

func (k WarningKind) String() string {
	switch k {
	case WarningStructural:
		return "structural"
	case WarningResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal problem found during extraction.
// Position is the body element index, or -1 when not tied to one element.
type Warning struct {
	Kind     WarningKind
	Position int
	Message  string
}

func (w Warning) String() string {
	if w.Position < 0 {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s at element %d: %s", w.Kind, w.Position, w.Message)
}
