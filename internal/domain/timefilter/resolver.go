// Package timefilter converts the dual-mode time filter into concrete
// inclusive query bounds.
//
// The filter has two modes. In ModeDate the edit fields carry calendar
// days ("2024-01-10") and the resolved range covers both end days in
// full. In ModeDateTime the fields carry minute- or second-precision
// instants and are passed through with seconds normalized. Switching
// modes deliberately does not convert existing field values; they are
// simply reinterpreted on the next fetch.
package timefilter

import "github.com/mkret/measureboard/internal/domain/model"

// Mode selects how the raw edit-field values are interpreted.
type Mode string

const (
	// ModeDate interprets inputs as whole calendar days.
	ModeDate Mode = "date"
	// ModeDateTime interprets inputs as instants.
	ModeDateTime Mode = "datetime"
)

// Bounds are resolved inclusive query bounds in wire format. An empty
// string means the corresponding edge is unconstrained.
type Bounds struct {
	From string
	To   string
}

// dayStart and dayEnd anchor a date-mode value to the edges of its day.
const (
	dayStart = "T00:00:00"
	dayEnd   = "T23:59:59"
)

// Resolve turns raw edit-field strings into query bounds. Empty inputs
// resolve to empty bounds. No filtering happens here; the bounds travel
// verbatim to the list-measurements call and the server does the rest.
func Resolve(mode Mode, from, to string) Bounds {
	return Bounds{
		From: resolveEdge(mode, from, false),
		To:   resolveEdge(mode, to, true),
	}
}

func resolveEdge(mode Mode, value string, endOfDay bool) string {
	if value == "" {
		return ""
	}
	if mode == ModeDateTime {
		return model.NormalizeStamp(value)
	}
	if endOfDay {
		return value + dayEnd
	}
	return value + dayStart
}
