package model

import (
	"fmt"
	"strings"
	"time"
)

// StampLayout is the canonical wire format for timestamps: second
// precision, no timezone suffix. The backend stores and compares these
// verbatim, so the client must emit exactly this shape.
const StampLayout = "2006-01-02T15:04:05"

// minuteLayout matches datetime-local input without a seconds component.
const minuteLayout = "2006-01-02T15:04"

// ParseStamp parses a wire timestamp. It accepts the canonical layout,
// the minute-precision edit-field variant, and RFC3339 (some deployments
// return a zone suffix; it is honored when present).
func ParseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{StampLayout, minuteLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// FormatStamp renders t in the canonical wire layout.
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

// NormalizeStamp appends ":00" to a minute-precision edit-field value so
// that stamps always carry seconds. Values already at second precision
// pass through unchanged; so does anything else (validation is the
// caller's concern).
func NormalizeStamp(s string) string {
	if len(s) == len(minuteLayout) {
		return s + ":00"
	}
	return s
}
