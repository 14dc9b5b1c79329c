// Package model contains domain models passed between layers.
package model

import "time"

// Series is a named, range-bounded category of numeric measurements.
// Fields mirror the backend schema for /series.
type Series struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	Color    string  `json:"color,omitempty"`
	Icon     string  `json:"icon,omitempty"`
}

// Measurement is one timestamped numeric value belonging to exactly one series.
type Measurement struct {
	ID        int64   `json:"id"`
	SeriesID  int64   `json:"series_id"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// At returns the measurement's instant, or the zero time if the stamp
// cannot be parsed.
func (m Measurement) At() time.Time {
	t, err := ParseStamp(m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Before reports whether m's instant precedes o's. Unparseable stamps sort
// first so that malformed rows surface at the top instead of vanishing.
func (m Measurement) Before(o Measurement) bool {
	return m.At().Before(o.At())
}
