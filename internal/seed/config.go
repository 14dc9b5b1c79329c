package seed

import "time"

// Config holds the knobs for a demo data run.
type Config struct {
	Days    int           // number of days to backfill, ending today
	PerDay  int           // measurements per series per day
	Workers int           // concurrent submission workers
	Timeout time.Duration // per-request timeout budget
}

// Profile describes one demo series and the shape of its values.
type Profile struct {
	Name   string
	Min    float64
	Max    float64
	Color  string
	Icon   string
	Base   float64 // center of the generated values
	Jitter float64 // max deviation from the base per sample
	Drift  float64 // per-day trend applied to the base
}

// Stats accumulates what a run produced.
type Stats struct {
	SeriesCreated       int
	MeasurementsPlanned int
	MeasurementsCreated int
	MeasurementsFailed  int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}

// DefaultProfiles are the demo series a bare `seed` run creates.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "weight", Min: 40, Max: 150, Color: "#61dafb", Icon: "scale", Base: 81, Jitter: 0.8, Drift: -0.05},
		{Name: "resting pulse", Min: 30, Max: 220, Color: "#ff7f50", Icon: "heart", Base: 62, Jitter: 6, Drift: 0},
		{Name: "steps", Min: 0, Max: 50000, Color: "#7fff7f", Icon: "shoe", Base: 8000, Jitter: 4000, Drift: 20},
		{Name: "temperature", Min: 34, Max: 43, Color: "#ffd700", Icon: "thermometer", Base: 36.6, Jitter: 0.3, Drift: 0},
	}
}
