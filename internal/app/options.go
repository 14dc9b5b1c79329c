package app

import (
	"time"

	"github.com/mkret/measureboard/pkg/logger"
)

// Option applies a configuration option to the Dashboard.
type Option func(*Dashboard)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(d *Dashboard) {
		if log != nil {
			d.log = log
		}
	}
}

// WithConfirmer wires the confirmation step destructive actions require.
func WithConfirmer(confirm Confirmer) Option {
	return func(d *Dashboard) {
		if confirm != nil {
			d.confirm = confirm
		}
	}
}

// WithPrivileged marks the session as allowed to mutate. Without it
// every mutating operation fails with ErrReadOnly.
func WithPrivileged(privileged bool) Option {
	return func(d *Dashboard) {
		d.privileged = privileged
	}
}

// WithFetchLimit caps measurements fetched per series per batch.
func WithFetchLimit(limit int) Option {
	return func(d *Dashboard) {
		if limit > 0 {
			d.fetchLimit = limit
		}
	}
}

// WithSeriesPageLimit caps the series list fetch.
func WithSeriesPageLimit(limit int) Option {
	return func(d *Dashboard) {
		if limit > 0 {
			d.seriesPageLimit = limit
		}
	}
}

// WithClock substitutes the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}
