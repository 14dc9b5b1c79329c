// Package seed populates a backend with demo series and a believable
// spread of measurements so a fresh deployment has something to show.
package seed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkret/measureboard/internal/adapters/api"
	"github.com/mkret/measureboard/internal/app"
	"github.com/mkret/measureboard/pkg/logger"
)

const (
	defaultDays    = 30
	defaultPerDay  = 2
	defaultWorkers = 8
)

// Run creates the given profiles as series and backfills measurements
// for each. Submission failures are counted, not fatal: the run keeps
// going and reports how much landed.
func Run(ctx context.Context, store app.Store, cfg Config, profiles []Profile) (*Stats, error) {
	if cfg.Days <= 0 {
		cfg.Days = defaultDays
	}
	if cfg.PerDay <= 0 {
		cfg.PerDay = defaultPerDay
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}

	log := logger.Named("seed")
	stats := &Stats{StartTime: time.Now()}
	now := time.Now()

	var created, failed atomic.Int64

	for _, p := range profiles {
		series, err := store.CreateSeries(ctx, api.SeriesRequest{
			Name:     p.Name,
			MinValue: p.Min,
			MaxValue: p.Max,
			Color:    p.Color,
			Icon:     p.Icon,
		})
		if err != nil {
			return stats, fmt.Errorf("create series %q: %w", p.Name, err)
		}
		stats.SeriesCreated++
		log.Info(ctx, "series created",
			logger.Int64("id", series.ID),
			logger.String("name", series.Name),
		)

		samples := generateSamples(p, cfg.Days, cfg.PerDay, now)
		stats.MeasurementsPlanned += len(samples)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for _, s := range samples {
			s := s
			g.Go(func() error {
				callCtx := gctx
				if cfg.Timeout > 0 {
					var cancel context.CancelFunc
					callCtx, cancel = context.WithTimeout(gctx, cfg.Timeout)
					defer cancel()
				}
				if _, err := store.CreateMeasurement(callCtx, series.ID, s.value, s.stamp); err != nil {
					failed.Add(1)
					log.Warn(gctx, "measurement submission failed",
						logger.Int64("series", series.ID),
						logger.String("timestamp", s.stamp),
						logger.Error(err),
					)
					return nil
				}
				created.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, fmt.Errorf("seed series %q: %w", p.Name, err)
		}
	}

	stats.MeasurementsCreated = int(created.Load())
	stats.MeasurementsFailed = int(failed.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "seed run finished",
		logger.Int("series", stats.SeriesCreated),
		logger.Int("created", stats.MeasurementsCreated),
		logger.Int("failed", stats.MeasurementsFailed),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}
