// Package app owns the dashboard state: the fetched series definitions,
// the per-series measurement cache, the active display set, the time
// filter, and the selection. All reads and mutations flow through the
// Dashboard so there is exactly one copy of the truth.
//
// Fetches may overlap: a filter change can be issued while an older
// measurement batch is still in flight. Every batch is tagged with the
// generation current at issue time and applied only if that generation
// still matches on arrival, so an older, slower fetch can never
// overwrite state a newer one already produced. A batch resolves as a
// whole: the cache is replaced only after every series in the batch has
// returned.
package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkret/measureboard/internal/adapters/api"
	"github.com/mkret/measureboard/internal/adapters/cache"
	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/selection"
	"github.com/mkret/measureboard/internal/domain/timefilter"
	"github.com/mkret/measureboard/internal/domain/timeline"
	"github.com/mkret/measureboard/pkg/logger"
	"github.com/mkret/measureboard/pkg/metrics"
)

// Store is the data-access collaborator the engine mutates through.
// *api.Client satisfies it; tests substitute a fake.
type Store interface {
	ListSeries(ctx context.Context, limit, offset int) ([]model.Series, error)
	CreateSeries(ctx context.Context, req api.SeriesRequest) (model.Series, error)
	UpdateSeries(ctx context.Context, id int64, req api.SeriesRequest) (model.Series, error)
	DeleteSeries(ctx context.Context, id int64) error

	ListMeasurements(ctx context.Context, query api.MeasurementQuery) ([]model.Measurement, error)
	CreateMeasurement(ctx context.Context, seriesID int64, value float64, timestamp string) (model.Measurement, error)
	UpdateMeasurement(ctx context.Context, id, seriesID int64, value float64, timestamp string) (model.Measurement, error)
	DeleteMeasurement(ctx context.Context, id int64) error

	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// Confirmer approves destructive actions before they are issued.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// denyAll is the default confirmer: destructive actions stay blocked
// until the surface wires a real confirmation step.
type denyAll struct{}

func (denyAll) Confirm(string) bool { return false }

// Default fetch limits, matching the backend's page caps.
const (
	defaultFetchLimit      = 500
	defaultSeriesPageLimit = 200
)

// Dashboard is the engine behind the measurement view.
type Dashboard struct {
	mu sync.Mutex

	store      Store
	log        logger.Logger
	confirm    Confirmer
	privileged bool
	now        func() time.Time

	fetchLimit      int
	seriesPageLimit int

	series           []model.Series
	selectedSeriesID int64
	active           []int64

	filterMode timefilter.Mode
	filterFrom string
	filterTo   string

	measurements *cache.Store
	sel          *selection.Controller

	// generation tags fetch batches; results from a batch whose tag no
	// longer matches are discarded on arrival.
	generation uint64
}

// New constructs a Dashboard around the given store.
func New(store Store, opts ...Option) *Dashboard {
	d := &Dashboard{
		store:           store,
		confirm:         denyAll{},
		now:             time.Now,
		fetchLimit:      defaultFetchLimit,
		seriesPageLimit: defaultSeriesPageLimit,
		filterMode:      timefilter.ModeDate,
		measurements:    cache.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get()
	}
	d.sel = selection.New(selection.WithPrivileged(d.privileged))
	return d
}

// Privileged reports whether this session may mutate.
func (d *Dashboard) Privileged() bool {
	return d.privileged
}

// LoadSeries fetches the series definitions. On first load the selected
// series defaults to the first one and all series become active. The
// measurement cache is not touched; call Refresh afterwards.
func (d *Dashboard) LoadSeries(ctx context.Context) error {
	d.mu.Lock()
	limit := d.seriesPageLimit
	d.mu.Unlock()

	items, err := d.store.ListSeries(ctx, limit, 0)
	if err != nil {
		metrics.RecordFetchError()
		d.log.Error(ctx, "series list fetch failed", logger.Error(err))
		return &FetchError{Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.series = items
	if d.selectedSeriesID == 0 && len(items) > 0 {
		d.selectedSeriesID = items[0].ID
	}
	if len(d.active) == 0 {
		for _, s := range items {
			d.active = append(d.active, s.ID)
		}
	}
	metrics.UpdateSeriesCount(len(d.series))
	metrics.UpdateActiveSeries(len(d.active))
	d.log.Info(ctx, "series loaded", logger.Int("count", len(items)))
	return nil
}

// Refresh fetches measurements for the current active set and filter as
// one batch and swaps the cache wholesale on success. Selection resets
// with the swap. Stale results (superseded while in flight) are
// silently discarded; a failed current batch leaves the cache at its
// last-known value.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	gen := d.nextGenerationLocked()
	active := append([]int64(nil), d.active...)
	bounds := timefilter.Resolve(d.filterMode, d.filterFrom, d.filterTo)
	limit := d.fetchLimit
	d.mu.Unlock()

	metrics.RecordFetchBatch()

	fetched := make(map[int64][]model.Measurement, len(active))
	if len(active) > 0 {
		var fetchedMu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, seriesID := range active {
			seriesID := seriesID
			g.Go(func() error {
				list, err := d.store.ListMeasurements(gctx, api.MeasurementQuery{
					SeriesID: seriesID,
					From:     bounds.From,
					To:       bounds.To,
					Limit:    limit,
				})
				if err != nil {
					return err
				}
				fetchedMu.Lock()
				fetched[seriesID] = list
				fetchedMu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			d.mu.Lock()
			stale := gen != d.generation
			d.mu.Unlock()
			if stale {
				metrics.RecordStaleDiscard()
				return nil
			}
			metrics.RecordFetchError()
			d.log.Error(ctx, "measurement batch fetch failed",
				logger.Int("series", len(active)), logger.Error(err))
			return &FetchError{Err: err}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		metrics.RecordStaleDiscard()
		d.log.Debug(ctx, "discarding stale measurement batch",
			logger.Int64("generation", int64(gen)))
		return nil
	}

	d.measurements.ReplaceAll(fetched)
	d.sel.Reset()
	d.publishGaugesLocked()
	d.log.Info(ctx, "measurements refreshed",
		logger.Int("series", len(active)),
		logger.Int("measurements", d.measurements.Len()),
	)
	return nil
}

// nextGenerationLocked bumps and returns the batch generation.
func (d *Dashboard) nextGenerationLocked() uint64 {
	d.generation++
	return d.generation
}

// invalidateLocked supersedes any in-flight batch without issuing a new
// one. Called by every setter that changes what a fetch would mean.
func (d *Dashboard) invalidateLocked() {
	d.generation++
}

func (d *Dashboard) publishGaugesLocked() {
	metrics.UpdateCacheSize(d.measurements.Len())
	metrics.UpdateActiveSeries(len(d.active))
	metrics.UpdateSeriesCount(len(d.series))
	metrics.UpdateSelectionSize(len(d.sel.IDs()))
}

// SetFilterMode switches between date and datetime interpretation.
// Existing from/to values are not converted; they are reinterpreted on
// the next Refresh.
func (d *Dashboard) SetFilterMode(mode timefilter.Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mode == d.filterMode {
		return
	}
	d.filterMode = mode
	d.invalidateLocked()
}

// SetFilterRange replaces the raw from/to edit-field values.
func (d *Dashboard) SetFilterRange(from, to string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filterFrom = from
	d.filterTo = to
	d.invalidateLocked()
}

// ClearFilter drops both bounds.
func (d *Dashboard) ClearFilter() {
	d.SetFilterRange("", "")
}

// Filter returns the current mode and raw bounds.
func (d *Dashboard) Filter() (timefilter.Mode, string, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filterMode, d.filterFrom, d.filterTo
}

// ToggleActive adds or removes a series from the display set.
func (d *Dashboard) ToggleActive(seriesID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, id := range d.active {
		if id == seriesID {
			d.active = append(d.active[:i], d.active[i+1:]...)
			d.invalidateLocked()
			metrics.UpdateActiveSeries(len(d.active))
			return
		}
	}
	d.active = append(d.active, seriesID)
	d.invalidateLocked()
	metrics.UpdateActiveSeries(len(d.active))
}

// SelectSeries picks the series that create/edit forms operate on.
func (d *Dashboard) SelectSeries(seriesID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectedSeriesID = seriesID
}

// Series returns a copy of the known series definitions.
func (d *Dashboard) Series() []model.Series {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Series(nil), d.series...)
}

// SeriesByID looks up one series definition.
func (d *Dashboard) SeriesByID(id int64) (model.Series, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seriesByIDLocked(id)
}

func (d *Dashboard) seriesByIDLocked(id int64) (model.Series, bool) {
	for _, s := range d.series {
		if s.ID == id {
			return s, true
		}
	}
	return model.Series{}, false
}

// SelectedSeries returns the series the forms operate on, if any.
func (d *Dashboard) SelectedSeries() (model.Series, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seriesByIDLocked(d.selectedSeriesID)
}

// ActiveIDs returns a copy of the active set in rank order.
func (d *Dashboard) ActiveIDs() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.active...)
}

// IsActive reports whether a series is displayed.
func (d *Dashboard) IsActive(seriesID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.active {
		if id == seriesID {
			return true
		}
	}
	return false
}

// Ranks maps active series ids to their 1-based display rank.
func (d *Dashboard) Ranks() map[int64]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return timeline.Ranks(d.active)
}

// Rows derives the merged table projection from the cache.
func (d *Dashboard) Rows() []timeline.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := time.Now()
	rows := timeline.Rows(d.active, d.measurements.Lists())
	metrics.ObserveMergeDuration(time.Since(start).Seconds())
	return rows
}

// Points derives the merged chart projection from the cache.
func (d *Dashboard) Points() []timeline.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := time.Now()
	points := timeline.Points(d.active, d.measurements.Lists())
	metrics.ObserveMergeDuration(time.Since(start).Seconds())
	return points
}

// MeasurementsFor returns a deep copy of one series' cached list.
func (d *Dashboard) MeasurementsFor(seriesID int64) []model.Measurement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measurements.Snapshot()[seriesID]
}
