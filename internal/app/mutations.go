package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkret/measureboard/internal/adapters/api"
	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/pkg/logger"
	"github.com/mkret/measureboard/pkg/metrics"
)

// Default display colors applied when a form leaves the color empty.
const (
	defaultEditColor   = "#61dafb"
	defaultCreateColor = "#ff7f50"
)

// CreateMeasurement validates and stores a new measurement for the
// selected series. With useNow the timestamp is the current instant;
// otherwise tsInput is required and normalized to second precision.
// Validation failures never reach the network; a server rejection
// leaves local state untouched. On success the new measurement joins
// its series' cache list without disturbing the other series.
func (d *Dashboard) CreateMeasurement(ctx context.Context, valueInput, tsInput string, useNow bool) error {
	if !d.privileged {
		return ErrReadOnly
	}

	d.mu.Lock()
	series, ok := d.seriesByIDLocked(d.selectedSeriesID)
	d.mu.Unlock()
	if !ok {
		metrics.RecordValidationError()
		return validationErrorf("no series selected")
	}

	value, err := parseValue(valueInput)
	if err != nil {
		return err
	}
	if err := checkRange(value, series); err != nil {
		return err
	}

	var stamp string
	if useNow {
		stamp = model.FormatStamp(d.now())
	} else {
		if strings.TrimSpace(tsInput) == "" {
			metrics.RecordValidationError()
			return validationErrorf("measurement time is required")
		}
		stamp = model.NormalizeStamp(tsInput)
		if _, err := model.ParseStamp(stamp); err != nil {
			metrics.RecordValidationError()
			return validationErrorf("bad measurement time %q", tsInput)
		}
	}

	created, err := d.store.CreateMeasurement(ctx, series.ID, value, stamp)
	if err != nil {
		metrics.RecordMutationError("create_measurement")
		return &MutationError{Kind: "create measurement", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.measurements.Insert(created)
	d.publishGaugesLocked()
	metrics.RecordMutation("create_measurement")
	d.log.Info(ctx, "measurement created",
		logger.Int64("id", created.ID),
		logger.Int64("series", created.SeriesID),
		logger.Float64("value", created.Value),
	)
	return nil
}

// UpdateMeasurement replaces the value and optionally the timestamp of
// the measurement open in the edit form. An empty tsInput keeps the
// original timestamp. On success the updated measurement becomes the
// sole selection and primary, and edit mode closes.
func (d *Dashboard) UpdateMeasurement(ctx context.Context, valueInput, tsInput string) error {
	if !d.privileged {
		return ErrReadOnly
	}

	d.mu.Lock()
	editing, ok := d.sel.Editing()
	var series model.Series
	var haveSeries bool
	if ok {
		series, haveSeries = d.seriesByIDLocked(editing.SeriesID)
	}
	d.mu.Unlock()
	if !ok {
		metrics.RecordValidationError()
		return validationErrorf("no measurement open for editing")
	}

	value, err := parseValue(valueInput)
	if err != nil {
		return err
	}
	// The owning series should always be known; skip the range check
	// defensively if the definition vanished mid-session.
	if haveSeries {
		if err := checkRange(value, series); err != nil {
			return err
		}
	}

	stamp := editing.Timestamp
	if strings.TrimSpace(tsInput) != "" {
		stamp = model.NormalizeStamp(tsInput)
		if _, err := model.ParseStamp(stamp); err != nil {
			metrics.RecordValidationError()
			return validationErrorf("bad measurement time %q", tsInput)
		}
	}

	updated, err := d.store.UpdateMeasurement(ctx, editing.ID, editing.SeriesID, value, stamp)
	if err != nil {
		metrics.RecordMutationError("update_measurement")
		return &MutationError{Kind: "update measurement", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.measurements.Replace(updated)
	d.sel.ApplyUpdate(updated)
	d.publishGaugesLocked()
	metrics.RecordMutation("update_measurement")
	d.log.Info(ctx, "measurement updated", logger.Int64("id", updated.ID))
	return nil
}

// DeleteMeasurement deletes m, or, when m belongs to a multi-selection,
// every selected measurement. One confirmation covers the whole batch.
// Only the ids the server confirmed deleted leave the local cache.
func (d *Dashboard) DeleteMeasurement(ctx context.Context, m model.Measurement) error {
	if !d.privileged {
		return ErrReadOnly
	}

	d.mu.Lock()
	ids := d.sel.IDs()
	batch := len(ids) > 1 && d.sel.IsSelected(m.ID)
	d.mu.Unlock()

	if batch {
		return d.deleteBatch(ctx, ids)
	}
	return d.deleteSingle(ctx, m)
}

func (d *Dashboard) deleteSingle(ctx context.Context, m model.Measurement) error {
	if !d.confirm.Confirm("Delete this measurement?") {
		return nil
	}
	if err := d.store.DeleteMeasurement(ctx, m.ID); err != nil {
		metrics.RecordMutationError("delete_measurement")
		return &MutationError{Kind: "delete measurement", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.measurements.Remove(m.ID)
	d.sel.ApplyDelete([]int64{m.ID})
	d.publishGaugesLocked()
	metrics.RecordMutation("delete_measurement")
	d.log.Info(ctx, "measurement deleted", logger.Int64("id", m.ID))
	return nil
}

func (d *Dashboard) deleteBatch(ctx context.Context, ids []int64) error {
	prompt := fmt.Sprintf("Delete %d selected measurements?", len(ids))
	if !d.confirm.Confirm(prompt) {
		return nil
	}

	// Deletions are order-independent; issue them together and track
	// which ones the server confirmed. Only confirmed ids may leave the
	// cache, whatever happened to the rest of the batch.
	var deletedMu sync.Mutex
	deleted := make([]int64, 0, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := d.store.DeleteMeasurement(gctx, id); err != nil {
				return err
			}
			deletedMu.Lock()
			deleted = append(deleted, id)
			deletedMu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.measurements.Remove(deleted...)
	d.sel.ApplyDelete(deleted)
	if err == nil {
		d.sel.Reset()
	}
	d.publishGaugesLocked()
	d.mu.Unlock()

	if err != nil {
		metrics.RecordMutationError("delete_measurement")
		d.log.Error(ctx, "batch delete partially failed",
			logger.Int("requested", len(ids)),
			logger.Int("deleted", len(deleted)),
			logger.Error(err),
		)
		return &MutationError{Kind: "delete measurements", Err: err}
	}
	metrics.RecordMutation("delete_measurement")
	d.log.Info(ctx, "measurements deleted", logger.Int("count", len(deleted)))
	return nil
}

// CreateSeries validates and stores a new series definition. The new
// series becomes the selected one and joins the active set.
func (d *Dashboard) CreateSeries(ctx context.Context, name, minInput, maxInput, color string) error {
	if !d.privileged {
		return ErrReadOnly
	}
	req, err := buildSeriesRequest(name, minInput, maxInput, color, defaultCreateColor, "")
	if err != nil {
		return err
	}

	created, err := d.store.CreateSeries(ctx, req)
	if err != nil {
		metrics.RecordMutationError("create_series")
		return &MutationError{Kind: "create series", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.series = append(d.series, created)
	d.selectedSeriesID = created.ID
	if !containsID(d.active, created.ID) {
		d.active = append(d.active, created.ID)
		d.invalidateLocked()
	}
	d.publishGaugesLocked()
	metrics.RecordMutation("create_series")
	d.log.Info(ctx, "series created", logger.Int64("id", created.ID), logger.String("name", created.Name))
	return nil
}

// UpdateSeries fully replaces the selected series' definition. The icon
// passes through unchanged.
func (d *Dashboard) UpdateSeries(ctx context.Context, name, minInput, maxInput, color string) error {
	if !d.privileged {
		return ErrReadOnly
	}

	d.mu.Lock()
	current, ok := d.seriesByIDLocked(d.selectedSeriesID)
	d.mu.Unlock()
	if !ok {
		metrics.RecordValidationError()
		return validationErrorf("no series selected")
	}

	req, err := buildSeriesRequest(name, minInput, maxInput, color, defaultEditColor, current.Icon)
	if err != nil {
		return err
	}

	updated, err := d.store.UpdateSeries(ctx, current.ID, req)
	if err != nil {
		metrics.RecordMutationError("update_series")
		return &MutationError{Kind: "update series", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.series {
		if d.series[i].ID == updated.ID {
			d.series[i] = updated
			break
		}
	}
	metrics.RecordMutation("update_series")
	d.log.Info(ctx, "series updated", logger.Int64("id", updated.ID))
	return nil
}

// DeleteSeries deletes the selected series after confirmation. The
// backend cascades to its measurements; locally the series leaves the
// list, the active set, and the cache, any selection referencing its
// measurements clears, and the first remaining series (if any) becomes
// selected.
func (d *Dashboard) DeleteSeries(ctx context.Context) error {
	if !d.privileged {
		return ErrReadOnly
	}

	d.mu.Lock()
	series, ok := d.seriesByIDLocked(d.selectedSeriesID)
	d.mu.Unlock()
	if !ok {
		metrics.RecordValidationError()
		return validationErrorf("no series selected")
	}
	if !d.confirm.Confirm(fmt.Sprintf("Delete series %q?", series.Name)) {
		return nil
	}

	if err := d.store.DeleteSeries(ctx, series.ID); err != nil {
		metrics.RecordMutationError("delete_series")
		return &MutationError{Kind: "delete series", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	orphaned := make([]int64, 0, len(d.measurements.List(series.ID)))
	for _, m := range d.measurements.List(series.ID) {
		orphaned = append(orphaned, m.ID)
	}
	d.sel.ApplyDelete(orphaned)
	d.measurements.DropSeries(series.ID)

	kept := d.series[:0]
	for _, s := range d.series {
		if s.ID != series.ID {
			kept = append(kept, s)
		}
	}
	d.series = kept

	for i, id := range d.active {
		if id == series.ID {
			d.active = append(d.active[:i], d.active[i+1:]...)
			d.invalidateLocked()
			break
		}
	}

	d.selectedSeriesID = 0
	if len(d.series) > 0 {
		d.selectedSeriesID = d.series[0].ID
	}
	d.publishGaugesLocked()
	metrics.RecordMutation("delete_series")
	d.log.Info(ctx, "series deleted", logger.Int64("id", series.ID))
	return nil
}

// ChangePassword rotates the logged-in account's credential.
func (d *Dashboard) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !d.privileged {
		return ErrReadOnly
	}
	if oldPassword == "" || newPassword == "" {
		metrics.RecordValidationError()
		return validationErrorf("both passwords are required")
	}
	if err := d.store.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		metrics.RecordMutationError("change_password")
		return &MutationError{Kind: "change password", Err: err}
	}
	metrics.RecordMutation("change_password")
	d.log.Info(ctx, "password changed")
	return nil
}

// parseValue parses a numeric form input.
func parseValue(input string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		metrics.RecordValidationError()
		return 0, validationErrorf("value %q is not a number", input)
	}
	return value, nil
}

// checkRange enforces the owning series' bounds client-side.
func checkRange(value float64, series model.Series) error {
	if value < series.MinValue || value > series.MaxValue {
		metrics.RecordValidationError()
		return validationErrorf("value %g outside range %g..%g of series %q",
			value, series.MinValue, series.MaxValue, series.Name)
	}
	return nil
}

// buildSeriesRequest validates the series form and assembles the
// full-replace payload.
func buildSeriesRequest(name, minInput, maxInput, color, fallbackColor, icon string) (api.SeriesRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.RecordValidationError()
		return api.SeriesRequest{}, validationErrorf("series name must not be empty")
	}
	minValue, err := strconv.ParseFloat(strings.TrimSpace(minInput), 64)
	if err != nil {
		metrics.RecordValidationError()
		return api.SeriesRequest{}, validationErrorf("min %q is not a number", minInput)
	}
	maxValue, err := strconv.ParseFloat(strings.TrimSpace(maxInput), 64)
	if err != nil {
		metrics.RecordValidationError()
		return api.SeriesRequest{}, validationErrorf("max %q is not a number", maxInput)
	}
	if minValue > maxValue {
		metrics.RecordValidationError()
		return api.SeriesRequest{}, validationErrorf("min %g must not exceed max %g", minValue, maxValue)
	}
	if color == "" {
		color = fallbackColor
	}
	return api.SeriesRequest{
		Name:     name,
		MinValue: minValue,
		MaxValue: maxValue,
		Color:    color,
		Icon:     icon,
	}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
