package app

import (
	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/selection"
	"github.com/mkret/measureboard/internal/domain/timeline"
	"github.com/mkret/measureboard/pkg/metrics"
)

// ClickCell handles a plain click on the given row/series cell. Empty
// cells are a no-op. The clicked measurement's series becomes the
// selected series, the selection is replaced, and a privileged session
// moves straight into editing.
func (d *Dashboard) ClickCell(row timeline.Row, seriesID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := row.Cell(seriesID)
	if !ok {
		return
	}
	d.selectedSeriesID = m.SeriesID
	d.sel.Click(m)
	metrics.UpdateSelectionSize(len(d.sel.IDs()))
}

// AccumulateClickCell handles a modified click: the measurement joins
// the selection (never removed by this action) and becomes primary.
func (d *Dashboard) AccumulateClickCell(row timeline.Row, seriesID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := row.Cell(seriesID)
	if !ok {
		return
	}
	d.selectedSeriesID = m.SeriesID
	d.sel.AccumulateClick(m)
	metrics.UpdateSelectionSize(len(d.sel.IDs()))
}

// CycleEdit advances the edit target through the row's measurements in
// active-series order, wrapping.
func (d *Dashboard) CycleEdit(row timeline.Row) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel.CycleEdit(row, d.active)
	if m, ok := d.sel.Editing(); ok {
		d.selectedSeriesID = m.SeriesID
	}
	metrics.UpdateSelectionSize(len(d.sel.IDs()))
}

// CancelEdit closes the edit form, keeping the highlight.
func (d *Dashboard) CancelEdit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel.CancelEdit()
}

// SelectionState reports the selection machine's current mode.
func (d *Dashboard) SelectionState() selection.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.State()
}

// SelectedIDs returns the selected measurement ids, ascending.
func (d *Dashboard) SelectedIDs() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.IDs()
}

// Primary returns the primary selection, if any.
func (d *Dashboard) Primary() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.Primary()
}

// EditingMeasurement returns the measurement loaded in the edit form.
func (d *Dashboard) EditingMeasurement() (model.Measurement, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.Editing()
}

// selectionSnapshot is an immutable view of the selection for renderers.
type selectionSnapshot struct {
	ids        map[int64]struct{}
	primary    int64
	hasPrimary bool
}

func (s selectionSnapshot) IsSelected(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s selectionSnapshot) IsPrimary(id int64) bool {
	return s.hasPrimary && s.primary == id
}

// SelectionView snapshots the selection as a timeline.SelectionView for
// chart dot rendering.
func (d *Dashboard) SelectionView() timeline.SelectionView {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := selectionSnapshot{ids: make(map[int64]struct{})}
	for _, id := range d.sel.IDs() {
		snap.ids[id] = struct{}{}
	}
	snap.primary, snap.hasPrimary = d.sel.Primary()
	return snap
}
