package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mkret/measureboard/internal/app"
	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/selection"
	"github.com/mkret/measureboard/internal/domain/timefilter"
)

var (
	testWeight = model.Series{ID: 1, Name: "weight", MinValue: 0, MaxValue: 200, Color: "#aaa"}
	testPulse  = model.Series{ID: 2, Name: "pulse", MinValue: 30, MaxValue: 220, Color: "#bbb"}
)

func TestLoadSeries(t *testing.T) {
	Convey("Given a store with two series", t, func() {
		store := newFakeStore(testWeight, testPulse)
		d := app.New(store)
		ctx := context.Background()

		Convey("The first load selects the first series and activates all", func() {
			So(d.LoadSeries(ctx), ShouldBeNil)
			So(d.Series(), ShouldHaveLength, 2)
			selected, ok := d.SelectedSeries()
			So(ok, ShouldBeTrue)
			So(selected.ID, ShouldEqual, testWeight.ID)
			So(d.ActiveIDs(), ShouldResemble, []int64{1, 2})
		})

		Convey("A reload keeps the existing selection and active set", func() {
			So(d.LoadSeries(ctx), ShouldBeNil)
			d.SelectSeries(testPulse.ID)
			d.ToggleActive(testWeight.ID)

			So(d.LoadSeries(ctx), ShouldBeNil)
			selected, _ := d.SelectedSeries()
			So(selected.ID, ShouldEqual, testPulse.ID)
			So(d.ActiveIDs(), ShouldResemble, []int64{2})
		})

		Convey("A list failure surfaces as a fetch error", func() {
			store.listErr = errors.New("boom")
			err := d.LoadSeries(ctx)
			var fe *app.FetchError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(d.Series(), ShouldBeEmpty)
		})
	})
}

func TestRefresh(t *testing.T) {
	Convey("Given a loaded dashboard with cached measurements", t, func() {
		store := newFakeStore(testWeight, testPulse)
		store.seed(model.Measurement{ID: 10, SeriesID: 1, Value: 80, Timestamp: "2024-01-10T08:00:00"})
		store.seed(model.Measurement{ID: 11, SeriesID: 1, Value: 81, Timestamp: "2024-01-11T08:00:00"})
		store.seed(model.Measurement{ID: 20, SeriesID: 2, Value: 60, Timestamp: "2024-01-10T08:00:00"})
		d := app.New(store)
		ctx := context.Background()
		So(d.LoadSeries(ctx), ShouldBeNil)

		Convey("Refresh merges the active series into rows", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			rows := d.Rows()
			So(rows, ShouldHaveLength, 2)
			So(rows[0].Timestamp, ShouldEqual, "2024-01-10T08:00:00")
			cell, ok := rows[0].Cell(2)
			So(ok, ShouldBeTrue)
			So(cell.ID, ShouldEqual, 20)
			_, ok = rows[1].Cell(2)
			So(ok, ShouldBeFalse)
		})

		Convey("Refresh resets any selection", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			d.ClickCell(d.Rows()[0], 1)
			So(d.SelectionState(), ShouldEqual, selection.Selected)

			So(d.Refresh(ctx), ShouldBeNil)
			So(d.SelectionState(), ShouldEqual, selection.Idle)
			So(d.SelectedIDs(), ShouldBeEmpty)
		})

		Convey("A date filter constrains what the batch requests", func() {
			d.SetFilterRange("2024-01-11", "2024-01-11")
			So(d.Refresh(ctx), ShouldBeNil)
			rows := d.Rows()
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Timestamp, ShouldEqual, "2024-01-11T08:00:00")
		})

		Convey("A failed batch keeps the cache at its last-known value", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			So(d.Rows(), ShouldHaveLength, 2)

			store.listErr = errors.New("unreachable")
			err := d.Refresh(ctx)
			var fe *app.FetchError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(d.Rows(), ShouldHaveLength, 2)
		})

		Convey("A batch superseded while in flight is discarded", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			So(d.Rows(), ShouldHaveLength, 2)

			// Narrow the filter from inside the fetch, after the batch was
			// issued. The returned results carry the old generation and
			// must not land.
			var supersede sync.Once
			store.onListMeasurements = func(int64) {
				supersede.Do(func() {
					d.SetFilterRange("2030-01-01", "2030-01-02")
				})
			}
			So(d.Refresh(ctx), ShouldBeNil)
			So(d.Rows(), ShouldHaveLength, 2)
		})

		Convey("Toggling a series off drops its column after refresh", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			d.ToggleActive(2)
			So(d.Refresh(ctx), ShouldBeNil)

			ranks := d.Ranks()
			So(ranks, ShouldResemble, map[int64]int{1: 1})
			for _, row := range d.Rows() {
				_, ok := row.Cell(2)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("With no active series the refresh empties the cache", func() {
			So(d.Refresh(ctx), ShouldBeNil)
			d.ToggleActive(1)
			d.ToggleActive(2)
			So(d.Refresh(ctx), ShouldBeNil)
			So(d.Rows(), ShouldBeEmpty)
		})
	})
}

func TestFilterState(t *testing.T) {
	Convey("Given a dashboard", t, func() {
		d := app.New(newFakeStore(testWeight))

		Convey("The mode defaults to whole days", func() {
			mode, from, to := d.Filter()
			So(mode, ShouldEqual, timefilter.ModeDate)
			So(from, ShouldBeEmpty)
			So(to, ShouldBeEmpty)
		})

		Convey("Switching the mode keeps the raw field values", func() {
			d.SetFilterRange("2024-01-10", "2024-01-12")
			d.SetFilterMode(timefilter.ModeDateTime)
			_, from, to := d.Filter()
			So(from, ShouldEqual, "2024-01-10")
			So(to, ShouldEqual, "2024-01-12")
		})

		Convey("ClearFilter drops both bounds", func() {
			d.SetFilterRange("2024-01-10", "2024-01-12")
			d.ClearFilter()
			_, from, to := d.Filter()
			So(from, ShouldBeEmpty)
			So(to, ShouldBeEmpty)
		})
	})
}

func TestCellInteraction(t *testing.T) {
	Convey("Given a privileged dashboard with merged rows", t, func() {
		store := newFakeStore(testWeight, testPulse)
		store.seed(model.Measurement{ID: 5, SeriesID: 1, Value: 80, Timestamp: "2024-01-10T08:00:00"})
		store.seed(model.Measurement{ID: 7, SeriesID: 2, Value: 60, Timestamp: "2024-01-10T08:00:00"})
		d := app.New(store, app.WithPrivileged(true))
		ctx := context.Background()
		So(d.LoadSeries(ctx), ShouldBeNil)
		So(d.Refresh(ctx), ShouldBeNil)
		row := d.Rows()[0]

		Convey("A plain click selects and opens the editor", func() {
			d.ClickCell(row, 1)
			So(d.SelectionState(), ShouldEqual, selection.Editing)
			So(d.SelectedIDs(), ShouldResemble, []int64{5})
			editing, ok := d.EditingMeasurement()
			So(ok, ShouldBeTrue)
			So(editing.ID, ShouldEqual, 5)

			Convey("And a second plain click replaces the selection", func() {
				d.ClickCell(row, 2)
				So(d.SelectedIDs(), ShouldResemble, []int64{7})
				selected, _ := d.SelectedSeries()
				So(selected.ID, ShouldEqual, int64(2))
			})
		})

		Convey("A modified click accumulates without removing", func() {
			d.ClickCell(row, 1)
			d.AccumulateClickCell(row, 2)
			So(d.SelectedIDs(), ShouldResemble, []int64{5, 7})

			d.AccumulateClickCell(row, 2)
			So(d.SelectedIDs(), ShouldResemble, []int64{5, 7})
			primary, _ := d.Primary()
			So(primary, ShouldEqual, int64(7))
		})

		Convey("Clicking an empty cell changes nothing", func() {
			d.ClickCell(row, 1)
			empty := row
			delete(empty.Cells, 2)
			d.ClickCell(empty, 2)
			So(d.SelectedIDs(), ShouldResemble, []int64{5})
		})

		Convey("Cycling the editor wraps through the row in column order", func() {
			d.ClickCell(row, 1)
			d.CycleEdit(row)
			editing, _ := d.EditingMeasurement()
			So(editing.ID, ShouldEqual, 7)

			d.CycleEdit(row)
			editing, _ = d.EditingMeasurement()
			So(editing.ID, ShouldEqual, 5)
		})

		Convey("Cancelling the editor keeps the highlight", func() {
			d.ClickCell(row, 1)
			d.CancelEdit()
			So(d.SelectionState(), ShouldEqual, selection.Selected)
			So(d.SelectedIDs(), ShouldResemble, []int64{5})
			_, ok := d.EditingMeasurement()
			So(ok, ShouldBeFalse)
		})

		Convey("The selection view reports membership and primacy", func() {
			d.ClickCell(row, 1)
			d.AccumulateClickCell(row, 2)
			view := d.SelectionView()
			So(view.IsSelected(5), ShouldBeTrue)
			So(view.IsSelected(7), ShouldBeTrue)
			So(view.IsPrimary(7), ShouldBeTrue)
			So(view.IsPrimary(5), ShouldBeFalse)
		})
	})

	Convey("Given an unprivileged dashboard", t, func() {
		store := newFakeStore(testWeight)
		store.seed(model.Measurement{ID: 5, SeriesID: 1, Value: 80, Timestamp: "2024-01-10T08:00:00"})
		d := app.New(store)
		ctx := context.Background()
		So(d.LoadSeries(ctx), ShouldBeNil)
		So(d.Refresh(ctx), ShouldBeNil)

		Convey("A click highlights but never opens the editor", func() {
			d.ClickCell(d.Rows()[0], 1)
			So(d.SelectionState(), ShouldEqual, selection.Selected)
			_, ok := d.EditingMeasurement()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestMeasurementsFor(t *testing.T) {
	Convey("Given cached measurements", t, func() {
		store := newFakeStore(testWeight)
		store.seed(model.Measurement{ID: 5, SeriesID: 1, Value: 80, Timestamp: "2024-01-10T08:00:00"})
		d := app.New(store)
		ctx := context.Background()
		So(d.LoadSeries(ctx), ShouldBeNil)
		So(d.Refresh(ctx), ShouldBeNil)

		Convey("The returned list is a copy", func() {
			list := d.MeasurementsFor(1)
			So(list, ShouldHaveLength, 1)
			list[0].Value = -1
			So(d.MeasurementsFor(1)[0].Value, ShouldEqual, 80)
		})
	})
}

func TestClock(t *testing.T) {
	Convey("A pinned clock flows into use-now timestamps", t, func() {
		store := newFakeStore(testWeight)
		pinned := time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)
		d := app.New(store,
			app.WithPrivileged(true),
			app.WithClock(func() time.Time { return pinned }),
		)
		ctx := context.Background()
		So(d.LoadSeries(ctx), ShouldBeNil)

		So(d.CreateMeasurement(ctx, "80", "", true), ShouldBeNil)
		So(store.measurements[1][0].Timestamp, ShouldEqual, "2024-01-10T08:30:00")
	})
}
