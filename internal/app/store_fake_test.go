package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/mkret/measureboard/internal/adapters/api"
	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(io.Discard); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fakeStore is an in-memory Store with hooks for failure injection and
// call observation.
type fakeStore struct {
	mu sync.Mutex

	series       []model.Series
	measurements map[int64][]model.Measurement
	nextID       int64

	calls map[string]int

	listErr       error
	createMeasErr error
	updateMeasErr error
	failDeleteIDs map[int64]bool

	// onListMeasurements runs inside every list call, before returning.
	// Tests use it to interleave state changes with an in-flight fetch.
	onListMeasurements func(seriesID int64)
}

func newFakeStore(series ...model.Series) *fakeStore {
	f := &fakeStore{
		series:        series,
		measurements:  make(map[int64][]model.Measurement),
		nextID:        1000,
		calls:         make(map[string]int),
		failDeleteIDs: make(map[int64]bool),
	}
	return f
}

func (f *fakeStore) seed(m model.Measurement) {
	f.measurements[m.SeriesID] = append(f.measurements[m.SeriesID], m)
}

func (f *fakeStore) countCalls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeStore) ListSeries(_ context.Context, _, _ int) ([]model.Series, error) {
	f.record("list_series")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Series(nil), f.series...), nil
}

func (f *fakeStore) CreateSeries(_ context.Context, req api.SeriesRequest) (model.Series, error) {
	f.record("create_series")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := model.Series{
		ID: f.nextID, Name: req.Name,
		MinValue: req.MinValue, MaxValue: req.MaxValue,
		Color: req.Color, Icon: req.Icon,
	}
	f.series = append(f.series, s)
	return s, nil
}

func (f *fakeStore) UpdateSeries(_ context.Context, id int64, req api.SeriesRequest) (model.Series, error) {
	f.record("update_series")
	f.mu.Lock()
	defer f.mu.Unlock()
	updated := model.Series{
		ID: id, Name: req.Name,
		MinValue: req.MinValue, MaxValue: req.MaxValue,
		Color: req.Color, Icon: req.Icon,
	}
	for i := range f.series {
		if f.series[i].ID == id {
			f.series[i] = updated
		}
	}
	return updated, nil
}

func (f *fakeStore) DeleteSeries(_ context.Context, id int64) error {
	f.record("delete_series")
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.series[:0]
	for _, s := range f.series {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.series = kept
	delete(f.measurements, id)
	return nil
}

func (f *fakeStore) ListMeasurements(_ context.Context, query api.MeasurementQuery) ([]model.Measurement, error) {
	f.record("list_measurements")
	if f.onListMeasurements != nil {
		f.onListMeasurements(query.SeriesID)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Measurement
	for _, m := range f.measurements[query.SeriesID] {
		if query.From != "" && m.Timestamp < query.From {
			continue
		}
		if query.To != "" && m.Timestamp > query.To {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) CreateMeasurement(_ context.Context, seriesID int64, value float64, timestamp string) (model.Measurement, error) {
	f.record("create_measurement")
	if f.createMeasErr != nil {
		return model.Measurement{}, f.createMeasErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := model.Measurement{ID: f.nextID, SeriesID: seriesID, Value: value, Timestamp: timestamp}
	f.measurements[seriesID] = append(f.measurements[seriesID], m)
	return m, nil
}

func (f *fakeStore) UpdateMeasurement(_ context.Context, id, seriesID int64, value float64, timestamp string) (model.Measurement, error) {
	f.record("update_measurement")
	if f.updateMeasErr != nil {
		return model.Measurement{}, f.updateMeasErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	updated := model.Measurement{ID: id, SeriesID: seriesID, Value: value, Timestamp: timestamp}
	list := f.measurements[seriesID]
	for i := range list {
		if list[i].ID == id {
			list[i] = updated
		}
	}
	return updated, nil
}

func (f *fakeStore) DeleteMeasurement(_ context.Context, id int64) error {
	f.record("delete_measurement")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteIDs[id] {
		return errors.New("delete rejected")
	}
	for seriesID, list := range f.measurements {
		kept := list[:0]
		for _, m := range list {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		f.measurements[seriesID] = kept
	}
	return nil
}

func (f *fakeStore) ChangePassword(_ context.Context, _, _ string) error {
	f.record("change_password")
	return nil
}

// acceptAll approves every confirmation prompt.
func acceptAll(string) bool { return true }

// denyAll rejects every confirmation prompt.
func denyAll(string) bool { return false }
