// Package cache holds the per-series measurement lists that both the
// table and chart projections derive from.
//
// The store is the single source of truth for fetched measurements. Each
// list stays sorted ascending by timestamp; measurements with equal
// stamps keep their fetch order. The store does no locking: it is owned
// by the dashboard engine, which serializes access.
package cache

import (
	"sort"

	"github.com/tiendc/go-deepcopy"

	"github.com/mkret/measureboard/internal/domain/model"
)

// Store maps series ids to their ordered measurement lists.
type Store struct {
	lists map[int64][]model.Measurement
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLists seeds the store with pre-fetched lists. They are sorted on
// the way in, like every other entry point.
func WithLists(lists map[int64][]model.Measurement) Option {
	return func(s *Store) {
		s.ReplaceAll(lists)
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		lists: make(map[int64][]model.Measurement),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceAll swaps the whole cache for the given lists. Used when a
// fetch batch for a new filter or active set resolves; never applied
// list-by-list, so the timeline is never half-updated.
func (s *Store) ReplaceAll(lists map[int64][]model.Measurement) {
	next := make(map[int64][]model.Measurement, len(lists))
	for seriesID, list := range lists {
		sorted := make([]model.Measurement, len(list))
		copy(sorted, list)
		sortByStamp(sorted)
		next[seriesID] = sorted
	}
	s.lists = next
}

// Insert adds m to its owning series' list and restores order. Other
// series' lists are untouched.
func (s *Store) Insert(m model.Measurement) {
	list := append(s.lists[m.SeriesID], m)
	sortByStamp(list)
	s.lists[m.SeriesID] = list
}

// Replace swaps the entry matching m's id within its owning series, or
// appends when no match exists, then restores order.
func (s *Store) Replace(m model.Measurement) {
	list := s.lists[m.SeriesID]
	replaced := false
	for i := range list {
		if list[i].ID == m.ID {
			list[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, m)
	}
	sortByStamp(list)
	s.lists[m.SeriesID] = list
}

// Remove drops the measurements with the given ids from every list.
func (s *Store) Remove(ids ...int64) {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	for seriesID, list := range s.lists {
		kept := list[:0]
		for _, m := range list {
			if _, gone := drop[m.ID]; !gone {
				kept = append(kept, m)
			}
		}
		s.lists[seriesID] = kept
	}
}

// DropSeries removes a series' entire list, cascading a series delete
// into the local cache.
func (s *Store) DropSeries(seriesID int64) {
	delete(s.lists, seriesID)
}

// List returns the ordered list for one series. The returned slice is
// the store's own; callers must not mutate it.
func (s *Store) List(seriesID int64) []model.Measurement {
	return s.lists[seriesID]
}

// Lists exposes the full mapping for the merge step. Read-only by
// convention, same as List.
func (s *Store) Lists() map[int64][]model.Measurement {
	return s.lists
}

// Snapshot returns a deep copy safe to hand across the engine boundary.
func (s *Store) Snapshot() map[int64][]model.Measurement {
	var out map[int64][]model.Measurement
	if err := deepcopy.Copy(&out, s.lists); err != nil {
		// The source is a plain map of value structs; a copy failure
		// would mean a programming error, not a runtime condition.
		panic(err)
	}
	return out
}

// Len returns the total measurement count across all series.
func (s *Store) Len() int {
	total := 0
	for _, list := range s.lists {
		total += len(list)
	}
	return total
}

// sortByStamp orders by instant, keeping fetch order among equal stamps.
func sortByStamp(list []model.Measurement) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Before(list[j])
	})
}
