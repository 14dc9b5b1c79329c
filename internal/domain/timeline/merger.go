// Package timeline merges per-series measurement lists into the single
// ordered row set that the table and chart projections share.
//
// The join is by exact wire-timestamp equality, never by approximate
// time. Merging is pure: identical inputs always produce identical
// output, and cost is linear in the total measurement count plus one
// sort of the distinct timestamps.
package timeline

import (
	"sort"
	"time"

	"github.com/mkret/measureboard/internal/domain/model"
)

// Row is one merged table row: every active series either has a
// measurement at exactly this timestamp or is absent from Cells.
// Absence is a missing map key, never a zero value.
type Row struct {
	Timestamp string
	At        time.Time
	Cells     map[int64]model.Measurement
}

// Cell returns the measurement the given series contributes to this row.
func (r Row) Cell(seriesID int64) (model.Measurement, bool) {
	m, ok := r.Cells[seriesID]
	return m, ok
}

// Measurements returns the row's measurements in active-series order.
// Used to advance the edit target through a multi-valued row.
func (r Row) Measurements(active []int64) []model.Measurement {
	out := make([]model.Measurement, 0, len(r.Cells))
	for _, id := range active {
		if m, ok := r.Cells[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Point is one merged chart row. Values and IDs are keyed by series rank
// (1-based position in the active set); a series with no measurement at
// this timestamp contributes no key, so charted lines break instead of
// dipping to a fabricated zero.
type Point struct {
	Timestamp string
	At        time.Time
	Values    map[int]float64
	IDs       map[int]int64
}

// Ranks maps each active series id to its 1-based display rank.
func Ranks(active []int64) map[int64]int {
	ranks := make(map[int64]int, len(active))
	for i, id := range active {
		ranks[id] = i + 1
	}
	return ranks
}

// Rows merges the per-series cache into table rows over the union of
// distinct timestamps across the active series, ascending by instant.
// Per-series lists are expected sorted ascending by timestamp (the fetch
// layer guarantees this); when one series holds several measurements at
// the same timestamp, the later one in fetch order wins the cell.
func Rows(active []int64, cache map[int64][]model.Measurement) []Row {
	byStamp := make(map[string]Row)
	for _, seriesID := range active {
		for _, m := range cache[seriesID] {
			row, ok := byStamp[m.Timestamp]
			if !ok {
				row = Row{
					Timestamp: m.Timestamp,
					At:        m.At(),
					Cells:     make(map[int64]model.Measurement, len(active)),
				}
			}
			row.Cells[seriesID] = m
			byStamp[m.Timestamp] = row
		}
	}

	rows := make([]Row, 0, len(byStamp))
	for _, row := range byStamp {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].At.Equal(rows[j].At) {
			// Distinct wire stamps can parse to the same instant;
			// order those by the raw string to stay deterministic.
			return rows[i].Timestamp < rows[j].Timestamp
		}
		return rows[i].At.Before(rows[j].At)
	})
	return rows
}

// Points derives the chart projection from the same join as Rows.
func Points(active []int64, cache map[int64][]model.Measurement) []Point {
	ranks := Ranks(active)
	rows := Rows(active, cache)

	points := make([]Point, len(rows))
	for i, row := range rows {
		p := Point{
			Timestamp: row.Timestamp,
			At:        row.At,
			Values:    make(map[int]float64, len(row.Cells)),
			IDs:       make(map[int]int64, len(row.Cells)),
		}
		for seriesID, m := range row.Cells {
			rank := ranks[seriesID]
			p.Values[rank] = m.Value
			p.IDs[rank] = m.ID
		}
		points[i] = p
	}
	return points
}
