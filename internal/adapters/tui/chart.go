package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkret/measureboard/internal/domain/timeline"
)

const laneWidth = 16

// chart renders the point projection as one lane per active series:
// time runs down, each dot sits at its value scaled into the series
// range. Selected and primary dots grow, gaps stay empty.
func (m Model) chart() string {
	points := m.dash.Points()
	if len(points) == 0 {
		return boxStyle.Render("no measurements in range")
	}

	ranks := m.dash.Ranks()
	view := m.dash.SelectionView()

	byRank := make([]int64, len(ranks))
	for id, rank := range ranks {
		byRank[rank-1] = id
	}

	var b strings.Builder
	b.WriteString(pad("Timestamp", timestampColWidth))
	for _, id := range byRank {
		name := fmt.Sprintf("series %d", id)
		if s, ok := m.dash.SeriesByID(id); ok {
			name = s.Name
		}
		b.WriteString(columnHeaderStyle.Render(pad(name, laneWidth)))
	}
	b.WriteString("\n")

	limit := len(points)
	if limit > maxVisibleRows {
		limit = maxVisibleRows
	}
	for _, p := range points[:limit] {
		b.WriteString(pad(p.Timestamp, timestampColWidth))
		for rankIdx, id := range byRank {
			rank := rankIdx + 1
			hint := timeline.RenderHint(p, rank, view)
			b.WriteString(m.lane(p, rank, id, hint, view))
		}
		b.WriteString("\n")
	}
	if len(points) > limit {
		b.WriteString(statusStyle.Render(fmt.Sprintf("… %d more points", len(points)-limit)))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// lane places one dot inside a fixed-width column, positioned by the
// value's place within the series range.
func (m Model) lane(p timeline.Point, rank int, seriesID int64, hint timeline.Hint, view timeline.SelectionView) string {
	if hint.Radius == 0 {
		return strings.Repeat(" ", laneWidth)
	}
	value := p.Values[rank]

	offset := 0
	if s, ok := m.dash.SeriesByID(seriesID); ok && s.MaxValue > s.MinValue {
		span := s.MaxValue - s.MinValue
		offset = int((value - s.MinValue) / span * float64(laneWidth-2))
		if offset < 0 {
			offset = 0
		}
		if offset > laneWidth-2 {
			offset = laneWidth - 2
		}
	}

	dot := dotGlyph(hint)
	style := lipgloss.NewStyle()
	id := p.IDs[rank]
	if view.IsPrimary(id) {
		style = primaryStyle
	} else if view.IsSelected(id) {
		style = selectedStyle
	}
	return strings.Repeat(" ", offset) + style.Render(dot) + strings.Repeat(" ", laneWidth-offset-1)
}

func dotGlyph(hint timeline.Hint) string {
	switch {
	case hint.Radius >= 6:
		return "◉"
	case hint.Radius >= 4:
		return "●"
	default:
		return "·"
	}
}
