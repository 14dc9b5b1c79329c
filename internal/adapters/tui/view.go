package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	timestampColWidth = 20
	valueColWidth     = 12
	maxVisibleRows    = 200
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.mode {
	case modeForm:
		return m.overlay(m.form.render())
	case modeConfirm:
		return m.overlay(modalStyle.Render(m.confirmPrompt + "\n\n" + statusStyle.Render("y confirm • n cancel")))
	}

	pane := m.table()
	if m.showChart {
		pane = m.chart()
	}
	header := headerStyle.Width(m.width).Render("Measureboard")
	sections := []string{
		header,
		m.filterLine(),
		m.seriesLine(),
		pane,
		m.statusLine(),
		m.helpLine(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// overlay centers a modal in the available space.
func (m Model) overlay(modal string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) filterLine() string {
	fmode, from, to := m.dash.Filter()
	if from == "" && to == "" {
		return statusStyle.Render(fmt.Sprintf("filter: %s, unbounded", filterLabel(fmode)))
	}
	if from == "" {
		from = "…"
	}
	if to == "" {
		to = "…"
	}
	return statusStyle.Render(fmt.Sprintf("filter: %s, %s → %s", filterLabel(fmode), from, to))
}

// seriesLine lists every known series; inactive ones render dimmed and
// the selected one carries a marker.
func (m Model) seriesLine() string {
	selected, hasSelected := m.dash.SelectedSeries()
	var parts []string
	for _, s := range m.dash.Series() {
		label := s.Name
		if hasSelected && s.ID == selected.ID {
			label = "▸" + label
		}
		if m.dash.IsActive(s.ID) {
			parts = append(parts, selectedStyle.Render(label))
		} else {
			parts = append(parts, inactiveStyle.Render(label))
		}
	}
	if len(parts) == 0 {
		return statusStyle.Render("no series; press n to create one")
	}
	return strings.Join(parts, "  ")
}

func (m Model) table() string {
	if len(m.rows) == 0 {
		return boxStyle.Render("no measurements in range")
	}

	byID := make(map[int64]string, len(m.active))
	for _, s := range m.dash.Series() {
		byID[s.ID] = s.Name
	}

	var b strings.Builder
	b.WriteString(pad("Timestamp", timestampColWidth))
	for _, id := range m.active {
		name := byID[id]
		if name == "" {
			name = fmt.Sprintf("series %d", id)
		}
		b.WriteString(columnHeaderStyle.Render(pad(name, valueColWidth)))
	}
	b.WriteString("\n")

	view := m.dash.SelectionView()
	limit := len(m.rows)
	if limit > maxVisibleRows {
		limit = maxVisibleRows
	}
	for rowIdx := 0; rowIdx < limit; rowIdx++ {
		row := m.rows[rowIdx]
		b.WriteString(pad(row.Timestamp, timestampColWidth))
		for colIdx, id := range m.active {
			cell := pad("·", valueColWidth)
			style := inactiveStyle
			if measurement, ok := row.Cell(id); ok {
				cell = pad(formatValue(measurement.Value), valueColWidth)
				style = lipgloss.NewStyle()
				if view.IsPrimary(measurement.ID) {
					style = primaryStyle
				} else if view.IsSelected(measurement.ID) {
					style = selectedStyle
				}
			}
			if rowIdx == m.cursorRow && colIdx == m.cursorCol {
				style = cursorStyle
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}
	if len(m.rows) > limit {
		b.WriteString(statusStyle.Render(fmt.Sprintf("… %d more rows", len(m.rows)-limit)))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) statusLine() string {
	status := m.status
	if m.busy {
		status = "working… " + status
	}
	if m.isErr {
		return errorStyle.Render(status)
	}
	return statusStyle.Render(status)
}

func (m Model) helpLine() string {
	help := "↑↓←→ move • enter select • space multi-select • tab cycle edit • e edit • a add • d delete • g chart • r refresh"
	if !m.dash.Privileged() {
		help = "↑↓←→ move • enter select • space multi-select • f filter • g chart • r refresh (read-only)"
	}
	return statusStyle.Width(m.width).Render(help + " • q quit")
}

// pad fits s into a fixed-width column, measuring and truncating in
// runes so multi-byte series names keep the columns aligned.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width-1]) + " "
	}
	return s + strings.Repeat(" ", width-len(runes))
}
