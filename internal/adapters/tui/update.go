package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkret/measureboard/internal/domain/timefilter"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case doneMsg:
		m.busy = false
		if msg.err != nil {
			return m.project().withError(msg.err, msg.note), nil
		}
		return m.project().withStatus(msg.note), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursorRow > 0 {
			m.cursorRow--
		}
	case "down", "j":
		if m.cursorRow < len(m.rows)-1 {
			m.cursorRow++
		}
	case "left", "h":
		if m.cursorCol > 0 {
			m.cursorCol--
		}
	case "right", "l":
		if m.cursorCol < len(m.active)-1 {
			m.cursorCol++
		}

	case "enter":
		if row, seriesID, ok := m.cursorCell(); ok {
			m.dash.ClickCell(row, seriesID)
			m = m.project().withStatus("selected")
		}
	case " ":
		if row, seriesID, ok := m.cursorCell(); ok {
			m.dash.AccumulateClickCell(row, seriesID)
			m = m.project().withStatus(fmt.Sprintf("%d selected", len(m.dash.SelectedIDs())))
		}
	case "tab":
		if row, _, ok := m.cursorCell(); ok {
			m.dash.CycleEdit(row)
			m = m.project()
		}
	case "esc":
		m.dash.CancelEdit()
		m = m.withStatus("edit cancelled")

	case "r":
		m.busy = true
		return m, m.refreshCmd()

	case "t":
		if m.cursorCol < len(m.active) {
			m.dash.ToggleActive(m.active[m.cursorCol])
			m.busy = true
			return m.project(), m.refreshCmd()
		}
	case "s":
		m = m.cycleSelectedSeries()
	case "g":
		m.showChart = !m.showChart

	case "f":
		return m.openFilterForm(), nil
	case "F":
		fmode, _, _ := m.dash.Filter()
		if fmode == timefilter.ModeDate {
			m.dash.SetFilterMode(timefilter.ModeDateTime)
		} else {
			m.dash.SetFilterMode(timefilter.ModeDate)
		}
		m.busy = true
		return m, m.refreshCmd()
	case "c":
		m.dash.ClearFilter()
		m.busy = true
		return m, m.refreshCmd()

	case "a":
		return m.openMeasurementCreateForm(), nil
	case "e":
		return m.openMeasurementEditForm(), nil
	case "d":
		return m.confirmDeleteMeasurement()
	case "n":
		return m.openSeriesForm(formSeriesCreate), nil
	case "E":
		return m.openSeriesForm(formSeriesEdit), nil
	case "D":
		return m.confirmDeleteSeries()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		action := m.confirmAction
		m.mode = modeTable
		m.confirmAction = nil
		m.busy = true
		return m, action
	case "n", "N", "esc":
		m.mode = modeTable
		m.confirmAction = nil
		return m.withStatus("cancelled"), nil
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, submitted, cancelled := m.form.update(msg)
	m.form = next
	if cancelled {
		m.mode = modeTable
		return m.withStatus("cancelled"), nil
	}
	if !submitted {
		return m, nil
	}
	m.mode = modeTable
	m.busy = true
	return m, m.submitForm()
}

func (m Model) submitForm() tea.Cmd {
	dash := m.dash
	switch m.formKind {
	case formMeasurementCreate:
		value, stamp := m.form.value(0), m.form.value(1)
		return engineCmd("measurement created", func(ctx context.Context) error {
			return dash.CreateMeasurement(ctx, value, stamp, stamp == "")
		})
	case formMeasurementEdit:
		value, stamp := m.form.value(0), m.form.value(1)
		return engineCmd("measurement updated", func(ctx context.Context) error {
			return dash.UpdateMeasurement(ctx, value, stamp)
		})
	case formSeriesCreate:
		name, minV, maxV, color := m.form.value(0), m.form.value(1), m.form.value(2), m.form.value(3)
		return engineCmd("series created", func(ctx context.Context) error {
			if err := dash.CreateSeries(ctx, name, minV, maxV, color); err != nil {
				return err
			}
			return dash.Refresh(ctx)
		})
	case formSeriesEdit:
		name, minV, maxV, color := m.form.value(0), m.form.value(1), m.form.value(2), m.form.value(3)
		return engineCmd("series updated", func(ctx context.Context) error {
			return dash.UpdateSeries(ctx, name, minV, maxV, color)
		})
	case formFilter:
		from, to := m.form.value(0), m.form.value(1)
		return engineCmd("filter applied", func(ctx context.Context) error {
			dash.SetFilterRange(from, to)
			return dash.Refresh(ctx)
		})
	}
	return nil
}

func (m Model) openFilterForm() Model {
	fmode, from, to := m.dash.Filter()
	m.formKind = formFilter
	m.form = newForm(
		fmt.Sprintf("Filter (%s, e.g. %s)", filterLabel(fmode), timestampHint(fmode)),
		field{label: "From", value: from},
		field{label: "To", value: to},
	)
	m.mode = modeForm
	return m
}

func (m Model) openMeasurementCreateForm() Model {
	series, ok := m.dash.SelectedSeries()
	if !ok {
		return m.withStatus("no series selected")
	}
	m.formKind = formMeasurementCreate
	m.form = newForm(
		fmt.Sprintf("New measurement for %s (%g..%g)", series.Name, series.MinValue, series.MaxValue),
		field{label: "Value"},
		field{label: "Time (blank = now)"},
	)
	m.mode = modeForm
	return m
}

func (m Model) openMeasurementEditForm() Model {
	editing, ok := m.dash.EditingMeasurement()
	if !ok {
		return m.withStatus("nothing open for editing; enter selects a cell first")
	}
	m.formKind = formMeasurementEdit
	m.form = newForm(
		fmt.Sprintf("Edit measurement %d", editing.ID),
		field{label: "Value", value: formatValue(editing.Value)},
		field{label: "Time", value: editing.Timestamp},
	)
	m.mode = modeForm
	return m
}

func (m Model) openSeriesForm(kind formKind) Model {
	m.formKind = kind
	if kind == formSeriesEdit {
		series, ok := m.dash.SelectedSeries()
		if !ok {
			return m.withStatus("no series selected")
		}
		m.form = newForm(
			fmt.Sprintf("Edit series %s", series.Name),
			field{label: "Name", value: series.Name},
			field{label: "Min", value: formatValue(series.MinValue)},
			field{label: "Max", value: formatValue(series.MaxValue)},
			field{label: "Color", value: series.Color},
		)
	} else {
		m.form = newForm(
			"New series",
			field{label: "Name"},
			field{label: "Min"},
			field{label: "Max"},
			field{label: "Color (blank = default)"},
		)
	}
	m.mode = modeForm
	return m
}

func (m Model) confirmDeleteMeasurement() (tea.Model, tea.Cmd) {
	row, seriesID, ok := m.cursorCell()
	if !ok {
		return m.withStatus("nothing to delete"), nil
	}
	target, ok := row.Cell(seriesID)
	if !ok {
		return m.withStatus("empty cell"), nil
	}
	dash := m.dash
	prompt := "Delete this measurement?"
	if ids := dash.SelectedIDs(); len(ids) > 1 && dash.SelectionView().IsSelected(target.ID) {
		prompt = fmt.Sprintf("Delete %d selected measurements?", len(ids))
	}
	m.confirmPrompt = prompt
	m.confirmAction = engineCmd("deleted", func(ctx context.Context) error {
		return dash.DeleteMeasurement(ctx, target)
	})
	m.mode = modeConfirm
	return m, nil
}

func (m Model) confirmDeleteSeries() (tea.Model, tea.Cmd) {
	series, ok := m.dash.SelectedSeries()
	if !ok {
		return m.withStatus("no series selected"), nil
	}
	dash := m.dash
	m.confirmPrompt = fmt.Sprintf("Delete series %q and all its measurements?", series.Name)
	m.confirmAction = engineCmd("series deleted", func(ctx context.Context) error {
		return dash.DeleteSeries(ctx)
	})
	m.mode = modeConfirm
	return m, nil
}

func (m Model) cycleSelectedSeries() Model {
	series := m.dash.Series()
	if len(series) == 0 {
		return m
	}
	current, ok := m.dash.SelectedSeries()
	next := series[0]
	if ok {
		for i, s := range series {
			if s.ID == current.ID {
				next = series[(i+1)%len(series)]
				break
			}
		}
	}
	m.dash.SelectSeries(next.ID)
	return m.withStatus(fmt.Sprintf("series: %s", next.Name))
}
