// Package tui is the terminal front end for the dashboard engine: a
// merged measurement table with keyboard-driven selection, forms for
// the mutations, and a confirm modal guarding destructive actions.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkret/measureboard/internal/app"
	"github.com/mkret/measureboard/internal/domain/timefilter"
	"github.com/mkret/measureboard/internal/domain/timeline"
)

type mode int

const (
	modeTable mode = iota
	modeForm
	modeConfirm
)

type formKind int

const (
	formMeasurementCreate formKind = iota
	formMeasurementEdit
	formSeriesCreate
	formSeriesEdit
	formFilter
)

// Model drives the interactive dashboard. All state the view needs is
// projected out of the engine after every completed operation so View
// never has to touch it directly.
type Model struct {
	dash *app.Dashboard

	rows   []timeline.Row
	active []int64

	mode     mode
	form     form
	formKind formKind

	confirmPrompt string
	confirmAction tea.Cmd

	cursorRow int
	cursorCol int
	showChart bool

	status string
	isErr  bool
	busy   bool

	width  int
	height int
}

// New builds the model around an engine. The engine should be wired
// with an accept-all confirmer: the modal here is the real gate.
func New(dash *app.Dashboard) Model {
	return Model{dash: dash, status: "loading"}
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

// doneMsg reports a completed engine operation back to the update loop.
type doneMsg struct {
	err  error
	note string
}

func (m Model) loadCmd() tea.Cmd {
	dash := m.dash
	return func() tea.Msg {
		ctx := context.Background()
		if err := dash.LoadSeries(ctx); err != nil {
			return doneMsg{err: err, note: "series load failed"}
		}
		if err := dash.Refresh(ctx); err != nil {
			return doneMsg{err: err, note: "refresh failed"}
		}
		return doneMsg{note: "loaded"}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	dash := m.dash
	return func() tea.Msg {
		if err := dash.Refresh(context.Background()); err != nil {
			return doneMsg{err: err, note: "refresh failed"}
		}
		return doneMsg{note: "refreshed"}
	}
}

// engineCmd runs an engine mutation and refreshes the projection.
func engineCmd(note string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(context.Background()); err != nil {
			return doneMsg{err: err, note: note + " failed"}
		}
		return doneMsg{note: note}
	}
}

// project re-reads the render state out of the engine and clamps the
// cursor to the new table shape.
func (m Model) project() Model {
	m.rows = m.dash.Rows()
	m.active = m.dash.ActiveIDs()
	if m.cursorRow >= len(m.rows) {
		m.cursorRow = len(m.rows) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
	if m.cursorCol >= len(m.active) {
		m.cursorCol = len(m.active) - 1
	}
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	return m
}

func (m Model) cursorCell() (timeline.Row, int64, bool) {
	if m.cursorRow >= len(m.rows) || m.cursorCol >= len(m.active) {
		return timeline.Row{}, 0, false
	}
	return m.rows[m.cursorRow], m.active[m.cursorCol], true
}

func (m Model) withStatus(note string) Model {
	m.status = note
	m.isErr = false
	return m
}

func (m Model) withError(err error, note string) Model {
	m.status = app.Message(err, note)
	m.isErr = true
	return m
}

func filterLabel(mode timefilter.Mode) string {
	if mode == timefilter.ModeDateTime {
		return "datetime"
	}
	return "date"
}

func timestampHint(mode timefilter.Mode) string {
	if mode == timefilter.ModeDateTime {
		return time.Now().Format("2006-01-02T15:04")
	}
	return time.Now().Format("2006-01-02")
}

func formatValue(value float64) string {
	return fmt.Sprintf("%g", value)
}
