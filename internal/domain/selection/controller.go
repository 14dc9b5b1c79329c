// Package selection tracks which measurements are selected and which one
// is open for in-place editing, consistently across the table and chart.
//
// The controller is a small state machine: Idle (nothing selected),
// Selected (one or more ids, at most one primary), Editing (a privileged
// viewer has the primary measurement loaded in the edit form). A plain
// click replaces the selection; a modified click accumulates and never
// removes. An unprivileged viewer can select but never edit.
package selection

import (
	"sort"

	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/timeline"
)

// State names the controller's current mode.
type State int

const (
	// Idle means nothing is selected.
	Idle State = iota
	// Selected means one or more measurements are highlighted.
	Selected
	// Editing means the primary measurement is open in the edit form.
	Editing
)

// Controller owns the selection state. It holds no references into the
// per-series cache beyond the measurement snapshot loaded for editing.
type Controller struct {
	privileged bool

	ids        map[int64]struct{}
	primary    int64
	hasPrimary bool
	editing    *model.Measurement
}

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithPrivileged marks the viewer as allowed to edit. Without it the
// controller can reach Selected but never Editing.
func WithPrivileged(privileged bool) Option {
	return func(c *Controller) {
		c.privileged = privileged
	}
}

// New constructs an Idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		ids: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current mode.
func (c *Controller) State() State {
	switch {
	case c.editing != nil:
		return Editing
	case len(c.ids) > 0:
		return Selected
	default:
		return Idle
	}
}

// IsSelected reports whether id is in the selection set.
func (c *Controller) IsSelected(id int64) bool {
	_, ok := c.ids[id]
	return ok
}

// IsPrimary reports whether id is the primary selection.
func (c *Controller) IsPrimary(id int64) bool {
	return c.hasPrimary && c.primary == id
}

// IDs returns the selected ids in ascending order.
func (c *Controller) IDs() []int64 {
	out := make([]int64, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Primary returns the primary selection, if any.
func (c *Controller) Primary() (int64, bool) {
	return c.primary, c.hasPrimary
}

// Editing returns the measurement loaded in the edit form, if any.
func (c *Controller) Editing() (model.Measurement, bool) {
	if c.editing == nil {
		return model.Measurement{}, false
	}
	return *c.editing, true
}

// Click handles a plain click on a cell holding m: the selection becomes
// exactly {m}, m is primary, and a privileged viewer moves straight into
// Editing with m loaded.
func (c *Controller) Click(m model.Measurement) {
	c.ids = map[int64]struct{}{m.ID: {}}
	c.setPrimary(m.ID)
	c.loadEdit(m)
}

// AccumulateClick handles a modified click: m joins the selection if
// absent (this action never removes) and becomes primary.
func (c *Controller) AccumulateClick(m model.Measurement) {
	c.ids[m.ID] = struct{}{}
	c.setPrimary(m.ID)
	c.loadEdit(m)
}

// CycleEdit advances the edit target through a row's measurements in
// active-series order, wrapping. If the current edit target is not in
// this row, the first measurement of the row becomes the target. Rows
// with no measurements are a no-op.
func (c *Controller) CycleEdit(row timeline.Row, active []int64) {
	list := row.Measurements(active)
	if len(list) == 0 {
		return
	}

	target := list[0]
	if c.editing != nil {
		for i, m := range list {
			if m.ID == c.editing.ID {
				target = list[(i+1)%len(list)]
				break
			}
		}
	}

	c.ids = map[int64]struct{}{target.ID: {}}
	c.setPrimary(target.ID)
	c.loadEdit(target)
}

// CancelEdit closes the edit form and clears the primary, keeping the
// selection set as a read-only highlight.
func (c *Controller) CancelEdit() {
	c.editing = nil
	c.hasPrimary = false
	c.primary = 0
}

// Reset drops all selection state. Called whenever the per-series cache
// is replaced wholesale by a refetch.
func (c *Controller) Reset() {
	c.ids = make(map[int64]struct{})
	c.primary = 0
	c.hasPrimary = false
	c.editing = nil
}

// ApplyDelete removes the deleted ids from the selection. If the primary
// or edited measurement was among them the controller returns to Idle.
func (c *Controller) ApplyDelete(ids []int64) {
	for _, id := range ids {
		delete(c.ids, id)
		if c.hasPrimary && c.primary == id {
			c.Reset()
			return
		}
		if c.editing != nil && c.editing.ID == id {
			c.Reset()
			return
		}
	}
}

// ApplyUpdate makes the updated measurement the sole selection and
// primary, with edit mode closed.
func (c *Controller) ApplyUpdate(m model.Measurement) {
	c.ids = map[int64]struct{}{m.ID: {}}
	c.setPrimary(m.ID)
	c.editing = nil
}

func (c *Controller) setPrimary(id int64) {
	c.primary = id
	c.hasPrimary = true
}

func (c *Controller) loadEdit(m model.Measurement) {
	if !c.privileged {
		return
	}
	snapshot := m
	c.editing = &snapshot
}
