package timeline

// SelectionView is the read-only slice of selection state the chart
// needs. Keeping it an interface keeps dot rendering independently
// testable from the selection machinery.
type SelectionView interface {
	IsSelected(id int64) bool
	IsPrimary(id int64) bool
}

// Hint describes how to draw one plotted dot.
type Hint struct {
	Radius int
	Filled bool
}

// Dot radii by selection state. Absent values get radius 0 so the line
// shows a gap rather than a dot at a coerced value.
const (
	radiusAbsent   = 0
	radiusPlain    = 3
	radiusSelected = 4
	radiusPrimary  = 6
)

// RenderHint derives the dot styling for the given rank of a point. It
// is a pure function of the point and the selection view.
func RenderHint(p Point, rank int, sel SelectionView) Hint {
	id, ok := p.IDs[rank]
	if !ok {
		return Hint{Radius: radiusAbsent}
	}
	switch {
	case sel.IsPrimary(id):
		return Hint{Radius: radiusPrimary, Filled: true}
	case sel.IsSelected(id):
		return Hint{Radius: radiusSelected, Filled: true}
	default:
		return Hint{Radius: radiusPlain}
	}
}
