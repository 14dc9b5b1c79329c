package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestPad(t *testing.T) {
	Convey("Given the column padder", t, func() {
		Convey("Short values are padded to the column width", func() {
			So(pad("ab", 5), ShouldEqual, "ab   ")
		})

		Convey("Long values are truncated with a trailing space", func() {
			So(pad("abcdef", 5), ShouldEqual, "abcd ")
		})

		Convey("Multi-byte names measure in runes, not bytes", func() {
			So(pad("höhe", 6), ShouldEqual, "höhe  ")
			So(pad("température", 6), ShouldEqual, "tempé ")
		})

		Convey("Glyph cells keep their width", func() {
			So(pad("·", 4), ShouldEqual, "·   ")
		})
	})
}

func TestForm(t *testing.T) {
	Convey("Given a two-field form", t, func() {
		f := newForm("test", field{label: "Value"}, field{label: "Time"})

		Convey("Typing edits the focused field", func() {
			f, _, _ = f.update(key("8"))
			f, _, _ = f.update(key("2"))
			So(f.value(0), ShouldEqual, "82")
			So(f.value(1), ShouldBeEmpty)
		})

		Convey("Backspace removes the last rune", func() {
			f, _, _ = f.update(key("8"))
			f, _, _ = f.update(key("2"))
			f, _, _ = f.update(key("backspace"))
			So(f.value(0), ShouldEqual, "8")
		})

		Convey("Backspace on an empty field is harmless", func() {
			f, _, _ = f.update(key("backspace"))
			So(f.value(0), ShouldBeEmpty)
		})

		Convey("Enter advances and finally submits", func() {
			f, submitted, _ := f.update(key("enter"))
			So(submitted, ShouldBeFalse)
			So(f.focus, ShouldEqual, 1)

			_, submitted, _ = f.update(key("enter"))
			So(submitted, ShouldBeTrue)
		})

		Convey("Tab wraps around the fields", func() {
			f, _, _ = f.update(key("tab"))
			So(f.focus, ShouldEqual, 1)
			f, _, _ = f.update(key("tab"))
			So(f.focus, ShouldEqual, 0)
		})

		Convey("Escape cancels", func() {
			_, submitted, cancelled := f.update(key("esc"))
			So(submitted, ShouldBeFalse)
			So(cancelled, ShouldBeTrue)
		})
	})
}
