package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// field is one line of a form: a label and an editable value.
type field struct {
	label string
	value string
}

// form is a minimal multi-field line editor. Enter on the last field
// submits, esc cancels; the caller reads the values back by index.
type form struct {
	title  string
	fields []field
	focus  int
}

func newForm(title string, fields ...field) form {
	return form{title: title, fields: fields}
}

// update consumes a key. It reports submitted when the last field was
// confirmed and cancelled when the form was dismissed.
func (f form) update(msg tea.KeyMsg) (form, bool, bool) {
	switch msg.String() {
	case "esc":
		return f, false, true
	case "enter":
		if f.focus == len(f.fields)-1 {
			return f, true, false
		}
		f.focus++
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	case "backspace":
		value := f.fields[f.focus].value
		if value != "" {
			runes := []rune(value)
			f.fields[f.focus].value = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			f.fields[f.focus].value += string(msg.Runes)
		}
	}
	return f, false, false
}

func (f form) value(index int) string {
	return strings.TrimSpace(f.fields[index].value)
}

func (f form) render() string {
	var b strings.Builder
	b.WriteString(columnHeaderStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, fld := range f.fields {
		line := fld.label + ": " + fld.value
		if i == f.focus {
			line = focusedFieldStyle.Render(line + "▌")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("enter next/submit • tab switch • esc cancel"))
	return modalStyle.Render(b.String())
}
