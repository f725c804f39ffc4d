// Package smartinput is a multi-line text input that recognizes
// natural-language date expressions as the user types and draws them
// with a highlighted background. Text and highlight come out of a
// single render pass over the same string, so the highlight can never
// drift from the characters it annotates.
package smartinput

import (
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/dateparse"
	"smarttasker/internal/highlight"
	"smarttasker/internal/theme"
)

// maxInputLen is the maximum number of runes accepted.
const maxInputLen = 2000

// Model is the smart input state. The cursor is always at the end of
// the text; editing is append/delete, like a chat composer.
type Model struct {
	Placeholder string

	parser *dateparse.Parser
	now    func() time.Time

	value   string
	spans   []dateparse.Span
	focused bool
	width   int
	height  int
	scroll  int
}

// New creates a smart input backed by the given date parser.
func New(parser *dateparse.Parser) Model {
	return Model{
		parser: parser,
		now:    time.Now,
		width:  40,
		height: 4,
	}
}

// Focus gives the input keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the input has keyboard focus.
func (m Model) Focused() bool { return m.focused }

// Value returns the current text.
func (m Model) Value() string { return m.value }

// SetValue replaces the text and re-detects date expressions.
func (m *Model) SetValue(s string) {
	m.value = s
	m.reparse()
	m.followCursor()
}

// Reset clears the input.
func (m *Model) Reset() {
	m.value = ""
	m.spans = nil
	m.scroll = 0
}

// SetSize updates the visible dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.followCursor()
}

// Spans returns the currently detected date expressions.
func (m Model) Spans() []dateparse.Span { return m.spans }

// MostRelevant returns the date expression that should drive due-date
// auto-fill, or nil when none is detected.
func (m Model) MostRelevant() *dateparse.Span {
	return dateparse.MostRelevant(m.spans)
}

// Update processes a keystroke. Non-key messages and unprintable keys
// leave the input unchanged.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "backspace":
		if len(m.value) > 0 {
			runes := []rune(m.value)
			m.value = string(runes[:len(runes)-1])
		}
	case "enter":
		if utf8.RuneCountInString(m.value) < maxInputLen {
			m.value += "\n"
		}
	default:
		s := key.String()
		if utf8.RuneCountInString(s) == 1 &&
			utf8.RuneCountInString(m.value) < maxInputLen {
			m.value += s
		} else {
			return m, nil
		}
	}

	m.reparse()
	m.followCursor()
	return m, nil
}

// reparse re-runs date detection over the full value. Partial
// expressions simply stop matching until they parse again.
func (m *Model) reparse() {
	if m.value == "" {
		m.spans = nil
		return
	}
	m.spans = m.parser.Parse(m.value, m.now())
}

// followCursor scrolls so the line holding the cursor stays visible.
func (m *Model) followCursor() {
	if m.height <= 0 {
		return
	}
	cursorLine := strings.Count(m.value, "\n")
	if cursorLine < m.scroll {
		m.scroll = cursorLine
	}
	if cursorLine >= m.scroll+m.height {
		m.scroll = cursorLine - m.height + 1
	}
}

// View renders the visible window of the input. Highlighted date spans
// and plain text are produced by the same projection over the same
// scroll offset.
func (m Model) View() string {
	if m.value == "" && !m.focused {
		return theme.HelpStyle.Render(m.Placeholder)
	}

	rendered := highlight.Render(m.value, m.spans,
		theme.DateHighlightStyle, theme.InputBaseStyle)
	if m.focused {
		rendered += theme.InputBaseStyle.Render("█")
	}

	lines := strings.Split(rendered, "\n")
	top := m.scroll
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	if top < 0 {
		top = 0
	}
	bottom := top + m.height
	if bottom > len(lines) {
		bottom = len(lines)
	}
	visible := lines[top:bottom]

	// Pad so the surface keeps a stable height while typing.
	for len(visible) < m.height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}
