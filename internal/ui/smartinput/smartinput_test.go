package smartinput

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/dateparse"
)

func typeString(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		var key tea.KeyMsg
		if r == '\n' {
			key = tea.KeyMsg{Type: tea.KeyEnter}
		} else {
			key = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		m, _ = m.Update(key)
	}
	return m
}

func newTestInput() Model {
	m := New(dateparse.New())
	m.now = func() time.Time {
		return time.Date(2025, 3, 12, 10, 0, 0, 0, time.Local)
	}
	m.Focus()
	return m
}

func TestTypingDetectsDates(t *testing.T) {
	m := typeString(t, newTestInput(), "call mom tomorrow at 5pm")

	if m.Value() != "call mom tomorrow at 5pm" {
		t.Fatalf("value = %q", m.Value())
	}

	span := m.MostRelevant()
	if span == nil {
		t.Fatal("expected a detected date span")
	}
	if !strings.Contains(m.Value()[span.Start:span.End], "tomorrow") {
		t.Errorf("span %q does not cover the date expression", span.Text)
	}
	if span.Date.Day() != 13 || span.Date.Hour() != 17 {
		t.Errorf("resolved date = %v, want tomorrow 17:00", span.Date)
	}
}

func TestBackspaceInvalidatesPartialExpression(t *testing.T) {
	m := typeString(t, newTestInput(), "pay rent friday")
	if m.MostRelevant() == nil {
		t.Fatal("expected a span for the full expression")
	}

	// Deleting into the middle of "friday" leaves no parseable date.
	for i := 0; i < 3; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	if m.Value() != "pay rent fri" {
		t.Fatalf("value = %q", m.Value())
	}
	if got := m.MostRelevant(); got != nil && got.Text == "friday" {
		t.Errorf("stale span survived edit: %+v", got)
	}
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := newTestInput()
	m.Blur()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.Value() != "" {
		t.Errorf("blurred input accepted a key: %q", m.Value())
	}
}

func TestViewKeepsStableHeight(t *testing.T) {
	m := newTestInput()
	m.SetSize(40, 3)

	m = typeString(t, m, "one")
	if got := strings.Count(m.View(), "\n"); got != 2 {
		t.Errorf("view has %d newlines, want 2", got)
	}
}

func TestScrollFollowsCursor(t *testing.T) {
	m := newTestInput()
	m.SetSize(40, 2)

	m = typeString(t, m, "line one\nline two\nline three")
	view := m.View()
	if strings.Contains(view, "line one") {
		t.Error("view should have scrolled past the first line")
	}
	if !strings.Contains(view, "line three") {
		t.Error("cursor line should be visible")
	}
}

func TestSetValueReparses(t *testing.T) {
	m := newTestInput()
	m.SetValue("dentist next monday")
	if m.MostRelevant() == nil {
		t.Fatal("SetValue should run date detection")
	}

	m.Reset()
	if m.Value() != "" || m.MostRelevant() != nil {
		t.Error("Reset should clear value and spans")
	}
}
