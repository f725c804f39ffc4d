// Package confirm is a modal yes/no prompt used before destructive
// actions.
package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg carries the user's answer along with the subject the
// caller attached when opening the prompt.
type ResultMsg struct {
	Subject   string
	Confirmed bool
}

// Model is the Bubble Tea model for the confirm prompt.
type Model struct {
	form    *huh.Form
	answer  *bool
	subject string
	width   int
	height  int
}

// New creates a confirm prompt model.
func New(width, height int) Model {
	return Model{
		answer: new(bool),
		width:  width,
		height: height,
	}
}

// Start opens the prompt. Subject is handed back in the ResultMsg so
// the caller knows what was confirmed.
func (m *Model) Start(title, subject string) tea.Cmd {
	m.subject = subject
	*m.answer = false
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Delete").
			Negative("Keep").
			Value(m.answer),
	))
	return m.form.Init()
}

// Update drives the prompt to completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		subject, confirmed := m.subject, *m.answer
		return m, func() tea.Msg {
			return ResultMsg{Subject: subject, Confirmed: confirmed}
		}
	}
	if m.form.State == huh.StateAborted {
		subject := m.subject
		return m, func() tea.Msg {
			return ResultMsg{Subject: subject, Confirmed: false}
		}
	}
	return m, cmd
}

// View renders the prompt centered in the content area.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(m.form.View())
}

// SetSize updates the prompt dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
