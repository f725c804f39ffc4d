// Package taskform is the create/edit form for tasks. The description
// field is a smart input: date expressions highlight as they are typed
// and the most recent one auto-fills the due date.
package taskform

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"smarttasker/internal/dateparse"
	"smarttasker/internal/model"
	"smarttasker/internal/theme"
	"smarttasker/internal/ui/smartinput"
)

// SubmittedMsg is dispatched when the form completes. EditID is empty
// for a newly created task.
type SubmittedMsg struct {
	Task   model.Task
	EditID string
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// phase tracks which half of the form is active: free-text entry first,
// then the option picker.
type phase int

const (
	phaseInputs phase = iota
	phaseOptions
)

// optionBindings holds option values on the heap so huh's Value()
// pointers stay valid across Bubble Tea model copies.
type optionBindings struct {
	priority   string
	reminder   string
	removeDate bool
}

// Model is the Bubble Tea model for the task form.
type Model struct {
	title       textinput.Model
	description smartinput.Model
	options     *huh.Form
	ob          *optionBindings

	phase      phase
	editID     string
	editDue    *time.Time
	editHas    bool
	titleFocus bool
	width      int
	height     int
}

// New creates a task form. The date parser is shared with the rest of
// the app.
func New(parser *dateparse.Parser, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.Prompt = "> "
	ti.CharLimit = 200

	si := smartinput.New(parser)
	si.Placeholder = "Details... try \"tomorrow at 5pm\""

	return Model{
		title:       ti,
		description: si,
		ob:          &optionBindings{},
		width:       width,
		height:      height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editID = ""
	m.editDue = nil
	m.editHas = false
	m.title.Reset()
	m.description.Reset()
	m.ob.priority = model.PriorityMedium
	m.ob.reminder = string(model.ReminderNone)
	m.ob.removeDate = false
	return m.focusInputs()
}

// StartEdit initializes the form with an existing task's fields.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editID = t.ID
	m.editDue = t.DueDate
	m.editHas = t.HasTime
	m.title.SetValue(t.Title)
	m.description.SetValue(t.Description)
	m.ob.priority = t.Priority
	m.ob.reminder = string(t.Reminder)
	m.ob.removeDate = false
	return m.focusInputs()
}

func (m *Model) focusInputs() tea.Cmd {
	m.phase = phaseInputs
	m.titleFocus = true
	m.description.Blur()
	return m.title.Focus()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.phase == phaseOptions {
		return m.updateOptions(msg)
	}
	return m.updateInputs(msg)
}

// updateInputs routes keystrokes between the title and description
// fields and advances to the option picker on ctrl+s.
func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }

		case "tab", "shift+tab":
			m.titleFocus = !m.titleFocus
			if m.titleFocus {
				m.description.Blur()
				return m, m.title.Focus()
			}
			m.title.Blur()
			m.description.Focus()
			return m, nil

		case "ctrl+s":
			if strings.TrimSpace(m.title.Value()) == "" {
				return m, nil
			}
			m.phase = phaseOptions
			m.options = m.buildOptionsForm()
			return m, m.options.Init()

		case "enter":
			// Enter on the title jumps to the description; in the
			// description it is a newline, handled by the smart input.
			if m.titleFocus {
				m.titleFocus = false
				m.title.Blur()
				m.description.Focus()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.titleFocus {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

// updateOptions drives the huh option form to completion.
func (m Model) updateOptions(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.options.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.options = f
	}

	if m.options.State == huh.StateCompleted {
		return m, m.submit()
	}
	if m.options.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// buildOptionsForm assembles the priority/reminder picker. The
// remove-date confirm only appears when a date expression was detected.
func (m *Model) buildOptionsForm() *huh.Form {
	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Priority").
			Options(
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("Low", model.PriorityLow),
			).
			Value(&m.ob.priority),
	}

	if m.dueDate() != nil {
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Reminder").
				Options(
					huh.NewOption("None", string(model.ReminderNone)),
					huh.NewOption("At due time", string(model.ReminderOnTime)),
					huh.NewOption("10 minutes before", string(model.ReminderTenMin)),
					huh.NewOption("1 hour before", string(model.ReminderOneHour)),
				).
				Value(&m.ob.reminder),
		)
	}

	if m.description.MostRelevant() != nil {
		fields = append(fields,
			huh.NewConfirm().
				Title("Remove the date text from the description?").
				Value(&m.ob.removeDate),
		)
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

// dueDate returns the task's effective due date: the detected
// expression wins over a pre-existing date from edit mode.
func (m *Model) dueDate() *time.Time {
	if span := m.description.MostRelevant(); span != nil {
		d := span.Date
		return &d
	}
	return m.editDue
}

// hasTime reports whether the due date carries a meaningful clock time.
// A detected expression that resolves to midnight is treated as
// date-only ("friday"); anything else carried a time ("friday 5pm").
func (m *Model) hasTime() bool {
	if span := m.description.MostRelevant(); span != nil {
		return span.Date.Hour() != 0 || span.Date.Minute() != 0
	}
	return m.editHas
}

func (m Model) submit() tea.Cmd {
	desc := m.description.Value()
	if m.ob.removeDate {
		if span := m.description.MostRelevant(); span != nil {
			desc = dateparse.Remove(desc, *span)
		}
	}

	t := model.Task{
		Title:       strings.TrimSpace(m.title.Value()),
		Description: desc,
		Priority:    m.ob.priority,
		Reminder:    model.ReminderOption(m.ob.reminder),
		DueDate:     m.dueDate(),
		HasTime:     m.hasTime(),
	}
	if t.DueDate == nil {
		t.Reminder = model.ReminderNone
	}

	editID := m.editID
	return func() tea.Msg { return SubmittedMsg{Task: t, EditID: editID} }
}

// View renders the task form.
func (m Model) View() string {
	titleText := "New Task"
	if m.editID != "" {
		titleText = "Edit Task"
	}
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(titleText)

	if m.phase == phaseOptions {
		return lipgloss.NewStyle().Padding(1, 2).
			Render(heading + "\n" + m.options.View())
	}

	titleFrame := theme.InputBorderStyle
	descFrame := theme.InputBorderStyle
	if m.titleFocus {
		titleFrame = theme.InputFocusedBorderStyle
	} else {
		descFrame = theme.InputFocusedBorderStyle
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		heading,
		titleFrame.Width(m.formWidth()).Render(m.title.View()),
		descFrame.Width(m.formWidth()).Render(m.description.View()),
		m.dueHint(),
		theme.HelpStyle.Render("tab switch field | ctrl+s continue | esc cancel"),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// dueHint shows the due date the form will submit, and where it came
// from when a date expression was detected.
func (m Model) dueHint() string {
	span := m.description.MostRelevant()
	due := m.dueDate()
	if due == nil {
		return theme.HelpStyle.Render("no due date")
	}

	format := "Mon Jan 02"
	if m.hasTime() {
		format = "Mon Jan 02 15:04"
	}
	text := "due " + due.Local().Format(format)
	if span != nil {
		text += fmt.Sprintf(" (from %q)", span.Text)
	}
	return theme.DueDateStyle.Render(text)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.title.Width = m.formWidth() - 4
	m.description.SetSize(m.formWidth()-4, 4)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}
