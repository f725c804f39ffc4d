// Package app is the root Bubble Tea model: view routing, global keys,
// and the bridge between the UI and the reminder/mutation machinery.
package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/dateparse"
	"smarttasker/internal/keys"
	"smarttasker/internal/reminder"
	"smarttasker/internal/store"
	"smarttasker/internal/task"
	"smarttasker/internal/ui"
	"smarttasker/internal/ui/confirm"
	helpview "smarttasker/internal/ui/help"
	"smarttasker/internal/ui/taskform"
	"smarttasker/internal/ui/tasklist"
)

// seedMsg triggers the initial task list fill after the program mounts.
type seedMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewForm
	ViewConfirm
	ViewHelp
)

// Model is the root Bubble Tea model.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	coordinator *task.Coordinator
	clock       *reminder.Clock

	taskList    tasklist.Model
	form        taskform.Model
	confirmView confirm.Model
	helpView    helpview.Model

	ready         bool
	statusMessage string
}

// New creates the root application model.
func New(coordinator *task.Coordinator, clock *reminder.Clock, parser *dateparse.Parser) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		keys:        k,
		coordinator: coordinator,
		clock:       clock,
		taskList:    tasklist.New(k, 80, 24),
		form:        taskform.New(parser, 80, 24),
		confirmView: confirm.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init starts the coordinator's change feed and the reminder clock, and
// seeds the task list from the already-loaded coordinator snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.coordinator.Start(),
		m.clock.Start(),
		func() tea.Msg { return seedMsg{} },
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.form.SetSize(w, h)
		m.confirmView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m.updateActiveView(msg)

	case seedMsg:
		return m, m.taskList.SetTasks(m.coordinator.Tasks())

	case task.ChangedMsg:
		return m, tea.Batch(
			m.taskList.SetTasks(m.coordinator.Tasks()),
			m.coordinator.WaitForNext(),
		)

	case task.MutationFailedMsg:
		m.statusMessage = fmt.Sprintf("%s failed: %v", msg.Op, msg.Err)
		return m, tea.Batch(
			m.taskList.SetTasks(m.coordinator.Tasks()),
			m.coordinator.WaitForNext(),
		)

	case reminder.OutcomeMsg:
		m.statusMessage = outcomeStatus(msg)
		return m, tea.Batch(
			m.taskList.SetTasks(m.coordinator.Tasks()),
			m.clock.WaitForNextOutcome(),
		)

	case taskform.SubmittedMsg:
		m.currentView = ViewList
		m.statusMessage = ""
		m.applySubmission(msg)
		return m, m.taskList.SetTasks(m.coordinator.Tasks())

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case confirm.ResultMsg:
		m.currentView = ViewList
		if msg.Confirmed {
			m.coordinator.Delete(context.Background(), msg.Subject)
		}
		return m, m.taskList.SetTasks(m.coordinator.Tasks())

	case tea.KeyMsg:
		if newModel, cmd, handled := m.handleGlobalKey(msg); handled {
			return newModel, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that act regardless of the focused
// sub-view, without stealing keystrokes from text inputs.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.shutdown(), true
	}

	// Everything below is list-screen chrome; forms own their keys.
	if m.currentView == ViewHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, true
	}
	if m.currentView != ViewList || m.taskList.InSearchMode() {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		return m, m.shutdown(), true

	case "?":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "n":
		m.previousView = m.currentView
		m.currentView = ViewForm
		return m, m.form.StartCreate(), true

	case "e":
		if t, ok := m.taskList.SelectedTask(); ok {
			m.previousView = m.currentView
			m.currentView = ViewForm
			return m, m.form.StartEdit(t), true
		}
		return m, nil, true

	case "x", "enter":
		if t, ok := m.taskList.SelectedTask(); ok {
			completed := !t.Completed
			m.coordinator.Apply(context.Background(), t.ID,
				store.TaskUpdate{Completed: &completed})
			return m, m.taskList.SetTasks(m.coordinator.Tasks()), true
		}
		return m, nil, true

	case "d":
		if t, ok := m.taskList.SelectedTask(); ok {
			m.previousView = m.currentView
			m.currentView = ViewConfirm
			return m, m.confirmView.Start(
				fmt.Sprintf("Delete %q?", t.Title), t.ID), true
		}
		return m, nil, true

	case "H":
		return m, m.taskList.ToggleShowCompleted(), true
	}

	return m, nil, false
}

// applySubmission turns a completed form into a coordinator mutation.
func (m *Model) applySubmission(msg taskform.SubmittedMsg) {
	ctx := context.Background()
	t := msg.Task

	if msg.EditID == "" {
		m.coordinator.Create(ctx, t)
		return
	}

	update := store.TaskUpdate{
		Title:       &t.Title,
		Description: &t.Description,
		HasTime:     &t.HasTime,
		Priority:    &t.Priority,
		Reminder:    &t.Reminder,
	}
	if t.DueDate != nil {
		update.DueDate = t.DueDate
	} else {
		update.ClearDueDate = true
	}
	m.coordinator.Apply(ctx, msg.EditID, update)
}

// shutdown stops the background machinery and quits.
func (m Model) shutdown() tea.Cmd {
	m.clock.Stop()
	m.coordinator.Stop()
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("SmartTasker", m.reminderStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusText())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewForm:
		return m.form.View()
	case ViewConfirm:
		return m.confirmView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.taskList.View()
	}
}

// reminderStatus summarizes armed reminders for the header.
func (m Model) reminderStatus() string {
	armed := 0
	for _, t := range m.coordinator.Tasks() {
		if t.ReminderEligible() {
			armed++
		}
	}
	switch armed {
	case 0:
		return "no reminders"
	case 1:
		return "1 reminder armed"
	default:
		return fmt.Sprintf("%d reminders armed", armed)
	}
}

// statusText picks the status bar content: a transient message wins
// over the per-view key hints.
func (m Model) statusText() string {
	if m.statusMessage != "" && m.currentView == ViewList {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewForm:
		return "tab switch field | ctrl+s continue | esc cancel"
	case ViewConfirm:
		return "←/→ choose | enter confirm"
	case ViewHelp:
		return "? close help"
	default:
		if summary := m.taskList.FilterSummary(); summary != "" {
			return summary + " | esc clear"
		}
		return "q quit | ? help | n new | e edit | x done | d delete | / search"
	}
}

// outcomeStatus renders a reminder outcome for the status bar.
func outcomeStatus(msg reminder.OutcomeMsg) string {
	switch msg.Kind {
	case reminder.OutcomeNotified:
		return fmt.Sprintf("reminder sent: %s", msg.Title)
	case reminder.OutcomeMissed:
		return fmt.Sprintf("reminder window missed: %s", msg.Title)
	case reminder.OutcomeSubscriptionExpired:
		return "push subscription expired; re-subscribe in settings"
	default:
		return fmt.Sprintf("reminder delivery failed: %s", msg.Title)
	}
}
