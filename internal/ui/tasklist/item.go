package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/model"
	"smarttasker/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// TaskDelegate implements list.ItemDelegate for rendering task rows.
type TaskDelegate struct{}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single task row.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task

	prefix := "○"
	if task.Completed {
		prefix = "✓"
	}

	priBadge := theme.PriorityStyle(task.Priority).Render(priorityLabel(task.Priority))

	dueStr := ""
	if task.DueDate != nil {
		dueStr = theme.DueDateStyle.Render(" " + formatDue(*task.DueDate, task.HasTime))
		if !task.Completed && task.DueDate.Before(time.Now()) {
			dueStr += theme.OverdueStyle.Render(" OVERDUE")
		}
	}

	bell := ""
	if task.ReminderEligible() {
		bell = theme.ReminderStyle.Render(" ⏰")
	}

	line := fmt.Sprintf("%s %s %s%s%s", prefix, priBadge, task.Title, dueStr, bell)
	if task.Completed {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// formatDue renders a due date, with the clock time only when the user
// actually picked one.
func formatDue(due time.Time, hasTime bool) string {
	local := due.Local()
	if hasTime {
		return local.Format("Jan 02 15:04")
	}
	return local.Format("Jan 02")
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p string) string {
	switch p {
	case model.PriorityHigh:
		return "P1"
	case model.PriorityMedium:
		return "P2"
	case model.PriorityLow:
		return "P3"
	default:
		return "P?"
	}
}
