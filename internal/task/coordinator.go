// Package task holds the in-memory task set and coordinates mutations
// between the UI, the store, and the calendar mirror.
package task

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"smarttasker/internal/model"
	"smarttasker/internal/store"
)

// Mirror is the calendar side of a task mutation. A nil Mirror disables
// mirroring entirely.
type Mirror interface {
	AddEvent(ctx context.Context, task model.Task) (string, error)
	UpdateEvent(ctx context.Context, eventID string, task model.Task) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// ChangedMsg announces that the in-memory task set changed and views
// should re-read Tasks.
type ChangedMsg struct{}

// MutationFailedMsg reports a persistence failure. The optimistic local
// change has already been reverted when this message arrives.
type MutationFailedMsg struct {
	Op     string
	TaskID string
	Err    error
}

// Coordinator applies mutations optimistically to an in-memory map,
// persists them in the background, and reverts the local copy when the
// store rejects a write. It is the single owner of the live task set:
// the task list view and the reminder clock both read from it.
type Coordinator struct {
	store  store.Store
	mirror Mirror
	logger *slog.Logger

	mu    sync.RWMutex
	tasks map[string]model.Task

	resultCh chan tea.Msg
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a coordinator. Call Load before serving reads, then
// Start to follow the store's change feed.
func New(st store.Store, mirror Mirror, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:    st,
		mirror:   mirror,
		logger:   logger,
		tasks:    make(map[string]model.Task),
		resultCh: make(chan tea.Msg, 16),
		stopCh:   make(chan struct{}),
	}
}

// Load replaces the in-memory set with the store's current contents.
func (c *Coordinator) Load(ctx context.Context) error {
	tasks, err := c.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		c.tasks[t.ID] = t
	}
	return nil
}

// Start launches the change-feed follower and returns a command that
// subscribes the UI to coordinator messages.
func (c *Coordinator) Start() tea.Cmd {
	go c.followChanges()
	return c.WaitForNext()
}

// Stop halts the change-feed follower.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// followChanges reloads from the store after every mutation nudge. The
// reload also repairs any optimistic divergence.
func (c *Coordinator) followChanges() {
	watch := c.store.Watch()
	for {
		select {
		case <-c.stopCh:
			return
		case _, ok := <-watch:
			if !ok {
				return
			}
			if err := c.Load(context.Background()); err != nil {
				c.logger.Error("reloading tasks failed", "error", err)
				continue
			}
			c.send(ChangedMsg{})
		}
	}
}

// Tasks returns a snapshot of all tasks, due-dated ones first in due
// order, the rest newest-first.
func (c *Coordinator) Tasks() []model.Task {
	c.mu.RLock()
	out := make([]model.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
			return a.CreatedAt.After(b.CreatedAt)
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out
}

// Get returns a copy of one task.
func (c *Coordinator) Get(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	return t, ok
}

// Create inserts the task locally and persists it in the background.
// Returns the assigned ID immediately.
func (c *Coordinator) Create(ctx context.Context, t model.Task) string {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Reminder == "" {
		t.Reminder = model.ReminderNone
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	c.mu.Lock()
	c.tasks[t.ID] = t
	c.mu.Unlock()

	go func() {
		if err := c.store.CreateTask(ctx, t); err != nil {
			c.logger.Error("creating task failed", "task", t.ID, "error", err)
			c.mu.Lock()
			delete(c.tasks, t.ID)
			c.mu.Unlock()
			c.send(MutationFailedMsg{Op: "create", TaskID: t.ID, Err: err})
			return
		}
		c.mirrorCreate(ctx, t)
	}()

	return t.ID
}

// Apply updates the task locally and persists the field changes in the
// background, restoring the previous copy if the write fails.
func (c *Coordinator) Apply(ctx context.Context, id string, fields store.TaskUpdate) {
	c.mu.Lock()
	prev, ok := c.tasks[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	next := applyUpdate(prev, fields)
	c.tasks[id] = next
	c.mu.Unlock()

	go func() {
		if err := c.store.UpdateTaskFields(ctx, id, fields); err != nil {
			c.logger.Error("updating task failed", "task", id, "error", err)
			c.mu.Lock()
			c.tasks[id] = prev
			c.mu.Unlock()
			c.send(MutationFailedMsg{Op: "update", TaskID: id, Err: err})
			return
		}
		c.mirrorUpdate(ctx, prev, next)
	}()
}

// Delete removes the task locally and persists the removal in the
// background, restoring it if the delete fails.
func (c *Coordinator) Delete(ctx context.Context, id string) {
	c.mu.Lock()
	prev, ok := c.tasks[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.tasks, id)
	c.mu.Unlock()

	go func() {
		if err := c.store.DeleteTask(ctx, id); err != nil {
			c.logger.Error("deleting task failed", "task", id, "error", err)
			c.mu.Lock()
			c.tasks[id] = prev
			c.mu.Unlock()
			c.send(MutationFailedMsg{Op: "delete", TaskID: id, Err: err})
			return
		}
		if c.mirror != nil && prev.CalendarEventID != "" {
			if err := c.mirror.DeleteEvent(ctx, prev.CalendarEventID); err != nil {
				c.logger.Warn("removing calendar event failed",
					"task", id, "event", prev.CalendarEventID, "error", err)
			}
		}
	}()
}

// MarkNotificationSent persists the notified flag synchronously. The
// reminder clock calls this; the flag must hit disk before the session
// ends or a restart would re-send.
func (c *Coordinator) MarkNotificationSent(ctx context.Context, id string) error {
	sent := true
	if err := c.store.UpdateTaskFields(ctx, id, store.TaskUpdate{NotificationSent: &sent}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tasks[id]; ok {
		t.NotificationSent = true
		c.tasks[id] = t
	}
	return nil
}

// mirrorCreate pushes a freshly created task to the calendar and stores
// the resulting event ID. Mirror failures are logged, never surfaced.
func (c *Coordinator) mirrorCreate(ctx context.Context, t model.Task) {
	if c.mirror == nil || t.DueDate == nil {
		return
	}

	eventID, err := c.mirror.AddEvent(ctx, t)
	if err != nil {
		c.logger.Warn("adding calendar event failed", "task", t.ID, "error", err)
		return
	}

	if err := c.store.UpdateTaskFields(ctx, t.ID, store.TaskUpdate{CalendarEventID: &eventID}); err != nil {
		c.logger.Error("saving calendar event id failed", "task", t.ID, "error", err)
		return
	}
	c.mu.Lock()
	if cur, ok := c.tasks[t.ID]; ok {
		cur.CalendarEventID = eventID
		c.tasks[t.ID] = cur
	}
	c.mu.Unlock()
}

// mirrorUpdate keeps the calendar event in step with a task edit: an
// event appears when a due date appears, follows the task while one
// exists, and goes away when the due date is cleared.
func (c *Coordinator) mirrorUpdate(ctx context.Context, prev, next model.Task) {
	if c.mirror == nil {
		return
	}

	switch {
	case next.DueDate == nil && prev.CalendarEventID != "":
		if err := c.mirror.DeleteEvent(ctx, prev.CalendarEventID); err != nil {
			c.logger.Warn("removing calendar event failed",
				"task", next.ID, "event", prev.CalendarEventID, "error", err)
			return
		}
		cleared := ""
		if err := c.store.UpdateTaskFields(ctx, next.ID, store.TaskUpdate{CalendarEventID: &cleared}); err != nil {
			c.logger.Error("clearing calendar event id failed", "task", next.ID, "error", err)
		}

	case next.DueDate != nil && prev.CalendarEventID != "":
		if err := c.mirror.UpdateEvent(ctx, prev.CalendarEventID, next); err != nil {
			c.logger.Warn("updating calendar event failed",
				"task", next.ID, "event", prev.CalendarEventID, "error", err)
		}

	case next.DueDate != nil:
		c.mirrorCreate(ctx, next)
	}
}

// send delivers a message to the UI without blocking a mutation path.
func (c *Coordinator) send(msg tea.Msg) {
	select {
	case c.resultCh <- msg:
	default:
	}
}

// WaitForNext returns a command that waits for the next coordinator
// message. Call it again after each message to keep listening.
func (c *Coordinator) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// applyUpdate produces the task as the store will see it after the
// partial update, so the optimistic copy matches the persisted row.
func applyUpdate(t model.Task, fields store.TaskUpdate) model.Task {
	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.ClearDueDate {
		t.DueDate = nil
	} else if fields.DueDate != nil {
		d := fields.DueDate.UTC()
		t.DueDate = &d
	}
	if fields.HasTime != nil {
		t.HasTime = *fields.HasTime
	}
	if fields.Priority != nil {
		t.Priority = *fields.Priority
	}
	if fields.Reminder != nil {
		t.Reminder = *fields.Reminder
	}
	if fields.Completed != nil {
		t.Completed = *fields.Completed
	}
	if fields.NotificationSent != nil {
		t.NotificationSent = *fields.NotificationSent
	}
	if fields.CalendarEventID != nil {
		t.CalendarEventID = *fields.CalendarEventID
	}
	t.UpdatedAt = time.Now().UTC()
	return t
}
