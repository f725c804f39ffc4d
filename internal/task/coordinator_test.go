package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"smarttasker/internal/model"
	"smarttasker/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore records mutations and signals each completed call on ops so
// tests can wait out the coordinator's background persistence.
type fakeStore struct {
	mu      sync.Mutex
	tasks   map[string]model.Task
	updates map[string][]store.TaskUpdate

	failCreate error
	failUpdate error
	failDelete error

	ops     chan string
	watchCh chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:   make(map[string]model.Task),
		updates: make(map[string][]store.TaskUpdate),
		ops:     make(chan string, 16),
		watchCh: make(chan struct{}, 1),
	}
}

func (f *fakeStore) signal(op string) { f.ops <- op }

func (f *fakeStore) waitOp(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-f.ops:
		if got != want {
			t.Fatalf("store op = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for store op %q", want)
	}
}

func (f *fakeStore) CreateTask(_ context.Context, task model.Task) error {
	defer f.signal("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeStore) GetTasks(context.Context, store.TaskFilter) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &t, nil
}

func (f *fakeStore) UpdateTaskFields(_ context.Context, id string, fields store.TaskUpdate) error {
	defer f.signal("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.updates[id] = append(f.updates[id], fields)
	return nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id string) error {
	defer f.signal("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) GetSubscription(context.Context) (*model.PushSubscriptionRecord, error) {
	return nil, nil
}

func (f *fakeStore) SaveSubscription(context.Context, model.PushSubscriptionRecord) error {
	return nil
}

func (f *fakeStore) DeleteSubscription(context.Context) error { return nil }

func (f *fakeStore) Watch() <-chan struct{} { return f.watchCh }

func (f *fakeStore) Close() error { return nil }

type fakeMirror struct {
	mu      sync.Mutex
	added   []string
	updated []string
	removed []string
	eventID string
}

func (m *fakeMirror) AddEvent(_ context.Context, task model.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, task.ID)
	if m.eventID == "" {
		m.eventID = "evt-1"
	}
	return m.eventID, nil
}

func (m *fakeMirror) UpdateEvent(_ context.Context, eventID string, _ model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, eventID)
	return nil
}

func (m *fakeMirror) DeleteEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, eventID)
	return nil
}

func TestCreateAppliesOptimistically(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())

	id := c.Create(context.Background(), model.Task{Title: "buy milk"})
	if id == "" {
		t.Fatal("Create should assign an ID")
	}

	// Visible locally before the store write completes.
	got, ok := c.Get(id)
	if !ok {
		t.Fatal("created task not in local set")
	}
	if got.Priority != model.PriorityMedium || got.Reminder != model.ReminderNone {
		t.Errorf("defaults not applied: priority=%q reminder=%q", got.Priority, got.Reminder)
	}

	st.waitOp(t, "create")
	if _, ok := st.tasks[id]; !ok {
		t.Error("task not persisted")
	}
}

func TestCreateRevertsOnStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.failCreate = errors.New("disk full")
	c := New(st, nil, discardLogger())

	id := c.Create(context.Background(), model.Task{Title: "doomed"})

	msg := c.WaitForNext()()
	failed, ok := msg.(MutationFailedMsg)
	if !ok {
		t.Fatalf("message = %T, want MutationFailedMsg", msg)
	}
	if failed.Op != "create" || failed.TaskID != id {
		t.Errorf("failure = %+v", failed)
	}
	if _, ok := c.Get(id); ok {
		t.Error("failed create should be reverted locally")
	}
}

func TestApplyAndRevert(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())

	id := c.Create(context.Background(), model.Task{Title: "original"})
	st.waitOp(t, "create")

	title := "renamed"
	c.Apply(context.Background(), id, store.TaskUpdate{Title: &title})
	if got, _ := c.Get(id); got.Title != "renamed" {
		t.Fatalf("title = %q immediately after Apply, want renamed", got.Title)
	}
	st.waitOp(t, "update")

	// Now make the store reject the next edit.
	st.mu.Lock()
	st.failUpdate = errors.New("write failed")
	st.mu.Unlock()

	bad := "lost edit"
	c.Apply(context.Background(), id, store.TaskUpdate{Title: &bad})
	msg := c.WaitForNext()()
	if _, ok := msg.(MutationFailedMsg); !ok {
		t.Fatalf("message = %T, want MutationFailedMsg", msg)
	}
	if got, _ := c.Get(id); got.Title != "renamed" {
		t.Errorf("title after revert = %q, want renamed", got.Title)
	}
}

func TestDeleteAndRevert(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())

	id := c.Create(context.Background(), model.Task{Title: "short-lived"})
	st.waitOp(t, "create")

	st.mu.Lock()
	st.failDelete = errors.New("locked")
	st.mu.Unlock()

	c.Delete(context.Background(), id)
	if _, ok := c.Get(id); ok {
		t.Fatal("delete should remove the task locally at once")
	}

	msg := c.WaitForNext()()
	if _, ok := msg.(MutationFailedMsg); !ok {
		t.Fatalf("message = %T, want MutationFailedMsg", msg)
	}
	if _, ok := c.Get(id); !ok {
		t.Error("failed delete should restore the task")
	}
}

func TestMarkNotificationSent(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())

	id := c.Create(context.Background(), model.Task{Title: "due soon"})
	st.waitOp(t, "create")

	if err := c.MarkNotificationSent(context.Background(), id); err != nil {
		t.Fatalf("MarkNotificationSent: %v", err)
	}
	st.waitOp(t, "update")

	got, _ := c.Get(id)
	if !got.NotificationSent {
		t.Error("local copy should show notification_sent")
	}
	ups := st.updates[id]
	if len(ups) != 1 || ups[0].NotificationSent == nil || !*ups[0].NotificationSent {
		t.Errorf("persisted updates = %+v", ups)
	}
}

func TestTasksSortedByDueDate(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())

	later := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sooner := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	c.Create(context.Background(), model.Task{Title: "no date"})
	c.Create(context.Background(), model.Task{Title: "later", DueDate: &later})
	c.Create(context.Background(), model.Task{Title: "sooner", DueDate: &sooner})
	st.waitOp(t, "create")
	st.waitOp(t, "create")
	st.waitOp(t, "create")

	got := c.Tasks()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Title != "sooner" || got[1].Title != "later" || got[2].Title != "no date" {
		t.Errorf("order = %q, %q, %q", got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestMirrorFollowsDueDate(t *testing.T) {
	st := newFakeStore()
	m := &fakeMirror{}
	c := New(st, m, discardLogger())

	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := c.Create(context.Background(), model.Task{Title: "with date", DueDate: &due, HasTime: true})
	st.waitOp(t, "create")
	st.waitOp(t, "update") // event ID write-back

	// The local copy picks up the event ID just after the write-back.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := c.Get(id)
		if got.CalendarEventID == "evt-1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("calendar event id = %q, want evt-1", got.CalendarEventID)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Clearing the due date removes the mirrored event.
	c.Apply(context.Background(), id, store.TaskUpdate{ClearDueDate: true})
	st.waitOp(t, "update") // task update
	st.waitOp(t, "update") // event ID clear

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.removed) != 1 || m.removed[0] != "evt-1" {
		t.Errorf("removed events = %v, want [evt-1]", m.removed)
	}
}

func TestChangeFeedReload(t *testing.T) {
	st := newFakeStore()
	c := New(st, nil, discardLogger())
	defer c.Stop()

	cmd := c.Start()
	if cmd == nil {
		t.Fatal("Start should return a listen command")
	}

	// Simulate an external write arriving through the store.
	st.mu.Lock()
	st.tasks["ext"] = model.Task{ID: "ext", Title: "from elsewhere"}
	st.mu.Unlock()
	st.watchCh <- struct{}{}

	msg := cmd()
	if _, ok := msg.(ChangedMsg); !ok {
		t.Fatalf("message = %T, want ChangedMsg", msg)
	}
	if _, ok := c.Get("ext"); !ok {
		t.Error("reload should pick up the external task")
	}
}
