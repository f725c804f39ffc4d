package store_test

import (
	"context"
	"testing"
	"time"

	"smarttasker/internal/model"
	"smarttasker/internal/store"
	"smarttasker/tests/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestCreateAndGetTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	task := model.Task{
		ID:       "task-1",
		Title:    "write report",
		DueDate:  &due,
		HasTime:  true,
		Priority: model.PriorityHigh,
		Reminder: model.ReminderTenMin,
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTaskByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTaskByID: %v", err)
	}
	if got.Title != "write report" || got.Priority != model.PriorityHigh {
		t.Errorf("got %+v", got)
	}
	if got.Reminder != model.ReminderTenMin {
		t.Errorf("reminder = %q, want %q", got.Reminder, model.ReminderTenMin)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
	if !got.HasTime || got.Completed || got.NotificationSent {
		t.Errorf("flags wrong: %+v", got)
	}
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.CreateTask(context.Background(), model.Task{Title: "   "})
	if err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestCreateTaskGeneratesID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, model.Task{Title: "no id"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := s.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID == "" {
		t.Errorf("expected one task with generated ID, got %+v", tasks)
	}
}

func TestUpdateTaskFieldsPartial(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := s.CreateTask(ctx, model.Task{
		ID: "task-1", Title: "original", Description: "keep me",
		DueDate: &due, Reminder: model.ReminderOnTime,
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := s.UpdateTaskFields(ctx, "task-1", store.TaskUpdate{
		NotificationSent: boolPtr(true),
	}); err != nil {
		t.Fatalf("UpdateTaskFields: %v", err)
	}

	got, err := s.GetTaskByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTaskByID: %v", err)
	}
	if !got.NotificationSent {
		t.Error("notification_sent not persisted")
	}
	// Untouched fields survive a partial update.
	if got.Title != "original" || got.Description != "keep me" {
		t.Errorf("partial update clobbered other fields: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date changed: %v", got.DueDate)
	}
}

func TestUpdateTaskFieldsClearDueDate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Now().UTC()
	if err := s.CreateTask(ctx, model.Task{ID: "task-1", Title: "t", DueDate: &due}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := s.UpdateTaskFields(ctx, "task-1", store.TaskUpdate{ClearDueDate: true}); err != nil {
		t.Fatalf("UpdateTaskFields: %v", err)
	}

	got, _ := s.GetTaskByID(ctx, "task-1")
	if got.DueDate != nil {
		t.Errorf("due date = %v, want nil", got.DueDate)
	}
}

func TestUpdateTaskFieldsNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.UpdateTaskFields(context.Background(), "missing", store.TaskUpdate{
		Completed: boolPtr(true),
	})
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, model.Task{ID: "task-1", Title: "t"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.DeleteTask(ctx, "task-1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.GetTaskByID(ctx, "task-1"); err == nil {
		t.Error("expected error getting deleted task")
	}
	if err := s.DeleteTask(ctx, "task-1"); err == nil {
		t.Error("expected error deleting missing task")
	}
}

func TestGetTasksFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Now().UTC()
	seed := []model.Task{
		{ID: "a", Title: "alpha", Completed: false, Priority: model.PriorityHigh, DueDate: &due},
		{ID: "b", Title: "beta", Completed: true, Priority: model.PriorityLow},
		{ID: "c", Title: "gamma", Completed: false, Priority: model.PriorityLow},
	}
	for _, task := range seed {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask(%s): %v", task.ID, err)
		}
	}

	pending, err := s.GetTasks(ctx, store.TaskFilter{Completed: boolPtr(false)})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending count = %d, want 2", len(pending))
	}

	dated, err := s.GetTasks(ctx, store.TaskFilter{HasDueDate: boolPtr(true)})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(dated) != 1 || dated[0].ID != "a" {
		t.Errorf("dated = %+v, want only task a", dated)
	}

	q := "amm"
	matched, err := s.GetTasks(ctx, store.TaskFilter{Query: &q})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "c" {
		t.Errorf("query matched %+v, want only gamma", matched)
	}

	hi := model.PriorityHigh
	prioritized, err := s.GetTasks(ctx, store.TaskFilter{Priority: &hi})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(prioritized) != 1 || prioritized[0].ID != "a" {
		t.Errorf("priority filter = %+v, want only task a", prioritized)
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// Absent subscription is (nil, nil), not an error.
	sub, err := s.GetSubscription(ctx)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected no subscription, got %+v", sub)
	}

	record := model.PushSubscriptionRecord{
		Endpoint: "https://push.example.com/sub/abc",
		Keys: model.PushSubscriptionKeys{
			P256dh: "p256dh-key",
			Auth:   "auth-secret",
		},
	}
	if err := s.SaveSubscription(ctx, record); err != nil {
		t.Fatalf("SaveSubscription: %v", err)
	}

	sub, err = s.GetSubscription(ctx)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub == nil || sub.Endpoint != record.Endpoint || sub.Keys.Auth != "auth-secret" {
		t.Errorf("round trip = %+v", sub)
	}

	if err := s.DeleteSubscription(ctx); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	sub, err = s.GetSubscription(ctx)
	if err != nil || sub != nil {
		t.Errorf("after delete: sub=%+v err=%v, want nil, nil", sub, err)
	}
}

func TestWatchNudgesOnMutation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	ch := s.Watch()

	if err := s.CreateTask(ctx, model.Task{ID: "task-1", Title: "t"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification after CreateTask")
	}
}
