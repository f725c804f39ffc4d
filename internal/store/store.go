package store

import (
	"context"
	"time"

	"smarttasker/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Completed  *bool   // nil = all
	HasDueDate *bool   // nil = all
	Priority   *string // "low", "medium", "high", or nil (all)
	Query      *string // search title + description
	SortBy     string  // "due_date", "priority", "created_at", "updated_at", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// TaskUpdate is a field-level partial update. Nil pointers leave the
// column untouched; ClearDueDate removes the due date entirely (a nil
// DueDate pointer alone cannot express that).
type TaskUpdate struct {
	Title            *string
	Description      *string
	DueDate          *time.Time
	ClearDueDate     bool
	HasTime          *bool
	Priority         *string
	Reminder         *model.ReminderOption
	Completed        *bool
	NotificationSent *bool
	CalendarEventID  *string
}

// Store defines the persistence interface for tasks and the push
// subscription record, plus a change feed for live UI refresh.
type Store interface {
	CreateTask(ctx context.Context, task model.Task) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	UpdateTaskFields(ctx context.Context, id string, fields TaskUpdate) error
	DeleteTask(ctx context.Context, id string) error

	// GetSubscription returns (nil, nil) when no subscription is stored.
	GetSubscription(ctx context.Context) (*model.PushSubscriptionRecord, error)
	SaveSubscription(ctx context.Context, sub model.PushSubscriptionRecord) error
	DeleteSubscription(ctx context.Context) error

	// Watch returns a channel that receives a nudge after every mutation.
	// Notifications are dropped rather than block a writer.
	Watch() <-chan struct{}

	Close() error
}
