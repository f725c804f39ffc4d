package model

import "time"

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ReminderOption selects the offset applied to a task's due date to
// compute the instant its reminder should fire.
type ReminderOption string

const (
	ReminderNone    ReminderOption = "none"
	ReminderOnTime  ReminderOption = "on-time"
	ReminderTenMin  ReminderOption = "10-min-before"
	ReminderOneHour ReminderOption = "1-hour-before"
)

// Offset returns the duration subtracted from the due date to get the
// trigger instant. ok is false for ReminderNone and unknown values,
// meaning the task carries no reminder at all.
func (r ReminderOption) Offset() (time.Duration, bool) {
	switch r {
	case ReminderOnTime:
		return 0, true
	case ReminderTenMin:
		return 10 * time.Minute, true
	case ReminderOneHour:
		return time.Hour, true
	default:
		return 0, false
	}
}

// Task is a user-created task with an optional due date and reminder.
type Task struct {
	ID          string `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// DueDate is nil when the task has no deadline.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// HasTime records whether DueDate carries a meaningful time of day.
	// When false the due date is an all-day marker.
	HasTime bool `json:"has_time" db:"has_time"`

	Priority string         `json:"priority" db:"priority"`
	Reminder ReminderOption `json:"reminder" db:"reminder"`

	Completed bool `json:"completed" db:"completed"`

	// NotificationSent is the persisted, cross-session guard against
	// re-notifying. Set once the reminder was delivered or missed.
	NotificationSent bool `json:"notification_sent" db:"notification_sent"`

	// CalendarEventID is the opaque ID of the mirrored calendar event,
	// empty when the task is not mirrored.
	CalendarEventID string `json:"calendar_event_id,omitempty" db:"calendar_event_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TriggerInstant returns the absolute time at which this task's reminder
// should fire. ok is false when the task has no due date or no reminder.
func (t Task) TriggerInstant() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	offset, ok := t.Reminder.Offset()
	if !ok {
		return time.Time{}, false
	}
	return t.DueDate.Add(-offset), true
}

// ReminderEligible reports whether the reminder clock should evaluate
// this task at all: incomplete, dated, reminder set, not yet notified.
func (t Task) ReminderEligible() bool {
	if t.Completed || t.DueDate == nil || t.NotificationSent {
		return false
	}
	_, ok := t.Reminder.Offset()
	return ok
}
