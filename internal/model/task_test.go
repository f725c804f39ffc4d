package model

import (
	"testing"
	"time"
)

func TestReminderOffset(t *testing.T) {
	tests := []struct {
		option ReminderOption
		want   time.Duration
		ok     bool
	}{
		{ReminderOnTime, 0, true},
		{ReminderTenMin, 10 * time.Minute, true},
		{ReminderOneHour, time.Hour, true},
		{ReminderNone, 0, false},
		{ReminderOption("weekly"), 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.option.Offset()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Offset(%q) = (%v, %v), want (%v, %v)",
				tt.option, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTriggerInstant(t *testing.T) {
	due := time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC)

	task := Task{DueDate: &due, Reminder: ReminderTenMin}
	got, ok := task.TriggerInstant()
	if !ok {
		t.Fatal("dated task with a reminder must have a trigger instant")
	}
	if want := due.Add(-10 * time.Minute); !got.Equal(want) {
		t.Errorf("trigger = %v, want %v", got, want)
	}

	if _, ok := (Task{Reminder: ReminderOnTime}).TriggerInstant(); ok {
		t.Error("undated task must not have a trigger instant")
	}
	if _, ok := (Task{DueDate: &due, Reminder: ReminderNone}).TriggerInstant(); ok {
		t.Error("reminder 'none' must not have a trigger instant")
	}
}

func TestReminderEligible(t *testing.T) {
	due := time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC)
	base := Task{DueDate: &due, Reminder: ReminderOnTime}

	if !base.ReminderEligible() {
		t.Fatal("open dated task with reminder should be eligible")
	}

	completed := base
	completed.Completed = true
	if completed.ReminderEligible() {
		t.Error("completed task must not be eligible")
	}

	sent := base
	sent.NotificationSent = true
	if sent.ReminderEligible() {
		t.Error("already-notified task must not be eligible")
	}

	undated := base
	undated.DueDate = nil
	if undated.ReminderEligible() {
		t.Error("undated task must not be eligible")
	}

	noReminder := base
	noReminder.Reminder = ReminderNone
	if noReminder.ReminderEligible() {
		t.Error("task without reminder must not be eligible")
	}
}
