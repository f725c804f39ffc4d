// Package reminder decides when tasks are due for notification and
// drives at-most-once delivery per task per session.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/model"
	"smarttasker/internal/notify"
)

// Eligibility window around the trigger instant. The clock fires up to
// 30 seconds early so delivery lands at or before the nominal instant,
// tolerates 5 seconds of check lateness, and writes off tasks whose
// window was skipped by more than 5 minutes (closed laptop, suspended
// process) without attempting delivery.
const (
	earlyWindow  = 30 * time.Second
	lateGrace    = 5 * time.Second
	missedCutoff = 5 * time.Minute

	// checkInterval is the steady cadence between checks once the clock
	// is aligned to minute boundaries.
	checkInterval = time.Minute
)

// taskState classifies a task's position relative to its window.
type taskState int

const (
	statePending taskState = iota
	stateSendable
	stateMissed
)

// classify buckets delta (trigger instant minus now) into the window.
func classify(delta time.Duration) taskState {
	switch {
	case delta <= earlyWindow && delta >= -lateGrace:
		return stateSendable
	case delta < -missedCutoff:
		return stateMissed
	default:
		return statePending
	}
}

// alignDelay returns how long to sleep so the next check lands on the
// next wall-clock minute boundary.
func alignDelay(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute)
	d := next.Sub(now)
	if d <= 0 {
		d = checkInterval
	}
	return d
}

// OutcomeKind distinguishes reminder outcomes reported to the UI.
type OutcomeKind int

const (
	OutcomeNotified OutcomeKind = iota
	OutcomeMissed
	OutcomeDeliveryFailed
	OutcomeSubscriptionExpired
)

// OutcomeMsg is a tea.Msg sent when the clock resolves (or fails to
// resolve) a task's reminder.
type OutcomeMsg struct {
	TaskID string
	Title  string
	Kind   OutcomeKind
	Err    error
}

// TaskSource provides the clock's read-only view of the live task set.
type TaskSource interface {
	Tasks() []model.Task
}

// Marker persists the notified flag for a task, updating both the
// authoritative store and the local snapshot.
type Marker interface {
	MarkNotificationSent(ctx context.Context, id string) error
}

// SubscriptionStore is the slice of persistence holding the push
// subscription record.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context) (*model.PushSubscriptionRecord, error)
	DeleteSubscription(ctx context.Context) error
}

// Clock is the reminder scheduling engine. It runs an immediate check
// at start, a one-shot check aligned to the next minute boundary, then
// a steady 60-second cadence. Each check cycle runs in its own
// goroutine; the session table is the guard against overlapping cycles
// double-sending.
type Clock struct {
	source  TaskSource
	gateway notify.Gateway
	marker  Marker
	subs    SubscriptionStore
	session *SessionTable
	logger  *slog.Logger

	now      func() time.Time
	interval time.Duration

	resultCh chan OutcomeMsg
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// New creates a reminder clock. It does not start ticking until Start.
func New(source TaskSource, gateway notify.Gateway, marker Marker, subs SubscriptionStore, logger *slog.Logger) *Clock {
	return &Clock{
		source:   source,
		gateway:  gateway,
		marker:   marker,
		subs:     subs,
		session:  NewSessionTable(),
		logger:   logger,
		now:      time.Now,
		interval: checkInterval,
		resultCh: make(chan OutcomeMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the scheduling goroutine and returns a command that
// subscribes the Bubble Tea runtime to reminder outcomes.
func (c *Clock) Start() tea.Cmd {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	go c.run()

	return c.waitForOutcome()
}

// Stop cancels all timers. No check cycles are scheduled after Stop
// returns, though an in-flight cycle may still complete.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
}

// run owns both timer handles: the aligned one-shot and the steady
// interval ticker. Both are released on Stop.
func (c *Clock) run() {
	// Catch tasks already due at mount.
	go c.CheckNow(context.Background())

	align := time.NewTimer(alignDelay(c.now()))
	defer align.Stop()

	select {
	case <-c.stopCh:
		return
	case <-align.C:
		go c.CheckNow(context.Background())
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			go c.CheckNow(context.Background())
		}
	}
}

// CheckNow evaluates every eligible task against the current time and
// delivers reminders for those inside the sendable window. It is safe
// to call concurrently with itself: the session table's test-and-set
// prevents duplicate sends.
func (c *Clock) CheckNow(ctx context.Context) {
	now := c.now()

	subChecked := false
	var sub *model.PushSubscriptionRecord

	for _, task := range c.source.Tasks() {
		if !task.ReminderEligible() {
			continue
		}
		if c.session.Resolution(task.ID) != ResolutionNone {
			continue
		}

		trigger, ok := task.TriggerInstant()
		if !ok {
			continue
		}

		switch classify(trigger.Sub(now)) {
		case statePending:
			continue

		case stateMissed:
			c.session.Resolve(task.ID, ResolutionMissed)
			c.logger.Info("reminder window missed",
				"task", task.ID, "title", task.Title,
				"late_by", now.Sub(trigger))
			if err := c.marker.MarkNotificationSent(ctx, task.ID); err != nil {
				c.logger.Error("persisting missed resolution failed",
					"task", task.ID, "error", err)
			}
			c.sendOutcome(OutcomeMsg{TaskID: task.ID, Title: task.Title, Kind: OutcomeMissed})

		case stateSendable:
			if !c.session.Begin(task.ID) {
				// Another cycle got here first.
				continue
			}

			if !subChecked {
				if !c.gateway.IsSubscribed(ctx) {
					// No delivery possible this tick; leave every task
					// pending for a later check.
					c.session.Rollback(task.ID)
					return
				}
				sub, _ = c.subs.GetSubscription(ctx)
				subChecked = true
			}

			c.deliver(ctx, task, sub)
		}
	}
}

// deliver sends one reminder and records its resolution.
func (c *Clock) deliver(ctx context.Context, task model.Task, sub *model.PushSubscriptionRecord) {
	payload := notify.Payload{
		Title: "Task Reminder: " + task.Title,
		Body:  fmt.Sprintf("Your task %q is due now.", task.Title),
	}

	err := c.gateway.Deliver(ctx, sub, payload)
	switch {
	case err == nil:
		c.session.Resolve(task.ID, ResolutionNotified)
		c.logger.Info("reminder delivered", "task", task.ID, "title", task.Title)
		if perr := c.marker.MarkNotificationSent(ctx, task.ID); perr != nil {
			// The notification already reached the user; the session
			// entry keeps this tick from re-sending, but a fresh session
			// may deliver again. At-least-once is accepted here.
			c.logger.Error("persisting notified flag failed",
				"task", task.ID, "error", perr)
		}
		c.sendOutcome(OutcomeMsg{TaskID: task.ID, Title: task.Title, Kind: OutcomeNotified})

	case errors.Is(err, notify.ErrSubscriptionExpired):
		// Terminal: invalidate the stored subscription and do not retry.
		// The session entry stays so this task is not re-attempted.
		c.logger.Warn("push subscription expired, removing it",
			"task", task.ID, "error", err)
		if derr := c.subs.DeleteSubscription(ctx); derr != nil {
			c.logger.Error("deleting expired subscription failed", "error", derr)
		}
		c.sendOutcome(OutcomeMsg{TaskID: task.ID, Title: task.Title, Kind: OutcomeSubscriptionExpired, Err: err})

	default:
		// Transient: roll the session entry back so the next tick retries.
		c.session.Rollback(task.ID)
		c.logger.Warn("reminder delivery failed",
			"task", task.ID, "title", task.Title, "error", err)
		c.sendOutcome(OutcomeMsg{TaskID: task.ID, Title: task.Title, Kind: OutcomeDeliveryFailed, Err: err})
	}
}

// sendOutcome sends an outcome on the result channel without blocking.
func (c *Clock) sendOutcome(msg OutcomeMsg) {
	select {
	case c.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking a check cycle.
	}
}

// waitForOutcome returns a tea.Cmd that waits for the next outcome.
func (c *Clock) waitForOutcome() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-c.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextOutcome returns a tea.Cmd that waits for the next reminder
// outcome. Call it after processing an OutcomeMsg to keep listening.
func (c *Clock) WaitForNextOutcome() tea.Cmd {
	return c.waitForOutcome()
}
