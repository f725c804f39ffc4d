package reminder

import "sync"

// Resolution is the session-local delivery state of a task's reminder.
type Resolution int

const (
	// ResolutionNone means the task is not tracked this session.
	ResolutionNone Resolution = iota
	// ResolutionInFlight means a delivery attempt is underway (or the
	// subscription expired mid-attempt; either way: no further attempts
	// this session).
	ResolutionInFlight
	// ResolutionNotified means delivery succeeded this session.
	ResolutionNotified
	// ResolutionMissed means the window was skipped entirely and the
	// task was resolved without a delivery attempt.
	ResolutionMissed
)

// SessionTable tracks which tasks have been handled during the current
// process lifetime. It backs the at-most-once-per-session guarantee and
// is discarded on shutdown; the persisted NotificationSent flag is the
// cross-session guard.
type SessionTable struct {
	mu      sync.Mutex
	entries map[string]Resolution
}

// NewSessionTable creates an empty session table.
func NewSessionTable() *SessionTable {
	return &SessionTable{entries: make(map[string]Resolution)}
}

// Begin atomically marks a task in-flight. It returns false if the task
// is already tracked, so overlapping check cycles cannot double-send.
func (t *SessionTable) Begin(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; ok {
		return false
	}
	t.entries[id] = ResolutionInFlight
	return true
}

// Resolve records a terminal resolution for a task.
func (t *SessionTable) Resolve(id string, r Resolution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = r
}

// Rollback removes a task from the table, allowing a retry on a later
// tick after a transient delivery failure.
func (t *SessionTable) Rollback(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Resolution returns the task's current session state.
func (t *SessionTable) Resolution(id string) Resolution {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[id]
}

// Len returns the number of tracked tasks.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
