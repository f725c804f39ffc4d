package reminder

import "testing"

func TestSessionTableBegin(t *testing.T) {
	s := NewSessionTable()

	if !s.Begin("a") {
		t.Fatal("first Begin should claim the task")
	}
	if s.Begin("a") {
		t.Fatal("second Begin should fail while in flight")
	}
	if got := s.Resolution("a"); got != ResolutionInFlight {
		t.Fatalf("Resolution = %v, want %v", got, ResolutionInFlight)
	}
}

func TestSessionTableResolveBlocksBegin(t *testing.T) {
	s := NewSessionTable()

	s.Begin("a")
	s.Resolve("a", ResolutionNotified)

	if s.Begin("a") {
		t.Fatal("Begin should fail after resolution")
	}
	if got := s.Resolution("a"); got != ResolutionNotified {
		t.Fatalf("Resolution = %v, want %v", got, ResolutionNotified)
	}
}

func TestSessionTableRollback(t *testing.T) {
	s := NewSessionTable()

	s.Begin("a")
	s.Rollback("a")

	if got := s.Resolution("a"); got != ResolutionNone {
		t.Fatalf("Resolution after rollback = %v, want %v", got, ResolutionNone)
	}
	if !s.Begin("a") {
		t.Fatal("Begin should succeed again after rollback")
	}
}

func TestSessionTableMissedWithoutBegin(t *testing.T) {
	s := NewSessionTable()

	s.Resolve("a", ResolutionMissed)

	if s.Begin("a") {
		t.Fatal("Begin should fail for a missed task")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
