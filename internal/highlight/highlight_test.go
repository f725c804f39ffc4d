package highlight

import (
	"strings"
	"testing"

	"smarttasker/internal/dateparse"
)

func concat(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestProjectNoSpansIsIdentity(t *testing.T) {
	text := "nothing to see here\nsecond line"
	segments := Project(text, nil)

	if got := concat(segments); got != text {
		t.Errorf("concatenated segments = %q, want %q", got, text)
	}
	for _, s := range segments {
		if s.Highlighted {
			t.Errorf("segment %q highlighted with no spans", s.Text)
		}
	}
}

func TestProjectEmptyText(t *testing.T) {
	if segments := Project("", nil); segments != nil {
		t.Errorf("Project(\"\") = %v, want nil", segments)
	}
}

func TestProjectMarksSpanBounds(t *testing.T) {
	text := "call mom tomorrow at 5pm ok"
	spans := []dateparse.Span{{Text: "tomorrow at 5pm", Start: 9, End: 24}}

	segments := Project(text, spans)
	if got := concat(segments); got != text {
		t.Fatalf("concatenated segments = %q, want %q", got, text)
	}

	want := []Segment{
		{Text: "call mom ", Highlighted: false},
		{Text: "tomorrow at 5pm", Highlighted: true},
		{Text: " ok", Highlighted: false},
	}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments %v, want %d", len(segments), segments, len(want))
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segments[i], want[i])
		}
	}
}

func TestProjectOverlappingSpansNoDoubleCount(t *testing.T) {
	text := "due next friday evening"
	spans := []dateparse.Span{
		{Text: "next friday", Start: 4, End: 15},
		{Text: "friday evening", Start: 9, End: 23},
	}

	segments := Project(text, spans)
	if got := concat(segments); got != text {
		t.Fatalf("concatenated segments = %q, want %q (double-counted overlap?)", got, text)
	}

	// The union of the two spans is one contiguous highlighted run.
	var highlighted []string
	for _, s := range segments {
		if s.Highlighted {
			highlighted = append(highlighted, s.Text)
		}
	}
	if len(highlighted) != 1 || highlighted[0] != "next friday evening" {
		t.Errorf("highlighted runs = %v, want one run covering the union", highlighted)
	}
}

func TestProjectPreservesNewlines(t *testing.T) {
	text := "line one\ndue tomorrow\nline three"
	spans := []dateparse.Span{{Text: "tomorrow", Start: 13, End: 21}}

	segments := Project(text, spans)
	if got := concat(segments); got != text {
		t.Fatalf("concatenated segments = %q, want %q", got, text)
	}

	for _, s := range segments {
		if s.Highlighted && strings.Contains(s.Text, "\n") {
			t.Errorf("highlighted segment %q crosses a line break", s.Text)
		}
	}
}

func TestProjectClampsOutOfRangeSpans(t *testing.T) {
	text := "short"
	spans := []dateparse.Span{{Start: -3, End: 99}}

	segments := Project(text, spans)
	if got := concat(segments); got != text {
		t.Errorf("concatenated segments = %q, want %q", got, text)
	}
	if len(segments) != 1 || !segments[0].Highlighted {
		t.Errorf("segments = %v, want single fully highlighted run", segments)
	}
}
