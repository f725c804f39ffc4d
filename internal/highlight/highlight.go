// Package highlight maps detected date spans back onto their source text,
// producing render-ready segments for the smart input surface.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smarttasker/internal/dateparse"
)

// Segment is a run of source text with a single highlight state.
type Segment struct {
	Text        string
	Highlighted bool
}

// Project splits text into segments such that every byte inside any span
// is in a highlighted segment and everything else passes through
// unchanged, newlines included. The concatenation of all segment texts is
// byte-identical to the input, so a renderer can overlay the result on
// the editable surface without positional drift. Overlapping or nested
// spans never double-count a byte.
func Project(text string, spans []dateparse.Span) []Segment {
	if text == "" {
		return nil
	}

	marks := make([]bool, len(text))
	for _, span := range spans {
		start, end := span.Start, span.End
		if start < 0 {
			start = 0
		}
		if end > len(text) {
			end = len(text)
		}
		for i := start; i < end; i++ {
			marks[i] = true
		}
	}

	var segments []Segment
	runStart := 0
	for i := 1; i <= len(text); i++ {
		if i == len(text) || marks[i] != marks[runStart] {
			segments = append(segments, Segment{
				Text:        text[runStart:i],
				Highlighted: marks[runStart],
			})
			runStart = i
		}
	}

	return segments
}

// Render produces a lipgloss-styled rendering of text with date spans
// drawn in highlightStyle and everything else in baseStyle. Styling is
// applied line by line so backgrounds do not bleed across newlines; the
// visible character grid is identical to the plain text.
func Render(text string, spans []dateparse.Span, highlightStyle, baseStyle lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range Project(text, spans) {
		style := baseStyle
		if seg.Highlighted {
			style = highlightStyle
		}
		lines := strings.Split(seg.Text, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	return b.String()
}
