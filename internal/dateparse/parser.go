// Package dateparse finds natural-language date/time expressions
// embedded in free text ("tomorrow at 3pm", "next friday", "in 2 hours")
// and resolves them against a reference time.
package dateparse

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Span is a detected date/time expression within a source string.
// Start and End are byte offsets (End exclusive) that exactly bound the
// trimmed expression; Date is its resolved point-in-time interpretation.
type Span struct {
	Text  string
	Start int
	End   int
	Date  time.Time
}

// Parser detects date expressions in text. It is stateless across calls;
// results are deterministic for a fixed reference time.
type Parser struct {
	w *when.Parser
}

// New creates a parser with the English and common rule sets.
func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// Parse returns all date expressions found in text, ordered by position.
// Unparseable text yields nil; Parse never fails. Overlapping or nested
// expressions are returned as the recognizer reports them, unmerged.
func (p *Parser) Parse(text string, now time.Time) []Span {
	var spans []Span

	offset := 0
	for offset < len(text) {
		r, err := p.w.Parse(text[offset:], now)
		if err != nil || r == nil {
			break
		}

		spans = append(spans, finalize(offset+r.Index, r.Text, r.Time))

		advance := r.Index + len(r.Text)
		if advance <= 0 {
			break
		}
		offset += advance
	}

	return spans
}

// finalize trims surrounding whitespace off a raw match and shifts the
// offsets so the span bounds exactly the trimmed expression.
func finalize(start int, matched string, date time.Time) Span {
	trimmed := strings.TrimSpace(matched)
	leading := len(matched) - len(strings.TrimLeft(matched, " \t\n"))
	start += leading
	return Span{
		Text:  trimmed,
		Start: start,
		End:   start + len(trimmed),
		Date:  date,
	}
}

// MostRelevant returns the span that should drive due-date auto-fill:
// the last one in document order, so the most recently typed expression
// wins. Returns nil for an empty sequence.
func MostRelevant(spans []Span) *Span {
	if len(spans) == 0 {
		return nil
	}
	return &spans[len(spans)-1]
}

// Remove splices a span out of text and trims the result. Used when the
// detected expression should not remain in the task description.
func Remove(text string, span Span) string {
	if span.Start < 0 || span.End > len(text) || span.Start > span.End {
		return text
	}
	return strings.TrimSpace(text[:span.Start] + text[span.End:])
}
