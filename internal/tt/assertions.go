package tt

import (
	"fmt"
	"testing"

	"github.com/rickchristie/refine"
	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// Stream Event Helpers
// -----------------------------------------------------------------------------

// Trace returns "source(round)" for each run of consecutive events with the same source and
// round, so tests can assert the shape of a stream without caring how the text was chunked.
func Trace(events []refine.StreamEvent) []string {
	var out []string
	for i, e := range events {
		if i > 0 && e.Source == events[i-1].Source && e.Round == events[i-1].Round {
			continue
		}
		out = append(out, fmt.Sprintf("%s(%d)", e.Source, e.Round))
	}
	return out
}

// Payloads concatenates the payloads of the events from source in round.
func Payloads(events []refine.StreamEvent, source refine.Source, round int) string {
	var s string
	for _, e := range events {
		if e.Source == source && e.Round == round {
			s += e.Payload
		}
	}
	return s
}

// AssertOrdered asserts that, within events, every event matching first comes before every
// event matching second. Both must match at least one event.
func AssertOrdered(
	t *testing.T,
	events []refine.StreamEvent,
	first, second func(refine.StreamEvent) bool,
) {
	t.Helper()

	lastFirst, firstSecond := -1, -1
	for i, e := range events {
		if first(e) {
			lastFirst = i
		}
		if second(e) && firstSecond < 0 {
			firstSecond = i
		}
	}
	if !assert.GreaterOrEqual(t, lastFirst, 0, "no event matched the first predicate") {
		return
	}
	if !assert.GreaterOrEqual(t, firstSecond, 0, "no event matched the second predicate") {
		return
	}
	assert.Less(t, lastFirst, firstSecond, "events out of order")
}

// Is returns a predicate matching events of source in round.
func Is(source refine.Source, round int) func(refine.StreamEvent) bool {
	return func(e refine.StreamEvent) bool {
		return e.Source == source && e.Round == round
	}
}
