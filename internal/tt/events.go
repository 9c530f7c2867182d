package tt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rickchristie/refine"
)

// -----------------------------------------------------------------------------
// Script Builders
// -----------------------------------------------------------------------------

// DraftText returns the JSON text of a draft with the given title and one section per entry of
// sections, each entry being the section title followed by its bullets.
func DraftText(title string, sections ...[]string) string {
	d := refine.Draft{Title: title, Sections: []refine.Section{}}
	for _, s := range sections {
		sec := refine.Section{Bullets: []string{}}
		if len(s) > 0 {
			sec.Title = s[0]
			sec.Bullets = append(sec.Bullets, s[1:]...)
		}
		d.Sections = append(d.Sections, sec)
	}
	return d.JSON()
}

// CritiqueText returns the JSON text of a critique. comments alternate element and comment.
func CritiqueText(rating int, comments ...string) string {
	c := refine.Critique{Rating: rating, Comments: []refine.Comment{}}
	for i := 0; i+1 < len(comments); i += 2 {
		c.Comments = append(c.Comments, refine.Comment{Element: comments[i], Comment: comments[i+1]})
	}
	return c.JSON()
}

// Chunks splits s into pieces of at most n bytes, the way a model streams tokens.
func Chunks(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// -----------------------------------------------------------------------------
// Recorder - records every hook event
// -----------------------------------------------------------------------------

// Recorder implements every hook interface and records the events it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	events []refine.HookEvent
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e refine.HookEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []refine.HookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]refine.HookEvent(nil), r.events...)
}

// Names returns a short name for each recorded event, e.g. "before(1)" or
// "fragment(1,producer)". Fragment text is left out so tests can assert the sequence.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, EventName(e))
	}
	return names
}

// EventName returns the short name Names uses for e.
func EventName(e refine.HookEvent) string {
	switch ev := e.(type) {
	case refine.BeforeRoundEvent:
		return fmt.Sprintf("before(%d)", ev.Round)
	case refine.RoleChangeEvent:
		return fmt.Sprintf("role(%d,%s)", ev.Round, ev.To)
	case refine.FragmentEvent:
		return fmt.Sprintf("fragment(%d,%s)", ev.Round, ev.Role)
	case refine.DraftUpdatedEvent:
		return fmt.Sprintf("draft(%d)", ev.Round)
	case refine.RecoveryFailedEvent:
		return fmt.Sprintf("recovery-failed(%d,%s)", ev.Round, ev.Role)
	case refine.AfterRoundEvent:
		return fmt.Sprintf("after(%d)", ev.Round)
	case refine.TerminationEvent:
		return fmt.Sprintf("termination(%s)", ev.Reason)
	default:
		return fmt.Sprintf("%T", e)
	}
}

// AfterRounds returns the recorded AfterRoundEvents.
func (r *Recorder) AfterRounds() []refine.AfterRoundEvent {
	var out []refine.AfterRoundEvent
	for _, e := range r.Events() {
		if ev, ok := e.(refine.AfterRoundEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) OnBeforeRound(_ context.Context, e refine.BeforeRoundEvent) { r.record(e) }

func (r *Recorder) OnRoleChange(_ context.Context, e refine.RoleChangeEvent) { r.record(e) }

func (r *Recorder) OnFragment(_ context.Context, e refine.FragmentEvent) { r.record(e) }

func (r *Recorder) OnDraftUpdated(_ context.Context, e refine.DraftUpdatedEvent) { r.record(e) }

func (r *Recorder) OnRecoveryFailed(_ context.Context, e refine.RecoveryFailedEvent) {
	r.record(e)
}

func (r *Recorder) OnAfterRound(_ context.Context, e refine.AfterRoundEvent) { r.record(e) }

func (r *Recorder) OnTermination(_ context.Context, e refine.TerminationEvent) { r.record(e) }

var (
	_ refine.BeforeRoundHook    = (*Recorder)(nil)
	_ refine.RoleChangeHook     = (*Recorder)(nil)
	_ refine.FragmentHook       = (*Recorder)(nil)
	_ refine.DraftUpdatedHook   = (*Recorder)(nil)
	_ refine.RecoveryFailedHook = (*Recorder)(nil)
	_ refine.AfterRoundHook     = (*Recorder)(nil)
	_ refine.TerminationHook    = (*Recorder)(nil)
)

// MustJSON marshals v or panics. For building test fixtures only.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
