package controller

import (
	"sync"

	"github.com/rickchristie/refine"
)

// Phase is the state of the iteration state machine.
type Phase string

const (
	// PhaseIdle is the phase of a controller that never ran.
	PhaseIdle Phase = "idle"

	// PhaseDrafting is active while the producer writes the round's draft.
	PhaseDrafting Phase = "drafting"

	// PhaseCritiquing is active while the critic reviews the round's draft.
	PhaseCritiquing Phase = "critiquing"

	// PhaseEvaluating is active while the critique is recovered and compared to the threshold.
	PhaseEvaluating Phase = "evaluating"

	// PhaseDone is terminal: a critique met the threshold.
	PhaseDone Phase = "done"

	// PhaseExhausted is terminal: the round budget ran out.
	PhaseExhausted Phase = "exhausted"

	// PhaseFailed is terminal: the round executor failed.
	PhaseFailed Phase = "failed"
)

// IsTerminal reports whether p ends a session.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseExhausted || p == PhaseFailed
}

// Snapshot is a consistent copy of the controller state at one point in time.
type Snapshot struct {
	Phase    Phase
	Round    int
	Draft    refine.Draft
	Feedback string
}

// state holds the session data shared between the round loop and the subscription callbacks.
//
// The lock is held only while a field is read or swapped, never across a call into the
// executor or a hook. The methods below are the only places the fields change.
type state struct {
	mu       sync.Mutex
	phase    Phase
	round    int
	draft    refine.Draft
	feedback string
}

func newState() *state {
	return &state{phase: PhaseIdle}
}

// reset empties draft and feedback for a new session.
func (s *state) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	s.round = 0
	s.draft = refine.Draft{Sections: []refine.Section{}}
	s.feedback = ""
}

// enter moves the state machine to phase p of round r.
func (s *state) enter(p Phase, r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
	s.round = r
}

// swapDraft replaces the current draft and returns the previous one.
func (s *state) swapDraft(d refine.Draft) refine.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.draft
	s.draft = d
	return prev
}

// setFeedback replaces the feedback carried into the next round.
func (s *state) setFeedback(f string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = f
}

func (s *state) currentDraft() refine.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *state) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:    s.phase,
		Round:    s.round,
		Draft:    s.draft.Clone(),
		Feedback: s.feedback,
	}
}
