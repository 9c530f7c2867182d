package refine

import (
	"context"
	"sync"
)

// Role identifies which sub-producer of a round is active.
type Role string

const (
	// RoleNone is the role before a round executor announced any role.
	RoleNone Role = ""

	// RoleProducer writes or revises the draft.
	RoleProducer Role = "producer"

	// RoleCritic reviews the draft and rates it.
	RoleCritic Role = "critic"
)

// RoundInput is what a RoundExecutor receives for one round.
type RoundInput struct {
	// Subject is the free-form subject text of the session.
	Subject string

	// Round is the 1-indexed round number.
	Round int

	// Draft is the compact JSON text of the current draft. Empty in the first round.
	Draft string

	// Feedback is the flattened critique of the previous round. Empty in the first round.
	Feedback string
}

// RoundOutput holds the two text blobs a round produced.
//
// Either field may be empty when the executor only streamed fragments; the controller then
// falls back to the fragments it observed through the Subscription.
type RoundOutput struct {
	Producer string
	Critic   string
}

// RoundExecutor runs one round: it produces a draft, then a critique of that draft.
//
// While running, the executor reports progress through sub: it calls RoleChange when the active
// sub-producer changes and Fragment for each piece of text it produces. The subscription is
// scoped to this single invocation.
//
// A returned error means the round could not run at all (for example, the model service is
// unreachable) and ends the session.
type RoundExecutor interface {
	ExecuteRound(ctx context.Context, in RoundInput, sub *Subscription) (RoundOutput, error)
}

// RoundExecutorFunc adapts a function to the RoundExecutor interface.
type RoundExecutorFunc func(ctx context.Context, in RoundInput, sub *Subscription) (RoundOutput, error)

// ExecuteRound calls f.
func (f RoundExecutorFunc) ExecuteRound(
	ctx context.Context,
	in RoundInput,
	sub *Subscription,
) (RoundOutput, error) {
	return f(ctx, in, sub)
}

// Subscription delivers role-transition and fragment notifications from a round executor to
// the callbacks registered for one invocation.
//
// Calls are serialized: callbacks never run concurrently, and a fragment is always tagged with
// the role active at the moment it was reported. Callbacks must not call back into the same
// Subscription.
type Subscription struct {
	mu         sync.Mutex
	role       Role
	onRole     func(from, to Role)
	onFragment func(role Role, text string)
}

// NewSubscription creates a Subscription. Either callback may be nil.
func NewSubscription(
	onRole func(from, to Role),
	onFragment func(role Role, text string),
) *Subscription {
	return &Subscription{
		onRole:     onRole,
		onFragment: onFragment,
	}
}

// RoleChange announces that role to is now active. Announcing the active role again is a no-op.
func (s *Subscription) RoleChange(to Role) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.role
	if from == to {
		return
	}
	s.role = to
	if s.onRole != nil {
		s.onRole(from, to)
	}
}

// Fragment reports a piece of produced text. Empty fragments are dropped.
func (s *Subscription) Fragment(text string) {
	if s == nil || text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onFragment != nil {
		s.onFragment(s.role, text)
	}
}

// Role returns the active role.
func (s *Subscription) Role() Role {
	if s == nil {
		return RoleNone
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}
