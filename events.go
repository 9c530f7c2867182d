package refine

// -----------------------------------------------------------------------------
// Hook Event Interface
// -----------------------------------------------------------------------------

// HookEvent is a marker interface for all hook events.
type HookEvent interface {
	hookEvent()
}

// -----------------------------------------------------------------------------
// Round Events
// -----------------------------------------------------------------------------

// BeforeRoundEvent is emitted before the round executor is invoked.
type BeforeRoundEvent struct {
	// Round is the current round number (1-indexed).
	Round int

	// Subject is the session subject text.
	Subject string

	// Draft is the draft the round starts from. Zero in round 1.
	Draft Draft

	// Feedback is the feedback the round starts from. Empty in round 1.
	Feedback string
}

func (BeforeRoundEvent) hookEvent() {}

// RoleChangeEvent is emitted when the round executor switches its active role.
type RoleChangeEvent struct {
	Round int
	From  Role
	To    Role
}

func (RoleChangeEvent) hookEvent() {}

// FragmentEvent is emitted for every text fragment reported by the round executor.
type FragmentEvent struct {
	Round int

	// Role is the role that was active when the fragment was reported.
	Role Role

	Text string
}

func (FragmentEvent) hookEvent() {}

// DraftUpdatedEvent is emitted when a newly recovered draft replaced the current one.
//
// It is fired from inside the producer to critic transition, so every hook sees it after the
// last producer fragment and before the first critic fragment of the round.
type DraftUpdatedEvent struct {
	Round int

	// Previous is the draft that was replaced.
	Previous Draft

	// Draft is the new current draft.
	Draft Draft
}

func (DraftUpdatedEvent) hookEvent() {}

// RecoveryFailedEvent is emitted when producer or critic output could not be recovered.
// The session continues; the failed output is treated as no update.
type RecoveryFailedEvent struct {
	Round int

	// Role identifies whose output failed to recover.
	Role Role

	// Err is the recovery error. It carries the original text.
	Err error
}

func (RecoveryFailedEvent) hookEvent() {}

// AfterRoundEvent is emitted once a round was evaluated.
type AfterRoundEvent struct {
	Round int

	// Critique is the round's critique with element paths resolved to draft text.
	Critique Critique

	// Feedback is the feedback carried into the next round.
	Feedback string

	// NextRound is the number of the round that follows, or 0 when the session ends here.
	NextRound int

	// Reason is set when the session ends with this round.
	Reason TerminationReason
}

func (AfterRoundEvent) hookEvent() {}

// TerminationEvent is emitted exactly once when a session ends, successfully or not.
type TerminationEvent struct {
	// Rounds is the number of rounds that ran.
	Rounds int

	Reason TerminationReason

	// Draft is the final draft.
	Draft Draft

	// Err is the executor error when Reason is ReasonError.
	Err error
}

func (TerminationEvent) hookEvent() {}
