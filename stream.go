package refine

// Source tags the origin of a StreamEvent.
type Source string

const (
	// SourceProducer marks a fragment emitted while the draft-producing role is active.
	SourceProducer Source = "producer"

	// SourceCritic marks a fragment emitted while the critique-producing role is active, and
	// the resolved critique emitted at the end of each round.
	SourceCritic Source = "critic"

	// SourceDraftUpdate marks the synthetic event carrying a newly recovered draft as JSON.
	SourceDraftUpdate Source = "draft-update"

	// SourceControl marks synthetic round announcements, and fragments emitted before any role
	// became active.
	SourceControl Source = "control"

	// SourceError marks the terminal event of a session that failed.
	SourceError Source = "error"
)

// StreamEvent is one ordered unit of output delivered to a stream consumer.
type StreamEvent struct {
	Source  Source `json:"source"`
	Payload string `json:"payload"`
	Round   int    `json:"round"`
}

// SourceForRole maps an active role to the Source its fragments are tagged with.
func SourceForRole(r Role) Source {
	switch r {
	case RoleProducer:
		return SourceProducer
	case RoleCritic:
		return SourceCritic
	default:
		return SourceControl
	}
}
