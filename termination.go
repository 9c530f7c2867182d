package refine

// TerminationReason indicates why a session ended.
type TerminationReason string

const (
	// ReasonThresholdMet indicates a critique reached the configured threshold.
	ReasonThresholdMet TerminationReason = "threshold-met"

	// ReasonExhausted indicates the round budget ran out before the threshold was met.
	// The last draft is still a valid result.
	ReasonExhausted TerminationReason = "exhausted"

	// ReasonError indicates the round executor failed and the session was aborted.
	ReasonError TerminationReason = "error"
)
