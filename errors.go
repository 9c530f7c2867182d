package refine

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate errors.
var ErrInvalidConfig = errors.New("invalid refine config")

// ExecutorError reports that the round executor could not run a round. It is fatal to the
// session.
type ExecutorError struct {
	// Round is the 1-indexed round that failed.
	Round int

	// Err is the underlying failure.
	Err error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("round %d: executor failed: %v", e.Round, e.Err)
}

func (e *ExecutorError) Unwrap() error {
	return e.Err
}
