package refine

import (
	"context"
)

// -----------------------------------------------------------------------------
// Controller Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe a refinement session. To use hooks:
//
//  1. Implement the desired hook interface(s)
//  2. Register with hooks.Registry
//  3. Pass the registry to controller.Controller.WithHooks
//
// Example:
//
//	type RatingHook struct {
//	    logger *zap.Logger
//	}
//
//	func (h *RatingHook) OnAfterRound(ctx context.Context, e refine.AfterRoundEvent) {
//	    h.logger.Info("round rated", zap.Int("round", e.Round), zap.Int("rating", e.Critique.Rating))
//	}
//
//	registry := hooks.NewRegistry()
//	registry.Register(&RatingHook{logger: logger})
//	ctrl := controller.New(exec, cfg).WithHooks(registry)
//
// # Hook Execution Order
//
// Hooks are called in registration order, synchronously, on the goroutine that runs the
// session. A slow hook slows the session down.
//
// # Error Handling
//
// Hooks do not return errors. A panicking hook propagates to the caller of Run.
//
// # Available Hooks
//
//   - Round lifecycle: [BeforeRoundHook], [AfterRoundHook]
//   - Executor progress: [RoleChangeHook], [FragmentHook]
//   - Draft state: [DraftUpdatedHook], [RecoveryFailedHook]
//   - Session end: [TerminationHook]
// -----------------------------------------------------------------------------

// BeforeRoundHook is implemented by hooks that want to be notified before each round.
type BeforeRoundHook interface {
	OnBeforeRound(ctx context.Context, event BeforeRoundEvent)
}

// RoleChangeHook is implemented by hooks that track which role is producing text.
type RoleChangeHook interface {
	OnRoleChange(ctx context.Context, event RoleChangeEvent)
}

// FragmentHook is implemented by hooks that receive every produced text fragment.
//
// Fragments arrive in the order the round executor reported them.
type FragmentHook interface {
	OnFragment(ctx context.Context, event FragmentEvent)
}

// DraftUpdatedHook is implemented by hooks that want every newly recovered draft.
type DraftUpdatedHook interface {
	OnDraftUpdated(ctx context.Context, event DraftUpdatedEvent)
}

// RecoveryFailedHook is implemented by hooks that want to know about unrecoverable output.
type RecoveryFailedHook interface {
	OnRecoveryFailed(ctx context.Context, event RecoveryFailedEvent)
}

// AfterRoundHook is implemented by hooks that want each round's evaluated critique.
type AfterRoundHook interface {
	OnAfterRound(ctx context.Context, event AfterRoundEvent)
}

// TerminationHook is implemented by hooks that want to know how a session ended.
type TerminationHook interface {
	OnTermination(ctx context.Context, event TerminationEvent)
}
