// Package hooks provides a registry for refinement session hooks, and a structured logging
// hook.
//
// Hooks observe a session as it runs. Each hook interface corresponds to a specific event
// type - implement only the interfaces you need.
//
// # Hook Interfaces
//
// Round lifecycle hooks:
//   - [refine.BeforeRoundHook] - Called before the round executor is invoked
//   - [refine.AfterRoundHook] - Called after the round's critique was evaluated
//
// Executor progress hooks:
//   - [refine.RoleChangeHook] - Called when the producing role changes
//   - [refine.FragmentHook] - Called for every produced text fragment
//
// Draft state hooks:
//   - [refine.DraftUpdatedHook] - Called when a recovered draft replaced the current one
//   - [refine.RecoveryFailedHook] - Called when output could not be recovered
//
// Session hooks:
//   - [refine.TerminationHook] - Called once when the session ends
//
// # Creating a Hook
//
//	type RatingHook struct{}
//
//	func (h *RatingHook) OnAfterRound(ctx context.Context, event refine.AfterRoundEvent) {
//	    metrics.RecordRating(event.Round, event.Critique.Rating)
//	}
//
//	// Compile-time check
//	var _ refine.AfterRoundHook = (*RatingHook)(nil)
//
// # Logging
//
// [LoggerHook] implements every interface and logs each event with zap. Draft updates are
// logged with a unified diff against the previous draft.
package hooks
