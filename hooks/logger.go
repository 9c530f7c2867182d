package hooks

import (
	"context"

	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/render"
	"go.uber.org/zap"
)

// LoggerHook implements every hook interface and logs each event with structured fields.
//
// Fragments are logged at debug level since a session produces thousands of them. Draft
// updates are logged with a unified diff against the previous draft.
type LoggerHook struct {
	logger *zap.Logger
}

// NewLoggerHook creates a LoggerHook. A nil logger logs nothing.
func NewLoggerHook(logger *zap.Logger) *LoggerHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerHook{logger: logger}
}

// OnBeforeRound logs the round start.
func (h *LoggerHook) OnBeforeRound(_ context.Context, e refine.BeforeRoundEvent) {
	h.logger.Info("round started",
		zap.Int("round", e.Round),
		zap.Int("sections", len(e.Draft.Sections)),
		zap.Int("feedback_bytes", len(e.Feedback)),
	)
}

// OnRoleChange logs role transitions.
func (h *LoggerHook) OnRoleChange(_ context.Context, e refine.RoleChangeEvent) {
	h.logger.Debug("role changed",
		zap.Int("round", e.Round),
		zap.String("from", string(e.From)),
		zap.String("to", string(e.To)),
	)
}

// OnFragment logs each fragment at debug level.
func (h *LoggerHook) OnFragment(_ context.Context, e refine.FragmentEvent) {
	if ce := h.logger.Check(zap.DebugLevel, "fragment"); ce != nil {
		ce.Write(
			zap.Int("round", e.Round),
			zap.String("role", string(e.Role)),
			zap.String("text", e.Text),
		)
	}
}

// OnDraftUpdated logs the new draft and its diff against the previous one.
func (h *LoggerHook) OnDraftUpdated(_ context.Context, e refine.DraftUpdatedEvent) {
	fields := []zap.Field{
		zap.Int("round", e.Round),
		zap.String("title", e.Draft.Title),
		zap.Int("sections", len(e.Draft.Sections)),
	}
	diff, err := render.Diff(e.Previous, e.Draft)
	if err != nil {
		fields = append(fields, zap.NamedError("diff_error", err))
	} else {
		fields = append(fields, zap.String("diff", diff))
	}
	h.logger.Info("draft updated", fields...)
}

// OnRecoveryFailed logs unrecoverable output as a warning.
func (h *LoggerHook) OnRecoveryFailed(_ context.Context, e refine.RecoveryFailedEvent) {
	h.logger.Warn("output could not be recovered",
		zap.Int("round", e.Round),
		zap.String("role", string(e.Role)),
		zap.Error(e.Err),
	)
}

// OnAfterRound logs the critique rating and what happens next.
func (h *LoggerHook) OnAfterRound(_ context.Context, e refine.AfterRoundEvent) {
	h.logger.Info("round evaluated",
		zap.Int("round", e.Round),
		zap.Int("rating", e.Critique.Rating),
		zap.Int("comments", len(e.Critique.Comments)),
		zap.Int("next_round", e.NextRound),
		zap.String("reason", string(e.Reason)),
	)
}

// OnTermination logs how the session ended.
func (h *LoggerHook) OnTermination(_ context.Context, e refine.TerminationEvent) {
	fields := []zap.Field{
		zap.Int("rounds", e.Rounds),
		zap.String("reason", string(e.Reason)),
		zap.String("title", e.Draft.Title),
	}
	if e.Err != nil {
		h.logger.Error("session failed", append(fields, zap.Error(e.Err))...)
		return
	}
	h.logger.Info("session finished", fields...)
}

var (
	_ refine.BeforeRoundHook    = (*LoggerHook)(nil)
	_ refine.RoleChangeHook     = (*LoggerHook)(nil)
	_ refine.FragmentHook       = (*LoggerHook)(nil)
	_ refine.DraftUpdatedHook   = (*LoggerHook)(nil)
	_ refine.RecoveryFailedHook = (*LoggerHook)(nil)
	_ refine.AfterRoundHook     = (*LoggerHook)(nil)
	_ refine.TerminationHook    = (*LoggerHook)(nil)
)
