// Package controller implements the iteration state machine that drives a refinement session:
// draft, critique, evaluate, and either stop or start the next round.
//
// A session starts in Drafting(1) with an empty draft and empty feedback. Each round invokes
// the round executor once. The draft is recovered when the executor hands over from the
// producer to the critic role; the critique is recovered after the executor returns. The
// session ends as soon as a critique rating reaches the threshold, or when the round budget is
// used up.
//
// Recovery failures never end a session. A draft that cannot be recovered leaves the previous
// draft in place, and a critique that cannot be recovered counts as rating 0. Both still use
// up the round. Only an executor error aborts the session.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/elempath"
	"github.com/rickchristie/refine/hooks"
	"github.com/rickchristie/refine/recovery"
	"go.uber.org/zap"
)

// ErrRunning is returned by Run when the controller is already running a session.
var ErrRunning = errors.New("controller: session already running")

// Result is the outcome of a finished session.
type Result struct {
	// Draft is the last successfully recovered draft. It may be empty if no round produced a
	// recoverable draft.
	Draft refine.Draft

	// Reason tells whether the threshold was met, the budget ran out, or the executor failed.
	Reason refine.TerminationReason

	// Rounds is the number of rounds that ran.
	Rounds int

	// Critique is the resolved critique of the last evaluated round.
	Critique refine.Critique
}

// Controller runs refinement sessions against a round executor.
//
// A Controller can be reused for any number of sessions, one at a time. Draft and feedback are
// reset at the start of each session.
type Controller struct {
	exec    refine.RoundExecutor
	config  refine.Config
	hooks   *hooks.Registry
	logger  *zap.Logger
	running atomic.Bool
	state   *state
}

// New creates a Controller. Zero fields in cfg take their defaults when a session starts.
func New(exec refine.RoundExecutor, cfg refine.Config) *Controller {
	return &Controller{
		exec:   exec,
		config: cfg,
		hooks:  hooks.NewRegistry(),
		logger: zap.NewNop(),
		state:  newState(),
	}
}

// WithHooks replaces the controller's hook registry with the provided one.
// Use this when you need to share a registry across multiple controllers.
// Returns the controller for chaining.
func (c *Controller) WithHooks(h *hooks.Registry) *Controller {
	c.hooks = h
	return c
}

// RegisterHook adds a hook to the controller's existing hook registry.
// The hook can implement any combination of hook interfaces.
// Returns the controller for chaining.
func (c *Controller) RegisterHook(hook any) *Controller {
	if c.hooks == nil {
		c.hooks = hooks.NewRegistry()
	}
	c.hooks.Register(hook)
	return c
}

// WithLogger sets the logger. Returns the controller for chaining.
func (c *Controller) WithLogger(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// Config returns the effective configuration, with defaults applied.
func (c *Controller) Config() refine.Config {
	return c.config.WithDefaults()
}

// Snapshot returns a copy of the current session state. It is safe to call while a session
// runs.
func (c *Controller) Snapshot() Snapshot {
	return c.state.snapshot()
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	hooks []any
}

// WithRunHooks attaches hooks for the duration of one Run. They fire after the controller's
// own hooks and are not visible to other sessions.
func WithRunHooks(h ...any) RunOption {
	return func(o *runOptions) {
		o.hooks = append(o.hooks, h...)
	}
}

// Run drives one session on subject until it ends.
//
// When the session ends normally the error is nil and Result.Reason is
// [refine.ReasonThresholdMet] or [refine.ReasonExhausted]. When the executor fails, or ctx is
// canceled between rounds, Run returns a *[refine.ExecutorError] together with a Result holding
// the last good draft.
func (c *Controller) Run(ctx context.Context, subject string, opts ...RunOption) (Result, error) {
	cfg := c.config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if !c.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunning
	}
	defer c.running.Store(false)

	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	reg := c.hooks.With(ro.hooks...)

	c.state.reset()
	logger := c.logger.With(zap.Int("max_iters", cfg.MaxIters), zap.Int("threshold", cfg.Threshold))
	logger.Debug("session started")

	for round := 1; ; round++ {
		c.state.enter(PhaseDrafting, round)

		text, err := c.runRound(ctx, reg, subject, round)
		if err != nil {
			execErr := &refine.ExecutorError{Round: round, Err: err}
			return c.finish(ctx, reg, PhaseFailed, round, refine.ReasonError, refine.Critique{}, execErr)
		}

		c.state.enter(PhaseEvaluating, round)
		critique := c.evaluate(ctx, reg, round, text)

		event := refine.AfterRoundEvent{
			Round:    round,
			Critique: critique,
			Feedback: c.state.snapshot().Feedback,
		}
		switch {
		case critique.Rating >= cfg.Threshold:
			event.Reason = refine.ReasonThresholdMet
		case round >= cfg.MaxIters:
			event.Reason = refine.ReasonExhausted
		default:
			event.NextRound = round + 1
		}
		reg.FireAfterRound(ctx, event)

		switch event.Reason {
		case refine.ReasonThresholdMet:
			return c.finish(ctx, reg, PhaseDone, round, event.Reason, critique, nil)
		case refine.ReasonExhausted:
			return c.finish(ctx, reg, PhaseExhausted, round, event.Reason, critique, nil)
		}
	}
}

// runRound invokes the executor for one round and returns the raw critique text. Draft
// recovery happens inside, on the producer to critic handoff.
func (c *Controller) runRound(
	ctx context.Context,
	reg *hooks.Registry,
	subject string,
	round int,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	snap := c.state.snapshot()
	reg.FireBeforeRound(ctx, refine.BeforeRoundEvent{
		Round:    round,
		Subject:  subject,
		Draft:    snap.Draft,
		Feedback: snap.Feedback,
	})

	in := refine.RoundInput{
		Subject:  subject,
		Round:    round,
		Feedback: snap.Feedback,
	}
	if !snap.Draft.IsZero() {
		in.Draft = snap.Draft.JSON()
	}

	rec := &roundRecorder{ctrl: c, ctx: ctx, reg: reg, round: round}
	sub := refine.NewSubscription(rec.onRole, rec.onFragment)

	out, err := c.exec.ExecuteRound(ctx, in, sub)
	if err != nil {
		return "", err
	}

	// The executor never handed over to the critic while producer text was buffered.
	if !rec.draftAttempted {
		producer := out.Producer
		if producer == "" {
			producer = rec.producer.String()
		}
		rec.recoverDraft(producer)
	}

	if out.Critic != "" {
		return out.Critic, nil
	}
	return rec.critic.String(), nil
}

// evaluate recovers the critique, resolves its element paths against the current draft and
// replaces the feedback. A critique that cannot be recovered leaves feedback unchanged and
// rates 0.
func (c *Controller) evaluate(
	ctx context.Context,
	reg *hooks.Registry,
	round int,
	text string,
) refine.Critique {
	critique, err := recovery.Critique(text)
	if err != nil {
		c.logger.Debug("critique recovery failed", zap.Int("round", round), zap.Error(err))
		reg.FireRecoveryFailed(ctx, refine.RecoveryFailedEvent{
			Round: round,
			Role:  refine.RoleCritic,
			Err:   err,
		})
		return refine.Critique{Comments: []refine.Comment{}}
	}

	tree := c.state.currentDraft().Tree()
	resolved := make([]refine.Comment, len(critique.Comments))
	for i, cm := range critique.Comments {
		resolved[i] = cm
		if cm.Element != "" {
			resolved[i].Element = elempath.Resolve(tree, cm.Element)
		}
	}
	critique.Comments = resolved
	c.state.setFeedback(refine.FormatFeedback(resolved))
	return critique
}

func (c *Controller) finish(
	ctx context.Context,
	reg *hooks.Registry,
	phase Phase,
	round int,
	reason refine.TerminationReason,
	critique refine.Critique,
	err error,
) (Result, error) {
	c.state.enter(phase, round)
	result := Result{
		Draft:    c.state.currentDraft().Clone(),
		Reason:   reason,
		Rounds:   round,
		Critique: critique,
	}
	reg.FireTermination(ctx, refine.TerminationEvent{
		Rounds: round,
		Reason: reason,
		Draft:  result.Draft,
		Err:    err,
	})
	if err != nil {
		c.logger.Warn("session failed", zap.Int("round", round), zap.Error(err))
		return result, err
	}
	c.logger.Debug("session finished",
		zap.Int("rounds", round),
		zap.String("reason", string(reason)),
		zap.Int("rating", critique.Rating),
	)
	return result, nil
}

// -----------------------------------------------------------------------------
// Round Recorder
// -----------------------------------------------------------------------------

// roundRecorder receives the subscription callbacks of one executor invocation. The
// subscription serializes the callbacks, so the buffers need no lock of their own.
type roundRecorder struct {
	ctrl  *Controller
	ctx   context.Context
	reg   *hooks.Registry
	round int

	producer strings.Builder
	critic   strings.Builder

	draftAttempted bool
}

func (r *roundRecorder) onRole(from, to refine.Role) {
	r.reg.FireRoleChange(r.ctx, refine.RoleChangeEvent{Round: r.round, From: from, To: to})

	// Recover eagerly so the new draft is announced before the first critic fragment.
	if from == refine.RoleProducer && !r.draftAttempted && r.producer.Len() > 0 {
		r.recoverDraft(r.producer.String())
	}
}

func (r *roundRecorder) onFragment(role refine.Role, text string) {
	switch role {
	case refine.RoleProducer:
		r.producer.WriteString(text)
	case refine.RoleCritic:
		r.critic.WriteString(text)
	}
	r.reg.FireFragment(r.ctx, refine.FragmentEvent{Round: r.round, Role: role, Text: text})
}

// recoverDraft swaps in the draft recovered from text. On failure the previous draft stays.
// Either way the round moves on to the critic.
func (r *roundRecorder) recoverDraft(text string) {
	r.draftAttempted = true

	d, err := recovery.Draft(text)
	if err != nil {
		r.ctrl.state.enter(PhaseCritiquing, r.round)
		r.ctrl.logger.Debug("draft recovery failed", zap.Int("round", r.round), zap.Error(err))
		r.reg.FireRecoveryFailed(r.ctx, refine.RecoveryFailedEvent{
			Round: r.round,
			Role:  refine.RoleProducer,
			Err:   err,
		})
		return
	}

	prev := r.ctrl.state.swapDraft(d)
	r.ctrl.state.enter(PhaseCritiquing, r.round)
	r.reg.FireDraftUpdated(r.ctx, refine.DraftUpdatedEvent{
		Round:    r.round,
		Previous: prev,
		Draft:    d.Clone(),
	})
}
