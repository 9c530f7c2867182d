package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/rickchristie/refine"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// roundRecorder only implements the round lifecycle hooks.
type roundRecorder struct {
	calls []string
}

func (r *roundRecorder) OnBeforeRound(_ context.Context, e refine.BeforeRoundEvent) {
	r.calls = append(r.calls, "before")
}

func (r *roundRecorder) OnAfterRound(_ context.Context, e refine.AfterRoundEvent) {
	r.calls = append(r.calls, "after")
}

// fragmentRecorder only implements FragmentHook.
type fragmentRecorder struct {
	texts []string
}

func (r *fragmentRecorder) OnFragment(_ context.Context, e refine.FragmentEvent) {
	r.texts = append(r.texts, e.Text)
}

func TestRegistry_DispatchesByInterface(t *testing.T) {
	rounds := &roundRecorder{}
	fragments := &fragmentRecorder{}
	reg := NewRegistry().Register(rounds).Register(fragments)
	ctx := context.Background()

	reg.FireBeforeRound(ctx, refine.BeforeRoundEvent{Round: 1})
	reg.FireFragment(ctx, refine.FragmentEvent{Round: 1, Text: "a"})
	reg.FireDraftUpdated(ctx, refine.DraftUpdatedEvent{Round: 1})
	reg.FireAfterRound(ctx, refine.AfterRoundEvent{Round: 1})
	reg.FireTermination(ctx, refine.TerminationEvent{Rounds: 1})

	assert.Equal(t, []string{"before", "after"}, rounds.calls)
	assert.Equal(t, []string{"a"}, fragments.texts)
}

func TestRegistry_WithDoesNotModifyReceiver(t *testing.T) {
	base := NewRegistry().Register(&roundRecorder{})
	scoped := base.With(&fragmentRecorder{}, &fragmentRecorder{})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 3, scoped.Len())

	var nilRegistry *Registry
	assert.Equal(t, 1, nilRegistry.With(&roundRecorder{}).Len())
	assert.Equal(t, 0, nilRegistry.Len())
	nilRegistry.FireFragment(context.Background(), refine.FragmentEvent{})
}

func TestRegistry_CallsHooksInRegistrationOrder(t *testing.T) {
	var order []int
	reg := NewRegistry()
	for i := 1; i <= 3; i++ {
		reg.Register(orderHook(func() { order = append(order, i) }))
	}

	reg.FireTermination(context.Background(), refine.TerminationEvent{})

	assert.Equal(t, []int{1, 2, 3}, order)
}

type orderHook func()

func (h orderHook) OnTermination(context.Context, refine.TerminationEvent) { h() }

func TestLoggerHook(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := NewLoggerHook(zap.New(core))
	reg := NewRegistry().Register(hook)
	ctx := context.Background()

	prev := refine.Draft{Title: "Old", Sections: []refine.Section{}}
	next := refine.Draft{Title: "New", Sections: []refine.Section{}}

	reg.FireBeforeRound(ctx, refine.BeforeRoundEvent{Round: 1})
	reg.FireFragment(ctx, refine.FragmentEvent{Round: 1, Role: refine.RoleProducer, Text: "{"})
	reg.FireDraftUpdated(ctx, refine.DraftUpdatedEvent{Round: 1, Previous: prev, Draft: next})
	reg.FireRecoveryFailed(ctx, refine.RecoveryFailedEvent{
		Round: 1,
		Role:  refine.RoleCritic,
		Err:   errors.New("bad critique"),
	})
	reg.FireAfterRound(ctx, refine.AfterRoundEvent{Round: 1, NextRound: 2})
	reg.FireTermination(ctx, refine.TerminationEvent{
		Rounds: 1,
		Reason: refine.ReasonError,
		Err:    errors.New("boom"),
	})

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{
		"round started",
		"fragment",
		"draft updated",
		"output could not be recovered",
		"round evaluated",
		"session failed",
	}, messages)

	updated := logs.FilterMessage("draft updated").All()[0]
	assert.Contains(t, updated.ContextMap()["diff"], "+# New")

	failed := logs.FilterMessage("session failed").All()[0]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
}

func TestNewLoggerHook_NilLogger(t *testing.T) {
	hook := NewLoggerHook(nil)
	hook.OnTermination(context.Background(), refine.TerminationEvent{})
}
