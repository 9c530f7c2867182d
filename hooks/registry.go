package hooks

import (
	"context"

	"github.com/rickchristie/refine"
)

// Registry manages a collection of hooks and dispatches events to them.
//
// # Overview
//
// Registry is the central coordination point for hooks. It:
//   - Stores registered hooks in order
//   - Dispatches events to hooks that implement the relevant interface
//
// Hooks can implement any combination of hook interfaces - they only receive
// events for the interfaces they implement.
//
// # Creating and Using
//
//	registry := hooks.NewRegistry()
//	registry.Register(hooks.NewLoggerHook(logger))
//
//	ctrl := controller.New(exec, cfg).WithHooks(registry)
//
// # Scoped Hooks
//
// [Registry.With] returns a new registry holding the existing hooks plus extra ones, without
// modifying the receiver. The streaming bridge uses it to attach a per-stream hook for the
// duration of one session, so two sessions never see each other's callbacks.
//
// # Thread Safety
//
// Registry is NOT thread-safe for registration. Register all hooks before starting a session.
// Fire methods may be called concurrently once registration is done.
type Registry struct {
	hooks []any
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]any, 0),
	}
}

// Register adds a hook to the registry. The hook can implement any combination
// of hook interfaces (refine.BeforeRoundHook, refine.FragmentHook, etc.).
//
// Hooks are called in the order they are registered.
func (r *Registry) Register(hook any) *Registry {
	r.hooks = append(r.hooks, hook)
	return r
}

// With returns a new Registry with the receiver's hooks followed by extra.
// The receiver is not modified. A nil receiver behaves like an empty registry.
func (r *Registry) With(extra ...any) *Registry {
	out := NewRegistry()
	if r != nil {
		out.hooks = append(out.hooks, r.hooks...)
	}
	out.hooks = append(out.hooks, extra...)
	return out
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.hooks)
}

// FireBeforeRound dispatches a BeforeRoundEvent to all registered
// BeforeRoundHook implementations.
func (r *Registry) FireBeforeRound(ctx context.Context, event refine.BeforeRoundEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.BeforeRoundHook); ok {
			hook.OnBeforeRound(ctx, event)
		}
	}
}

// FireRoleChange dispatches a RoleChangeEvent to all registered
// RoleChangeHook implementations.
func (r *Registry) FireRoleChange(ctx context.Context, event refine.RoleChangeEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.RoleChangeHook); ok {
			hook.OnRoleChange(ctx, event)
		}
	}
}

// FireFragment dispatches a FragmentEvent to all registered FragmentHook implementations.
func (r *Registry) FireFragment(ctx context.Context, event refine.FragmentEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.FragmentHook); ok {
			hook.OnFragment(ctx, event)
		}
	}
}

// FireDraftUpdated dispatches a DraftUpdatedEvent to all registered
// DraftUpdatedHook implementations.
func (r *Registry) FireDraftUpdated(ctx context.Context, event refine.DraftUpdatedEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.DraftUpdatedHook); ok {
			hook.OnDraftUpdated(ctx, event)
		}
	}
}

// FireRecoveryFailed dispatches a RecoveryFailedEvent to all registered
// RecoveryFailedHook implementations.
// This is informational only; the session continues.
func (r *Registry) FireRecoveryFailed(ctx context.Context, event refine.RecoveryFailedEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.RecoveryFailedHook); ok {
			hook.OnRecoveryFailed(ctx, event)
		}
	}
}

// FireAfterRound dispatches an AfterRoundEvent to all registered AfterRoundHook implementations.
func (r *Registry) FireAfterRound(ctx context.Context, event refine.AfterRoundEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.AfterRoundHook); ok {
			hook.OnAfterRound(ctx, event)
		}
	}
}

// FireTermination dispatches a TerminationEvent to all registered
// TerminationHook implementations.
func (r *Registry) FireTermination(ctx context.Context, event refine.TerminationEvent) {
	for _, h := range r.all() {
		if hook, ok := h.(refine.TerminationHook); ok {
			hook.OnTermination(ctx, event)
		}
	}
}

func (r *Registry) all() []any {
	if r == nil {
		return nil
	}
	return r.hooks
}
