// Package bridge turns a running refinement session into one ordered stream of events.
//
// The controller runs on a worker goroutine and reports through hooks. The bridge hook pushes
// every fragment, recovered draft and round announcement onto an unbounded queue, which is
// the only structure shared with the consumer. The consumer reads with Next, TryNext or All.
//
//	stream := bridge.Open(ctx, ctrl, "Canada's economy")
//	defer stream.Close()
//	for ev, err := range stream.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("[%s] %s", ev.Source, ev.Payload)
//	}
//	result, err := stream.Result()
//
// A stream is finite and not restartable. It ends after the worker finished and every queued
// event was read. Close cancels the session and always waits for the worker, so a consumer
// that walks away mid-round never leaves a goroutine behind.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/controller"
	"github.com/rickchristie/refine/internal/buffer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("bridge: stream closed")

// NewIterationFormat is the payload of the control event that announces the next round.
const NewIterationFormat = "New iteration: number %d.\n" +
	"The current draft has not met the reviewer's requirements and " +
	"maximum iterations have not been reached"

// Option configures a Stream.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	critiqueChunk int
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCritiqueChunkSize splits the end-of-round critique event into events of at most n
// characters. Zero, the default, emits the critique as one event.
func WithCritiqueChunkSize(n int) Option {
	return func(o *options) {
		o.critiqueChunk = n
	}
}

// Stream is the consumer side of one streaming session.
type Stream struct {
	queue  *buffer.Unbounded[refine.StreamEvent]
	group  *errgroup.Group
	cancel context.CancelFunc
	logger *zap.Logger

	closeOnce sync.Once
	closed    atomic.Bool

	// Written by the worker before it returns; read after group.Wait.
	result controller.Result
	err    error
}

// Open starts a session on subject and returns its stream. The session runs until it ends,
// ctx is canceled, or the stream is closed.
func Open(
	ctx context.Context,
	ctrl *controller.Controller,
	subject string,
	opts ...Option,
) *Stream {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s := &Stream{
		queue:  buffer.NewUnbounded[refine.StreamEvent](),
		group:  g,
		cancel: cancel,
		logger: o.logger,
	}
	hook := &streamHook{queue: s.queue, critiqueChunk: o.critiqueChunk}

	g.Go(func() error {
		defer s.queue.Close()

		result, err := ctrl.Run(gctx, subject, controller.WithRunHooks(hook))
		s.result, s.err = result, err
		if err != nil {
			s.queue.Push(refine.StreamEvent{
				Source:  refine.SourceError,
				Payload: err.Error(),
				Round:   result.Rounds,
			})
		}
		return err
	})
	return s
}

// Next returns the next event, waiting until one is available. It returns io.EOF once the
// session ended and every event was read, ErrClosed after Close, and ctx.Err() if ctx is done
// first. Waiting for ctx does not cancel the session.
func (s *Stream) Next(ctx context.Context) (refine.StreamEvent, error) {
	if s.closed.Load() {
		return refine.StreamEvent{}, ErrClosed
	}
	ev, err := s.queue.Pop(ctx)
	if errors.Is(err, buffer.ErrDrained) {
		_ = s.group.Wait()
		return ev, io.EOF
	}
	return ev, err
}

// TryNext returns the next event without waiting. ok is false when no event is queued right
// now; use Done to tell an empty queue from the end of the stream.
func (s *Stream) TryNext() (ev refine.StreamEvent, ok bool) {
	if s.closed.Load() {
		return ev, false
	}
	return s.queue.TryPop()
}

// Ready returns a channel that receives a token when an event may be available, and is closed
// when the session ended. Cooperative consumers select on it between TryNext calls.
func (s *Stream) Ready() <-chan struct{} {
	return s.queue.Ready()
}

// Done reports whether the session ended and every event was read.
func (s *Stream) Done() bool {
	return s.closed.Load() || s.queue.IsDrained()
}

// All returns an iterator over the remaining events. Iteration stops at the end of the stream
// or at the first error, which is yielded. Stopping early closes the stream.
func (s *Stream) All(ctx context.Context) iter.Seq2[refine.StreamEvent, error] {
	return func(yield func(refine.StreamEvent, error) bool) {
		for {
			ev, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(ev, err)
				_ = s.Close()
				return
			}
			if !yield(ev, nil) {
				_ = s.Close()
				return
			}
		}
	}
}

// Result waits for the session to end and returns its result. The error is the controller's,
// typically a *refine.ExecutorError.
func (s *Stream) Result() (controller.Result, error) {
	_ = s.group.Wait()
	return s.result, s.err
}

// Close cancels the session, waits for the worker to return and drops unread events. It is
// safe to call more than once and from any goroutine.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		_ = s.group.Wait()
		if dropped := s.queue.Discard(); dropped > 0 {
			s.logger.Debug("stream closed with unread events", zap.Int("dropped", dropped))
		}
	})
	return nil
}

// -----------------------------------------------------------------------------
// Stream Hook
// -----------------------------------------------------------------------------

// streamHook converts session hook events into stream events. The controller fires hooks
// from the worker in generation order, so push order is stream order.
type streamHook struct {
	queue         *buffer.Unbounded[refine.StreamEvent]
	critiqueChunk int
}

func (h *streamHook) OnFragment(_ context.Context, e refine.FragmentEvent) {
	h.queue.Push(refine.StreamEvent{
		Source:  refine.SourceForRole(e.Role),
		Payload: e.Text,
		Round:   e.Round,
	})
}

// OnDraftUpdated runs inside the producer to critic handoff, before the critic produced
// anything.
func (h *streamHook) OnDraftUpdated(_ context.Context, e refine.DraftUpdatedEvent) {
	h.queue.Push(refine.StreamEvent{
		Source:  refine.SourceDraftUpdate,
		Payload: e.Draft.JSON(),
		Round:   e.Round,
	})
}

func (h *streamHook) OnAfterRound(_ context.Context, e refine.AfterRoundEvent) {
	for _, chunk := range split(e.Critique.JSON(), h.critiqueChunk) {
		h.queue.Push(refine.StreamEvent{
			Source:  refine.SourceCritic,
			Payload: chunk,
			Round:   e.Round,
		})
	}
	if e.NextRound > 0 {
		h.queue.Push(refine.StreamEvent{
			Source:  refine.SourceControl,
			Payload: fmt.Sprintf(NewIterationFormat, e.NextRound),
			Round:   e.NextRound,
		})
	}
}

// split cuts s into pieces of at most n runes. n <= 0 returns s whole.
func split(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	runes := []rune(s)
	out := make([]string, 0, len(runes)/n+1)
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

var (
	_ refine.FragmentHook     = (*streamHook)(nil)
	_ refine.DraftUpdatedHook = (*streamHook)(nil)
	_ refine.AfterRoundHook   = (*streamHook)(nil)
	_ io.Closer               = (*Stream)(nil)
)
