// Package buffer provides the queue that decouples a producing goroutine from a consumer.
package buffer

import (
	"context"
	"errors"
	"sync"
)

// ErrDrained is returned by Pop once the buffer is closed and every item was consumed.
var ErrDrained = errors.New("buffer closed and drained")

// Unbounded is a first-in-first-out queue with non-blocking pushes and unlimited buffering.
// Producers never wait for consumers, so a producer can always run to completion even when
// nobody reads any more.
//
// It is meant for one producer and one consumer. The consumer either polls with TryPop or
// parks in Pop, which also returns when its context is done.
//
// Usage:
//
//	q := buffer.NewUnbounded[Event]()
//	go func() {
//	    defer q.Close()
//	    q.Push(ev1) // Never blocks
//	    q.Push(ev2)
//	}()
//	for {
//	    ev, err := q.Pop(ctx)
//	    if errors.Is(err, buffer.ErrDrained) {
//	        break
//	    }
//	    // Process ev
//	}
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool

	// ready holds at most one wake-up token. It is closed by Close.
	ready chan struct{}
}

// NewUnbounded creates an empty, open buffer.
func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		items: make([]T, 0, 64),
		ready: make(chan struct{}, 1),
	}
}

// Push appends an item. It never blocks and is safe to call from any goroutine.
// Items pushed after Close are dropped.
func (b *Unbounded[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.items = append(b.items, item)
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the oldest item without blocking. It reports false when the
// buffer is empty.
func (b *Unbounded[T]) TryPop() (T, bool) {
	item, ok, _ := b.tryPop()
	return item, ok
}

func (b *Unbounded[T]) tryPop() (item T, ok bool, closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.head == len(b.items) {
		return item, false, b.closed
	}
	item = b.items[b.head]
	var zero T
	b.items[b.head] = zero
	b.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if b.head == len(b.items) {
		b.items = b.items[:0]
		b.head = 0
	} else if b.head > 1024 && b.head*2 > len(b.items) {
		n := copy(b.items, b.items[b.head:])
		b.items = b.items[:n]
		b.head = 0
	}
	return item, true, b.closed
}

// Pop removes and returns the oldest item, waiting until one is available. It returns
// ErrDrained when the buffer is closed and empty, and ctx.Err() when ctx is done first.
func (b *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	for {
		item, ok, closed := b.tryPop()
		if ok {
			return item, nil
		}
		if closed {
			return item, ErrDrained
		}
		select {
		case <-b.ready:
		case <-ctx.Done():
			return item, ctx.Err()
		}
	}
}

// Ready returns a channel that receives a token after a push and is closed by Close. A token
// means an item may be available; confirm with TryPop.
func (b *Unbounded[T]) Ready() <-chan struct{} {
	return b.ready
}

// Close marks the buffer as closed. Items already queued can still be popped.
// It's safe to call multiple times.
func (b *Unbounded[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.ready)
}

// Discard drops every queued item and returns how many were dropped.
func (b *Unbounded[T]) Discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items) - b.head
	clear(b.items)
	b.items = b.items[:0]
	b.head = 0
	return n
}

// Len returns the number of queued items.
func (b *Unbounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) - b.head
}

// IsClosed returns true if the buffer has been closed.
func (b *Unbounded[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// IsDrained returns true if the buffer is closed and empty.
func (b *Unbounded[T]) IsDrained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed && b.head == len(b.items)
}
