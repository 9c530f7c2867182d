package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, b *Unbounded[int]) []int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := []int{}
	for {
		item, err := b.Pop(ctx)
		if errors.Is(err, ErrDrained) {
			return received
		}
		require.NoError(t, err)
		received = append(received, item)
	}
}

func TestUnbounded_PushPop(t *testing.T) {
	type input struct {
		items []int
	}

	type expected struct {
		received []int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "pops items in push order",
			input:    input{items: []int{1, 2, 3}},
			expected: expected{received: []int{1, 2, 3}},
		},
		{
			name:     "empty buffer",
			input:    input{items: []int{}},
			expected: expected{received: []int{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewUnbounded[int]()

			for _, item := range tt.input.items {
				buf.Push(item)
			}
			buf.Close()

			assert.Equal(t, tt.expected.received, drain(t, buf))
			assert.True(t, buf.IsDrained())
		})
	}
}

func TestUnbounded_PushNeverBlocks(t *testing.T) {
	buf := NewUnbounded[int]()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			buf.Push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Push blocked without a consumer")
	}
	assert.Equal(t, 10000, buf.Len())
}

func TestUnbounded_ConcurrentProducerKeepsOrder(t *testing.T) {
	buf := NewUnbounded[int]()

	go func() {
		defer buf.Close()
		for i := 0; i < 5000; i++ {
			buf.Push(i)
		}
	}()

	received := drain(t, buf)
	require.Len(t, received, 5000)
	for i, v := range received {
		assert.Equal(t, i, v)
	}
}

func TestUnbounded_TryPop(t *testing.T) {
	buf := NewUnbounded[int]()

	_, ok := buf.TryPop()
	assert.False(t, ok)

	buf.Push(7)
	v, ok := buf.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = buf.TryPop()
	assert.False(t, ok)
}

func TestUnbounded_PopHonorsContext(t *testing.T) {
	buf := NewUnbounded[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := buf.Pop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnbounded_PopWakesOnPush(t *testing.T) {
	buf := NewUnbounded[int]()

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	var err error
	go func() {
		defer wg.Done()
		got, err = buf.Pop(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Push(42)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestUnbounded_PushAfterClose(t *testing.T) {
	buf := NewUnbounded[int]()
	buf.Push(1)
	buf.Close()
	buf.Push(2)

	assert.Equal(t, []int{1}, drain(t, buf))
}

func TestUnbounded_DoubleClose(t *testing.T) {
	buf := NewUnbounded[int]()
	buf.Close()
	buf.Close()

	assert.True(t, buf.IsClosed())
}

func TestUnbounded_Discard(t *testing.T) {
	buf := NewUnbounded[int]()
	buf.Push(1)
	buf.Push(2)
	_, _ = buf.TryPop()
	buf.Push(3)

	assert.Equal(t, 2, buf.Discard())
	assert.Equal(t, 0, buf.Len())

	buf.Close()
	assert.True(t, buf.IsDrained())
}

func TestUnbounded_ReadyClosedOnClose(t *testing.T) {
	buf := NewUnbounded[int]()
	buf.Close()

	select {
	case _, ok := <-buf.Ready():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Ready was not closed")
	}
}
