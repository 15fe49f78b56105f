package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesItems(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{}, 2)

	q := New("test", func(ctx context.Context, item string) error {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, Options{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for items")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])
}

func TestQueueRetriesFailedItems(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q := New("retry", func(ctx context.Context, item int) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Options{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("item never succeeded")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := New("idle", func(ctx context.Context, item string) error { return nil }, Options{})
	err := q.Enqueue("x")
	assert.Error(t, err)
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	q := New("stopped", func(ctx context.Context, item string) error { return nil }, Options{Workers: 1})
	q.Start(context.Background())
	q.Stop()

	err := q.Enqueue("x")
	assert.Error(t, err)
}
