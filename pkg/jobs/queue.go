package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes a single queued item.
type Handler[T any] func(context.Context, T) error

// Options configures worker pool behaviour.
type Options struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type envelope[T any] struct {
	item    T
	attempt int
}

// Queue is an in-memory dispatcher that fans queued items out to a fixed
// pool of worker goroutines. Failed items are retried with a delay up to
// MaxRetries before being dropped.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	opts    Options

	items  chan envelope[T]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New builds a queue with the provided handler. The queue does not process
// anything until Start is called.
func New[T any](name string, handler Handler[T], opts Options) *Queue[T] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = opts.Workers * 4
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:    name,
		handler: handler,
		opts:    opts,
		items:   make(chan envelope[T], opts.BufferSize),
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.started = true
	q.opts.Logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.opts.Workers)
}

// Stop cancels workers and waits for them to drain.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.opts.Logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue submits an item for processing. It blocks while the buffer is full
// and fails once the queue is stopped.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.items <- envelope[T]{item: item}:
		return nil
	}
}

func (q *Queue[T]) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case env := <-q.items:
			if err := q.handler(q.ctx, env.item); err != nil {
				q.retry(env, err)
			}
		}
	}
}

func (q *Queue[T]) retry(env envelope[T], err error) {
	env.attempt++
	if env.attempt > q.opts.MaxRetries {
		q.opts.Logger.Sugar().Errorw("dropping item after retries", "queue", q.name, "attempts", env.attempt, "error", err)
		return
	}
	q.opts.Logger.Sugar().Warnw("retrying item", "queue", q.name, "attempt", env.attempt, "error", err)

	go func() {
		timer := time.NewTimer(q.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			select {
			case <-q.ctx.Done():
			case q.items <- env:
			}
		}
	}()
}
