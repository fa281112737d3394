package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Queue runs fire-and-forget background jobs with a global concurrency
// semaphore. Submission never blocks on processing: a worker communicates
// only through the task store and the notifier, never back to the
// submitter.
type Queue struct {
	semaphore *semaphore.Weighted
	active    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a Queue allowing up to maxConcurrent jobs to execute
// simultaneously.
func NewQueue(maxConcurrent int64) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Queue{semaphore: semaphore.NewWeighted(maxConcurrent)}
}

// Start initialises the queue's context. Must be called before Submit.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Submit schedules a job on its own goroutine, gated by the semaphore.
// Returns an error only when the queue is not started or already stopped.
func (q *Queue) Submit(job func(ctx context.Context)) error {
	if q.ctx == nil {
		return fmt.Errorf("queue not started")
	}
	if err := q.ctx.Err(); err != nil {
		return fmt.Errorf("queue stopped: %w", err)
	}

	q.wg.Add(1)
	q.active.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.active.Add(-1)
		if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
			return
		}
		defer q.semaphore.Release(1)

		job(q.ctx)
	}()
	return nil
}

// WaitIdle blocks until no jobs are actively being processed, or the
// timeout expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
