package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueSubmitBeforeStart(t *testing.T) {
	q := NewQueue(1)
	if err := q.Submit(func(context.Context) {}); err == nil {
		t.Error("submit before Start should fail")
	}
}

func TestQueueRunsJobs(t *testing.T) {
	q := NewQueue(2)
	q.Start(context.Background())
	defer q.Stop()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		if err := q.Submit(func(context.Context) {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	if ran.Load() != 5 {
		t.Errorf("ran %d jobs, want 5", ran.Load())
	}
}

func TestQueueBoundsConcurrency(t *testing.T) {
	q := NewQueue(2)
	q.Start(context.Background())
	defer q.Stop()

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		q.Submit(func(context.Context) {
			defer wg.Done()
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		})
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds semaphore bound 2", peak.Load())
	}
}

func TestQueueSubmitAfterStop(t *testing.T) {
	q := NewQueue(1)
	q.Start(context.Background())
	q.Stop()
	if err := q.Submit(func(context.Context) {}); err == nil {
		t.Error("submit after Stop should fail")
	}
}

func TestQueueWaitIdle(t *testing.T) {
	q := NewQueue(1)
	q.Start(context.Background())
	defer q.Stop()

	q.Submit(func(context.Context) { time.Sleep(20 * time.Millisecond) })
	if q.WaitIdle(time.Millisecond) {
		t.Error("queue should be busy")
	}
	if !q.WaitIdle(5 * time.Second) {
		t.Error("queue should drain")
	}
}
