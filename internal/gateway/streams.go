// Package gateway fronts the hosted agents with a generic submission
// surface: callers POST work to /submit, read results over a one-shot SSE
// stream, and agent webhooks feed those streams from behind.
package gateway

import (
	"sync"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

// streamBuffer bounds how many payloads a stream holds before its consumer
// attaches. Overflow drops the payload rather than blocking producers.
const streamBuffer = 64

type stream struct {
	ch       chan []byte
	done     chan struct{}
	finished bool
	created  time.Time
	attached bool
}

// Registry is the mutex-guarded map of live streams. Each stream is consumed
// exactly once; pushes to unknown or removed streams are dropped silently so
// producers never need to care whether anyone is still listening.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*stream
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*stream), now: time.Now}
}

// Create registers a fresh stream and returns its id.
func (r *Registry) Create() string {
	id := a2a.NewID()
	r.mu.Lock()
	r.streams[id] = &stream{
		ch:      make(chan []byte, streamBuffer),
		done:    make(chan struct{}),
		created: r.now(),
	}
	r.mu.Unlock()
	return id
}

// Push enqueues a payload. Returns false when the stream is gone or full.
func (r *Registry) Push(id string, payload []byte) bool {
	r.mu.Lock()
	s, ok := r.streams[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case s.ch <- payload:
		return true
	default:
		return false
	}
}

// Finish ends the payload sequence. Delivery is guaranteed regardless of
// buffer pressure: termination is signaled out of band, never as a payload
// that could be dropped.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[id]
	if !ok || s.finished {
		return
	}
	s.finished = true
	close(s.done)
}

// Attach claims the stream for its single consumer, returning the payload
// channel and the termination signal.
func (r *Registry) Attach(id string) (payloads <-chan []byte, done <-chan struct{}, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.streams[id]
	if !exists {
		return nil, nil, false
	}
	s.attached = true
	return s.ch, s.done, true
}

// Remove drops the stream. Producers still holding the id degrade to no-ops.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.streams, id)
	r.mu.Unlock()
}

// SweepIdle removes streams older than ttl whose consumer never attached,
// returning how many were dropped.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var dropped int
	for id, s := range r.streams {
		if !s.attached && s.created.Before(cutoff) {
			delete(r.streams, id)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live streams.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
