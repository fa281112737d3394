// Package task holds the in-memory task registry and enforces the
// submitted → working → (completed | failed) lifecycle. Tasks live for the
// process lifetime; there is no garbage collection. Exactly one background
// worker mutates a given task end-to-end, so the lock only guards the map
// structure and the whole-value status swap.
package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

var (
	// ErrNotFound is returned when no task is registered under an ID.
	ErrNotFound = errors.New("task not found")
	// ErrExists is returned when creating a task whose ID is taken.
	ErrExists = errors.New("task already exists")
	// ErrInvalidTransition is returned for a lifecycle-violating transition.
	ErrInvalidTransition = errors.New("invalid task transition")
)

// Store is an in-memory task registry keyed by task ID.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*a2a.Task)}
}

// New builds a task in the submitted state, seeding history with the
// inbound message.
func New(contextID string, inbound a2a.Message) *a2a.Task {
	return &a2a.Task{
		Kind:      "task",
		ID:        a2a.NewID(),
		ContextID: contextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateSubmitted,
			Timestamp: time.Now(),
		},
		Artifacts: []a2a.Artifact{},
		History:   []a2a.Message{inbound},
	}
}

// Create registers the task under its ID.
func (s *Store) Create(t *a2a.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrExists, t.ID)
	}
	s.tasks[t.ID] = t
	return nil
}

// Get returns a snapshot of the task, or ErrNotFound.
func (s *Store) Get(id string) (a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tasks[id]
	if !exists {
		return a2a.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snapshot(t), nil
}

// Transition moves the task to state, recording the timestamp, an optional
// status message, and any produced artifacts. Only the legal lifecycle
// edges are accepted: submitted→working, working→completed, working→failed.
// Terminal states never transition and no edge skips working.
func (s *Store) Transition(id string, state a2a.TaskState, msg *a2a.Message, artifacts []a2a.Artifact) (a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tasks[id]
	if !exists {
		return a2a.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !legal(t.Status.State, state) {
		return a2a.Task{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status.State, state)
	}

	t.Status = a2a.TaskStatus{State: state, Timestamp: time.Now(), Message: msg}
	if len(artifacts) > 0 {
		t.Artifacts = append(t.Artifacts, artifacts...)
	}
	return snapshot(t), nil
}

func legal(from, to a2a.TaskState) bool {
	switch from {
	case a2a.TaskStateSubmitted:
		return to == a2a.TaskStateWorking
	case a2a.TaskStateWorking:
		return to == a2a.TaskStateCompleted || to == a2a.TaskStateFailed
	default:
		return false
	}
}

// snapshot copies the task so readers never alias worker-owned slices.
func snapshot(t *a2a.Task) a2a.Task {
	out := *t
	out.Artifacts = append([]a2a.Artifact(nil), t.Artifacts...)
	out.History = append([]a2a.Message(nil), t.History...)
	return out
}
