package task

import (
	"errors"
	"testing"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

func newTestTask(t *testing.T, store *Store) *a2a.Task {
	t.Helper()
	inbound := a2a.Message{MessageID: a2a.NewID(), Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hi")}}
	tk := New(a2a.NewID(), inbound)
	if err := store.Create(tk); err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)

	got, err := store.Get(tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status.State != a2a.TaskStateSubmitted {
		t.Errorf("new task state = %s, want submitted", got.Status.State)
	}
	if len(got.History) != 1 {
		t.Errorf("history should carry the inbound message, got %d entries", len(got.History))
	}
	if got.Status.Timestamp.IsZero() {
		t.Error("status timestamp should be set")
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)

	if err := store.Create(tk); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate create = %v, want ErrExists", err)
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewStore()
	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get unknown = %v, want ErrNotFound", err)
	}
}

func TestLifecycleSuccessPath(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)

	if _, err := store.Transition(tk.ID, a2a.TaskStateWorking, nil, nil); err != nil {
		t.Fatalf("submitted -> working failed: %v", err)
	}

	artifact := a2a.Artifact{Name: "a.pdf.md", Parts: []a2a.Part{a2a.NewTextPart("# doc")}, Index: 0}
	done := a2a.NewAgentMessage(tk.ContextID, tk.ID, []a2a.Part{a2a.NewTextPart("done")})
	got, err := store.Transition(tk.ID, a2a.TaskStateCompleted, &done, []a2a.Artifact{artifact})
	if err != nil {
		t.Fatalf("working -> completed failed: %v", err)
	}
	if len(got.Artifacts) != 1 || got.Artifacts[0].Name != "a.pdf.md" {
		t.Errorf("artifacts not recorded: %+v", got.Artifacts)
	}
	if got.Status.Message == nil {
		t.Error("terminal status should carry a message")
	}
}

func TestNoTransitionSkipsWorking(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)

	for _, state := range []a2a.TaskState{a2a.TaskStateCompleted, a2a.TaskStateFailed} {
		if _, err := store.Transition(tk.ID, state, nil, nil); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("submitted -> %s = %v, want ErrInvalidTransition", state, err)
		}
	}
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)
	store.Transition(tk.ID, a2a.TaskStateWorking, nil, nil)
	store.Transition(tk.ID, a2a.TaskStateFailed, nil, nil)

	for _, state := range []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted, a2a.TaskStateSubmitted} {
		if _, err := store.Transition(tk.ID, state, nil, nil); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("failed -> %s = %v, want ErrInvalidTransition", state, err)
		}
	}
}

func TestTransitionUnknownTask(t *testing.T) {
	store := NewStore()
	if _, err := store.Transition("nope", a2a.TaskStateWorking, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("transition unknown = %v, want ErrNotFound", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewStore()
	tk := newTestTask(t, store)
	store.Transition(tk.ID, a2a.TaskStateWorking, nil, nil)

	before, _ := store.Get(tk.ID)
	store.Transition(tk.ID, a2a.TaskStateCompleted, nil, []a2a.Artifact{{Name: "x"}})

	if len(before.Artifacts) != 0 {
		t.Error("earlier snapshot must not observe later artifacts")
	}
	after, _ := store.Get(tk.ID)
	if len(after.Artifacts) != 1 {
		t.Errorf("expected 1 artifact after completion, got %d", len(after.Artifacts))
	}
}
