// Package agent implements the shared processing skeleton every agent
// endpoint runs: extract input, transform it, and deliver the outcome
// either as a durable task (background worker + webhook) or as a one-shot
// stream of frames. Concrete agents supply only the transform and the
// artifact shape.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/notify"
	"github.com/telex-integrations/agentrelay/internal/task"
)

// Input is the transform-ready view of a submission: the joined text and
// the (already MIME-filtered) file parts.
type Input struct {
	Text  string
	Files []*a2a.FileContent
}

// Result is the outcome of transforming one input item. Err marks an item
// failure; it is reported inline and never aborts sibling items.
type Result struct {
	Name     string
	Parts    []a2a.Part
	Artifact *a2a.Artifact
	Err      error
}

// Config parameterizes a Pipeline for one agent.
type Config struct {
	AgentID     string
	MimeFilter  []string
	NoInputText string
	// Accepts reports whether the input carries any recognized content.
	Accepts func(Input) bool
	// Working produces the human-readable "processing started" note.
	Working func(Input) string
	// Transform runs the agent-specific conversion, one Result per input
	// item. Partial failure is the normal outcome.
	Transform func(context.Context, Input) []Result
}

// Pipeline binds an agent's transform to the shared task store, worker
// queue, and notifier.
type Pipeline struct {
	cfg      Config
	store    *task.Store
	queue    *Queue
	notifier *notify.Notifier
	alerter  *notify.TelegramAlerter
}

// NewPipeline creates a pipeline for one agent.
func NewPipeline(cfg Config, store *task.Store, queue *Queue, notifier *notify.Notifier, alerter *notify.TelegramAlerter) *Pipeline {
	return &Pipeline{cfg: cfg, store: store, queue: queue, notifier: notifier, alerter: alerter}
}

// AgentID returns the owning agent's identifier.
func (p *Pipeline) AgentID() string { return p.cfg.AgentID }

// MimeFilter returns the MIME allow-list applied to inbound file parts.
func (p *Pipeline) MimeFilter() []string { return p.cfg.MimeFilter }

// ExtractInput classifies the message parts and reports whether any
// recognized content is present. When ok is false the caller answers with
// NoInputMessage and creates no task.
func (p *Pipeline) ExtractInput(msg a2a.Message) (Input, bool) {
	parts := a2a.ExtractParts(msg, p.cfg.MimeFilter)
	in := Input{Text: parts.JoinedText, Files: parts.FileParts}
	return in, p.cfg.Accepts(in)
}

// NoInputMessage is the immediate reply for submissions with no recognized
// content.
func (p *Pipeline) NoInputMessage(contextID string) a2a.Message {
	return a2a.NewAgentMessage(contextID, "", []a2a.Part{a2a.NewTextPart(p.cfg.NoInputText)})
}

// Submit registers a task for the input and schedules background
// processing, returning the submitted snapshot immediately.
func (p *Pipeline) Submit(msg a2a.Message, in Input, webhook a2a.WebhookDetails) (a2a.Task, error) {
	contextID := msg.ContextID
	if contextID == "" {
		contextID = a2a.NewID()
	}
	t := task.New(contextID, msg)
	if err := p.store.Create(t); err != nil {
		return a2a.Task{}, fmt.Errorf("create task: %w", err)
	}

	// Snapshot before scheduling: once the worker is enqueued it may
	// transition the task at any moment, and the caller is promised the
	// submitted state.
	snap, err := p.store.Get(t.ID)
	if err != nil {
		return a2a.Task{}, fmt.Errorf("snapshot task: %w", err)
	}

	taskID := t.ID
	if err := p.queue.Submit(func(ctx context.Context) {
		p.Process(ctx, taskID, in, webhook)
	}); err != nil {
		return a2a.Task{}, fmt.Errorf("enqueue task: %w", err)
	}
	return snap, nil
}

// Process is the background worker: working transition, transform, terminal
// transition, webhook notification. Anything escaping those steps is caught
// at this boundary and forced into a failed transition when the task still
// exists; a missing task row is logged only.
func (p *Pipeline) Process(ctx context.Context, taskID string, in Input, webhook a2a.WebhookDetails) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic", "agent", p.cfg.AgentID, "task_id", taskID, "panic", r)
			p.fail(ctx, taskID, webhook, fmt.Sprintf("❌ Task failed: %v", r))
		}
	}()

	t, err := p.store.Transition(taskID, a2a.TaskStateWorking, nil, nil)
	if err != nil {
		slog.Error("working transition failed", "agent", p.cfg.AgentID, "task_id", taskID, "error", err)
		return
	}

	results := p.cfg.Transform(ctx, in)

	parts, artifacts, failures := collect(results)
	if len(results) > 0 && failures == len(results) {
		msg := a2a.NewAgentMessage(t.ContextID, taskID, parts)
		updated, err := p.store.Transition(taskID, a2a.TaskStateFailed, &msg, nil)
		if err != nil {
			slog.Error("failed transition rejected", "agent", p.cfg.AgentID, "task_id", taskID, "error", err)
			return
		}
		p.notifier.Notify(ctx, webhook, updated)
		p.alerter.TaskFailed(p.cfg.AgentID, updated)
		return
	}

	done := a2a.NewAgentMessage(t.ContextID, taskID, parts)
	updated, err := p.store.Transition(taskID, a2a.TaskStateCompleted, &done, artifacts)
	if err != nil {
		slog.Error("completed transition failed", "agent", p.cfg.AgentID, "task_id", taskID, "error", err)
		return
	}
	p.notifier.Notify(ctx, webhook, updated)
}

// fail forces the failed terminal state and notifies, tolerating a task
// that no longer exists.
func (p *Pipeline) fail(ctx context.Context, taskID string, webhook a2a.WebhookDetails, text string) {
	t, err := p.store.Get(taskID)
	if err != nil {
		slog.Error("task lost before failure could be recorded", "agent", p.cfg.AgentID, "task_id", taskID)
		return
	}
	if t.Status.State.Terminal() {
		return
	}
	if text == "" {
		text = "❌ Task failed"
	}
	msg := a2a.NewAgentMessage(t.ContextID, taskID, []a2a.Part{a2a.NewTextPart(text)})
	updated, err := p.store.Transition(taskID, a2a.TaskStateFailed, &msg, nil)
	if err != nil {
		slog.Error("failed transition rejected", "agent", p.cfg.AgentID, "task_id", taskID, "error", err)
		return
	}
	p.notifier.Notify(ctx, webhook, updated)
	p.alerter.TaskFailed(p.cfg.AgentID, updated)
}

// Stream runs the transform as a one-shot frame sequence: a processing
// frame, then per item a success or error frame. The channel closes when
// the sequence ends; the transport layer appends the uniform terminal
// frame. Streaming never touches the task store.
func (p *Pipeline) Stream(ctx context.Context, in Input, requestID string) <-chan a2a.Response {
	frames := make(chan a2a.Response)
	go func() {
		defer close(frames)

		working := a2a.NewAgentMessage("", "", []a2a.Part{a2a.NewTextPart(p.cfg.Working(in))})
		if !send(ctx, frames, a2a.Response{ID: requestID, Result: working}) {
			return
		}

		for _, res := range p.cfg.Transform(ctx, in) {
			var parts []a2a.Part
			if res.Err != nil {
				parts = []a2a.Part{a2a.NewTextPart(failureText(res))}
			} else {
				parts = res.Parts
			}
			frame := a2a.Response{ID: requestID, Result: a2a.NewAgentMessage("", "", parts)}
			if !send(ctx, frames, frame) {
				return
			}
		}
	}()
	return frames
}

func send(ctx context.Context, ch chan<- a2a.Response, frame a2a.Response) bool {
	select {
	case ch <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

// collect flattens transform results into message parts and an ordered
// artifact list, counting item failures.
func collect(results []Result) (parts []a2a.Part, artifacts []a2a.Artifact, failures int) {
	for _, res := range results {
		if res.Err != nil {
			failures++
			parts = append(parts, a2a.NewTextPart(failureText(res)))
			continue
		}
		parts = append(parts, res.Parts...)
		if res.Artifact != nil {
			artifact := *res.Artifact
			artifact.Index = len(artifacts)
			artifacts = append(artifacts, artifact)
		}
	}
	return parts, artifacts, failures
}

func failureText(res Result) string {
	if res.Name != "" {
		return fmt.Sprintf("❌ Error processing %s: %v", res.Name, res.Err)
	}
	return fmt.Sprintf("❌ Error: %v", res.Err)
}
