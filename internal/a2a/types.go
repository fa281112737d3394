// Package a2a defines the wire-level data model shared by every agent
// endpoint and the gateway: messages and their parts, tasks and their
// lifecycle status, artifacts, agent cards, and the JSON-RPC envelopes
// that carry them.
package a2a

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Part kinds. A part carries exactly one of text, file, or data.
const (
	PartKindText = "text"
	PartKindFile = "file"
	PartKindData = "data"
)

// Part is one ordered segment of a message or artifact. The Kind field
// discriminates which payload field is set.
type Part struct {
	Kind string         `json:"kind"`
	Text string         `json:"text,omitempty"`
	File *FileContent   `json:"file,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// NewTextPart returns a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewFilePart returns a file part wrapping the given content.
func NewFilePart(file *FileContent) Part {
	return Part{Kind: PartKindFile, File: file}
}

// NewDataPart returns a structured-data part.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// FileContent is a named file carried either inline as base64 bytes or by
// reference as a remote URI. When Bytes is empty and URI is set, the file
// must be resolved (downloaded) before use; resolution caches the bytes on
// the same value so a file is fetched at most once per request.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Resolved reports whether inline bytes are available.
func (f *FileContent) Resolved() bool {
	return f != nil && f.Bytes != ""
}

// Message is an ordered sequence of parts exchanged between a user and an
// agent. Messages are immutable once constructed.
type Message struct {
	Kind      string `json:"kind,omitempty"`
	MessageID string `json:"messageId"`
	ContextID string `json:"contextId,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
}

// NewAgentMessage builds an agent-authored message with a fresh message ID.
func NewAgentMessage(contextID, taskID string, parts []Part) Message {
	return Message{
		Kind:      "message",
		MessageID: NewID(),
		ContextID: contextID,
		TaskID:    taskID,
		Role:      RoleAgent,
		Parts:     parts,
	}
}

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// TaskStatus is a task's current state with the time it was entered and an
// optional explanatory message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
}

// Artifact is a named output of a completed task. Index orders artifacts
// among their siblings, zero-based.
type Artifact struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
	Index       int    `json:"index"`
}

// Task is a unit of asynchronous work. It lives in memory for the process
// lifetime and is mutated only by the single worker that owns it.
type Task struct {
	Kind      string     `json:"kind,omitempty"`
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history,omitempty"`
}

// WebhookDetails names the callback target for a terminal task update.
// IsTelex marks a trusted first-party target; only then is the API key
// attached as a credential header.
type WebhookDetails struct {
	URL     string
	IsTelex bool
	APIKey  string
}

// PushNotificationConfig is the client-supplied webhook registration.
type PushNotificationConfig struct {
	URL     string `json:"url"`
	Token   string `json:"token,omitempty"`
	IsTelex bool   `json:"is_telex,omitempty"`
}

// SendConfiguration carries optional send-time settings.
type SendConfiguration struct {
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	HistoryLength          int                     `json:"historyLength"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

// WebhookDetailsFrom extracts the notifier target from a send configuration,
// filling the API key from server config. Returns a zero value when no push
// notification was requested.
func WebhookDetailsFrom(cfg *SendConfiguration, apiKey string) WebhookDetails {
	if cfg == nil || cfg.PushNotificationConfig == nil {
		return WebhookDetails{}
	}
	pn := cfg.PushNotificationConfig
	return WebhookDetails{URL: pn.URL, IsTelex: pn.IsTelex, APIKey: apiKey}
}
