package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

// Gateway routes generic submissions to hosted agents by capability.
type Gateway struct {
	baseURL  string
	registry *Registry
	client   *Client
}

func New(baseURL string, registry *Registry, client *Client) *Gateway {
	return &Gateway{baseURL: baseURL, registry: registry, client: client}
}

// Register mounts the gateway routes.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /submit", g.handleSubmit)
	mux.HandleFunc("GET /stream/{id}", g.handleStream)
	mux.HandleFunc("POST /webhook/{id}", g.handleWebhook)
}

// SubmitRequest is the generic submission body.
type SubmitRequest struct {
	AgentID string       `json:"agent_id"`
	Text    string       `json:"text,omitempty"`
	Files   []SubmitFile `json:"files,omitempty"`
}

// SubmitFile references one input file, inline or by URI.
type SubmitFile struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// SubmitResponse acknowledges a submission. Downstream failures surface only
// inside the stream, never as gateway HTTP errors.
type SubmitResponse struct {
	StreamID string `json:"stream_id"`
	Status   string `json:"status"`
	Strategy string `json:"strategy,omitempty"`
}

func (g *Gateway) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		sub = SubmitRequest{}
	}

	streamID := g.registry.Create()

	if sub.AgentID == "" {
		g.pushError(streamID, a2a.CodeInvalidParams, "agent_id is required")
		g.registry.Finish(streamID)
		writeJSON(w, http.StatusOK, SubmitResponse{StreamID: streamID, Status: "error"})
		return
	}

	agentURL := fmt.Sprintf("%s/%s", g.baseURL, sub.AgentID)
	card, err := g.client.FetchCard(r.Context(), agentURL)
	if err != nil {
		slog.Error("agent card fetch failed", "agent", sub.AgentID, "error", err)
		g.pushError(streamID, a2a.CodeUpstream, fmt.Sprintf("failed to reach agent %s: %v", sub.AgentID, err))
		g.registry.Finish(streamID)
		writeJSON(w, http.StatusOK, SubmitResponse{StreamID: streamID, Status: "error"})
		return
	}

	msg := buildMessage(sub)
	strategy := pickStrategy(card.Capabilities)
	slog.Info("submission accepted", "agent", sub.AgentID, "stream_id", streamID, "strategy", strategy.String())

	go g.dispatch(context.Background(), strategy, agentURL, streamID, msg)

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		StreamID: streamID,
		Status:   "processing",
		Strategy: strategy.String(),
	})
}

// buildMessage assembles the protocol message from a submission: one text
// part plus one file part per attachment.
func buildMessage(sub SubmitRequest) a2a.Message {
	var parts []a2a.Part
	if sub.Text != "" {
		parts = append(parts, a2a.NewTextPart(sub.Text))
	}
	for _, f := range sub.Files {
		parts = append(parts, a2a.NewFilePart(&a2a.FileContent{
			Name:     f.Name,
			MimeType: f.MimeType,
			Bytes:    f.Bytes,
			URI:      f.URI,
		}))
	}
	return a2a.Message{
		Kind:      "message",
		MessageID: a2a.NewID(),
		Role:      a2a.RoleUser,
		Parts:     parts,
	}
}

// sendConfiguration is attached to every dispatch: the output modes the
// gateway can relay, and no history echo.
func sendConfiguration() *a2a.SendConfiguration {
	return &a2a.SendConfiguration{
		AcceptedOutputModes: []string{"text/plain", "application/pdf", "image/jpeg", "image/png"},
		HistoryLength:       0,
	}
}

func (g *Gateway) dispatch(ctx context.Context, strategy Strategy, agentURL, streamID string, msg a2a.Message) {
	switch strategy {
	case StrategyPush:
		g.dispatchPush(ctx, agentURL, streamID, msg)
	case StrategyStreaming:
		g.dispatchStreaming(ctx, agentURL, streamID, msg)
	default:
		g.dispatchBlocking(ctx, agentURL, streamID, msg)
	}
}

// dispatchPush sends the task with a webhook callback pointed at this
// gateway. The agent's webhook deliveries feed the stream; only an immediate
// non-task answer (or an error) short-circuits here.
func (g *Gateway) dispatchPush(ctx context.Context, agentURL, streamID string, msg a2a.Message) {
	cfg := sendConfiguration()
	cfg.PushNotificationConfig = &a2a.PushNotificationConfig{
		URL:     fmt.Sprintf("%s/webhook/%s", g.baseURL, streamID),
		IsTelex: true,
	}
	rpc, err := a2a.NewSendRequest(a2a.MessageSendParams{Message: msg, Configuration: cfg})
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	resp, err := g.client.Send(ctx, agentURL, rpc)
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	if resp.Error != nil {
		g.pushResponse(streamID, resp)
		g.registry.Finish(streamID)
		return
	}
	if !resultIsTask(resp.Result) {
		// No task was registered, so no webhook is coming.
		g.pushResponse(streamID, resp)
		g.registry.Finish(streamID)
	}
}

func (g *Gateway) dispatchStreaming(ctx context.Context, agentURL, streamID string, msg a2a.Message) {
	rpc, err := a2a.NewStreamRequest(a2a.MessageSendParams{Message: msg, Configuration: sendConfiguration()})
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	err = g.client.Stream(ctx, agentURL, rpc, func(frame []byte) {
		g.registry.Push(streamID, frame)
	})
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	g.registry.Finish(streamID)
}

func (g *Gateway) dispatchBlocking(ctx context.Context, agentURL, streamID string, msg a2a.Message) {
	rpc, err := a2a.NewSendRequest(a2a.MessageSendParams{Message: msg, Configuration: sendConfiguration()})
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	resp, err := g.client.Send(ctx, agentURL, rpc)
	if err != nil {
		g.failStream(streamID, err)
		return
	}
	g.pushResponse(streamID, resp)
	g.registry.Finish(streamID)
}

// handleStream drains the stream as SSE, ending with the terminal frame.
// The stream entry is removed when the consumer leaves; a second read of the
// same id gets the unknown-stream error.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, done, ok := g.registry.Attach(id)
	if !ok {
		body, _ := json.Marshal(a2a.NewErrorResponse("", a2a.CodeTaskNotFound, "Stream not found"))
		writeEvent(w, flusher, body)
		writeEvent(w, flusher, terminalFrame)
		return
	}
	defer g.registry.Remove(id)

	for {
		select {
		case payload := <-ch:
			writeEvent(w, flusher, payload)
		case <-done:
			// Producers are finished; drain whatever is still buffered
			// before the terminal frame.
			for {
				select {
				case payload := <-ch:
					writeEvent(w, flusher, payload)
				default:
					writeEvent(w, flusher, terminalFrame)
					return
				}
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleWebhook enqueues the delivery verbatim. Unknown stream ids are
// accepted and discarded so agents never see retries for streams that are
// already gone.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	g.registry.Push(id, payload)
	if payloadIsFinal(payload) {
		g.registry.Finish(id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

var terminalFrame = []byte(`{"final": true}`)

func (g *Gateway) pushError(streamID string, code int, message string) {
	body, _ := json.Marshal(a2a.NewErrorResponse("", code, message))
	g.registry.Push(streamID, body)
}

func (g *Gateway) failStream(streamID string, err error) {
	slog.Error("dispatch failed", "stream_id", streamID, "error", err)
	g.pushError(streamID, a2a.CodeUpstream, err.Error())
	g.registry.Finish(streamID)
}

func (g *Gateway) pushResponse(streamID string, resp a2a.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("response encode failed", "stream_id", streamID, "error", err)
		return
	}
	g.registry.Push(streamID, body)
}

func resultIsTask(result any) bool {
	m, ok := result.(map[string]any)
	if !ok {
		raw, err := json.Marshal(result)
		if err != nil {
			return false
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
	}
	kind, _ := m["kind"].(string)
	return kind == "task"
}

// payloadIsFinal reports whether a webhook delivery carries the terminal
// marker. Task deliveries carry a terminal status instead, which also ends
// the stream.
func payloadIsFinal(payload []byte) bool {
	var probe struct {
		Final  bool `json:"final"`
		Result struct {
			Kind   string `json:"kind"`
			Status struct {
				State a2a.TaskState `json:"state"`
			} `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	if probe.Final {
		return true
	}
	return probe.Result.Kind == "task" && probe.Result.Status.State.Terminal()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, body []byte) {
	fmt.Fprintf(w, "data: %s\n\n", body)
	flusher.Flush()
}
