// Package server exposes each hosted agent over the shared protocol: a
// JSON-RPC endpoint per agent plus its capability card, with streaming
// responses framed as Server-Sent Events.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/telex-integrations/agentrelay/internal/a2a"
	"github.com/telex-integrations/agentrelay/internal/agent"
	"github.com/telex-integrations/agentrelay/internal/registry"
	"github.com/telex-integrations/agentrelay/internal/task"
)

// Server mounts agent endpoints onto a ServeMux.
type Server struct {
	baseURL     string
	appEnv      string
	telexAPIKey string
	store       *task.Store
	resolver    *a2a.Resolver
	pipelines   map[string]*agent.Pipeline
	mux         *http.ServeMux
}

// New creates a Server hosting the given pipelines, keyed by agent ID.
func New(baseURL, appEnv, telexAPIKey string, store *task.Store, pipelines map[string]*agent.Pipeline) *Server {
	s := &Server{
		baseURL:     baseURL,
		appEnv:      appEnv,
		telexAPIKey: telexAPIKey,
		store:       store,
		resolver:    a2a.NewResolver(),
		pipelines:   pipelines,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	for id, pipeline := range pipelines {
		meta, ok := registry.Get(id)
		if !ok {
			slog.Warn("pipeline has no registry entry, skipping", "agent", id)
			continue
		}
		s.mux.HandleFunc("POST /"+id, s.handleRPC(pipeline))
		s.mux.HandleFunc("POST /"+id+"/{$}", s.handleRPC(pipeline))
		s.mux.HandleFunc("GET /"+id+"/.well-known/agent.json", s.handleCard(meta))
	}
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Mux exposes the underlying mux so the gateway can register its routes on
// the same listener.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleIndex lists the hosted agents.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		DefaultText string `json:"default_text"`
	}
	var out []entry
	for _, a := range registry.All() {
		if _, hosted := s.pipelines[a.ID]; !hosted {
			continue
		}
		out = append(out, entry{ID: a.ID, Name: a.Name, Description: a.Description, DefaultText: a.DefaultText})
	}
	writeJSON(w, map[string]any{"agents": out})
}

func (s *Server) handleCard(meta registry.Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, meta.Card(s.baseURL, s.appEnv))
	}
}

// handleRPC dispatches one agent's JSON-RPC methods. Every outcome is a
// well-formed JSON (or SSE) body; nothing on this path returns a bare HTTP
// error for protocol-level conditions.
func (s *Server) handleRPC(pipeline *agent.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req a2a.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, a2a.NewErrorResponse("", a2a.CodeInvalidParams, "invalid JSON body"))
			return
		}

		switch req.Method {
		case a2a.MethodTasksGet:
			s.handleTasksGet(w, req)
		case a2a.MethodMessageSend, a2a.MethodMessageStream:
			s.handleMessage(w, r, pipeline, req)
		default:
			writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeBadMethod, "Invalid request method"))
		}
	}
}

func (s *Server) handleTasksGet(w http.ResponseWriter, req a2a.Request) {
	params, err := req.TaskParams()
	if err != nil {
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}
	t, err := s.store.Get(params.ID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeTaskNotFound, "Task not found"))
			return
		}
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeUpstream, err.Error()))
		return
	}
	writeJSON(w, a2a.NewResultResponse(req.ID, t))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request, pipeline *agent.Pipeline, req a2a.Request) {
	params, err := req.SendParams()
	if err != nil {
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}
	msg := params.Message

	in, ok := pipeline.ExtractInput(msg)
	if !ok {
		writeJSON(w, a2a.NewResultResponse(req.ID, pipeline.NoInputMessage(msg.ContextID)))
		return
	}

	// Pull down any file still referenced only by URI. A single fetch
	// failure fails the whole submission.
	if err := s.resolver.ResolveFiles(r.Context(), in.Files); err != nil {
		slog.Error("file resolution failed", "agent", pipeline.AgentID(), "error", err)
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeUpstream, fmt.Sprintf("failed to fetch remote file: %v", err)))
		return
	}

	webhook := a2a.WebhookDetailsFrom(params.Configuration, s.telexAPIKey)

	// message/stream, and message/send without a webhook target, answer
	// inline as a frame sequence. Only a send with a registered webhook
	// becomes a durable task.
	if req.Method == a2a.MethodMessageStream || webhook.URL == "" {
		s.streamResponse(w, r, pipeline, in, req.ID)
		return
	}

	t, err := pipeline.Submit(msg, in, webhook)
	if err != nil {
		slog.Error("task submission failed", "agent", pipeline.AgentID(), "error", err)
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.CodeUpstream, "failed to register task"))
		return
	}
	writeJSON(w, a2a.NewResultResponse(req.ID, t))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
