package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/telex-integrations/agentrelay/internal/agent"
)

// terminalFrame closes every event stream so consumers never have to guess
// whether more frames are coming.
var terminalFrame = []byte(`{"final": true}`)

// streamResponse runs the pipeline inline and writes each frame as an SSE
// event, ending with the terminal frame.
func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, pipeline *agent.Pipeline, in agent.Input, requestID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	for frame := range pipeline.Stream(r.Context(), in, requestID) {
		body, err := json.Marshal(frame)
		if err != nil {
			slog.Error("stream frame encode failed", "agent", pipeline.AgentID(), "error", err)
			continue
		}
		writeEvent(w, flusher, body)
	}
	writeEvent(w, flusher, terminalFrame)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, body []byte) {
	fmt.Fprintf(w, "data: %s\n\n", body)
	flusher.Flush()
}
