package gateway

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

func TestPickStrategy(t *testing.T) {
	cases := []struct {
		name string
		caps a2a.AgentCapabilities
		want Strategy
	}{
		{"push wins over everything", a2a.AgentCapabilities{PushNotifications: true, Streaming: true}, StrategyPush},
		{"streaming when no push", a2a.AgentCapabilities{Streaming: true}, StrategyStreaming},
		{"blocking fallback", a2a.AgentCapabilities{}, StrategyBlocking},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pickStrategy(tc.caps); got != tc.want {
				t.Errorf("pickStrategy(%+v) = %v, want %v", tc.caps, got, tc.want)
			}
		})
	}
}

// fakeAgent mounts a minimal agent on the shared mux: a card with chosen
// capabilities plus a protocol endpoint driven by the handler.
func mountFakeAgent(mux *http.ServeMux, id string, caps a2a.AgentCapabilities, handler http.HandlerFunc) {
	mux.HandleFunc("GET /"+id+"/.well-known/agent.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(a2a.AgentCard{Name: id, Capabilities: caps})
	})
	mux.HandleFunc("POST /"+id, handler)
}

// testGateway wires a gateway and any fake agents onto one listener, the
// same single-host layout the real process uses.
func testGateway(t *testing.T, mount func(mux *http.ServeMux)) (*httptest.Server, *Registry) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	registry := NewRegistry()
	g := New(srv.URL, registry, NewClient())
	g.Register(mux)
	if mount != nil {
		mount(mux)
	}
	return srv, registry
}

func submit(t *testing.T, url string, body SubmitRequest) SubmitResponse {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url+"/submit", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	return out
}

// drainStream reads the SSE stream until the terminal frame or timeout.
func drainStream(t *testing.T, url, id string) []string {
	t.Helper()
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url + "/stream/" + id)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
			frames = append(frames, data)
			if strings.Contains(data, `"final"`) {
				return frames
			}
		}
	}
	t.Fatalf("stream ended without terminal frame: %v", frames)
	return nil
}

func TestSubmitMissingAgentID(t *testing.T) {
	srv, _ := testGateway(t, nil)
	out := submit(t, srv.URL, SubmitRequest{Text: "hello"})
	if out.Status != "error" {
		t.Errorf("status = %q, want error", out.Status)
	}
	if out.StreamID == "" {
		t.Fatal("stream id must be issued even on validation failure")
	}

	frames := drainStream(t, srv.URL, out.StreamID)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want error + terminal: %v", len(frames), frames)
	}
	var errResp a2a.Response
	if err := json.Unmarshal([]byte(frames[0]), &errResp); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if errResp.Error == nil || errResp.Error.Code != a2a.CodeInvalidParams {
		t.Errorf("error frame = %+v", errResp)
	}
}

func TestSubmitUnknownAgent(t *testing.T) {
	srv, _ := testGateway(t, nil)
	out := submit(t, srv.URL, SubmitRequest{AgentID: "ghost", Text: "hi"})
	if out.Status != "error" {
		t.Errorf("status = %q, want error", out.Status)
	}
	frames := drainStream(t, srv.URL, out.StreamID)
	if !strings.Contains(frames[0], "failed to reach agent") {
		t.Errorf("error frame = %q", frames[0])
	}
}

func TestSubmitBlockingAgent(t *testing.T) {
	srv, _ := testGateway(t, func(mux *http.ServeMux) {
		mountFakeAgent(mux, "calc", a2a.AgentCapabilities{}, func(w http.ResponseWriter, r *http.Request) {
			var req a2a.Request
			json.NewDecoder(r.Body).Decode(&req)
			if req.Method != a2a.MethodMessageSend {
				t.Errorf("method = %q, want message/send", req.Method)
			}
			if params, err := req.SendParams(); err != nil || params.Configuration == nil ||
				len(params.Configuration.AcceptedOutputModes) == 0 {
				t.Errorf("blocking dispatch must carry a send configuration, got %+v", params)
			}
			msg := a2a.NewAgentMessage("", "", []a2a.Part{a2a.NewTextPart("forty-two")})
			json.NewEncoder(w).Encode(a2a.NewResultResponse(req.ID, msg))
		})
	})

	out := submit(t, srv.URL, SubmitRequest{AgentID: "calc", Text: "6*7"})
	if out.Status != "processing" || out.Strategy != "blocking" {
		t.Fatalf("submit response = %+v", out)
	}
	frames := drainStream(t, srv.URL, out.StreamID)
	if len(frames) != 2 {
		t.Fatalf("got %d frames: %v", len(frames), frames)
	}
	if !strings.Contains(frames[0], "forty-two") {
		t.Errorf("result frame = %q", frames[0])
	}
}

func TestSubmitStreamingAgent(t *testing.T) {
	srv, _ := testGateway(t, func(mux *http.ServeMux) {
		mountFakeAgent(mux, "narrator", a2a.AgentCapabilities{Streaming: true}, func(w http.ResponseWriter, r *http.Request) {
			var req a2a.Request
			json.NewDecoder(r.Body).Decode(&req)
			if params, err := req.SendParams(); err != nil || params.Configuration == nil ||
				len(params.Configuration.AcceptedOutputModes) == 0 {
				t.Errorf("streaming dispatch must carry a send configuration, got %+v", params)
			}
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprintf(w, "data: %s\n\n", `{"result":{"kind":"message","parts":[{"kind":"text","text":"chapter one"}]}}`)
			fmt.Fprintf(w, "data: %s\n\n", `{"result":{"kind":"message","parts":[{"kind":"text","text":"chapter two"}]}}`)
		})
	})

	out := submit(t, srv.URL, SubmitRequest{AgentID: "narrator", Text: "tell me a story"})
	if out.Strategy != "streaming" {
		t.Fatalf("strategy = %q", out.Strategy)
	}
	frames := drainStream(t, srv.URL, out.StreamID)
	if len(frames) != 3 {
		t.Fatalf("got %d frames: %v", len(frames), frames)
	}
	if !strings.Contains(frames[0], "chapter one") || !strings.Contains(frames[1], "chapter two") {
		t.Errorf("frames = %v", frames)
	}
}

// The push path end to end: the agent acknowledges with a submitted task and
// later delivers the completed task to the gateway webhook; the consumer
// sees the delivery followed by the terminal frame.
func TestSubmitPushAgent(t *testing.T) {
	srv, _ := testGateway(t, func(mux *http.ServeMux) {
		mountFakeAgent(mux, "worker", a2a.AgentCapabilities{PushNotifications: true, Streaming: true}, func(w http.ResponseWriter, r *http.Request) {
			var req a2a.Request
			json.NewDecoder(r.Body).Decode(&req)
			params, err := req.SendParams()
			if err != nil {
				t.Errorf("send params: %v", err)
				return
			}
			hook := params.Configuration.PushNotificationConfig.URL
			if !strings.Contains(hook, "/webhook/") {
				t.Errorf("webhook url = %q", hook)
			}
			if len(params.Configuration.AcceptedOutputModes) == 0 {
				t.Error("push dispatch must carry accepted output modes")
			}

			submitted := a2a.Task{Kind: "task", ID: "t-1", Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}}
			json.NewEncoder(w).Encode(a2a.NewResultResponse(req.ID, submitted))

			go func() {
				done := a2a.Task{Kind: "task", ID: "t-1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}}
				body, _ := json.Marshal(a2a.NewResultResponse(req.ID, done))
				http.Post(hook, "application/json", bytes.NewReader(body))
			}()
		})
	})

	out := submit(t, srv.URL, SubmitRequest{AgentID: "worker", Text: "do the thing"})
	if out.Strategy != "push" {
		t.Fatalf("strategy = %q, want push", out.Strategy)
	}
	frames := drainStream(t, srv.URL, out.StreamID)
	if len(frames) != 2 {
		t.Fatalf("got %d frames: %v", len(frames), frames)
	}
	if !strings.Contains(frames[0], `"completed"`) {
		t.Errorf("delivery frame = %q", frames[0])
	}
}

// A push-capable agent that answers inline (no recognized content) must
// still terminate the stream: no webhook is coming.
func TestSubmitPushAgentImmediateMessage(t *testing.T) {
	srv, _ := testGateway(t, func(mux *http.ServeMux) {
		mountFakeAgent(mux, "worker", a2a.AgentCapabilities{PushNotifications: true}, func(w http.ResponseWriter, r *http.Request) {
			var req a2a.Request
			json.NewDecoder(r.Body).Decode(&req)
			msg := a2a.NewAgentMessage("", "", []a2a.Part{a2a.NewTextPart("nothing to do")})
			json.NewEncoder(w).Encode(a2a.NewResultResponse(req.ID, msg))
		})
	})

	out := submit(t, srv.URL, SubmitRequest{AgentID: "worker"})
	frames := drainStream(t, srv.URL, out.StreamID)
	if len(frames) != 2 {
		t.Fatalf("got %d frames: %v", len(frames), frames)
	}
	if !strings.Contains(frames[0], "nothing to do") {
		t.Errorf("frame = %q", frames[0])
	}
}

func TestWebhookUnknownStreamAccepted(t *testing.T) {
	srv, _ := testGateway(t, nil)
	resp, err := http.Post(srv.URL+"/webhook/unknown", "application/json", strings.NewReader(`{"result":{}}`))
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStreamUnknownID(t *testing.T) {
	srv, _ := testGateway(t, nil)
	frames := drainStream(t, srv.URL, "missing")
	if len(frames) != 2 {
		t.Fatalf("got %d frames: %v", len(frames), frames)
	}
	if !strings.Contains(frames[0], "Stream not found") {
		t.Errorf("error frame = %q", frames[0])
	}
}

// A producer that outruns the consumer fills the buffer; the stream must
// still deliver everything buffered and then terminate.
func TestStreamTerminatesUnderBufferPressure(t *testing.T) {
	srv, registry := testGateway(t, nil)
	id := registry.Create()
	for i := 0; i < streamBuffer; i++ {
		if !registry.Push(id, []byte(`{"n":1}`)) {
			t.Fatalf("push %d rejected", i)
		}
	}
	registry.Finish(id)

	frames := drainStream(t, srv.URL, id)
	if len(frames) != streamBuffer+1 {
		t.Fatalf("got %d frames, want %d payloads + terminal", len(frames), streamBuffer)
	}
	if !strings.Contains(frames[len(frames)-1], `"final"`) {
		t.Errorf("last frame = %q, want terminal", frames[len(frames)-1])
	}
}

// Consume-once: after a consumer drains a stream, the id is gone.
func TestStreamConsumeOnce(t *testing.T) {
	srv, registry := testGateway(t, nil)
	id := registry.Create()
	registry.Push(id, []byte(`{"n":1}`))
	registry.Finish(id)

	first := drainStream(t, srv.URL, id)
	if len(first) != 2 {
		t.Fatalf("first read got %d frames: %v", len(first), first)
	}
	second := drainStream(t, srv.URL, id)
	if !strings.Contains(second[0], "Stream not found") {
		t.Errorf("second read should fail, got %v", second)
	}
}
