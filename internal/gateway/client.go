package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

const (
	cardTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second
)

// Client speaks the agent protocol from the gateway side: card discovery,
// blocking sends, and line-by-line stream consumption.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	// No client-level timeout: streaming responses stay open as long as
	// the agent keeps producing. Card and send calls bound themselves via
	// context.
	return &Client{httpClient: &http.Client{}}
}

// FetchCard retrieves an agent's capability card.
func (c *Client) FetchCard(ctx context.Context, agentURL string) (a2a.AgentCard, error) {
	ctx, cancel := context.WithTimeout(ctx, cardTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, agentURL+"/.well-known/agent.json", nil)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("build card request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("fetch card: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return a2a.AgentCard{}, fmt.Errorf("fetch card: status %d", resp.StatusCode)
	}
	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return a2a.AgentCard{}, fmt.Errorf("decode card: %w", err)
	}
	return card, nil
}

// Send posts a request and decodes the single JSON response.
func (c *Client) Send(ctx context.Context, agentURL string, rpc a2a.Request) (a2a.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body, err := json.Marshal(rpc)
	if err != nil {
		return a2a.Response{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		return a2a.Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return a2a.Response{}, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	var out a2a.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return a2a.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Stream posts a request and forwards each non-empty body line to emit as it
// arrives. SSE "data: " prefixes are stripped so emit always sees bare JSON.
// Returns when the agent closes the response body.
func (c *Client) Stream(ctx context.Context, agentURL string, rpc a2a.Request, emit func([]byte)) error {
	body, err := json.Marshal(rpc)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "data: ")
		emit([]byte(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
