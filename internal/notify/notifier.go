// Package notify delivers terminal task snapshots to registered webhook
// targets and, optionally, raises operator alerts for failed tasks.
// Delivery failure is never surfaced to the processing path: the task's
// polled state stays authoritative no matter what happens here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

// TelexAPIKeyHeader carries the first-party credential on trusted
// deliveries. It is never sent to third-party targets.
const TelexAPIKeyHeader = "X-TELEX-API-KEY"

const deliveryTimeout = 30 * time.Second

// statusError marks a non-2xx delivery response so the retry policy can
// distinguish 4xx from 5xx.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook delivery: status %d", e.code)
}

func asStatusError(err error, target **statusError) bool {
	return errors.As(err, target)
}

// Notifier POSTs task-result envelopes to webhook targets.
type Notifier struct {
	client *http.Client
	retry  *RetryPolicy
}

// NewNotifier creates a Notifier with the default 30s delivery timeout and
// retry policy. Redirects are followed (the default client behavior).
func NewNotifier() *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: deliveryTimeout},
		retry:  DefaultRetryPolicy(),
	}
}

// Notify serializes the task as {"result": task} and POSTs it to the
// webhook target. First-party targets get the credential header; all others
// get none. Transport errors and 5xx responses are retried with backoff; a
// final failure is logged and swallowed. No-op when no URL is registered.
func (n *Notifier) Notify(ctx context.Context, details a2a.WebhookDetails, task a2a.Task) {
	if details.URL == "" {
		return
	}

	body, err := json.Marshal(a2a.Response{Result: task})
	if err != nil {
		slog.Error("webhook payload encode failed", "task_id", task.ID, "error", err)
		return
	}

	err = n.retry.Execute(ctx, func() error {
		return n.deliver(ctx, details, body)
	})
	if err != nil {
		slog.Error("webhook delivery failed",
			"task_id", task.ID, "url", details.URL, "state", task.Status.State, "error", err)
		return
	}
	slog.Info("webhook delivered", "task_id", task.ID, "url", details.URL, "state", task.Status.State)
}

func (n *Notifier) deliver(ctx context.Context, details a2a.WebhookDetails, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, details.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if details.IsTelex {
		req.Header.Set(TelexAPIKeyHeader, details.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}
