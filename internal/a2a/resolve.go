package a2a

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// resolveTimeout bounds a single remote file download. Large uploads are
// allowed up to a minute.
const resolveTimeout = 60 * time.Second

// Resolver downloads remote file content referenced by URI.
type Resolver struct {
	client *http.Client
}

// NewResolver creates a Resolver with the default download timeout.
func NewResolver() *Resolver {
	return &Resolver{client: &http.Client{Timeout: resolveTimeout}}
}

// ResolveFiles fetches inline bytes for every file that only carries a URI.
// Downloads run concurrently; the first failure cancels the rest and fails
// the whole resolution, leaving no partially resolved result visible to the
// caller. Files that already have bytes are left untouched.
func (r *Resolver) ResolveFiles(ctx context.Context, files []*FileContent) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		if file.Resolved() || file.URI == "" {
			continue
		}
		g.Go(func() error {
			encoded, err := r.fetch(ctx, file.URI)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", file.URI, err)
			}
			file.Bytes = encoded
			return nil
		})
	}
	return g.Wait()
}

func (r *Resolver) fetch(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Agentrelay/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

// DecodeBase64 decodes file content exactly once. A data-URI prefix is
// stripped first. Content that does not decode cleanly — including bytes
// that were already decoded — is rejected rather than passed through.
func DecodeBase64(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if _, rest, ok := strings.Cut(data, ","); ok {
			data = rest
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return decoded, nil
}
