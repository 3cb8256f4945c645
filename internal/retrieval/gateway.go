// Package retrieval implements the gateway to the named knowledge-retrieval
// backends. Each backend is a webhook-style HTTP endpoint accepting a query
// and a result bound; the gateway normalizes every transport failure into a
// structured error value so callers always receive a value, never a fault
// that crosses the gateway boundary.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// Well-known backend names. The configured set is static; unknown names fail
// fast without network I/O.
const (
	BackendCoreConcepts   = "core-concepts"
	BackendAdministration = "administration"
	BackendIntegrations   = "integrations"
	BackendExamples       = "examples"
)

// Document is a single ranked result returned by a retrieval backend.
type Document struct {
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// BackendConfig describes one named retrieval backend.
type BackendConfig struct {
	URL string `mapstructure:"url" yaml:"url" validate:"required,url"`
}

// searchRequest is the wire payload sent to every backend.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// searchResponse is the wire payload expected from every backend.
type searchResponse struct {
	Results []Document `json:"results"`
}

// Result pairs a backend name with its outcome. Exactly one of Documents and
// Err is meaningful.
type Result struct {
	Backend   string
	Documents []Document
	Err       error
}

// Gateway is a uniform client for the configured retrieval backends. It
// performs no retries; retry policy belongs to the calling stage.
type Gateway struct {
	backends map[string]BackendConfig
	client   *http.Client
	timeout  time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient overrides the HTTP client, for tests.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithTimeout bounds each individual backend call.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGateway creates a gateway over the given named backends.
func NewGateway(backends map[string]BackendConfig, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backends: backends,
		client:   &http.Client{},
		timeout:  30 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Backends returns the configured backend names in sorted order, so fan-out
// results and the prompts composed from them are stable across runs.
func (g *Gateway) Backends() []string {
	names := make([]string, 0, len(g.backends))
	for name := range g.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search queries one named backend. All failures (unknown backend, transport
// error, timeout, non-2xx status, malformed body) come back as structured
// error values.
func (g *Gateway) Search(ctx context.Context, backend, query string, maxResults int) ([]Document, error) {
	cfg, ok := g.backends[backend]
	if !ok {
		return nil, types.NewError(types.RETRIEVAL_UNKNOWN_BACKEND,
			fmt.Sprintf("unknown retrieval backend: %s", backend))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, types.WrapError(types.RETRIEVAL_REQUEST_FAILED, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, types.WrapError(types.RETRIEVAL_REQUEST_FAILED, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, types.NewRetryableError(types.RETRIEVAL_TIMEOUT,
				fmt.Sprintf("backend %s timed out after %s", backend, g.timeout))
		}
		return nil, types.WrapError(types.RETRIEVAL_REQUEST_FAILED,
			fmt.Sprintf("calling backend %s", backend), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewError(types.RETRIEVAL_BAD_STATUS,
			fmt.Sprintf("backend %s returned status %d", backend, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapError(types.RETRIEVAL_BAD_RESPONSE,
			fmt.Sprintf("reading response from backend %s", backend), err)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, types.WrapError(types.RETRIEVAL_BAD_RESPONSE,
			fmt.Sprintf("decoding response from backend %s", backend), err)
	}

	return decoded.Results, nil
}

// SearchAll dispatches the same query against every configured backend
// concurrently and waits for all calls (each bounded by the per-call timeout).
// The returned slice holds one Result per backend; failed backends carry
// their error instead of escalating. Ordering follows Backends(), not
// completion order.
func (g *Gateway) SearchAll(ctx context.Context, query string, maxResults int) []Result {
	names := g.Backends()
	results := make([]Result, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			docs, err := g.Search(ctx, name, query, maxResults)
			results[i] = Result{Backend: name, Documents: docs, Err: err}
		}(i, name)
	}
	wg.Wait()

	return results
}
