// Package probe implements the HTTP client for the deployed embedding
// service: the health check, the embed smoke tests, and post-launch
// readiness polling.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

// defaultTimeout bounds each individual probe request. Single-text
// inference completes in well under a second once the model is loaded;
// 30 seconds leaves room for cold caches and large batches.
const defaultTimeout = 30 * time.Second

// Client talks to the embedding service's HTTP API.
//
// The service exposes three routes:
//
//	GET  /health      → {"status", "model"}
//	POST /embed       → {"embedding", "dimensions", "processing_time", "model"}
//	POST /embed/batch → {"embeddings", "count", "dimensions", "processing_time", "model"}
//
// The client decodes only the metadata fields; embedding vectors are
// ignored because the CLI reports shape and timing, not payloads.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a probe client for the service at baseURL
// (e.g., "http://localhost:5000"). A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service base URL the client probes.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the service's JSON error envelope. Both the Flask error
// handler ({"error": ...}) and the unhealthy health response
// ({"status": "error", "message": ...}) fit in here.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// serviceError formats a non-2xx response into an error, preferring the
// service-provided detail over the bare status code.
func serviceError(route string, statusCode int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		detail := eb.Error
		if detail == "" {
			detail = eb.Message
		}
		if detail != "" {
			return fmt.Errorf("%s returned HTTP %d: %s", route, statusCode, detail)
		}
	}
	return fmt.Errorf("%s returned HTTP %d", route, statusCode)
}

// Health queries GET /health and returns the decoded report.
// A non-200 response is an error; the report is still returned when the
// body decodes, so callers can surface the service's own message.
func (c *Client) Health(ctx context.Context) (*model.HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var report model.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("health check returned HTTP %d with undecodable body: %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := report.Message
		if msg == "" {
			msg = report.Status
		}
		return &report, fmt.Errorf("/health returned HTTP %d: %s", resp.StatusCode, msg)
	}
	return &report, nil
}

// Embed sends text to POST /embed and returns the metadata of the
// generated embedding.
func (c *Client) Embed(ctx context.Context, text string) (*model.EmbedReport, error) {
	var report model.EmbedReport
	if err := c.postJSON(ctx, "/embed", map[string]string{"text": text}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// EmbedBatch sends texts to POST /embed/batch and returns the batch
// metadata.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) (*model.BatchEmbedReport, error) {
	var report model.BatchEmbedReport
	if err := c.postJSON(ctx, "/embed/batch", map[string][]string{"texts": texts}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// postJSON issues a JSON POST to route and decodes a 200 response into
// out. Non-200 responses are turned into errors carrying the service's
// error detail.
func (c *Client) postJSON(ctx context.Context, route string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", route, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", route, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the error detail.
		buf := make([]byte, 4096)
		n, _ := resp.Body.Read(buf)
		return serviceError(route, resp.StatusCode, buf[:n])
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", route, err)
	}
	return nil
}
