package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer starts an httptest server with the given handler and
// returns a probe client pointed at it.
func newTestServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

// TestHealth_Healthy verifies decoding of a healthy service response.
func TestHealth_Healthy(t *testing.T) {
	client := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"model":  "nomic-embed-text-v1",
		})
	}))

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "nomic-embed-text-v1", report.Model)
}

// TestHealth_ModelNotLoaded verifies that the 500 the service returns
// before its model finishes loading is an error, while the decoded
// report (with the service's message) is still available.
func TestHealth_ModelNotLoaded(t *testing.T) {
	client := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "Model not loaded",
		})
	}))

	report, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model not loaded")
	require.NotNil(t, report)
	assert.Equal(t, "error", report.Status)
}

// TestHealth_ConnectionRefused verifies transport failures surface as
// errors rather than panics — this is the normal state right after
// launch, before the server binds its port.
func TestHealth_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // The port is now closed.

	client := NewClient(url, time.Second)
	_, err := client.Health(context.Background())
	require.Error(t, err)
}

// TestEmbed verifies the embed request shape and response decoding,
// including that the embedding vector itself is ignored.
func TestEmbed(t *testing.T) {
	client := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embed", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello world", body["text"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding":       []float64{0.1, 0.2, 0.3},
			"dimensions":      768,
			"processing_time": 0.042,
			"model":           "nomic-embed-text-v1",
		})
	}))

	report, err := client.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, 768, report.Dimensions)
	assert.Equal(t, "nomic-embed-text-v1", report.Model)
	assert.InDelta(t, 0.042, report.ProcessingTime, 1e-9)
}

// TestEmbed_ServiceError verifies the service's error envelope is folded
// into the returned error.
func TestEmbed_ServiceError(t *testing.T) {
	client := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Empty text provided"})
	}))

	_, err := client.Embed(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Empty text provided")
	assert.Contains(t, err.Error(), "400")
}

// TestEmbedBatch verifies the batch request shape and response decoding.
func TestEmbedBatch(t *testing.T) {
	client := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed/batch", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"one", "two"}, body["texts"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings":      [][]float64{{0.1}, {0.2}},
			"count":           2,
			"dimensions":      768,
			"processing_time": 0.095,
			"model":           "nomic-embed-text-v1",
		})
	}))

	report, err := client.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count)
	assert.Equal(t, 768, report.Dimensions)
	assert.Equal(t, "nomic-embed-text-v1", report.Model)
}
