package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

func newBackendServer(t *testing.T, docs []Document) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Query)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{Results: docs})
	}))
}

func TestSearchReturnsDocumentsInOrder(t *testing.T) {
	docs := []Document{
		{Title: "first", Content: "a", Score: 0.9},
		{Title: "second", Content: "b", Score: 0.5},
	}
	srv := newBackendServer(t, docs)
	defer srv.Close()

	g := NewGateway(map[string]BackendConfig{
		BackendExamples: {URL: srv.URL},
	})

	got, err := g.Search(context.Background(), BackendExamples, "slack alerts", 5)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestSearchUnknownBackendFailsFastWithoutNetworkIO(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	g := NewGateway(map[string]BackendConfig{
		BackendExamples: {URL: srv.URL},
	})

	_, err := g.Search(context.Background(), "nonexistent", "query", 5)
	require.Error(t, err)
	assert.Equal(t, types.RETRIEVAL_UNKNOWN_BACKEND, types.CodeOf(err))
	assert.Equal(t, int32(0), hits.Load())
}

func TestSearchNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(map[string]BackendConfig{BackendCoreConcepts: {URL: srv.URL}})

	_, err := g.Search(context.Background(), BackendCoreConcepts, "q", 3)
	assert.Equal(t, types.RETRIEVAL_BAD_STATUS, types.CodeOf(err))
}

func TestSearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	g := NewGateway(map[string]BackendConfig{BackendCoreConcepts: {URL: srv.URL}})

	_, err := g.Search(context.Background(), BackendCoreConcepts, "q", 3)
	assert.Equal(t, types.RETRIEVAL_BAD_RESPONSE, types.CodeOf(err))
}

func TestSearchConnectionFailure(t *testing.T) {
	// Port 1 is never listening.
	g := NewGateway(map[string]BackendConfig{BackendCoreConcepts: {URL: "http://127.0.0.1:1"}})

	_, err := g.Search(context.Background(), BackendCoreConcepts, "q", 3)
	require.Error(t, err)
	assert.Equal(t, types.RETRIEVAL_REQUEST_FAILED, types.CodeOf(err))
}

func TestSearchTimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewGateway(
		map[string]BackendConfig{BackendIntegrations: {URL: srv.URL}},
		WithTimeout(20*time.Millisecond),
	)

	_, err := g.Search(context.Background(), BackendIntegrations, "q", 3)
	require.Error(t, err)
	assert.Equal(t, types.RETRIEVAL_TIMEOUT, types.CodeOf(err))

	var axiomErr *types.AxiomError
	require.True(t, errors.As(err, &axiomErr))
	assert.True(t, axiomErr.Retryable)
}

func TestSearchAllDegradesPartialFailures(t *testing.T) {
	good := newBackendServer(t, []Document{{Content: "doc"}})
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()

	g := NewGateway(map[string]BackendConfig{
		BackendExamples:     {URL: good.URL},
		BackendCoreConcepts: {URL: bad.URL},
	})

	results := g.SearchAll(context.Background(), "q", 5)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Backend] = r
	}

	require.NoError(t, byName[BackendExamples].Err)
	assert.Len(t, byName[BackendExamples].Documents, 1)
	assert.Equal(t, types.RETRIEVAL_BAD_STATUS, types.CodeOf(byName[BackendCoreConcepts].Err))
}
