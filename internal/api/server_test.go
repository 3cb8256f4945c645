package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandre-axioma/Axiom8/internal/conversation"
	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockRunner struct {
	runTurnFunc      func(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState
	generateOnceFunc func(ctx context.Context, query string) (string, error)
	turns            int
}

func (m *mockRunner) RunTurn(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState {
	m.turns++
	return m.runTurnFunc(ctx, sessionID, transcript)
}

func (m *mockRunner) GenerateOnce(ctx context.Context, query string) (string, error) {
	if m.generateOnceFunc != nil {
		return m.generateOnceFunc(ctx, query)
	}
	return "", errors.New("not configured")
}

func completingRunner(artifact string) *mockRunner {
	return &mockRunner{runTurnFunc: func(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState {
		return &conversation.TurnState{
			Stage:        conversation.StageDone,
			Requirements: &conversation.RequirementsSnapshot{Complete: true},
			Artifact:     artifact,
			Delta: []session.Turn{
				session.NewAssistantTurn("COMPLETE: summary"),
				session.NewAssistantTurn("Here's your complete workflow:\n\n```json\n" + artifact + "\n```"),
			},
		}
	}}
}

func questioningRunner() *mockRunner {
	return &mockRunner{runTurnFunc: func(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState {
		return &conversation.TurnState{
			Stage: conversation.StageAnalyzing,
			Delta: []session.Turn{session.NewAssistantTurn("QUESTIONS: what should trigger it?")},
		}
	}}
}

func newTestServer(t *testing.T, runner TurnRunner) (*httptest.Server, session.Store) {
	t.Helper()
	store := session.NewInMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	n := 0
	srv := NewServer(runner, store, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("test-session-%d", n)
	}))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// Tests
// =============================================================================

func TestStartChatProducesWorkflow(t *testing.T) {
	ts, store := newTestServer(t, completingRunner(`{"nodes":[]}`))

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{
		Query: "Monitor a spreadsheet for new rows and alert on Slack",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChatResponse
	decodeInto(t, resp, &body)

	assert.Equal(t, "test-session-1", body.SessionID)
	assert.Equal(t, "assistant", body.Message.Role)
	assert.Contains(t, body.Message.Content, "```json")
	assert.Equal(t, `{"nodes":[]}`, body.Workflow)
	assert.True(t, body.ConversationComplete)
	assert.Equal(t, "done", body.Stage)
	assert.True(t, body.Metadata.RequirementsComplete)
	assert.True(t, body.Metadata.ArtifactProduced)
	assert.Empty(t, body.Metadata.Error)

	// User turn plus the two assistant turns are persisted.
	state, err := store.Get(context.Background(), body.SessionID)
	require.NoError(t, err)
	assert.Len(t, state.Transcript, 3)
	assert.Equal(t, session.RoleUser, state.Transcript[0].Role)
}

func TestStartChatClarification(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{Query: "automate my stuff"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChatResponse
	decodeInto(t, resp, &body)

	assert.Contains(t, body.Message.Content, "QUESTIONS:")
	assert.Empty(t, body.Workflow)
	assert.False(t, body.ConversationComplete)
	assert.Equal(t, "analyzing", body.Stage)
	assert.False(t, body.Metadata.RequirementsComplete)
	assert.False(t, body.Metadata.ArtifactProduced)
}

func TestStartChatStageFailureCarriesErrorText(t *testing.T) {
	runner := &mockRunner{runTurnFunc: func(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState {
		state := &conversation.TurnState{
			Stage: conversation.StageDone,
			Err: &conversation.ErrorRecord{
				Code:    types.STAGE_REQUIREMENTS_FAILED,
				Message: "Error in requirements analysis: rate limit exceeded",
				Stage:   conversation.StageAnalyzing,
			},
			Delta: []session.Turn{session.NewAssistantTurn("Error in requirements analysis: rate limit exceeded")},
		}
		return state
	}}
	ts, _ := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{Query: "build a workflow"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChatResponse
	decodeInto(t, resp, &body)

	assert.True(t, body.ConversationComplete)
	assert.False(t, body.Metadata.ArtifactProduced)
	assert.Equal(t, "Error in requirements analysis: rate limit exceeded", body.Metadata.Error)
}

func TestStartChatEmptyQuery(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{Query: "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContinueChatAppendsToSession(t *testing.T) {
	runner := questioningRunner()
	ts, store := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{Query: "first"})
	var started ChatResponse
	decodeInto(t, resp, &started)

	resp = postJSON(t, ts.URL+"/api/v1/chat/continue", ContinueChatRequest{
		SessionID: started.SessionID,
		Message:   "second",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var continued ChatResponse
	decodeInto(t, resp, &continued)
	assert.Equal(t, started.SessionID, continued.SessionID)
	assert.Equal(t, 2, runner.turns)

	state, err := store.Get(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 4, len(state.Transcript))
}

func TestContinueChatUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp := postJSON(t, ts.URL+"/api/v1/chat/continue", ContinueChatRequest{
		SessionID: "no-such-session",
		Message:   "hello",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body ErrorResponse
	decodeInto(t, resp, &body)
	assert.Equal(t, "SESSION_NOT_FOUND", body.Error.Code)
}

func TestHistoryReturnsOrderedTranscript(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp := postJSON(t, ts.URL+"/api/v1/chat/start", StartChatRequest{Query: "first"})
	var started ChatResponse
	decodeInto(t, resp, &started)

	resp, err := http.Get(ts.URL + "/api/v1/chat/" + started.SessionID + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history HistoryResponse
	decodeInto(t, resp, &history)

	assert.Equal(t, started.SessionID, history.SessionID)
	assert.Equal(t, 2, history.MessageCount)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, 0, history.Messages[0].Sequence)
	assert.Equal(t, "assistant", history.Messages[1].Role)
	assert.Equal(t, 1, history.Messages[1].Sequence)
}

func TestHistoryUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp, err := http.Get(ts.URL + "/api/v1/chat/absent/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvokeOneShot(t *testing.T) {
	runner := &mockRunner{generateOnceFunc: func(ctx context.Context, query string) (string, error) {
		return `{"nodes":["HTTP Request"]}`, nil
	}}
	ts, _ := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/v1/invoke", InvokeRequest{Query: "fetch a url daily"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body InvokeResponse
	decodeInto(t, resp, &body)
	assert.Equal(t, `{"nodes":["HTTP Request"]}`, body.Output)
	assert.NotEmpty(t, body.SessionID)
}

func TestInvokeFailure(t *testing.T) {
	runner := &mockRunner{generateOnceFunc: func(ctx context.Context, query string) (string, error) {
		return "", errors.New("provider down")
	}}
	ts, _ := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/v1/invoke", InvokeRequest{Query: "q"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestClientDisconnectRunsTurnButDiscardsDelta(t *testing.T) {
	var turnCtxErr error
	runner := &mockRunner{runTurnFunc: func(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState {
		turnCtxErr = ctx.Err()
		return &conversation.TurnState{
			Stage: conversation.StageAnalyzing,
			Delta: []session.Turn{session.NewAssistantTurn("QUESTIONS: still there?")},
		}
	}}

	store := session.NewInMemoryStore()
	defer store.Close()
	srv := NewServer(runner, store, WithIDGenerator(func() string { return "gone-client" }))

	payload, err := json.Marshal(StartChatRequest{Query: "automate something"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/start", bytes.NewReader(payload)).WithContext(ctx)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	// The stages still ran on a live context even though the client was gone.
	require.Equal(t, 1, runner.turns)
	assert.NoError(t, turnCtxErr)

	// But the assistant delta was discarded: only the user turn is recorded.
	state, err := store.Get(context.Background(), "gone-client")
	require.NoError(t, err)
	require.Len(t, state.Transcript, 1)
	assert.Equal(t, session.RoleUser, state.Transcript[0].Role)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyzAllChecksHealthy(t *testing.T) {
	store := session.NewInMemoryStore()
	defer store.Close()
	srv := NewServer(questioningRunner(), store, WithHealthChecks(
		HealthCheck{Name: "llm.requirements", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "llm.generation", Check: func(ctx context.Context) error { return nil }},
	))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ReadyzResponse
	decodeInto(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["llm.requirements"])
	assert.Equal(t, "ok", body.Checks["llm.generation"])
}

func TestReadyzFailingCheckIsDegraded(t *testing.T) {
	store := session.NewInMemoryStore()
	defer store.Close()
	srv := NewServer(questioningRunner(), store, WithHealthChecks(
		HealthCheck{Name: "llm.requirements", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "llm.generation", Check: func(ctx context.Context) error {
			return errors.New("missing credentials")
		}},
	))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body ReadyzResponse
	decodeInto(t, resp, &body)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["llm.requirements"])
	assert.Equal(t, "missing credentials", body.Checks["llm.generation"])
}

func TestMalformedBody(t *testing.T) {
	ts, _ := newTestServer(t, questioningRunner())

	resp, err := http.Post(ts.URL+"/api/v1/chat/start", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
