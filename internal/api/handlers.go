package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

func defaultIDGenerator() string {
	return uuid.New().String()
}

// handleStartChat opens a new session from the initial query and runs the
// first turn. A well-specified query can produce its workflow right here.
func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	var req StartChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, types.API_INVALID_REQUEST, "query is required")
		return
	}

	sessionID := s.newID()

	state, err := s.store.Append(r.Context(), sessionID, session.NewUserTurn(req.Query))
	if err != nil {
		s.logger.Error("session append failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, types.API_INTERNAL, "failed to create session")
		return
	}

	s.runTurnAndRespond(w, r, sessionID, state.Transcript)
}

// handleContinueChat appends a user message to an existing session and runs
// the next turn.
func (s *Server) handleContinueChat(w http.ResponseWriter, r *http.Request) {
	var req ContinueChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, types.API_INVALID_REQUEST, "session_id and message are required")
		return
	}

	// Existence check first so a stale session ID is a 404, not a silent
	// re-creation through Append.
	if _, err := s.store.Get(r.Context(), req.SessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, types.SESSION_NOT_FOUND, "session not found or expired")
			return
		}
		s.logger.Error("session lookup failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, types.API_INTERNAL, "session lookup failed")
		return
	}

	state, err := s.store.Append(r.Context(), req.SessionID, session.NewUserTurn(req.Message))
	if err != nil {
		s.logger.Error("session append failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, types.API_INTERNAL, "failed to record message")
		return
	}

	s.runTurnAndRespond(w, r, req.SessionID, state.Transcript)
}

// runTurnAndRespond executes one turn over the transcript, persists its
// delta, and writes the chat response. The turn runs on a cancel-detached
// context (trace context preserved) so a client disconnect lets in-flight
// stage and tool calls finish and their spans close cleanly. If the client
// is gone by fold-back time the delta is discarded: a turn is recorded whole
// or not at all.
func (s *Server) runTurnAndRespond(w http.ResponseWriter, r *http.Request, sessionID string, transcript []session.Turn) {
	state := s.runner.RunTurn(context.WithoutCancel(r.Context()), sessionID, transcript)

	if r.Context().Err() != nil {
		s.logger.Warn("client disconnected before turn fold-back, discarding delta",
			"session_id", sessionID, "delta_len", len(state.Delta))
		return
	}

	if len(state.Delta) > 0 {
		if _, err := s.store.Append(context.WithoutCancel(r.Context()), sessionID, state.Delta...); err != nil {
			s.logger.Error("failed to persist turn delta", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, types.API_INTERNAL, "failed to persist turn")
			return
		}
	}

	writeJSON(w, http.StatusOK, chatResponseFrom(sessionID, state))
}

// handleHistory returns the full transcript for a session.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	state, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, types.SESSION_NOT_FOUND, "session not found or expired")
			return
		}
		s.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, types.API_INTERNAL, "session lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, historyFrom(state))
}

// handleInvoke is the legacy one-shot endpoint: no session, straight to
// generation with the query as the purpose.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, types.API_INVALID_REQUEST, "query is required")
		return
	}

	output, err := s.runner.GenerateOnce(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("one-shot generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, types.CodeOf(err), "workflow generation failed")
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{SessionID: s.newID(), Output: output})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz probes every registered dependency. Any failing check turns
// the response into a 503 so load balancers stop routing here.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(s.checks))
	for _, hc := range s.checks {
		if err := hc.Check(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", hc.Name, "error", err)
			checks[hc.Name] = err.Error()
			status = "degraded"
			continue
		}
		checks[hc.Name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, ReadyzResponse{Status: status, Checks: checks})
}
