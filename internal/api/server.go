// Package api exposes the conversation service over HTTP: session-scoped
// chat endpoints, transcript history, a legacy one-shot invoke route, and
// liveness and readiness probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/conversation"
	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// TurnRunner is the slice of the orchestrator the HTTP layer drives.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID string, transcript []session.Turn) *conversation.TurnState
	GenerateOnce(ctx context.Context, query string) (string, error)
}

// IDGenerator mints session identifiers. Overridable in tests.
type IDGenerator func() string

// HealthCheck probes one named dependency for the readiness endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the HTTP boundary of the service.
type Server struct {
	runner TurnRunner
	store  session.Store
	logger *slog.Logger
	newID  IDGenerator
	checks []HealthCheck

	httpServer *http.Server
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides session ID minting.
func WithIDGenerator(gen IDGenerator) ServerOption {
	return func(s *Server) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithHealthChecks registers dependency probes behind the readiness endpoint.
func WithHealthChecks(checks ...HealthCheck) ServerOption {
	return func(s *Server) {
		s.checks = append(s.checks, checks...)
	}
}

// NewServer wires the HTTP handlers over the orchestrator and session store.
func NewServer(runner TurnRunner, store session.Store, options ...ServerOption) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		logger: slog.Default(),
		newID:  defaultIDGenerator,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Handler returns the routed http.Handler for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat/start", s.handleStartChat)
	mux.HandleFunc("POST /api/v1/chat/continue", s.handleContinueChat)
	mux.HandleFunc("GET /api/v1/chat/{session_id}/history", s.handleHistory)
	mux.HandleFunc("POST /api/v1/invoke", s.handleInvoke)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	return mux
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string, readTimeout, writeTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	s.logger.Info("http server listening", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return types.WrapError(types.API_INTERNAL, "http server stopped", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: string(code), Message: message}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, types.API_INVALID_REQUEST, "invalid request body: "+err.Error())
		return false
	}
	return true
}
