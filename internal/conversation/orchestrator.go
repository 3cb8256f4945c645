// Package conversation implements the conversation state machine: the
// per-turn routing between the requirements and generation stages, the
// forced-progression liveness override, and the folding of stage outcomes
// into transcript deltas.
package conversation

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/alexandre-axioma/Axiom8/internal/observability"
	"github.com/alexandre-axioma/Axiom8/internal/retrieval"
	"github.com/alexandre-axioma/Axiom8/internal/session"
)

// StageRunner is the generate(prompt) -> text contract each reasoning stage
// is invoked through. llm.StageAdapter implements it.
type StageRunner interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever is the slice of the tool gateway the generation stage uses.
type Retriever interface {
	SearchAll(ctx context.Context, query string, maxResults int) []retrieval.Result
}

// Orchestrator advances a conversation by one turn. It owns no mutable state
// between turns: every RunTurn starts from the transcript it is handed and
// returns a TurnState for the caller to persist.
type Orchestrator struct {
	requirements StageRunner
	generation   StageRunner
	retriever    Retriever
	logger       *observability.TracedLogger
	tracer       trace.Tracer

	forceCompleteAfter int
	maxToolResults     int
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithForceCompleteAfter sets the user-turn threshold for forced progression.
// Default: 4
func WithForceCompleteAfter(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.forceCompleteAfter = n
		}
	}
}

// WithMaxToolResults bounds how many documents each retrieval backend is
// asked for. Default: 5
func WithMaxToolResults(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxToolResults = n
		}
	}
}

// WithLogger sets the trace-correlated logger for orchestration events.
func WithLogger(logger *observability.TracedLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for turn/stage/tool spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewOrchestrator creates an Orchestrator over the two stage runners and the
// retrieval gateway.
func NewOrchestrator(requirements, generation StageRunner, retriever Retriever, options ...Option) *Orchestrator {
	o := &Orchestrator{
		requirements:       requirements,
		generation:         generation,
		retriever:          retriever,
		forceCompleteAfter: 4,
		maxToolResults:     5,
		logger:             observability.NewTracedLogger(slog.Default().Handler(), "conversation"),
		tracer:             noop.NewTracerProvider().Tracer("conversation"),
	}

	for _, opt := range options {
		opt(o)
	}

	return o
}

// RunTurn advances the conversation by one turn. The transcript must already
// include the user message that opened the turn. The turn begins at
// Analyzing; when the requirements stage (or the forced-progression override)
// yields a complete snapshot the turn routes straight into Generating, so a
// well-specified first message produces its artifact in a single turn.
//
// RunTurn never returns an error: stage failures are folded into the
// TurnState as an ErrorRecord with a user-facing rendering, so every turn
// yields an assistant message.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID string, transcript []session.Turn) *TurnState {
	ctx, span := o.tracer.Start(ctx, "conversation.turn",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("transcript.len", len(transcript)),
		))
	defer span.End()

	state := &TurnState{Stage: StageAnalyzing}

	o.analyze(ctx, transcript, state)

	if state.Stage == StageGenerating {
		o.generate(ctx, append(transcript, state.Delta...), state)
	}

	span.SetAttributes(
		attribute.String("turn.stage", state.Stage.String()),
		attribute.Bool("turn.artifact_produced", state.Artifact != ""),
		attribute.Bool("turn.error", state.Err != nil),
	)

	o.logger.Info(ctx, "turn finished",
		"session_id", sessionID,
		"stage", state.Stage.String(),
		"requirements_complete", state.RequirementsComplete(),
		"artifact_produced", state.Artifact != "",
		"error", state.Err != nil,
	)

	return state
}
