package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/alexandre-axioma/Axiom8/internal/retrieval"
	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// generate runs the generation stage: concurrent retrieval fan-out, prompt
// composition, one stage call, artifact fold-back. A single failed backend
// degrades the context block; only a reasoning-backend failure ends the turn
// with an error.
func (o *Orchestrator) generate(ctx context.Context, transcript []session.Turn, state *TurnState) {
	ctx, span := o.tracer.Start(ctx, "stage.generating")
	defer span.End()

	if !state.RequirementsComplete() {
		state.fail(StageGenerating, types.STAGE_GENERATION_FAILED,
			"No complete requirements available for workflow generation.")
		return
	}

	toolResults := o.gatherContext(ctx, state.Requirements.Purpose)

	prompt := ComposeGenerationPrompt(transcript, state.Requirements, toolResults)

	artifact, err := o.generation.Generate(ctx, prompt)
	if err != nil {
		o.logger.Error(ctx, "generation stage failed", "error", err)
		span.RecordError(err)
		state.fail(StageGenerating, types.STAGE_GENERATION_FAILED,
			fmt.Sprintf("Error generating workflow: %v", err))
		return
	}
	if strings.TrimSpace(artifact) == "" {
		// A turn at Done carries an artifact or an error, never neither.
		o.logger.Error(ctx, "generation stage returned empty output")
		state.fail(StageGenerating, types.STAGE_GENERATION_FAILED,
			"Error generating workflow: empty response from generation stage")
		return
	}

	state.Artifact = artifact
	state.Stage = StageDone
	state.appendAssistant(fmt.Sprintf("Here's your complete workflow:\n\n```json\n%s\n```", artifact))

	span.SetAttributes(attribute.Int("artifact.len", len(artifact)))
}

// gatherContext fans the purpose query out to every configured backend.
// Each call carries its own span; failures are logged and dropped so partial
// tool context never blocks the turn.
func (o *Orchestrator) gatherContext(ctx context.Context, query string) []retrieval.Result {
	if o.retriever == nil {
		return nil
	}

	ctx, span := o.tracer.Start(ctx, "stage.generating.retrieval")
	defer span.End()

	results := o.retriever.SearchAll(ctx, query, o.maxToolResults)

	succeeded := 0
	for _, r := range results {
		if r.Err != nil {
			o.logger.Warn(ctx, "retrieval backend degraded", "backend", r.Backend, "error", r.Err)
			continue
		}
		succeeded++
	}

	span.SetAttributes(
		attribute.Int("retrieval.backends", len(results)),
		attribute.Int("retrieval.succeeded", succeeded),
	)

	return results
}

// GenerateOnce runs the generation stage directly against a single query,
// with retrieval context but no requirements phase. This backs the legacy
// one-shot endpoint.
func (o *Orchestrator) GenerateOnce(ctx context.Context, query string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "conversation.invoke")
	defer span.End()

	req := &RequirementsSnapshot{
		OriginalQuery: query,
		Purpose:       query,
		TriggerType:   "schedule",
		Complete:      true,
	}

	transcript := []session.Turn{session.NewUserTurn(query)}
	toolResults := o.gatherContext(ctx, query)

	artifact, err := o.generation.Generate(ctx, ComposeGenerationPrompt(transcript, req, toolResults))
	if err != nil {
		span.RecordError(err)
		return "", types.WrapError(types.STAGE_GENERATION_FAILED, "one-shot generation", err)
	}
	if strings.TrimSpace(artifact) == "" {
		return "", types.NewError(types.STAGE_GENERATION_FAILED, "one-shot generation returned empty output")
	}

	return artifact, nil
}
