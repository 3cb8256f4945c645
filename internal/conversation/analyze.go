package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// analyze runs the requirements stage against the transcript and routes the
// turn. Outcomes:
//   - completion marker present: snapshot synthesized, route to Generating
//   - clarification: assistant question appended, turn stays open at Analyzing
//   - forced progression: threshold reached, stage judgment overridden
//   - stage failure: ErrorRecord, turn ends at Done
func (o *Orchestrator) analyze(ctx context.Context, transcript []session.Turn, state *TurnState) {
	ctx, span := o.tracer.Start(ctx, "stage.analyzing")
	defer span.End()

	userTurns := 0
	latest := ""
	for _, t := range transcript {
		if t.Role == session.RoleUser {
			userTurns++
			latest = t.Content
		}
	}
	span.SetAttributes(attribute.Int("conversation.user_turns", userTurns))

	prompt := ComposeRequirementsPrompt(transcript, o.forceCompleteAfter)

	output, err := o.requirements.Generate(ctx, prompt)
	if err != nil {
		o.logger.Error(ctx, "requirements stage failed", "error", err, "user_turns", userTurns)
		span.RecordError(err)
		state.fail(StageAnalyzing, types.STAGE_REQUIREMENTS_FAILED,
			fmt.Sprintf("Error in requirements analysis: %v", err))
		return
	}

	forced := false
	if userTurns >= o.forceCompleteAfter && !strings.HasPrefix(output, CompletionMarker) {
		// Liveness override: clarification cannot loop past the threshold.
		o.logger.Warn(ctx, "forcing requirements completion", "user_turns", userTurns, "threshold", o.forceCompleteAfter)
		output = CompletionMarker + " Create a workflow based on user requirements from the conversation (automatically proceeding after multiple exchanges)"
		forced = true
	}
	span.SetAttributes(attribute.Bool("requirements.forced", forced))

	state.appendAssistant(output)

	if !strings.HasPrefix(output, CompletionMarker) {
		// Clarifying question: the turn ends but the conversation stays
		// logically open awaiting the next user message.
		span.SetAttributes(attribute.Bool("requirements.complete", false))
		return
	}

	purpose := strings.TrimSpace(strings.TrimPrefix(output, CompletionMarker))
	if forced {
		purpose = "Workflow based on user conversation: " + latest
	}

	state.Requirements = &RequirementsSnapshot{
		OriginalQuery:        latest,
		Purpose:              purpose,
		TriggerType:          "schedule",
		RequiredCapabilities: []string{"Schedule Trigger", "HTTP Request"},
		DataFlow:             []string{"Trigger -> Process -> Output"},
		Complete:             true,
	}
	state.Stage = StageGenerating

	span.SetAttributes(attribute.Bool("requirements.complete", true))
}
