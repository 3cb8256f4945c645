package conversation

import (
	"fmt"
	"strings"

	"github.com/alexandre-axioma/Axiom8/internal/retrieval"
	"github.com/alexandre-axioma/Axiom8/internal/session"
)

// CompletionMarker is the distinguished leading token a requirements-stage
// response uses to signal it judges the request sufficiently specified.
const CompletionMarker = "COMPLETE:"

// historyTruncateRunes bounds how much of each prior message the requirements
// prompt carries.
const historyTruncateRunes = 200

// RequirementsSystemPrompt is the fixed instruction for the requirements
// analysis stage.
const RequirementsSystemPrompt = `You are an expert automation workflow requirements analyst.

Your role is to analyze user requests for automation workflows. Be helpful and
move to workflow generation as soon as you have enough basic information; do
not over-analyze or ask too many questions.

Response format:
- If the request has a clear purpose and basic approach, respond with:
  "COMPLETE: [brief summary of what the workflow should do]"
- If the request is vague or missing core information, respond with:
  "QUESTIONS: [list 1-2 essential questions only]"

A request is complete (be generous) when it has a clear goal, some indication
of trigger or schedule, and a basic idea of the integrations involved. Prefer
building over questioning when in doubt, and never ask about technical
implementation details.`

// GenerationSystemPrompt is the fixed instruction for the workflow
// generation stage.
const GenerationSystemPrompt = `You are an expert automation workflow developer.

Generate a complete, production-ready workflow definition in JSON format based
on the user's requirements and the supplied reference documentation. Respond
only with the workflow JSON object, with no explanation or additional text.
Include proper node configurations, connections, and settings so the output
can be imported directly.`

// ComposeRequirementsPrompt builds the requirements-stage prompt
// deterministically from the transcript: exchange count, the latest user
// message in full, and truncated prior history for context.
func ComposeRequirementsPrompt(transcript []session.Turn, forceAfter int) string {
	var latest string
	userTurns := 0
	for _, t := range transcript {
		if t.Role == session.RoleUser {
			userTurns++
			latest = t.Content
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current conversation exchange: %d\n", userTurns)
	fmt.Fprintf(&b, "Latest user message: %s\n\n", latest)
	b.WriteString("Previous conversation context:\n")

	for _, t := range transcript[:max(0, len(transcript)-1)] {
		role := "User"
		if t.Role == session.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, truncateRunes(t.Content, historyTruncateRunes))
	}

	if userTurns >= forceAfter-1 {
		fmt.Fprintf(&b, "\nRemember: if this is exchange %d or later and the user has provided substantial details, respond with COMPLETE.\n", forceAfter-1)
	}

	return b.String()
}

// ComposeGenerationPrompt builds the generation-stage prompt from the full
// transcript, the requirements snapshot, and whatever retrieval context the
// tool fan-out produced. The composition is deterministic given the same
// inputs, which makes the stage call replayable.
func ComposeGenerationPrompt(transcript []session.Turn, req *RequirementsSnapshot, toolResults []retrieval.Result) string {
	var b strings.Builder

	b.WriteString("Generate a complete automation workflow based on this conversation with the user.\n\n")

	b.WriteString("=== CONVERSATION HISTORY ===\n")
	for _, t := range transcript {
		role := "User"
		if t.Role == session.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}

	b.WriteString("\n=== REQUIREMENTS SUMMARY ===\n")
	fmt.Fprintf(&b, "Purpose: %s\n", req.Purpose)
	fmt.Fprintf(&b, "Original request: %s\n", req.OriginalQuery)
	fmt.Fprintf(&b, "Trigger: %s\n", req.TriggerType)
	if len(req.RequiredCapabilities) > 0 {
		fmt.Fprintf(&b, "Required capabilities: %s\n", strings.Join(req.RequiredCapabilities, ", "))
	}
	if len(req.DataFlow) > 0 {
		fmt.Fprintf(&b, "Data flow: %s\n", strings.Join(req.DataFlow, "; "))
	}

	if block := formatToolContext(toolResults); block != "" {
		b.WriteString("\n=== REFERENCE DOCUMENTATION ===\n")
		b.WriteString(block)
	}

	b.WriteString("\n=== INSTRUCTIONS ===\n")
	b.WriteString("1. Analyze the full conversation to understand all user requirements.\n")
	b.WriteString("2. Use the reference documentation above where it is relevant.\n")
	b.WriteString("3. Make reasonable assumptions for any missing technical details.\n")
	b.WriteString("4. Output only the complete workflow JSON.\n")

	return b.String()
}

// formatToolContext renders successful retrieval results grouped by backend.
// Failed backends are simply absent; ordering follows the result slice, which
// the gateway keeps stable across runs.
func formatToolContext(results []retrieval.Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err != nil || len(r.Documents) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", r.Backend)
		for _, doc := range r.Documents {
			if doc.Title != "" {
				fmt.Fprintf(&b, "- %s: %s\n", doc.Title, doc.Content)
			} else {
				fmt.Fprintf(&b, "- %s\n", doc.Content)
			}
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
