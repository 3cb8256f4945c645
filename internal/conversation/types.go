package conversation

import (
	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// Stage represents the state machine's position within a single turn.
type Stage string

const (
	// StageAnalyzing is the initial stage; the requirements stage runs here.
	StageAnalyzing Stage = "analyzing"

	// StageGenerating runs the workflow generation stage. Reached only with
	// a complete RequirementsSnapshot.
	StageGenerating Stage = "generating"

	// StageDone terminates the turn with either an artifact or an error.
	StageDone Stage = "done"
)

// String returns the string representation of the Stage
func (s Stage) String() string {
	return string(s)
}

// RequirementsSnapshot captures the requirements stage's structured judgment
// of the user's request. Produced at most once per conversation and immutable
// afterwards; the generation stage consumes it read-only.
type RequirementsSnapshot struct {
	OriginalQuery        string   `json:"original_query"`
	Purpose              string   `json:"purpose"`
	TriggerType          string   `json:"trigger_type"`
	RequiredCapabilities []string `json:"required_capabilities"`
	DataFlow             []string `json:"data_flow"`
	OpenQuestions        []string `json:"open_questions,omitempty"`
	Complete             bool     `json:"complete"`
}

// ErrorRecord describes an unrecoverable stage failure for one turn. It ends
// the turn, not the session; the next user message starts a fresh turn with
// this failure already in transcript history.
type ErrorRecord struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
	Stage   Stage           `json:"stage"`
}

// TurnState is the ephemeral per-turn orchestration state. It is created
// fresh from the persisted transcript at the start of every turn, mutated
// only by the state machine, and folded back into the session store by the
// caller once the turn finishes.
//
// Invariants:
//   - Stage == StageDone iff Artifact or Err is set.
//   - Stage == StageGenerating implies Requirements.Complete.
type TurnState struct {
	Stage        Stage
	Requirements *RequirementsSnapshot
	Artifact     string
	Err          *ErrorRecord
	Delta        []session.Turn
}

// TurnComplete reports whether the turn reached a terminal outcome (artifact
// or error). A clarifying question leaves the conversation open at Analyzing.
func (t *TurnState) TurnComplete() bool {
	return t.Artifact != "" || t.Err != nil
}

// RequirementsComplete reports whether a complete snapshot exists.
func (t *TurnState) RequirementsComplete() bool {
	return t.Requirements != nil && t.Requirements.Complete
}

// LastAssistantMessage returns the content of the last assistant turn in the
// delta. Every turn produces at least one assistant message, including
// failures.
func (t *TurnState) LastAssistantMessage() string {
	for i := len(t.Delta) - 1; i >= 0; i-- {
		if t.Delta[i].Role == session.RoleAssistant {
			return t.Delta[i].Content
		}
	}
	return ""
}

// appendAssistant records an assistant message in the turn delta.
func (t *TurnState) appendAssistant(content string) {
	t.Delta = append(t.Delta, session.NewAssistantTurn(content))
}

// fail ends the turn with an error record and the user-facing rendering of
// the failure.
func (t *TurnState) fail(stage Stage, code types.ErrorCode, message string) {
	t.Err = &ErrorRecord{Code: code, Message: message, Stage: stage}
	t.Stage = StageDone
	t.appendAssistant(message)
}
