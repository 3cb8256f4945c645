package api

import (
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/conversation"
	"github.com/alexandre-axioma/Axiom8/internal/session"
)

// StartChatRequest opens a new conversation with an initial user query.
type StartChatRequest struct {
	Query string `json:"query" validate:"required"`
}

// ContinueChatRequest adds a user message to an existing conversation.
type ContinueChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// ChatMessage is the assistant message returned for a turn.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnMetadata summarizes the turn outcome for the client. Error carries the
// stage failure message when the turn ended in an error, empty otherwise.
type TurnMetadata struct {
	RequirementsComplete bool   `json:"requirements_complete"`
	ArtifactProduced     bool   `json:"artifact_produced"`
	Error                string `json:"error,omitempty"`
}

// ChatResponse is the reply to both start and continue calls.
type ChatResponse struct {
	SessionID            string       `json:"session_id"`
	Message              ChatMessage  `json:"message"`
	ConversationComplete bool         `json:"conversation_complete"`
	Stage                string       `json:"stage"`
	Workflow             string       `json:"workflow,omitempty"`
	Metadata             TurnMetadata `json:"metadata"`
}

// HistoryResponse returns a session's full transcript.
type HistoryResponse struct {
	SessionID    string        `json:"session_id"`
	Messages     []HistoryTurn `json:"messages"`
	MessageCount int           `json:"message_count"`
	CreatedAt    time.Time     `json:"created_at"`
}

// HistoryTurn is one transcript entry.
type HistoryTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// InvokeRequest is the legacy one-shot generation request.
type InvokeRequest struct {
	Query string `json:"query" validate:"required"`
}

// InvokeResponse is the legacy one-shot generation reply.
type InvokeResponse struct {
	SessionID string `json:"session_id"`
	Output    string `json:"output"`
}

// ReadyzResponse reports per-dependency readiness.
type ReadyzResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the machine code and human message of a failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func chatResponseFrom(sessionID string, state *conversation.TurnState) ChatResponse {
	var message ChatMessage
	for i := len(state.Delta) - 1; i >= 0; i-- {
		if state.Delta[i].Role == session.RoleAssistant {
			message = ChatMessage{
				Role:      string(state.Delta[i].Role),
				Content:   state.Delta[i].Content,
				Timestamp: state.Delta[i].Timestamp,
			}
			break
		}
	}

	var errText string
	if state.Err != nil {
		errText = state.Err.Message
	}

	return ChatResponse{
		SessionID:            sessionID,
		Message:              message,
		ConversationComplete: state.TurnComplete(),
		Stage:                state.Stage.String(),
		Workflow:             state.Artifact,
		Metadata: TurnMetadata{
			RequirementsComplete: state.RequirementsComplete(),
			ArtifactProduced:     state.Artifact != "",
			Error:                errText,
		},
	}
}

func historyFrom(state *session.State) HistoryResponse {
	messages := make([]HistoryTurn, 0, len(state.Transcript))
	for _, t := range state.Transcript {
		messages = append(messages, HistoryTurn{
			Role:      string(t.Role),
			Content:   t.Content,
			Sequence:  t.Sequence,
			Timestamp: t.Timestamp,
		})
	}
	return HistoryResponse{
		SessionID:    state.ID,
		Messages:     messages,
		MessageCount: len(messages),
		CreatedAt:    state.CreatedAt,
	}
}
