package session

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single conversation turn. Turns are immutable once
// appended; Sequence defines causal order within a session.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user turn. Sequence is assigned by the store on append.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn creates an assistant turn.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// State holds a session's full transcript. It is owned exclusively by the
// Store; callers receive copies and fold changes back through Append.
type State struct {
	ID            string    `json:"id"`
	Transcript    []Turn    `json:"transcript"`
	CreatedAt     time.Time `json:"created_at"`
	LastTouchedAt time.Time `json:"last_touched_at"`
}

// UserTurnCount returns the number of user turns in the transcript. The
// conversation state machine uses this for its forced-progression check.
func (s *State) UserTurnCount() int {
	n := 0
	for _, t := range s.Transcript {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the state so callers can read it without
// holding store locks.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Transcript = make([]Turn, len(s.Transcript))
	copy(cp.Transcript, s.Transcript)
	return &cp
}
