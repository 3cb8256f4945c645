package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements Store using an in-memory map guarded by a RWMutex.
// Sessions do not survive process restart; use the redis driver when
// durability across restarts is required.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithTTL overrides the inactivity window used by Reap.
func WithTTL(ttl time.Duration) InMemoryOption {
	return func(s *InMemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryStore creates a new in-memory session store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*State),
		ttl:      DefaultTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get implements Store. Reads refresh LastTouchedAt so active sessions are
// not reaped mid-conversation.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	state.LastTouchedAt = s.now().UTC()
	return state.Clone(), nil
}

// Append implements Store, creating the session on first append.
func (s *InMemoryStore) Append(ctx context.Context, id string, turns ...Turn) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()

	state, ok := s.sessions[id]
	if !ok {
		state = &State{
			ID:        id,
			CreatedAt: now,
		}
		s.sessions[id] = state
	}

	for _, turn := range turns {
		turn.Sequence = len(state.Transcript)
		state.Transcript = append(state.Transcript, turn)
	}
	state.LastTouchedAt = now

	return state.Clone(), nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Reap implements Store, removing sessions idle past the TTL.
func (s *InMemoryStore) Reap(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-s.ttl)
	removed := 0

	for id, state := range s.sessions {
		if state.LastTouchedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed, nil
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}

// Len returns the number of live sessions, for tests and diagnostics.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
