package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// Redis key prefix for sessions
const sessionKeyPrefix = "axiom8:session:"

// RedisStore implements Store on Redis. Transcripts are stored as JSON values
// with a key TTL, so the inactivity window is enforced by Redis itself and
// Reap is a no-op. Sessions survive process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Get implements Store. Reads refresh the key TTL.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	key := s.key(id)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, types.WrapError(types.SESSION_STORE_FAILED, "redis get", err)
	}

	var state State
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, types.WrapError(types.SESSION_ENCODE_FAILED, "decoding session", err)
	}

	state.LastTouchedAt = time.Now().UTC()

	// Best effort; a failed refresh only shortens the idle window.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &state, nil
}

// Append implements Store. The single-writer-per-session contract makes a
// read-modify-write safe here without WATCH.
func (s *RedisStore) Append(ctx context.Context, id string, turns ...Turn) (*State, error) {
	key := s.key(id)
	now := time.Now().UTC()

	state := &State{ID: id, CreatedAt: now}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, types.WrapError(types.SESSION_STORE_FAILED, "redis get", err)
	}
	if err == nil {
		state = &State{}
		if err := json.Unmarshal([]byte(val), state); err != nil {
			return nil, types.WrapError(types.SESSION_ENCODE_FAILED, "decoding session", err)
		}
	}

	for _, turn := range turns {
		turn.Sequence = len(state.Transcript)
		state.Transcript = append(state.Transcript, turn)
	}
	state.LastTouchedAt = now

	encoded, err := json.Marshal(state)
	if err != nil {
		return nil, types.WrapError(types.SESSION_ENCODE_FAILED, "encoding session", err)
	}

	if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
		return nil, types.WrapError(types.SESSION_STORE_FAILED, "redis set", err)
	}

	return state, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return types.WrapError(types.SESSION_STORE_FAILED, "redis del", err)
	}
	return nil
}

// Reap implements Store. Redis expires keys natively, so there is nothing to
// sweep.
func (s *RedisStore) Reap(ctx context.Context) (int, error) {
	return 0, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for a session ID.
func (s *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}
