package session

import (
	"context"
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// ErrSessionNotFound is returned by Get when the session does not exist.
var ErrSessionNotFound = types.NewError(types.SESSION_NOT_FOUND, "session not found")

// DefaultTTL is the inactivity window after which a session is reaped.
const DefaultTTL = 24 * time.Hour

// Store defines the interface for session transcript storage. Callers must
// serialize writes to the same session ID (single writer per session);
// concurrent access to different sessions is safe.
//
// The in-memory driver is the reference implementation; a durable store
// (redis) is a drop-in replacement behind this interface.
type Store interface {
	// Get retrieves a session by ID and refreshes its last-touched time.
	// Returns ErrSessionNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*State, error)

	// Append appends turns to a session, creating the session if absent.
	// Sequence numbers are assigned in insertion order. Returns the updated
	// state.
	Append(ctx context.Context, id string, turns ...Turn) (*State, error)

	// Delete removes a session by ID. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Reap removes sessions idle past the TTL and returns how many were
	// removed.
	Reap(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}

// StartReaper runs store.Reap on the given interval until ctx is cancelled.
// It is a convenience for drivers that do not expire entries natively.
func StartReaper(ctx context.Context, store Store, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = store.Reap(ctx)
			}
		}
	}()
}
