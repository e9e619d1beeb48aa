// Package scorelock implements the advisory exclusive claim a scoring client
// holds on a match while entering scores. It is deliberately soft: a lock
// lapses via TTL so a crashed client can never strand a match, and no actor
// may force-release another's lock.
package scorelock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a scoring claim lives without a refresh. Live
// scoring is human-paced, so the window is generous but bounded.
const DefaultTTL = 45 * time.Second

var ErrNotHeld = errors.New("score lock not held by caller")

// Lock describes a live claim on a match.
type Lock struct {
	MatchID   int       `json:"match_id"`
	OwnerID   string    `json:"owner_id"`
	LockID    string    `json:"lock_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HeldError is returned when a different owner already holds a live lock.
// It carries the holder's lock id and expiry so the caller can decide
// whether to wait.
type HeldError struct {
	Holder Lock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("match %d is locked by %s until %s",
		e.Holder.MatchID, e.Holder.OwnerID, e.Holder.ExpiresAt.Format(time.RFC3339))
}

// Locker is the soft lock store. Acquire either grants a fresh lock (none
// exists or the previous one expired), refreshes the caller's own session
// (same owner presenting its lock id, or the same owner with no lock id,
// which resumes the existing session and returns its id), or fails with
// *HeldError.
type Locker interface {
	Acquire(ctx context.Context, matchID int, ownerID, lockID string, ttl time.Duration) (*Lock, error)
	Release(ctx context.Context, matchID int, ownerID, lockID string) error
	Get(ctx context.Context, matchID int) (*Lock, error)
}
