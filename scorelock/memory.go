package scorelock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is a process-local Locker. It is the store used in tests and
// in single-node deployments that run without Redis.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[int]Lock
	now   func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[int]Lock), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, matchID int, ownerID, lockID string, ttl time.Duration) (*Lock, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cur, exists := l.locks[matchID]
	if exists && cur.ExpiresAt.After(now) {
		if cur.OwnerID == ownerID && (lockID == "" || cur.LockID == lockID) {
			cur.ExpiresAt = now.Add(ttl)
			l.locks[matchID] = cur
			return &cur, nil
		}
		held := cur
		return nil, &HeldError{Holder: held}
	}

	if lockID == "" {
		lockID = uuid.NewString()
	}
	granted := Lock{MatchID: matchID, OwnerID: ownerID, LockID: lockID, ExpiresAt: now.Add(ttl)}
	l.locks[matchID] = granted
	return &granted, nil
}

func (l *MemoryLocker) Release(_ context.Context, matchID int, ownerID, lockID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, exists := l.locks[matchID]
	if !exists || !cur.ExpiresAt.After(l.now()) {
		delete(l.locks, matchID)
		return nil // already lapsed, nothing to strand
	}
	if cur.OwnerID != ownerID || cur.LockID != lockID {
		return ErrNotHeld
	}
	delete(l.locks, matchID)
	return nil
}

func (l *MemoryLocker) Get(_ context.Context, matchID int) (*Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, exists := l.locks[matchID]
	if !exists || !cur.ExpiresAt.After(l.now()) {
		return nil, nil
	}
	held := cur
	return &held, nil
}
