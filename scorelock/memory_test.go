package scorelock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(start time.Time) (*MemoryLocker, *time.Time) {
	now := start
	l := NewMemoryLocker()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLockerAcquire(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocker(time.Unix(1000, 0))

	lock, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, 1, lock.MatchID)
	assert.Equal(t, "ref-a", lock.OwnerID)
	assert.NotEmpty(t, lock.LockID)
	assert.Equal(t, time.Unix(1000, 0).Add(DefaultTTL), lock.ExpiresAt)
}

func TestMemoryLockerDenialSurfacesHolder(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocker(time.Unix(1000, 0))

	granted, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, 1, "ref-b", "", DefaultTTL)
	var held *HeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "ref-a", held.Holder.OwnerID)
	assert.Equal(t, granted.LockID, held.Holder.LockID)
	assert.Equal(t, granted.ExpiresAt, held.Holder.ExpiresAt)
}

func TestMemoryLockerRefreshOwn(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLocker(time.Unix(1000, 0))

	first, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	refreshed, err := l.Acquire(ctx, 1, "ref-a", first.LockID, DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, first.LockID, refreshed.LockID)
	assert.Equal(t, now.Add(DefaultTTL), refreshed.ExpiresAt)
}

func TestMemoryLockerOwnerResumesWithoutLockID(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLocker(time.Unix(1000, 0))

	first, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)

	*now = now.Add(10 * time.Second)
	resumed, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, first.LockID, resumed.LockID, "owner without a lock id resumes the existing session")
	assert.Equal(t, now.Add(DefaultTTL), resumed.ExpiresAt)
}

func TestMemoryLockerExpiryAllowsTakeover(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLocker(time.Unix(1000, 0))

	_, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)

	*now = now.Add(DefaultTTL + time.Second)
	lock, err := l.Acquire(ctx, 1, "ref-b", "", DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, "ref-b", lock.OwnerID)
}

func TestMemoryLockerRelease(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLocker(time.Unix(1000, 0))

	lock, err := l.Acquire(ctx, 1, "ref-a", "", DefaultTTL)
	require.NoError(t, err)

	t.Run("wrong owner", func(t *testing.T) {
		err := l.Release(ctx, 1, "ref-b", lock.LockID)
		assert.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("holder releases", func(t *testing.T) {
		require.NoError(t, l.Release(ctx, 1, "ref-a", lock.LockID))
		got, err := l.Get(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("lapsed lock releases silently", func(t *testing.T) {
		lock, err := l.Acquire(ctx, 2, "ref-a", "", DefaultTTL)
		require.NoError(t, err)
		*now = now.Add(DefaultTTL + time.Minute)
		assert.NoError(t, l.Release(ctx, 2, "ref-a", lock.LockID))
	})
}

func TestMemoryLockerGet(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLocker(time.Unix(1000, 0))

	got, err := l.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got, "absent lock reads as nil")

	lock, err := l.Acquire(ctx, 5, "ref-a", "", 10*time.Second)
	require.NoError(t, err)

	got, err = l.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lock.LockID, got.LockID)

	*now = now.Add(11 * time.Second)
	got, err = l.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got, "expired lock reads as nil")
}
