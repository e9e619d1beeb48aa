package scorelock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker stores claims in Redis with per-key TTL. Acquisition and
// release are atomic Lua scripts so two scoring clients racing on the same
// match can never both win.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func lockKey(matchID int) string {
	return fmt.Sprintf("scorelock:match:%d", matchID)
}

// acquireScript grants the key when absent and refreshes it when the caller
// presents the stored value, or presents no lock id but matches the stored
// owner (the value up to the first newline, see encodeLockValue) so the
// existing session is resumed with its original id. Otherwise it reports the
// current holder and its TTL.
var acquireScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return {1, ARGV[1], tonumber(ARGV[2])}
end
local refresh = v == ARGV[1]
if not refresh and ARGV[3] == "" then
	local sep = string.find(v, "\n", 1, true)
	refresh = sep ~= nil and string.sub(v, 1, sep - 1) == ARGV[4]
end
if refresh then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return {1, v, tonumber(ARGV[2])}
end
return {0, v, redis.call("PTTL", KEYS[1])}
`)

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func encodeLockValue(ownerID, lockID string) string {
	return ownerID + "\n" + lockID
}

func decodeLockValue(v string) (ownerID, lockID string) {
	parts := strings.SplitN(v, "\n", 2)
	if len(parts) != 2 {
		return v, ""
	}
	return parts[0], parts[1]
}

func (l *RedisLocker) Acquire(ctx context.Context, matchID int, ownerID, lockID string, ttl time.Duration) (*Lock, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// The candidate id is only stored when the key is absent; an owner match
	// on an existing key returns the stored session instead.
	candidate := lockID
	if candidate == "" {
		candidate = uuid.NewString()
	}

	res, err := acquireScript.Run(ctx, l.client,
		[]string{lockKey(matchID)},
		encodeLockValue(ownerID, candidate), ttl.Milliseconds(), lockID, ownerID,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("acquire score lock for match %d: %w", matchID, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("acquire score lock for match %d: unexpected script reply %v", matchID, res)
	}

	granted, _ := res[0].(int64)
	value, _ := res[1].(string)
	ttlMs, _ := res[2].(int64)

	curOwner, curLockID := decodeLockValue(value)
	lock := Lock{
		MatchID:   matchID,
		OwnerID:   curOwner,
		LockID:    curLockID,
		ExpiresAt: time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}
	if granted == 1 {
		return &lock, nil
	}
	return nil, &HeldError{Holder: lock}
}

func (l *RedisLocker) Release(ctx context.Context, matchID int, ownerID, lockID string) error {
	res, err := releaseScript.Run(ctx, l.client,
		[]string{lockKey(matchID)},
		encodeLockValue(ownerID, lockID),
	).Int()
	if err != nil {
		return fmt.Errorf("release score lock for match %d: %w", matchID, err)
	}
	if res == 0 {
		// Either lapsed (fine) or held by someone else.
		cur, err := l.Get(ctx, matchID)
		if err != nil {
			return err
		}
		if cur != nil {
			return ErrNotHeld
		}
	}
	return nil
}

func (l *RedisLocker) Get(ctx context.Context, matchID int) (*Lock, error) {
	pipe := l.client.Pipeline()
	getCmd := pipe.Get(ctx, lockKey(matchID))
	ttlCmd := pipe.PTTL(ctx, lockKey(matchID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("inspect score lock for match %d: %w", matchID, err)
	}

	value, err := getCmd.Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inspect score lock for match %d: %w", matchID, err)
	}

	owner, lockID := decodeLockValue(value)
	ttl, _ := ttlCmd.Result()
	return &Lock{
		MatchID:   matchID,
		OwnerID:   owner,
		LockID:    lockID,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
