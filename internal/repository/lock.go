package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/config"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func TableLockKey(tableID string) string {
	return "table:" + tableID
}

func QueueLockKey(tableType string) string {
	return "queue:" + tableType
}

// Locker is a mutual-exclusion primitive per key, shared by every process using the same Redis.
// Each successful Acquire hands out a fresh fencing token.
type Locker struct {
	client *redis.Client

	ttl        time.Duration
	retries    int
	retryDelay time.Duration
}

func NewLocker(client *redis.Client, conf config.Lock) *Locker {
	return &Locker{
		client:     client,
		ttl:        conf.TTL,
		retries:    conf.Retries,
		retryDelay: conf.RetryDelay,
	}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire sets the lock if absent, retrying a bounded number of times with a fixed delay.
func (that *Locker) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := that.client.SetNX(ctx, lockKey(key), token, that.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if ok {
			return token, nil
		}

		if attempt >= that.retries {
			return "", fmt.Errorf("%w: %s", apperror.ErrLockTimeout, key)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-time.After(that.retryDelay):
		}
	}
}

// Release deletes the lock only if token is the current holder's. A stale token is a no-op.
func (that *Locker) Release(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, that.client, []string{lockKey(key)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	return deleted == 1, nil
}

func (that *Locker) IsLocked(ctx context.Context, key string) (bool, error) {
	n, err := that.client.Exists(ctx, lockKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lock %s: %w", key, err)
	}

	return n == 1, nil
}
