package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while this holder still owns it,
// so a lease that expired mid-sweep cannot release a successor's lock.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) end return 0`

// RedisLocker implements Locker with SET NX PX leases.
type RedisLocker struct {
	client redis.UniversalClient

	mu     sync.Mutex
	tokens map[string]string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client, tokens: make(map[string]string)}
}

// TryLock takes the lease with a random holder token so Unlock can
// verify ownership before deleting the key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// Unlock releases the lease when the holder token still matches.
func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !held {
		return nil
	}
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
