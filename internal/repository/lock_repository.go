package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// LockRepository provides short-lived mutual exclusion keys in Redis.
type LockRepository struct {
	client *redis.Client
}

// NewLockRepository constructs a lock repository. A nil client disables locking.
func NewLockRepository(client *redis.Client) *LockRepository {
	return &LockRepository{client: client}
}

// Acquire sets key with a fresh token when absent. ok is false when another holder owns the key.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if r == nil || r.client == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return token, ok, nil
}

// Release deletes key only while it still holds token.
func (r *LockRepository) Release(ctx context.Context, key, token string) error {
	if r == nil || r.client == nil || token == "" {
		return nil
	}
	if err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}
