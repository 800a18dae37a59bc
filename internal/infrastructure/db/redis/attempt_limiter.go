package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultLockout     = 15 * time.Minute
)

// AttemptLimiter counts failed logins per email in Redis.
// Key format: login:attempts:<email>. Emails are stored case-sensitively, so
// the key keeps the case it was given.
// The window starts at the first failure and is not extended by later ones.
type AttemptLimiter struct {
	client  *redis.Client
	max     int64
	lockout time.Duration
}

// NewAttemptLimiter locks a key out after maxAttempts failures within lockout.
func NewAttemptLimiter(client *redis.Client, maxAttempts int, lockout time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &AttemptLimiter{client: client, max: int64(maxAttempts), lockout: lockout}
}

func (l *AttemptLimiter) Locked(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := l.client.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempt lookup: %w", err)
	}
	return n >= l.max, nil
}

func (l *AttemptLimiter) Fail(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	k := l.key(key)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.lockout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("attempt record: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("attempt reset: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) key(email string) string {
	return "login:attempts:" + strings.TrimSpace(email)
}
