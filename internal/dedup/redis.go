package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fib:last_level:"

// Redis keeps the alert state in Redis so it survives restarts.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL, password string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// ShouldAlert returns true if the stored level for label differs from level.
// Fails closed: any Redis error suppresses the alert.
func (r *Redis) ShouldAlert(ctx context.Context, label, level string) bool {
	prev, err := r.rdb.Get(ctx, keyPrefix+label).Result()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		return false
	}
	return prev != level
}

// Record stores level for label with no expiry.
func (r *Redis) Record(ctx context.Context, label, level string) {
	r.rdb.Set(ctx, keyPrefix+label, level, 0) //nolint:errcheck
}

// Clear removes the stored level so the alert can fire again.
func (r *Redis) Clear(ctx context.Context, label string) {
	r.rdb.Del(ctx, keyPrefix+label) //nolint:errcheck
}
