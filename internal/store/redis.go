package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client plus the worker-maintained rollup cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func rollupKey(sessionID string) string { return "rollcall:rollup:" + sessionID }

// IncrPresent bumps the cached present counter for a session. The key
// expires with a wide margin past the session window.
func (r *Redis) IncrPresent(ctx context.Context, sessionID string) error {
	pipe := r.Client.Pipeline()
	pipe.HIncrBy(ctx, rollupKey(sessionID), "present", 1)
	pipe.Expire(ctx, rollupKey(sessionID), 6*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// CachedPresent returns the cached present counter, or -1 when no cache
// entry exists and the caller should fall back to the event store.
func (r *Redis) CachedPresent(ctx context.Context, sessionID string) (int, error) {
	val, err := r.Client.HGet(ctx, rollupKey(sessionID), "present").Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return -1, err
	}
	return n, nil
}
