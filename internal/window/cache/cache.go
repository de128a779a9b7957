// Package cache keeps a short-lived copy of the window settings singleton so
// every clearance start does not hit the database. The service invalidates it
// on admin updates; there is no mutable process-global.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"cleargate/internal/window"
)

// Cache is the settings cache contract. Misses are (nil, nil).
type Cache interface {
	Get(ctx context.Context) (*window.Settings, error)
	Set(ctx context.Context, s *window.Settings) error
	Invalidate(ctx context.Context) error
}

const cacheKey = "cleargate:window:settings"

// RedisCache stores the settings as JSON with a TTL so a missed invalidation
// heals on its own.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) (*window.Settings, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s window.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, nil
	}
	return &s, nil
}

func (c *RedisCache) Set(ctx context.Context, s *window.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, cacheKey).Err()
}

// Noop disables caching; used when redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context) (*window.Settings, error) { return nil, nil }
func (Noop) Set(context.Context, *window.Settings) error   { return nil }
func (Noop) Invalidate(context.Context) error              { return nil }
