package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds the public upcoming-events listing.
type Cache interface {
	Get(ctx context.Context) ([]Event, bool)
	Set(ctx context.Context, evts []Event)
	Invalidate(ctx context.Context)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]Event, bool) { return nil, false }
func (NopCache) Set(context.Context, []Event)        {}
func (NopCache) Invalidate(context.Context)          {}

const upcomingKey = "events:upcoming"

// RedisCache stores the listing as JSON under a single key. Redis failures
// degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache with the given ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) ([]Event, bool) {
	raw, err := c.client.Get(ctx, upcomingKey).Bytes()
	if err != nil {
		return nil, false
	}
	var evts []Event
	if err := json.Unmarshal(raw, &evts); err != nil {
		return nil, false
	}
	return evts, true
}

func (c *RedisCache) Set(ctx context.Context, evts []Event) {
	raw, err := json.Marshal(evts)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, upcomingKey, raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, upcomingKey).Err()
}
