// Package cache keeps item display names in Redis. Names change rarely and
// are read on every chart request.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "albion:item_name:"

// NameSource is the authoritative lookup behind the cache.
type NameSource interface {
	Name(ctx context.Context, uniqueID string) (string, bool, error)
}

type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
}

// Open parses a redis:// URL and verifies connectivity.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NameCache is a read-through cache. Redis failures degrade to the source;
// unknown items are not cached.
type NameCache struct {
	store cmdable
	next  NameSource
	ttl   time.Duration
	log   zerolog.Logger
}

func NewNameCache(store cmdable, next NameSource, ttl time.Duration, log zerolog.Logger) *NameCache {
	return &NameCache{store: store, next: next, ttl: ttl, log: log}
}

func (c *NameCache) Name(ctx context.Context, uniqueID string) (string, bool, error) {
	key := keyPrefix + uniqueID

	name, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		return name, true, nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("unique_id", uniqueID).Msg("item name cache read failed")
	}

	name, found, err := c.next.Name(ctx, uniqueID)
	if err != nil || !found {
		return name, found, err
	}
	if err := c.store.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("unique_id", uniqueID).Msg("item name cache write failed")
	}
	return name, true, nil
}
