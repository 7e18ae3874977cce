package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clubhub/calendar-service/internal/domain"
	pkgredis "github.com/clubhub/calendar-service/pkg/redis"
)

// cacheKeyPrefix scopes every cache entry so Invalidate can sweep them
// without touching unrelated keys in the same database.
const cacheKeyPrefix = "calendar-service:"

// CalendarCache caches aggregated feeds by canonical query key.
type CalendarCache interface {
	// Get returns the cached feed for key; ok is false on a miss.
	Get(ctx context.Context, key string) (events []domain.CalendarEvent, ok bool, err error)

	// Set stores the feed under key with the configured TTL.
	Set(ctx context.Context, key string, events []domain.CalendarEvent) error

	// Invalidate drops every cached feed. Called after a staff mutation so
	// the next read reflects the new assignment; failures are the caller's
	// to log, never to roll back on.
	Invalidate(ctx context.Context) error
}

// RedisCalendarCache implements CalendarCache on Redis.
type RedisCalendarCache struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisCalendarCache creates a cache with the given entry TTL.
func NewRedisCalendarCache(client *pkgredis.Client, ttl time.Duration) *RedisCalendarCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCalendarCache{client: client, ttl: ttl}
}

func (c *RedisCalendarCache) Get(ctx context.Context, key string) ([]domain.CalendarEvent, bool, error) {
	raw, err := c.client.Client().Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var events []domain.CalendarEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		// a corrupt entry behaves like a miss
		return nil, false, nil
	}
	return events, true, nil
}

func (c *RedisCalendarCache) Set(ctx context.Context, key string, events []domain.CalendarEvent) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Client().Set(ctx, cacheKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCalendarCache) Invalidate(ctx context.Context) error {
	rdb := c.client.Client()
	iter := rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache invalidate: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache invalidate scan: %w", err)
	}
	if len(keys) > 0 {
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache invalidate: %w", err)
		}
	}
	return nil
}
