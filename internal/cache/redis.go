package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BigOtis/Polylogue/internal/models"
)

// generationTTL keeps room generation counters alive long enough that a
// counter can never expire while entries written under it are still live.
const generationTTL = time.Hour

// RedisCache is a query cache shared across server instances. Each room has
// a generation counter; entries are keyed by generation, so invalidation is
// a single INCR that makes every prior entry unreachable. Stale entries age
// out via their own TTL instead of being scanned and deleted.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache with the given TTL.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the underlying connection for components that share it,
// such as the rate limiter.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// generationKey returns the key for a room's invalidation counter.
func generationKey(room string) string {
	return fmt.Sprintf("cache:%s:gen", room)
}

// entryKey returns the key for one cached query under a generation.
func entryKey(room string, gen int64, key string) string {
	return fmt.Sprintf("cache:%s:%d:%s", room, gen, key)
}

// generation reads the room's current generation. A missing counter is
// generation zero.
func (c *RedisCache) generation(ctx context.Context, room string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(room)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Lookup returns a cached result stored under the room's current generation.
func (c *RedisCache) Lookup(ctx context.Context, room, key string) ([]models.Message, bool) {
	gen, err := c.generation(ctx, room)
	if err != nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, entryKey(room, gen, key)).Bytes()
	if err != nil {
		return nil, false
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

// Generation returns the room's current generation, or -1 when Redis is
// unreachable so the result of the subsequent read is never cached.
func (c *RedisCache) Generation(ctx context.Context, room string) int64 {
	gen, err := c.generation(ctx, room)
	if err != nil {
		return -1
	}
	return gen
}

// Store records a query result under the generation the caller captured
// before the backing read. If an invalidation raced that read, the entry
// lands under a dead generation and is never served.
func (c *RedisCache) Store(ctx context.Context, room, key string, gen int64, msgs []models.Message) {
	if gen < 0 {
		return
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		return
	}

	c.client.Set(ctx, entryKey(room, gen, key), data, c.ttl)
}

// InvalidateRoom bumps the room's generation, orphaning every cached query
// for that room at once.
func (c *RedisCache) InvalidateRoom(ctx context.Context, room string) {
	pipe := c.client.Pipeline()
	pipe.Incr(ctx, generationKey(room))
	pipe.Expire(ctx, generationKey(room), generationTTL)
	_, _ = pipe.Exec(ctx)
}
