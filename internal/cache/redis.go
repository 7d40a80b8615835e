package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under a namespace. Key pins a namespaced key to
// the current generation; Get and Set take that pinned key, so a value
// computed before an Invalidate is never readable after it.
type Cache interface {
	Key(ctx context.Context, ns, key string) (string, error)
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, ns string) error
}

type RedisCache struct {
	Db  *redis.Client
	ttl time.Duration
}

func InitServer(ctx context.Context, cfg internal.RedisConfig) (*RedisCache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewRedisCache(db, cfg.CacheTTL), nil
}

func NewRedisCache(db *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisCache{Db: db, ttl: ttl}
}

func genKey(ns string) string {
	return "ns:gen:" + ns
}

// generation returns the current counter of ns; a missing counter is 0.
func (c *RedisCache) generation(ctx context.Context, ns string) (int64, error) {
	gen, err := c.Db.Get(ctx, genKey(ns)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Key(ctx context.Context, ns, key string) (string, error) {
	gen, err := c.generation(ctx, ns)
	if err != nil {
		return "", fmt.Errorf("cache.Key: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s", ns, gen, key), nil
}

func (c *RedisCache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache.Set: %w", err)
	}
	return c.Db.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, ns string) error {
	return c.Db.Incr(ctx, genKey(ns)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Db.Close()
}

func revokedKey(id string) string {
	return "revoked:" + id
}

// Revoke marks a token id as unusable until it would have expired anyway.
func (c *RedisCache) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.Db.Set(ctx, revokedKey(id), 1, ttl).Err()
}

func (c *RedisCache) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := c.Db.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("cache.IsRevoked: %w", err)
	}
	return n > 0, nil
}

// Noop is used when no redis address is configured. Revocations are not
// remembered, so logout only ends the client session.
type Noop struct{}

func (Noop) Key(context.Context, string, string) (string, error)    { return "", nil }
func (Noop) Get(context.Context, string, any) (bool, error)         { return false, nil }
func (Noop) Set(context.Context, string, any) error                 { return nil }
func (Noop) Invalidate(context.Context, string) error               { return nil }
func (Noop) Revoke(context.Context, string, time.Time) error        { return nil }
func (Noop) IsRevoked(context.Context, string) (bool, error)        { return false, nil }
