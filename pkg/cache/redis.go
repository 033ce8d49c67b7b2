package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/schedulrx/engine/internal/config"
)

// RedisCache is the go-redis-backed Cache implementation (spec §6.3, §5
// concurrency: "the cache is the only shared mutable resource; it is safe
// for concurrent use under last-write-wins semantics" — a plain SET
// naturally satisfies that without any client-side locking).
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis dials a Redis client from cfg and wraps it as a Cache. The
// connection is verified with a single PING; failure to connect is
// returned so the caller can decide whether to run without a cache.
func NewRedis(cfg config.CacheConfig, log *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, log: log}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("cache entry unmarshal failed", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	return entry, true
}

// Put is best-effort: any failure is logged and swallowed, never returned
// to the caller (spec §4.7 — "cache failure must never fail a solve").
func (c *RedisCache) Put(ctx context.Context, key string, entry Entry, ttl time.Duration) {
	raw, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn("cache entry marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache put failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
