// Package cache stores validated batch extraction results in Redis so that
// re-running a document with the same options skips the model call.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/legal"
)

const (
	// KeyPrefix namespaces every key this package writes.
	KeyPrefix  = "lexgest:batch:"
	DefaultTTL = 24 * time.Hour
)

// RedisCache implements extract.BatchCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Dial connects to a redis:// URL and verifies the connection.
func Dial(ctx context.Context, url string, ttl time.Duration, log *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl, log), nil
}

// Get returns the cached result for key. A miss is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (legal.BatchResult, bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return legal.BatchResult{}, false, nil
	}
	if err != nil {
		return legal.BatchResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	var res legal.BatchResult
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry behaves as a miss and is overwritten by the next Put.
		c.log.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return legal.BatchResult{}, false, nil
	}
	return res, true, nil
}

// Put stores res under key with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, key string, res legal.BatchResult) error {
	res.Cached = false
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal batch result: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
