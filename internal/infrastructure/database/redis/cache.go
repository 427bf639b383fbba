package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache is a JSON-serialized read-through cache over redis. Profile pages
// and other listing queries sit behind it so repeated reads skip postgres.
type Cache struct {
	client       *Client
	defaultTTL   time.Duration
	logger       logging.Logger
	singleflight singleflight.Group
}

func NewCache(client *Client, defaultTTL time.Duration, log logging.Logger) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache{
		client:     client,
		defaultTTL: defaultTTL,
		logger:     log,
	}
}

// jitterTTL spreads expirations +/- 10% to avoid synchronized refill storms.
func (c *Cache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Raw().Get(ctx, c.client.Key(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to decode cached value")
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to encode cache value")
	}
	if err := c.client.Raw().Set(ctx, c.client.Key(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.client.Key(k)
	}
	if err := c.client.Raw().Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}

// DeleteByPrefix removes all keys under the given prefix using SCAN, so
// profile-list pages can be invalidated wholesale after a write.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.client.Key(prefix) + "*"
	for {
		keys, next, err := c.client.Raw().Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache scan failed")
		}
		if len(keys) > 0 {
			if err := c.client.Raw().Del(ctx, keys...).Err(); err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
			}
			deleted += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

// GetOrSet reads key into dest, or loads and caches the value on a miss.
// Concurrent misses for the same key collapse into one loader call.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return err
	}

	val, err, _ := c.singleflight.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("failed to fill cache after load",
				logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to encode loaded value")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to decode loaded value")
	}
	return nil
}
