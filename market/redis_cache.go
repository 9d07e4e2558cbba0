package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryzgaloff/crypto-apis/internal/logging"
	"github.com/bryzgaloff/crypto-apis/internal/metrics"
)

// RedisClient is the slice of the go-redis API the cache needs. *redis.Client
// satisfies it; tests substitute a mock.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisTickerCache is the Redis TickerCache backend: the ticker is stored as
// one JSON value under a per-provider key, with Redis owning the TTL. Redis
// errors on Get degrade to a miss (the caller refetches), never to a partial
// ticker.
type RedisTickerCache struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// NewRedisTickerCache builds a Redis-backed cache storing the ticker under
// key with the given TTL.
func NewRedisTickerCache(client RedisClient, key string, ttl time.Duration) *RedisTickerCache {
	return &RedisTickerCache{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (c *RedisTickerCache) Get(ctx context.Context) (Ticker, bool) {
	value, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		metrics.RecordTickerCacheOperation("redis", "get", "miss")
		return nil, false
	}
	if err != nil {
		metrics.RecordTickerCacheOperation("redis", "get", "error")
		logging.FromContext(ctx, "ticker-cache").WithField("key", c.key).
			WithError(err).Warn("redis get failed, treating as miss")
		return nil, false
	}

	var ticker Ticker
	if err := json.Unmarshal([]byte(value), &ticker); err != nil {
		metrics.RecordTickerCacheOperation("redis", "get", "error")
		logging.FromContext(ctx, "ticker-cache").WithField("key", c.key).
			WithError(err).Warn("cached ticker does not decode, treating as miss")
		return nil, false
	}
	metrics.RecordTickerCacheOperation("redis", "get", "hit")
	return ticker, true
}

func (c *RedisTickerCache) Put(ctx context.Context, ticker Ticker) error {
	value, err := json.Marshal(ticker)
	if err != nil {
		metrics.RecordTickerCacheOperation("redis", "put", "error")
		return err
	}
	if err := c.client.Set(ctx, c.key, value, c.ttl).Err(); err != nil {
		metrics.RecordTickerCacheOperation("redis", "put", "error")
		return err
	}
	metrics.RecordTickerCacheOperation("redis", "put", "success")
	return nil
}

func (c *RedisTickerCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		metrics.RecordTickerCacheOperation("redis", "invalidate", "error")
		return err
	}
	metrics.RecordTickerCacheOperation("redis", "invalidate", "success")
	return nil
}
