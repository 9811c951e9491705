package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPrefix is prepended to every key written by RedisCache.
const RedisPrefix = "depmap:"

// RedisCache stores entries in Redis with native key expiry.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache connects to the Redis server at addr and verifies the
// connection with PING, retrying with backoff.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	err := RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis %s: %w", ErrUnavailable, addr, err)
	}
	return NewRedisCacheFromClient(client), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value; redis.Nil is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A ttl of zero keeps the key until deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, redisKey(key), data, ttl).Err()
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKey(key)).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func redisKey(key string) string { return RedisPrefix + key }

var _ Cache = (*RedisCache)(nil)
