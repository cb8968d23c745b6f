package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNetwork is returned when the redis server cannot be reached.
var ErrNetwork = errors.New("cache network error")

const (
	redisAttempts = 3
	redisBackoff  = 100 * time.Millisecond
)

// RedisCache stores rendered images in Redis, so several machines (CI
// runners, docs builders) can share one render cache.
//
// A missing key is a miss. Connection failures are retried with doubling
// backoff before ErrNetwork is returned.
type RedisCache struct {
	client   redis.UniversalClient
	attempts int
	backoff  time.Duration
}

// NewRedisCache connects to the server at url (e.g.
// "redis://localhost:6379/0") and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrNetwork, opts.Addr, err)
	}
	return NewRedisCacheFromClient(client), nil
}

// NewRedisCacheFromClient wraps an existing client, for example a cluster
// or sentinel client built by the caller.
func NewRedisCacheFromClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, attempts: redisAttempts, backoff: redisBackoff}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() (err error) {
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	})
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis. A zero ttl keeps the key forever.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func() error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
}

// Delete removes a key from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error {
		return c.client.Del(ctx, key).Err()
	})
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// do runs cmd, retrying connection failures.
func (c *RedisCache) do(ctx context.Context, cmd func() error) error {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := cmd()
		if err == nil || !isConnError(err) {
			return err
		}
		if attempt >= c.attempts {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}

// isConnError reports whether err came from the connection rather than the
// server. A redis.Nil reply is never one.
func isConnError(err error) bool {
	if errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

var _ Cache = (*RedisCache)(nil)
