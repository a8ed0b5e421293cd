// Package kv is the Redis-backed implementation of the domain repository
// interfaces. It is the sole source of truth for jobs, files, archives, and
// rate-limit counters; every cross-worker coordination point lives here.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client with the connection settings the original
// RedisConnectionManager applied (pooled, keepalive, retry-on-timeout).
type Client struct {
	rdb *redis.Client
}

// Options configures the underlying connection pool.
type Options struct {
	Addr           string
	Password       string
	DB             int
	MaxConnections int
	DialTimeout    time.Duration
}

// NewClient constructs a Client around the given options, applying sane
// pooling defaults when unset.
func NewClient(opts Options) *Client {
	if opts.MaxConnections == 0 {
		opts.MaxConnections = 20
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.MaxConnections,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  3,
	})
	return &Client{rdb: rdb}
}

// NewClientFromRedis wraps an already-constructed *redis.Client, used by
// tests to point the adapter at a miniredis instance.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Raw exposes the underlying go-redis client for adapter-internal use.
func (c *Client) Raw() *redis.Client { return c.rdb }

// HealthCheck pings Redis, used by the /health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
