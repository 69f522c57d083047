// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed window counter: the first hit in a window sets its expiry.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiterOptions configures the shared limiter.
type RedisLimiterOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys
	Prefix string

	// Limit is the number of hits allowed per Window
	Limit  int
	Window time.Duration

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration

	// CallTimeout bounds each Allow call
	CallTimeout time.Duration
}

// DefaultRedisLimiterOptions returns sensible defaults.
func DefaultRedisLimiterOptions() RedisLimiterOptions {
	return RedisLimiterOptions{
		Prefix:         "guia:ratelimit:",
		Limit:          10,
		Window:         time.Minute,
		ConnectTimeout: 5 * time.Second,
		CallTimeout:    250 * time.Millisecond,
	}
}

// RedisLimiter is a SharedLimiter backed by Redis. It fails open: when
// Redis is unreachable every request is allowed and the in-process limiter
// still applies.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	opts   RedisLimiterOptions
}

// NewRedisLimiter connects to Redis and returns a limiter.
func NewRedisLimiter(opts RedisLimiterOptions) (*RedisLimiter, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	defaults := DefaultRedisLimiterOptions()
	if opts.Limit <= 0 {
		opts.Limit = defaults.Limit
	}
	if opts.Window <= 0 {
		opts.Window = defaults.Window
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaults.ConnectTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaults.CallTimeout
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newRedisLimiter(client, opts), nil
}

func newRedisLimiter(client *redis.Client, opts RedisLimiterOptions) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		opts:   opts,
	}
}

// Allow implements SharedLimiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || key == "" {
		return true
	}
	ttl := l.opts.Window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.opts.Prefix + key}, ttl, l.opts.Limit).Int64()
	if err != nil {
		slog.Warn("redis rate limit check failed, allowing request", "error", err)
		return true
	}
	return allowed == 1
}

// Ping checks if the Redis connection is healthy.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
