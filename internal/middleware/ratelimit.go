// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PageRateMessage is shown when a client loads pages too fast.
const PageRateMessage = "Muitas requisições em pouco tempo. Aguarde alguns segundos e tente novamente."

// clientLimiters keeps one token bucket per client. A bucket left alone
// for idle is full again, so prune can drop it without changing behavior.
type clientLimiters struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	refill := time.Duration(float64(burst) / rps * float64(time.Second))
	return &clientLimiters{
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    max(refill, time.Minute),
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (c *clientLimiters) allow(key string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.clients[key]
	if !ok {
		b = &clientBucket{lim: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// prune drops idle buckets and returns how many were removed.
func (c *clientLimiters) prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, b := range c.clients {
		if now.Sub(b.seen) >= c.idle {
			delete(c.clients, key)
			removed++
		}
	}
	return removed
}

func (c *clientLimiters) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// retryAfter is the Retry-After value, in whole seconds, for one token.
func (c *clientLimiters) retryAfter() string {
	secs := math.Ceil(1 / float64(c.limit))
	return strconv.Itoa(int(max(secs, 1)))
}

// PageRateLimiter limits page loads per client IP. Every page load makes
// at least one backend call.
type PageRateLimiter struct {
	clients *clientLimiters
	stop    chan struct{}
	once    sync.Once
}

// NewPageRateLimiter allows rps page loads per second per IP with the
// given burst. Close stops the pruning goroutine.
func NewPageRateLimiter(rps float64, burst int) *PageRateLimiter {
	rl := &PageRateLimiter{
		clients: newClientLimiters(rps, burst),
		stop:    make(chan struct{}),
	}
	go rl.pruneLoop(time.Minute)
	return rl
}

// Close stops pruning.
func (rl *PageRateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *PageRateLimiter) pruneLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := rl.clients.prune(); n > 0 {
				slog.Debug("pruned idle page limiters", "removed", n, "tracked", rl.clients.len())
			}
		case <-rl.stop:
			return
		}
	}
}

// Middleware answers 429 with Retry-After once a client runs out of tokens.
func (rl *PageRateLimiter) Middleware() func(http.Handler) http.Handler {
	retry := rl.clients.retryAfter()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)
			if rl.clients.allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Warn("page rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", retry)
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, PageRateMessage, http.StatusTooManyRequests)
		})
	}
}
