// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitMessage is shown when a client posts the login form too often.
const RateLimitMessage = "Muitas tentativas. Aguarde um momento e tente novamente."

// SharedLimiter is a rate limit shared between portal instances.
type SharedLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login posts per second per client IP.
	IPRateLimit float64
	IPBurst     int

	// MaxFailedAttempts bad passwords within AttemptWindow lock the e-mail.
	MaxFailedAttempts int
	AttemptWindow     time.Duration

	// LockoutDuration doubles with every lockout of the same e-mail, up to
	// MaxLockout.
	LockoutDuration time.Duration
	MaxLockout      time.Duration

	// Shared is checked in addition to the in-process limiter when set.
	Shared SharedLimiter
}

// DefaultLoginProtectionConfig returns the portal defaults: one post every
// two seconds per IP with a burst of five, and a 15 minute lock after five
// bad passwords.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		AttemptWindow:     15 * time.Minute,
		LockoutDuration:   15 * time.Minute,
		MaxLockout:        24 * time.Hour,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	def := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = def.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = def.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = def.AttemptWindow
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = def.LockoutDuration
	}
	if c.MaxLockout < c.LockoutDuration {
		c.MaxLockout = max(def.MaxLockout, c.LockoutDuration)
	}
	return c
}

// LoginStatus is what the login form needs to know about an e-mail.
type LoginStatus struct {
	Locked     bool
	RetryAfter time.Duration // set when Locked
	Remaining  int           // bad passwords left before a lock
}

// strikes counts bad passwords for one e-mail.
type strikes struct {
	count       int
	since       time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection throttles login posts per client IP and locks an e-mail
// after repeated bad passwords. The backend has no lockout of its own.
type LoginProtection struct {
	cfg    LoginProtectionConfig
	ips    *clientLimiters
	shared SharedLimiter
	now    func() time.Time

	mu       sync.Mutex
	accounts map[string]*strikes

	stop chan struct{}
	once sync.Once
}

// NewLoginProtection creates a login protection. Close stops its sweeper.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		cfg:      cfg,
		ips:      newClientLimiters(cfg.IPRateLimit, cfg.IPBurst),
		shared:   cfg.Shared,
		now:      time.Now,
		accounts: make(map[string]*strikes),
		stop:     make(chan struct{}),
	}
	go lp.sweepLoop(10 * time.Minute)
	return lp
}

// Close stops the sweeper.
func (lp *LoginProtection) Close() {
	lp.once.Do(func() { close(lp.stop) })
}

// AllowIP reports whether ip may post the login form now.
func (lp *LoginProtection) AllowIP(ctx context.Context, ip string) bool {
	if !lp.ips.allow(ip) {
		return false
	}
	return lp.shared == nil || lp.shared.Allow(ctx, "login:"+ip)
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Status reports the lock state of email.
func (lp *LoginProtection) Status(email string) LoginStatus {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.statusLocked(lp.accounts[accountKey(email)], lp.now())
}

func (lp *LoginProtection) statusLocked(s *strikes, now time.Time) LoginStatus {
	if s == nil {
		return LoginStatus{Remaining: lp.cfg.MaxFailedAttempts}
	}
	if now.Before(s.lockedUntil) {
		return LoginStatus{Locked: true, RetryAfter: s.lockedUntil.Sub(now)}
	}
	if now.Sub(s.since) > lp.cfg.AttemptWindow {
		return LoginStatus{Remaining: lp.cfg.MaxFailedAttempts}
	}
	return LoginStatus{Remaining: max(lp.cfg.MaxFailedAttempts-s.count, 0)}
}

// Fail records a bad password for email and returns the resulting status.
// The strike that reaches the limit locks the e-mail and starts a new count.
func (lp *LoginProtection) Fail(email string) LoginStatus {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	s := lp.accounts[key]
	if s == nil {
		s = &strikes{since: now}
		lp.accounts[key] = s
	}
	if now.Sub(s.since) > lp.cfg.AttemptWindow {
		s.count, s.since = 0, now
	}
	s.count++

	if s.count >= lp.cfg.MaxFailedAttempts {
		d := lp.lockFor(s.lockouts)
		s.lockedUntil = now.Add(d)
		s.lockouts++
		s.count = 0
		slog.Warn("login locked after failed attempts", "category", "auth",
			"email", key, "lockouts", s.lockouts, "duration", d)
	}
	return lp.statusLocked(s, now)
}

// lockFor is LockoutDuration doubled once per earlier lockout.
func (lp *LoginProtection) lockFor(previous int) time.Duration {
	d := float64(lp.cfg.LockoutDuration) * math.Pow(2, float64(previous))
	if d >= float64(lp.cfg.MaxLockout) {
		return lp.cfg.MaxLockout
	}
	return time.Duration(d)
}

// Succeed forgets the strikes of email.
func (lp *LoginProtection) Succeed(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

func (lp *LoginProtection) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			lp.sweep()
		case <-lp.stop:
			return
		}
	}
}

// sweep drops unlocked e-mails whose window has passed and idle IP
// limiters.
func (lp *LoginProtection) sweep() {
	if n := lp.ips.prune(); n > 0 {
		slog.Debug("pruned idle login limiters", "removed", n)
	}

	now := lp.now()
	lp.mu.Lock()
	for key, s := range lp.accounts {
		if !now.Before(s.lockedUntil) && now.Sub(s.since) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits login posts per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	retry := lp.ips.retryAfter()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := GetClientIP(r)
			if !lp.AllowIP(r.Context(), ip) {
				slog.Warn("login rate limit exceeded", "category", "auth", "ip", ip)
				w.Header().Set("Retry-After", retry)
				http.Error(w, RateLimitMessage, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the client IP from the request: the first
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr without its port.
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
