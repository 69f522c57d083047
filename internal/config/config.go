// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the portal settings from GUIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
)

// MinSessionSecretLength is the minimum session secret size in bytes. The
// secret is also the CSRF key.
const MinSessionSecretLength = 32

const secretHint = "generate one with: openssl rand -base64 32"

// Example secrets from .env.example and the docs.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config is the portal configuration.
type Config struct {
	APIBaseURL    string        `env:"GUIA_API_BASE_URL" envDefault:"http://localhost:3003"`
	APITimeout    time.Duration `env:"GUIA_API_TIMEOUT" envDefault:"15s"`
	SessionSecret string        `env:"GUIA_SESSION_SECRET,required"`
	ServerHost    string        `env:"GUIA_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int           `env:"GUIA_SERVER_PORT" envDefault:"8080"`
	Env           string        `env:"GUIA_ENV" envDefault:"development"`
	LogLevel      string        `env:"GUIA_LOG_LEVEL" envDefault:"info"`
	Timezone      string        `env:"GUIA_TIMEZONE" envDefault:"America/Sao_Paulo"`

	NewsRecent      int    `env:"GUIA_NEWS_RECENT" envDefault:"10"`
	AdminNewsRecent int    `env:"GUIA_ADMIN_NEWS_RECENT" envDefault:"100"`
	ExamListBlock   string `env:"GUIA_EXAM_LIST_BLOCK" envDefault:"bloco 2"`

	// Extra origins (URLs or bare hosts) whose form posts pass the CSRF
	// check, for a portal served through a proxy on another host.
	PublicOrigins []string `env:"GUIA_PUBLIC_ORIGINS" envSeparator:","`

	SessionIdleTimeout time.Duration `env:"GUIA_SESSION_IDLE_TIMEOUT" envDefault:"2h"`

	// Shares the login rate limit between instances when set.
	RedisURL string `env:"GUIA_REDIS_URL"`

	// Cron spec for the backend probe; "off" disables it.
	ProbeSchedule string `env:"GUIA_PROBE_SCHEDULE" envDefault:"@every 1m"`
}

// IsDevelopment reports whether GUIA_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns host:port.
func (c Config) ServerAddr() string {
	return c.ServerHost + ":" + strconv.Itoa(c.ServerPort)
}

// UseRedis reports whether a shared limiter is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// ProbeEnabled reports whether the backend probe should be scheduled.
func (c Config) ProbeEnabled() bool {
	s := strings.TrimSpace(c.ProbeSchedule)
	return s != "" && !strings.EqualFold(s, "off")
}

// Location returns the display time zone, or UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown GUIA_TIMEZONE, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// Load reads the environment. Every invalid setting is reported in the
// returned error, not just the first one.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("GUIA_SESSION_SECRET has low character diversity; " + secretHint)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if err := checkSecret(c.SessionSecret); err != nil {
		errs = append(errs, err)
	}
	if err := checkBaseURL(c.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.APITimeout <= 0 {
		errs = append(errs, fmt.Errorf("GUIA_API_TIMEOUT must be positive, got %s", c.APITimeout))
	}
	if c.NewsRecent <= 0 {
		errs = append(errs, fmt.Errorf("GUIA_NEWS_RECENT must be positive, got %d", c.NewsRecent))
	}
	if c.AdminNewsRecent <= 0 {
		errs = append(errs, fmt.Errorf("GUIA_ADMIN_NEWS_RECENT must be positive, got %d", c.AdminNewsRecent))
	}
	return errors.Join(errs...)
}

func checkSecret(secret string) error {
	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("GUIA_SESSION_SECRET must be at least %d bytes, got %d; %s",
			MinSessionSecretLength, len(secret), secretHint)
	}
	if slices.Contains(knownWeakSecrets, secret) {
		return fmt.Errorf("GUIA_SESSION_SECRET is an example value; %s", secretHint)
	}
	return nil
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return fmt.Errorf("GUIA_API_BASE_URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("GUIA_API_BASE_URL must use http or https, got %q", raw)
	case u.Host == "":
		return fmt.Errorf("GUIA_API_BASE_URL has no host: %q", raw)
	}
	return nil
}

// hasMinimumEntropy reports whether s mixes at least three character
// classes out of lower case, upper case, digits and symbols.
func hasMinimumEntropy(s string) bool {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			other = true
		}
	}
	n := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			n++
		}
	}
	return n >= 3
}
