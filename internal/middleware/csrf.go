// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"filippo.io/csrf/gorilla"
)

// Rejection texts for blocked form posts.
const (
	CSRFMessage      = "Requisição bloqueada: origem não permitida."
	CSRFAdminMessage = "Requisição bloqueada: origem não permitida. Recarregue a página do painel e envie o formulário novamente."
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so the
// login and admin forms carry no token.
type CSRFConfig struct {
	// AuthKey is the session secret; the library only keeps it for API
	// compatibility.
	AuthKey []byte

	// ErrorHandler is called when CSRF validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host[:port] values allowed to post cross-origin,
	// e.g. the public host when the portal runs behind a proxy.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a CSRFConfig for the portal. publicOrigins may be
// full URLs or bare hosts. In development the listen port on loopback is
// trusted as well.
func DefaultCSRFConfig(authKey []byte, isDev bool, serverAddr string, publicOrigins ...string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	for _, o := range publicOrigins {
		if host := OriginHost(o); host != "" {
			cfg.TrustedOrigins = append(cfg.TrustedOrigins, host)
		}
	}

	if isDev {
		port := "8080"
		if _, p, err := net.SplitHostPort(serverAddr); err == nil && p != "" {
			port = p
		}
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, "localhost:"+port, "127.0.0.1:"+port)
	}

	return cfg
}

// OriginHost reduces an origin to the host[:port] form the csrf library
// compares against. It returns "" for values without a host.
func OriginHost(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	if !strings.Contains(origin, "://") {
		origin = "//" + origin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// CSRF returns a middleware that provides CSRF protection.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = http.HandlerFunc(csrfErrorHandler)
	}
	opts := []csrf.Option{csrf.ErrorHandler(errorHandler)}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin form post blocked",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)

	msg := CSRFMessage
	if r.URL.Path == "/admin" || strings.HasPrefix(r.URL.Path, "/admin/") {
		msg = CSRFAdminMessage
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, msg, http.StatusForbidden)
}
