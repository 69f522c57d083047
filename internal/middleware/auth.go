// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// rate limiting, and request context handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fundacaoguia/portal/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAuthenticated holds the flag stored by LoadAuth.
const ContextKeyAuthenticated ContextKey = "authenticated"

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/login"

// ReturnParam names the admin page to reopen after signing in.
const ReturnParam = "voltar"

// TokenChecker reports whether the current session holds an admin token.
type TokenChecker interface {
	Authenticated(ctx context.Context) bool
}

// LoginURL is the login page for an unauthenticated request. Page loads
// carry their own URI back; form posts do not, since the form is gone.
func LoginURL(r *http.Request) string {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{ReturnParam: {r.URL.RequestURI()}}.Encode()
}

// RequireToken sends requests without an admin token to the login page.
func RequireToken(tokens TokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens.Authenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Debug("admin access without token", "category", "auth", "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
		})
	}
}

// LoadAuth creates middleware that records in the request context whether
// an admin token is held. Public pages use it to label the admin button.
func LoadAuth(tokens TokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ContextKeyAuthenticated, tokens.Authenticated(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAuthenticated reports the flag stored by LoadAuth.
func IsAuthenticated(r *http.Request) bool {
	authed, _ := r.Context().Value(ContextKeyAuthenticated).(bool)
	return authed
}

// RequestPath stores the request path in the context, where the log
// handler picks it up for records logged with that context.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.WithRequestPath(r.Context(), r.URL.Path)))
	})
}
