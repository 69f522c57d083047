// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Directive is one Content-Security-Policy directive. An empty Value
// renders a flag directive such as upgrade-insecure-requests.
type Directive struct {
	Name  string
	Value string
}

// CSP is an ordered Content-Security-Policy.
type CSP []Directive

// String renders the policy in declaration order.
func (p CSP) String() string {
	parts := make([]string, 0, len(p))
	for _, d := range p {
		parts = append(parts, strings.TrimSpace(d.Name+" "+d.Value))
	}
	return strings.Join(parts, "; ")
}

// With returns a copy with the directive replaced, or appended when the
// policy does not have it yet.
func (p CSP) With(name, value string) CSP {
	out := slices.Clone(p)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Directive{Name: name, Value: value})
}

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS and lets images load over plain http
	// from a local backend.
	IsDevelopment bool

	// Policy is the CSP sent with public pages.
	Policy CSP

	// ImageSources are the hosts news covers may load from. Covers are
	// external URLs typed into the admin panel, so the default is any
	// https host.
	ImageSources []string

	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds;
	// 0 disables it.
	HSTSMaxAge int

	// LockedPrefixes are path prefixes (admin panel, login) that may never
	// be framed and never leak the referrer.
	LockedPrefixes []string

	// PermissionsPolicy is sent as is.
	PermissionsPolicy string
}

// DefaultSecurityHeadersConfig returns the portal policy: local scripts and
// styles only, images from https hosts, and a locked admin area.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{
		IsDevelopment:  isDev,
		ImageSources:   []string{"https:"},
		HSTSMaxAge:     31536000,
		LockedPrefixes: []string{"/admin", "/login"},
		Policy: CSP{
			{"default-src", "'self'"},
			{"script-src", "'self'"},
			{"style-src", "'self'"},
			{"img-src", "'self' data:"},
			{"font-src", "'self'"},
			{"connect-src", "'self'"},
			{"object-src", "'none'"},
			{"base-uri", "'self'"},
			{"form-action", "'self'"},
			{"frame-ancestors", "'self'"},
		},
		PermissionsPolicy: "browsing-topics=(), camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
	if isDev {
		cfg.ImageSources = append(cfg.ImageSources, "http:")
	} else {
		cfg.Policy = cfg.Policy.With("upgrade-insecure-requests", "")
	}
	return cfg
}

// publicPolicy merges the image sources into img-src.
func (c SecurityHeadersConfig) publicPolicy() CSP {
	img := "'self' data:"
	for _, d := range c.Policy {
		if d.Name == "img-src" {
			img = d.Value
		}
	}
	if len(c.ImageSources) > 0 {
		img += " " + strings.Join(c.ImageSources, " ")
	}
	return c.Policy.With("img-src", img)
}

func (c SecurityHeadersConfig) locked(path string) bool {
	for _, prefix := range c.LockedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// SecurityHeaders returns a middleware that adds security headers to
// responses. Locked paths get frame-ancestors 'none', X-Frame-Options DENY
// and no referrer.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	public := cfg.publicPolicy()
	publicCSP := public.String()
	lockedCSP := public.With("frame-ancestors", "'none'").String()

	var hsts string
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if cfg.locked(r.URL.Path) {
				h.Set("Content-Security-Policy", lockedCSP)
				h.Set("X-Frame-Options", "DENY")
				h.Set("Referrer-Policy", "no-referrer")
			} else {
				h.Set("Content-Security-Policy", publicCSP)
				h.Set("X-Frame-Options", "SAMEORIGIN")
				h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", cfg.PermissionsPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
