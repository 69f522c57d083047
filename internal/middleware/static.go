// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

// AssetVersionParam is the query parameter carrying an asset's content hash.
const AssetVersionParam = "v"

// StaticCache sets Cache-Control for embedded assets. URLs that carry a
// content hash never change and are cached for maxAge; bare URLs must be
// revalidated.
func StaticCache(maxAge time.Duration) func(http.Handler) http.Handler {
	versioned := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds())) + ", immutable"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get(AssetVersionParam) != "" {
				w.Header().Set("Cache-Control", versioned)
			} else {
				w.Header().Set("Cache-Control", "public, no-cache")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore keeps admin pages out of shared and browser caches.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// StripTrailingSlash redirects /path/ to the cleaned /path. Page loads get
// 301; other methods get 308 so the form body is sent again. The cleaned
// path never starts with "//".
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "/" || !strings.HasSuffix(p, "/") {
			next.ServeHTTP(w, r)
			return
		}

		target := path.Clean("/" + strings.TrimLeft(p, "/"))
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		code := http.StatusMovedPermanently
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			code = http.StatusPermanentRedirect
		}
		http.Redirect(w, r, target, code)
	})
}
