// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout replies. A write may already have reached the backend when the
// deadline passes, so admins are told to check before resending.
const (
	TimeoutMessage      = "Tempo de resposta esgotado. Tente novamente."
	TimeoutWriteMessage = "Tempo de resposta esgotado. Confira a lista antes de reenviar: a alteração pode ter sido registrada."
)

// PageTimeout is the page deadline for a given backend timeout. The
// slowest page makes two backend calls in a row (a failed save followed by
// the list re-read), plus some time to render.
func PageTimeout(apiTimeout time.Duration) time.Duration {
	return 2*apiTimeout + 5*time.Second
}

// Timeout cancels the request context after timeout and answers 503 when
// the handler has not started its response by then. Backend calls made
// with the request context are cancelled at the same moment.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{w: w, h: make(http.Header)}
			done := make(chan struct{})
			var panicVal any

			go func() {
				defer func() {
					panicVal = recover()
					close(done)
				}()
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				if panicVal != nil {
					panic(panicVal)
				}
				if ctx.Err() == nil {
					return
				}
			case <-ctx.Done():
			}

			// Past this point the handler may still be running; it must not
			// reach w any more.
			if !dw.expire() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}
			slog.Warn("page deadline exceeded", "category", "backend",
				"method", r.Method, "path", r.URL.Path, "timeout", timeout)

			msg := TimeoutMessage
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				msg = TimeoutWriteMessage
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, msg)
		})
	}
}

// deadlineWriter keeps the handler's headers apart from the real ones
// until the handler writes, so a late handler never touches the response
// once the timeout reply went out.
type deadlineWriter struct {
	w       http.ResponseWriter
	h       http.Header
	mu      sync.Mutex
	wrote   bool
	expired bool
}

func (dw *deadlineWriter) Header() http.Header { return dw.h }

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.writeHeaderLocked(code)
}

func (dw *deadlineWriter) writeHeaderLocked(code int) {
	if dw.expired || dw.wrote {
		return
	}
	dw.wrote = true
	dst := dw.w.Header()
	for k, v := range dw.h {
		dst[k] = v
	}
	dw.w.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.writeHeaderLocked(http.StatusOK)
	return dw.w.Write(b)
}

// expire marks the writer as timed out and reports whether the timeout
// reply can still be sent.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return !dw.wrote
}
