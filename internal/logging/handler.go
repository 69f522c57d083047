// Package logging provides a custom slog handler that keeps the most recent
// warnings and errors in memory for the admin dashboard.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultCapacity is the number of entries kept when none is given.
const DefaultCapacity = 50

// Event categories.
const (
	CategoryAuth    = "auth"
	CategoryBackend = "backend"
	CategoryAdmin   = "admin"
	CategorySystem  = "system"
)

// Entry is one captured log record.
type Entry struct {
	Time     time.Time
	Level    slog.Level
	Category string
	Message  string
	Attrs    map[string]string
}

// ring is the buffer shared by a handler and all handlers derived from it.
type ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func (b *ring) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// snapshot returns entries newest first.
func (b *ring) snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.next
	if b.full {
		n = len(b.entries)
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (b.next - i + len(b.entries)) % len(b.entries)
		out = append(out, b.entries[idx])
	}
	return out
}

// RecentHandler is a slog.Handler that wraps another handler and also keeps
// WARN and ERROR level records in a fixed-size ring buffer.
type RecentHandler struct {
	inner slog.Handler
	buf   *ring
	attrs []slog.Attr
	group string
	level slog.Level // Minimum level to capture (default: WARN)
}

// NewRecentHandler creates a new RecentHandler that wraps the given handler.
// Logs at WARN level and above will be written to both the wrapped handler and the buffer.
func NewRecentHandler(inner slog.Handler, capacity int) *RecentHandler {
	return NewRecentHandlerWithLevel(inner, capacity, slog.LevelWarn)
}

// NewRecentHandlerWithLevel creates a new RecentHandler with a custom minimum level.
func NewRecentHandlerWithLevel(inner slog.Handler, capacity int, level slog.Level) *RecentHandler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RecentHandler{
		inner: inner,
		buf:   &ring{entries: make([]Entry, capacity)},
		level: level,
	}
}

// Recent returns the captured entries, newest first.
func (h *RecentHandler) Recent() []Entry {
	return h.buf.snapshot()
}

// Enabled implements slog.Handler.
func (h *RecentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler. The request id and path found in ctx
// are added to the record unless it already carries them.
func (h *RecentHandler) Handle(ctx context.Context, r slog.Record) error {
	r = h.withRequest(ctx, r)

	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.buf.add(h.entry(r))
	}

	return nil
}

func (h *RecentHandler) withRequest(ctx context.Context, r slog.Record) slog.Record {
	var extra []slog.Attr
	if id := chimw.GetReqID(ctx); id != "" && !h.hasAttr(r, "request_id") {
		extra = append(extra, slog.String("request_id", id))
	}
	if path := RequestPath(ctx); path != "" && !h.hasAttr(r, "path") {
		extra = append(extra, slog.String("path", path))
	}
	if len(extra) == 0 {
		return r
	}
	r = r.Clone()
	r.AddAttrs(extra...)
	return r
}

func (h *RecentHandler) hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = h.qualify(a).Key == key
		return !found
	})
	return found
}

// WithAttrs implements slog.Handler.
func (h *RecentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, h.qualify(a))
	}
	return &RecentHandler{
		inner: h.inner.WithAttrs(attrs),
		buf:   h.buf,
		attrs: merged,
		group: h.group,
		level: h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *RecentHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &RecentHandler{
		inner: h.inner.WithGroup(name),
		buf:   h.buf,
		attrs: h.attrs,
		group: group,
		level: h.level,
	}
}

func (h *RecentHandler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

func (h *RecentHandler) entry(r slog.Record) Entry {
	e := Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string, len(h.attrs)+r.NumAttrs()),
	}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		a = h.qualify(a)
		if a.Key == "category" {
			e.Category = a.Value.String()
			return true
		}
		e.Attrs[a.Key] = a.Value.String()
		return true
	})
	if e.Category == "" {
		e.Category = inferCategory(r.Message)
	}
	return e
}

// inferCategory guesses a category from common message patterns.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "token"):
		return CategoryAuth
	case strings.Contains(msg, "backend") || strings.Contains(msg, "probe") || strings.Contains(msg, "request"):
		return CategoryBackend
	case strings.Contains(msg, "admin") || strings.Contains(msg, "create") || strings.Contains(msg, "update") || strings.Contains(msg, "delete"):
		return CategoryAdmin
	default:
		return CategorySystem
	}
}
