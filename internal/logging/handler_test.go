package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

// failingHandler rejects every record.
type failingHandler struct{ discardHandler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestRecentHandler_Handle_ErrorLevel(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 10)
	logger := slog.New(handler)

	logger.Error("backend request failed", "path", "/vagas", "status", 502)

	entries := handler.Recent()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != slog.LevelError {
		t.Errorf("Level = %v, want ERROR", e.Level)
	}
	if e.Message != "backend request failed" {
		t.Errorf("Message = %q, want %q", e.Message, "backend request failed")
	}
	if e.Category != CategoryBackend {
		t.Errorf("Category = %q, want %q", e.Category, CategoryBackend)
	}
	if e.Attrs["path"] != "/vagas" || e.Attrs["status"] != "502" {
		t.Errorf("Attrs = %v", e.Attrs)
	}
}

func TestRecentHandler_Handle_InfoLevel_NotCaptured(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 10)
	logger := slog.New(handler)

	logger.Info("server started", "port", 8080)
	logger.Debug("noise")

	if n := len(handler.Recent()); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
}

func TestRecentHandler_CustomLevel(t *testing.T) {
	handler := NewRecentHandlerWithLevel(discardHandler{}, 10, slog.LevelInfo)
	slog.New(handler).Info("login succeeded")

	entries := handler.Recent()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Category != CategoryAuth {
		t.Errorf("Category = %q, want %q", entries[0].Category, CategoryAuth)
	}
}

func TestRecentHandler_ExplicitCategory(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 10)
	slog.New(handler).Warn("something odd", "category", CategoryAdmin, "kind", "vagas")

	e := handler.Recent()[0]
	if e.Category != CategoryAdmin {
		t.Errorf("Category = %q, want %q", e.Category, CategoryAdmin)
	}
	if _, ok := e.Attrs["category"]; ok {
		t.Error("category should not be repeated in Attrs")
	}
}

func TestRecentHandler_RingOrder(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 3)
	logger := slog.New(handler)

	for i := 1; i <= 5; i++ {
		logger.Warn(fmt.Sprintf("warning %d", i))
	}

	entries := handler.Recent()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"warning 5", "warning 4", "warning 3"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestRecentHandler_WithAttrsAndGroup(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 10)
	logger := slog.New(handler).With("request_id", "abc").WithGroup("backend")

	logger.Warn("slow request", "path", "/noticias")

	entries := handler.Recent()
	if len(entries) != 1 {
		t.Fatalf("derived handlers must share the buffer, got %d entries", len(entries))
	}
	attrs := entries[0].Attrs
	if attrs["request_id"] != "abc" {
		t.Errorf("request_id = %q, want %q", attrs["request_id"], "abc")
	}
	if attrs["backend.path"] != "/noticias" {
		t.Errorf("backend.path = %q, want %q (attrs %v)", attrs["backend.path"], "/noticias", attrs)
	}
}

func TestRecentHandler_InnerErrorNotCaptured(t *testing.T) {
	handler := NewRecentHandler(failingHandler{}, 10)

	err := handler.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "x", 0))
	if err == nil {
		t.Fatal("expected inner handler error")
	}
	if n := len(handler.Recent()); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
}

func TestRecentHandler_DefaultCapacity(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 0)
	logger := slog.New(handler)
	for i := 0; i < DefaultCapacity+5; i++ {
		logger.Warn("w")
	}
	if n := len(handler.Recent()); n != DefaultCapacity {
		t.Errorf("len = %d, want %d", n, DefaultCapacity)
	}
}

func TestRecentHandler_Concurrent(t *testing.T) {
	handler := NewRecentHandler(discardHandler{}, 20)
	logger := slog.New(handler)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Warn("concurrent", "worker", n)
				_ = handler.Recent()
			}
		}(i)
	}
	wg.Wait()

	if n := len(handler.Recent()); n != 20 {
		t.Errorf("len = %d, want 20", n)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Login failed", CategoryAuth},
		{"token missing", CategoryAuth},
		{"backend probe failed", CategoryBackend},
		{"delete rejected", CategoryAdmin},
		{"server shutting down", CategorySystem},
	}

	for _, tt := range tests {
		if got := inferCategory(tt.msg); got != tt.want {
			t.Errorf("inferCategory(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

// recordingHandler keeps the attributes of the last record it handled.
type recordingHandler struct {
	discardHandler
	attrs map[string]string
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.attrs = map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		h.attrs[a.Key] = a.Value.String()
		return true
	})
	return nil
}

func TestRecentHandler_RequestPathFromContext(t *testing.T) {
	inner := &recordingHandler{}
	handler := NewRecentHandler(inner, 10)
	logger := slog.New(handler)

	ctx := WithRequestPath(context.Background(), "/admin/vagas/7/edit")
	logger.WarnContext(ctx, "admin save failed", "category", CategoryAdmin)

	if got := inner.attrs["path"]; got != "/admin/vagas/7/edit" {
		t.Errorf("inner path = %q, want the request path", got)
	}
	entries := handler.Recent()
	if len(entries) != 1 || entries[0].Attrs["path"] != "/admin/vagas/7/edit" {
		t.Fatalf("captured entries = %+v", entries)
	}

	logger.WarnContext(ctx, "backend list failed", "path", "/vagas")
	if got := handler.Recent()[0].Attrs["path"]; got != "/vagas" {
		t.Errorf("explicit path = %q, want /vagas", got)
	}

	ctx = context.WithValue(ctx, chimw.RequestIDKey, "host/abc-000001")
	logger.ErrorContext(ctx, "failed to render template")
	if got := handler.Recent()[0].Attrs["request_id"]; got != "host/abc-000001" {
		t.Errorf("request_id = %q", got)
	}

	logger.Warn("no request")
	if _, ok := handler.Recent()[0].Attrs["path"]; ok {
		t.Error("records without a request path get no path attribute")
	}
}

func TestRequestPath(t *testing.T) {
	if got := RequestPath(context.Background()); got != "" {
		t.Errorf("RequestPath(empty) = %q", got)
	}
	if got := RequestPath(WithRequestPath(context.Background(), "/noticias/42")); got != "/noticias/42" {
		t.Errorf("RequestPath() = %q, want /noticias/42", got)
	}
}
