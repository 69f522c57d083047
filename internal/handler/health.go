// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/fundacaoguia/portal/internal/middleware"
)

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusUnknown  = "unknown"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	probe     ProbeReporter
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. probe may be nil when the
// backend probe is disabled.
func NewHealthHandler(probe ProbeReporter, version string) *HealthHandler {
	return &HealthHandler{
		probe:     probe,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for admin sessions.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains process-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
}

// backendStatus summarizes the latest probe. Without a probe the portal
// cannot tell, which is reported as unknown and does not fail /health.
func (h *HealthHandler) backendStatus() (string, map[string]Check) {
	if h.probe == nil {
		return StatusUnknown, nil
	}
	report, ok := h.probe.Last()
	if !ok {
		return StatusUnknown, nil
	}

	checks := make(map[string]Check, len(report.Checks))
	for _, c := range report.Checks {
		check := Check{Status: StatusHealthy, Latency: c.Latency.Round(time.Millisecond).String()}
		if !c.OK {
			check.Status = StatusDegraded
			check.Message = c.Error
		}
		checks["backend:"+c.Path] = check
	}

	if report.Healthy() {
		return StatusHealthy, checks
	}
	return StatusDegraded, checks
}

// Health handles GET /health. Anonymous callers get the status only.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, checks := h.backendStatus()

	code := http.StatusOK
	if status == StatusDegraded {
		code = http.StatusServiceUnavailable
	}

	if !middleware.IsAuthenticated(r) {
		writeJSON(w, code, HealthStatusPublic{Status: status})
		return
	}

	writeJSON(w, code, HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
		System: &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
		},
	})
}

// Liveness handles GET /health/live. The process answering is enough.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatusPublic{Status: "alive"})
}

// Readiness handles GET /health/ready. The portal is ready once the
// backend probe has passed; with the probe disabled it is always ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		writeJSON(w, http.StatusOK, HealthStatusPublic{Status: "ready"})
		return
	}

	status, _ := h.backendStatus()
	if status != StatusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, HealthStatusPublic{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, HealthStatusPublic{Status: "ready"})
}
