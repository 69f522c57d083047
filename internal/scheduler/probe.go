// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Prober checks one backend endpoint.
type Prober interface {
	Probe(ctx context.Context, path string) error
}

// Check is the outcome of probing one path.
type Check struct {
	Path    string
	OK      bool
	Error   string
	Latency time.Duration
}

// Report is the outcome of one probe run.
type Report struct {
	At     time.Time
	Checks []Check
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	if len(r.Checks) == 0 {
		return false
	}
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// maxConcurrentChecks bounds the fan-out against the backend.
const maxConcurrentChecks = 4

// BackendProbe polls the public backend endpoints and keeps the latest report.
type BackendProbe struct {
	prober  Prober
	paths   []string
	timeout time.Duration
	logger  *slog.Logger
	last    atomic.Pointer[Report]
}

// NewBackendProbe creates a probe over the given paths.
func NewBackendProbe(prober Prober, paths []string, timeout time.Duration, logger *slog.Logger) *BackendProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BackendProbe{
		prober:  prober,
		paths:   paths,
		timeout: timeout,
		logger:  logger,
	}
}

// Run probes every path concurrently and stores the report. It returns an
// error naming the failed paths, if any.
func (b *BackendProbe) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	checks := make([]Check, len(b.paths))

	var g errgroup.Group
	g.SetLimit(maxConcurrentChecks)
	for i, path := range b.paths {
		g.Go(func() error {
			start := time.Now()
			err := b.prober.Probe(ctx, path)
			c := Check{Path: path, OK: err == nil, Latency: time.Since(start)}
			if err != nil {
				c.Error = err.Error()
			}
			checks[i] = c
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{At: time.Now(), Checks: checks}
	b.last.Store(report)

	if failed := report.Failed(); len(failed) > 0 {
		paths := make([]string, 0, len(failed))
		for _, c := range failed {
			paths = append(paths, c.Path)
		}
		b.logger.Warn("backend probe failed", "paths", paths, "error", failed[0].Error)
		return fmt.Errorf("backend probe: %d of %d checks failed", len(failed), len(checks))
	}

	b.logger.Debug("backend probe ok", "checks", len(checks))
	return nil
}

// Last returns the latest report. ok is false before the first run.
func (b *BackendProbe) Last() (Report, bool) {
	r := b.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}
