// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeProber struct {
	mu       sync.Mutex
	fail     map[string]bool
	honorCtx bool
	calls    []string
}

func (f *fakeProber) Probe(ctx context.Context, path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	fail := f.fail[path]
	f.mu.Unlock()

	if f.honorCtx {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if fail {
		return errors.New("status 500")
	}
	return nil
}

func TestBackendProbe_LastBeforeRun(t *testing.T) {
	probe := NewBackendProbe(&fakeProber{}, []string{"/noticias"}, time.Second, testLogger())

	if _, ok := probe.Last(); ok {
		t.Error("Last() should report no run yet")
	}
}

func TestBackendProbe_AllHealthy(t *testing.T) {
	paths := []string{"/noticias", "/vagas", "/eventos"}
	prober := &fakeProber{}
	probe := NewBackendProbe(prober, paths, time.Second, testLogger())

	if err := probe.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	report, ok := probe.Last()
	if !ok {
		t.Fatal("Last() returned no report")
	}
	if !report.Healthy() {
		t.Error("report should be healthy")
	}
	if len(report.Checks) != len(paths) {
		t.Fatalf("checks = %d, want %d", len(report.Checks), len(paths))
	}
	for i, c := range report.Checks {
		if c.Path != paths[i] {
			t.Errorf("Checks[%d].Path = %q, want %q", i, c.Path, paths[i])
		}
	}
	if len(prober.calls) != len(paths) {
		t.Errorf("prober called %d times, want %d", len(prober.calls), len(paths))
	}
}

func TestBackendProbe_PartialFailure(t *testing.T) {
	prober := &fakeProber{fail: map[string]bool{"/vagas": true}}
	probe := NewBackendProbe(prober, []string{"/noticias", "/vagas", "/eventos"}, time.Second, testLogger())

	if err := probe.Run(context.Background()); err == nil {
		t.Fatal("Run() should report the failed check")
	}

	report, _ := probe.Last()
	if report.Healthy() {
		t.Error("report should not be healthy")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Path != "/vagas" {
		t.Fatalf("Failed() = %+v, want only /vagas", failed)
	}
	if failed[0].Error == "" {
		t.Error("failed check should carry the error text")
	}
}

func TestReport_HealthyEmpty(t *testing.T) {
	if (Report{}).Healthy() {
		t.Error("a report without checks is not healthy")
	}
}

func TestNewBackendProbe_DefaultTimeout(t *testing.T) {
	probe := NewBackendProbe(&fakeProber{}, nil, 0, testLogger())
	if probe.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", probe.timeout)
	}
}
