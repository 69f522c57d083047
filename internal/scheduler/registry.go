// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Registry errors.
var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job already running")
)

// JobInfo is the dashboard view of a job.
type JobInfo struct {
	Name         string
	Description  string
	Schedule     string
	NextRun      time.Time
	LastRun      time.Time
	LastDuration time.Duration
	LastError    string
	Running      bool
}

// job is one scheduled function. Cron ticks and manual runs share the
// running flag, so a job never overlaps itself.
type job struct {
	info    JobInfo
	fn      func() error
	entryID cron.EntryID
	running bool
}

// Registry owns the portal's cron jobs and remembers how each last ran.
type Registry struct {
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
}

// NewRegistry creates a registry adding its jobs to c.
func NewRegistry(c *cron.Cron, logger *slog.Logger) *Registry {
	return &Registry{
		cron:   c,
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*job),
	}
}

// Add schedules fn under name. Adding a name twice replaces the earlier job.
func (r *Registry) Add(name, description, schedule string, fn func() error) error {
	entryID, err := r.cron.AddFunc(schedule, func() {
		if err := r.Run(name); err != nil && !errors.Is(err, ErrJobRunning) {
			r.logger.Debug("scheduled job failed", "name", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s %q: %w", name, schedule, err)
	}

	r.mu.Lock()
	if old, ok := r.jobs[name]; ok {
		r.cron.Remove(old.entryID)
	}
	r.jobs[name] = &job{
		info:    JobInfo{Name: name, Description: description, Schedule: schedule},
		fn:      fn,
		entryID: entryID,
	}
	r.mu.Unlock()

	r.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// Run executes the job now, on the calling goroutine. It returns
// ErrJobRunning when a run is already in progress.
func (r *Registry) Run(name string) error {
	r.mu.Lock()
	j, ok := r.jobs[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if j.running {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	j.running = true
	r.mu.Unlock()

	start := r.now()
	err := j.fn()
	elapsed := r.now().Sub(start)

	r.mu.Lock()
	j.running = false
	j.info.LastRun = start
	j.info.LastDuration = elapsed
	j.info.LastError = ""
	if err != nil {
		j.info.LastError = err.Error()
	}
	r.mu.Unlock()

	return err
}

// List returns the jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobInfo, 0, len(r.jobs))
	for _, j := range r.jobs {
		info := j.info
		info.Running = j.running
		info.NextRun = r.cron.Entry(j.entryID).Next
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
