// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the portal's periodic jobs on robfig/cron.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ProbeJobName is the registry name of the backend probe.
const ProbeJobName = "backend_probe"

// Scheduler handles scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	c := cron.New()
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger),
		logger:   logger,
	}
}

// Registry returns the job registry.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// AddProbe schedules the backend probe. The probe also runs once right away
// so that readiness is known before the first tick.
func (s *Scheduler) AddProbe(schedule string, probe *BackendProbe) error {
	err := s.registry.Add(ProbeJobName, "Verifica se a API da Fundação responde", schedule, func() error {
		return probe.Run(context.Background())
	})
	if err != nil {
		return err
	}

	// Failures are logged by the probe itself.
	go func() { _ = s.registry.Run(ProbeJobName) }()
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
