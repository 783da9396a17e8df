package usecase

import (
	"context"
	"log/slog"
	"time"

	"plansbot/internal/ports"
	"plansbot/internal/publish"
)

// Scheduler wires the cron driver with the run pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	mode     publish.Mode
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, mode publish.Mode, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, mode: mode, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A failed run is
// logged and the next tick retried; persistent state keeps successive runs
// consistent.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run starting", "trigger", trigger.Format(time.RFC3339))
		if err := s.pipeline.Run(ctx, s.mode); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
