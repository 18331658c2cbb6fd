package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers job to run on spec (standard five-field cron syntax or
// descriptors like "@daily").
func (s *Scheduler) Add(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(context.Background()); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		slog.Debug("scheduled job done", "job", name)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	slog.Info("scheduled job", "job", name, "spec", spec)
	return nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
