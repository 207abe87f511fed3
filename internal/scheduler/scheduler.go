package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"propdesk-backend/internal/jobs"
	"propdesk-backend/internal/logger"
)

// NotifierJobs are the jobs run by the notifier process.
var NotifierJobs = []string{
	jobs.JobGenerateNotifications,
	jobs.JobCleanupNotifications,
	jobs.JobSendDigest,
}

// ServerJobs are the jobs that need the API server's in-memory state.
var ServerJobs = []string{jobs.JobPruneSessions}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron   *cron.Cron
	jobs   *jobs.JobRunner
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler running the named jobs on the specs from
// the runner's scheduler config.
func NewScheduler(jobRunner *jobs.JobRunner, names ...string) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		jobs:   jobRunner,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := s.registerJobs(names); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) spec(name string) string {
	cfg := s.jobs.Config().Scheduler
	switch name {
	case jobs.JobGenerateNotifications:
		return cfg.GenerateNotifications
	case jobs.JobCleanupNotifications:
		return cfg.CleanupNotifications
	case jobs.JobSendDigest:
		return cfg.SendDigest
	case jobs.JobPruneSessions:
		return cfg.PruneSessions
	}
	return ""
}

// registerJobs registers the named jobs with the cron scheduler
func (s *Scheduler) registerJobs(names []string) error {
	for _, name := range names {
		spec := s.spec(name)
		if spec == "" {
			return fmt.Errorf("no schedule configured for job %s", name)
		}
		name := name
		_, err := s.cron.AddFunc(spec, func() {
			// failures are already logged and counted by the runner
			_ = s.jobs.RunOnce(s.ctx, name)
		})
		if err != nil {
			logger.Error("Failed to register job", "job", name, "spec", spec, "error", err)
			return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
		}
		logger.Info("Registered cron job", "job", name, "spec", spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(names))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs after
// cancelling their context.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	s.cancel()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
