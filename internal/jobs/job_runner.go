package jobs

import (
	"context"
	"fmt"
	"time"

	"propdesk-backend/internal/config"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/metrics"
	"propdesk-backend/internal/service"
)

// Job names, also accepted by RunOnce.
const (
	JobGenerateNotifications = "generate_notifications"
	JobCleanupNotifications  = "cleanup_notifications"
	JobSendDigest            = "send_digest"
	JobPruneSessions         = "prune_sessions"
)

// digestWindow is how far back the daily digest looks for unread notifications.
const digestWindow = 24 * time.Hour

// SessionPruner drops expired entries from the token revocation list.
type SessionPruner interface {
	Prune() int
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	notifications service.NotificationService
	sessions      SessionPruner
	config        *config.Config
	now           func() time.Time
}

// NewJobRunner creates a new job runner. sessions may be nil for processes
// that do not hold the revocation list.
func NewJobRunner(notifications service.NotificationService, sessions SessionPruner, cfg *config.Config) *JobRunner {
	return &JobRunner{
		notifications: notifications,
		sessions:      sessions,
		config:        cfg,
		now:           time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery. A panic is
// reported as an error so one-shot callers can exit non-zero.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.JobRuns.WithLabelValues(jobName, metrics.Outcome(err)).Inc()
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName)
	return nil
}

// GenerateNotifications runs the daily notification procedure
func (jr *JobRunner) GenerateNotifications(ctx context.Context) error {
	return jr.runWithRecovery(JobGenerateNotifications, func() error {
		created, err := jr.notifications.GenerateDaily(ctx)
		if err != nil {
			return err
		}
		logger.Info("Daily notifications generated", "created", created)
		return nil
	})
}

// CleanupNotifications deletes notifications older than the retention period
func (jr *JobRunner) CleanupNotifications(ctx context.Context) error {
	return jr.runWithRecovery(JobCleanupNotifications, func() error {
		deleted, err := jr.notifications.Cleanup(ctx, jr.config.Notifications.RetentionDays)
		if err != nil {
			return err
		}
		logger.Info("Old notifications removed",
			"deleted", deleted,
			"retention_days", jr.config.Notifications.RetentionDays)
		return nil
	})
}

// SendDigest emails each user a summary of the last day's unread notifications
func (jr *JobRunner) SendDigest(ctx context.Context) error {
	return jr.runWithRecovery(JobSendDigest, func() error {
		sent, err := jr.notifications.SendDigests(ctx, jr.now().Add(-digestWindow))
		if err != nil {
			return err
		}
		logger.Info("Notification digests sent", "sent", sent)
		return nil
	})
}

// PruneSessions drops revoked token ids whose tokens have expired anyway
func (jr *JobRunner) PruneSessions(ctx context.Context) error {
	return jr.runWithRecovery(JobPruneSessions, func() error {
		if jr.sessions == nil {
			return fmt.Errorf("no session broker configured")
		}
		logger.Debug("Revocation list pruned", "removed", jr.sessions.Prune())
		return nil
	})
}

// RunOnce runs the named jobs in order and stops at the first failure
func (jr *JobRunner) RunOnce(ctx context.Context, names ...string) error {
	for _, name := range names {
		job, ok := jr.lookup(name)
		if !ok {
			return fmt.Errorf("unknown job: %s", name)
		}
		if err := job(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (jr *JobRunner) lookup(name string) (func(context.Context) error, bool) {
	switch name {
	case JobGenerateNotifications:
		return jr.GenerateNotifications, true
	case JobCleanupNotifications:
		return jr.CleanupNotifications, true
	case JobSendDigest:
		return jr.SendDigest, true
	case JobPruneSessions:
		return jr.PruneSessions, true
	}
	return nil, false
}
