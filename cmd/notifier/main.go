package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"propdesk-backend/internal/config"
	"propdesk-backend/internal/jobs"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/notify"
	"propdesk-backend/internal/repository/postgres"
	"propdesk-backend/internal/scheduler"
	"propdesk-backend/internal/service"
)

const usage = `usage: notifier [-config path] <command>

commands:
  generate   run generate_daily_notifications() once
  cleanup    delete notifications older than the retention period once
  both       generate, then cleanup
  digest     email unread notification digests once
  schedule   run all jobs on their cron schedules until interrupted
`

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	var once []string
	switch command {
	case "generate":
		once = []string{jobs.JobGenerateNotifications}
	case "cleanup":
		once = []string{jobs.JobCleanupNotifications}
	case "both":
		once = []string{jobs.JobGenerateNotifications, jobs.JobCleanupNotifications}
	case "digest":
		once = []string{jobs.JobSendDigest}
	case "schedule":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting propdesk notifier...", "command", command, "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		db.Close()
		os.Exit(1)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	// No live subscribers in this process; the hub only satisfies the service.
	noteSvc := service.NewNotificationService(store.NotificationRepository, notify.NewHub(), emailSvc)
	jobRunner := jobs.NewJobRunner(noteSvc, nil, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once != nil {
		if err := jobRunner.RunOnce(ctx, once...); err != nil {
			logger.Error("Notifier run failed", "command", command, "error", err)
			stop()
			db.Close()
			os.Exit(1)
		}
		logger.Info("Notifier run completed", "command", command)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner, scheduler.NotifierJobs...)
	if err != nil {
		logger.Error("Failed to set up scheduler", "error", err)
		stop()
		db.Close()
		os.Exit(1)
	}

	cronScheduler.Start()
	logger.Info("Notifier scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	logger.Info("Shutting down notifier scheduler...")
	cronScheduler.Stop()
	logger.Info("Notifier scheduler stopped")
}
