package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "propdesk-backend/internal/api/http"
	"propdesk-backend/internal/config"
	"propdesk-backend/internal/edge"
	"propdesk-backend/internal/jobs"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/notify"
	"propdesk-backend/internal/repository/postgres"
	"propdesk-backend/internal/scheduler"
	"propdesk-backend/internal/security"
	"propdesk-backend/internal/service"
	"propdesk-backend/internal/session"
	"propdesk-backend/internal/storage"
	"propdesk-backend/internal/webhook"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting propdesk backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "public_url", cfg.Server.PublicURL)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Edge functions", "base_url", cfg.Edge.BaseURL, "timeout", cfg.EdgeTimeout())

	if err := run(cfg); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Storage
	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if c, ok := objects.(io.Closer); ok {
		defer c.Close()
	}
	logger.Info("Object storage ready", "type", cfg.Storage.Type)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, security.TokenTTL{
		Access:  time.Duration(cfg.JWT.AccessTokenMinutes) * time.Minute,
		Refresh: time.Duration(cfg.JWT.RefreshTokenMinutes) * time.Minute,
		Verify:  time.Duration(cfg.JWT.VerifyTokenMinutes) * time.Minute,
	})
	broker := session.NewBroker()

	// Initialize outbound integrations
	edgeClient := edge.NewClient(cfg.Edge.BaseURL, cfg.Edge.APIKey, cfg.EdgeTimeout())
	hooks := webhook.NewNotifier(webhook.URLs{
		Signup:       cfg.Webhooks.SignupURL,
		Verification: cfg.Webhooks.VerificationURL,
		Message:      cfg.Webhooks.MessageURL,
	}, nil)
	defer hooks.Wait()
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	// Initialize Services
	noteSvc := service.NewNotificationService(store.NotificationRepository, notify.NewHub(), emailSvc)
	deps := httpapi.Dependencies{
		Auth:           service.NewAuthService(store.UserRepository, tokenManager, broker, emailSvc, hooks, cfg.Server.PublicURL),
		Properties:     service.NewPropertyService(store.PropertyRepository),
		Tenants:        service.NewTenantService(store.TenantRepository),
		Leases:         service.NewLeaseService(store.LeaseRepository, store.PropertyRepository, store.TenantRepository),
		Payments:       service.NewPaymentService(store.PaymentRepository, store.LeaseRepository),
		Documents:      service.NewDocumentService(store.DocumentRepository, objects),
		Notifications:  noteSvc,
		Messages:       service.NewMessageService(store.MessageRepository, store.TenantRepository, hooks),
		ErrorLogs:      service.NewErrorLogService(store.ErrorLogRepository),
		Reconciliation: service.NewReconciliationService(store.ReconciliationRepository, objects, edgeClient, noteSvc, cfg.MaxUploadBytes()),
		Tokens:         tokenManager,
		Sessions:       broker,
		Health:         store,
		LoginLimiter:   httpapi.NewLoginLimiter(cfg.Server.LoginRatePerSec, cfg.Server.LoginRateBurst),
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}

	// The revocation list lives in this process, so pruning runs here.
	sessionJobs, err := scheduler.NewScheduler(jobs.NewJobRunner(noteSvc, broker, cfg), scheduler.ServerJobs...)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sessionJobs.Start()
	defer sessionJobs.Stop()

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: statement matching and notification streams run long.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
