package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/northpeak/logistics-api/internal/config"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/http/handler"
	"github.com/northpeak/logistics-api/internal/http/middleware"
	"github.com/northpeak/logistics-api/internal/http/router"
	"github.com/northpeak/logistics-api/internal/identity"
	"github.com/northpeak/logistics-api/internal/jobs"
	"github.com/northpeak/logistics-api/internal/logger"
	"github.com/northpeak/logistics-api/internal/mailer"
	"github.com/northpeak/logistics-api/internal/pdf"
	"github.com/northpeak/logistics-api/internal/pricing"
	"github.com/northpeak/logistics-api/internal/push"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/northpeak/logistics-api/internal/service"
	"github.com/northpeak/logistics-api/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	handler.EnableDetailedErrors(cfg.App.Environment != "production")

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run through cmd/migrate; auto-migration is a
	// development convenience only
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate schema: %w", err)
		}
	}

	// Initialize document archive
	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Push sender: a disabled or misconfigured FCM setup degrades to a
	// logging no-op rather than blocking the workflow
	var sender push.Sender
	if cfg.Push.Enabled {
		fcm, err := push.NewClient(&cfg.Push, log)
		if err != nil {
			log.Warn("FCM client initialization failed, notifications disabled", zap.Error(err))
			sender = &push.NopSender{Logger: log}
		} else {
			sender = fcm
		}
	} else {
		log.Info("Push notifications disabled")
		sender = &push.NopSender{Logger: log}
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	// Shared workflow pieces
	retry := database.DefaultRetryPolicy(cfg.Database.QueryTimeoutDuration(), log)
	calculator := pricing.NewCalculator(cfg.Pricing.VATRate)
	dispatcher := service.NewDispatcher(staffRepo, notificationLogRepo, sender, log)

	// External providers
	var idp identity.Provider
	if cfg.Identity.BaseURL != "" {
		idp = identity.NewClient(&cfg.Identity, log)
	}
	var mail mailer.Mailer
	if cfg.Mailer.Enabled {
		mail = mailer.NewClient(&cfg.Mailer, log)
	}

	// Initialize services
	clientService := service.NewClientService(clientRepo, retry, log)
	orderService := service.NewOrderService(db, orderRepo, clientRepo, numberSequenceRepo, calculator, dispatcher, retry, log)
	quotationService := service.NewQuotationService(db, quotationRepo, clientRepo, staffRepo, numberSequenceRepo, calculator, dispatcher, retry, log)
	staffService := service.NewStaffService(staffRepo, idp, mail, retry, log)
	documentService := service.NewDocumentService(orderService, pdf.NewRenderer(), archive, log)
	reminderService := service.NewReminderService(orderRepo, quotationRepo, dispatcher, retry, log)

	// Initialize middleware and handlers
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	clientHandler := handler.NewClientHandler(clientService, log)
	orderHandler := handler.NewOrderHandler(orderService, log)
	quotationHandler := handler.NewQuotationHandler(quotationService, log)
	staffHandler := handler.NewStaffHandler(staffService, log)
	documentHandler := handler.NewDocumentHandler(documentService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		clientHandler,
		orderHandler,
		quotationHandler,
		staffHandler,
		documentHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.PendingReminderEnabled {
		scheduler = jobs.NewScheduler(log)

		maxAge := time.Duration(cfg.Jobs.PendingReminderAgeHours) * time.Hour
		job := jobs.NewPendingApprovalsJob(reminderService, log, maxAge)
		if err := scheduler.AddJob(jobs.PendingApprovalsJobName, cfg.Jobs.PendingReminderCron, job.Run); err != nil {
			log.Error("Failed to register pending approvals job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with pending approvals reminder",
				zap.String("cron_expr", cfg.Jobs.PendingReminderCron),
				zap.Duration("max_age", maxAge),
			)
		}
	} else {
		log.Info("Pending approvals reminder disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
