package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/tzayo/library-management-system/internal/api/http"
	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/migrations"
	"github.com/tzayo/library-management-system/internal/repository/postgres"
	"github.com/tzayo/library-management-system/internal/scheduler"
	"github.com/tzayo/library-management-system/internal/security"
	"github.com/tzayo/library-management-system/internal/service"

	_ "github.com/lib/pq"
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
	logger.Info("Starting Library API...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "run_scheduler", cfg.Server.RunScheduler)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Email configuration", "provider", cfg.Email.Provider, "from", cfg.Email.From)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())
	emailSvc := service.NewEmailServiceFromConfig(cfg)
	authSvc := service.NewAuthService(store.Users(), tokenManager, emailSvc, time.Now)
	catalogSvc := service.NewCatalogService(store, time.Now)
	userSvc := service.NewUserService(store, time.Now)
	loanSvc := service.NewLoanService(store, service.LoanSettings{
		DefaultDays:      cfg.Loan.DefaultDays,
		OperationTimeout: cfg.OperationTimeout(),
	})
	reminderSvc := service.NewReminderService(store, emailSvc, cfg.Loan.ReminderLeadDays())
	jobRunner := jobs.NewJobRunner(reminderSvc, cfg).WithLocker(postgres.NewAdvisoryLock(db, postgres.JobLockKey))

	router := httpapi.NewRouter(httpapi.Services{
		Auth:    authSvc,
		Catalog: catalogSvc,
		Loans:   loanSvc,
		Users:   userSvc,
		Jobs:    jobRunner,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// In-process scheduler for single-binary deployments
	var cronScheduler *scheduler.Scheduler
	if cfg.Server.RunScheduler {
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
