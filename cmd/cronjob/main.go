package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository/postgres"
	"github.com/tzayo/library-management-system/internal/scheduler"
	"github.com/tzayo/library-management-system/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ("+jobs.JobDaily+", "+jobs.JobMarkOverdue+", "+jobs.JobSendReminders+")")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Library Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	store := postgres.NewStore(db)
	emailSvc := service.NewEmailServiceFromConfig(cfg)
	reminderSvc := service.NewReminderService(store, emailSvc, cfg.Loan.ReminderLeadDays())

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(reminderSvc, cfg).WithLocker(postgres.NewAdvisoryLock(db, postgres.JobLockKey))

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		summary, err := jobRunner.Run(*runOnce)
		if err != nil {
			logger.Error("Job failed", "job", *runOnce, "error", err)
			fmt.Fprintf(os.Stderr, "job %s failed: %v\n", *runOnce, err)
			os.Exit(1)
		}
		fmt.Printf("total=%d sent=%d failed=%d marked_overdue=%d\n",
			summary.Total, summary.Sent, summary.Failed, summary.MarkedOverdue)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
