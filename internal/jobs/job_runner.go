package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/service"
)

// ErrJobInProgress is returned to manual triggers while another run holds the lock.
var ErrJobInProgress = errors.New("a loan maintenance job is already running")

// Job names accepted by Run.
const (
	JobDaily         = "daily"
	JobMarkOverdue   = "mark-overdue"
	JobSendReminders = "send-reminders"
)

// Locker is a lock shared with other processes running the same jobs.
// TryLock must not block; release is only returned when acquired is true.
type Locker interface {
	TryLock(ctx context.Context) (release func(), acquired bool, err error)
}

// JobRunner coordinates the scheduled loan maintenance jobs. All jobs share
// one lock so a manual trigger never overlaps a scheduled run. The mutex
// covers this process; the Locker covers the API, cronjob and CLI processes.
type JobRunner struct {
	reminders service.ReminderService
	config    *config.Config
	now       service.Clock
	timeout   time.Duration
	mu        sync.Mutex
	locker    Locker
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(reminders service.ReminderService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reminders: reminders,
		config:    cfg,
		now:       time.Now,
		timeout:   30 * time.Minute,
	}
}

// WithClock replaces the time source; tests pin it.
func (jr *JobRunner) WithClock(clock service.Clock) *JobRunner {
	jr.now = clock
	return jr
}

// WithLocker adds a cross-process lock taken after the in-process one.
func (jr *JobRunner) WithLocker(locker Locker) *JobRunner {
	jr.locker = locker
	return jr
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and the run lock.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	if !jr.mu.TryLock() {
		logger.Warn("Skipping job, previous run still in progress", "job", jobName)
		return ErrJobInProgress
	}
	defer jr.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	if jr.locker != nil {
		release, acquired, err := jr.locker.TryLock(ctx)
		if err != nil {
			logger.Error("Failed to acquire job lock", "job", jobName, "error", err)
			return fmt.Errorf("acquire job lock: %w", err)
		}
		if !acquired {
			logger.Warn("Skipping job, another process is running it", "job", jobName)
			return ErrJobInProgress
		}
		defer release()
	}

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	err = jobFunc(ctx)
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// Run executes one job by name and returns what it did.
func (jr *JobRunner) Run(name string) (service.DailySummary, error) {
	switch name {
	case JobDaily:
		return jr.RunDailyJobs()
	case JobMarkOverdue:
		marked, err := jr.MarkOverdueLoans()
		return service.DailySummary{MarkedOverdue: marked}, err
	case JobSendReminders:
		summary, err := jr.SendLoanReminders()
		return service.DailySummary{ReminderSummary: summary}, err
	default:
		return service.DailySummary{}, fmt.Errorf("unknown job %q (want %s, %s or %s)", name, JobDaily, JobMarkOverdue, JobSendReminders)
	}
}

// ScheduledDailyJobs is the cron entry point; the outcome is only logged.
func (jr *JobRunner) ScheduledDailyJobs() {
	_, _ = jr.RunDailyJobs()
}
