package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/logger"
)

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron    *cron.Cron
	jobs    *jobs.JobRunner
	dailyID cron.EntryID

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler with the daily loan job registered. A tick
// that fires while the previous run is still going is skipped.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	cfg := jobRunner.Config()
	c := cron.New(
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}
	if err := s.registerJobs(cfg.Scheduler.DailyJobs); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs(spec string) error {
	id, err := s.cron.AddFunc(spec, s.jobs.ScheduledDailyJobs)
	if err != nil {
		return fmt.Errorf("register daily loan job %q: %w", spec, err)
	}
	s.dailyID = id
	logger.Info("Cron jobs registered", "dailyJobs", spec)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	logger.Info("Cron scheduler started", "nextRun", s.NextRun())
}

// Stop gracefully stops the cron scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun reports when the daily job fires next. It is zero until Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.dailyID).Next
}
