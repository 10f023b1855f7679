// Package jobs runs inkwell's background maintenance work.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
)

// Scheduler runs background jobs on fixed intervals. Implements
// cartridge.BackgroundWorker.
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	processingMutex sync.Mutex
	isProcessing    bool

	retentionJob    *RetentionJob
	retentionTicker *time.Ticker
}

// NewJobs creates the job scheduler.
func NewJobs(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		cfg:       cfg,
	}
	s.retentionJob = NewRetentionJob(dbManager, logger, cfg)
	return s, nil
}

// executeJobSafely runs a job unless another job is already executing, and
// keeps a panicking job from taking down the scheduler goroutine.
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins the background jobs.
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.isRunning = true

	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting view event retention job", slog.Duration("interval", interval))
	s.retentionTicker = time.NewTicker(interval)

	go func() {
		s.executeJobSafely("view_event_retention", s.retentionJob.Run)

		for {
			select {
			case <-s.retentionTicker.C:
				s.executeJobSafely("view_event_retention", s.retentionJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Retention job stopped")
				return
			}
		}
	}()

	return nil
}

// Stop halts all background jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.retentionTicker != nil {
		s.retentionTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning reports whether jobs are currently running.
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// PruneViewEvents triggers the retention job manually, used by inkctl.
func (s *Scheduler) PruneViewEvents() error {
	if !s.enabled {
		return nil
	}
	return s.retentionJob.Run()
}
