package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"searchlens/internal/config"
	"searchlens/internal/database"
	"searchlens/internal/loads"
)

// cleanupSchedule runs the load history cleanup once a day.
const cleanupSchedule = "@daily"

// Scheduler runs the background jobs: scheduled reloads, reloads on data
// directory changes and load history cleanup.
type Scheduler struct {
	dbManager *database.DBManager
	reloader  *loads.Reloader
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	cron       *cron.Cron
	cleanupJob *CleanupJob
	watcher    *DataWatcher
}

// NewScheduler creates a scheduler. It fails when the reload schedule cannot
// be parsed. An empty schedule disables scheduled reloads.
func NewScheduler(dbManager *database.DBManager, reloader *loads.Reloader, logger *slog.Logger, cfg *config.Config) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		dbManager: dbManager,
		reloader:  reloader,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		cfg:       cfg,
		cron:      cron.New(cron.WithLocation(time.UTC)),
	}
	s.cleanupJob = NewCleanupJob(dbManager, logger, cfg)

	if cfg.ReloadSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.ReloadSchedule, func() {
			s.executeJobSafely("scheduled_reload", s.reload(loads.TriggerSchedule))
		}); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid reload schedule %q: %w", cfg.ReloadSchedule, err)
		}
	}
	if _, err := s.cron.AddFunc(cleanupSchedule, func() {
		s.executeJobSafely("cleanup", s.cleanupJob.Run)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	return s, nil
}

func (s *Scheduler) reload(trigger string) func() error {
	return func() error {
		_, err := s.reloader.Reload(s.ctx, trigger)
		return err
	}
}

// executeJobSafely runs a job only if no other job is currently executing
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
		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	s.runJob(jobName, jobFunc)
}

// runJob runs a job, logging its error and recovering from panics.
func (s *Scheduler) runJob(jobName string, jobFunc func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	if s.cfg.WatchData && s.cfg.DataSource == config.FileSource {
		watcher, err := NewDataWatcher(s.logger, s.cfg.DataDirectory, s.cfg.WatchDebounce(), func() {
			// Not gated by executeJobSafely; the store serializes loads.
			s.runJob("watch_reload", s.reload(loads.TriggerWatch))
		})
		if err != nil {
			s.logger.Warn("Data directory watch disabled", slog.Any("error", err))
		} else {
			s.watcher = watcher
			s.watcher.Run(s.ctx)
		}
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		s.logger.Info("Running initial cleanup...")
		s.executeJobSafely("cleanup", s.cleanupJob.Run)
	}()

	s.logger.Info("Background jobs started",
		slog.String("reload_schedule", s.cfg.ReloadSchedule),
		slog.Bool("watching", s.watcher != nil))

	return nil
}

// Stop halts all background jobs and waits for running cron jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	s.cancel()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("Failed to close watcher", slog.Any("error", err))
		}
	}
	<-s.cron.Stop().Done()

	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// Entries returns the number of scheduled cron jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
