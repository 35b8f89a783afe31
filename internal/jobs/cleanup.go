package jobs

import (
	"log/slog"
	"time"

	"searchlens/internal/config"
	"searchlens/internal/database"
	"searchlens/internal/loads"
)

// CleanupJob removes load history older than the retention period.
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
	now       func() time.Time
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run deletes load records older than the configured retention. A
// retention of zero or less keeps everything.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.LoadHistoryRetentionDays
	if retentionDays <= 0 {
		j.logger.Debug("Load history retention disabled")
		return nil
	}

	cutoffDate := j.now().UTC().AddDate(0, 0, -retentionDays)
	j.logger.Info("Starting cleanup of old load records",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	deleted, err := loads.DeleteOlderThan(j.logger, j.dbManager.GetConnection(), cutoffDate)
	if err != nil {
		j.logger.Error("Failed to clean up load records", slog.Any("error", err))
		return err
	}

	j.logger.Info("Cleaned up old load records",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))
	return nil
}
