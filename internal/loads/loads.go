// Package loads records every dataset load attempt and exposes the history.
package loads

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Load triggers
const (
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
	TriggerCommand  = "command"
)

// Load statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// LoadRecord is one persisted load attempt.
type LoadRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SnapshotID      string    `gorm:"index" json:"snapshotId"`
	Trigger         string    `gorm:"not null" json:"trigger"`
	Status          string    `gorm:"not null;index" json:"status"`
	AnalyticsSource string    `json:"analyticsSource"`
	SearchSource    string    `json:"searchSource"`
	AnalyticsRows   int       `json:"analyticsRows"`
	SearchRows      int       `json:"searchRows"`
	JoinedRows      int       `json:"joinedRows"`
	DefaultedFields int       `json:"defaultedFields"`
	DurationMs      int64     `json:"durationMs"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `gorm:"not null;index;autoCreateTime:milli" json:"createdAt"`
}

// RecordLoad stores a load attempt.
func RecordLoad(db *gorm.DB, record *LoadRecord) error {
	if err := db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// RecentLoads returns up to limit records, newest first.
func RecentLoads(db *gorm.DB, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []LoadRecord{}
	err := db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	return out, nil
}

// LastSuccessful returns the newest successful load.
func LastSuccessful(db *gorm.DB) (LoadRecord, error) {
	var record LoadRecord
	err := db.Where("status = ?", StatusSuccess).Order("created_at DESC").Order("id DESC").First(&record).Error
	return record, err
}

// DeleteOlderThan removes records created before cutoff in batches and
// returns how many were deleted.
func DeleteOlderThan(logger *slog.Logger, db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	if err := db.Model(&LoadRecord{}).Where("created_at < ?", cutoff).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count old loads: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	logger.Info("Deleting old load records", slog.Int64("count", count), slog.Time("cutoff", cutoff))

	const batchSize = 1000
	var totalDeleted int64
	for {
		result := db.Exec(`
			DELETE FROM load_records
			WHERE id IN (
				SELECT id FROM load_records
				WHERE created_at < ?
				LIMIT ?
			)
		`, cutoff, batchSize)
		if result.Error != nil {
			return totalDeleted, fmt.Errorf("failed to delete old loads: %w", result.Error)
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < batchSize {
			break
		}

		time.Sleep(100 * time.Millisecond)
	}
	return totalDeleted, nil
}
