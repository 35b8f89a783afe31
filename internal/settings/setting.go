package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Setting keys
const (
	BrandKeywordsKey = "brand_keywords"
)

// Setting represents a configuration item in the database
type Setting struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"uniqueIndex;not null"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:milli"`
}

// SetupDefaultSettings inserts default values for settings that do not exist
// yet. Existing values are left untouched.
func SetupDefaultSettings(logger *slog.Logger, dbConn *gorm.DB, brandKeywords []string) error {
	encoded, err := encodeKeywords(brandKeywords)
	if err != nil {
		return err
	}
	defaults := []Setting{
		{Key: BrandKeywordsKey, Value: encoded},
	}
	return dbConn.Transaction(func(tx *gorm.DB) error {
		for _, setting := range defaults {
			now := time.Now().UTC()
			err := tx.Exec(`
                INSERT INTO settings (key, value, created_at, updated_at)
                VALUES (?, ?, ?, ?)
                ON CONFLICT(key) DO NOTHING
            `, setting.Key, setting.Value, now, now).Error
			if err != nil {
				logger.Error("Failed to upsert setting", slog.String("key", setting.Key), slog.Any("error", err))
				return fmt.Errorf("failed to upsert setting %s: %w", setting.Key, err)
			}
		}
		return nil
	})
}

// GetSetting retrieves a setting value from the database
func GetSetting(dbConn *gorm.DB, key string) (string, error) {
	var setting Setting
	result := dbConn.Where("key = ?", key).First(&setting)

	if result.Error != nil {
		return "", result.Error
	}

	return setting.Value, nil
}

// UpdateSetting updates a setting in the database using a transaction,
// creating it when missing.
func UpdateSetting(dbConn *gorm.DB, key string, value string) error {
	tx := dbConn.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&Setting{}).Where("key = ?", key).Update("value", value)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update setting: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		setting := Setting{
			Key:   key,
			Value: value,
		}
		if err := tx.Create(&setting).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create setting: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBrandKeywords returns the stored brand keywords, or fallback when the
// setting has never been written.
func GetBrandKeywords(dbConn *gorm.DB, fallback []string) ([]string, error) {
	value, err := GetSetting(dbConn, BrandKeywordsKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NormalizeKeywords(fallback), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read brand keywords: %w", err)
	}

	var keywords []string
	if err := json.Unmarshal([]byte(value), &keywords); err != nil {
		return nil, fmt.Errorf("invalid brand keywords setting: %w", err)
	}
	return NormalizeKeywords(keywords), nil
}

// SaveBrandKeywords replaces the stored brand keywords and returns the
// normalized list that was saved.
func SaveBrandKeywords(dbConn *gorm.DB, keywords []string) ([]string, error) {
	normalized := NormalizeKeywords(keywords)
	encoded, err := encodeKeywords(normalized)
	if err != nil {
		return nil, err
	}
	if err := UpdateSetting(dbConn, BrandKeywordsKey, encoded); err != nil {
		return nil, err
	}
	return normalized, nil
}

// NormalizeKeywords trims keywords and drops blanks and case-insensitive
// duplicates, keeping the first spelling.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		lower := strings.ToLower(k)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, k)
	}
	return out
}

func encodeKeywords(keywords []string) (string, error) {
	b, err := json.Marshal(NormalizeKeywords(keywords))
	if err != nil {
		return "", fmt.Errorf("failed to encode brand keywords: %w", err)
	}
	return string(b), nil
}
