package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"searchlens/internal/config"
	"searchlens/internal/loads"
	"searchlens/internal/settings"
)

// DBManager owns the SQLite connection that stores settings and load history.
type DBManager struct {
	cfg    *config.Config
	logger *slog.Logger

	mu sync.Mutex
	db *gorm.DB
}

// NewDBManager creates a manager for the configured database file.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{cfg: cfg, logger: logger}
}

// NewDBManagerWithConnection wraps an already open connection; used by tests.
func NewDBManagerWithConnection(db *gorm.DB, logger *slog.Logger) *DBManager {
	return &DBManager{db: db, logger: logger}
}

// Init initializes the database connection.
func (dm *DBManager) Init() error {
	_, err := dm.Connect()
	return err
}

// Connect opens the database once and returns the shared connection.
func (dm *DBManager) Connect() (*gorm.DB, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db != nil {
		return dm.db, nil
	}
	if dm.cfg == nil {
		return nil, gorm.ErrInvalidDB
	}

	path := dm.cfg.GetDatabasePath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// background jobs write while handlers read
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", path)

	gormLogLevel := logger.Warn
	if dm.cfg.IsTest() {
		gormLogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(dm.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(dm.cfg.GetMaxOpenConns())
	sqlDB.SetConnMaxLifetime(time.Hour)

	dm.logger.Info("Database connected", slog.String("path", path))
	dm.db = db
	return db, nil
}

// GetConnection returns the open connection, or nil before Init.
func (dm *DBManager) GetConnection() *gorm.DB {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.db
}

// Models lists every persisted model.
func Models() []any {
	return []any{
		&settings.Setting{},
		&loads.LoadRecord{},
	}
}

// MigrateDatabase creates or updates every table.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(Models()...)
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := dm.CheckpointWAL("FULL"); err != nil {
		dm.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	dm.logger.Info("Database migration completed successfully")
	return nil
}

// CheckpointWAL runs a WAL checkpoint with mode PASSIVE, FULL, RESTART or TRUNCATE.
func (dm *DBManager) CheckpointWAL(mode string) error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}
	mode = strings.ToUpper(mode)
	switch mode {
	case "PASSIVE", "FULL", "RESTART", "TRUNCATE":
	default:
		return fmt.Errorf("invalid checkpoint mode: %s", mode)
	}
	return db.Exec("PRAGMA wal_checkpoint(" + mode + ")").Error
}

// Ping checks that the database answers.
func (dm *DBManager) Ping() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close checkpoints and closes the connection.
func (dm *DBManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db == nil {
		return nil
	}
	if err := dm.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		dm.logger.Warn("Failed to checkpoint WAL on close", slog.Any("error", err))
	}
	sqlDB, err := dm.db.DB()
	dm.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
