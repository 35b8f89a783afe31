package testsupport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"searchlens/internal/config"
	"searchlens/internal/database"
	"searchlens/internal/dataset"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// Sample exports shared by package tests. Jan 1 has two analytics rows for
// /shoes (fan-out) and /boots has search data only.
const (
	AnalyticsCSV = "date,page,visits,orders,revenue,device,channel\n" +
		"2024-01-01,/shoes,100,5,50.00,Desktop,Organic Search\n" +
		"2024-01-01,/shoes,40,1,10.00,Mobile,Organic Search\n" +
		"2024-01-02,/shoes,120,6,80.00,Desktop,Direct\n" +
		"2024-01-03,/blog/guide,30,0,0,Mobile,Social\n"
	SearchCSV = "date,page,query,clicks,impressions,ctr,position\n" +
		"2024-01-01,/shoes,acme shoes,10,200,0.05,3\n" +
		"2024-01-02,/shoes,running shoes,20,1000,0.02,5\n" +
		"2024-01-03,/blog/guide,how to run,15,900,0.0167,8\n" +
		"2024-01-03,/boots,boots sale,2,400,0.005,14\n"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// SetupTestDB creates an in-memory database with every model migrated.
// Calls from the same root test share one database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// cache=shared allows multiple connections to the same database
	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager wraps SetupTestDB in a DBManager.
func SetupTestDBManager(t *testing.T) (*database.DBManager, *slog.Logger) {
	t.Helper()
	logger := GetLogger()
	return database.NewDBManagerWithConnection(SetupTestDB(t), logger), logger
}

// CleanTables deletes every row of tables.
func CleanTables(db *gorm.DB, tables []string) {
	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GetTestConfig loads configuration for the test environment with the given
// environment overrides and resets it when the test ends.
func GetTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("SEARCHLENS_ENV", config.Test)
	for k, v := range env {
		t.Setenv(k, v)
	}
	config.Reset()
	t.Cleanup(config.Reset)
	return config.GetConfig()
}

// WriteFile writes content to dir/name.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("testsupport: failed to write %s: %v", path, err)
	}
	return path
}

// WriteSampleData writes the sample exports to a new temp directory using
// the default file names and returns the directory.
func WriteSampleData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "analytics_data.csv", AnalyticsCSV)
	WriteFile(t, dir, "search_console_data.csv", SearchCSV)
	return dir
}

// FixedClock is the clock used by store fixtures.
var FixedClock = timeframe.FixedTimeProvider{At: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)}

// NewSampleStore returns a store over the sample exports. The store is not
// loaded yet.
func NewSampleStore(t *testing.T) (*dataset.Store, string) {
	t.Helper()
	dir := WriteSampleData(t)
	src := dataset.NewFileSource(DiscardLogger(), dir, map[dataset.Kind][]string{
		dataset.KindAnalytics: config.SplitList(config.DefaultAnalyticsFiles),
		dataset.KindSearch:    config.SplitList(config.DefaultSearchFiles),
	})
	return dataset.NewStore(DiscardLogger(), src, FixedClock), dir
}

// GrowingSource serves one analytics row for /shoes/trail and one search row.
// Visits are 100 times the number of analytics fetches, so every load
// publishes different totals.
type GrowingSource struct {
	fetches atomic.Int64
}

// Fetch returns the next payload of kind.
func (g *GrowingSource) Fetch(_ context.Context, kind dataset.Kind) (dataset.Payload, error) {
	if kind == dataset.KindSearch {
		return dataset.Payload{Rows: []records.Row{{
			records.FieldDate: "2024-01-01", records.FieldPage: "/shoes/trail", records.FieldQuery: "trail shoes",
			records.FieldClicks: "5", records.FieldImpressions: "100", records.FieldCTR: "0.05", records.FieldPosition: "4",
		}}}, nil
	}
	n := g.fetches.Add(1)
	return dataset.Payload{Rows: []records.Row{{
		records.FieldDate: "2024-01-01", records.FieldPage: "/shoes/trail",
		records.FieldVisits: fmt.Sprint(100 * n), records.FieldOrders: "1", records.FieldRevenue: "10",
		records.FieldDevice: "Desktop", records.FieldChannel: "Direct",
	}}}, nil
}

// Describe names the source.
func (g *GrowingSource) Describe() string { return "growing" }
