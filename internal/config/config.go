// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Dataset source types
const (
	FileSource = "file"
	S3Source   = "s3"
)

// Default candidate file names, tried in order.
const (
	DefaultAnalyticsFiles = "aa_sample (1) - aa_sample (1).csv,analytics_data.csv,ga_data.csv"
	DefaultSearchFiles    = "gsc_sample - gsc_sample.csv,search_console_data.csv,gsc_data.csv"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	AdminAPIKey string   `mapstructure:"adminapikey"`
	WorkerCount int      `mapstructure:"workercount"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Dataset settings
	DataSource        string `mapstructure:"datasource"`
	DataDirectory     string `mapstructure:"datadir"`
	AnalyticsFilesRaw string `mapstructure:"analyticsfiles"`
	SearchFilesRaw    string `mapstructure:"searchfiles"`
	BrandKeywordsRaw  string `mapstructure:"brandkeywords"`

	// S3 dataset source
	S3Bucket       string `mapstructure:"s3bucket"`
	S3Region       string `mapstructure:"s3region"`
	S3Endpoint     string `mapstructure:"s3endpoint"`
	S3UsePathStyle bool   `mapstructure:"s3usepathstyle"`
	S3AccessKey    string `mapstructure:"s3accesskey"`
	S3SecretKey    string `mapstructure:"s3secretkey"`
	S3AnalyticsKey string `mapstructure:"s3analyticskey"`
	S3SearchKey    string `mapstructure:"s3searchkey"`

	// Job scheduling settings
	ReloadSchedule       string `mapstructure:"reloadschedule"`
	WatchData            bool   `mapstructure:"watchdata"`
	WatchDebounceSeconds int    `mapstructure:"watchdebounceseconds"`

	// Insight cache settings
	InsightCacheSize       int `mapstructure:"insightcachesize"`
	InsightCacheTTLSeconds int `mapstructure:"insightcachettlseconds"`

	// Data retention settings
	LoadHistoryRetentionDays int `mapstructure:"loadhistoryretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "searchlens")
		v.SetDefault("appport", "4000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("workercount", 8)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("datasource", FileSource)
		v.SetDefault("datadir", defaultDataDirectory())
		v.SetDefault("analyticsfiles", DefaultAnalyticsFiles)
		v.SetDefault("searchfiles", DefaultSearchFiles)
		v.SetDefault("brandkeywords", "your-brand,yourbrand,brand-name")
		v.SetDefault("s3region", "us-east-1")
		v.SetDefault("s3analyticskey", "analytics_data.csv")
		v.SetDefault("s3searchkey", "search_console_data.csv")
		v.SetDefault("reloadschedule", "@every 15m")
		v.SetDefault("watchdata", true)
		v.SetDefault("watchdebounceseconds", 2)
		v.SetDefault("insightcachesize", 256)
		v.SetDefault("insightcachettlseconds", 300)
		v.SetDefault("loadhistoryretentiondays", 30)

		v.BindEnv("appname", "SEARCHLENS_APP_NAME")
		v.BindEnv("appport", "SEARCHLENS_APP_PORT")
		v.BindEnv("environment", "SEARCHLENS_ENV")
		v.BindEnv("loglevel", "SEARCHLENS_LOG_LEVEL")
		v.BindEnv("adminapikey", "SEARCHLENS_ADMIN_API_KEY")
		v.BindEnv("workercount", "SEARCHLENS_WORKER_COUNT")
		v.BindEnv("storagepath", "SEARCHLENS_STORAGE_PATH")
		v.BindEnv("logsdir", "SEARCHLENS_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "SEARCHLENS_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "SEARCHLENS_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "SEARCHLENS_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("datasource", "SEARCHLENS_DATA_SOURCE")
		v.BindEnv("datadir", "SEARCHLENS_DATA_DIR")
		v.BindEnv("analyticsfiles", "SEARCHLENS_ANALYTICS_FILES")
		v.BindEnv("searchfiles", "SEARCHLENS_SEARCH_FILES")
		v.BindEnv("brandkeywords", "SEARCHLENS_BRAND_KEYWORDS")
		v.BindEnv("s3bucket", "SEARCHLENS_S3_BUCKET")
		v.BindEnv("s3region", "SEARCHLENS_S3_REGION")
		v.BindEnv("s3endpoint", "SEARCHLENS_S3_ENDPOINT")
		v.BindEnv("s3usepathstyle", "SEARCHLENS_S3_USE_PATH_STYLE")
		v.BindEnv("s3accesskey", "SEARCHLENS_S3_ACCESS_KEY")
		v.BindEnv("s3secretkey", "SEARCHLENS_S3_SECRET_KEY")
		v.BindEnv("s3analyticskey", "SEARCHLENS_S3_ANALYTICS_KEY")
		v.BindEnv("s3searchkey", "SEARCHLENS_S3_SEARCH_KEY")
		v.BindEnv("reloadschedule", "SEARCHLENS_RELOAD_SCHEDULE")
		v.BindEnv("watchdata", "SEARCHLENS_WATCH_DATA")
		v.BindEnv("watchdebounceseconds", "SEARCHLENS_WATCH_DEBOUNCE_SECONDS")
		v.BindEnv("insightcachesize", "SEARCHLENS_INSIGHT_CACHE_SIZE")
		v.BindEnv("insightcachettlseconds", "SEARCHLENS_INSIGHT_CACHE_TTL_SECONDS")
		v.BindEnv("loadhistoryretentiondays", "SEARCHLENS_LOAD_HISTORY_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

func defaultDataDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, "Downloads")
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validSources := map[string]bool{
		FileSource: true,
		S3Source:   true,
	}
	if !validSources[c.DataSource] {
		return fmt.Errorf("invalid data source: %s", c.DataSource)
	}

	if c.DataSource == S3Source && c.S3Bucket == "" {
		return fmt.Errorf("s3 data source requires a bucket")
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// AnalyticsFiles returns the candidate analytics file names in lookup order.
func (c *Config) AnalyticsFiles() []string {
	return SplitList(c.AnalyticsFilesRaw)
}

// SearchFiles returns the candidate search console file names in lookup order.
func (c *Config) SearchFiles() []string {
	return SplitList(c.SearchFilesRaw)
}

// BrandKeywords returns the configured default brand keywords.
func (c *Config) BrandKeywords() []string {
	return SplitList(c.BrandKeywordsRaw)
}

// InsightCacheTTL returns how long computed views stay cached.
func (c *Config) InsightCacheTTL() time.Duration {
	return time.Duration(c.InsightCacheTTLSeconds) * time.Second
}

// WatchDebounce returns the quiet period before a data directory change triggers a reload.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceSeconds) * time.Second
}

// GetMaxOpenConns returns the MaxOpenConns value for the SQLite pool.
// Test: 1 (shared in-memory database), otherwise 4.
func (c *Config) GetMaxOpenConns() int {
	if c.Environment == Test {
		return 1
	}
	return 4
}

// GetLogLevel returns the log level as a string
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// SplitList splits a comma separated value, trimming blanks and dropping empty items.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
