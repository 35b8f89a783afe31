package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/config"
)

func TestGetConfigFromEnvironment(t *testing.T) {
	t.Setenv("SEARCHLENS_ENV", config.Test)
	t.Setenv("SEARCHLENS_DATA_DIR", "/tmp/exports")
	t.Setenv("SEARCHLENS_BRAND_KEYWORDS", " acme , Acme Corp,,")
	t.Setenv("SEARCHLENS_INSIGHT_CACHE_TTL_SECONDS", "60")
	config.Reset()
	t.Cleanup(config.Reset)

	cfg := config.GetConfig()
	require.NotNil(t, cfg)

	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "/tmp/exports", cfg.DataDirectory)
	assert.Equal(t, []string{"acme", "Acme Corp"}, cfg.BrandKeywords())
	assert.Equal(t, time.Minute, cfg.InsightCacheTTL())
	assert.Equal(t, config.FileSource, cfg.DataSource)
	assert.Equal(t, "storage/searchlens-test.db", cfg.DatabaseName)
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
}

func TestCandidateFileDefaults(t *testing.T) {
	t.Setenv("SEARCHLENS_ENV", config.Test)
	config.Reset()
	t.Cleanup(config.Reset)

	cfg := config.GetConfig()

	assert.Equal(t, []string{
		"aa_sample (1) - aa_sample (1).csv",
		"analytics_data.csv",
		"ga_data.csv",
	}, cfg.AnalyticsFiles())
	assert.Equal(t, []string{
		"gsc_sample - gsc_sample.csv",
		"search_console_data.csv",
		"gsc_data.csv",
	}, cfg.SearchFiles())
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{" , ,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, config.SplitList(tt.raw))
		})
	}
}
