package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal"
	"searchlens/internal/config"
	"searchlens/internal/insights"
	"searchlens/internal/seeder"
	"searchlens/internal/testsupport"
)

func newTestApp(t *testing.T) *internal.Application {
	t.Helper()
	dbManager, logger := testsupport.SetupTestDBManager(t)
	cfg := &config.Config{
		AppName:           "searchlens",
		Environment:       config.Test,
		WorkerCount:       2,
		DataSource:        config.FileSource,
		DataDirectory:     testsupport.WriteSampleData(t),
		AnalyticsFilesRaw: config.DefaultAnalyticsFiles,
		SearchFilesRaw:    config.DefaultSearchFiles,
		BrandKeywordsRaw:  "acme",
		InsightCacheSize:  16,
	}
	app, err := internal.NewAppWithDBManager(cfg, logger, nil, dbManager)
	require.NoError(t, err)
	return app
}

// captureOutput redirects command output for the test.
func captureOutput(t *testing.T, table bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := out
	out = &output{w: buf, table: table}
	t.Cleanup(func() { out = prev })
	return buf
}

func TestFindCommand(t *testing.T) {
	for _, name := range []string{"migrate", "seed", "reload", "summary", "insights", "ask", "files", "loads", "help"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(name)
			require.NotNil(t, cmd)
			assert.Equal(t, name, cmd.Name())
			assert.NotEmpty(t, cmd.Description())
		})
	}
	assert.Nil(t, findCommand("deploy"))
}

func TestHelpCommand(t *testing.T) {
	buf := captureOutput(t, false)
	require.NoError(t, (&HelpCommand{}).Execute(context.Background(), nil, nil))
	assert.Contains(t, buf.String(), "Usage: slctl")
	assert.Contains(t, buf.String(), "  insights: ")
}

func TestSummaryCommand(t *testing.T) {
	app := newTestApp(t)

	t.Run("json", func(t *testing.T) {
		buf := captureOutput(t, false)
		require.NoError(t, (&SummaryCommand{}).Execute(context.Background(), app, nil))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, 290.0, got["totalVisits"])
		assert.Equal(t, 47.0, got["totalClicks"])
	})

	t.Run("table with range", func(t *testing.T) {
		buf := captureOutput(t, true)
		require.NoError(t, (&SummaryCommand{}).Execute(context.Background(), app, []string{"-from", "2024-01-03"}))
		assert.Regexp(t, `Visits\s+30\s`, buf.String())
	})

	t.Run("bad range", func(t *testing.T) {
		captureOutput(t, false)
		err := (&SummaryCommand{}).Execute(context.Background(), app, []string{"-from", "soon"})
		assert.Error(t, err)
	})

	t.Run("no app", func(t *testing.T) {
		err := (&SummaryCommand{}).Execute(context.Background(), nil, nil)
		assert.Error(t, err)
	})
}

func TestInsightsCommand(t *testing.T) {
	app := newTestApp(t)

	t.Run("named insight", func(t *testing.T) {
		buf := captureOutput(t, true)
		require.NoError(t, (&InsightsCommand{}).Execute(context.Background(), app, []string{insights.NameBrand}))

		var split insights.BrandSplit
		require.NoError(t, json.Unmarshal(buf.Bytes(), &split))
		assert.Equal(t, 2, split.Brand.Queries)
	})

	t.Run("table", func(t *testing.T) {
		buf := captureOutput(t, true)
		require.NoError(t, (&InsightsCommand{}).Execute(context.Background(), app, nil))
		for _, name := range insights.Names {
			assert.Contains(t, buf.String(), name)
		}
		assert.Regexp(t, `rpi\s+\d+\n`, buf.String())
	})

	t.Run("unknown", func(t *testing.T) {
		captureOutput(t, false)
		err := (&InsightsCommand{}).Execute(context.Background(), app, []string{"horoscope"})
		assert.ErrorIs(t, err, insights.ErrUnknownInsight)
	})
}

func TestAskCommand(t *testing.T) {
	app := newTestApp(t)

	buf := captureOutput(t, true)
	require.NoError(t, (&AskCommand{}).Execute(context.Background(), app, []string{"how", "much", "revenue"}))
	assert.Contains(t, buf.String(), "Total revenue: $140.00\n")

	err := (&AskCommand{}).Execute(context.Background(), app, nil)
	assert.Error(t, err)
}

func TestReloadAndLoadsCommands(t *testing.T) {
	app := newTestApp(t)
	captureOutput(t, false)

	require.NoError(t, (&ReloadCommand{}).Execute(context.Background(), app, nil))
	require.NoError(t, (&ReloadCommand{}).Execute(context.Background(), app, nil))

	buf := captureOutput(t, false)
	require.NoError(t, (&LoadsCommand{}).Execute(context.Background(), app, []string{"-limit", "1"}))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "command", records[0]["trigger"])
	assert.Equal(t, "success", records[0]["status"])
}

func TestFilesCommand(t *testing.T) {
	app := newTestApp(t)

	buf := captureOutput(t, false)
	require.NoError(t, (&FilesCommand{}).Execute(context.Background(), app, nil))

	var files []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &files))
	assert.ElementsMatch(t, []string{"analytics_data.csv", "search_console_data.csv"}, files)

	app.Config.DataSource = config.S3Source
	assert.Error(t, (&FilesCommand{}).Execute(context.Background(), app, nil))
}

func TestSeedCommand(t *testing.T) {
	captureOutput(t, false)
	dir := filepath.Join(t.TempDir(), "seeded")

	require.NoError(t, (&SeedCommand{}).Execute(context.Background(), nil, []string{"-days", "2", "-seed", "7", dir}))

	for _, name := range []string{seeder.AnalyticsFileName, seeder.SearchFileName} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	assert.Error(t, (&SeedCommand{}).Execute(context.Background(), nil, nil))
}
