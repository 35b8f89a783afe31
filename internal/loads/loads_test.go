package loads_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/loads"
	"searchlens/internal/observability"
	"searchlens/internal/testsupport"
)

func TestRecentLoads(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, trigger := range []string{loads.TriggerStartup, loads.TriggerSchedule, loads.TriggerManual} {
		require.NoError(t, loads.RecordLoad(db, &loads.LoadRecord{
			Trigger:   trigger,
			Status:    loads.StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, loads.RecordLoad(db, &loads.LoadRecord{
		Trigger:   loads.TriggerWatch,
		Status:    loads.StatusFailed,
		Error:     "boom",
		CreatedAt: base.Add(5 * time.Hour),
	}))

	t.Run("newest first", func(t *testing.T) {
		records, err := loads.RecentLoads(db, 0)
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, loads.TriggerWatch, records[0].Trigger)
		assert.Equal(t, loads.TriggerStartup, records[3].Trigger)
	})

	t.Run("limit", func(t *testing.T) {
		records, err := loads.RecentLoads(db, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("last successful skips failures", func(t *testing.T) {
		record, err := loads.LastSuccessful(db)
		require.NoError(t, err)
		assert.Equal(t, loads.TriggerManual, record.Trigger)
	})
}

func TestRecentLoadsEmpty(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	records, err := loads.RecentLoads(db, 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDeleteOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{1, 10, 40, 90} {
		require.NoError(t, loads.RecordLoad(db, &loads.LoadRecord{
			Trigger:   loads.TriggerSchedule,
			Status:    loads.StatusSuccess,
			CreatedAt: now.Add(-age * 24 * time.Hour),
		}))
	}

	deleted, err := loads.DeleteOlderThan(testsupport.DiscardLogger(), db, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := loads.RecentLoads(db, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	deleted, err = loads.DeleteOlderThan(testsupport.DiscardLogger(), db, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestReloader(t *testing.T) {
	t.Run("records a successful load", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		testsupport.CleanTables(db, []string{"load_records"})
		store, _ := testsupport.NewSampleStore(t)
		metrics := observability.NewMetrics()
		reloader := loads.NewReloader(testsupport.DiscardLogger(), store, db, metrics)

		snap, err := reloader.Reload(context.Background(), loads.TriggerManual)
		require.NoError(t, err)
		require.NotNil(t, snap)

		current, err := store.Current()
		require.NoError(t, err)
		assert.Equal(t, snap.ID, current.ID)

		records, err := loads.RecentLoads(db, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		record := records[0]
		assert.Equal(t, loads.StatusSuccess, record.Status)
		assert.Equal(t, loads.TriggerManual, record.Trigger)
		assert.Equal(t, snap.ID, record.SnapshotID)
		assert.Equal(t, 4, record.AnalyticsRows)
		assert.Equal(t, 4, record.SearchRows)
		assert.Equal(t, len(snap.Joined), record.JoinedRows)
		assert.Empty(t, record.Error)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReloadsTotal.WithLabelValues(loads.TriggerManual, loads.StatusSuccess)))
		assert.Equal(t, 4.0, testutil.ToFloat64(metrics.RecordsLoaded.WithLabelValues("analytics")))
		assert.Equal(t, float64(snap.LoadedAt.Unix()), testutil.ToFloat64(metrics.LastReloadTimestamp))
	})

	t.Run("records a failed load and keeps the snapshot", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		testsupport.CleanTables(db, []string{"load_records"})
		store, dir := testsupport.NewSampleStore(t)
		metrics := observability.NewMetrics()
		reloader := loads.NewReloader(testsupport.DiscardLogger(), store, db, metrics)

		first, err := reloader.Reload(context.Background(), loads.TriggerStartup)
		require.NoError(t, err)

		require.NoError(t, os.Remove(filepath.Join(dir, "search_console_data.csv")))

		_, err = reloader.Reload(context.Background(), loads.TriggerSchedule)
		require.Error(t, err)

		current, err := store.Current()
		require.NoError(t, err)
		assert.Equal(t, first.ID, current.ID)

		records, err := loads.RecentLoads(db, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		failed := records[0]
		if failed.Status != loads.StatusFailed {
			failed = records[1]
		}
		assert.Equal(t, loads.StatusFailed, failed.Status)
		assert.Equal(t, loads.TriggerSchedule, failed.Trigger)
		assert.Contains(t, failed.Error, "Search Console CSV file not found")
		assert.Empty(t, failed.SnapshotID)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReloadsTotal.WithLabelValues(loads.TriggerSchedule, loads.StatusFailed)))
	})

	t.Run("works without a database", func(t *testing.T) {
		store, _ := testsupport.NewSampleStore(t)
		reloader := loads.NewReloader(testsupport.DiscardLogger(), store, nil, nil)

		snap, err := reloader.Reload(context.Background(), loads.TriggerCommand)
		require.NoError(t, err)
		assert.NotEmpty(t, snap.ID)
		assert.Same(t, store, reloader.Store())
	})
}
