package jobs_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/config"
	"searchlens/internal/jobs"
	"searchlens/internal/loads"
	"searchlens/internal/testsupport"
)

func TestCleanupJob(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	now := time.Now().UTC()

	for _, days := range []int{1, 5, 45, 60} {
		require.NoError(t, loads.RecordLoad(db, &loads.LoadRecord{
			Trigger:   loads.TriggerSchedule,
			Status:    loads.StatusSuccess,
			CreatedAt: now.AddDate(0, 0, -days),
		}))
	}

	t.Run("disabled retention keeps everything", func(t *testing.T) {
		job := jobs.NewCleanupJob(dbManager, logger, &config.Config{LoadHistoryRetentionDays: 0})
		require.NoError(t, job.Run())

		records, err := loads.RecentLoads(db, 10)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("removes records past retention", func(t *testing.T) {
		job := jobs.NewCleanupJob(dbManager, logger, &config.Config{LoadHistoryRetentionDays: 30})
		require.NoError(t, job.Run())

		records, err := loads.RecentLoads(db, 10)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestNewSchedulerRejectsInvalidSchedule(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store, _ := testsupport.NewSampleStore(t)
	reloader := loads.NewReloader(logger, store, nil, nil)

	_, err := jobs.NewScheduler(dbManager, reloader, logger, &config.Config{ReloadSchedule: "every now and then"})
	assert.Error(t, err)
}

func TestSchedulerReloadsOnSchedule(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store, dir := testsupport.NewSampleStore(t)
	reloader := loads.NewReloader(logger, store, nil, nil)

	cfg := &config.Config{
		DataSource:               config.FileSource,
		DataDirectory:            dir,
		ReloadSchedule:           "@every 1s",
		LoadHistoryRetentionDays: 30,
	}
	scheduler, err := jobs.NewScheduler(dbManager, reloader, logger, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, scheduler.Entries())

	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := store.Current()
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
}

func TestSchedulerWithoutReloadSchedule(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store, _ := testsupport.NewSampleStore(t)
	reloader := loads.NewReloader(logger, store, nil, nil)

	scheduler, err := jobs.NewScheduler(dbManager, reloader, logger, &config.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, scheduler.Entries())
}

func TestSchedulerReloadsOnDataChange(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store, dir := testsupport.NewSampleStore(t)
	reloader := loads.NewReloader(logger, store, nil, nil)

	cfg := &config.Config{
		DataSource:           config.FileSource,
		DataDirectory:        dir,
		WatchData:            true,
		WatchDebounceSeconds: 0,
	}
	scheduler, err := jobs.NewScheduler(dbManager, reloader, logger, cfg)
	require.NoError(t, err)
	require.NoError(t, scheduler.Start())
	t.Cleanup(scheduler.Stop)

	testsupport.WriteFile(t, dir, "analytics_data.csv", testsupport.AnalyticsCSV)

	assert.Eventually(t, func() bool {
		_, err := store.Current()
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDataWatcher(t *testing.T) {
	t.Run("debounces csv changes", func(t *testing.T) {
		dir := t.TempDir()
		var calls atomic.Int32
		watcher, err := jobs.NewDataWatcher(testsupport.DiscardLogger(), dir, 200*time.Millisecond, func() {
			calls.Add(1)
		})
		require.NoError(t, err)
		watcher.Run(context.Background())
		t.Cleanup(func() { watcher.Close() })

		testsupport.WriteFile(t, dir, "a.csv", "x")
		testsupport.WriteFile(t, dir, "b.CSV", "y")
		testsupport.WriteFile(t, dir, "a.csv", "z")

		assert.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
		assert.Never(t, func() bool { return calls.Load() > 1 }, 500*time.Millisecond, 50*time.Millisecond)
	})

	t.Run("ignores other files", func(t *testing.T) {
		dir := t.TempDir()
		var calls atomic.Int32
		watcher, err := jobs.NewDataWatcher(testsupport.DiscardLogger(), dir, 10*time.Millisecond, func() {
			calls.Add(1)
		})
		require.NoError(t, err)
		watcher.Run(context.Background())
		t.Cleanup(func() { watcher.Close() })

		testsupport.WriteFile(t, dir, "notes.txt", "hello")

		assert.Never(t, func() bool { return calls.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := jobs.NewDataWatcher(testsupport.DiscardLogger(), filepath.Join(t.TempDir(), "missing"), time.Second, func() {})
		assert.Error(t, err)
	})
}
