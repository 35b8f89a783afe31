package loads

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"searchlens/internal/dataset"
	"searchlens/internal/observability"
)

// Reloader loads a new snapshot into the store and records the attempt in
// the load history and in metrics.
type Reloader struct {
	logger  *slog.Logger
	store   *dataset.Store
	db      *gorm.DB
	metrics *observability.Metrics
}

// NewReloader creates a reloader. db and metrics may be nil.
func NewReloader(logger *slog.Logger, store *dataset.Store, db *gorm.DB, metrics *observability.Metrics) *Reloader {
	return &Reloader{logger: logger, store: store, db: db, metrics: metrics}
}

// Store returns the snapshot store being reloaded.
func (r *Reloader) Store() *dataset.Store {
	return r.store
}

// Reload loads both datasets and publishes a new snapshot. trigger names
// what asked for the reload.
func (r *Reloader) Reload(ctx context.Context, trigger string) (*dataset.Snapshot, error) {
	start := time.Now()
	snap, err := r.store.Load(ctx)
	duration := time.Since(start)

	record := &LoadRecord{
		Trigger:    trigger,
		Status:     StatusSuccess,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		record.Status = StatusFailed
		record.Error = err.Error()
	} else {
		fillRecord(record, snap)
	}

	r.observe(record, snap, duration)

	if r.db != nil {
		if recErr := RecordLoad(r.db, record); recErr != nil {
			r.logger.Warn("Failed to persist load record", slog.Any("error", recErr))
		}
	}

	if err != nil {
		r.logger.Error("Reload failed",
			slog.String("trigger", trigger),
			slog.Any("error", err))
		return nil, err
	}

	r.logger.Info("Reload completed",
		slog.String("trigger", trigger),
		slog.String("snapshot_id", snap.ID),
		slog.Int("defaulted_fields", record.DefaultedFields),
		slog.Duration("duration", duration))
	return snap, nil
}

func fillRecord(record *LoadRecord, snap *dataset.Snapshot) {
	record.SnapshotID = snap.ID
	record.AnalyticsSource = snap.Metadata[dataset.KindAnalytics].Source
	record.SearchSource = snap.Metadata[dataset.KindSearch].Source
	record.AnalyticsRows = len(snap.Records.Analytics)
	record.SearchRows = len(snap.Records.Search)
	record.JoinedRows = len(snap.Joined)
	for _, report := range snap.Reports {
		record.DefaultedFields += report.DefaultedTotal()
	}
}

func (r *Reloader) observe(record *LoadRecord, snap *dataset.Snapshot, duration time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.ReloadsTotal.WithLabelValues(record.Trigger, record.Status).Inc()
	r.metrics.ReloadDuration.Observe(duration.Seconds())
	if snap == nil {
		return
	}
	r.metrics.RecordsLoaded.WithLabelValues(string(dataset.KindAnalytics)).Set(float64(record.AnalyticsRows))
	r.metrics.RecordsLoaded.WithLabelValues(string(dataset.KindSearch)).Set(float64(record.SearchRows))
	r.metrics.RecordsLoaded.WithLabelValues("joined").Set(float64(record.JoinedRows))
	for kind, report := range snap.Reports {
		for field, n := range report.Defaulted {
			r.metrics.DefaultedFieldsTotal.WithLabelValues(string(kind), field).Add(float64(n))
		}
	}
	r.metrics.LastReloadTimestamp.Set(float64(snap.LoadedAt.Unix()))
}
