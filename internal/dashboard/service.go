// Package dashboard serves the computed views of the current snapshot and
// caches them per snapshot, view and query.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"searchlens/internal/aggregate"
	"searchlens/internal/analytics"
	"searchlens/internal/dataset"
	"searchlens/internal/insights"
	"searchlens/internal/join"
	"searchlens/internal/observability"
	"searchlens/internal/pkg/async"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// Query narrows a view. The zero Query covers all data with daily buckets.
type Query struct {
	Range  timeframe.Range
	Bucket timeframe.BucketSize
	Limit  int
}

func (q Query) key() string {
	bucket := q.Bucket
	if bucket == "" {
		bucket = timeframe.BucketSizeDay
	}
	return fmt.Sprintf("%s|%s|%d", q.Range.Key(), bucket, q.Limit)
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return aggregate.DefaultTopLimit
	}
	return q.Limit
}

// Options configures a Service.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Workers   int
	Clock     timeframe.TimeProvider
	Metrics   *observability.Metrics
}

// Service computes views over the snapshot currently held by a store.
type Service struct {
	logger  *slog.Logger
	store   *dataset.Store
	pool    *async.Pool
	clock   timeframe.TimeProvider
	metrics *observability.Metrics
	cache   *lru.LRU[string, any]

	mu         sync.RWMutex
	engine     *insights.Engine
	generation uint64
}

// NewService creates a service computing insights with engine.
func NewService(logger *slog.Logger, store *dataset.Store, engine *insights.Engine, opts Options) *Service {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Clock == nil {
		opts.Clock = &timeframe.DefaultTimeProvider{}
	}
	return &Service{
		logger:  logger,
		store:   store,
		pool:    async.NewPool(opts.Workers),
		clock:   opts.Clock,
		metrics: opts.Metrics,
		cache:   lru.NewLRU[string, any](opts.CacheSize, nil, opts.CacheTTL),
		engine:  engine,
	}
}

// Snapshot returns the snapshot views are computed from.
func (s *Service) Snapshot() (*dataset.Snapshot, error) {
	return s.store.Current()
}

// BrandKeywords returns the keywords used by the brand insight.
func (s *Service) BrandKeywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.BrandKeywords()
}

// SetBrandKeywords replaces the insight engine keywords and drops every
// cached view.
func (s *Service) SetBrandKeywords(keywords []string) {
	s.mu.Lock()
	s.engine = insights.NewEngine(keywords)
	s.generation++
	s.mu.Unlock()

	s.cache.Purge()
	s.logger.Info("Brand keywords updated", slog.Any("keywords", keywords))
}

func (s *Service) currentEngine() (*insights.Engine, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.generation
}

// Reader returns a reader pinned to the current snapshot and insight engine.
// Every view read through it comes from that snapshot, even if a reload
// publishes a newer one meanwhile.
func (s *Service) Reader() (*Reader, error) {
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	engine, gen := s.currentEngine()
	return &Reader{
		service:    s,
		snapshot:   snap,
		engine:     engine,
		generation: gen,
		now:        s.clock.Now(time.UTC),
		filtered:   map[string]view{},
	}, nil
}

// Reader computes views from one snapshot. It is safe for concurrent use.
type Reader struct {
	service    *Service
	snapshot   *dataset.Snapshot
	engine     *insights.Engine
	generation uint64
	now        time.Time

	mu       sync.Mutex
	filtered map[string]view
}

// view is the filtered data a view is computed from.
type view struct {
	set    records.Set
	joined []records.JoinedRecord
}

// SnapshotID returns the id of the pinned snapshot.
func (r *Reader) SnapshotID() string {
	return r.snapshot.ID
}

// Snapshot returns the pinned snapshot.
func (r *Reader) Snapshot() *dataset.Snapshot {
	return r.snapshot
}

// view returns the pinned records restricted to rng, filtering and joining
// once per range.
func (r *Reader) view(rng timeframe.Range) view {
	if rng.IsZero() {
		return view{set: r.snapshot.Records, joined: r.snapshot.Joined}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.filtered[rng.Key()]; ok {
		return v
	}
	set := analytics.Filter(r.snapshot.Records, rng)
	v := view{set: set, joined: join.Join(set.Analytics, set.Search)}
	r.filtered[rng.Key()] = v
	return v
}

// cached returns the cached value of name for q or computes and stores it.
// Keys carry the pinned snapshot id and keyword generation.
func cached[T any](r *Reader, name string, q Query, compute func(v view) (T, error)) (T, error) {
	var zero T
	s := r.service
	key := fmt.Sprintf("%s|%d|%s|%s", r.snapshot.ID, r.generation, name, q.key())
	if hit, ok := s.cache.Get(key); ok {
		if value, ok := hit.(T); ok {
			s.observe(name, true)
			return value, nil
		}
	}
	s.observe(name, false)

	value, err := compute(r.view(q.Range))
	if err != nil {
		return zero, err
	}
	s.cache.Add(key, value)
	return value, nil
}

// read runs f on a reader pinned for this call.
func read[T any](s *Service, f func(r *Reader) (T, error)) (T, error) {
	r, err := s.Reader()
	if err != nil {
		var zero T
		return zero, err
	}
	return f(r)
}

func (s *Service) observe(name string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(name).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(name).Inc()
	}
}

// Dashboard returns the summary, freshness and trends. Freshness depends on
// the clock, so it is recomputed on every call rather than cached.
func (r *Reader) Dashboard(q Query) (analytics.Dashboard, error) {
	d, err := cached(r, "dashboard", q, func(v view) (analytics.Dashboard, error) {
		return analytics.BuildDashboard(v.set, r.now), nil
	})
	if err != nil {
		return d, err
	}
	d.Freshness = analytics.FreshnessOf(r.view(q.Range).set, r.now)
	return d, nil
}

// Summary returns the dashboard totals with freshness as of now.
func (r *Reader) Summary(q Query) (analytics.Summary, error) {
	sum, err := cached(r, "summary", q, func(v view) (analytics.Summary, error) {
		return analytics.Summarize(v.set, r.now), nil
	})
	if err != nil {
		return sum, err
	}
	sum.Freshness = analytics.FreshnessOf(r.view(q.Range).set, r.now)
	return sum, nil
}

// TimeSeries returns the four chart series.
func (r *Reader) TimeSeries(q Query) (analytics.TimeSeries, error) {
	return cached(r, "timeseries", q, func(v view) (analytics.TimeSeries, error) {
		return analytics.BuildTimeSeries(v.set, q.Bucket), nil
	})
}

// Breakdown returns visits by device and channel.
func (r *Reader) Breakdown(q Query) (analytics.Breakdown, error) {
	return cached(r, "breakdown", q, func(v view) (analytics.Breakdown, error) {
		return analytics.BuildBreakdown(v.set), nil
	})
}

// Pages returns per-page insights.
func (r *Reader) Pages(q Query) ([]analytics.PageInsight, error) {
	return cached(r, "pages", q, func(v view) ([]analytics.PageInsight, error) {
		return analytics.PageInsights(v.set), nil
	})
}

// Queries returns per-query insights.
func (r *Reader) Queries(q Query) ([]analytics.QueryInsight, error) {
	return cached(r, "queries", q, func(v view) ([]analytics.QueryInsight, error) {
		return analytics.QueryInsights(v.set), nil
	})
}

// TopPages returns the pages with the most visits.
func (r *Reader) TopPages(q Query) ([]aggregate.PageTotals, error) {
	return cached(r, "top-pages", q, func(v view) ([]aggregate.PageTotals, error) {
		return aggregate.TopPages(v.set.Analytics, q.limit()), nil
	})
}

// TopQueries returns the queries with the most clicks.
func (r *Reader) TopQueries(q Query) ([]aggregate.QueryTotals, error) {
	return cached(r, "top-queries", q, func(v view) ([]aggregate.QueryTotals, error) {
		return aggregate.TopQueries(v.set.Search, q.limit()), nil
	})
}

// Insights returns every advanced insight.
func (r *Reader) Insights(q Query) (insights.Report, error) {
	return cached(r, "insights", q, func(v view) (insights.Report, error) {
		return r.engine.All(v.joined), nil
	})
}

// Insight returns one advanced insight by name.
func (r *Reader) Insight(name string, q Query) (any, error) {
	if !insights.IsKnown(name) {
		return nil, fmt.Errorf("%w: %q", insights.ErrUnknownInsight, name)
	}
	return cached(r, "insight:"+name, q, func(v view) (any, error) {
		return r.engine.Compute(name, v.joined)
	})
}

// Overview bundles the dashboard views into one response.
type Overview struct {
	SnapshotID string                  `json:"snapshotId"`
	Summary    analytics.Summary       `json:"summary"`
	TimeSeries analytics.TimeSeries    `json:"timeSeries"`
	Breakdown  analytics.Breakdown     `json:"breakdown"`
	TopPages   []aggregate.PageTotals  `json:"topPages"`
	TopQueries []aggregate.QueryTotals `json:"topQueries"`
}

// Overview computes the overview views in parallel on the worker pool.
func (r *Reader) Overview(ctx context.Context, q Query) (Overview, error) {
	s := r.service
	tasks := []async.Task{
		{Name: "summary", Execute: func(context.Context) (any, error) { return r.Summary(q) }},
		{Name: "timeseries", Execute: func(context.Context) (any, error) { return r.TimeSeries(q) }},
		{Name: "breakdown", Execute: func(context.Context) (any, error) { return r.Breakdown(q) }},
		{Name: "top-pages", Execute: func(context.Context) (any, error) { return r.TopPages(q) }},
		{Name: "top-queries", Execute: func(context.Context) (any, error) { return r.TopQueries(q) }},
	}
	results := s.pool.Execute(ctx, tasks)
	if err := ctx.Err(); err != nil {
		return Overview{}, err
	}
	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			return Overview{}, fmt.Errorf("overview task %s did not complete", task.Name)
		}
		if result.Err != nil {
			s.logger.Error("Failed to compute overview view",
				slog.String("view", task.Name),
				slog.Any("error", result.Err))
			return Overview{}, fmt.Errorf("overview %s: %w", task.Name, result.Err)
		}
	}

	return Overview{
		SnapshotID: r.snapshot.ID,
		Summary:    results["summary"].Data.(analytics.Summary),
		TimeSeries: results["timeseries"].Data.(analytics.TimeSeries),
		Breakdown:  results["breakdown"].Data.(analytics.Breakdown),
		TopPages:   results["top-pages"].Data.([]aggregate.PageTotals),
		TopQueries: results["top-queries"].Data.([]aggregate.QueryTotals),
	}, nil
}

// Dashboard reads Reader.Dashboard from the current snapshot.
func (s *Service) Dashboard(q Query) (analytics.Dashboard, error) {
	return read(s, func(r *Reader) (analytics.Dashboard, error) { return r.Dashboard(q) })
}

// Summary reads Reader.Summary from the current snapshot.
func (s *Service) Summary(q Query) (analytics.Summary, error) {
	return read(s, func(r *Reader) (analytics.Summary, error) { return r.Summary(q) })
}

// TimeSeries reads Reader.TimeSeries from the current snapshot.
func (s *Service) TimeSeries(q Query) (analytics.TimeSeries, error) {
	return read(s, func(r *Reader) (analytics.TimeSeries, error) { return r.TimeSeries(q) })
}

// Breakdown reads Reader.Breakdown from the current snapshot.
func (s *Service) Breakdown(q Query) (analytics.Breakdown, error) {
	return read(s, func(r *Reader) (analytics.Breakdown, error) { return r.Breakdown(q) })
}

// Pages reads Reader.Pages from the current snapshot.
func (s *Service) Pages(q Query) ([]analytics.PageInsight, error) {
	return read(s, func(r *Reader) ([]analytics.PageInsight, error) { return r.Pages(q) })
}

// Queries reads Reader.Queries from the current snapshot.
func (s *Service) Queries(q Query) ([]analytics.QueryInsight, error) {
	return read(s, func(r *Reader) ([]analytics.QueryInsight, error) { return r.Queries(q) })
}

// TopPages reads Reader.TopPages from the current snapshot.
func (s *Service) TopPages(q Query) ([]aggregate.PageTotals, error) {
	return read(s, func(r *Reader) ([]aggregate.PageTotals, error) { return r.TopPages(q) })
}

// TopQueries reads Reader.TopQueries from the current snapshot.
func (s *Service) TopQueries(q Query) ([]aggregate.QueryTotals, error) {
	return read(s, func(r *Reader) ([]aggregate.QueryTotals, error) { return r.TopQueries(q) })
}

// Insights reads Reader.Insights from the current snapshot.
func (s *Service) Insights(q Query) (insights.Report, error) {
	return read(s, func(r *Reader) (insights.Report, error) { return r.Insights(q) })
}

// Insight reads Reader.Insight from the current snapshot.
func (s *Service) Insight(name string, q Query) (any, error) {
	if !insights.IsKnown(name) {
		return nil, fmt.Errorf("%w: %q", insights.ErrUnknownInsight, name)
	}
	return read(s, func(r *Reader) (any, error) { return r.Insight(name, q) })
}

// Overview reads Reader.Overview from one snapshot.
func (s *Service) Overview(ctx context.Context, q Query) (Overview, error) {
	return read(s, func(r *Reader) (Overview, error) { return r.Overview(ctx, q) })
}

// DatasetView is one normalized dataset with its source metadata.
type DatasetView struct {
	Data     any              `json:"data"`
	Metadata dataset.Metadata `json:"metadata"`
	Report   records.Report   `json:"report"`
}

// Dataset returns the normalized records of kind, filtered by q.Range.
func (s *Service) Dataset(kind dataset.Kind, q Query) (DatasetView, error) {
	r, err := s.Reader()
	if err != nil {
		return DatasetView{}, err
	}
	v := r.view(q.Range)
	var data any = v.set.Analytics
	if kind == dataset.KindSearch {
		data = v.set.Search
	}
	return DatasetView{
		Data:     data,
		Metadata: r.snapshot.Metadata[kind],
		Report:   r.snapshot.Reports[kind],
	}, nil
}

// Purge drops every cached view.
func (s *Service) Purge() {
	s.cache.Purge()
}

// CacheLen returns the number of cached views.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
