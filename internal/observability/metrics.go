// Package observability holds the Prometheus metrics of the service.
package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dataset metrics
	ReloadsTotal         *prometheus.CounterVec
	ReloadDuration       prometheus.Histogram
	RecordsLoaded        *prometheus.GaugeVec
	DefaultedFieldsTotal *prometheus.CounterVec
	LastReloadTimestamp  prometheus.Gauge

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a new registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlens_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchlens_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlens_dataset_reloads_total",
				Help: "Total number of dataset reload attempts",
			},
			[]string{"trigger", "status"},
		),
		ReloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "searchlens_dataset_reload_duration_seconds",
				Help:    "Dataset reload duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		RecordsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "searchlens_dataset_records",
				Help: "Number of records in the current snapshot",
			},
			[]string{"dataset"},
		),
		DefaultedFieldsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlens_dataset_defaulted_fields_total",
				Help: "Numeric cells that could not be parsed and were set to zero",
			},
			[]string{"dataset", "field"},
		),
		LastReloadTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchlens_dataset_last_reload_timestamp_seconds",
				Help: "Unix time of the last successful reload",
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlens_cache_hits_total",
				Help: "Total number of view cache hits",
			},
			[]string{"view"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlens_cache_misses_total",
				Help: "Total number of view cache misses",
			},
			[]string{"view"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReloadsTotal,
		m.ReloadDuration,
		m.RecordsLoaded,
		m.DefaultedFieldsTotal,
		m.LastReloadTimestamp,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware instruments fiber requests. The route pattern is used as the
// path label so parameters do not explode cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		if path == "" || path == "/" {
			path = c.Path()
		}
		method := c.Method()

		m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
