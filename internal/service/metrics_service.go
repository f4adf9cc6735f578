package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

// MetricsService owns the Prometheus registry and keeps lightweight counters for snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	lookupHits      prometheus.Counter
	lookupMisses    prometheus.Counter
	viewCompute     *prometheus.HistogramVec
	exportJobs      *prometheus.CounterVec

	cacheHitCount        atomic.Uint64
	cacheMissCount       atomic.Uint64
	lookupHitCount       atomic.Uint64
	lookupMissCount      atomic.Uint64
	viewCount            atomic.Uint64
	viewDurationTotal    atomic.Uint64
	requestCount         atomic.Uint64
	requestDurationTotal atomic.Uint64
	exportsFinished      atomic.Uint64
	exportsFailed        atomic.Uint64
}

// NewMetricsService registers the service collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache reads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total collection cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total collection cache misses",
		}),
		lookupHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "file_lookup_cache_hits_total",
			Help: "File lookups served from the in-process LRU",
		}),
		lookupMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "file_lookup_cache_misses_total",
			Help: "File lookups that went to the database",
		}),
		viewCompute: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "view_compute_duration_seconds",
			Help:    "Time spent deriving a view from a collection",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"kind"}),
		exportJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "export_jobs_total",
			Help: "Export jobs by terminal status",
		}, []string{"kind", "status"}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	m.requestCount.Add(1)
	m.requestDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records collection cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		m.cacheHitCount.Add(1)
	} else {
		m.cacheMisses.Inc()
		m.cacheMissCount.Add(1)
	}
	hits := m.cacheHitCount.Load()
	if total := hits + m.cacheMissCount.Load(); total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordLookup counts an in-process file lookup.
func (m *MetricsService) RecordLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.lookupHits.Inc()
		m.lookupHitCount.Add(1)
		return
	}
	m.lookupMisses.Inc()
	m.lookupMissCount.Add(1)
}

// ObserveViewCompute records how long the engine took for one view of kind.
func (m *MetricsService) ObserveViewCompute(kind models.ResourceKind, duration time.Duration) {
	if m == nil {
		return
	}
	m.viewCompute.WithLabelValues(string(kind)).Observe(duration.Seconds())
	m.viewCount.Add(1)
	m.viewDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordExport counts an export job reaching a terminal status.
func (m *MetricsService) RecordExport(kind models.ResourceKind, status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(kind), string(status)).Inc()
	switch status {
	case models.ExportStatusFinished:
		m.exportsFinished.Add(1)
	case models.ExportStatusFailed:
		m.exportsFailed.Add(1)
	}
}

// Snapshot returns aggregated metrics for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := m.cacheHitCount.Load()
	misses := m.cacheMissCount.Load()
	requests := m.requestCount.Load()
	views := m.viewCount.Load()

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return models.SystemMetrics{
		CacheHitRatio:            ratio,
		CacheHits:                hits,
		CacheMisses:              misses,
		FileLookupHits:           m.lookupHitCount.Load(),
		FileLookupMisses:         m.lookupMissCount.Load(),
		ViewComputations:         views,
		AverageViewComputeMs:     averageMs(m.viewDurationTotal.Load(), views),
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(m.requestDurationTotal.Load(), requests),
		ExportsFinished:          m.exportsFinished.Load(),
		ExportsFailed:            m.exportsFailed.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
