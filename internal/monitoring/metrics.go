package monitoring

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds application metrics. Every instance owns its own Prometheus
// registry so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	WidgetsCreated  prometheus.Counter
	WidgetsActive   prometheus.Gauge
	RankingsTotal   *prometheus.CounterVec
	RankingDuration prometheus.Histogram
	HeaderEvents    *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
	RateLimitBlocks *prometheus.CounterVec

	requestCount int64
	errorCount   int64
	cacheHits    int64
	cacheMisses  int64
	StartTime    time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		StartTime: time.Now(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kratu_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		WidgetsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kratu_widgets_created_total",
			Help: "Total number of widgets created",
		}),
		WidgetsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kratu_widgets_active",
			Help: "Number of live widgets",
		}),
		RankingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kratu_rankings_total",
				Help: "Total number of ranking computations by result",
			},
			[]string{"result"},
		),
		RankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kratu_ranking_duration_seconds",
			Help:    "Duration of ranking computations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		HeaderEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kratu_header_events_total",
				Help: "Total number of header events by event and result",
			},
			[]string{"event", "result"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kratu_cache_requests_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		RateLimitBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kratu_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter by backend",
			},
			[]string{"backend"},
		),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.WidgetsCreated,
		m.WidgetsActive,
		m.RankingsTotal,
		m.RankingDuration,
		m.HeaderEvents,
		m.CacheRequests,
		m.RateLimitBlocks,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records one finished HTTP request
func (m *Metrics) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	atomic.AddInt64(&m.requestCount, 1)
	if statusCode >= 400 {
		atomic.AddInt64(&m.errorCount, 1)
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

// RecordWidgetCreated counts a created widget
func (m *Metrics) RecordWidgetCreated() {
	m.WidgetsCreated.Inc()
	m.WidgetsActive.Inc()
}

// RecordWidgetDestroyed counts a destroyed widget
func (m *Metrics) RecordWidgetDestroyed() {
	m.WidgetsActive.Dec()
}

// RecordRanking records a ranking computation
func (m *Metrics) RecordRanking(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RankingsTotal.WithLabelValues(result).Inc()
	m.RankingDuration.Observe(duration.Seconds())
}

// RecordHeaderEvent records a dispatched header event
func (m *Metrics) RecordHeaderEvent(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.HeaderEvents.WithLabelValues(event, result).Inc()
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.cacheHits, 1)
	m.CacheRequests.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.cacheMisses, 1)
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// IncrementRateLimitBlock counts a rejected request for the given backend
func (m *Metrics) IncrementRateLimitBlock(backend string) {
	m.RateLimitBlocks.WithLabelValues(backend).Inc()
}

// GetStats returns a JSON friendly summary for the health endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.requestCount)
	errs := atomic.LoadInt64(&m.errorCount)
	hits := atomic.LoadInt64(&m.cacheHits)
	misses := atomic.LoadInt64(&m.cacheMisses)

	errorRate := 0.0
	if requests > 0 {
		errorRate = float64(errs) / float64(requests)
	}
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return map[string]interface{}{
		"requests":       requests,
		"errors":         errs,
		"error_rate":     errorRate,
		"cache_hits":     hits,
		"cache_misses":   misses,
		"cache_hit_rate": hitRate,
		"uptime_seconds": time.Since(m.StartTime).Seconds(),
	}
}
