package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and timetable instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	compileDuration prometheus.Histogram
	compileSessions prometheus.Histogram
	mutations       *prometheus.CounterVec
	conflictChecks  *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	subscribers     prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	compileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_compile_seconds",
		Help:    "Time spent compiling an effective week",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	compileSessions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_compile_sessions",
		Help:    "Sessions produced per compiled week",
		Buckets: prometheus.ExponentialBuckets(10, 2, 8),
	})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_mutations_total",
		Help: "Live timetable mutations by kind",
	}, []string{"kind"})

	conflictChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflict_checks_total",
		Help: "Conflict checks by outcome",
	}, []string{"result"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_change_notifications_total",
		Help: "Change notifications by outcome",
	}, []string{"result"})

	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_change_subscribers",
		Help: "Open change stream connections",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		compileDuration, compileSessions, mutations, conflictChecks, notifications, subscribers, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		compileDuration: compileDuration,
		compileSessions: compileSessions,
		mutations:       mutations,
		conflictChecks:  conflictChecks,
		notifications:   notifications,
		subscribers:     subscribers,
	}
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCompile records one compiled week.
func (m *MetricsService) ObserveCompile(duration time.Duration, sessions int) {
	if m == nil {
		return
	}
	m.compileDuration.Observe(duration.Seconds())
	m.compileSessions.Observe(float64(sessions))
}

// RecordMutation counts a successful layer mutation.
func (m *MetricsService) RecordMutation(kind ChangeKind) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(kind)).Inc()
}

// RecordConflictCheck counts a detector run.
func (m *MetricsService) RecordConflictCheck(conflict bool) {
	if m == nil {
		return
	}
	result := "free"
	if conflict {
		result = "conflict"
	}
	m.conflictChecks.WithLabelValues(result).Inc()
}

// RecordNotification counts a change notification outcome.
func (m *MetricsService) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// SubscriberDelta adjusts the open change stream gauge.
func (m *MetricsService) SubscriberDelta(delta float64) {
	if m == nil {
		return
	}
	m.subscribers.Add(delta)
}
