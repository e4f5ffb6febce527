package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	mutations        *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec

	requestCount          uint64
	requestDurationTotal  uint64
	upstreamCount         uint64
	upstreamFailures      uint64
	upstreamDurationTotal uint64
	fallbackCount         uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of console HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of course API requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "resource", "status"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total course API requests; status 0 means no response was received",
	}, []string{"method", "resource", "status"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screen_mutations_total",
		Help: "Create, update and delete attempts per screen and outcome",
	}, []string{"screen", "action", "outcome"})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projection_fallbacks_total",
		Help: "Values replaced by their default while projecting rows",
	}, []string{"field"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, upstreamTotal, mutations, fallbacks, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		upstreamTotal:    upstreamTotal,
		mutations:        mutations,
		fallbacks:        fallbacks,
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

// ObserveHTTPRequest records console request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstream records one course API call.
func (m *MetricsService) ObserveUpstream(method, resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.upstreamDuration.WithLabelValues(method, resource, labelStatus).Observe(duration.Seconds())
	m.upstreamTotal.WithLabelValues(method, resource, labelStatus).Inc()
	atomic.AddUint64(&m.upstreamCount, 1)
	atomic.AddUint64(&m.upstreamDurationTotal, uint64(duration.Nanoseconds()))
	if status == 0 || status >= http.StatusInternalServerError {
		atomic.AddUint64(&m.upstreamFailures, 1)
	}
}

// ObserveMutation counts a mutation attempt.
func (m *MetricsService) ObserveMutation(screen, action, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(screen, action, outcome).Inc()
}

// ObserveProjectionFallback counts a defaulted value.
func (m *MetricsService) ObserveProjectionFallback(field string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(field).Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
}

// Snapshot returns aggregated metrics for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	upstream := atomic.LoadUint64(&m.upstreamCount)
	upDuration := atomic.LoadUint64(&m.upstreamDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgUpstreamMs float64
	if upstream > 0 {
		avgUpstreamMs = float64(upDuration) / float64(upstream) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:             requests,
		AverageRequestDurationMs:  avgRequestMs,
		UpstreamRequestsTotal:     upstream,
		UpstreamFailuresTotal:     atomic.LoadUint64(&m.upstreamFailures),
		AverageUpstreamDurationMs: avgUpstreamMs,
		ProjectionFallbacksTotal:  atomic.LoadUint64(&m.fallbackCount),
		Goroutines:                runtime.NumGoroutine(),
		GeneratedAt:               time.Now().UTC(),
	}
}
