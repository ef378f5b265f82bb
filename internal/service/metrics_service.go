package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ietf-tools/errata-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	classifications *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	stagedPurged    prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
}

// NewMetricsService registers the core collectors.
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

	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errata_classifications_total",
		Help: "Classification decisions by resulting status",
	}, []string{"status"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errata_notifications_total",
		Help: "Notifications composed by event",
	}, []string{"event"})

	stagedPurged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "errata_staged_purged_total",
		Help: "Abandoned report entries removed by cleanup",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, classifications, notifications, stagedPurged, dbQueryDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		classifications: classifications,
		notifications:   notifications,
		stagedPurged:    stagedPurged,
		dbQueryDuration: dbQueryDuration,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveClassification counts a classification decision.
func (m *MetricsService) ObserveClassification(status models.StatusSlug) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(string(status)).Inc()
}

// ObserveNotification counts a composed notification.
func (m *MetricsService) ObserveNotification(event Event) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(event)).Inc()
}

// ObserveStagedPurged counts report entries removed by cleanup.
func (m *MetricsService) ObserveStagedPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.stagedPurged.Add(float64(count))
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}
