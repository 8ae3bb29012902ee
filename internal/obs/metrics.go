// Package obs exposes Prometheus metrics for the panel and its backend
// round trips.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "panel_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_backend_requests_total",
			Help: "Total number of backend API round trips.",
		},
		[]string{"method", "path", "outcome"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_backend_request_duration_seconds",
			Help:    "Backend API round trip latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "outcome"},
	)

	notificationPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_notification_polls_total",
			Help: "Total number of unread counter polls.",
		},
		[]string{"outcome"},
	)

	unreadNotifications = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "panel_unread_notifications",
		Help: "Last observed unread notification count.",
	})
)

// Init registers the metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		backendRequestsTotal,
		backendRequestDuration,
		notificationPollsTotal,
		unreadNotifications,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps an HTTP handler with request counting and latency
// observation.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// ObserveBackendRequest records one backend API round trip.
func ObserveBackendRequest(method, path, outcome string, duration time.Duration) {
	backendRequestsTotal.WithLabelValues(method, path, outcome).Inc()
	backendRequestDuration.WithLabelValues(method, path, outcome).Observe(duration.Seconds())
}

// ObserveNotificationPoll records one unread counter poll and, on success,
// the observed count.
func ObserveNotificationPoll(outcome string, unread int) {
	notificationPollsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		unreadNotifications.Set(float64(unread))
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
