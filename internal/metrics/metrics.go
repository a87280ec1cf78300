// Package metrics exposes Prometheus collectors for the HTTP surface, the
// identity event stream and room cascade deletes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombooking_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roombooking_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombooking_http_errors_total",
			Help: "Total number of HTTP responses with status 400 or above.",
		},
		[]string{"method", "route", "status"},
	)

	cascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombooking_cascade_deletes_total",
			Help: "Room deletes by outcome of the booking cascade.",
		},
		[]string{"outcome"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roombooking_ws_active_connections",
			Help: "Open identity event stream connections.",
		},
	)
)

// RecordHTTP records one served request.
func RecordHTTP(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())

	if status >= 400 {
		httpErrorsTotal.WithLabelValues(method, route, code).Inc()
	}
}

// IncrementWSActiveConnections marks an event stream as opened.
func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

// DecrementWSActiveConnections marks an event stream as closed.
func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

// CascadeRecorder counts room delete outcomes.
type CascadeRecorder struct{}

// ObserveCascade increments the counter for outcome.
func (CascadeRecorder) ObserveCascade(outcome string) {
	cascadeDeletesTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
