// Package metrics exposes Prometheus counters and histograms for
// scheduling runs, validator runs, and the HTTP surface. Grounded on
// orange-dot-attenditev2/internal/shared/metrics/prometheus.go's
// promauto var-block + Record* helper shape.
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
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	schedulingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduling_runs_total",
			Help: "Total number of assignment engine runs",
		},
		[]string{"outcome"},
	)

	schedulingRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduling_run_duration_seconds",
			Help:    "Assignment engine run duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	appointmentsScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_scheduled_total",
			Help: "Total number of appointments successfully scheduled",
		},
	)

	appointmentsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_failed_total",
			Help: "Total number of visit instances that failed to schedule",
		},
	)

	validatorTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_transitions_total",
			Help: "Total number of appointment status transitions made by the validator",
		},
		[]string{"to_status"},
	)

	routingFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_fallback_total",
			Help: "Total number of times the routing client fell back to the Haversine estimate",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware wraps an http.Handler with request count/duration metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordSchedulingRun records one assignment engine invocation.
func RecordSchedulingRun(outcome string, duration time.Duration) {
	schedulingRunsTotal.WithLabelValues(outcome).Inc()
	schedulingRunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordAppointmentScheduled increments the scheduled-appointments counter.
func RecordAppointmentScheduled() {
	appointmentsScheduledTotal.Inc()
}

// RecordAppointmentFailed increments the failed-to-schedule counter.
func RecordAppointmentFailed() {
	appointmentsFailedTotal.Inc()
}

// RecordValidatorTransition records one status transition made by the
// reconciliation validator.
func RecordValidatorTransition(toStatus string) {
	validatorTransitionsTotal.WithLabelValues(toStatus).Inc()
}

// RecordRoutingFallback records a fall-through to the Haversine estimate.
func RecordRoutingFallback() {
	routingFallbackTotal.Inc()
}
