package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
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
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Consultation metrics
	consultationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultations_total",
			Help: "Total number of completed consultations",
		},
		[]string{"urgency", "action"},
	)

	consultationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultations_rejected_total",
			Help: "Total number of submissions that did not produce a diagnosis",
		},
		[]string{"reason"},
	)

	diagnosisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diagnosis_duration_seconds",
			Help:    "Time spent waiting on the diagnosis provider",
			Buckets: []float64{.1, .25, .5, 1, 2, 3, 5, 10, 30},
		},
	)

	// History metrics
	historyWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_write_failures_total",
			Help: "Total number of failed history appends",
		},
	)

	historyCorruptionRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_corruption_recovered_total",
			Help: "Total number of times malformed history was read back as empty",
		},
	)

	historyRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_records",
			Help: "Number of records in the referral log after the last append",
		},
	)

	referralNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_notifications_total",
			Help: "Total number of referral notifications sent to clinics",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
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

// routePattern uses the chi route template so session and record ids do not
// explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// --- Business metric helpers ---

func RecordConsultation(urgency, action string, providerTime time.Duration) {
	consultationsTotal.WithLabelValues(urgency, action).Inc()
	diagnosisDuration.Observe(providerTime.Seconds())
}

// RecordRejection counts a submission that ended without a record.
// reason is one of validation, in_progress, provider, cancelled.
func RecordRejection(reason string) {
	consultationsRejected.WithLabelValues(reason).Inc()
}

func RecordHistoryWriteFailure() {
	historyWriteFailures.Inc()
}

func RecordHistoryCorruption() {
	historyCorruptionRecovered.Inc()
}

func RecordHistorySize(n int) {
	historyRecords.Set(float64(n))
}

func RecordReferralNotification(ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	referralNotifications.WithLabelValues(status).Inc()
}
