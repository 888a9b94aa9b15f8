package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yousuf64/shift"
)

// APIMetrics tracks the auditor's HTTP API: every request by route, and audit
// requests by sync or async mode
type APIMetrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	AuditRequestsTotal   *prometheus.CounterVec
	AuditRequestDuration *prometheus.HistogramVec
}

func newAPIMetrics(serviceName string) *APIMetrics {
	constLabels := prometheus.Labels{LabelService: serviceName}

	return &APIMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint, LabelStatus},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint},
		),

		HTTPRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Current number of HTTP requests being served",
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelEndpoint},
		),

		AuditRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_requests_total",
				Help:        "Total number of audit requests received",
				ConstLabels: constLabels,
			},
			[]string{LabelMode, LabelStatus},
		),

		AuditRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "audit_request_duration_seconds",
				Help:        "Time taken to answer an audit request in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMode},
		),
	}
}

func (m *APIMetrics) mustRegister() {
	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AuditRequestsTotal,
		m.AuditRequestDuration,
	)
}

// HTTPMiddleware records request counts and latency per route template
func (m *APIMetrics) HTTPMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		start := time.Now()

		// Route templates keep label cardinality bounded
		endpoint := route.Path
		inFlight := m.HTTPRequestsInFlight.WithLabelValues(r.Method, endpoint)
		inFlight.Inc()
		defer inFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		err := next(wrapped, r, route)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordAuditRequest records a sync or async audit request
func (m *APIMetrics) RecordAuditRequest(mode string, success bool, duration time.Duration) {
	m.AuditRequestsTotal.WithLabelValues(mode, statusLabel(success)).Inc()
	m.AuditRequestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
