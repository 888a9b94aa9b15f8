package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	auditorServiceName = "auditor"
)

type AuditorMetricsInterface interface {
	RecordAudit(success bool, duration float64)
	RecordAuditPhase(phase string, success bool, duration float64)
	RecordAuditScore(score int)
	RecordFinding(category, severity string)
	RecordLinkCheck(outcome string, duration float64)
	RecordHTTPClientRequest(statusCode int, duration float64, method, requestType string)
	SetConcurrentLinkChecks(count int)
}

type NoopAuditorMetrics struct{}

func NewNoopAuditorMetrics() AuditorMetricsInterface {
	return &NoopAuditorMetrics{}
}

func (n *NoopAuditorMetrics) RecordAudit(success bool, duration float64)                    {}
func (n *NoopAuditorMetrics) RecordAuditPhase(phase string, success bool, duration float64) {}
func (n *NoopAuditorMetrics) RecordAuditScore(score int)                                    {}
func (n *NoopAuditorMetrics) RecordFinding(category, severity string)                       {}
func (n *NoopAuditorMetrics) RecordLinkCheck(outcome string, duration float64)              {}
func (n *NoopAuditorMetrics) RecordHTTPClientRequest(statusCode int, duration float64, method, requestType string) {
}
func (n *NoopAuditorMetrics) SetConcurrentLinkChecks(count int) {}

type AuditorMetrics struct {
	*ServiceMetrics
	*APIMetrics

	AuditsProcessedTotal *prometheus.CounterVec
	AuditDuration        *prometheus.HistogramVec
	AuditPhaseDuration   *prometheus.HistogramVec
	AuditScore           prometheus.Histogram
	FindingsTotal        *prometheus.CounterVec

	LinksCheckedTotal    *prometheus.CounterVec
	LinkCheckDuration    *prometheus.HistogramVec
	ConcurrentLinkChecks prometheus.Gauge

	HTTPClientRequestsTotal   *prometheus.CounterVec
	HTTPClientRequestDuration *prometheus.HistogramVec
}

func NewAuditorMetrics() *AuditorMetrics {
	constLabels := prometheus.Labels{LabelService: auditorServiceName}

	return &AuditorMetrics{
		ServiceMetrics: NewServiceMetrics(auditorServiceName),
		APIMetrics:     newAPIMetrics(auditorServiceName),

		AuditsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audits_processed_total",
				Help:        "Total number of audits processed",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus},
		),

		AuditDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "audit_duration_seconds",
				Help:        "Total audit time in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{},
		),

		AuditPhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "audit_phase_duration_seconds",
				Help:        "Audit phase time in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelPhase, LabelStatus},
		),

		AuditScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "audit_overall_score",
				Help:        "Distribution of overall audit scores",
				Buckets:     prometheus.LinearBuckets(0, 10, 11),
				ConstLabels: constLabels,
			},
		),

		FindingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_findings_total",
				Help:        "Total number of findings reported",
				ConstLabels: constLabels,
			},
			[]string{LabelCategory, LabelSeverity},
		),

		LinksCheckedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "links_checked_total",
				Help:        "Total number of links checked",
				ConstLabels: constLabels,
			},
			[]string{LabelOutcome},
		),

		LinkCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "link_check_duration_seconds",
				Help:        "Link check time in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelOutcome},
		),

		ConcurrentLinkChecks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "concurrent_link_checks",
				Help:        "Current number of links queued or being checked",
				ConstLabels: constLabels,
			},
		),

		HTTPClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_client_requests_total",
				Help:        "Total number of outbound HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus, LabelMethod, LabelRequestType},
		),

		HTTPClientRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_client_request_duration_seconds",
				Help:        "HTTP client request duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMethod, LabelRequestType},
		),
	}
}

func (m *AuditorMetrics) MustRegisterAuditor() {
	m.ServiceMetrics.MustRegister()
	m.APIMetrics.mustRegister()

	prometheus.MustRegister(
		m.AuditsProcessedTotal,
		m.AuditDuration,
		m.AuditPhaseDuration,
		m.AuditScore,
		m.FindingsTotal,
		m.LinksCheckedTotal,
		m.LinkCheckDuration,
		m.ConcurrentLinkChecks,
		m.HTTPClientRequestsTotal,
		m.HTTPClientRequestDuration,
	)
}

func (m *AuditorMetrics) RecordAudit(success bool, duration float64) {
	m.AuditsProcessedTotal.WithLabelValues(statusLabel(success)).Inc()
	m.AuditDuration.WithLabelValues().Observe(duration)
}

func (m *AuditorMetrics) RecordAuditPhase(phase string, success bool, duration float64) {
	m.AuditPhaseDuration.WithLabelValues(phase, statusLabel(success)).Observe(duration)
}

func (m *AuditorMetrics) RecordAuditScore(score int) {
	m.AuditScore.Observe(float64(score))
}

func (m *AuditorMetrics) RecordFinding(category, severity string) {
	m.FindingsTotal.WithLabelValues(category, severity).Inc()
}

func (m *AuditorMetrics) RecordLinkCheck(outcome string, duration float64) {
	m.LinksCheckedTotal.WithLabelValues(outcome).Inc()
	m.LinkCheckDuration.WithLabelValues(outcome).Observe(duration)
}

func (m *AuditorMetrics) RecordHTTPClientRequest(status int, duration float64, method, requestType string) {
	m.HTTPClientRequestsTotal.WithLabelValues(strconv.Itoa(status), method, requestType).Inc()
	m.HTTPClientRequestDuration.WithLabelValues(method, requestType).Observe(duration)
}

func (m *AuditorMetrics) SetConcurrentLinkChecks(count int) {
	m.ConcurrentLinkChecks.Set(float64(count))
}
