package metrics

import (
	"net/http"
	"time"

	"seoaudit/internal/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yousuf64/shift"
)

const (
	LabelService     = "service"
	LabelMethod      = "method"
	LabelEndpoint    = "endpoint"
	LabelStatus      = "status"
	LabelPhase       = "phase"
	LabelOutcome     = "outcome"
	LabelCategory    = "category"
	LabelSeverity    = "severity"
	LabelMode        = "mode"
	LabelMessageType = "message_type"
	LabelRequestType = "request_type"
)

// ServiceMetrics is shared by the auditor and the progress relay: process
// identity plus the audit messages each one moves over NATS.
type ServiceMetrics struct {
	ServiceUptime prometheus.GaugeFunc
	ServiceInfo   *prometheus.GaugeVec

	AuditMessagesPublished *prometheus.CounterVec
	AuditMessagesReceived  *prometheus.CounterVec
	AuditMessageHandling   *prometheus.HistogramVec
}

func NewServiceMetrics(serviceName string) *ServiceMetrics {
	constLabels := prometheus.Labels{LabelService: serviceName}
	started := time.Now()

	return &ServiceMetrics{
		ServiceUptime: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "service_uptime_seconds",
				Help:        "Seconds since the service started",
				ConstLabels: constLabels,
			},
			func() float64 { return time.Since(started).Seconds() },
		),

		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "service_info",
				Help:        "Service build information",
				ConstLabels: constLabels,
			},
			[]string{"version", "go_version"},
		),

		AuditMessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_messages_published_total",
				Help:        "Audit requests, progress events, completions and replies published to NATS",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		AuditMessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "audit_messages_received_total",
				Help:        "Audit messages consumed from NATS",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		// A request message is handled for the whole audit, so buckets reach past a minute
		AuditMessageHandling: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "audit_message_handling_seconds",
				Help:        "Time spent handling one consumed audit message",
				Buckets:     []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType},
		),
	}
}

func (m *ServiceMetrics) MustRegister() {
	prometheus.MustRegister(
		m.ServiceUptime,
		m.ServiceInfo,
		m.AuditMessagesPublished,
		m.AuditMessagesReceived,
		m.AuditMessageHandling,
	)
}

func (m *ServiceMetrics) RecordNATSPublish(messageType string, success bool) {
	m.AuditMessagesPublished.WithLabelValues(messageType, statusLabel(success)).Inc()
}

func (m *ServiceMetrics) RecordNATSReceive(messageType string, duration time.Duration, success bool) {
	m.AuditMessagesReceived.WithLabelValues(messageType, statusLabel(success)).Inc()
	m.AuditMessageHandling.WithLabelValues(messageType).Observe(duration.Seconds())
}

func (m *ServiceMetrics) SetServiceInfo(version, goVersion string) {
	m.ServiceInfo.WithLabelValues(version, goVersion).Set(1)
}

// MetricsRouter builds the router serving /metrics and /health
func MetricsRouter() *shift.Router {
	router := shift.New()
	router.Use(middleware.CORSMiddleware)

	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		promhttp.Handler().ServeHTTP(w, r)
		return nil
	})

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		return err
	})

	router.OPTIONS("/*wildcard", middleware.OptionsHandler)
	return router
}

// StartMetricsServer serves MetricsRouter on port in the background
func (m *ServiceMetrics) StartMetricsServer(port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           MetricsRouter().Serve(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start metrics server: " + err.Error())
		}
	}()

	return server
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
