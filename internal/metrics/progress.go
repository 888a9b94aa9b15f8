package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	progressServiceName = "progress"
)

type ProgressMetrics struct {
	*ServiceMetrics

	WebSocketConnectionsActive        prometheus.Gauge
	WebSocketConnectionsTotal         *prometheus.CounterVec
	WebSocketMessagesSentTotal        *prometheus.CounterVec
	WebSocketMessageBroadcastDuration *prometheus.HistogramVec
	WebSocketConnectionDuration       prometheus.Histogram
	WebSocketSubscriptionsTotal       *prometheus.CounterVec
}

func NewProgressMetrics() *ProgressMetrics {
	constLabels := prometheus.Labels{LabelService: progressServiceName}

	return &ProgressMetrics{
		ServiceMetrics: NewServiceMetrics(progressServiceName),

		WebSocketConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections_active",
				Help:        "Current number of active WebSocket connections",
				ConstLabels: constLabels,
			},
		),

		WebSocketConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_connections_total",
				Help:        "Total number of WebSocket connections established",
				ConstLabels: constLabels,
			},
			[]string{LabelStatus},
		),

		WebSocketMessagesSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_messages_sent_total",
				Help:        "Total number of WebSocket messages sent",
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType, LabelStatus},
		),

		WebSocketMessageBroadcastDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "websocket_message_broadcast_duration_seconds",
				Help:        "WebSocket message broadcast duration in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelMessageType},
		),

		WebSocketConnectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "websocket_connection_duration_seconds",
				Help:        "WebSocket connection duration in seconds",
				Buckets:     []float64{1, 5, 15, 30, 60, 300, 900, 3600},
				ConstLabels: constLabels,
			},
		),

		// Audit ids are unbounded, so subscriptions are counted by action only
		WebSocketSubscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_audit_subscriptions_total",
				Help:        "Total number of audit subscription events",
				ConstLabels: constLabels,
			},
			[]string{"action"},
		),
	}
}

func (m *ProgressMetrics) MustRegisterProgress() {
	m.ServiceMetrics.MustRegister()

	prometheus.MustRegister(
		m.WebSocketConnectionsActive,
		m.WebSocketConnectionsTotal,
		m.WebSocketMessagesSentTotal,
		m.WebSocketMessageBroadcastDuration,
		m.WebSocketConnectionDuration,
		m.WebSocketSubscriptionsTotal,
	)
}

func (m *ProgressMetrics) RecordWebSocketConnection(success bool) {
	m.WebSocketConnectionsTotal.WithLabelValues(statusLabel(success)).Inc()
}

func (m *ProgressMetrics) SetActiveWebSocketConnections(count int) {
	m.WebSocketConnectionsActive.Set(float64(count))
}

func (m *ProgressMetrics) RecordWebSocketMessage(messageType string, success bool, duration float64) {
	m.WebSocketMessagesSentTotal.WithLabelValues(messageType, statusLabel(success)).Inc()
	m.WebSocketMessageBroadcastDuration.WithLabelValues(messageType).Observe(duration)
}

func (m *ProgressMetrics) RecordWebSocketConnectionDuration(duration float64) {
	m.WebSocketConnectionDuration.Observe(duration)
}

func (m *ProgressMetrics) RecordSubscription(action string) {
	m.WebSocketSubscriptionsTotal.WithLabelValues(action).Inc()
}
