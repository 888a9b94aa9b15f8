package messagebus

import "time"

// MetricsCollector counts audit messages published and consumed. *metrics.ServiceMetrics satisfies it.
type MetricsCollector interface {
	RecordNATSPublish(messageType string, success bool)
	RecordNATSReceive(messageType string, duration time.Duration, success bool)
}

type NoOpMetricsCollector struct{}

func (n NoOpMetricsCollector) RecordNATSPublish(messageType string, success bool) {}
func (n NoOpMetricsCollector) RecordNATSReceive(messageType string, duration time.Duration, success bool) {
}
