package tracing

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
)

// AuditIDHeader carries the audit id on every audit message so consumers can
// tag their spans before decoding the payload
const AuditIDHeader = "Seoaudit-Audit-Id"

// AuditIDKey is the span attribute carrying the audit id
const AuditIDKey = attribute.Key("seoaudit.audit_id")

// InjectNATSHeaders injects trace context into NATS message headers
func InjectNATSHeaders(ctx context.Context, msg *nats.Msg) {
	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}
	GetPropagator().Inject(ctx, &natsHeaderCarrier{msg.Header})
}

// ExtractNATSHeaders extracts trace context from NATS message headers
func ExtractNATSHeaders(ctx context.Context, msg *nats.Msg) context.Context {
	if msg.Header == nil {
		return ctx
	}
	return GetPropagator().Extract(ctx, &natsHeaderCarrier{msg.Header})
}

// SetAuditID stamps msg with the audit it belongs to. Empty ids are skipped.
func SetAuditID(msg *nats.Msg, auditID string) {
	if auditID == "" {
		return
	}
	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}
	msg.Header.Set(AuditIDHeader, auditID)
}

// AuditIDFrom returns the audit id stamped by SetAuditID
func AuditIDFrom(msg *nats.Msg) string {
	if msg.Header == nil {
		return ""
	}
	return msg.Header.Get(AuditIDHeader)
}

// TagAuditID records the audit id on the span in ctx
func TagAuditID(ctx context.Context, auditID string) {
	trace.SpanFromContext(ctx).SetAttributes(AuditIDKey.String(auditID))
}

// CreateNATSPublishSpan starts a producer span for msg. name replaces the
// subject in the span name, since reply subjects are unique per request.
func CreateNATSPublishSpan(ctx context.Context, name string, msg *nats.Msg) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "publish "+name, trace.WithSpanKind(trace.SpanKindProducer))
	span.SetAttributes(messagingAttributes("publish", name, msg)...)
	return ctx, span
}

// CreateNATSConsumeSpan starts a consumer span for msg
func CreateNATSConsumeSpan(ctx context.Context, msg *nats.Msg) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "process "+msg.Subject, trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(messagingAttributes("process", msg.Subject, msg)...)
	return ctx, span
}

func messagingAttributes(operation, destination string, msg *nats.Msg) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("messaging.system", "nats"),
		semconv.MessagingOperationName(operation),
		semconv.MessagingDestinationName(destination),
		semconv.MessagingMessageBodySize(len(msg.Data)),
	}
	if id := AuditIDFrom(msg); id != "" {
		attrs = append(attrs, AuditIDKey.String(id))
	}
	return attrs
}

// natsHeaderCarrier implements TextMapCarrier for NATS headers
type natsHeaderCarrier struct {
	header nats.Header
}

func (n *natsHeaderCarrier) Get(key string) string {
	return n.header.Get(key)
}

func (n *natsHeaderCarrier) Set(key, value string) {
	n.header.Set(key, value)
}

func (n *natsHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(n.header))
	for k := range n.header {
		keys = append(keys, k)
	}
	return keys
}
