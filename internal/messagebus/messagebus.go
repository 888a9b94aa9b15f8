package messagebus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"github.com/nats-io/nats.go"
)

//go:generate mockgen -destination=../mocks/mock_messagebus.go -package=mocks . MessageBusInterface

type MessageBusInterface interface {
	PublishAuditRequest(ctx context.Context, m AuditRequestMessage) error
	PublishAuditProgress(ctx context.Context, m AuditProgressMessage) error
	PublishAuditCompleted(ctx context.Context, m AuditCompletedMessage) error
	Respond(ctx context.Context, msg *nats.Msg, m AuditCompletedMessage) error
	SubscribeToAuditRequest(queue string, handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error)
	SubscribeToAuditProgress(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error)
	SubscribeToAuditCompleted(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error)
}

type MessageType string

const (
	AuditRequestMessageType   MessageType = "audit.request"
	AuditProgressMessageType  MessageType = "audit.progress"
	AuditCompletedMessageType MessageType = "audit.completed"
)

const (
	AuditStatusCompleted = "completed"
	AuditStatusFailed    = "failed"
)

type AuditRequestMessage struct {
	Type    MessageType         `json:"type"`
	AuditID string              `json:"audit_id"`
	URL     string              `json:"url"`
	Options models.AuditOptions `json:"options"`
}

type AuditProgressMessage struct {
	Type    MessageType          `json:"type"`
	AuditID string               `json:"audit_id"`
	Event   models.ProgressEvent `json:"event"`
}

type AuditCompletedMessage struct {
	Type    MessageType         `json:"type"`
	AuditID string              `json:"audit_id"`
	Status  string              `json:"status"`
	Result  *models.AuditResult `json:"result,omitempty"`
	Error   *models.AuditError  `json:"error,omitempty"`
}

// MessageBus provides a NATS message bus for publishing and subscribing to messages
type MessageBus struct {
	nc      *nats.Conn
	metrics MetricsCollector
}

// New creates a new message bus
func New(nc *nats.Conn, metrics MetricsCollector) *MessageBus {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &MessageBus{
		nc:      nc,
		metrics: metrics,
	}
}

// PublishAuditRequest queues an audit for a worker
func (b *MessageBus) PublishAuditRequest(ctx context.Context, m AuditRequestMessage) error {
	m.Type = AuditRequestMessageType
	return b.publishJSON(ctx, AuditRequestMessageType, m.AuditID, m)
}

// PublishAuditProgress publishes an audit progress event
func (b *MessageBus) PublishAuditProgress(ctx context.Context, m AuditProgressMessage) error {
	m.Type = AuditProgressMessageType
	return b.publishJSON(ctx, AuditProgressMessageType, m.AuditID, m)
}

// PublishAuditCompleted publishes the final outcome of an audit
func (b *MessageBus) PublishAuditCompleted(ctx context.Context, m AuditCompletedMessage) error {
	m.Type = AuditCompletedMessageType
	return b.publishJSON(ctx, AuditCompletedMessageType, m.AuditID, m)
}

// Respond answers a request-reply audit request. Messages without a reply subject are ignored.
func (b *MessageBus) Respond(ctx context.Context, msg *nats.Msg, m AuditCompletedMessage) (err error) {
	if msg == nil || msg.Reply == "" {
		return nil
	}

	reply := string(AuditCompletedMessageType) + ".reply"
	defer func() {
		b.metrics.RecordNATSPublish(reply, err == nil)
	}()

	m.Type = AuditCompletedMessageType
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	return b.publishMsg(ctx, reply, msg.Reply, m.AuditID, data)
}

func (b *MessageBus) publishJSON(ctx context.Context, messageType MessageType, auditID string, v any) (err error) {
	defer func() {
		b.metrics.RecordNATSPublish(string(messageType), err == nil)
	}()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", messageType, err)
	}

	if err = b.publishMsg(ctx, string(messageType), string(messageType), auditID, data); err != nil {
		return fmt.Errorf("failed to publish %s message: %w", messageType, err)
	}
	return nil
}

// publishMsg publishes a message to NATS with the audit id and trace context in headers
func (b *MessageBus) publishMsg(ctx context.Context, name, subject, auditID string, data []byte) (err error) {
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  make(nats.Header),
	}
	tracing.SetAuditID(msg, auditID)

	ctx, span := tracing.CreateNATSPublishSpan(ctx, name, msg)
	defer span.End()

	tracing.InjectNATSHeaders(ctx, msg)

	err = b.nc.PublishMsg(msg)
	if err != nil {
		tracing.SetError(ctx, err)
	}
	return err
}

// SubscribeToAuditRequest joins the worker queue group for audit requests
func (b *MessageBus) SubscribeToAuditRequest(queue string, handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error) {
	h := b.wrapHandler(AuditRequestMessageType, handler)
	if queue == "" {
		return b.nc.Subscribe(string(AuditRequestMessageType), h)
	}
	return b.nc.QueueSubscribe(string(AuditRequestMessageType), queue, h)
}

// SubscribeToAuditProgress subscribes to audit progress events
func (b *MessageBus) SubscribeToAuditProgress(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error) {
	h := b.wrapHandler(AuditProgressMessageType, handler)
	return b.nc.Subscribe(string(AuditProgressMessageType), h)
}

// SubscribeToAuditCompleted subscribes to audit completion messages
func (b *MessageBus) SubscribeToAuditCompleted(handler func(ctx context.Context, m *nats.Msg)) (*nats.Subscription, error) {
	h := b.wrapHandler(AuditCompletedMessageType, handler)
	return b.nc.Subscribe(string(AuditCompletedMessageType), h)
}

// wrapHandler wraps the original handler to automatically inject trace context and record receive metrics
func (b *MessageBus) wrapHandler(messageType MessageType, handler func(ctx context.Context, m *nats.Msg)) nats.MsgHandler {
	return func(m *nats.Msg) {
		ctx := tracing.ExtractNATSHeaders(context.Background(), m)
		ctx, span := tracing.CreateNATSConsumeSpan(ctx, m)
		defer span.End()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.metrics.RecordNATSReceive(string(messageType), time.Since(start), false)
				panic(r)
			}
			b.metrics.RecordNATSReceive(string(messageType), time.Since(start), true)
		}()

		handler(ctx, m)
	}
}
