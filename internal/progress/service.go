package progress

import (
	"context"
	"encoding/json"
	"log/slog"

	"seoaudit/internal/messagebus"

	"github.com/nats-io/nats.go"
)

// Service relays audit progress and completion messages from NATS to the
// WebSocket clients subscribed to each audit
type Service struct {
	hub  *Hub
	mb   messagebus.MessageBusInterface
	log  *slog.Logger
	subs []*nats.Subscription
}

// Option configures the Service
type Option func(*Service)

// NewService creates a new progress relay with WebSocket hub and message bus
func NewService(hub *Hub, mb messagebus.MessageBusInterface, opts ...Option) *Service {
	s := &Service{
		hub:  hub,
		mb:   mb,
		log:  slog.Default(),
		subs: make([]*nats.Subscription, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// Start initializes all NATS subscriptions for the relay
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting progress relay subscriptions")

	sub, err := s.mb.SubscribeToAuditProgress(s.handleProgress)
	if err != nil {
		s.log.Error("Failed to subscribe to audit progress", slog.Any("error", err))
		return err
	}
	s.subs = append(s.subs, sub)

	sub, err = s.mb.SubscribeToAuditCompleted(s.handleCompleted)
	if err != nil {
		s.log.Error("Failed to subscribe to audit completion", slog.Any("error", err))
		s.Stop()
		return err
	}
	s.subs = append(s.subs, sub)

	s.log.Info("All NATS subscriptions established", slog.Int("count", len(s.subs)))
	return nil
}

// Stop unsubscribes from all NATS subscriptions
func (s *Service) Stop() {
	s.log.Info("Stopping progress relay", slog.Int("subscriptions", len(s.subs)))

	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Error("Failed to unsubscribe", slog.Any("error", err))
		}
	}

	s.subs = s.subs[:0]
}

// WebSocketHandler returns the WebSocket handler for HTTP routing
func (s *Service) WebSocketHandler() *Handler {
	return NewHandler(s.hub, s.log)
}

func (s *Service) handleProgress(ctx context.Context, msg *nats.Msg) {
	var m messagebus.AuditProgressMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		s.log.Error("Failed to unmarshal audit progress", slog.Any("error", err))
		return
	}

	s.log.Debug("Relaying audit progress",
		slog.String("auditId", m.AuditID),
		slog.String("phase", string(m.Event.Phase)))
	s.hub.BroadcastToGroup(m.AuditID, string(messagebus.AuditProgressMessageType), m)
}

func (s *Service) handleCompleted(ctx context.Context, msg *nats.Msg) {
	var m messagebus.AuditCompletedMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		s.log.Error("Failed to unmarshal audit completion", slog.Any("error", err))
		return
	}

	s.log.Info("Relaying audit completion",
		slog.String("auditId", m.AuditID),
		slog.String("status", m.Status))
	s.hub.BroadcastToGroup(m.AuditID, string(messagebus.AuditCompletedMessageType), m)
}
