package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"seoaudit/internal/audit"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"github.com/nats-io/nats.go"
)

// Worker consumes audit requests from the message bus, runs them and publishes
// progress and completion messages
type Worker struct {
	auditor audit.AuditorInterface
	bus     messagebus.MessageBusInterface
	log     *slog.Logger
	newID   func() string
}

// Option configures the Worker
type Option func(*Worker)

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(w *Worker) {
		w.log = log
	}
}

// WithIDGenerator sets the generator used for requests that arrive without an audit id
func WithIDGenerator(fn func() string) Option {
	return func(w *Worker) {
		w.newID = fn
	}
}

// New creates a new worker with required dependencies and optional configurations
func New(auditor audit.AuditorInterface, bus messagebus.MessageBusInterface, opts ...Option) *Worker {
	w := &Worker{
		auditor: auditor,
		bus:     bus,
		log:     slog.Default(),
		newID:   audit.NewID,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// ProcessAuditRequest handles an incoming audit request message. Requests sent
// with a reply subject also receive the completion message as the reply.
func (w *Worker) ProcessAuditRequest(ctx context.Context, msg *nats.Msg) {
	var req messagebus.AuditRequestMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		w.log.Error("Failed to unmarshal audit request",
			slog.Any("error", err),
			slog.String("data", string(msg.Data)))

		// Request-reply callers still get an answer
		rejected := messagebus.AuditCompletedMessage{
			Status: messagebus.AuditStatusFailed,
			Error: &models.AuditError{
				Kind:    audit.KindInvalidRequest,
				Message: "invalid audit request: " + err.Error(),
			},
		}
		if err := w.bus.Respond(ctx, msg, rejected); err != nil {
			w.log.Error("Failed to respond to invalid audit request", slog.Any("error", err))
		}
		return
	}

	if req.AuditID == "" {
		req.AuditID = w.newID()
	}
	tracing.TagAuditID(ctx, req.AuditID)

	log := w.log.With(slog.String("auditId", req.AuditID))
	log.Info("Processing audit request", slog.String("url", req.URL))

	start := time.Now()
	result, err := w.auditor.Audit(ctx, req.URL, req.Options,
		audit.WithAuditID(req.AuditID),
		audit.WithProgress(w.progressPublisher(ctx, req.AuditID)),
	)

	done := messagebus.AuditCompletedMessage{
		AuditID: req.AuditID,
		Status:  messagebus.AuditStatusCompleted,
		Result:  result,
	}
	if err != nil {
		done.Status = messagebus.AuditStatusFailed
		done.Result = nil
		done.Error = audit.ToAuditError(err)
		log.Warn("Audit request failed", slog.Any("error", err))
	} else {
		log.Info("Completed audit request",
			slog.Int("score", result.OverallScore),
			slog.Duration("processingTime", time.Since(start)))
	}

	if err := w.bus.PublishAuditCompleted(ctx, done); err != nil {
		log.Error("Failed to publish audit completion", slog.Any("error", err))
	}

	if err := w.bus.Respond(ctx, msg, done); err != nil {
		log.Error("Failed to respond to audit request", slog.Any("error", err))
	}
}

// progressPublisher forwards engine progress events to the message bus.
// Publish failures are logged and never interrupt the audit.
func (w *Worker) progressPublisher(ctx context.Context, auditID string) func(models.ProgressEvent) {
	return func(e models.ProgressEvent) {
		err := w.bus.PublishAuditProgress(ctx, messagebus.AuditProgressMessage{
			AuditID: auditID,
			Event:   e,
		})
		if err != nil {
			w.log.Debug("Failed to publish audit progress",
				slog.String("auditId", auditID),
				slog.String("phase", string(e.Phase)),
				slog.Any("error", err))
		}
	}
}
