package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"seoaudit/internal/audit"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/middleware"
	"seoaudit/internal/tracing"

	"github.com/yousuf64/shift"
)

const (
	modeSync  = "sync"
	modeAsync = "async"
)

// handleAudit runs an audit within the request and answers with the full result
func (a *API) handleAudit(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	ctx := r.Context()
	start := time.Now()

	var success bool
	defer func() {
		if a.metrics != nil {
			a.metrics.RecordAuditRequest(modeSync, success, time.Since(start))
		}
	}()

	req, target, err := a.decodeAuditRequest(r)
	if err != nil {
		return err
	}

	a.log.Info("Running synchronous audit", slog.String("url", target))

	result, err := a.auditor.Audit(ctx, target, req.AuditOptions)
	if err != nil {
		return auditHTTPError(err)
	}

	success = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(result)
}

// handleAuditAsync queues an audit for the workers and answers with its id.
// Progress and the result are delivered over the message bus.
func (a *API) handleAuditAsync(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	ctx := r.Context()
	start := time.Now()

	var success bool
	defer func() {
		if a.metrics != nil {
			a.metrics.RecordAuditRequest(modeAsync, success, time.Since(start))
		}
	}()

	req, target, err := a.decodeAuditRequest(r)
	if err != nil {
		return err
	}

	auditID := a.newID()
	tracing.TagAuditID(ctx, auditID)
	if err := a.mb.PublishAuditRequest(ctx, messagebus.AuditRequestMessage{
		AuditID: auditID,
		URL:     target,
		Options: req.AuditOptions,
	}); err != nil {
		return middleware.NewHTTPError(http.StatusServiceUnavailable, "queue",
			errors.Join(err, errors.New("failed to publish audit request")))
	}

	a.log.Info("Audit request published",
		slog.String("auditId", auditID),
		slog.String("url", target),
		slog.Duration("duration", time.Since(start)))

	success = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(AsyncAuditResponse{AuditID: auditID, URL: target})
}

// decodeAuditRequest reads the body and validates its target
func (a *API) decodeAuditRequest(r *http.Request) (AuditRequest, string, error) {
	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "", middleware.NewHTTPError(http.StatusBadRequest, "invalid_request",
			errors.Join(err, errors.New("failed to decode request")))
	}

	target, err := validateURL(req.URL, a.allowPrivateTargets())
	if err != nil {
		return req, "", middleware.NewHTTPError(http.StatusBadRequest, "invalid_url",
			fmt.Errorf("url validation failed: %w", err))
	}

	return req, target, nil
}

// auditHTTPError maps engine errors to response statuses
func auditHTTPError(err error) error {
	var fetchErr *audit.FetchError
	if errors.As(err, &fetchErr) {
		status := http.StatusBadGateway
		if fetchErr.Reason == audit.ReasonInvalidURL {
			status = http.StatusBadRequest
		}
		return &middleware.HTTPError{
			Status:         status,
			Kind:           audit.KindFetch,
			Err:            err,
			UpstreamStatus: fetchErr.StatusCode,
		}
	}

	var extractErr *audit.ExtractionError
	if errors.As(err, &extractErr) {
		return middleware.NewHTTPError(http.StatusUnprocessableEntity, audit.KindExtraction, err)
	}

	return middleware.NewHTTPError(http.StatusInternalServerError, audit.KindInternal, err)
}
