package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/internal/messagebus"
	"seoaudit/internal/middleware"
	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"github.com/yousuf64/shift"
)

// Metrics is the part of the service metrics the API reports to
type Metrics interface {
	HTTPMiddleware(next shift.HandlerFunc) shift.HandlerFunc
	RecordAuditRequest(mode string, success bool, duration time.Duration)
}

// API handles the HTTP server and routes
type API struct {
	auditor audit.AuditorInterface
	mb      messagebus.MessageBusInterface
	metrics Metrics
	log     *slog.Logger
	cfg     *config.Config
	newID   func() string
	srv     *http.Server
}

// AuditRequest is the request body of both audit endpoints. Options left out
// fall back to the service defaults.
type AuditRequest struct {
	URL string `json:"url"`
	models.AuditOptions
}

// AsyncAuditResponse is the response body of the async audit endpoint
type AsyncAuditResponse struct {
	AuditID string `json:"audit_id"`
	URL     string `json:"url"`
}

// NewAPI creates a new API with all dependencies
func NewAPI(
	auditor audit.AuditorInterface,
	mb messagebus.MessageBusInterface,
	metrics Metrics,
	log *slog.Logger,
	cfg *config.Config,
) *API {
	return &API{
		auditor: auditor,
		mb:      mb,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		newID:   audit.NewID,
	}
}

// routes builds the router with middleware and every endpoint
func (a *API) routes() *shift.Router {
	router := shift.New()
	router.Use(tracing.OtelMiddleware)
	router.Use(middleware.CORSMiddleware)
	if a.metrics != nil {
		router.Use(a.metrics.HTTPMiddleware)
	}
	router.Use(middleware.ErrorMiddleware(a.log))

	router.OPTIONS("/*wildcard", middleware.OptionsHandler)
	router.POST("/audits", a.handleAudit)
	router.POST("/audits/async", a.handleAuditAsync)

	return router
}

// Start starts the HTTP server
func (a *API) Start(ctx context.Context) error {
	addr := ":8080"
	if a.cfg != nil && a.cfg.HTTP.Addr != "" {
		addr = a.cfg.HTTP.Addr
	}

	a.srv = &http.Server{
		Addr:        addr,
		Handler:     a.routes().Serve(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
		ReadTimeout: 15 * time.Second,
		// Synchronous audits hold the response open while links are checked
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	a.log.Info("API server starting", slog.String("addr", addr))
	return a.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *API) Shutdown(ctx context.Context) error {
	a.log.Info("Shutting down API server")
	if a.srv != nil {
		return a.srv.Shutdown(ctx)
	}
	return nil
}

func (a *API) allowPrivateTargets() bool {
	return a.cfg != nil && a.cfg.Audit.AllowPrivateTargets
}
