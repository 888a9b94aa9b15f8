package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"seoaudit/internal/config"
	"seoaudit/internal/metrics"
	"seoaudit/internal/models"

	"golang.org/x/sync/singleflight"
)

const (
	minTimeout = 100 * time.Millisecond
	maxTimeout = 60 * time.Second
)

//go:generate mockgen -destination=../mocks/mock_auditor.go -package=mocks . AuditorInterface

// AuditorInterface is the audit entry point used by the API and the queue worker
type AuditorInterface interface {
	Audit(ctx context.Context, rawURL string, opts models.AuditOptions, runOpts ...RunOption) (*models.AuditResult, error)
}

// Auditor runs single page audits. It is safe for concurrent use; every call to
// Audit builds its own worker pool, limiters and result slices.
type Auditor struct {
	client  *http.Client
	metrics metrics.AuditorMetricsInterface
	log     *slog.Logger
	cfg     config.AuditConfig
	scoring config.ScoringConfig

	// aux collapses concurrent robots.txt and sitemap.xml fetches of one origin
	aux singleflight.Group

	newID func() string
	now   func() time.Time
}

// Option configures the Auditor
type Option func(*Auditor)

// WithHTTPClient sets a custom HTTP client. Its redirect policy is replaced by the auditor's.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Auditor) {
		a.client = client
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics metrics.AuditorMetricsInterface) Option {
	return func(a *Auditor) {
		a.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(a *Auditor) {
		a.log = log
	}
}

// WithConfig sets the engine defaults and the scoring weights
func WithConfig(cfg *config.Config) Option {
	return func(a *Auditor) {
		a.cfg = cfg.Audit
		a.scoring = cfg.Scoring
	}
}

// WithIDGenerator sets the function producing audit ids
func WithIDGenerator(fn func() string) Option {
	return func(a *Auditor) {
		a.newID = fn
	}
}

// NewAuditor creates a new auditor with optional configurations
func NewAuditor(opts ...Option) *Auditor {
	a := &Auditor{
		client:  &http.Client{Timeout: 20 * time.Second},
		metrics: metrics.NewNoopAuditorMetrics(),
		log:     slog.Default(),
		cfg:     config.NewAuditConfig(),
		scoring: config.NewScoringConfig(),
		newID:   newULID,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	client := *a.client
	client.CheckRedirect = a.checkRedirect
	a.client = &client

	if a.cfg.MaxBodyBytes <= 0 {
		a.cfg.MaxBodyBytes = 10 << 20
	}
	if a.cfg.MaxRedirects <= 0 {
		a.cfg.MaxRedirects = 5
	}

	return a
}

// RunOption configures a single Audit call
type RunOption func(*run)

// WithProgress registers a callback receiving the progress events of one audit.
// The callback may be invoked from several goroutines at once.
func WithProgress(fn func(models.ProgressEvent)) RunOption {
	return func(r *run) {
		r.progress = fn
	}
}

// WithAuditID fixes the id of the produced result
func WithAuditID(id string) RunOption {
	return func(r *run) {
		r.id = id
	}
}

// run is the per-invocation state of Audit
type run struct {
	id       string
	progress func(models.ProgressEvent)
}

func (r *run) emit(e models.ProgressEvent) {
	if r.progress == nil {
		return
	}
	e.AuditID = r.id
	r.progress(e)
}

func (r *run) phase(p models.AuditPhase) {
	r.emit(models.ProgressEvent{Phase: p})
}

// settings are the effective options of one audit after defaults and clamping
type settings struct {
	workers       int
	maxLinks      int
	fastMode      bool
	timeout       time.Duration
	internalShare float64
}

// resolve applies the configured defaults to o and clamps every value to its allowed range
func (a *Auditor) resolve(o models.AuditOptions) settings {
	s := settings{
		workers:       a.cfg.Workers,
		maxLinks:      a.cfg.MaxLinks,
		fastMode:      a.cfg.FastMode || o.FastMode,
		timeout:       a.cfg.Timeout,
		internalShare: a.cfg.InternalShare,
	}

	if o.Workers > 0 {
		s.workers = o.Workers
	}
	if o.MaxLinks != nil {
		s.maxLinks = *o.MaxLinks
	}
	if o.TimeoutMs > 0 {
		s.timeout = time.Duration(o.TimeoutMs) * time.Millisecond
	}
	if o.InternalShare > 0 {
		s.internalShare = o.InternalShare
	}

	s.workers = clamp(s.workers, 1, config.MaxWorkers)
	s.maxLinks = clamp(s.maxLinks, 0, config.MaxLinksCap)
	s.timeout = clamp(s.timeout, minTimeout, maxTimeout)
	if s.internalShare <= 0 || s.internalShare > 1 {
		s.internalShare = 0.6
	}

	return s
}

func clamp[T int | time.Duration](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
