package audit

import (
	"context"
	"time"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"golang.org/x/sync/errgroup"
)

// Audit fetches rawURL once, extracts its page model, runs every check and the
// sampled link verification, and scores the outcome. Fetch and extraction
// failures are fatal and return no result; auxiliary fetch failures and
// individual link failures are reported inside the result.
func (a *Auditor) Audit(ctx context.Context, rawURL string, opts models.AuditOptions, runOpts ...RunOption) (*models.AuditResult, error) {
	start := time.Now()

	r := &run{}
	for _, opt := range runOpts {
		opt(r)
	}
	if r.id == "" {
		r.id = a.newID()
	}

	s := a.resolve(opts)

	ctx, span := tracing.StartSpan(ctx, "audit")
	defer span.End()
	tracing.TagAuditID(ctx, r.id)

	log := a.log.With("auditId", r.id, "url", rawURL)
	log.Info("Starting audit", "workers", s.workers, "maxLinks", s.maxLinks, "fastMode", s.fastMode)

	result, err := a.audit(ctx, rawURL, s, r)
	if err != nil {
		tracing.SetError(ctx, err)
		a.metrics.RecordAudit(false, time.Since(start).Seconds())
		r.phase(models.PhaseFailed)
		log.Error("Audit failed", "error", err)
		return nil, err
	}

	result.Timings.TotalMs = time.Since(start).Milliseconds()
	a.metrics.RecordAudit(true, time.Since(start).Seconds())
	a.metrics.RecordAuditScore(result.OverallScore)
	for _, f := range result.Findings {
		a.metrics.RecordFinding(string(f.Category), string(f.Severity))
	}

	r.phase(models.PhaseCompleted)
	log.Info("Audit completed",
		"score", result.OverallScore,
		"grade", result.Grade,
		"findings", len(result.Findings),
		"linksChecked", result.Links.Checked,
		"totalMs", result.Timings.TotalMs)

	return result, nil
}

func (a *Auditor) audit(ctx context.Context, rawURL string, s settings, r *run) (*models.AuditResult, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Reason: ReasonInvalidURL, Cause: err}
	}

	r.phase(models.PhaseFetching)
	phaseStart := time.Now()
	page, err := a.fetchPage(ctx, target, s.timeout)
	a.metrics.RecordAuditPhase(string(models.PhaseFetching), err == nil, time.Since(phaseStart).Seconds())
	if err != nil {
		return nil, err
	}

	r.phase(models.PhaseExtracting)
	phaseStart = time.Now()
	snap, err := extract(page)
	a.metrics.RecordAuditPhase(string(models.PhaseExtracting), err == nil, time.Since(phaseStart).Seconds())
	if err != nil {
		return nil, err
	}

	r.phase(models.PhaseAux)
	auxStart := time.Now()
	site := a.fetchSiteResources(ctx, snap.FinalURL, s.timeout)
	auxDuration := time.Since(auxStart)
	a.metrics.RecordAuditPhase(string(models.PhaseAux), true, auxDuration.Seconds())

	var candidates []models.LinkCandidate
	unique := 0
	if s.fastMode {
		_, unique = SampleLinks(snap.Links, 0, s.internalShare)
	} else {
		candidates, unique = SampleLinks(snap.Links, s.maxLinks, s.internalShare)
	}

	var (
		g           errgroup.Group
		findings    []models.Finding
		linkResults []models.LinkResult
		checksTime  time.Duration
		linkTime    time.Duration
		workersUsed int
	)

	// Checks and link verification read the snapshot only and run side by side
	g.Go(func() error {
		r.phase(models.PhaseChecking)
		t := time.Now()
		findings = RunChecks(snap, site)
		checksTime = time.Since(t)
		a.metrics.RecordAuditPhase(string(models.PhaseChecking), true, checksTime.Seconds())
		return nil
	})

	if !s.fastMode && len(candidates) > 0 {
		workersUsed = min(s.workers, len(candidates))
		g.Go(func() error {
			r.emit(models.ProgressEvent{Phase: models.PhaseLinking, Total: len(candidates)})
			t := time.Now()
			linkResults = a.checkLinks(ctx, candidates, s.workers, s.timeout, r)
			linkTime = time.Since(t)
			a.metrics.RecordAuditPhase(string(models.PhaseLinking), true, linkTime.Seconds())
			return nil
		})
	}

	_ = g.Wait()

	r.phase(models.PhaseScoring)
	card := Score(findings, linkResults, !s.fastMode, a.scoring)

	if linkResults == nil {
		linkResults = []models.LinkResult{}
	}

	return &models.AuditResult{
		ID:                 r.id,
		URL:                target,
		FinalURL:           snap.FinalURL,
		AuditedAt:          a.now().UTC(),
		FastMode:           s.fastMode,
		OverallScore:       card.Overall,
		Grade:              card.Grade,
		Categories:         card.Categories,
		Findings:           card.Findings,
		TopRecommendations: card.TopRecommendations,
		Links:              linkStats(snap.Links, unique, candidates, linkResults),
		LinkResults:        linkResults,
		Timings: models.Timings{
			TTFBMs:      snap.TTFB.Milliseconds(),
			FetchMs:     snap.FetchDuration.Milliseconds(),
			AuxMs:       auxDuration.Milliseconds(),
			ChecksMs:    checksTime.Milliseconds(),
			LinkCheckMs: linkTime.Milliseconds(),
			WorkersUsed: workersUsed,
		},
		Site: site,
		Page: snap,
	}, nil
}

// linkStats summarizes discovery, sampling and verification counts
func linkStats(links []models.Link, unique int, candidates []models.LinkCandidate, results []models.LinkResult) models.LinkStats {
	stats := models.LinkStats{
		Discovered: len(links),
		Unique:     unique,
		Sampled:    len(candidates),
		Checked:    len(results),
	}

	for _, l := range links {
		if l.Internal {
			stats.Internal++
		} else {
			stats.External++
		}
	}

	for _, r := range results {
		switch r.Outcome {
		case models.LinkOutcomeOK:
			stats.OK++
		case models.LinkOutcomeBroken:
			stats.Broken++
		case models.LinkOutcomeRedirect:
			stats.Redirect++
		case models.LinkOutcomeTimeout:
			stats.Timeout++
		case models.LinkOutcomeError:
			stats.Error++
		}
		stats.MaxRedirectHops = max(stats.MaxRedirectHops, r.Redirects)
	}

	return stats
}
