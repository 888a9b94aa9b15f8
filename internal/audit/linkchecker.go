package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"golang.org/x/time/rate"
)

const drainLimit = 64 << 10

// checkLinks verifies every candidate on a fixed pool of min(workers, len(candidates))
// goroutines. It returns exactly one result per candidate, in candidate order.
func (a *Auditor) checkLinks(ctx context.Context, candidates []models.LinkCandidate, workers int, timeout time.Duration, r *run) []models.LinkResult {
	count := len(candidates)
	if count == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "audit.check_links")
	defer span.End()

	workers = min(workers, count)
	a.log.Debug("Starting link checks", "linkCount", count, "workers", workers)

	a.metrics.SetConcurrentLinkChecks(count)
	defer a.metrics.SetConcurrentLinkChecks(0)

	jobs := make(chan models.LinkCandidate, count)
	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]models.LinkResult, 0, count)
		limits  = newHostLimiters(a.cfg.HostRate, a.cfg.HostBurst)
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for c := range jobs {
				res := a.checkLink(ctx, c, limits, timeout)
				a.metrics.RecordLinkCheck(string(res.Outcome), res.Elapsed.Seconds())

				mu.Lock()
				results = append(results, res)
				checked := len(results)
				mu.Unlock()

				a.metrics.SetConcurrentLinkChecks(count - checked)
				r.emit(models.ProgressEvent{
					Phase:   models.PhaseLinking,
					Link:    &res,
					Checked: checked,
					Total:   count,
				})
			}
		}()
	}

	wg.Wait()

	order := make(map[string]int, count)
	for i, c := range candidates {
		order[c.Href] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Candidate.Href] < order[results[j].Candidate.Href]
	})

	a.log.Debug("Completed link checks", "linkCount", count)
	return results
}

// checkLink verifies a single link. The politeness wait is bounded by the audit
// context only; the timeout starts once the host admits the request and covers
// the HEAD request and the GET fallback.
func (a *Auditor) checkLink(ctx context.Context, c models.LinkCandidate, limits *hostLimiters, timeout time.Duration) (res models.LinkResult) {
	start := time.Now()
	res.Candidate = c
	defer func() {
		res.Elapsed = time.Since(start)
	}()

	u, err := url.Parse(c.Href)
	if err != nil {
		res.Outcome = models.LinkOutcomeError
		res.Error = fmt.Sprintf("Invalid URL: %s", err.Error())
		return res
	}

	if err := limits.get(u.Host).Wait(ctx); err != nil {
		res.Outcome = models.LinkOutcomeError
		res.Error = fmt.Sprintf("Not checked: %s", err.Error())
		return res
	}

	start = time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := a.tryRequest(ctx, http.MethodHead, c.Href)
	res.Method = http.MethodHead

	if err == nil && shouldRetryWithGET(resp.StatusCode) {
		a.log.Debug("Retrying with GET request", "url", c.Href, "statusCode", resp.StatusCode)
		resp, err = a.tryRequest(ctx, http.MethodGet, c.Href)
		res.Method = http.MethodGet
	}

	if err != nil {
		res.Outcome = linkErrorOutcome(err)
		res.Error = formatRequestError(err)
		return res
	}

	res.StatusCode = resp.StatusCode
	res.Redirects = redirectHops(resp)
	if resp.Request != nil && resp.Request.URL != nil {
		res.FinalURL = resp.Request.URL.String()
	}
	res.Outcome = linkOutcome(resp.StatusCode, res.Redirects)

	return res
}

// tryRequest sends one request and releases its body. Only the status line and
// the redirect chain are kept.
func (a *Auditor) tryRequest(ctx context.Context, method, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(tracing.WithRequestKind(ctx, tracing.RequestLinkCheck), method, link, nil)
	if err != nil {
		return nil, err
	}
	a.setRequestHeaders(req)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), method, string(tracing.RequestLinkCheck))
		return nil, err
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	resp.Body.Close()

	a.metrics.RecordHTTPClientRequest(resp.StatusCode, time.Since(start).Seconds(), method, string(tracing.RequestLinkCheck))
	return resp, nil
}

// shouldRetryWithGET reports whether a HEAD response means the server rejected the method
func shouldRetryWithGET(statusCode int) bool {
	switch statusCode {
	case http.StatusMethodNotAllowed: // Server doesn't support HEAD
		return true
	case http.StatusNotImplemented: // Server doesn't implement HEAD
		return true
	case http.StatusBadRequest, http.StatusForbidden: // Servers that reject HEAD with the wrong code
		return true
	default:
		return false
	}
}

func linkOutcome(statusCode, hops int) models.LinkOutcome {
	switch {
	case statusCode >= 400:
		return models.LinkOutcomeBroken
	case statusCode >= 200 && statusCode < 300 && hops == 0:
		return models.LinkOutcomeOK
	default:
		return models.LinkOutcomeRedirect
	}
}

func linkErrorOutcome(err error) models.LinkOutcome {
	var urlErr *url.Error
	switch {
	case errors.Is(err, errTooManyRedirects):
		return models.LinkOutcomeError
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr) && urlErr.Timeout():
		return models.LinkOutcomeTimeout
	default:
		return models.LinkOutcomeError
	}
}

// formatRequestError formats HTTP request errors consistently
func formatRequestError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "Connection timeout"
		}
		return fmt.Sprintf("Connection error: %s", urlErr.Err.Error())
	}
	return fmt.Sprintf("Request failed: %s", err.Error())
}

// hostLimiters holds one token bucket per host for a single check run
type hostLimiters struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	byHost map[string]*rate.Limiter
}

func newHostLimiters(perSecond float64, burst int) *hostLimiters {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &hostLimiters{
		limit:  limit,
		burst:  max(burst, 1),
		byHost: make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiters) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.byHost[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.byHost[host] = l
	}
	return l
}
