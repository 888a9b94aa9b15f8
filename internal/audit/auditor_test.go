package audit

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"seoaudit/internal/config"
	"seoaudit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuditID = "test-audit-id"

// route is a canned response of MockHTTPRoundTripper
type route struct {
	status     int
	header     http.Header
	body       []byte
	headStatus int
	delay      time.Duration
	err        error
}

// MockHTTPRoundTripper implements http.RoundTripper for testing. Responses are
// looked up by the full request URL; unknown URLs get the fallback.
type MockHTTPRoundTripper struct {
	mu       sync.Mutex
	routes   map[string]route
	fallback route
	requests []string
}

func newMockTransport() *MockHTTPRoundTripper {
	return &MockHTTPRoundTripper{
		routes:   make(map[string]route),
		fallback: route{status: http.StatusNotFound},
	}
}

func (m *MockHTTPRoundTripper) handle(url string, r route) *MockHTTPRoundTripper {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = r
	return m
}

func (m *MockHTTPRoundTripper) requested(method, url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r == method+" "+url {
			n++
		}
	}
	return n
}

func (m *MockHTTPRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req.Method+" "+req.URL.String())
	r, ok := m.routes[req.URL.String()]
	if !ok {
		r = m.fallback
	}
	m.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	status := r.status
	if req.Method == http.MethodHead && r.headStatus != 0 {
		status = r.headStatus
	}

	header := make(http.Header)
	for k, v := range r.header {
		header[k] = v
	}

	body := r.body
	if req.Method == http.MethodHead {
		body = nil
	}

	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}

func htmlRoute(body string, headers ...string) route {
	header := http.Header{"Content-Type": {"text/html; charset=utf-8"}}
	for i := 0; i+1 < len(headers); i += 2 {
		header.Set(headers[i], headers[i+1])
	}
	return route{status: http.StatusOK, header: header, body: []byte(body)}
}

func okRoute() route {
	return route{status: http.StatusOK, header: http.Header{"Content-Type": {"text/html"}}}
}

func redirectRoute(location string) route {
	return route{status: http.StatusMovedPermanently, header: http.Header{"Location": {location}}}
}

func testConfig() *config.Config {
	return &config.Config{
		Audit: config.AuditConfig{
			Workers:       4,
			MaxLinks:      25,
			Timeout:       2 * time.Second,
			MaxRedirects:  5,
			MaxBodyBytes:  10 << 20,
			InternalShare: 0.6,
			UserAgent:     "seoaudit-test",
		},
		Scoring: config.ScoringConfig{
			DeductHigh:   20,
			DeductMedium: 10,
			DeductLow:    5,
			Weights: map[string]float64{
				"technical":   0.25,
				"performance": 0.15,
				"mobile":      0.10,
				"security":    0.15,
				"social":      0.10,
				"robots":      0.10,
				"links":       0.15,
			},
		},
	}
}

// setupAuditor creates an auditor backed by the mock transport
func setupAuditor(t *testing.T, transport http.RoundTripper) *Auditor {
	t.Helper()
	return NewAuditor(
		WithHTTPClient(&http.Client{Transport: transport}),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithConfig(testConfig()),
		WithIDGenerator(func() string { return testAuditID }),
	)
}

func intPtr(v int) *int {
	return &v
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// wellTunedPage builds a ~400KB page that satisfies every check except the
// meta description and the alt text of two of its ten images.
func wellTunedPage(links []string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	b.WriteString(`<title>Acme Widgets - Durable Tools for Modern Workshops.</title>`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(`<link rel="canonical" href="http://shop.example.com/">`)
	b.WriteString(`<meta property="og:title" content="Acme Widgets">`)
	b.WriteString(`<meta property="og:description" content="Durable tools">`)
	b.WriteString(`<meta property="og:image" content="http://shop.example.com/cover.png">`)
	b.WriteString(`<meta name="twitter:card" content="summary">`)
	b.WriteString(`<script type="application/ld+json">{"@context":"https://schema.org","@type":"Store"}</script>`)
	b.WriteString(`</head><body><nav>`)
	for i, l := range links {
		fmt.Fprintf(&b, `<a href="%s">Product line %d</a>`, l, i)
	}
	b.WriteString(`</nav><main><h1>Acme Widgets</h1>`)
	for i := 0; i < 10; i++ {
		if i < 2 {
			fmt.Fprintf(&b, `<img src="/img/%d.png">`, i)
		} else {
			fmt.Fprintf(&b, `<img src="/img/%d.png" alt="Widget %d">`, i, i)
		}
	}
	for b.Len() < 400<<10 {
		b.WriteString("<p>Our widgets are machined from solid steel and tested for a decade of daily use.</p>\n")
	}
	b.WriteString(`</main></body></html>`)
	return b.String()
}

func TestAuditor_WellTunedPage(t *testing.T) {
	var links []string
	transport := newMockTransport()
	for i := 0; i < 10; i++ {
		link := fmt.Sprintf("http://shop.example.com/catalogue/widget-%d", i)
		links = append(links, link)
		transport.handle(link, okRoute())
	}

	page := wellTunedPage(links)
	transport.handle("http://shop.example.com/", route{
		status: http.StatusOK,
		header: http.Header{
			"Content-Type":            {"text/html; charset=utf-8"},
			"Content-Encoding":        {"gzip"},
			"X-Content-Type-Options":  {"nosniff"},
			"X-Frame-Options":         {"SAMEORIGIN"},
			"Referrer-Policy":         {"strict-origin-when-cross-origin"},
			"Content-Security-Policy": {"default-src 'self'"},
		},
		body: gzipBytes(t, page),
	})
	transport.handle("http://shop.example.com/robots.txt", route{
		status: http.StatusOK,
		body:   []byte("User-agent: *\nDisallow: /cart\nSitemap: http://shop.example.com/sitemap.xml\n"),
	})
	transport.handle("http://shop.example.com/sitemap.xml", route{
		status: http.StatusOK,
		body:   []byte(`<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>http://shop.example.com/</loc></url></urlset>`),
	})

	auditor := setupAuditor(t, transport)

	result, err := auditor.Audit(context.Background(), "http://shop.example.com/", models.AuditOptions{MaxLinks: intPtr(10)})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, testAuditID, result.ID)
	assert.Equal(t, http.StatusOK, result.Page.StatusCode)
	assert.Equal(t, 50, len([]rune(result.Page.Title)))
	assert.Greater(t, result.Page.BodySize, int64(390<<10), "size is measured on the decoded body")
	assert.Less(t, result.Page.TransferSize, result.Page.BodySize, "transfer size is the compressed size")

	technical, ok := result.Category(models.CategoryTechnical)
	require.True(t, ok)
	assert.Less(t, technical.Score, 100)
	assert.Equal(t, 80, technical.Score, "meta description and alt text deduct 10 each")

	var checks []string
	for _, f := range technical.Findings {
		checks = append(checks, f.Check)
	}
	assert.ElementsMatch(t, []string{"meta_description", "image_alt"}, checks)

	performance, _ := result.Category(models.CategoryPerformance)
	assert.Equal(t, 100, performance.Score)

	assert.GreaterOrEqual(t, result.OverallScore, 85)
	assert.LessOrEqual(t, result.OverallScore, 99)
	assert.Equal(t, "A", result.Grade)

	assert.Len(t, result.LinkResults, 10)
	assert.Equal(t, 10, result.Links.OK)
	assert.Zero(t, result.Links.Broken)
	assert.Zero(t, result.Links.Redirect)
	assert.Zero(t, result.Links.MaxRedirectHops)
	assert.Equal(t, 4, result.Timings.WorkersUsed)

	assert.True(t, result.Site.Robots.Found)
	assert.True(t, result.Site.Sitemap.Valid)
	assert.Equal(t, 1, result.Site.Sitemap.URLCount)
}

func TestAuditor_FetchTimeout(t *testing.T) {
	transport := newMockTransport().handle("https://slow.example.com/", route{
		status: http.StatusOK,
		delay:  2 * time.Second,
	})
	auditor := setupAuditor(t, transport)

	start := time.Now()
	result, err := auditor.Audit(context.Background(), "slow.example.com", models.AuditOptions{TimeoutMs: 150})

	assert.Nil(t, result, "no result is produced when the primary fetch fails")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ReasonTimeout, fetchErr.Reason)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAuditor_FetchErrors(t *testing.T) {
	testCases := []struct {
		name     string
		route    route
		reason   FetchReason
		status   int
		rawURL   string
		redirect bool
	}{
		{
			name:   "NotFound",
			route:  route{status: http.StatusNotFound},
			reason: ReasonStatus,
			status: http.StatusNotFound,
		},
		{
			name:   "ServerError",
			route:  route{status: http.StatusBadGateway},
			reason: ReasonStatus,
			status: http.StatusBadGateway,
		},
		{
			name:   "ConnectionRefused",
			route:  route{err: errors.New("dial tcp: connection refused")},
			reason: ReasonNetwork,
		},
		{
			name:     "RedirectLoop",
			route:    redirectRoute("https://site.example.com/"),
			reason:   ReasonRedirectLoop,
			redirect: true,
		},
		{
			name:   "InvalidURL",
			rawURL: "ftp://site.example.com/",
			reason: ReasonInvalidURL,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := newMockTransport().handle("https://site.example.com/", tc.route)
			auditor := setupAuditor(t, transport)

			rawURL := tc.rawURL
			if rawURL == "" {
				rawURL = "https://site.example.com/"
			}

			result, err := auditor.Audit(context.Background(), rawURL, models.AuditOptions{})
			assert.Nil(t, result)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
			assert.Equal(t, tc.reason, fetchErr.Reason)
			assert.Equal(t, tc.status, fetchErr.StatusCode)

			if tc.redirect {
				assert.Equal(t, testConfig().Audit.MaxRedirects+1, transport.requested(http.MethodGet, "https://site.example.com/"))
			}
		})
	}
}

func TestAuditor_ExtractionErrors(t *testing.T) {
	testCases := []struct {
		name  string
		route route
	}{
		{
			name:  "EmptyBody",
			route: htmlRoute("   \n\t "),
		},
		{
			name: "Image",
			route: route{
				status: http.StatusOK,
				header: http.Header{"Content-Type": {"image/png"}},
				body:   []byte("\x89PNG\r\n"),
			},
		},
		{
			name: "PDF",
			route: route{
				status: http.StatusOK,
				header: http.Header{"Content-Type": {"application/pdf"}},
				body:   []byte("%PDF-1.7"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := newMockTransport().handle("https://site.example.com/", tc.route)
			auditor := setupAuditor(t, transport)

			result, err := auditor.Audit(context.Background(), "https://site.example.com/", models.AuditOptions{})
			assert.Nil(t, result)

			var extractErr *ExtractionError
			assert.True(t, errors.As(err, &extractErr), "expected ExtractionError, got %v", err)
			assert.Equal(t, KindExtraction, ToAuditError(err).Kind)
		})
	}
}

func TestAuditor_FastMode(t *testing.T) {
	content, err := os.ReadFile("testdata/many_links.html")
	require.NoError(t, err)

	for _, maxLinks := range []int{0, 10, 200} {
		t.Run(fmt.Sprintf("MaxLinks%d", maxLinks), func(t *testing.T) {
			transport := newMockTransport().handle("https://www.example.com/", htmlRoute(string(content)))
			auditor := setupAuditor(t, transport)

			result, err := auditor.Audit(context.Background(), "https://www.example.com/", models.AuditOptions{
				FastMode: true,
				MaxLinks: intPtr(maxLinks),
			})
			require.NoError(t, err)

			assert.True(t, result.FastMode)
			assert.Empty(t, result.LinkResults)
			assert.Zero(t, result.Timings.LinkCheckMs)
			assert.Zero(t, result.Links.Sampled)
			assert.Equal(t, 30, result.Links.Discovered)

			links, ok := result.Category(models.CategoryLinks)
			require.True(t, ok)
			assert.True(t, links.Skipped)

			assert.Zero(t, transport.requested(http.MethodHead, "https://www.example.com/products"),
				"fast mode never contacts linked pages")
		})
	}
}

func TestAuditor_BrokenLinksAndRedirects(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Links</title></head><body>
		<a href="/ok">Working page</a>
		<a href="/gone">Removed page</a>
		<a href="/moved">Moved page</a>
		<a href="/head-rejected">Legacy server</a>
		<a href="https://external.example.org/missing">External page</a>
	</body></html>`

	transport := newMockTransport().
		handle("https://site.example.com/", htmlRoute(page)).
		handle("https://site.example.com/ok", okRoute()).
		handle("https://site.example.com/gone", route{status: http.StatusNotFound}).
		handle("https://site.example.com/moved", redirectRoute("/moved-1")).
		handle("https://site.example.com/moved-1", redirectRoute("/moved-2")).
		handle("https://site.example.com/moved-2", redirectRoute("/moved-3")).
		handle("https://site.example.com/moved-3", okRoute()).
		handle("https://site.example.com/head-rejected", route{status: http.StatusOK, headStatus: http.StatusMethodNotAllowed}).
		handle("https://external.example.org/missing", route{status: http.StatusGone})

	auditor := setupAuditor(t, transport)

	result, err := auditor.Audit(context.Background(), "https://site.example.com/", models.AuditOptions{})
	require.NoError(t, err)

	byHref := make(map[string]models.LinkResult)
	for _, r := range result.LinkResults {
		byHref[r.Candidate.Href] = r
	}
	require.Len(t, byHref, 5)

	assert.Equal(t, models.LinkOutcomeOK, byHref["https://site.example.com/ok"].Outcome)
	assert.Equal(t, models.LinkOutcomeBroken, byHref["https://site.example.com/gone"].Outcome)
	assert.Equal(t, models.LinkOutcomeBroken, byHref["https://external.example.org/missing"].Outcome)

	moved := byHref["https://site.example.com/moved"]
	assert.Equal(t, models.LinkOutcomeRedirect, moved.Outcome)
	assert.Equal(t, 3, moved.Redirects)
	assert.Equal(t, "https://site.example.com/moved-3", moved.FinalURL)

	legacy := byHref["https://site.example.com/head-rejected"]
	assert.Equal(t, models.LinkOutcomeOK, legacy.Outcome)
	assert.Equal(t, http.MethodGet, legacy.Method)

	assert.Equal(t, 2, result.Links.Broken)
	assert.Equal(t, 3, result.Links.MaxRedirectHops)

	links, _ := result.Category(models.CategoryLinks)
	var severities []models.Severity
	for _, f := range links.Findings {
		severities = append(severities, f.Severity)
	}
	assert.Equal(t, []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}, severities)
	assert.Equal(t, 65, links.Score)
}

func TestAuditor_AuxFailuresAreNotFatal(t *testing.T) {
	content, err := os.ReadFile("testdata/minimal_page.html")
	require.NoError(t, err)

	transport := newMockTransport().
		handle("https://site.example.com/", htmlRoute(string(content))).
		handle("https://site.example.com/robots.txt", route{err: errors.New("connection reset by peer")}).
		handle("https://site.example.com/sitemap.xml", route{status: http.StatusInternalServerError})

	auditor := setupAuditor(t, transport)

	result, err := auditor.Audit(context.Background(), "https://site.example.com/", models.AuditOptions{})
	require.NoError(t, err)

	assert.False(t, result.Site.Robots.Found)
	assert.Contains(t, result.Site.Robots.Error, "connection reset")
	assert.False(t, result.Site.Sitemap.Found)
	assert.Equal(t, http.StatusInternalServerError, result.Site.Sitemap.StatusCode)

	robots, _ := result.Category(models.CategoryRobots)
	var checks []string
	for _, f := range robots.Findings {
		checks = append(checks, f.Check)
	}
	assert.ElementsMatch(t, []string{"robots_txt", "sitemap_xml"}, checks)
}

func TestAuditor_ProgressEvents(t *testing.T) {
	page := `<html><head><title>Progress</title></head><body>
		<a href="/a">First link</a><a href="/b">Second link</a><a href="/c">Third link</a>
	</body></html>`

	transport := newMockTransport().handle("https://site.example.com/", htmlRoute(page))
	for _, p := range []string{"/a", "/b", "/c"} {
		transport.handle("https://site.example.com"+p, okRoute())
	}
	auditor := setupAuditor(t, transport)

	var (
		mu     sync.Mutex
		events []models.ProgressEvent
	)
	progress := WithProgress(func(e models.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	_, err := auditor.Audit(context.Background(), "https://site.example.com/", models.AuditOptions{Workers: 2},
		progress, WithAuditID("audit-42"))
	require.NoError(t, err)

	phases := make(map[models.AuditPhase]int)
	linkEvents := 0
	for _, e := range events {
		assert.Equal(t, "audit-42", e.AuditID)
		phases[e.Phase]++
		if e.Link != nil {
			linkEvents++
			assert.Equal(t, 3, e.Total)
		}
	}

	assert.Equal(t, 3, linkEvents)
	assert.Equal(t, models.PhaseFetching, events[0].Phase)
	assert.Equal(t, models.PhaseCompleted, events[len(events)-1].Phase)
	for _, p := range []models.AuditPhase{models.PhaseExtracting, models.PhaseAux, models.PhaseChecking, models.PhaseScoring} {
		assert.Equal(t, 1, phases[p], "phase %s", p)
	}
}

func TestAuditor_ConcurrentAuditsDoNotShareProgress(t *testing.T) {
	transport := newMockTransport()
	for _, host := range []string{"one.example.com", "two.example.com"} {
		transport.handle("https://"+host+"/", htmlRoute(`<html><head><title>t</title></head><body><a href="/x">Link x</a></body></html>`))
		transport.handle("https://"+host+"/x", okRoute())
	}
	auditor := setupAuditor(t, transport)

	var wg sync.WaitGroup
	seen := make([][]string, 2)
	for i, host := range []string{"one.example.com", "two.example.com"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var mu sync.Mutex
			_, err := auditor.Audit(context.Background(), host, models.AuditOptions{},
				WithAuditID(host),
				WithProgress(func(e models.ProgressEvent) {
					mu.Lock()
					defer mu.Unlock()
					seen[i] = append(seen[i], e.AuditID)
				}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i, host := range []string{"one.example.com", "two.example.com"} {
		assert.NotEmpty(t, seen[i])
		for _, id := range seen[i] {
			assert.Equal(t, host, id)
		}
	}
}

func TestAuditor_OverRealHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000")
		fmt.Fprint(w, `<!DOCTYPE html><html lang="en"><head><title>Landing</title></head><body><h1>Hi</h1><a href="/about">About us</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	auditor := NewAuditor(
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithConfig(testConfig()),
	)

	result, err := auditor.Audit(context.Background(), srv.URL+"/start", models.AuditOptions{})
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/landing", result.FinalURL)
	assert.Equal(t, 1, result.Page.Redirects)
	assert.GreaterOrEqual(t, result.Page.TTFB, 20*time.Millisecond)
	assert.GreaterOrEqual(t, result.Page.FetchDuration, result.Page.TTFB)
	assert.NotEmpty(t, result.ID)

	require.Len(t, result.LinkResults, 1)
	assert.Equal(t, models.LinkOutcomeOK, result.LinkResults[0].Outcome)
	assert.Equal(t, http.MethodHead, result.LinkResults[0].Method)

	assert.True(t, result.Site.Robots.Found)
	assert.True(t, result.Site.Robots.HasRules)
	assert.False(t, result.Site.Sitemap.Found)
}

func TestAuditor_ResolveClampsOptions(t *testing.T) {
	auditor := setupAuditor(t, newMockTransport())

	s := auditor.resolve(models.AuditOptions{})
	assert.Equal(t, 4, s.workers)
	assert.Equal(t, 25, s.maxLinks)
	assert.Equal(t, 2*time.Second, s.timeout)

	s = auditor.resolve(models.AuditOptions{Workers: 500, MaxLinks: intPtr(10000), TimeoutMs: 1})
	assert.Equal(t, config.MaxWorkers, s.workers)
	assert.Equal(t, config.MaxLinksCap, s.maxLinks)
	assert.Equal(t, minTimeout, s.timeout)

	s = auditor.resolve(models.AuditOptions{MaxLinks: intPtr(-3), TimeoutMs: 600000})
	assert.Equal(t, 0, s.maxLinks)
	assert.Equal(t, maxTimeout, s.timeout)
}
