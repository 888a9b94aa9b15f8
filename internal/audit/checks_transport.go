package audit

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"seoaudit/internal/models"
)

const (
	ttfbLow    = 800 * time.Millisecond
	ttfbMedium = 1500 * time.Millisecond
	ttfbHigh   = 3000 * time.Millisecond

	sizeLow    = 1 << 20
	sizeMedium = 2 << 20
	sizeHigh   = 4 << 20

	compressionMinSize = 1 << 10
)

func checkTTFB(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	var sev models.Severity
	switch {
	case p.TTFB > ttfbHigh:
		sev = models.SeverityHigh
	case p.TTFB > ttfbMedium:
		sev = models.SeverityMedium
	case p.TTFB > ttfbLow:
		sev = models.SeverityLow
	default:
		return nil
	}

	return one(finding(sev,
		"Slow server response",
		fmt.Sprintf("Time to first byte was %d ms.", p.TTFB.Milliseconds()),
		"Reduce server response time with caching or a CDN; aim for under 800 ms."))
}

func checkPageSize(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	var sev models.Severity
	switch {
	case p.BodySize > sizeHigh:
		sev = models.SeverityHigh
	case p.BodySize > sizeMedium:
		sev = models.SeverityMedium
	case p.BodySize > sizeLow:
		sev = models.SeverityLow
	default:
		return nil
	}

	return one(finding(sev,
		"Large HTML document",
		fmt.Sprintf("The HTML document is %.1f MB.", float64(p.BodySize)/(1<<20)),
		"Trim inline scripts, styles and markup to keep the document under 1 MB."))
}

func checkCompression(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.BodySize <= compressionMinSize {
		return nil
	}

	encoding := strings.ToLower(p.Headers.Get("Content-Encoding"))
	for _, e := range []string{"gzip", "br", "deflate", "zstd"} {
		if strings.Contains(encoding, e) {
			return nil
		}
	}

	return one(finding(models.SeverityMedium,
		"Response not compressed",
		"The HTML was served without gzip, brotli or deflate compression.",
		"Enable gzip or brotli compression for text responses."))
}

func checkContentTypeOptions(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if strings.EqualFold(strings.TrimSpace(p.Headers.Get("X-Content-Type-Options")), "nosniff") {
		return nil
	}
	return one(finding(models.SeverityMedium,
		"Missing X-Content-Type-Options",
		"The response does not send X-Content-Type-Options: nosniff.",
		"Send X-Content-Type-Options: nosniff on every response."))
}

func checkFrameOptions(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Headers.Get("X-Frame-Options") != "" {
		return nil
	}
	if strings.Contains(strings.ToLower(p.Headers.Get("Content-Security-Policy")), "frame-ancestors") {
		return nil
	}
	return one(finding(models.SeverityMedium,
		"Missing clickjacking protection",
		"Neither X-Frame-Options nor a CSP frame-ancestors directive is set.",
		"Send X-Frame-Options: SAMEORIGIN or a frame-ancestors directive."))
}

func checkReferrerPolicy(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Headers.Get("Referrer-Policy") != "" {
		return nil
	}
	return one(finding(models.SeverityMedium,
		"Missing Referrer-Policy",
		"The response does not set a Referrer-Policy header.",
		"Send Referrer-Policy: strict-origin-when-cross-origin."))
}

func checkContentSecurityPolicy(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Headers.Get("Content-Security-Policy") != "" {
		return nil
	}
	return one(finding(models.SeverityMedium,
		"Missing Content-Security-Policy",
		"The response does not set a Content-Security-Policy header.",
		"Define a Content-Security-Policy restricting script and frame sources."))
}

func checkHSTS(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	u, err := url.Parse(p.FinalURL)
	if err != nil || u.Scheme != "https" {
		return nil
	}
	if p.Headers.Get("Strict-Transport-Security") != "" {
		return nil
	}
	return one(finding(models.SeverityHigh,
		"Missing HSTS header",
		"The page is served over HTTPS without Strict-Transport-Security.",
		"Send Strict-Transport-Security: max-age=31536000; includeSubDomains."))
}
