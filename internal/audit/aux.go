package audit

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"seoaudit/internal/models"
	"seoaudit/internal/tracing"

	"github.com/temoto/robotstxt"
)

const maxAuxBytes = 5 << 20

// fetchSiteResources retrieves robots.txt and then sitemap.xml at the origin of
// pageURL. Failures are recorded on the returned resources and never returned.
func (a *Auditor) fetchSiteResources(ctx context.Context, pageURL string, timeout time.Duration) models.SiteResources {
	ctx, span := tracing.StartSpan(ctx, "audit.site_resources")
	defer span.End()

	u, err := url.Parse(pageURL)
	if err != nil {
		return models.SiteResources{}
	}
	origin := originOf(u)

	// Keyed by origin so concurrent audits of one site share a single fetch.
	// The shared fetch outlives any one caller; each request keeps its own timeout.
	shared := context.WithoutCancel(ctx)
	ch := a.aux.DoChan(origin, func() (any, error) {
		return a.loadSiteResources(shared, origin, timeout), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.SiteResources)
	case <-ctx.Done():
		return abandonedSiteResources(origin, ctx.Err())
	}
}

// abandonedSiteResources is returned to a caller whose context ended before
// the shared fetch finished
func abandonedSiteResources(origin string, err error) models.SiteResources {
	return models.SiteResources{
		Robots:  models.RobotsTxt{AuxResource: models.AuxResource{URL: origin + "/robots.txt", Error: err.Error()}},
		Sitemap: models.SitemapXML{AuxResource: models.AuxResource{URL: origin + "/sitemap.xml", Error: err.Error()}},
	}
}

func (a *Auditor) loadSiteResources(ctx context.Context, origin string, timeout time.Duration) models.SiteResources {
	var site models.SiteResources

	robotsURL := origin + "/robots.txt"
	body, status, err := a.fetchAux(ctx, "robots.txt", robotsURL, timeout)
	site.Robots = parseRobotsTxt(robotsURL, body, status, err)

	sitemapURL := origin + "/sitemap.xml"
	body, status, err = a.fetchAux(ctx, "sitemap.xml", sitemapURL, timeout)
	site.Sitemap = parseSitemap(sitemapURL, body, status, err)

	if !site.Sitemap.Found {
		if alt := sameOriginSitemap(origin, site.Robots.Sitemaps, sitemapURL); alt != "" {
			body, status, err = a.fetchAux(ctx, "sitemap.xml", alt, timeout)
			if sitemap := parseSitemap(alt, body, status, err); sitemap.Found {
				site.Sitemap = sitemap
			}
		}
	}

	return site
}

// fetchAux performs one small GET. Non-200 responses are returned as AuxFetchError.
func (a *Auditor) fetchAux(ctx context.Context, resource, target string, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tracing.WithRequestKind(ctx, tracing.RequestAuxFetch), http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &AuxFetchError{Resource: resource, URL: target, Cause: err}
	}
	a.setRequestHeaders(req)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), http.MethodGet, string(tracing.RequestAuxFetch))
		a.log.Debug("Auxiliary fetch failed", "resource", resource, "url", target, "error", err)
		return nil, 0, &AuxFetchError{Resource: resource, URL: target, Cause: err}
	}
	defer resp.Body.Close()

	a.metrics.RecordHTTPClientRequest(resp.StatusCode, time.Since(start).Seconds(), http.MethodGet, string(tracing.RequestAuxFetch))

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, &AuxFetchError{Resource: resource, URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAuxBytes))
	if err != nil {
		return nil, resp.StatusCode, &AuxFetchError{Resource: resource, URL: target, StatusCode: resp.StatusCode, Cause: err}
	}

	return body, resp.StatusCode, nil
}

// parseRobotsTxt reads the group that applies to User-agent: * and the Sitemap lines
func parseRobotsTxt(target string, body []byte, status int, fetchErr error) models.RobotsTxt {
	robots := models.RobotsTxt{AuxResource: auxResource(target, body, status, fetchErr)}
	if !robots.Found {
		return robots
	}

	robots.Empty = len(bytes.TrimSpace(body)) == 0

	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		robots.Error = fmt.Sprintf("invalid robots.txt: %v", err)
		return robots
	}

	if group := data.FindGroup("*"); group != nil {
		robots.HasRules = true
		robots.DisallowAll = !group.Test("/")
	}
	robots.Sitemaps = data.Sitemaps

	return robots
}

// parseSitemap checks the document root is a urlset or sitemapindex and counts its entries
func parseSitemap(target string, body []byte, status int, fetchErr error) models.SitemapXML {
	sitemap := models.SitemapXML{AuxResource: auxResource(target, body, status, fetchErr)}
	if !sitemap.Found {
		return sitemap
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	depth := 0
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sitemap.Valid = false
			sitemap.URLCount = 0
			return sitemap
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				sitemap.RootElement = t.Name.Local
				sitemap.Valid = t.Name.Local == "urlset" || t.Name.Local == "sitemapindex"
				if !sitemap.Valid {
					return sitemap
				}
			}
			if depth == 2 && (t.Name.Local == "url" || t.Name.Local == "sitemap") {
				sitemap.URLCount++
			}
		case xml.EndElement:
			depth--
		}
	}

	return sitemap
}

func auxResource(target string, body []byte, status int, fetchErr error) models.AuxResource {
	r := models.AuxResource{URL: target, StatusCode: status, Size: len(body)}
	if fetchErr != nil {
		var auxErr *AuxFetchError
		if errors.As(fetchErr, &auxErr) && auxErr.Cause == nil {
			r.Error = fmt.Sprintf("HTTP %d", auxErr.StatusCode)
		} else {
			r.Error = fetchErr.Error()
		}
		return r
	}
	r.Found = true
	return r
}

// sameOriginSitemap returns the first robots.txt sitemap on origin other than skip
func sameOriginSitemap(origin string, sitemaps []string, skip string) string {
	for _, s := range sitemaps {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			continue
		}
		if originOf(u) == origin && u.String() != skip {
			return u.String()
		}
	}
	return ""
}
