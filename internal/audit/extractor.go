package audit

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"strings"

	"seoaudit/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// nonHTMLTypes are content types that can never hold a document
var nonHTMLTypes = []string{
	"image/", "audio/", "video/", "font/",
	"application/pdf", "application/zip", "application/gzip",
	"application/octet-stream", "application/javascript", "text/css",
}

// extract builds the page snapshot from a fetched page. The snapshot is not
// modified after this returns.
func extract(page *fetchedPage) (*models.PageSnapshot, error) {
	if len(bytes.TrimSpace(page.Body)) == 0 {
		return nil, &ExtractionError{URL: page.FinalURL, Reason: "empty body"}
	}

	contentType := page.Header.Get("Content-Type")
	if mediaType := mediaTypeOf(contentType); isNonHTML(mediaType) {
		return nil, &ExtractionError{URL: page.FinalURL, Reason: "not an HTML document (" + mediaType + ")"}
	}

	reader, err := charset.NewReader(bytes.NewReader(page.Body), contentType)
	if err != nil {
		reader = bytes.NewReader(page.Body)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &ExtractionError{URL: page.FinalURL, Reason: "unparseable markup", Cause: err}
	}

	if doc.Find("head *, body *").Length() == 0 && strings.TrimSpace(doc.Text()) == "" {
		return nil, &ExtractionError{URL: page.FinalURL, Reason: "no document content"}
	}

	pageURL, err := url.Parse(page.FinalURL)
	if err != nil {
		return nil, &ExtractionError{URL: page.FinalURL, Reason: "invalid final url", Cause: err}
	}
	base := baseURL(doc, pageURL)

	snap := &models.PageSnapshot{
		RequestedURL:  page.RequestedURL,
		FinalURL:      page.FinalURL,
		StatusCode:    page.StatusCode,
		Headers:       page.Header,
		ContentType:   contentType,
		BodySize:      int64(len(page.Body)),
		TransferSize:  page.TransferSize,
		Redirects:     page.Redirects,
		TTFB:          page.TTFB,
		FetchDuration: page.Duration,
		OpenGraph:     map[string]string{},
		TwitterCard:   map[string]string{},
	}

	snap.Title = collapseSpace(doc.Find("title").First().Text())
	snap.Lang = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	snap.Charset = declaredCharset(doc, contentType)

	extractMeta(doc, snap)
	extractHeadLinks(doc, base, snap)

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		snap.H1 = append(snap.H1, collapseSpace(s.Text()))
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		_, hasAlt := s.Attr("alt")
		snap.Images = append(snap.Images, models.Image{Src: s.AttrOr("src", ""), HasAlt: hasAlt})
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if mediaTypeOf(s.AttrOr("type", "")) != "application/ld+json" {
			return
		}
		snap.JSONLD = append(snap.JSONLD, parseJSONLD(s.Text()))
	})

	snap.RobotsDirectives = robotsDirectives(doc, page.Header.Values("X-Robots-Tag"))
	snap.Links = extractLinks(doc, base, pageURL)

	return snap, nil
}

// extractMeta reads the description, viewport and social meta tags
func extractMeta(doc *goquery.Document, snap *models.PageSnapshot) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		property := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))
		content := strings.TrimSpace(s.AttrOr("content", ""))

		switch name {
		case "description":
			if snap.MetaDescription == "" {
				snap.MetaDescription = collapseSpace(content)
			}
		case "viewport":
			if !snap.HasViewport {
				snap.HasViewport = true
				snap.Viewport = content
			}
		}

		key := property
		if key == "" {
			key = name
		}

		switch {
		case key == "og:locale:alternate":
			snap.LocaleAlternates = append(snap.LocaleAlternates, content)
		case strings.HasPrefix(key, "og:"):
			if _, ok := snap.OpenGraph[key]; !ok {
				snap.OpenGraph[key] = content
			}
		case strings.HasPrefix(key, "twitter:"):
			if _, ok := snap.TwitterCard[key]; !ok {
				snap.TwitterCard[key] = content
			}
		}
	})
}

// extractHeadLinks reads the canonical and hreflang link elements
func extractHeadLinks(doc *goquery.Document, base *url.URL, snap *models.PageSnapshot) {
	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.Fields(strings.ToLower(s.AttrOr("rel", "")))
		href := s.AttrOr("href", "")

		for _, r := range rel {
			switch r {
			case "canonical":
				if snap.Canonical != "" {
					continue
				}
				if u, ok := resolveReference(base, href); ok {
					snap.Canonical = u.String()
				}
			case "alternate":
				lang, ok := s.Attr("hreflang")
				if !ok {
					continue
				}
				resolved := href
				if u, ok := resolveReference(base, href); ok {
					resolved = u.String()
				}
				snap.Hreflangs = append(snap.Hreflangs, models.Hreflang{
					Lang: strings.ToLower(strings.TrimSpace(lang)),
					Href: resolved,
				})
			}
		}
	})
}

// extractLinks collects every followable anchor with its page region
func extractLinks(doc *goquery.Document, base, pageURL *url.URL) []models.Link {
	var links []models.Link

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if !shouldFollowHref(href) {
			return
		}

		u, ok := resolveReference(base, href)
		if !ok {
			return
		}

		links = append(links, models.Link{
			Href:     u.String(),
			Text:     anchorText(s),
			Internal: sameSite(u, pageURL),
			Context:  linkContext(s.Get(0)),
			Position: len(links),
		})
	})

	return links
}

// linkContext classifies the closest landmark ancestor of n
func linkContext(n *html.Node) models.LinkContext {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}

		switch attr(p, "role") {
		case "navigation":
			return models.LinkContextNav
		case "main":
			return models.LinkContextMain
		case "banner":
			return models.LinkContextHeader
		case "complementary":
			return models.LinkContextSidebar
		case "contentinfo":
			return models.LinkContextFooter
		}

		switch p.Data {
		case "nav":
			return models.LinkContextNav
		case "main", "article":
			return models.LinkContextMain
		case "header":
			return models.LinkContextHeader
		case "aside":
			return models.LinkContextSidebar
		case "footer":
			return models.LinkContextFooter
		}
	}

	return models.LinkContextContent
}

// attr returns the lower-cased value of an attribute of n
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}

// anchorText returns the visible text of a link, falling back to its labels
func anchorText(s *goquery.Selection) string {
	if text := collapseSpace(s.Text()); text != "" {
		return text
	}
	for _, key := range []string{"aria-label", "title"} {
		if v := collapseSpace(s.AttrOr(key, "")); v != "" {
			return v
		}
	}
	return collapseSpace(s.Find("img[alt]").First().AttrOr("alt", ""))
}

// baseURL honours a <base href> when present
func baseURL(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	if u, ok := resolveReference(pageURL, href); ok {
		return u
	}
	return pageURL
}

// declaredCharset returns the charset named by a meta tag, falling back to the header
func declaredCharset(doc *goquery.Document, contentType string) string {
	if cs := strings.TrimSpace(doc.Find("meta[charset]").First().AttrOr("charset", "")); cs != "" {
		return strings.ToLower(cs)
	}

	var fromMeta string
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("http-equiv", "")), "content-type") {
			return true
		}
		fromMeta = charsetParam(s.AttrOr("content", ""))
		return fromMeta == ""
	})
	if fromMeta != "" {
		return fromMeta
	}

	return charsetParam(contentType)
}

func charsetParam(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// robotsDirectives merges meta robots/googlebot directives with X-Robots-Tag headers
func robotsDirectives(doc *goquery.Document, headerValues []string) []string {
	var raw []string

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		if name == "robots" || name == "googlebot" {
			raw = append(raw, s.AttrOr("content", ""))
		}
	})

	for _, v := range headerValues {
		// "googlebot: noindex" scopes the directives to one crawler
		if i := strings.Index(v, ":"); i > 0 {
			agent := strings.TrimSpace(v[:i])
			if !strings.ContainsAny(agent, " ,") && !strings.EqualFold(agent, "unavailable_after") {
				v = v[i+1:]
			}
		}
		raw = append(raw, v)
	}

	seen := make(map[string]bool)
	var directives []string
	for _, r := range raw {
		for _, d := range strings.Split(r, ",") {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			directives = append(directives, d)
		}
	}

	return directives
}

// parseJSONLD parses one structured data block. Failures are recorded, not returned.
func parseJSONLD(raw string) models.JSONLDBlock {
	block := models.JSONLDBlock{Raw: strings.TrimSpace(raw)}

	var v any
	if err := json.Unmarshal([]byte(block.Raw), &v); err != nil {
		block.Error = err.Error()
		return block
	}

	block.Valid = true
	block.Types = jsonLDTypes(v)
	return block
}

// jsonLDTypes collects @type values from a node, an array of nodes, or an @graph
func jsonLDTypes(v any) []string {
	var types []string

	switch node := v.(type) {
	case []any:
		for _, item := range node {
			types = append(types, jsonLDTypes(item)...)
		}
	case map[string]any:
		switch t := node["@type"].(type) {
		case string:
			types = append(types, t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					types = append(types, s)
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			types = append(types, jsonLDTypes(graph)...)
		}
	}

	return types
}

func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mediaType
}

func isNonHTML(mediaType string) bool {
	for _, prefix := range nonHTMLTypes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
