package audit

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"seoaudit/internal/models"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	titleMinLen       = 30
	titleMaxLen       = 60
	descriptionMinLen = 120
	descriptionMaxLen = 160
)

func checkHTTPStatus(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.StatusCode >= 200 && p.StatusCode < 300 {
		return nil
	}
	return one(finding(models.SeverityHigh,
		"Page does not return a success status",
		fmt.Sprintf("The page answered with HTTP %d.", p.StatusCode),
		"Serve the page with a 200 status so search engines index it."))
}

func checkTitle(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	n := utf8.RuneCountInString(p.Title)
	switch {
	case n == 0:
		return one(finding(models.SeverityHigh,
			"Missing title tag",
			"The page has no title or the title is empty.",
			"Add a unique, descriptive <title> of 30 to 60 characters."))
	case n < titleMinLen:
		return one(finding(models.SeverityMedium,
			"Title too short",
			fmt.Sprintf("The title is %d characters long.", n),
			"Lengthen the title to 30 to 60 characters and include the main keyword."))
	case n > titleMaxLen:
		return one(finding(models.SeverityMedium,
			"Title too long",
			fmt.Sprintf("The title is %d characters long and will be truncated in results.", n),
			"Shorten the title to at most 60 characters."))
	}
	return nil
}

func checkMetaDescription(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	n := utf8.RuneCountInString(p.MetaDescription)
	switch {
	case n == 0:
		return one(finding(models.SeverityMedium,
			"Missing meta description",
			"The page has no meta description.",
			"Add a meta description of 120 to 160 characters summarizing the page."))
	case n < descriptionMinLen || n > descriptionMaxLen:
		return one(finding(models.SeverityMedium,
			"Meta description length out of range",
			fmt.Sprintf("The meta description is %d characters long.", n),
			"Keep the meta description between 120 and 160 characters."))
	}
	return nil
}

func checkH1(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	switch {
	case len(p.H1) == 0:
		return one(finding(models.SeverityMedium,
			"Missing H1 heading",
			"The page has no <h1> element.",
			"Add a single <h1> describing the main topic of the page."))
	case len(p.H1) > 1:
		return one(finding(models.SeverityLow,
			"Multiple H1 headings",
			fmt.Sprintf("The page has %d <h1> elements.", len(p.H1)),
			"Use one <h1> and demote the others to <h2> or lower."))
	}
	return nil
}

func checkImageAlt(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if len(p.Images) == 0 {
		return nil
	}

	missing := 0
	for _, img := range p.Images {
		if !img.HasAlt {
			missing++
		}
	}
	if missing == 0 {
		return nil
	}

	share := float64(missing) / float64(len(p.Images))
	sev := models.SeverityLow
	switch {
	case share > 0.5:
		sev = models.SeverityHigh
	case share >= 0.1:
		sev = models.SeverityMedium
	}

	return one(finding(sev,
		"Images without alt text",
		fmt.Sprintf("%d of %d images have no alt attribute.", missing, len(p.Images)),
		"Describe every meaningful image with an alt attribute; use alt=\"\" for decorative ones."))
}

func checkCanonical(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Canonical == "" {
		return one(finding(models.SeverityMedium,
			"Missing canonical link",
			"The page does not declare a canonical URL.",
			"Add <link rel=\"canonical\"> pointing at the preferred URL of this page."))
	}

	canonical, err := url.Parse(p.Canonical)
	if err != nil {
		return nil
	}
	final, err := url.Parse(p.FinalURL)
	if err != nil {
		return nil
	}

	if !sameSite(canonical, final) {
		return one(finding(models.SeverityMedium,
			"Canonical points to another host",
			fmt.Sprintf("The canonical URL %s is on a different host than the page.", p.Canonical),
			"Point the canonical link at this site unless the content is intentionally syndicated."))
	}
	return nil
}

func checkLang(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Lang != "" {
		return nil
	}
	return one(finding(models.SeverityLow,
		"Missing document language",
		"The <html> element has no lang attribute.",
		"Declare the page language, for example <html lang=\"en\">."))
}

func checkCharset(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if p.Charset == "" {
		return one(finding(models.SeverityLow,
			"Missing character encoding",
			"Neither the markup nor the Content-Type header declares a charset.",
			"Declare <meta charset=\"utf-8\"> at the top of <head>."))
	}

	if _, err := htmlindex.Get(p.Charset); err != nil {
		return one(finding(models.SeverityLow,
			"Unknown character encoding",
			fmt.Sprintf("The declared charset %q is not a recognized encoding.", p.Charset),
			"Declare a standard encoding such as utf-8."))
	}
	return nil
}

func checkHreflang(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if len(p.Hreflangs) > 0 {
		for _, h := range p.Hreflangs {
			if h.Lang == "x-default" {
				return nil
			}
		}
		return one(finding(models.SeverityLow,
			"Missing x-default hreflang",
			fmt.Sprintf("The page lists %d hreflang alternates but none is x-default.", len(p.Hreflangs)),
			"Add an hreflang=\"x-default\" alternate for users matching no listed language."))
	}

	if len(p.LocaleAlternates) > 0 || languagePrefixes(p.Links) >= 2 {
		return one(finding(models.SeverityLow,
			"Missing hreflang annotations",
			"The site appears to serve several languages but the page has no hreflang links.",
			"Add hreflang alternates linking each language version of this page."))
	}
	return nil
}

// languagePrefixes counts distinct language-like first path segments of internal links
func languagePrefixes(links []models.Link) int {
	seen := make(map[string]bool)
	for _, l := range links {
		if !l.Internal {
			continue
		}
		u, err := url.Parse(l.Href)
		if err != nil {
			continue
		}
		segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if isLanguageTag(segment) {
			seen[strings.ToLower(segment)] = true
		}
	}
	return len(seen)
}

// isLanguageTag accepts "en", "de" and region forms like "en-us" or "pt_br"
func isLanguageTag(s string) bool {
	lang, region, hasRegion := strings.Cut(strings.ReplaceAll(s, "_", "-"), "-")
	if len(lang) != 2 || !isLetters(lang) {
		return false
	}
	if hasRegion {
		return len(region) == 2 && isLetters(region)
	}
	return true
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func checkViewport(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if !p.HasViewport {
		return one(finding(models.SeverityMedium,
			"Missing viewport meta tag",
			"The page does not declare a viewport, so mobile browsers render it zoomed out.",
			"Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">."))
	}

	compact := strings.ReplaceAll(strings.ToLower(p.Viewport), " ", "")
	if !strings.Contains(compact, "width=device-width") {
		return one(finding(models.SeverityLow,
			"Viewport does not use device width",
			fmt.Sprintf("The viewport is %q.", p.Viewport),
			"Set width=device-width in the viewport meta tag."))
	}
	return nil
}

func checkRobotsMeta(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	var findings []models.Finding
	if p.HasRobotsDirective("noindex") || p.HasRobotsDirective("none") {
		findings = append(findings, finding(models.SeverityHigh,
			"Page blocked from indexing",
			"A robots meta tag or X-Robots-Tag header contains noindex.",
			"Remove noindex if this page should appear in search results."))
	}
	if p.HasRobotsDirective("nofollow") || p.HasRobotsDirective("none") {
		findings = append(findings, finding(models.SeverityHigh,
			"Links on page not followed",
			"A robots meta tag or X-Robots-Tag header contains nofollow.",
			"Remove nofollow so crawlers can discover the pages linked from here."))
	}
	return findings
}

func checkOpenGraph(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if len(p.OpenGraph) == 0 {
		return one(finding(models.SeverityMedium,
			"Missing Open Graph tags",
			"The page has no og: meta tags, so shared links render without a preview.",
			"Add og:title, og:description, og:image and og:url meta tags."))
	}

	var missing []string
	for _, key := range []string{"og:title", "og:description", "og:image"} {
		if p.OpenGraph[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return one(finding(models.SeverityLow,
			"Incomplete Open Graph tags",
			fmt.Sprintf("Missing %s.", strings.Join(missing, ", ")),
			"Complete the Open Graph set with title, description and image."))
	}
	return nil
}

func checkTwitterCard(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if len(p.TwitterCard) > 0 {
		return nil
	}
	return one(finding(models.SeverityLow,
		"Missing Twitter card tags",
		"The page has no twitter: meta tags.",
		"Add twitter:card and twitter:title meta tags."))
}

func checkStructuredData(p *models.PageSnapshot, _ models.SiteResources) []models.Finding {
	if len(p.JSONLD) == 0 {
		return one(finding(models.SeverityLow,
			"No structured data",
			"The page has no JSON-LD blocks.",
			"Describe the page with schema.org JSON-LD to qualify for rich results."))
	}

	invalid := 0
	for _, b := range p.JSONLD {
		if !b.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return one(finding(models.SeverityMedium,
			"Invalid structured data",
			fmt.Sprintf("%d of %d JSON-LD blocks could not be parsed.", invalid, len(p.JSONLD)),
			"Fix the JSON syntax of the structured data blocks."))
	}
	return nil
}
