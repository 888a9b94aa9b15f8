package audit

import "seoaudit/internal/models"

// check is one rule of the registry. run must be pure: it reads the snapshot and
// the site resources and nothing else.
type check struct {
	name     string
	category models.Category
	run      func(p *models.PageSnapshot, site models.SiteResources) []models.Finding
}

// registry is the fixed, ordered set of checks. Findings are reported in this
// order within a severity and category.
var registry = []check{
	{"http_status", models.CategoryTechnical, checkHTTPStatus},
	{"title", models.CategoryTechnical, checkTitle},
	{"meta_description", models.CategoryTechnical, checkMetaDescription},
	{"h1", models.CategoryTechnical, checkH1},
	{"image_alt", models.CategoryTechnical, checkImageAlt},
	{"canonical", models.CategoryTechnical, checkCanonical},
	{"lang", models.CategoryTechnical, checkLang},
	{"charset", models.CategoryTechnical, checkCharset},
	{"hreflang", models.CategoryTechnical, checkHreflang},

	{"viewport", models.CategoryMobile, checkViewport},

	{"robots_meta", models.CategoryRobots, checkRobotsMeta},
	{"robots_txt", models.CategoryRobots, checkRobotsTxt},
	{"sitemap_xml", models.CategoryRobots, checkSitemapXML},

	{"open_graph", models.CategorySocial, checkOpenGraph},
	{"twitter_card", models.CategorySocial, checkTwitterCard},
	{"structured_data", models.CategorySocial, checkStructuredData},

	{"ttfb", models.CategoryPerformance, checkTTFB},
	{"page_size", models.CategoryPerformance, checkPageSize},
	{"compression", models.CategoryPerformance, checkCompression},

	{"content_type_options", models.CategorySecurity, checkContentTypeOptions},
	{"frame_options", models.CategorySecurity, checkFrameOptions},
	{"referrer_policy", models.CategorySecurity, checkReferrerPolicy},
	{"content_security_policy", models.CategorySecurity, checkContentSecurityPolicy},
	{"hsts", models.CategorySecurity, checkHSTS},
}

// registryIndex maps a check name to its registry position
var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, c := range registry {
		idx[c.name] = i
	}
	return idx
}()

// RunChecks evaluates every registered check. The result depends only on its inputs.
func RunChecks(p *models.PageSnapshot, site models.SiteResources) []models.Finding {
	var findings []models.Finding
	for _, c := range registry {
		for _, f := range c.run(p, site) {
			f.Check = c.name
			f.Category = c.category
			findings = append(findings, f)
		}
	}
	return findings
}

func finding(sev models.Severity, title, description, recommendation string) models.Finding {
	return models.Finding{
		Title:          title,
		Severity:       sev,
		Description:    description,
		Recommendation: recommendation,
	}
}

func one(f models.Finding) []models.Finding {
	return []models.Finding{f}
}
