package audit

import (
	"fmt"

	"seoaudit/internal/models"
)

func checkRobotsTxt(_ *models.PageSnapshot, site models.SiteResources) []models.Finding {
	robots := site.Robots
	switch {
	case !robots.Found:
		return one(finding(models.SeverityLow,
			"robots.txt not reachable",
			auxDescription("robots.txt", robots.AuxResource),
			"Publish a robots.txt at the site root that references the sitemap."))
	case robots.Empty:
		return one(finding(models.SeverityLow,
			"robots.txt is empty",
			"robots.txt exists but contains nothing.",
			"Add crawl rules and a Sitemap: line to robots.txt."))
	case robots.DisallowAll:
		return one(finding(models.SeverityMedium,
			"robots.txt blocks all crawlers",
			"robots.txt disallows / for User-agent: *.",
			"Remove Disallow: / unless the whole site should stay out of search."))
	case !robots.HasRules:
		return one(finding(models.SeverityLow,
			"robots.txt has no rules",
			"robots.txt has no rule group that applies to User-agent: *.",
			"Add explicit crawl rules for User-agent: *."))
	}
	return nil
}

func checkSitemapXML(_ *models.PageSnapshot, site models.SiteResources) []models.Finding {
	sitemap := site.Sitemap
	switch {
	case !sitemap.Found:
		return one(finding(models.SeverityLow,
			"sitemap.xml not reachable",
			auxDescription("sitemap.xml", sitemap.AuxResource),
			"Publish an XML sitemap and reference it from robots.txt."))
	case !sitemap.Valid:
		return one(finding(models.SeverityLow,
			"sitemap.xml is not a valid sitemap",
			"The sitemap is not a urlset or sitemapindex document.",
			"Serve a sitemap following the sitemaps.org protocol."))
	}
	return nil
}

func auxDescription(name string, r models.AuxResource) string {
	switch {
	case r.Error != "":
		return fmt.Sprintf("%s could not be fetched: %s.", name, r.Error)
	case r.StatusCode != 0:
		return fmt.Sprintf("%s answered with HTTP %d.", name, r.StatusCode)
	default:
		return fmt.Sprintf("%s could not be fetched.", name)
	}
}
