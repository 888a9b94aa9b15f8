package audit

import (
	"fmt"
	"math"
	"sort"

	"seoaudit/internal/config"
	"seoaudit/internal/models"
)

const (
	maxTopRecommendations = 5
	longRedirectChain     = 2
)

// Scorecard is the scored view of one audit
type Scorecard struct {
	Categories         []models.CategoryScore
	Findings           []models.Finding
	Overall            int
	Grade              string
	TopRecommendations []string
}

// Score turns findings and link results into category scores, an overall score
// and a grade. It is a pure function of its inputs. When linksChecked is false
// the links category is skipped and left out of the overall score.
func Score(findings []models.Finding, results []models.LinkResult, linksChecked bool, cfg config.ScoringConfig) Scorecard {
	all := make([]models.Finding, 0, len(findings)+3)
	all = append(all, findings...)
	if linksChecked {
		all = append(all, linkFindings(results)...)
	}
	sortFindings(all)

	byCategory := make(map[models.Category][]models.Finding)
	for _, f := range all {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	var (
		card        = Scorecard{Findings: all}
		weighted    float64
		totalWeight float64
	)

	for _, c := range models.Categories {
		cs := models.CategoryScore{
			Category: c,
			Score:    categoryScore(byCategory[c], cfg),
			Weight:   cfg.Weights[string(c)],
			Findings: byCategory[c],
		}
		if cs.Findings == nil {
			cs.Findings = []models.Finding{}
		}

		if c == models.CategoryLinks && !linksChecked {
			cs.Skipped = true
		} else {
			weighted += cs.Weight * float64(cs.Score)
			totalWeight += cs.Weight
		}

		card.Categories = append(card.Categories, cs)
	}

	card.Overall = 100
	if totalWeight > 0 {
		card.Overall = int(math.Round(weighted / totalWeight))
	}
	card.Grade = Grade(card.Overall)
	card.TopRecommendations = topRecommendations(all)

	return card
}

// categoryScore deducts the configured points per finding, never below zero
func categoryScore(findings []models.Finding, cfg config.ScoringConfig) int {
	score := 100
	for _, f := range findings {
		score -= deduction(f.Severity, cfg)
	}
	return max(score, 0)
}

func deduction(s models.Severity, cfg config.ScoringConfig) int {
	switch s {
	case models.SeverityHigh:
		return cfg.DeductHigh
	case models.SeverityMedium:
		return cfg.DeductMedium
	default:
		return cfg.DeductLow
	}
}

// Grade maps an overall score to a letter
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// linkFindings summarizes unhealthy links and long redirect chains
func linkFindings(results []models.LinkResult) []models.Finding {
	var brokenInternal, brokenExternal, longChains int
	for _, r := range results {
		switch {
		case r.Outcome.Unhealthy() && r.Candidate.Internal:
			brokenInternal++
		case r.Outcome.Unhealthy():
			brokenExternal++
		}
		if r.Redirects > longRedirectChain {
			longChains++
		}
	}

	var findings []models.Finding
	add := func(f models.Finding) {
		f.Check = "link_health"
		f.Category = models.CategoryLinks
		findings = append(findings, f)
	}

	if brokenInternal > 0 {
		add(finding(models.SeverityHigh,
			"Broken internal links",
			fmt.Sprintf("%d internal links are broken or unreachable.", brokenInternal),
			"Fix or remove broken internal links so visitors and crawlers reach every page."))
	}
	if brokenExternal > 0 {
		add(finding(models.SeverityMedium,
			"Broken external links",
			fmt.Sprintf("%d external links are broken or unreachable.", brokenExternal),
			"Update or remove links to external pages that no longer resolve."))
	}
	if longChains > 0 {
		add(finding(models.SeverityLow,
			"Long redirect chains",
			fmt.Sprintf("%d links pass through more than %d redirects.", longChains, longRedirectChain),
			"Link directly to the final destination to avoid redirect chains."))
	}

	return findings
}

// sortFindings orders by severity, then category, then registry position
func sortFindings(findings []models.Finding) {
	categoryRank := make(map[models.Category]int, len(models.Categories))
	for i, c := range models.Categories {
		categoryRank[c] = i
	}

	checkRank := func(name string) int {
		if i, ok := registryIndex[name]; ok {
			return i
		}
		return len(registry)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if categoryRank[a.Category] != categoryRank[b.Category] {
			return categoryRank[a.Category] < categoryRank[b.Category]
		}
		return checkRank(a.Check) < checkRank(b.Check)
	})
}

func topRecommendations(sorted []models.Finding) []string {
	seen := make(map[string]bool)
	recs := []string{}
	for _, f := range sorted {
		if f.Recommendation == "" || seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		recs = append(recs, f.Recommendation)
		if len(recs) == maxTopRecommendations {
			break
		}
	}
	return recs
}
