package audit

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"seoaudit/internal/models"
)

var contextPriority = map[models.LinkContext]int{
	models.LinkContextNav:     10,
	models.LinkContextMain:    8,
	models.LinkContextHeader:  6,
	models.LinkContextContent: 5,
	models.LinkContextSidebar: 2,
	models.LinkContextFooter:  2,
}

const (
	anchorTextBonus = 2
	trackingPenalty = 5
)

// lowValueHosts are social and ad-serving domains; subdomains match too
var lowValueHosts = []string{
	"facebook.com", "twitter.com", "x.com", "linkedin.com", "instagram.com",
	"pinterest.com", "youtube.com", "tiktok.com",
	"doubleclick.net", "googlesyndication.com", "adservice.google.com",
	"google-analytics.com", "googletagmanager.com",
}

// lowValuePathMarkers identify ad, share and tracking paths or query strings
var lowValuePathMarkers = []string{
	"/ads/", "adclick", "/analytics", "utm_", "trk=", "/track", "tracking", "pixel", "share?", "sharer",
}

// SampleLinks selects at most limit links for verification. It is deterministic:
// ties in priority are broken by discovery order. unique is the number of
// distinct hrefs before selection.
func SampleLinks(links []models.Link, limit int, internalShare float64) (candidates []models.LinkCandidate, unique int) {
	deduped := dedupeLinks(links)
	unique = len(deduped)
	if limit <= 0 || unique == 0 {
		return nil, unique
	}

	if unique <= limit {
		return deduped, unique
	}

	var internal, external []models.LinkCandidate
	for _, c := range deduped {
		if c.Internal {
			internal = append(internal, c)
		} else {
			external = append(external, c)
		}
	}
	byPriority(internal)
	byPriority(external)

	internalQuota := int(math.Ceil(float64(limit) * internalShare))
	internalQuota = min(internalQuota, limit)
	externalQuota := limit - internalQuota

	// Unused quota of one class flows to the other
	if len(internal) < internalQuota {
		externalQuota += internalQuota - len(internal)
		internalQuota = len(internal)
	}
	if len(external) < externalQuota {
		internalQuota = min(len(internal), internalQuota+externalQuota-len(external))
		externalQuota = len(external)
	}

	candidates = make([]models.LinkCandidate, 0, internalQuota+externalQuota)
	candidates = append(candidates, internal[:internalQuota]...)
	candidates = append(candidates, external[:externalQuota]...)
	byPriority(candidates)

	return candidates, unique
}

// dedupeLinks keeps the first occurrence of each href and the best priority seen for it
func dedupeLinks(links []models.Link) []models.LinkCandidate {
	index := make(map[string]int, len(links))
	out := make([]models.LinkCandidate, 0, len(links))

	for _, l := range links {
		href := stripFragment(l.Href)
		p := linkPriority(l)

		if i, ok := index[href]; ok {
			if p > out[i].Priority {
				out[i].Priority = p
				out[i].Context = l.Context
			}
			continue
		}

		l.Href = href
		index[href] = len(out)
		out = append(out, models.LinkCandidate{Link: l, Priority: p})
	}

	return out
}

// linkPriority weights a link by page region, anchor text and href markers
func linkPriority(l models.Link) int {
	p, ok := contextPriority[l.Context]
	if !ok {
		p = contextPriority[models.LinkContextContent]
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(l.Text)); n >= 3 && n <= 50 {
		p += anchorTextBonus
	}

	if isLowValueHref(l.Href) {
		p -= trackingPenalty
	}

	return p
}

func isLowValueHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range lowValueHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}

	rest := strings.ToLower(u.EscapedPath())
	if u.RawQuery != "" {
		rest += "?" + strings.ToLower(u.RawQuery)
	}
	for _, marker := range lowValuePathMarkers {
		if strings.Contains(rest, marker) {
			return true
		}
	}
	return false
}

// byPriority orders candidates by priority, highest first, then by discovery position
func byPriority(c []models.LinkCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Priority != c[j].Priority {
			return c[i].Priority > c[j].Priority
		}
		return c[i].Position < c[j].Position
	})
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
