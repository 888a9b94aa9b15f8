package models

import (
	"net/http"
	"time"
)

// Category is an audit dimension that receives its own score
type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryPerformance Category = "performance"
	CategoryMobile      Category = "mobile"
	CategorySecurity    Category = "security"
	CategorySocial      Category = "social"
	CategoryRobots      Category = "robots"
	CategoryLinks       Category = "links"
)

// Categories lists every category in reporting order
var Categories = []Category{
	CategoryTechnical,
	CategoryPerformance,
	CategoryMobile,
	CategorySecurity,
	CategorySocial,
	CategoryRobots,
	CategoryLinks,
}

// Severity ranks how much a finding hurts its category
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities, high first
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Finding is one reported issue
type Finding struct {
	Check          string   `json:"check"`
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// LinkContext is the page region a hyperlink was found in
type LinkContext string

const (
	LinkContextNav     LinkContext = "nav"
	LinkContextMain    LinkContext = "main"
	LinkContextHeader  LinkContext = "header"
	LinkContextContent LinkContext = "content"
	LinkContextSidebar LinkContext = "sidebar"
	LinkContextFooter  LinkContext = "footer"
)

// Link is a hyperlink discovered on the page
type Link struct {
	Href     string      `json:"href"`
	Text     string      `json:"text"`
	Internal bool        `json:"internal"`
	Context  LinkContext `json:"context"`
	Position int         `json:"position"`
}

// Image is an img element and whether it carries alt text
type Image struct {
	Src    string `json:"src"`
	HasAlt bool   `json:"has_alt"`
}

// Hreflang is one alternate language link
type Hreflang struct {
	Lang string `json:"lang"`
	Href string `json:"href"`
}

// JSONLDBlock is a raw structured data script and its parse outcome
type JSONLDBlock struct {
	Raw   string   `json:"raw"`
	Valid bool     `json:"valid"`
	Error string   `json:"error,omitempty"`
	Types []string `json:"types,omitempty"`
}

// PageSnapshot holds every fact the checks read. It is built once per audit and
// must not be modified afterwards.
type PageSnapshot struct {
	RequestedURL  string        `json:"requested_url"`
	FinalURL      string        `json:"final_url"`
	StatusCode    int           `json:"status_code"`
	Headers       http.Header   `json:"headers"`
	ContentType   string        `json:"content_type"`
	BodySize      int64         `json:"body_size"`
	TransferSize  int64         `json:"transfer_size"`
	Redirects     int           `json:"redirects"`
	TTFB          time.Duration `json:"ttfb_ns"`
	FetchDuration time.Duration `json:"fetch_duration_ns"`

	Title            string            `json:"title"`
	MetaDescription  string            `json:"meta_description"`
	H1               []string          `json:"h1"`
	Images           []Image           `json:"images"`
	Canonical        string            `json:"canonical"`
	HasViewport      bool              `json:"has_viewport"`
	Viewport         string            `json:"viewport"`
	RobotsDirectives []string          `json:"robots_directives"`
	Lang             string            `json:"lang"`
	Charset          string            `json:"charset"`
	Hreflangs        []Hreflang        `json:"hreflangs"`
	LocaleAlternates []string          `json:"locale_alternates"`
	OpenGraph        map[string]string `json:"open_graph"`
	TwitterCard      map[string]string `json:"twitter_card"`
	JSONLD           []JSONLDBlock     `json:"json_ld"`
	Links            []Link            `json:"links"`
}

// HasRobotsDirective reports whether the page carries the given robots directive
func (p *PageSnapshot) HasRobotsDirective(directive string) bool {
	for _, d := range p.RobotsDirectives {
		if d == directive {
			return true
		}
	}
	return false
}

// AuxResource is the outcome of a small auxiliary fetch at the site root
type AuxResource struct {
	URL        string `json:"url"`
	Found      bool   `json:"found"`
	StatusCode int    `json:"status_code,omitempty"`
	Size       int    `json:"size"`
	Error      string `json:"error,omitempty"`
}

// RobotsTxt describes the site's robots.txt
type RobotsTxt struct {
	AuxResource
	Empty       bool     `json:"empty"`
	HasRules    bool     `json:"has_rules"`
	DisallowAll bool     `json:"disallow_all"`
	Sitemaps    []string `json:"sitemaps,omitempty"`
}

// SitemapXML describes the site's sitemap
type SitemapXML struct {
	AuxResource
	Valid       bool   `json:"valid"`
	RootElement string `json:"root_element,omitempty"`
	URLCount    int    `json:"url_count"`
}

// SiteResources carries the auxiliary fetch results the site level checks read
type SiteResources struct {
	Robots  RobotsTxt  `json:"robots"`
	Sitemap SitemapXML `json:"sitemap"`
}
