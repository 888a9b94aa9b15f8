package models

import "time"

// LinkOutcome classifies the health of a checked link
type LinkOutcome string

const (
	LinkOutcomeOK       LinkOutcome = "ok"
	LinkOutcomeBroken   LinkOutcome = "broken"
	LinkOutcomeRedirect LinkOutcome = "redirect"
	LinkOutcomeTimeout  LinkOutcome = "timeout"
	LinkOutcomeError    LinkOutcome = "error"
)

// Unhealthy reports whether the outcome counts as a broken link
func (o LinkOutcome) Unhealthy() bool {
	return o == LinkOutcomeBroken || o == LinkOutcomeTimeout || o == LinkOutcomeError
}

// LinkCandidate is a link selected for health verification
type LinkCandidate struct {
	Link
	Priority int `json:"priority"`
}

// LinkResult is the verification outcome for one candidate
type LinkResult struct {
	Candidate  LinkCandidate `json:"candidate"`
	Outcome    LinkOutcome   `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Redirects  int           `json:"redirects"`
	FinalURL   string        `json:"final_url,omitempty"`
	Method     string        `json:"method,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Error      string        `json:"error,omitempty"`
}

// CategoryScore is the 0-100 score of one category
type CategoryScore struct {
	Category Category  `json:"category"`
	Score    int       `json:"score"`
	Weight   float64   `json:"weight"`
	Skipped  bool      `json:"skipped,omitempty"`
	Findings []Finding `json:"findings"`
}

// LinkStats summarizes link discovery and verification
type LinkStats struct {
	Discovered      int `json:"discovered"`
	Unique          int `json:"unique"`
	Sampled         int `json:"sampled"`
	Checked         int `json:"checked"`
	OK              int `json:"ok"`
	Broken          int `json:"broken"`
	Redirect        int `json:"redirect"`
	Timeout         int `json:"timeout"`
	Error           int `json:"error"`
	Internal        int `json:"internal"`
	External        int `json:"external"`
	MaxRedirectHops int `json:"max_redirect_hops"`
}

// Timings are the phase durations of one audit, in milliseconds
type Timings struct {
	TTFBMs      int64 `json:"ttfb_ms"`
	FetchMs     int64 `json:"fetch_ms"`
	AuxMs       int64 `json:"aux_ms"`
	ChecksMs    int64 `json:"checks_ms"`
	LinkCheckMs int64 `json:"link_check_ms"`
	TotalMs     int64 `json:"total_ms"`
	WorkersUsed int   `json:"workers_used"`
}

// AuditResult is the complete output of one audit
type AuditResult struct {
	ID                 string          `json:"id"`
	URL                string          `json:"url"`
	FinalURL           string          `json:"final_url"`
	AuditedAt          time.Time       `json:"audited_at"`
	FastMode           bool            `json:"fast_mode"`
	OverallScore       int             `json:"overall_score"`
	Grade              string          `json:"grade"`
	Categories         []CategoryScore `json:"categories"`
	Findings           []Finding       `json:"findings"`
	TopRecommendations []string        `json:"top_recommendations"`
	Links              LinkStats       `json:"links"`
	LinkResults        []LinkResult    `json:"link_results"`
	Timings            Timings         `json:"timings"`
	Site               SiteResources   `json:"site"`
	Page               *PageSnapshot   `json:"page"`
}

// Category returns the score of the given category
func (r *AuditResult) Category(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// AuditOptions are the per-invocation settings. Zero values fall back to the
// configured defaults.
type AuditOptions struct {
	Workers       int     `json:"workers,omitempty"`
	MaxLinks      *int    `json:"max_links,omitempty"`
	FastMode      bool    `json:"fast_mode,omitempty"`
	TimeoutMs     int     `json:"timeout_ms,omitempty"`
	InternalShare float64 `json:"internal_share,omitempty"`
}

// AuditPhase names a step of the audit pipeline
type AuditPhase string

const (
	PhaseFetching   AuditPhase = "fetching"
	PhaseExtracting AuditPhase = "extracting"
	PhaseAux        AuditPhase = "aux"
	PhaseChecking   AuditPhase = "checking"
	PhaseLinking    AuditPhase = "linking"
	PhaseScoring    AuditPhase = "scoring"
	PhaseCompleted  AuditPhase = "completed"
	PhaseFailed     AuditPhase = "failed"
)

// ProgressEvent reports audit progress to observers
type ProgressEvent struct {
	AuditID string      `json:"audit_id"`
	Phase   AuditPhase  `json:"phase"`
	Link    *LinkResult `json:"link,omitempty"`
	Checked int         `json:"checked,omitempty"`
	Total   int         `json:"total,omitempty"`
}

// AuditError is the serializable form of a fatal audit error
type AuditError struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}
