package audit

import (
	"errors"
	"fmt"

	"seoaudit/internal/models"
)

// Error kinds reported to callers
const (
	KindFetch          = "fetch"
	KindAuxFetch       = "aux_fetch"
	KindExtraction     = "extraction"
	KindInternal       = "internal"
	KindInvalidRequest = "invalid_request"
)

// FetchReason classifies why the primary fetch failed
type FetchReason string

const (
	ReasonInvalidURL   FetchReason = "invalid_url"
	ReasonTimeout      FetchReason = "timeout"
	ReasonTLS          FetchReason = "tls"
	ReasonNetwork      FetchReason = "network"
	ReasonRedirectLoop FetchReason = "redirect_loop"
	ReasonStatus       FetchReason = "status"
	ReasonBody         FetchReason = "body"
)

// FetchError means the target page could not be retrieved. No result is produced.
type FetchError struct {
	URL        string
	Reason     FetchReason
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// AuxFetchError means robots.txt or sitemap.xml could not be retrieved.
// It is recorded on the site resources and never aborts an audit.
type AuxFetchError struct {
	Resource   string
	URL        string
	StatusCode int
	Cause      error
}

func (e *AuxFetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable at %s: %v", e.Resource, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s unavailable at %s: HTTP %d", e.Resource, e.URL, e.StatusCode)
}

func (e *AuxFetchError) Unwrap() error {
	return e.Cause
}

// ExtractionError means the body held no usable document
type ExtractionError struct {
	URL    string
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ToAuditError converts a fatal audit error to its serializable form
func ToAuditError(err error) *models.AuditError {
	if err == nil {
		return nil
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return &models.AuditError{
			Kind:       KindFetch,
			Message:    fetchErr.Error(),
			URL:        fetchErr.URL,
			StatusCode: fetchErr.StatusCode,
		}
	}

	var extractErr *ExtractionError
	if errors.As(err, &extractErr) {
		return &models.AuditError{
			Kind:    KindExtraction,
			Message: extractErr.Error(),
			URL:     extractErr.URL,
		}
	}

	return &models.AuditError{Kind: KindInternal, Message: err.Error()}
}
