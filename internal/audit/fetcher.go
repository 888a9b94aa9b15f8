package audit

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"seoaudit/internal/tracing"
)

var errTooManyRedirects = errors.New("too many redirects")

// fetchedPage is the raw outcome of the primary GET
type fetchedPage struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	Header       http.Header
	Body         []byte
	TransferSize int64
	Redirects    int
	TTFB         time.Duration
	Duration     time.Duration
}

// fetchPage performs the single GET of the audited page. It does not retry.
func (a *Auditor) fetchPage(ctx context.Context, target string, timeout time.Duration) (*fetchedPage, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.fetch")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var firstByte atomic.Int64
	start := time.Now()
	trace := &httptrace.ClientTrace{
		// Fires once per hop; the last store belongs to the final response
		GotFirstResponseByte: func() {
			firstByte.Store(int64(time.Since(start)))
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(tracing.WithRequestKind(ctx, tracing.RequestPageFetch), trace), http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Reason: ReasonInvalidURL, Cause: err}
	}
	a.setRequestHeaders(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	// Requested explicitly so the transport leaves Content-Encoding visible
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), http.MethodGet, string(tracing.RequestPageFetch))
		fetchErr := classifyFetchError(target, err)
		tracing.SetError(ctx, fetchErr)
		return nil, fetchErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxBodyBytes+1))
	duration := time.Since(start)
	a.metrics.RecordHTTPClientRequest(resp.StatusCode, duration.Seconds(), http.MethodGet, string(tracing.RequestPageFetch))
	if err != nil {
		reason := ReasonBody
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return nil, &FetchError{URL: target, Reason: reason, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode >= 400 {
		fetchErr := &FetchError{URL: target, Reason: ReasonStatus, StatusCode: resp.StatusCode}
		tracing.SetError(ctx, fetchErr)
		return nil, fetchErr
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw, a.cfg.MaxBodyBytes)
	if err != nil {
		return nil, &ExtractionError{URL: finalURL, Reason: "undecodable content encoding", Cause: err}
	}
	if int64(len(body)) > a.cfg.MaxBodyBytes {
		body = body[:a.cfg.MaxBodyBytes]
	}

	ttfb := time.Duration(firstByte.Load())
	if ttfb == 0 {
		ttfb = duration
	}

	return &fetchedPage{
		RequestedURL: target,
		FinalURL:     finalURL,
		StatusCode:   resp.StatusCode,
		Header:       resp.Header.Clone(),
		Body:         body,
		TransferSize: int64(len(raw)),
		Redirects:    redirectHops(resp),
		TTFB:         ttfb,
		Duration:     duration,
	}, nil
}

// setRequestHeaders applies the headers shared by every outbound request
func (a *Auditor) setRequestHeaders(req *http.Request) {
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}
}

// checkRedirect caps the number of hops a client follows
func (a *Auditor) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > a.cfg.MaxRedirects {
		return errTooManyRedirects
	}
	return nil
}

// decodeBody undoes gzip or deflate transfer compression. At most limit+1
// decoded bytes are produced so the caller can tell the body was truncated.
func decodeBody(encoding string, raw []byte, limit int64) ([]byte, error) {
	readAll := func(r io.Reader) ([]byte, error) {
		return io.ReadAll(io.LimitReader(r, limit+1))
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr)
	case "deflate":
		// Servers disagree on whether deflate carries a zlib header
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			if out, err := readAll(zr); err == nil {
				return out, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		return readAll(fr)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// redirectHops counts the redirects the client followed to reach resp
func redirectHops(resp *http.Response) int {
	hops := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		hops++
	}
	return hops
}

// classifyFetchError maps a client error to a FetchError reason
func classifyFetchError(target string, err error) *FetchError {
	fe := &FetchError{URL: target, Cause: err}

	var (
		urlErr   *url.Error
		certErr  *tls.CertificateVerificationError
		hostErr  x509.HostnameError
		authErr  x509.UnknownAuthorityError
		recErr   tls.RecordHeaderError
		invalErr x509.CertificateInvalidError
	)

	switch {
	case errors.Is(err, errTooManyRedirects):
		fe.Reason = ReasonRedirectLoop
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr) && urlErr.Timeout():
		fe.Reason = ReasonTimeout
	case errors.As(err, &certErr), errors.As(err, &hostErr), errors.As(err, &authErr),
		errors.As(err, &recErr), errors.As(err, &invalErr):
		fe.Reason = ReasonTLS
	default:
		fe.Reason = ReasonNetwork
	}

	return fe
}
