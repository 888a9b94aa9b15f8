package audit

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL trims the input and adds an https scheme when none is given
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}

	if !schemePrefix.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", errors.New("hostname is required")
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""

	return u.String(), nil
}

// shouldFollowHref filters out hrefs that do not point at a fetchable document
func shouldFollowHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}

	excludedPrefixes := []string{
		"#", "javascript:", "mailto:", "tel:", "data:", "about:", "sms:", "ftp:",
	}

	lower := strings.ToLower(href)
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}

	return true
}

// resolveReference resolves href against base and keeps only http(s) results
func resolveReference(base *url.URL, href string) (*url.URL, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	if resolved.Host == "" {
		return nil, false
	}

	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved, true
}

// siteHost lower-cases a host name and drops a leading www.
func siteHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// sameSite reports whether two URLs point at the same host, ignoring www.
func sameSite(a, b *url.URL) bool {
	return siteHost(a.Hostname()) == siteHost(b.Hostname())
}

// originOf returns scheme://host of u
func originOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
