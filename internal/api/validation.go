package api

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"seoaudit/internal/audit"
)

const maxURLLength = 2048

// validHostnameRegex is a regular expression to validate hostnames
var validHostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// validateURL normalizes the audit target and rejects hosts the service must not
// reach. Loopback and private addresses pass only when allowPrivate is set.
func validateURL(rawURL string, allowPrivate bool) (string, error) {
	if len(strings.TrimSpace(rawURL)) > maxURLLength {
		return "", fmt.Errorf("url too long (max %d characters)", maxURLLength)
	}

	normalized, err := audit.NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("invalid url format: %w", err)
	}

	if err := validateHostname(u.Hostname(), allowPrivate); err != nil {
		return "", fmt.Errorf("invalid hostname: %w", err)
	}

	return normalized, nil
}

// validateHostname validates the hostname
func validateHostname(hostname string, allowPrivate bool) error {
	if len(hostname) > 253 {
		return errors.New("hostname too long (max 253 characters)")
	}

	ip := net.ParseIP(hostname)
	if ip == nil && !validHostnameRegex.MatchString(hostname) {
		return errors.New("invalid hostname or IP address format")
	}

	if allowPrivate {
		return nil
	}

	if isLocalhost(hostname) {
		return errors.New("localhost and loopback addresses are not allowed")
	}

	if ip != nil && isPrivateIP(ip) {
		return errors.New("private IP addresses are not allowed")
	}

	return nil
}

// isLocalhost checks if the hostname is a localhost address
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}

	ip := net.ParseIP(hostname)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

// isPrivateIP reports RFC 1918, unique local and link-local addresses
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
