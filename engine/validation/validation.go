// Package validation holds the request- and URL-normalization checks shared
// across the spider engine and pipeline orchestrator. The cosmetic-query
// stripping and allowed-domain matching are promoted out of
// engine/internal/crawler.Crawler's normalizeURL/isAllowedURL into a
// standalone, independently testable form; CrawlRequest-level checks are
// grounded on the riptide-core common/validation.rs constructor guards.
package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
)

// NormalizeURL strips the fragment and cosmetic query parameters (theme,
// utm_*) that don't affect the fetched content, so otherwise-identical URLs
// dedup to the same RequestFingerprint.
func NormalizeURL(u *url.URL) string {
	normalized := *u
	normalized.Fragment = ""
	if normalized.RawQuery != "" {
		q := normalized.Query()
		q.Del("theme")
		for key := range q {
			if strings.HasPrefix(key, "utm_") {
				q.Del(key)
			}
		}
		if len(q) == 0 {
			normalized.RawQuery = ""
		} else {
			normalized.RawQuery = q.Encode()
		}
	}
	return normalized.String()
}

// Fingerprint builds the RequestFingerprint used for cache keys and dedup
// from a normalized URL and HTTP method.
func Fingerprint(u *url.URL, method string) models.RequestFingerprint {
	if method == "" {
		method = "GET"
	}
	return models.RequestFingerprint{NormalizedURL: NormalizeURL(u), Method: method}
}

// IsAllowedDomain reports whether u's host matches one of allowedDomains
// exactly or as a subdomain.
func IsAllowedDomain(u *url.URL, allowedDomains []string) bool {
	for _, domain := range allowedDomains {
		if u.Host == domain || strings.HasSuffix(u.Host, "."+domain) {
			return true
		}
	}
	return false
}

// ValidateCrawlRequest checks the invariants a CrawlRequest must satisfy
// before being admitted to the spider frontier: a parseable absolute URL,
// non-negative depth, and (if allowedDomains is non-empty) host membership.
func ValidateCrawlRequest(req models.CrawlRequest, allowedDomains []string) error {
	if req.URL == nil {
		return fmt.Errorf("validation: %w", models.ErrMissingStartURL)
	}
	if !req.URL.IsAbs() {
		return fmt.Errorf("validation: URL must be absolute: %s", req.URL.String())
	}
	if req.Depth < 0 {
		return fmt.Errorf("validation: %w", models.ErrInvalidMaxDepth)
	}
	if len(allowedDomains) > 0 && !IsAllowedDomain(req.URL, allowedDomains) {
		return fmt.Errorf("validation: %w: %s", models.ErrURLNotAllowed, req.URL.Host)
	}
	return nil
}

// ValidateSeeds checks a list of seed URL strings, returning the parsed
// *url.URL for each valid entry and collecting errors for invalid ones
// rather than failing the whole batch on the first bad seed.
func ValidateSeeds(raw []string) (valid []*url.URL, errs []error) {
	for _, s := range raw {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("validation: invalid seed %q", s))
			continue
		}
		valid = append(valid, u)
	}
	return valid, errs
}
