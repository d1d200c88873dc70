// Package crawler holds the business-rule layer for how a crawl behaves per
// site: which domains/depths are in bounds, which links get followed, which
// selectors bound the content region, and how aggressively the frontier
// paces requests. It sits above engine/internal/crawler (the mechanism that
// actually fetches pages and walks the spider frontier) the same way
// engine/internal/business/processor sits above the extraction strategies.
package crawler

import "time"

// SitePolicy is the crawl-mechanism view of one site's crawlability: whether
// it's in scope at all, and how deep the frontier may descend into it.
type SitePolicy struct {
	Allowed  bool
	MaxDepth int
}

// LinkFollowingPolicy bounds how the frontier expands outbound links.
type LinkFollowingPolicy struct {
	MaxDepth       int
	FollowExternal bool
}

// ContentSelectionPolicy names the CSS selectors extraction should treat as
// the content region, with per-site overrides of a package-wide default —
// the same default/override shape engine/configx's SiteCrawlerRule uses.
type ContentSelectionPolicy struct {
	DefaultSelectors []string
	SiteSelectors    map[string][]string
}

// RateLimitingPolicy sets the frontier's per-request pacing, with optional
// per-site overrides for hosts that need a gentler (or can tolerate a
// faster) crawl rate than the default.
type RateLimitingPolicy struct {
	DefaultDelay time.Duration
	SiteDelays   map[string]time.Duration
}

// CrawlingBusinessPolicy bundles every site-scoped rule a crawl consults
// before visiting a URL: is it in scope, how deep can it go, what counts as
// content, how fast can it be hit.
type CrawlingBusinessPolicy struct {
	SiteRules    map[string]*SitePolicy
	LinkRules    *LinkFollowingPolicy
	ContentRules *ContentSelectionPolicy
	RateRules    *RateLimitingPolicy
}

// ContentExtractionRules defines rules for extracting content from a site.
type ContentExtractionRules struct {
	Selectors    []string
	ExcludeRules []string
}

// SiteRateLimitRules defines site-specific rate limiting rules.
type SiteRateLimitRules struct {
	RequestDelay  time.Duration
	MaxConcurrent int
}

// SiteSpecificPolicy contains all site-specific rules and policies.
type SiteSpecificPolicy struct {
	Domain    string
	Crawling  SitePolicy
	Content   ContentExtractionRules
	RateLimit SiteRateLimitRules
}
