package crawler

import (
	"context"
	"net/url"
	"time"
)

// FetchResult is a single page pulled from the frontier: the raw bytes the
// extraction strategies (engine/strategies) will run against, plus the
// outbound links the spider frontier (engine/spider) will score and enqueue.
type FetchResult struct {
	URL      *url.URL
	Content  []byte
	Headers  map[string]string
	Status   int
	Links    []*url.URL
	Metadata map[string]interface{}
}

// FetchPolicy configures a single crawl's fetch behavior: the identity it
// presents, the pacing it honors, and the domain/depth bounds the frontier
// enforces before a URL ever reaches Fetch.
type FetchPolicy struct {
	UserAgent       string
	RequestDelay    time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RespectRobots   bool
	FollowRedirects bool
	AllowedDomains  []string
	MaxDepth        int
}

// FetcherStats summarizes a fetcher's activity as reported by Fetcher.Stats;
// engine.Snapshot does not include these counters.
type FetcherStats struct {
	RequestsCompleted int64
	RequestsFailed    int64
	LinksDiscovered   int64
	BytesDownloaded   int64
	AverageLatency    time.Duration
}

// Fetcher abstracts retrieving a page and discovering its outbound links.
// engine/internal/crawler's CollyFetcher is the only implementation; the
// interface exists so the spider frontier and extraction pipeline never
// depend on colly directly.
type Fetcher interface {
	// Fetch retrieves a single page from the given URL.
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)

	// Discover extracts outbound links from fetched HTML, relative to baseURL.
	Discover(ctx context.Context, content []byte, baseURL *url.URL) ([]*url.URL, error)

	// Configure applies a new FetchPolicy to subsequent fetches.
	Configure(policy FetchPolicy) error

	// Stats reports this fetcher's cumulative activity.
	Stats() FetcherStats
}
