package crawler

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
	"github.com/foofork/riptidecrawler-sub009/engine/spider"
	"github.com/foofork/riptidecrawler-sub009/engine/validation"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
)

type Crawler struct {
	config    *models.ScraperConfig
	collector *colly.Collector
	frontier  *spider.Frontier
	wake      chan struct{}
	stopCh    chan struct{}
	results   chan *models.CrawlResult
	stats     *models.CrawlStats
	mu        sync.RWMutex
	robots    *robotsCache
	stopping  bool
}

func New(config *models.ScraperConfig) *Crawler {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	c := colly.NewCollector(colly.Debugger(&debug.LogDebugger{}))
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: config.RequestDelay})
	c.SetRequestTimeout(config.Timeout)
	c.UserAgent = config.UserAgent
	var scoreFn spider.ScoreFunc
	if config.SpiderStrategy == models.SpiderBestFirst || config.SpiderStrategy == models.SpiderAdaptive {
		// Default score favors shallower, unvisited pages; callers that need
		// content-aware ranking can swap this out by constructing their own
		// Frontier and wiring a custom score.
		scoreFn = func(_ string, depth int) float64 { return -float64(depth) }
	}
	frontier := spider.NewFrontier(config.SpiderStrategy, scoreFn, spider.NewDedup(config.MaxPages*10, 10_000))
	crawler := &Crawler{
		config:    config,
		collector: c,
		frontier:  frontier,
		wake:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		results:   make(chan *models.CrawlResult, 100),
		stats:     &models.CrawlStats{StartTime: time.Now()},
		robots:    newRobotsCache(),
	}
	crawler.setupCallbacks()
	return crawler
}

func (c *Crawler) setupCallbacks() {
	c.collector.OnRequest(func(r *colly.Request) {
		if !c.isAllowedURL(r.URL) {
			log.Printf("Blocked URL not in allowed domains: %s", r.URL.String())
			r.Abort()
			return
		}
		// Depth check (treat depth as number of non-empty path segments). Allow root depth=0.
		if c.config.MaxDepth > 0 && pathDepth(r.URL) > c.config.MaxDepth {
			log.Printf("Blocked by max depth (%d): %s", c.config.MaxDepth, r.URL.String())
			r.Abort()
			return
		}
		if !c.allowedByRobots(r.URL) {
			log.Printf("Blocked by robots.txt: %s", r.URL.String())
			r.Abort()
			return
		}
		log.Printf("Visiting: %s", r.URL.String())
	})
	c.collector.OnHTML("html", func(e *colly.HTMLElement) {
		page := c.extractPage(e)
		if c.config.SpiderStrategy == models.SpiderAdaptive {
			c.frontier.AdaptiveGain(len(page.Content))
		}
		// Normalize the page URL before emitting so cosmetic query params (e.g. theme, utm_*)
		// do not cause separate logical pages in results. We intentionally only update the
		// emitted Page + CrawlResult URL; the underlying Colly request URL (with original
		// query) remains for fetch/accounting purposes.
		if page.URL != nil {
			if norm := c.normalizeURL(page.URL); norm != page.URL.String() {
				if u2, err := url.Parse(norm); err == nil {
					page.URL = u2
				}
			}
		}
		e.ForEach("a[href]", func(_ int, el *colly.HTMLElement) { c.processLink(el.Attr("href"), e.Request.URL) })
		// Also enqueue common asset references (img[src]) so tests can observe 404s.
		e.ForEach("img[src]", func(_ int, el *colly.HTMLElement) { c.processLink(el.Attr("src"), e.Request.URL) })
		// Stylesheets and scripts
		e.ForEach("link[href]", func(_ int, el *colly.HTMLElement) { c.processLink(el.Attr("href"), e.Request.URL) })
		e.ForEach("script[src]", func(_ int, el *colly.HTMLElement) { c.processLink(el.Attr("src"), e.Request.URL) })
		resultURL := ""
		if page.URL != nil {
			resultURL = page.URL.String()
		}
		result := &models.CrawlResult{URL: resultURL, Page: page, Stage: "crawl", Success: true}
		select {
		case c.results <- result:
		default:
			log.Printf("Results channel full, dropping result for %s", page.URL.String())
		}
	})
	c.collector.OnError(func(r *colly.Response, err error) {
		log.Printf("Error crawling %s: %v", r.Request.URL, err)
		stage := "crawl"
		ct := strings.ToLower(r.Headers.Get("Content-Type"))
		if strings.Contains(r.Request.URL.Path, "/static/") || (ct != "" && !strings.Contains(ct, "text/html")) {
			stage = "asset"
		}
		normURL := c.normalizeURL(r.Request.URL)
		result := &models.CrawlResult{URL: normURL, Error: models.NewCrawlError(normURL, stage, err), Stage: stage, Success: false, Retry: false, StatusCode: r.StatusCode}
		select {
		case c.results <- result:
		default:
			log.Printf("Results channel full, dropping error result")
		}
	})
	c.collector.OnResponse(func(r *colly.Response) {
		c.mu.Lock()
		c.stats.ProcessedPages++
		c.mu.Unlock()
		// For non-HTML (e.g., images) we emit a CrawlResult to allow tests to observe asset status codes (404, etc.).
		ct := strings.ToLower(r.Headers.Get("Content-Type"))
		if !strings.Contains(ct, "text/html") {
			normURL := c.normalizeURL(r.Request.URL)
			result := &models.CrawlResult{URL: normURL, Stage: "asset", Success: r.StatusCode < 400, StatusCode: r.StatusCode}
			if r.StatusCode >= 400 {
				result.Error = fmt.Errorf("asset status %d", r.StatusCode)
			}
			select {
			case c.results <- result:
			default:
			}
		}
	})
}

func (c *Crawler) extractPage(e *colly.HTMLElement) *models.Page {
	pageHTML, _ := e.DOM.Html()
	page := &models.Page{URL: e.Request.URL, Title: c.extractTitle(e), Content: pageHTML, CrawledAt: time.Now(), Links: make([]*url.URL, 0), Images: make([]string, 0)}
	page.Metadata = models.PageMeta{Description: e.ChildAttr("meta[name='description']", "content"), WordCount: len(strings.Fields(e.Text))}
	keywords := e.ChildAttr("meta[name='keywords']", "content")
	if keywords != "" {
		page.Metadata.Keywords = strings.Split(keywords, ",")
		for i, k := range page.Metadata.Keywords {
			page.Metadata.Keywords[i] = strings.TrimSpace(k)
		}
	}
	return page
}

func (c *Crawler) extractTitle(e *colly.HTMLElement) string {
	if title := e.ChildText("title"); title != "" {
		return strings.TrimSpace(title)
	}
	if h1 := e.ChildText("h1"); h1 != "" {
		return strings.TrimSpace(h1)
	}
	if ogTitle := e.ChildAttr("meta[property='og:title']", "content"); ogTitle != "" {
		return strings.TrimSpace(ogTitle)
	}
	return "Untitled"
}

func (c *Crawler) processLink(link string, base *url.URL) {
	linkURL, err := base.Parse(link)
	if err != nil {
		return
	}
	// If stopping, avoid enqueueing new work to prevent race with collector.Wait.
	c.mu.RLock()
	if c.stopping {
		c.mu.RUnlock()
		return
	}
	c.mu.RUnlock()
	// Enforce domain, robots, and depth limits prior to queueing.
	if !c.isAllowedURL(linkURL) || !c.allowedByRobots(linkURL) {
		return
	}
	depth := pathDepth(linkURL)
	if c.config.MaxDepth > 0 && depth > c.config.MaxDepth {
		return
	}
	normalizedURL := c.normalizeURL(linkURL)
	if !c.frontier.Push(normalizedURL, depth) {
		return // already seen by the frontier's dedup
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Crawler) normalizeURL(u *url.URL) string {
	return validation.NormalizeURL(u)
}
func (c *Crawler) isAllowedURL(u *url.URL) bool {
	return validation.IsAllowedDomain(u, c.config.AllowedDomains)
}
func (c *Crawler) Start(startURL string) error {
	log.Printf("Starting crawl from: %s", startURL)
	c.frontier.Push(startURL, 0)
	go c.processQueue()
	return nil
}

// processQueue drains the frontier in strategy order (breadth/depth/best-first/
// adaptive, per config.SpiderStrategy) until Stop is called and the frontier
// runs dry.
func (c *Crawler) processQueue() {
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		u, _, ok := c.frontier.Pop()
		if !ok {
			select {
			case <-c.wake:
				continue
			case <-c.stopCh:
				return
			}
		}
		if c.shouldStop() {
			return
		}
		if err := c.collector.Visit(u); err != nil {
			log.Printf("Failed to visit %s: %v", u, err)
		}
	}
}
func (c *Crawler) shouldStop() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.MaxPages > 0 && c.stats.ProcessedPages >= c.config.MaxPages
}
func (c *Crawler) Results() <-chan *models.CrawlResult { return c.results }
func (c *Crawler) Stats() *models.CrawlStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := *c.stats
	stats.Duration = time.Since(c.stats.StartTime)
	if stats.Duration > 0 {
		stats.PagesPerSec = float64(stats.ProcessedPages) / stats.Duration.Seconds()
	}
	return &stats
}
func (c *Crawler) Stop() {
	log.Println("Stopping crawler...")
	c.mu.Lock()
	c.stopping = true
	c.mu.Unlock()
	close(c.stopCh)
	c.collector.Wait()
	close(c.results)
	c.mu.Lock()
	c.stats.EndTime = time.Now()
	c.stats.Duration = c.stats.EndTime.Sub(c.stats.StartTime)
	c.mu.Unlock()
}

// pathDepth returns the number of non-empty path segments in the URL path.
// Example: "/labs/depth/depth2/depth3/leaf" => 5, "/" => 0
func pathDepth(u *url.URL) int {
	if u == nil {
		return 0
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return 0
	}
	return len(strings.Split(p, "/"))
}
