package crawler

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// hostRobots is a cached, parsed robots.txt for one host. RipTide crawls are
// multi-tenant and multi-site, so this cache is keyed by host rather than
// owned per-crawl: two tenants crawling the same domain share one fetch.
type hostRobots struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// robotsCache keeps per-host parsed rules (scheme ignored; host keyed). A
// singleflight group collapses concurrent fetches of the same host's
// robots.txt into one request — a busy multi-site crawl frequently has
// several workers discover the same domain in the same instant.
type robotsCache struct {
	mu    sync.RWMutex
	rules map[string]*hostRobots
	group singleflight.Group
}

func newRobotsCache() *robotsCache { return &robotsCache{rules: make(map[string]*hostRobots)} }

func (rc *robotsCache) get(host string) (*hostRobots, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	r, ok := rc.rules[host]
	return r, ok
}

func (rc *robotsCache) set(host string, r *hostRobots) {
	rc.mu.Lock()
	rc.rules[host] = r
	rc.mu.Unlock()
}

// fetchRobots fetches and parses robots.txt for the provided URL's host,
// using robotstxt.FromResponse so redirects, non-2xx statuses, and malformed
// directives are handled the way the library's own crawlers expect rather
// than by a bespoke line scanner.
func (c *Crawler) fetchRobots(u *url.URL) *hostRobots {
	if !c.config.RespectRobots {
		return nil
	}
	host := u.Host
	if r, ok := c.robots.get(host); ok {
		return r
	}
	result, _, _ := c.robots.group.Do(host, func() (interface{}, error) {
		if r, ok := c.robots.get(host); ok {
			return r, nil
		}
		robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}
		resp, err := http.Get(robotsURL.String())
		if err != nil {
			// Unreachable host: treat as allow-all rather than stalling the frontier.
			hr := &hostRobots{fetchedAt: time.Now()}
			c.robots.set(host, hr)
			return hr, nil
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := robotstxt.FromResponse(resp)
		if err != nil {
			data = nil // parse failure behaves as allow-all, same as a missing file
		}
		hr := &hostRobots{data: data, fetchedAt: time.Now()}
		c.robots.set(host, hr)
		return hr, nil
	})
	return result.(*hostRobots)
}

// allowedByRobots evaluates path allowance for the crawler's configured user
// agent. Assumes the domain itself has already cleared AllowedDomains.
func (c *Crawler) allowedByRobots(u *url.URL) bool {
	if !c.config.RespectRobots {
		return true
	}
	if u.Path == "/robots.txt" {
		return true
	}
	rules := c.fetchRobots(u)
	if rules == nil || rules.data == nil {
		return true
	}
	agent := c.config.UserAgent
	if agent == "" {
		agent = "*"
	}
	group := rules.data.FindGroup(agent)
	if group == nil {
		return true
	}
	return group.Test(u.Path)
}
