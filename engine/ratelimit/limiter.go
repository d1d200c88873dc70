package ratelimit

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/internal/reliability"
	engmodels "github.com/foofork/riptidecrawler-sub009/engine/models"
)

// ErrCircuitOpen is returned by Acquire when a domain's circuit breaker has
// tripped and is refusing new requests.
var ErrCircuitOpen = reliability.ErrCircuitOpen

// RateLimiter paces outbound requests per domain and opens a circuit for a
// domain that keeps failing, so one bad host can't starve the rest of a
// crawl's concurrency budget. engine/internal/pipeline's extraction worker
// is the sole caller: Acquire before a fetch, Feedback after, Snapshot for
// engine.Snapshot's health view.
type RateLimiter interface {
	Acquire(ctx context.Context, domain string) (Permit, error)
	Feedback(domain string, fb Feedback)
	Snapshot() LimiterSnapshot
}

// Permit represents a reserved request slot; Release it once the request
// completes (successfully or not) to free capacity for the next request.
type Permit interface{ Release() }

// Feedback reports the outcome of one request so the limiter can adjust its
// per-domain fill rate and circuit breaker.
type Feedback struct {
	StatusCode int
	Latency    time.Duration
	Err        error
	RetryAfter time.Duration
}

// LimiterSnapshot is a point-in-time view of limiter activity across all
// domains seen so far, rolled into engine.Snapshot.Limiter.
type LimiterSnapshot struct {
	TotalRequests    int64
	Throttled        int64
	Denied           int64
	OpenCircuits     int64
	HalfOpenCircuits int64
	Domains          []DomainSummary
}

// DomainSummary is one domain's current rate and circuit state.
type DomainSummary struct {
	Domain       string
	FillRate     float64
	CircuitState string
	LastActivity time.Time
}

// AdaptiveRateLimiter paces each domain with an AIMD token bucket — the
// fill rate backs off on errors/429s and recovers on clean responses — and
// pairs it with a circuit breaker (engine/internal/reliability) that trips
// independently of the fill rate on a sustained failure run. Domain state is
// sharded by a hash of the domain name to keep the hot path lock-free across
// unrelated hosts.
type AdaptiveRateLimiter struct {
	cfg           engmodels.RateLimitConfig
	clock         Clock
	shards        []*domainShard
	mask          uint64
	metricsMu     sync.Mutex
	metrics       LimiterSnapshot
	stopCh        chan struct{}
	evictWG       sync.WaitGroup
	evictInterval time.Duration
	stopOnce      sync.Once
}

type domainShard struct {
	mu      sync.RWMutex
	domains map[string]*domainState
}

type domainState struct {
	mu           sync.Mutex
	lastActivity time.Time
	fillRate     float64
	breaker      *reliability.CircuitBreaker
	tokens       float64
	lastRefill   time.Time
}

// NewAdaptiveRateLimiter builds a limiter sharded and configured per cfg,
// defaulting shard count and domain-state TTL when unset.
func NewAdaptiveRateLimiter(cfg engmodels.RateLimitConfig) *AdaptiveRateLimiter {
	if cfg.Shards <= 0 || (cfg.Shards&(cfg.Shards-1)) != 0 {
		cfg.Shards = 16
	}
	if cfg.DomainStateTTL <= 0 {
		cfg.DomainStateTTL = 2 * time.Minute
	}
	shards := make([]*domainShard, cfg.Shards)
	for i := range shards {
		shards[i] = &domainShard{domains: make(map[string]*domainState)}
	}
	interval := cfg.DomainStateTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	l := &AdaptiveRateLimiter{
		cfg: cfg, clock: realClock{}, shards: shards,
		mask: uint64(cfg.Shards - 1), stopCh: make(chan struct{}), evictInterval: interval,
	}
	l.startEvictionLoop()
	return l
}

// WithClock overrides the limiter's clock; used by tests to control fill
// and eviction timing deterministically.
func (l *AdaptiveRateLimiter) WithClock(clock Clock) *AdaptiveRateLimiter {
	if clock != nil {
		l.clock = clock
	}
	return l
}

func (l *AdaptiveRateLimiter) shardIndex(domain string) uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain))
	return uint64(h.Sum32()) & l.mask
}

func (l *AdaptiveRateLimiter) getOrCreateDomainState(domain string) *domainState {
	idx := l.shardIndex(domain)
	shard := l.shards[idx]
	shard.mu.RLock()
	state := shard.domains[domain]
	shard.mu.RUnlock()
	if state != nil {
		return state
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if state = shard.domains[domain]; state == nil {
		state = newDomainState(l.cfg, l.clock.Now())
		shard.domains[domain] = state
	}
	return state
}

func newDomainState(cfg engmodels.RateLimitConfig, now time.Time) *domainState {
	bcfg := reliability.DefaultCircuitBreakerConfig()
	if cfg.ConsecutiveFailThreshold > 0 {
		bcfg.FailureThreshold = cfg.ConsecutiveFailThreshold
	}
	if cfg.OpenStateDuration > 0 {
		bcfg.RecoveryTimeout = cfg.OpenStateDuration
	}
	if cfg.HalfOpenProbes > 0 {
		bcfg.HalfOpenMaxRequests = cfg.HalfOpenProbes
	}
	if cfg.MinSamplesToTrip > 0 {
		bcfg.MinRequestThreshold = cfg.MinSamplesToTrip
	}
	return &domainState{
		lastActivity: now, fillRate: 1, tokens: 1, lastRefill: now,
		breaker: reliability.NewCircuitBreaker(bcfg),
	}
}

func (l *AdaptiveRateLimiter) withMetrics(mutator func(*LimiterSnapshot)) {
	l.metricsMu.Lock()
	mutator(&l.metrics)
	l.metricsMu.Unlock()
}

// Acquire blocks (respecting ctx) until a token is available for domain, or
// returns ErrCircuitOpen if the domain's breaker has tripped.
func (l *AdaptiveRateLimiter) Acquire(ctx context.Context, domain string) (Permit, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.cfg.Enabled {
		return immediatePermit{}, nil
	}
	normalized, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	state := l.getOrCreateDomainState(normalized)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		now := l.clock.Now()
		wait, err := state.planRequest(now)
		if err != nil {
			if errors.Is(err, ErrCircuitOpen) {
				l.withMetrics(func(m *LimiterSnapshot) { m.Denied++ })
			}
			return nil, err
		}
		if wait <= 0 {
			l.withMetrics(func(m *LimiterSnapshot) { m.TotalRequests++ })
			return immediatePermit{}, nil
		}
		l.withMetrics(func(m *LimiterSnapshot) { m.Throttled++ })
		if !sleepWithContext(ctx, l.clock, wait) {
			return nil, ctx.Err()
		}
	}
}

// Feedback records the outcome of a request, adjusting the domain's fill
// rate (AIMD) and feeding its circuit breaker.
func (l *AdaptiveRateLimiter) Feedback(domain string, fb Feedback) {
	if !l.cfg.Enabled {
		return
	}
	normalized, err := NormalizeDomain(domain)
	if err != nil {
		return
	}
	state := l.getOrCreateDomainState(normalized)
	state.applyFeedback(fb, l.clock.Now())
}

// Snapshot returns aggregate counters plus up to the 10 most recently
// active domains, for engine.Snapshot's health view.
func (l *AdaptiveRateLimiter) Snapshot() LimiterSnapshot {
	base := func() LimiterSnapshot {
		l.metricsMu.Lock()
		defer l.metricsMu.Unlock()
		return l.metrics
	}()
	var open, halfOpen int64
	var domains []DomainSummary
	for _, shard := range l.shards {
		shard.mu.RLock()
		for name, state := range shard.domains {
			cbState := state.breaker.State()
			switch cbState {
			case engmodels.CircuitOpen:
				open++
			case engmodels.CircuitHalfOpen:
				halfOpen++
			}
			state.mu.Lock()
			domains = append(domains, DomainSummary{Domain: name, FillRate: state.fillRate, CircuitState: cbState.String(), LastActivity: state.lastActivity})
			state.mu.Unlock()
		}
		shard.mu.RUnlock()
	}
	for i := 1; i < len(domains); i++ {
		j := i
		for j > 0 && domains[j-1].LastActivity.Before(domains[j].LastActivity) {
			domains[j-1], domains[j] = domains[j], domains[j-1]
			j--
		}
	}
	if len(domains) > 10 {
		domains = append([]DomainSummary(nil), domains[:10]...)
	}
	base.Domains = domains
	base.OpenCircuits = open
	base.HalfOpenCircuits = halfOpen
	return base
}

// Close stops the idle-domain eviction loop.
func (l *AdaptiveRateLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stopCh); l.evictWG.Wait() })
	return nil
}

func (l *AdaptiveRateLimiter) startEvictionLoop() { l.evictWG.Add(1); go l.evictLoop() }

func (l *AdaptiveRateLimiter) evictLoop() {
	defer l.evictWG.Done()
	ticker := time.NewTicker(l.evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdleDomains()
		case <-l.stopCh:
			return
		}
	}
}

func (l *AdaptiveRateLimiter) evictIdleDomains() {
	ttl := l.cfg.DomainStateTTL
	if ttl <= 0 {
		return
	}
	now := l.clock.Now()
	for _, shard := range l.shards {
		shard.mu.Lock()
		for domain, state := range shard.domains {
			state.mu.Lock()
			idle := now.Sub(state.lastActivity)
			state.mu.Unlock()
			if idle >= ttl {
				delete(shard.domains, domain)
			}
		}
		shard.mu.Unlock()
	}
}

type immediatePermit struct{}

func (immediatePermit) Release() {}

func (d *domainState) planRequest(now time.Time) (time.Duration, error) {
	if err := d.breaker.Allow(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = now
	elapsed := now.Sub(d.lastRefill).Seconds()
	if elapsed > 0 {
		d.tokens += elapsed * d.fillRate
		if d.tokens > 10 {
			d.tokens = 10
		}
		d.lastRefill = now
	}
	if d.tokens >= 1 {
		d.tokens -= 1
		return 0, nil
	}
	waitSeconds := (1 - d.tokens) / math.Max(d.fillRate, 0.1)
	return time.Duration(waitSeconds * float64(time.Second)), nil
}

func (d *domainState) applyFeedback(fb Feedback, now time.Time) {
	d.mu.Lock()
	d.lastActivity = now
	failed := fb.Err != nil || fb.StatusCode >= 500 || fb.StatusCode == 429
	if failed {
		d.fillRate *= 0.8
		if d.fillRate < 0.1 {
			d.fillRate = 0.1
		}
	} else {
		d.fillRate *= 1.05
		if d.fillRate > 5 {
			d.fillRate = 5
		}
	}
	d.mu.Unlock()
	if failed {
		d.breaker.RecordFailure()
	} else {
		d.breaker.RecordSuccess()
	}
}

func sleepWithContext(ctx context.Context, clock Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	if ctx == nil {
		clock.Sleep(d)
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
