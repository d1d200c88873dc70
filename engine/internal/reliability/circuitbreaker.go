// Package reliability implements the per-domain circuit breaker and retry
// backoff used by the rate limiter and pipeline. The state machine and its
// defaults are grounded on the riptide-intelligence circuit_breaker.rs
// CircuitBreakerConfig::new() preset from the original Rust implementation;
// the sliding-window failure accounting follows the same shape as the
// teacher's breakerState in engine/internal/ratelimit/limiter.go, generalized
// into a standalone, independently testable type.
package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
)

var ErrCircuitOpen = errors.New("reliability: circuit open")

// CircuitBreakerConfig mirrors riptide-intelligence's CircuitBreakerConfig.
// Zero-value fields are filled with the "new()" preset defaults by
// NewCircuitBreaker; DefaultCircuitBreakerConfig returns the preset itself.
type CircuitBreakerConfig struct {
	FailureThreshold     int
	FailureWindow        time.Duration
	MinRequestThreshold  int
	RecoveryTimeout      time.Duration
	MaxRepairAttempts    int
	SuccessRateThreshold float64
	HalfOpenMaxRequests  int
}

// DefaultCircuitBreakerConfig is the riptide-intelligence CircuitBreakerConfig::new() preset.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:     5,
		FailureWindow:        60 * time.Second,
		MinRequestThreshold:  10,
		RecoveryTimeout:      30 * time.Second,
		MaxRepairAttempts:    1,
		SuccessRateThreshold: 0.7,
		HalfOpenMaxRequests:  3,
	}
}

// StrictCircuitBreakerConfig mirrors CircuitBreakerConfig::strict(): trips
// faster and recovers slower, for domains that have shown to be fragile.
func StrictCircuitBreakerConfig() CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 3
	cfg.RecoveryTimeout = 60 * time.Second
	cfg.SuccessRateThreshold = 0.85
	return cfg
}

// LenientCircuitBreakerConfig mirrors CircuitBreakerConfig::lenient().
func LenientCircuitBreakerConfig() CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 10
	cfg.RecoveryTimeout = 15 * time.Second
	cfg.SuccessRateThreshold = 0.5
	return cfg
}

func (c *CircuitBreakerConfig) applyDefaults() {
	d := DefaultCircuitBreakerConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureWindow <= 0 {
		c.FailureWindow = d.FailureWindow
	}
	if c.MinRequestThreshold <= 0 {
		c.MinRequestThreshold = d.MinRequestThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = d.RecoveryTimeout
	}
	if c.MaxRepairAttempts <= 0 {
		c.MaxRepairAttempts = d.MaxRepairAttempts
	}
	if c.SuccessRateThreshold <= 0 {
		c.SuccessRateThreshold = d.SuccessRateThreshold
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = d.HalfOpenMaxRequests
	}
}

type outcome struct {
	at      time.Time
	success bool
}

// CircuitBreaker tracks request outcomes for a single domain over a sliding
// failure window and trips Open once FailureThreshold failures accumulate
// within that window (once at least MinRequestThreshold requests have been
// observed). After RecoveryTimeout it allows up to HalfOpenMaxRequests probe
// requests through; if their success rate clears SuccessRateThreshold the
// breaker closes, otherwise it reopens.
type CircuitBreaker struct {
	cfg  CircuitBreakerConfig
	mu   sync.Mutex
	now  func() time.Time
	state models.CircuitState

	window       []outcome
	openedAt     time.Time
	repairTries  int
	halfOpenSeen int
	halfOpenOK   int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.applyDefaults()
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: models.CircuitClosed}
}

// WithClock overrides the time source for deterministic tests.
func (b *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	if now != nil {
		b.now = now
	}
	return b
}

func (b *CircuitBreaker) State() models.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	return b.state
}

// Allow reports whether a new request may proceed, and must be paired with a
// RecordSuccess/RecordFailure call once the request completes.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	switch b.state {
	case models.CircuitOpen:
		return ErrCircuitOpen
	case models.CircuitHalfOpen:
		if b.halfOpenSeen >= b.cfg.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		b.halfOpenSeen++
		return nil
	default:
		return nil
	}
}

func (b *CircuitBreaker) maybeHalfOpenLocked() {
	if b.state == models.CircuitOpen && b.now().After(b.openedAt.Add(b.cfg.RecoveryTimeout)) {
		b.state = models.CircuitHalfOpen
		b.halfOpenSeen = 0
		b.halfOpenOK = 0
	}
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.pushLocked(now, true)
	if b.state == models.CircuitHalfOpen {
		b.halfOpenOK++
		if b.halfOpenSeen >= b.cfg.HalfOpenMaxRequests {
			b.evaluateHalfOpenLocked()
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.pushLocked(now, false)
	if b.state == models.CircuitHalfOpen {
		b.tripLocked(now)
		return
	}
	if b.state == models.CircuitClosed {
		total, failed := b.windowCountsLocked(now)
		if total >= b.cfg.MinRequestThreshold && failed >= b.cfg.FailureThreshold {
			b.tripLocked(now)
		}
	}
}

func (b *CircuitBreaker) pushLocked(now time.Time, success bool) {
	cutoff := now.Add(-b.cfg.FailureWindow)
	kept := b.window[:0]
	for _, o := range b.window {
		if o.at.After(cutoff) {
			kept = append(kept, o)
		}
	}
	b.window = append(kept, outcome{at: now, success: success})
}

func (b *CircuitBreaker) windowCountsLocked(now time.Time) (total, failed int) {
	cutoff := now.Add(-b.cfg.FailureWindow)
	for _, o := range b.window {
		if o.at.After(cutoff) {
			total++
			if !o.success {
				failed++
			}
		}
	}
	return
}

func (b *CircuitBreaker) evaluateHalfOpenLocked() {
	rate := 0.0
	if b.halfOpenSeen > 0 {
		rate = float64(b.halfOpenOK) / float64(b.halfOpenSeen)
	}
	if rate >= b.cfg.SuccessRateThreshold {
		b.state = models.CircuitClosed
		b.repairTries = 0
		b.window = nil
		return
	}
	b.repairTries++
	b.state = models.CircuitOpen
	b.openedAt = b.now()
}

func (b *CircuitBreaker) tripLocked(now time.Time) {
	b.state = models.CircuitOpen
	b.openedAt = now
}

// RetryPolicy is an exponential-backoff-with-jitter schedule, grounded on
// engine/internal/pipeline/pipeline.go's backoffDelay/randomizedDelay helpers
// and generalized into a reusable type. The pipeline keeps its own helpers
// and does not call RetryPolicy.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Jitter      float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second, MaxAttempts: 5, Jitter: 0.2}
}

// Delay returns the backoff duration before attempt n (1-indexed), including
// jitter in the range [1-Jitter, 1+Jitter] of the exponential base value.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if max := float64(p.MaxDelay); max > 0 && base > max {
		base = max
	}
	jitter := p.Jitter
	if jitter <= 0 {
		return time.Duration(base)
	}
	factor := 1 - jitter + rand.Float64()*2*jitter
	return time.Duration(base * factor)
}

// Run executes fn, retrying on error up to MaxAttempts times with the
// configured backoff, honoring ctx cancellation between attempts.
func (p RetryPolicy) Run(ctx context.Context, fn func(attempt int) error) error {
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}
	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == max {
			break
		}
		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
