package ratelimit

import "time"

// Clock abstracts time so AdaptiveRateLimiter's fill-rate refill and idle
// domain eviction can be driven deterministically from tests instead of
// waiting on a wall clock.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
