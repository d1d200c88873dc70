// Package policy holds the runtime-tunable telemetry knobs a crawl consults
// for health scoring, trace sampling, and event-bus backpressure. Exposed to
// embedders through engine.Policy()/UpdateTelemetryPolicy(), not constructed
// directly.
package policy

import "time"

// TelemetryPolicy centralizes runtime-tunable telemetry knobs. It is designed
// to be swapped atomically (callers hold an immutable snapshot pointer) to
// avoid locks on hot paths. All durations are expected to be positive; zero
// values fall back to defaults established in Default().
type TelemetryPolicy struct {
	Health  HealthPolicy
	Tracing TracingPolicy
	Events  EventBusPolicy
}

// HealthPolicy sets the thresholds engine.Snapshot uses to classify a
// crawl's extraction pipeline and resource pool as healthy, degraded, or
// unhealthy — PipelineDegradedRatio/PipelineUnhealthyRatio are fractions of
// recent fetches that failed or got rate-limited.
type HealthPolicy struct {
	ProbeTTL                    time.Duration
	PipelineMinSamples          int
	PipelineDegradedRatio       float64
	PipelineUnhealthyRatio      float64
	ResourceDegradedCheckpoint  int
	ResourceUnhealthyCheckpoint int
}

// TracingPolicy controls OpenTelemetry span sampling for a crawl, with
// boosted sampling around errors and latency spikes so a degraded site
// doesn't go untraced just because it was rare.
type TracingPolicy struct {
	SamplePercent           float64
	ErrorBoostPercent       float64
	LatencyBoostThresholdMs int64
	LatencyBoostPercent     float64
}

// EventBusPolicy bounds the per-subscriber buffer on the telemetry event
// bus (engine/telemetry/events), so a slow consumer backpressures instead of
// growing memory unbounded during a large crawl.
type EventBusPolicy struct {
	MaxSubscriberBuffer int
}

// Default returns the telemetry policy a crawl starts with absent explicit
// overrides. Adjust carefully — downstream alerting may assume these
// thresholds.
func Default() TelemetryPolicy {
	return TelemetryPolicy{
		Health: HealthPolicy{
			ProbeTTL:                    2 * time.Second,
			PipelineMinSamples:          10,
			PipelineDegradedRatio:       0.50,
			PipelineUnhealthyRatio:      0.80,
			ResourceDegradedCheckpoint:  256,
			ResourceUnhealthyCheckpoint: 512,
		},
		Tracing: TracingPolicy{SamplePercent: 20},
		Events:  EventBusPolicy{MaxSubscriberBuffer: 1024},
	}
}

// Normalize returns a copy of p with out-of-range fields clamped to sane
// defaults; it never mutates the receiver.
func (p TelemetryPolicy) Normalize() TelemetryPolicy {
	c := p
	if c.Health.ProbeTTL <= 0 {
		c.Health.ProbeTTL = 2 * time.Second
	}
	if c.Health.PipelineMinSamples <= 0 {
		c.Health.PipelineMinSamples = 10
	}
	if c.Health.PipelineDegradedRatio <= 0 {
		c.Health.PipelineDegradedRatio = 0.50
	}
	if c.Health.PipelineUnhealthyRatio <= 0 {
		c.Health.PipelineUnhealthyRatio = 0.80
	}
	if c.Health.ResourceDegradedCheckpoint <= 0 {
		c.Health.ResourceDegradedCheckpoint = 256
	}
	if c.Health.ResourceUnhealthyCheckpoint <= 0 {
		c.Health.ResourceUnhealthyCheckpoint = 512
	}
	if c.Tracing.SamplePercent < 0 {
		c.Tracing.SamplePercent = 0
	}
	if c.Tracing.SamplePercent > 100 {
		c.Tracing.SamplePercent = 100
	}
	if c.Events.MaxSubscriberBuffer <= 0 {
		c.Events.MaxSubscriberBuffer = 1024
	}
	return c
}
