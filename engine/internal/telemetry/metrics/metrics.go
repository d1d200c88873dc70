// Package metrics is the internal metrics-provider contract shared by the
// event bus, resource-health gauges, and pipeline instrumentation. Embedders
// pick a backend through engine.Config's telemetry options; nothing outside
// the engine module constructs a Provider directly.
package metrics

import "context"

// Provider is the minimal metrics provider contract used internally.
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewGauge(opts GaugeOpts) Gauge
	NewHistogram(opts HistogramOpts) Histogram
	NewTimer(h HistogramOpts) func() Timer
	Health(ctx context.Context) error
}

// Counter tracks a monotonically increasing value (pages crawled, bytes
// fetched) labeled per call site — e.g. per tenant or per host.
type Counter interface{ Inc(delta float64, labels ...string) }

// Gauge tracks a value that can move in either direction (frontier depth,
// in-flight requests).
type Gauge interface {
	Set(v float64, labels ...string)
	Add(delta float64, labels ...string)
}

// Histogram records a distribution of observed values (fetch latency,
// extracted page size).
type Histogram interface{ Observe(v float64, labels ...string) }

// Timer closes over a Histogram observation; call it when the timed
// operation completes.
type Timer interface{ ObserveDuration(labels ...string) }

// CommonOpts names a metric the way prometheus.Opts does: namespace +
// subsystem + name forms the fully-qualified metric name.
type CommonOpts struct {
	Namespace, Subsystem, Name, Help string
	Labels                           []string
}

type CounterOpts struct{ CommonOpts }
type GaugeOpts struct{ CommonOpts }
type HistogramOpts struct {
	CommonOpts
	Buckets []float64
}

type noopProvider struct{}
type noopCounter struct{}
type noopGauge struct{}
type noopHistogram struct{}
type noopTimer struct{}

// NewNoopProvider returns a Provider that discards every observation —
// the default when a crawl runs without a configured metrics backend.
func NewNoopProvider() Provider { return &noopProvider{} }

func (p *noopProvider) NewCounter(CounterOpts) Counter     { return noopCounter{} }
func (p *noopProvider) NewGauge(GaugeOpts) Gauge           { return noopGauge{} }
func (p *noopProvider) NewHistogram(HistogramOpts) Histogram { return noopHistogram{} }
func (p *noopProvider) NewTimer(HistogramOpts) func() Timer {
	return func() Timer { return noopTimer{} }
}
func (p *noopProvider) Health(context.Context) error { return nil }

func (noopCounter) Inc(float64, ...string)       {}
func (noopGauge) Set(float64, ...string)         {}
func (noopGauge) Add(float64, ...string)         {}
func (noopHistogram) Observe(float64, ...string) {}
func (noopTimer) ObserveDuration(...string)      {}
