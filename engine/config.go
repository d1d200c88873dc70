package engine

import (
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/internal/crawler"
	engpipeline "github.com/foofork/riptidecrawler-sub009/engine/internal/pipeline"
	"github.com/foofork/riptidecrawler-sub009/engine/models"
	"github.com/foofork/riptidecrawler-sub009/engine/ratelimit"
	engresources "github.com/foofork/riptidecrawler-sub009/engine/resources"
	"github.com/foofork/riptidecrawler-sub009/engine/stealth"
	"github.com/foofork/riptidecrawler-sub009/engine/strategies"
)

// Config is the public configuration surface for the Engine facade. It intentionally
// narrows and normalizes underlying component configs while allowing advanced
// callers to inject custom implementations via functional options.
type Config struct {
	// Worker settings
	DiscoveryWorkers  int
	ExtractionWorkers int
	ProcessingWorkers int
	OutputWorkers     int
	BufferSize        int

	// Retry policy
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	// Fetch identity/behavior applied by the extraction stage's Fetcher.
	UserAgent       string
	RequestDelay    time.Duration
	FetchTimeout    time.Duration
	MaxFetchRetries int
	RespectRobots   bool
	FollowRedirects bool

	// Adaptive rate limiting
	RateLimit models.RateLimitConfig

	// Resource management
	Resources engresources.Config

	// Resume settings
	Resume         bool
	CheckpointPath string // Overrides Resources.CheckpointPath if set

	// AssetPolicy defines behavior for asset handling (Phase 5D). Additive; if disabled
	// the processor behaves as legacy (no strategy invocation). Wiring occurs in Phase 5D iterations.
	AssetPolicy AssetPolicy

	// AllowedDomains restricts crawl seeds to these domains (and subdomains); empty
	// means unrestricted. Enforced at Start() via engine/validation.
	AllowedDomains []string

	// Extraction configures the pluggable strategy-layer field extraction run over
	// each page's content before AssetProcessingHook. Disabled by default: pages keep
	// their legacy Content/Title-only shape unless a caller opts in.
	Extraction ExtractionPolicy

	// Tenants pre-registers tenant quota/isolation records at construction time.
	// Additional tenants can be registered later via Engine.Tenants().Register.
	Tenants []models.Tenant

	// RenderBackend executes the stealth/render action-plan contract for pages
	// that require JS execution. Defaults to stealth.NoopBackend, which reports
	// ErrNoBackend for every plan, so the engine runs unchanged for deployments
	// with no renderer sidecar wired in.
	RenderBackend stealth.Backend

	// --- Phase 5E (Telemetry) incremental surface ---
	// MetricsEnabled toggles the new metrics provider wiring (prometheus export) when true.
	// Default remains false to avoid changing existing behavior unless explicitly enabled.
	MetricsEnabled bool
	// PrometheusListenAddr optional address for metrics HTTP exposure (e.g. ":2112").
	// If empty and MetricsEnabled is true, metrics are still collected but caller must expose handler.
	PrometheusListenAddr string
	// MetricsBackend selects the implementation when MetricsEnabled is true. Supported:
	//   "prom" (default) - built-in Prometheus registry
	//   "otel"          - OpenTelemetry bridge (iteration 6 experimental)
	//   "noop"          - explicit no-op (overrides MetricsEnabled true)
	// Unknown values fall back to the default (prom).
	MetricsBackend string
}

// toPipelineConfig adapts the facade Config to the internal pipeline config.
// engineOptions are internal construction options resolved by New().
type engineOptions struct {
	limiter         ratelimit.RateLimiter
	resourceManager *engresources.Manager
}

func (c Config) toPipelineConfig(opts engineOptions) *engpipeline.PipelineConfig {
	return &engpipeline.PipelineConfig{
		DiscoveryWorkers:  c.DiscoveryWorkers,
		ExtractionWorkers: c.ExtractionWorkers,
		ProcessingWorkers: c.ProcessingWorkers,
		OutputWorkers:     c.OutputWorkers,
		BufferSize:        c.BufferSize,
		RetryBaseDelay:    c.RetryBaseDelay,
		RetryMaxDelay:     c.RetryMaxDelay,
		RetryMaxAttempts:  c.RetryMaxAttempts,
		RateLimiter:       opts.limiter,
		ResourceManager:   opts.resourceManager,
		FetchPolicy: crawler.FetchPolicy{
			UserAgent:       c.UserAgent,
			RequestDelay:    c.RequestDelay,
			Timeout:         c.FetchTimeout,
			MaxRetries:      c.MaxFetchRetries,
			RespectRobots:   c.RespectRobots,
			FollowRedirects: c.FollowRedirects,
			AllowedDomains:  c.AllowedDomains,
		},
	}
}

// Defaults returns a Config with reasonable defaults.
func Defaults() Config {
	return Config{
		DiscoveryWorkers:  2,
		ExtractionWorkers: 4,
		ProcessingWorkers: 2,
		OutputWorkers:     1,
		BufferSize:        128,
		RetryBaseDelay:    200 * time.Millisecond,
		RetryMaxDelay:     5 * time.Second,
		RetryMaxAttempts:  3,
		UserAgent:         "RipTideCrawler/1.0",
		FetchTimeout:      15 * time.Second,
		MaxFetchRetries:   3,
		RespectRobots:     true,
		FollowRedirects:   true,
		RateLimit: models.RateLimitConfig{
			Enabled:                  true,
			InitialRPS:               2.0,
			MinRPS:                   0.25,
			MaxRPS:                   8.0,
			TokenBucketCapacity:      4.0,
			AIMDIncrease:             0.25,
			AIMDDecrease:             0.5,
			LatencyTarget:            1 * time.Second,
			LatencyDegradeFactor:     2.0,
			ErrorRateThreshold:       0.4,
			MinSamplesToTrip:         10,
			ConsecutiveFailThreshold: 5,
			OpenStateDuration:        15 * time.Second,
			HalfOpenProbes:           3,
			RetryBaseDelay:           200 * time.Millisecond,
			RetryMaxDelay:            5 * time.Second,
			RetryMaxAttempts:         3,
			StatsWindow:              30 * time.Second,
			StatsBucket:              2 * time.Second,
			DomainStateTTL:           2 * time.Minute,
			Shards:                   16,
		},
		Resources: engresources.Config{
			CacheCapacity:      64,
			MaxInFlight:        16,
			CheckpointInterval: 50 * time.Millisecond,
		},
		AssetPolicy: AssetPolicy{ // conservative defaults
			Enabled:        false,           // off until strategy implemented
			MaxBytes:       5 * 1024 * 1024, // 5MB per page aggregate cap (initial placeholder)
			MaxPerPage:     64,
			InlineMaxBytes: 2048,
			Optimize:       false,
			RewritePrefix:  "/assets/",
			AllowTypes:     []string{"img", "script", "stylesheet"},
			MaxConcurrent:  4, // Iteration 7: default worker pool size
		},
		// Telemetry defaults (Phase 5E): remain disabled to preserve prior footprint
		MetricsEnabled:       false,
		PrometheusListenAddr: "",
		MetricsBackend:       "prom",
	}
}

// ExtractionPolicy configures the strategy-layer extraction hook. When Enabled, the primary
// strategy runs over each page's Content, optionally reconciled against a Secondary strategy
// per Merge, and the page's Content is chunked per ChunkMode into models.Page.Chunks. Selectors name the CSS-selector fields CssJsonExtractor should resolve.
type ExtractionPolicy struct {
	Enabled   bool
	Primary   strategies.ExtractionKind
	Secondary strategies.ExtractionKind // empty disables reconciliation
	Merge     strategies.MergePolicy
	Selectors map[string]string
	ChunkMode strategies.ChunkMode
	ChunkSize int
	LlmAPIKey string
	LlmModel  string
}

// AssetPolicy configures the asset subsystem when enabled. Iteration 1 surface; enforcement &
// validation logic comes in later iterations.
type AssetPolicy struct {
	Enabled        bool
	MaxBytes       int64
	MaxPerPage     int
	InlineMaxBytes int64
	Optimize       bool
	RewritePrefix  string
	AllowTypes     []string
	BlockTypes     []string
	MaxConcurrent  int // Iteration 7: parallel Execute worker count (>=1). 0 => auto
}
