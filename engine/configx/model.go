// Package configx is RipTide's layered configuration store: a merged
// global → environment → domain → site → ephemeral overlay stack, loaded
// from YAML (gopkg.in/yaml.v3) and hot-reloaded via fsnotify, so a crawl
// of thousands of sites can carry one shared baseline plus narrow,
// site-specific overrides (a stricter rate limit for one flaky domain, a
// different extraction merge policy for a JS-heavy one) without a restart.
// engine.ResolveConfig (engine/configx_bridge.go) turns a resolved
// EngineConfigSpec into the engine.Config the crawl engine actually runs
// with.
package configx

import "time"

// EngineConfigSpec is the canonical hierarchical configuration payload.
// Layers will merge and overlay partial specs to produce a final runtime config.
type EngineConfigSpec struct {
	Global     *GlobalConfigSection     `json:"global,omitempty" yaml:"global,omitempty"`
	Crawling   *CrawlingConfigSection   `json:"crawling,omitempty" yaml:"crawling,omitempty"`
	Processing *ProcessingConfigSection `json:"processing,omitempty" yaml:"processing,omitempty"`
	Output     *OutputConfigSection     `json:"output,omitempty" yaml:"output,omitempty"`
	Policies   *PoliciesConfigSection   `json:"policies,omitempty" yaml:"policies,omitempty"`
	Rollout    *RolloutSpec             `json:"rollout,omitempty" yaml:"rollout,omitempty"`
}

// GlobalConfigSection captures cross-cutting limits and behaviors applied to the entire engine.
type GlobalConfigSection struct {
	MaxConcurrency int              `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty"`
	Timeout        time.Duration    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryPolicy    *RetryPolicySpec `json:"retry_policy,omitempty" yaml:"retry_policy,omitempty"`
	LoggingLevel   string           `json:"logging_level,omitempty" yaml:"logging_level,omitempty"`
}

// RetryPolicySpec defines retry semantics for operations governed by the config system.
type RetryPolicySpec struct {
	MaxRetries    int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	InitialDelay  time.Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	BackoffFactor float64       `json:"backoff_factor,omitempty" yaml:"backoff_factor,omitempty"`
}

// CrawlingConfigSection drives site fetching behaviors.
type CrawlingConfigSection struct {
	SiteRules map[string]*SiteCrawlerRule `json:"site_rules,omitempty" yaml:"site_rules,omitempty"`
	LinkRules *LinkRuleConfig             `json:"link_rules,omitempty" yaml:"link_rules,omitempty"`
	RateRules *RateLimitConfig            `json:"rate_rules,omitempty" yaml:"rate_rules,omitempty"`
}

// SiteCrawlerRule tailors crawling parameters for a specific domain or site
// group — typically the LayerSite/LayerDomain overlay for one problem site
// in an otherwise uniform crawl.
type SiteCrawlerRule struct {
	AllowedDomains []string      `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`
	MaxDepth       int           `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	Delay          time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	Selectors      []string      `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	// SpiderStrategy overrides the frontier's traversal order for this site
	// (breadth_first|depth_first|best_first|adaptive); see engine/spider.
	SpiderStrategy string `json:"spider_strategy,omitempty" yaml:"spider_strategy,omitempty"`
}

// LinkRuleConfig governs which links are traversed during crawling.
type LinkRuleConfig struct {
	FollowExternal bool `json:"follow_external,omitempty" yaml:"follow_external,omitempty"`
	MaxDepth       int  `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
}

// RateLimitConfig defines rate limiting characteristics.
type RateLimitConfig struct {
	DefaultDelay time.Duration            `json:"default_delay,omitempty" yaml:"default_delay,omitempty"`
	SiteDelays   map[string]time.Duration `json:"site_delays,omitempty" yaml:"site_delays,omitempty"`
}

// ProcessingConfigSection contains extraction and processing directives —
// the layered-config view of engine.ExtractionPolicy (engine/config.go),
// expressed as strings since YAML is the wire format (no engine/strategies
// import here, to keep configx free of a dependency on the crawl engine).
type ProcessingConfigSection struct {
	ExtractionRules    []string          `json:"extraction_rules,omitempty" yaml:"extraction_rules,omitempty"`
	QualityThreshold   float64           `json:"quality_threshold,omitempty" yaml:"quality_threshold,omitempty"`
	ProcessingSteps    []string          `json:"processing_steps,omitempty" yaml:"processing_steps,omitempty"`
	ConditionalActions map[string]string `json:"conditional_actions,omitempty" yaml:"conditional_actions,omitempty"`
	// PrimaryStrategy/SecondaryStrategy name an engine/strategies.ExtractionKind
	// (css_json|regex|llm|wasm); SecondaryStrategy empty disables reconciliation.
	PrimaryStrategy   string `json:"primary_strategy,omitempty" yaml:"primary_strategy,omitempty"`
	SecondaryStrategy string `json:"secondary_strategy,omitempty" yaml:"secondary_strategy,omitempty"`
	// MergePolicy names an engine/strategies.MergePolicy (css_wins|other_wins|merge|first_valid).
	MergePolicy string `json:"merge_policy,omitempty" yaml:"merge_policy,omitempty"`
	// ChunkMode names an engine/strategies.ChunkMode (sliding|fixed|sentence|topic|regex).
	ChunkMode string `json:"chunk_mode,omitempty" yaml:"chunk_mode,omitempty"`
	ChunkSize int    `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
}

// OutputConfigSection configures output formatting and routing.
type OutputConfigSection struct {
	DefaultFormat string            `json:"default_format,omitempty" yaml:"default_format,omitempty"`
	Compression   bool              `json:"compression,omitempty" yaml:"compression,omitempty"`
	RoutingRules  map[string]string `json:"routing_rules,omitempty" yaml:"routing_rules,omitempty"`
	QualityGates  []string          `json:"quality_gates,omitempty" yaml:"quality_gates,omitempty"`
}

// PoliciesConfigSection captures dynamic business rules and per-tenant
// quota overrides tied to the layered configuration.
type PoliciesConfigSection struct {
	BusinessRules []*PolicyRuleSpec `json:"business_rules,omitempty" yaml:"business_rules,omitempty"`
	EnabledFlags  map[string]bool   `json:"enabled_flags,omitempty" yaml:"enabled_flags,omitempty"`
	// TenantQuotas maps a models.Tenant.ID to its isolation level and page/rate
	// budget, resolved from whichever layer last overrode that tenant's entry.
	TenantQuotas map[string]*TenantQuotaSpec `json:"tenant_quotas,omitempty" yaml:"tenant_quotas,omitempty"`
}

// TenantQuotaSpec is the layered-config view of models.Tenant's quota and
// isolation fields.
type TenantQuotaSpec struct {
	Isolation string  `json:"isolation,omitempty" yaml:"isolation,omitempty"` // "logical" (default) or "strong"
	MaxRPS    float64 `json:"max_rps,omitempty" yaml:"max_rps,omitempty"`
	MaxPages  int64   `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`
}

// PolicyRuleSpec represents a single dynamic rule.
type PolicyRuleSpec struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Priority  int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Condition string    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action    string    `json:"action,omitempty" yaml:"action,omitempty"`
	Enabled   bool      `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// RolloutSpec declares how a configuration change is rolled out.
type RolloutSpec struct {
	Mode              string   `json:"mode" yaml:"mode"` // full|percentage|cohort
	Percentage        int      `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	CohortDomains     []string `json:"cohort_domains,omitempty" yaml:"cohort_domains,omitempty"`
	CohortDomainGlobs []string `json:"cohort_domain_globs,omitempty" yaml:"cohort_domain_globs,omitempty"`
}

// VersionedConfig records a committed configuration along with metadata.
type VersionedConfig struct {
	Version     int64             `json:"version" yaml:"version"`
	Spec        *EngineConfigSpec `json:"spec" yaml:"spec"`
	Hash        string            `json:"hash" yaml:"hash"`
	AppliedAt   time.Time         `json:"applied_at" yaml:"applied_at"`
	Actor       string            `json:"actor" yaml:"actor"`
	Parent      int64             `json:"parent" yaml:"parent"`
	DiffSummary string            `json:"diff_summary,omitempty" yaml:"diff_summary,omitempty"`
}

// ApplyOptions control how a configuration change is processed.
type ApplyOptions struct {
	Actor        string `json:"actor" yaml:"actor"`
	DryRun       bool   `json:"dry_run" yaml:"dry_run"`
	Force        bool   `json:"force" yaml:"force"`
	RolloutStage bool   `json:"rollout_stage" yaml:"rollout_stage"`
}
