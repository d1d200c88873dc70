package engine

import (
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/configx"
	"github.com/foofork/riptidecrawler-sub009/engine/internal/business/policies"
	"github.com/foofork/riptidecrawler-sub009/engine/models"
	"github.com/foofork/riptidecrawler-sub009/engine/strategies"
)

// ResolveConfig turns a resolved configx.EngineConfigSpec — the merged
// result of a configx.Resolver's global→environment→domain→site→ephemeral
// overlay stack — into the engine.Config that engine.New actually consumes.
// Fields configx has no opinion on (worker counts, buffer sizes, resource
// limits) are left at their zero values in the returned Config, so callers
// set them on the result afterwards:
//
//	cfg := engine.ResolveConfig(resolved)
//	cfg.DiscoveryWorkers = 8 // fields configx doesn't carry
func ResolveConfig(spec *configx.EngineConfigSpec) Config {
	var cfg Config
	if spec == nil {
		return cfg
	}

	if spec.Crawling != nil {
		for _, rule := range spec.Crawling.SiteRules {
			if rule == nil {
				continue
			}
			cfg.AllowedDomains = append(cfg.AllowedDomains, rule.AllowedDomains...)
		}
	}

	if p := spec.Processing; p != nil {
		cfg.Extraction = ExtractionPolicy{
			Enabled:   p.PrimaryStrategy != "",
			Primary:   strategies.ExtractionKind(p.PrimaryStrategy),
			Secondary: strategies.ExtractionKind(p.SecondaryStrategy),
			Merge:     strategies.MergePolicy(p.MergePolicy),
			ChunkMode: strategies.ChunkMode(p.ChunkMode),
			ChunkSize: p.ChunkSize,
		}
	}

	if pol := spec.Policies; pol != nil {
		for id, quota := range pol.TenantQuotas {
			if quota == nil {
				continue
			}
			t := models.Tenant{ID: id, MaxRPS: quota.MaxRPS, MaxPages: quota.MaxPages}
			if quota.Isolation == "strong" {
				t.Isolation = models.IsolationStrong
			}
			cfg.Tenants = append(cfg.Tenants, t)
		}
	}

	return cfg
}

// BuildBusinessPolicies adapts a resolved configx.EngineConfigSpec into the
// engine/internal/business/policies representation consulted for per-URL
// site overrides (PolicyManager.GetPolicyForURL) and for conversion into
// the crawler/processor/output packages' own policy types
// (BusinessPolicies.ToCrawlerPolicies/ToProcessorPolicies/ToOutputPolicies).
// A zero GlobalConfigSection is floored to a minimal valid policy (1 worker,
// 30s timeout) rather than rejected, since configx layers commonly omit
// fields a lower layer already set.
func BuildBusinessPolicies(spec *configx.EngineConfigSpec) (*policies.PolicyManager, error) {
	bp := &policies.BusinessPolicies{}

	if g := spec.Global; g != nil {
		concurrency := g.MaxConcurrency
		if concurrency <= 0 {
			concurrency = 1
		}
		timeout := g.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		gp := &policies.GlobalBusinessPolicy{
			MaxConcurrency: concurrency,
			Timeout:        timeout,
			LoggingLevel:   g.LoggingLevel,
		}
		if g.RetryPolicy != nil {
			gp.RetryPolicy = &policies.RetryPolicy{
				MaxRetries:    g.RetryPolicy.MaxRetries,
				InitialDelay:  g.RetryPolicy.InitialDelay,
				BackoffFactor: g.RetryPolicy.BackoffFactor,
			}
		}
		bp.GlobalPolicy = gp
	}

	if c := spec.Crawling; c != nil {
		cp := &policies.CrawlingBusinessPolicy{}
		if len(c.SiteRules) > 0 {
			cp.SiteRules = make(map[string]*policies.SitePolicy, len(c.SiteRules))
			for domain, rule := range c.SiteRules {
				if rule == nil {
					continue
				}
				cp.SiteRules[domain] = &policies.SitePolicy{
					AllowedDomains: rule.AllowedDomains,
					MaxDepth:       rule.MaxDepth,
					Delay:          rule.Delay,
					Selectors:      rule.Selectors,
				}
			}
		}
		if c.LinkRules != nil {
			cp.LinkRules = &policies.LinkFollowingPolicy{
				FollowExternalLinks: c.LinkRules.FollowExternal,
				MaxDepth:            c.LinkRules.MaxDepth,
			}
		}
		if c.RateRules != nil {
			cp.RateRules = &policies.RateLimitingPolicy{
				DefaultDelay: c.RateRules.DefaultDelay,
				SiteDelays:   c.RateRules.SiteDelays,
			}
		}
		bp.CrawlingPolicy = cp
	}

	if p := spec.Processing; p != nil {
		bp.ProcessingPolicy = &policies.ProcessingBusinessPolicy{
			ContentExtractionRules: p.ExtractionRules,
			QualityThreshold:       p.QualityThreshold,
			ProcessingSteps:        p.ProcessingSteps,
		}
	}

	if o := spec.Output; o != nil {
		bp.OutputPolicy = &policies.OutputBusinessPolicy{
			DefaultFormat: o.DefaultFormat,
			Compression:   o.Compression,
			RoutingRules:  o.RoutingRules,
			QualityGates:  o.QualityGates,
		}
	}

	manager := policies.NewPolicyManager()
	if err := manager.ConfigurePolicies(bp); err != nil {
		return nil, err
	}
	return manager, nil
}
