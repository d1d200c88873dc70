package engine

import (
	"context"
	"fmt"

	engpipeline "github.com/foofork/riptidecrawler-sub009/engine/internal/pipeline"
	engmodels "github.com/foofork/riptidecrawler-sub009/engine/models"
	"github.com/foofork/riptidecrawler-sub009/engine/strategies"
)

// buildExtractor resolves an ExtractionPolicy strategy kind to a concrete
// strategies.Extractor. Wasm stays contract-only (no runtime vendored) and
// resolves to nil like any unknown kind: as Primary it makes
// wireExtractionHook return an error, as Secondary it is skipped.
func buildExtractor(kind strategies.ExtractionKind, pol ExtractionPolicy) strategies.Extractor {
	switch kind {
	case strategies.ExtractionCssJson:
		return strategies.CssJsonExtractor{}
	case strategies.ExtractionRegex:
		return strategies.RegexExtractor{}
	case strategies.ExtractionLlm:
		return strategies.NewLlmExtractor(pol.LlmAPIKey, pol.LlmModel, strategies.CssJsonExtractor{})
	default:
		return nil
	}
}

// wireExtractionHook installs pc.ExtractionHook from the resolved policy. Returns an
// error only for a policy that names an unresolvable primary strategy.
func wireExtractionHook(pc *engpipeline.PipelineConfig, pol ExtractionPolicy) error {
	primary := buildExtractor(pol.Primary, pol)
	if primary == nil {
		return fmt.Errorf("engine: extraction policy primary strategy %q has no runnable implementation", pol.Primary)
	}
	var secondary strategies.Extractor
	if pol.Secondary != "" {
		secondary = buildExtractor(pol.Secondary, pol)
	}

	pc.ExtractionHook = func(ctx context.Context, page *engmodels.Page) (*engmodels.Page, error) {
		if page == nil || page.Content == "" {
			return page, nil
		}
		primaryResult, err := primary.Extract(ctx, page.Content, pol.Selectors)
		if err != nil {
			return page, err
		}
		fields := primaryResult.Fields
		var conflicts []engmodels.ConflictRecord
		if secondary != nil {
			secondaryResult, serr := secondary.Extract(ctx, page.Content, pol.Selectors)
			if serr == nil {
				fields, conflicts = strategies.Merge(pol.Merge, primaryResult, secondaryResult)
			}
		}
		page.Fields = fields
		page.Conflicts = append(page.Conflicts, conflicts...)
		if pol.ChunkMode != "" {
			page.Chunks = strategies.Chunk(pol.ChunkMode, page.Content, pol.ChunkSize, nil)
		}
		return page, nil
	}
	return nil
}
