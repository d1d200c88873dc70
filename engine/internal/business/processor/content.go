// Package processor holds the business-rule layer for deciding what
// extraction work a crawled page gets, separate from the strategy layer
// (engine/strategies) that actually performs the extraction. It mirrors
// engine/internal/business/crawler's split between policy (what should
// happen) and mechanism (how it happens).
package processor

import (
	"strings"
	"time"
)

// ContentProcessingPolicy controls which extraction steps a page goes
// through once it's been fetched: selector-based content isolation,
// cleanup, metadata/image harvesting, and markdown rendering.
type ContentProcessingPolicy struct {
	ContentSelectors   []string `json:"content_selectors"`
	CleaningRules      []string `json:"cleaning_rules"`
	URLConversionRules []string `json:"url_conversion_rules"`
	MetadataExtraction bool     `json:"metadata_extraction"`
	ImageExtraction    bool     `json:"image_extraction"`
	MarkdownConversion bool     `json:"markdown_conversion"`
	ContentValidation  bool     `json:"content_validation"`
}

// ContentQualityPolicy gates whether an extracted page is worth keeping:
// below-threshold pages get dropped rather than emitted as a CrawlResult,
// the same quality-gate role engine/strategies' merge/conflict machinery
// plays once two strategies disagree on a field.
type ContentQualityPolicy struct {
	MinWordCount       int     `json:"min_word_count"`
	MinTitleLength     int     `json:"min_title_length"`
	RequireHeadings    bool    `json:"require_headings"`
	MaxHTMLTagRatio    float64 `json:"max_html_tag_ratio"`
	ValidateOpenGraph  bool    `json:"validate_open_graph"`
	RequireDescription bool    `json:"require_description"`
}

// ProcessingBusinessPolicy bundles the two policies consulted for every
// fetched page: what to extract and what quality bar it must clear.
type ProcessingBusinessPolicy struct {
	ContentPolicy ContentProcessingPolicy `json:"content_policy"`
	QualityPolicy ContentQualityPolicy    `json:"quality_policy"`
}

// ProcessingDecision records whether a URL's fetched content should be
// run through the extraction pipeline at all.
type ProcessingDecision struct {
	URL            string `json:"url"`
	ShouldProcess  bool   `json:"should_process"`
	ProcessingType string `json:"processing_type"`
	Reason         string `json:"reason"`
}

// ProcessingStepsDecision lists the ordered extraction steps a URL's
// content will go through, driven by ContentProcessingPolicy flags.
type ProcessingStepsDecision struct {
	URL             string   `json:"url"`
	ProcessingSteps []string `json:"processing_steps"`
}

// ProcessingContext snapshots the policy a page was evaluated against,
// for audit trails and checkpoint resume.
type ProcessingContext struct {
	URL       string                   `json:"url"`
	Policy    ProcessingBusinessPolicy `json:"policy"`
	CreatedAt time.Time                `json:"created_at"`
	Status    string                   `json:"status"`
}

// ContentProcessingPolicyEvaluator is a stateless reader over
// ContentProcessingPolicy; it never owns crawl state.
type ContentProcessingPolicyEvaluator struct{}

// ContentQualityPolicyEvaluator is a stateless reader over
// ContentQualityPolicy.
type ContentQualityPolicyEvaluator struct{}

// ProcessingDecisionMaker combines both evaluators to answer the two
// questions engine/internal/pipeline needs per page: should it be
// processed, and with which steps.
type ProcessingDecisionMaker struct {
	contentEvaluator *ContentProcessingPolicyEvaluator
	qualityEvaluator *ContentQualityPolicyEvaluator
}

func NewContentProcessingPolicyEvaluator() *ContentProcessingPolicyEvaluator {
	return &ContentProcessingPolicyEvaluator{}
}

func NewContentQualityPolicyEvaluator() *ContentQualityPolicyEvaluator {
	return &ContentQualityPolicyEvaluator{}
}

func NewProcessingDecisionMaker() *ProcessingDecisionMaker {
	return &ProcessingDecisionMaker{
		contentEvaluator: NewContentProcessingPolicyEvaluator(),
		qualityEvaluator: NewContentQualityPolicyEvaluator(),
	}
}

// ShouldProcessContent reports whether a URL's content should enter the
// extraction pipeline. Every URL is processed today; the hook exists so a
// future per-domain opt-out doesn't require touching callers.
func (e *ContentProcessingPolicyEvaluator) ShouldProcessContent(url string, policy ContentProcessingPolicy) bool {
	return true
}

func (e *ContentProcessingPolicyEvaluator) GetContentSelectors(url string, policy ContentProcessingPolicy) []string {
	return policy.ContentSelectors
}

func (e *ContentProcessingPolicyEvaluator) GetCleaningRules(url string, policy ContentProcessingPolicy) []string {
	return policy.CleaningRules
}

func (e *ContentProcessingPolicyEvaluator) ShouldExtractMetadata(url string, policy ContentProcessingPolicy) bool {
	return policy.MetadataExtraction
}

func (e *ContentProcessingPolicyEvaluator) ShouldExtractImages(url string, policy ContentProcessingPolicy) bool {
	return policy.ImageExtraction
}

func (e *ContentProcessingPolicyEvaluator) ShouldConvertToMarkdown(url string, policy ContentProcessingPolicy) bool {
	return policy.MarkdownConversion
}

// MeetsWordCountRequirement rejects pages that are mostly nav/boilerplate.
func (e *ContentQualityPolicyEvaluator) MeetsWordCountRequirement(wordCount int, policy ContentQualityPolicy) bool {
	return wordCount >= policy.MinWordCount
}

func (e *ContentQualityPolicyEvaluator) MeetsTitleLengthRequirement(title string, policy ContentQualityPolicy) bool {
	return len(strings.TrimSpace(title)) >= policy.MinTitleLength
}

func (e *ContentQualityPolicyEvaluator) MeetsHeadingsRequirement(content string, policy ContentQualityPolicy) bool {
	if !policy.RequireHeadings {
		return true
	}
	return strings.Contains(content, "<h1") || strings.Contains(content, "<h2")
}

// MeetsHTMLTagRatioRequirement catches pages where extraction likely
// grabbed chrome (nav, ads) instead of article body: a high tag-to-word
// ratio is the cheap proxy, same signal engine/strategies' CssJsonExtractor
// uses selectors to avoid in the first place.
func (e *ContentQualityPolicyEvaluator) MeetsHTMLTagRatioRequirement(content string, policy ContentQualityPolicy) bool {
	if policy.MaxHTMLTagRatio >= 1.0 {
		return true
	}

	tagCount := strings.Count(content, "<")
	if tagCount == 0 {
		return true
	}

	words := strings.Fields(content)
	wordCount := 0
	for _, word := range words {
		if !strings.HasPrefix(word, "<") {
			wordCount++
		}
	}

	if wordCount == 0 {
		return false
	}

	ratio := float64(tagCount) / float64(wordCount)
	return ratio <= policy.MaxHTMLTagRatio
}

func (e *ContentQualityPolicyEvaluator) MeetsDescriptionRequirement(description string, policy ContentQualityPolicy) bool {
	if !policy.RequireDescription {
		return true
	}
	return strings.TrimSpace(description) != ""
}

func (d *ProcessingDecisionMaker) ShouldProcessContent(url string, policy ProcessingBusinessPolicy) ProcessingDecision {
	shouldProcess := d.contentEvaluator.ShouldProcessContent(url, policy.ContentPolicy)

	return ProcessingDecision{
		URL:            url,
		ShouldProcess:  shouldProcess,
		ProcessingType: "content_processing",
		Reason:         "policy_evaluation",
	}
}

func (d *ProcessingDecisionMaker) GetProcessingSteps(url string, policy ProcessingBusinessPolicy) ProcessingStepsDecision {
	steps := []string{"content_extraction", "content_cleaning"}

	if policy.ContentPolicy.MetadataExtraction {
		steps = append(steps, "metadata_extraction")
	}
	if policy.ContentPolicy.ImageExtraction {
		steps = append(steps, "image_extraction")
	}
	if policy.ContentPolicy.MarkdownConversion {
		steps = append(steps, "markdown_conversion")
	}
	if policy.ContentPolicy.ContentValidation {
		steps = append(steps, "content_validation")
	}

	return ProcessingStepsDecision{URL: url, ProcessingSteps: steps}
}

func (d *ProcessingDecisionMaker) CreateProcessingContext(url string, policy ProcessingBusinessPolicy) ProcessingContext {
	return ProcessingContext{
		URL:       url,
		Policy:    policy,
		CreatedAt: time.Now(),
		Status:    "pending",
	}
}

// BatchShouldProcess evaluates a batch of seed/discovered URLs against a
// shared policy, mirroring engine/validation.ValidateSeeds' per-item,
// never-fail-the-whole-batch shape.
func (d *ProcessingDecisionMaker) BatchShouldProcess(urls []string, policy ProcessingBusinessPolicy) []ProcessingDecision {
	decisions := make([]ProcessingDecision, len(urls))
	for i, url := range urls {
		decisions[i] = d.ShouldProcessContent(url, policy)
	}
	return decisions
}
