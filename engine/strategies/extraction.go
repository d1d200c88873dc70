package strategies

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sashabaranov/go-openai"

	engmodels "github.com/foofork/riptidecrawler-sub009/engine/models"
)

// ExtractionKind enumerates the pluggable content extraction strategies the
// strategy layer can run over a fetched document. Wasm is contract-only: it
// describes the shape an external sandboxed extractor would fill in, but no
// Wasm runtime is vendored here (see the stealth/render contract for the
// same pattern applied to headless rendering).
type ExtractionKind string

const (
	ExtractionWasm    ExtractionKind = "wasm"
	ExtractionCssJson ExtractionKind = "css_json"
	ExtractionRegex   ExtractionKind = "regex"
	ExtractionLlm     ExtractionKind = "llm"
)

// MergePolicy controls how two extraction strategies' outputs are reconciled
// when more than one strategy runs over the same document.
type MergePolicy string

const (
	MergeCssWins    MergePolicy = "css_wins"
	MergeOtherWins  MergePolicy = "other_wins"
	MergeMerge      MergePolicy = "merge"
	MergeFirstValid MergePolicy = "first_valid"
)

// ChunkMode selects how ExtractedDoc.Content is split into models.Chunk
// records for downstream embedding/indexing.
type ChunkMode string

const (
	ChunkSliding  ChunkMode = "sliding"
	ChunkFixed    ChunkMode = "fixed"
	ChunkSentence ChunkMode = "sentence"
	ChunkTopic    ChunkMode = "topic"
	ChunkRegex    ChunkMode = "regex"
)

// ExtractionResult is one strategy's view of a document's fields, keyed by
// field name so the merge step can compare contributions field-by-field.
type ExtractionResult struct {
	Strategy ExtractionKind
	Fields   map[string]string
}

// Extractor runs one extraction strategy over raw HTML and returns its
// field contributions. Strategies never mutate the shared document; the
// merge step owns reconciliation.
type Extractor interface {
	Kind() ExtractionKind
	Extract(ctx context.Context, rawHTML string, baseSelectors map[string]string) (ExtractionResult, error)
}

// CssJsonExtractor selects fields via goquery CSS selectors, the same
// dependency and traversal style as engine/internal/processor.ContentProcessor.
type CssJsonExtractor struct{}

func (CssJsonExtractor) Kind() ExtractionKind { return ExtractionCssJson }

func (CssJsonExtractor) Extract(_ context.Context, rawHTML string, selectors map[string]string) (ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("css_json: parse html: %w", err)
	}
	fields := make(map[string]string, len(selectors))
	for field, sel := range selectors {
		if sel == "" {
			continue
		}
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			fields[field] = text
		}
	}
	return ExtractionResult{Strategy: ExtractionCssJson, Fields: fields}, nil
}

// RegexExtractor applies a fixed set of named capture-group patterns
// directly against the raw markup, for sites whose structure defeats CSS
// selection (inline JSON blobs, malformed HTML).
type RegexExtractor struct {
	Patterns map[string]*regexp.Regexp
}

func (RegexExtractor) Kind() ExtractionKind { return ExtractionRegex }

func (r RegexExtractor) Extract(_ context.Context, rawHTML string, _ map[string]string) (ExtractionResult, error) {
	fields := make(map[string]string, len(r.Patterns))
	for field, re := range r.Patterns {
		if m := re.FindStringSubmatch(rawHTML); len(m) > 1 {
			fields[field] = strings.TrimSpace(m[1])
		}
	}
	return ExtractionResult{Strategy: ExtractionRegex, Fields: fields}, nil
}

// WasmContract describes the fields a sandboxed Wasm extractor would return;
// no Wasm runtime is embedded. A host that wires a real runtime implements
// Extractor by shelling out to this contract's function signature.
type WasmContract struct {
	ModuleName string
	EntryPoint string
}

// LlmExtractor asks a chat-completion model to fill in the requested fields
// as a fallback when structural strategies come up empty, grounded on the
// go-openai client also used for summarization in the research-report
// teacher's pipeline.
type LlmExtractor struct {
	Client  *openai.Client
	Model   string
	Fallback Extractor
}

func NewLlmExtractor(apiKey, model string, fallback Extractor) *LlmExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LlmExtractor{Client: openai.NewClient(apiKey), Model: model, Fallback: fallback}
}

func (*LlmExtractor) Kind() ExtractionKind { return ExtractionLlm }

func (e *LlmExtractor) Extract(ctx context.Context, rawHTML string, selectors map[string]string) (ExtractionResult, error) {
	if e.Client == nil {
		if e.Fallback != nil {
			return e.Fallback.Extract(ctx, rawHTML, selectors)
		}
		return ExtractionResult{}, fmt.Errorf("llm: no client configured and no fallback")
	}
	fieldList := make([]string, 0, len(selectors))
	for field := range selectors {
		fieldList = append(fieldList, field)
	}
	prompt := fmt.Sprintf("Extract the following fields as \"field: value\" lines from this HTML document: %s\n\n%s",
		strings.Join(fieldList, ", "), truncate(rawHTML, 8000))

	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		if e.Fallback != nil {
			return e.Fallback.Extract(ctx, rawHTML, selectors)
		}
		return ExtractionResult{}, fmt.Errorf("llm: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ExtractionResult{Strategy: ExtractionLlm, Fields: map[string]string{}}, nil
	}
	return ExtractionResult{Strategy: ExtractionLlm, Fields: parseFieldLines(resp.Choices[0].Message.Content)}, nil
}

func parseFieldLines(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key != "" && val != "" {
			fields[key] = val
		}
	}
	return fields
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Merge reconciles the field contributions of two extraction strategies
// according to policy, recording a models.ConflictRecord for every field
// where they disagreed.
func Merge(policy MergePolicy, primary, secondary ExtractionResult) (map[string]string, []engmodels.ConflictRecord) {
	result := make(map[string]string)
	var conflicts []engmodels.ConflictRecord

	keys := make(map[string]struct{})
	for k := range primary.Fields {
		keys[k] = struct{}{}
	}
	for k := range secondary.Fields {
		keys[k] = struct{}{}
	}

	for field := range keys {
		pv, pok := primary.Fields[field]
		sv, sok := secondary.Fields[field]
		switch {
		case pok && !sok:
			result[field] = pv
		case !pok && sok:
			result[field] = sv
		case pok && sok && pv == sv:
			result[field] = pv
		case pok && sok:
			winner, discardStrategy, discardVal := resolveConflict(policy, primary, secondary, pv, sv)
			result[field] = winner
			winnerStrategy := primary.Strategy
			if discardStrategy == primary.Strategy {
				winnerStrategy = secondary.Strategy
			}
			conflicts = append(conflicts, engmodels.ConflictRecord{
				Field: field, Winner: string(winnerStrategy), Discard: string(discardStrategy), Policy: string(policy),
			})
			_ = discardVal
		}
	}
	return result, conflicts
}

func resolveConflict(policy MergePolicy, primary, secondary ExtractionResult, pv, sv string) (winner string, discardStrategy ExtractionKind, discardVal string) {
	switch policy {
	case MergeOtherWins:
		return sv, primary.Strategy, pv
	case MergeFirstValid:
		if pv != "" {
			return pv, secondary.Strategy, sv
		}
		return sv, primary.Strategy, pv
	case MergeMerge:
		return pv + " " + sv, secondary.Strategy, sv
	default: // MergeCssWins and unset default to primary winning
		return pv, secondary.Strategy, sv
	}
}

// Chunk splits content into models.Chunk records per the selected mode.
// Sliding and Fixed both produce byte-bounded windows; Sliding overlaps
// windows by half their size so boundary content isn't lost to truncation,
// Fixed does not overlap. Sentence splits on terminal punctuation. Regex
// splits on pattern and falls back to Fixed when pattern is nil. Topic takes
// no boundary hints here and always chunks as Fixed.
func Chunk(mode ChunkMode, content string, size int, pattern *regexp.Regexp) []engmodels.Chunk {
	if size <= 0 {
		size = 1000
	}
	switch mode {
	case ChunkSentence:
		return chunkSentences(content)
	case ChunkRegex:
		if pattern != nil {
			return chunkByPattern(content, pattern)
		}
		return chunkFixed(content, size, 0)
	case ChunkSliding:
		return chunkFixed(content, size, size/2)
	default: // ChunkFixed, ChunkTopic (no external hints supplied)
		return chunkFixed(content, size, 0)
	}
}

func chunkFixed(content string, size, overlap int) []engmodels.Chunk {
	var chunks []engmodels.Chunk
	step := size - overlap
	if step <= 0 {
		step = size
	}
	for start, idx := 0, 0; start < len(content); start += step {
		end := start + size
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, engmodels.Chunk{Index: idx, Text: content[start:end], StartByte: start, EndByte: end})
		idx++
		if end == len(content) {
			break
		}
	}
	return chunks
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

func chunkSentences(content string) []engmodels.Chunk {
	var chunks []engmodels.Chunk
	locs := sentenceBoundary.FindAllStringIndex(content, -1)
	start := 0
	idx := 0
	for _, loc := range locs {
		end := loc[1]
		chunks = append(chunks, engmodels.Chunk{Index: idx, Text: strings.TrimSpace(content[start:end]), StartByte: start, EndByte: end})
		start = end
		idx++
	}
	if start < len(content) {
		chunks = append(chunks, engmodels.Chunk{Index: idx, Text: strings.TrimSpace(content[start:]), StartByte: start, EndByte: len(content)})
	}
	return chunks
}

func chunkByPattern(content string, pattern *regexp.Regexp) []engmodels.Chunk {
	parts := pattern.Split(content, -1)
	var chunks []engmodels.Chunk
	pos := 0
	for idx, part := range parts {
		chunks = append(chunks, engmodels.Chunk{Index: idx, Text: part, StartByte: pos, EndByte: pos + len(part)})
		pos += len(part)
	}
	return chunks
}
