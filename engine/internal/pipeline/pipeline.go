// Package pipeline runs a crawl as a four-stage worker pool: discovery feeds
// URLs into extraction, extraction fetches and hands pages to processing,
// processing runs the configured extraction/asset hooks, and output delivers
// CrawlResults to the caller. Stages are decoupled by buffered channels so a
// slow extraction worker doesn't stall discovery, and each stage closes its
// downstream channel once its own workers have drained, letting the whole
// pipeline wind down without an explicit shutdown handshake.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foofork/riptidecrawler-sub009/engine/internal/crawler"
	"github.com/foofork/riptidecrawler-sub009/engine/models"
	"github.com/foofork/riptidecrawler-sub009/engine/ratelimit"
	engresources "github.com/foofork/riptidecrawler-sub009/engine/resources"
)

// PipelineConfig configures a single crawl's worker pool, retry policy, and
// the cross-cutting collaborators (rate limiter, resource manager, fetcher,
// extraction/asset hooks) the stages consult.
type PipelineConfig struct {
	DiscoveryWorkers  int `yaml:"discovery_workers" json:"discovery_workers"`
	ExtractionWorkers int `yaml:"extraction_workers" json:"extraction_workers"`
	ProcessingWorkers int `yaml:"processing_workers" json:"processing_workers"`
	OutputWorkers     int `yaml:"output_workers" json:"output_workers"`
	BufferSize        int `yaml:"buffer_size" json:"buffer_size"`

	RateLimiter      ratelimit.RateLimiter `yaml:"-" json:"-"`
	RetryBaseDelay   time.Duration         `yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay    time.Duration         `yaml:"retry_max_delay" json:"retry_max_delay"`
	RetryMaxAttempts int                   `yaml:"retry_max_attempts" json:"retry_max_attempts"`
	ResourceManager  *engresources.Manager `yaml:"-" json:"-"`

	// Fetcher performs the actual HTTP fetch for the extraction stage. Nil
	// falls back to a CollyFetcher built from FetchPolicy.
	Fetcher     crawler.Fetcher   `yaml:"-" json:"-"`
	FetchPolicy crawler.FetchPolicy `yaml:"-" json:"-"`

	// AssetProcessingHook allows the engine to inject page mutation logic after extraction
	// but before result emission (e.g., asset strategy rewrite). Optional.
	AssetProcessingHook func(ctx context.Context, page *models.Page) (*models.Page, error) `yaml:"-" json:"-"`

	// ExtractionHook lets the engine run a pluggable extraction strategy (CssJson/Regex/
	// Llm) over the raw page content, attaching Chunks/Conflicts to the page before
	// AssetProcessingHook runs. Optional.
	ExtractionHook func(ctx context.Context, page *models.Page) (*models.Page, error) `yaml:"-" json:"-"`
}

type extractionTask struct {
	url     string
	attempt int
}

// StageStatus reports one stage's current worker count and queue depth.
type StageStatus struct {
	Name    string `json:"name"`
	Workers int    `json:"workers"`
	Active  bool   `json:"active"`
	Queue   int    `json:"queue"`
}

// StageMetrics accumulates one stage's processed/failed counts and average
// handling time.
type StageMetrics struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	AvgTime   time.Duration `json:"avg_time"`
}

// PipelineMetrics is the aggregate view engine.Snapshot embeds.
type PipelineMetrics struct {
	TotalProcessed int                     `json:"total_processed"`
	TotalFailed    int                     `json:"total_failed"`
	StartTime      time.Time               `json:"start_time"`
	Duration       time.Duration           `json:"duration"`
	StageMetrics   map[string]StageMetrics `json:"stage_metrics"`
}

// Pipeline is one crawl's live worker pool plus its channels and metrics.
type Pipeline struct {
	config           *PipelineConfig
	urlQueue         chan string
	extractionQueue  chan extractionTask
	processingQueue  chan *models.Page
	outputQueue      chan *models.CrawlResult
	resultsInternal  chan *models.CrawlResult
	results          chan *models.CrawlResult
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	mutex            sync.RWMutex
	metrics          *PipelineMetrics
	stageStatus      map[string]*StageStatus
	closeResultsOnce sync.Once
	expectedResults  int64
	resultCount      int64

	discoveryWG, extractionWG, processingWG, outputWG sync.WaitGroup
	retryWG                                            sync.WaitGroup

	limiter         ratelimit.RateLimiter
	resourceManager *engresources.Manager
	fetcher         crawler.Fetcher

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewPipeline builds a Pipeline from config, defaulting the retry policy and
// constructing a CollyFetcher from FetchPolicy when no Fetcher was supplied,
// then starts every stage's workers immediately.
func NewPipeline(config *PipelineConfig) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 200 * time.Millisecond
	}
	if config.RetryMaxDelay <= 0 {
		config.RetryMaxDelay = 5 * time.Second
	}
	if config.RetryMaxAttempts <= 0 {
		config.RetryMaxAttempts = 3
	}

	fetcher := config.Fetcher
	if fetcher == nil {
		policy := config.FetchPolicy
		if policy.Timeout <= 0 {
			policy.Timeout = 15 * time.Second
		}
		if cf, err := crawler.NewCollyFetcher(policy); err == nil {
			fetcher = cf
		}
	}

	randGen := rand.New(rand.NewSource(time.Now().UnixNano()))
	p := &Pipeline{
		config:          config,
		ctx:             ctx,
		cancel:          cancel,
		urlQueue:        make(chan string, config.BufferSize),
		extractionQueue: make(chan extractionTask, config.BufferSize),
		processingQueue: make(chan *models.Page, config.BufferSize),
		outputQueue:     make(chan *models.CrawlResult, config.BufferSize),
		resultsInternal: make(chan *models.CrawlResult, config.BufferSize),
		results:         make(chan *models.CrawlResult, config.BufferSize),
		metrics:         &PipelineMetrics{StartTime: time.Now(), StageMetrics: make(map[string]StageMetrics)},
		stageStatus:     make(map[string]*StageStatus),
		limiter:         config.RateLimiter,
		resourceManager: config.ResourceManager,
		fetcher:         fetcher,
		rand:            randGen,
	}
	p.initStageStatus()
	p.startStages()
	p.startResultAggregator()
	return p
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() *PipelineConfig { return p.config }

// StageStatus reports the named stage's current status, or an inactive
// placeholder if the name is unrecognized.
func (p *Pipeline) StageStatus(stageName string) *StageStatus {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if s, ok := p.stageStatus[stageName]; ok {
		return s
	}
	return &StageStatus{Name: stageName, Active: false}
}

// ProcessURLs seeds the discovery stage with urls and returns the channel
// results will arrive on as the crawl completes each one.
func (p *Pipeline) ProcessURLs(ctx context.Context, urls []string) <-chan *models.CrawlResult {
	atomic.StoreInt64(&p.expectedResults, int64(len(urls)))
	atomic.StoreInt64(&p.resultCount, 0)
	processCtx, processCancel := context.WithCancel(ctx)
	go func() {
		defer processCancel()
		defer close(p.urlQueue)
		for _, u := range urls {
			select {
			case p.urlQueue <- u:
			case <-processCtx.Done():
				return
			case <-p.ctx.Done():
				return
			}
		}
	}()
	return p.results
}

// Metrics returns a snapshot copy of current aggregate metrics (duration updated).
func (p *Pipeline) Metrics() *PipelineMetrics {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	cp := *p.metrics
	cp.Duration = time.Since(cp.StartTime)
	return &cp
}

// SetMetricsForTest injects synthetic counters for tests (not for production use).
func (p *Pipeline) SetMetricsForTest(m *PipelineMetrics) {
	if p == nil || m == nil {
		return
	}
	p.mutex.Lock()
	p.metrics.TotalProcessed = m.TotalProcessed
	p.metrics.TotalFailed = m.TotalFailed
	p.mutex.Unlock()
}

// Stop cancels the pipeline's context, waits for every worker and retry
// goroutine to exit, and closes the results channel. Safe to call once.
func (p *Pipeline) Stop() {
	p.cancel()
	p.retryWG.Wait()
	p.wg.Wait()
	p.mutex.Lock()
	for _, st := range p.stageStatus {
		st.Active = false
	}
	p.mutex.Unlock()
	p.closeResults()
	if closable, ok := p.limiter.(interface{ Close() error }); ok {
		_ = closable.Close()
	}
}

// startStages launches each stage's worker goroutines and wires the
// channel-closing chain: a stage closes its downstream queue only once all
// of its own workers (and, for extraction, any outstanding retries) have
// finished, so no stage ever reads from a channel still being written to.
func (p *Pipeline) startStages() {
	p.discoveryWG.Add(p.config.DiscoveryWorkers)
	for i := 0; i < p.config.DiscoveryWorkers; i++ {
		p.wg.Add(1)
		go p.discoveryWorker()
	}
	go func() {
		p.discoveryWG.Wait()
		<-p.ctx.Done()
		p.retryWG.Wait()
		close(p.extractionQueue)
	}()

	p.extractionWG.Add(p.config.ExtractionWorkers)
	for i := 0; i < p.config.ExtractionWorkers; i++ {
		p.wg.Add(1)
		go p.extractionWorker()
	}
	go func() { p.extractionWG.Wait(); close(p.processingQueue) }()

	p.processingWG.Add(p.config.ProcessingWorkers)
	for i := 0; i < p.config.ProcessingWorkers; i++ {
		p.wg.Add(1)
		go p.processingWorker()
	}
	go func() { p.processingWG.Wait(); close(p.outputQueue) }()

	p.outputWG.Add(p.config.OutputWorkers)
	for i := 0; i < p.config.OutputWorkers; i++ {
		p.wg.Add(1)
		go p.outputWorker()
	}
	go func() { p.outputWG.Wait(); close(p.resultsInternal) }()
}

func (p *Pipeline) startResultAggregator() {
	p.wg.Add(1)
	go p.monitorResults()
}

// monitorResults drains resultsInternal into the public results channel,
// stopping the whole pipeline once every seeded URL has produced a result.
func (p *Pipeline) monitorResults() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			p.drainResultsInternal()
			p.closeResults()
			return
		case result, ok := <-p.resultsInternal:
			if !ok {
				p.closeResults()
				return
			}
			if !p.forwardResult(result) {
				p.drainResultsInternal()
				p.closeResults()
				return
			}
			newCount := atomic.AddInt64(&p.resultCount, 1)
			expected := atomic.LoadInt64(&p.expectedResults)
			if expected > 0 && newCount >= expected {
				p.cancel()
				p.drainResultsInternal()
				p.closeResults()
				return
			}
		}
	}
}

func (p *Pipeline) forwardResult(result *models.CrawlResult) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.results <- result:
		return true
	}
}

func (p *Pipeline) closeResults() { p.closeResultsOnce.Do(func() { close(p.results) }) }

func (p *Pipeline) drainResultsInternal() {
	for {
		select {
		case _, ok := <-p.resultsInternal:
			if !ok {
				return
			}
			continue
		default:
			return
		}
	}
}

func (p *Pipeline) deliverResult(result *models.CrawlResult) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.resultsInternal <- result:
		if p.resourceManager != nil && result != nil {
			checkpointURL := result.URL
			if checkpointURL == "" && result.Page != nil && result.Page.URL != nil {
				checkpointURL = result.Page.URL.String()
			}
			if checkpointURL != "" {
				p.resourceManager.Checkpoint(checkpointURL)
			}
		}
		return true
	}
}

func (p *Pipeline) forwardToProcessing(page *models.Page, fromCache bool) bool {
	if page == nil {
		return false
	}
	select {
	case p.processingQueue <- page:
		if fromCache {
			p.updateStageMetrics("cache", true)
		} else {
			p.updateStageMetrics("extraction", true)
		}
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pipeline) enqueueExtraction(u string, attempt int) bool {
	task := extractionTask{url: u, attempt: attempt}
	var sent bool
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()
	select {
	case <-p.ctx.Done():
		return false
	case p.extractionQueue <- task:
		sent = true
	}
	return sent
}

func (p *Pipeline) scheduleRetry(u string, attempt int, delay time.Duration) {
	if p.config.RetryMaxAttempts > 0 && attempt >= p.config.RetryMaxAttempts {
		return
	}
	if err := p.ctx.Err(); err != nil {
		return
	}
	p.retryWG.Add(1)
	go func() {
		defer p.retryWG.Done()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-p.ctx.Done():
				return
			case <-timer.C:
			}
		} else {
			select {
			case <-p.ctx.Done():
				return
			default:
			}
		}
		if err := p.ctx.Err(); err != nil {
			return
		}
		p.enqueueExtraction(u, attempt)
	}()
}

func (p *Pipeline) shouldRetry(task extractionTask) bool {
	if p.config.RetryMaxAttempts <= 0 {
		return false
	}
	return task.attempt+1 < p.config.RetryMaxAttempts
}

// backoffDelay computes an exponential delay capped at RetryMaxDelay, then
// randomizes within that window so retrying workers don't all wake at once.
func (p *Pipeline) backoffDelay(attempt int) time.Duration {
	base := p.config.RetryBaseDelay
	max := p.config.RetryMaxDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 5 * time.Second
	}
	delay := base * time.Duration(1<<(attempt-1))
	if delay > max {
		delay = max
	}
	jitter := p.randomizedDelay(delay)
	if jitter <= 0 {
		return delay
	}
	return jitter
}

func (p *Pipeline) randomizedDelay(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return time.Duration(p.rand.Float64() * float64(max))
}

func (p *Pipeline) acquirePermit(task extractionTask, domain string) (ratelimit.Permit, error) {
	if p.limiter == nil || domain == "" {
		return nil, nil
	}
	permit, err := p.limiter.Acquire(p.ctx, domain)
	if err != nil {
		return nil, err
	}
	return permit, nil
}

func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (p *Pipeline) discoveryWorker() {
	defer p.wg.Done()
	defer p.discoveryWG.Done()
	for {
		select {
		case u, ok := <-p.urlQueue:
			if !ok {
				return
			}
			if p.isValidURL(u) {
				if p.enqueueExtraction(u, 0) {
					p.updateStageMetrics("discovery", true)
				} else {
					return
				}
			} else {
				p.updateStageMetrics("discovery", false)
				p.sendErrorResult(u, "discovery", "invalid URL", false)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// extractionWorker is the pipeline's rate-limited, resource-managed fetch
// stage: it consults the resource manager's cache before doing any network
// work, acquires a limiter permit per domain, fetches through the
// configured Fetcher, and feeds the outcome back to the limiter so a
// misbehaving host backs off the rest of the crawl.
func (p *Pipeline) extractionWorker() {
	defer p.wg.Done()
	defer p.extractionWG.Done()
	for {
		select {
		case task, ok := <-p.extractionQueue:
			if !ok {
				return
			}
			domain := extractDomain(task.url)
			manager := p.resourceManager
			if manager != nil {
				cachedPage, hit, err := manager.GetPage(task.url)
				if err != nil {
					p.updateStageMetrics("extraction", false)
					p.sendErrorResult(task.url, "extraction", fmt.Sprintf("cache lookup failed: %v", err), false)
					continue
				}
				if hit && cachedPage != nil {
					if !p.forwardToProcessing(cachedPage, true) {
						return
					}
					continue
				}
			}
			permit, err := p.acquirePermit(task, domain)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				p.updateStageMetrics("extraction", false)
				if errors.Is(err, ratelimit.ErrCircuitOpen) && p.shouldRetry(task) {
					delay := p.backoffDelay(task.attempt + 1)
					p.scheduleRetry(task.url, task.attempt+1, delay)
					continue
				}
				p.sendErrorResult(task.url, "extraction", err.Error(), false)
				continue
			}
			var slotAcquired bool
			if manager != nil {
				if acquireErr := manager.Acquire(p.ctx); acquireErr != nil {
					if permit != nil {
						permit.Release()
					}
					if errors.Is(acquireErr, context.Canceled) {
						return
					}
					p.updateStageMetrics("extraction", false)
					p.sendErrorResult(task.url, "extraction", acquireErr.Error(), false)
					continue
				}
				slotAcquired = true
			}
			start := time.Now()
			page, status, fetchErr := p.extractContent(task.url)
			latency := time.Since(start)
			if permit != nil {
				permit.Release()
			}
			releaseSlot := func() {
				if slotAcquired && manager != nil {
					manager.Release()
					slotAcquired = false
				}
			}
			if fetchErr == nil && page != nil {
				if manager != nil {
					if err := manager.StorePage(task.url, page); err != nil {
						releaseSlot()
						p.updateStageMetrics("extraction", false)
						p.sendErrorResult(task.url, "extraction", fmt.Sprintf("cache store failed: %v", err), false)
						continue
					}
				}
				releaseSlot()
				if p.limiter != nil && domain != "" {
					p.limiter.Feedback(domain, ratelimit.Feedback{StatusCode: status, Latency: latency})
				}
				if !p.forwardToProcessing(page, false) {
					return
				}
			} else {
				releaseSlot()
				if p.limiter != nil && domain != "" {
					p.limiter.Feedback(domain, ratelimit.Feedback{StatusCode: status, Latency: latency, Err: fetchErr})
				}
				p.updateStageMetrics("extraction", false)
				if p.shouldRetry(task) {
					delay := p.backoffDelay(task.attempt + 1)
					p.scheduleRetry(task.url, task.attempt+1, delay)
					continue
				}
				msg := fmt.Sprintf("failed after %d attempts", task.attempt+1)
				if fetchErr != nil {
					msg = fetchErr.Error()
				}
				p.sendErrorResult(task.url, "extraction", msg, false)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pipeline) processingWorker() {
	defer p.wg.Done()
	defer p.processingWG.Done()
	for {
		select {
		case page, ok := <-p.processingQueue:
			if !ok {
				return
			}
			result := p.processContent(page)
			select {
			case p.outputQueue <- result:
				p.updateStageMetrics("processing", result.Success)
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pipeline) outputWorker() {
	defer p.wg.Done()
	defer p.outputWG.Done()
	for {
		select {
		case result, ok := <-p.outputQueue:
			if !ok {
				return
			}
			result.Stage = "output"
			if !p.deliverResult(result) {
				return
			}
			p.updateStageMetrics("output", result.Success)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pipeline) isValidURL(u string) bool {
	if u == "" {
		return false
	}
	parsed, err := url.Parse(u)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// extractContent fetches rawURL through the configured Fetcher and converts
// the result into a models.Page. Returns the observed HTTP status alongside
// the page so the caller can feed it back to the rate limiter even on a
// non-2xx response.
func (p *Pipeline) extractContent(rawURL string) (*models.Page, int, error) {
	if p.fetcher == nil {
		return nil, 0, errors.New("no fetcher configured")
	}
	result, err := p.fetcher.Fetch(p.ctx, rawURL)
	if err != nil {
		return nil, 0, err
	}
	page := &models.Page{
		URL:       result.URL,
		Content:   string(result.Content),
		Links:     result.Links,
		CrawledAt: time.Now(),
	}
	if title, ok := result.Metadata["title"].(string); ok {
		page.Title = title
	}
	if desc, ok := result.Metadata["description"].(string); ok {
		page.Metadata.Description = desc
	}
	if result.Status >= 400 {
		return nil, result.Status, fmt.Errorf("fetch %s: status %d", rawURL, result.Status)
	}
	return page, result.Status, nil
}

// processContent runs the configured extraction/asset hooks over a fetched
// page and assembles the final CrawlResult.
func (p *Pipeline) processContent(page *models.Page) *models.CrawlResult {
	var processedPage *models.Page
	if page != nil {
		page.ProcessedAt = time.Now()
		processedPage = page
		if p.config.ExtractionHook != nil {
			ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
			mutated, err := p.config.ExtractionHook(ctx, processedPage)
			cancel()
			if err == nil && mutated != nil {
				processedPage = mutated
			}
		}
		if p.config.AssetProcessingHook != nil {
			ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
			mutated, err := p.config.AssetProcessingHook(ctx, processedPage)
			cancel()
			if err == nil && mutated != nil {
				processedPage = mutated
			}
		}
	}
	resultURL := ""
	if processedPage != nil && processedPage.URL != nil {
		resultURL = processedPage.URL.String()
	}
	return &models.CrawlResult{URL: resultURL, Page: processedPage, Success: true, Stage: "processing", StatusCode: 200}
}

func (p *Pipeline) sendErrorResult(u, stage, msg string, retry bool) {
	result := &models.CrawlResult{URL: u, Error: models.NewCrawlError(u, stage, errors.New(msg)), Success: false, Stage: stage, Retry: retry}
	p.deliverResult(result)
}

func (p *Pipeline) updateStageMetrics(stage string, success bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	m := p.metrics.StageMetrics[stage]
	if success {
		m.Processed++
		if stage != "cache" {
			p.metrics.TotalProcessed++
		}
	} else {
		m.Failed++
		if stage != "cache" {
			p.metrics.TotalFailed++
		}
	}
	p.metrics.StageMetrics[stage] = m
}

func (p *Pipeline) initStageStatus() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stageStatus["discovery"] = &StageStatus{Name: "discovery", Workers: p.config.DiscoveryWorkers, Active: p.config.DiscoveryWorkers > 0}
	p.stageStatus["extraction"] = &StageStatus{Name: "extraction", Workers: p.config.ExtractionWorkers, Active: p.config.ExtractionWorkers > 0}
	p.stageStatus["processing"] = &StageStatus{Name: "processing", Workers: p.config.ProcessingWorkers, Active: p.config.ProcessingWorkers > 0}
	p.stageStatus["output"] = &StageStatus{Name: "output", Workers: p.config.OutputWorkers, Active: p.config.OutputWorkers > 0}
}
