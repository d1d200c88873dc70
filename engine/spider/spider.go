// Package spider implements the crawl frontier: strategy-selected URL
// ordering (breadth/depth/best-first/adaptive) plus probabilistic+exact
// dedup, generalized out of engine/internal/crawler.Crawler's inline
// sync.Map visited set so multiple strategies can share one frontier type.
package spider

import (
	"container/heap"
	"container/list"
	"hash/fnv"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/foofork/riptidecrawler-sub009/engine/models"
)

// Dedup combines a bloom filter (cheap, probabilistic, unbounded URL-space
// membership test) with a bounded exact LRU set (the last N URLs, confirmed
// collision-free) so frontier dedup stays O(1)-ish in memory for long crawls
// while still being exact for the common case of near-duplicate submissions
// clustered in time (pagination, redirects, link cycles).
type Dedup struct {
	mu        sync.Mutex
	bloom     *bitset.BitSet
	bits      uint
	hashSeeds []uint64
	recent    *list.List
	recentM   map[string]*list.Element
	recentCap int
}

// NewDedup builds a Dedup sized for roughly expectedURLs entries at a ~1%
// false positive rate (k=7 hash functions, m≈10x expectedURLs bits — the
// standard Bloom filter sizing rule of thumb), backed by an exact recent-LRU
// of recentCap entries for confirmation.
func NewDedup(expectedURLs, recentCap int) *Dedup {
	if expectedURLs <= 0 {
		expectedURLs = 100_000
	}
	if recentCap <= 0 {
		recentCap = 10_000
	}
	bits := uint(expectedURLs * 10)
	return &Dedup{
		bloom:     bitset.New(bits),
		bits:      bits,
		hashSeeds: []uint64{0x9e3779b97f4a7c15, 0xc2b2ae3d27d4eb4f, 0x165667b19e3779f9, 0x27d4eb2f165667c5, 0x85ebca6bc2b2ae35, 0xbf58476d1ce4e5b9, 0x94d049bb133111eb},
		recent:    list.New(),
		recentM:   make(map[string]*list.Element),
		recentCap: recentCap,
	}
}

func (d *Dedup) indices(key string) []uint {
	idx := make([]uint, len(d.hashSeeds))
	for i, seed := range d.hashSeeds {
		h := fnv.New64a()
		_, _ = h.Write([]byte(key))
		var seedBytes [8]byte
		for b := 0; b < 8; b++ {
			seedBytes[b] = byte(seed >> (8 * b))
		}
		_, _ = h.Write(seedBytes[:])
		idx[i] = uint(h.Sum64() % uint64(d.bits))
	}
	return idx
}

// Seen reports whether key was already submitted, and marks it seen as a
// side effect (check-and-set, matching sync.Map.LoadOrStore's contract that
// engine/internal/crawler.Crawler's visited field relied on).
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.recentM[key]; ok {
		d.recent.MoveToFront(el)
		return true
	}

	idx := d.indices(key)
	allSet := true
	for _, i := range idx {
		if !d.bloom.Test(i) {
			allSet = false
		}
		d.bloom.Set(i)
	}

	d.pushRecent(key)
	// allSet true means every bit was already 1: almost certainly seen before
	// (false positive rate bounded by filter sizing), but since it fell out of
	// the recent-LRU window we can't confirm exactly; treat as seen rather
	// than risk unbounded re-crawl of popular URLs that scrolled out of the
	// recent window.
	return allSet
}

func (d *Dedup) pushRecent(key string) {
	el := d.recent.PushFront(key)
	d.recentM[key] = el
	if d.recent.Len() > d.recentCap {
		back := d.recent.Back()
		if back != nil {
			d.recent.Remove(back)
			delete(d.recentM, back.Value.(string))
		}
	}
}

// frontierItem is one queued crawl candidate.
type frontierItem struct {
	url   string
	depth int
	score float64 // BestFirst/Adaptive priority; higher runs sooner
	seq   int64   // FIFO/LIFO tiebreaker, also used as heap insertion order
}

// priorityQueue is a max-heap on score, min-heap on seq for stable FIFO
// ordering among equal scores (BreadthFirst/DepthFirst degrade to this).
type priorityQueue []*frontierItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].score != pq[j].score {
		return pq[i].score > pq[j].score
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*frontierItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ScoreFunc computes a BestFirst/Adaptive priority for a candidate URL at a
// given depth; higher scores are dequeued first. Callers typically score by
// predicted content relevance (keyword match, PageRank-like signal); the
// frontier itself is agnostic to how the score was derived.
type ScoreFunc func(url string, depth int) float64

// Frontier orders crawl candidates per models.SpiderState and dedups
// submissions via Dedup. BreadthFirst dequeues in submission order regardless
// of depth; DepthFirst prioritizes the deepest submitted URLs (score=depth
// on the max-heap); BestFirst uses Score; Adaptive starts breadth-first and
// switches to best-first once the rolling new-content yield drops (see
// AdaptiveGain).
type Frontier struct {
	mu       sync.Mutex
	strategy models.SpiderState
	score    ScoreFunc
	dedup    *Dedup
	pq       priorityQueue
	seq      int64

	// Adaptive-only: tracks a rolling mean of new content bytes per page so
	// Gain() can report whether the crawl should switch to best-first
	// prioritization (see AdaptiveGain).
	gainMu         sync.Mutex
	gainMean       float64
	gainCount      int64
	adaptiveActive bool // true once AdaptiveGain has signalled the best-first switch
}

// NewFrontier constructs a Frontier for the given strategy. score may be nil
// for BreadthFirst/DepthFirst (priority is synthesized from submission order
// or depth respectively); BestFirst
// and Adaptive require a non-nil score function.
func NewFrontier(strategy models.SpiderState, score ScoreFunc, dedup *Dedup) *Frontier {
	if dedup == nil {
		dedup = NewDedup(0, 0)
	}
	f := &Frontier{strategy: strategy, score: score, dedup: dedup}
	heap.Init(&f.pq)
	return f
}

// Push enqueues a candidate URL unless the exact same string was already
// seen; no URL normalization is applied. Returns false if the candidate was
// a duplicate.
func (f *Frontier) Push(url string, depth int) bool {
	if f.dedup.Seen(url) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item := &frontierItem{url: url, depth: depth, seq: f.seq}
	f.seq++
	switch f.strategy {
	case models.SpiderDepthFirst:
		item.score = float64(depth)
	case models.SpiderBestFirst:
		if f.score != nil {
			item.score = f.score(url, depth)
		}
	case models.SpiderAdaptive:
		f.gainMu.Lock()
		active := f.adaptiveActive
		f.gainMu.Unlock()
		if active && f.score != nil {
			item.score = f.score(url, depth)
		} else {
			item.score = -float64(item.seq) // still exploring breadth-first
		}
	default: // SpiderBreadthFirst
		item.score = -float64(item.seq) // earlier submissions dequeue first
	}
	heap.Push(&f.pq, item)
	return true
}

// Pop dequeues the next candidate per the frontier's strategy; ok is false
// once the frontier is empty.
func (f *Frontier) Pop() (url string, depth int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pq.Len() == 0 {
		return "", 0, false
	}
	item := heap.Pop(&f.pq).(*frontierItem)
	return item.url, item.depth, true
}

// Len reports the number of candidates currently queued.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pq.Len()
}

// AdaptiveGain folds in one page's new-content byte count toward the rolling
// mean, and reports whether the crawl's marginal yield has dropped below
// half the rolling mean — the signal an Adaptive-strategy frontier uses to
// switch from breadth-first exploration to best-first exploitation once a
// site's easy high-value pages have been exhausted.
func (f *Frontier) AdaptiveGain(newContentBytes int) (shouldSwitchToBestFirst bool) {
	f.gainMu.Lock()
	defer f.gainMu.Unlock()
	f.gainCount++
	f.gainMean += (float64(newContentBytes) - f.gainMean) / float64(f.gainCount)
	if f.gainCount < 5 {
		return false // not enough samples yet to judge a trend
	}
	switched := float64(newContentBytes) < f.gainMean/2
	if switched {
		f.adaptiveActive = true
	}
	return switched
}
