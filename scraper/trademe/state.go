package trademe

import (
	"sync"

	"trademe-scraper/models"
)

// CrawlState tracks one category's crawl: accumulated records keyed by URL,
// the set of already-attempted URLs, the failed-URL list, and the
// processed/target counters for progress reporting. Workers run as real
// goroutines, so every mutation goes through the mutex.
type CrawlState struct {
	mu        sync.Mutex
	category  models.Category
	order     []string
	records   map[string]models.Record
	attempted map[string]struct{}
	failed    []string
	processed int
	target    int
}

// NewCrawlState creates an empty state for a category.
func NewCrawlState(category models.Category) *CrawlState {
	return &CrawlState{
		category:  category,
		records:   make(map[string]models.Record),
		attempted: make(map[string]struct{}),
	}
}

// Category returns the category this state tracks.
func (s *CrawlState) Category() models.Category { return s.category }

// Resume seeds the state from checkpointed records: each record's URL counts
// as already scraped and will be filtered out of future batches.
func (s *CrawlState) Resume(records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.storeLocked(r)
	}
}

// Fold merges one worker result in. Both success and terminal failure mark
// the URL attempted and advance the processed counter; re-scraping a URL
// overwrites its record rather than duplicating it.
func (s *CrawlState) Fold(res Result) (processed, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Err != nil {
		s.failed = append(s.failed, res.URL)
		s.attempted[res.URL] = struct{}{}
	} else {
		s.storeLocked(res.Record)
	}
	s.processed++
	return s.processed, s.target
}

func (s *CrawlState) storeLocked(r models.Record) {
	url := r.Common().URL
	if _, exists := s.records[url]; !exists {
		s.order = append(s.order, url)
	}
	s.records[url] = r
	s.attempted[url] = struct{}{}
}

// FilterNew returns the subset of urls not yet attempted, preserving order.
func (s *CrawlState) FilterNew(urls []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []string
	for _, u := range urls {
		if _, done := s.attempted[u]; !done {
			fresh = append(fresh, u)
		}
	}
	return fresh
}

// AddTarget grows the progress target by n pending fetches.
func (s *CrawlState) AddTarget(n int) {
	s.mu.Lock()
	s.target += n
	s.mu.Unlock()
}

// Progress returns the processed/target counters.
func (s *CrawlState) Progress() (processed, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.target
}

// Records returns the accumulated records in first-seen order.
func (s *CrawlState) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Record, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, s.records[url])
	}
	return out
}

// Failed returns the terminally failed URLs in completion order.
func (s *CrawlState) Failed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failed))
	copy(out, s.failed)
	return out
}
