package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool bounds the number of page fetches running at once and staggers
// task starts so many browser sessions are not opened within the same
// instant. A shared rate limiter additionally paces job starts.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
	stagger   time.Duration
	limiter   *rate.Limiter

	mu        sync.Mutex
	submitted bool
}

// NewWorkerPool creates a WorkerPool with the given concurrency bound.
// stagger is the fixed delay inserted between consecutive task starts;
// jobsPerSecond, when positive, caps the overall job start rate.
func NewWorkerPool(maxWorkers int, stagger time.Duration, jobsPerSecond float64) *WorkerPool {
	wp := &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		stagger:   stagger,
	}
	if jobsPerSecond > 0 {
		wp.limiter = rate.NewLimiter(rate.Limit(jobsPerSecond), 1)
	}
	return wp
}

// Submit enqueues a job for execution in the pool. It blocks the caller
// until a concurrency slot is free - the semaphore is the sole backpressure
// mechanism; there is no queue behind it.
func (wp *WorkerPool) Submit(job func()) {
	wp.mu.Lock()
	if wp.submitted {
		time.Sleep(wp.stagger)
	}
	wp.submitted = true
	wp.mu.Unlock()

	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if wp.limiter != nil {
			_ = wp.limiter.Wait(context.Background())
		}
		job()
	}()
}

// Wait blocks until every submitted job has completed. A batch is done only
// when all of its tasks have finished, success or terminal failure alike.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// URLSet is a thread-safe set for tracking discovered URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
	urls []string
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	s.urls = append(s.urls, url)
	return true
}

// Contains returns true if the URL is already in the set.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// All returns the tracked URLs in insertion order.
func (s *URLSet) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}
