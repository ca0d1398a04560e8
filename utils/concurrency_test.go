package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetAllPreservesInsertionOrder(t *testing.T) {
	s := NewURLSet()
	urls := []string{"https://example.com/b", "https://example.com/a", "https://example.com/c"}
	for _, u := range urls {
		s.Add(u)
	}
	s.Add("https://example.com/a")

	got := s.All()
	if len(got) != 3 {
		t.Fatalf("All: got %d urls, want 3", len(got))
	}
	for i, u := range urls {
		if got[i] != u {
			t.Errorf("All[%d]: got %q, want %q", i, got[i], u)
		}
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolConcurrencyBound(t *testing.T) {
	pool := NewWorkerPool(2, 0, 0)

	var running, peak int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("observed %d concurrent jobs, want at most 2", peak)
	}
}

func TestWorkerPoolStagger(t *testing.T) {
	stagger := 30 * time.Millisecond
	pool := NewWorkerPool(4, stagger, 0)

	start := time.Now()
	var done int64
	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 3 {
		t.Fatalf("jobs completed: got %d, want 3", done)
	}
	// First submission is not delayed; the two after it are.
	if elapsed := time.Since(start); elapsed < 2*stagger {
		t.Errorf("submissions finished in %v, want at least %v of stagger", elapsed, 2*stagger)
	}
}

func TestWorkerPoolWaitsForAllJobs(t *testing.T) {
	pool := NewWorkerPool(3, 0, 0)

	var done int64
	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 50 {
		t.Errorf("jobs completed before Wait returned: got %d, want 50", done)
	}
}
