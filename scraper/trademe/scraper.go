// Package trademe implements the crawl/extract pipeline for Trade Me
// property listings: URL discovery with pagination and dedup, bounded
// concurrency fetch-and-parse workers with per-listing retry, and periodic
// checkpointing for resumability.
package trademe

import (
	"context"
	"fmt"
	"time"

	"trademe-scraper/browser"
	"trademe-scraper/config"
	"trademe-scraper/models"
	"trademe-scraper/storage"
	"trademe-scraper/utils"
)

// RunOptions selects how one category crawl behaves.
type RunOptions struct {
	// SkipURLCollection reuses the previously saved URL list instead of
	// paginating the search results again.
	SkipURLCollection bool
	// StartPage is the 1-based search page to begin collecting from.
	StartPage int
	// MaxPages caps the number of search pages visited; 0 means no cap.
	MaxPages int
}

// Scraper orchestrates one category at a time: load checkpoint → collect or
// reload URLs → filter against the already-scraped set → dispatch through
// the worker pool in checkpoint-sized chunks → flush state.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	sessions browser.SessionFactory
	store    *storage.CheckpointStore
	fetcher  *Fetcher
	crawler  *Crawler
	pool     *utils.WorkerPool
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger, sessions browser.SessionFactory, store *storage.CheckpointStore, artifacts *storage.ArtifactStore) *Scraper {
	return &Scraper{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		store:    store,
		fetcher:  NewFetcher(sessions, NewParser(logger), artifacts, logger),
		crawler:  NewCrawler(logger),
		pool: utils.NewWorkerPool(cfg.MaxConcurrency,
			time.Duration(cfg.TaskStartDelayMs)*time.Millisecond,
			cfg.NavsPerSecond),
	}
}

// Run scrapes one listing category end to end and returns its final state.
// On context cancellation it stops before the next chunk; whatever was
// checkpointed stays on disk.
func (s *Scraper) Run(ctx context.Context, category models.Category, opts RunOptions) (*CrawlState, error) {
	s.logger.Info("==== Starting scrape for %s listings ====", category)
	state := NewCrawlState(category)

	resumed, err := s.store.LoadSnapshot(category)
	if err != nil {
		s.logger.Warn("[%s] could not load resume data: %v - starting fresh", category, err)
	} else if len(resumed) > 0 {
		state.Resume(resumed)
		s.logger.Info("[%s] resumed from %d previously scraped listings", category, len(resumed))
	} else {
		s.logger.Info("[%s] no previous data found - starting fresh", category)
	}

	if opts.SkipURLCollection {
		err = s.scrapeSavedURLs(ctx, state, category)
	} else {
		err = s.crawlAndScrape(ctx, state, category, opts)
	}

	// Final flush so an early stop still leaves a usable checkpoint.
	if saveErr := s.store.SaveSnapshot(category, state.Records()); saveErr != nil {
		s.logger.Error("[%s] final checkpoint save failed: %v", category, saveErr)
	}
	return state, err
}

// scrapeSavedURLs reuses a previously collected URL list.
func (s *Scraper) scrapeSavedURLs(ctx context.Context, state *CrawlState, category models.Category) error {
	urls, err := s.store.LoadURLList(category)
	if err != nil {
		return fmt.Errorf("skip-url-collection for %s: %w", category, err)
	}

	pending := state.FilterNew(urls)
	s.logger.Info("[%s] loaded %d URLs, %d new to scrape", category, len(urls), len(pending))
	if len(pending) == 0 {
		s.logger.Info("[%s] nothing new to scrape", category)
		return nil
	}

	state.AddTarget(len(pending))
	s.scrapeChunks(ctx, state, pending, category)
	return ctx.Err()
}

// crawlAndScrape interleaves batched URL collection with scraping.
func (s *Scraper) crawlAndScrape(ctx context.Context, state *CrawlState, category models.Category, opts RunOptions) error {
	pg, err := s.sessions.NewSession(browser.RandomIdentity())
	if err != nil {
		return fmt.Errorf("crawl session for %s: %w", category, err)
	}
	defer pg.Close()

	collected := utils.NewURLSet()
	pageNum := opts.StartPage
	if pageNum < 1 {
		pageNum = 1
	}

	for batch := 1; ; batch++ {
		if ctx.Err() != nil {
			s.logger.Warn("[%s] interrupted - stopping URL collection", category)
			break
		}

		urls, nextPage, more := s.crawler.CollectBatch(pg, category, pageNum, pagesPerBatch, opts.MaxPages)
		s.logger.Info("[%s] batch %d collected %d unique URLs", category, batch, len(urls))
		for _, u := range urls {
			collected.Add(u)
		}

		pending := state.FilterNew(urls)
		if len(pending) > 0 {
			s.logger.Info("[%s] batch %d: %d new listings to scrape", category, batch, len(pending))
			state.AddTarget(len(pending))
			s.scrapeChunks(ctx, state, pending, category)
		} else {
			s.logger.Info("[%s] batch %d: nothing new", category)
		}

		if !more || len(urls) == 0 {
			break
		}
		pageNum = nextPage
	}

	if collected.Size() > 0 {
		if err := s.store.SaveURLList(category, collected.All()); err != nil {
			s.logger.Warn("[%s] saving collected URL list: %v", category, err)
		} else {
			s.logger.Info("[%s] saved %d collected URLs", category, collected.Size())
		}
	}
	return ctx.Err()
}

// scrapeChunks dispatches URLs through the pool in checkpoint-sized chunks,
// saving the full snapshot after every chunk completes. A chunk completes
// only when every task in it has finished, success or terminal failure.
func (s *Scraper) scrapeChunks(ctx context.Context, state *CrawlState, urls []string, category models.Category) {
	for start := 0; start < len(urls); start += s.cfg.SaveInterval {
		if ctx.Err() != nil {
			s.logger.Warn("[%s] interrupted - stopping before next chunk", category)
			return
		}

		end := start + s.cfg.SaveInterval
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]
		s.logger.Info("[%s] scraping chunk of %d listings", category, len(chunk))

		for _, u := range chunk {
			u := u
			s.pool.Submit(func() {
				result := s.fetcher.Fetch(u, category)
				processed, target := state.Fold(result)
				s.logger.Progress(processed, target)
			})
		}
		s.pool.Wait()

		if err := s.store.SaveSnapshot(category, state.Records()); err != nil {
			s.logger.Warn("[%s] checkpoint save failed: %v", category, err)
		}
	}
}
