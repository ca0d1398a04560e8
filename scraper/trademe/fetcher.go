package trademe

import (
	"math/rand"
	"strings"
	"time"

	"trademe-scraper/browser"
	"trademe-scraper/models"
	"trademe-scraper/storage"
	"trademe-scraper/utils"
)

const (
	maxFetchAttempts  = 3
	navigationTimeout = 20 * time.Second
)

// Result is what one listing fetch hands back to the orchestrator. Exactly
// one of Record and Err is set; workers never mutate shared state directly.
type Result struct {
	URL    string
	Record models.Record
	Err    error
}

// Fetcher drives one listing URL through navigate → wait-for-primary-content
// → trigger expanders → extract, with a bounded retry loop. Each attempt
// opens a fresh isolated session under a freshly randomized identity, since
// failures often correlate with a flagged session identity.
type Fetcher struct {
	sessions  browser.SessionFactory
	parser    *Parser
	artifacts *storage.ArtifactStore
	logger    *utils.Logger
	retry     *utils.RetryConfig

	// navDelay staggers navigations per worker; overridable in tests.
	navDelay func() time.Duration
	now      func() time.Time
}

// NewFetcher creates a Fetcher. artifacts may be nil to disable
// failure-artifact capture.
func NewFetcher(sessions browser.SessionFactory, parser *Parser, artifacts *storage.ArtifactStore, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		sessions:  sessions,
		parser:    parser,
		artifacts: artifacts,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxFetchAttempts,
			Logger:      logger,
		},
		navDelay: func() time.Duration {
			return time.Duration(1000+rand.Intn(2000)) * time.Millisecond
		},
		now: time.Now,
	}
}

// Fetch scrapes one listing, retrying up to the attempt budget. On retry
// exhaustion it returns a failure Result after persisting diagnostic
// artifacts for offline diagnosis.
func (f *Fetcher) Fetch(listingURL string, category models.Category) Result {
	listingURL = NormalizeURL(listingURL)

	var record models.Record
	err := f.retry.Do(listingURL, func(attempt int) error {
		rec, attemptErr := f.attempt(listingURL, category, attempt == maxFetchAttempts)
		if attemptErr != nil {
			return attemptErr
		}
		record = rec
		return nil
	})
	if err != nil {
		return Result{URL: listingURL, Err: err}
	}
	return Result{URL: listingURL, Record: record}
}

// attempt runs one pass of the fetch state machine. When final is set, any
// failure captures a screenshot and the raw markup before the session is
// discarded.
func (f *Fetcher) attempt(listingURL string, category models.Category, final bool) (models.Record, error) {
	pg, err := f.sessions.NewSession(browser.RandomIdentity())
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	// Small random delay so concurrent workers do not navigate in bursts.
	time.Sleep(f.navDelay())

	if err := f.runAttempt(pg, listingURL); err != nil {
		if final {
			f.captureFailure(pg, listingURL)
		}
		return nil, err
	}

	record, err := f.parser.Parse(pg, listingURL, category, f.now())
	if err != nil {
		if final {
			f.captureFailure(pg, listingURL)
		}
		return nil, err
	}
	return record, nil
}

func (f *Fetcher) runAttempt(pg browser.Page, listingURL string) error {
	if err := pg.Navigate(listingURL, navigationTimeout); err != nil {
		return err
	}
	return pg.WaitVisible(primarySelector, navigationTimeout)
}

// captureFailure persists a screenshot and the raw page markup keyed by the
// URL tail plus a timestamp, and logs an advisory block classification. The
// classification never changes the returned failure.
func (f *Fetcher) captureFailure(pg browser.Page, listingURL string) {
	content, contentErr := pg.Content()
	switch {
	case contentErr != nil:
		f.logger.Warn("[fetch] %s failed - reason unknown (could not inspect page content)", listingURL)
	case isBlockPage(content):
		f.logger.Warn("[fetch] %s failed - likely blocked by anti-bot measures", listingURL)
	default:
		f.logger.Warn("[fetch] %s failed - other error during scraping", listingURL)
	}

	if f.artifacts == nil {
		return
	}
	screenshot, err := pg.Screenshot()
	if err != nil {
		f.logger.Warn("[fetch] screenshot for %s: %v", listingURL, err)
	}
	if err := f.artifacts.Save(listingURL, screenshot, content, f.now()); err != nil {
		f.logger.Warn("[fetch] saving failure artifacts for %s: %v", listingURL, err)
	}
}

// isBlockPage recognises the markers of the site's block/interstitial page.
func isBlockPage(content string) bool {
	lowered := strings.ToLower(content)
	return strings.Contains(lowered, "requires javascript") ||
		strings.Contains(lowered, "upgrade your browser")
}
