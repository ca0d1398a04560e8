package trademe

import (
	"math/rand"
	"time"

	"trademe-scraper/browser"
	"trademe-scraper/models"
	"trademe-scraper/utils"
)

const (
	cardSelector  = "a.tm-property-search-card__link, a.tm-property-premium-listing-card__link"
	searchTimeout = 20 * time.Second

	// pagesPerBatch interleaves URL collection with scraping so very large
	// crawls never hold every URL in memory at once.
	pagesPerBatch = 5
)

// searchPage is what one search-results page yields: the card hrefs (premium
// and standard variants unioned) and whether a usable Next control exists.
type searchPage struct {
	Links   []string `json:"links"`
	HasNext bool     `json:"hasNext"`
}

const searchPageJS = `
(function() {
	var links = [];
	var push = function(sel) {
		var els = document.querySelectorAll(sel);
		for (var i = 0; i < els.length; i++) {
			var href = els[i].getAttribute('href');
			if (href) { links.push(href); }
		}
	};
	push('a.tm-property-premium-listing-card__link');
	push('a.tm-property-search-card__link');
	var next = document.querySelector("a[title='Next']");
	var hasNext = !!(next && !next.hasAttribute('disabled') &&
		next.getAttribute('aria-disabled') !== 'true');
	return { links: links, hasNext: hasNext };
})()`

// Crawler walks search-results pages sequentially, harvesting normalized
// listing URLs. Pages are visited strictly in increasing order because each
// page's Next control determines whether a further page exists.
type Crawler struct {
	logger *utils.Logger

	// pageDelay paces search-page navigations; overridable in tests.
	pageDelay func() time.Duration
}

// NewCrawler creates a Crawler.
func NewCrawler(logger *utils.Logger) *Crawler {
	return &Crawler{
		logger: logger,
		pageDelay: func() time.Duration {
			return time.Duration(1000+rand.Intn(1000)) * time.Millisecond
		},
	}
}

// CollectBatch fetches up to batchPages consecutive search pages starting at
// startPage, returning the unique normalized listing URLs found, the next
// page number to fetch, and whether more pages remain. Any navigation or
// selector error stops further collection but keeps what was gathered so
// far (fail-open). maxPages of 0 means no page cap.
func (c *Crawler) CollectBatch(pg browser.Page, category models.Category, startPage, batchPages, maxPages int) (urls []string, nextPage int, more bool) {
	seen := make(map[string]struct{})
	pageNum := startPage

	for fetched := 0; fetched < batchPages; fetched++ {
		if maxPages > 0 && pageNum > maxPages {
			c.logger.Info("[crawl] reached max-pages limit (%d) for %s", maxPages, category)
			return urls, pageNum, false
		}

		c.logger.Info("[crawl] fetching %s search page %d", category, pageNum)
		time.Sleep(c.pageDelay())

		page, err := c.fetchSearchPage(pg, category, pageNum)
		if err != nil {
			c.logger.Warn("[crawl] pagination error on %s page %d: %v", category, pageNum, err)
			return urls, pageNum, false
		}

		for _, href := range page.Links {
			normalized := NormalizeURL(ResolveURL(href))
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			urls = append(urls, normalized)
		}

		if !page.HasNext {
			c.logger.Info("[crawl] no more %s pages after page %d", category, pageNum)
			return urls, pageNum + 1, false
		}
		pageNum++
	}

	return urls, pageNum, true
}

// CollectURLs walks search pages from startPage until the last page or the
// page cap and returns every unique listing URL found.
func (c *Crawler) CollectURLs(pg browser.Page, category models.Category, startPage, maxPages int) []string {
	set := utils.NewURLSet()
	pageNum := startPage
	for {
		batch, next, more := c.CollectBatch(pg, category, pageNum, pagesPerBatch, maxPages)
		for _, u := range batch {
			set.Add(u)
		}
		if !more {
			return set.All()
		}
		pageNum = next
	}
}

func (c *Crawler) fetchSearchPage(pg browser.Page, category models.Category, pageNum int) (*searchPage, error) {
	if err := pg.Navigate(SearchURL(category, pageNum), searchTimeout); err != nil {
		return nil, err
	}
	if err := pg.WaitVisible(cardSelector, searchTimeout); err != nil {
		return nil, err
	}
	var page searchPage
	if err := pg.Evaluate(searchPageJS, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
