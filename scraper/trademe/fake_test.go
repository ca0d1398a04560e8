package trademe

import (
	"strings"
	"sync"
	"time"

	"trademe-scraper/browser"
)

// fakePage scripts the page-driver operations so parser, fetcher and
// crawler tests run without a browser.
type fakePage struct {
	snapshot     listingSnapshot
	estimateText string
	cvText       string
	hasCVTab     bool
	content      string

	navErr  error
	waitErr error
	evalErr error
	pollErr error

	searchPages []searchPage
	navCount    int
	closed      bool
}

func (p *fakePage) Navigate(string, time.Duration) error {
	p.navCount++
	return p.navErr
}

func (p *fakePage) WaitVisible(string, time.Duration) error { return p.waitErr }

func (p *fakePage) Evaluate(js string, out any) error {
	if p.evalErr != nil {
		return p.evalErr
	}
	switch target := out.(type) {
	case *listingSnapshot:
		*target = p.snapshot
	case *searchPage:
		// Past the scripted pages, pollErr doubles as the pagination error.
		idx := p.navCount - 1
		if idx < 0 || idx >= len(p.searchPages) {
			return p.pollErr
		}
		*target = p.searchPages[idx]
	case *bool:
		if strings.Contains(js, "o-tabs__tab-link") {
			*target = p.hasCVTab
		} else {
			*target = false
		}
	case *string:
		if strings.Contains(js, "capital-value") {
			*target = p.cvText
		} else {
			*target = p.estimateText
		}
	case *float64:
		if strings.Contains(js, "scrollHeight") {
			*target = 1600
		} else {
			*target = 800
		}
	}
	return nil
}

func (p *fakePage) Poll(string, time.Duration) error { return p.pollErr }
func (p *fakePage) Sleep(time.Duration)              {}
func (p *fakePage) Screenshot() ([]byte, error)      { return []byte{0x89, 0x50}, nil }
func (p *fakePage) Content() (string, error)         { return p.content, nil }
func (p *fakePage) Close()                           { p.closed = true }

// fakeFactory hands out scripted pages in order, falling back to an empty
// page once the script runs out.
type fakeFactory struct {
	mu    sync.Mutex
	pages []*fakePage
	err   error
	calls int
}

func (f *fakeFactory) NewSession(browser.Identity) (browser.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return &fakePage{}, nil
	}
	pg := f.pages[0]
	f.pages = f.pages[1:]
	return pg, nil
}

func goodSnapshot() listingSnapshot {
	return listingSnapshot{
		Address:       "12 Example Street, Rototuna, Hamilton",
		PriceText:     "$650 per week",
		Features:      []string{"3 Bedrooms", "2 Bathrooms", "1 Carport"},
		Description:   "A lovely townhouse close to schools.",
		ListDateText:  "Listed: Today",
		PageViewsText: "142 views",
		AgentNames:    []string{"Jordan Smith"},
		AgencyName:    "Example Realty",
	}
}
