package trademe

import (
	"errors"
	"testing"
	"time"

	"trademe-scraper/models"
	"trademe-scraper/utils"
)

func newTestFetcher(factory *fakeFactory) *Fetcher {
	logger := utils.NewLogger()
	f := NewFetcher(factory, NewParser(logger), nil, logger)
	f.navDelay = func() time.Duration { return 0 }
	f.retry.BaseDelay = 0
	return f
}

func TestFetchSucceedsFirstAttempt(t *testing.T) {
	factory := &fakeFactory{pages: []*fakePage{{snapshot: goodSnapshot()}}}
	f := newTestFetcher(factory)

	res := f.Fetch(rentalURL, models.CategoryRental)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Record == nil {
		t.Fatal("want a record on success")
	}
	if factory.calls != 1 {
		t.Errorf("sessions opened: got %d, want 1", factory.calls)
	}
}

func TestFetchRetriesWithFreshSession(t *testing.T) {
	broken := &fakePage{waitErr: errors.New("selector never appeared")}
	working := &fakePage{snapshot: goodSnapshot()}
	factory := &fakeFactory{pages: []*fakePage{broken, working}}
	f := newTestFetcher(factory)

	res := f.Fetch(rentalURL, models.CategoryRental)
	if res.Err != nil {
		t.Fatalf("unexpected error after recovery: %v", res.Err)
	}
	if factory.calls != 2 {
		t.Errorf("sessions opened: got %d, want 2 (one per attempt)", factory.calls)
	}
	if !broken.closed || !working.closed {
		t.Error("every session should be closed after its attempt")
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	pages := []*fakePage{
		{navErr: errors.New("net::ERR_TIMED_OUT")},
		{navErr: errors.New("net::ERR_TIMED_OUT")},
		{navErr: errors.New("net::ERR_TIMED_OUT")},
	}
	factory := &fakeFactory{pages: pages}
	f := newTestFetcher(factory)

	res := f.Fetch(rentalURL, models.CategoryRental)
	if res.Err == nil {
		t.Fatal("want an error after exhausting attempts")
	}
	if res.Record != nil {
		t.Error("failure result should carry no record")
	}
	if factory.calls != 3 {
		t.Errorf("sessions opened: got %d, want 3", factory.calls)
	}
}

func TestFetchNormalizesURLInResult(t *testing.T) {
	factory := &fakeFactory{pages: []*fakePage{{snapshot: goodSnapshot()}}}
	f := newTestFetcher(factory)

	legacy := "https://www.trademe.co.nz/property/residential/rent/waikato/hamilton/rototuna/listing/5282328223?rsqid=x"
	res := f.Fetch(legacy, models.CategoryRental)
	if res.URL != rentalURL {
		t.Errorf("result URL: got %q, want normalized %q", res.URL, rentalURL)
	}
}

func TestFetchSessionCreationFailure(t *testing.T) {
	factory := &fakeFactory{err: errors.New("chrome crashed")}
	f := newTestFetcher(factory)

	res := f.Fetch(rentalURL, models.CategoryRental)
	if res.Err == nil {
		t.Fatal("want an error when sessions cannot be created")
	}
	if factory.calls != 3 {
		t.Errorf("session attempts: got %d, want 3", factory.calls)
	}
}

func TestIsBlockPage(t *testing.T) {
	if !isBlockPage("<html>This site requires JavaScript to run</html>") {
		t.Error("javascript marker should classify as blocked")
	}
	if !isBlockPage("Please upgrade your browser to continue") {
		t.Error("browser marker should classify as blocked")
	}
	if isBlockPage("<html><h1>12 Example Street</h1></html>") {
		t.Error("ordinary listing markup should not classify as blocked")
	}
}
