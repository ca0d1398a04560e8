// Package browser isolates the headless-browser engine behind a small page
// driver interface so the scraping pipeline never touches chromedp directly.
package browser

import (
	"math/rand"
	"time"
)

// Page is one live browser tab. Every operation that touches the network or
// the DOM carries an explicit timeout and can fail with a timeout-flavored
// error; none of them blocks indefinitely.
type Page interface {
	// Navigate loads the URL and waits for the navigation to settle.
	Navigate(url string, timeout time.Duration) error
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(selector string, timeout time.Duration) error
	// Evaluate runs the JS expression in page context and unmarshals the
	// result into out (out may be nil to discard it).
	Evaluate(js string, out any) error
	// Poll re-evaluates the JS expression until it returns a truthy value
	// or the timeout elapses.
	Poll(js string, timeout time.Duration) error
	// Sleep pauses without touching the page, letting lazy content settle.
	Sleep(d time.Duration)
	// Screenshot captures the full page as PNG bytes.
	Screenshot() ([]byte, error)
	// Content returns the raw page markup.
	Content() (string, error)
	// Close tears the tab (and its isolated session state) down.
	Close()
}

// SessionFactory opens isolated browser sessions. Each session presents the
// given identity for its whole lifetime; retries get a fresh session with a
// fresh identity.
type SessionFactory interface {
	NewSession(id Identity) (Page, error)
}

// Identity is the combination of user-agent and header set one browsing
// session presents. Rotating it per attempt reduces trivial
// fingerprint-based blocking; it is not real anti-detection.
type Identity struct {
	UserAgent string
	Headers   map[string]string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) Gecko/20100101 Firefox/117.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.5615.49 Safari/537.36",
}

var headerSets = []map[string]string{
	{
		"referer":         "https://www.trademe.co.nz/",
		"accept-language": "en-US,en;q=0.9",
		"sec-ch-ua":       `"Chromium";v="112", "Google Chrome";v="112", "Not:A-Brand";v="99"`,
	},
	{
		"referer":         "https://www.trademe.co.nz/",
		"accept-language": "en-GB,en;q=0.8",
		"sec-ch-ua":       `"Google Chrome";v="112", "Chromium";v="112", "Not:A-Brand";v="99"`,
	},
}

// RandomIdentity assembles a browsing identity by picking a user-agent and a
// header template independently at random.
func RandomIdentity() Identity {
	headers := make(map[string]string)
	for k, v := range headerSets[rand.Intn(len(headerSets))] {
		headers[k] = v
	}
	return Identity{
		UserAgent: userAgents[rand.Intn(len(userAgents))],
		Headers:   headers,
	}
}
