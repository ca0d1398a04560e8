package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultEvaluateTimeout = 30 * time.Second

// Allocator owns the shared headless Chrome process. Sessions created from
// it are isolated browser contexts that share the one process.
type Allocator struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAllocator starts (lazily) a headless Chrome allocator. chromeBin
// overrides binary discovery when non-empty.
func NewAllocator(parent context.Context, headless bool, chromeBin string) *Allocator {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1280, 800),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	ctx, cancel := chromedp.NewExecAllocator(parent, opts...)
	return &Allocator{ctx: ctx, cancel: cancel}
}

// Close shuts the browser process down.
func (a *Allocator) Close() {
	a.cancel()
}

// NewSession opens a fresh isolated tab presenting the given identity.
func (a *Allocator) NewSession(id Identity) (Page, error) {
	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(a.ctx, chromedp.WithLogf(func(string, ...interface{}) {}))

	headers := make(network.Headers, len(id.Headers))
	for k, v := range id.Headers {
		headers[k] = v
	}

	setupCtx, cancelSetup := context.WithTimeout(ctx, defaultEvaluateTimeout)
	defer cancelSetup()
	if err := chromedp.Run(setupCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		emulation.SetUserAgentOverride(id.UserAgent),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: new session: %w", err)
	}

	return &session{ctx: ctx, cancel: cancel}, nil
}

// session is a chromedp-backed Page.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

func (s *session) Navigate(url string, timeout time.Duration) error {
	if err := s.run(timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (s *session) WaitVisible(selector string, timeout time.Duration) error {
	if err := s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("browser: wait for %q: %w", selector, err)
	}
	return nil
}

func (s *session) Evaluate(js string, out any) error {
	if err := s.run(defaultEvaluateTimeout, chromedp.Evaluate(js, out)); err != nil {
		return fmt.Errorf("browser: evaluate: %w", err)
	}
	return nil
}

func (s *session) Poll(js string, timeout time.Duration) error {
	var ok bool
	err := s.run(timeout+5*time.Second,
		chromedp.Poll(js, &ok, chromedp.WithPollingTimeout(timeout)))
	if err != nil {
		return fmt.Errorf("browser: poll: %w", err)
	}
	return nil
}

func (s *session) Sleep(d time.Duration) {
	_ = s.run(0, chromedp.Sleep(d))
}

func (s *session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := s.run(defaultEvaluateTimeout, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return buf, nil
}

func (s *session) Content() (string, error) {
	var html string
	if err := s.run(defaultEvaluateTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: page content: %w", err)
	}
	return html, nil
}

func (s *session) Close() {
	s.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
