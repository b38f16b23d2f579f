// Package scraper drives the browser-backed ingestion of listing
// sources: one automation session per source run, a paginated crawl
// controller, and the canonical-record builder.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/musss2003/price-predictor-app/config"
	"github.com/musss2003/price-predictor-app/utils"
)

// ErrDriverUnavailable marks a browser session that cannot be
// established. It aborts the current source's run only; other sources
// keep their own sessions.
var ErrDriverUnavailable = errors.New("browser session unavailable")

// Session owns one headless-Chrome allocator for the lifetime of a
// source run. Acquire with NewSession, release with Close on every exit
// path.
type Session struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelBrows context.CancelFunc
	pageTimeout time.Duration
	logger      *utils.Logger
}

// NewSession starts a browser allocator and verifies a tab can be
// opened. A failure here is wrapped in ErrDriverUnavailable.
func NewSession(cfg *config.Config, logger *utils.Logger) (*Session, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise; this context hosts the browser process.
	browserCtx, cancelBrows := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &Session{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelBrows: cancelBrows,
		pageTimeout: time.Duration(cfg.PageTimeoutSec) * time.Second,
		logger:      logger.WithPrefix("session"),
	}

	// Start the browser now so driver failure surfaces before the crawl.
	probeCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	s.logger.Debug("browser session established (binary: %s)", chromeBin)
	return s, nil
}

// FetchHTML navigates a fresh tab to url, waits for the JS app to
// render, and returns the document's outer HTML. Each call carries its
// own timeout; a timeout is a recoverable per-page failure.
func (s *Session) FetchHTML(ctx context.Context, url string, wait time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.pageTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return html, nil
}

// Close tears the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.cancelBrows != nil {
		s.cancelBrows()
		s.cancelBrows = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
		s.logger.Debug("browser session closed")
	}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
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
