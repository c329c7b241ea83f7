package fetcher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"
)

// BrowserFetcher renders pages in headless Chromium. It is used when the site
// serves a bot wall to plain HTTP clients.
type BrowserFetcher struct {
	bin            string
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	rateLimiter    *rate.Limiter

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserFetcher creates a browser fetcher sharing the HTTP fetcher's options.
// The browser is launched lazily on first use.
func NewBrowserFetcher(bin string, opts Options) *BrowserFetcher {
	opts = opts.withDefaults()
	return &BrowserFetcher{
		bin:            bin,
		timeout:        opts.Timeout,
		userAgent:      opts.UserAgent,
		acceptLanguage: opts.AcceptLanguage,
		rateLimiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

func (b *BrowserFetcher) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true).NoSandbox(true).Leakless(false)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	log.Printf("[FETCH] Headless browser connected at %s", controlURL)

	b.browser = browser
	return browser, nil
}

// Fetch opens url in a new tab, waits for load and returns the rendered HTML.
// A non-2xx status on the main document is reported as *domain.FetchError.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.rateLimiter.Wait(ctx); err != nil {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	browser, err := b.connect()
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      b.userAgent,
		AcceptLanguage: b.acceptLanguage,
	}); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	// Redirect hops do not emit a response event, so this is the final status.
	status := 0
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.FrameID != page.FrameID {
			return false
		}
		status = e.Response.Status
		return true
	})
	if err := page.Navigate(url); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	waitDocument()
	if err := documentStatusError(url, status); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	if strings.TrimSpace(html) == "" {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("empty document")}
	}
	return html, nil
}

// documentStatusError maps the main document status to the fetcher contract.
// status 0 means no response arrived before the deadline.
func documentStatusError(url string, status int) error {
	switch {
	case status == 0:
		return &domain.FetchError{URL: url, Err: fmt.Errorf("no document response: %w", context.DeadlineExceeded)}
	case status < 200 || status > 299:
		return &domain.FetchError{URL: url, StatusCode: status}
	}
	return nil
}

// Close shuts the browser down if it was started
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
