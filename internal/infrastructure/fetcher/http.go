package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultUserAgent mimics a desktop Chrome browser so the site does not serve a bot page
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	defaultTimeout        = 10 * time.Second
	defaultAcceptLanguage = "en-GB,en;q=0.9"
	maxBodyBytes          = 4 << 20
)

// Options configures an HTTPFetcher
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	AcceptLanguage    string
	RequestsPerSecond float64
	Burst             int
}

// HTTPFetcher retrieves pages over plain HTTP
type HTTPFetcher struct {
	httpClient     *http.Client
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
	rateLimiter    *rate.Limiter
	debug          bool
}

// errBodyTooLarge is returned for pages over maxBodyBytes
var errBodyTooLarge = errors.New("response body exceeds size limit")

// withDefaults fills zero option values
func (opts Options) withDefaults() Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = defaultAcceptLanguage
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	return opts
}

// NewHTTPFetcher creates a fetcher. Zero option values fall back to defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()

	return &HTTPFetcher{
		// The per-request timeout comes from the context; this is a backstop.
		httpClient: &http.Client{
			Timeout: opts.Timeout + 2*time.Second,
		},
		userAgent:      opts.UserAgent,
		acceptLanguage: opts.AcceptLanguage,
		timeout:        opts.Timeout,
		rateLimiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

// SetDebug enables or disables debug logging
func (f *HTTPFetcher) SetDebug(debug bool) {
	f.debug = debug
}

func (f *HTTPFetcher) debugLog(format string, args ...interface{}) {
	if f.debug {
		log.Printf("[FETCH] "+format, args...)
	}
}

// Fetch downloads a page and returns its body. It does not retry; a non-2xx
// status or an exceeded timeout is reported as *domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	resp, err := f.doRequest(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.debugLog("%s -> status %d", url, resp.StatusCode)
		return "", &domain.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if errors.Is(err, errBodyTooLarge) {
		log.Printf("[FETCH] %s: body larger than %d bytes, rejecting", url, maxBodyBytes)
	}
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	f.debugLog("%s -> %d bytes", url, len(body))
	return string(body), nil
}

// doRequest executes a GET with browser-like headers. Redirects are followed by the client.
func (f *HTTPFetcher) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	return resp, nil
}

// readLimitedBody reads r fully, failing with errBodyTooLarge past limit bytes
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}
