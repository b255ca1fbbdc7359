// Package fetch retrieves paper pages politely: robots.txt is honoured,
// requests are rate limited per host and responses are cached in memory.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/matsen/papershelf/internal/extract"
)

const (
	// DefaultUserAgent identifies shelf to servers and robots.txt.
	DefaultUserAgent = "papershelf/1.0 (+https://github.com/matsen/papershelf)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond is the per-host request rate.
	DefaultRequestsPerSecond = 1.0

	// DefaultMaxBytes caps response bodies. PDFs are the large case.
	DefaultMaxBytes = 20 << 20

	// DefaultCacheTTL is how long a fetched page is reused.
	DefaultCacheTTL = 10 * time.Minute

	maxRedirects = 5
)

// Page is a fetched response.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Location is the extraction location of the page after redirects.
func (p *Page) Location() extract.Location {
	if p.FinalURL != "" {
		return extract.LocationFromURL(p.FinalURL)
	}
	return extract.LocationFromURL(p.URL)
}

// IsPDF reports whether the page is a PDF document.
func (p *Page) IsPDF() bool {
	return extract.IsPDF(p.ContentType, p.Body)
}

// Document parses the body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// Extract runs the PDF or HTML extractor, whichever fits the content.
func (p *Page) Extract() extract.Result {
	if p.IsPDF() {
		return extract.FromPDF(p.Body, p.Location())
	}
	doc, err := p.Document()
	if err != nil {
		return extract.Result{Error: err.Error()}
	}
	return extract.Extract(doc, p.Location())
}

// Fetcher is a polite HTTP client for paper pages.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	rps        float64
	maxBytes   int64
	cacheTTL   time.Duration
	useRobots  bool
	logger     *slog.Logger

	robots *RobotsChecker
	cache  *gocache.Cache

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header and robots.txt agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRequestsPerSecond sets the per-host request rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.rps = rps
		}
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithCacheTTL sets how long pages are cached. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(f *Fetcher) {
		f.cacheTTL = d
	}
}

// WithoutRobots skips robots.txt checks.
func WithoutRobots() Option {
	return func(f *Fetcher) {
		f.useRobots = false
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		rps:       DefaultRequestsPerSecond,
		maxBytes:  DefaultMaxBytes,
		cacheTTL:  DefaultCacheTTL,
		useRobots: true,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient == nil {
		f.httpClient = &http.Client{
			Timeout: f.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	if f.useRobots {
		f.robots = NewRobotsChecker(f.httpClient, f.userAgent)
	}
	if f.cacheTTL > 0 {
		f.cache = gocache.New(f.cacheTTL, 2*f.cacheTTL)
	}

	return f
}

// Fetch retrieves rawURL. Non-2xx responses are returned as *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	if f.cache != nil {
		if cached, ok := f.cache.Get(rawURL); ok {
			f.logger.Debug("fetch cache hit", "url", rawURL)
			return cached.(*Page), nil
		}
	}

	var delay time.Duration
	if f.robots != nil {
		allowed, d, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("fetching %s: %w", rawURL, ErrDisallowed)
		}
		delay = d
	}

	if err := f.limiterFor(u.Host, delay).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	page, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		f.cache.SetDefault(rawURL, page)
	}
	return page, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// limiterFor returns the host's limiter, created on first use. A robots.txt
// crawl delay slower than the configured rate takes precedence.
func (f *Fetcher) limiterFor(host string, crawlDelay time.Duration) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.limiters[host]; ok {
		return l
	}

	limit := rate.Limit(f.rps)
	if crawlDelay > 0 && rate.Every(crawlDelay) < limit {
		limit = rate.Every(crawlDelay)
	}
	l := rate.NewLimiter(limit, 1)
	f.limiters[host] = l
	return l
}
