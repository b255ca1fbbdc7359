package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers robots.txt questions, caching one file per host.
type RobotsChecker struct {
	mu         sync.RWMutex
	cache      map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker that fetches with client and matches
// rules against the product token of userAgent.
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// CanFetch reports whether rawURL may be fetched and the crawl delay the
// host asks for. A robots.txt that cannot be retrieved allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parsing URL: %w", err)
	}

	data, err := r.robotsFor(ctx, u)
	if err != nil {
		return true, 0, nil
	}

	agent := productToken(r.userAgent)
	var delay time.Duration
	if group := data.FindGroup(agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(u.Path, agent), delay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[u.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			r.allowAll(u.Host)
		}
		return nil, fmt.Errorf("fetching robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		if ctx.Err() == nil {
			r.allowAll(u.Host)
		}
		return nil, fmt.Errorf("parsing robots.txt: %w", err)
	}

	r.store(u.Host, data)
	return data, nil
}

// allowAll caches an unrestricted robots.txt for host so an unreachable file
// is only requested once.
func (r *RobotsChecker) allowAll(host string) {
	data, err := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	if err != nil {
		return
	}
	r.store(host, data)
}

func (r *RobotsChecker) store(host string, data *robotstxt.RobotsData) {
	r.mu.Lock()
	r.cache[host] = data
	r.mu.Unlock()
}

// productToken reduces "papershelf/1.0 (+url)" to "papershelf".
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	product, _, _ := strings.Cut(fields[0], "/")
	return product
}
