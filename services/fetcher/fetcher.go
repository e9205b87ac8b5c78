package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/weibosearch/helpers"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/pkg/errors"
	"sjsage522/weibosearch/services/cache"
)

// BlockKey is the cache key set while the source rate-limits us
const BlockKey = "weibo_rate_limited"

// rateLimitStatuses are the responses treated as a rate-limit signal
var rateLimitStatuses = []int{418, http.StatusTooManyRequests, 430}

// Options configures a Fetcher
type Options struct {
	Cookie    string
	UserAgent string
	ProxyURL  string
	// Delay is the minimum spacing between requests; zero disables pacing
	Delay   time.Duration
	Timeout time.Duration
	// Cache holds the rate-limit block; nil disables blocking
	Cache     cache.CacheService
	BlockTime time.Duration
}

// Fetcher retrieves search pages with browser-like headers, paced by a
// token bucket and short-circuited while a rate-limit block is active.
// It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	cache     cache.CacheService
	blockTime time.Duration
	cookie    string
	userAgent string
	log       *logger.Logger
}

// New creates a fetcher
func New(opts Options) (*Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil || proxyURL.Host == "" {
			return nil, errors.NewConfiguration(fmt.Sprintf("invalid PROXY_URL %q", opts.ProxyURL), err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		limiter:   rate.NewLimiter(limit, 1),
		cache:     opts.Cache,
		blockTime: opts.BlockTime,
		cookie:    opts.Cookie,
		userAgent: opts.UserAgent,
		log:       logger.ForFetcher(),
	}, nil
}

// Fetch retrieves url and returns its body converted to UTF-8
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(url, "failed to read response body", err)
	}
	utf8Body, err := helpers.DecodeUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.NewParsing(url, "charset conversion failed", err)
	}
	return utf8Body, nil
}

// Download streams the raw body of url into w
func (f *Fetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := f.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.NewNetwork(url, "failed to copy response body", err)
	}
	return n, nil
}

// Blocked reports whether a rate-limit block is active
func (f *Fetcher) Blocked() bool {
	if f.cache == nil {
		return false
	}
	_, err := f.cache.Get(BlockKey)
	return err == nil
}

func (f *Fetcher) do(ctx context.Context, url string) (*http.Response, error) {
	if f.Blocked() {
		return nil, errors.NewRateLimit(url, f.blockTime)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.NewNetwork(url, "request pacing interrupted", err)
	}

	req, err := helpers.NewBrowserRequest(ctx, url, f.userAgent, f.cookie)
	if err != nil {
		return nil, errors.NewValidation(url, err.Error())
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(url, "request failed", err)
	}
	f.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched")

	if slices.Contains(rateLimitStatuses, resp.StatusCode) || isLoginWall(resp.Request.URL) {
		resp.Body.Close()
		f.block(url, resp.StatusCode)
		return nil, errors.NewRateLimit(url, f.blockTime)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		resp.Body.Close()
		return nil, errors.NewNetwork(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewValidation(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	return resp, nil
}

func (f *Fetcher) block(url string, status int) {
	f.log.Warn().
		Str("url", url).
		Int("status", status).
		Dur("block", f.blockTime).
		Msg("Rate limited, blocking requests")

	if f.cache == nil || f.blockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", f.blockTime/time.Second))
	if err := f.cache.Set(BlockKey, value, f.blockTime); err != nil {
		logger.LogError("fetcher", err, "failed to set rate-limit block")
	}
}

// isLoginWall reports whether a request was redirected to the login page
func isLoginWall(u *url.URL) bool {
	if u == nil {
		return false
	}
	return strings.Contains(u.Host, "passport.weibo") || strings.Contains(u.Path, "login")
}
