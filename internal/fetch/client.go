package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/cache"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/retry"
)

// ClientConfig wires the guards around a backend fetcher.
type ClientConfig struct {
	Blocklist     *Blocklist
	Robots        *RobotsChecker // nil skips robots.txt
	Limiter       *Limiter       // nil skips rate limiting
	Cache         cache.Cache    // nil disables page caching
	CacheTTL      time.Duration
	Retry         retry.Policy
	MinContentLen int
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Client is the Fetcher the extraction pipeline uses. The block-list is
// checked before anything touches the network.
type Client struct {
	backend Fetcher
	cfg     ClientConfig
	log     *zap.Logger
}

// NewClient wraps backend with cfg's guards.
func NewClient(backend Fetcher, cfg ClientConfig) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Retry.Attempts < 1 {
		cfg.Retry.Attempts = 1
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = retryableFetchError
	}
	return &Client{backend: backend, cfg: cfg, log: log}
}

// Fetch returns the page text for rawURL or one of the package sentinel
// errors. A failure never affects other URLs.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.cfg.Metrics.FetchFailure("unsupported")
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	if c.cfg.Blocklist.Blocked(rawURL) {
		c.cfg.Metrics.FetchFailure("blocked")
		c.log.Debug("skipping blocked domain", zap.String("url", rawURL))
		return nil, fmt.Errorf("%s: %w", parsed.Hostname(), ErrBlockedDomain)
	}

	key := cache.Key("page", rawURL)
	if page, ok := c.cached(key); ok {
		c.log.Debug("page cache hit", zap.String("url", rawURL))
		return page, nil
	}

	if c.cfg.Robots != nil {
		allowed, delay, _ := c.cfg.Robots.CanFetch(ctx, rawURL)
		if !allowed {
			c.cfg.Metrics.FetchFailure("robots")
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowedByRobots)
		}
		if c.cfg.Limiter != nil {
			c.cfg.Limiter.ApplyCrawlDelay(rawURL, delay)
		}
	}

	attempt := 0
	page, err := retry.Value(ctx, c.cfg.Retry, func(ctx context.Context) (*Page, error) {
		attempt++
		if c.cfg.Limiter != nil {
			if err := c.cfg.Limiter.Wait(ctx, rawURL); err != nil {
				return nil, err
			}
		}
		page, err := c.backend.Fetch(ctx, rawURL)
		if err != nil {
			c.log.Debug("fetch attempt failed", zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}
		if n := len(strings.TrimSpace(page.Text)); n < c.cfg.MinContentLen {
			return nil, fmt.Errorf("%w: %d chars", ErrInsufficientContent, n)
		}
		return page, nil
	})
	if err != nil {
		c.cfg.Metrics.FetchFailure(failureReason(err))
		c.log.Info("dropping url", zap.String("url", rawURL), zap.Int("attempts", attempt), zap.Error(err))
		return nil, err
	}

	c.store(key, page)
	return page, nil
}

func (c *Client) cached(key string) (*Page, bool) {
	if c.cfg.Cache == nil {
		return nil, false
	}
	raw, ok := c.cfg.Cache.Get(key)
	if !ok {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		_ = c.cfg.Cache.Delete(key)
		return nil, false
	}
	return &page, true
}

func (c *Client) store(key string, page *Page) {
	if c.cfg.Cache == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.cfg.Cache.Set(key, raw, c.cfg.CacheTTL); err != nil {
		c.log.Warn("page cache write failed", zap.Error(err))
	}
}

// retryableFetchError retries transient network and 5xx/429 failures and
// short content, which is often a half-rendered page.
func retryableFetchError(err error) bool {
	if errors.Is(err, ErrInsufficientContent) {
		return true
	}
	return retry.RetryableStatus(err)
}

func failureReason(err error) string {
	var se *retry.StatusError
	switch {
	case retry.IsTimeout(err):
		return "timeout"
	case errors.Is(err, ErrInsufficientContent):
		return "empty"
	case errors.As(err, &se):
		return "status"
	default:
		return "network"
	}
}
