// Package search finds candidate activity pages on the web.
package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/retry"
	"github.com/ppiankov/wayfind/internal/util"
)

const (
	// MaxResults is the hard cap on hits requested from any engine.
	MaxResults = 10
	snippetMax = 200
)

// Engine runs a web search.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error)
}

// Options configures an engine.
type Options struct {
	Engine     string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	Retry      retry.Policy
	Logger     *zap.Logger
}

// New builds the engine named in opts, wrapped in its retry policy.
func New(opts Options) (Engine, error) {
	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
		},
	}

	var (
		engine Engine
		err    error
	)
	switch strings.ToLower(opts.Engine) {
	case "tavily", "":
		engine, err = NewTavily(opts.BaseURL, opts.APIKey, httpClient)
	case "firecrawl":
		engine, err = NewFirecrawl(opts.BaseURL, opts.APIKey, httpClient)
	default:
		return nil, fmt.Errorf("unknown search engine: %s", opts.Engine)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(engine, opts.Retry, opts.Logger), nil
}

type retrying struct {
	Engine
	policy retry.Policy
	log    *zap.Logger
}

// WithRetry retries transient engine failures under policy.
func WithRetry(e Engine, policy retry.Policy, log *zap.Logger) Engine {
	if policy.Attempts <= 1 {
		return e
	}
	if policy.Retryable == nil {
		policy.Retryable = retry.RetryableStatus
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &retrying{Engine: e, policy: policy, log: log}
}

func (r *retrying) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	attempt := 0
	return retry.Value(ctx, r.policy, func(ctx context.Context) ([]model.SearchHit, error) {
		attempt++
		hits, err := r.Engine.Search(ctx, query, limit)
		if err != nil {
			r.log.Debug("search attempt failed",
				zap.String("engine", r.Engine.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return hits, err
	})
}

// clampMax bounds a requested result count to [1, MaxResults].
func clampMax(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}

// hit builds a SearchHit, trimming the snippet. Hits without a URL are
// reported as not ok.
func hit(url, title, snippet string) (model.SearchHit, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.SearchHit{}, false
	}
	return model.SearchHit{
		URL:     url,
		Title:   strings.TrimSpace(title),
		Snippet: truncate(strings.TrimSpace(snippet), snippetMax),
	}, true
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
