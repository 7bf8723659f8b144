package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/cache"
	"github.com/ppiankov/wayfind/internal/conversation"
	"github.com/ppiankov/wayfind/internal/extract"
	"github.com/ppiankov/wayfind/internal/feedback"
	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/intent"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/logging"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/pipeline"
	"github.com/ppiankov/wayfind/internal/retry"
	"github.com/ppiankov/wayfind/internal/score"
	"github.com/ppiankov/wayfind/internal/search"
	"github.com/ppiankov/wayfind/internal/util"
	"github.com/ppiankov/wayfind/internal/weather"
)

// app is the fully wired recommender. Construction fails only on
// configuration errors such as a missing key for a selected provider.
type app struct {
	cfg     *model.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	llm     llm.Provider
	search  search.Engine
	weather *weather.Service
	orch    *conversation.Orchestrator
}

func newApp(ctx context.Context, cfg *model.Config) (*app, error) {
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	provider = llm.WithRetry(provider, retry.Policy{
		Attempts:     cfg.LLM.MaxRetries,
		Delay:        cfg.HTTP.RetryDelay,
		TimeoutDelay: cfg.HTTP.TimeoutDelay,
	})

	netRetry := retry.Policy{
		Attempts:       cfg.HTTP.MaxAttempts,
		Delay:          cfg.HTTP.RetryDelay,
		TimeoutDelay:   cfg.HTTP.TimeoutDelay,
		AttemptTimeout: cfg.HTTP.Timeout,
	}

	engine, err := search.New(search.Options{
		Engine:     cfg.Search.Engine,
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		Timeout:    cfg.HTTP.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		Retry:      netRetry,
		Logger:     log.Named("search"),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	fetcher, err := newFetcher(cfg, netRetry, log.Named("fetch"), m)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	weatherSvc, err := newWeather(cfg, netRetry, log.Named("weather"), m)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}

	coordinator := extract.NewCoordinator(fetcher, provider, extract.Options{
		MaxContentChars: cfg.Extraction.MaxContentChars,
		MaxCandidates:   cfg.Extraction.MaxCandidates,
		Concurrency:     cfg.Extraction.Concurrency,
		Logger:          log.Named("extract"),
		Metrics:         m,
	})

	pipe := pipeline.New(pipeline.Config{
		Intent:     intent.NewResolver(provider, weatherSvc, intent.Options{Logger: log.Named("intent"), Metrics: m}),
		Search:     engine,
		Extractor:  coordinator,
		Selector:   score.NewSelector(cfg.Extraction.MinRelevance, cfg.Extraction.MaxResults),
		MaxResults: cfg.Search.MaxResults,
		Logger:     log.Named("pipeline"),
	})

	orch := conversation.New(pipe,
		feedback.NewClassifier(provider, feedback.Options{Logger: log.Named("feedback"), Metrics: m}),
		provider,
		conversation.Options{
			MinRequestLen: cfg.Conversation.MinRequestLen,
			Logger:        log.Named("conversation"),
			Metrics:       m,
		})

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		llm:     provider,
		search:  engine,
		weather: weatherSvc,
		orch:    orch,
	}, nil
}

func newFetcher(cfg *model.Config, policy retry.Policy, log *zap.Logger, m *metrics.Metrics) (fetch.Fetcher, error) {
	var (
		backend fetch.Fetcher
		robots  *fetch.RobotsChecker
	)
	switch strings.ToLower(cfg.HTTP.Backend) {
	case "direct", "":
		backend = fetch.NewHTTPFetcher(fetch.HTTPOptions{
			Timeout:    cfg.HTTP.Timeout,
			UserAgent:  cfg.HTTP.UserAgent,
			MaxBytes:   cfg.HTTP.MaxBodyBytes,
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		})
		if cfg.HTTP.RespectRobots {
			robots = fetch.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
		}
	case "jina", "reader":
		backend = fetch.NewReaderFetcher("", cfg.HTTP.APIKey, cfg.HTTP.Timeout)
	case "firecrawl":
		fc, err := fetch.NewFirecrawlFetcher("", cfg.HTTP.APIKey, cfg.HTTP.Timeout)
		if err != nil {
			return nil, err
		}
		backend = fc
	default:
		return nil, fmt.Errorf("unknown fetch backend: %s (supported: direct, jina, firecrawl)", cfg.HTTP.Backend)
	}

	var pages cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".wayfind", "cache")
			}
		}
		pages = cache.NewLayeredCache(cfg.Cache.TTL, dir, cfg.Cache.TTL)
	}

	return fetch.NewClient(backend, fetch.ClientConfig{
		Blocklist:     fetch.NewBlocklist(cfg.HTTP.BlockedDomains),
		Robots:        robots,
		Limiter:       fetch.NewLimiter(cfg.HTTP.RatePerDomain, 1),
		Cache:         pages,
		CacheTTL:      cfg.Cache.TTL,
		Retry:         policy,
		MinContentLen: cfg.HTTP.MinContentLen,
		Logger:        log,
		Metrics:       m,
	}), nil
}

// newWeather builds the weather service. Without an API key every lookup
// returns a placeholder.
func newWeather(cfg *model.Config, policy retry.Policy, log *zap.Logger, m *metrics.Metrics) (*weather.Service, error) {
	var provider weather.Provider
	if cfg.Weather.APIKey != "" {
		ow, err := weather.NewOpenWeather(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Units, &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
		})
		if err != nil {
			return nil, err
		}
		provider = ow
	}
	return weather.NewService(provider, weather.Options{
		TTL:     cfg.Weather.CacheTTL,
		Retry:   policy,
		Logger:  log,
		Metrics: m,
	}), nil
}
