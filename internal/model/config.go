package model

import (
	"fmt"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Weather      WeatherConfig      `yaml:"weather" mapstructure:"weather"`
	Extraction   ExtractionConfig   `yaml:"extraction" mapstructure:"extraction"`
	Conversation ConversationConfig `yaml:"conversation" mapstructure:"conversation"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

// LLMConfig selects and tunes the inference provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// HTTPConfig controls page fetching.
type HTTPConfig struct {
	Backend        string        `yaml:"backend" mapstructure:"backend"` // direct, jina, firecrawl
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	TimeoutDelay   time.Duration `yaml:"timeout_delay" mapstructure:"timeout_delay"`
	RatePerDomain  float64       `yaml:"rate_per_domain" mapstructure:"rate_per_domain"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	MinContentLen  int           `yaml:"min_content_len" mapstructure:"min_content_len"`
	BlockedDomains []string      `yaml:"blocked_domains" mapstructure:"blocked_domains"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SearchConfig controls web search.
type SearchConfig struct {
	Engine     string `yaml:"engine" mapstructure:"engine"` // tavily, firecrawl
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// WeatherConfig controls weather lookups.
type WeatherConfig struct {
	APIKey   string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	Units    string        `yaml:"units" mapstructure:"units"`
}

// ExtractionConfig tunes page interpretation.
type ExtractionConfig struct {
	MaxContentChars int     `yaml:"max_content_chars" mapstructure:"max_content_chars"`
	MaxCandidates   int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	MaxSubPages     int     `yaml:"max_sub_pages" mapstructure:"max_sub_pages"`
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	MinRelevance    float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
	MaxResults      int     `yaml:"max_results" mapstructure:"max_results"`
}

// ConversationConfig bounds the feedback loop.
type ConversationConfig struct {
	MaxTurns      int `yaml:"max_turns" mapstructure:"max_turns"`
	MinRequestLen int `yaml:"min_request_len" mapstructure:"min_request_len"`
}

// CacheConfig controls the fetched page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   1000,
			Temperature: 0.1,
			MaxRetries:  3,
		},
		HTTP: HTTPConfig{
			Backend:       "direct",
			Timeout:       20 * time.Second,
			UserAgent:     "Wayfind/0.1 (+https://github.com/ppiankov/wayfind)",
			MaxBodyBytes:  2_000_000,
			MaxAttempts:   2,
			RetryDelay:    2 * time.Second,
			TimeoutDelay:  3 * time.Second,
			RatePerDomain: 2,
			RespectRobots: true,
			MinContentLen: 100,
			BlockedDomains: []string{
				"facebook.com", "reddit.com", "instagram.com",
				"twitter.com", "x.com", "youtube.com", "youtu.be",
			},
		},
		Search: SearchConfig{
			Engine:     "tavily",
			MaxResults: 5,
		},
		Weather: WeatherConfig{
			CacheTTL: 5 * time.Minute,
			Units:    "metric",
		},
		Extraction: ExtractionConfig{
			MaxContentChars: 8000,
			MaxCandidates:   5,
			MaxSubPages:     3,
			Concurrency:     3,
			MinRelevance:    0.3,
			MaxResults:      3,
		},
		Conversation: ConversationConfig{
			MaxTurns:      5,
			MinRequestLen: 5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.MaxAttempts < 1:
		return fmt.Errorf("http.max_attempts must be >= 1, got %d", c.HTTP.MaxAttempts)
	case c.Extraction.MaxContentChars <= 0:
		return fmt.Errorf("extraction.max_content_chars must be positive")
	case c.Extraction.MinRelevance < 0 || c.Extraction.MinRelevance > 1:
		return fmt.Errorf("extraction.min_relevance must be within [0,1], got %v", c.Extraction.MinRelevance)
	case c.Extraction.Concurrency < 1:
		return fmt.Errorf("extraction.concurrency must be >= 1")
	case c.Conversation.MaxTurns < 1:
		return fmt.Errorf("conversation.max_turns must be >= 1")
	case c.Search.MaxResults < 1 || c.Search.MaxResults > 10:
		return fmt.Errorf("search.max_results must be within [1,10], got %d", c.Search.MaxResults)
	}
	return nil
}
