package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/wayfind/internal/model"
)

// loadConfig resolves the configuration from defaults, the config file,
// WAYFIND_* variables, flags and the providers' own key variables.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := registerDefaults(v, cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvKeys(cfg, os.Getenv)
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// registerDefaults makes every config key known to v, so environment
// variables override keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	setDefaults(v, "", tree)
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}
	return nil
}

// optionalKeys are omitted from the encoded defaults when empty.
var optionalKeys = []string{
	"llm.api_key", "llm.base_url",
	"http.api_key", "http.http_proxy", "http.https_proxy", "http.no_proxy",
	"search.api_key", "search.base_url",
	"weather.api_key", "weather.base_url",
	"cache.dir",
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// applyEnvKeys fills credentials left empty from the providers' standard
// environment variables.
func applyEnvKeys(cfg *model.Config, getenv func(string) string) {
	fill := func(dst *string, name string) {
		if *dst == "" {
			*dst = getenv(name)
		}
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai", "":
		fill(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	case "anthropic", "claude":
		fill(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	case "gemini", "google":
		fill(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	case "ollama":
		fill(&cfg.LLM.BaseURL, "OLLAMA_BASE_URL")
	}

	switch strings.ToLower(cfg.Search.Engine) {
	case "tavily", "":
		fill(&cfg.Search.APIKey, "TAVILY_API_KEY")
	case "firecrawl":
		fill(&cfg.Search.APIKey, "FIRECRAWL_API_KEY")
	}

	switch strings.ToLower(cfg.HTTP.Backend) {
	case "jina":
		fill(&cfg.HTTP.APIKey, "JINA_API_KEY")
	case "firecrawl":
		fill(&cfg.HTTP.APIKey, "FIRECRAWL_API_KEY")
	}

	fill(&cfg.Weather.APIKey, "OPENWEATHER_API_KEY")
	fill(&cfg.HTTP.HTTPProxy, "HTTP_PROXY")
	fill(&cfg.HTTP.HTTPSProxy, "HTTPS_PROXY")
	fill(&cfg.HTTP.NoProxy, "NO_PROXY")
}
