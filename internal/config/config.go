// Package config loads runtime configuration: defaults first, then an
// optional YAML file, then ATTUNE_* environment variables. The archetype
// catalog, question script, and taxonomy load separately (see
// internal/catalog); this package only carries their file paths.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide runtime configuration.
type Config struct {
	Model          string  `mapstructure:"model"`
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	PromptBudget   int     `mapstructure:"prompt_budget"`

	CacheSize       int `mapstructure:"cache_size"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`

	CatalogPath  string `mapstructure:"catalog_path"`
	ScriptPath   string `mapstructure:"script_path"`
	TaxonomyPath string `mapstructure:"taxonomy_path"`

	TokenAllowance       int64  `mapstructure:"token_allowance"`
	SynthesisConcurrency int    `mapstructure:"synthesis_concurrency"`
	LogLevel             string `mapstructure:"log_level"`

	// MockModel short-circuits the completion client for offline demos.
	MockModel bool `mapstructure:"mock_model"`
}

// Timeout returns the HTTP client timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the completion cache TTL.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("base_url", "https://api.openai.com/v1")
	v.SetDefault("timeout_seconds", 120)
	v.SetDefault("max_retries", 3)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 400)
	v.SetDefault("prompt_budget", 6000)
	v.SetDefault("cache_size", 128)
	v.SetDefault("cache_ttl_seconds", 600)
	v.SetDefault("token_allowance", 500_000)
	v.SetDefault("synthesis_concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("mock_model", false)

	v.SetEnvPrefix("ATTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if !cfg.MockModel && cfg.APIKey == "" {
		// Not fatal here: the CLI falls back to the mock client with a notice.
		cfg.MockModel = true
	}
	return &cfg, nil
}
