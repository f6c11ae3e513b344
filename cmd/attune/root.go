package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attune/internal/assessment"
	"attune/internal/catalog"
	"attune/internal/config"
	"attune/internal/errors"
	"attune/internal/llm"
	"attune/internal/logging"
	"attune/internal/ports"
	"attune/internal/session"
	"attune/internal/usage"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "attune",
		Short:         "AI-guided structured interviews and organizational readiness synthesis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newInterviewCommand(&configPath))
	root.AddCommand(newSynthesizeCommand(&configPath))
	return root
}

// buildService constructs the engine once, per process, from configuration.
func buildService(configPath string) (*assessment.Service, *usage.MemoryTracker, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewComponentLogger("cli")

	cat := catalog.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadCatalog(cfg.CatalogPath); err != nil {
			return nil, nil, nil, err
		}
	}
	script := catalog.DefaultScript()
	if cfg.ScriptPath != "" {
		if script, err = catalog.LoadScript(cfg.ScriptPath, cat); err != nil {
			return nil, nil, nil, err
		}
	}
	taxonomy := catalog.DefaultTaxonomy()
	if cfg.TaxonomyPath != "" {
		if taxonomy, err = catalog.LoadTaxonomy(cfg.TaxonomyPath); err != nil {
			return nil, nil, nil, err
		}
	}

	client := buildClient(cfg, logger)
	tracker := usage.NewMemoryTracker(cfg.TokenAllowance)
	guard := usage.NewGuard(tracker, tracker, logger)

	svc := assessment.NewService(client, guard, cat, script, taxonomy, session.NewMemoryStore(), logger, assessment.Options{
		Temperature:          cfg.Temperature,
		MaxTokens:            cfg.MaxTokens,
		PromptBudget:         cfg.PromptBudget,
		SynthesisConcurrency: cfg.SynthesisConcurrency,
	})
	return svc, tracker, cfg, nil
}

func buildClient(cfg *config.Config, logger logging.Logger) ports.CompletionClient {
	if cfg.MockModel {
		fmt.Println("(no API key configured, using the offline mock model)")
		return llm.NewMockClient()
	}
	var client ports.CompletionClient = llm.NewHTTPClient(llm.Config{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout(),
	}, logger)
	retryCfg := errors.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}
	client = llm.NewRetryClient(client, retryCfg, logger)
	if cfg.CacheSize > 0 {
		client = llm.NewCacheClient(client, cfg.CacheSize, cfg.CacheTTL(), logger)
	}
	return client
}
