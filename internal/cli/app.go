// Copyright 2025 The Draftflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/draftflow/draftflow/internal/config"
	"github.com/draftflow/draftflow/internal/log"
	"github.com/draftflow/draftflow/internal/store"
	"github.com/draftflow/draftflow/pkg/draft"
	"github.com/draftflow/draftflow/pkg/govern"
	"github.com/draftflow/draftflow/pkg/llm"
	"github.com/draftflow/draftflow/pkg/llm/pricing"
	"github.com/draftflow/draftflow/pkg/llm/providers"
	"github.com/draftflow/draftflow/pkg/metrics"
)

// App bundles the wired components behind each subcommand. It is
// assembled once per invocation from the resolved configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Service  *draft.Service
	Store    store.Store
	Governor *govern.Governor
	Metrics  *metrics.Sink
}

// newApp loads configuration and wires the provider, retry caller,
// governor, metrics sink, store, and draft service together.
func newApp() (*App, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	logger := log.New(&log.Config{
		Level:     cfg.Log.Level,
		Format:    log.Format(cfg.Log.Format),
		AddSource: cfg.Log.AddSource,
	})

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	pricer, err := pricing.NewManagerWithConfig(cfg.Pricing.Path)
	if err != nil {
		return nil, fmt.Errorf("loading pricing table: %w", err)
	}
	modelPricing, warning := pricer.LookupWithWarning(provider.Name(), provider.Model())
	if warning != "" {
		logger.Warn("pricing lookup", "message", warning)
	}

	governor := govern.New(govern.Config{
		MaxRequestsPerMinute: cfg.Limits.RequestsPerMinute,
		DailyBudgetUSD:       cfg.Limits.DailyBudgetUSD,
	})
	sink := metrics.NewSink()

	caller := llm.NewCaller(provider, llm.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}).
		WithGate(governor).
		WithRecorder(sink).
		WithPricing(modelPricing).
		WithLogger(log.WithComponent(logger, "llm"))

	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	service := draft.NewService(caller).
		WithProfiles(st).
		WithLogger(log.WithComponent(logger, "draft")).
		WithTemperature(cfg.Provider.Temperature).
		WithDiffThreshold(cfg.Routing.DiffThreshold)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Service:  service,
		Store:    st,
		Governor: governor,
		Metrics:  sink,
	}, nil
}

// Close releases the app's resources and writes the metrics summary
// when a flush directory is configured.
func (a *App) Close() {
	if dir := a.Config.Metrics.FlushDir; dir != "" {
		if path, err := a.Metrics.Flush(dir); err != nil {
			a.Logger.Warn("metrics flush failed", "error", err)
		} else {
			a.Logger.Debug("metrics flushed", "path", path)
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("store close failed", "error", err)
	}
}

// resolveConfigPath returns the --config flag value, or the default
// config file when it exists. An absent default file means defaults
// plus environment variables.
func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".draftflow", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func buildProvider(cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
	name := cfg.Provider.Name
	if name == "openai" && cfg.Provider.APIKey == "" {
		logger.Warn("no API key configured, falling back to stub provider")
		name = "stub"
	}

	switch name {
	case "stub":
		return providers.NewStub(), nil
	case "openai":
		p, err := providers.NewOpenAI(providers.OpenAIConfig{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
			Model:   cfg.Provider.Model,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("provider configured",
			log.ProviderKey, name,
			"model", cfg.Provider.Model,
			"api_key", log.SanitizeAPIKey(cfg.Provider.APIKey))
		return p.WithLogger(log.WithProvider(logger, name)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Store.Path)
	case "file":
		return store.NewFileStore(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
