// Package pricing holds the per-provider price table and the token/cost
// estimator used for budget accounting. It deliberately does not import the
// llm package so either can be used standalone.
package pricing

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelPricing contains pricing information for a specific model.
type ModelPricing struct {
	// Provider is the LLM provider name (e.g., "openai").
	Provider string `yaml:"provider" json:"provider"`

	// Model is the model identifier (e.g., "gpt-4o-mini").
	Model string `yaml:"model" json:"model"`

	// InputPricePerMillion is the cost per million input tokens in USD.
	InputPricePerMillion float64 `yaml:"input_price_per_million" json:"input_price_per_million"`

	// OutputPricePerMillion is the cost per million output tokens in USD.
	OutputPricePerMillion float64 `yaml:"output_price_per_million" json:"output_price_per_million"`

	// EffectiveDate is when this pricing became effective.
	EffectiveDate time.Time `yaml:"effective_date" json:"effective_date"`

	// Free indicates a model with no per-token cost (local or stub models).
	Free bool `yaml:"free,omitempty" json:"free,omitempty"`
}

// Config contains all pricing information.
type Config struct {
	// Version is the pricing configuration version.
	Version string `yaml:"version" json:"version"`

	// UpdatedAt is when this configuration was last updated.
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`

	// Models contains pricing for all models.
	Models []ModelPricing `yaml:"models" json:"models"`
}

// Manager manages pricing lookups with user overrides and staleness warnings.
type Manager struct {
	mu     sync.RWMutex
	config *Config

	// stalenessThreshold is how old pricing can be before warning (default: 30 days).
	stalenessThreshold time.Duration
}

// NewManager creates a new pricing manager with built-in defaults.
func NewManager() *Manager {
	return &Manager{
		config:             builtInPricing(),
		stalenessThreshold: 30 * 24 * time.Hour,
	}
}

// NewManagerWithConfig creates a pricing manager and merges the user config
// at configPath over the built-in defaults. A missing file is not an error.
func NewManagerWithConfig(configPath string) (*Manager, error) {
	pm := NewManager()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return pm, nil
		}
		return nil, fmt.Errorf("failed to read pricing config: %w", err)
	}

	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config: %w", err)
	}

	pm.mu.Lock()
	pm.config = mergePricing(pm.config, &user)
	pm.mu.Unlock()

	return pm, nil
}

// mergePricing merges user pricing with built-in defaults.
// User pricing takes precedence for matching provider/model combinations.
func mergePricing(builtIn, user *Config) *Config {
	merged := &Config{
		Version:   user.Version,
		UpdatedAt: user.UpdatedAt,
		Models:    make([]ModelPricing, 0, len(builtIn.Models)+len(user.Models)),
	}

	userPricing := make(map[string]ModelPricing)
	for _, mp := range user.Models {
		userPricing[mp.Provider+":"+mp.Model] = mp
	}

	for _, mp := range builtIn.Models {
		key := mp.Provider + ":" + mp.Model
		if userMP, exists := userPricing[key]; exists {
			merged.Models = append(merged.Models, userMP)
			delete(userPricing, key)
		} else {
			merged.Models = append(merged.Models, mp)
		}
	}

	for _, mp := range userPricing {
		merged.Models = append(merged.Models, mp)
	}

	return merged
}

// Lookup returns pricing for a specific provider and model.
// Returns nil if pricing not found.
func (pm *Manager) Lookup(provider, model string) *ModelPricing {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for i := range pm.config.Models {
		mp := &pm.config.Models[i]
		if mp.Provider == provider && mp.Model == model {
			return mp
		}
	}

	return nil
}

// LookupWithWarning returns pricing and a staleness warning if applicable.
func (pm *Manager) LookupWithWarning(provider, model string) (*ModelPricing, string) {
	mp := pm.Lookup(provider, model)
	if mp == nil {
		return nil, ""
	}

	age := time.Since(mp.EffectiveDate)
	if age > pm.stalenessThreshold {
		days := int(age.Hours() / 24)
		return mp, fmt.Sprintf("pricing data for %s/%s is %d days old", provider, model, days)
	}

	return mp, ""
}

// Providers returns all providers with pricing data.
func (pm *Manager) Providers() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	seen := make(map[string]bool)
	providers := make([]string, 0)

	for _, mp := range pm.config.Models {
		if !seen[mp.Provider] {
			seen[mp.Provider] = true
			providers = append(providers, mp.Provider)
		}
	}

	return providers
}

// SetStalenessThreshold sets the duration after which pricing is considered stale.
func (pm *Manager) SetStalenessThreshold(d time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.stalenessThreshold = d
}
