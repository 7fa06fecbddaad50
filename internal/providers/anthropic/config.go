// Package anthropic implements types.Generator against Anthropic's
// Messages API, with extended thinking controlled by ModelConfig's
// reasoning budget.
package anthropic

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
)

const (
	defaultAPIVersion = "2023-06-01"
	defaultBaseURL    = "https://api.anthropic.com/v1"
	defaultTimeout    = 180 * time.Second
	baseMaxTokens     = 8192
	modelMaxTokens    = 64000
)

type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
}

func DefaultConfig() Config {
	return Config{APIVersion: defaultAPIVersion, BaseURL: defaultBaseURL}
}

func ConfigFromMap(m registry.Config) (Config, error) {
	cfg := DefaultConfig()

	apiKey, err := registry.GetAPIKeyWithEnv(m, "ANTHROPIC_API_KEY", "anthropic")
	if err != nil {
		return cfg, fmt.Errorf("anthropic generator requires an api key: %w", err)
	}
	cfg.APIKey = apiKey
	cfg.BaseURL = registry.GetString(m, "base_url", cfg.BaseURL)
	cfg.APIVersion = registry.GetString(m, "api_version", cfg.APIVersion)

	return cfg, nil
}
