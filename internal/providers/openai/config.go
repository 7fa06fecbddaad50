// Package openai implements types.Generator against OpenAI's chat and
// Responses APIs, including the Responses API's background-job mode
// used for the heaviest reasoning-effort calls.
package openai

import (
	"fmt"

	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
)

// Config holds typed configuration for the OpenAI generator.
type Config struct {
	APIKey  string
	BaseURL string
}

func DefaultConfig() Config {
	return Config{BaseURL: "https://api.openai.com/v1"}
}

// ConfigFromMap parses a registry.Config map into a typed Config,
// falling back to the OPENAI_API_KEY environment variable.
func ConfigFromMap(m registry.Config) (Config, error) {
	cfg := DefaultConfig()

	apiKey, err := registry.GetAPIKeyWithEnv(m, "OPENAI_API_KEY", "openai")
	if err != nil {
		return cfg, fmt.Errorf("openai generator requires an api key: %w", err)
	}
	cfg.APIKey = apiKey
	cfg.BaseURL = registry.GetString(m, "base_url", cfg.BaseURL)

	return cfg, nil
}
