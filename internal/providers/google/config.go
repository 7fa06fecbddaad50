// Package google implements types.Generator against the Gemini
// Generative Language API. No Go SDK for this API appears anywhere in
// this module's dependency pack, so the client speaks raw JSON over
// net/http, the same choice this module makes for Anthropic.
package google

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 180 * time.Second
	maxOutputTokens = 65536
)

type Config struct {
	APIKey  string
	BaseURL string
}

func DefaultConfig() Config {
	return Config{BaseURL: defaultBaseURL}
}

func ConfigFromMap(m registry.Config) (Config, error) {
	cfg := DefaultConfig()

	apiKey, err := registry.GetAPIKeyWithEnv(m, "GEMINI_API_KEY", "google")
	if err != nil {
		return cfg, fmt.Errorf("google generator requires an api key: %w", err)
	}
	cfg.APIKey = apiKey
	cfg.BaseURL = registry.GetString(m, "base_url", cfg.BaseURL)

	return cfg, nil
}
