// Package bedrock implements types.Generator against AWS Bedrock's
// InvokeModel API, dispatching per model-family wire format
// (Anthropic Claude, Amazon Titan, Meta Llama) the same way the
// teacher's generator did, adapted to the ARC grid-solving call shape.
package bedrock

import (
	"fmt"

	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
)

const (
	defaultMaxTokens   = 8192
	defaultTemperature = 1.0
)

type Config struct {
	ModelID     string
	Region      string
	Endpoint    string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func ConfigFromMap(m registry.Config) (Config, error) {
	modelID, err := registry.RequireString(m, "model")
	if err != nil {
		return Config{}, fmt.Errorf("bedrock generator: %w", err)
	}
	region, err := registry.RequireString(m, "region")
	if err != nil {
		return Config{}, fmt.Errorf("bedrock generator: %w", err)
	}

	return Config{
		ModelID:     modelID,
		Region:      region,
		Endpoint:    registry.GetString(m, "endpoint", ""),
		MaxTokens:   registry.GetInt(m, "max_tokens", defaultMaxTokens),
		Temperature: registry.GetFloat64(m, "temperature", defaultTemperature),
		TopP:        registry.GetFloat64(m, "top_p", 0),
	}, nil
}
