package main

import (
	"testing"

	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/anthropic"
	_ "github.com/praetorian-inc/arc-orchestrator/internal/providers/google"
	providerOpenAI "github.com/praetorian-inc/arc-orchestrator/internal/providers/openai"
	"github.com/praetorian-inc/arc-orchestrator/pkg/config"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGeneratorsSkipsProvidersWithoutCredentials(t *testing.T) {
	gens, err := buildGenerators(map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	})
	require.NoError(t, err)
	assert.Contains(t, gens, types.ProviderOpenAI)
	assert.NotContains(t, gens, types.ProviderAnthropic)
	assert.NotContains(t, gens, types.ProviderGoogle)
}

func TestBuildGeneratorsWiresAnthropicFallbackIntoOpenAI(t *testing.T) {
	gens, err := buildGenerators(map[string]config.ProviderConfig{
		"openai":    {APIKey: "sk-test"},
		"anthropic": {APIKey: "sk-ant-test"},
	})
	require.NoError(t, err)
	openaiGen, ok := gens[types.ProviderOpenAI].(*providerOpenAI.Provider)
	require.True(t, ok)
	assert.True(t, openaiGen.HasFallback())
}

func TestRateLimitsForAppliesProviderOverride(t *testing.T) {
	limits := rateLimitsFor(map[string]config.ProviderConfig{
		"openai": {RateLimit: 30},
	})
	require.Contains(t, limits, "openai")
	assert.Equal(t, 30.0, limits["openai"].MaxTokens)
	assert.Equal(t, 0.5, limits["openai"].RefillRate)

	// anthropic/google keep their unmodified defaults.
	assert.Equal(t, 15.0, limits["anthropic"].MaxTokens)
}
