package types_test

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelIdentifier(t *testing.T) {
	cfg, err := types.ParseModelIdentifier("gpt-5.1-high")
	require.NoError(t, err)
	assert.Equal(t, types.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, types.BaseGPT51, cfg.BaseModel)
	assert.Equal(t, types.ReasoningEffort, cfg.Reasoning.Kind)
	assert.Equal(t, "high", cfg.Reasoning.Effort)

	cfg, err = types.ParseModelIdentifier("claude-sonnet-4.5-thinking-60000")
	require.NoError(t, err)
	assert.Equal(t, types.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, types.ReasoningBudget, cfg.Reasoning.Kind)
	assert.Equal(t, 60000, cfg.Reasoning.Budget)

	cfg, err = types.ParseModelIdentifier("claude-sonnet-4.5-no-thinking")
	require.NoError(t, err)
	assert.Equal(t, types.ReasoningNone, cfg.Reasoning.Kind)

	cfg, err = types.ParseModelIdentifier("gemini-3-low")
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGoogle, cfg.Provider)

	_, err = types.ParseModelIdentifier("gpt-7-ultra")
	assert.ErrorIs(t, err, types.ErrUnknownModel)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCalculateCost(t *testing.T) {
	table := types.DefaultPricing[types.BaseGPT51]
	cost := types.CalculateCost(table, 1000, 200, 500)
	assert.Greater(t, cost, 0.0)
}
