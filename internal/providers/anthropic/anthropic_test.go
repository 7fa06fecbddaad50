package anthropic

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatusMapsCodes(t *testing.T) {
	rateLimited := classifyStatus("claude-opus-4.5-high", 429, []byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	assert.Equal(t, types.CategoryRetryable, types.CategoryOf(rateLimited))

	badRequest := classifyStatus("claude-opus-4.5-high", 400, []byte(`{"error":{"type":"invalid_request_error","message":"bad"}}`))
	assert.Equal(t, types.CategoryNonRetryable, types.CategoryOf(badRequest))

	overloaded := classifyStatus("claude-opus-4.5-high", 529, []byte(`{"error":{"type":"overloaded_error","message":"busy"}}`))
	assert.Equal(t, types.CategoryRetryable, types.CategoryOf(overloaded))
}

func TestBuildRequestAppliesThinkingBudget(t *testing.T) {
	cfg := types.ModelConfig{
		BaseModel: "claude-sonnet-4-5-20250929",
		Reasoning: types.Reasoning{Kind: types.ReasoningBudget, Budget: 32000},
	}
	req := buildRequest(cfg, nil)
	assert.NotNil(t, req.Thinking)
	assert.Equal(t, 32000, req.Thinking.BudgetTokens)
	assert.Equal(t, 36096, req.MaxTokens)
}

func TestBuildRequestClampsThinkingBudgetAtModelMax(t *testing.T) {
	cfg := types.ModelConfig{
		BaseModel: "claude-sonnet-4-5-20250929",
		Reasoning: types.Reasoning{Kind: types.ReasoningBudget, Budget: 62000},
	}
	req := buildRequest(cfg, nil)
	assert.Equal(t, modelMaxTokens, req.MaxTokens)
	assert.Equal(t, modelMaxTokens-2048, req.Thinking.BudgetTokens)
}

func TestBuildRequestNoThinkingWhenEffortOnly(t *testing.T) {
	cfg := types.ModelConfig{
		BaseModel: "claude-opus-4-5-20251101",
		Reasoning: types.Reasoning{Kind: types.ReasoningEffort, Effort: "high"},
	}
	req := buildRequest(cfg, nil)
	assert.Nil(t, req.Thinking)
	assert.Equal(t, baseMaxTokens, req.MaxTokens)
}

func TestBuildContentTextOnly(t *testing.T) {
	content, err := buildContent("describe the grid", "")
	assert.NoError(t, err)
	assert.Len(t, content, 1)
	assert.Equal(t, "text", content[0].Type)
	assert.Equal(t, "describe the grid", content[0].Text)
}

func TestBuildContentMissingImageErrors(t *testing.T) {
	_, err := buildContent("describe the grid", "/no/such/file.png")
	assert.Error(t, err)
}
