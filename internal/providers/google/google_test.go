package google

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestThinkingLevelDefaultsToHigh(t *testing.T) {
	assert.Equal(t, "high", thinkingLevel(types.ModelConfig{}))
	assert.Equal(t, "high", thinkingLevel(types.ModelConfig{Reasoning: types.Reasoning{Kind: types.ReasoningEffort, Effort: "high"}}))
	assert.Equal(t, "low", thinkingLevel(types.ModelConfig{Reasoning: types.Reasoning{Kind: types.ReasoningEffort, Effort: "low"}}))
}

func TestClassifyStatusMapsCodes(t *testing.T) {
	rateLimited := classifyStatus("gemini-3-high", 429, []byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"quota"}}`))
	assert.Equal(t, types.CategoryRetryable, types.CategoryOf(rateLimited))

	badRequest := classifyStatus("gemini-3-high", 400, []byte(`{"error":{"status":"INVALID_ARGUMENT","message":"bad"}}`))
	assert.Equal(t, types.CategoryNonRetryable, types.CategoryOf(badRequest))
}

func TestClassifyTransportMatchesOverloaded(t *testing.T) {
	err := classifyTransport("gemini-3-high", assertErr("model overloaded, try again"))
	assert.Equal(t, types.CategoryRetryable, types.CategoryOf(err))
}

func TestBuildUserPartTextOnly(t *testing.T) {
	parts, err := buildUserPart("describe the grid", "")
	assert.NoError(t, err)
	assert.Len(t, parts, 1)
	assert.Equal(t, "describe the grid", parts[0].Text)
}

func TestBuildUserPartMissingImageErrors(t *testing.T) {
	_, err := buildUserPart("describe the grid", "/no/such/file.png")
	assert.Error(t, err)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
