package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/internal/testutil"
	"github.com/praetorian-inc/arc-orchestrator/internal/worker"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRunGridModeCorrectAnswer(t *testing.T) {
	gen := testutil.NewMockGenerator(types.ModelResponse{
		Text:             "```\n1,2\n3,4\n```",
		PromptTokens:     10,
		CompletionTokens: 5,
	})

	job := worker.Job{
		RunID:          "task1:test0:gpt-5.1:1",
		Prompt:         "solve this",
		ModelConfig:    types.ModelConfig{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1"},
		RequestedModel: "gpt-5.1",
		Generator:      gen,
		Limiter:        ratelimit.NewLimiter(10, 10),
		RetryConfig:    retry.Config{MaxAttempts: 1},
		TestExample:    types.Example{Input: [][]int{{0}}, Output: [][]int{{1, 2}, {3, 4}}},
		Mode:           worker.ModeGrid,
	}

	result := worker.Run(context.Background(), job)

	assert.Equal(t, grid.TriTrue, result.IsCorrect)
	assert.Equal(t, grid.Grid{{1, 2}, {3, 4}}, result.Grid)
	assert.Greater(t, result.Cost, 0.0)
	assert.Equal(t, 1, gen.SolveCalls)
}

func TestRunRetriesOnRetryableErrorThenSucceeds(t *testing.T) {
	gen := &testutil.MockGenerator{
		Responses: []types.ModelResponse{{}, {Text: "1,2\n3,4"}},
		Errs:      []error{types.NewRetryableError("rate limited", nil), nil},
	}

	job := worker.Job{
		RunID:       "task1:test0:gpt-5.1:1",
		ModelConfig: types.ModelConfig{BaseModel: types.BaseGPT51, Identifier: "gpt-5.1"},
		Generator:   gen,
		RetryConfig: retry.Config{MaxAttempts: 3, Delays: []time.Duration{1 * time.Millisecond}},
		TestExample: types.Example{Input: [][]int{{0}}, Output: [][]int{{1, 2}, {3, 4}}},
		Mode:        worker.ModeGrid,
	}

	result := worker.Run(context.Background(), job)
	assert.Equal(t, grid.TriTrue, result.IsCorrect)
	assert.Equal(t, 2, gen.SolveCalls)
}

func TestRunNonRetryableErrorStopsImmediately(t *testing.T) {
	gen := &testutil.MockGenerator{
		Responses: []types.ModelResponse{{}},
		Errs:      []error{types.NewNonRetryableError("bad api key", nil)},
	}

	job := worker.Job{
		RunID:       "task1:test0:gpt-5.1:1",
		ModelConfig: types.ModelConfig{BaseModel: types.BaseGPT51, Identifier: "gpt-5.1"},
		Generator:   gen,
		RetryConfig: retry.Config{MaxAttempts: 5, Delays: []time.Duration{1 * time.Millisecond}},
		TestExample: types.Example{Input: [][]int{{0}}},
		Mode:        worker.ModeGrid,
	}

	result := worker.Run(context.Background(), job)
	assert.Equal(t, grid.TriFalse, result.IsCorrect)
	assert.Equal(t, 1, gen.SolveCalls)
	assert.Contains(t, result.FullResponse, "bad api key")
}

func TestRunModelFallbackRewritesRunID(t *testing.T) {
	gen := testutil.NewMockGenerator(types.ModelResponse{
		Text:      "1,2\n3,4",
		ModelName: "gpt-5.1-mini",
	})

	job := worker.Job{
		RunID:       "task1:test0:gpt-5.1:1",
		ModelConfig: types.ModelConfig{BaseModel: types.BaseGPT51, Identifier: "gpt-5.1"},
		Generator:   gen,
		RetryConfig: retry.Config{MaxAttempts: 1},
		TestExample: types.Example{Input: [][]int{{0}}, Output: [][]int{{1, 2}, {3, 4}}},
		Mode:        worker.ModeGrid,
	}

	result := worker.Run(context.Background(), job)
	assert.Equal(t, "task1:test0:gpt-5.1-mini:1", result.RunID)
	assert.Equal(t, "gpt-5.1-mini", result.ModelActual)
}
