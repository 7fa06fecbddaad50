package solver

import (
	"context"
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/internal/testutil"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSolvedRequiresThresholdAndMajorityAndOutliers(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 4},
		{ID: 1, Count: 1},
	}
	assert.True(t, IsSolved(pool, 3))
	assert.False(t, IsSolved(pool, 5))
}

func TestIsSolvedFailsWhenAnotherCandidateHasMultipleVotes(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 4},
		{ID: 1, Count: 2},
	}
	assert.False(t, IsSolved(pool, 3))
}

func TestIsSolvedFailsWhenTopShareIsNotAMajority(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 3},
		{ID: 1, Count: 1},
		{ID: 2, Count: 1},
		{ID: 3, Count: 1},
		{ID: 4, Count: 1},
		{ID: 5, Count: 1},
		{ID: 6, Count: 1},
		{ID: 7, Count: 1},
		{ID: 8, Count: 1},
		{ID: 9, Count: 1},
		{ID: 10, Count: 1},
		{ID: 11, Count: 1},
	}
	assert.False(t, IsSolved(pool, 3))
}

func simpleTask() types.Task {
	return types.Task{
		ID:    "task1",
		Train: []types.Example{{Input: [][]int{{1}}, Output: [][]int{{2}}}},
		Test:  []types.Example{{Input: [][]int{{3}}, Output: [][]int{{4}}}},
	}
}

func fourStep1Models() []types.ModelConfig {
	return []types.ModelConfig{
		{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-high"},
		{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-medium"},
		{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-low"},
		{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-none"},
	}
}

func TestMachineRunSolvesAtStep2AndPasses(t *testing.T) {
	task := simpleTask()
	gen := testutil.NewMockGenerator(types.ModelResponse{Text: "4"})

	cfg := Config{
		TaskID:      task.ID,
		TestIndex:   0,
		Generators:  map[types.Provider]types.Generator{types.ProviderOpenAI: gen},
		Retry:       retry.Config{MaxAttempts: 1},
		Step1Models: fourStep1Models(),
		KThreshold:  3,
		JudgeModel:  types.ModelConfig{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-high"},
	}

	m := New(task, cfg)
	result, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "PASS", result.Outcome)
	assert.True(t, result.Solved)
	require.Len(t, result.Picked, 2)
	assert.Equal(t, grid.Grid{{4}}, result.Picked[0].Grid)

	var sawStep1, sawStep2, sawFinish bool
	for _, log := range result.StepLogs {
		switch log.Step {
		case "step_1":
			sawStep1 = true
		case "step_2":
			sawStep2 = true
		case "step_finish":
			sawFinish = true
		}
	}
	assert.True(t, sawStep1)
	assert.True(t, sawStep2)
	assert.True(t, sawFinish)
	assert.Greater(t, result.Usage.TotalTokens, -1) // usage aggregation ran without panicking
}

func TestMachineRunFallsThroughToStep5WhenNotSolved(t *testing.T) {
	task := simpleTask()
	// Two step-1 models split their votes (2 vs 2 distinct answers would
	// never satisfy IsSolved); here every call returns the same
	// non-matching grid so no candidate ever reaches KThreshold.
	gen := testutil.NewMockGenerator(types.ModelResponse{Text: "9"})

	cfg := Config{
		TaskID:     task.ID,
		TestIndex:  0,
		Generators: map[types.Provider]types.Generator{types.ProviderOpenAI: gen},
		Retry:      retry.Config{MaxAttempts: 1},
		Step1Models: []types.ModelConfig{
			{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-high"},
		},
		Step5Models: []types.ModelConfig{
			{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-medium"},
		},
		KThreshold: 100, // unreachable, forces the run through to Step 5
		JudgeModel: types.ModelConfig{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-high"},
	}

	m := New(task, cfg)
	result, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "FAIL", result.Outcome)
	assert.False(t, result.Solved)

	var sawDeepThinking bool
	for _, log := range result.StepLogs {
		if log.Step == "step_5_deep_thinking" {
			sawDeepThinking = true
		}
	}
	assert.True(t, sawDeepThinking)
}

func TestMachineRunWithEmptyStep1ModelsStillReachesFinish(t *testing.T) {
	task := simpleTask()
	gen := testutil.NewMockGenerator(types.ModelResponse{Text: "4"})
	cfg := Config{
		TaskID:     task.ID,
		TestIndex:  0,
		Generators: map[types.Provider]types.Generator{types.ProviderOpenAI: gen},
		Retry:      retry.Config{MaxAttempts: 1},
		KThreshold: 1,
		JudgeModel: types.ModelConfig{Provider: types.ProviderOpenAI, BaseModel: types.BaseGPT51, Identifier: "gpt-5.1-high"},
	}

	m := New(task, cfg)
	result, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "FAIL", result.Outcome) // no candidates were ever produced
}
