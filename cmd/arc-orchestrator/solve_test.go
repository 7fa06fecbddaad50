package main

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/internal/batch"
	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitComma(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitComma("a, b"))
	assert.Equal(t, []string{"a"}, splitComma("a"))
	assert.Empty(t, splitComma(""))
}

func TestBuildJobsSingleTestIndex(t *testing.T) {
	tasks := []types.Task{
		{ID: "t1", Test: []types.Example{{}, {}}},
		{ID: "t2", Test: []types.Example{{}}},
	}
	jobs := buildJobs(tasks, 2, false)
	require.Len(t, jobs, 2)
	assert.Equal(t, 1, jobs[0].TestIndex)
	assert.Equal(t, 1, jobs[1].TestIndex)
}

func TestBuildJobsAllTests(t *testing.T) {
	tasks := []types.Task{
		{ID: "t1", Test: []types.Example{{}, {}}},
	}
	jobs := buildJobs(tasks, 1, true)
	require.Len(t, jobs, 2)
	assert.Equal(t, 0, jobs[0].TestIndex)
	assert.Equal(t, 1, jobs[1].TestIndex)
}

func TestOverlayMapsStep5OnlyToForceFlags(t *testing.T) {
	s := &SolveCmd{Step5Only: true}
	overlay := s.overlay()
	assert.False(t, overlay.Solver.ForceStep2)
	assert.True(t, overlay.Solver.ForceStep5)
}

func TestOverlayParsesCodegenParams(t *testing.T) {
	s := &SolveCmd{CodegenParams: "gpt-5.1-high:v2,gemini-3-high:v1b"}
	overlay := s.overlay()
	require.Len(t, overlay.Solver.CodegenParams, 2)
	assert.Equal(t, "gpt-5.1-high", overlay.Solver.CodegenParams[0].ModelID)
	assert.Equal(t, "v2", overlay.Solver.CodegenParams[0].PromptVersion)
	assert.Equal(t, "gemini-3-high", overlay.Solver.CodegenParams[1].ModelID)
	assert.Equal(t, "v1b", overlay.Solver.CodegenParams[1].PromptVersion)
}

func TestProviderForResolvesFromModelIdentifier(t *testing.T) {
	assert.Equal(t, "openai", providerFor([]string{"gpt-5.1-high"}))
	assert.Equal(t, "", providerFor([]string{"not-a-real-model"}))
	assert.Equal(t, "", providerFor(nil))
}

func TestAttemptsForHalvesUsageAcrossEveryAttempt(t *testing.T) {
	result := solver.Result{
		Picked: []candidate.Candidate{
			{Grid: grid.Grid{{1}}, IsCorrect: grid.TriTrue, Models: []string{"gpt-5.1-high"}, ReasoningSummary: "tried rotation"},
			{Grid: grid.Grid{{2}}, IsCorrect: grid.TriFalse, Models: []string{"gemini-3-high"}},
		},
		Usage: types.UsageStats{TotalCost: 1.5, PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140},
	}

	attempts := attemptsFor(result)
	require.Len(t, attempts, 2)
	assert.True(t, attempts[0].Correct)
	assert.Equal(t, "openai", attempts[0].Provider)
	assert.Equal(t, "tried rotation", attempts[0].ReasoningSummary)
	assert.Equal(t, 0.75, attempts[0].Cost)
	assert.Equal(t, 50, attempts[0].Usage.PromptTokens)
	assert.False(t, attempts[1].Correct)
	assert.Equal(t, 0.75, attempts[1].Cost)
	assert.Equal(t, 50, attempts[1].Usage.PromptTokens)
}

func TestCollectResultsHandlesBrokenAndErrorOutcomes(t *testing.T) {
	outcomes := []batch.Outcome{
		{Job: batch.TaskJob{Task: types.Task{ID: "broken"}}, Broken: true},
		{Job: batch.TaskJob{Task: types.Task{ID: "errored"}}, Err: assert.AnError},
		{
			Job:  batch.TaskJob{Task: types.Task{ID: "solved"}},
			Resp: &batch.TaskResponse{Result: &solver.Result{Picked: []candidate.Candidate{{Grid: grid.Grid{{3}}}}}},
		},
	}

	inputs := collectResults(outcomes)
	require.Len(t, inputs, 3)
	assert.Empty(t, inputs[0].Attempts)
	assert.Empty(t, inputs[1].Attempts)
	assert.Len(t, inputs[2].Attempts, 1)
}
