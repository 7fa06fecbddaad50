package promptkit

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
)

func sampleCandidates() []CandidateView {
	return []CandidateView{
		{
			ID:        0,
			Grid:      grid.Grid{{1, 2}, {3, 4}},
			Models:    []string{"gpt-5.1-high", "claude-sonnet-4.5-thinking-8000"},
			Count:     2,
			Reasoning: map[string]string{"gpt-5.1-high": "flip the grid"},
		},
		{
			ID:     1,
			Grid:   grid.Grid{{5, 6}, {7, 8}},
			Models: []string{"gemini-3-high"},
			Count:  1,
		},
	}
}

func sampleTrain() []types.Example {
	return []types.Example{{Input: [][]int{{1, 1}}, Output: [][]int{{2, 2}}}}
}

func TestBuildLogicPromptIncludesCandidatesAndReasoning(t *testing.T) {
	p := BuildLogicPrompt(sampleTrain(), grid.Grid{{9}}, sampleCandidates())
	assert.Contains(t, p, "<CANDIDATE 0>")
	assert.Contains(t, p, "flip the grid")
	assert.Contains(t, p, "(Reasoning not found)")
	assert.Contains(t, p, "candidate_id")
}

func TestBuildConsistencyPromptIncludesCSVGrids(t *testing.T) {
	p := BuildConsistencyPrompt(sampleTrain(), grid.Grid{{9}}, sampleCandidates())
	assert.Contains(t, p, "<CANDIDATE id=\"0\">")
	assert.Contains(t, p, "5,6")
	assert.Contains(t, p, "final_ranking_by_candidate")
}

func TestBuildDuoPickIncludesVoteCounts(t *testing.T) {
	p := BuildDuoPick(sampleTrain(), grid.Grid{{9}}, sampleCandidates(), 5)
	assert.Contains(t, p, `votes="2/5"`)
	assert.Contains(t, p, "exactly TWO grids")
}

func TestBuildConsistencyPromptHandlesNilTestInput(t *testing.T) {
	p := BuildConsistencyPrompt(sampleTrain(), nil, sampleCandidates())
	assert.NotContains(t, p, "<TEST_INPUT>")
}
