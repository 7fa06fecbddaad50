package submission

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairForDefaultsMissingAttemptsToEmptyGrid(t *testing.T) {
	task := TaskInput{TaskID: "t1", PairIndex: 0, Attempts: []AttemptInput{{Grid: grid.Grid{{7}}}}}
	pair := pairFor(task)
	assert.Equal(t, grid.Grid{{7}}, pair.Attempt1)
	assert.Equal(t, emptyGrid, pair.Attempt2)
}

func TestRecordsForOnlyEmitsRecordsForActualAttempts(t *testing.T) {
	task := TaskInput{
		TaskID:    "t1",
		PairIndex: 0,
		Attempts: []AttemptInput{
			{Grid: grid.Grid{{1}}, Correct: true, Model: "gpt-5.1-high", Provider: "openai"},
		},
	}
	records := recordsFor(task)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Attempt)
	assert.True(t, records[0].Correct)
}

func TestComputeSummaryScoresTasksWithAnyCorrectAttempt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)
	tasks := map[string][]TaskInput{
		"solved": {{
			TaskID: "solved", PairIndex: 0,
			Attempts: []AttemptInput{{Grid: grid.Grid{{1}}, Correct: true, Cost: 1.5, Start: start, End: end}},
		}},
		"unsolved": {{
			TaskID: "unsolved", PairIndex: 0,
			Attempts: []AttemptInput{{Grid: emptyGrid, Correct: false, Cost: 0.5}},
		}},
	}

	summary := ComputeSummary(tasks)
	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, 0.5, summary.Score)
	assert.Equal(t, 2.0, summary.TotalCost)
	assert.Equal(t, 2, summary.TotalAttempts)
	assert.Equal(t, 1, summary.NumAttemptsWithEmptyList)
	assert.True(t, summary.TaskResults["solved"].Correct)
	assert.False(t, summary.TaskResults["unsolved"].Correct)
}

func TestComputeSummaryHandlesNoTasks(t *testing.T) {
	summary := ComputeSummary(map[string][]TaskInput{})
	assert.Equal(t, 0, summary.TotalTasks)
	assert.Equal(t, 0.0, summary.Score)
}

func TestWriterWritesAllThreeFilesAtomically(t *testing.T) {
	dir := t.TempDir()
	w := Writer{OutputDir: dir}

	tasks := []TaskInput{
		{
			TaskID: "task1", PairIndex: 0,
			Attempts: []AttemptInput{
				{Grid: grid.Grid{{4}}, Correct: true, Model: "gpt-5.1-high", Provider: "openai", Usage: types.UsageStats{TotalTokens: 100}, Cost: 0.2},
				{Grid: grid.Grid{{5}}, Correct: false, Model: "claude-sonnet-4-5", Provider: "anthropic", Cost: 0.3},
			},
		},
	}

	require.NoError(t, w.Write(tasks))

	for _, name := range []string{"submission.json", "task1.json", "results.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to exist", name)
	}

	var manifest map[string][]AttemptPair
	raw, err := os.ReadFile(filepath.Join(dir, "submission.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &manifest))
	require.Len(t, manifest["task1"], 1)
	assert.Equal(t, grid.Grid{{4}}, manifest["task1"][0].Attempt1)
	assert.Equal(t, grid.Grid{{5}}, manifest["task1"][0].Attempt2)

	var records []AttemptRecord
	raw, err = os.ReadFile(filepath.Join(dir, "task1.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)

	var summary ResultsSummary
	raw, err = os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 1, summary.TotalTasks)
	assert.Equal(t, 1.0, summary.Score)
}

func TestWriterLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	w := Writer{OutputDir: dir}
	require.NoError(t, w.Write([]TaskInput{{TaskID: "t", PairIndex: 0, Attempts: []AttemptInput{{Grid: emptyGrid}}}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
