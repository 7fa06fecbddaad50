package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJudgeJSONFencedBlock(t *testing.T) {
	text := "Here is my reasoning.\n```json\n{\"candidates\":[{\"candidate_id\":0,\"score\":7.5,\"tier\":\"GOLD\"}],\"final_ranking_by_candidate\":[0,1]}\n```\nDone."
	resp, ok := extractJudgeJSON(text)
	require.True(t, ok)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, 0, resp.Candidates[0].CandidateID)
	assert.Equal(t, 7.5, resp.Candidates[0].Score)
	assert.Equal(t, []int{0, 1}, resp.FinalRankingByCandidate)
}

func TestExtractJudgeJSONBraceScanFallback(t *testing.T) {
	text := `I considered several options {not json} before concluding: {"candidates": [{"candidate_id": 2, "score": 9.1}], "final_ranking_by_candidate": [2]} -- that's my answer.`
	resp, ok := extractJudgeJSON(text)
	require.True(t, ok)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, 2, resp.Candidates[0].CandidateID)
}

func TestExtractJudgeJSONNoCandidatesKeyFails(t *testing.T) {
	text := `{"ranking": [0, 1]}`
	_, ok := extractJudgeJSON(text)
	assert.False(t, ok)
}

func TestExtractJudgeJSONNoJSONAtAllFails(t *testing.T) {
	_, ok := extractJudgeJSON("just prose, no json anywhere")
	assert.False(t, ok)
}
