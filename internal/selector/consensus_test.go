package selector

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/stretchr/testify/assert"
)

func TestFilterForJudgesPrefersMultiVoteCandidates(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 3},
		{ID: 1, Count: 2},
		{ID: 2, Count: 1},
	}
	filtered := filterForJudges(pool)
	assert.Len(t, filtered, 2)
}

func TestFilterForJudgesFallsBackToAllWhenFewMultiVote(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 1},
		{ID: 1, Count: 1},
		{ID: 2, Count: 2},
	}
	filtered := filterForJudges(pool)
	assert.Len(t, filtered, 3)
}

func TestApplyScoresTakesMaxAcrossCalls(t *testing.T) {
	scores := map[int]float64{0: 0, 1: 0}
	applyScores(scores, `{"candidates":[{"candidate_id":0,"score":4.0},{"candidate_id":1,"score":9.0}]}`)
	applyScores(scores, `{"candidates":[{"candidate_id":0,"score":8.0},{"candidate_id":1,"score":2.0}]}`)
	assert.Equal(t, 8.0, scores[0])
	assert.Equal(t, 9.0, scores[1])
}

func TestApplyScoresIgnoresUnparsableResponse(t *testing.T) {
	scores := map[int]float64{0: 3.0}
	applyScores(scores, "the judge rambled without any JSON at all")
	assert.Equal(t, 3.0, scores[0])
}

func TestPickAttempt1PrefersHigherCountThenScore(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 3, Grid: grid.Grid{{1}}},
		{ID: 1, Count: 3, Grid: grid.Grid{{2}}},
		{ID: 2, Count: 1, Grid: grid.Grid{{3}}},
	}
	scores := map[int]float64{0: 5, 1: 8, 2: 10}
	best := pickAttempt1(pool, scores)
	assert.Equal(t, 1, best.ID)
}

func TestPickAttempt2ExcludesAttempt1(t *testing.T) {
	pool := []candidate.Candidate{
		{ID: 0, Count: 3},
		{ID: 1, Count: 1},
		{ID: 2, Count: 1},
	}
	scores := map[int]float64{0: 9, 1: 7, 2: 3}
	attempt1 := pool[0]
	attempt2 := pickAttempt2(pool, scores, attempt1)
	assert.Equal(t, 1, attempt2.ID)
}

func TestPickAttempt2FallsBackToAttempt1WhenNoOtherCandidate(t *testing.T) {
	pool := []candidate.Candidate{{ID: 0, Count: 1}}
	attempt1 := pool[0]
	attempt2 := pickAttempt2(pool, map[int]float64{0: 5}, attempt1)
	assert.Equal(t, attempt1.ID, attempt2.ID)
}
