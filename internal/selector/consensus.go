package selector

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/arc-orchestrator/internal/promptkit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// consensus runs Branch B: a required Logic judge and an optional
// Consistency judge in parallel, merges their per-candidate scores by
// taking the max, and ranks by (count, score). A judge that errors
// contributes a score of 0 to every candidate rather than aborting
// the branch, so a single judge outage degrades to pure vote-count
// consensus instead of failing the task.
func consensus(ctx context.Context, candidates *candidate.Map, pool []candidate.Candidate, reasoning *candidate.ReasoningStore, train []types.Example, testInput grid.Grid, cfg Config) ([]candidate.Candidate, SelectionDetails) {
	judgePool := filterForJudges(pool)
	views := make([]promptkit.CandidateView, len(judgePool))
	for i, c := range judgePool {
		views[i] = promptkit.CandidateView{
			ID:        c.ID,
			Grid:      c.Grid,
			Models:    c.Models,
			Count:     c.Count,
			Reasoning: candidates.ReasoningFor(c, reasoning),
		}
	}

	scores := make(map[int]float64, len(judgePool))
	for _, c := range judgePool {
		scores[c.ID] = 0
	}

	var logicText, consistencyText string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prompt := promptkit.BuildLogicPrompt(train, testInput, views)
		text, err := callJudge(gctx, cfg, prompt)
		if err != nil {
			slog.Error("logic judge call failed", "err", err)
			return nil
		}
		logicText = text
		applyScores(scores, text)
		return nil
	})
	if cfg.ConsistencyEnable {
		g.Go(func() error {
			prompt := promptkit.BuildConsistencyPrompt(train, testInput, views)
			text, err := callJudge(gctx, cfg, prompt)
			if err != nil {
				slog.Error("consistency judge call failed", "err", err)
				return nil
			}
			consistencyText = text
			applyScores(scores, text)
			return nil
		})
	}
	_ = g.Wait() // judge goroutines never return a non-nil error; failures degrade scores instead

	attempt1 := pickAttempt1(judgePool, scores)
	attempt2 := pickAttempt2(judgePool, scores, attempt1)

	picked := []candidate.Candidate{attempt1}
	if attempt2.ID != attempt1.ID {
		picked = append(picked, attempt2)
	} else {
		picked = append(picked, attempt1)
	}

	return picked, SelectionDetails{
		LogicResponse:       logicText,
		ConsistencyResponse: consistencyText,
		Scores:              scores,
	}
}

// filterForJudges restricts the judge pool to candidates with at
// least two votes when two or more such candidates exist; otherwise
// every candidate is shown to the judges.
func filterForJudges(pool []candidate.Candidate) []candidate.Candidate {
	var multi []candidate.Candidate
	for _, c := range pool {
		if c.Count >= 2 {
			multi = append(multi, c)
		}
	}
	if len(multi) >= 2 {
		return multi
	}
	return pool
}

func applyScores(scores map[int]float64, responseText string) {
	parsed, ok := extractJudgeJSON(responseText)
	if !ok {
		return
	}
	for _, c := range parsed.Candidates {
		if current, tracked := scores[c.CandidateID]; !tracked || c.Score > current {
			scores[c.CandidateID] = c.Score
		}
	}
}

func pickAttempt1(pool []candidate.Candidate, scores map[int]float64) candidate.Candidate {
	best := pool[0]
	bestScore := scores[best.ID]
	for _, c := range pool[1:] {
		s := scores[c.ID]
		if c.Count > best.Count || (c.Count == best.Count && s > bestScore) {
			best = c
			bestScore = s
		}
	}
	return best
}

func pickAttempt2(pool []candidate.Candidate, scores map[int]float64, attempt1 candidate.Candidate) candidate.Candidate {
	var best *candidate.Candidate
	bestScore := -1.0
	for i := range pool {
		c := pool[i]
		if c.ID == attempt1.ID {
			continue
		}
		s := scores[c.ID]
		if best == nil || s > bestScore {
			picked := c
			best = &picked
			bestScore = s
		}
	}
	if best == nil {
		return attempt1
	}
	return *best
}
