// Package selector picks the final one or two submitted grids from a
// task's candidate pool: a duo-pick judge that reaches its own
// conclusion informed by every candidate, falling back to a consensus
// vote cross-checked by one or two auditor judges.
package selector

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/arc-orchestrator/internal/promptkit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// Config controls which branches run and which judge model answers them.
type Config struct {
	JudgeModel        types.ModelConfig
	Generator         types.Generator
	RetryConfig       retry.Config
	DuoPickEnable     bool
	ConsistencyEnable bool
	// DebugEncoding, if non-empty, attaches a dense-text encoded copy
	// of every candidate's raw reasoning transcript to the duo-pick
	// branch's SelectionDetails for audit/replay tooling.
	DebugEncoding promptkit.DebugArtifactEncoding
	// TotalAttempts is the total model calls made across all Step5
	// strategies, shown to the judge for vote-weight context.
	TotalAttempts int
}

// SelectionDetails records which branch produced the final picks and
// enough of the judges' raw work to reconstruct or audit the decision
// after the fact.
type SelectionDetails struct {
	Branch              string // "duo_pick" | "consensus"
	FallbackReason      string
	LogicResponse       string
	ConsistencyResponse string
	Scores              map[int]float64
	DebugArtifacts      []promptkit.DebugArtifact
}

// Pick selects the final one or two candidates for one task's test
// example. It always returns at least one candidate when the pool is
// non-empty; an empty pool returns no picks and solved=false.
func Pick(ctx context.Context, candidates *candidate.Map, reasoning *candidate.ReasoningStore, train []types.Example, testInput grid.Grid, cfg Config) ([]candidate.Candidate, bool, SelectionDetails) {
	pool := candidates.Candidates()
	if len(pool) == 0 {
		return nil, false, SelectionDetails{}
	}

	if cfg.DuoPickEnable {
		picked, artifacts, reason, err := duoPick(ctx, candidates, pool, reasoning, train, testInput, cfg)
		if err == nil && reason == "" {
			return picked, anyCorrect(picked), SelectionDetails{
				Branch:         "duo_pick",
				DebugArtifacts: artifacts,
			}
		}
		if err != nil {
			reason = err.Error()
		}
		slog.Warn("duo-pick judge unavailable, falling back to consensus", "reason", reason)

		picked, details := consensus(ctx, candidates, pool, reasoning, train, testInput, cfg)
		details.Branch = "consensus"
		details.FallbackReason = reason
		return picked, anyCorrect(picked), details
	}

	picked, details := consensus(ctx, candidates, pool, reasoning, train, testInput, cfg)
	details.Branch = "consensus"
	return picked, anyCorrect(picked), details
}

func anyCorrect(picked []candidate.Candidate) bool {
	for _, c := range picked {
		if c.IsCorrect == grid.TriTrue {
			return true
		}
	}
	return false
}
