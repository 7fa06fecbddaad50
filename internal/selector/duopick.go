package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/praetorian-inc/arc-orchestrator/internal/promptkit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// duoPick runs the Branch A meta-conclusion judge: one call, every
// candidate it returns is matched against the known pool by grid
// equality or synthesized fresh. A non-empty reason return means the
// caller should fall through to the consensus branch; err is non-nil
// only for a transport/judge-call failure, never for "too few grids",
// which is reported via reason instead.
func duoPick(ctx context.Context, candidates *candidate.Map, pool []candidate.Candidate, reasoning *candidate.ReasoningStore, train []types.Example, testInput grid.Grid, cfg Config) ([]candidate.Candidate, []promptkit.DebugArtifact, string, error) {
	views := buildViews(candidates, pool, reasoning)
	prompt := promptkit.BuildDuoPick(train, testInput, views, cfg.TotalAttempts)

	artifacts := buildDebugArtifacts(views, cfg.DebugEncoding)

	text, err := callJudge(ctx, cfg, prompt)
	if err != nil {
		return nil, artifacts, "", fmt.Errorf("duo-pick judge call failed: %w", err)
	}

	grids, err := grid.ExtractAllBlocks(text)
	if err != nil && !errors.Is(err, grid.ErrNoGrid) {
		return nil, artifacts, "", fmt.Errorf("duo-pick grid extraction failed: %w", err)
	}

	switch {
	case len(grids) == 0:
		return nil, artifacts, "no grids parsed (none returned)", nil
	case len(grids) == 1:
		return nil, artifacts, "only 1 grid(s) found (needed 2)", nil
	}

	picked := grids[len(grids)-2:]
	nextID := len(pool)
	out := make([]candidate.Candidate, 0, 2)
	for _, g := range picked {
		out = append(out, matchOrSynthesize(pool, g, &nextID))
	}
	return out, artifacts, "", nil
}

// matchOrSynthesize reuses an existing candidate's full metadata when
// g deep-equals its grid, else fabricates a zero-vote candidate
// tagged as judge-synthesized with the next available id.
func matchOrSynthesize(pool []candidate.Candidate, g grid.Grid, nextID *int) candidate.Candidate {
	key := grid.Key(g)
	for _, c := range pool {
		if grid.Key(c.Grid) == key {
			return c
		}
	}
	c := candidate.Candidate{
		ID:        *nextID,
		Grid:      g,
		Count:     0,
		Models:    []string{"duo_pick_judge"},
		IsCorrect: grid.TriUnknown,
	}
	*nextID++
	return c
}

func buildViews(candidates *candidate.Map, pool []candidate.Candidate, reasoning *candidate.ReasoningStore) []promptkit.CandidateView {
	views := make([]promptkit.CandidateView, len(pool))
	for i, c := range pool {
		views[i] = promptkit.CandidateView{
			ID:        c.ID,
			Grid:      c.Grid,
			Models:    c.Models,
			Count:     c.Count,
			Reasoning: candidates.ReasoningFor(c, reasoning),
		}
	}
	return views
}

func buildDebugArtifacts(views []promptkit.CandidateView, encoding promptkit.DebugArtifactEncoding) []promptkit.DebugArtifact {
	if encoding == "" {
		return nil
	}
	var artifacts []promptkit.DebugArtifact
	for _, v := range views {
		for modelID, raw := range v.Reasoning {
			artifacts = append(artifacts, promptkit.EncodeDebugArtifact(modelID, raw, encoding))
		}
	}
	return artifacts
}
