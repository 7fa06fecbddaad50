package solver

import (
	"context"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/internal/selector"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// finish invokes the Selector over the accumulated candidate pool and
// assembles the final Result, ported from
// original_source/src/solver/state.py:SolverState.finalize.
func (m *Machine) finish(ctx context.Context) *Result {
	selCfg := selector.Config{
		JudgeModel:        m.cfg.JudgeModel,
		Generator:         m.cfg.Generators[m.cfg.JudgeModel.Provider],
		RetryConfig:       m.cfg.Retry,
		DuoPickEnable:     m.cfg.DuoPickEnable,
		ConsistencyEnable: m.cfg.ConsistencyEnable,
		TotalAttempts:     m.cfg.TotalAttempts,
	}

	test := m.task.Test[m.cfg.TestIndex]
	picked, anyCorrect, details := selector.Pick(ctx, m.candidates, m.reasoning, m.task.Train, grid.Grid(test.Input), selCfg)
	attachReasoningSummaries(picked, m.candidates, m.reasoning)

	outcome := "SUBMITTED"
	if test.Output != nil {
		if anyCorrect {
			outcome = "PASS"
		} else {
			outcome = "FAIL"
		}
	}

	m.appendStepLog(types.StepLog{
		Step:      "step_finish",
		TaskID:    m.cfg.TaskID,
		TestIndex: m.cfg.TestIndex,
		Metadata: map[string]any{
			"branch":          details.Branch,
			"fallback_reason": details.FallbackReason,
			"picked_count":    len(picked),
			"result":          outcome,
		},
	})

	m.mu.Lock()
	failures := m.failures
	m.mu.Unlock()

	return &Result{
		Picked:          picked,
		Solved:          anyCorrect,
		Outcome:         outcome,
		Usage:           m.usage,
		StepLogs:        m.stepLogs,
		FailureLogs:     failures,
		CandidateMap:    m.candidates.Candidates(),
		SelectionDetail: details,
	}
}

// attachReasoningSummaries fills each picked candidate's
// ReasoningSummary from whatever explain-stage strategy text (or raw
// transcript, absent that) its contributing models left in the
// reasoning store, joining multiple models' summaries with "; " since
// a candidate can be a consensus of more than one model.
func attachReasoningSummaries(picked []candidate.Candidate, candidates *candidate.Map, reasoning *candidate.ReasoningStore) {
	for i, c := range picked {
		byModel := candidates.ReasoningFor(c, reasoning)
		var parts []string
		for _, model := range c.Models {
			if text, ok := byModel[model]; ok && text != "" {
				parts = append(parts, text)
			}
		}
		picked[i].ReasoningSummary = strings.Join(parts, "; ")
	}
}
