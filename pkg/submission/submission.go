// Package submission writes a batch run's accumulated solve results to
// disk, generalizing storbeck-augustus's pkg/results/{results,jsonl}.go
// line-oriented attempt writer into the three-file shape spec §4.12
// requires: a flat submission manifest, a per-task detail file, and a
// run-wide aggregate summary.
package submission

import (
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// emptyGrid is substituted for any attempt slot that produced no
// candidate, per spec §4.12's "grids defaulted to [[0]]" rule.
var emptyGrid = grid.Grid{{0}}

// AttemptInput is one submitted grid plus the bookkeeping needed for
// the per-task detail file, supplied by the caller (batch/cmd) after a
// solver.Result has been picked apart — submission has no dependency
// on internal/solver so it stays reusable by any future solving
// strategy that produces the same shape of answer.
type AttemptInput struct {
	Grid             grid.Grid
	Correct          bool
	Model            string
	Provider         string
	Start            time.Time
	End              time.Time
	ReasoningSummary string
	Usage            types.UsageStats
	Cost             float64
}

// TaskInput is everything known about one task's one test pair by the
// time the batch run finishes it. Attempts holds one or two entries
// (Attempt1, optionally Attempt2); a shorter list is padded with an
// empty placeholder at write time.
type TaskInput struct {
	TaskID    string
	TestID    string
	PairIndex int // zero-based test index within the task
	Attempts  []AttemptInput
}

func (t TaskInput) attempt(i int) AttemptInput {
	if i < len(t.Attempts) {
		return t.Attempts[i]
	}
	return AttemptInput{Grid: emptyGrid}
}

// AttemptPair is one submission.json array element.
type AttemptPair struct {
	Attempt1 grid.Grid `json:"attempt_1"`
	Attempt2 grid.Grid `json:"attempt_2"`
}

func pairFor(t TaskInput) AttemptPair {
	a1, a2 := t.attempt(0), t.attempt(1)
	g1, g2 := a1.Grid, a2.Grid
	if g1 == nil {
		g1 = emptyGrid
	}
	if g2 == nil {
		g2 = emptyGrid
	}
	return AttemptPair{Attempt1: g1, Attempt2: g2}
}

// AttemptRecord is one element of a {task_id}.json detail file.
type AttemptRecord struct {
	TaskID           string           `json:"task_id"`
	PairIndex        int              `json:"pair_index"`
	TestID           string           `json:"test_id,omitempty"`
	Attempt          int              `json:"attempt"`
	Grid             grid.Grid        `json:"grid"`
	Correct          bool             `json:"correct"`
	Model            string           `json:"model"`
	Provider         string           `json:"provider"`
	StartTime        string           `json:"start_time"`
	EndTime          string           `json:"end_time"`
	ReasoningSummary string           `json:"reasoning_summary,omitempty"`
	Usage            types.UsageStats `json:"usage"`
	Cost             float64          `json:"cost"`
}

func recordsFor(t TaskInput) []AttemptRecord {
	out := make([]AttemptRecord, 0, 2)
	for i := 0; i < 2; i++ {
		a := t.attempt(i)
		if i >= len(t.Attempts) {
			continue // no detail record for a padded placeholder slot
		}
		out = append(out, AttemptRecord{
			TaskID:           t.TaskID,
			PairIndex:        t.PairIndex,
			TestID:           t.TestID,
			Attempt:          i + 1,
			Grid:             a.Grid,
			Correct:          a.Correct,
			Model:            a.Model,
			Provider:         a.Provider,
			StartTime:        isoOrEmpty(a.Start),
			EndTime:          isoOrEmpty(a.End),
			ReasoningSummary: a.ReasoningSummary,
			Usage:            a.Usage,
			Cost:             a.Cost,
		})
	}
	return out
}

func isoOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
