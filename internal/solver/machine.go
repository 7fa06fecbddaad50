package solver

import (
	"context"
	"sync"

	"github.com/praetorian-inc/arc-orchestrator/internal/selector"
	"github.com/praetorian-inc/arc-orchestrator/internal/worker"
	"github.com/praetorian-inc/arc-orchestrator/pkg/candidate"
	"github.com/praetorian-inc/arc-orchestrator/pkg/fanout"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// State names one stop along the solver's explicit state machine.
type State int

const (
	StateInit State = iota
	StateStep1
	StateStep2
	StateStep3
	StateStep4
	StateStep5
	StateFinish
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStep1:
		return "step_1"
	case StateStep2:
		return "step_2"
	case StateStep3:
		return "step_3"
	case StateStep4:
		return "step_4"
	case StateStep5:
		return "step_5"
	case StateFinish:
		return "finish"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Result is everything Finish produces for one task/test-index run.
type Result struct {
	Picked          []candidate.Candidate
	Solved          bool
	Outcome         string // PASS | FAIL | SUBMITTED
	Usage           types.UsageStats
	StepLogs        []types.StepLog
	FailureLogs     []types.FailureRecord
	CandidateMap    []candidate.Candidate
	SelectionDetail selector.SelectionDetails
}

// Machine runs one task/test-index through Init -> ... -> Done,
// ported from original_source/src/solver_engine.py:run_solver_mode.
type Machine struct {
	cfg   Config
	task  types.Task
	state State

	runIDs     *runIDCounts
	candidates *candidate.Map
	reasoning  *candidate.ReasoningStore

	mu       sync.Mutex
	usage    types.UsageStats
	stepLogs []types.StepLog
	failures []types.FailureRecord
}

// New constructs a Machine for one task/test-index run.
func New(task types.Task, cfg Config) *Machine {
	return &Machine{
		cfg:        cfg,
		task:       task,
		state:      StateInit,
		runIDs:     newRunIDCounts(),
		candidates: candidate.NewMap(),
		reasoning:  candidate.NewReasoningStore(),
	}
}

// Run drives the state machine to completion. The caller is expected
// to have already armed the per-task watchdog (see ArmWatchdog) around
// ctx before calling Run.
func (m *Machine) Run(ctx context.Context) (*Result, error) {
	m.state = StateStep1
	for m.state != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch m.state {
		case StateStep1:
			m.runBaseStep(ctx, "step_1", m.cfg.Step1Models)
			m.state = StateStep2
		case StateStep2:
			finish, _ := m.checkSolved(ctx, "step_2", m.cfg.ForceStep2)
			if finish {
				m.state = StateFinish
			} else if m.cfg.EnableStep3And4 {
				m.state = StateStep3
			} else {
				m.state = StateStep5
			}
		case StateStep3:
			m.runBaseStep(ctx, "step_3", m.cfg.Step3Models)
			m.state = StateStep4
		case StateStep4:
			finish, _ := m.checkSolved(ctx, "step_4", false)
			if finish {
				m.state = StateFinish
			} else {
				m.state = StateStep5
			}
		case StateStep5:
			m.runStep5(ctx)
			m.state = StateFinish
		case StateFinish:
			result := m.finish(ctx)
			m.state = StateDone
			return result, nil
		}
	}
	return nil, nil
}

// runBaseStep fans the given models out over the plain base prompt
// (Step 1 and Step 3 share this shape exactly).
func (m *Machine) runBaseStep(ctx context.Context, stepName string, models []types.ModelConfig) {
	if len(models) == 0 {
		m.appendStepLog(types.StepLog{Step: stepName, TaskID: m.cfg.TaskID, TestIndex: m.cfg.TestIndex})
		return
	}
	prompt := basePrompt(m.task, m.cfg.TestIndex, baseOpts{})
	jobs := m.buildJobs(models, prompt, worker.ModeGrid, m.cfg.UseBackground, "")
	results := m.runJobs(ctx, jobs)
	m.recordResults(stepName, results, nil)
}

// checkSolved evaluates IsSolved over the candidate pool so far,
// logging the evaluation as its own step, per
// original_source/src/solver/steps.py:check_is_solved. forceFinish
// always routes to Finish regardless of the verdict.
func (m *Machine) checkSolved(_ context.Context, stepName string, forceFinish bool) (finish bool, solved bool) {
	pool := m.candidates.Candidates()
	solved = IsSolved(pool, m.cfg.KThreshold)
	m.appendStepLog(types.StepLog{
		Step:      stepName,
		TaskID:    m.cfg.TaskID,
		TestIndex: m.cfg.TestIndex,
		Metadata:  map[string]any{"is_solved": solved, "candidate_count": len(pool)},
	})
	if solved && !m.cfg.ForceStep5 {
		return true, true
	}
	if forceFinish {
		return true, solved
	}
	return false, solved
}

// runJobs fans jobs out through the shared fan-out pool and returns
// the CallResults in job order; the order in which jobs completed is
// not kept.
func (m *Machine) runJobs(ctx context.Context, jobs []worker.Job) []types.CallResult {
	if len(jobs) == 0 {
		return nil
	}
	fanJobs := make([]fanout.Job[types.CallResult], len(jobs))
	for i, j := range jobs {
		j := j
		fanJobs[i] = func(ctx context.Context) (types.CallResult, error) {
			return worker.Run(ctx, j), nil
		}
	}
	outcomes := fanout.Run(ctx, fanJobs, m.cfg.fanoutConcurrency())
	results := make([]types.CallResult, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, o.Value)
	}
	return results
}

// recordResults folds a batch of CallResults into the candidate map,
// the reasoning store, usage stats, and the step's log, mirroring
// SolverState.process_results.
func (m *Machine) recordResults(stepName string, results []types.CallResult, extraMeta map[string]any) {
	m.mu.Lock()
	for _, r := range results {
		m.usage.Add(r)
		for _, f := range r.Failures {
			f.TaskID = m.cfg.TaskID
			f.TestIndex = m.cfg.TestIndex
			f.Step = stepName
			m.failures = append(m.failures, f)
		}
	}
	m.mu.Unlock()

	for _, r := range results {
		m.candidates.Add(r)
		if r.RunID != "" {
			// The explain-stage strategy summary, when available, is a
			// concise restatement of the approach; prefer it over the
			// full solve-stage transcript for anything that later
			// reads this store (judge prompts, submission output).
			text := r.FullResponse
			if r.Strategy != "" {
				text = r.Strategy
			}
			m.reasoning.Record(r.RunID, text)
		}
	}

	m.appendStepLog(types.StepLog{
		Step:      stepName,
		TaskID:    m.cfg.TaskID,
		TestIndex: m.cfg.TestIndex,
		Results:   results,
		Metadata:  extraMeta,
	})
}

func (m *Machine) appendStepLog(log types.StepLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepLogs = append(m.stepLogs, log)
}

func (m *Machine) testExample() types.Example {
	return m.task.Test[m.cfg.TestIndex]
}

func (m *Machine) testGrid() grid.Grid {
	return grid.Grid(m.testExample().Output)
}
