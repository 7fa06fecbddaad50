package types

import (
	"sync"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
)

// TimingEvent is one entry in a CallResult's timing breakdown: either
// a call attempt (success/failure) or an inter-attempt retry wait.
type TimingEvent struct {
	Type     string        `json:"type"` // "attempt" | "wait"
	Status   string        `json:"status,omitempty"` // "success" | "failed", for attempts
	Duration time.Duration `json:"duration"`
}

// TimingTracker accumulates TimingEvents across one worker call's
// retry attempts. Safe for concurrent use since a single retry loop
// and its background-poll goroutine may both append.
type TimingTracker struct {
	mu     sync.Mutex
	Events []TimingEvent
}

func (t *TimingTracker) Record(e TimingEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events = append(t.Events, e)
}

func (t *TimingTracker) Snapshot() []TimingEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimingEvent, len(t.Events))
	copy(out, t.Events)
	return out
}

// VerificationLog records the codegen verifier's per-training-example
// results plus the terminal status of the overall extract-and-run.
type VerificationLog struct {
	Status             string                `json:"status"`
	TrainResults       []TrainVerification   `json:"train_results"`
	FailedExampleIndex int                   `json:"failed_example_index,omitempty"`
	TestRunError       string                `json:"test_run_error,omitempty"`
	Error              string                `json:"error,omitempty"`
	Traceback          string                `json:"traceback,omitempty"`
}

type TrainVerification struct {
	Index    int     `json:"index"`
	Status   string  `json:"status"` // PASS | FAIL | CRASH | TIMEOUT | UNKNOWN
	Input    [][]int `json:"input"`
	Expected [][]int `json:"expected"`
	Actual   any     `json:"actual,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// CallResult is the output of one Worker invocation.
type CallResult struct {
	ModelRequested      string
	ModelActual         string
	RunID               string
	Grid                grid.Grid
	IsCorrect           grid.Tri
	Cost                float64
	Duration            time.Duration
	PromptTokens        int
	OutputTokens        int
	CachedTokens        int
	TimingBreakdown     []TimingEvent
	FullResponse        string
	Prompt              string
	VerificationDetails *VerificationLog
	Strategy            string // populated when the two-stage solve->explain orchestration ran
	Failures            []FailureRecord
}
