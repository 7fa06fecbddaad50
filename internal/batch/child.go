package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/praetorian-inc/arc-orchestrator/internal/runlog"
	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// TaskRequest is one unit of work sent to a child process over stdin.
type TaskRequest struct {
	Task      types.Task `json:"task"`
	TestIndex int        `json:"test_index"`
	Spec      SolverSpec `json:"spec"`
	// TaskWorkers is the parent's configured concurrency, carried along
	// so the child can scale its own rate limiter buckets down by
	// 1/TaskWorkers: every sibling child shares the same per-provider
	// rate limit budget, so each one's share must shrink accordingly.
	TaskWorkers int `json:"task_workers"`

	// LogsDirectory, when non-empty, tells the child to persist its
	// step logs and failure records under this directory once its run
	// finishes. RunTS is shared by every task in the batch.
	LogsDirectory string `json:"logs_directory,omitempty"`
	RunTS         string `json:"run_ts,omitempty"`
}

// TaskResponse is one child process's stdout reply.
type TaskResponse struct {
	TestIndex int            `json:"test_index"`
	Result    *solver.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ConfigBuilder resolves process-local, non-serializable pieces
// (provider clients, rate limiters) for a child invocation. Supplied
// by cmd's solve-task subcommand, which owns API key/config loading.
type ConfigBuilder func(spec SolverSpec) (generators map[types.Provider]types.Generator, limiters *ratelimit.Registry, base solver.Config, err error)

// RunChild reads exactly one TaskRequest from r, runs it through the
// solver, and writes exactly one TaskResponse to w. It never returns a
// non-nil error for a solve failure — those are reported inside the
// TaskResponse's Error field so the parent can record a per-task
// failure without losing the rest of the batch; RunChild only errors
// on malformed request/response I/O itself.
func RunChild(ctx context.Context, r io.Reader, w io.Writer, build ConfigBuilder) error {
	var req TaskRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("batch: decode task request: %w", err)
	}

	resp := TaskResponse{TestIndex: req.TestIndex}

	generators, limiters, base, err := build(req.Spec)
	if err != nil {
		resp.Error = err.Error()
		return writeResponse(w, resp)
	}
	if limiters != nil && req.TaskWorkers > 1 {
		limiters.ScaleAll(1.0 / float64(req.TaskWorkers))
	}

	cfg, buildErrs := req.Spec.Build(generators, limiters, base)
	cfg.TaskID = req.Task.ID
	cfg.TestIndex = req.TestIndex
	if len(buildErrs) > 0 {
		resp.Error = fmt.Sprintf("%d model identifiers failed to resolve: %v", len(buildErrs), buildErrs[0])
	}

	wdCtx, disarm := solver.ArmWatchdog(ctx, req.Task.ID, cfg.Watchdog)
	defer disarm()

	result, runErr := solver.New(req.Task, cfg).Run(wdCtx)
	if runErr != nil {
		resp.Error = runErr.Error()
		return writeResponse(w, resp)
	}
	resp.Result = result

	if req.LogsDirectory != "" {
		writer := runlog.Writer{Dir: req.LogsDirectory, RunTS: req.RunTS}
		if err := writer.WriteStepLogs(result.StepLogs); err != nil {
			slog.Error("failed to write step logs", "task_id", req.Task.ID, "test_index", req.TestIndex, "err", err)
		}
		if err := writer.AppendFailures(result.FailureLogs); err != nil {
			slog.Error("failed to append failure log", "task_id", req.Task.ID, "test_index", req.TestIndex, "err", err)
		}
	}

	return writeResponse(w, resp)
}

func writeResponse(w io.Writer, resp TaskResponse) error {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("batch: encode task response: %w", err)
	}
	return nil
}
