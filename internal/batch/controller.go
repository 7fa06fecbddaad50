package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// defaultGlobalTimeout is the batch-wide hard deadline, ported from
// original_source/src/solver_engine.py's ~11h45m global cutoff: long
// enough for a full run, short enough to guarantee the process exits
// before an external scheduler's own kill.
const defaultGlobalTimeout = 11*time.Hour + 45*time.Minute

// TaskJob names one task/test-index pair queued for a child process.
type TaskJob struct {
	Task      types.Task
	TestIndex int
}

// Config controls the process pool.
type Config struct {
	// BinaryPath is the executable to re-invoke per job, almost always
	// os.Args[0] (the batch parent's own binary, run with ChildArgs to
	// select its solve-task subcommand mode).
	BinaryPath string
	ChildArgs  []string

	TaskWorkers   int
	GlobalTimeout time.Duration

	// LogsDirectory, when set, is passed through to every child so it
	// can write its own step logs and failure records there. RunTS is
	// the timestamp shared by the whole batch invocation, keeping every
	// child's filenames consistent with one another.
	LogsDirectory string
	RunTS         string

	Spec SolverSpec
}

func (c Config) workers() int {
	if c.TaskWorkers > 0 {
		return c.TaskWorkers
	}
	return 1
}

func (c Config) globalTimeout() time.Duration {
	if c.GlobalTimeout > 0 {
		return c.GlobalTimeout
	}
	return defaultGlobalTimeout
}

// Outcome is one job's terminal state, whether it produced a solved
// result, a reported child-side error, or was never reached because
// the global deadline elapsed first.
type Outcome struct {
	Job    TaskJob
	Resp   *TaskResponse
	Broken bool // true if the global deadline elapsed before this job ran/finished
	Err    error
}

// Run spawns one fresh child process per job (process isolation, same
// idiom as pkg/sandbox: a hung or watchdog-killed child never corrupts
// a reused process), bounded to cfg.workers() concurrent children, and
// collects every job's Outcome. When the global deadline elapses,
// in-flight children are killed by their context (SIGKILL), their
// process groups are then sent SIGTERM, and any job not yet started
// resolves to a "broken pool" Outcome instead of being silently
// dropped — already-collected outcomes are returned, not discarded.
func Run(ctx context.Context, cfg Config, jobs []TaskJob) []Outcome {
	deadlineCtx, cancel := context.WithTimeout(ctx, cfg.globalTimeout())
	defer cancel()

	sem := make(chan struct{}, cfg.workers())
	outcomes := make([]Outcome, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case <-deadlineCtx.Done():
			outcomes[i] = Outcome{Job: job, Broken: true, Err: fmt.Errorf("batch: global deadline elapsed before job started")}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, job TaskJob) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = runOne(deadlineCtx, cfg, job)
		}(i, job)
	}

	wg.Wait()
	return outcomes
}

func runOne(ctx context.Context, cfg Config, job TaskJob) Outcome {
	req := TaskRequest{
		Task:          job.Task,
		TestIndex:     job.TestIndex,
		Spec:          cfg.Spec,
		TaskWorkers:   cfg.workers(),
		LogsDirectory: cfg.LogsDirectory,
		RunTS:         cfg.RunTS,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{Job: job, Err: fmt.Errorf("batch: encode task request: %w", err)}
	}

	cmd := exec.CommandContext(ctx, cfg.BinaryPath, cfg.ChildArgs...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return Outcome{Job: job, Err: fmt.Errorf("batch: start child: %w", err)}
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		killProcessGroup(cmd)
		return Outcome{Job: job, Broken: true, Err: ctx.Err()}
	}
	if waitErr != nil {
		slog.Error("batch child exited with error", "task_id", job.Task.ID, "test_index", job.TestIndex, "err", waitErr, "stderr", stderr.String())
		return Outcome{Job: job, Err: fmt.Errorf("batch: child process failed: %w (stderr: %s)", waitErr, stderr.String())}
	}

	var resp TaskResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Outcome{Job: job, Err: fmt.Errorf("batch: decode task response: %w (stdout: %s)", err, stdout.String())}
	}
	return Outcome{Job: job, Resp: &resp}
}

// killProcessGroup SIGTERMs the process group rooted at cmd's pid so a
// child's own sandbox grandchildren are reclaimed with it.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Setpgid makes the child its own group leader, so the group id is
	// its pid; Getpgid cannot be used here because the child has
	// already been reaped by Wait.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}
