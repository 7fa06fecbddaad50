// Package sandbox runs untrusted solver code submitted by an LLM in an
// isolated child process, with a hard wall-clock timeout and
// JSON-over-stdio transport.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// TimeoutReason is the failure string returned when the sandbox misses
// its deadline; callers match on this to distinguish a timeout from a
// crash.
const TimeoutReason = "TIMEOUT_EXPIRED"

// Result is the outcome of one sandbox invocation.
type Result struct {
	OK     bool
	Output any    // nested []interface{}/float64/... on success
	Reason string // failure reason or "TIMEOUT_EXPIRED" when !OK
	Logs   string // captured stderr
}

type payload struct {
	Code  string `json:"code"`
	Input any    `json:"input"`
}

type driverResponse struct {
	OK        bool   `json:"ok"`
	Output    any    `json:"output"`
	Error     string `json:"error"`
	Traceback string `json:"traceback"`
}

// pythonExecutable is overridable in tests.
var pythonExecutable = "python3"

// Run executes code's `solver(input_grid)` against input inside a
// freshly spawned, process-group-isolated child, with a hard timeout.
// The temp file is removed on every return path; on timeout the
// child's process group is killed as well.
func Run(ctx context.Context, code string, input any, timeout time.Duration) Result {
	driverPath, err := writeDriverTempFile()
	if err != nil {
		return Result{OK: false, Reason: "System Error in Sandbox: " + err.Error()}
	}
	defer os.Remove(driverPath)

	body, err := json.Marshal(payload{Code: code, Input: input})
	if err != nil {
		return Result{OK: false, Reason: "System Error in Sandbox: " + err.Error()}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, pythonExecutable, "-u", driverPath)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	err = cmd.Start()
	if err != nil {
		return Result{OK: false, Reason: "System Error in Sandbox: " + err.Error()}
	}

	waitErr := cmd.Wait()

	if runCtx.Err() == context.DeadlineExceeded {
		killProcessGroup(cmd)
		return Result{OK: false, Reason: TimeoutReason, Logs: "Execution timed out after " + timeout.String()}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return Result{OK: false, Reason: "Subprocess crashed", Logs: stderr.String()}
		}
		return Result{OK: false, Reason: "System Error in Sandbox: " + waitErr.Error(), Logs: stderr.String()}
	}

	if stdout.Len() == 0 {
		return Result{OK: false, Reason: "Empty output from subprocess", Logs: stderr.String()}
	}

	var resp driverResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Result{OK: false, Reason: "Invalid JSON output from subprocess", Logs: "Stdout: " + stdout.String() + "\nStderr: " + stderr.String()}
	}

	if resp.OK {
		return Result{OK: true, Output: resp.Output, Logs: stderr.String()}
	}
	reason := resp.Error
	if reason == "" {
		reason = "Unknown error"
	}
	logs := resp.Traceback
	if logs == "" {
		logs = stderr.String()
	}
	return Result{OK: false, Reason: reason, Logs: logs}
}

func writeDriverTempFile() (string, error) {
	f, err := os.CreateTemp("", "arc-sandbox-*.py")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(driverSource); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// killProcessGroup sends SIGKILL to the entire process group rooted at
// cmd's pid, guaranteeing sandboxed forks/threads die with it.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Setpgid makes the child its own group leader, so the group id is
	// its pid; Getpgid would fail here because Wait has already reaped
	// the child.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
