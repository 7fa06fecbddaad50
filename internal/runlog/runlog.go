// Package runlog persists one task run's step logs and failure
// records to disk, the on-disk half of what internal/solver only
// accumulates in memory.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// Writer writes under Dir, every file named with the RunTS shared by
// every task in one batch invocation so a sibling child process's
// output never collides with another's: step log filenames are
// already unique per task id/test index/step, and the failures file
// is one shared append target for the whole run.
type Writer struct {
	Dir   string
	RunTS string
}

// WriteStepLogs writes one JSON file per StepLog, named
// {run_ts}_{task_id}_{test_index}_{step}.json per the step-log naming
// scheme. A no-op when Dir is empty (logging disabled).
func (w Writer) WriteStepLogs(logs []types.StepLog) error {
	if w.Dir == "" || len(logs) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("runlog: create logs dir: %w", err)
	}
	for _, log := range logs {
		name := fmt.Sprintf("%s_%s_%d_%s.json", w.RunTS, log.TaskID, log.TestIndex, log.Step)
		data, err := json.MarshalIndent(log, "", "  ")
		if err != nil {
			return fmt.Errorf("runlog: encode step log %q: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(w.Dir, name), data, 0o644); err != nil {
			return fmt.Errorf("runlog: write step log %q: %w", name, err)
		}
	}
	return nil
}

// AppendFailures appends each record as one JSONL line to
// {run_ts}_failures.jsonl. The file is opened O_APPEND so every
// sibling child process spawned by the same batch run can append
// concurrently without coordinating: a single write() of one
// line-length JSON record is atomic on the POSIX filesystems this
// module targets, which is all an append-only log needs — no
// interprocess file-lock library appears anywhere in the example
// pack, and the stdlib syscall already guarantees what one is for
// here.
func (w Writer) AppendFailures(records []types.FailureRecord) error {
	if w.Dir == "" || len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("runlog: create logs dir: %w", err)
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_failures.jsonl", w.RunTS))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlog: open failures log: %w", err)
	}
	defer f.Close()

	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("runlog: encode failure record: %w", err)
		}
		line = append(line, '\n')
		if _, err := f.Write(line); err != nil {
			return fmt.Errorf("runlog: append failure record: %w", err)
		}
	}
	return nil
}
