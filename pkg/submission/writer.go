package submission

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Writer persists a batch run's results under OutputDir.
type Writer struct {
	OutputDir string
}

// Write groups tasks by task id, then writes one {task_id}.json detail
// file per task, then submission.json, then results.json. Every file is written atomically (temp file in the same
// directory, fsync, rename) so a crash mid-write never leaves behind a
// corrupt or half-written file for a downstream reader to trip over —
// the teacher's pkg/results/jsonl.go writes directly with os.Create,
// which this deliberately upgrades per spec §4.12 (no atomic-file
// library appears anywhere in the example pack; this is three stdlib
// calls, not worth a dependency).
func (w Writer) Write(tasks []TaskInput) error {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return fmt.Errorf("submission: create output dir: %w", err)
	}

	grouped := groupByTask(tasks)

	manifest := make(map[string][]AttemptPair, len(grouped))
	for taskID, pairs := range grouped {
		sorted := sortedByPairIndex(pairs)
		out := make([]AttemptPair, len(sorted))
		for i, t := range sorted {
			out[i] = pairFor(t)
		}
		manifest[taskID] = out

		records := make([]AttemptRecord, 0, len(sorted)*2)
		for _, t := range sorted {
			records = append(records, recordsFor(t)...)
		}
		if err := writeAtomicJSON(filepath.Join(w.OutputDir, taskID+".json"), records); err != nil {
			return fmt.Errorf("submission: write task detail file for %q: %w", taskID, err)
		}
	}

	if err := writeAtomicJSON(filepath.Join(w.OutputDir, "submission.json"), manifest); err != nil {
		return fmt.Errorf("submission: write submission.json: %w", err)
	}

	summary := ComputeSummary(grouped)
	if err := writeAtomicJSON(filepath.Join(w.OutputDir, "results.json"), summary); err != nil {
		return fmt.Errorf("submission: write results.json: %w", err)
	}

	return nil
}

func groupByTask(tasks []TaskInput) map[string][]TaskInput {
	grouped := make(map[string][]TaskInput)
	for _, t := range tasks {
		grouped[t.TaskID] = append(grouped[t.TaskID], t)
	}
	return grouped
}

func sortedByPairIndex(tasks []TaskInput) []TaskInput {
	out := make([]TaskInput, len(tasks))
	copy(out, tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].PairIndex < out[j].PairIndex })
	return out
}

// writeAtomicJSON marshals v and installs it at path by writing to a
// sibling temp file, fsyncing, then renaming over the destination —
// renames within one directory are atomic on the filesystems this
// module targets (ext4, xfs, apfs), so a reader never observes a
// partially written file.
func writeAtomicJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}
