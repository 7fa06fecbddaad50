// Package taskio loads task files from disk, ported from
// original_source/src/tasks.py:load_task/load_task_paths, generalized
// to the three file-format shapes spec §6 names: a single task file,
// a directory of task files (one task per file, same idiom as
// storbeck-augustus/pkg/templates/loader.go:LoadFromPath), or one
// monolithic multi-task file.
package taskio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// LoadTask reads one task file, optionally merging in ground-truth
// test outputs from a separate answers file. answerPath may be empty.
func LoadTask(taskPath, answerPath string) (types.Task, error) {
	data, err := os.ReadFile(taskPath)
	if err != nil {
		return types.Task{}, fmt.Errorf("taskio: read task file %s: %w", taskPath, err)
	}
	var task types.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return types.Task{}, fmt.Errorf("taskio: parse task file %s: %w", taskPath, err)
	}
	task.ID = taskIDFromPath(taskPath)

	if answerPath != "" {
		mergeAnswersFromFile(&task, answerPath)
	}
	return task, nil
}

// LoadDir reads every task file in dir (files ending in .json, one
// task per file, id taken from the filename stem) in sorted order so
// a batch run's task ordering is deterministic across runs.
func LoadDir(dir, answerPath string) ([]types.Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("taskio: read task directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	tasks := make([]types.Task, 0, len(names))
	for _, name := range names {
		task, err := LoadTask(filepath.Join(dir, name), answerPath)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// LoadMonolithic reads one file shaped {task_id: {train, test}},
// returning every task in ascending task-id order for determinism
// (JSON object key order is not preserved by encoding/json). If
// answerPath is non-empty it's parsed as {task_id: {test: [{output}]}}
// — the per-task generalization of the single-task answers shape
// spec §6 defines — and merged in per task id.
func LoadMonolithic(path, answerPath string) ([]types.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskio: read monolithic task file %s: %w", path, err)
	}
	var raw types.MonolithicTaskFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("taskio: parse monolithic task file %s: %w", path, err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var answers map[string]types.AnswersFile
	if answerPath != "" {
		if data, err := os.ReadFile(answerPath); err == nil {
			_ = json.Unmarshal(data, &answers) // best-effort, per load_task's tolerance of a bad answers file
		}
	}

	tasks := make([]types.Task, 0, len(ids))
	for _, id := range ids {
		task := raw[id]
		task.ID = id
		if ans, ok := answers[id]; ok {
			applyAnswers(&task, ans)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func taskIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// mergeAnswersFromFile loads the answers file at answerPath and fills
// in any missing test[i].output, mirroring load_task's best-effort
// merge: a malformed or missing answers file is not itself fatal to
// loading the task, since the test outputs it would supply are
// optional anyway.
func mergeAnswersFromFile(task *types.Task, answerPath string) {
	data, err := os.ReadFile(answerPath)
	if err != nil {
		return
	}
	var ans types.AnswersFile
	if err := json.Unmarshal(data, &ans); err != nil {
		return
	}
	applyAnswers(task, ans)
}

func applyAnswers(task *types.Task, ans types.AnswersFile) {
	for i := range task.Test {
		if task.Test[i].Output != nil {
			continue
		}
		if i < len(ans.Test) {
			task.Test[i].Output = ans.Test[i].Output
		}
	}
}
