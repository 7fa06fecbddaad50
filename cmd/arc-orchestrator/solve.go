package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/internal/batch"
	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/internal/taskio"
	"github.com/praetorian-inc/arc-orchestrator/pkg/config"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/logging"
	"github.com/praetorian-inc/arc-orchestrator/pkg/submission"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// SolveCmd runs a batch of ARC tasks to completion, writing submission
// files under --submissions-directory. Every job is executed in a
// freshly spawned solve-task child process (internal/batch), never
// in-process, so a watchdog-killed or crashed task never corrupts a
// sibling's run.
type SolveCmd struct {
	// Task source: exactly one of these three selects what gets solved.
	Task          string `help:"Path to a monolithic multi-task JSON file ({task_id: {train, test}})." xor:"task-source"`
	TaskDirectory string `help:"Directory of single-task JSON files, one task per file." name:"task-directory" type:"existingdir" xor:"task-source"`
	TaskFile      string `help:"Path to a single-task JSON file ({train, test})." name:"task-file" type:"existingfile" xor:"task-source"`

	Test int `help:"1-based test case index. Ignored (all test cases run) when --task-directory is used." default:"1"`

	ConfigFile string `help:"YAML config file (provider credentials, solver defaults)." name:"config" type:"existingfile"`

	TaskWorkers int `help:"Parallel task workers. 0 uses the config value." name:"task-workers" default:"0"`

	Step5Only       bool `help:"Always go on to Step 5 (Full Search): Step 1 still runs, but no earlier check ends the run." name:"step-5-only"`
	ObjectsOnly     bool `help:"Run only the Objects Pipeline sub-strategy within Step 5." name:"objects-only"`
	ForceStep5      bool `help:"Run Step 5 even if an earlier step already solved the task." name:"force-step-5"`
	ForceStep2      bool `help:"Stop after Step 2 regardless of outcome." name:"force-step-2"`
	EnableStep3And4 bool `help:"Enable the Step 3/Step 4 transformation-hypothesis pipeline." name:"enable-step-3-and-4"`

	JudgeModel             string `help:"Model identifier for the judge (duo-pick/consistency) passes." name:"judge-model"`
	JudgeConsistencyEnable bool   `help:"Enable the judge consistency check." name:"judge-consistency-enable"`
	JudgeDuoPick           bool   `help:"Enable judge-synthesized duo-pick candidates." name:"judge-duo-pick"`

	Step1Models   string `help:"Comma-separated Step 1 model identifiers." name:"step1-models"`
	CodegenParams string `help:"Comma-separated model_id:prompt_version pairs for Step 5 codegen." name:"codegen-params"`

	OpenAIBackground bool `help:"Use OpenAI's Responses API background-job mode for eligible calls." name:"openai-background"`

	Solver        bool `help:"Production model roster." xor:"mode"`
	SolverTesting bool `help:"Smaller testing model roster (lower k-threshold)." name:"solver-testing" xor:"mode"`

	Verbose bool `help:"Verbose (debug-level) logging." short:"v"`

	LogsDirectory        string `help:"Directory for per-task step logs and the failures log." name:"logs-directory"`
	SubmissionsDirectory string `help:"Directory for submission.json/{task_id}.json/results.json." name:"submissions-directory"`
	AnswersDirectory     string `help:"Directory of ground-truth answer files (optional)." name:"answers-directory"`

	KThreshold int `help:"Candidate vote threshold for early-exit after Step 1." name:"k-threshold"`
}

func (s *SolveCmd) Validate() error {
	n := 0
	for _, v := range []string{s.Task, s.TaskDirectory, s.TaskFile} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of --task, --task-directory, or --task-file is required")
	}
	return nil
}

func (s *SolveCmd) Run() error {
	level := slog.LevelInfo
	if s.Verbose {
		level = slog.LevelDebug
	}
	logging.Configure(level, "text", os.Stderr)

	cfg, err := s.buildConfig()
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("solve: invalid configuration: %w", err)
	}

	tasks, err := s.loadTasks(cfg)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("solve: no tasks to run")
	}

	binaryPath, err := os.Executable()
	if err != nil {
		binaryPath = os.Args[0]
	}
	childArgs := []string{"solve-task"}
	if s.ConfigFile != "" {
		childArgs = append(childArgs, "--config", s.ConfigFile)
	}

	batchCfg, err := cfg.ToBatchConfig(binaryPath, childArgs)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	batchCfg.RunTS = time.Now().UTC().Format("2006-01-02_15-04-05")

	jobs := buildJobs(tasks, s.Test, s.TaskDirectory != "")
	slog.Info("solve: starting batch", "tasks", len(tasks), "jobs", len(jobs), "task_workers", batchCfg.TaskWorkers)

	outcomes := batch.Run(context.Background(), batchCfg, jobs)

	inputs := collectResults(outcomes)

	outDir := cfg.Run.SubmissionsDirectory
	if outDir == "" {
		outDir = "submissions"
	}
	w := submission.Writer{OutputDir: outDir}
	if err := w.Write(inputs); err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	return nil
}

// buildConfig loads --config (if given, without validating: CLI flags
// are still expected to fill in required fields), then merges a
// second Config built from every solve flag on top, so CLI flags win
// over the file. ARC_* environment variables are not layered in here;
// only ${VAR} references inside the file are expanded.
func (s *SolveCmd) buildConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if s.ConfigFile != "" {
		fileCfg, err := config.LoadConfigFile(s.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	cfg.Merge(s.overlay())
	return cfg, nil
}

func (s *SolveCmd) overlay() *config.Config {
	overlay := &config.Config{
		Run: config.RunConfig{
			TaskWorkers:          s.TaskWorkers,
			LogsDirectory:        s.LogsDirectory,
			SubmissionsDirectory: s.SubmissionsDirectory,
			AnswersDirectory:     s.AnswersDirectory,
			Verbose:              s.Verbose,
		},
		Solver: config.SolverConfig{
			EnableStep3And4:   s.EnableStep3And4,
			ForceStep2:        s.ForceStep2,
			ForceStep5:        s.ForceStep5 || s.Step5Only,
			ObjectsOnly:       s.ObjectsOnly,
			KThreshold:        s.KThreshold,
			UseBackground:     s.OpenAIBackground,
			JudgeModel:        s.JudgeModel,
			DuoPickEnable:     s.JudgeDuoPick,
			ConsistencyEnable: s.JudgeConsistencyEnable,
			IsTesting:         s.SolverTesting,
		},
	}
	if s.Step1Models != "" {
		overlay.Solver.Step1Models = splitComma(s.Step1Models)
	}
	if s.CodegenParams != "" {
		for _, pair := range splitComma(s.CodegenParams) {
			parts := strings.SplitN(pair, ":", 2)
			cp := config.CodegenParamConfig{ModelID: parts[0]}
			if len(parts) == 2 {
				cp.PromptVersion = parts[1]
			}
			overlay.Solver.CodegenParams = append(overlay.Solver.CodegenParams, cp)
		}
	}
	return overlay
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *SolveCmd) loadTasks(cfg *config.Config) ([]types.Task, error) {
	switch {
	case s.TaskFile != "":
		task, err := taskio.LoadTask(s.TaskFile, cfg.Run.AnswersDirectory)
		if err != nil {
			return nil, err
		}
		return []types.Task{task}, nil
	case s.TaskDirectory != "":
		return taskio.LoadDir(s.TaskDirectory, cfg.Run.AnswersDirectory)
	default:
		return taskio.LoadMonolithic(s.Task, cfg.Run.AnswersDirectory)
	}
}

// buildJobs expands tasks into TaskJobs. Directory mode runs every
// test case of every task (the per-task --test index is meaningless
// once a batch of distinct tasks is in play); single/monolithic mode
// runs exactly the one requested (1-based) test index for every task
// in the set.
func buildJobs(tasks []types.Task, test int, allTests bool) []batch.TaskJob {
	var jobs []batch.TaskJob
	for _, task := range tasks {
		if allTests {
			for i := range task.Test {
				jobs = append(jobs, batch.TaskJob{Task: task, TestIndex: i})
			}
			continue
		}
		idx := test - 1
		if idx < 0 {
			idx = 0
		}
		jobs = append(jobs, batch.TaskJob{Task: task, TestIndex: idx})
	}
	return jobs
}

func collectResults(outcomes []batch.Outcome) []submission.TaskInput {
	inputs := make([]submission.TaskInput, 0, len(outcomes))
	for _, o := range outcomes {
		in := submission.TaskInput{
			TaskID:    o.Job.Task.ID,
			PairIndex: o.Job.TestIndex,
		}
		switch {
		case o.Broken:
			slog.Error("solve: job never ran, global deadline elapsed", "task_id", o.Job.Task.ID, "test_index", o.Job.TestIndex)
		case o.Err != nil:
			slog.Error("solve: job failed", "task_id", o.Job.Task.ID, "test_index", o.Job.TestIndex, "err", o.Err)
		case o.Resp != nil && o.Resp.Error != "":
			slog.Error("solve: task reported an error", "task_id", o.Job.Task.ID, "test_index", o.Job.TestIndex, "err", o.Resp.Error)
		case o.Resp != nil && o.Resp.Result != nil:
			in.Attempts = attemptsFor(*o.Resp.Result)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// attemptsFor converts the solver's picked candidates into submission
// attempts. Usage and cost cover the whole task run, not one attempt,
// so both are halved and applied identically to every attempt slot,
// matching original_source/src/submission.py's halve() treatment of
// metadata_template_1/2.
func attemptsFor(result solver.Result) []submission.AttemptInput {
	usage := halveUsage(result.Usage)
	attempts := make([]submission.AttemptInput, 0, len(result.Picked))
	for _, c := range result.Picked {
		attempts = append(attempts, submission.AttemptInput{
			Grid:             c.Grid,
			Correct:          c.IsCorrect == grid.TriTrue,
			Model:            strings.Join(c.Models, "+"),
			Provider:         providerFor(c.Models),
			ReasoningSummary: c.ReasoningSummary,
			Usage:            usage,
			Cost:             usage.TotalCost,
		})
	}
	return attempts
}

func halveUsage(u types.UsageStats) types.UsageStats {
	return types.UsageStats{
		PromptTokens:     u.PromptTokens / 2,
		CompletionTokens: u.CompletionTokens / 2,
		TotalTokens:      u.TotalTokens / 2,
		PromptCost:       u.PromptCost / 2,
		CompletionCost:   u.CompletionCost / 2,
		TotalCost:        u.TotalCost / 2,
		TotalDuration:    u.TotalDuration,
	}
}

func providerFor(models []string) string {
	if len(models) == 0 {
		return ""
	}
	mc, err := types.ParseModelIdentifier(models[0])
	if err != nil {
		return ""
	}
	return string(mc.Provider)
}
