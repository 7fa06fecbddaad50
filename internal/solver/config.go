// Package solver implements the per-task solving state machine:
// Init -> Step1 -> Step2 -> Step3 -> Step4 -> Step5 -> Finish -> Done,
// ported from original_source/src/solver_engine.py:run_solver_mode and
// its later solver/{state,steps,pipelines}.py split.
package solver

import (
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// ImageRenderer is the seam for rendering a task's training pairs to a
// PNG for the image and generated-hint Step 5 strategies. Image
// rendering itself is out of scope; solver only needs something that
// can produce the file at path.
type ImageRenderer interface {
	Render(task types.Task, path string) error
}

// CodegenParam pairs a model identifier with the codegen prompt
// version it should be driven with, per spec §4.9's Step 5 codegen
// strategy variant.
type CodegenParam struct {
	ModelID       string
	PromptVersion string // v1 | v1b | v2 | v2b | v3 | v4
}

// Config is every knob the state machine needs for one task/test-index
// run. Fields with no code-level default (KThreshold in particular)
// must be set explicitly by the caller: the Python original hard-codes
// different constants for testing vs. production and this module
// deliberately does not bake either in.
type Config struct {
	TaskID    string
	TestIndex int
	IsTesting bool

	// Generators resolves a provider to the client that serves it.
	// Mirrors SolverState holding one openai_client/anthropic_client
	// pair constructed once per run rather than looked up by name.
	Generators map[types.Provider]types.Generator
	Limiters   *ratelimit.Registry
	Retry      retry.Config

	Step1Models []types.ModelConfig
	Step3Models []types.ModelConfig
	Step5Models []types.ModelConfig

	EnableStep3And4 bool
	ForceStep2      bool
	ForceStep5      bool
	ObjectsOnly     bool
	KThreshold      int

	UseBackground bool // OpenAI background-job mode for every eligible call

	HintModel             types.ModelConfig
	HasHintModel          bool
	ObjectsGeneratorModel types.ModelConfig
	ObjectsSolverModels   []types.ModelConfig
	ImageRenderer         ImageRenderer

	CodegenParams []CodegenParam

	JudgeModel        types.ModelConfig
	DuoPickEnable     bool
	ConsistencyEnable bool
	TotalAttempts     int

	FanoutConcurrency int // default 20, per spec §4.8

	// Watchdog is the hard per-task timeout; expiry cancels the run's
	// context and calls os.Exit(1), per spec §4.9/§5.
	Watchdog time.Duration

	LogPrefix string
}

func (c Config) fanoutConcurrency() int {
	if c.FanoutConcurrency > 0 {
		return c.FanoutConcurrency
	}
	return 20
}
