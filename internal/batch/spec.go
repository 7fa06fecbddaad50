// Package batch runs many task/test-index solves as isolated child
// processes, generalizing storbeck-augustus's in-process
// internal/harnesses/batch semaphore pool to OS-process-level
// isolation: a task whose watchdog fires must hard-exit (os.Exit)
// without taking the parent down with it.
package batch

import (
	"time"

	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// CodegenParamSpec mirrors solver.CodegenParam in a form safe to marshal
// across the parent/child boundary.
type CodegenParamSpec struct {
	ModelID       string `json:"model_id"`
	PromptVersion string `json:"prompt_version"`
}

// SolverSpec is the serializable subset of solver.Config: every knob
// that doesn't depend on a live provider client or rate limiter. A
// child process rebuilds the live pieces (Generators, Limiters) itself
// from its own process-local configuration/credentials, then merges in
// these fields to get a real solver.Config.
type SolverSpec struct {
	Step1Models []string `json:"step1_models"`
	Step3Models []string `json:"step3_models,omitempty"`
	Step5Models []string `json:"step5_models,omitempty"`

	EnableStep3And4 bool `json:"enable_step3_and4"`
	ForceStep2      bool `json:"force_step2"`
	ForceStep5      bool `json:"force_step5"`
	ObjectsOnly     bool `json:"objects_only"`
	KThreshold      int  `json:"k_threshold"`

	UseBackground bool `json:"use_background"`

	HintModel             string   `json:"hint_model,omitempty"`
	ObjectsGeneratorModel string   `json:"objects_generator_model,omitempty"`
	ObjectsSolverModels   []string `json:"objects_solver_models,omitempty"`

	CodegenParams []CodegenParamSpec `json:"codegen_params,omitempty"`

	JudgeModel        string `json:"judge_model"`
	DuoPickEnable     bool   `json:"duo_pick_enable"`
	ConsistencyEnable bool   `json:"consistency_enable"`
	TotalAttempts     int    `json:"total_attempts"`

	Watchdog time.Duration `json:"watchdog"`

	IsTesting bool `json:"is_testing"`
}

// resolveModels parses a slice of model-identifier strings, skipping
// (and letting the caller log) any that fail to parse rather than
// aborting the whole batch over one bad identifier.
func resolveModels(ids []string) ([]types.ModelConfig, []error) {
	out := make([]types.ModelConfig, 0, len(ids))
	var errs []error
	for _, id := range ids {
		mc, err := types.ParseModelIdentifier(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, mc)
	}
	return out, errs
}

// Build turns a SolverSpec plus the process-local live pieces
// (provider clients, rate limiters, retry policy, image renderer) into
// a runnable solver.Config. base supplies every field the spec doesn't
// carry (Generators and Limiters are overwritten below from the
// arguments; Retry/ImageRenderer/LogPrefix/FanoutConcurrency come from
// base as-is).
func (s SolverSpec) Build(generators map[types.Provider]types.Generator, limiters *ratelimit.Registry, base solver.Config) (solver.Config, []error) {
	var errs []error

	step1, e := resolveModels(s.Step1Models)
	errs = append(errs, e...)
	step3, e := resolveModels(s.Step3Models)
	errs = append(errs, e...)
	step5, e := resolveModels(s.Step5Models)
	errs = append(errs, e...)
	objSolvers, e := resolveModels(s.ObjectsSolverModels)
	errs = append(errs, e...)

	cfg := base
	cfg.Generators = generators
	cfg.Limiters = limiters
	cfg.Step1Models = step1
	cfg.Step3Models = step3
	cfg.Step5Models = step5
	cfg.ObjectsSolverModels = objSolvers
	cfg.EnableStep3And4 = s.EnableStep3And4
	cfg.ForceStep2 = s.ForceStep2
	cfg.ForceStep5 = s.ForceStep5
	cfg.ObjectsOnly = s.ObjectsOnly
	cfg.KThreshold = s.KThreshold
	cfg.UseBackground = s.UseBackground
	cfg.DuoPickEnable = s.DuoPickEnable
	cfg.ConsistencyEnable = s.ConsistencyEnable
	cfg.TotalAttempts = s.TotalAttempts
	cfg.Watchdog = s.Watchdog
	cfg.IsTesting = s.IsTesting

	if s.HintModel != "" {
		mc, err := types.ParseModelIdentifier(s.HintModel)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.HintModel = mc
			cfg.HasHintModel = true
		}
	}
	if s.ObjectsGeneratorModel != "" {
		mc, err := types.ParseModelIdentifier(s.ObjectsGeneratorModel)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.ObjectsGeneratorModel = mc
		}
	}
	if s.JudgeModel != "" {
		mc, err := types.ParseModelIdentifier(s.JudgeModel)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.JudgeModel = mc
		}
	}
	for _, p := range s.CodegenParams {
		cfg.CodegenParams = append(cfg.CodegenParams, solver.CodegenParam{ModelID: p.ModelID, PromptVersion: p.PromptVersion})
	}

	return cfg, errs
}
