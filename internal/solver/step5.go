package solver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/arc-orchestrator/internal/solveprompt"
	"github.com/praetorian-inc/arc-orchestrator/internal/worker"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// runStep5 drives the four concurrent Step 5 strategies (deep
// thinking, image, generated hint, objects pipeline) plus the codegen
// variant, ported from
// original_source/src/solver/steps.py:run_step_5. A failure or
// disabled capability in one strategy (no image renderer, a hint call
// that returns no hint) degrades that strategy to a no-op rather than
// aborting its siblings, matching "failures in one job never cancel
// others."
func (m *Machine) runStep5(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	if !m.cfg.ObjectsOnly {
		g.Go(func() error { m.runDeepThinking(gctx); return nil })

		commonImage := fmt.Sprintf("logs/%s_test%d_step_5_common.png", m.cfg.TaskID, m.cfg.TestIndex)
		rendered := m.renderCommonImage(commonImage)

		g.Go(func() error { m.runImageStrategy(gctx, commonImage, rendered); return nil })
		g.Go(func() error { m.runHintStrategy(gctx, commonImage, rendered); return nil })
	}

	g.Go(func() error { m.runObjectsPipeline(gctx, "gpt_gen", m.cfg.ObjectsGeneratorModel, m.cfg.ObjectsSolverModels); return nil })
	g.Go(func() error { m.runCodegenVariants(gctx); return nil })

	_ = g.Wait()
}

func (m *Machine) renderCommonImage(path string) bool {
	if m.cfg.ImageRenderer == nil {
		return false
	}
	if err := m.cfg.ImageRenderer.Render(m.task, path); err != nil {
		slog.Warn("step 5 image render failed, skipping image-dependent strategies", "prefix", m.cfg.LogPrefix, "err", err)
		return false
	}
	return true
}

func (m *Machine) runDeepThinking(ctx context.Context) {
	if len(m.cfg.Step5Models) == 0 {
		return
	}
	prompt := basePrompt(m.task, m.cfg.TestIndex, baseOpts{TriggerDeepThinking: true})
	jobs := m.buildJobs(m.cfg.Step5Models, prompt, worker.ModeGrid, m.cfg.UseBackground, "")
	results := m.runJobs(ctx, jobs)
	m.recordResults("step_5_deep_thinking", results, nil)
}

func (m *Machine) runImageStrategy(ctx context.Context, imagePath string, rendered bool) {
	if !rendered || len(m.cfg.Step5Models) == 0 {
		return
	}
	prompt := basePrompt(m.task, m.cfg.TestIndex, baseOpts{ImagePath: imagePath})
	jobs := m.buildJobs(m.cfg.Step5Models, prompt, worker.ModeGrid, m.cfg.UseBackground, imagePath)
	results := m.runJobs(ctx, jobs)
	m.recordResults("step_5_image", results, nil)
}

func (m *Machine) runHintStrategy(ctx context.Context, imagePath string, rendered bool) {
	if !m.cfg.HasHintModel || len(m.cfg.Step5Models) == 0 {
		return
	}
	hintImage := ""
	if rendered {
		hintImage = imagePath
	}
	hintPrompt := solveprompt.BuildHint(m.task.Train, m.task.Test[m.cfg.TestIndex], hintImage)
	job, ok := m.buildJob(m.cfg.HintModel, hintPrompt, worker.ModeGrid, hintImage)
	if !ok {
		return
	}
	hintResult := worker.Run(ctx, job)

	m.mu.Lock()
	m.usage.Add(hintResult)
	m.mu.Unlock()

	hint, found := solveprompt.ExtractTagContent(hintResult.FullResponse, "hint")
	meta := map[string]any{
		"hint_model":    m.cfg.HintModel.Identifier,
		"hint_response": hintResult.FullResponse,
		"hint_found":    found,
	}
	if !found || hint == "" {
		m.appendStepLog(types.StepLog{Step: "step_5_generate_hint", TaskID: m.cfg.TaskID, TestIndex: m.cfg.TestIndex, Metadata: meta})
		return
	}
	meta["extracted_hint"] = hint

	prompt := basePrompt(m.task, m.cfg.TestIndex, baseOpts{Strategy: hint})
	jobs := m.buildJobs(m.cfg.Step5Models, prompt, worker.ModeGrid, m.cfg.UseBackground, "")
	results := m.runJobs(ctx, jobs)
	m.recordResults("step_5_generate_hint", results, meta)
}

// runObjectsPipeline runs the three sequential sub-phases (objects
// summary -> transformation summary -> final solver fan-out),
// ported from original_source/src/solver/pipelines.py:run_objects_pipeline_variant.
func (m *Machine) runObjectsPipeline(ctx context.Context, variant string, generatorModel types.ModelConfig, solverModels []types.ModelConfig) {
	if len(solverModels) == 0 {
		return
	}
	test := m.task.Test[m.cfg.TestIndex]

	extractionPrompt := solveprompt.BuildObjectsExtraction(m.task.Train, test)
	extractJob, ok := m.buildJob(generatorModel, extractionPrompt, worker.ModeGrid, "")
	if !ok {
		return
	}
	extractResult := worker.Run(ctx, extractJob)
	m.addUsageOnly(extractResult)
	objectsSummary, found := solveprompt.ExtractTagContent(extractResult.FullResponse, "objects_summary")
	if !found || objectsSummary == "" {
		objectsSummary = extractResult.FullResponse
	}

	transformPrompt := solveprompt.BuildObjectsTransformation(m.task.Train, test, objectsSummary)
	transformJob, ok := m.buildJob(generatorModel, transformPrompt, worker.ModeGrid, "")
	if !ok {
		return
	}
	transformResult := worker.Run(ctx, transformJob)
	m.addUsageOnly(transformResult)
	transformationSummary, found := solveprompt.ExtractTagContent(transformResult.FullResponse, "transformation_summary")
	if !found || transformationSummary == "" {
		transformationSummary = transformResult.FullResponse
	}

	insertion := fmt.Sprintf("## Objects Description\n\n%s\n\n## Transformation Description\n\n%s", objectsSummary, transformationSummary)
	solvePrompt := basePrompt(m.task, m.cfg.TestIndex, baseOpts{ObjectsInsertion: insertion})
	jobs := m.buildJobs(solverModels, solvePrompt, worker.ModeGrid, m.cfg.UseBackground, "")
	results := m.runJobs(ctx, jobs)
	m.recordResults("step_5_objects_pipeline_"+variant, results, map[string]any{
		"extraction_response":     extractResult.FullResponse,
		"objects_summary":         objectsSummary,
		"transformation_response": transformResult.FullResponse,
		"transformation_summary":  transformationSummary,
	})
}

// runCodegenVariants drives every configured CodegenParam, building
// its prompt version and routing it through the sandbox-verified
// worker.ModeCode path, per spec §4.9's codegen strategy variant.
func (m *Machine) runCodegenVariants(ctx context.Context) {
	if len(m.cfg.CodegenParams) == 0 {
		return
	}
	test := m.task.Test[m.cfg.TestIndex]

	for _, param := range m.cfg.CodegenParams {
		mc, err := types.ParseModelIdentifier(param.ModelID)
		if err != nil {
			slog.Warn("codegen variant has unparseable model id, skipping", "prefix", m.cfg.LogPrefix, "model", param.ModelID, "err", err)
			continue
		}

		var prompt string
		version := solveprompt.CodegenVersion(param.PromptVersion)
		if version == solveprompt.CodegenV3 {
			prompt = m.runCodegenV3Stage1(ctx, mc)
			if prompt == "" {
				continue
			}
		} else if version == solveprompt.CodegenV4 {
			prompt = solveprompt.BuildCodegenV4(m.task.Train, m.task.Test, param.ModelID)
		} else {
			built, buildErr := solveprompt.BuildCodegen(m.task.Train, m.task.Test, version)
			if buildErr != nil {
				slog.Warn("codegen prompt build failed, skipping variant", "prefix", m.cfg.LogPrefix, "version", param.PromptVersion, "err", buildErr)
				continue
			}
			prompt = built
		}

		job, ok := m.buildJob(mc, prompt, worker.ModeCode, "")
		if !ok {
			continue
		}
		job.TestExample = test
		result := worker.Run(ctx, job)
		m.recordResults("step_5_codegen_"+param.PromptVersion, []types.CallResult{result}, map[string]any{"model": param.ModelID, "version": param.PromptVersion})
	}
}

// runCodegenV3Stage1 runs the hypothesis-enumeration call and returns
// the stage-2 (code synthesis) prompt, or "" if stage 1 failed.
func (m *Machine) runCodegenV3Stage1(ctx context.Context, mc types.ModelConfig) string {
	stage1Prompt := solveprompt.BuildCodegenV3Stage1(m.task.Train, m.task.Test)
	job, ok := m.buildJob(mc, stage1Prompt, worker.ModeGrid, "")
	if !ok {
		return ""
	}
	result := worker.Run(ctx, job)
	m.addUsageOnly(result)
	if result.FullResponse == "" {
		return ""
	}
	return solveprompt.BuildCodegenV3Stage2(m.task.Train, m.task.Test, result.FullResponse)
}

func (m *Machine) addUsageOnly(r types.CallResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage.Add(r)
}
