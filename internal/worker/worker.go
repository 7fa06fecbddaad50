// Package worker runs one model call through to a verified (or failed)
// grid answer: rate limiting, retrying, cost accounting, grid
// extraction, and tri-state verification against ground truth.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/codegen"
	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// ExecutionMode selects how a model's raw text response turns into a
// grid.
type ExecutionMode string

const (
	// ModeGrid parses a grid directly out of the model's prose/CSV reply.
	ModeGrid ExecutionMode = "grid"
	// ModeCode extracts and sandbox-runs a Python solver the model wrote.
	ModeCode ExecutionMode = "code"
)

// Job is everything one worker invocation needs to produce a CallResult.
type Job struct {
	RunID          string
	Prompt         string
	ModelConfig    types.ModelConfig
	RequestedModel string // the identifier as originally requested, before any fallback rewrite
	Generator      types.Generator
	Limiter        *ratelimit.Limiter // nil disables rate limiting
	RetryConfig    retry.Config

	TestExample    types.Example
	TrainExamples  []types.Example
	Mode           ExecutionMode
	ImagePath      string
	UseBackground  bool
	ReturnStrategy bool // run the solve->explain two-stage orchestration
	LogPrefix      string
}

// explainPrompt asks the model to restate its approach in
// generalizable terms, without referencing the specific example data,
// mirroring original_source/src/llm_utils.py:orchestrate_two_stage's
// step2_input.
const explainPrompt = "Explain the strategy you used in broad terms such that it can be applied on other similar examples and other input data. Do not use any of the example or other actual data in your explanation."

// Run executes job and always returns a CallResult, never an error
// return, so a batch's fan-out never has to special-case one task's
// failure. A model-call failure yields IsCorrect == grid.TriFalse and an
// empty Grid; a sandbox or parse failure also leaves Grid empty, with
// IsCorrect set by grid.Verify (TriUnknown when the test example has no
// Output).
func Run(ctx context.Context, job Job) types.CallResult {
	prefix := job.LogPrefix
	if prefix == "" {
		prefix = "[" + job.RunID + "]"
	}

	timing := &types.TimingTracker{}
	result := types.CallResult{
		ModelRequested: job.RequestedModel,
		ModelActual:    job.ModelConfig.Identifier,
		RunID:          job.RunID,
		Prompt:         job.Prompt,
	}

	if job.Limiter != nil {
		if err := job.Limiter.Wait(ctx); err != nil {
			slog.Warn("rate limit wait aborted", "prefix", prefix, "err", err)
		}
	}

	var response types.ModelResponse
	start := time.Now()
	retryCfg := job.RetryConfig
	retryCfg.OnWait = func(attempt int, delay time.Duration) {
		timing.Record(types.TimingEvent{Type: "wait", Duration: delay})
	}
	retryCfg.RetryableFunc = func(err error) bool {
		cat := types.CategoryOf(err)
		if cat == types.CategoryUnknown {
			slog.Warn("unclassified provider error, retrying", "prefix", prefix, "err", err)
		}
		return cat != types.CategoryNonRetryable
	}

	var failures []types.FailureRecord
	err := retry.Do(ctx, retryCfg, func() error {
		attemptStart := time.Now()
		opts := types.SolveOpts{ImagePath: job.ImagePath, Timing: timing, ReturnStrategy: job.ReturnStrategy}
		var callErr error
		if job.UseBackground {
			response, callErr = job.Generator.SolveBackground(ctx, job.Prompt, job.ModelConfig, opts)
		} else {
			response, callErr = job.Generator.Solve(ctx, job.Prompt, job.ModelConfig, opts)
		}
		status := "success"
		if callErr != nil {
			status = "failed"
			cat := types.CategoryOf(callErr)
			failures = append(failures, types.FailureRecord{
				TS:           time.Now(),
				Model:        job.ModelConfig.Identifier,
				RunID:        job.RunID,
				ErrorType:    categoryLabel(cat),
				ErrorMessage: callErr.Error(),
				IsRetryable:  cat != types.CategoryNonRetryable,
			})
		}
		timing.Record(types.TimingEvent{Type: "attempt", Status: status, Duration: time.Since(attemptStart)})
		return callErr
	})
	result.Duration = time.Since(start)
	result.TimingBreakdown = timing.Snapshot()
	result.Failures = failures

	if err != nil {
		slog.Error("critical error during model call", "prefix", prefix, "model", job.ModelConfig.Identifier, "err", err)
		result.FullResponse = err.Error()
		result.IsCorrect = grid.TriFalse
		return result
	}

	if job.ReturnStrategy {
		explainResp, explainErr := job.Generator.ContinueConversation(ctx, response, explainPrompt, job.ModelConfig)
		if explainErr != nil {
			slog.Debug("strategy explain call failed, using solve response only", "prefix", prefix, "err", explainErr)
		} else {
			response.PromptTokens += explainResp.PromptTokens
			response.CompletionTokens += explainResp.CompletionTokens
			response.CachedTokens += explainResp.CachedTokens
			response.Strategy = explainResp.Text
		}
	}

	result.FullResponse = response.Text
	result.PromptTokens = response.PromptTokens
	result.OutputTokens = response.CompletionTokens
	result.CachedTokens = response.CachedTokens
	result.Strategy = response.Strategy

	// Model fallback: the provider may have silently substituted a
	// different underlying model (capacity, deprecation). Rewrite the
	// run id and actual-model fields to match what really answered.
	actualModel := job.ModelConfig.Identifier
	if response.ModelName != "" && response.ModelName != actualModel {
		slog.Info("model fallback occurred", "prefix", prefix, "requested", actualModel, "actual", response.ModelName)
		result.RunID = strings.Replace(result.RunID, actualModel, response.ModelName, 1)
		actualModel = response.ModelName
	}
	result.ModelActual = actualModel

	pricing := job.Generator.PricingFor(job.ModelConfig)
	result.Cost = types.CalculateCost(
		types.PricingTable{Base: pricing},
		result.PromptTokens, result.CachedTokens, result.OutputTokens,
	)

	var predicted grid.Grid
	if job.Mode == ModeCode {
		predictedRaw, log := codegen.Run(ctx, response.Text, job.TestExample.Input, job.TrainExamples, prefix)
		result.VerificationDetails = log
		if predictedRaw != nil {
			predicted = grid.Grid(predictedRaw)
		}
	} else {
		parsed, perr := grid.ParseFromText(response.Text)
		if perr != nil {
			slog.Debug("grid parse failed", "prefix", prefix, "err", perr)
		} else {
			predicted = parsed
		}
	}

	result.Grid = predicted
	result.IsCorrect = grid.Verify(predicted, grid.Grid(job.TestExample.Output))

	return result
}

// RunID returns a human-auditable run identifier template, e.g.
// "TASK123:test0:gpt-5.1-high:1". Extracted as its own helper since
// several call sites (worker, solver) need the same shape.
func RunID(taskID string, testIndex int, modelID string, attempt int) string {
	return fmt.Sprintf("%s:test%d:%s:%d", taskID, testIndex, modelID, attempt)
}

func categoryLabel(cat types.ErrorCategory) string {
	switch cat {
	case types.CategoryRetryable:
		return "retryable"
	case types.CategoryNonRetryable:
		return "non_retryable"
	default:
		return "unknown"
	}
}
