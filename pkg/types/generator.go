// Package types provides the shared data model and the Generator
// interface implemented by every LLM provider client, used across the
// worker, solver, and selector packages.
package types

import "context"

// Generator is the uniform interface every provider client
// (OpenAI, Anthropic, Google, Bedrock, Replicate, ...) implements.
// Providers self-register into a Registry[Generator] under their
// fully-qualified name (e.g. "openai.OpenAI") via blank-import init().
type Generator interface {
	// Solve issues one synchronous, single-turn call.
	Solve(ctx context.Context, prompt string, cfg ModelConfig, opts SolveOpts) (ModelResponse, error)
	// SolveBackground issues an asynchronous submit-then-poll call.
	// Providers that do not support background jobs return
	// ErrBackgroundUnsupported.
	SolveBackground(ctx context.Context, prompt string, cfg ModelConfig, opts SolveOpts) (ModelResponse, error)
	// ContinueConversation issues a second-turn follow-up that reuses
	// prev's opaque RawHandle as provider-side continuation state.
	ContinueConversation(ctx context.Context, prev ModelResponse, text string, cfg ModelConfig) (ModelResponse, error)
	// PricingFor returns the pricing table applicable to cfg.
	PricingFor(cfg ModelConfig) ModelPricing
	// Name returns the fully qualified provider name (e.g. "openai.OpenAI").
	Name() string
}

// SolveOpts carries per-call options that are orthogonal to the model
// identifier: optional image attachment, whether to run the two-stage
// solve->explain orchestration, and a timing tracker for observability.
type SolveOpts struct {
	ImagePath      string
	ReturnStrategy bool
	Timing         *TimingTracker
}
