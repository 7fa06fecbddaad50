package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/praetorian-inc/arc-orchestrator/internal/batch"
	providerOpenAI "github.com/praetorian-inc/arc-orchestrator/internal/providers/openai"
	"github.com/praetorian-inc/arc-orchestrator/internal/render"
	"github.com/praetorian-inc/arc-orchestrator/internal/solver"
	"github.com/praetorian-inc/arc-orchestrator/pkg/config"
	"github.com/praetorian-inc/arc-orchestrator/pkg/generators"
	"github.com/praetorian-inc/arc-orchestrator/pkg/logging"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// defaultRateLimits mirrors original_source/src/config.py's
// PROVIDER_RATE_LIMITS: 15 requests/60s for every provider absent an
// explicit override in the config file.
var defaultRateLimits = map[string]ratelimit.Defaults{
	string(types.ProviderOpenAI):    {MaxTokens: 15, RefillRate: 15.0 / 60},
	string(types.ProviderAnthropic): {MaxTokens: 15, RefillRate: 15.0 / 60},
	string(types.ProviderGoogle):    {MaxTokens: 15, RefillRate: 15.0 / 60},
}

// SolveTaskCmd is the internal child-process mode: read one
// TaskRequest from stdin, solve it, write one TaskResponse to stdout.
// Spawned once per job by SolveCmd's process pool (internal/batch),
// never invoked directly by a user.
type SolveTaskCmd struct {
	ConfigFile string `help:"YAML config file (provider credentials)." name:"config" type:"existingfile"`
}

func (c *SolveTaskCmd) Run() error {
	logging.Configure(slog.LevelInfo, "text", os.Stderr)

	var cfg config.Config
	if c.ConfigFile != "" {
		loaded, err := config.LoadConfigFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("solve-task: %w", err)
		}
		cfg = *loaded
	}

	build := func(spec batch.SolverSpec) (map[types.Provider]types.Generator, *ratelimit.Registry, solver.Config, error) {
		gens, err := buildGenerators(cfg.Providers)
		if err != nil {
			return nil, nil, solver.Config{}, err
		}
		limiters := ratelimit.NewRegistry(rateLimitsFor(cfg.Providers))
		base := solver.Config{
			Retry:         retry.DefaultFixedConfig(),
			ImageRenderer: render.Renderer{},
			LogPrefix:     "solve-task",
		}
		return gens, limiters, base, nil
	}

	return batch.RunChild(context.Background(), os.Stdin, os.Stdout, build)
}

// buildGenerators constructs a provider client for every credential
// present in the config. Only the providers the model-identifier
// grammar can actually select (openai, anthropic, google) are wired
// here; bedrock and replicate clients exist in internal/providers and
// self-register into the same registry, but no model identifier ever
// resolves to those two providers, so a solve-task process never needs
// them.
func buildGenerators(providers map[string]config.ProviderConfig) (map[types.Provider]types.Generator, error) {
	out := make(map[types.Provider]types.Generator)
	for _, name := range []string{string(types.ProviderOpenAI), string(types.ProviderAnthropic), string(types.ProviderGoogle)} {
		pc, ok := providers[name]
		if !ok || pc.APIKey == "" {
			continue
		}
		cfgMap := registry.Config{"api_key": pc.APIKey}
		if pc.BaseURL != "" {
			cfgMap["base_url"] = pc.BaseURL
		}
		gen, err := generators.Create(name, cfgMap)
		if err != nil {
			return nil, fmt.Errorf("solve-task: build %s client: %w", name, err)
		}
		out[types.Provider(name)] = gen
	}

	if openaiGen, ok := out[types.ProviderOpenAI].(*providerOpenAI.Provider); ok {
		if anthropicGen, ok := out[types.ProviderAnthropic]; ok {
			out[types.ProviderOpenAI] = openaiGen.WithFallback(anthropicGen)
		}
	}

	return out, nil
}

func rateLimitsFor(providers map[string]config.ProviderConfig) map[string]ratelimit.Defaults {
	out := make(map[string]ratelimit.Defaults, len(defaultRateLimits))
	for name, d := range defaultRateLimits {
		out[name] = d
	}
	for name, pc := range providers {
		if pc.RateLimit <= 0 {
			continue
		}
		out[name] = ratelimit.Defaults{MaxTokens: pc.RateLimit, RefillRate: pc.RateLimit / 60}
	}
	return out
}
