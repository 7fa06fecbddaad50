package replicate

import (
	"context"
	"fmt"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/generators"
	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	replicatego "github.com/replicate/replicate-go"
)

func init() {
	generators.Register("replicate", New)
}

type Provider struct {
	client *replicatego.Client
	model  string

	temperature       float32
	topP              float32
	repetitionPenalty float32
	maxTokens         int
	seed              int
}

func New(m registry.Config) (types.Generator, error) {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		return nil, err
	}
	return NewTyped(cfg)
}

func NewTyped(cfg Config) (*Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("replicate generator requires model")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("replicate generator requires api_key")
	}

	opts := []replicatego.ClientOption{replicatego.WithToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, replicatego.WithBaseURL(cfg.BaseURL))
	}

	client, err := replicatego.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("replicate: failed to create client: %w", err)
	}

	return &Provider{
		client:            client,
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		topP:              cfg.TopP,
		repetitionPenalty: cfg.RepetitionPenalty,
		maxTokens:         cfg.MaxTokens,
		seed:              cfg.Seed,
	}, nil
}

func (p *Provider) Name() string { return "replicate" }

func (p *Provider) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

// SolveBackground is unsupported: this provider uses Replicate's
// synchronous Run convenience call, not the prediction-polling surface.
func (p *Provider) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return types.ModelResponse{}, types.ErrBackgroundUnsupported
}

func (p *Provider) Solve(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return p.run(ctx, cfg, prompt)
}

func (p *Provider) ContinueConversation(ctx context.Context, prev types.ModelResponse, text string, cfg types.ModelConfig) (types.ModelResponse, error) {
	priorPrompt, _ := prev.RawHandle.(string)
	var combined strings.Builder
	if priorPrompt != "" {
		combined.WriteString(priorPrompt)
		combined.WriteString("\n")
	}
	if prev.Text != "" {
		combined.WriteString(prev.Text)
		combined.WriteString("\n")
	}
	combined.WriteString(text)
	return p.run(ctx, cfg, combined.String())
}

func (p *Provider) run(ctx context.Context, cfg types.ModelConfig, prompt string) (types.ModelResponse, error) {
	input := replicatego.PredictionInput{
		"prompt":             prompt,
		"temperature":        float64(p.temperature),
		"top_p":              float64(p.topP),
		"repetition_penalty": float64(p.repetitionPenalty),
		"seed":               p.seed,
	}
	if p.maxTokens > 0 {
		input["max_length"] = p.maxTokens
	}

	output, err := p.client.Run(ctx, p.model, input, nil)
	if err != nil {
		return types.ModelResponse{}, wrapError(cfg.Identifier, err)
	}

	return types.ModelResponse{
		Text:      extractText(output),
		ModelName: p.model,
		RawHandle: prompt,
	}, nil
}

func extractText(output replicatego.PredictionOutput) string {
	switch v := output.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var parts []string
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "")
	default:
		return fmt.Sprintf("%v", output)
	}
}

func wrapError(model string, err error) error {
	if apiErr, ok := err.(*replicatego.APIError); ok {
		msg := fmt.Sprintf("replicate API error (%s, status %d): %v", model, apiErr.Status, err)
		switch {
		case apiErr.Status == 429 || apiErr.Status >= 500:
			return types.NewRetryableError(msg, err)
		case apiErr.Status >= 400:
			return types.NewNonRetryableError(msg, err)
		default:
			return types.NewUnknownError(msg, err)
		}
	}
	return types.NewRetryableError(fmt.Sprintf("replicate transport error (%s): %v", model, err), err)
}
