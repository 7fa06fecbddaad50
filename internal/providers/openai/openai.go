package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/arc-orchestrator/pkg/generators"
	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	generators.Register("openai", New)
}

// Provider implements types.Generator against OpenAI's chat completions
// API for synchronous calls and the Responses API for background jobs.
type Provider struct {
	client   *goopenai.Client
	apiKey   string
	baseURL  string
	fallback types.Generator // optional: Claude Opus fallback for exhausted background jobs
}

// New builds a Provider from a registry.Config map.
func New(m registry.Config) (types.Generator, error) {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		return nil, err
	}
	return NewTyped(cfg), nil
}

func NewTyped(cfg Config) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client:  goopenai.NewClientWithConfig(clientCfg),
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
	}
}

// WithFallback sets the generator called when a background job runs
// out its full polling horizon or hits a fatal platform error, mirroring
// original_source/src/providers/openai_background.py's fallback to
// Claude Opus.
func (p *Provider) WithFallback(g types.Generator) *Provider {
	p.fallback = g
	return p
}

// HasFallback reports whether a fallback generator has been wired in.
func (p *Provider) HasFallback() bool {
	return p.fallback != nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

func (p *Provider) Solve(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	messages, err := buildMessages(prompt, opts.ImagePath)
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to prepare request content", err)
	}

	req := goopenai.ChatCompletionRequest{
		Model:    cfg.BaseModel,
		Messages: messages,
	}
	if cfg.Reasoning.Kind == types.ReasoningEffort && cfg.Reasoning.Effort != "" {
		req.ReasoningEffort = cfg.Reasoning.Effort
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return types.ModelResponse{}, classify(cfg.Identifier, err)
	}
	if len(resp.Choices) == 0 {
		return types.ModelResponse{}, types.NewUnknownError("openai returned no choices", nil)
	}

	return types.ModelResponse{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CachedTokens:     cachedTokens(resp.Usage),
		ModelName:        resp.Model,
		RawHandle:        resp,
	}, nil
}

func (p *Provider) ContinueConversation(ctx context.Context, prev types.ModelResponse, text string, cfg types.ModelConfig) (types.ModelResponse, error) {
	prior, ok := prev.RawHandle.(goopenai.ChatCompletionResponse)
	messages := []goopenai.ChatCompletionMessage{}
	if ok && len(prior.Choices) > 0 {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleAssistant,
			Content: prior.Choices[0].Message.Content,
		})
	} else if prev.Text != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleAssistant,
			Content: prev.Text,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: text,
	})

	req := goopenai.ChatCompletionRequest{Model: cfg.BaseModel, Messages: messages}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return types.ModelResponse{}, classify(cfg.Identifier, err)
	}
	if len(resp.Choices) == 0 {
		return types.ModelResponse{}, types.NewUnknownError("openai returned no choices", nil)
	}
	return types.ModelResponse{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CachedTokens:     cachedTokens(resp.Usage),
		ModelName:        resp.Model,
		RawHandle:        resp,
	}, nil
}

func cachedTokens(u goopenai.Usage) int {
	if u.PromptTokensDetails != nil {
		return u.PromptTokensDetails.CachedTokens
	}
	return 0
}

func buildMessages(prompt, imagePath string) ([]goopenai.ChatCompletionMessage, error) {
	if imagePath == "" {
		return []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		}, nil
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", imagePath, err)
	}
	mime := mimeForExt(filepath.Ext(imagePath))
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))

	return []goopenai.ChatCompletionMessage{
		{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL}},
			},
		},
	}, nil
}

func mimeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
