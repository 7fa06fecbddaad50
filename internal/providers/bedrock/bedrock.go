package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/praetorian-inc/arc-orchestrator/pkg/generators"
	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

func init() {
	generators.Register("bedrock", New)
}

// turn is a single conversation message, family-agnostic; ContinueConversation
// threads these through RawHandle so the family-specific request builders
// can re-render them for Claude, Titan, or Llama wire formats.
type turn struct {
	Role    string
	Content string
}

type Provider struct {
	client      *bedrockruntime.Client
	modelID     string
	region      string
	maxTokens   int
	temperature float64
	topP        float64
}

func New(m registry.Config) (types.Generator, error) {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		return nil, err
	}
	return NewTyped(cfg)
}

func NewTyped(cfg Config) (*Provider, error) {
	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}

	var opts []func(*bedrockruntime.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Provider{
		client:      bedrockruntime.NewFromConfig(awsCfg, opts...),
		modelID:     cfg.ModelID,
		region:      cfg.Region,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}, nil
}

func (p *Provider) Name() string { return "bedrock" }

func (p *Provider) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

// SolveBackground is unsupported: Bedrock's InvokeModel API is
// synchronous only, with no submit-then-poll surface.
func (p *Provider) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return types.ModelResponse{}, types.ErrBackgroundUnsupported
}

func (p *Provider) Solve(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return p.call(ctx, cfg, []turn{{Role: "user", Content: prompt}})
}

func (p *Provider) ContinueConversation(ctx context.Context, prev types.ModelResponse, text string, cfg types.ModelConfig) (types.ModelResponse, error) {
	priorTurns, _ := prev.RawHandle.([]turn)
	history := append([]turn{}, priorTurns...)
	if len(history) == 0 && prev.Text != "" {
		history = append(history, turn{Role: "assistant", Content: prev.Text})
	}
	history = append(history, turn{Role: "user", Content: text})
	return p.call(ctx, cfg, history)
}

func (p *Provider) call(ctx context.Context, cfg types.ModelConfig, history []turn) (types.ModelResponse, error) {
	var requestBody []byte
	var err error

	switch {
	case strings.HasPrefix(p.modelID, "anthropic.claude"):
		requestBody, err = p.buildClaudeRequest(history)
	case strings.HasPrefix(p.modelID, "amazon.titan"):
		requestBody, err = p.buildTitanRequest(history)
	case strings.HasPrefix(p.modelID, "meta.llama"):
		requestBody, err = p.buildLlamaRequest(history)
	default:
		return types.ModelResponse{}, types.NewNonRetryableError(fmt.Sprintf("bedrock: unsupported model family: %s", p.modelID), nil)
	}
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("bedrock: failed to build request", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		Body:        requestBody,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return types.ModelResponse{}, classifyError(cfg.Identifier, err)
	}

	var text string
	var promptTokens, completionTokens int
	switch {
	case strings.HasPrefix(p.modelID, "anthropic.claude"):
		text, promptTokens, completionTokens, err = p.parseClaudeResponse(output.Body)
	case strings.HasPrefix(p.modelID, "amazon.titan"):
		text, err = p.parseTitanResponse(output.Body)
	case strings.HasPrefix(p.modelID, "meta.llama"):
		text, err = p.parseLlamaResponse(output.Body)
	}
	if err != nil {
		return types.ModelResponse{}, types.NewUnknownError("bedrock: failed to parse response", err)
	}

	newHistory := append(append([]turn{}, history...), turn{Role: "assistant", Content: text})

	return types.ModelResponse{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		ModelName:        p.modelID,
		RawHandle:        newHistory,
	}, nil
}

func (p *Provider) buildClaudeRequest(history []turn) ([]byte, error) {
	messages := make([]map[string]string, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": t.Content})
	}

	req := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        p.maxTokens,
		"messages":          messages,
		"temperature":       p.temperature,
	}
	if p.topP > 0 {
		req["top_p"] = p.topP
	}
	return json.Marshal(req)
}

func (p *Provider) parseClaudeResponse(body []byte) (string, int, int, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, 0, err
	}
	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return text.String(), resp.Usage.InputTokens, resp.Usage.OutputTokens, nil
}

func (p *Provider) buildTitanRequest(history []turn) ([]byte, error) {
	var prompt strings.Builder
	for _, t := range history {
		if t.Role == "assistant" {
			prompt.WriteString("Assistant: " + t.Content + "\n")
		} else {
			prompt.WriteString("User: " + t.Content + "\n")
		}
	}
	prompt.WriteString("Assistant:")

	textGenConfig := map[string]any{
		"maxTokenCount": p.maxTokens,
		"temperature":   p.temperature,
	}
	if p.topP > 0 {
		textGenConfig["topP"] = p.topP
	}
	req := map[string]any{
		"inputText":            prompt.String(),
		"textGenerationConfig": textGenConfig,
	}
	return json.Marshal(req)
}

func (p *Provider) parseTitanResponse(body []byte) (string, error) {
	var resp struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("no results in titan response")
	}
	return resp.Results[0].OutputText, nil
}

func (p *Provider) buildLlamaRequest(history []turn) ([]byte, error) {
	var prompt strings.Builder
	prompt.WriteString("<s>[INST] ")
	for i, t := range history {
		if i > 0 && t.Role == "user" {
			prompt.WriteString("<s>[INST] ")
		}
		if t.Role == "assistant" {
			prompt.WriteString(fmt.Sprintf(" [/INST] %s </s>", t.Content))
		} else {
			prompt.WriteString(t.Content)
		}
	}
	prompt.WriteString(" [/INST]")

	req := map[string]any{
		"prompt":      prompt.String(),
		"max_gen_len": p.maxTokens,
		"temperature": p.temperature,
	}
	if p.topP > 0 {
		req["top_p"] = p.topP
	}
	return json.Marshal(req)
}

func (p *Provider) parseLlamaResponse(body []byte) (string, error) {
	var resp struct {
		Generation string `json:"generation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.Generation, nil
}

func classifyError(model string, err error) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "ThrottlingException"), strings.Contains(msg, "TooManyRequestsException"):
		return types.NewRetryableError(fmt.Sprintf("bedrock rate limit (%s): %s", model, msg), err)
	case strings.Contains(msg, "ServiceUnavailableException"), strings.Contains(msg, "InternalServerException"):
		return types.NewRetryableError(fmt.Sprintf("bedrock service error (%s): %s", model, msg), err)
	case strings.Contains(msg, "AccessDeniedException"), strings.Contains(msg, "UnauthorizedException"):
		return types.NewNonRetryableError(fmt.Sprintf("bedrock auth error (%s): %s", model, msg), err)
	case strings.Contains(msg, "ValidationException"):
		return types.NewNonRetryableError(fmt.Sprintf("bedrock invalid request (%s): %s", model, msg), err)
	default:
		return types.NewUnknownError(fmt.Sprintf("bedrock API error (%s): %s", model, msg), err)
	}
}
