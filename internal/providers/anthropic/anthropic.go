package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/generators"
	"github.com/praetorian-inc/arc-orchestrator/pkg/registry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

func init() {
	generators.Register("anthropic", New)
}

type Provider struct {
	apiKey     string
	baseURL    string
	apiVersion string
	client     *http.Client
}

func New(m registry.Config) (types.Generator, error) {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		return nil, err
	}
	return NewTyped(cfg), nil
}

func NewTyped(cfg Config) *Provider {
	return &Provider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

type messageRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Messages    []anthropicMsg `json:"messages"`
	Thinking    *thinkingBlock `json:"thinking,omitempty"`
}

type thinkingBlock struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []responseBlock `json:"content"`
	Usage   usageStats      `json:"usage"`
}

type responseBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usageStats struct {
	InputTokens          int `json:"input_tokens"`
	OutputTokens         int `json:"output_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) Solve(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	content, err := buildContent(prompt, opts.ImagePath)
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to prepare request content", err)
	}

	req := buildRequest(cfg, []anthropicMsg{{Role: "user", Content: content}})
	return p.call(ctx, cfg.Identifier, req)
}

// SolveBackground is unsupported: Anthropic's Messages API has no
// submit-then-poll surface, unlike OpenAI's Responses API.
func (p *Provider) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return types.ModelResponse{}, types.ErrBackgroundUnsupported
}

func (p *Provider) ContinueConversation(ctx context.Context, prev types.ModelResponse, text string, cfg types.ModelConfig) (types.ModelResponse, error) {
	priorBlocks, _ := prev.RawHandle.([]contentPart)
	if priorBlocks == nil && prev.Text != "" {
		priorBlocks = []contentPart{{Type: "text", Text: prev.Text}}
	}

	req := buildRequest(cfg, []anthropicMsg{
		{Role: "assistant", Content: priorBlocks},
		{Role: "user", Content: []contentPart{{Type: "text", Text: text}}},
	})
	return p.call(ctx, cfg.Identifier, req)
}

func buildRequest(cfg types.ModelConfig, messages []anthropicMsg) messageRequest {
	req := messageRequest{
		Model:     cfg.BaseModel,
		MaxTokens: baseMaxTokens,
		Messages:  messages,
	}

	if cfg.Reasoning.Kind == types.ReasoningBudget && cfg.Reasoning.Budget > 0 {
		budget := cfg.Reasoning.Budget
		maxTokens := budget + 4096
		if maxTokens > modelMaxTokens {
			maxTokens = modelMaxTokens
		}
		if budget > maxTokens-2048 {
			budget = maxTokens - 2048
		}
		req.Thinking = &thinkingBlock{Type: "enabled", BudgetTokens: budget}
		req.MaxTokens = maxTokens
	}

	return req
}

func (p *Provider) call(ctx context.Context, model string, req messageRequest) (types.ModelResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to marshal anthropic request", err)
	}

	url := strings.TrimSuffix(p.baseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to build anthropic request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", p.apiVersion)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return types.ModelResponse{}, classifyTransport(model, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return types.ModelResponse{}, types.NewRetryableError("failed to read anthropic response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return types.ModelResponse{}, classifyStatus(model, httpResp.StatusCode, respBody)
	}

	var resp messageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return types.ModelResponse{}, types.NewUnknownError("invalid anthropic response JSON", err)
	}

	var text strings.Builder
	var blocks []contentPart
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
			blocks = append(blocks, contentPart{Type: "text", Text: block.Text})
		}
	}

	return types.ModelResponse{
		Text:             strings.TrimSpace(text.String()),
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		CachedTokens:     resp.Usage.CacheReadInputTokens,
		ModelName:        req.Model,
		RawHandle:        blocks,
	}, nil
}

func buildContent(prompt, imagePath string) ([]contentPart, error) {
	var content []contentPart
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, err
		}
		mediaType := mime.TypeByExtension(filepath.Ext(imagePath))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		content = append(content, contentPart{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		})
	}
	content = append(content, contentPart{Type: "text", Text: prompt})
	return content, nil
}

func classifyTransport(model string, err error) error {
	return types.NewRetryableError(fmt.Sprintf("anthropic network error (%s): %v", model, err), err)
}

func classifyStatus(model string, status int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)
	msg := fmt.Sprintf("anthropic HTTP %d (%s): %s", status, errResp.Error.Type, errResp.Error.Message)

	switch {
	case status == 429 || status >= 500:
		return types.NewRetryableError(msg, nil)
	case status == 400 || status == 401 || status == 403:
		return types.NewNonRetryableError(msg, nil)
	default:
		return types.NewUnknownError(msg, nil)
	}
}
