package google

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
	generators.Register("google", New)
}

type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
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
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

// SolveBackground is unsupported: the Generative Language API has no
// submit-then-poll surface comparable to OpenAI's Responses API.
func (p *Provider) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	return types.ModelResponse{}, types.ErrBackgroundUnsupported
}

type generateRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64        `json:"temperature"`
	MaxOutputTokens int            `json:"maxOutputTokens"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	IncludeThoughts bool   `json:"includeThoughts"`
	ThinkingLevel   string `json:"thinkingLevel"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content geminiContent `json:"content"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *Provider) Solve(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	part, err := buildUserPart(prompt, opts.ImagePath)
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to prepare request content", err)
	}
	history := []geminiContent{{Role: "user", Parts: part}}
	return p.call(ctx, cfg, history)
}

func (p *Provider) ContinueConversation(ctx context.Context, prev types.ModelResponse, text string, cfg types.ModelConfig) (types.ModelResponse, error) {
	priorHistory, _ := prev.RawHandle.([]geminiContent)
	history := append([]geminiContent{}, priorHistory...)
	if len(history) == 0 && prev.Text != "" {
		history = append(history, geminiContent{Role: "model", Parts: []geminiPart{{Text: prev.Text}}})
	}
	history = append(history, geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}})
	return p.call(ctx, cfg, history)
}

// thinkingLevel maps the resolved reasoning effort onto the two
// thinking levels the Gemini 3 API accepts; anything other than "low"
// defaults to "high", mirroring gemini.py's level_val computation.
func thinkingLevel(cfg types.ModelConfig) string {
	if cfg.Reasoning.Kind == types.ReasoningEffort && cfg.Reasoning.Effort == "low" {
		return "low"
	}
	return "high"
}

func (p *Provider) call(ctx context.Context, cfg types.ModelConfig, history []geminiContent) (types.ModelResponse, error) {
	reqBody := generateRequest{
		Contents: history,
		GenerationConfig: generationConfig{
			Temperature:     1.0,
			MaxOutputTokens: maxOutputTokens,
			ThinkingConfig: &thinkingConfig{
				IncludeThoughts: true,
				ThinkingLevel:   thinkingLevel(cfg),
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to marshal gemini request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimSuffix(p.baseURL, "/"), cfg.BaseModel, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.ModelResponse{}, types.NewNonRetryableError("failed to build gemini request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return types.ModelResponse{}, classifyTransport(cfg.Identifier, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return types.ModelResponse{}, types.NewRetryableError("failed to read gemini response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return types.ModelResponse{}, classifyStatus(cfg.Identifier, httpResp.StatusCode, respBody)
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return types.ModelResponse{}, types.NewUnknownError("invalid gemini response JSON", err)
	}
	if len(resp.Candidates) == 0 {
		return types.ModelResponse{}, types.NewUnknownError("gemini returned no candidates", nil)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	newHistory := append(append([]geminiContent{}, history...), resp.Candidates[0].Content)

	return types.ModelResponse{
		Text:             strings.TrimSpace(text.String()),
		PromptTokens:     resp.UsageMetadata.PromptTokenCount,
		CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		ModelName:        cfg.BaseModel,
		RawHandle:        newHistory,
	}, nil
}

func buildUserPart(prompt, imagePath string) ([]geminiPart, error) {
	var parts []geminiPart
	parts = append(parts, geminiPart{Text: prompt})
	if imagePath == "" {
		return parts, nil
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}
	parts = append(parts, geminiPart{
		InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)},
	})
	return parts, nil
}

// classifyTransport mirrors gemini.py's _should_retry string-matched
// transient-network needles for errors that never reach an HTTP status.
func classifyTransport(model string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"unavailable", "overloaded", "server disconnected", "remoteprotocolerror",
		"connection closed", "peer closed connection", "incomplete chunked read",
	} {
		if strings.Contains(msg, needle) {
			return types.NewRetryableError(fmt.Sprintf("gemini transient error (%s): %v", model, err), err)
		}
	}
	return types.NewRetryableError(fmt.Sprintf("gemini network error (%s): %v", model, err), err)
}

func classifyStatus(model string, status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := fmt.Sprintf("gemini HTTP %d (%s): %s", status, env.Error.Status, env.Error.Message)

	switch {
	case status == 429 || status >= 500:
		return types.NewRetryableError(msg, nil)
	case status == 400 || status == 401 || status == 403:
		return types.NewNonRetryableError(msg, nil)
	default:
		return types.NewUnknownError(msg, nil)
	}
}
