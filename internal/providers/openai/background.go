package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// backgroundPollHorizon is how long SolveBackground waits for a queued
// job before giving up or falling back, per
// original_source/src/providers/openai_background.py's
// max_wait_time = 3600 (60 minutes).
const backgroundPollHorizon = 60 * time.Minute

const pollIntervalBase = 2 * time.Second

type responsesCreateRequest struct {
	Model           string              `json:"model"`
	Input           []responsesMessage  `json:"input"`
	Background      bool                `json:"background"`
	Store           bool                `json:"store"`
	MaxOutputTokens int                 `json:"max_output_tokens"`
	Reasoning       *responsesReasoning `json:"reasoning,omitempty"`
}

type responsesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesReasoning struct {
	Effort string `json:"effort"`
}

type responsesJob struct {
	ID                string                      `json:"id"`
	Status            string                      `json:"status"`
	Error             *responsesError             `json:"error"`
	Usage             *responsesUsage             `json:"usage"`
	Output            []responsesItem             `json:"output"`
	IncompleteDetails *responsesIncompleteDetails `json:"incomplete_details"`
}

type responsesIncompleteDetails struct {
	Reason string `json:"reason"`
}

type responsesError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type responsesItem struct {
	Type    string                 `json:"type"`
	Content []responsesContentPart `json:"content"`
}

type responsesContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SolveBackground submits a Responses API job with background:true
// and polls it to completion. The go-openai SDK pinned in this module
// does not expose the background-response surface, so this talks to
// the endpoint directly with net/http, matching the directness of the
// original client.responses.create/retrieve calls.
func (p *Provider) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	reqBody := responsesCreateRequest{
		Model:           cfg.BaseModel,
		Input:           []responsesMessage{{Role: "user", Content: prompt}},
		Background:      true,
		Store:           true,
		MaxOutputTokens: 120000,
	}
	if cfg.Reasoning.Kind == types.ReasoningEffort && cfg.Reasoning.Effort != "none" && cfg.Reasoning.Effort != "" {
		reqBody.Reasoning = &responsesReasoning{Effort: cfg.Reasoning.Effort}
	}

	job, err := p.submitResponsesJob(ctx, reqBody)
	if err != nil {
		return p.maybeFallback(ctx, prompt, cfg, opts, err)
	}

	deadline := time.Now().Add(backgroundPollHorizon)
	for {
		if time.Now().After(deadline) {
			err := types.NewRetryableError(fmt.Sprintf("openai background job %s timed out after %s", job.ID, backgroundPollHorizon), nil)
			return p.maybeFallback(ctx, prompt, cfg, opts, err)
		}

		job, err = p.retrieveResponsesJob(ctx, job.ID)
		if err != nil {
			return p.maybeFallback(ctx, prompt, cfg, opts, err)
		}

		switch job.Status {
		case "queued", "in_progress":
			sleepFor := pollIntervalBase + time.Duration(rand.Int63n(int64(time.Second)))
			select {
			case <-ctx.Done():
				return types.ModelResponse{}, ctx.Err()
			case <-time.After(sleepFor):
			}
			continue

		case "completed":
			return types.ModelResponse{
				Text:             extractResponsesText(job),
				PromptTokens:     usageField(job, func(u responsesUsage) int { return u.InputTokens }),
				CompletionTokens: usageField(job, func(u responsesUsage) int { return u.OutputTokens }),
				ModelName:        cfg.Identifier,
			}, nil

		case "failed":
			msg := "unknown error"
			if job.Error != nil {
				msg = fmt.Sprintf("code=%s message=%s", job.Error.Code, job.Error.Message)
			}
			err := types.NewRetryableError(fmt.Sprintf("openai background job %s failed: %s", job.ID, msg), nil)
			if job.Error == nil || job.Error.Code != "server_error" {
				return types.ModelResponse{}, err
			}
			return p.maybeFallback(ctx, prompt, cfg, opts, err)

		case "cancelled", "incomplete":
			reason := ""
			if job.IncompleteDetails != nil {
				reason = job.IncompleteDetails.Reason
			}
			err := types.NewNonRetryableError(fmt.Sprintf("openai background job %s ended with status=%s reason=%s", job.ID, job.Status, reason), nil)
			if !strings.Contains(reason, "max_output_tokens") && !strings.Contains(reason, "token_limit") {
				return types.ModelResponse{}, err
			}
			return p.maybeFallback(ctx, prompt, cfg, opts, err)

		default:
			return types.ModelResponse{}, types.NewUnknownError(fmt.Sprintf("openai background job %s ended in unexpected status=%s", job.ID, job.Status), nil)
		}
	}
}

// eligibleForFallback mirrors original_source/src/providers/
// openai_background.py's strict gate: only reasoning_effort "xhigh" or
// "low" models ever fall back to Claude Opus.
func eligibleForFallback(cfg types.ModelConfig) bool {
	return cfg.Reasoning.Kind == types.ReasoningEffort && (cfg.Reasoning.Effort == "xhigh" || cfg.Reasoning.Effort == "low")
}

// maybeFallback hands off to the configured fallback generator (Claude
// Opus, per the original) when a background job exhausts its horizon
// or hits a fatal platform error, gated on eligibleForFallback. On a
// successful fallback call, the fallback's response is returned (not
// discarded) with ModelName rewritten to identify the model that
// actually produced the answer; with no eligible fallback configured,
// or on a failed fallback attempt, the original error is returned.
func (p *Provider) maybeFallback(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts, err error) (types.ModelResponse, error) {
	if p.fallback == nil || !eligibleForFallback(cfg) {
		return types.ModelResponse{}, err
	}

	thinking := cfg.Reasoning.Effort == "xhigh"
	suffix := "no-thinking"
	fallbackReasoning := types.Reasoning{Kind: types.ReasoningNone}
	if thinking {
		suffix = "thinking-60000"
		fallbackReasoning = types.Reasoning{Kind: types.ReasoningBudget, Budget: 60000}
	}
	modelName := fmt.Sprintf("claude-opus-4.5-%s", suffix)

	slog.Warn("openai background job failed, falling back to claude", "model", cfg.Identifier, "fallback_model", modelName, "err", err)

	fallbackCfg := types.ModelConfig{
		Provider:   types.ProviderAnthropic,
		BaseModel:  types.BaseClaudeOpus,
		Reasoning:  fallbackReasoning,
		Identifier: modelName,
	}
	resp, fbErr := p.fallback.Solve(ctx, prompt, fallbackCfg, opts)
	if fbErr != nil {
		return types.ModelResponse{}, err
	}
	resp.ModelName = modelName
	return resp, nil
}

func usageField(job *responsesJob, get func(responsesUsage) int) int {
	if job.Usage == nil {
		return 0
	}
	return get(*job.Usage)
}

func extractResponsesText(job *responsesJob) string {
	var out string
	for _, item := range job.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				out += part.Text
			}
		}
	}
	return out
}

func (p *Provider) submitResponsesJob(ctx context.Context, body responsesCreateRequest) (*responsesJob, error) {
	return p.doResponsesRequest(ctx, http.MethodPost, "/responses", body)
}

func (p *Provider) retrieveResponsesJob(ctx context.Context, id string) (*responsesJob, error) {
	return p.doResponsesRequest(ctx, http.MethodGet, "/responses/"+id, nil)
}

func (p *Provider) doResponsesRequest(ctx context.Context, method, path string, body any) (*responsesJob, error) {
	base := p.baseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, types.NewNonRetryableError("encoding responses request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return nil, types.NewNonRetryableError("building responses request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, types.NewRetryableError("responses API transport error", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewRetryableError("reading responses API body", err)
	}

	if resp.StatusCode == 429 || resp.StatusCode >= 500 {
		return nil, types.NewRetryableError(fmt.Sprintf("responses API status %d: %s", resp.StatusCode, string(respBody)), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, types.NewNonRetryableError(fmt.Sprintf("responses API status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var job responsesJob
	if err := json.Unmarshal(respBody, &job); err != nil {
		return nil, types.NewUnknownError("invalid responses API JSON", err)
	}
	return &job, nil
}
