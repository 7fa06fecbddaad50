package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/retry"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// judgeResponse is the shared JSON shape returned by both the Logic
// and Consistency judges: per-candidate scores plus a final ranking.
type judgeResponse struct {
	Candidates           []judgeCandidateScore `json:"candidates"`
	FinalRankingByCandidate []int              `json:"final_ranking_by_candidate"`
}

type judgeCandidateScore struct {
	CandidateID int     `json:"candidate_id"`
	Score       float64 `json:"score"`
	Tier        string  `json:"tier,omitempty"`
	RuleSummary string  `json:"rule_summary,omitempty"`
}

// callJudge issues one Solve call against the configured judge model,
// retrying per cfg.RetryConfig, and returns the raw response text.
func callJudge(ctx context.Context, cfg Config, prompt string) (string, error) {
	if cfg.Generator == nil {
		return "", fmt.Errorf("selector: no judge generator configured for provider %q", cfg.JudgeModel.Provider)
	}
	var resp types.ModelResponse
	err := retry.Do(ctx, cfg.RetryConfig, func() error {
		var callErr error
		resp, callErr = cfg.Generator.Solve(ctx, prompt, cfg.JudgeModel, types.SolveOpts{})
		return callErr
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJudgeJSON parses a judge's free-form response into a
// judgeResponse: a markdown-fenced JSON block containing a
// "candidates" key is tried first; failing that, every '{' in the
// text is a candidate starting point for a streaming decode that
// stops at the first complete, well-formed JSON value (mirroring a
// raw_decode scan, since trailing prose after the closing brace is
// never itself valid JSON and so never confuses the decoder).
func extractJudgeJSON(text string) (judgeResponse, bool) {
	for _, m := range fencedJSONBlock.FindAllStringSubmatch(text, -1) {
		if r, ok := decodeJudgeResponse(m[1]); ok {
			return r, true
		}
	}
	for i, c := range text {
		if c != '{' {
			continue
		}
		if r, ok := decodeJudgeResponse(text[i:]); ok {
			return r, true
		}
	}
	return judgeResponse{}, false
}

func decodeJudgeResponse(s string) (judgeResponse, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return judgeResponse{}, false
	}
	candidatesRaw, ok := raw["candidates"]
	if !ok {
		return judgeResponse{}, false
	}

	var out judgeResponse
	if err := json.Unmarshal(candidatesRaw, &out.Candidates); err != nil {
		return judgeResponse{}, false
	}
	if rankingRaw, ok := raw["final_ranking_by_candidate"]; ok {
		_ = json.Unmarshal(rankingRaw, &out.FinalRankingByCandidate)
	}
	return out, true
}
