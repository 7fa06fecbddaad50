package types

import "time"

// StepLog is the per-step JSON record persisted after each solver
// step: every CallResult the step produced plus any step-specific
// metadata (a judge's raw prompt/response/parsed scores, an objects-
// pipeline extraction/transformation pair, a generated hint).
type StepLog struct {
	Step      string         `json:"step"`
	TaskID    string         `json:"task_id"`
	TestIndex int            `json:"test_index"`
	Results   []CallResult   `json:"results"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FailureRecord is one JSONL line appended at the moment a step-level
// or task-level failure occurs, independent of the StepLog it may
// also show up in.
type FailureRecord struct {
	TS           time.Time `json:"ts"`
	TaskID       string    `json:"task_id"`
	TestIndex    int       `json:"test_index"`
	Step         string    `json:"step"`
	Model        string    `json:"model"`
	RunID        string    `json:"run_id"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	Stack        string    `json:"stack,omitempty"`
	IsRetryable  bool      `json:"is_retryable"`
}

// UsageStats accumulates token and cost totals across every call in a
// task run, split into prompt/completion buckets the way the pricing
// table distinguishes cached vs. non-cached input.
type UsageStats struct {
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	PromptCost       float64       `json:"prompt_cost"`
	CompletionCost   float64       `json:"completion_cost"`
	TotalCost        float64       `json:"total_cost"`
	TotalDuration    time.Duration `json:"total_duration"`
}

// Add folds one CallResult's token and cost accounting into the
// running totals.
func (u *UsageStats) Add(r CallResult) {
	u.PromptTokens += r.PromptTokens + r.CachedTokens
	u.CompletionTokens += r.OutputTokens
	u.TotalTokens += r.PromptTokens + r.CachedTokens + r.OutputTokens
	u.TotalCost += r.Cost
}
