// Package testutil provides shared test doubles for the solver pipeline's
// internal packages.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// MockGenerator implements types.Generator for testing. It returns
// pre-configured responses and tracks how many times each method was
// called, stepping through Responses/Errs so a test can script a
// failure followed by a success.
type MockGenerator struct {
	mu sync.Mutex

	// Responses are returned in order; the last entry repeats once
	// exhausted.
	Responses []types.ModelResponse
	// Errs are consulted in parallel with Responses; a non-nil entry
	// at index i makes call i return that error instead.
	Errs []error

	SupportsBackground bool

	SolveCalls    int
	BackgroundCalls int
	ContinueCalls int

	GenName string
}

func NewMockGenerator(responses ...types.ModelResponse) *MockGenerator {
	return &MockGenerator{Responses: responses, GenName: "mock-generator"}
}

func (m *MockGenerator) next(n int) (types.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if n < len(m.Errs) {
		err = m.Errs[n]
	}
	if err != nil {
		return types.ModelResponse{}, err
	}
	if len(m.Responses) == 0 {
		return types.ModelResponse{}, errors.New("mock generator: no responses configured")
	}
	idx := n
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

func (m *MockGenerator) Solve(_ context.Context, _ string, _ types.ModelConfig, _ types.SolveOpts) (types.ModelResponse, error) {
	m.mu.Lock()
	n := m.SolveCalls
	m.SolveCalls++
	m.mu.Unlock()
	return m.next(n)
}

func (m *MockGenerator) SolveBackground(ctx context.Context, prompt string, cfg types.ModelConfig, opts types.SolveOpts) (types.ModelResponse, error) {
	if !m.SupportsBackground {
		return types.ModelResponse{}, types.ErrBackgroundUnsupported
	}
	m.mu.Lock()
	n := m.BackgroundCalls
	m.BackgroundCalls++
	m.mu.Unlock()
	return m.next(n)
}

func (m *MockGenerator) ContinueConversation(_ context.Context, _ types.ModelResponse, _ string, _ types.ModelConfig) (types.ModelResponse, error) {
	m.mu.Lock()
	n := m.ContinueCalls
	m.ContinueCalls++
	m.mu.Unlock()
	return m.next(n)
}

func (m *MockGenerator) PricingFor(cfg types.ModelConfig) types.ModelPricing {
	return types.DefaultPricing[cfg.BaseModel].Base
}

func (m *MockGenerator) Name() string {
	if m.GenName == "" {
		return "mock-generator"
	}
	return m.GenName
}
