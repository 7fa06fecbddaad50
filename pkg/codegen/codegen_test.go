package codegen_test

import (
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/codegen"
	"github.com/stretchr/testify/assert"
)

func TestExtractPrefersFinalSolutionMarker(t *testing.T) {
	raw := "some reasoning\n### FINAL SOLUTION ###\n```python\ndef solver(g):\n    return g\n```\ntrailing"
	code := codegen.Extract(raw)
	assert.Contains(t, code, "def solver(g):")
	assert.NotContains(t, code, "FINAL SOLUTION")
}

func TestExtractLastFencedBlockWithSolver(t *testing.T) {
	raw := "```python\ndef helper():\n    pass\n```\nmore talk\n```python\ndef solver(g):\n    return g\n```"
	code := codegen.Extract(raw)
	assert.Contains(t, code, "def solver(g):")
	assert.NotContains(t, code, "def helper")
}

func TestExtractRawFallbackSlicesFromDef(t *testing.T) {
	raw := "Here's my solution:\ndef solver(g):\n    return g\n"
	code := codegen.Extract(raw)
	assert.Equal(t, "def solver(g):\n    return g\n", code)
}

func TestExtractReturnsVerbatimWhenNoSolverFound(t *testing.T) {
	raw := "no code here at all"
	assert.Equal(t, raw, codegen.Extract(raw))
}
