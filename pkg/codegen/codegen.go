// Package codegen extracts a Python `solver` function from raw LLM
// output and runs it through the sandbox against training examples
// before trusting it on the real test input.
package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/praetorian-inc/arc-orchestrator/pkg/sandbox"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

const (
	finalSolutionMarker = "### FINAL SOLUTION ###"
	defSolverNeedle     = "def solver"
	trainTimeout        = 10 * time.Second
	testTimeout         = 10 * time.Second
)

var fencedPythonBlock = regexp.MustCompile(`(?s)` + "```python(.*?)```")

// Extract pulls candidate solver source out of raw LLM text using the
// same four-stage search the Python extractor used: an explicit
// "### FINAL SOLUTION ###" marker, the last fenced ```python block
// containing "def solver", a line-slice from the marker section, and
// finally a line-slice over the raw response.
func Extract(llmCode string) string {
	code := llmCode

	var searchArea string
	foundInBlock := false

	if idx := strings.Index(llmCode, finalSolutionMarker); idx != -1 {
		parts := strings.Split(llmCode, finalSolutionMarker)
		searchArea = parts[len(parts)-1]
	}

	if searchArea == "" {
		blocks := fencedPythonBlock.FindAllStringSubmatch(llmCode, -1)
		for i := len(blocks) - 1; i >= 0; i-- {
			if strings.Contains(blocks[i][1], defSolverNeedle) {
				code = strings.TrimSpace(blocks[i][1])
				foundInBlock = true
				break
			}
		}
	}

	if searchArea != "" && !foundInBlock {
		if m := fencedPythonBlock.FindStringSubmatch(searchArea); m != nil {
			code = strings.TrimSpace(m[1])
		} else if strings.Contains(searchArea, defSolverNeedle) {
			if sliced, ok := sliceFromSolverDef(searchArea); ok {
				code = sliced
			}
		}
	}

	if searchArea == "" && !foundInBlock && strings.Contains(llmCode, defSolverNeedle) {
		if sliced, ok := sliceFromSolverDef(llmCode); ok {
			code = sliced
		}
	}

	return code
}

func sliceFromSolverDef(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, defSolverNeedle) {
			return strings.Join(lines[i:], "\n"), true
		}
	}
	return "", false
}

// Run extracts a solver from llmCode, verifies it against every
// training example (short-circuiting on the first failure), then
// executes it on the real test input. It returns the predicted grid
// and a verification log describing every stage; predicted is nil on
// any failure.
func Run(ctx context.Context, llmCode string, testInput [][]int, train []types.Example, logPrefix string) ([][]int, *types.VerificationLog) {
	log := &types.VerificationLog{Status: "UNKNOWN"}
	code := Extract(llmCode)

	for i, ex := range train {
		result := sandbox.Run(ctx, code, ex.Input, trainTimeout)
		entry := types.TrainVerification{
			Index:    i,
			Input:    ex.Input,
			Expected: ex.Output,
		}

		if !result.OK {
			slog.Debug("solver failed on training example", "prefix", logPrefix, "index", i, "reason", result.Reason)
			if result.Reason == sandbox.TimeoutReason {
				entry.Status = "TIMEOUT"
				entry.Error = result.Logs
			} else {
				entry.Status = "CRASH"
				entry.Error = fmt.Sprintf("%v\n%s", result.Reason, result.Logs)
			}
			log.TrainResults = append(log.TrainResults, entry)
			log.Status = "FAIL_CRASH"
			log.FailedExampleIndex = i
			return nil, log
		}

		entry.Actual = result.Output
		if !gridsEqual(result.Output, ex.Output) {
			entry.Status = "FAIL"
			log.TrainResults = append(log.TrainResults, entry)
			log.Status = "FAIL_VERIFICATION"
			log.FailedExampleIndex = i
			return nil, log
		}

		entry.Status = "PASS"
		log.TrainResults = append(log.TrainResults, entry)
	}

	log.Status = "PASS"

	result := sandbox.Run(ctx, code, testInput, testTimeout)
	if !result.OK {
		slog.Debug("solver crashed on test input", "prefix", logPrefix, "reason", result.Reason)
		log.TestRunError = fmt.Sprintf("test execution failed: %v", result.Reason)
		return nil, log
	}

	predicted, ok := asGrid(result.Output)
	if !ok {
		log.TestRunError = "result validation failed (not list of lists)"
		return nil, log
	}

	return predicted, log
}

// asGrid validates that v decodes to a (possibly empty) list of
// lists, mirroring the Python extractor's isinstance(result, list)
// and isinstance(result[0], list) checks after JSON round-tripping
// numeric types through the sandbox driver.
func asGrid(v any) ([][]int, bool) {
	outer, ok := v.([]any)
	if !ok {
		return nil, false
	}
	if len(outer) == 0 {
		return [][]int{}, true
	}
	grid := make([][]int, 0, len(outer))
	for _, row := range outer {
		rowAny, ok := row.([]any)
		if !ok {
			return nil, false
		}
		r := make([]int, 0, len(rowAny))
		for _, cell := range rowAny {
			n, ok := cell.(float64)
			if !ok {
				return nil, false
			}
			r = append(r, int(n))
		}
		grid = append(grid, r)
	}
	return grid, true
}

func gridsEqual(actual any, expected [][]int) bool {
	g, ok := asGrid(actual)
	if !ok {
		return false
	}
	if len(g) != len(expected) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(expected[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != expected[i][j] {
				return false
			}
		}
	}
	return true
}
