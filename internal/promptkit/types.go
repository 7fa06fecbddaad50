// Package promptkit builds the judge prompts used by internal/selector:
// the Logic and Consistency auditor prompts, and the duo-pick
// meta-conclusion prompt, each rendered as XML-tagged text sections the
// way the solver's upstream prompts are ported from original_source/.
package promptkit

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// CandidateView is the judge-facing projection of one candidate answer:
// its grid, the models that produced it, how many times, and each
// contributing model's raw reasoning transcript (when available).
type CandidateView struct {
	ID        int
	Grid      grid.Grid
	Models    []string
	Count     int
	Reasoning map[string]string // model id -> raw reasoning transcript
}

func modelAlias(index int) string {
	return string(rune('A' + index))
}

func reasoningFor(c CandidateView, modelID string) string {
	if r, ok := c.Reasoning[modelID]; ok && r != "" {
		return r
	}
	return "(Reasoning not found)"
}

func writeTrainExamplesDisplay(b *strings.Builder, train []types.Example) {
	for i, ex := range train {
		fmt.Fprintf(b, "<EXAMPLE_%d>\n", i+1)
		b.WriteString("<INPUT>\n")
		b.WriteString(grid.ToDisplayString(grid.Grid(ex.Input)))
		b.WriteString("\n</INPUT>\n<OUTPUT>\n")
		b.WriteString(grid.ToDisplayString(grid.Grid(ex.Output)))
		fmt.Fprintf(b, "\n</OUTPUT>\n</EXAMPLE_%d>\n", i+1)
	}
}

func writeTrainExamplesCSV(b *strings.Builder, train []types.Example, indent string) {
	for i, ex := range train {
		fmt.Fprintf(b, "%s<TRAIN_EXAMPLE index=\"%d\">\n", indent, i+1)
		fmt.Fprintf(b, "%s  <INPUT_GRID>\n", indent)
		b.WriteString(grid.ToPaddedCSVRows(grid.Grid(ex.Input), indent+"    "))
		fmt.Fprintf(b, "\n%s  </INPUT_GRID>\n%s  <OUTPUT_GRID>\n", indent, indent)
		b.WriteString(grid.ToPaddedCSVRows(grid.Grid(ex.Output), indent+"    "))
		fmt.Fprintf(b, "\n%s  </OUTPUT_GRID>\n%s</TRAIN_EXAMPLE>\n", indent, indent)
	}
}
