package promptkit

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

const duoPickSystemRole = `<SYSTEM_ROLE>
You are the Meta-Conclusion Judge for an ARC reasoning task.

Many independent models have already attempted this task. You have
their candidate grids, how many times each was produced, and (where
available) the reasoning transcript behind each one. Your job is not to
solve the task from scratch, but to reach your OWN final conclusion
about the two most likely correct answers, informed by everything the
candidates got right or wrong.
</SYSTEM_ROLE>`

const duoPickInstructions = `<INSTRUCTIONS>
1. Study the solved training examples until you are confident you
   understand the transformation rule.
2. Review every candidate below: its proposed output grid, how many of
   the %d total attempts produced it, and its reasoning (if available).
3. Decide, independently, what you believe the correct test output is.
   You may agree with one of the candidates, combine ideas from several,
   or derive something none of them produced.
4. Output your conclusion as exactly TWO grids, in order of confidence:
   your most confident answer first, then your second most confident
   distinct answer. If you are only confident in one answer, repeat it
   as both.
5. Show your reasoning first, then output each grid as a fenced code
   block of comma-separated integer rows, one block per attempt, in
   that order. Do not label them; the last two grid blocks in your
   response are read as Attempt 1 and Attempt 2 respectively.
</INSTRUCTIONS>`

// BuildDuoPick renders the duo-pick meta-conclusion judge prompt: the
// training examples, the test input, every known candidate with its
// vote count and reasoning, and totalAttempts for context on how much
// agreement any one candidate represents.
func BuildDuoPick(train []types.Example, testInput grid.Grid, candidates []CandidateView, totalAttempts int) string {
	var b strings.Builder
	b.WriteString(duoPickSystemRole)
	b.WriteString("\n\n<SOLVED_EXAMPLES>\n")
	writeTrainExamplesDisplay(&b, train)

	b.WriteString("\n</SOLVED_EXAMPLES>\n\n<TEST_INPUT>\n")
	if testInput != nil {
		b.WriteString(grid.ToDisplayString(testInput))
	} else {
		b.WriteString("(No Test Input)")
	}
	b.WriteString("\n</TEST_INPUT>\n\n<CANDIDATES>\n")

	for _, cand := range candidates {
		fmt.Fprintf(&b, "<CANDIDATE %d votes=\"%d/%d\">\n<PROPOSED_SOLUTION>\n", cand.ID, cand.Count, totalAttempts)
		b.WriteString(grid.ToDisplayString(cand.Grid))
		b.WriteString("\n</PROPOSED_SOLUTION>\n")
		for j, modelID := range cand.Models {
			alias := modelAlias(j)
			fmt.Fprintf(&b, "<REASONING_MODEL_%s model_id=\"%s\">\n", alias, modelID)
			b.WriteString(reasoningFor(cand, modelID))
			fmt.Fprintf(&b, "\n</REASONING_MODEL_%s>\n", alias)
		}
		fmt.Fprintf(&b, "</CANDIDATE %d>\n", cand.ID)
	}
	b.WriteString("</CANDIDATES>\n\n")
	fmt.Fprintf(&b, duoPickInstructions, totalAttempts)
	return b.String()
}
