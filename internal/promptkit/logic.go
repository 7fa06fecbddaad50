package promptkit

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// logicSystemRole and logicInstructions give the Logic judge a
// complementary brief to the Consistency judge: where Consistency
// audits whether a candidate's own stated rule holds up against the
// examples, Logic is asked to independently derive the transformation
// rule first and then score each candidate against that independently
// derived rule, so overfit-but-self-consistent explanations don't
// automatically win.
const logicSystemRole = `<SYSTEM_ROLE>
You are an ARC Solution Judge.

Unlike an auditor who only checks a candidate's own explanation, you
first work out the transformation rule for yourself from the solved
examples, then use that independently derived rule to judge every
candidate's proposed test output.

You are skeptical of answers that merely restate the examples without
deriving a rule that generalizes.
</SYSTEM_ROLE>`

const logicInstructions = `<INSTRUCTIONS>
STEP 1 -- DERIVE THE RULE
Looking only at {SOLVED_EXAMPLES}, work out the transformation rule that
explains every training example.

STEP 2 -- SCORE EACH CANDIDATE
For each {CANDIDATE}, compare its PROPOSED_SOLUTION against the output
your own derived rule would produce for {TEST_INPUT}:
  - A candidate whose proposed solution matches your derived rule's
    output scores highly.
  - A candidate whose proposed solution is inconsistent with your
    derived rule, or whose REASONING contradicts the training examples,
    scores low.
  - Use a candidate's REASONING only to break ties between equally
    plausible grids, not as the primary signal.

STEP 3 -- SCORE AND RANK
Assign each candidate a SCORE from 0 to 10 and rank all candidates in
descending order.
</INSTRUCTIONS>`

const logicOutputFormat = `<OUTPUT_FORMAT>
Return a single JSON object with the following structure:

{
  "candidates": [
    {
      "candidate_id": 0,
      "score": 8.7,
      "tier": "GOLD",
      "rule_summary": "Short, 1-3 sentence description of the rule you derived and how this candidate compares."
    }
  ],
  "final_ranking_by_candidate": [0, 4, 5, 1]
}

Constraints:
- Do not add any fields outside this schema.
- All candidate_id values must match the id attributes of the candidates.
</OUTPUT_FORMAT>`

// BuildLogicPrompt renders the Logic judge prompt: training examples
// and test input in the "visual" display form, each candidate with its
// proposed solution and per-model reasoning, then the derive-then-score
// instructions and output schema.
func BuildLogicPrompt(train []types.Example, testInput grid.Grid, candidates []CandidateView) string {
	var b strings.Builder
	b.WriteString(logicSystemRole)
	b.WriteString("\n<INPUT_DATA>\n1. {SOLVED_EXAMPLES}:\n")
	writeTrainExamplesDisplay(&b, train)

	b.WriteString("\n2. {TEST_INPUT}:\n")
	if testInput != nil {
		b.WriteString(grid.ToDisplayString(testInput))
	} else {
		b.WriteString("(No Test Input)")
	}

	b.WriteString("\n\n3. {CANDIDATES}:\n")
	for _, cand := range candidates {
		fmt.Fprintf(&b, "<CANDIDATE %d>\n<PROPOSED_SOLUTION>\n", cand.ID)
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

	b.WriteString("</INPUT_DATA>\n\n")
	b.WriteString(logicInstructions)
	b.WriteString("\n")
	b.WriteString(logicOutputFormat)
	return b.String()
}
