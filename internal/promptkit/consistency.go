package promptkit

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

const consistencySystemRole = `<SYSTEM_ROLE>
You are an ARC Solution Auditor.

Your primary ability is NOT to solve new ARC tasks from scratch.
Instead, you are excellent at:
- Checking whether a proposed rule is logically consistent
- Verifying that a rule matches known solved examples
- Verifying that a candidate's test output actually follows its own stated rule

You are skeptical and detail-oriented. If a candidate's explanation says X
but the examples show not-X, you must call that out.
</SYSTEM_ROLE>`

const consistencyTaskContext = `<TASK_CONTEXT>
The problem consists of:
- One or more solved training examples (each with input + output grids)
- One test input grid (no ground-truth output given)
- One or more candidate solutions, each proposing:
  - One predicted output grid for the test input
  - One or more verbal explanations of the transformation

Your job is to AUDIT the candidates:
- You do NOT need to invent your own new rule.
- You must decide which candidates are most logically consistent with the
  training examples and with themselves, and rank them.
</TASK_CONTEXT>`

const consistencyInstructions = `<INSTRUCTIONS>
You must behave as an AUDITOR, not a solver.

Your overall goal:
- For each candidate, select the single most detailed and logical explanation
  and treat it as that candidate's proposed rule.
- Audit that rule against all training examples.
- Check whether the candidate's predicted test OUTPUT_GRID actually follows
  that rule.
- Assign each candidate a score from 0 to 10 and rank all candidates.

STEP 1 -- SELECT THE BEST RULE PER CANDIDATE
For each CANDIDATE, among its ANSWER blocks select the most rigorous and
complete explanation and treat it as the candidate's rule.

STEP 2 -- EXAMPLE CONSISTENCY AUDIT
Using only the training examples, for each TRAIN_EXAMPLE assign "Pass",
"Partial", or "Fail" against the candidate's rule, then summarize how the
rule fits the set of training examples taken together.

STEP 3 -- RULE-TO-TEST-GRID CONSISTENCY
Apply the rule conceptually to the TEST_INPUT and check whether the
candidate's OUTPUT_GRID is a reasonable outcome of that rule.

STEP 4 -- SCORING AND GLOBAL RANKING
Assign each candidate a SCORE from 0 to 10 (10 = fully consistent, 0 =
completely incompatible) and rank all candidates in descending order.
</INSTRUCTIONS>`

const consistencyOutputFormat = `<OUTPUT_FORMAT>
Return a single JSON object with the following structure:

{
  "candidates": [
    {
      "candidate_id": 0,
      "score": 8.7,
      "tier": "GOLD",
      "example_audit": {
        "per_example": {"1": "Pass", "2": "Pass", "3": "Partial"},
        "summary": "Rule matches main behaviors across examples; minor ambiguity in example 3."
      },
      "test_grid_consistency": "Plausible",
      "rule_summary": "Short, 1-3 sentence description of this candidate's representative rule."
    }
  ],
  "final_ranking_by_candidate": [0, 4, 5, 1]
}

Constraints:
- Do not add any fields outside this schema.
- All candidate_id values must match the id attributes of the candidates.
</OUTPUT_FORMAT>`

// BuildConsistencyPrompt renders the Consistency judge prompt: training
// examples and test input in CSV form, each candidate's answer(s) with
// reasoning and output grid, then the audit instructions and output
// schema.
func BuildConsistencyPrompt(train []types.Example, testInput grid.Grid, candidates []CandidateView) string {
	var b strings.Builder
	b.WriteString(consistencySystemRole)
	b.WriteString("\n")
	b.WriteString(consistencyTaskContext)
	b.WriteString("\n\n<PROBLEM>\n")
	writeTrainExamplesCSV(&b, train, "  ")

	if testInput != nil {
		b.WriteString("  <TEST_INPUT>\n    <INPUT_GRID>\n")
		b.WriteString(grid.ToPaddedCSVRows(testInput, "    "))
		b.WriteString("\n    </INPUT_GRID>\n  </TEST_INPUT>\n")
	}
	b.WriteString("</PROBLEM>\n\n<CANDIDATES>\n")

	for _, cand := range candidates {
		fmt.Fprintf(&b, "  <CANDIDATE id=\"%d\">\n", cand.ID)
		for j, modelID := range cand.Models {
			alias := modelAlias(j)
			fmt.Fprintf(&b, "    <ANSWER id=\"%s\" model_id=\"%s\">\n", alias, modelID)
			b.WriteString("      <EXPLANATION>\n")
			b.WriteString(reasoningFor(cand, modelID))
			b.WriteString("\n      </EXPLANATION>\n      <OUTPUT_GRID>\n")
			b.WriteString(grid.ToPaddedCSVRows(cand.Grid, "      "))
			b.WriteString("\n      </OUTPUT_GRID>\n    </ANSWER>\n")
		}
		b.WriteString("  </CANDIDATE>\n")
	}
	b.WriteString("</CANDIDATES>\n\n")
	b.WriteString(consistencyInstructions)
	b.WriteString("\n")
	b.WriteString(consistencyOutputFormat)
	return b.String()
}
