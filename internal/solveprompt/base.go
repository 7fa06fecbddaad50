// Package solveprompt builds the solver's base task prompt and its
// Step 5 variants (deep-thinking override, image attachment note,
// generated-hint insertion, objects-pipeline insertion) plus the
// codegen prompt family, mirroring original_source/src/tasks.py's
// build_prompt and original_source/src/tasks/prompts_codegen.py.
package solveprompt

import (
	"strconv"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// BaseOpts carries the optional variations on the base prompt, each
// independently toggleable the way build_prompt's keyword arguments
// are.
type BaseOpts struct {
	Strategy            string // a generated hint, inserted verbatim
	ImagePath           string // non-empty marks that an image is attached
	TriggerDeepThinking bool
	ObjectsInsertion    string // objects/transformation summary pair, inserted before the final instruction
}

// BuildBase renders the base solving prompt for a train/test pair,
// with any Step 5 variant sections layered in per opts.
func BuildBase(train []types.Example, test types.Example, opts BaseOpts) string {
	var b strings.Builder
	b.WriteString("You are solving an ARC (Abstraction and Reasoning Corpus) task.\n")
	b.WriteString("Each grid cell is an integer 0-9 representing a color.\n")
	b.WriteString("Use the solved examples to infer the transformation and apply it to the test input.\n\n")
	b.WriteString("Solved examples:\n")
	for i, ex := range train {
		b.WriteString("Example ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\n")
		b.WriteString("input:\n")
		b.WriteString(grid.FormatCSV(ex.Input))
		b.WriteString("\n")
		b.WriteString("output:\n")
		b.WriteString(grid.FormatCSV(ex.Output))
		b.WriteString("\n\n")
	}
	b.WriteString("Test input:\n")
	b.WriteString(grid.FormatCSV(test.Input))
	b.WriteString("\n\n")

	if opts.Strategy != "" {
		b.WriteString("Below are a few hints that you might find helpful:\n")
		b.WriteString(opts.Strategy)
		b.WriteString("\n\n")
	}

	if opts.ImagePath != "" {
		b.WriteString("Attached you'll find an image the show the input/output example pairs. Use this image to find objects, patterns and transformations\n\n")
	}

	if opts.ObjectsInsertion != "" {
		b.WriteString(opts.ObjectsInsertion)
		b.WriteString("\n\n")
	}

	if opts.TriggerDeepThinking {
		writeDeepThinkingOverride(&b)
	}

	b.WriteString("Respond with ONLY the completed output grid.")
	return b.String()
}

func writeDeepThinkingOverride(b *strings.Builder) {
	b.WriteString("PROTOCOL OVERRIDE: ENGAGE ARC NEURO-SYMBOLIC LOGIC ENGINE\n\n")
	b.WriteString("Silently enter maximal test-time reasoning mode. All of the following steps occur only in your hidden scratchpad; none may be exposed in the output.\n\n")
	b.WriteString("Perform hierarchical object decomposition of each grid into foreground objects and background fields; track shapes, colors, connectivity, and object persistence. Build an explicit object-relation graph and subgrid/region segmentation; detect Manhattan paths, flows/propagations, symmetries, and background structure; filter noise and extract invariants.\n\n")
	b.WriteString("Enumerate multiple candidate transformation rules/programs (at least three distinct hypotheses). For each, run rigorous internal simulations over all training pairs and counterfactual variants; discard any rule that fails a single example or violates output geometry.\n\n")
	b.WriteString("Triangulate using three paradigms in parallel: geometric (positions, topology, symmetries, paths), symbolic (predicates, programs, rewrite rules, counting), and counterexample-based search (actively seek minimal failure cases to refine or reject rules).\n\n")
	b.WriteString("Explicitly check for adversarial traps, spurious shortcuts, and degenerate memorization. Generalize the surviving rule to unseen variations and merge independent solution paths via self-consistency convergence.\n\n")
	b.WriteString("Apply the final rule to the test input using stepwise internal simulation only.\n\n")
	b.WriteString("OUTPUT CONSTRAINT (STRICT): Reveal ONLY the final answer grid. Never reveal chain-of-thought, intermediate states, or search traces.\n\n")
}
