package solveprompt

import (
	"strconv"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// BuildObjectsExtraction renders the first phase of the objects
// pipeline: ask the model to enumerate the objects present across
// every training pair and the test input, tagged so the caller can
// pull out just the summary via ExtractTagContent.
//
// The original_source retrieval pack imports this builder
// (solver/pipelines.py: "from src.tasks import
// build_objects_extraction_prompt") but its definition was not among
// the retrieved files; this is authored in the base prompt's idiom to
// fill that gap.
func BuildObjectsExtraction(train []types.Example, test types.Example) string {
	var b strings.Builder
	b.WriteString("You are analyzing an ARC (Abstraction and Reasoning Corpus) task.\n")
	b.WriteString("Each grid cell is an integer 0-9 representing a color.\n\n")
	b.WriteString("Solved examples:\n")
	for i, ex := range train {
		b.WriteString("Example ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\ninput:\n")
		b.WriteString(grid.FormatCSV(ex.Input))
		b.WriteString("\noutput:\n")
		b.WriteString(grid.FormatCSV(ex.Output))
		b.WriteString("\n\n")
	}
	b.WriteString("Test input:\n")
	b.WriteString(grid.FormatCSV(test.Input))
	b.WriteString("\n\n")
	b.WriteString("Identify every distinct object in each grid: its shape, color(s), size, position, and how it persists or changes between input and output.\n")
	b.WriteString("Do not propose a transformation rule yet; only describe what is present.\n")
	b.WriteString("Wrap your final answer, and only your final answer, in <objects_summary></objects_summary> tags.\n")
	return b.String()
}

// BuildObjectsTransformation renders the second phase: given the
// extracted objects summary, ask the model to describe the
// transformation rule that maps each input's objects to its output's.
func BuildObjectsTransformation(train []types.Example, test types.Example, objectsSummary string) string {
	var b strings.Builder
	b.WriteString("You are analyzing an ARC (Abstraction and Reasoning Corpus) task.\n\n")
	b.WriteString("Here is an object-level description of the task, produced in a prior step:\n\n")
	b.WriteString(objectsSummary)
	b.WriteString("\n\n")
	b.WriteString("Solved examples:\n")
	for i, ex := range train {
		b.WriteString("Example ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\ninput:\n")
		b.WriteString(grid.FormatCSV(ex.Input))
		b.WriteString("\noutput:\n")
		b.WriteString(grid.FormatCSV(ex.Output))
		b.WriteString("\n\n")
	}
	b.WriteString("Test input:\n")
	b.WriteString(grid.FormatCSV(test.Input))
	b.WriteString("\n\n")
	b.WriteString("Using the object descriptions above, state the single general transformation rule that maps every training input's objects to its output's objects.\n")
	b.WriteString("Wrap your final answer, and only your final answer, in <transformation_summary></transformation_summary> tags.\n")
	return b.String()
}

// BuildHint renders the hint-generator prompt run once ahead of the
// generated-hint Step 5 strategy: look at the training pairs (and the
// attached image, when imagePath is set) and produce one concise
// natural-language hint about the transformation, without giving away
// a full solution.
//
// Authored the same way as BuildObjectsExtraction/Transformation: the
// pack's hint_generation.py was not among the retrieved files.
func BuildHint(train []types.Example, test types.Example, imagePath string) string {
	var b strings.Builder
	b.WriteString("You are assisting another model that is about to solve an ARC (Abstraction and Reasoning Corpus) task.\n")
	b.WriteString("Your job is only to produce a short, useful hint about the transformation, not to solve the task yourself.\n\n")
	b.WriteString("Solved examples:\n")
	for i, ex := range train {
		b.WriteString("Example ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\ninput:\n")
		b.WriteString(grid.FormatCSV(ex.Input))
		b.WriteString("\noutput:\n")
		b.WriteString(grid.FormatCSV(ex.Output))
		b.WriteString("\n\n")
	}
	b.WriteString("Test input:\n")
	b.WriteString(grid.FormatCSV(test.Input))
	b.WriteString("\n\n")
	if imagePath != "" {
		b.WriteString("Attached you'll find an image showing the input/output example pairs. Use it to spot objects, patterns and transformations.\n\n")
	}
	b.WriteString("Write one short paragraph naming the kind of transformation at work (e.g. \"objects are being reflected across a discovered symmetry axis\") without describing the exact per-pixel rule.\n")
	b.WriteString("Wrap your final answer, and only your final answer, in <hint></hint> tags.\n")
	return b.String()
}
