package solver

import (
	"github.com/praetorian-inc/arc-orchestrator/internal/solveprompt"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

type baseOpts = solveprompt.BaseOpts

func basePrompt(task types.Task, testIndex int, opts baseOpts) string {
	return solveprompt.BuildBase(task.Train, task.Test[testIndex], opts)
}
