package solver

import (
	"fmt"
	"sync"

	"github.com/praetorian-inc/arc-orchestrator/internal/worker"
	"github.com/praetorian-inc/arc-orchestrator/pkg/ratelimit"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// runIDCounts tracks the next attempt number per model identifier
// across the whole task run, mirroring SolverState.run_id_counts: two
// calls to the same model in different steps never collide on run id.
type runIDCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRunIDCounts() *runIDCounts {
	return &runIDCounts{counts: make(map[string]int)}
}

func (r *runIDCounts) next(modelID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[modelID]++
	return r.counts[modelID]
}

// buildJobs turns one prompt and a list of models into worker Jobs,
// one run id per model, sharing the run's rate limiters and retry
// policy.
func (m *Machine) buildJobs(models []types.ModelConfig, prompt string, mode worker.ExecutionMode, useBackground bool, imagePath string) []worker.Job {
	jobs := make([]worker.Job, 0, len(models))
	for _, mc := range models {
		gen, ok := m.cfg.Generators[mc.Provider]
		if !ok {
			continue
		}
		attempt := m.runIDs.next(mc.Identifier)
		runID := worker.RunID(m.cfg.TaskID, m.cfg.TestIndex, mc.Identifier, attempt)
		limiter := m.limiterFor(mc.Provider)
		jobs = append(jobs, worker.Job{
			RunID:          runID,
			Prompt:         prompt,
			ModelConfig:    mc,
			RequestedModel: mc.Identifier,
			Generator:      gen,
			Limiter:        limiter,
			RetryConfig:    m.cfg.Retry,
			TestExample:    m.task.Test[m.cfg.TestIndex],
			TrainExamples:  m.task.Train,
			Mode:           mode,
			ImagePath:      imagePath,
			UseBackground:  useBackground && mc.Provider == types.ProviderOpenAI,
			ReturnStrategy: m.cfg.DuoPickEnable,
			LogPrefix:      fmt.Sprintf("%s[%s]", m.cfg.LogPrefix, runID),
		})
	}
	return jobs
}

// buildJob constructs a single worker Job for one model, e.g. the
// hint generator or one objects-pipeline phase, which never run as
// part of a many-model fan-out.
func (m *Machine) buildJob(mc types.ModelConfig, prompt string, mode worker.ExecutionMode, imagePath string) (worker.Job, bool) {
	gen, ok := m.cfg.Generators[mc.Provider]
	if !ok {
		return worker.Job{}, false
	}
	attempt := m.runIDs.next(mc.Identifier)
	runID := worker.RunID(m.cfg.TaskID, m.cfg.TestIndex, mc.Identifier, attempt)
	return worker.Job{
		RunID:          runID,
		Prompt:         prompt,
		ModelConfig:    mc,
		RequestedModel: mc.Identifier,
		Generator:      gen,
		Limiter:        m.limiterFor(mc.Provider),
		RetryConfig:    m.cfg.Retry,
		TestExample:    m.task.Test[m.cfg.TestIndex],
		TrainExamples:  m.task.Train,
		Mode:           mode,
		ImagePath:      imagePath,
		UseBackground:  m.cfg.UseBackground && mc.Provider == types.ProviderOpenAI,
		LogPrefix:      fmt.Sprintf("%s[%s]", m.cfg.LogPrefix, runID),
	}, true
}

func (m *Machine) limiterFor(p types.Provider) *ratelimit.Limiter {
	if m.cfg.Limiters == nil {
		return nil
	}
	return m.cfg.Limiters.For(string(p))
}
