// Package candidate tracks the distinct grids produced for one task's
// test example across every model call, so the selector can work from
// deduplicated answers instead of raw per-call results.
package candidate

import (
	"sync"

	"github.com/praetorian-inc/arc-orchestrator/pkg/grid"
	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

// Entry is one distinct grid answer plus every call that produced it.
type Entry struct {
	Grid    grid.Grid
	Sources []types.CallResult
}

// Map deduplicates CallResults by their grid's canonical CSV key,
// preserving first-seen order so the selector's duo-pick can report a
// stable "top two" across runs with identical inputs.
type Map struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*Entry
}

func NewMap() *Map {
	return &Map{entries: make(map[string]*Entry)}
}

// Add records result under its grid's canonical key. A nil or empty
// grid is ignored: a failed call contributes no candidate.
func (m *Map) Add(result types.CallResult) {
	if len(result.Grid) == 0 {
		return
	}
	key := grid.Key(result.Grid)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &Entry{Grid: result.Grid}
		m.entries[key] = e
		m.order = append(m.order, key)
	}
	e.Sources = append(e.Sources, result)
}

// Entries returns every distinct candidate in first-seen order.
func (m *Map) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, *m.entries[key])
	}
	return out
}

// Len reports the number of distinct candidates recorded so far.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// CountFor returns how many calls produced g, 0 if g was never seen.
// Used by consensus selection to rank candidates by vote count.
func (m *Map) CountFor(g grid.Grid) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[grid.Key(g)]
	if !ok {
		return 0
	}
	return len(e.Sources)
}

// Candidate is the selector-facing projection of one distinct grid
// answer: a stable integer id (matched against a judge's
// "candidate_id" field), its vote count, contributing models, and the
// verification result every source necessarily shares (the tri-state
// depends only on the grid and the ground truth, never on which call
// produced it).
type Candidate struct {
	ID               int
	Grid             grid.Grid
	Count            int
	Models           []string
	IsCorrect        grid.Tri
	ReasoningSummary string
}

// Candidates returns the current entries as selector-facing
// Candidates, assigning each a stable ID equal to its first-seen
// index. Judge-synthesized candidates (duo-pick) should number from
// len(result) upward to avoid colliding with these ids.
func (m *Map) Candidates() []Candidate {
	entries := m.Entries()
	out := make([]Candidate, len(entries))
	for i, e := range entries {
		var isCorrect grid.Tri
		if len(e.Sources) > 0 {
			isCorrect = e.Sources[0].IsCorrect
		}
		out[i] = Candidate{
			ID:        i,
			Grid:      e.Grid,
			Count:     len(e.Sources),
			Models:    dedupModels(e.Sources),
			IsCorrect: isCorrect,
		}
	}
	return out
}

func dedupModels(sources []types.CallResult) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.ModelActual == "" || seen[s.ModelActual] {
			continue
		}
		seen[s.ModelActual] = true
		out = append(out, s.ModelActual)
	}
	return out
}

// ReasoningStore holds one text per run id (the run's strategy
// explanation when it produced one, else its raw model response), so
// the judge prompts can attach a candidate's original reasoning
// transcript alongside its grid and vote count.
type ReasoningStore struct {
	mu      sync.Mutex
	byRunID map[string]string
}

func NewReasoningStore() *ReasoningStore {
	return &ReasoningStore{byRunID: make(map[string]string)}
}

func (s *ReasoningStore) Record(runID, rawResponse string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRunID[runID] = rawResponse
}

func (s *ReasoningStore) Get(runID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.byRunID[runID]
	return text, ok
}

// ReasoningFor returns the candidate's per-model reasoning, keyed by
// model id, built by looking up the raw response for the first source
// run that matches each distinct model. Sources with no stored
// reasoning (e.g. a judge-synthesized candidate with no run id) are
// simply absent from the result.
func (m *Map) ReasoningFor(c Candidate, store *ReasoningStore) map[string]string {
	entries := m.Entries()
	var sources []types.CallResult
	for _, e := range entries {
		if grid.Key(e.Grid) == grid.Key(c.Grid) {
			sources = e.Sources
			break
		}
	}

	out := make(map[string]string, len(c.Models))
	for _, s := range sources {
		if s.ModelActual == "" {
			continue
		}
		if _, ok := out[s.ModelActual]; ok {
			continue
		}
		if text, ok := store.Get(s.RunID); ok {
			out[s.ModelActual] = text
		}
	}
	return out
}
