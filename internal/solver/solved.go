package solver

import "github.com/praetorian-inc/arc-orchestrator/pkg/candidate"

// IsSolved reports whether candidates already contains a convincing
// winner, ported from original_source/src/solver/selection.py:is_solved
// (via solver/steps.py:check_is_solved). The top-count candidate C must
// clear kThreshold votes, hold more than a quarter of every run cast so
// far, and every other candidate must be a single-vote outlier.
func IsSolved(candidates []candidate.Candidate, kThreshold int) bool {
	if len(candidates) == 0 {
		return false
	}

	top := candidates[0]
	total := 0
	for _, c := range candidates {
		total += c.Count
		if c.Count > top.Count {
			top = c
		}
	}
	if total == 0 {
		return false
	}

	if top.Count < kThreshold {
		return false
	}
	if float64(top.Count)/float64(total) <= 0.25 {
		return false
	}
	for _, c := range candidates {
		if c.ID == top.ID {
			continue
		}
		if c.Count != 1 {
			return false
		}
	}
	return true
}
