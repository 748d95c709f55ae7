package pattern

import (
	"sort"

	"github.com/dusk-indust/sopflow/internal/process"
)

// Sample picks at most limit steps, keeping the first step of every
// distinct role and filling the remaining slots with evenly spaced steps.
// The result preserves the original order. A limit <= 0 disables sampling.
func Sample(steps []process.StepRecord, limit int) []process.StepRecord {
	if limit <= 0 || len(steps) <= limit {
		return append([]process.StepRecord(nil), steps...)
	}

	chosen := make(map[int]bool, limit)
	seen := make(map[string]bool)
	for i, s := range steps {
		if seen[s.Role] {
			continue
		}
		seen[s.Role] = true
		if len(chosen) < limit {
			chosen[i] = true
		}
	}

	var rest []int
	for i := range steps {
		if !chosen[i] {
			rest = append(rest, i)
		}
	}
	if need := limit - len(chosen); need > 0 {
		for k := 0; k < need; k++ {
			chosen[rest[k*len(rest)/need]] = true
		}
	}

	idx := make([]int, 0, len(chosen))
	for i := range chosen {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]process.StepRecord, len(idx))
	for k, i := range idx {
		out[k] = steps[i]
	}
	return out
}
