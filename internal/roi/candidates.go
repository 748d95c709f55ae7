package roi

import (
	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
)

// CandidateDefaults supplies the cost inputs a document does not carry.
type CandidateDefaults struct {
	FrequencyPerMonth  float64
	HourlyCost         float64
	ImplementationCost float64
}

var complexityFactors = map[process.Level]float64{
	process.LevelLow:    0.8,
	process.LevelMedium: 1.0,
	process.LevelHigh:   1.5,
}

// BuildCandidates merges pattern and benchmark outputs into ROI items. A
// step qualifies when its cluster has at least medium automation potential
// or its benchmark entry has at least medium priority. Items keep workflow
// order.
func BuildCandidates(steps []process.StepRecord, clusters []pattern.Cluster, entries []benchmark.Entry, d CandidateDefaults) []Item {
	potential := make(map[string]process.Level)
	for _, c := range clusters {
		for _, id := range c.StepIDs {
			potential[id] = c.AutomationPotential
		}
	}
	byStep := make(map[string]benchmark.Entry, len(entries))
	for _, e := range entries {
		byStep[e.StepID] = e
	}

	var items []Item
	for _, s := range steps {
		clusterLevel, inCluster := potential[s.StepID]
		entry, benchmarked := byStep[s.StepID]
		clusterOK := inCluster && clusterLevel.AtLeast(process.LevelMedium)
		entryOK := benchmarked && entry.Priority.AtLeast(process.LevelMedium)
		if !clusterOK && !entryOK {
			continue
		}

		level := process.LevelLow
		if inCluster {
			level = clusterLevel
		}
		if benchmarked {
			level = process.MaxLevel(level, entry.DigitalGap)
		}
		factor, ok := complexityFactors[s.Complexity]
		if !ok {
			factor = 1.0
		}

		item := Item{
			Step:                s.Text,
			StepID:              s.StepID,
			TimePerTaskMinutes:  s.DurationMinutes,
			FrequencyPerMonth:   d.FrequencyPerMonth,
			HourlyCost:          d.HourlyCost,
			ImplementationCost:  d.ImplementationCost,
			ComplexityFactor:    factor,
			AutomationPotential: string(level),
		}
		if benchmarked && len(entry.ExpectedBenefits) > 0 {
			item.ExpectedBenefits = make(map[string]Percent, len(entry.ExpectedBenefits))
			for k, v := range entry.ExpectedBenefits {
				item.ExpectedBenefits[k] = Percent(v)
			}
		}
		items = append(items, item)
	}
	return items
}
