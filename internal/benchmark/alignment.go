package benchmark

import (
	"github.com/dusk-indust/sopflow/internal/process"
)

// Alignment dimensions.
const (
	DimDigitization       = "digitization"
	DimDataIntegration    = "data_integration"
	DimAutomationAdoption = "automation_adoption"
	DimDigitalSkills      = "digital_skills"
)

// Dimensions lists the alignment dimensions in report order.
var Dimensions = []string{DimDigitization, DimDataIntegration, DimAutomationAdoption, DimDigitalSkills}

var dimensionKeywords = map[string][]string{
	DimDigitization:       {"digital", "paper", "electronic", "form", "record", "document", "scan"},
	DimDataIntegration:    {"data", "integrate", "integration", "system", "sync", "database", "erp", "share"},
	DimAutomationAdoption: {"automate", "automation", "manual", "workflow", "process", "robot"},
	DimDigitalSkills:      {"training", "train", "skill", "staff", "learn"},
}

// Alignment is the idp_alignment_score: the low-gap fraction overall and per
// dimension, plus the weights used to combine the dimensions.
type Alignment struct {
	Overall    float64            `json:"overall_score"`
	Dimensions map[string]float64 `json:"areas"`
	Weights    map[string]float64 `json:"weights"`
	Weighted   float64            `json:"weighted_score"`
}

func alignment(entries []Entry, content string) Alignment {
	a := Alignment{
		Dimensions: make(map[string]float64, len(Dimensions)),
		Weights:    dimensionWeights(content),
	}
	a.Overall = lowGapShare(entries, func(Entry) bool { return true })

	for _, dim := range Dimensions {
		kw := dimensionKeywords[dim]
		relevant := func(e Entry) bool { return process.CountTerms(e.CurrentStep, kw) > 0 }
		score := a.Overall
		for _, e := range entries {
			if relevant(e) {
				score = lowGapShare(entries, relevant)
				break
			}
		}
		a.Dimensions[dim] = score
	}

	for _, dim := range Dimensions {
		a.Weighted += a.Weights[dim] * a.Dimensions[dim]
	}
	a.Overall = round2(a.Overall)
	a.Weighted = round2(a.Weighted)
	for dim, v := range a.Dimensions {
		a.Dimensions[dim] = round2(v)
	}
	return a
}

// lowGapShare is the fraction of entries matching keep that have a low gap.
// No matching entries gives 0.
func lowGapShare(entries []Entry, keep func(Entry) bool) float64 {
	n, low := 0, 0
	for _, e := range entries {
		if !keep(e) {
			continue
		}
		n++
		if e.DigitalGap == process.LevelLow {
			low++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(low) / float64(n)
}

// dimensionWeights splits 1.0 across the dimensions in proportion to how
// often the benchmark text mentions each one's keywords, or evenly when it
// mentions none.
func dimensionWeights(content string) map[string]float64 {
	counts := make(map[string]int, len(Dimensions))
	total := 0
	for _, dim := range Dimensions {
		c := process.CountTerms(content, dimensionKeywords[dim])
		counts[dim] = c
		total += c
	}
	w := make(map[string]float64, len(Dimensions))
	for _, dim := range Dimensions {
		if total == 0 {
			w[dim] = 1 / float64(len(Dimensions))
			continue
		}
		w[dim] = round2(float64(counts[dim]) / float64(total))
	}
	return w
}
