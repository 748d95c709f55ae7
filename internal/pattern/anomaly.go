package pattern

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dusk-indust/sopflow/internal/process"
)

// AnomalyKind classifies why a step was flagged.
type AnomalyKind string

const (
	AnomalyDuration   AnomalyKind = "duration_outlier"
	AnomalyFrequency  AnomalyKind = "frequency_outlier"
	AnomalyComplexity AnomalyKind = "complexity_mismatch"
)

// Anomaly is a step whose description length is statistically unusual.
type Anomaly struct {
	StepID         string      `json:"step_id"`
	Step           string      `json:"step"`
	Kind           AnomalyKind `json:"anomaly_kind"`
	Issue          string      `json:"issue"`
	Recommendation string      `json:"recommendation"`
	Score          float64     `json:"score"`
}

// AnomalyOptions tunes DetectAnomalies.
type AnomalyOptions struct {
	// Contamination is the expected outlier fraction, in (0, 0.5].
	Contamination float64
	Seed          uint64
}

// DetectAnomalies scores each step by the character length of its text
// with an isolation forest. Fewer than three steps yield an empty list
// together with ErrInsufficientData.
func DetectAnomalies(steps []process.StepRecord, opts AnomalyOptions) (anomalies []Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			anomalies, err = nil, fmt.Errorf("pattern: anomaly detection failed: %v", r)
		}
	}()
	if len(steps) < 3 {
		return []Anomaly{}, ErrInsufficientData
	}
	if opts.Contamination <= 0 || opts.Contamination > 0.5 {
		return nil, fmt.Errorf("pattern: contamination %v outside (0, 0.5]", opts.Contamination)
	}

	lengths := make([]float64, len(steps))
	ranks := make([]float64, len(steps))
	repeats := make(map[string]int)
	for i, s := range steps {
		lengths[i] = float64(utf8.RuneCountInString(s.Text))
		ranks[i] = float64(s.Complexity.Rank())
		repeats[normalize(s.Text)]++
	}
	counts := make([]float64, len(steps))
	for i, s := range steps {
		counts[i] = float64(repeats[normalize(s.Text)])
	}

	flags, scores := outliers(lengths, opts.Contamination, opts.Seed)
	medianLen := process.Median(lengths)
	medianRank := process.Median(ranks)
	medianCount := process.Median(counts)

	anomalies = []Anomaly{}
	for i, s := range steps {
		if !flags[i] {
			continue
		}
		a := Anomaly{StepID: s.StepID, Step: s.Text, Score: math.Round(scores[i]*1000) / 1000}
		switch {
		case math.Abs(ranks[i]-medianRank) >= 1.5:
			a.Kind = AnomalyComplexity
			a.Issue = fmt.Sprintf("complexity %s while most steps are %s", s.Complexity, process.LevelFromRank(int(math.Round(medianRank))))
			a.Recommendation = "Re-assess the step's complexity rating or split it into smaller steps"
		case counts[i] >= 2 && counts[i] > 2*medianCount:
			a.Kind = AnomalyFrequency
			a.Issue = fmt.Sprintf("step repeats %d times across the procedure", int(counts[i]))
			a.Recommendation = "Consolidate the repeated step into a single reusable activity"
		default:
			a.Kind = AnomalyDuration
			a.Issue = lengthIssue(lengths[i], medianLen)
			a.Recommendation = "Review the step description; it may be mis-documented or bundle several activities"
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func lengthIssue(length, median float64) string {
	if median == 0 {
		return fmt.Sprintf("description is %.0f characters long", length)
	}
	ratio := length / median
	dir := "longer"
	if ratio < 1 {
		dir = "shorter"
	}
	return fmt.Sprintf("description is %.1fx the median length (%.0f vs %.0f characters), notably %s than its peers", ratio, length, median, dir)
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
