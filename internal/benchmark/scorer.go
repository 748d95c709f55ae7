package benchmark

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dusk-indust/sopflow/internal/process"
)

// DefaultMaxSteps caps how many steps are benchmarked per run.
const DefaultMaxSteps = 15

// Method is how a step is carried out today.
type Method string

const (
	MethodManual      Method = "manual"
	MethodDigital     Method = "digital"
	MethodUnspecified Method = "unspecified"
)

// Benefit names used in Entry.ExpectedBenefits.
const (
	BenefitTimeSavings = "time_savings"
	BenefitAccuracy    = "accuracy_improvement"
	BenefitCost        = "cost_reduction"
)

// Entry is the benchmark verdict for one step.
type Entry struct {
	StepID           string             `json:"step_id"`
	CurrentStep      string             `json:"current_step"`
	CurrentMethod    Method             `json:"current_method"`
	Recommendation   string             `json:"benchmark_recommendation"`
	DigitalGap       process.Level      `json:"digital_gap"`
	Priority         process.Level      `json:"priority"`
	ExpectedBenefits map[string]float64 `json:"expected_benefits"`
	// Support is the fraction of the step's significant terms found in the
	// recommendation sentence.
	Support float64 `json:"support"`

	complexity process.Level
	role       string
}

// Initiative is a quick win or strategic initiative derived from an entry.
type Initiative struct {
	StepID         string        `json:"step_id"`
	Step           string        `json:"step"`
	Recommendation string        `json:"recommendation"`
	Effort         process.Level `json:"effort"`
	Impact         process.Level `json:"impact"`
	Timeline       string        `json:"timeline"`
}

// RoleTransformation lists the tasks of one role that carry a high digital
// gap.
type RoleTransformation struct {
	CurrentWorkload    float64  `json:"current_workload"`
	TasksForAutomation []string `json:"tasks_for_automation"`
}

// Input is everything Score needs.
type Input struct {
	Steps []process.StepRecord
	// Flagged holds the step IDs marked upstream as bottlenecks or members
	// of high-automation clusters.
	Flagged  map[string]bool
	Roles    map[string]process.RoleProfile
	Document *Document
	MaxSteps int
}

// Result is the Benchmark Scorer output.
type Result struct {
	Sector             string                        `json:"sector"`
	SourceReference    string                        `json:"source_reference"`
	Entries            []Entry                       `json:"step_benchmarks"`
	Alignment          Alignment                     `json:"idp_alignment_score"`
	DigitalMaturity    float64                       `json:"digital_maturity"`
	QuickWins          []Initiative                  `json:"quick_wins"`
	Strategic          []Initiative                  `json:"strategic_initiatives"`
	RoleTransformation map[string]RoleTransformation `json:"role_transformation_analysis"`
}

var (
	sentenceSplit  = regexp.MustCompile(`[.!?\n]+`)
	percentPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(%|percent)`)
)

var automationTerms = []string{
	"automate", "automated", "automation", "automatic", "digital", "digitise",
	"digitize", "system", "software", "electronic", "barcode", "scan", "scanner",
	"rfid", "iot", "sensor", "cloud", "app", "online", "integrated", "erp", "pos",
	"dashboard", "robot", "robotic",
}

var defaultBenefits = map[process.Level][3]float64{
	process.LevelHigh:   {70, 90, 40},
	process.LevelMedium: {40, 50, 20},
	process.LevelLow:    {10, 20, 5},
}

// Score aligns the selected steps with the benchmark document. A nil or
// empty document still yields entries: every step then has no nearby
// automation reference.
func Score(in Input) *Result {
	limit := in.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}
	res := &Result{
		Entries:            []Entry{},
		QuickWins:          []Initiative{},
		Strategic:          []Initiative{},
		RoleTransformation: map[string]RoleTransformation{},
	}
	content := ""
	if in.Document != nil {
		res.Sector = in.Document.Sector
		res.SourceReference = in.Document.SourceReference
		content = in.Document.Content
	}
	sentences := splitSentences(content)

	for _, step := range selectSteps(in.Steps, in.Flagged, limit) {
		res.Entries = append(res.Entries, scoreStep(step, sentences, in.Flagged[step.StepID]))
	}

	res.Alignment = alignment(res.Entries, content)
	res.DigitalMaturity = round1(1 + 4*res.Alignment.Weighted)
	res.QuickWins, res.Strategic = initiatives(res.Entries)
	res.RoleTransformation = roleTransformation(res.Entries, in.Roles)
	return res
}

// selectSteps keeps at most limit steps, flagged ones first, and returns
// them in workflow order.
func selectSteps(steps []process.StepRecord, flagged map[string]bool, limit int) []process.StepRecord {
	if len(steps) <= limit {
		return steps
	}
	idx := make([]int, len(steps))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return flagged[steps[idx[a]].StepID] && !flagged[steps[idx[b]].StepID]
	})
	idx = idx[:limit]
	sort.Ints(idx)
	out := make([]process.StepRecord, len(idx))
	for i, j := range idx {
		out[i] = steps[j]
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "#-*• "))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func scoreStep(step process.StepRecord, sentences []string, flagged bool) Entry {
	e := Entry{
		StepID:        step.StepID,
		CurrentStep:   step.Text,
		CurrentMethod: methodOf(step.Text),
		complexity:    step.Complexity,
		role:          step.Role,
	}

	terms := process.SignificantTerms(step.Text)
	best, overlap := bestSentence(terms, sentences)
	nearby := false
	if best >= 0 {
		e.Recommendation = sentences[best]
		if len(terms) > 0 {
			e.Support = round2(float64(overlap) / float64(len(terms)))
		}
		for i := max(0, best-1); i <= min(len(sentences)-1, best+1); i++ {
			if process.CountTerms(sentences[i], automationTerms) > 0 {
				nearby = true
				break
			}
		}
	}

	e.DigitalGap = digitalGap(e.CurrentMethod, nearby)
	e.Priority = priority(e.DigitalGap, flagged)
	e.ExpectedBenefits = benefits(e.DigitalGap, e.Recommendation)
	return e
}

func methodOf(text string) Method {
	switch {
	case process.IsManual(text):
		return MethodManual
	case process.IsDigital(text):
		return MethodDigital
	default:
		return MethodUnspecified
	}
}

// bestSentence returns the index of the sentence sharing the most stemmed
// terms with the step, or -1 when none shares any. Ties keep the earliest.
func bestSentence(terms map[string]bool, sentences []string) (int, int) {
	best, bestOverlap := -1, 0
	for i, s := range sentences {
		n := 0
		for t := range process.SignificantTerms(s) {
			if terms[t] {
				n++
			}
		}
		if n > bestOverlap {
			best, bestOverlap = i, n
		}
	}
	return best, bestOverlap
}

func digitalGap(m Method, nearby bool) process.Level {
	switch m {
	case MethodDigital:
		return process.LevelLow
	case MethodManual:
		if nearby {
			return process.LevelMedium
		}
		return process.LevelHigh
	default:
		if nearby {
			return process.LevelMedium
		}
		return process.LevelLow
	}
}

// priority counts two signals: a high gap and an upstream flag. Both give
// high, one gives medium, none gives low.
func priority(gap process.Level, flagged bool) process.Level {
	switch {
	case gap == process.LevelHigh && flagged:
		return process.LevelHigh
	case gap == process.LevelHigh || flagged:
		return process.LevelMedium
	default:
		return process.LevelLow
	}
}

func benefits(gap process.Level, recommendation string) map[string]float64 {
	d := defaultBenefits[gap]
	out := map[string]float64{
		BenefitTimeSavings: d[0],
		BenefitAccuracy:    d[1],
		BenefitCost:        d[2],
	}
	if m := percentPattern.FindStringSubmatch(recommendation); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 100 {
			out[BenefitTimeSavings] = v
		}
	}
	return out
}

func initiatives(entries []Entry) (quick, strategic []Initiative) {
	quick, strategic = []Initiative{}, []Initiative{}
	for _, e := range entries {
		in := Initiative{
			StepID:         e.StepID,
			Step:           e.CurrentStep,
			Recommendation: e.Recommendation,
			Effort:         e.complexity,
			Impact:         e.DigitalGap,
		}
		switch {
		case e.Priority.AtLeast(process.LevelMedium) && e.complexity == process.LevelLow:
			in.Timeline = "1-6 months"
			quick = append(quick, in)
		case e.DigitalGap == process.LevelHigh && e.complexity != process.LevelLow:
			in.Timeline = "6-18 months"
			strategic = append(strategic, in)
		}
	}
	return quick, strategic
}

func roleTransformation(entries []Entry, roles map[string]process.RoleProfile) map[string]RoleTransformation {
	out := map[string]RoleTransformation{}
	for _, e := range entries {
		if e.DigitalGap != process.LevelHigh {
			continue
		}
		rt := out[e.role]
		rt.CurrentWorkload = roles[e.role].WorkloadFraction
		rt.TasksForAutomation = append(rt.TasksForAutomation, e.CurrentStep)
		out[e.role] = rt
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
