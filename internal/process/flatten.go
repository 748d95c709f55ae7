package process

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultMaxSteps is the flattened-output cap applied when Options leaves
// MaxSteps unset.
const DefaultMaxSteps = 50

// Options tunes Flatten.
type Options struct {
	// MaxSteps caps the number of emitted records. Zero means DefaultMaxSteps.
	MaxSteps int
}

// Result is the output of Flatten.
type Result struct {
	Steps []StepRecord
	Roles map[string]RoleProfile
	// Emitted is the record count before cap consolidation.
	Emitted int
	// Consolidated is the number of records folded away to meet the cap.
	Consolidated int
	// CapExceeded is set when consolidation could not bring the output
	// under MaxSteps. The records are still returned.
	CapExceeded bool
	// Warnings lists the repairs made to the input: blank main-step titles
	// replaced with a placeholder and blank sub-steps dropped.
	Warnings []string
}

// DefaultDuration returns the estimated minutes for a step of the given
// complexity.
func DefaultDuration(c Level) float64 {
	switch c {
	case LevelLow:
		return 5
	case LevelHigh:
		return 30
	default:
		return 15
	}
}

// ComplexityFromSubSteps estimates complexity from the number of sub-steps.
func ComplexityFromSubSteps(n int) Level {
	switch {
	case n <= 1:
		return LevelLow
	case n <= 4:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Flatten walks the procedure in document order and emits one record per
// main step and sub-step.
func Flatten(doc *Document, opts Options) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	limit := opts.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}

	var steps []StepRecord
	var warnings []string
	prevRole := ""
	for i, ms := range doc.Sections.Procedure {
		major := i + 1

		role := strings.TrimSpace(ms.Role)
		if role == "" {
			role = prevRole
		}
		if role == "" {
			role = UnassignedRole
		}
		prevRole = role

		complexity, ok := ParseLevel(ms.Complexity)
		if !ok {
			complexity = ComplexityFromSubSteps(len(ms.SubSteps))
		}
		title := strings.TrimSpace(ms.Title)
		if title == "" {
			title = fmt.Sprintf("Step %d", major)
			warnings = append(warnings, fmt.Sprintf("main step %d has no title, using %q", major, title))
		}
		steps = append(steps, StepRecord{
			StepID:          stepID(major, 0),
			Text:            title,
			Role:            role,
			Kind:            KindMain,
			DurationMinutes: duration(ms.DurationMinutes, complexity),
			Complexity:      complexity,
		})

		minor := 0
		for j, ss := range ms.SubSteps {
			text := strings.TrimSpace(ss.Text)
			if text == "" {
				warnings = append(warnings, fmt.Sprintf("main step %d: sub-step %d is blank, dropped", major, j+1))
				continue
			}
			minor++
			subRole := strings.TrimSpace(ss.Role)
			if subRole == "" {
				subRole = role
			}
			subComplexity, ok := ParseLevel(ss.Complexity)
			if !ok {
				subComplexity = ComplexityFromSubSteps(0)
			}
			steps = append(steps, StepRecord{
				StepID:          stepID(major, minor),
				Text:            text,
				Role:            subRole,
				Kind:            KindSub,
				DurationMinutes: duration(ss.DurationMinutes, subComplexity),
				Complexity:      subComplexity,
			})
		}
	}

	res := &Result{Emitted: len(steps), Warnings: warnings}
	if len(steps) > limit {
		steps = consolidate(steps, limit, true)
	}
	if len(steps) > limit {
		steps = consolidate(steps, limit, false)
	}
	res.Consolidated = res.Emitted - len(steps)
	res.CapExceeded = len(steps) > limit

	renumber(steps)
	res.Steps = steps
	res.Roles = BuildRoleProfiles(steps)
	return res, nil
}

func duration(declared *float64, c Level) float64 {
	if declared != nil && *declared >= 0 && !math.IsNaN(*declared) && !math.IsInf(*declared, 0) {
		return *declared
	}
	return DefaultDuration(c)
}

// consolidate merges adjacent sub-steps of the same main step until the
// record count reaches limit or nothing else can be merged. With sameRole
// set, only sub-steps sharing a role are merged. Each round works on the
// main step that currently has the most sub-step records and, inside it,
// on the adjacent pair with the smallest combined merge count.
func consolidate(steps []StepRecord, limit int, sameRole bool) []StepRecord {
	for len(steps) > limit {
		subCount := make(map[int]int)
		for _, s := range steps {
			if s.Kind == KindSub {
				subCount[s.Major()]++
			}
		}

		best := -1
		bestMajor, bestSubs, bestWeight := 0, 0, 0
		for i := 0; i+1 < len(steps); i++ {
			a, b := steps[i], steps[i+1]
			if a.Kind != KindSub || b.Kind != KindSub || a.Major() != b.Major() {
				continue
			}
			if sameRole && a.Role != b.Role {
				continue
			}
			major := a.Major()
			weight := mergeWeight(a) + mergeWeight(b)
			subs := subCount[major]
			switch {
			case best < 0,
				subs > bestSubs,
				subs == bestSubs && major == bestMajor && weight < bestWeight:
				best, bestMajor, bestSubs, bestWeight = i, major, subs, weight
			}
		}
		if best < 0 {
			return steps
		}

		merged := mergeRecords(steps[best], steps[best+1])
		steps[best] = merged
		steps = append(steps[:best+1], steps[best+2:]...)
	}
	return steps
}

func mergeWeight(r StepRecord) int {
	if r.MergedCount == 0 {
		return 1
	}
	return r.MergedCount
}

func mergeRecords(a, b StepRecord) StepRecord {
	out := a
	out.Text = a.Text + "; " + b.Text
	out.DurationMinutes = a.DurationMinutes + b.DurationMinutes
	out.Complexity = MaxLevel(a.Complexity, b.Complexity)
	out.MergedCount = mergeWeight(a) + mergeWeight(b)
	return out
}

// renumber rewrites Order and sub-step minors so both are contiguous.
func renumber(steps []StepRecord) {
	minor := 0
	for i := range steps {
		steps[i].Order = i + 1
		major := steps[i].Major()
		if steps[i].Kind == KindMain {
			minor = 0
			continue
		}
		minor++
		steps[i].StepID = stepID(major, minor)
	}
}

// BuildRoleProfiles computes per-role step counts, workload shares and the
// main-step titles each role works on.
func BuildRoleProfiles(steps []StepRecord) map[string]RoleProfile {
	profiles := make(map[string]RoleProfile)
	if len(steps) == 0 {
		return profiles
	}

	titles := make(map[int]string)
	for _, s := range steps {
		if s.Kind == KindMain {
			titles[s.Major()] = s.Text
		}
	}

	resp := make(map[string]map[string]bool)
	for _, s := range steps {
		p := profiles[s.Role]
		p.StepCount++
		p.TotalMinutes += s.DurationMinutes
		profiles[s.Role] = p

		if resp[s.Role] == nil {
			resp[s.Role] = make(map[string]bool)
		}
		if t, ok := titles[s.Major()]; ok {
			resp[s.Role][t] = true
		}
	}

	total := float64(len(steps))
	for role, p := range profiles {
		p.WorkloadFraction = math.Round(float64(p.StepCount)/total*10000) / 10000
		p.Responsibilities = make([]string, 0, len(resp[role]))
		for t := range resp[role] {
			p.Responsibilities = append(p.Responsibilities, t)
		}
		sort.Strings(p.Responsibilities)
		profiles[role] = p
	}
	return profiles
}

// SortedRoles returns the role names of profiles in lexical order.
func SortedRoles(profiles map[string]RoleProfile) []string {
	roles := make([]string, 0, len(profiles))
	for r := range profiles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func (r *Result) String() string {
	return fmt.Sprintf("%d steps (%d emitted, %d consolidated), %d roles",
		len(r.Steps), r.Emitted, r.Consolidated, len(r.Roles))
}
