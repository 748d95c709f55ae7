package process

import (
	"fmt"
	"sort"
)

// Bottleneck is a step that slows the process down.
type Bottleneck struct {
	StepID string `json:"step_id"`
	Step   string `json:"step"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
	Impact Level  `json:"impact"`
}

// Opportunity is a suggested improvement.
type Opportunity struct {
	Kind        string   `json:"kind"`
	StepIDs     []string `json:"step_ids,omitempty"`
	Role        string   `json:"role,omitempty"`
	Description string   `json:"description"`
}

// RiskFactor ties a documented risk to the steps it touches.
type RiskFactor struct {
	Risk          string   `json:"risk"`
	Mitigation    string   `json:"mitigation,omitempty"`
	AffectedSteps []string `json:"affected_steps"`
}

// Insights groups the qualitative findings about a flattened process.
type Insights struct {
	Bottlenecks               []Bottleneck  `json:"bottlenecks"`
	OptimizationOpportunities []Opportunity `json:"optimization_opportunities"`
	RiskFactors               []RiskFactor  `json:"risk_factors"`
}

// InsightInput is everything DetectInsights looks at.
type InsightInput struct {
	Steps []StepRecord
	Roles map[string]RoleProfile
	Risks RiskAssessment
	// Handoffs lists the step IDs that receive work from a different role.
	Handoffs []string
}

// Opportunity kinds.
const (
	OpportunityAutomation     = "automation"
	OpportunityRedistribution = "role_redistribution"
	OpportunitySimplification = "process_simplification"
)

// DetectInsights finds bottlenecks, improvement opportunities and the steps
// each documented risk applies to.
func DetectInsights(in InsightInput) Insights {
	out := Insights{
		Bottlenecks:               []Bottleneck{},
		OptimizationOpportunities: []Opportunity{},
		RiskFactors:               []RiskFactor{},
	}
	if len(in.Steps) == 0 {
		return out
	}

	durations := make([]float64, len(in.Steps))
	for i, s := range in.Steps {
		durations[i] = s.DurationMinutes
	}
	median := Median(durations)

	handoff := make(map[string]bool, len(in.Handoffs))
	for _, id := range in.Handoffs {
		handoff[id] = true
	}

	var manualIDs []string
	for _, s := range in.Steps {
		manual := IsManual(s.Text)
		if manual {
			manualIDs = append(manualIDs, s.StepID)
		}
		switch {
		case median > 0 && s.DurationMinutes >= 2*median:
			out.Bottlenecks = append(out.Bottlenecks, Bottleneck{
				StepID: s.StepID, Step: s.Text, Role: s.Role,
				Reason: fmt.Sprintf("takes %.0f minutes, %.1fx the median step", s.DurationMinutes, s.DurationMinutes/median),
				Impact: LevelHigh,
			})
		case s.Complexity == LevelHigh && manual:
			out.Bottlenecks = append(out.Bottlenecks, Bottleneck{
				StepID: s.StepID, Step: s.Text, Role: s.Role,
				Reason: "high-complexity step performed manually",
				Impact: LevelMedium,
			})
		case handoff[s.StepID] && s.DurationMinutes > median:
			out.Bottlenecks = append(out.Bottlenecks, Bottleneck{
				StepID: s.StepID, Step: s.Text, Role: s.Role,
				Reason: "receives a handoff from another role and runs longer than the median step",
				Impact: LevelLow,
			})
		}
	}

	if len(manualIDs) > 0 {
		out.OptimizationOpportunities = append(out.OptimizationOpportunities, Opportunity{
			Kind:        OpportunityAutomation,
			StepIDs:     manualIDs,
			Description: fmt.Sprintf("%d step(s) rely on manual handling that could be digitized", len(manualIDs)),
		})
	}
	if len(in.Roles) > 1 {
		for _, role := range SortedRoles(in.Roles) {
			p := in.Roles[role]
			if p.WorkloadFraction > 0.5 {
				out.OptimizationOpportunities = append(out.OptimizationOpportunities, Opportunity{
					Kind:        OpportunityRedistribution,
					Role:        role,
					Description: fmt.Sprintf("%s carries %.0f%% of all steps", role, p.WorkloadFraction*100),
				})
			}
		}
	}
	subs := make(map[int]int)
	mains := make(map[int]StepRecord)
	for _, s := range in.Steps {
		if s.Kind == KindMain {
			mains[s.Major()] = s
		} else {
			subs[s.Major()]++
		}
	}
	majors := make([]int, 0, len(mains))
	for m := range mains {
		majors = append(majors, m)
	}
	sort.Ints(majors)
	for _, m := range majors {
		if subs[m] >= 5 {
			out.OptimizationOpportunities = append(out.OptimizationOpportunities, Opportunity{
				Kind:        OpportunitySimplification,
				StepIDs:     []string{mains[m].StepID},
				Description: fmt.Sprintf("%q has %d sub-steps", mains[m].Text, subs[m]),
			})
		}
	}

	out.RiskFactors = mapRisks(in.Steps, in.Risks)
	return out
}

// mapRisks links each risk to the steps sharing at least one significant
// term with it.
func mapRisks(steps []StepRecord, ra RiskAssessment) []RiskFactor {
	out := []RiskFactor{}
	stepTerms := make([]map[string]bool, len(steps))
	for i, s := range steps {
		stepTerms[i] = SignificantTerms(s.Text)
	}
	for i, risk := range ra.Risks {
		rf := RiskFactor{Risk: risk, AffectedSteps: []string{}}
		if i < len(ra.Mitigations) {
			rf.Mitigation = ra.Mitigations[i]
		}
		riskTerms := SignificantTerms(risk)
		for j, s := range steps {
			for t := range riskTerms {
				if stepTerms[j][t] {
					rf.AffectedSteps = append(rf.AffectedSteps, s.StepID)
					break
				}
			}
		}
		out = append(out, rf)
	}
	return out
}
