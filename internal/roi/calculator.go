package roi

import (
	"math"
	"sort"
	"strings"
)

// epsilon keeps payback finite when savings are negligible.
const epsilon = 0.01

// errorCostShare models error costs as this share of labor cost.
const errorCostShare = 0.1

// Defaults used by Calculator when a field is left zero.
const (
	DefaultMaxItems        = 15
	DefaultMaintenanceRate = 0.1
	DefaultQuickWinMonths  = 6
	ProjectionYears        = 3
)

// Categories.
const (
	CategoryQuickWin  = "quick_win"
	CategoryStrategic = "strategic"
)

var multipliers = map[string]float64{
	"high":   0.8,
	"medium": 0.5,
	"low":    0.2,
}

// Multiplier returns the automation multiplier for an item.
func Multiplier(item Item) float64 {
	if item.AutomationOverride != nil {
		return math.Min(1, math.Max(0, *item.AutomationOverride))
	}
	if m, ok := multipliers[strings.ToLower(strings.TrimSpace(item.AutomationPotential))]; ok {
		return m
	}
	return 0.5
}

// Result is the evaluated ROI of one item.
type Result struct {
	Step                       string  `json:"step"`
	StepID                     string  `json:"step_id,omitempty"`
	Category                   string  `json:"category"`
	AutomationMultiplier       float64 `json:"automation_multiplier"`
	AdjustedImplementationCost float64 `json:"adjusted_implementation_cost"`
	MonthlyTimeSavingsHours    float64 `json:"monthly_time_savings_hours"`
	MonthlyCostSavings         float64 `json:"monthly_cost_savings"`
	AnnualSavings              float64 `json:"annual_savings"`
	PaybackMonths              float64 `json:"payback_months"`
	AnnualROIPercentage        float64 `json:"annual_roi_percentage"`

	hours    float64
	savings  float64
	adjusted float64
}

// Evaluate computes the ROI of a single item. Outputs are rounded: money to
// 2 decimals, hours, months and percentages to 1.
func Evaluate(item Item) Result {
	factor := item.ComplexityFactor
	if factor == 0 {
		factor = 1.0
	}
	mult := Multiplier(item)
	adjusted := item.ImplementationCost * factor
	hours := item.TimePerTaskMinutes / 60 * item.FrequencyPerMonth * mult
	savings := hours * item.HourlyCost
	if acc, ok := item.ExpectedBenefits["accuracy_improvement"]; ok {
		savings += savings * errorCostShare * acc.Fraction()
	}

	return Result{
		Step:                       item.Step,
		StepID:                     item.StepID,
		AutomationMultiplier:       mult,
		AdjustedImplementationCost: money(adjusted),
		MonthlyTimeSavingsHours:    tenth(hours),
		MonthlyCostSavings:         money(savings),
		AnnualSavings:              money(savings * 12),
		PaybackMonths:              tenth(payback(adjusted, savings)),
		AnnualROIPercentage:        tenth(annualROI(adjusted, savings)),
		hours:                      hours,
		savings:                    savings,
		adjusted:                   adjusted,
	}
}

func payback(cost, monthlySavings float64) float64 {
	return cost / (monthlySavings + epsilon)
}

func annualROI(cost, monthlySavings float64) float64 {
	if cost == 0 {
		return 0
	}
	return (monthlySavings*12 - cost) / cost * 100
}

// Summary aggregates all evaluated items.
type Summary struct {
	TotalMonthlySavings     float64 `json:"total_monthly_savings"`
	TotalAnnualSavings      float64 `json:"total_annual_savings"`
	TotalImplementationCost float64 `json:"total_implementation_cost"`
	TotalMonthlyHours       float64 `json:"total_monthly_hours_saved"`
	OverallPaybackMonths    float64 `json:"overall_payback_months"`
	OverallAnnualROI        float64 `json:"overall_annual_roi_percentage"`
}

// YearProjection is one year of the multi-year projection.
type YearProjection struct {
	Year       int     `json:"year"`
	Savings    float64 `json:"savings"`
	Cost       float64 `json:"cost"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// Scenario is one sensitivity case.
type Scenario struct {
	MonthlySavings      float64 `json:"monthly_savings"`
	ImplementationCost  float64 `json:"implementation_cost"`
	PaybackMonths       float64 `json:"payback_months"`
	AnnualROIPercentage float64 `json:"annual_roi_percentage"`
}

// Sensitivity brackets the summary with optimistic and pessimistic cases.
type Sensitivity struct {
	Base      Scenario `json:"base_case"`
	BestCase  Scenario `json:"best_case"`
	WorstCase Scenario `json:"worst_case"`
}

// Phases groups item steps by category.
type Phases struct {
	QuickWins []string `json:"phase_1_quick_wins"`
	Strategic []string `json:"phase_2_strategic"`
}

// Report is the ROI Calculator output.
type Report struct {
	Items       []Result         `json:"roi_items"`
	Summary     Summary          `json:"summary"`
	Projection  []YearProjection `json:"multi_year_projection"`
	Sensitivity Sensitivity      `json:"sensitivity_analysis"`
	Phases      Phases           `json:"implementation_phases"`
	// Dropped counts candidates removed by the item cap.
	Dropped int `json:"dropped,omitempty"`
}

// Calculator evaluates a candidate list. The zero value uses the package
// defaults.
type Calculator struct {
	// HourlyCost fills items whose own hourly cost is zero.
	HourlyCost      float64
	MaintenanceRate float64
	MaxItems        int
	QuickWinMonths  float64
}

// Calculate evaluates items, keeps the ones with the highest expected
// annual savings up to the cap, and aggregates them. An empty list yields
// ErrNoCandidates.
func (c Calculator) Calculate(items []Item) (*Report, error) {
	if len(items) == 0 {
		return nil, ErrNoCandidates
	}
	maxItems := c.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	quickWin := c.QuickWinMonths
	if quickWin <= 0 {
		quickWin = DefaultQuickWinMonths
	}
	maintenance := c.MaintenanceRate
	if maintenance <= 0 {
		maintenance = DefaultMaintenanceRate
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		if item.HourlyCost == 0 {
			item.HourlyCost = c.HourlyCost
		}
		results = append(results, Evaluate(item))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].savings > results[j].savings
	})

	report := &Report{
		Phases: Phases{QuickWins: []string{}, Strategic: []string{}},
	}
	if len(results) > maxItems {
		report.Dropped = len(results) - maxItems
		results = results[:maxItems]
	}

	var savings, cost, hours float64
	for i := range results {
		r := &results[i]
		savings += r.savings
		cost += r.adjusted
		hours += r.hours
		if r.PaybackMonths <= quickWin {
			r.Category = CategoryQuickWin
			report.Phases.QuickWins = append(report.Phases.QuickWins, r.Step)
		} else {
			r.Category = CategoryStrategic
			report.Phases.Strategic = append(report.Phases.Strategic, r.Step)
		}
	}
	report.Items = results
	report.Summary = Summary{
		TotalMonthlySavings:     money(savings),
		TotalAnnualSavings:      money(savings * 12),
		TotalImplementationCost: money(cost),
		TotalMonthlyHours:       tenth(hours),
		OverallPaybackMonths:    tenth(payback(cost, savings)),
		OverallAnnualROI:        tenth(annualROI(cost, savings)),
	}
	report.Projection = project(savings, cost, maintenance)
	report.Sensitivity = Sensitivity{
		Base:      scenario(savings, cost),
		BestCase:  scenario(savings*1.2, cost*0.9),
		WorstCase: scenario(savings*0.7, cost*1.2),
	}
	return report, nil
}

// project spreads the investment over ProjectionYears: the full cost in the
// first year, maintenance afterwards.
func project(monthlySavings, cost, maintenance float64) []YearProjection {
	out := make([]YearProjection, 0, ProjectionYears)
	cumulative := 0.0
	for year := 1; year <= ProjectionYears; year++ {
		yearCost := cost
		if year > 1 {
			yearCost = cost * maintenance
		}
		net := monthlySavings*12 - yearCost
		cumulative += net
		out = append(out, YearProjection{
			Year:       year,
			Savings:    money(monthlySavings * 12),
			Cost:       money(yearCost),
			Net:        money(net),
			Cumulative: money(cumulative),
		})
	}
	return out
}

func scenario(monthlySavings, cost float64) Scenario {
	return Scenario{
		MonthlySavings:      money(monthlySavings),
		ImplementationCost:  money(cost),
		PaybackMonths:       tenth(payback(cost, monthlySavings)),
		AnnualROIPercentage: tenth(annualROI(cost, monthlySavings)),
	}
}

func money(v float64) float64 { return math.Round(v*100) / 100 }

func tenth(v float64) float64 { return math.Round(v*10) / 10 }
