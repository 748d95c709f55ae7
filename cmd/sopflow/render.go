package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dusk-indust/sopflow/internal/orchestrator"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
	"github.com/dusk-indust/sopflow/internal/roi"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	levelHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	statusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

func styledLevel(l process.Level) string {
	switch l {
	case process.LevelHigh:
		return levelHigh.Render(string(l))
	case process.LevelMedium:
		return levelMedium.Render(string(l))
	default:
		return levelLow.Render(string(l))
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
}

func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(label+":"), value)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

// renderReport prints a human-readable summary of a pipeline report.
func renderReport(w io.Writer, r *orchestrator.Report) {
	title := r.DocumentSummary.Title
	if title == "" {
		title = "Untitled procedure"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	field(w, "Run", r.RunID)
	if r.Sector != "" {
		field(w, "Sector", r.Sector)
	}

	if pm := r.ProcessMap; pm != nil {
		section(w, "Process")
		field(w, "Steps", len(pm.Steps))
		field(w, "Roles", len(r.RoleAnalysis))
		field(w, "Handoffs", len(pm.Handoffs))
		if pm.Consolidated > 0 {
			field(w, "Consolidated", pm.Consolidated)
		}

		t := newTable("ROLE", "STEPS", "WORKLOAD", "MINUTES")
		for _, name := range process.SortedRoles(r.RoleAnalysis) {
			p := r.RoleAnalysis[name]
			t.Row(name, fmt.Sprint(p.StepCount), fmt.Sprintf("%.0f%%", p.WorkloadFraction*100), fmt.Sprintf("%.0f", p.TotalMinutes))
		}
		fmt.Fprintln(w, t.Render())
	}

	if in := r.ProcessInsights; in != nil && len(in.Bottlenecks) > 0 {
		section(w, "Bottlenecks")
		for _, b := range in.Bottlenecks {
			fmt.Fprintf(w, "  %s %s (%s): %s\n", styledLevel(b.Impact), b.StepID, b.Role, b.Reason)
		}
	}

	if r.PatternAnalysis != nil {
		renderPatterns(w, r.PatternAnalysis)
	}

	if len(r.Benchmarks) > 0 {
		section(w, "Benchmark")
		if s := r.BenchmarkSummary; s != nil {
			field(w, "Digital maturity", fmt.Sprintf("%.1f / 5", s.DigitalMaturity))
			field(w, "Alignment", fmt.Sprintf("%.0f%%", s.Alignment.Overall*100))
		}
		t := newTable("STEP", "METHOD", "GAP", "PRIORITY", "RECOMMENDATION")
		for _, e := range r.Benchmarks {
			t.Row(e.StepID, string(e.CurrentMethod), styledLevel(e.DigitalGap), styledLevel(e.Priority), shorten(e.Recommendation, 60))
		}
		fmt.Fprintln(w, t.Render())
	}

	if r.ROI != nil {
		renderROI(w, r.ROI)
	}

	section(w, "Stages")
	for _, s := range r.Stages {
		if s.Status == orchestrator.StatusSucceeded {
			fmt.Fprintf(w, "  %s %s\n", statusOK.Render("✓"), s.Stage)
		} else {
			fmt.Fprintf(w, "  %s %s: %s\n", statusSkipped.Render("✗"), s.Stage, s.Reason)
		}
	}
	if len(r.Warnings) > 0 {
		section(w, "Warnings")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("!"), msg)
		}
	}

	if r.Diagram != "" {
		section(w, "Diagram")
		fmt.Fprint(w, r.Diagram)
	}
}

// renderPatterns prints clusters, anomalies and role imbalances.
func renderPatterns(w io.Writer, a *pattern.Analysis) {
	section(w, "Patterns")
	field(w, "Analyzed steps", a.AnalyzedSteps)
	if a.ClusterError != "" {
		field(w, "Clustering", a.ClusterError)
	}
	if len(a.Clusters) > 0 {
		t := newTable("ID", "PATTERN", "STEPS", "INEFFICIENCY", "AUTOMATION")
		for _, c := range a.Clusters {
			t.Row(fmt.Sprint(c.ClusterID), c.PatternType, strings.Join(c.StepIDs, " "),
				fmt.Sprintf("%.2f", c.InefficiencyScore), styledLevel(c.AutomationPotential))
		}
		fmt.Fprintln(w, t.Render())
	}
	if a.AnomalyError != "" {
		field(w, "Anomaly detection", a.AnomalyError)
	}
	for _, an := range a.Anomalies {
		fmt.Fprintf(w, "  %s %s [%s] %s\n", warnStyle.Render("anomaly"), an.StepID, an.Kind, an.Issue)
	}
	for _, ri := range a.RoleImbalance {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("imbalance"), ri.Description)
	}
}

// renderROI prints the ROI items and their aggregate.
func renderROI(w io.Writer, r *roi.Report) {
	section(w, "Return on investment")
	t := newTable("STEP", "CATEGORY", "HOURS/MO", "SAVINGS/MO", "COST", "PAYBACK", "ROI %")
	for _, it := range r.Items {
		t.Row(shorten(it.Step, 40), it.Category,
			fmt.Sprintf("%.1f", it.MonthlyTimeSavingsHours),
			fmt.Sprintf("%.2f", it.MonthlyCostSavings),
			fmt.Sprintf("%.2f", it.AdjustedImplementationCost),
			fmt.Sprintf("%.1f", it.PaybackMonths),
			fmt.Sprintf("%.1f", it.AnnualROIPercentage))
	}
	fmt.Fprintln(w, t.Render())

	s := r.Summary
	field(w, "Monthly savings", fmt.Sprintf("%.2f", s.TotalMonthlySavings))
	field(w, "Annual savings", fmt.Sprintf("%.2f", s.TotalAnnualSavings))
	field(w, "Implementation cost", fmt.Sprintf("%.2f", s.TotalImplementationCost))
	field(w, "Payback", fmt.Sprintf("%.1f months", s.OverallPaybackMonths))
	field(w, "Annual ROI", fmt.Sprintf("%.1f%%", s.OverallAnnualROI))
	if len(r.Projection) > 0 {
		last := r.Projection[len(r.Projection)-1]
		field(w, fmt.Sprintf("Net after %d years", last.Year), fmt.Sprintf("%.2f", last.Cumulative))
	}
	if r.Dropped > 0 {
		field(w, "Dropped candidates", r.Dropped)
	}
}

// shorten cuts s to n runes.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
