package mcptools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/sopflow/internal/benchdata"
	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
	"github.com/dusk-indust/sopflow/internal/process"
	"github.com/dusk-indust/sopflow/internal/roi"
)

// AnalysisService handles MCP tool calls. It wraps an Orchestrator to run
// the full pipeline and reuses the configured ROI defaults for standalone
// calculations.
type AnalysisService struct {
	pipeline orchestrator.Orchestrator
	cfg      orchestrator.Config
}

// NewAnalysisService creates an AnalysisService with the given pipeline and config.
func NewAnalysisService(pipeline orchestrator.Orchestrator, cfg orchestrator.Config) *AnalysisService {
	return &AnalysisService{
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// AnalyzeProcess runs the pipeline over a procedure document given by path
// or inline.
func (s *AnalysisService) AnalyzeProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeProcessInput,
) (*mcp.CallToolResult, AnalyzeProcessOutput, error) {
	doc, err := loadDocument(input)
	if err != nil {
		return nil, AnalyzeProcessOutput{}, err
	}

	report, err := s.pipeline.Run(ctx, doc, input.Sector)
	if err != nil {
		return nil, AnalyzeProcessOutput{}, err
	}

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, report); err != nil {
		return nil, AnalyzeProcessOutput{}, err
	}
	out := summarizeReport(report)
	out.Report = buf.String()
	return nil, out, nil
}

func loadDocument(input AnalyzeProcessInput) (*process.Document, error) {
	switch {
	case input.Path != "":
		return process.LoadDocument(input.Path)
	case strings.TrimSpace(input.Document) != "":
		format := process.FormatJSON
		switch strings.ToLower(input.Format) {
		case "", "json":
		case "yaml", "yml":
			format = process.FormatYAML
		default:
			return nil, fmt.Errorf("unsupported document format %q", input.Format)
		}
		return process.ParseDocument([]byte(input.Document), format)
	default:
		return nil, errors.New("either path or document is required")
	}
}

func summarizeReport(r *orchestrator.Report) AnalyzeProcessOutput {
	out := AnalyzeProcessOutput{
		RunID:       r.RunID,
		Sector:      r.Sector,
		Title:       r.DocumentSummary.Title,
		Roles:       len(r.RoleAnalysis),
		Benchmarked: len(r.Benchmarks),
		Stages:      make([]StageSummary, 0, len(r.Stages)),
		Warnings:    r.Warnings,
	}
	if pm := r.ProcessMap; pm != nil {
		out.Steps = len(pm.Steps)
		out.Handoffs = len(pm.Handoffs)
	}
	if r.ProcessInsights != nil {
		out.Bottlenecks = len(r.ProcessInsights.Bottlenecks)
	}
	if pa := r.PatternAnalysis; pa != nil {
		out.Clusters = len(pa.Clusters)
		out.Anomalies = len(pa.Anomalies)
	}
	if r.BenchmarkSummary != nil {
		out.DigitalMaturity = r.BenchmarkSummary.DigitalMaturity
	}
	if r.ROI != nil {
		out.TotalMonthlySavings = r.ROI.Summary.TotalMonthlySavings
		out.TotalAnnualSavings = r.ROI.Summary.TotalAnnualSavings
		out.OverallPaybackMonths = r.ROI.Summary.OverallPaybackMonths
	}
	for _, st := range r.Stages {
		out.Stages = append(out.Stages, StageSummary{
			Stage:  st.Stage.String(),
			Status: string(st.Status),
			Reason: st.Reason,
		})
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}

// CalculateROI evaluates a list of automation candidates without running
// the rest of the pipeline.
func (s *AnalysisService) CalculateROI(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CalculateROIInput,
) (*mcp.CallToolResult, CalculateROIOutput, error) {
	items := make([]roi.Item, 0, len(input.Items))
	for _, in := range input.Items {
		item := roi.Item{
			Step:                in.Step,
			TimePerTaskMinutes:  in.TimePerTaskMinutes,
			FrequencyPerMonth:   in.FrequencyPerMonth,
			HourlyCost:          in.HourlyCost,
			ImplementationCost:  in.ImplementationCost,
			ComplexityFactor:    in.ComplexityFactor,
			AutomationPotential: in.AutomationPotential,
			AutomationOverride:  in.AutomationOverride,
		}
		if in.AccuracyImprovement > 0 {
			item.ExpectedBenefits = map[string]roi.Percent{
				benchmark.BenefitAccuracy: roi.Percent(in.AccuracyImprovement),
			}
		}
		items = append(items, item)
	}

	calc := roi.Calculator{
		HourlyCost:      s.cfg.HourlyCost,
		MaintenanceRate: s.cfg.MaintenanceRate,
		MaxItems:        s.cfg.MaxROIItems,
		QuickWinMonths:  s.cfg.QuickWinMonths,
	}
	report, err := calc.Calculate(items)
	if err != nil {
		return nil, CalculateROIOutput{}, err
	}

	out := CalculateROIOutput{
		Items:                   make([]ROIItemOutput, 0, len(report.Items)),
		TotalMonthlySavings:     report.Summary.TotalMonthlySavings,
		TotalAnnualSavings:      report.Summary.TotalAnnualSavings,
		TotalImplementationCost: report.Summary.TotalImplementationCost,
		OverallPaybackMonths:    report.Summary.OverallPaybackMonths,
		OverallAnnualROI:        report.Summary.OverallAnnualROI,
		QuickWins:               report.Phases.QuickWins,
		Strategic:               report.Phases.Strategic,
		Dropped:                 report.Dropped,
	}
	for _, r := range report.Items {
		out.Items = append(out.Items, ROIItemOutput{
			Step:                       r.Step,
			Category:                   r.Category,
			AutomationMultiplier:       r.AutomationMultiplier,
			AdjustedImplementationCost: r.AdjustedImplementationCost,
			MonthlyTimeSavingsHours:    r.MonthlyTimeSavingsHours,
			MonthlyCostSavings:         r.MonthlyCostSavings,
			AnnualSavings:              r.AnnualSavings,
			PaybackMonths:              r.PaybackMonths,
			AnnualROIPercentage:        r.AnnualROIPercentage,
		})
	}
	return nil, out, nil
}

// ListSectors reports the sectors with an embedded benchmark text.
func (s *AnalysisService) ListSectors(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSectorsInput,
) (*mcp.CallToolResult, ListSectorsOutput, error) {
	sectors := benchdata.Sectors()
	if sectors == nil {
		sectors = []string{}
	}
	return nil, ListSectorsOutput{Sectors: sectors}, nil
}
