package orchestrator

import (
	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/graph"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
	"github.com/dusk-indust/sopflow/internal/roi"
)

// Report is the aggregated result of one run. Sections whose stage was
// skipped are nil; Benchmarks and Warnings are never nil.
type Report struct {
	RunID            string                         `json:"run_id"`
	Sector           string                         `json:"sector"`
	DocumentSummary  process.Summary                `json:"document_summary"`
	ProcessMap       *ProcessMap                    `json:"process_map,omitempty"`
	RoleAnalysis     map[string]process.RoleProfile `json:"role_analysis,omitempty"`
	ProcessInsights  *process.Insights              `json:"process_insights,omitempty"`
	PatternAnalysis  *pattern.Analysis              `json:"pattern_analysis,omitempty"`
	Benchmarks       []benchmark.Entry              `json:"benchmarks"`
	BenchmarkSummary *BenchmarkSummary              `json:"benchmark_summary,omitempty"`
	ROI              *roi.Report                    `json:"roi,omitempty"`
	Diagram          string                         `json:"diagram,omitempty"`
	Stages           []StageReport                  `json:"stages"`
	Warnings         []string                       `json:"warnings"`
}

// ProcessMap is the flattened workflow together with its graph view.
type ProcessMap struct {
	Steps        []process.StepRecord `json:"steps"`
	Handoffs     []graph.Handoff      `json:"handoffs"`
	Consolidated int                  `json:"consolidated_steps,omitempty"`
	CapExceeded  bool                 `json:"cap_exceeded,omitempty"`
	Graph        *graph.GraphStats    `json:"graph,omitempty"`
}

// BenchmarkSummary is the document-level part of the benchmark result; the
// per-step entries live in Report.Benchmarks.
type BenchmarkSummary struct {
	SourceReference    string                                  `json:"source_reference"`
	Alignment          benchmark.Alignment                     `json:"idp_alignment_score"`
	DigitalMaturity    float64                                 `json:"digital_maturity"`
	QuickWins          []benchmark.Initiative                  `json:"quick_wins"`
	Strategic          []benchmark.Initiative                  `json:"strategic_initiatives"`
	RoleTransformation map[string]benchmark.RoleTransformation `json:"role_transformation_analysis"`
}

// processMap is the flatten stage output stored in the PipelineContext.
type processMap struct {
	result   *process.Result
	summary  process.Summary
	insights process.Insights
	handoffs []graph.Handoff
	stats    *graph.GraphStats
}

func (pm *processMap) public() *ProcessMap {
	return &ProcessMap{
		Steps:        pm.result.Steps,
		Handoffs:     pm.handoffs,
		Consolidated: pm.result.Consolidated,
		CapExceeded:  pm.result.CapExceeded,
		Graph:        pm.stats,
	}
}

func summarizeBenchmark(r *benchmark.Result) *BenchmarkSummary {
	return &BenchmarkSummary{
		SourceReference:    r.SourceReference,
		Alignment:          r.Alignment,
		DigitalMaturity:    r.DigitalMaturity,
		QuickWins:          r.QuickWins,
		Strategic:          r.Strategic,
		RoleTransformation: r.RoleTransformation,
	}
}
