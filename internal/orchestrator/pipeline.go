package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/export"
	"github.com/dusk-indust/sopflow/internal/graph"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
	"github.com/dusk-indust/sopflow/internal/roi"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator. It delegates stage ordering and input
// validation to a Router, runs the independent pattern analyses and the
// benchmark fetch concurrently, and reports progress through a
// ProgressReporter.
type Pipeline struct {
	cfg      Config
	router   *Router
	progress *ProgressReporter
}

// NewPipeline creates a Pipeline for cfg.
func NewPipeline(cfg Config) (*Pipeline, error) {
	router, err := NewRouter()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		router:   router,
		progress: NewProgressReporter(),
	}, nil
}

// Router returns the stage router.
func (p *Pipeline) Router() *Router { return p.router }

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close ends the progress stream. Callers should invoke this when the
// pipeline is no longer needed.
func (p *Pipeline) Close() {
	if n := p.progress.Dropped(); n > 0 {
		p.cfg.logger().Debug("progress events dropped", "count", n)
	}
	p.progress.Close()
}

// run holds the per-invocation state of Run.
type run struct {
	*Pipeline
	log   *slog.Logger
	pc    *PipelineContext
	store graph.Store
}

// Run analyzes doc against the sector benchmark. An empty sector falls back
// to Config.Sector. The only error returned wraps process.ErrStructure;
// every other failure skips the affected stage and is reported as a
// warning.
func (p *Pipeline) Run(ctx context.Context, doc *process.Document, sector string) (*Report, error) {
	if sector == "" {
		sector = p.cfg.Sector
	}
	runID := uuid.NewString()
	r := &run{
		Pipeline: p,
		log:      p.cfg.logger().With("run_id", runID, "sector", sector),
		pc:       newPipelineContext(),
	}
	r.pc.downstream = p.router.Degraded
	r.log.Info("pipeline started")

	// Flatten is the only stage whose failure aborts the run.
	p.progress.Emit(ProgressEvent{Stage: StageFlatten, Status: ProgressWorking})
	pm, warnings, err := r.flatten(ctx, doc)
	if err != nil {
		p.progress.Emit(ProgressEvent{Stage: StageFlatten, Status: ProgressSkipped, Message: err.Error()})
		r.log.Error("pipeline aborted", "error", err)
		return nil, &StageError{Stage: StageFlatten, Err: err}
	}
	defer r.store.Close()
	r.finish(StageFlatten, pm, nil, warnings...)

	steps := pm.result.Steps
	sampled := pattern.Sample(steps, p.cfg.MaxPatternTexts)
	outcomes := r.concurrent(ctx, sector, sampled)

	for _, stage := range p.router.Order() {
		if stage == StageFlatten {
			continue
		}
		if err := p.router.Check(r.pc, stage); err != nil {
			r.skip(stage, err.Error())
			continue
		}
		switch stage {
		case StageCluster:
			r.cluster(ctx, outcomes[stage])
		case StageDetectAnomalies:
			r.anomalies(outcomes[stage])
		case StageBenchmark:
			r.benchmark(pm, outcomes[stage])
		case StageEstimateROI:
			r.estimateROI(pm)
		case StageAggregate:
			report, warnings := r.aggregate(ctx, pm, runID, sector, len(sampled))
			r.finish(StageAggregate, report, nil, warnings...)
			report.Stages = r.pc.Reports()
			report.Warnings = r.pc.Warnings()
			r.log.Info("pipeline finished", "warnings", len(report.Warnings))
			return report, nil
		}
	}
	return nil, fmt.Errorf("orchestrator: aggregate stage did not run")
}

// flatten validates and flattens doc, then loads the result into the
// process graph to find role handoffs.
func (r *run) flatten(ctx context.Context, doc *process.Document) (*processMap, []string, error) {
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}
	res, err := process.Flatten(doc, process.Options{MaxSteps: r.cfg.MaxSteps})
	if err != nil {
		return nil, nil, err
	}

	warnings := append([]string{}, res.Warnings...)
	if res.CapExceeded {
		warnings = append(warnings, fmt.Sprintf("%d steps remain after consolidation, above the cap of %d", len(res.Steps), r.cfg.MaxSteps))
	}

	store, err := graph.Open(r.cfg.GraphBackend)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("graph backend %q unavailable, using memory: %v", r.cfg.GraphBackend, err))
		store = graph.NewMemStore()
	}
	r.store = store

	pm := &processMap{
		result:   res,
		summary:  doc.Summarize(res),
		handoffs: []graph.Handoff{},
	}
	if err := graph.Build(ctx, store, res.Steps, res.Roles, nil); err != nil {
		warnings = append(warnings, fmt.Sprintf("process graph: %v", err))
	} else {
		if handoffs, err := store.Handoffs(ctx); err != nil {
			warnings = append(warnings, fmt.Sprintf("process graph handoffs: %v", err))
		} else if len(handoffs) > 0 {
			pm.handoffs = handoffs
		}
		if stats, err := store.Stats(ctx); err == nil {
			pm.stats = stats
		}
	}

	pm.insights = process.DetectInsights(process.InsightInput{
		Steps:    res.Steps,
		Roles:    res.Roles,
		Risks:    doc.Sections.RiskAssessment,
		Handoffs: graph.HandoffSteps(pm.handoffs),
	})
	return pm, warnings, nil
}

// concurrent runs clustering, anomaly detection and the benchmark fetch in
// parallel. Outcomes are keyed by the stage that consumes them.
func (r *run) concurrent(ctx context.Context, sector string, sampled []process.StepRecord) map[Stage]stageOutcome {
	tasks := []stageTask{
		{stage: StageCluster, run: func(context.Context) (any, error) {
			return pattern.ClusterSteps(sampled, pattern.ClusterOptions{
				K:           r.cfg.Clusters,
				MaxClusters: r.cfg.MaxClusters,
				Seed:        r.cfg.Seed,
			})
		}},
		{stage: StageDetectAnomalies, run: func(context.Context) (any, error) {
			return pattern.DetectAnomalies(sampled, pattern.AnomalyOptions{
				Contamination: r.cfg.Contamination,
				Seed:          r.cfg.Seed,
			})
		}},
		{stage: StageBenchmark, run: func(ctx context.Context) (any, error) {
			return fetchBenchmark(ctx, r.cfg.source(), sector, r.cfg.BenchmarkTimeout)
		}},
	}

	out := make(map[Stage]stageOutcome, len(tasks))
	for _, o := range fanOut(ctx, tasks, r.progress.Emit) {
		out[o.stage] = o
	}
	return out
}

// fetchResult carries one Source.Fetch answer across goroutines.
type fetchResult struct {
	doc *benchmark.Document
	err error
}

// fetchBenchmark calls src with a deadline and stops waiting when it
// passes, whether or not src honors ctx. A source that ignores ctx finishes
// in the background; its answer is discarded.
func fetchBenchmark(ctx context.Context, src benchmark.Source, sector string, timeout time.Duration) (*benchmark.Document, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fetchResult{err: fmt.Errorf("benchmark: source panic: %v", p)}
			}
		}()
		doc, err := src.Fetch(ctx, sector)
		done <- fetchResult{doc: doc, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, benchmark.Classify(res.err)
		}
		return res.doc, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", benchmark.ErrCollaboratorTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("benchmark: fetch abandoned: %w", ctx.Err())
	}
}

func (r *run) cluster(ctx context.Context, o stageOutcome) {
	clusters, _ := o.output.([]pattern.Cluster)
	var warnings []string
	err := o.err
	if errors.Is(err, pattern.ErrInsufficientData) {
		warnings = append(warnings, err.Error())
		err = nil
	}
	if err == nil {
		if clusters == nil {
			clusters = []pattern.Cluster{}
		}
		if gerr := graph.AddClusters(ctx, r.store, clusters); gerr != nil {
			warnings = append(warnings, fmt.Sprintf("process graph clusters: %v", gerr))
		}
	}
	r.finish(StageCluster, clusters, err, warnings...)
}

func (r *run) anomalies(o stageOutcome) {
	anomalies, _ := o.output.([]pattern.Anomaly)
	var warnings []string
	err := o.err
	if errors.Is(err, pattern.ErrInsufficientData) {
		warnings = append(warnings, err.Error())
		err = nil
	}
	if err == nil && anomalies == nil {
		anomalies = []pattern.Anomaly{}
	}
	r.finish(StageDetectAnomalies, anomalies, err, warnings...)
}

func (r *run) benchmark(pm *processMap, o stageOutcome) {
	if o.err != nil {
		r.finish(StageBenchmark, nil, o.err)
		return
	}
	doc, _ := o.output.(*benchmark.Document)
	res := benchmark.Score(benchmark.Input{
		Steps:    pm.result.Steps,
		Flagged:  r.flagged(pm),
		Roles:    pm.result.Roles,
		Document: doc,
		MaxSteps: r.cfg.MaxBenchmarkSteps,
	})
	r.finish(StageBenchmark, res, nil)
}

// flagged marks bottleneck steps and members of clusters with high
// automation potential.
func (r *run) flagged(pm *processMap) map[string]bool {
	out := make(map[string]bool)
	for _, b := range pm.insights.Bottlenecks {
		out[b.StepID] = true
	}
	clusters, _ := outputOf[[]pattern.Cluster](r.pc, StageCluster)
	for _, c := range clusters {
		if c.AutomationPotential != process.LevelHigh {
			continue
		}
		for _, id := range c.StepIDs {
			out[id] = true
		}
	}
	return out
}

func (r *run) estimateROI(pm *processMap) {
	clusters, _ := outputOf[[]pattern.Cluster](r.pc, StageCluster)
	var entries []benchmark.Entry
	if res, ok := outputOf[*benchmark.Result](r.pc, StageBenchmark); ok {
		entries = res.Entries
	}
	items := roi.BuildCandidates(pm.result.Steps, clusters, entries, roi.CandidateDefaults{
		FrequencyPerMonth:  r.cfg.FrequencyPerMonth,
		HourlyCost:         r.cfg.HourlyCost,
		ImplementationCost: r.cfg.ImplementationCost,
	})
	calc := roi.Calculator{
		HourlyCost:      r.cfg.HourlyCost,
		MaintenanceRate: r.cfg.MaintenanceRate,
		MaxItems:        r.cfg.MaxROIItems,
		QuickWinMonths:  r.cfg.QuickWinMonths,
	}
	report, err := calc.Calculate(items)
	var warnings []string
	if err == nil && report.Dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d lower-savings candidates dropped", report.Dropped))
	}
	r.finish(StageEstimateROI, report, err, warnings...)
}

// aggregate assembles the report from every stage that succeeded.
func (r *run) aggregate(ctx context.Context, pm *processMap, runID, sector string, analyzed int) (*Report, []string) {
	insights := pm.insights
	report := &Report{
		RunID:           runID,
		Sector:          sector,
		DocumentSummary: pm.summary,
		ProcessMap:      pm.public(),
		RoleAnalysis:    pm.result.Roles,
		ProcessInsights: &insights,
		Benchmarks:      []benchmark.Entry{},
	}

	analysis := &pattern.Analysis{
		AnalyzedSteps: analyzed,
		RoleImbalance: pattern.DetectRoleImbalance(pm.result.Steps, pm.result.Roles),
	}
	if clusters, ok := outputOf[[]pattern.Cluster](r.pc, StageCluster); ok {
		analysis.Clusters = clusters
	} else {
		analysis.ClusterError = r.reason(StageCluster)
	}
	if anomalies, ok := outputOf[[]pattern.Anomaly](r.pc, StageDetectAnomalies); ok {
		analysis.Anomalies = anomalies
	} else {
		analysis.AnomalyError = r.reason(StageDetectAnomalies)
	}
	report.PatternAnalysis = analysis

	if res, ok := outputOf[*benchmark.Result](r.pc, StageBenchmark); ok {
		report.Benchmarks = res.Entries
		report.BenchmarkSummary = summarizeBenchmark(res)
		if report.Sector == "" {
			report.Sector = res.Sector
		}
	}
	if res, ok := outputOf[*roi.Report](r.pc, StageEstimateROI); ok {
		report.ROI = res
	}

	var warnings []string
	if r.cfg.Diagram {
		diagram, err := export.GenerateMermaid(ctx, r.store)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("diagram: %v", err))
		} else {
			report.Diagram = diagram
		}
	}
	return report, warnings
}

func (r *run) reason(stage Stage) string {
	return r.pc.reports[stage].Reason
}

// finish records a stage outcome, then logs it and emits progress.
func (r *run) finish(stage Stage, output any, err error, warnings ...string) {
	r.pc.advance(stage, output, err, warnings...)
	if err != nil {
		r.log.Warn("stage skipped", "stage", stage.String(), "reason", err.Error())
		r.progress.Emit(ProgressEvent{Stage: stage, Status: ProgressSkipped, Message: err.Error()})
		return
	}
	r.log.Info("stage complete", "stage", stage.String(), "warnings", len(warnings))
	r.progress.Emit(ProgressEvent{Stage: stage, Status: ProgressComplete, Message: completion(output)})
}

func (r *run) skip(stage Stage, reason string) {
	r.pc.skip(stage, reason)
	r.log.Warn("stage skipped", "stage", stage.String(), "reason", reason)
	r.progress.Emit(ProgressEvent{Stage: stage, Status: ProgressSkipped, Message: reason})
}

// completion summarizes a stage output for progress messages.
func completion(output any) string {
	switch v := output.(type) {
	case *processMap:
		return fmt.Sprintf("%d steps, %d roles", len(v.result.Steps), len(v.result.Roles))
	case []pattern.Cluster:
		return fmt.Sprintf("%d clusters", len(v))
	case []pattern.Anomaly:
		return fmt.Sprintf("%d anomalies", len(v))
	case *benchmark.Result:
		return fmt.Sprintf("%d steps benchmarked", len(v.Entries))
	case *roi.Report:
		return fmt.Sprintf("%d ROI items", len(v.Items))
	default:
		return ""
	}
}
