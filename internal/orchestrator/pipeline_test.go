package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/graph"
	"github.com/dusk-indust/sopflow/internal/process"
)

// receivingDoc is a goods-receiving procedure with three roles and a mix of
// manual and system steps.
func receivingDoc() *process.Document {
	return &process.Document{
		Title:        "Goods Receiving",
		DocumentInfo: process.DocumentInfo{DocNo: "SOP-WH-004", Version: "2"},
		Sections: process.Sections{
			Purpose: "Receive supplier deliveries into stock",
			RiskAssessment: process.RiskAssessment{
				Risks:       []string{"Short delivery not detected"},
				Mitigations: []string{"Count every carton against the delivery note"},
			},
			Procedure: []process.MainStep{
				{StepNumber: 1, Title: "Receive delivery at the dock", Role: "Storeman", SubSteps: []process.SubStep{
					{Text: "Check the delivery note against the purchase order"},
					{Text: "Count cartons manually and write totals on paper"},
				}},
				{StepNumber: 2, Title: "Inspect goods for damage", Role: "Supervisor", SubSteps: []process.SubStep{
					{Text: "Photograph damaged cartons"},
					{Text: "Sign the paper delivery note"},
				}},
				{StepNumber: 3, Title: "Record receipt", Role: "Clerk", SubSteps: []process.SubStep{
					{Text: "Type the paper totals into the stock spreadsheet"},
					{Text: "Email the supplier about any shortage"},
					{Text: "File the signed delivery note in the paper archive"},
				}},
				{StepNumber: 4, Title: "Shelve stock", Role: "Storeman", SubSteps: []process.SubStep{
					{Text: "Move pallets to the storage racks"},
				}},
			},
		},
	}
}

const warehouseBenchmark = "Leading warehouses use barcode scanning at the dock to record receipts automatically. " +
	"Digital delivery notes remove paper filing. " +
	"Integrated stock systems update inventory in real time. " +
	"Staff training in digital tools improves adoption."

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Source = benchmark.StaticSource{Doc: benchmark.Document{
		Sector:          "wholesale-trade",
		SourceReference: "test",
		Content:         warehouseBenchmark,
	}}
	cfg.BenchmarkTimeout = time.Second
	return cfg
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func stageStatus(r *Report, stage Stage) StageStatus {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Status
		}
	}
	return ""
}

func TestPipeline_Run_AllStagesSucceed(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "wholesale-trade", report.Sector)
	assert.Equal(t, "Goods Receiving", report.DocumentSummary.Title)
	assert.Equal(t, 4, report.DocumentSummary.MainSteps)

	require.NotNil(t, report.ProcessMap)
	assert.Len(t, report.ProcessMap.Steps, 12)
	require.NotNil(t, report.ProcessMap.Graph)
	assert.Equal(t, 12, report.ProcessMap.Graph.StepCount)
	assert.NotEmpty(t, report.ProcessMap.Handoffs)
	assert.Len(t, report.RoleAnalysis, 3)
	require.NotNil(t, report.ProcessInsights)

	require.NotNil(t, report.PatternAnalysis)
	assert.NotEmpty(t, report.PatternAnalysis.Clusters)
	assert.Empty(t, report.PatternAnalysis.ClusterError)
	assert.Empty(t, report.PatternAnalysis.AnomalyError)
	assert.Equal(t, 12, report.PatternAnalysis.AnalyzedSteps)

	assert.NotEmpty(t, report.Benchmarks)
	require.NotNil(t, report.BenchmarkSummary)
	assert.Equal(t, "test", report.BenchmarkSummary.SourceReference)

	require.NotNil(t, report.ROI)
	assert.NotEmpty(t, report.ROI.Items)

	require.Len(t, report.Stages, len(AllStages))
	for i, s := range report.Stages {
		assert.Equal(t, AllStages[i], s.Stage)
		assert.Equal(t, StatusSucceeded, s.Status, "stage %s", s.Stage)
	}
	assert.NotNil(t, report.Warnings)
	assert.Empty(t, report.Diagram)
}

func TestPipeline_Run_UsesConfiguredSector(t *testing.T) {
	cfg := testConfig()
	cfg.Sector = "logistics"
	p := newTestPipeline(t, cfg)

	report, err := p.Run(context.Background(), receivingDoc(), "")
	require.NoError(t, err)
	assert.Equal(t, "logistics", report.Sector)
}

func TestPipeline_Run_Deterministic(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	first, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	second, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.PatternAnalysis, second.PatternAnalysis)
	assert.Equal(t, first.Benchmarks, second.Benchmarks)
	assert.Equal(t, first.ROI, second.ROI)
}

// blockingSource never answers before its context ends.
type blockingSource struct{}

func (blockingSource) Fetch(ctx context.Context, _ string) (*benchmark.Document, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("%w: %v", benchmark.ErrCollaboratorTimeout, ctx.Err())
}

func TestPipeline_Run_BenchmarkTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Source = blockingSource{}
	cfg.BenchmarkTimeout = 20 * time.Millisecond
	p := newTestPipeline(t, cfg)

	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)

	require.NotNil(t, report.ProcessMap)
	assert.NotEmpty(t, report.ProcessMap.Steps)
	require.NotNil(t, report.PatternAnalysis)
	assert.NotEmpty(t, report.PatternAnalysis.Clusters)
	assert.NotNil(t, report.Benchmarks)
	assert.Empty(t, report.Benchmarks)
	assert.Nil(t, report.BenchmarkSummary)

	assert.Equal(t, StatusSkipped, stageStatus(report, StageBenchmark))
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageFlatten))
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageCluster))
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageAggregate))

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "benchmark") {
			found = true
			assert.Contains(t, w, "timed out")
		}
	}
	assert.True(t, found, "warnings %v should name the benchmark stage", report.Warnings)
}

// deafSource ignores ctx and answers only once release is closed.
type deafSource struct{ release chan struct{} }

func (s deafSource) Fetch(context.Context, string) (*benchmark.Document, error) {
	<-s.release
	return &benchmark.Document{Content: warehouseBenchmark}, nil
}

// rawDeadlineSource reports the bare context error on expiry.
type rawDeadlineSource struct{}

func (rawDeadlineSource) Fetch(ctx context.Context, _ string) (*benchmark.Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func timeoutWarning(t *testing.T, r *Report) string {
	t.Helper()
	for _, w := range r.Warnings {
		if strings.HasPrefix(w, "benchmark") {
			return w
		}
	}
	t.Fatalf("no benchmark warning in %v", r.Warnings)
	return ""
}

func TestPipeline_Run_TimeoutWithSourceIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	cfg := testConfig()
	cfg.Source = deafSource{release: release}
	cfg.BenchmarkTimeout = 20 * time.Millisecond
	p := newTestPipeline(t, cfg)

	start := time.Now()
	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, StatusSkipped, stageStatus(report, StageBenchmark))
	assert.Empty(t, report.Benchmarks)
	assert.Contains(t, timeoutWarning(t, report), benchmark.ErrCollaboratorTimeout.Error())
	require.NotNil(t, report.ProcessMap)
	require.NotNil(t, report.PatternAnalysis)
}

func TestPipeline_Run_RawDeadlineIsClassified(t *testing.T) {
	cfg := testConfig()
	cfg.Source = rawDeadlineSource{}
	cfg.BenchmarkTimeout = 20 * time.Millisecond
	p := newTestPipeline(t, cfg)

	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	assert.Contains(t, timeoutWarning(t, report), benchmark.ErrCollaboratorTimeout.Error())
}

func TestFetchBenchmark(t *testing.T) {
	src := benchmark.StaticSource{Doc: benchmark.Document{Sector: "retail", Content: "text"}}
	doc, err := fetchBenchmark(context.Background(), src, "retail", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "text", doc.Content)

	release := make(chan struct{})
	defer close(release)
	_, err = fetchBenchmark(context.Background(), deafSource{release: release}, "retail", 10*time.Millisecond)
	assert.ErrorIs(t, err, benchmark.ErrCollaboratorTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetchBenchmark(ctx, deafSource{release: release}, "retail", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, benchmark.ErrCollaboratorTimeout)
}

func TestPipeline_Run_StructureErrorAborts(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	doc := receivingDoc()
	doc.Sections.Procedure = nil

	report, err := p.Run(context.Background(), doc, "retail")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, process.ErrStructure))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageFlatten, se.Stage)
}

func TestPipeline_Run_RepairedInputIsReported(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	doc := receivingDoc()
	doc.Sections.Procedure[1].Title = ""
	doc.Sections.Procedure[2].SubSteps[1].Text = "   "

	report, err := p.Run(context.Background(), doc, "wholesale-trade")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageFlatten))
	assert.Contains(t, report.Warnings, `flatten: main step 2 has no title, using "Step 2"`)
	assert.Contains(t, report.Warnings, "flatten: main step 3: sub-step 2 is blank, dropped")
}

func TestPipeline_Run_SingleStepDegrades(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	doc := &process.Document{
		Title: "Petty cash",
		Sections: process.Sections{Procedure: []process.MainStep{
			{StepNumber: 1, Title: "Record petty cash on the paper voucher", Role: "Cashier"},
		}},
	}

	report, err := p.Run(context.Background(), doc, "retail")
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, stageStatus(report, StageCluster))
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageDetectAnomalies))
	require.NotNil(t, report.PatternAnalysis)
	require.Len(t, report.PatternAnalysis.Clusters, 1)
	assert.Empty(t, report.PatternAnalysis.Anomalies)

	var insufficient int
	for _, w := range report.Warnings {
		if strings.Contains(w, "insufficient data") {
			insufficient++
		}
	}
	assert.Equal(t, 2, insufficient, "warnings: %v", report.Warnings)
}

func TestPipeline_Run_Diagram(t *testing.T) {
	cfg := testConfig()
	cfg.Diagram = true
	p := newTestPipeline(t, cfg)

	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.Diagram, "flowchart TD\n"))
	assert.Contains(t, report.Diagram, "subgraph")
	assert.Contains(t, report.Diagram, "-.->")
}

// unreadableStore fails every Steps read.
type unreadableStore struct{ graph.Store }

func (unreadableStore) Steps(context.Context) ([]graph.StepNode, error) {
	return nil, errors.New("store closed")
}

func TestRun_AggregateDiagramFailureIsWarning(t *testing.T) {
	cfg := testConfig()
	cfg.Diagram = true
	p := newTestPipeline(t, cfg)
	r := &run{Pipeline: p, log: cfg.logger(), pc: newPipelineContext()}

	ctx := context.Background()
	pm, _, err := r.flatten(ctx, receivingDoc())
	require.NoError(t, err)
	defer r.store.Close()
	r.finish(StageFlatten, pm, nil)

	r.store = unreadableStore{Store: r.store}
	report, warnings := r.aggregate(ctx, pm, "run-1", "retail", 0)
	r.finish(StageAggregate, report, nil, warnings...)

	assert.Empty(t, report.Diagram)
	assert.True(t, r.pc.Succeeded(StageAggregate))
	assert.Equal(t, []string{"aggregate: diagram: get steps: store closed"}, r.pc.Warnings())
}

func TestPipeline_Run_SkipWarningNamesDegradedStages(t *testing.T) {
	cfg := testConfig()
	cfg.Source = rawDeadlineSource{}
	cfg.BenchmarkTimeout = 10 * time.Millisecond
	p := newTestPipeline(t, cfg)

	report, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	w := timeoutWarning(t, report)
	assert.True(t, strings.HasSuffix(w, "(degrades estimate_roi)"), w)

	// Aggregate runs regardless, so it is never listed.
	for _, w := range report.Warnings {
		assert.NotContains(t, w, "degrades aggregate")
	}
}

func TestPipeline_Run_ROISkippedWithoutCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.Source = benchmark.StaticSource{Doc: benchmark.Document{
		Content: "Automated systems scan and record every step digitally.",
	}}
	p := newTestPipeline(t, cfg)

	// Every step already runs on a system, so nothing has a digital gap.
	doc := &process.Document{
		Title: "Automated billing",
		Sections: process.Sections{Procedure: []process.MainStep{
			{StepNumber: 1, Title: "Update the ERP system", Role: "Clerk"},
			{StepNumber: 2, Title: "Generate invoices in billing software", Role: "Clerk"},
			{StepNumber: 3, Title: "Publish statements through online portal", Role: "Clerk"},
		}},
	}

	report, err := p.Run(context.Background(), doc, "retail")
	require.NoError(t, err)
	require.NotNil(t, report.PatternAnalysis)

	assert.Nil(t, report.ROI)
	assert.Equal(t, StatusSkipped, stageStatus(report, StageEstimateROI))
	assert.Equal(t, StatusSucceeded, stageStatus(report, StageAggregate))
	assert.Contains(t, report.Warnings, "estimate_roi skipped: roi: no automation candidates")
}

func TestPipeline_Progress(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	_, err := p.Run(context.Background(), receivingDoc(), "wholesale-trade")
	require.NoError(t, err)
	p.Close()

	completed := make(map[Stage]bool)
	for ev := range p.Progress() {
		if ev.Status == ProgressComplete {
			completed[ev.Stage] = true
		}
	}
	for _, s := range AllStages {
		assert.True(t, completed[s], "stage %s should report completion", s)
	}
}
