package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sopflow/internal/orchestrator"
	"github.com/dusk-indust/sopflow/internal/process"
)

const dispatchJSON = `{
  "title": "Outbound Dispatch",
  "document_info": {"doc_no": "SOP-LOG-002", "version": "1", "date": "2024-03-01"},
  "sections": {
    "purpose": "Ship customer orders on time",
    "risk_assessment": {"risks": ["Wrong order shipped"], "mitigations": ["Check the picking list twice"]},
    "procedure": [
      {"step_number": 1, "title": "Pick order items", "role": "Picker",
       "sub_steps": ["Print the picking list", "Collect items from shelves by hand"]},
      {"step_number": 2, "title": "Pack order", "role": "Packer",
       "sub_steps": ["Write the address label manually"]},
      {"step_number": 3, "title": "Book courier through the online portal", "role": "Dispatcher"}
    ]
  }
}`

const dispatchYAML = `
title: Outbound Dispatch
sections:
  procedure:
    - step_number: 1
      title: Pick order items
      role: Picker
      sub_steps:
        - Print the picking list
`

func newTestService(t *testing.T) *AnalysisService {
	t.Helper()
	cfg := orchestrator.DefaultConfig()
	pipeline, err := orchestrator.NewPipeline(cfg)
	require.NoError(t, err)
	t.Cleanup(pipeline.Close)
	return NewAnalysisService(pipeline, cfg)
}

func TestAnalysisService_AnalyzeProcess_Inline(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.AnalyzeProcess(context.Background(), nil, AnalyzeProcessInput{
		Document: dispatchJSON,
		Sector:   "logistics",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "logistics", out.Sector)
	assert.Equal(t, 6, out.Steps)
	assert.Equal(t, 3, out.Roles)
	assert.Equal(t, 2, out.Handoffs)
	assert.NotNil(t, out.Warnings)
	require.Len(t, out.Stages, 6)
	assert.Equal(t, "flatten", out.Stages[0].Stage)
	assert.Equal(t, "succeeded", out.Stages[0].Status)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Report), &report))
	assert.Contains(t, report, "process_map")
	assert.Contains(t, report, "benchmarks")
	assert.Contains(t, report, "warnings")
}

func TestAnalysisService_AnalyzeProcess_YAML(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.AnalyzeProcess(context.Background(), nil, AnalyzeProcessInput{
		Document: dispatchYAML,
		Format:   "yaml",
		Sector:   "logistics",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Steps)
}

func TestAnalysisService_AnalyzeProcess_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.json")
	require.NoError(t, os.WriteFile(path, []byte(dispatchJSON), 0o644))

	svc := newTestService(t)
	_, out, err := svc.AnalyzeProcess(context.Background(), nil, AnalyzeProcessInput{Path: path, Sector: "logistics"})
	require.NoError(t, err)
	assert.Equal(t, "Outbound Dispatch", out.Title)
}

func TestAnalysisService_AnalyzeProcess_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AnalyzeProcess(ctx, nil, AnalyzeProcessInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path or document")

	_, _, err = svc.AnalyzeProcess(ctx, nil, AnalyzeProcessInput{Document: dispatchJSON, Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document format")

	_, _, err = svc.AnalyzeProcess(ctx, nil, AnalyzeProcessInput{Document: `{"title": "Empty", "sections": {"procedure": []}}`})
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrStructure)
}

func TestAnalysisService_CalculateROI(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.CalculateROI(context.Background(), nil, CalculateROIInput{Items: []ROIItemInput{
		{
			Step:                "Key orders into spreadsheet",
			TimePerTaskMinutes:  30,
			FrequencyPerMonth:   20,
			ImplementationCost:  5000,
			AutomationPotential: "high",
		},
		{
			Step:                "Reconcile invoices",
			TimePerTaskMinutes:  60,
			FrequencyPerMonth:   20,
			HourlyCost:          18,
			ImplementationCost:  1000,
			AutomationPotential: "medium",
			AccuracyImprovement: 90,
		},
	}})
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	// Sorted by savings: 10h x 18 = 180, plus 10% x 90% error-cost reduction.
	assert.Equal(t, "Reconcile invoices", out.Items[0].Step)
	assert.Equal(t, 196.2, out.Items[0].MonthlyCostSavings)
	assert.Equal(t, "quick_win", out.Items[0].Category)
	// The first item takes the configured hourly cost of 18.
	assert.Equal(t, 144.0, out.Items[1].MonthlyCostSavings)
	assert.Equal(t, "strategic", out.Items[1].Category)

	assert.Equal(t, 340.2, out.TotalMonthlySavings)
	assert.Equal(t, []string{"Reconcile invoices"}, out.QuickWins)
	assert.Equal(t, []string{"Key orders into spreadsheet"}, out.Strategic)
}

func TestAnalysisService_CalculateROI_Empty(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.CalculateROI(context.Background(), nil, CalculateROIInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no automation candidates")
}

func TestAnalysisService_ListSectors(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.ListSectors(context.Background(), nil, ListSectorsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"food-services", "logistics", "retail", "wholesale-trade"}, out.Sectors)
}
