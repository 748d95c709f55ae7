package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "sop", name)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sopflow dev\n"))
	assert.Contains(t, out, "commit: none")
}

func TestSectors(t *testing.T) {
	out, _, err := execute(t, "sectors")
	require.NoError(t, err)
	assert.Equal(t, "food-services\nlogistics\nretail\nwholesale-trade\n", out)
}

func TestSectors_Show(t *testing.T) {
	out, _, err := execute(t, "sectors", "--show", "retail")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, _, err = execute(t, "sectors", "--show", "mining")
	require.Error(t, err)
}

func TestAnalyze_JSON(t *testing.T) {
	out, _, err := execute(t, "analyze", "--json", "--sector", "wholesale-trade", fixture("receiving.json"))
	require.NoError(t, err)

	var report struct {
		RunID           string `json:"run_id"`
		Sector          string `json:"sector"`
		DocumentSummary struct {
			Title      string `json:"title"`
			TotalSteps int    `json:"total_steps"`
		} `json:"document_summary"`
		Stages []struct {
			Stage  string `json:"stage"`
			Status string `json:"status"`
		} `json:"stages"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "wholesale-trade", report.Sector)
	assert.Equal(t, "Goods Receiving", report.DocumentSummary.Title)
	assert.Equal(t, 12, report.DocumentSummary.TotalSteps)
	require.Len(t, report.Stages, 6)
	assert.Equal(t, "flatten", report.Stages[0].Stage)
	assert.Equal(t, "aggregate", report.Stages[5].Stage)
	assert.NotNil(t, report.Warnings)
}

func TestAnalyze_TextAndOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	out, stderr, err := execute(t, "analyze", "--diagram", "-o", path, fixture("dispatch.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "Outbound Dispatch")
	assert.Contains(t, out, "Stages")
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, stderr, "report written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestAnalyze_Progress(t *testing.T) {
	_, stderr, err := execute(t, "analyze", "--progress", fixture("receiving.json"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "flatten")
	assert.Contains(t, stderr, "aggregate")
}

func TestAnalyze_MissingFile(t *testing.T) {
	_, _, err := execute(t, "analyze", fixture("missing.json"))
	require.Error(t, err)
}

func TestAnalyze_EmptyProcedure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"Empty","sections":{"procedure":[]}}`), 0o644))

	_, _, err := execute(t, "analyze", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no main steps")
}

func TestAnalyze_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sopflow.yml"), []byte("sector: logistics\n"), 0o644))

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config-dir", dir, "analyze", "--json", fixture("receiving.json")})
	require.NoError(t, root.Execute())

	var report struct {
		Sector string `json:"sector"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "logistics", report.Sector)
}

func TestPatterns(t *testing.T) {
	out, _, err := execute(t, "patterns", "--json", "-k", "2", fixture("receiving.json"))
	require.NoError(t, err)

	var analysis struct {
		Clusters []struct {
			ClusterID int      `json:"cluster_id"`
			StepIDs   []string `json:"step_ids"`
		} `json:"step_clusters"`
		AnalyzedSteps int `json:"analyzed_steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, 12, analysis.AnalyzedSteps)
	assert.NotEmpty(t, analysis.Clusters)
	assert.LessOrEqual(t, len(analysis.Clusters), 2)

	var members int
	for _, c := range analysis.Clusters {
		members += len(c.StepIDs)
	}
	assert.Equal(t, 12, members)
}

func TestPatterns_Text(t *testing.T) {
	out, _, err := execute(t, "patterns", fixture("dispatch.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Patterns")
	assert.Contains(t, out, "Analyzed steps")
}

func TestROI(t *testing.T) {
	out, _, err := execute(t, "roi", "--json", fixture("roi_items.yaml"))
	require.NoError(t, err)

	var report struct {
		Items []struct {
			Step     string `json:"step"`
			Category string `json:"category"`
		} `json:"roi_items"`
		Projection []struct {
			Year int `json:"year"`
		} `json:"multi_year_projection"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Items, 2)
	assert.Len(t, report.Projection, 3)
}

func TestROI_Text(t *testing.T) {
	out, _, err := execute(t, "roi", fixture("roi_items.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Return on investment")
	assert.Contains(t, out, "Barcode scanning at the dock")
}

func TestDiagram(t *testing.T) {
	out, _, err := execute(t, "diagram", fixture("receiving.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flowchart TD\n"))
	assert.Contains(t, out, `["Storeman"]`)
	assert.Contains(t, out, "-.->")
}

func TestDiagram_Stages(t *testing.T) {
	out, _, err := execute(t, "diagram", "--stages")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "estimate_roi")
}

func TestDiagram_RequiresDocument(t *testing.T) {
	_, _, err := execute(t, "diagram")
	require.Error(t, err)
}
