package roi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCandidates(t *testing.T) {
	steps := []process.StepRecord{
		{StepID: "1.0", Text: "Count stock on paper", DurationMinutes: 30, Complexity: process.LevelLow},
		{StepID: "1.1", Text: "Email counts", DurationMinutes: 5, Complexity: process.LevelHigh},
		{StepID: "2.0", Text: "Greet customer", DurationMinutes: 5, Complexity: process.LevelLow},
		{StepID: "3.0", Text: "Record cash", DurationMinutes: 15, Complexity: process.LevelMedium},
	}
	clusters := []pattern.Cluster{
		{ClusterID: 0, StepIDs: []string{"1.0", "1.1"}, AutomationPotential: process.LevelMedium},
		{ClusterID: 1, StepIDs: []string{"2.0", "3.0"}, AutomationPotential: process.LevelLow},
	}
	entries := []benchmark.Entry{
		{StepID: "1.0", DigitalGap: process.LevelHigh, Priority: process.LevelHigh, ExpectedBenefits: map[string]float64{"accuracy_improvement": 90}},
		{StepID: "2.0", DigitalGap: process.LevelLow, Priority: process.LevelLow},
		{StepID: "3.0", DigitalGap: process.LevelMedium, Priority: process.LevelMedium},
	}

	items := BuildCandidates(steps, clusters, entries, CandidateDefaults{FrequencyPerMonth: 20, HourlyCost: 18, ImplementationCost: 5000})
	require.Len(t, items, 3)

	assert.Equal(t, "1.0", items[0].StepID)
	assert.Equal(t, "high", items[0].AutomationPotential)
	assert.Equal(t, 0.8, items[0].ComplexityFactor)
	assert.Equal(t, 30.0, items[0].TimePerTaskMinutes)
	assert.Equal(t, 20.0, items[0].FrequencyPerMonth)
	assert.Equal(t, Percent(90), items[0].ExpectedBenefits["accuracy_improvement"])

	assert.Equal(t, "1.1", items[1].StepID)
	assert.Equal(t, "medium", items[1].AutomationPotential)
	assert.Equal(t, 1.5, items[1].ComplexityFactor)
	assert.Nil(t, items[1].ExpectedBenefits)

	assert.Equal(t, "3.0", items[2].StepID)
	assert.Equal(t, "medium", items[2].AutomationPotential)
}

func TestBuildCandidates_NothingQualifies(t *testing.T) {
	steps := []process.StepRecord{{StepID: "1.0", Text: "Greet customer"}}
	assert.Empty(t, BuildCandidates(steps, nil, nil, CandidateDefaults{}))
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- step: Daily inventory audit
  time_per_task_minutes: 30
  frequency_per_month: 20
  hourly_cost: 18
  implementation_cost: 5000
  automation_potential: high
  expected_benefits:
    accuracy_improvement: "90%"
    time_savings: 70
`), 0o644))
	items, err := LoadItems(yamlPath)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, Percent(90), items[0].ExpectedBenefits["accuracy_improvement"])
	assert.Equal(t, Percent(70), items[0].ExpectedBenefits["time_savings"])

	jsonPath := filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"items":[{"step":"Re-key orders","time_per_task_minutes":60,"expected_benefits":{"accuracy_improvement":"45.5%"}}]}`), 0o644))
	items, err = LoadItems(jsonPath)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Re-key orders", items[0].Step)
	assert.Equal(t, Percent(45.5), items[0].ExpectedBenefits["accuracy_improvement"])

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"items":[{"expected_benefits":{"x":"lots"}}]}`), 0o644))
	_, err = LoadItems(badPath)
	assert.Error(t, err)
}
