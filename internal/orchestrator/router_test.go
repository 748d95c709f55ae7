package orchestrator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
)

func TestNewRouter_Order(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	assert.Equal(t, []Stage{
		StageFlatten,
		StageCluster,
		StageDetectAnomalies,
		StageBenchmark,
		StageEstimateROI,
		StageAggregate,
	}, r.Order())
}

func TestRouter_OrderRespectsPrerequisites(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	pos := make(map[Stage]int)
	for i, s := range r.Order() {
		pos[s] = i
	}
	for _, s := range AllStages {
		for _, rule := range prerequisites(s) {
			assert.Less(t, pos[rule.stage], pos[s], "%s must run before %s", rule.stage, s)
		}
	}
}

func TestRouter_Check_RequiredMissing(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	pc := newPipelineContext()
	err = r.Check(pc, StageCluster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flatten has not run")

	assert.NoError(t, r.Check(pc, StageFlatten))
}

func TestRouter_Check_RequiredSkipped(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	pc := newPipelineContext()
	pc.skip(StageFlatten, "no steps")

	err = r.Check(pc, StageBenchmark)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was skipped")
}

func TestRouter_Check_ValidatesShape(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	pc := newPipelineContext()
	pc.advance(StageFlatten, &processMap{result: &process.Result{}}, nil)

	err = r.Check(pc, StageCluster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps")

	pc = newPipelineContext()
	pc.advance(StageFlatten, "not a process map", nil)
	err = r.Check(pc, StageCluster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected output string")
}

func TestRouter_Check_OptionalPrerequisitesIgnored(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	pc := newPipelineContext()
	pc.advance(StageFlatten, &processMap{result: &process.Result{
		Steps: []process.StepRecord{{Order: 1, StepID: "1.0", Text: "Count stock"}},
	}}, nil)
	pc.skip(StageCluster, "numeric failure")
	pc.skip(StageBenchmark, "timed out")

	assert.NoError(t, r.Check(pc, StageEstimateROI))
	assert.NoError(t, r.Check(pc, StageAggregate))
}

func TestRouter_Dependents(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	deps, err := r.Dependents(StageCluster)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageBenchmark, StageEstimateROI, StageAggregate}, deps)

	deps, err = r.Dependents(StageAggregate)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestRouter_Degraded(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageBenchmark, StageEstimateROI}, r.Degraded(StageCluster))
	assert.Equal(t, []Stage{StageEstimateROI}, r.Degraded(StageBenchmark))
	assert.Empty(t, r.Degraded(StageDetectAnomalies))
	assert.Empty(t, r.Degraded(StageEstimateROI))
}

func TestRouter_WriteDOT(t *testing.T) {
	r, err := NewRouter()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteDOT(&buf))
	assert.Contains(t, buf.String(), "digraph")
	assert.Contains(t, buf.String(), "detect_anomalies")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validators[StageCluster]([]pattern.Cluster{}))
	assert.Error(t, validators[StageCluster](nil))
	assert.NoError(t, validators[StageDetectAnomalies]([]pattern.Anomaly{}))
	assert.Error(t, validators[StageBenchmark](nil))
	assert.Error(t, validators[StageEstimateROI]("report"))
}
