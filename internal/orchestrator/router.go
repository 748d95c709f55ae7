package orchestrator

import (
	"errors"
	"fmt"
	"io"

	dag "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/roi"
)

// prerequisiteRule defines a stage that must (or may) finish before another
// stage runs.
type prerequisiteRule struct {
	stage    Stage
	required bool // if false, the prerequisite is optional (used when present)
}

// prerequisites returns the prerequisite rules for the given stage.
func prerequisites(stage Stage) []prerequisiteRule {
	switch stage {
	case StageFlatten:
		return nil
	case StageCluster, StageDetectAnomalies:
		return []prerequisiteRule{
			{stage: StageFlatten, required: true},
		}
	case StageBenchmark:
		// Cluster results only sharpen step prioritization.
		return []prerequisiteRule{
			{stage: StageFlatten, required: true},
			{stage: StageCluster, required: false},
		}
	case StageEstimateROI:
		return []prerequisiteRule{
			{stage: StageFlatten, required: true},
			{stage: StageCluster, required: false},
			{stage: StageBenchmark, required: false},
		}
	case StageAggregate:
		return []prerequisiteRule{
			{stage: StageFlatten, required: true},
			{stage: StageCluster, required: false},
			{stage: StageDetectAnomalies, required: false},
			{stage: StageBenchmark, required: false},
			{stage: StageEstimateROI, required: false},
		}
	default:
		return nil
	}
}

// validators check that a stored stage output has the shape its consumers
// expect.
var validators = map[Stage]func(any) error{
	StageFlatten: func(v any) error {
		pm, ok := v.(*processMap)
		if !ok || pm == nil {
			return fmt.Errorf("unexpected output %T", v)
		}
		if len(pm.result.Steps) == 0 {
			return errors.New("process map has no steps")
		}
		return nil
	},
	StageCluster: func(v any) error {
		if _, ok := v.([]pattern.Cluster); !ok {
			return fmt.Errorf("unexpected output %T", v)
		}
		return nil
	},
	StageDetectAnomalies: func(v any) error {
		if _, ok := v.([]pattern.Anomaly); !ok {
			return fmt.Errorf("unexpected output %T", v)
		}
		return nil
	},
	StageBenchmark: func(v any) error {
		if r, ok := v.(*benchmark.Result); !ok || r == nil {
			return fmt.Errorf("unexpected output %T", v)
		}
		return nil
	},
	StageEstimateROI: func(v any) error {
		if r, ok := v.(*roi.Report); !ok || r == nil {
			return fmt.Errorf("unexpected output %T", v)
		}
		return nil
	},
}

// Router orders stages by their prerequisite DAG and decides whether a
// stage may run given what has completed so far.
type Router struct {
	graph dag.Graph[Stage, Stage]
	order []Stage
}

func stageHash(s Stage) Stage { return s }

// NewRouter builds the stage DAG from the prerequisite rules and computes a
// stable topological order.
func NewRouter() (*Router, error) {
	g := dag.New(stageHash, dag.Directed(), dag.Acyclic(), dag.PreventCycles())
	for _, s := range AllStages {
		if err := g.AddVertex(s); err != nil {
			return nil, fmt.Errorf("router: add stage %s: %w", s, err)
		}
	}
	for _, s := range AllStages {
		for _, rule := range prerequisites(s) {
			if err := g.AddEdge(rule.stage, s); err != nil {
				return nil, fmt.Errorf("router: edge %s -> %s: %w", rule.stage, s, err)
			}
		}
	}
	order, err := dag.StableTopologicalSort(g, func(a, b Stage) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("router: order stages: %w", err)
	}
	return &Router{graph: g, order: order}, nil
}

// Order returns the stages in execution order.
func (r *Router) Order() []Stage {
	return append([]Stage{}, r.order...)
}

// Check returns a non-nil error when stage must be skipped: a required
// prerequisite did not succeed or left output of the wrong shape.
func (r *Router) Check(pc *PipelineContext, stage Stage) error {
	for _, rule := range prerequisites(stage) {
		if !rule.required {
			continue
		}
		status, ran := pc.Status(rule.stage)
		switch {
		case !ran:
			return fmt.Errorf("required stage %s has not run", rule.stage)
		case status != StatusSucceeded:
			return fmt.Errorf("required stage %s was %s", rule.stage, status)
		}
		if validate, ok := validators[rule.stage]; ok {
			if err := validate(pc.outputs[rule.stage]); err != nil {
				return fmt.Errorf("required stage %s: %w", rule.stage, err)
			}
		}
	}
	return nil
}

// Dependents returns the stages that directly depend on stage.
func (r *Router) Dependents(stage Stage) ([]Stage, error) {
	adj, err := r.graph.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	var out []Stage
	for _, s := range r.order {
		if _, ok := adj[stage][s]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Degraded returns the dependents of stage that still run without it.
// Aggregate is left out: it always runs and reports every skip itself.
func (r *Router) Degraded(stage Stage) []Stage {
	deps, err := r.Dependents(stage)
	if err != nil {
		return nil
	}
	out := deps[:0]
	for _, d := range deps {
		if d != StageAggregate {
			out = append(out, d)
		}
	}
	return out
}

// WriteDOT renders the stage DAG in Graphviz DOT format.
func (r *Router) WriteDOT(w io.Writer) error {
	return draw.DOT(r.graph, w)
}
