package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dusk-indust/sopflow/internal/pattern"
	"github.com/dusk-indust/sopflow/internal/process"
)

// Build loads a flattened workflow into store: one Step node per record
// with FOLLOWS edges between consecutive steps, a Role node per profile with
// PERFORMED_BY edges, and a Cluster node per cluster with BELONGS_TO edges.
// Clusters may be nil when clustering has not run.
func Build(ctx context.Context, store Store, steps []process.StepRecord, roles map[string]process.RoleProfile, clusters []pattern.Cluster) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("graph: init schema: %w", err)
	}

	for _, name := range process.SortedRoles(roles) {
		p := roles[name]
		if err := store.AddRole(ctx, RoleNode{Name: name, StepCount: p.StepCount, WorkloadFraction: p.WorkloadFraction}); err != nil {
			return fmt.Errorf("graph: add role %q: %w", name, err)
		}
	}

	for i, s := range steps {
		node := StepNode{
			ID:              s.StepID,
			Seq:             s.Order,
			Label:           s.Text,
			Role:            s.Role,
			Kind:            string(s.Kind),
			DurationMinutes: s.DurationMinutes,
			Complexity:      string(s.Complexity),
		}
		if err := store.AddStep(ctx, node); err != nil {
			return fmt.Errorf("graph: add step %s: %w", s.StepID, err)
		}
		if _, ok := roles[s.Role]; ok {
			if err := store.AddEdge(ctx, Edge{SourceID: s.StepID, TargetID: s.Role, Kind: EdgeKindPerformedBy}); err != nil {
				return fmt.Errorf("graph: link step %s to role: %w", s.StepID, err)
			}
		}
		if i > 0 {
			if err := store.AddEdge(ctx, Edge{SourceID: steps[i-1].StepID, TargetID: s.StepID, Kind: EdgeKindFollows}); err != nil {
				return fmt.Errorf("graph: link step %s: %w", s.StepID, err)
			}
		}
	}

	return AddClusters(ctx, store, clusters)
}

// AddClusters attaches pattern clusters to an already built graph.
func AddClusters(ctx context.Context, store Store, clusters []pattern.Cluster) error {
	for _, c := range clusters {
		node := ClusterNode{
			ID:                  c.ClusterID,
			PatternType:         c.PatternType,
			AutomationPotential: string(c.AutomationPotential),
		}
		if err := store.AddCluster(ctx, node); err != nil {
			return fmt.Errorf("graph: add cluster %d: %w", c.ClusterID, err)
		}
		for _, id := range c.StepIDs {
			edge := Edge{SourceID: id, TargetID: strconv.Itoa(c.ClusterID), Kind: EdgeKindBelongsTo}
			if err := store.AddEdge(ctx, edge); err != nil {
				return fmt.Errorf("graph: add step %s to cluster %d: %w", id, c.ClusterID, err)
			}
		}
	}
	return nil
}

// HandoffSteps returns the IDs of steps that receive work from a different
// role.
func HandoffSteps(handoffs []Handoff) []string {
	out := make([]string, 0, len(handoffs))
	for _, h := range handoffs {
		out = append(out, h.ToStep)
	}
	return out
}
