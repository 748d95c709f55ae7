package graph

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindFollows     EdgeKind = "FOLLOWS"
	EdgeKindPerformedBy EdgeKind = "PERFORMED_BY"
	EdgeKindBelongsTo   EdgeKind = "BELONGS_TO"
)

// StepNode is one flattened workflow step.
type StepNode struct {
	ID              string  `json:"id"`
	Seq             int     `json:"seq"`
	Label           string  `json:"label"`
	Role            string  `json:"role"`
	Kind            string  `json:"kind"`
	DurationMinutes float64 `json:"duration_minutes"`
	Complexity      string  `json:"complexity"`
}

// RoleNode is a role that performs steps.
type RoleNode struct {
	Name             string  `json:"name"`
	StepCount        int     `json:"step_count"`
	WorkloadFraction float64 `json:"workload_fraction"`
}

// ClusterNode is a pattern cluster and the steps that belong to it.
type ClusterNode struct {
	ID                  int      `json:"id"`
	PatternType         string   `json:"pattern_type"`
	AutomationPotential string   `json:"automation_potential"`
	Members             []string `json:"members"` // step IDs
}

// Edge represents a relationship between two nodes. For PERFORMED_BY the
// target is a role name; for BELONGS_TO it is the decimal cluster id.
type Edge struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Kind     EdgeKind `json:"kind"`
}

// Handoff is a transition between consecutive steps owned by different
// roles.
type Handoff struct {
	FromStep string `json:"from_step"`
	ToStep   string `json:"to_step"`
	FromRole string `json:"from_role"`
	ToRole   string `json:"to_role"`
}

// GraphStats summarizes a process graph.
type GraphStats struct {
	StepCount    int `json:"step_count"`
	RoleCount    int `json:"role_count"`
	ClusterCount int `json:"cluster_count"`
	EdgeCount    int `json:"edge_count"`
	HandoffCount int `json:"handoff_count"`
}
