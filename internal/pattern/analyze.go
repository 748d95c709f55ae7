// Package pattern finds groups of similar steps and statistically unusual
// steps in a flattened workflow.
package pattern

import (
	"errors"
	"fmt"
	"math"

	"github.com/dusk-indust/sopflow/internal/process"
)

// Options configures a full pattern analysis.
type Options struct {
	Cluster       ClusterOptions
	Contamination float64
	Seed          uint64
	// MaxTexts caps how many steps are analyzed; see Sample.
	MaxTexts int
}

// RoleImbalance flags a role that carries a disproportionate share of the
// work.
type RoleImbalance struct {
	Role             string  `json:"role"`
	Pattern          string  `json:"pattern"`
	WorkloadFraction float64 `json:"workload_fraction"`
	ManualShare      float64 `json:"manual_share"`
	Description      string  `json:"description"`
}

// Role imbalance patterns.
const (
	ImbalanceOverloaded       = "overloaded"
	ImbalanceOverloadedManual = "overloaded_with_manual_tasks"
)

// Analysis is the combined pattern output. ClusterError and AnomalyError
// are set instead of the corresponding list when that analysis failed;
// callers check them before consuming Clusters or Anomalies.
type Analysis struct {
	Clusters      []Cluster       `json:"step_clusters"`
	Anomalies     []Anomaly       `json:"workflow_anomalies"`
	RoleImbalance []RoleImbalance `json:"role_imbalance_patterns"`
	AnalyzedSteps int             `json:"analyzed_steps"`
	ClusterError  string          `json:"cluster_error,omitempty"`
	AnomalyError  string          `json:"anomaly_error,omitempty"`
}

// Analyze runs clustering, anomaly detection and role imbalance detection
// in sequence. It never returns an error; failures are recorded on the
// Analysis.
func Analyze(steps []process.StepRecord, roles map[string]process.RoleProfile, opts Options) Analysis {
	sampled := Sample(steps, opts.MaxTexts)
	out := Analysis{AnalyzedSteps: len(sampled)}

	copts := opts.Cluster
	copts.Seed = opts.Seed
	clusters, err := ClusterSteps(sampled, copts)
	if err != nil && !errors.Is(err, ErrInsufficientData) {
		out.ClusterError = err.Error()
	} else {
		out.Clusters = clusters
	}

	anomalies, err := DetectAnomalies(sampled, AnomalyOptions{Contamination: opts.Contamination, Seed: opts.Seed})
	if err != nil && !errors.Is(err, ErrInsufficientData) {
		out.AnomalyError = err.Error()
	} else {
		out.Anomalies = anomalies
	}

	out.RoleImbalance = DetectRoleImbalance(steps, roles)
	return out
}

// DetectRoleImbalance reports roles whose workload exceeds 1.5x an even
// split. Roles where at least half of the steps are manual get the
// overloaded_with_manual_tasks pattern.
func DetectRoleImbalance(steps []process.StepRecord, roles map[string]process.RoleProfile) []RoleImbalance {
	out := []RoleImbalance{}
	if len(roles) < 2 {
		return out
	}
	manual := make(map[string]int)
	for _, s := range steps {
		if process.IsManual(s.Text) {
			manual[s.Role]++
		}
	}
	even := 1 / float64(len(roles))
	for _, role := range process.SortedRoles(roles) {
		p := roles[role]
		if p.WorkloadFraction <= 1.5*even || p.StepCount == 0 {
			continue
		}
		share := float64(manual[role]) / float64(p.StepCount)
		ri := RoleImbalance{
			Role:             role,
			Pattern:          ImbalanceOverloaded,
			WorkloadFraction: p.WorkloadFraction,
			ManualShare:      math.Round(share*100) / 100,
			Description:      fmt.Sprintf("%s performs %.0f%% of steps against an even share of %.0f%%", role, p.WorkloadFraction*100, even*100),
		}
		if share >= 0.5 {
			ri.Pattern = ImbalanceOverloadedManual
		}
		out = append(out, ri)
	}
	return out
}
