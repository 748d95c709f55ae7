// Package orchestrator runs the analytics stages in dependency order,
// validates each stage's inputs and folds partial failures into one report.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/sopflow/internal/process"
)

// Stage identifies a pipeline stage.
type Stage int

const (
	StageFlatten Stage = iota
	StageCluster
	StageDetectAnomalies
	StageBenchmark
	StageEstimateROI
	StageAggregate
)

// AllStages lists every stage in declaration order.
var AllStages = []Stage{
	StageFlatten,
	StageCluster,
	StageDetectAnomalies,
	StageBenchmark,
	StageEstimateROI,
	StageAggregate,
}

func (s Stage) String() string {
	names := [...]string{
		"flatten",
		"cluster",
		"detect_anomalies",
		"benchmark",
		"estimate_roi",
		"aggregate",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// MarshalText renders the stage by name in JSON reports.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StageStatus is the outcome of a stage.
type StageStatus string

const (
	StatusSucceeded StageStatus = "succeeded"
	StatusSkipped   StageStatus = "skipped"
)

// StageReport records how a stage ended.
type StageReport struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// StageError ties a failure to the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ProgressEvent is emitted to the user during pipeline execution. Elapsed is
// set on complete and skipped events of stages that reported working.
type ProgressEvent struct {
	Stage   Stage
	Status  ProgressStatus
	Message string
	Elapsed time.Duration
}

// ProgressStatus is the state of a stage as it runs.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
)

// Orchestrator runs the full analytics pipeline for one document.
type Orchestrator interface {
	// Run analyzes doc against the named sector's benchmark. Only a
	// structurally invalid document returns an error.
	Run(ctx context.Context, doc *process.Document, sector string) (*Report, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
