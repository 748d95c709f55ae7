package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// PipelineContext carries stage outputs and outcomes through a run. Stages
// never touch it directly: they receive values and return values, and only
// Pipeline.Run records the results via advance and skip.
type PipelineContext struct {
	outputs  map[Stage]any
	reports  map[Stage]StageReport
	order    []Stage
	warnings []string

	// downstream, when set, lists the stages a skip degrades. Their names
	// are appended to the skip warning.
	downstream func(Stage) []Stage
}

func newPipelineContext() *PipelineContext {
	return &PipelineContext{
		outputs:  make(map[Stage]any),
		reports:  make(map[Stage]StageReport),
		warnings: []string{},
	}
}

// advance records the outcome of stage. A nil err stores output and marks
// the stage succeeded; the warnings are kept either way. A non-nil err marks
// the stage skipped and adds a warning naming it.
func (pc *PipelineContext) advance(stage Stage, output any, err error, warnings ...string) {
	for _, w := range warnings {
		pc.warnings = append(pc.warnings, fmt.Sprintf("%s: %s", stage, w))
	}
	if err != nil {
		var se *StageError
		if !errors.As(err, &se) {
			se = &StageError{Stage: stage, Err: err}
		}
		pc.skip(stage, se.Err.Error())
		return
	}
	pc.outputs[stage] = output
	pc.record(StageReport{Stage: stage, Status: StatusSucceeded})
}

// skip marks stage skipped with reason. Outputs already stored for other
// stages are left alone.
func (pc *PipelineContext) skip(stage Stage, reason string) {
	w := fmt.Sprintf("%s skipped: %s", stage, reason)
	if pc.downstream != nil {
		if deps := pc.downstream(stage); len(deps) > 0 {
			names := make([]string, len(deps))
			for i, d := range deps {
				names[i] = d.String()
			}
			w += fmt.Sprintf(" (degrades %s)", strings.Join(names, ", "))
		}
	}
	pc.warnings = append(pc.warnings, w)
	pc.record(StageReport{Stage: stage, Status: StatusSkipped, Reason: reason})
}

func (pc *PipelineContext) record(r StageReport) {
	if _, seen := pc.reports[r.Stage]; !seen {
		pc.order = append(pc.order, r.Stage)
	}
	pc.reports[r.Stage] = r
}

// Status returns the recorded status of stage and whether it has run.
func (pc *PipelineContext) Status(stage Stage) (StageStatus, bool) {
	r, ok := pc.reports[stage]
	return r.Status, ok
}

// Succeeded reports whether stage ran and succeeded.
func (pc *PipelineContext) Succeeded(stage Stage) bool {
	s, ok := pc.Status(stage)
	return ok && s == StatusSucceeded
}

// Reports returns the stage reports in the order stages finished.
func (pc *PipelineContext) Reports() []StageReport {
	out := make([]StageReport, 0, len(pc.order))
	for _, s := range pc.order {
		out = append(out, pc.reports[s])
	}
	return out
}

// Warnings returns the accumulated warnings.
func (pc *PipelineContext) Warnings() []string {
	return append([]string{}, pc.warnings...)
}

// outputOf returns the stored output of stage as T. The second result is
// false when the stage did not succeed or stored a different type.
func outputOf[T any](pc *PipelineContext, stage Stage) (T, bool) {
	var zero T
	if !pc.Succeeded(stage) {
		return zero, false
	}
	v, ok := pc.outputs[stage].(T)
	if !ok {
		return zero, false
	}
	return v, true
}
