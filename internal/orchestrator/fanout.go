package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// stageTask is one unit of work run concurrently by fanOut.
type stageTask struct {
	stage Stage
	run   func(ctx context.Context) (any, error)
}

// stageOutcome holds what a stageTask produced.
type stageOutcome struct {
	stage  Stage
	output any
	err    error
}

// fanOut runs every task in parallel and returns their outcomes in task
// order. A failing task does not cancel its siblings: failures are data the
// caller folds into the PipelineContext. Panics are recovered into errors.
func fanOut(ctx context.Context, tasks []stageTask, emit func(ProgressEvent)) []stageOutcome {
	outcomes := make([]stageOutcome, len(tasks))
	var g errgroup.Group

	for i, task := range tasks {
		emit(ProgressEvent{Stage: task.stage, Status: ProgressPending})

		g.Go(func() error {
			emit(ProgressEvent{Stage: task.stage, Status: ProgressWorking})
			out, err := runRecovered(ctx, task)
			outcomes[i] = stageOutcome{stage: task.stage, output: out, err: err}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

func runRecovered(ctx context.Context, task stageTask) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.run(ctx)
}
