package syssched

import (
	"context"
	"time"
)

// AsyncTaskRunnerParams represents various configuration options for
// the asynchronous task runner.
type AsyncTaskRunnerParams struct {
	// UpdateInterval - how often to run the task.
	UpdateInterval time.Duration

	// ExitOnSuccess - stop running the task after the first successful run.
	ExitOnSuccess bool
}

// AsyncTaskRunner periodically runs a task in a standalone goroutine.
type AsyncTaskRunner struct {
	ctx     context.Context
	doneCh  chan struct{}
	task    Task
	handler ErrorHandler
	params  AsyncTaskRunnerParams
}

// NewAsyncTaskRunner is an initialization of AsyncTaskRunner.
//
// Parameters:
//   - ctx - parent context.
//   - task to be run periodically.
//   - handler to be notified about task run failures, can be nil.
//   - params - various configuration options for the runner.
func NewAsyncTaskRunner(
	ctx context.Context,
	task Task,
	handler ErrorHandler,
	params AsyncTaskRunnerParams,
) *AsyncTaskRunner {
	return &AsyncTaskRunner{
		ctx:     ctx,
		doneCh:  make(chan struct{}),
		task:    task,
		handler: handler,
		params:  params,
	}
}

// Start begins asynchronous task processing.
func (r *AsyncTaskRunner) Start() error {
	go r.run()

	return nil
}

// Stop ends asynchronous task processing.
//
// Stop blocks until the processing goroutine finishes. The parent context
// should be canceled before Stop is called.
func (r *AsyncTaskRunner) Stop() error {
	<-r.doneCh

	return nil
}

func (r *AsyncTaskRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.params.UpdateInterval)
	defer ticker.Stop()

	if r.runTask() && r.params.ExitOnSuccess {
		return
	}

	for {
		select {
		case <-ticker.C:
			if r.runTask() && r.params.ExitOnSuccess {
				return
			}

		case <-r.ctx.Done():
			return
		}
	}
}

func (r *AsyncTaskRunner) runTask() bool {
	if err := r.task.Run(); err != nil {
		if r.handler != nil {
			r.handler.HandleError(err)
		}

		return false
	}

	return true
}
