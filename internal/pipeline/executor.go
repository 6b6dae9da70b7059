package pipeline

import (
	"context"
	"sync"
)

// executor is a single long-lived worker goroutine with a small job
// queue, standing in for spec.md §4.5's "processing executor" and "UI
// executor": work submitted to the same executor instance always runs
// total-ordered on the same goroutine.
type executor struct {
	jobs   chan func()
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newExecutor starts the worker goroutine. queueDepth bounds how many
// pending jobs may be buffered before Submit starts reporting failure;
// the admission gates upstream are what actually keep this bounded in
// steady state.
func newExecutor(queueDepth int) *executor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &executor{jobs: make(chan func(), queueDepth), cancel: cancel}
	e.wg.Add(1)
	go e.loop(ctx)
	return e
}

func (e *executor) loop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-e.jobs:
			job()
		}
	}
}

// submit enqueues job without blocking, returning false if the queue
// is full.
func (e *executor) submit(job func()) bool {
	select {
	case e.jobs <- job:
		return true
	default:
		return false
	}
}

// close stops accepting new work and waits for the worker goroutine to
// drain its current job and exit. Already-queued jobs that haven't
// started are abandoned, matching stop()'s "in-flight frames complete
// but are not published" contract at the pipeline layer above.
func (e *executor) close() {
	e.cancel()
	e.wg.Wait()
}
