package slots

import (
	"context"
	"sync"
)

// travelJob pairs a candidate slot with one earlier appointment, both as
// indexes into the evaluator's inputs.
type travelJob struct {
	slot int
	appt int
}

// workerPool runs travel lookups on a fixed number of goroutines so a busy
// day never bursts more than size concurrent Oracle calls.
type workerPool struct {
	size   int
	jobs   chan travelJob
	handle func(ctx context.Context, job travelJob)
	wg     sync.WaitGroup
}

func newWorkerPool(size int, handle func(ctx context.Context, job travelJob)) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{
		size:   size,
		jobs:   make(chan travelJob, size),
		handle: handle,
	}
}

// Start launches the worker goroutines.
func (wp *workerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

func (wp *workerPool) worker(ctx context.Context) {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.handle(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch queues a job. It returns false once ctx is done.
func (wp *workerPool) Dispatch(ctx context.Context, job travelJob) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Wait closes the queue and blocks until every worker has returned.
func (wp *workerPool) Wait() {
	close(wp.jobs)
	wp.wg.Wait()
}
