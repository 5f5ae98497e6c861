package pool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Task is one unit of work executed by the pool.
type Task func(ctx context.Context)

// WorkPool runs queued tasks with bounded concurrency.
type WorkPool struct {
	size  int64
	sem   *semaphore.Weighted
	tasks []Task
}

// New creates a pool running at most maxWorkers tasks at once. A size below
// one is treated as one (fully sequential).
func New(maxWorkers int) *WorkPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkPool{
		size: int64(maxWorkers),
		sem:  semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// Add queues a task. Not safe to call concurrently with Run.
func (p *WorkPool) Add(task Task) {
	p.tasks = append(p.tasks, task)
}

// Run executes all queued tasks and blocks until they finish or the context
// is cancelled. It returns the context error on cancellation.
func (p *WorkPool) Run(ctx context.Context) error {
	for _, task := range p.tasks {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(task Task) {
			defer p.sem.Release(1)
			task(ctx)
		}(task)
	}
	// Draining the full weight waits for every in-flight task.
	if err := p.sem.Acquire(ctx, p.size); err != nil {
		return err
	}
	p.sem.Release(p.size)
	return nil
}
