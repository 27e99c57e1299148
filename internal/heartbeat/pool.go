package heartbeat

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds concurrent dispatches when no size is configured.
const DefaultWorkers = 4

// Pool runs submitted work on background goroutines, at most size at a time.
// Submit never blocks the caller.
type Pool struct {
	ctx context.Context
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool returns a pool whose tasks run under ctx.
func NewPool(ctx context.Context, size int) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &Pool{ctx: ctx, sem: semaphore.NewWeighted(int64(size))}
}

// Task is a handle to submitted work.
type Task struct {
	ID   uuid.UUID
	done chan struct{}
	err  error
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Err returns the task's error once it has finished, nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Submit schedules fn and returns its handle.
func (p *Pool) Submit(id uuid.UUID, fn func(ctx context.Context) error) *Task {
	task := &Task{ID: id, done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(task.done)
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			task.err = err
			return
		}
		defer p.sem.Release(1)
		task.err = fn(p.ctx)
	}()
	return task
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
