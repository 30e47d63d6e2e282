package corun

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Executor runs blocking functions in the background, at most limit at
// a time, and hands their outcomes back as futures. It is the bridge
// for I/O that has no callback or future API of its own.
//
// Work submitted while every slot is busy waits in a queue and is
// picked up by the next worker that finishes, so submitting never
// blocks.
type Executor struct {
	ctx   context.Context
	g     errgroup.Group
	limit int

	mu      sync.Mutex
	workers int
	queue   []func()
}

// NewExecutor creates an Executor whose functions receive ctx. A limit
// of zero or less means no limit.
func NewExecutor(ctx context.Context, limit int) *Executor {
	return &Executor{ctx: ctx, limit: limit}
}

// Submit schedules fn on ex and returns a future for its outcome. It
// returns immediately even when ex is at its limit.
//
// The future settles on a fresh goroutine after fn returned, so
// routines resumed by it never hold one of ex's slots.
func Submit[R any](ex *Executor, fn func(context.Context) (R, error)) *Future[R] {
	f := NewFuture[R]()
	ex.schedule(func() {
		var (
			v   R
			err error
		)
		if perr := catch(func() { v, err = fn(ex.ctx) }); perr != nil {
			err = perr
		}
		go func() {
			if err != nil {
				f.Reject(err)
				return
			}
			f.Resolve(v)
		}()
	})
	return f
}

func (ex *Executor) schedule(task func()) {
	ex.mu.Lock()
	if ex.limit > 0 && ex.workers >= ex.limit {
		ex.queue = append(ex.queue, task)
		ex.mu.Unlock()
		return
	}
	ex.workers++
	ex.mu.Unlock()

	ex.g.Go(func() error {
		for task != nil {
			task()
			task = ex.next()
		}
		return nil
	})
}

// next pops the oldest queued task, or retires the calling worker when
// the queue is empty.
func (ex *Executor) next() func() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if len(ex.queue) == 0 {
		ex.workers--
		return nil
	}
	task := ex.queue[0]
	ex.queue[0] = nil
	ex.queue = ex.queue[1:]
	return task
}

// Defer returns a Deferred that submits fn to ex when invoked. Invoking
// it never blocks, so an All holding more of these than ex's limit
// starts every element right away and the surplus runs as slots free
// up.
func (ex *Executor) Defer(fn func(context.Context) (any, error)) Deferred {
	return func(cb Callback) {
		Submit(ex, fn).Subscribe(func(v any) {
			cb(nil, v)
		}, func(err error) {
			cb(err, nil)
		})
	}
}

// Wait blocks until every function submitted so far has returned.
func (ex *Executor) Wait() {
	_ = ex.g.Wait()
}
