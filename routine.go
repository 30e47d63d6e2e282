package corun

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

var _ unsafe.Pointer

// coroutine is the runtime's coroutine handle. It's opaque and only
// ever handed back to the runtime.
type coroutine struct{}

//go:linkname newcoro runtime.newcoro
func newcoro(func(*coroutine)) *coroutine

//go:linkname coroswitch runtime.coroswitch
func coroswitch(*coroutine)

// Step is what a Routine produces each time it is resumed. When
// Terminated is false, Outcome is the suspension value the routine is
// waiting on. When Terminated is true, Outcome is the routine's
// completion value.
type Step struct {
	Outcome    any
	Terminated bool
}

// Routine is a resumable computation. Advance resumes it normally,
// injecting v as the result of the last suspension; Raise resumes it by
// injecting err at the last suspension point.
//
// A non-nil error from either method means the routine terminated
// abnormally while being resumed. A Routine must not be resumed
// concurrently, and resuming it after termination is a no-op that
// reports the same terminal state again.
type Routine interface {
	Advance(v any) (Step, error)
	Raise(err error) (Step, error)
}

// RoutineFunc is the body of a routine built with New. It suspends by
// calling y.Yield and completes by returning.
type RoutineFunc func(y *Yielder) (any, error)

type resumption struct {
	value any
	err   error
}

// Coroutine is a Routine backed by a runtime coroutine. The body runs
// on its own stack and control switches back and forth on every
// suspension without going through the scheduler.
//
// mu is held by whichever side currently has control. It is released
// right before every switch and reacquired right after, so everything
// one side wrote happens before the other side reads it, even when the
// routine is resumed from a different goroutine each time.
type Coroutine struct {
	c       *coroutine
	mu      sync.Mutex
	in      resumption
	out     any
	err     error
	stop    error
	started bool
	running atomic.Bool
	done    atomic.Bool
}

// New creates a routine that will run fn. The body does not start
// until the first call to Advance, whose argument is ignored.
//
// Panics in fn are recovered and reported by Advance or Raise as a
// *PanicError. An error returned by fn terminates the routine
// abnormally with that error.
func New(fn RoutineFunc) *Coroutine {
	c := &Coroutine{}
	c.c = newcoro(func(*coroutine) {
		c.mu.Lock()
		defer c.mu.Unlock()
		defer func() {
			if p := recover(); p != nil {
				if c.stop != nil && p == any(c.stop) {
					c.err = ErrStopped
				} else {
					c.err = newPanicError(p)
				}
			}
			c.done.Store(true)
		}()

		if c.stop != nil {
			return
		}
		c.out, c.err = fn(&Yielder{c: c})
	})
	return c
}

// Advance implements Routine.
func (c *Coroutine) Advance(v any) (Step, error) {
	return c.resume(resumption{value: v})
}

// Raise implements Routine. Raising on a routine that has not started
// terminates it without running its body.
func (c *Coroutine) Raise(err error) (Step, error) {
	if err == nil {
		err = ErrNilFailure
	}
	c.mu.Lock()
	fresh := !c.started && !c.done.Load()
	c.mu.Unlock()
	if fresh {
		_ = c.Stop()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return Step{Terminated: true}, err
	}
	return c.resume(resumption{err: err})
}

func (c *Coroutine) resume(in resumption) (Step, error) {
	c.mu.Lock()
	if c.done.Load() {
		defer c.mu.Unlock()
		return Step{Terminated: true}, c.err
	}
	c.in = in
	c.started = true
	c.mu.Unlock()

	c.switchTo()

	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.out
	c.out = nil
	if !c.done.Load() {
		return Step{Outcome: out}, nil
	}
	if c.err != nil {
		return Step{Terminated: true}, c.err
	}
	return Step{Outcome: out, Terminated: true}, nil
}

// switchTo hands control to the body and returns once it suspends or
// finishes. The caller must not hold mu.
func (c *Coroutine) switchTo() {
	c.running.Store(true)
	coroswitch(c.c)
	c.running.Store(false)
}

// Stop unwinds a routine that will not be resumed again. The pending
// Yield panics with ErrStopped so that deferred calls in the body run.
// Stop returns a *PanicError if the body panicked with anything else
// while unwinding. Stopping a finished routine does nothing.
func (c *Coroutine) Stop() error {
	if c.done.Load() {
		return nil
	}

	c.mu.Lock()
	c.stop = fmt.Errorf("%w", ErrStopped)
	c.mu.Unlock()

	c.switchTo()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.err.(*PanicError); ok {
		return c.err
	}
	c.err = ErrStopped
	return nil
}

// Done reports whether the routine has terminated.
func (c *Coroutine) Done() bool {
	return c.done.Load()
}

// Yielder is handed to a RoutineFunc and is only valid while that body
// is running.
type Yielder struct {
	c *Coroutine
}

// Yield suspends the routine on v and returns whatever the routine is
// resumed with: the value passed to Advance, or the error passed to
// Raise.
//
// Yield panics with ErrTerminated when called after the routine
// finished, and with ErrNotRunning when called from outside the body.
func (y *Yielder) Yield(v any) (any, error) {
	c := y.c
	if c.done.Load() {
		panic(ErrTerminated)
	}
	if !c.running.Load() {
		panic(ErrNotRunning)
	}
	if c.stop != nil {
		panic(c.stop)
	}

	c.out = v
	c.mu.Unlock()
	coroswitch(c.c)
	c.mu.Lock()

	if c.stop != nil {
		panic(c.stop)
	}
	return c.in.value, c.in.err
}

// Await yields v and converts the resumed value to T. A nil value
// converts to the zero T; any other value of the wrong type is reported
// as a *ResultTypeError.
func Await[T any](y *Yielder, v any) (T, error) {
	var zero T
	res, err := y.Yield(v)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	t, ok := res.(T)
	if !ok {
		return zero, &ResultTypeError{Want: reflect.TypeFor[T](), Got: res}
	}
	return t, nil
}
