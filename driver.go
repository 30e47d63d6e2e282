package corun

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Driver runs routines to completion, resolving every value they
// suspend on and resuming them with the outcome. A Driver holds only
// configuration and may run any number of routines concurrently.
type Driver struct {
	logger *zap.Logger
	name   string
}

// NewDriver creates a Driver configured by opts.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drives r with a Driver configured by opts.
func Run(r Routine, opts ...Option) *Future[any] {
	return NewDriver(opts...).Run(r)
}

// Go runs fn as a routine with a Driver configured by opts.
func Go(fn RoutineFunc, opts ...Option) *Future[any] {
	return Run(New(fn), opts...)
}

// Run starts driving r and returns a future for its completion. The
// future resolves with the routine's return value, or rejects with the
// first failure that escaped the routine. The routine is primed on the
// calling goroutine; later resumptions happen on whichever goroutine
// settles the value it suspended on.
//
// Nested routines that r suspends on are driven by d as well.
func (d *Driver) Run(r Routine) *Future[any] {
	return d.start(r, "")
}

func (d *Driver) start(r Routine, parent string) *Future[any] {
	if r == nil {
		return Rejected[any](ErrNilRoutine)
	}

	l := d.logger
	if l == nil {
		l = Logger()
	}

	id := uuid.NewString()
	fields := []zap.Field{zap.String("run_id", id)}
	if d.name != "" {
		fields = append(fields, zap.String("name", d.name))
	}
	if parent != "" {
		fields = append(fields, zap.String("parent_run_id", parent))
	}

	rn := &run{
		routine: r,
		result:  NewFuture[any](),
		logger:  l.With(fields...),
	}
	rn.resolver = Resolver{Run: func(nested Routine) *Future[any] {
		return d.start(nested, id)
	}}

	rn.logger.Debug("routine started")
	rn.step(resumption{})
	return rn.result
}

type runState int

const (
	stateRunning runState = iota
	stateTerminated
)

type run struct {
	routine     Routine
	resolver    Resolver
	result      *Future[any]
	logger      *zap.Logger
	state       runState
	suspensions int
}

// step resumes the routine with in and keeps going for as long as the
// values it suspends on are already settled. Otherwise it subscribes
// and returns; the subscription picks the loop up again.
func (rn *run) step(in resumption) {
	for rn.state == stateRunning {
		if in.err != nil {
			rn.logger.Debug("routine resumed with failure", zap.Error(in.err))
		}

		st, err := rn.resume(in)
		if err != nil {
			rn.state = stateTerminated
			rn.logger.Debug("routine failed",
				zap.Int("suspensions", rn.suspensions),
				zap.Error(err),
			)
			rn.result.Reject(err)
			return
		}
		if st.Terminated {
			rn.state = stateTerminated
			rn.logger.Debug("routine completed", zap.Int("suspensions", rn.suspensions))
			rn.result.Resolve(st.Outcome)
			return
		}

		rn.suspensions++
		rn.logger.Debug("routine suspended", zap.Stringer("kind", Classify(st.Outcome)))

		f := rn.resolver.Resolve(st.Outcome)
		if v, ok, err := f.TryGet(); ok {
			in = resumption{value: v, err: err}
			continue
		}
		f.Subscribe(func(v any) {
			rn.step(resumption{value: v})
		}, func(err error) {
			rn.step(resumption{err: err})
		})
		return
	}
}

// resume makes exactly one resumption call. A panic escaping the
// routine terminates the run instead of unwinding into the caller.
func (rn *run) resume(in resumption) (st Step, err error) {
	defer func() {
		if p := recover(); p != nil {
			st, err = Step{Terminated: true}, newPanicError(p)
		}
	}()

	if in.err != nil {
		return rn.routine.Raise(in.err)
	}
	return rn.routine.Advance(in.value)
}
