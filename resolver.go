package corun

import "sync"

// Kind is the awaitable protocol a suspension value implements.
type Kind int

// Suspension value kinds. KindInvalid is the zero Kind.
const (
	KindInvalid Kind = iota
	KindFuture
	KindDeferred
	KindRoutine
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindFuture:
		return "future"
	case KindDeferred:
		return "deferred"
	case KindRoutine:
		return "routine"
	case KindAll:
		return "all"
	default:
		return "invalid"
	}
}

// Callback reports the completion of a deferred operation.
type Callback func(err error, result any)

// Deferred is a callback-style operation. Calling it starts the
// underlying work, which later reports through cb.
type Deferred func(cb Callback)

// Spawn produces a routine to run as a nested awaitable.
type Spawn func() Routine

// All is a fixed-size collection of awaitables resolved concurrently.
type All []any

// Classify reports which awaitable kind v is.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindInvalid
	case Routine, Spawn, func() Routine, RoutineFunc, func(*Yielder) (any, error):
		return KindRoutine
	case Awaitable:
		return KindFuture
	case Deferred, func(Callback), func(func(error, any)):
		return KindDeferred
	case All, []any:
		return KindAll
	default:
		return KindInvalid
	}
}

// Resolver turns suspension values into futures.
type Resolver struct {
	// Run drives nested routines. When nil, nested routines are run by
	// a Driver with default options.
	Run func(Routine) *Future[any]
}

// Resolve resolves v with the zero Resolver.
func Resolve(v any) *Future[any] {
	return Resolver{}.Resolve(v)
}

// Resolve returns a future for the eventual outcome of v. It never
// panics: values of no recognized kind, and panics raised while
// starting an operation, come back as a rejected future.
func (rv Resolver) Resolve(v any) *Future[any] {
	switch Classify(v) {
	case KindRoutine:
		return rv.routine(v)
	case KindFuture:
		return rv.future(v.(Awaitable))
	case KindDeferred:
		return rv.deferred(v)
	case KindAll:
		return rv.all(v)
	default:
		return Rejected[any](&InvalidSuspensionError{Value: v})
	}
}

func (rv Resolver) future(a Awaitable) *Future[any] {
	if f, ok := a.(*Future[any]); ok {
		return f
	}
	f := NewFuture[any]()
	if err := catch(func() { a.Then(func(v any) { f.Resolve(v) }, func(err error) { f.Reject(err) }) }); err != nil {
		f.Reject(err)
	}
	return f
}

func (rv Resolver) deferred(v any) *Future[any] {
	var op Deferred
	switch d := v.(type) {
	case Deferred:
		op = d
	case func(Callback):
		op = d
	case func(func(error, any)):
		op = func(cb Callback) { d(cb) }
	}

	f := NewFuture[any]()
	cb := func(err error, result any) {
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(result)
	}
	if err := catch(func() { op(cb) }); err != nil {
		f.Reject(err)
	}
	return f
}

func (rv Resolver) routine(v any) *Future[any] {
	var r Routine
	err := catch(func() {
		switch s := v.(type) {
		case Routine:
			r = s
		case Spawn:
			r = s()
		case func() Routine:
			r = s()
		case RoutineFunc:
			r = New(s)
		case func(*Yielder) (any, error):
			r = New(s)
		}
	})
	if err != nil {
		return Rejected[any](err)
	}
	if r == nil {
		return Rejected[any](&InvalidSuspensionError{Value: v})
	}

	if rv.Run != nil {
		return rv.Run(r)
	}
	return Run(r)
}

func (rv Resolver) all(v any) *Future[any] {
	var elems []any
	switch s := v.(type) {
	case All:
		elems = s
	case []any:
		elems = s
	}

	// Start every element before subscribing to any of them.
	futures := make([]*Future[any], len(elems))
	for i, e := range elems {
		futures[i] = rv.Resolve(e)
	}

	f := NewFuture[any]()
	if len(futures) == 0 {
		f.Resolve([]any{})
		return f
	}

	var (
		mu      sync.Mutex
		results = make([]any, len(futures))
		pending = len(futures)
	)
	for i, ef := range futures {
		ef.Subscribe(func(v any) {
			mu.Lock()
			results[i] = v
			pending--
			last := pending == 0
			mu.Unlock()
			if last {
				f.Resolve(results)
			}
		}, func(err error) {
			f.Reject(err)
		})
	}
	return f
}
