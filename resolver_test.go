package corun

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAwaitable is a future-like value that is not a *Future.
type MockAwaitable struct{ mock.Mock }

func (m *MockAwaitable) Then(onSuccess func(any), onFailure func(error)) {
	args := m.Called(onSuccess, onFailure)
	if err := args.Error(1); err != nil {
		onFailure(err)
		return
	}
	onSuccess(args.Get(0))
}

func TestClassify(t *testing.T) {
	r := require.New(t)

	var nilRoutine Routine
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"future", NewFuture[int](), KindFuture},
		{"awaitable", &MockAwaitable{}, KindFuture},
		{"deferred", Deferred(func(Callback) {}), KindDeferred},
		{"callback func", func(Callback) {}, KindDeferred},
		{"raw callback func", func(func(error, any)) {}, KindDeferred},
		{"routine", New(func(*Yielder) (any, error) { return nil, nil }), KindRoutine},
		{"spawn", Spawn(func() Routine { return nil }), KindRoutine},
		{"routine producer", func() Routine { return nil }, KindRoutine},
		{"routine func", RoutineFunc(func(*Yielder) (any, error) { return nil, nil }), KindRoutine},
		{"raw routine func", func(*Yielder) (any, error) { return nil, nil }, KindRoutine},
		{"all", All{1, 2}, KindAll},
		{"slice", []any{}, KindAll},
		{"number", 42, KindInvalid},
		{"string", "hello", KindInvalid},
		{"nil", nil, KindInvalid},
		{"nil routine", nilRoutine, KindInvalid},
		{"typed slice", []int{1}, KindInvalid},
		{"other func", func() {}, KindInvalid},
	}

	for _, tt := range tests {
		r.Equal(tt.want, Classify(tt.value), tt.name)
	}
	r.Equal("deferred", KindDeferred.String())
	r.Equal("invalid", Kind(99).String())
}

func TestResolveFuture(t *testing.T) {
	r := require.New(t)

	f := NewFuture[any]()
	r.Same(f, Resolve(f))

	typed := NewFuture[string]()
	resolved := Resolve(typed)
	typed.Resolve("Hello, World from our constant promise!")
	v, err := resolved.Await(context.Background())
	r.NoError(err)
	r.Equal("Hello, World from our constant promise!", v)
}

func TestResolveAwaitable(t *testing.T) {
	r := require.New(t)

	ok := &MockAwaitable{}
	ok.On("Then", mock.Anything, mock.Anything).Return("value", nil).Once()
	v, err := Resolve(ok).Await(context.Background())
	r.NoError(err)
	r.Equal("value", v)
	ok.AssertExpectations(t)

	oops := errors.New("rejected")
	bad := &MockAwaitable{}
	bad.On("Then", mock.Anything, mock.Anything).Return(nil, oops).Once()
	_, err = Resolve(bad).Await(context.Background())
	r.ErrorIs(err, oops)
	bad.AssertExpectations(t)
}

func TestResolveDeferredInvokedOnce(t *testing.T) {
	r := require.New(t)

	calls := 0
	op := Deferred(func(cb Callback) {
		calls++
		cb(nil, "first")
		cb(nil, "second")
		cb(errors.New("third"), nil)
	})

	v, err := Resolve(op).Await(context.Background())
	r.NoError(err)
	r.Equal("first", v)
	r.Equal(1, calls)
}

func TestResolveDeferredError(t *testing.T) {
	r := require.New(t)

	oops := errors.New("Oops!")
	async := func(cb func(error, any)) {
		time.AfterFunc(time.Millisecond, func() { cb(oops, nil) })
	}

	_, err := Resolve(async).Await(context.Background())
	r.ErrorIs(err, oops)
}

func TestResolveDeferredPanic(t *testing.T) {
	r := require.New(t)

	f := Resolve(Deferred(func(Callback) { panic("kaboom") }))
	_, err := f.Await(context.Background())

	var pe *PanicError
	r.ErrorAs(err, &pe)
	r.Equal("kaboom", pe.Value)
}

func TestResolveInvalid(t *testing.T) {
	r := require.New(t)

	_, err := Resolve(42).Await(context.Background())
	r.ErrorIs(err, ErrInvalidSuspension)

	var ise *InvalidSuspensionError
	r.ErrorAs(err, &ise)
	r.Equal(42, ise.Value)
	r.Contains(err.Error(), "42")

	_, err = Resolve(Spawn(func() Routine { return nil })).Await(context.Background())
	r.ErrorIs(err, ErrInvalidSuspension)
}

func TestResolveRoutine(t *testing.T) {
	r := require.New(t)

	v, err := Resolve(func(y *Yielder) (any, error) {
		return y.Yield(Resolved("inner"))
	}).Await(context.Background())
	r.NoError(err)
	r.Equal("inner", v)

	var ran bool
	rv := Resolver{Run: func(rt Routine) *Future[any] {
		ran = true
		return Run(rt)
	}}
	_, err = rv.Resolve(Spawn(func() Routine {
		return New(func(*Yielder) (any, error) { return nil, nil })
	})).Await(context.Background())
	r.NoError(err)
	r.True(ran)

	_, err = Resolve(Spawn(func() Routine { panic("no routine") })).Await(context.Background())
	var pe *PanicError
	r.ErrorAs(err, &pe)
}

// manualOp records when it is started and completes only when told to.
type manualOp struct {
	name string
	log  *[]string
	mu   *sync.Mutex
	cb   Callback
}

func (m *manualOp) deferred() Deferred {
	return func(cb Callback) {
		m.mu.Lock()
		*m.log = append(*m.log, "start "+m.name)
		m.mu.Unlock()
		m.cb = cb
	}
}

func (m *manualOp) complete(err error, v any) {
	m.mu.Lock()
	*m.log = append(*m.log, "done "+m.name)
	m.mu.Unlock()
	m.cb(err, v)
}

func newManualOps(names ...string) ([]*manualOp, *[]string) {
	var (
		log []string
		mu  sync.Mutex
		ops []*manualOp
	)
	for _, n := range names {
		ops = append(ops, &manualOp{name: n, log: &log, mu: &mu})
	}
	return ops, &log
}

func TestResolveAllOrdering(t *testing.T) {
	r := require.New(t)

	ops, log := newManualOps("A", "B", "C")
	f := Resolve(All{ops[0].deferred(), ops[1].deferred(), ops[2].deferred()})

	r.Equal([]string{"start A", "start B", "start C"}, *log)

	ops[2].complete(nil, "resultC")
	ops[1].complete(nil, "resultB")
	_, ok, _ := f.TryGet()
	r.False(ok)
	ops[0].complete(nil, "resultA")

	v, err := f.Await(context.Background())
	r.NoError(err)
	r.Equal([]any{"resultA", "resultB", "resultC"}, v)
}

func TestResolveAllFirstFailure(t *testing.T) {
	r := require.New(t)

	ops, _ := newManualOps("A", "B", "C")
	f := Resolve([]any{ops[0].deferred(), ops[1].deferred(), ops[2].deferred()})

	oops := errors.New("element 2 failed")
	ops[2].complete(nil, "resultC")
	ops[1].complete(oops, nil)

	_, err := f.Await(context.Background())
	r.ErrorIs(err, oops)

	// Late outcomes are discarded.
	ops[0].complete(nil, "resultA")
	_, err = f.Await(context.Background())
	r.ErrorIs(err, oops)
}

func TestResolveAllMixed(t *testing.T) {
	r := require.New(t)

	v, err := Resolve(All{
		Resolved[any]("future"),
		Deferred(func(cb Callback) { cb(nil, "deferred") }),
		RoutineFunc(func(y *Yielder) (any, error) { return "routine", nil }),
		All{Sleep(time.Millisecond), Resolved(1)},
	}).Await(context.Background())
	r.NoError(err)
	r.Equal([]any{"future", "deferred", "routine", []any{nil, 1}}, v)

	v, err = Resolve(All{}).Await(context.Background())
	r.NoError(err)
	r.Equal([]any{}, v)

	_, err = Resolve(All{Resolved(1), 42}).Await(context.Background())
	r.ErrorIs(err, ErrInvalidSuspension)
}
