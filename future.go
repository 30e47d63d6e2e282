package corun

import (
	"context"
	"sync"
)

// Awaitable is the capability a future-like value exposes to the
// resolver: register one callback for success and one for failure.
// Exactly one of them must eventually be called, at most once.
type Awaitable interface {
	Then(onSuccess func(any), onFailure func(error))
}

type subscriber[T any] struct {
	onSuccess func(T)
	onFailure func(error)
}

// Future is a single-assignment outcome: it settles once, either with a
// value or with an error, and delivers that outcome to every
// subscriber, including those that subscribe after it settled. A
// Future is safe for concurrent use.
type Future[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	value   T
	err     error
	subs    []subscriber[T]
}

// NewFuture returns a pending future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

// Resolve settles f with v. It returns false if f was already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles f with err, or ErrNilFailure if err is nil. It returns
// false if f was already settled.
func (f *Future[T]) Reject(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value, f.err = v, err
	subs := f.subs
	f.subs = nil
	close(f.done)
	f.mu.Unlock()

	for _, s := range subs {
		s.notify(v, err)
	}
	return true
}

func (s subscriber[T]) notify(v T, err error) {
	if err != nil {
		if s.onFailure != nil {
			s.onFailure(err)
		}
		return
	}
	if s.onSuccess != nil {
		s.onSuccess(v)
	}
}

// Subscribe registers callbacks for f's outcome. If f has already
// settled, the matching callback runs immediately on the calling
// goroutine; otherwise it runs on the goroutine that settles f. Either
// callback may be nil.
func (f *Future[T]) Subscribe(onSuccess func(T), onFailure func(error)) {
	s := subscriber[T]{onSuccess: onSuccess, onFailure: onFailure}

	f.mu.Lock()
	if f.settled {
		v, err := f.value, f.err
		f.mu.Unlock()
		s.notify(v, err)
		return
	}
	f.subs = append(f.subs, s)
	f.mu.Unlock()
}

// Then implements Awaitable.
func (f *Future[T]) Then(onSuccess func(any), onFailure func(error)) {
	f.Subscribe(func(v T) {
		if onSuccess != nil {
			onSuccess(v)
		}
	}, onFailure)
}

// Done returns a channel that is closed once f has settled. Subscribers
// may still be running when it closes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// TryGet returns f's outcome without blocking. ok is false while f is
// still pending.
func (f *Future[T]) TryGet() (v T, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		return v, false, nil
	}
	return f.value, true, f.err
}

// Await blocks until f is done or ctx is.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, _, err := f.TryGet()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
