package corun

import "time"

// Thunk adapts a function that reports through a (result, error)
// callback into a Deferred. fn runs each time the Deferred is invoked.
func Thunk[R any](fn func(done func(R, error))) Deferred {
	return func(cb Callback) {
		fn(func(r R, err error) {
			if err != nil {
				cb(err, nil)
				return
			}
			cb(nil, r)
		})
	}
}

// Thunkify binds the argument of a one-argument callback-style function
// and returns the call as a Deferred, so a routine can write
//
//	body, err := y.Yield(Thunkify(fetch)(url))
func Thunkify[A, R any](fn func(A, func(R, error))) func(A) Deferred {
	return func(a A) Deferred {
		return Thunk(func(done func(R, error)) {
			fn(a, done)
		})
	}
}

// Thunkify2 is Thunkify for two-argument functions.
func Thunkify2[A, B, R any](fn func(A, B, func(R, error))) func(A, B) Deferred {
	return func(a A, b B) Deferred {
		return Thunk(func(done func(R, error)) {
			fn(a, b, done)
		})
	}
}

// Sleep returns a Deferred that completes with nil after d. The timer
// starts when the Deferred is invoked.
func Sleep(d time.Duration) Deferred {
	return func(cb Callback) {
		time.AfterFunc(d, func() {
			cb(nil, nil)
		})
	}
}

// FromChan returns a future that resolves with the first value received
// from ch, or rejects with ErrClosed if ch is closed first.
func FromChan[T any](ch <-chan T) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, ok := <-ch
		if !ok {
			f.Reject(ErrClosed)
			return
		}
		f.Resolve(v)
	}()
	return f
}
