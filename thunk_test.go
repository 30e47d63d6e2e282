package corun

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// lookup is a callback-style function in the shape Thunkify expects.
func lookup(name string, done func(string, error)) {
	go func() {
		if name == "" {
			done("", errors.New("empty name"))
			return
		}
		done(strings.ToUpper(name), nil)
	}()
}

func TestThunkify(t *testing.T) {
	r := require.New(t)

	thunk := Thunkify(lookup)("corun")
	r.Equal(KindDeferred, Classify(thunk))

	v, err := await(t, Go(func(y *Yielder) (any, error) {
		return Await[string](y, thunk)
	}))
	r.NoError(err)
	r.Equal("CORUN", v)

	_, err = await(t, Go(func(y *Yielder) (any, error) {
		return y.Yield(Thunkify(lookup)(""))
	}))
	r.EqualError(err, "empty name")
}

func TestThunkify2(t *testing.T) {
	r := require.New(t)

	join := Thunkify2(func(a, b string, done func(string, error)) {
		done(a+", "+b, nil)
	})

	v, err := await(t, Go(func(y *Yielder) (any, error) {
		return y.Yield(join("John", "Smith"))
	}))
	r.NoError(err)
	r.Equal("John, Smith", v)
}

func TestThunkBindsReceiver(t *testing.T) {
	r := require.New(t)

	type service struct{ name string }
	s := &service{name: "svc"}
	self := func(done func(*service, error)) { done(s, nil) }

	v, err := await(t, Go(func(y *Yielder) (any, error) {
		return y.Yield(Thunk(self))
	}))
	r.NoError(err)
	r.Same(s, v)
}

func TestSleep(t *testing.T) {
	r := require.New(t)

	start := time.Now()
	v, err := await(t, Go(func(y *Yielder) (any, error) {
		for i := 0; i < 3; i++ {
			if _, err := y.Yield(Sleep(2 * time.Millisecond)); err != nil {
				return nil, err
			}
		}
		return "slept", nil
	}))
	r.NoError(err)
	r.Equal("slept", v)
	r.GreaterOrEqual(time.Since(start), 6*time.Millisecond)
}

func TestFromChan(t *testing.T) {
	r := require.New(t)

	ch := make(chan int, 1)
	ch <- 7
	v, err := FromChan(ch).Await(context.Background())
	r.NoError(err)
	r.Equal(7, v)

	closed := make(chan int)
	close(closed)
	_, err = FromChan(closed).Await(context.Background())
	r.ErrorIs(err, ErrClosed)
}
