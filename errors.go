package corun

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidSuspension is matched by every *InvalidSuspensionError.
	ErrInvalidSuspension = errors.New("corun: invalid suspension value")

	// ErrStopped is reported by a routine that was unwound with Stop, and
	// is the panic value seen inside its body while unwinding.
	ErrStopped = errors.New("corun: routine stopped")

	// ErrTerminated is the panic value of Yield on a finished routine.
	ErrTerminated = errors.New("corun: routine terminated")

	// ErrNotRunning is the panic value of Yield called from outside the
	// routine's body.
	ErrNotRunning = errors.New("corun: yield outside of running routine")

	// ErrNilRoutine is the failure of a run started without a routine.
	ErrNilRoutine = errors.New("corun: nil routine")

	// ErrClosed rejects a FromChan future whose channel closed before
	// delivering a value.
	ErrClosed = errors.New("corun: channel closed")

	// ErrNilFailure stands in for a nil error used to fail a future or a
	// routine.
	ErrNilFailure = errors.New("corun: nil failure")
)

// InvalidSuspensionError reports a suspension value that is none of the
// recognized awaitable kinds. Value is the offending value.
type InvalidSuspensionError struct {
	Value any
}

func (e *InvalidSuspensionError) Error() string {
	return fmt.Sprintf("%v: %v (%T)", ErrInvalidSuspension, e.Value, e.Value)
}

func (e *InvalidSuspensionError) Is(target error) bool {
	return target == ErrInvalidSuspension
}

// ResultTypeError reports a resumed value whose type does not match
// the type requested from Await.
type ResultTypeError struct {
	Want reflect.Type
	Got  any
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("corun: awaited %v, got %T", e.Want, e.Got)
}
