package corun

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError carries a value recovered from a panic in a routine body,
// a deferred operation, or an executor task, together with the stack
// at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v", p.Value)
}

// ErrorWithStack returns the panic value followed by its stack.
func (p *PanicError) ErrorWithStack() string {
	return fmt.Sprintf("%v\n\n%s", p.Value, p.Stack)
}

func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

// DebugString walks the error chain under p and renders every panic in
// it with its stack, so a panic in a nested routine can be traced back
// through each driver it escaped from.
func (p *PanicError) DebugString() string {
	var (
		sb   strings.Builder
		seen = make(map[error]bool)
		walk func(error)
	)

	walk = func(e error) {
		if e == nil || seen[e] {
			return
		}
		seen[e] = true

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if pe, ok := e.(*PanicError); ok {
			sb.WriteString(pe.ErrorWithStack())
		} else {
			sb.WriteString(e.Error())
		}

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, ue := range u.Unwrap() {
				walk(ue)
			}
		default:
			walk(errors.Unwrap(e))
		}
	}

	walk(p)
	return sb.String()
}

func newPanicError(v any) *PanicError {
	return &PanicError{
		Value: v,
		Stack: debug.Stack(),
	}
}

// catch runs fn and converts a panic into a *PanicError.
func catch(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	fn()
	return nil
}
