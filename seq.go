package corun

import "iter"

// Values steps r by hand, advancing it with nil, and yields every value
// it suspends on paired with a nil error. Suspension values are not
// resolved. If r terminates abnormally, the last pair carries its
// error and a nil value; a normal finish just ends the sequence.
// Breaking out of the loop stops r if it is a *Coroutine.
func Values(r Routine) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			st, err := r.Advance(nil)
			if err != nil {
				yield(nil, err)
				return
			}
			if st.Terminated {
				return
			}
			if !yield(st.Outcome, nil) {
				if c, ok := r.(*Coroutine); ok {
					_ = c.Stop()
				}
				return
			}
		}
	}
}

// Drain advances r with nil until it terminates and returns its
// completion value, ignoring every value it suspends on.
func Drain(r Routine) (any, error) {
	for {
		st, err := r.Advance(nil)
		if err != nil {
			return nil, err
		}
		if st.Terminated {
			return st.Outcome, nil
		}
	}
}
