// Package corun drives cooperative routines: functions that suspend on
// awaitable values and are resumed with the outcome, either a value or
// an error, until they return.
//
// A routine is created with New from a function that suspends by
// calling Yield on the Yielder it receives. Yield returns the value the
// routine was resumed with, or the error injected at that point; the
// routine recovers from an injected error simply by handling it, or
// gives up by returning it.
//
// A Driver (see Run and Go) owns a routine for its whole life. It
// primes the routine, passes every suspension value to a Resolver and
// resumes the routine with the result, and exposes the routine's
// completion as a Future. The Resolver understands five kinds of
// suspension values:
//
//   - future-like values implementing Awaitable, such as *Future;
//   - Deferred callback-style operations, started when resolved;
//   - nested routines, or functions producing one, which are driven
//     by a child run;
//   - All collections of the above, started in order and awaited
//     together, failing on the first failure;
//   - anything else, which fails with an *InvalidSuspensionError.
//
// The engine never retries and never cancels: a routine that wants a
// retry suspends again, and a fan-out that lost one element leaves the
// others running. Thunkify, Executor and FromChan adapt callback-style,
// blocking and channel-based Go code into awaitable values.
package corun
