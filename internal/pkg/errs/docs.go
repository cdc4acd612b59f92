// Package errs provides the error taxonomy of the dispatch core.
// Every error type follows the same pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired, ErrInvalidTransition)
//   - A struct type carrying the offending entity and its identifier
//   - Constructor functions, with and without cause where it makes sense
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Constructor-level failures use the ValueIs* family. Operation-level failures use
// ValidationError, ObjectNotFoundError, InvalidTransitionError, InvalidStateError,
// ConcurrentModificationError, DriverUnavailableError and OracleTimeoutError.
// Callers classify with errors.Is against the sentinels or the Is* helpers.
package errs
