// Package types provides shared types and errors for the strand library.
//
// This is a "leaf" package with no imports from other strand packages,
// allowing it to be imported by any package without causing import cycles.
package types

import "errors"

// Logger is a structured key/value logger.
//
// Messages carry alternating key/value pairs, as in zap's sugared Infow family;
// strand.NewZapLogger adapts a *zap.Logger. Implementations must be safe for
// concurrent use.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Sentinel errors for common failure scenarios.
var (
	// ErrCancelled indicates that statement execution was cancelled by the caller.
	// It is distinct from every FailureSignal.
	ErrCancelled = errors.New("strand: execution cancelled")

	// ErrExecutorClosed indicates an execution was attempted on a closed executor.
	ErrExecutorClosed = errors.New("strand: executor is closed")

	// ErrNilTransport indicates that a nil transport was provided.
	ErrNilTransport = errors.New("strand: transport cannot be nil")

	// ErrNilHostSelector indicates that a nil host selector was provided.
	ErrNilHostSelector = errors.New("strand: host selector cannot be nil")

	// ErrNilStatement indicates that a nil statement was submitted.
	ErrNilStatement = errors.New("strand: statement cannot be nil")

	// ErrInvalidConsistency indicates a consistency level outside the enumeration.
	ErrInvalidConsistency = errors.New("strand: invalid consistency level")

	// ErrUnknownPolicy indicates a retry policy name that is not recognized.
	ErrUnknownPolicy = errors.New("strand: unknown retry policy")
)

// CancelledError reports that execution stopped because its context ended.
type CancelledError struct {
	// Retries is the number of retries performed before cancellation.
	Retries int

	// Cause is the context error (context.Canceled or context.DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return "strand: execution cancelled: " + e.Cause.Error()
}

// Unwrap returns ErrCancelled and the context error for errors.Is/As compatibility.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.Cause}
}
