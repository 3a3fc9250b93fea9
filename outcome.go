package strand

import (
	"time"

	"github.com/arloliu/strand/types"
)

// OutcomeKind is the terminal state of a statement execution.
type OutcomeKind uint8

const (
	// OutcomeSucceeded means a host answered, or the retry policy ignored the failure.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeFailed means the failure was surfaced to the caller.
	OutcomeFailed
	// OutcomeCancelled means the context was cancelled before a terminal answer.
	OutcomeCancelled
)

// String returns the lower-case name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	}

	return "unknown"
}

// Outcome is the result of one statement execution.
type Outcome struct {
	// Kind is the terminal state.
	Kind OutcomeKind

	// Result is the response of the successful attempt. It is nil for failed,
	// cancelled and ignored executions.
	Result *types.Result

	// Consistency is the effective consistency of the last attempt. It differs
	// from Requested when the retry policy downgraded the statement.
	Consistency types.Consistency

	// Requested is the consistency the statement asked for, or the executor default.
	Requested types.Consistency

	// Signal is the failure surfaced by a Failed outcome.
	Signal types.FailureSignal

	// Retries is the number of retries performed.
	Retries int

	// Ignored is true when the retry policy turned a failure into success.
	Ignored bool

	// Parked is true when a Failed statement was handed to the replayer.
	Parked bool

	// Hosts lists the distinct hosts tried, in order of first attempt. A host
	// offered again by a requerying selector is recorded once.
	Hosts []types.Host

	// Attempts is the number of dispatches, including repeats on the same host.
	Attempts int

	// Duration is the total execution time.
	Duration time.Duration

	err error
}

// Err returns the error of the execution, or nil on success.
//
// For a Failed outcome this is the failure signal itself, so callers can branch
// on the failure kind with errors.As. For a Cancelled outcome it is a
// *types.CancelledError matching both types.ErrCancelled and the context error.
//
// Returns:
//   - error: nil for Succeeded outcomes
func (o *Outcome) Err() error {
	switch o.Kind {
	case OutcomeFailed:
		if o.Signal != nil {
			return o.Signal
		}

		return o.err
	case OutcomeCancelled:
		return o.err
	}

	return nil
}

// Succeeded reports whether the outcome is a success, including ignored failures.
func (o *Outcome) Succeeded() bool {
	return o.Kind == OutcomeSucceeded
}

// Downgraded reports whether the last attempt ran at a consistency other than the
// requested one.
func (o *Outcome) Downgraded() bool {
	return o.Consistency != o.Requested
}
