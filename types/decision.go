package types

import "time"

// DecisionType is the case of a RetryDecision.
type DecisionType uint8

const (
	// DecisionRethrow surfaces the failure to the caller.
	DecisionRethrow DecisionType = iota
	// DecisionRetry dispatches the statement again, possibly at another consistency.
	DecisionRetry
	// DecisionIgnore reports success to the caller despite the failure.
	DecisionIgnore
)

// String returns the lower-case name of the decision type.
func (t DecisionType) String() string {
	switch t {
	case DecisionRetry:
		return "retry"
	case DecisionIgnore:
		return "ignore"
	case DecisionRethrow:
		return "rethrow"
	}

	return "unknown"
}

// RetryDecision is the verdict of a RetryPolicy for one failed attempt.
//
// The zero value is a Rethrow. Only decisions built with RetryAt carry a
// consistency override.
type RetryDecision struct {
	typ         DecisionType
	consistency Consistency
	override    bool
}

// Retry returns a decision to retry at the attempt's current consistency.
func Retry() RetryDecision {
	return RetryDecision{typ: DecisionRetry}
}

// RetryAt returns a decision to retry at the given consistency.
func RetryAt(c Consistency) RetryDecision {
	return RetryDecision{typ: DecisionRetry, consistency: c, override: true}
}

// Rethrow returns a decision to surface the failure.
func Rethrow() RetryDecision {
	return RetryDecision{typ: DecisionRethrow}
}

// Ignore returns a decision to treat the failure as success.
func Ignore() RetryDecision {
	return RetryDecision{typ: DecisionIgnore}
}

// Type returns the case of the decision.
func (d RetryDecision) Type() DecisionType {
	return d.typ
}

// Override returns the consistency a Retry should use instead of the current one.
//
// Returns:
//   - Consistency: The override level
//   - bool: false when the decision carries no override
func (d RetryDecision) Override() (Consistency, bool) {
	return d.consistency, d.override
}

// String returns a compact representation such as "retry(ONE)" or "rethrow".
func (d RetryDecision) String() string {
	if d.override {
		return d.typ.String() + "(" + d.consistency.String() + ")"
	}

	return d.typ.String()
}

// RetryPolicy turns a failure signal into a decision.
//
// Implementations MUST be safe for concurrent use from multiple goroutines and must
// not modify the statement.
type RetryPolicy interface {
	// Decide returns the decision for a failed attempt.
	//
	// Parameters:
	//   - stmt: The statement being executed (read-only, for context and logging)
	//   - signal: The classified failure
	//   - nbRetry: Number of retries already performed for this statement
	//
	// Returns:
	//   - RetryDecision: What the executor should do next
	Decide(stmt *Statement, signal FailureSignal, nbRetry int) RetryDecision
}

// RetryDelayer is an optional interface for retry policies that wait between a
// failure and the next dispatch.
//
// The executor waits for the returned duration before retrying; the wait is
// interrupted by context cancellation.
type RetryDelayer interface {
	// RetryDelay returns how long to wait before the retry numbered nbRetry+1.
	RetryDelay(nbRetry int) time.Duration
}
