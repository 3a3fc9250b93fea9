package policy

import (
	"math/rand/v2"
	"time"

	"github.com/arloliu/strand/types"
)

// Backoff decorates a retry policy with an exponential delay between attempts.
//
// Decisions are forwarded unchanged. The executor waits RetryDelay before each
// retry; the wait ends early when the statement's context is cancelled.
type Backoff struct {
	inner  types.RetryPolicy
	base   time.Duration
	max    time.Duration
	jitter float64
}

var (
	_ types.RetryPolicy  = (*Backoff)(nil)
	_ types.RetryDelayer = (*Backoff)(nil)
)

// BackoffOption configures a Backoff decorator.
type BackoffOption func(*Backoff)

// WithBackoffBase sets the delay before the first retry.
//
// Parameters:
//   - d: Base delay
//
// Returns:
//   - BackoffOption: Configuration option
func WithBackoffBase(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.base = d
	}
}

// WithBackoffMax caps the delay.
//
// Parameters:
//   - d: Maximum delay
//
// Returns:
//   - BackoffOption: Configuration option
func WithBackoffMax(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.max = d
	}
}

// WithBackoffJitter sets the random fraction subtracted from each delay, in [0, 1].
//
// Parameters:
//   - fraction: Jitter fraction; 0 disables jitter
//
// Returns:
//   - BackoffOption: Configuration option
func WithBackoffJitter(fraction float64) BackoffOption {
	return func(b *Backoff) {
		b.jitter = min(max(fraction, 0), 1)
	}
}

// NewBackoff wraps a retry policy.
//
// Defaults: base=10ms, max=1s, jitter=0.2
//
// Parameters:
//   - inner: The policy making the decisions (nil means Fallthrough)
//   - opts: Optional configuration options
//
// Returns:
//   - *Backoff: The decorated policy
func NewBackoff(inner types.RetryPolicy, opts ...BackoffOption) *Backoff {
	if inner == nil {
		inner = FallthroughInstance
	}

	b := &Backoff{
		inner:  inner,
		base:   10 * time.Millisecond,
		max:    time.Second,
		jitter: 0.2,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.max < b.base {
		b.max = b.base
	}

	return b
}

// Decide forwards to the wrapped policy.
func (b *Backoff) Decide(stmt *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision {
	return b.inner.Decide(stmt, signal, nbRetry)
}

// RetryDelay returns base * 2^nbRetry, capped at max, minus a random jitter.
func (b *Backoff) RetryDelay(nbRetry int) time.Duration {
	delay := calculateBackoff(nbRetry+1, b.base, b.max)
	if b.jitter > 0 && delay > 0 {
		delay -= time.Duration(rand.Float64() * b.jitter * float64(delay))
	}

	return delay
}

// calculateBackoff calculates the backoff delay with exponential increase.
func calculateBackoff(attempt int, delay, maxDelay time.Duration) time.Duration {
	// Exponential backoff: delay * 2^(attempt-1)
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}

	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
