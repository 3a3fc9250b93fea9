package policy

import (
	"github.com/arloliu/strand/types"
)

// Compile-time assertions that the retry policies implement types.RetryPolicy.
var (
	_ types.RetryPolicy = (*Default)(nil)
	_ types.RetryPolicy = (*Fallthrough)(nil)
	_ types.RetryPolicy = (*AlwaysIgnore)(nil)
	_ types.RetryPolicy = (*AlwaysRetry)(nil)
	_ types.RetryPolicy = (*DowngradingConsistency)(nil)
)

// Default is the conservative retry policy.
//
// It retries once, at the same consistency, when the failure looks transient:
// an Unavailable on the first attempt, or a timeout where enough replicas answered
// but the coordinator still gave up. Everything else is rethrown.
type Default struct{}

// NewDefault creates a new Default policy.
//
// Returns:
//   - *Default: A new default retry policy
func NewDefault() *Default {
	return &Default{}
}

// Decide implements types.RetryPolicy.
//
// Parameters:
//   - stmt: The statement (unused)
//   - signal: The classified failure
//   - nbRetry: Number of retries already performed
//
// Returns:
//   - types.RetryDecision: Retry on the first transient failure, Rethrow otherwise
func (p *Default) Decide(_ *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision {
	if nbRetry != 0 {
		return types.Rethrow()
	}

	switch s := signal.(type) {
	case *types.UnavailableError:
		return types.Retry()
	case *types.ReadTimeoutError:
		if s.Received >= s.Required {
			return types.Retry()
		}
	case *types.WriteTimeoutError:
		if s.Received >= s.Required {
			return types.Retry()
		}
	}

	return types.Rethrow()
}

// Fallthrough never retries. It is the explicit "no retry" baseline.
type Fallthrough struct{}

// FallthroughInstance is the shared Fallthrough policy.
var FallthroughInstance = &Fallthrough{}

// Decide always returns Rethrow.
func (p *Fallthrough) Decide(_ *types.Statement, _ types.FailureSignal, _ int) types.RetryDecision {
	return types.Rethrow()
}

// AlwaysIgnore reports success for every failure.
type AlwaysIgnore struct{}

// NewAlwaysIgnore creates a new AlwaysIgnore policy.
func NewAlwaysIgnore() *AlwaysIgnore {
	return &AlwaysIgnore{}
}

// Decide always returns Ignore.
func (p *AlwaysIgnore) Decide(_ *types.Statement, _ types.FailureSignal, _ int) types.RetryDecision {
	return types.Ignore()
}

// AlwaysRetry retries every failure at the same consistency, forever.
//
// It never ends the retry loop by itself: callers must bound execution with a
// context deadline or cancellation.
type AlwaysRetry struct{}

// NewAlwaysRetry creates a new AlwaysRetry policy.
func NewAlwaysRetry() *AlwaysRetry {
	return &AlwaysRetry{}
}

// Decide always returns Retry without a consistency override.
func (p *AlwaysRetry) Decide(_ *types.Statement, _ types.FailureSignal, _ int) types.RetryDecision {
	return types.Retry()
}

// DowngradingConsistency retries at the highest consistency the cluster can still
// satisfy, trading guarantees for availability.
//
// Writes are only downgraded for batch-log timeouts: a partially applied ordinary
// write is rethrown. Retries are capped by WithMaxDowngradeRetries (default 1).
type DowngradingConsistency struct {
	maxRetries int
}

// DowngradingOption configures a DowngradingConsistency policy.
type DowngradingOption func(*DowngradingConsistency)

// DefaultMaxDowngradeRetries is the default retry cap of DowngradingConsistency.
const DefaultMaxDowngradeRetries = 1

// WithMaxDowngradeRetries sets how many retries the policy allows per statement.
//
// Parameters:
//   - n: Maximum retries; values below zero are treated as zero
//
// Returns:
//   - DowngradingOption: Configuration option
func WithMaxDowngradeRetries(n int) DowngradingOption {
	return func(p *DowngradingConsistency) {
		p.maxRetries = max(n, 0)
	}
}

// NewDowngradingConsistency creates a new DowngradingConsistency policy.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *DowngradingConsistency: A new downgrading policy
func NewDowngradingConsistency(opts ...DowngradingOption) *DowngradingConsistency {
	p := &DowngradingConsistency{maxRetries: DefaultMaxDowngradeRetries}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// MaxRetries returns the configured retry cap.
func (p *DowngradingConsistency) MaxRetries() int {
	return p.maxRetries
}

// Decide implements types.RetryPolicy.
//
// Parameters:
//   - stmt: The statement (unused)
//   - signal: The classified failure
//   - nbRetry: Number of retries already performed
//
// Returns:
//   - types.RetryDecision: Retry, possibly at a lower consistency, or Rethrow
func (p *DowngradingConsistency) Decide(_ *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision {
	if nbRetry >= p.maxRetries {
		return types.Rethrow()
	}

	switch s := signal.(type) {
	case *types.UnavailableError:
		// Serial levels guard the Paxos phase and have no weaker serial level.
		if s.Alive <= 0 || s.Consistency.IsSerial() {
			return types.Rethrow()
		}

		return downgradeTo(s.Alive)

	case *types.ReadTimeoutError:
		if s.Received <= 0 && !s.DataPresent {
			return types.Rethrow()
		}
		// Enough replicas answered, so only a missing data response justifies
		// retrying the same read.
		if s.Received >= s.Required {
			if s.DataPresent {
				return types.Rethrow()
			}

			return types.Retry()
		}

		return downgradeTo(s.Received)

	case *types.WriteTimeoutError:
		if s.WriteType != types.WriteBatchLog {
			return types.Rethrow()
		}

		return retryOrDowngrade(s.Received, s.Required)
	}

	return types.Rethrow()
}

// retryOrDowngrade retries at the same level when enough responses arrived and
// downgrades to what the responses can satisfy otherwise.
func retryOrDowngrade(received, required int) types.RetryDecision {
	if received >= required {
		return types.Retry()
	}

	return downgradeTo(received)
}

func downgradeTo(replicas int) types.RetryDecision {
	cl, ok := types.HighestAchievable(replicas)
	if !ok {
		return types.Rethrow()
	}

	return types.RetryAt(cl)
}
