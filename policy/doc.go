// Package policy provides retry policies and host selectors for the strand executor.
//
// # Retry Policies
//
// A retry policy turns a classified failure into a decision. All policies
// implement types.RetryPolicy:
//
//	type RetryPolicy interface {
//	    Decide(stmt *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision
//	}
//
// nbRetry is the number of retries already performed for the statement, so the
// first failure is decided with nbRetry == 0.
//
// Available policies:
//
//   - [Default]: Retries once at the same consistency when the failure looks transient
//   - [Fallthrough]: Never retries ([FallthroughInstance] is the shared value)
//   - [AlwaysIgnore]: Reports success for every failure
//   - [AlwaysRetry]: Retries forever; bound it with a context deadline
//   - [DowngradingConsistency]: Retries at the highest consistency the live replicas can satisfy
//
// Decorators wrap any policy without changing its decisions:
//
//   - [Logging]: Emits one structured log record per decision
//   - [Backoff]: Adds an exponential, cancellable delay before each retry
//
// Example:
//
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithRetryPolicy(policy.NewBackoff(
//	        policy.NewDowngradingConsistency(policy.WithMaxDowngradeRetries(2)),
//	        policy.WithBackoffBase(20*time.Millisecond),
//	    )),
//	    strand.WithLogDecisions(true),
//	)
//
// Policies can also be selected by name from configuration with [ByName].
//
// # Host Selectors
//
// Selectors decide which host the executor tries next. The executor passes the
// hosts already tried for the statement and never expects the same host twice
// unless the selector re-offers it explicitly.
//
//   - [RoundRobin]: Rotates over all hosts; [WithRequery] keeps cycling
//   - [DCAwareRoundRobin]: Local datacenter first, optional remote fallback
//   - [TokenAware]: Replicas of the statement's partition first, then a child selector
//   - [HostCircuitBreaker]: Moves repeatedly failing hosts to the back of the line
//
// Example:
//
//	selector := policy.NewHostCircuitBreaker(
//	    policy.NewTokenAware(
//	        policy.NewDCAwareRoundRobin("dc1", hosts, policy.WithRemoteFallback()),
//	        policy.WithLocalDC("dc1"),
//	    ),
//	    policy.WithThreshold(5),
//	)
//
// Selectors that implement SetMetadata receive every cluster metadata snapshot
// the executor's topology watcher produces, and forward it to their children.
package policy
