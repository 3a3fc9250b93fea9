// Package strand is the client-side coordination core of a CQL driver.
//
// It decides, for every failure reported by a coordinator node, whether to retry
// (optionally at a lower consistency), surface the failure, or treat it as
// success, and it computes which nodes own which tokens so that consistency
// arithmetic and host selection are correct.
//
// # Key Features
//
//   - Retry Policies: Default, Fallthrough, AlwaysIgnore, AlwaysRetry and DowngradingConsistency
//   - Cancellable Retry Loop: Every wait honors the statement's context
//   - Token Ownership: Simple, NetworkTopology, Local and Everywhere replication strategies
//   - Pluggable Transport: gocql v1 and v2 adapters, or any Transport implementation
//   - Live Metadata: Cluster polling, in-memory or NATS KV backed topology watchers
//   - Deferred Replay: Idempotent statements that still fail can be parked and retried later
//
// # Basic Usage
//
//	cluster := gocql.NewCluster("10.0.0.1", "10.0.0.2")
//	session, _ := cluster.CreateSession()
//
//	transport := v1.NewTransport(session)
//	selector := policy.NewTokenAware(
//	    policy.NewDCAwareRoundRobin("dc1", nil),
//	    policy.WithLocalDC("dc1"),
//	)
//	poller, _ := cql.NewPoller(v1.NewMetadataLoader(session, "app"))
//
//	executor, err := strand.NewExecutor(selector, transport,
//	    strand.WithRetryPolicy(policy.NewDowngradingConsistency()),
//	    strand.WithErrorClassifier(v1.ClassifyError),
//	    strand.WithDefaultConsistency(strand.LocalQuorum),
//	    strand.WithTopologyWatcher(poller),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer executor.Close()
//
//	outcome := executor.Execute(ctx, strand.NewStatement("SELECT * FROM users WHERE id = ?", id))
//
// # Outcomes
//
// Execute never returns a bare error. The Outcome says how the execution ended:
//
//   - OutcomeSucceeded: A host answered, or the policy ignored the failure (Ignored is set)
//   - OutcomeFailed: Signal holds the original failure signal
//   - OutcomeCancelled: The context ended first; Err() matches types.ErrCancelled
//
// Outcome.Consistency is the effective consistency of the last attempt and can be
// compared with Outcome.Requested to detect a downgrade.
//
// # Error Handling
//
// Failure signals are concrete error types, so callers branch with errors.As:
//
//	_, err := executor.Exec(ctx, stmt)
//	var unavailable *types.UnavailableError
//	if errors.As(err, &unavailable) {
//	    log.Printf("only %d of %d replicas alive", unavailable.Alive, unavailable.Required)
//	}
//
// # Deferred Replay
//
// With WithReplayer, an idempotent statement whose final failure is transient
// (unavailable, read or write timeout, no host available) is handed to the
// replayer and Outcome.Parked is set. The replay package provides an in-memory
// queue and a NATS JetStream queue, and workers that feed parked statements back
// through Executor.Replay.
//
// # Sentinel Errors
//
//   - types.ErrExecutorClosed: Execute called after Close
//   - types.ErrCancelled: Execution cancelled by its context
//   - types.ErrNilHostSelector, types.ErrNilTransport: Invalid NewExecutor arguments
//   - types.ErrUnknownPolicy: Unknown retry policy name in Settings
//   - types.ErrInvalidConsistency: Unknown consistency name
//
// # Thread Safety
//
// Executor, all policies, selectors and replication strategies are safe for
// concurrent use from multiple goroutines.
package strand
