package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Implementations should be thread-safe as methods may be called concurrently
// from many executing statements.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/strand/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Statements
	// ----------------------

	// IncExecuteTotal increments the executed statements counter.
	IncExecuteTotal()

	// IncOutcome increments the counter for a finished statement.
	// Outcome values: "succeeded", "failed", "cancelled".
	IncOutcome(outcome string)

	// ObserveExecuteDuration records the duration of a whole execution in seconds.
	ObserveExecuteDuration(seconds float64)

	// ----------------------
	// Attempts
	// ----------------------

	// IncAttemptTotal increments the counter of dispatches to a datacenter.
	IncAttemptTotal(dataCenter string)

	// IncAttemptError increments the counter of failed attempts by signal kind.
	IncAttemptError(kind SignalKind)

	// IncHostUnreachable increments the counter of attempts that never reached a host.
	IncHostUnreachable()

	// ----------------------
	// Retry Decisions
	// ----------------------

	// IncDecision increments the counter for a retry policy decision.
	IncDecision(decision DecisionType)

	// IncConsistencyDowngrade increments the counter when a retry lowers consistency.
	IncConsistencyDowngrade(from, to Consistency)

	// ----------------------
	// Topology
	// ----------------------

	// IncTopologyRefresh increments the counter of applied metadata snapshots.
	IncTopologyRefresh()

	// IncUnknownStrategy increments the counter of keyspaces whose replication
	// strategy could not be resolved.
	IncUnknownStrategy()

	// ----------------------
	// Replay
	// ----------------------

	// IncReplayEnqueued increments the counter of statements parked for replay.
	IncReplayEnqueued()

	// IncReplaySuccess increments the counter of successful replays.
	IncReplaySuccess()

	// IncReplayError increments the counter of failed replay attempts.
	IncReplayError()

	// IncReplayDropped increments the counter of replays given up on.
	IncReplayDropped()

	// ObserveReplayDuration records the duration of a replay attempt in seconds.
	ObserveReplayDuration(seconds float64)
}
