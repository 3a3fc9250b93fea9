package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "strand"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

var (
	outcomeNames = []string{"succeeded", "failed", "cancelled"}
	signalKinds  = []types.SignalKind{
		types.SignalUnavailable,
		types.SignalReadTimeout,
		types.SignalWriteTimeout,
		types.SignalNoHostAvailable,
		types.SignalTransport,
	}
	decisionTypes = []types.DecisionType{types.DecisionRethrow, types.DecisionRetry, types.DecisionIgnore}
)

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Metrics with a fixed label set are pre-created at initialization time;
// per-datacenter and per-downgrade counters are created on first use.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	// Statement metrics
	executeTotal    *metrics.Counter
	executeDuration *metrics.Histogram
	outcomes        map[string]*metrics.Counter

	// Attempt metrics
	attemptErrors   map[types.SignalKind]*metrics.Counter
	hostUnreachable *metrics.Counter

	// Decision metrics
	decisions map[types.DecisionType]*metrics.Counter

	// Topology metrics
	topologyRefresh *metrics.Counter
	unknownStrategy *metrics.Counter
	metadataVersion atomic.Uint64
	ringTokens      atomic.Int64
	ringHosts       atomic.Int64

	// Replay metrics
	replayEnqueued *metrics.Counter
	replaySuccess  *metrics.Counter
	replayError    *metrics.Counter
	replayDropped  *metrics.Counter
	replayDuration *metrics.Histogram
}

var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "strand",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates the metrics with a fixed label set.
func (c *Collector) initMetrics() {
	p := c.prefix

	// Statement metrics
	c.executeTotal = c.set.NewCounter(p + "_execute_total")
	c.executeDuration = c.set.NewHistogram(p + "_execute_duration_seconds")
	c.outcomes = make(map[string]*metrics.Counter, len(outcomeNames))
	for _, name := range outcomeNames {
		c.outcomes[name] = c.set.NewCounter(fmt.Sprintf(`%s_outcome_total{outcome="%s"}`, p, name))
	}

	// Attempt metrics
	c.attemptErrors = make(map[types.SignalKind]*metrics.Counter, len(signalKinds))
	for _, kind := range signalKinds {
		c.attemptErrors[kind] = c.set.NewCounter(fmt.Sprintf(`%s_attempt_errors_total{signal="%s"}`, p, kind))
	}
	c.hostUnreachable = c.set.NewCounter(p + "_host_unreachable_total")

	// Decision metrics
	c.decisions = make(map[types.DecisionType]*metrics.Counter, len(decisionTypes))
	for _, d := range decisionTypes {
		c.decisions[d] = c.set.NewCounter(fmt.Sprintf(`%s_decisions_total{decision="%s"}`, p, d))
	}

	// Topology metrics - use gauges with callbacks
	c.topologyRefresh = c.set.NewCounter(p + "_topology_refresh_total")
	c.unknownStrategy = c.set.NewCounter(p + "_unknown_strategy_total")
	c.set.NewGauge(p+"_metadata_version", func() float64 {
		return float64(c.metadataVersion.Load())
	})
	c.set.NewGauge(p+"_ring_tokens", func() float64 {
		return float64(c.ringTokens.Load())
	})
	c.set.NewGauge(p+"_ring_hosts", func() float64 {
		return float64(c.ringHosts.Load())
	})

	// Replay metrics
	c.replayEnqueued = c.set.NewCounter(p + "_replay_enqueued_total")
	c.replaySuccess = c.set.NewCounter(p + "_replay_success_total")
	c.replayError = c.set.NewCounter(p + "_replay_error_total")
	c.replayDropped = c.set.NewCounter(p + "_replay_dropped_total")
	c.replayDuration = c.set.NewHistogram(p + "_replay_duration_seconds")
}

// Set returns the metrics set the collector registers with.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

// ----------------------
// Statements
// ----------------------

// IncExecuteTotal increments the executed statements counter.
func (c *Collector) IncExecuteTotal() {
	c.executeTotal.Inc()
}

// IncOutcome increments the counter for a finished statement.
func (c *Collector) IncOutcome(outcome string) {
	if counter, ok := c.outcomes[outcome]; ok {
		counter.Inc()
		return
	}
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_outcome_total{outcome=%q}`, c.prefix, outcome)).Inc()
}

// ObserveExecuteDuration records the duration of a whole execution in seconds.
func (c *Collector) ObserveExecuteDuration(seconds float64) {
	c.executeDuration.Update(seconds)
}

// ----------------------
// Attempts
// ----------------------

// IncAttemptTotal increments the counter of dispatches to a datacenter.
func (c *Collector) IncAttemptTotal(dataCenter string) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_attempt_total{datacenter=%q}`, c.prefix, dataCenter)).Inc()
}

// IncAttemptError increments the counter of failed attempts by signal kind.
func (c *Collector) IncAttemptError(kind types.SignalKind) {
	if counter, ok := c.attemptErrors[kind]; ok {
		counter.Inc()
	}
}

// IncHostUnreachable increments the counter of attempts that never reached a host.
func (c *Collector) IncHostUnreachable() {
	c.hostUnreachable.Inc()
}

// ----------------------
// Retry Decisions
// ----------------------

// IncDecision increments the counter for a retry policy decision.
func (c *Collector) IncDecision(decision types.DecisionType) {
	if counter, ok := c.decisions[decision]; ok {
		counter.Inc()
	}
}

// IncConsistencyDowngrade increments the counter when a retry changes consistency.
func (c *Collector) IncConsistencyDowngrade(from, to types.Consistency) {
	c.set.GetOrCreateCounter(
		fmt.Sprintf(`%s_consistency_downgrade_total{from="%s",to="%s"}`, c.prefix, from, to),
	).Inc()
}

// ----------------------
// Topology
// ----------------------

// IncTopologyRefresh increments the counter of applied metadata snapshots.
func (c *Collector) IncTopologyRefresh() {
	c.topologyRefresh.Inc()
}

// IncUnknownStrategy increments the counter of unresolved keyspace strategies.
func (c *Collector) IncUnknownStrategy() {
	c.unknownStrategy.Inc()
}

// SetMetadata updates the ring gauges from a new metadata snapshot.
//
// The executor calls it whenever the topology watcher delivers a snapshot.
func (c *Collector) SetMetadata(md *replication.Metadata) {
	if md == nil {
		return
	}

	c.metadataVersion.Store(md.Version)
	c.ringTokens.Store(int64(md.Ring.Len()))
	c.ringHosts.Store(int64(len(md.Ring.Hosts())))
}

// ----------------------
// Replay
// ----------------------

// IncReplayEnqueued increments the counter of statements parked for replay.
func (c *Collector) IncReplayEnqueued() {
	c.replayEnqueued.Inc()
}

// IncReplaySuccess increments the counter of successful replays.
func (c *Collector) IncReplaySuccess() {
	c.replaySuccess.Inc()
}

// IncReplayError increments the counter of failed replay attempts.
func (c *Collector) IncReplayError() {
	c.replayError.Inc()
}

// IncReplayDropped increments the counter of replays given up on.
func (c *Collector) IncReplayDropped() {
	c.replayDropped.Inc()
}

// ObserveReplayDuration records the duration of a replay attempt in seconds.
func (c *Collector) ObserveReplayDuration(seconds float64) {
	c.replayDuration.Update(seconds)
}
