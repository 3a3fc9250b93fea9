// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "strand":
//
//	collector := vm.New()
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
// Statements:
//   - {prefix}_execute_total - Counter of executed statements
//   - {prefix}_execute_duration_seconds - Histogram of execution latencies, retries included
//   - {prefix}_outcome_total{outcome} - Counter of outcomes (succeeded, failed, cancelled)
//
// Attempts:
//   - {prefix}_attempt_total{datacenter} - Counter of dispatches per datacenter
//   - {prefix}_attempt_errors_total{signal} - Counter of failed attempts per signal kind
//   - {prefix}_host_unreachable_total - Counter of attempts that never reached a host
//
// Retry decisions:
//   - {prefix}_decisions_total{decision} - Counter of decisions (retry, ignore, rethrow)
//   - {prefix}_consistency_downgrade_total{from,to} - Counter of consistency changes on retry
//
// Topology:
//   - {prefix}_topology_refresh_total - Counter of applied metadata snapshots
//   - {prefix}_unknown_strategy_total - Counter of keyspaces with an unresolved strategy
//   - {prefix}_metadata_version - Gauge of the current snapshot version
//   - {prefix}_ring_tokens, {prefix}_ring_hosts - Gauges of the current ring size
//
// Replay:
//   - {prefix}_replay_enqueued_total - Counter of statements parked for replay
//   - {prefix}_replay_success_total, {prefix}_replay_error_total - Counters of replay attempts
//   - {prefix}_replay_dropped_total - Counter of replays given up on
//   - {prefix}_replay_duration_seconds - Histogram of replay attempt latencies
//
// # Performance Notes
//
// Metrics with a fixed label set are pre-created at initialization using the
// NewXXX pattern; label values only known at runtime (datacenters, consistency
// pairs) go through GetOrCreateCounter.
package vm
