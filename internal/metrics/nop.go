// Package metrics provides internal metrics utilities for strand.
package metrics

import "github.com/arloliu/strand/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Statements
// ----------------------

// IncExecuteTotal discards the metric.
func (m *NopMetrics) IncExecuteTotal() {}

// IncOutcome discards the metric.
func (m *NopMetrics) IncOutcome(_ string) {}

// ObserveExecuteDuration discards the metric.
func (m *NopMetrics) ObserveExecuteDuration(_ float64) {}

// ----------------------
// Attempts
// ----------------------

// IncAttemptTotal discards the metric.
func (m *NopMetrics) IncAttemptTotal(_ string) {}

// IncAttemptError discards the metric.
func (m *NopMetrics) IncAttemptError(_ types.SignalKind) {}

// IncHostUnreachable discards the metric.
func (m *NopMetrics) IncHostUnreachable() {}

// ----------------------
// Retry Decisions
// ----------------------

// IncDecision discards the metric.
func (m *NopMetrics) IncDecision(_ types.DecisionType) {}

// IncConsistencyDowngrade discards the metric.
func (m *NopMetrics) IncConsistencyDowngrade(_, _ types.Consistency) {}

// ----------------------
// Topology
// ----------------------

// IncTopologyRefresh discards the metric.
func (m *NopMetrics) IncTopologyRefresh() {}

// IncUnknownStrategy discards the metric.
func (m *NopMetrics) IncUnknownStrategy() {}

// ----------------------
// Replay
// ----------------------

// IncReplayEnqueued discards the metric.
func (m *NopMetrics) IncReplayEnqueued() {}

// IncReplaySuccess discards the metric.
func (m *NopMetrics) IncReplaySuccess() {}

// IncReplayError discards the metric.
func (m *NopMetrics) IncReplayError() {}

// IncReplayDropped discards the metric.
func (m *NopMetrics) IncReplayDropped() {}

// ObserveReplayDuration discards the metric.
func (m *NopMetrics) ObserveReplayDuration(_ float64) {}
