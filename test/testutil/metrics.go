package testutil

import (
	"sync"

	"github.com/arloliu/strand/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertion in tests.
type TestMetricsCollector struct {
	mu sync.RWMutex

	// Statements
	ExecuteTotal    int64
	Outcomes        map[string]int64
	ExecuteDuration []float64

	// Attempts
	AttemptTotal    map[string]int64
	AttemptErrors   map[types.SignalKind]int64
	HostUnreachable int64

	// Retry decisions
	Decisions  map[types.DecisionType]int64
	Downgrades map[string]int64 // key: "FROM->TO"

	// Topology
	TopologyRefresh int64
	UnknownStrategy int64

	// Replay
	ReplayEnqueued int64
	ReplaySuccess  int64
	ReplayError    int64
	ReplayDropped  int64
	ReplayDuration []float64
}

// Compile-time assertion that TestMetricsCollector implements types.MetricsCollector.
var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new test metrics collector.
func NewTestMetricsCollector() *TestMetricsCollector {
	return &TestMetricsCollector{
		Outcomes:      make(map[string]int64),
		AttemptTotal:  make(map[string]int64),
		AttemptErrors: make(map[types.SignalKind]int64),
		Decisions:     make(map[types.DecisionType]int64),
		Downgrades:    make(map[string]int64),
	}
}

// ----------------------
// Statements
// ----------------------

// IncExecuteTotal implements types.MetricsCollector.
func (m *TestMetricsCollector) IncExecuteTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecuteTotal++
}

// IncOutcome implements types.MetricsCollector.
func (m *TestMetricsCollector) IncOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes[outcome]++
}

// ObserveExecuteDuration implements types.MetricsCollector.
func (m *TestMetricsCollector) ObserveExecuteDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecuteDuration = append(m.ExecuteDuration, seconds)
}

// ----------------------
// Attempts
// ----------------------

// IncAttemptTotal implements types.MetricsCollector.
func (m *TestMetricsCollector) IncAttemptTotal(dataCenter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AttemptTotal[dataCenter]++
}

// IncAttemptError implements types.MetricsCollector.
func (m *TestMetricsCollector) IncAttemptError(kind types.SignalKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AttemptErrors[kind]++
}

// IncHostUnreachable implements types.MetricsCollector.
func (m *TestMetricsCollector) IncHostUnreachable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HostUnreachable++
}

// ----------------------
// Retry Decisions
// ----------------------

// IncDecision implements types.MetricsCollector.
func (m *TestMetricsCollector) IncDecision(decision types.DecisionType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decisions[decision]++
}

// IncConsistencyDowngrade implements types.MetricsCollector.
func (m *TestMetricsCollector) IncConsistencyDowngrade(from, to types.Consistency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Downgrades[from.String()+"->"+to.String()]++
}

// ----------------------
// Topology
// ----------------------

// IncTopologyRefresh implements types.MetricsCollector.
func (m *TestMetricsCollector) IncTopologyRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TopologyRefresh++
}

// IncUnknownStrategy implements types.MetricsCollector.
func (m *TestMetricsCollector) IncUnknownStrategy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnknownStrategy++
}

// ----------------------
// Replay
// ----------------------

// IncReplayEnqueued implements types.MetricsCollector.
func (m *TestMetricsCollector) IncReplayEnqueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplayEnqueued++
}

// IncReplaySuccess implements types.MetricsCollector.
func (m *TestMetricsCollector) IncReplaySuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaySuccess++
}

// IncReplayError implements types.MetricsCollector.
func (m *TestMetricsCollector) IncReplayError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplayError++
}

// IncReplayDropped implements types.MetricsCollector.
func (m *TestMetricsCollector) IncReplayDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplayDropped++
}

// ObserveReplayDuration implements types.MetricsCollector.
func (m *TestMetricsCollector) ObserveReplayDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplayDuration = append(m.ReplayDuration, seconds)
}

// ----------------------
// Helper methods
// ----------------------

// GetOutcome returns the count of executions that ended with outcome.
func (m *TestMetricsCollector) GetOutcome(outcome string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Outcomes[outcome]
}

// GetDecision returns the count of decisions of a type.
func (m *TestMetricsCollector) GetDecision(decision types.DecisionType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Decisions[decision]
}

// GetAttemptError returns the count of failed attempts of a signal kind.
func (m *TestMetricsCollector) GetAttemptError(kind types.SignalKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.AttemptErrors[kind]
}

// GetDowngrade returns the count of downgrades between two levels.
func (m *TestMetricsCollector) GetDowngrade(from, to types.Consistency) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Downgrades[from.String()+"->"+to.String()]
}

// GetExecuteTotal returns the number of executed statements.
func (m *TestMetricsCollector) GetExecuteTotal() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ExecuteTotal
}

// GetHostUnreachable returns the number of attempts that never reached a host.
func (m *TestMetricsCollector) GetHostUnreachable() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.HostUnreachable
}

// GetTopologyRefresh returns the number of applied metadata snapshots.
func (m *TestMetricsCollector) GetTopologyRefresh() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.TopologyRefresh
}

// GetUnknownStrategy returns the number of unresolved keyspace strategies.
func (m *TestMetricsCollector) GetUnknownStrategy() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.UnknownStrategy
}

// GetReplayEnqueued returns the number of statements parked for replay.
func (m *TestMetricsCollector) GetReplayEnqueued() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ReplayEnqueued
}

// GetReplaySuccess returns the number of successful replays.
func (m *TestMetricsCollector) GetReplaySuccess() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ReplaySuccess
}

// GetReplayError returns the number of failed replay attempts.
func (m *TestMetricsCollector) GetReplayError() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ReplayError
}

// GetReplayDropped returns the number of dropped replays.
func (m *TestMetricsCollector) GetReplayDropped() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ReplayDropped
}

// Reset clears all recorded metrics.
func (m *TestMetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExecuteTotal = 0
	m.Outcomes = make(map[string]int64)
	m.ExecuteDuration = nil
	m.AttemptTotal = make(map[string]int64)
	m.AttemptErrors = make(map[types.SignalKind]int64)
	m.HostUnreachable = 0
	m.Decisions = make(map[types.DecisionType]int64)
	m.Downgrades = make(map[string]int64)
	m.TopologyRefresh = 0
	m.UnknownStrategy = 0
	m.ReplayEnqueued = 0
	m.ReplaySuccess = 0
	m.ReplayError = 0
	m.ReplayDropped = 0
	m.ReplayDuration = nil
}
