// Package testutil provides test utilities and mock implementations for strand testing.
//
// This package provides mock implementations of strand interfaces for unit testing,
// as well as helper functions for integration tests. It imports only the types
// package so that tests inside the strand package itself can use it.
//
// # Mock Implementations
//
//   - [MockTransport]: Scripted strand.Transport recording every dispatch
//   - [BlockingTransport]: strand.Transport that answers only on cancellation
//   - [StaticSelector]: strand.HostSelector offering a fixed host list
//   - [TestMetricsCollector]: types.MetricsCollector recording every call
//
// # Usage
//
//	transport := testutil.NewMockTransport(
//	    testutil.Fail(&types.UnavailableError{Consistency: types.Quorum, Required: 2, Alive: 1}),
//	    testutil.OK(),
//	)
//	selector := testutil.NewStaticSelector(testutil.Host("10.0.0.1:9042", "dc1", "r1"))
//	executor, _ := strand.NewExecutor(selector, transport)
//
// # Integration Test Helpers
//
//   - StartEmbeddedNATS: Starts an embedded NATS server with JetStream
//   - NewTopologyBucket: Creates a key-value bucket for topology snapshots
//   - StartCQLCluster: Starts a ScyllaDB or Cassandra container (requires Docker)
package testutil
