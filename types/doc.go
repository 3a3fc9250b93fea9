// Package types provides shared types and error definitions for the strand library.
//
// This is a leaf package with zero strand imports to prevent import cycles.
// All packages in strand can safely import this package.
//
// # Consistency
//
// Consistency levels mirror gocql consistency levels and add a total order and
// replica arithmetic:
//
//	types.Quorum.RequiredReplicas(3)   // 2
//	types.HighestAchievable(2)         // TWO, true
//	types.Compare(types.One, types.All) // -1
//
// # Failure Signals
//
// Coordinator failures are classified into a closed set of signals:
//
//   - *UnavailableError: not enough live replicas to attempt the request
//   - *ReadTimeoutError: replicas did not answer a read in time
//   - *WriteTimeoutError: replicas did not acknowledge a write in time
//   - *NoHostAvailableError: every candidate host was exhausted
//   - *TransportError: anything else, never retried
//
// # Retry Decisions
//
// A RetryPolicy maps a signal and the number of retries already performed to a
// RetryDecision: Retry (optionally at another consistency), Rethrow or Ignore.
package types
