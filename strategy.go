package strand

import (
	"context"

	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// HostSelector chooses which host a statement is sent to next.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
// NextCandidate is called concurrently by every executing statement.
// The policy package provides RoundRobin, DCAwareRoundRobin, TokenAware and
// HostCircuitBreaker implementations.
type HostSelector interface {
	// NextCandidate returns the next host to try for a statement.
	//
	// The executor never dispatches to the same host twice for one statement
	// unless the selector offers it again.
	//
	// Parameters:
	//   - ctx: Context of the statement execution
	//   - stmt: The statement being executed
	//   - tried: Hosts already tried for this statement, in order
	//
	// Returns:
	//   - types.Host: The next candidate
	//   - bool: false when no candidate remains
	NextCandidate(ctx context.Context, stmt *types.Statement, tried []types.Host) (types.Host, bool)
}

// Transport sends a statement to one host.
//
// Implementations MUST be safe for concurrent use from multiple goroutines and
// must release the in-flight request when ctx is cancelled. The adapter/cql/v1
// and adapter/cql/v2 packages provide gocql-backed implementations.
type Transport interface {
	// Dispatch executes the statement on a host at a consistency level.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - host: The coordinator to use
	//   - stmt: The statement to execute
	//   - cl: The consistency level of this attempt
	//
	// Returns:
	//   - *types.Result: The result on success
	//   - error: A raw error, classified by the executor's ErrorClassifier
	Dispatch(ctx context.Context, host types.Host, stmt *types.Statement, cl types.Consistency) (*types.Result, error)
}

// ErrorClassifier maps a raw transport error to a failure signal.
//
// It returns false when it does not recognize the error; the executor then falls
// back to types.Classify, which treats unknown errors as fatal transport errors.
type ErrorClassifier func(err error) (types.FailureSignal, bool)

// TopologyWatcher monitors cluster metadata changes.
//
// Implementations include topology.Local (in-memory) and topology.NATS (NATS KV backed).
type TopologyWatcher interface {
	// Watch returns a channel that receives metadata snapshots.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - <-chan TopologyUpdate: Channel of topology changes, closed when ctx is done
	Watch(ctx context.Context) <-chan TopologyUpdate
}

// TopologyUpdate carries a new cluster metadata snapshot.
type TopologyUpdate struct {
	// Metadata is the new immutable snapshot.
	Metadata *replication.Metadata
}

// MetadataAware is an optional interface for components that need cluster metadata.
//
// The executor calls SetMetadata on its host selector, retry policy and metrics
// collector whenever the topology watcher delivers a new snapshot.
type MetadataAware interface {
	// SetMetadata receives a new metadata snapshot.
	//
	// Parameters:
	//   - md: The snapshot; it must not be modified
	SetMetadata(md *replication.Metadata)
}

// AttemptRecorder is an optional interface for host selectors that track attempt results.
//
// When the selector implements this interface, the executor reports the result
// of every dispatch. policy.HostCircuitBreaker uses it to skip failing hosts.
type AttemptRecorder interface {
	// RecordAttempt is called after each dispatch.
	//
	// Parameters:
	//   - host: The host the attempt was sent to
	//   - err: The raw error, nil on success
	RecordAttempt(host types.Host, err error)
}

// Replayer parks failed statements for deferred execution.
//
// Implementations include replay.MemoryReplayer (in-process) and
// replay.NATSReplayer (NATS JetStream work queue).
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
type Replayer interface {
	// Enqueue parks a failed statement.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - payload: The failed statement
	//
	// Returns:
	//   - error: types.ErrReplayQueueFull, types.ErrReplayerClosed or a backend error
	Enqueue(ctx context.Context, payload types.ReplayPayload) error
}
