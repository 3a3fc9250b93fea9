package types

import (
	"errors"
	"time"
)

// Replay errors.
var (
	// ErrReplayQueueFull indicates the replay queue is at capacity.
	ErrReplayQueueFull = errors.New("strand: replay queue is full")

	// ErrReplayerClosed indicates an operation on a closed replayer.
	ErrReplayerClosed = errors.New("strand: replayer is closed")
)

// ReplayPayload is a failed statement parked for deferred execution.
//
// It carries everything needed to rebuild the statement; the original
// *Statement is not retained so that payloads can be serialized.
type ReplayPayload struct {
	// StatementID is the ID of the statement that failed, for log correlation.
	StatementID string

	// Query is the CQL text.
	Query string

	// Args holds the bound values.
	Args []any

	// Keyspace is the statement keyspace, or "".
	Keyspace string

	// Consistency is the consistency the statement requested.
	Consistency Consistency

	// RoutingToken is the partition token, valid when HasRoutingToken is true.
	RoutingToken    Token
	HasRoutingToken bool

	// Cause is the kind of the failure that ended the execution.
	Cause SignalKind

	// Timestamp is the failure time in Unix microseconds.
	Timestamp int64

	// Attempts is the number of replay attempts already made by an in-process
	// worker. Durable queues track deliveries themselves and leave it at zero.
	Attempts int
}

// NewReplayPayload captures a failed statement.
//
// Parameters:
//   - stmt: The failed statement
//   - requested: The consistency the statement requested
//   - cause: The kind of the surfaced failure
//
// Returns:
//   - ReplayPayload: A self-contained payload
func NewReplayPayload(stmt *Statement, requested Consistency, cause SignalKind) ReplayPayload {
	p := ReplayPayload{
		StatementID: stmt.ID(),
		Query:       stmt.Query(),
		Args:        stmt.Args(),
		Keyspace:    stmt.Keyspace(),
		Consistency: requested,
		Cause:       cause,
		Timestamp:   time.Now().UnixMicro(),
	}
	if t, ok := stmt.RoutingToken(); ok {
		p.RoutingToken = t
		p.HasRoutingToken = true
	}

	return p
}

// Statement rebuilds an idempotent statement from the payload.
func (p ReplayPayload) Statement() *Statement {
	stmt := NewStatement(p.Query, p.Args...).
		WithKeyspace(p.Keyspace).
		WithConsistency(p.Consistency).
		WithIdempotent(true)
	if p.HasRoutingToken {
		stmt.WithRoutingToken(p.RoutingToken)
	}

	return stmt
}
