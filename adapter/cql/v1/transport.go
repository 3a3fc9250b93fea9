package v1

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/adapter/cql"
	"github.com/arloliu/strand/types"
)

// Transport dispatches statements through a gocql v1 session.
type Transport struct {
	session *gocql.Session
}

var _ strand.Transport = (*Transport)(nil)

// NewTransport creates a new Transport from a gocql session.
//
// Parameters:
//   - session: A gocql.Session instance
//
// Returns:
//   - *Transport: A transport implementing strand.Transport
func NewTransport(session *gocql.Session) *Transport {
	return &Transport{session: session}
}

// Dispatch executes the statement on one host at the given consistency.
//
// The query is pinned to the host when its HostID is known, and gocql's own
// retry policy is disabled: retries are decided by the executor. Connection
// errors are returned as *types.HostUnreachableError.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - host: The coordinator to use
//   - stmt: The statement to execute
//   - cl: The consistency level of this attempt
//
// Returns:
//   - *types.Result: Rows and server warnings
//   - error: The raw gocql error, or *types.HostUnreachableError
func (t *Transport) Dispatch(
	ctx context.Context,
	host types.Host,
	stmt *types.Statement,
	cl types.Consistency,
) (*types.Result, error) {
	q := t.session.Query(stmt.Query(), stmt.Args()...).
		Consistency(ToGocqlConsistency(cl)).
		RetryPolicy(&gocql.SimpleRetryPolicy{NumRetries: 0}).
		Idempotent(stmt.Idempotent()).
		WithContext(ctx)
	if host.HostID != "" {
		q = q.SetHostID(host.HostID)
	}

	iter := q.Iter()
	warnings := iter.Warnings()
	rows, err := iter.SliceMap()
	if err != nil {
		if isUnreachable(err) {
			return nil, &types.HostUnreachableError{Host: host.Address, Cause: err}
		}

		return nil, err
	}

	return &types.Result{Rows: rows, Warnings: warnings}, nil
}

// Session returns the underlying gocql session.
func (t *Transport) Session() *gocql.Session {
	return t.session
}

func isUnreachable(err error) bool {
	return errors.Is(err, gocql.ErrNoConnections) ||
		errors.Is(err, gocql.ErrConnectionClosed) ||
		cql.IsConnectionError(err)
}
