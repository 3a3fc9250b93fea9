package policy

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// TokenAware offers the replicas of a statement's partition before anything
// else, then falls back to a child selector.
//
// Replicas are only known when the statement carries both a keyspace and a
// routing token and cluster metadata has been received through SetMetadata.
// With a local datacenter configured, local replicas come first.
type TokenAware struct {
	child    Selector
	localDC  string
	logger   types.Logger
	metadata atomic.Pointer[replication.Metadata]
}

var (
	_ Selector      = (*TokenAware)(nil)
	_ metadataAware = (*TokenAware)(nil)
)

// TokenAwareOption configures a TokenAware selector.
type TokenAwareOption func(*TokenAware)

// WithLocalDC orders replicas of the given datacenter first.
//
// Parameters:
//   - dc: Local datacenter name
//
// Returns:
//   - TokenAwareOption: Configuration option
func WithLocalDC(dc string) TokenAwareOption {
	return func(t *TokenAware) {
		t.localDC = dc
	}
}

// WithTokenAwareLogger sets the logger used for replica resolution diagnostics.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - TokenAwareOption: Configuration option
func WithTokenAwareLogger(l types.Logger) TokenAwareOption {
	return func(t *TokenAware) {
		t.logger = l
	}
}

// NewTokenAware wraps a child selector.
//
// Parameters:
//   - child: Selector used once replicas are exhausted or unknown
//   - opts: Optional configuration options
//
// Returns:
//   - *TokenAware: A new token-aware selector
func NewTokenAware(child Selector, opts ...TokenAwareOption) *TokenAware {
	t := &TokenAware{child: child}
	for _, opt := range opts {
		opt(t)
	}

	// Ensure logger is never nil
	t.logger = logging.OrNop(t.logger)

	return t
}

// SetMetadata stores the metadata snapshot and forwards it to the child.
func (t *TokenAware) SetMetadata(md *replication.Metadata) {
	t.metadata.Store(md)
	if aware, ok := t.child.(metadataAware); ok {
		aware.SetMetadata(md)
	}
}

// NextCandidate implements Selector.
func (t *TokenAware) NextCandidate(ctx context.Context, stmt *types.Statement, tried []types.Host) (types.Host, bool) {
	seen := triedSet(tried)
	for _, h := range t.replicas(stmt) {
		if _, ok := seen[h.Address]; !ok {
			return h, true
		}
	}

	if t.child == nil {
		return types.Host{}, false
	}

	return t.child.NextCandidate(ctx, stmt, tried)
}

func (t *TokenAware) replicas(stmt *types.Statement) []types.Host {
	if stmt == nil || stmt.Keyspace() == "" {
		return nil
	}
	token, ok := stmt.RoutingToken()
	if !ok {
		return nil
	}
	md := t.metadata.Load()
	if md == nil {
		return nil
	}

	replicas, ok := md.Replicas(stmt.Keyspace(), token, t.logger)
	if !ok || t.localDC == "" {
		return replicas
	}

	local, remote := splitByDataCenter(replicas, t.localDC)

	return append(local, remote...)
}
