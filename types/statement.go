package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Token is a position on the Murmur3 token ring.
type Token int64

// ParseToken parses the decimal representation used by system.peers.
func ParseToken(s string) (Token, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("strand: invalid token %q: %w", s, err)
	}

	return Token(v), nil
}

// Host is an immutable snapshot of a cluster node.
type Host struct {
	// Address is the host identity, typically "ip:port".
	Address string

	// HostID is the server-assigned host UUID, if known.
	HostID string

	// DataCenter is the datacenter owning the host.
	DataCenter string

	// Rack is the rack owning the host within its datacenter.
	Rack string
}

// String returns the host address.
func (h Host) String() string {
	return h.Address
}

// WriteType describes the kind of write that timed out.
type WriteType uint8

const (
	WriteSimple WriteType = iota
	WriteBatch
	WriteUnloggedBatch
	WriteCounter
	WriteBatchLog
	WriteCAS
	WriteView
	WriteCDC
)

var writeTypeNames = [...]string{
	WriteSimple:        "SIMPLE",
	WriteBatch:         "BATCH",
	WriteUnloggedBatch: "UNLOGGED_BATCH",
	WriteCounter:       "COUNTER",
	WriteBatchLog:      "BATCH_LOG",
	WriteCAS:           "CAS",
	WriteView:          "VIEW",
	WriteCDC:           "CDC",
}

// String returns the protocol name of the write type.
func (w WriteType) String() string {
	if int(w) < len(writeTypeNames) {
		return writeTypeNames[w]
	}

	return "UNKNOWN"
}

// ParseWriteType parses the write type string sent by the server.
// Unknown values map to WriteSimple.
func ParseWriteType(s string) WriteType {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range writeTypeNames {
		if name == s {
			return WriteType(i)
		}
	}

	return WriteSimple
}

// Statement is a CQL statement submitted for execution.
//
// A Statement is built once and then treated as read-only: the executor never
// changes its requested consistency, only the consistency of individual attempts.
type Statement struct {
	id           string
	query        string
	args         []any
	keyspace     string
	routingToken *Token
	consistency  *Consistency
	idempotent   bool
}

// NewStatement creates a statement with bound values.
//
// Parameters:
//   - query: CQL text with ? placeholders
//   - args: Values to bind
//
// Returns:
//   - *Statement: A new statement with a unique ID
func NewStatement(query string, args ...any) *Statement {
	return &Statement{
		id:    uuid.NewString(),
		query: query,
		args:  args,
	}
}

// WithConsistency sets the requested consistency level.
func (s *Statement) WithConsistency(c Consistency) *Statement {
	s.consistency = &c
	return s
}

// WithKeyspace sets the keyspace used for replica lookup.
func (s *Statement) WithKeyspace(keyspace string) *Statement {
	s.keyspace = keyspace
	return s
}

// WithRoutingToken sets the token of the partition the statement targets.
func (s *Statement) WithRoutingToken(t Token) *Statement {
	s.routingToken = &t
	return s
}

// WithIdempotent marks the statement as safe to apply more than once.
func (s *Statement) WithIdempotent(idempotent bool) *Statement {
	s.idempotent = idempotent
	return s
}

// ID returns the unique statement ID used to correlate log records.
func (s *Statement) ID() string { return s.id }

// Query returns the CQL text.
func (s *Statement) Query() string { return s.query }

// Args returns the bound values.
func (s *Statement) Args() []any { return s.args }

// Keyspace returns the keyspace, or "" if unset.
func (s *Statement) Keyspace() string { return s.keyspace }

// Idempotent reports whether the statement was marked idempotent.
func (s *Statement) Idempotent() bool { return s.idempotent }

// RoutingToken returns the routing token and whether one was set.
func (s *Statement) RoutingToken() (Token, bool) {
	if s.routingToken == nil {
		return 0, false
	}

	return *s.routingToken, true
}

// Consistency returns the requested consistency and whether one was set.
func (s *Statement) Consistency() (Consistency, bool) {
	if s.consistency == nil {
		return Any, false
	}

	return *s.consistency, true
}

// Result is the outcome of a successful dispatch.
type Result struct {
	// Rows holds the returned rows keyed by column name.
	Rows []map[string]any

	// Warnings holds server warnings attached to the response.
	Warnings []string
}
