package strand

import (
	"go.uber.org/zap"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/types"
)

// Type aliases for convenience - re-export from types package.
type (
	Consistency      = types.Consistency
	Statement        = types.Statement
	Result           = types.Result
	Host             = types.Host
	Token            = types.Token
	FailureSignal    = types.FailureSignal
	RetryDecision    = types.RetryDecision
	RetryPolicy      = types.RetryPolicy
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	ReplayPayload    = types.ReplayPayload
)

// Re-export consistency level constants for convenience.
const (
	Any         = types.Any
	One         = types.One
	Two         = types.Two
	Three       = types.Three
	Quorum      = types.Quorum
	All         = types.All
	LocalQuorum = types.LocalQuorum
	EachQuorum  = types.EachQuorum
	Serial      = types.Serial
	LocalSerial = types.LocalSerial
	LocalOne    = types.LocalOne
)

// NewStatement creates a statement with bound values.
//
// Parameters:
//   - query: CQL text with ? placeholders
//   - args: Values to bind
//
// Returns:
//   - *Statement: A new statement
func NewStatement(query string, args ...any) *Statement {
	return types.NewStatement(query, args...)
}

// NewZapLogger adapts a zap logger for WithLogger.
//
// Parameters:
//   - l: The zap logger (nil discards all messages)
//
// Returns:
//   - Logger: A logger writing through zap's key/value API
func NewZapLogger(l *zap.Logger) Logger {
	return logging.NewZap(l)
}
