package policy

import (
	"time"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/types"
)

// Logging decorates a retry policy with one structured log record per decision.
//
// The decision of the wrapped policy is returned unchanged. Retry and Ignore
// decisions are logged at Info level, Rethrow at Debug level.
type Logging struct {
	inner  types.RetryPolicy
	logger types.Logger
}

var (
	_ types.RetryPolicy  = (*Logging)(nil)
	_ types.RetryDelayer = (*Logging)(nil)
)

// NewLogging wraps a retry policy.
//
// Parameters:
//   - inner: The policy making the decisions (nil means Fallthrough)
//   - logger: Destination of the decision records (nil discards them)
//
// Returns:
//   - *Logging: The decorated policy
func NewLogging(inner types.RetryPolicy, logger types.Logger) *Logging {
	if inner == nil {
		inner = FallthroughInstance
	}

	return &Logging{inner: inner, logger: logging.OrNop(logger)}
}

// Inner returns the wrapped policy.
func (p *Logging) Inner() types.RetryPolicy {
	return p.inner
}

// Decide forwards to the wrapped policy and logs the result.
func (p *Logging) Decide(stmt *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision {
	decision := p.inner.Decide(stmt, signal, nbRetry)

	kv := make([]any, 0, 20)
	if stmt != nil {
		kv = append(kv, "statement_id", stmt.ID(), "query", stmt.Query())
	}
	kv = append(kv, "nb_retry", nbRetry, "decision", decision.Type().String())
	if cl, ok := decision.Override(); ok {
		kv = append(kv, "override", cl.String())
	}
	kv = append(kv, signalFields(signal)...)

	if decision.Type() == types.DecisionRethrow {
		p.logger.Debug("retry policy decision", kv...)
	} else {
		p.logger.Info("retry policy decision", kv...)
	}

	return decision
}

// RetryDelay forwards to the wrapped policy when it adds delays.
func (p *Logging) RetryDelay(nbRetry int) time.Duration {
	if d, ok := p.inner.(types.RetryDelayer); ok {
		return d.RetryDelay(nbRetry)
	}

	return 0
}

func signalFields(signal types.FailureSignal) []any {
	if signal == nil {
		return nil
	}

	kv := []any{"signal", signal.Kind().String()}
	switch s := signal.(type) {
	case *types.UnavailableError:
		kv = append(kv, "consistency", s.Consistency.String(), "required", s.Required, "alive", s.Alive)
	case *types.ReadTimeoutError:
		kv = append(kv, "consistency", s.Consistency.String(), "required", s.Required,
			"received", s.Received, "data_present", s.DataPresent)
	case *types.WriteTimeoutError:
		kv = append(kv, "consistency", s.Consistency.String(), "write_type", s.WriteType.String(),
			"required", s.Required, "received", s.Received)
	default:
		kv = append(kv, "error", signal.Error())
	}

	return kv
}
