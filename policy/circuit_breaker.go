package policy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// HostCircuitBreaker decorates a selector and steers statements away from hosts
// that keep failing.
//
// It tracks consecutive failed attempts per host. A host whose count reached the
// threshold is "open" until resetTimeout has passed since its last failure; open
// hosts are only offered when the child selector has nothing else left, so the
// breaker reorders candidates but never makes a statement fail on its own.
type HostCircuitBreaker struct {
	child        Selector
	threshold    int
	resetTimeout time.Duration
	logger       types.Logger
	hosts        sync.Map // address -> *hostState
}

type hostState struct {
	failures    atomic.Int32
	lastFailure atomic.Int64 // Unix nano
}

var (
	_ Selector      = (*HostCircuitBreaker)(nil)
	_ metadataAware = (*HostCircuitBreaker)(nil)
)

// CircuitBreakerOption configures a HostCircuitBreaker.
type CircuitBreakerOption func(*HostCircuitBreaker)

// WithThreshold sets the number of consecutive failures that opens a host.
//
// Parameters:
//   - n: Number of failures required
//
// Returns:
//   - CircuitBreakerOption: Configuration option
func WithThreshold(n int) CircuitBreakerOption {
	return func(c *HostCircuitBreaker) {
		c.threshold = n
	}
}

// WithResetTimeout sets the duration after which a failing host is tried again.
//
// Parameters:
//   - d: Reset timeout duration
//
// Returns:
//   - CircuitBreakerOption: Configuration option
func WithResetTimeout(d time.Duration) CircuitBreakerOption {
	return func(c *HostCircuitBreaker) {
		c.resetTimeout = d
	}
}

// WithCircuitBreakerLogger sets the logger for the circuit breaker.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - CircuitBreakerOption: Configuration option
func WithCircuitBreakerLogger(l types.Logger) CircuitBreakerOption {
	return func(c *HostCircuitBreaker) {
		c.logger = l
	}
}

// NewHostCircuitBreaker creates a new HostCircuitBreaker.
//
// Defaults: threshold=3, resetTimeout=30s
//
// Parameters:
//   - child: The selector producing candidates
//   - opts: Optional configuration options
//
// Returns:
//   - *HostCircuitBreaker: A new circuit breaker
func NewHostCircuitBreaker(child Selector, opts ...CircuitBreakerOption) *HostCircuitBreaker {
	c := &HostCircuitBreaker{
		child:        child,
		threshold:    3,
		resetTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure logger is never nil
	c.logger = logging.OrNop(c.logger)

	return c
}

// NextCandidate returns the first candidate of the child selector that is not
// open, falling back to the first open one when every candidate is open.
func (c *HostCircuitBreaker) NextCandidate(ctx context.Context, stmt *types.Statement, tried []types.Host) (types.Host, bool) {
	extended := tried
	var skipped []types.Host
	seen := make(map[string]struct{})

	for {
		h, ok := c.child.NextCandidate(ctx, stmt, extended)
		if !ok {
			break
		}
		if _, dup := seen[h.Address]; dup {
			// The child re-offers hosts; everything it has is open.
			break
		}
		if !c.IsOpen(h.Address) {
			return h, true
		}

		seen[h.Address] = struct{}{}
		skipped = append(skipped, h)
		if len(extended) == len(tried) {
			extended = append(make([]types.Host, 0, len(tried)+4), tried...)
		}
		extended = append(extended, h)
	}

	if len(skipped) > 0 {
		return skipped[0], true
	}

	return types.Host{}, false
}

// RecordAttempt updates the failure count of a host after an attempt.
//
// Parameters:
//   - host: The host the attempt was sent to
//   - err: The attempt's error, nil on success
func (c *HostCircuitBreaker) RecordAttempt(host types.Host, err error) {
	if err == nil {
		c.recordSuccess(host.Address)
	} else {
		c.recordFailure(host.Address)
	}
}

// SetMetadata forwards cluster metadata to the child selector.
func (c *HostCircuitBreaker) SetMetadata(md *replication.Metadata) {
	if aware, ok := c.child.(metadataAware); ok {
		aware.SetMetadata(md)
	}
}

// IsOpen reports whether a host is currently skipped.
func (c *HostCircuitBreaker) IsOpen(address string) bool {
	v, ok := c.hosts.Load(address)
	if !ok {
		return false
	}
	st := v.(*hostState)
	if int(st.failures.Load()) < c.threshold {
		return false
	}

	return time.Duration(time.Now().UnixNano()-st.lastFailure.Load()) <= c.resetTimeout
}

// Failures returns the consecutive failure count of a host.
func (c *HostCircuitBreaker) Failures(address string) int {
	v, ok := c.hosts.Load(address)
	if !ok {
		return 0
	}

	return int(v.(*hostState).failures.Load())
}

func (c *HostCircuitBreaker) recordFailure(address string) {
	v, _ := c.hosts.LoadOrStore(address, &hostState{})
	st := v.(*hostState)

	now := time.Now().UnixNano()
	var newFailures int32
	lastFailure := st.lastFailure.Load()
	if lastFailure > 0 && time.Duration(now-lastFailure) > c.resetTimeout {
		st.failures.Store(1)
		newFailures = 1
	} else {
		newFailures = st.failures.Add(1)
	}
	st.lastFailure.Store(now)

	if int(newFailures) == c.threshold {
		c.logger.Warn("host circuit breaker tripped",
			"host", address,
			"threshold", c.threshold,
		)
	}
}

func (c *HostCircuitBreaker) recordSuccess(address string) {
	v, ok := c.hosts.Load(address)
	if !ok {
		return
	}
	st := v.(*hostState)

	wasOpen := int(st.failures.Load()) >= c.threshold
	st.failures.Store(0)
	st.lastFailure.Store(0)

	if wasOpen {
		c.logger.Info("host circuit breaker closed", "host", address)
	}
}
