package strand

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/internal/metrics"
	"github.com/arloliu/strand/policy"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// Executor drives the retry loop of statements.
//
// For every statement it asks the host selector for a candidate, dispatches the
// statement through the transport, classifies failures and consults the retry
// policy, until the statement succeeds, fails, or its context is cancelled.
//
// # Thread Safety
//
// Executor is safe for concurrent use from multiple goroutines. Each Execute call
// owns its retry state; the only shared collaborators are the selector,
// transport, retry policy and metrics collector, which must themselves be safe
// for concurrent use.
//
//	executor, err := strand.NewExecutor(selector, transport, opts...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer executor.Close()
//
//	go func() { executor.Execute(ctx, strand.NewStatement("INSERT ...")) }()
//	go func() { executor.Execute(ctx, strand.NewStatement("SELECT ...")) }()
//
// # Lifecycle
//
// After Close() is called:
//   - The topology watcher is stopped
//   - The replayer, if any, is left open; it is owned by the caller
//   - Execute returns a Failed outcome whose Err() is types.ErrExecutorClosed
type Executor struct {
	selector  HostSelector
	transport Transport
	config    *Config
	recorder  AttemptRecorder
	delayer   types.RetryDelayer
	closed    atomic.Bool
	metadata  atomic.Pointer[replication.Metadata]

	topologyCtx   context.Context
	topologyClose context.CancelFunc
}

// NewExecutor creates a new Executor.
//
// If a TopologyWatcher is configured, it is started automatically and every
// metadata snapshot it delivers is pushed to the components implementing
// MetadataAware.
//
// Parameters:
//   - selector: Host selector (required)
//   - transport: Transport used to dispatch statements (required)
//   - opts: Optional configuration options
//
// Returns:
//   - *Executor: A new executor
//   - error: ErrNilHostSelector or ErrNilTransport
func NewExecutor(selector HostSelector, transport Transport, opts ...Option) (*Executor, error) {
	if selector == nil {
		return nil, types.ErrNilHostSelector
	}
	if transport == nil {
		return nil, types.ErrNilTransport
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	if config.RetryPolicy == nil {
		config.RetryPolicy = policy.NewDefault()
	}
	if config.LogDecisions {
		config.RetryPolicy = policy.NewLogging(config.RetryPolicy, config.Logger)
	}

	if !config.DefaultConsistency.IsValid() {
		config.Logger.Warn("invalid default consistency, using LOCAL_ONE",
			"consistency", config.DefaultConsistency.String(),
		)
		config.DefaultConsistency = types.LocalOne
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Executor{
		selector:      selector,
		transport:     transport,
		config:        config,
		topologyCtx:   ctx,
		topologyClose: cancel,
	}
	if recorder, ok := selector.(AttemptRecorder); ok {
		e.recorder = recorder
	}
	if delayer, ok := config.RetryPolicy.(types.RetryDelayer); ok {
		e.delayer = delayer
	}

	// Start topology watcher if configured
	if config.TopologyWatcher != nil {
		go e.watchTopology()
	}

	return e, nil
}

// watchTopology applies metadata snapshots until the watcher channel closes or
// the executor is closed.
func (e *Executor) watchTopology() {
	updates := e.config.TopologyWatcher.Watch(e.topologyCtx)
	for {
		select {
		case <-e.topologyCtx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			e.UpdateMetadata(update.Metadata)
		}
	}
}

// UpdateMetadata installs a new cluster metadata snapshot.
//
// The snapshot replaces the current one atomically; statements already running
// keep the snapshot they started with. Snapshots older than the current version
// are ignored. Keyspaces whose replication strategy cannot be resolved are
// reported but do not prevent the update.
//
// Parameters:
//   - md: The new snapshot (nil is ignored)
func (e *Executor) UpdateMetadata(md *replication.Metadata) {
	if md == nil {
		return
	}

	if current := e.metadata.Load(); current != nil && md.Version < current.Version {
		e.config.Logger.Debug("ignoring stale cluster metadata",
			"version", md.Version,
			"current_version", current.Version,
		)

		return
	}

	for name, cfg := range md.Keyspaces {
		if _, ok := replication.ResolveConfig(cfg, e.config.Logger); !ok {
			e.config.Metrics.IncUnknownStrategy()
			e.config.Logger.Warn("token ownership unknown for keyspace",
				"keyspace", name,
				"class", cfg.Class,
			)
		}
	}

	e.metadata.Store(md)
	e.config.Metrics.IncTopologyRefresh()

	// Propagate metadata to components that support it
	propagateMetadata(e.config, e.selector, md)

	e.config.Logger.Info("cluster metadata updated",
		"version", md.Version,
		"tokens", md.Ring.Len(),
		"keyspaces", len(md.Keyspaces),
	)
}

// Metadata returns the current cluster metadata snapshot, or nil if none was received.
func (e *Executor) Metadata() *replication.Metadata {
	return e.metadata.Load()
}

// Close stops the topology watcher. Subsequent executions fail with
// types.ErrExecutorClosed. Close is idempotent.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		// Stop topology watcher
		if e.topologyClose != nil {
			e.topologyClose()
		}
	}
}

// Exec executes a statement and returns its result and error.
//
// It is a convenience wrapper around Execute: the error is Outcome.Err(), and the
// result is nil when the failure was ignored by the retry policy.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - stmt: The statement to execute
//
// Returns:
//   - *types.Result: The result on success
//   - error: The failure signal, a cancellation error, or an executor error
func (e *Executor) Exec(ctx context.Context, stmt *types.Statement) (*types.Result, error) {
	outcome := e.Execute(ctx, stmt)

	return outcome.Result, outcome.Err()
}

// Execute runs a statement until it succeeds, fails, or ctx is cancelled.
//
// Each failed attempt is classified into a failure signal and handed to the
// retry policy together with the number of retries already performed:
//   - Retry: the statement is dispatched again to the next candidate host, at the
//     decision's consistency override if any, after the policy's optional delay
//   - Ignore: the execution succeeds without a result
//   - Rethrow: the execution fails with the original signal
//
// Hosts reporting types.HostUnreachableError are skipped without consulting the
// policy. Errors the classifier cannot map are fatal. When the selector runs out of
// candidates the execution fails with types.NoHostAvailableError.
//
// Parameters:
//   - ctx: Context for cancellation; checked at every suspension point
//   - stmt: The statement to execute; it is never modified
//
// Returns:
//   - *Outcome: The outcome, never nil
func (e *Executor) Execute(ctx context.Context, stmt *types.Statement) *Outcome {
	start := time.Now()
	e.config.Metrics.IncExecuteTotal()

	outcome := e.execute(ctx, stmt)
	if outcome.Kind == OutcomeFailed && e.config.Replayer != nil {
		e.park(ctx, stmt, outcome)
	}

	outcome.Duration = time.Since(start)
	e.config.Metrics.ObserveExecuteDuration(outcome.Duration.Seconds())
	e.config.Metrics.IncOutcome(outcome.Kind.String())

	return outcome
}

func (e *Executor) execute(ctx context.Context, stmt *types.Statement) *Outcome {
	if e.closed.Load() {
		return &Outcome{Kind: OutcomeFailed, err: types.ErrExecutorClosed}
	}
	if stmt == nil {
		return &Outcome{Kind: OutcomeFailed, err: types.ErrNilStatement}
	}

	requested := e.config.DefaultConsistency
	if cl, ok := stmt.Consistency(); ok {
		requested = cl
	}

	out := &Outcome{Requested: requested, Consistency: requested}
	hostErrors := make(map[string]error)
	var tried []types.Host
	nbRetry := 0

	for {
		if err := ctx.Err(); err != nil {
			return e.cancelled(out, nbRetry, err)
		}

		// Dispatching
		host, ok := e.selector.NextCandidate(ctx, stmt, tried)
		if !ok {
			if err := ctx.Err(); err != nil {
				return e.cancelled(out, nbRetry, err)
			}

			return e.failed(out, nbRetry, &types.NoHostAvailableError{Errors: hostErrors})
		}
		tried, ok = markTried(tried, host)
		if !ok {
			out.Hosts = append(out.Hosts, host)
		}
		out.Attempts++
		e.config.Metrics.IncAttemptTotal(host.DataCenter)

		// AwaitingResult
		result, err := e.dispatch(ctx, host, stmt, out.Consistency)
		if err == nil {
			e.recordAttempt(host, nil)
			out.Kind = OutcomeSucceeded
			out.Result = result
			out.Retries = nbRetry

			return out
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.cancelled(out, nbRetry, ctxErr)
		}
		e.recordAttempt(host, err)
		hostErrors[host.Address] = err

		var unreachable *types.HostUnreachableError
		if errors.As(err, &unreachable) {
			e.config.Metrics.IncHostUnreachable()
			e.config.Logger.Debug("host unreachable, trying next candidate",
				"statement_id", stmt.ID(),
				"host", host.Address,
				"error", err,
			)

			continue
		}

		signal := e.classify(err)
		e.config.Metrics.IncAttemptError(signal.Kind())
		if signal.Kind() == types.SignalTransport {
			e.config.Logger.Warn("unclassified transport error",
				"statement_id", stmt.ID(),
				"host", host.Address,
				"error", err,
			)

			return e.failed(out, nbRetry, signal)
		}

		decision := e.config.RetryPolicy.Decide(stmt, signal, nbRetry)
		e.config.Metrics.IncDecision(decision.Type())

		switch decision.Type() {
		case types.DecisionRetry:
			nbRetry++
			if cl, ok := decision.Override(); ok && cl != out.Consistency {
				e.config.Metrics.IncConsistencyDowngrade(out.Consistency, cl)
				out.Consistency = cl
			}
			if err := e.waitRetry(ctx, nbRetry-1); err != nil {
				return e.cancelled(out, nbRetry, err)
			}

		case types.DecisionIgnore:
			out.Kind = OutcomeSucceeded
			out.Ignored = true
			out.Retries = nbRetry

			return out

		default:
			return e.failed(out, nbRetry, signal)
		}
	}
}

// markTried moves host to the end of tried, appending it when absent, so the
// list stays bounded by the number of distinct hosts and its last element is
// always the most recent attempt.
//
// Returns:
//   - []types.Host: The updated list
//   - bool: true when host had been tried before
func markTried(tried []types.Host, host types.Host) ([]types.Host, bool) {
	for i, h := range tried {
		if h.Address == host.Address {
			copy(tried[i:], tried[i+1:])
			tried[len(tried)-1] = host

			return tried, true
		}
	}

	return append(tried, host), false
}

type dispatchResult struct {
	result *types.Result
	err    error
}

// dispatch runs the transport call in its own goroutine so that cancellation of
// ctx unwinds the retry loop immediately. The attempt context is cancelled on
// return, releasing the in-flight request.
func (e *Executor) dispatch(
	ctx context.Context,
	host types.Host,
	stmt *types.Statement,
	cl types.Consistency,
) (*types.Result, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan dispatchResult, 1)
	go func() {
		result, err := e.transport.Dispatch(attemptCtx, host, stmt, cl)
		done <- dispatchResult{result: result, err: err}
	}()

	select {
	case r := <-done:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitRetry waits for the retry delay of the policy, if any.
func (e *Executor) waitRetry(ctx context.Context, nbRetry int) error {
	if e.delayer == nil {
		return nil
	}

	delay := e.delayer.RetryDelay(nbRetry)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Replay executes a parked statement once, without parking it again on failure.
//
// It is the execute function of replay workers:
//
//	worker := replay.NewMemoryWorker(replayer, executor.Replay)
//
// Parameters:
//   - ctx: Context for cancellation
//   - payload: The parked statement
//
// Returns:
//   - error: nil on success, the outcome error otherwise
func (e *Executor) Replay(ctx context.Context, payload types.ReplayPayload) error {
	start := time.Now()
	e.config.Metrics.IncExecuteTotal()

	outcome := e.execute(ctx, payload.Statement())

	outcome.Duration = time.Since(start)
	e.config.Metrics.ObserveExecuteDuration(outcome.Duration.Seconds())
	e.config.Metrics.IncOutcome(outcome.Kind.String())

	return outcome.Err()
}

// replayable reports whether a failure may be parked for replay.
func replayable(kind types.SignalKind) bool {
	switch kind {
	case types.SignalUnavailable, types.SignalReadTimeout,
		types.SignalWriteTimeout, types.SignalNoHostAvailable:
		return true
	}

	return false
}

// park enqueues a failed idempotent statement on the replayer.
func (e *Executor) park(ctx context.Context, stmt *types.Statement, out *Outcome) {
	if stmt == nil || out.Signal == nil || !stmt.Idempotent() || !replayable(out.Signal.Kind()) {
		return
	}

	enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.ReplayTimeout)
	defer cancel()

	payload := types.NewReplayPayload(stmt, out.Requested, out.Signal.Kind())
	if err := e.config.Replayer.Enqueue(enqCtx, payload); err != nil {
		e.config.Metrics.IncReplayDropped()
		e.config.Logger.Error("failed to park statement for replay",
			"statement_id", stmt.ID(),
			"cause", out.Signal.Kind().String(),
			"error", err,
		)

		return
	}

	out.Parked = true
	e.config.Metrics.IncReplayEnqueued()
	e.config.Logger.Info("statement parked for replay",
		"statement_id", stmt.ID(),
		"cause", out.Signal.Kind().String(),
	)
}

func (e *Executor) classify(err error) types.FailureSignal {
	if e.config.ErrorClassifier != nil {
		if signal, ok := e.config.ErrorClassifier(err); ok && signal != nil {
			return signal
		}
	}

	return types.Classify(err)
}

func (e *Executor) recordAttempt(host types.Host, err error) {
	if e.recorder != nil {
		e.recorder.RecordAttempt(host, err)
	}
}

func (e *Executor) failed(out *Outcome, nbRetry int, signal types.FailureSignal) *Outcome {
	out.Kind = OutcomeFailed
	out.Signal = signal
	out.Retries = nbRetry

	return out
}

func (e *Executor) cancelled(out *Outcome, nbRetry int, cause error) *Outcome {
	out.Kind = OutcomeCancelled
	out.Retries = nbRetry
	out.err = &types.CancelledError{Retries: nbRetry, Cause: cause}

	return out
}
