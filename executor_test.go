package strand

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/policy"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/test/testutil"
	"github.com/arloliu/strand/types"
)

var (
	hostA = testutil.Host("10.0.0.1:9042", "dc1", "r1")
	hostB = testutil.Host("10.0.0.2:9042", "dc1", "r2")
	hostC = testutil.Host("10.0.0.3:9042", "dc1", "r3")
)

// countingPolicy records how often it was consulted.
type countingPolicy struct {
	inner types.RetryPolicy
	calls atomic.Int32
	last  atomic.Int32
}

func (p *countingPolicy) Decide(stmt *types.Statement, signal types.FailureSignal, nbRetry int) types.RetryDecision {
	p.calls.Add(1)
	p.last.Store(int32(nbRetry))

	return p.inner.Decide(stmt, signal, nbRetry)
}

func newTestExecutor(t *testing.T, transport Transport, opts ...Option) *Executor {
	t.Helper()

	e, err := NewExecutor(testutil.NewStaticSelector(hostA, hostB, hostC), transport, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return e
}

func unavailable(cl types.Consistency, required, alive int) error {
	return &types.UnavailableError{Consistency: cl, Required: required, Alive: alive}
}

func TestNewExecutorValidation(t *testing.T) {
	_, err := NewExecutor(nil, testutil.NewMockTransport())
	require.ErrorIs(t, err, types.ErrNilHostSelector)

	_, err = NewExecutor(testutil.NewStaticSelector(hostA), nil)
	require.ErrorIs(t, err, types.ErrNilTransport)
}

func TestNewExecutorInvalidDefaultConsistency(t *testing.T) {
	transport := testutil.NewMockTransport()
	e := newTestExecutor(t, transport, WithDefaultConsistency(types.Consistency(0x42)))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))
	require.True(t, out.Succeeded())
	assert.Equal(t, []types.Consistency{types.LocalOne}, transport.Consistencies())
}

func TestExecuteSuccess(t *testing.T) {
	transport := testutil.NewMockTransport(testutil.OK(map[string]any{"id": 1}))
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, transport, WithMetrics(collector))

	out := e.Execute(context.Background(), NewStatement("SELECT * FROM t WHERE id = ?", 1))

	require.Equal(t, OutcomeSucceeded, out.Kind)
	require.NoError(t, out.Err())
	require.NotNil(t, out.Result)
	assert.Equal(t, 1, out.Result.Rows[0]["id"])
	assert.Equal(t, types.LocalOne, out.Consistency)
	assert.Equal(t, types.LocalOne, out.Requested)
	assert.False(t, out.Downgraded())
	assert.Equal(t, 0, out.Retries)
	assert.Equal(t, []types.Host{hostA}, out.Hosts)

	assert.Equal(t, int64(1), collector.GetExecuteTotal())
	assert.Equal(t, int64(1), collector.GetOutcome("succeeded"))
	assert.Len(t, collector.ExecuteDuration, 1)
	assert.Equal(t, int64(1), collector.AttemptTotal["dc1"])
}

func TestExecuteUsesStatementConsistency(t *testing.T) {
	transport := testutil.NewMockTransport()
	e := newTestExecutor(t, transport, WithDefaultConsistency(types.One))

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithConsistency(types.EachQuorum))
	require.True(t, out.Succeeded())
	assert.Equal(t, types.EachQuorum, out.Consistency)
	assert.Equal(t, []types.Consistency{types.EachQuorum}, transport.Consistencies())

	out = e.Execute(context.Background(), NewStatement("SELECT 1"))
	assert.Equal(t, types.One, out.Consistency)
}

func TestExecuteDowngrade(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(unavailable(types.Quorum, 3, 2)),
		testutil.OK(),
	)
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, transport,
		WithRetryPolicy(policy.NewDowngradingConsistency()),
		WithMetrics(collector),
	)

	stmt := NewStatement("UPDATE t SET v = 1 WHERE id = 1").WithConsistency(types.Quorum)
	out := e.Execute(context.Background(), stmt)

	require.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, types.Two, out.Consistency)
	assert.Equal(t, types.Quorum, out.Requested)
	assert.True(t, out.Downgraded())
	assert.Equal(t, 1, out.Retries)
	assert.Equal(t, []types.Host{hostA, hostB}, out.Hosts)
	assert.Equal(t, []types.Consistency{types.Quorum, types.Two}, transport.Consistencies())

	// The statement keeps its requested level
	cl, ok := stmt.Consistency()
	require.True(t, ok)
	assert.Equal(t, types.Quorum, cl)

	assert.Equal(t, int64(1), collector.GetDowngrade(types.Quorum, types.Two))
	assert.Equal(t, int64(1), collector.GetDecision(types.DecisionRetry))
	assert.Equal(t, int64(1), collector.GetAttemptError(types.SignalUnavailable))
}

func TestExecuteDowngradeCap(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(unavailable(types.Quorum, 3, 2)),
		testutil.Fail(unavailable(types.Two, 2, 1)),
		testutil.OK(),
	)
	e := newTestExecutor(t, transport, WithRetryPolicy(policy.NewDowngradingConsistency()))

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithConsistency(types.Quorum))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, 1, out.Retries)
	assert.Equal(t, 2, transport.AttemptCount())

	var signal *types.UnavailableError
	require.ErrorAs(t, out.Err(), &signal)
	assert.Equal(t, types.Two, signal.Consistency)
}

func TestExecuteIgnore(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(&types.WriteTimeoutError{Consistency: types.Quorum, WriteType: types.WriteSimple, Required: 2, Received: 1}),
	)
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, transport,
		WithRetryPolicy(policy.NewAlwaysIgnore()),
		WithMetrics(collector),
	)

	out := e.Execute(context.Background(), NewStatement("INSERT").WithConsistency(types.Quorum))

	require.Equal(t, OutcomeSucceeded, out.Kind)
	assert.True(t, out.Ignored)
	assert.Nil(t, out.Result)
	require.NoError(t, out.Err())
	assert.Equal(t, types.Quorum, out.Consistency)
	assert.Equal(t, 1, transport.AttemptCount())
	assert.Equal(t, int64(1), collector.GetDecision(types.DecisionIgnore))
}

func TestExecuteRethrow(t *testing.T) {
	readTimeout := &types.ReadTimeoutError{Consistency: types.Quorum, Required: 2, Received: 1}
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout))
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, transport, WithMetrics(collector))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Same(t, readTimeout, out.Signal)
	assert.Equal(t, 0, out.Retries)
	assert.Equal(t, 1, transport.AttemptCount())

	var target *types.ReadTimeoutError
	require.ErrorAs(t, out.Err(), &target)
	assert.Equal(t, int64(1), collector.GetOutcome("failed"))
	assert.Equal(t, int64(1), collector.GetDecision(types.DecisionRethrow))
}

func TestExecuteDefaultPolicyRetriesOnce(t *testing.T) {
	transport := testutil.NewMockTransport(testutil.Fail(unavailable(types.LocalOne, 1, 0)))
	p := &countingPolicy{inner: policy.NewDefault()}
	e := newTestExecutor(t, transport, WithRetryPolicy(p))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, 1, out.Retries)
	assert.Equal(t, []types.Host{hostA, hostB}, out.Hosts)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, int32(1), p.last.Load(), "second decision sees one retry performed")
}

func TestExecuteTransportErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	transport := testutil.NewMockTransport(testutil.Fail(boom))
	p := &countingPolicy{inner: policy.NewAlwaysRetry()}
	e := newTestExecutor(t, transport, WithRetryPolicy(p))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, types.SignalTransport, out.Signal.Kind())
	require.ErrorIs(t, out.Err(), boom)
	assert.Equal(t, 1, transport.AttemptCount())
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestExecuteErrorClassifier(t *testing.T) {
	overloaded := errors.New("overloaded")
	transport := testutil.NewMockTransport(testutil.Fail(overloaded), testutil.OK())
	classifier := func(err error) (types.FailureSignal, bool) {
		if errors.Is(err, overloaded) {
			return &types.UnavailableError{Consistency: types.One, Required: 1, Alive: 0}, true
		}

		return nil, false
	}
	e := newTestExecutor(t, transport, WithErrorClassifier(classifier))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, 1, out.Retries)
}

func TestExecuteHostUnreachableSkipsHost(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(&types.HostUnreachableError{Host: hostA.Address, Cause: errors.New("connection refused")}),
		testutil.OK(),
	)
	p := &countingPolicy{inner: policy.NewDefault()}
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, transport, WithRetryPolicy(p), WithMetrics(collector))

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, 0, out.Retries)
	assert.Equal(t, []types.Host{hostA, hostB}, out.Hosts)
	assert.Equal(t, int32(0), p.calls.Load())
	assert.Equal(t, int64(1), collector.GetHostUnreachable())
}

func TestExecuteNoHostAvailable(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(&types.HostUnreachableError{Host: "x", Cause: errors.New("connection refused")}),
	)
	e := newTestExecutor(t, transport)

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeFailed, out.Kind)
	var noHost *types.NoHostAvailableError
	require.ErrorAs(t, out.Err(), &noHost)
	assert.Len(t, noHost.Errors, 3)
	assert.Contains(t, noHost.Errors, hostC.Address)
	assert.Equal(t, 3, transport.AttemptCount())
}

func TestExecuteNoHostsAtAll(t *testing.T) {
	e, err := NewExecutor(testutil.NewStaticSelector(), testutil.NewMockTransport())
	require.NoError(t, err)
	defer e.Close()

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeFailed, out.Kind)
	var noHost *types.NoHostAvailableError
	require.ErrorAs(t, out.Err(), &noHost)
	assert.Empty(t, noHost.Errors)
}

func TestExecuteAlwaysRetryStopsOnDeadline(t *testing.T) {
	transport := testutil.NewMockTransport(testutil.Fail(unavailable(types.One, 1, 0)))
	selector := policy.NewRoundRobin([]types.Host{hostA, hostB}, policy.WithRequery())
	e, err := NewExecutor(selector, transport, WithRetryPolicy(policy.NewAlwaysRetry()))
	require.NoError(t, err)
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := e.Execute(ctx, NewStatement("SELECT 1"))

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, OutcomeCancelled, out.Kind)
	require.ErrorIs(t, out.Err(), types.ErrCancelled)
	require.ErrorIs(t, out.Err(), context.DeadlineExceeded)
	assert.Positive(t, out.Retries)

	var cancelled *types.CancelledError
	require.ErrorAs(t, out.Err(), &cancelled)
	assert.Equal(t, out.Retries, cancelled.Retries)
}

func TestExecuteCancelInFlight(t *testing.T) {
	transport := testutil.NewBlockingTransport()
	e := newTestExecutor(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-transport.Started
		cancel()
	}()

	out := e.Execute(ctx, NewStatement("SELECT 1"))

	require.Equal(t, OutcomeCancelled, out.Kind)
	require.ErrorIs(t, out.Err(), context.Canceled)
	assert.Equal(t, 0, out.Retries)
	assert.Nil(t, out.Signal)
}

func TestExecuteCancelDuringBackoff(t *testing.T) {
	transport := testutil.NewMockTransport(testutil.Fail(unavailable(types.One, 1, 0)))
	p := policy.NewBackoff(policy.NewAlwaysRetry(),
		policy.WithBackoffBase(10*time.Second),
		policy.WithBackoffMax(10*time.Second),
	)
	e := newTestExecutor(t, transport, WithRetryPolicy(p))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := e.Execute(ctx, NewStatement("SELECT 1"))

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, OutcomeCancelled, out.Kind)
	assert.Equal(t, 1, out.Retries)
	assert.Equal(t, 1, transport.AttemptCount())
}

func TestExecuteAlreadyCancelled(t *testing.T) {
	transport := testutil.NewMockTransport()
	e := newTestExecutor(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := e.Execute(ctx, NewStatement("SELECT 1"))
	require.Equal(t, OutcomeCancelled, out.Kind)
	assert.Equal(t, 0, transport.AttemptCount())
}

func TestExecuteNilStatement(t *testing.T) {
	e := newTestExecutor(t, testutil.NewMockTransport())

	out := e.Execute(context.Background(), nil)
	require.Equal(t, OutcomeFailed, out.Kind)
	require.ErrorIs(t, out.Err(), types.ErrNilStatement)
}

func TestExecuteAfterClose(t *testing.T) {
	transport := testutil.NewMockTransport()
	e := newTestExecutor(t, transport)

	e.Close()
	e.Close() // idempotent

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Nil(t, out.Signal)
	require.ErrorIs(t, out.Err(), types.ErrExecutorClosed)
	assert.Equal(t, 0, transport.AttemptCount())
}

func TestExec(t *testing.T) {
	transport := testutil.NewMockTransport(testutil.OK(map[string]any{"v": "x"}))
	e := newTestExecutor(t, transport)

	result, err := e.Exec(context.Background(), NewStatement("SELECT v FROM t"))
	require.NoError(t, err)
	assert.Equal(t, "x", result.Rows[0]["v"])
}

func TestExecuteConcurrent(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(unavailable(types.Quorum, 3, 2)),
		testutil.OK(),
	)
	collector := testutil.NewTestMetricsCollector()
	selector := policy.NewRoundRobin([]types.Host{hostA, hostB, hostC})
	e, err := NewExecutor(selector, transport,
		WithRetryPolicy(policy.NewDowngradingConsistency()),
		WithMetrics(collector),
	)
	require.NoError(t, err)
	defer e.Close()

	const workers = 50
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			out := e.Execute(context.Background(), NewStatement("SELECT 1").WithConsistency(types.Quorum))
			if !out.Succeeded() {
				return out.Err()
			}

			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(workers), collector.GetExecuteTotal())
	assert.Equal(t, int64(workers), collector.GetOutcome("succeeded"))
}

func TestExecuteLogDecisions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	transport := testutil.NewMockTransport(
		testutil.Fail(unavailable(types.Quorum, 3, 2)),
		testutil.OK(),
	)
	e := newTestExecutor(t, transport,
		WithRetryPolicy(policy.NewDowngradingConsistency()),
		WithLogger(logging.NewZap(zap.New(core))),
		WithLogDecisions(true),
	)

	stmt := NewStatement("SELECT 1").WithConsistency(types.Quorum)
	out := e.Execute(context.Background(), stmt)
	require.True(t, out.Succeeded())

	records := logs.FilterMessage("retry policy decision").All()
	require.Len(t, records, 1)
	fields := records[0].ContextMap()
	assert.Equal(t, stmt.ID(), fields["statement_id"])
	assert.Equal(t, "retry", fields["decision"])
	assert.Equal(t, "TWO", fields["override"])
}

func TestExecuteCircuitBreakerRecordsAttempts(t *testing.T) {
	transport := testutil.NewMockTransport(
		testutil.Fail(&types.HostUnreachableError{Host: hostA.Address, Cause: errors.New("connection reset")}),
		testutil.OK(),
	)
	breaker := policy.NewHostCircuitBreaker(testutil.NewStaticSelector(hostA, hostB), policy.WithThreshold(1))
	e, err := NewExecutor(breaker, transport)
	require.NoError(t, err)
	defer e.Close()

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))
	require.True(t, out.Succeeded())
	assert.Equal(t, 1, breaker.Failures(hostA.Address))
	assert.True(t, breaker.IsOpen(hostA.Address))
	assert.Equal(t, 0, breaker.Failures(hostB.Address))

	// The open host is skipped on the next statement
	out = e.Execute(context.Background(), NewStatement("SELECT 1"))
	require.True(t, out.Succeeded())
	assert.Equal(t, []types.Host{hostB}, out.Hosts)
}

func testMetadata(version uint64, keyspaces map[string]replication.Config) *replication.Metadata {
	ring := replication.NewRing([]replication.Entry{
		{Token: 0, Host: hostA},
		{Token: 100, Host: hostB},
		{Token: 200, Host: hostC},
	})

	return replication.NewMetadata(version, ring, keyspaces)
}

func TestUpdateMetadataRoutesToReplica(t *testing.T) {
	transport := testutil.NewMockTransport()
	collector := testutil.NewTestMetricsCollector()
	selector := policy.NewTokenAware(testutil.NewStaticSelector(hostA, hostB, hostC), policy.WithLocalDC("dc1"))
	e, err := NewExecutor(selector, transport, WithMetrics(collector))
	require.NoError(t, err)
	defer e.Close()

	md := testMetadata(1, map[string]replication.Config{
		"app": {Class: "SimpleStrategy", Options: map[string]string{"replication_factor": "1"}},
	})
	e.UpdateMetadata(md)
	assert.Same(t, md, e.Metadata())
	assert.Equal(t, int64(1), collector.GetTopologyRefresh())

	stmt := NewStatement("SELECT * FROM app.t WHERE k = ?", 1).WithKeyspace("app").WithRoutingToken(150)
	out := e.Execute(context.Background(), stmt)
	require.True(t, out.Succeeded())
	assert.Equal(t, []types.Host{hostC}, out.Hosts)
}

func TestUpdateMetadataIgnoresStaleAndNil(t *testing.T) {
	e := newTestExecutor(t, testutil.NewMockTransport())

	assert.Nil(t, e.Metadata())
	e.UpdateMetadata(nil)
	assert.Nil(t, e.Metadata())

	v2 := testMetadata(2, nil)
	e.UpdateMetadata(v2)
	e.UpdateMetadata(testMetadata(1, nil))
	assert.Same(t, v2, e.Metadata())

	v3 := testMetadata(3, nil)
	e.UpdateMetadata(v3)
	assert.Same(t, v3, e.Metadata())
}

func TestUpdateMetadataUnknownStrategy(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	collector := testutil.NewTestMetricsCollector()
	e := newTestExecutor(t, testutil.NewMockTransport(),
		WithMetrics(collector),
		WithLogger(logging.NewZap(zap.New(core))),
	)

	md := testMetadata(1, map[string]replication.Config{
		"good":  {Class: "SimpleStrategy", Options: map[string]string{"replication_factor": "1"}},
		"bad":   {Class: "SimpleStrategy", Options: map[string]string{}},
		"other": {Class: "com.example.CustomStrategy"},
	})
	e.UpdateMetadata(md)

	// The snapshot is applied regardless
	assert.Same(t, md, e.Metadata())
	assert.Equal(t, int64(2), collector.GetUnknownStrategy())
	assert.Equal(t, 2, logs.FilterMessage("token ownership unknown for keyspace").Len())
}

func TestTopologyWatcherFeedsSelector(t *testing.T) {
	watcher := &chanWatcher{updates: make(chan TopologyUpdate, 1)}
	selector := policy.NewTokenAware(testutil.NewStaticSelector(hostA, hostB, hostC))
	e, err := NewExecutor(selector, testutil.NewMockTransport(), WithTopologyWatcher(watcher))
	require.NoError(t, err)

	md := testMetadata(1, map[string]replication.Config{
		"app": {Class: "SimpleStrategy", Options: map[string]string{"replication_factor": "1"}},
	})
	watcher.updates <- TopologyUpdate{Metadata: md}

	require.Eventually(t, func() bool { return e.Metadata() == md }, time.Second, 5*time.Millisecond)

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithKeyspace("app").WithRoutingToken(50))
	require.True(t, out.Succeeded())
	assert.Equal(t, []types.Host{hostB}, out.Hosts)

	e.Close()
	select {
	case <-watcher.stopped():
	case <-time.After(time.Second):
		t.Fatal("watcher context not cancelled by Close")
	}
}

// chanWatcher is a TopologyWatcher fed by a test.
type chanWatcher struct {
	updates chan TopologyUpdate
	ctx     atomic.Pointer[context.Context]
}

func (w *chanWatcher) Watch(ctx context.Context) <-chan TopologyUpdate {
	w.ctx.Store(&ctx)
	return w.updates
}

func (w *chanWatcher) stopped() <-chan struct{} {
	ctx := w.ctx.Load()
	if ctx == nil {
		ch := make(chan struct{})
		return ch
	}

	return (*ctx).Done()
}

func TestExecuteRequeryKeepsHostHistoryBounded(t *testing.T) {
	const failures = 200

	responses := make([]testutil.Response, 0, failures+1)
	for range failures {
		responses = append(responses, testutil.Fail(unavailable(types.Quorum, 2, 1)))
	}
	responses = append(responses, testutil.OK())
	transport := testutil.NewMockTransport(responses...)

	selector := policy.NewRoundRobin([]types.Host{hostA, hostB}, policy.WithRequery())
	e, err := NewExecutor(selector, transport, WithRetryPolicy(policy.NewAlwaysRetry()))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	out := e.Execute(context.Background(), NewStatement("SELECT 1"))

	require.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, failures, out.Retries)
	assert.Equal(t, failures+1, out.Attempts)
	assert.Equal(t, []types.Host{hostA, hostB}, out.Hosts, "hosts are recorded once")

	// Requery still alternates between the two hosts
	attempts := transport.Attempts()
	require.Len(t, attempts, failures+1)
	for i, a := range attempts {
		if i%2 == 0 {
			assert.Equal(t, hostA.Address, a.Host.Address)
		} else {
			assert.Equal(t, hostB.Address, a.Host.Address)
		}
	}
}

func TestMarkTried(t *testing.T) {
	tried, seen := markTried(nil, hostA)
	assert.False(t, seen)
	tried, seen = markTried(tried, hostB)
	assert.False(t, seen)
	tried, seen = markTried(tried, hostA)
	assert.True(t, seen)
	assert.Equal(t, []types.Host{hostB, hostA}, tried, "a repeated host moves to the end")
}
