package strand

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/strand/replay"
	"github.com/arloliu/strand/test/testutil"
	"github.com/arloliu/strand/types"
)

// failingReplayer rejects every payload.
type failingReplayer struct{}

func (failingReplayer) Enqueue(context.Context, types.ReplayPayload) error {
	return types.ErrReplayQueueFull
}

func readTimeout() error {
	return &types.ReadTimeoutError{Consistency: types.Quorum, Required: 2, Received: 1}
}

func TestExecuteParksIdempotentFailure(t *testing.T) {
	replayer := replay.NewMemoryReplayer()
	collector := testutil.NewTestMetricsCollector()
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout()))
	e := newTestExecutor(t, transport, WithReplayer(replayer), WithMetrics(collector))

	stmt := NewStatement("UPDATE t SET v = ? WHERE id = ?", "x", 1).
		WithKeyspace("app").
		WithConsistency(types.Quorum).
		WithRoutingToken(150).
		WithIdempotent(true)
	out := e.Execute(context.Background(), stmt)

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.True(t, out.Parked)
	assert.Equal(t, int64(1), collector.GetReplayEnqueued())

	payload, ok := replayer.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, stmt.ID(), payload.StatementID)
	assert.Equal(t, stmt.Query(), payload.Query)
	assert.Equal(t, []any{"x", 1}, payload.Args)
	assert.Equal(t, "app", payload.Keyspace)
	assert.Equal(t, types.Quorum, payload.Consistency)
	assert.Equal(t, types.Token(150), payload.RoutingToken)
	assert.True(t, payload.HasRoutingToken)
	assert.Equal(t, types.SignalReadTimeout, payload.Cause)
}

func TestExecuteDoesNotParkNonIdempotent(t *testing.T) {
	replayer := replay.NewMemoryReplayer()
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout()))
	e := newTestExecutor(t, transport, WithReplayer(replayer))

	out := e.Execute(context.Background(), NewStatement("INSERT INTO t (id) VALUES (?)", 1))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Parked)
	assert.Equal(t, 0, replayer.Len())
}

func TestExecuteDoesNotParkFatalOrCancelled(t *testing.T) {
	replayer := replay.NewMemoryReplayer()
	transport := testutil.NewMockTransport(testutil.Fail(errors.New("protocol error")))
	e := newTestExecutor(t, transport, WithReplayer(replayer))

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithIdempotent(true))
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Parked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out = e.Execute(ctx, NewStatement("SELECT 1").WithIdempotent(true))
	require.Equal(t, OutcomeCancelled, out.Kind)
	assert.False(t, out.Parked)

	assert.Equal(t, 0, replayer.Len())
}

func TestExecuteParkFailureIsReported(t *testing.T) {
	collector := testutil.NewTestMetricsCollector()
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout()))
	e := newTestExecutor(t, transport, WithReplayer(failingReplayer{}), WithMetrics(collector))

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithIdempotent(true))

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Parked)
	assert.Equal(t, int64(1), collector.GetReplayDropped())
	assert.Equal(t, int64(0), collector.GetReplayEnqueued())
}

func TestReplayDoesNotParkAgain(t *testing.T) {
	replayer := replay.NewMemoryReplayer()
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout()), testutil.OK())
	e := newTestExecutor(t, transport, WithReplayer(replayer))

	stmt := NewStatement("SELECT 1").WithConsistency(types.Quorum).WithIdempotent(true)
	payload := types.NewReplayPayload(stmt, types.Quorum, types.SignalReadTimeout)

	err := e.Replay(context.Background(), payload)
	require.Error(t, err)
	assert.Equal(t, 0, replayer.Len())

	require.NoError(t, e.Replay(context.Background(), payload))
	assert.Equal(t, []types.Consistency{types.Quorum, types.Quorum}, transport.Consistencies())
}

func TestReplayWorkerDrivesExecutor(t *testing.T) {
	replayer := replay.NewMemoryReplayer()
	transport := testutil.NewMockTransport(testutil.Fail(readTimeout()), testutil.OK())
	e := newTestExecutor(t, transport, WithReplayer(replayer))

	out := e.Execute(context.Background(), NewStatement("SELECT 1").WithIdempotent(true))
	require.True(t, out.Parked)

	done := make(chan types.ReplayPayload, 1)
	worker := replay.NewMemoryWorker(replayer, e.Replay,
		replay.WithOnSuccess(func(p types.ReplayPayload) { done <- p }),
	)
	require.NoError(t, worker.Start())
	defer worker.Stop()

	select {
	case p := <-done:
		assert.Equal(t, types.SignalReadTimeout, p.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("parked statement was not replayed")
	}
	assert.Equal(t, 2, transport.AttemptCount())
}
