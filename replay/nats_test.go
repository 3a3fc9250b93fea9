package replay_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/strand/replay"
	"github.com/arloliu/strand/test/testutil"
	"github.com/arloliu/strand/types"
)

func newNATSReplayer(t *testing.T, name string, opts ...replay.NATSReplayerOption) *replay.NATSReplayer {
	t.Helper()

	js := testutil.StartEmbeddedNATS(t)
	opts = append([]replay.NATSReplayerOption{
		replay.WithStreamName(name),
		replay.WithSubjectPrefix("test." + name),
		replay.WithFetchMaxWait(200 * time.Millisecond),
	}, opts...)

	replayer, err := replay.NewNATSReplayer(t.Context(), js, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = replayer.Close() })

	return replayer
}

func TestNATSReplayer_NilJetStream(t *testing.T) {
	_, err := replay.NewNATSReplayer(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JetStream context is nil")
}

func TestNATSReplayer_EnqueueDequeue(t *testing.T) {
	replayer := newNATSReplayer(t, "enqueue")
	assert.Equal(t, "enqueue", replayer.StreamName())

	payload := testPayload("INSERT INTO users (id, name) VALUES (?, ?)")
	require.NoError(t, replayer.Enqueue(t.Context(), payload))

	pending, err := replayer.Pending(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	msgs, err := replayer.Dequeue(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got := msgs[0].Payload
	assert.Equal(t, payload.StatementID, got.StatementID)
	assert.Equal(t, payload.Query, got.Query)
	assert.Equal(t, []any{int64(1), "a"}, got.Args)
	assert.Equal(t, types.Quorum, got.Consistency)
	assert.Equal(t, types.SignalWriteTimeout, got.Cause)
	assert.Equal(t, uint64(1), msgs[0].DeliveryCount)
	assert.False(t, msgs[0].LastAttempt())

	require.NoError(t, msgs[0].Ack())

	// Work-queue retention removes acknowledged messages.
	require.Eventually(t, func() bool {
		n, err := replayer.Pending(t.Context())
		return err == nil && n == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNATSReplayer_DequeueEmpty(t *testing.T) {
	replayer := newNATSReplayer(t, "empty")

	msgs, err := replayer.Dequeue(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNATSReplayer_Closed(t *testing.T) {
	replayer := newNATSReplayer(t, "closed")
	require.NoError(t, replayer.Close())

	require.ErrorIs(t, replayer.Enqueue(t.Context(), testPayload("q")), types.ErrReplayerClosed)

	_, err := replayer.Dequeue(t.Context(), 1)
	require.ErrorIs(t, err, types.ErrReplayerClosed)

	_, err = replayer.Pending(t.Context())
	require.ErrorIs(t, err, types.ErrReplayerClosed)
}

func TestNATSWorker_ProcessesMessages(t *testing.T) {
	replayer := newNATSReplayer(t, "worker")

	for range 3 {
		require.NoError(t, replayer.Enqueue(t.Context(), testPayload("INSERT")))
	}

	var processed atomic.Int32
	worker := replay.NewNATSWorker(replayer, func(_ context.Context, _ types.ReplayPayload) error {
		processed.Add(1)
		return nil
	}, replay.WithPollInterval(10*time.Millisecond))
	assert.Equal(t, "nats", worker.BackendType())

	require.NoError(t, worker.Start())
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return processed.Load() == 3
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNATSWorker_DropsOnLastDelivery(t *testing.T) {
	replayer := newNATSReplayer(t, "drop", replay.WithMaxDeliver(2))
	require.NoError(t, replayer.Enqueue(t.Context(), testPayload("INSERT")))

	collector := testutil.NewTestMetricsCollector()
	dropped := make(chan types.ReplayPayload, 1)
	var calls atomic.Int32

	worker := replay.NewNATSWorker(replayer, func(_ context.Context, _ types.ReplayPayload) error {
		calls.Add(1)
		return errors.New("unavailable")
	},
		replay.WithPollInterval(10*time.Millisecond),
		replay.WithWorkerMetrics(collector),
		replay.WithOnDrop(func(p types.ReplayPayload, _ error) { dropped <- p }),
	)

	require.NoError(t, worker.Start())
	defer worker.Stop()

	select {
	case <-dropped:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not dropped")
	}

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), collector.GetReplayDropped())
}
