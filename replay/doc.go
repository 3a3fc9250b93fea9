// Package replay provides deferred execution of statements that failed after
// exhausting their in-line retries.
//
// When an idempotent statement fails with an unavailable, timeout or
// no-host-available signal, an Executor configured with strand.WithReplayer
// parks it as a types.ReplayPayload. A Worker later feeds parked statements back
// through Executor.Replay, once the cluster has had time to recover.
//
// # Replayer Interface
//
// The public [strand.Replayer] interface is minimal, requiring only Enqueue:
//
//	type Replayer interface {
//	    Enqueue(ctx context.Context, payload types.ReplayPayload) error
//	}
//
// # Memory Replayer
//
// [MemoryReplayer] provides a bounded in-memory queue suitable for
// single-instance deployments or testing:
//
//   - Dequeue: Block until a payload is available
//   - TryDequeue: Non-blocking dequeue attempt
//   - DrainAll: Retrieve all pending payloads
//   - Len/Cap: Queue size information
//   - Close/IsClosed: Lifecycle
//
// Enqueue returns [types.ErrReplayQueueFull] when capacity is reached.
//
// # NATS JetStream Replayer
//
// [NATSReplayer] provides a durable queue backed by a JetStream work-queue
// stream. Payloads are encoded with MessagePack; bound values survive the round
// trip, and 16-byte UUID values (gocql.UUID, uuid.UUID) are carried as a
// MessagePack extension.
//
// # Replay Worker
//
// The [Worker] type processes parked statements in the background:
//
//	replayer := replay.NewMemoryReplayer(replay.WithQueueCapacity(1000))
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithReplayer(replayer),
//	)
//	worker := replay.NewMemoryWorker(replayer, executor.Replay,
//	    replay.WithRetryDelay(time.Second),
//	    replay.WithMaxAttempts(3),
//	)
//	_ = worker.Start()
//	defer worker.Stop()
package replay
