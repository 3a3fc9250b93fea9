package replay

import (
	"context"
	"time"

	"github.com/arloliu/strand/types"
)

// memoryBackend implements workerBackend for MemoryReplayer.
type memoryBackend struct {
	w        *Worker
	replayer *MemoryReplayer
}

var _ workerBackend = (*memoryBackend)(nil)

// NewMemoryWorker creates a worker that processes payloads from a MemoryReplayer.
//
// A failed replay is re-enqueued after an exponential backoff until
// WorkerConfig.MaxAttempts is reached; the payload is then dropped.
//
// Parameters:
//   - replayer: The memory replayer to consume from
//   - execute: Function to execute payloads (typically Executor.Replay)
//   - opts: Optional configuration options
//
// Returns:
//   - *Worker: A new worker instance
func NewMemoryWorker(replayer *MemoryReplayer, execute ExecuteFunc, opts ...WorkerOption) *Worker {
	w := newWorker(execute, opts)
	w.backend = &memoryBackend{w: w, replayer: replayer}

	return w
}

func (b *memoryBackend) backendType() string {
	return "memory"
}

func (b *memoryBackend) run() {
	for {
		select {
		case <-b.w.stopCh:
			return
		default:
		}

		payload, ok := b.replayer.TryDequeue()
		if !ok {
			if !b.w.sleep(b.w.config.PollInterval) {
				return
			}

			continue
		}

		b.process(payload)
	}
}

// process executes a payload and schedules its retry on failure.
func (b *memoryBackend) process(payload types.ReplayPayload) {
	cfg := &b.w.config
	payload.Attempts++

	err := b.w.executeOnce(payload)
	if err == nil {
		return
	}

	cfg.Logger.Warn("replay execution failed",
		"statement_id", payload.StatementID,
		"attempt", payload.Attempts,
		"error", err,
	)
	if cfg.OnError != nil {
		cfg.OnError(payload, err, payload.Attempts)
	}

	if cfg.MaxAttempts > 0 && payload.Attempts >= cfg.MaxAttempts {
		b.w.drop(payload, err, payload.Attempts)
		return
	}

	// A stopped worker still requeues, leaving the payload to DrainAll.
	b.w.sleep(calculateBackoff(payload.Attempts, cfg.RetryDelay, cfg.MaxRetryDelay))
	b.requeue(payload, err)
}

func (b *memoryBackend) requeue(payload types.ReplayPayload, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := b.replayer.Enqueue(ctx, payload); err != nil {
		b.w.drop(payload, cause, payload.Attempts)
	}
}
