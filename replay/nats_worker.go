package replay

import (
	"context"
	"time"
)

// natsBackend implements workerBackend for NATSReplayer.
type natsBackend struct {
	w        *Worker
	replayer *NATSReplayer
}

var _ workerBackend = (*natsBackend)(nil)

// NewNATSWorker creates a worker that processes messages from a NATSReplayer.
//
// Failed replays are negatively acknowledged for redelivery; on the consumer's
// last delivery the message is terminated and dropped.
//
// Parameters:
//   - replayer: The NATS replayer to consume from
//   - execute: Function to execute payloads (typically Executor.Replay)
//   - opts: Optional configuration options
//
// Returns:
//   - *Worker: A new worker instance
func NewNATSWorker(replayer *NATSReplayer, execute ExecuteFunc, opts ...WorkerOption) *Worker {
	w := newWorker(execute, opts)
	w.backend = &natsBackend{w: w, replayer: replayer}

	return w
}

func (b *natsBackend) backendType() string {
	return "nats"
}

func (b *natsBackend) run() {
	cfg := &b.w.config

	for {
		select {
		case <-b.w.stopCh:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		msgs, err := b.replayer.Dequeue(ctx, cfg.BatchSize)
		cancel()

		if err != nil {
			cfg.Logger.Error("failed to dequeue replay messages", "error", err)
		}
		if err != nil || len(msgs) == 0 {
			if !b.w.sleep(cfg.PollInterval) {
				return
			}

			continue
		}

		b.processMessages(msgs)
	}
}

// processMessages processes a batch of NATS replay messages.
func (b *natsBackend) processMessages(msgs []ReplayMessage) {
	cfg := &b.w.config

	for i := range msgs {
		msg := &msgs[i]

		select {
		case <-b.w.stopCh:
			// Nak remaining messages for redelivery
			for j := i; j < len(msgs); j++ {
				_ = msgs[j].Nak()
			}

			return
		default:
		}

		err := b.w.executeOnce(msg.Payload)
		if err == nil {
			_ = msg.Ack()
			continue
		}

		//nolint:gosec // DeliveryCount is a small positive number
		attempt := int(msg.DeliveryCount)
		if msg.LastAttempt() {
			_ = msg.Term()
			b.w.drop(msg.Payload, err, attempt)

			continue
		}

		_ = msg.Nak()
		cfg.Logger.Warn("replay execution failed, will retry",
			"statement_id", msg.Payload.StatementID,
			"attempt", attempt,
			"max_deliver", msg.MaxDeliver,
			"error", err,
		)
		if cfg.OnError != nil {
			cfg.OnError(msg.Payload, err, attempt)
		}
	}
}
