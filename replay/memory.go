package replay

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/strand/types"
)

// MemoryReplayer implements an in-memory replay queue using a buffered channel.
//
// # Durability Warning
//
// Parked statements are LOST on process restart.
// Use MemoryReplayer for:
//   - Development and testing
//   - Scenarios where replay loss is acceptable
//
// For durability, use NATSReplayer with JetStream persistence.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The Close method marks the replayer
// as closed but does not close the underlying channel, preventing panics from
// concurrent Enqueue calls during shutdown.
type MemoryReplayer struct {
	queue    chan types.ReplayPayload
	closed   atomic.Bool
	capacity int
}

// MemoryReplayerOption configures a MemoryReplayer.
type MemoryReplayerOption func(*MemoryReplayer)

// WithQueueCapacity sets the maximum number of pending replays.
//
// Parameters:
//   - n: Queue capacity (default: 10000)
//
// Returns:
//   - MemoryReplayerOption: Configuration option
func WithQueueCapacity(n int) MemoryReplayerOption {
	return func(m *MemoryReplayer) {
		m.capacity = n
	}
}

// NewMemoryReplayer creates a new in-memory replayer.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *MemoryReplayer: A new memory replayer
func NewMemoryReplayer(opts ...MemoryReplayerOption) *MemoryReplayer {
	m := &MemoryReplayer{
		capacity: 10000,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.capacity < 1 {
		m.capacity = 1
	}
	m.queue = make(chan types.ReplayPayload, m.capacity)

	return m
}

// Enqueue parks a failed statement.
//
// If the queue is full, returns ErrReplayQueueFull immediately (non-blocking).
// If the replayer is closed, returns ErrReplayerClosed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - payload: The failed statement
//
// Returns:
//   - error: nil on success, ErrReplayQueueFull if queue is at capacity
func (m *MemoryReplayer) Enqueue(ctx context.Context, payload types.ReplayPayload) error {
	if m.closed.Load() {
		return types.ErrReplayerClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case m.queue <- payload:
		return nil
	default:
		return types.ErrReplayQueueFull
	}
}

// Dequeue retrieves the next payload, blocking until one is available.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - types.ReplayPayload: The next payload
//   - bool: true if a payload was retrieved, false if ctx is done
func (m *MemoryReplayer) Dequeue(ctx context.Context) (types.ReplayPayload, bool) {
	select {
	case <-ctx.Done():
		return types.ReplayPayload{}, false
	case payload := <-m.queue:
		return payload, true
	}
}

// TryDequeue attempts to retrieve a payload without blocking.
//
// Returns:
//   - types.ReplayPayload: The payload if available
//   - bool: true if a payload was retrieved, false if queue is empty
func (m *MemoryReplayer) TryDequeue() (types.ReplayPayload, bool) {
	select {
	case payload := <-m.queue:
		return payload, true
	default:
		return types.ReplayPayload{}, false
	}
}

// Len returns the current number of pending replays.
func (m *MemoryReplayer) Len() int {
	return len(m.queue)
}

// Cap returns the queue capacity.
func (m *MemoryReplayer) Cap() int {
	return cap(m.queue)
}

// Close marks the replay queue as closed.
//
// After Close is called, Enqueue will return ErrReplayerClosed.
// Pending payloads can still be dequeued; use DrainAll to retrieve them.
//
// Close is safe to call multiple times.
func (m *MemoryReplayer) Close() {
	m.closed.Store(true)
}

// IsClosed returns whether the replayer has been closed.
func (m *MemoryReplayer) IsClosed() bool {
	return m.closed.Load()
}

// DrainAll returns all pending replays and empties the queue.
//
// This is useful for graceful shutdown scenarios where pending replays must be
// persisted before exiting.
//
// Returns:
//   - []types.ReplayPayload: All pending replay payloads, oldest first
func (m *MemoryReplayer) DrainAll() []types.ReplayPayload {
	var payloads []types.ReplayPayload
	for {
		select {
		case payload := <-m.queue:
			payloads = append(payloads, payload)
		default:
			return payloads
		}
	}
}
