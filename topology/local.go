package topology

import (
	"context"
	"sync"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/replication"
)

// Local provides an in-memory topology watcher for tests and embedded use.
//
// Unlike NATS, this implementation is fed programmatically: every Publish call
// emits the snapshot to the watcher channel.
type Local struct {
	current *replication.Metadata
	mu      sync.RWMutex

	updates       chan strand.TopologyUpdate
	done          chan struct{}
	closed        bool
	updatesClosed bool
}

var _ strand.TopologyWatcher = (*Local)(nil)

// NewLocal creates a new in-memory topology watcher.
//
// Returns:
//   - *Local: A new local topology instance
func NewLocal() *Local {
	return &Local{
		updates: make(chan strand.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}
}

// Watch returns a channel that receives topology updates.
//
// Updates are emitted when Publish is called. The channel is closed
// when Close() is called or the context is cancelled.
//
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - <-chan strand.TopologyUpdate: Channel of metadata snapshots
func (l *Local) Watch(ctx context.Context) <-chan strand.TopologyUpdate {
	go l.waitForClose(ctx)
	return l.updates
}

// Publish installs a new snapshot and emits it.
//
// When the channel buffer is full, the oldest pending update is dropped so that
// the latest snapshot always reaches the consumer.
//
// Parameters:
//   - md: The snapshot (nil is ignored)
func (l *Local) Publish(md *replication.Metadata) {
	if md == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.updatesClosed {
		return
	}

	l.current = md
	emitLatest(l.updates, strand.TopologyUpdate{Metadata: md})
}

// Current returns the last published snapshot, or nil.
func (l *Local) Current() *replication.Metadata {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.current
}

// Close stops the watcher and releases resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return nil
}

// waitForClose waits for context cancellation or close signal.
func (l *Local) waitForClose(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-l.done:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.updatesClosed {
		l.updatesClosed = true
		close(l.updates)
	}
}

// emitLatest sends update without blocking, evicting the oldest pending update
// when the buffer is full. Callers must be the only sender on ch.
func emitLatest(ch chan strand.TopologyUpdate, update strand.TopologyUpdate) {
	for {
		select {
		case ch <- update:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
