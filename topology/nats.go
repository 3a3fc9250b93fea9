package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/replication"
)

// NATS monitors a NATS KV key holding a cluster metadata snapshot.
//
// It watches a configurable key and emits a TopologyUpdate for every valid
// SnapshotDocument written to it. Deleted keys and documents that fail to
// decode keep the last good snapshot in place.
//
// Watch() should be called once per instance. Subsequent calls return the
// same channel. The channel is closed when Close() is called or the context
// is cancelled.
type NATS struct {
	kv     jetstream.KeyValue
	config WatcherConfig

	current  *replication.Metadata
	revision uint64
	mu       sync.RWMutex

	// Lifecycle
	updates      chan strand.TopologyUpdate
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

var _ strand.TopologyWatcher = (*NATS)(nil)

// NewNATS creates a new NATS KV topology watcher.
//
// The watcher will begin monitoring the KV bucket when Watch() is called.
//
// Parameters:
//   - kv: A NATS JetStream KeyValue store
//   - opts: Optional configuration options
//
// Returns:
//   - *NATS: A new watcher instance
//   - error: Error if kv is nil
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "strand-config")
//
//	watcher, _ := topology.NewNATS(kv,
//	    topology.WithKey("cassandra.prod.topology"),
//	    topology.WithPollInterval(10*time.Second),
//	)
func NewNATS(kv jetstream.KeyValue, opts ...WatcherOption) (*NATS, error) {
	if kv == nil {
		return nil, errors.New("strand/topology: KeyValue store is nil")
	}

	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.Logger = logging.OrNop(config.Logger)

	return &NATS{
		kv:      kv,
		config:  config,
		updates: make(chan strand.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch returns a channel that receives metadata snapshots.
//
// The watcher spawns a background goroutine that monitors the NATS KV key.
// The current document, if any, is fetched and emitted first.
//
// The channel is closed when Close() is called or the context is cancelled.
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan strand.TopologyUpdate: Channel of metadata snapshots
func (n *NATS) Watch(ctx context.Context) <-chan strand.TopologyUpdate {
	n.mu.Lock()
	if n.watchStarted {
		n.mu.Unlock()

		return n.updates
	}
	n.watchStarted = true
	n.mu.Unlock()

	go n.watchLoop(ctx)

	return n.updates
}

// Publish encodes a snapshot and writes it to the watched key.
//
// Parameters:
//   - ctx: Context for the KV write
//   - md: The snapshot to publish
//
// Returns:
//   - error: Error if encoding or the KV write fails
func (n *NATS) Publish(ctx context.Context, md *replication.Metadata) error {
	if md == nil {
		return errors.New("strand/topology: metadata is nil")
	}

	data, err := json.Marshal(NewSnapshotDocument(md))
	if err != nil {
		return fmt.Errorf("strand/topology: failed to encode snapshot: %w", err)
	}

	if _, err := n.kv.Put(ctx, n.config.Key, data); err != nil {
		return fmt.Errorf("strand/topology: failed to publish snapshot: %w", err)
	}

	return nil
}

// Close stops the watcher and releases resources.
//
// This method is safe to call multiple times.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true
	close(n.done)

	return nil
}

// Current returns the last snapshot decoded from the KV store, or nil.
//
// This returns the cached snapshot. It does not perform a live KV fetch.
func (n *NATS) Current() *replication.Metadata {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.current
}

// Config returns the watcher configuration.
//
// This method is primarily useful for testing to verify configuration options.
//
// Returns:
//   - WatcherConfig: The current watcher configuration
func (n *NATS) Config() WatcherConfig {
	return n.config
}

// watchLoop is the main watch loop that monitors the NATS KV key.
func (n *NATS) watchLoop(ctx context.Context) {
	defer n.closeOnce.Do(func() { close(n.updates) })

	// Initial fetch
	n.fetchAndEmit(ctx)

	// Start watching
	watcher, err := n.kv.Watch(ctx, n.config.Key)
	if err != nil {
		n.config.Logger.Warn("KV watch failed, falling back to polling",
			"key", n.config.Key,
			"error", err,
		)
		n.pollLoop(ctx)

		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				// Watcher channel closed, fall back to polling
				n.pollLoop(ctx)
				return
			}
			if entry == nil {
				// End of initial values marker
				continue
			}
			n.processEntry(entry)
		}
	}
}

// pollLoop is a fallback polling loop when watch fails.
func (n *NATS) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			n.fetchAndEmit(ctx)
		}
	}
}

// fetchAndEmit fetches the current KV value and emits it if it is new.
func (n *NATS) fetchAndEmit(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, n.config.InitialFetchTimeout)
	defer cancel()

	entry, err := n.kv.Get(fetchCtx, n.config.Key)
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			n.config.Logger.Debug("failed to fetch topology snapshot",
				"key", n.config.Key,
				"error", err,
			)
		}

		return
	}

	n.processEntry(entry)
}

// processEntry decodes a KV entry and emits its snapshot.
func (n *NATS) processEntry(entry jetstream.KeyValueEntry) {
	// Deleted documents keep the last good snapshot
	if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
		n.config.Logger.Info("topology snapshot deleted, keeping last snapshot",
			"key", n.config.Key,
		)

		return
	}

	n.mu.RLock()
	seen := entry.Revision() <= n.revision
	n.mu.RUnlock()
	if seen {
		return
	}

	var doc SnapshotDocument
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		n.config.Logger.Warn("invalid topology snapshot, keeping last snapshot",
			"key", n.config.Key,
			"revision", entry.Revision(),
			"error", err,
		)

		return
	}

	md, err := doc.Metadata()
	if err != nil {
		n.config.Logger.Warn("invalid topology snapshot, keeping last snapshot",
			"key", n.config.Key,
			"revision", entry.Revision(),
			"error", err,
		)

		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.revision = entry.Revision()
	n.current = md
	emitLatest(n.updates, strand.TopologyUpdate{Metadata: md})
}
