package topology

import (
	"fmt"
	"time"

	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// SnapshotDocument is the cluster metadata document stored in NATS KV.
//
// Tokens are encoded as decimal strings, as in system.peers, so that 64-bit
// values survive JSON tooling that parses numbers as doubles.
type SnapshotDocument struct {
	// Version orders snapshots; clients ignore a document older than the one
	// they already applied.
	Version uint64 `json:"version"`

	// Hosts lists every node with the tokens it owns.
	Hosts []HostDocument `json:"hosts"`

	// Keyspaces maps keyspace names to their replication configuration.
	Keyspaces map[string]replication.Config `json:"keyspaces,omitempty"`
}

// HostDocument describes one node of a SnapshotDocument.
type HostDocument struct {
	Address    string   `json:"address"`
	HostID     string   `json:"host_id,omitempty"`
	DataCenter string   `json:"datacenter"`
	Rack       string   `json:"rack"`
	Tokens     []string `json:"tokens"`
}

// Metadata converts the document into an immutable metadata snapshot.
//
// Returns:
//   - *replication.Metadata: The snapshot
//   - error: Error if a host has no address or a token is not a decimal integer
func (d *SnapshotDocument) Metadata() (*replication.Metadata, error) {
	var entries []replication.Entry
	for _, h := range d.Hosts {
		if h.Address == "" {
			return nil, fmt.Errorf("strand/topology: host without address in snapshot version %d", d.Version)
		}

		host := types.Host{
			Address:    h.Address,
			HostID:     h.HostID,
			DataCenter: h.DataCenter,
			Rack:       h.Rack,
		}
		for _, raw := range h.Tokens {
			token, err := types.ParseToken(raw)
			if err != nil {
				return nil, fmt.Errorf("strand/topology: host %s: %w", h.Address, err)
			}
			entries = append(entries, replication.Entry{Token: token, Host: host})
		}
	}

	return replication.NewMetadata(d.Version, replication.NewRing(entries), d.Keyspaces), nil
}

// NewSnapshotDocument encodes a metadata snapshot as a document.
//
// Parameters:
//   - md: The snapshot to encode
//
// Returns:
//   - *SnapshotDocument: The document, hosts in order of their first token
func NewSnapshotDocument(md *replication.Metadata) *SnapshotDocument {
	doc := &SnapshotDocument{
		Version:   md.Version,
		Keyspaces: md.Keyspaces,
	}

	index := make(map[string]int)
	for i := 0; i < md.Ring.Len(); i++ {
		e := md.Ring.Entry(i)
		pos, ok := index[e.Host.Address]
		if !ok {
			pos = len(doc.Hosts)
			index[e.Host.Address] = pos
			doc.Hosts = append(doc.Hosts, HostDocument{
				Address:    e.Host.Address,
				HostID:     e.Host.HostID,
				DataCenter: e.Host.DataCenter,
				Rack:       e.Host.Rack,
			})
		}
		doc.Hosts[pos].Tokens = append(doc.Hosts[pos].Tokens, fmt.Sprintf("%d", int64(e.Token)))
	}

	return doc
}

// WatcherConfig holds configuration for topology watchers.
type WatcherConfig struct {
	// Key is the NATS KV key holding the snapshot document.
	// Default: "strand.topology.snapshot"
	Key string

	// PollInterval is the fallback polling interval if watch fails.
	// Default: 5 seconds
	PollInterval time.Duration

	// InitialFetchTimeout is the timeout for the initial KV fetch.
	// Default: 10 seconds
	InitialFetchTimeout time.Duration

	// Logger receives diagnostics about rejected documents.
	// Default: no-op logger
	Logger types.Logger
}

// DefaultWatcherConfig returns a WatcherConfig with sensible defaults.
//
// Returns:
//   - WatcherConfig: Default configuration
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Key:                 "strand.topology.snapshot",
		PollInterval:        5 * time.Second,
		InitialFetchTimeout: 10 * time.Second,
	}
}

// WatcherOption configures a topology watcher.
type WatcherOption func(*WatcherConfig)

// WithKey sets the NATS KV key to watch.
//
// Parameters:
//   - key: The key name (e.g., "cassandra.prod.topology")
//
// Returns:
//   - WatcherOption: Configuration option
func WithKey(key string) WatcherOption {
	return func(c *WatcherConfig) {
		c.Key = key
	}
}

// WithPollInterval sets the fallback polling interval.
//
// If the NATS watch fails or disconnects, the watcher falls back to
// polling at this interval.
//
// Parameters:
//   - d: Polling interval duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithPollInterval(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.PollInterval = d
	}
}

// WithInitialFetchTimeout sets the timeout for the initial KV fetch.
//
// Parameters:
//   - d: Timeout duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithInitialFetchTimeout(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.InitialFetchTimeout = d
	}
}

// WithLogger sets the logger for watcher diagnostics.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - WatcherOption: Configuration option
func WithLogger(logger types.Logger) WatcherOption {
	return func(c *WatcherConfig) {
		c.Logger = logger
	}
}
