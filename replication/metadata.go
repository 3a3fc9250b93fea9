package replication

import (
	"github.com/arloliu/strand/types"
)

// Metadata is an immutable snapshot of cluster topology: the token ring and the
// replication configuration of every known keyspace.
//
// A new snapshot replaces the previous one on topology refresh; existing snapshots
// are never modified, so in-flight readers keep a consistent view.
type Metadata struct {
	// Version is an opaque, monotonically increasing snapshot version.
	Version uint64

	// Ring is the token ring shared by every keyspace.
	Ring *Ring

	// Keyspaces maps keyspace names to their replication configuration.
	Keyspaces map[string]Config
}

// NewMetadata creates a snapshot. The keyspace map is copied.
//
// Parameters:
//   - version: Snapshot version
//   - ring: The token ring (nil means an empty ring)
//   - keyspaces: Replication configuration per keyspace
//
// Returns:
//   - *Metadata: A new immutable snapshot
func NewMetadata(version uint64, ring *Ring, keyspaces map[string]Config) *Metadata {
	if ring == nil {
		ring = NewRing(nil)
	}

	copied := make(map[string]Config, len(keyspaces))
	for name, cfg := range keyspaces {
		opts := make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			opts[k] = v
		}
		copied[name] = Config{Class: cfg.Class, Options: opts}
	}

	return &Metadata{Version: version, Ring: ring, Keyspaces: copied}
}

// Keyspace returns the replication configuration of a keyspace.
func (m *Metadata) Keyspace(name string) (Config, bool) {
	cfg, ok := m.Keyspaces[name]
	return cfg, ok
}

// Replicas returns the replicas of a token in a keyspace.
//
// Returns:
//   - []types.Host: The replicas, primary first
//   - bool: false when the keyspace is unknown or its strategy is not resolvable
func (m *Metadata) Replicas(keyspace string, token types.Token, logger types.Logger) ([]types.Host, bool) {
	cfg, ok := m.Keyspaces[keyspace]
	if !ok {
		return nil, false
	}

	return ComputeReplicas(m.Ring, cfg, token, logger)
}

// ReplicationFactor returns the replication factor of a keyspace in a datacenter,
// or across all datacenters when dc is empty. It returns 0 when unknown.
func (m *Metadata) ReplicationFactor(keyspace, dc string) int {
	cfg, ok := m.Keyspaces[keyspace]
	if !ok {
		return 0
	}

	strategy, ok := ResolveConfig(cfg, nil)
	if !ok {
		return 0
	}

	return strategy.ReplicationFactor(m.Ring, dc)
}
