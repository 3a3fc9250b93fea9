package v1

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/gocql/gocql"

	"github.com/arloliu/strand/adapter/cql"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// HostFromInfo converts gocql host information into a host snapshot.
func HostFromInfo(info *gocql.HostInfo) types.Host {
	return types.Host{
		Address:    net.JoinHostPort(info.ConnectAddress().String(), strconv.Itoa(info.Port())),
		HostID:     info.HostID(),
		DataCenter: info.DataCenter(),
		Rack:       info.Rack(),
	}
}

// RingFromHosts builds a token ring from gocql host information, for example
// the hosts collected by a gocql.HostFilter.
//
// Returns:
//   - *replication.Ring: The ring
//   - error: Error if a host reports a token that is not a Murmur3 token
func RingFromHosts(hosts []*gocql.HostInfo) (*replication.Ring, error) {
	peers := make([]cql.Peer, 0, len(hosts))
	for _, info := range hosts {
		h := HostFromInfo(info)
		peers = append(peers, cql.Peer{
			Address:    h.Address,
			HostID:     h.HostID,
			DataCenter: h.DataCenter,
			Rack:       h.Rack,
			Tokens:     info.Tokens(),
		})
	}

	return cql.RingFromPeers(peers)
}

// ConfigFromKeyspace converts gocql keyspace metadata into a replication configuration.
func ConfigFromKeyspace(ks *gocql.KeyspaceMetadata) replication.Config {
	return replication.NewConfig(ks.StrategyClass, ks.StrategyOptions)
}

// HostsFromSession reads the hosts of the cluster from the system tables.
//
// Parameters:
//   - ctx: Context for the queries
//   - session: A connected session
//   - port: Native protocol port of the cluster (0 means 9042)
//
// Returns:
//   - []cql.Peer: The local node first, then its peers
//   - error: Query or decoding error
func HostsFromSession(ctx context.Context, session *gocql.Session, port int) ([]cql.Peer, error) {
	local, err := session.Query(cql.LocalQuery).WithContext(ctx).Iter().SliceMap()
	if err != nil {
		return nil, fmt.Errorf("strand/cql/v1: failed to read system.local: %w", err)
	}
	peers, err := session.Query(cql.PeersQuery).WithContext(ctx).Iter().SliceMap()
	if err != nil {
		return nil, fmt.Errorf("strand/cql/v1: failed to read system.peers: %w", err)
	}

	out := make([]cql.Peer, 0, len(local)+len(peers))
	for _, row := range append(local, peers...) {
		peer, err := cql.PeerFromRow(row, "", port)
		if err != nil {
			return nil, err
		}
		out = append(out, peer)
	}

	return out, nil
}

// NewMetadataLoader returns a cql.LoadFunc reading the ring and the replication
// configuration of the given keyspaces.
//
// Parameters:
//   - session: A connected session
//   - keyspaces: Keyspaces to include in the snapshot
//
// Returns:
//   - cql.LoadFunc: Loader for cql.NewPoller
func NewMetadataLoader(session *gocql.Session, keyspaces ...string) cql.LoadFunc {
	return func(ctx context.Context) (*replication.Metadata, error) {
		peers, err := HostsFromSession(ctx, session, 0)
		if err != nil {
			return nil, err
		}
		ring, err := cql.RingFromPeers(peers)
		if err != nil {
			return nil, err
		}

		configs := make(map[string]replication.Config, len(keyspaces))
		for _, name := range keyspaces {
			ks, err := session.KeyspaceMetadata(name)
			if err != nil {
				return nil, fmt.Errorf("strand/cql/v1: failed to read keyspace %s: %w", name, err)
			}
			configs[name] = ConfigFromKeyspace(ks)
		}

		return replication.NewMetadata(0, ring, configs), nil
	}
}
