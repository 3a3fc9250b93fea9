package cql

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// System table queries used to build the token ring.
const (
	LocalQuery = "SELECT host_id, data_center, rack, tokens, rpc_address FROM system.local"
	PeersQuery = "SELECT peer, host_id, data_center, rack, tokens, rpc_address FROM system.peers"
)

// DefaultPort is the native protocol port used when a row carries no port.
const DefaultPort = 9042

// Peer is one row of system.local or system.peers.
type Peer struct {
	Address    string
	HostID     string
	DataCenter string
	Rack       string
	Tokens     []string
}

// Host returns the host snapshot of the peer.
func (p Peer) Host() types.Host {
	return types.Host{
		Address:    p.Address,
		HostID:     p.HostID,
		DataCenter: p.DataCenter,
		Rack:       p.Rack,
	}
}

// PeerFromRow decodes a row read with LocalQuery or PeersQuery.
//
// The row values are the driver's native types: UUIDs and inet values are
// converted with their String method, so the function works with every gocql
// major version.
//
// Parameters:
//   - row: Column values keyed by column name
//   - fallback: Address to use when rpc_address is missing or unspecified
//   - port: Native protocol port of the cluster
//
// Returns:
//   - Peer: The decoded peer
//   - error: Error if no usable address is found
func PeerFromRow(row map[string]any, fallback string, port int) (Peer, error) {
	if port <= 0 {
		port = DefaultPort
	}

	ip := stringValue(row["rpc_address"])
	if ip == "" || ip == "0.0.0.0" || ip == "::" {
		ip = stringValue(row["peer"])
	}
	if ip == "" {
		ip = fallback
	}
	if ip == "" {
		return Peer{}, errors.New("strand/cql: system table row without address")
	}

	return Peer{
		Address:    net.JoinHostPort(ip, strconv.Itoa(port)),
		HostID:     stringValue(row["host_id"]),
		DataCenter: stringValue(row["data_center"]),
		Rack:       stringValue(row["rack"]),
		Tokens:     stringSlice(row["tokens"]),
	}, nil
}

// RingFromPeers builds a ring from decoded peers.
//
// Returns:
//   - *replication.Ring: The ring
//   - error: Error if a token is not a decimal Murmur3 token
func RingFromPeers(peers []Peer) (*replication.Ring, error) {
	var entries []replication.Entry
	for _, p := range peers {
		host := p.Host()
		for _, raw := range p.Tokens {
			token, err := types.ParseToken(raw)
			if err != nil {
				return nil, fmt.Errorf("strand/cql: host %s: %w", p.Address, err)
			}
			entries = append(entries, replication.Entry{Token: token, Host: host})
		}
	}

	return replication.NewRing(entries), nil
}

// IsConnectionError reports whether err means the request never reached a
// coordinator: dial and socket errors from the network stack.
func IsConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case net.IP:
		if val == nil {
			return ""
		}

		return val.String()
	case fmt.Stringer:
		return val.String()
	}

	return fmt.Sprint(v)
}

func stringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringValue(item))
		}

		return out
	}

	return nil
}
