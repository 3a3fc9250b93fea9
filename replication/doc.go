// Package replication computes token ownership: which hosts hold the replicas of a
// partition token, given the token ring and a keyspace's replication strategy.
//
// # Strategies
//
//   - SimpleStrategy: the next N distinct hosts clockwise from the token's owner.
//   - NetworkTopologyStrategy: N hosts per datacenter, spread over distinct racks
//     before any rack holds a second replica.
//   - LocalStrategy: the owner only.
//   - EverywhereStrategy: every host.
//
// Strategy class names are resolved case-insensitively, with or without the
// org.apache.cassandra.locator prefix. Unresolvable configurations are reported
// through the logger and a false return, never through a panic or an error, so a
// single bad keyspace cannot break a topology refresh.
//
// # Example
//
//	ring := replication.NewRing(entries)
//	cfg := replication.Config{
//	    Class:   "NetworkTopologyStrategy",
//	    Options: map[string]string{"dc1": "3", "dc2": "2"},
//	}
//	replicas, ok := replication.ComputeReplicas(ring, cfg, token, logger)
package replication
