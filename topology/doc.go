// Package topology provides sources of cluster metadata snapshots.
//
// A snapshot is an immutable [replication.Metadata]: the token ring with every
// host's datacenter and rack, plus the replication configuration of each
// keyspace. Sources implement [strand.TopologyWatcher]; the executor applies
// every snapshot they emit and forwards it to token-aware host selectors.
//
// # NATS Topology
//
// [NATS] watches a NATS KV key holding a JSON [SnapshotDocument]:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "strand-config")
//
//	watcher, _ := topology.NewNATS(kv,
//	    topology.WithKey("cassandra.prod.topology"),
//	)
//
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithTopologyWatcher(watcher),
//	)
//
// # Snapshot Format
//
//	{
//	    "version": 42,
//	    "hosts": [
//	        {"address": "10.0.0.1:9042", "datacenter": "dc1", "rack": "r1",
//	         "tokens": ["-9223372036854775808", "0"]}
//	    ],
//	    "keyspaces": {
//	        "app": {"class": "NetworkTopologyStrategy", "options": {"dc1": "3"}}
//	    }
//	}
//
// Deleting the key, or writing a document that does not decode, keeps the last
// good snapshot in place: clients never fall back to an empty ring because of an
// operator mistake.
//
// # Local Topology
//
// [Local] is an in-memory source for tests and for applications that build
// snapshots themselves, for example from gocql host events:
//
//	local := topology.NewLocal()
//	local.Publish(replication.NewMetadata(1, ring, keyspaces))
package topology
