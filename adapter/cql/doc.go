// Package cql holds the driver-independent parts of the gocql bindings.
//
// It decodes the system.local and system.peers tables into a token ring,
// recognizes connection-level errors, and provides [Poller], a topology watcher
// that reloads cluster metadata on an interval.
//
// Driver-specific bindings are provided in subpackages:
//
//   - [github.com/arloliu/strand/adapter/cql/v1]: gocql v1.x
//   - [github.com/arloliu/strand/adapter/cql/v2]: apache/cassandra-gocql-driver v2.x
//
// # Usage
//
//	import (
//	    "github.com/arloliu/strand"
//	    "github.com/arloliu/strand/adapter/cql"
//	    v1 "github.com/arloliu/strand/adapter/cql/v1"
//	    "github.com/gocql/gocql"
//	)
//
//	session, _ := gocql.NewCluster("127.0.0.1").CreateSession()
//
//	poller, _ := cql.NewPoller(v1.NewMetadataLoader(session, "app"))
//	executor, _ := strand.NewExecutor(selector, v1.NewTransport(session),
//	    strand.WithErrorClassifier(v1.ClassifyError),
//	    strand.WithTopologyWatcher(poller),
//	)
package cql
