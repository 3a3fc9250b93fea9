// Package v2 binds strand to the Apache gocql driver v2
// (github.com/apache/cassandra-gocql-driver/v2).
//
// The API mirrors package v1: [NewTransport], [ClassifyError],
// [HostsFromSession], [NewMetadataLoader] and the consistency converters. Queries
// run through the driver's context-aware IterContext, since v2 deprecates
// Query.WithContext.
//
//	import (
//	    gocql "github.com/apache/cassandra-gocql-driver/v2"
//	    v2 "github.com/arloliu/strand/adapter/cql/v2"
//	)
//
//	session, _ := gocql.NewCluster("127.0.0.1").CreateSession()
//	executor, _ := strand.NewExecutor(selector, v2.NewTransport(session),
//	    strand.WithErrorClassifier(v2.ClassifyError),
//	)
//
// # Thread Safety
//
// Transport is safe for concurrent use, matching gocql's thread safety guarantees.
package v2
