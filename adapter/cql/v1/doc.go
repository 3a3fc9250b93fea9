// Package v1 binds strand to gocql v1 (github.com/gocql/gocql).
//
// # Usage
//
//	cluster := gocql.NewCluster("10.0.0.1", "10.0.0.2")
//	session, err := cluster.CreateSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hosts, _ := v1.HostsFromSession(ctx, session, 0)
//	selector := policy.NewRoundRobin(hostsOf(hosts))
//
//	executor, _ := strand.NewExecutor(selector, v1.NewTransport(session),
//	    strand.WithErrorClassifier(v1.ClassifyError),
//	)
//
// # Errors
//
// [ClassifyError] maps gocql's RequestErrUnavailable, RequestErrReadTimeout and
// RequestErrWriteTimeout to strand failure signals. [Transport] reports
// connection failures (ErrNoConnections, ErrConnectionClosed, socket errors) as
// types.HostUnreachableError so that the executor moves on to the next host.
//
// # Thread Safety
//
// Transport is safe for concurrent use, matching gocql's thread safety guarantees.
package v1
