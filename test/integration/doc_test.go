// Package integration_test runs the executor against a real cluster.
//
// # Running Integration Tests
//
// Integration tests are skipped with -short or SKIP_INTEGRATION_TESTS=1:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
//
// The tests require Docker. A single ScyllaDB node is started through
// testcontainers, falling back to Cassandra when the host has no free AIO slots.
package integration_test
