package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

// StartEmbeddedNATS starts an in-process JetStream server and connects to it.
//
// The server listens on a random local port and stores streams under
// t.TempDir(). The connection and the server are shut down on test cleanup.
//
// Parameters:
//   - t: The testing context
//
// Returns:
//   - jetstream.JetStream: A JetStream context bound to the server
func StartEmbeddedNATS(t *testing.T) jetstream.JetStream {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err, "failed to create NATS server")

	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready for connections")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Name("strand-test"))
	require.NoError(t, err, "failed to connect to NATS server")

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	js, err := jetstream.New(nc)
	require.NoError(t, err, "failed to create JetStream context")

	return js
}

// NewTopologyBucket creates a memory-backed key-value bucket for topology snapshots.
//
// Parameters:
//   - t: The testing context
//   - js: JetStream context from StartEmbeddedNATS
//   - bucket: The bucket name
//
// Returns:
//   - jetstream.KeyValue: The created bucket
func NewTopologyBucket(t *testing.T, js jetstream.JetStream, bucket string) jetstream.KeyValue {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "strand cluster topology",
		History:     5,
		Storage:     jetstream.MemoryStorage,
	})
	require.NoError(t, err, "failed to create topology bucket")

	return kv
}
