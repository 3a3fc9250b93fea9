package topology

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

func testMetadata(version uint64) *replication.Metadata {
	ring := replication.NewRing([]replication.Entry{
		{Token: 0, Host: types.Host{Address: "10.0.0.1:9042", DataCenter: "dc1", Rack: "r1"}},
		{Token: 100, Host: types.Host{Address: "10.0.0.2:9042", DataCenter: "dc1", Rack: "r2"}},
	})

	return replication.NewMetadata(version, ring, map[string]replication.Config{
		"app": {Class: "SimpleStrategy", Options: map[string]string{"replication_factor": "2"}},
	})
}

func receive(t *testing.T, ch <-chan strand.TopologyUpdate) strand.TopologyUpdate {
	t.Helper()

	select {
	case update, ok := <-ch:
		require.True(t, ok, "channel closed")
		return update
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for update")
	}

	return strand.TopologyUpdate{}
}

func TestNewLocal(t *testing.T) {
	local := NewLocal()
	require.NotNil(t, local)
	defer local.Close()

	assert.Nil(t, local.Current())
}

func TestLocalPublish(t *testing.T) {
	local := NewLocal()
	defer local.Close()

	updates := local.Watch(t.Context())

	md := testMetadata(1)
	local.Publish(md)

	update := receive(t, updates)
	assert.Same(t, md, update.Metadata)
	assert.Same(t, md, local.Current())
}

func TestLocalPublishNil(t *testing.T) {
	local := NewLocal()
	defer local.Close()

	updates := local.Watch(t.Context())
	local.Publish(nil)

	select {
	case <-updates:
		t.Fatal("unexpected update for nil snapshot")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Nil(t, local.Current())
}

func TestLocalPublishKeepsLatestWhenFull(t *testing.T) {
	local := NewLocal()
	defer local.Close()

	updates := local.Watch(t.Context())

	// Overflow the buffer without consuming
	for v := uint64(1); v <= 25; v++ {
		local.Publish(testMetadata(v))
	}

	var last uint64
	for len(updates) > 0 {
		last = (<-updates).Metadata.Version
	}
	assert.Equal(t, uint64(25), last)
}

func TestLocalClose(t *testing.T) {
	local := NewLocal()
	updates := local.Watch(t.Context())

	require.NoError(t, local.Close())
	require.NoError(t, local.Close()) // idempotent

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// Publishing after close is a no-op
	local.Publish(testMetadata(2))
	assert.Nil(t, local.Current())
}

func TestLocalContextCancel(t *testing.T) {
	local := NewLocal()
	defer local.Close()

	ctx, cancel := context.WithCancel(t.Context())
	updates := local.Watch(ctx)
	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}
