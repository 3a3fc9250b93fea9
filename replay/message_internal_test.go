package replay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"

	"github.com/arloliu/strand/types"
)

func TestEncodePayload_RoundTrip(t *testing.T) {
	stmt := types.NewStatement("UPDATE t SET v = ? WHERE id = ?", "value", int64(7)).
		WithKeyspace("app").
		WithRoutingToken(-1234).
		WithIdempotent(true)
	payload := types.NewReplayPayload(stmt, types.LocalQuorum, types.SignalUnavailable)

	data, err := encodePayload(payload)
	require.NoError(t, err)

	got, err := decodePayload(data)
	require.NoError(t, err)

	assert.Equal(t, payload.StatementID, got.StatementID)
	assert.Equal(t, payload.Query, got.Query)
	assert.Equal(t, []any{"value", int64(7)}, got.Args)
	assert.Equal(t, "app", got.Keyspace)
	assert.Equal(t, types.LocalQuorum, got.Consistency)
	assert.Equal(t, types.Token(-1234), got.RoutingToken)
	assert.True(t, got.HasRoutingToken)
	assert.Equal(t, types.SignalUnavailable, got.Cause)
	assert.Equal(t, payload.Timestamp, got.Timestamp)
}

func TestEncodePayload_NoArgs(t *testing.T) {
	payload := types.NewReplayPayload(types.NewStatement("TRUNCATE t"), types.One, types.SignalReadTimeout)

	data, err := encodePayload(payload)
	require.NoError(t, err)

	got, err := decodePayload(data)
	require.NoError(t, err)
	assert.Nil(t, got.Args)
	assert.False(t, got.HasRoutingToken)
}

func TestDecodePayload_Malformed(t *testing.T) {
	_, err := decodePayload([]byte{0xc1})
	require.Error(t, err)
}

func TestReplayMessage_SkipsUnknownFields(t *testing.T) {
	b := msgp.AppendMapHeader(nil, 2)
	b = msgp.AppendString(b, "query")
	b = msgp.AppendString(b, "SELECT 1")
	b = msgp.AppendString(b, "future_field")
	b = msgp.AppendInt(b, 99)

	var msg replayMessage
	rest, err := msg.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "SELECT 1", msg.Query)
}

func TestEncodeArgs_UUIDTypes(t *testing.T) {
	type namedUUID [16]byte

	id := uuid.New()
	raw := [16]byte(id)
	args := []any{id, namedUUID(id), raw, &raw, UUID(id), "plain"}

	encoded, err := encodeArgs(args)
	require.NoError(t, err)

	decoded, err := decodeArgs(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(args))

	for i := 0; i < 5; i++ {
		assert.Equal(t, id[:], decoded[i], "argument %d", i)
	}
	assert.Equal(t, "plain", decoded[5])
}

func TestEncodeArgs_Unsupported(t *testing.T) {
	_, err := encodeArgs([]any{make(chan int)})
	require.Error(t, err)
}

func TestUUID_Extension(t *testing.T) {
	id := uuid.New()
	u := UUID(id)

	assert.Equal(t, UUIDExtensionType, u.ExtensionType())
	assert.Equal(t, UUIDSize, u.Len())
	assert.Equal(t, id.String(), u.String())

	back, ok := UUIDFromBytes(u.Bytes())
	require.True(t, ok)
	assert.Equal(t, u, back)

	_, ok = UUIDFromBytes([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestToUUID_RejectsOtherArrays(t *testing.T) {
	_, ok := toUUID([8]byte{})
	assert.False(t, ok)

	_, ok = toUUID([16]int{})
	assert.False(t, ok)

	var nilPtr *[16]byte
	_, ok = toUUID(nilPtr)
	assert.False(t, ok)

	_, ok = toUUID(nil)
	assert.False(t, ok)
}
