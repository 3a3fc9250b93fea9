package replay

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tinylib/msgp/msgp"

	"github.com/arloliu/strand/types"
)

// replayMessage is the MessagePack wire format of a parked statement.
type replayMessage struct {
	StatementID     string   `msg:"statement_id"`
	Query           string   `msg:"query"`
	Args            msgp.Raw `msg:"args"`
	Keyspace        string   `msg:"keyspace"`
	Consistency     uint16   `msg:"consistency"`
	RoutingToken    int64    `msg:"routing_token"`
	HasRoutingToken bool     `msg:"has_routing_token"`
	Cause           uint8    `msg:"cause"`
	Timestamp       int64    `msg:"timestamp"`
}

const replayMessageFields = 9

// MarshalMsg appends the message to b as a MessagePack map.
func (z *replayMessage) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, replayMessageFields)
	o = msgp.AppendString(o, "statement_id")
	o = msgp.AppendString(o, z.StatementID)
	o = msgp.AppendString(o, "query")
	o = msgp.AppendString(o, z.Query)
	o = msgp.AppendString(o, "args")
	o, err := z.Args.MarshalMsg(o)
	if err != nil {
		return b, msgp.WrapError(err, "Args")
	}
	o = msgp.AppendString(o, "keyspace")
	o = msgp.AppendString(o, z.Keyspace)
	o = msgp.AppendString(o, "consistency")
	o = msgp.AppendUint16(o, z.Consistency)
	o = msgp.AppendString(o, "routing_token")
	o = msgp.AppendInt64(o, z.RoutingToken)
	o = msgp.AppendString(o, "has_routing_token")
	o = msgp.AppendBool(o, z.HasRoutingToken)
	o = msgp.AppendString(o, "cause")
	o = msgp.AppendUint8(o, z.Cause)
	o = msgp.AppendString(o, "timestamp")
	o = msgp.AppendInt64(o, z.Timestamp)

	return o, nil
}

// UnmarshalMsg decodes a message from bts, returning the remaining bytes.
// Unknown fields are skipped.
func (z *replayMessage) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}

	for ; sz > 0; sz-- {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}

		switch msgp.UnsafeString(field) {
		case "statement_id":
			z.StatementID, bts, err = msgp.ReadStringBytes(bts)
		case "query":
			z.Query, bts, err = msgp.ReadStringBytes(bts)
		case "args":
			bts, err = z.Args.UnmarshalMsg(bts)
		case "keyspace":
			z.Keyspace, bts, err = msgp.ReadStringBytes(bts)
		case "consistency":
			z.Consistency, bts, err = msgp.ReadUint16Bytes(bts)
		case "routing_token":
			z.RoutingToken, bts, err = msgp.ReadInt64Bytes(bts)
		case "has_routing_token":
			z.HasRoutingToken, bts, err = msgp.ReadBoolBytes(bts)
		case "cause":
			z.Cause, bts, err = msgp.ReadUint8Bytes(bts)
		case "timestamp":
			z.Timestamp, bts, err = msgp.ReadInt64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, msgp.WrapError(err, string(field))
		}
	}

	return bts, nil
}

// encodePayload serializes a payload for the wire.
func encodePayload(payload types.ReplayPayload) ([]byte, error) {
	args, err := encodeArgs(payload.Args)
	if err != nil {
		return nil, err
	}

	msg := replayMessage{
		StatementID:     payload.StatementID,
		Query:           payload.Query,
		Args:            args,
		Keyspace:        payload.Keyspace,
		Consistency:     uint16(payload.Consistency),
		RoutingToken:    int64(payload.RoutingToken),
		HasRoutingToken: payload.HasRoutingToken,
		Cause:           uint8(payload.Cause),
		Timestamp:       payload.Timestamp,
	}

	return msg.MarshalMsg(nil)
}

// decodePayload parses a payload produced by encodePayload.
func decodePayload(data []byte) (types.ReplayPayload, error) {
	var msg replayMessage
	if _, err := msg.UnmarshalMsg(data); err != nil {
		return types.ReplayPayload{}, fmt.Errorf("strand: failed to unmarshal replay message: %w", err)
	}

	args, err := decodeArgs(msg.Args)
	if err != nil {
		return types.ReplayPayload{}, err
	}

	return types.ReplayPayload{
		StatementID:     msg.StatementID,
		Query:           msg.Query,
		Args:            args,
		Keyspace:        msg.Keyspace,
		Consistency:     types.Consistency(msg.Consistency),
		RoutingToken:    types.Token(msg.RoutingToken),
		HasRoutingToken: msg.HasRoutingToken,
		Cause:           types.SignalKind(msg.Cause),
		Timestamp:       msg.Timestamp,
	}, nil
}

// encodeArgs encodes []any arguments to msgp.Raw.
//
// msgp doesn't directly support []any, so we use msgp's AppendIntf which
// handles interface{} values by encoding them according to their underlying type.
// 16-byte arrays are encoded as UUID extensions to preserve their type through
// serialization.
//
// Parameters:
//   - args: Slice of arguments to encode
//
// Returns:
//   - msgp.Raw: Encoded arguments as raw MessagePack bytes, nil for no arguments
//   - error: Encoding error if any argument type is not supported
func encodeArgs(args []any) (msgp.Raw, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > int(^uint32(0)) {
		return nil, errors.New("strand: too many arguments to encode")
	}

	//nolint:gosec // overflow checked above
	buf := msgp.AppendArrayHeader(nil, uint32(len(args)))
	for i, arg := range args {
		var err error
		buf, err = appendArg(buf, arg)
		if err != nil {
			return nil, fmt.Errorf("strand: failed to encode argument %d: %w", i, err)
		}
	}

	return buf, nil
}

// appendArg encodes a single argument to the buffer.
func appendArg(buf []byte, arg any) ([]byte, error) {
	if u, ok := toUUID(arg); ok {
		return msgp.AppendExtension(buf, &u)
	}

	return msgp.AppendIntf(buf, arg)
}

// toUUID converts any 16-byte array value, including named types such as
// gocql.UUID and uuid.UUID, to a UUID extension.
func toUUID(arg any) (UUID, bool) {
	switch v := arg.(type) {
	case UUID:
		return v, true
	case *UUID:
		if v != nil {
			return *v, true
		}

		return UUID{}, false
	case nil:
		return UUID{}, false
	}

	rv := reflect.ValueOf(arg)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return UUID{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Array || rv.Len() != UUIDSize || rv.Type().Elem().Kind() != reflect.Uint8 {
		return UUID{}, false
	}

	var u UUID
	for i := range UUIDSize {
		u[i] = byte(rv.Index(i).Uint())
	}

	return u, true
}

// decodeArgs decodes msgp.Raw back to []any arguments.
//
// UUID extensions are returned as []byte, which CQL drivers accept for both
// uuid and blob columns.
//
// Parameters:
//   - raw: Raw MessagePack bytes to decode
//
// Returns:
//   - []any: Decoded arguments
//   - error: Decoding error if the data is malformed
func decodeArgs(raw msgp.Raw) ([]any, error) {
	if len(raw) == 0 || msgp.IsNil(raw) {
		return nil, nil
	}

	sz, buf, err := msgp.ReadArrayHeaderBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("strand: failed to read array header: %w", err)
	}

	args := make([]any, sz)
	for i := range args {
		var val any
		val, buf, err = msgp.ReadIntfBytes(buf)
		if err != nil {
			return nil, fmt.Errorf("strand: failed to decode argument %d: %w", i, err)
		}

		if u, ok := val.(*UUID); ok {
			val = u.Bytes()
		}

		args[i] = val
	}

	return args, nil
}
