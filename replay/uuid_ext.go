package replay

import (
	"github.com/google/uuid"
	"github.com/tinylib/msgp/msgp"
)

// UUIDExtensionType is the MessagePack extension type for UUIDs.
// Types 3, 4, 5 are used by msgp for complex64, complex128, and time.Time.
const UUIDExtensionType int8 = 10

// UUIDSize is the fixed size of a UUID (16 bytes).
const UUIDSize = 16

func init() {
	msgp.RegisterExtension(UUIDExtensionType, func() msgp.Extension {
		return new(UUID)
	})
}

// UUID carries a 16-byte UUID through MessagePack as an extension.
//
// Bound values of any 16-byte array type (gocql.UUID, uuid.UUID) are converted
// to UUID when a payload is encoded, and decoded back as []byte.
type UUID [UUIDSize]byte

var _ msgp.Extension = (*UUID)(nil)

// ExtensionType returns the MessagePack extension type for UUID.
func (u *UUID) ExtensionType() int8 {
	return UUIDExtensionType
}

// Len returns the encoded length of a UUID (always 16 bytes).
func (u *UUID) Len() int {
	return UUIDSize
}

// MarshalBinaryTo copies the UUID bytes into the destination buffer.
//
// Parameters:
//   - b: Destination buffer (must be at least 16 bytes)
//
// Returns:
//   - error: nil (never fails for valid input)
func (u *UUID) MarshalBinaryTo(b []byte) error {
	copy(b, u[:])

	return nil
}

// UnmarshalBinary copies bytes from the source buffer into the UUID.
//
// Parameters:
//   - b: Source buffer containing 16 bytes of UUID data
//
// Returns:
//   - error: nil (never fails for valid input)
func (u *UUID) UnmarshalBinary(b []byte) error {
	copy(u[:], b)

	return nil
}

// Bytes returns the UUID as a byte slice.
func (u *UUID) Bytes() []byte {
	return u[:]
}

// String returns the UUID in standard hyphenated format.
func (u *UUID) String() string {
	return uuid.UUID(*u).String()
}

// UUIDFromBytes creates a UUID from a byte slice.
//
// Parameters:
//   - b: Byte slice (must be exactly 16 bytes)
//
// Returns:
//   - UUID: The UUID value
//   - bool: true if conversion succeeded, false if b is wrong size
func UUIDFromBytes(b []byte) (UUID, bool) {
	var u UUID
	if len(b) != UUIDSize {
		return u, false
	}

	copy(u[:], b)

	return u, true
}
