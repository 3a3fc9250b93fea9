package types

import (
	"fmt"
	"strings"
)

// Consistency represents the Cassandra consistency level.
type Consistency uint16

// Consistency levels matching gocql wire values.
const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	Serial      Consistency = 0x08
	LocalSerial Consistency = 0x09
	LocalOne    Consistency = 0x0A
)

// consistencyRank places every level on a single total order.
// Index is the wire value, value is the rank.
var consistencyRank = [...]int{
	Any:         0,
	LocalOne:    1,
	One:         2,
	Two:         3,
	Three:       4,
	LocalQuorum: 5,
	Quorum:      6,
	EachQuorum:  7,
	All:         8,
	LocalSerial: 9,
	Serial:      10,
}

var consistencyNames = [...]string{
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	All:         "ALL",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	Serial:      "SERIAL",
	LocalSerial: "LOCAL_SERIAL",
	LocalOne:    "LOCAL_ONE",
}

// downgradeLadder lists the levels with a replica requirement independent of the
// replication factor, highest first.
var downgradeLadder = [...]Consistency{Three, Two, One}

// IsValid reports whether c is one of the known consistency levels.
func (c Consistency) IsValid() bool {
	return int(c) < len(consistencyNames)
}

// String returns the CQL name of the level, e.g. "LOCAL_QUORUM".
func (c Consistency) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("UNKNOWN_CONSISTENCY_%d", uint16(c))
	}

	return consistencyNames[c]
}

// IsLocal reports whether the level is scoped to the local datacenter.
func (c Consistency) IsLocal() bool {
	return c == LocalOne || c == LocalQuorum || c == LocalSerial
}

// IsSerial reports whether the level is a serial (Paxos) level.
func (c Consistency) IsSerial() bool {
	return c == Serial || c == LocalSerial
}

// Less reports whether c is strictly weaker than other.
func (c Consistency) Less(other Consistency) bool {
	return Compare(c, other) < 0
}

// Compare orders consistency levels.
//
// The order is ANY < LOCAL_ONE < ONE < TWO < THREE < LOCAL_QUORUM < QUORUM <
// EACH_QUORUM < ALL < LOCAL_SERIAL < SERIAL.
//
// Parameters:
//   - a: First level
//   - b: Second level
//
// Returns:
//   - int: -1 if a < b, 0 if equal, 1 if a > b
//
// Compare panics when given a level outside the enumeration; such values can only
// come from a programming error since ParseConsistency rejects them.
func Compare(a, b Consistency) int {
	ra, rb := rank(a), rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

func rank(c Consistency) int {
	if !c.IsValid() {
		panic("strand: invalid consistency level " + c.String())
	}

	return consistencyRank[c]
}

// RequiredReplicas returns how many replicas must participate to satisfy the level
// for a keyspace with the given replication factor.
//
// Parameters:
//   - rf: Replication factor (per datacenter for the LOCAL and EACH variants)
//
// Returns:
//   - int: Number of replicas required
func (c Consistency) RequiredReplicas(rf int) int {
	switch c {
	case Any, One, LocalOne:
		return 1
	case Two:
		return 2
	case Three:
		return 3
	case Quorum, LocalQuorum, EachQuorum, Serial, LocalSerial:
		return rf/2 + 1
	case All:
		return rf
	}

	panic("strand: invalid consistency level " + c.String())
}

// HighestAchievable returns the highest consistency level that exactly the given
// number of replicas can satisfy regardless of replication factor.
//
// Parameters:
//   - replicas: Number of live or responding replicas
//
// Returns:
//   - Consistency: THREE, TWO or ONE
//   - bool: false when replicas < 1
func HighestAchievable(replicas int) (Consistency, bool) {
	for _, c := range downgradeLadder {
		if c.RequiredReplicas(replicas) <= replicas {
			return c, true
		}
	}

	return Any, false
}

// ParseConsistency parses a level name such as "QUORUM", "local_one" or "LocalQuorum".
//
// Returns:
//   - Consistency: The parsed level
//   - error: ErrInvalidConsistency for unknown names
func ParseConsistency(s string) (Consistency, error) {
	want := normalizeName(s)
	for i, name := range consistencyNames {
		if normalizeName(name) == want {
			return Consistency(i), nil
		}
	}

	return Any, fmt.Errorf("%w: %q", ErrInvalidConsistency, s)
}

// MustConsistency is like ParseConsistency but panics on unknown names.
func MustConsistency(s string) Consistency {
	c, err := ParseConsistency(s)
	if err != nil {
		panic(err)
	}

	return c
}

// MarshalText implements encoding.TextMarshaler.
func (c Consistency) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConsistency, uint16(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Consistency) UnmarshalText(text []byte) error {
	parsed, err := ParseConsistency(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "_", "")
}
