package v2

import (
	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/strand/types"
)

// ToGocqlConsistency converts a strand Consistency to gocql.Consistency.
//
// Example:
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Consistency = v2.ToGocqlConsistency(types.Quorum)
func ToGocqlConsistency(c types.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to strand Consistency.
func FromGocqlConsistency(c gocql.Consistency) types.Consistency {
	return types.Consistency(c)
}

// ToGocqlSerialConsistency converts a strand Consistency to the gocql level used
// for the serial phase of lightweight transactions. The v2 driver has no separate
// serial consistency type.
//
// Parameters:
//   - c: Consistency level (should be Serial or LocalSerial)
//
// Returns:
//   - gocql.Consistency: The equivalent gocql consistency level
func ToGocqlSerialConsistency(c types.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}
