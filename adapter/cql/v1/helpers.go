package v1

import (
	"github.com/gocql/gocql"

	"github.com/arloliu/strand/types"
)

// ToGocqlConsistency converts a strand Consistency to gocql.Consistency.
//
// Example:
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Consistency = v1.ToGocqlConsistency(types.Quorum)
func ToGocqlConsistency(c types.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to strand Consistency.
func FromGocqlConsistency(c gocql.Consistency) types.Consistency {
	return types.Consistency(c)
}

// ToGocqlSerialConsistency converts a strand Consistency to gocql.SerialConsistency.
//
// Parameters:
//   - c: Consistency level (should be Serial or LocalSerial)
//
// Returns:
//   - gocql.SerialConsistency: The equivalent gocql serial consistency level
func ToGocqlSerialConsistency(c types.Consistency) gocql.SerialConsistency {
	return gocql.SerialConsistency(c)
}
