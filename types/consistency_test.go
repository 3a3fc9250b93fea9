package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allLevels = []Consistency{
	Any, One, Two, Three, Quorum, All, LocalQuorum, EachQuorum, Serial, LocalSerial, LocalOne,
}

func TestConsistencyString(t *testing.T) {
	assert.Equal(t, "LOCAL_QUORUM", LocalQuorum.String())
	assert.Equal(t, "ANY", Any.String())
	assert.Equal(t, "UNKNOWN_CONSISTENCY_66", Consistency(0x42).String())
	assert.False(t, Consistency(0x42).IsValid())
}

func TestConsistencyTotalOrder(t *testing.T) {
	ordered := []Consistency{
		Any, LocalOne, One, Two, Three, LocalQuorum, Quorum, EachQuorum, All, LocalSerial, Serial,
	}

	for i := range ordered {
		for j := range ordered {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			assert.Equal(t, want, Compare(ordered[i], ordered[j]), "%s vs %s", ordered[i], ordered[j])
		}
	}

	assert.True(t, One.Less(Quorum))
	assert.False(t, Quorum.Less(Quorum))
}

func TestCompareInvalidPanics(t *testing.T) {
	assert.Panics(t, func() { Compare(Consistency(0x42), One) })
}

func TestConsistencyClassification(t *testing.T) {
	for _, c := range allLevels {
		assert.Equal(t, c == LocalOne || c == LocalQuorum || c == LocalSerial, c.IsLocal(), c.String())
		assert.Equal(t, c == Serial || c == LocalSerial, c.IsSerial(), c.String())
	}
}

func TestRequiredReplicas(t *testing.T) {
	tests := []struct {
		level Consistency
		rf    int
		want  int
	}{
		{Any, 3, 1},
		{One, 3, 1},
		{LocalOne, 3, 1},
		{Two, 3, 2},
		{Three, 5, 3},
		{Quorum, 3, 2},
		{Quorum, 4, 3},
		{LocalQuorum, 5, 3},
		{EachQuorum, 1, 1},
		{Serial, 3, 2},
		{All, 3, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.RequiredReplicas(tt.rf), "%s rf=%d", tt.level, tt.rf)
	}
}

func TestHighestAchievable(t *testing.T) {
	c, ok := HighestAchievable(5)
	require.True(t, ok)
	assert.Equal(t, Three, c)

	c, ok = HighestAchievable(2)
	require.True(t, ok)
	assert.Equal(t, Two, c)

	c, ok = HighestAchievable(1)
	require.True(t, ok)
	assert.Equal(t, One, c)

	_, ok = HighestAchievable(0)
	assert.False(t, ok)
}

func TestParseConsistency(t *testing.T) {
	for _, c := range allLevels {
		parsed, err := ParseConsistency(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	parsed, err := ParseConsistency(" local_one ")
	require.NoError(t, err)
	assert.Equal(t, LocalOne, parsed)

	parsed, err = ParseConsistency("LocalQuorum")
	require.NoError(t, err)
	assert.Equal(t, LocalQuorum, parsed)

	_, err = ParseConsistency("MOST")
	require.ErrorIs(t, err, ErrInvalidConsistency)

	assert.Equal(t, Quorum, MustConsistency("quorum"))
	assert.Panics(t, func() { MustConsistency("nope") })
}

func TestConsistencyTextEncoding(t *testing.T) {
	type doc struct {
		Level Consistency `json:"level"`
	}

	data, err := json.Marshal(doc{Level: EachQuorum})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"EACH_QUORUM"}`, string(data))

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"level":"local_serial"}`), &d))
	assert.Equal(t, LocalSerial, d.Level)

	require.Error(t, json.Unmarshal([]byte(`{"level":"bogus"}`), &d))

	_, err = Consistency(0x42).MarshalText()
	require.ErrorIs(t, err, ErrInvalidConsistency)
}
