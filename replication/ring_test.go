package replication

import (
	"testing"

	"github.com/arloliu/strand/types"
	"github.com/stretchr/testify/require"
)

func host(addr, dc, rack string) types.Host {
	return types.Host{Address: addr, DataCenter: dc, Rack: rack}
}

// fiveNodeRing returns a single-DC ring with tokens 0,100,...,400 owned by h1..h5.
func fiveNodeRing() *Ring {
	return NewRing([]Entry{
		{Token: 300, Host: host("h4", "dc1", "r1")},
		{Token: 0, Host: host("h1", "dc1", "r1")},
		{Token: 400, Host: host("h5", "dc1", "r1")},
		{Token: 100, Host: host("h2", "dc1", "r1")},
		{Token: 200, Host: host("h3", "dc1", "r1")},
	})
}

func TestNewRingSortsByToken(t *testing.T) {
	ring := fiveNodeRing()

	require.Equal(t, 5, ring.Len())
	for i := 1; i < ring.Len(); i++ {
		require.Less(t, ring.Entry(i-1).Token, ring.Entry(i).Token)
	}
	require.Equal(t, "h1", ring.Entry(0).Host.Address)
}

func TestNewRingTieBreakIsDeterministic(t *testing.T) {
	a := NewRing([]Entry{
		{Token: 10, Host: host("b", "dc1", "r1")},
		{Token: 10, Host: host("a", "dc1", "r1")},
	})
	b := NewRing([]Entry{
		{Token: 10, Host: host("a", "dc1", "r1")},
		{Token: 10, Host: host("b", "dc1", "r1")},
	})

	require.Equal(t, a.Entry(0), b.Entry(0))
	require.Equal(t, "a", a.Entry(0).Host.Address)
}

func TestNewRingCopiesInput(t *testing.T) {
	entries := []Entry{{Token: 1, Host: host("h1", "dc1", "r1")}}
	ring := NewRing(entries)
	entries[0].Host.Address = "mutated"

	require.Equal(t, "h1", ring.Entry(0).Host.Address)
}

func TestRingLookup(t *testing.T) {
	ring := fiveNodeRing()

	tests := []struct {
		name  string
		token types.Token
		want  int
	}{
		{"exact match", 200, 2},
		{"between tokens", 150, 2},
		{"below smallest", -50, 0},
		{"above largest wraps", 450, 0},
		{"largest token", 400, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ring.Lookup(tt.token))
		})
	}
}

func TestRingLookupEmpty(t *testing.T) {
	ring := NewRing(nil)

	require.Equal(t, -1, ring.Lookup(42))
	_, ok := ring.Owner(42)
	require.False(t, ok)
	require.Empty(t, ring.Hosts())
}

func TestRingDataCenterCounts(t *testing.T) {
	ring := NewRing([]Entry{
		{Token: 0, Host: host("a1", "dc1", "r1")},
		{Token: 10, Host: host("a2", "dc1", "r2")},
		{Token: 20, Host: host("b1", "dc2", "r1")},
		{Token: 30, Host: host("a1", "dc1", "r1")},
	})

	require.Equal(t, []string{"dc1", "dc2"}, ring.DataCenters())
	require.Equal(t, 2, ring.HostsIn("dc1"))
	require.Equal(t, 1, ring.HostsIn("dc2"))
	require.Equal(t, 2, ring.RacksIn("dc1"))
	require.Equal(t, 0, ring.HostsIn("dc3"))
	require.Len(t, ring.Hosts(), 3)
}
