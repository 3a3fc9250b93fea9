package replication

import (
	"sort"

	"github.com/arloliu/strand/types"
)

// Entry is a single (token, owner) pair on the ring.
type Entry struct {
	Token types.Token
	Host  types.Host
}

// Ring is an immutable, token-ordered view of the cluster.
//
// A host owns every token in (previous entry, its entry]; the ring wraps from the
// largest token back to the smallest. Ring values are never modified after
// NewRing returns, so they can be shared by concurrent readers without locking.
type Ring struct {
	entries []Entry
	hosts   []types.Host
	dcs     []string
	dcHosts map[string]int
	dcRacks map[string]int
}

// NewRing builds a ring from unordered entries.
//
// Entries are sorted by token; equal tokens are ordered by host address so that
// repeated builds from the same input are identical.
//
// Parameters:
//   - entries: Token ownership entries, copied by the ring
//
// Returns:
//   - *Ring: A new immutable ring
func NewRing(entries []Entry) *Ring {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Token != sorted[j].Token {
			return sorted[i].Token < sorted[j].Token
		}

		return sorted[i].Host.Address < sorted[j].Host.Address
	})

	r := &Ring{
		entries: sorted,
		dcHosts: make(map[string]int),
		dcRacks: make(map[string]int),
	}

	seenHost := make(map[string]struct{})
	seenRack := make(map[string]map[string]struct{})
	for _, e := range sorted {
		if _, ok := seenHost[e.Host.Address]; ok {
			continue
		}
		seenHost[e.Host.Address] = struct{}{}
		r.hosts = append(r.hosts, e.Host)

		dc := e.Host.DataCenter
		if _, ok := seenRack[dc]; !ok {
			seenRack[dc] = make(map[string]struct{})
			r.dcs = append(r.dcs, dc)
		}
		r.dcHosts[dc]++
		seenRack[dc][e.Host.Rack] = struct{}{}
	}
	for dc, racks := range seenRack {
		r.dcRacks[dc] = len(racks)
	}
	sort.Strings(r.dcs)

	return r
}

// Len returns the number of entries (tokens) on the ring.
func (r *Ring) Len() int {
	return len(r.entries)
}

// Entry returns the i-th entry in token order.
func (r *Ring) Entry(i int) Entry {
	return r.entries[i]
}

// Lookup returns the index of the entry owning the token: the first entry whose
// token is greater than or equal to t, wrapping to 0 past the largest token.
// It returns -1 for an empty ring.
func (r *Ring) Lookup(t types.Token) int {
	if len(r.entries) == 0 {
		return -1
	}

	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Token >= t
	})
	if i == len(r.entries) {
		return 0
	}

	return i
}

// Owner returns the host owning the token.
func (r *Ring) Owner(t types.Token) (types.Host, bool) {
	i := r.Lookup(t)
	if i < 0 {
		return types.Host{}, false
	}

	return r.entries[i].Host, true
}

// Hosts returns the distinct hosts in order of their first token.
func (r *Ring) Hosts() []types.Host {
	out := make([]types.Host, len(r.hosts))
	copy(out, r.hosts)

	return out
}

// DataCenters returns the datacenter names present on the ring, sorted.
func (r *Ring) DataCenters() []string {
	out := make([]string, len(r.dcs))
	copy(out, r.dcs)

	return out
}

// HostsIn returns the number of distinct hosts in a datacenter.
func (r *Ring) HostsIn(dc string) int {
	return r.dcHosts[dc]
}

// RacksIn returns the number of distinct racks in a datacenter.
func (r *Ring) RacksIn(dc string) int {
	return r.dcRacks[dc]
}
