package policy

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// Selector offers candidate hosts for a statement.
//
// It has the same shape as strand.HostSelector, so every selector in this package
// can be passed to strand.NewExecutor, and selectors can wrap each other.
type Selector interface {
	// NextCandidate returns the next host to try, or false when no host remains.
	//
	// Parameters:
	//   - ctx: Context of the statement execution
	//   - stmt: The statement being executed
	//   - tried: Hosts already tried for this statement, in order
	//
	// Returns:
	//   - types.Host: The next candidate
	//   - bool: false when candidates are exhausted
	NextCandidate(ctx context.Context, stmt *types.Statement, tried []types.Host) (types.Host, bool)
}

// metadataAware matches strand.MetadataAware.
type metadataAware interface {
	SetMetadata(md *replication.Metadata)
}

var (
	_ Selector      = (*RoundRobin)(nil)
	_ Selector      = (*DCAwareRoundRobin)(nil)
	_ metadataAware = (*RoundRobin)(nil)
	_ metadataAware = (*DCAwareRoundRobin)(nil)
)

// RoundRobin spreads statements over all hosts, starting each statement at the
// next offset and continuing after the last tried host on retries.
type RoundRobin struct {
	hosts   atomic.Pointer[[]types.Host]
	counter atomic.Uint64
	requery bool
}

// RoundRobinOption configures a RoundRobin selector.
type RoundRobinOption func(*RoundRobin)

// WithRequery makes the selector offer already tried hosts again once every host
// has been tried, instead of reporting exhaustion.
//
// Returns:
//   - RoundRobinOption: Configuration option
func WithRequery() RoundRobinOption {
	return func(r *RoundRobin) {
		r.requery = true
	}
}

// NewRoundRobin creates a RoundRobin selector over a static host list. The list
// is replaced by SetHosts or by cluster metadata pushed through SetMetadata.
//
// Parameters:
//   - hosts: Initial hosts
//   - opts: Optional configuration options
//
// Returns:
//   - *RoundRobin: A new round-robin selector
func NewRoundRobin(hosts []types.Host, opts ...RoundRobinOption) *RoundRobin {
	r := &RoundRobin{}
	r.SetHosts(hosts)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetHosts replaces the host list.
func (r *RoundRobin) SetHosts(hosts []types.Host) {
	copied := make([]types.Host, len(hosts))
	copy(copied, hosts)
	r.hosts.Store(&copied)
}

// Hosts returns the current host list.
func (r *RoundRobin) Hosts() []types.Host {
	return *r.hosts.Load()
}

// SetMetadata replaces the host list with the hosts of the metadata's ring.
func (r *RoundRobin) SetMetadata(md *replication.Metadata) {
	if md == nil || md.Ring == nil || md.Ring.Len() == 0 {
		return
	}
	r.SetHosts(md.Ring.Hosts())
}

// NextCandidate implements Selector.
func (r *RoundRobin) NextCandidate(_ context.Context, _ *types.Statement, tried []types.Host) (types.Host, bool) {
	hosts := *r.hosts.Load()
	if len(hosts) == 0 {
		return types.Host{}, false
	}

	start := r.startOffset(hosts, tried)
	if h, ok := firstUntried(hosts, start, triedSet(tried)); ok {
		return h, true
	}
	if r.requery {
		return hosts[start%len(hosts)], true
	}

	return types.Host{}, false
}

func (r *RoundRobin) startOffset(hosts []types.Host, tried []types.Host) int {
	if len(tried) > 0 {
		if i := indexOf(hosts, tried[len(tried)-1]); i >= 0 {
			return i + 1
		}
	}

	return int(r.counter.Add(1)-1) % len(hosts)
}

// DCAwareRoundRobin prefers hosts of the local datacenter and only offers remote
// hosts, if enabled, once every local host has been tried.
type DCAwareRoundRobin struct {
	localDC       string
	allowRemote   bool
	local         atomic.Pointer[[]types.Host]
	remote        atomic.Pointer[[]types.Host]
	localCounter  atomic.Uint64
	remoteCounter atomic.Uint64
}

// DCAwareOption configures a DCAwareRoundRobin selector.
type DCAwareOption func(*DCAwareRoundRobin)

// WithRemoteFallback allows hosts of other datacenters after the local ones.
//
// Returns:
//   - DCAwareOption: Configuration option
func WithRemoteFallback() DCAwareOption {
	return func(d *DCAwareRoundRobin) {
		d.allowRemote = true
	}
}

// NewDCAwareRoundRobin creates a datacenter-aware selector.
//
// Parameters:
//   - localDC: Name of the local datacenter
//   - hosts: Initial hosts of all datacenters
//   - opts: Optional configuration options
//
// Returns:
//   - *DCAwareRoundRobin: A new selector
func NewDCAwareRoundRobin(localDC string, hosts []types.Host, opts ...DCAwareOption) *DCAwareRoundRobin {
	d := &DCAwareRoundRobin{localDC: localDC}
	d.SetHosts(hosts)
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// LocalDC returns the local datacenter name.
func (d *DCAwareRoundRobin) LocalDC() string {
	return d.localDC
}

// SetHosts replaces the host lists.
func (d *DCAwareRoundRobin) SetHosts(hosts []types.Host) {
	local, remote := splitByDataCenter(hosts, d.localDC)
	d.local.Store(&local)
	d.remote.Store(&remote)
}

// SetMetadata replaces the host lists with the hosts of the metadata's ring.
func (d *DCAwareRoundRobin) SetMetadata(md *replication.Metadata) {
	if md == nil || md.Ring == nil || md.Ring.Len() == 0 {
		return
	}
	d.SetHosts(md.Ring.Hosts())
}

// NextCandidate implements Selector.
func (d *DCAwareRoundRobin) NextCandidate(_ context.Context, _ *types.Statement, tried []types.Host) (types.Host, bool) {
	seen := triedSet(tried)

	local := *d.local.Load()
	if len(local) > 0 {
		if h, ok := firstUntried(local, d.offset(local, tried, &d.localCounter), seen); ok {
			return h, true
		}
	}

	if !d.allowRemote {
		return types.Host{}, false
	}

	remote := *d.remote.Load()
	if len(remote) == 0 {
		return types.Host{}, false
	}

	return firstUntried(remote, d.offset(remote, tried, &d.remoteCounter), seen)
}

func (d *DCAwareRoundRobin) offset(hosts []types.Host, tried []types.Host, counter *atomic.Uint64) int {
	if len(tried) > 0 {
		if i := indexOf(hosts, tried[len(tried)-1]); i >= 0 {
			return i + 1
		}
	}

	return int(counter.Add(1)-1) % len(hosts)
}

func splitByDataCenter(hosts []types.Host, dc string) (local, remote []types.Host) {
	local = make([]types.Host, 0, len(hosts))
	remote = make([]types.Host, 0, len(hosts))
	for _, h := range hosts {
		if h.DataCenter == dc {
			local = append(local, h)
		} else {
			remote = append(remote, h)
		}
	}

	return local, remote
}

func triedSet(tried []types.Host) map[string]struct{} {
	set := make(map[string]struct{}, len(tried))
	for _, h := range tried {
		set[h.Address] = struct{}{}
	}

	return set
}

func firstUntried(hosts []types.Host, start int, tried map[string]struct{}) (types.Host, bool) {
	n := len(hosts)
	for i := 0; i < n; i++ {
		h := hosts[(start+i)%n]
		if _, ok := tried[h.Address]; !ok {
			return h, true
		}
	}

	return types.Host{}, false
}

func indexOf(hosts []types.Host, h types.Host) int {
	for i := range hosts {
		if hosts[i].Address == h.Address {
			return i
		}
	}

	return -1
}
