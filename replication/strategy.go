package replication

import (
	"sort"
	"strings"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/types"
)

// Strategy computes the replicas of a token.
//
// Implementations are immutable and safe for concurrent use. They read the ring
// passed to each call and keep no state between calls.
type Strategy interface {
	// Name returns the short strategy class name.
	Name() string

	// Replicas returns the ordered, distinct replicas of the token.
	//
	// Parameters:
	//   - ring: The ring snapshot to walk
	//   - token: The token to place
	//
	// Returns:
	//   - []types.Host: Replicas, primary first; empty for an empty ring
	Replicas(ring *Ring, token types.Token) []types.Host

	// ReplicationFactor returns the configured factor for a datacenter, or the
	// total factor across datacenters when dc is empty.
	ReplicationFactor(ring *Ring, dc string) int
}

var (
	_ Strategy = (*SimpleStrategy)(nil)
	_ Strategy = (*NetworkTopologyStrategy)(nil)
	_ Strategy = (*LocalStrategy)(nil)
	_ Strategy = (*EverywhereStrategy)(nil)
)

// Resolve returns the strategy for a class name and its options.
//
// Class names match case-insensitively, with or without the
// org.apache.cassandra.locator prefix. Resolution never fails hard: an unknown
// class or a SimpleStrategy without a numeric replication_factor logs a diagnostic
// and returns false, so that topology refresh keeps working for other keyspaces.
//
// Parameters:
//   - class: Strategy class name
//   - options: Strategy options
//   - logger: Logger for diagnostics (nil discards them)
//
// Returns:
//   - Strategy: The resolved strategy, nil when not resolvable
//   - bool: true if a strategy was resolved
func Resolve(class string, options map[string]string, logger types.Logger) (Strategy, bool) {
	logger = logging.OrNop(logger)
	short := shortClass(class)
	cfg := Config{Class: class, Options: options}

	switch {
	case strings.EqualFold(short, SimpleStrategyClass):
		rf, ok := cfg.factor(ReplicationFactorOption)
		if !ok {
			logger.Warn("SimpleStrategy without a valid replication_factor, token ownership unknown",
				"class", class,
				"replication_factor", options[ReplicationFactorOption],
			)

			return nil, false
		}

		return NewSimpleStrategy(rf), true

	case strings.EqualFold(short, NetworkTopologyStrategyClass):
		factors := make(map[string]int, len(options))
		defaultFactor := 0
		for name, raw := range options {
			if name == classOption {
				continue
			}
			n, ok := parseFactor(raw)
			if !ok {
				logger.Warn("ignoring non-numeric datacenter replication factor",
					"class", class,
					"datacenter", name,
					"value", raw,
				)

				continue
			}
			if name == ReplicationFactorOption {
				defaultFactor = n
				continue
			}
			factors[name] = n
		}

		return newNetworkTopologyStrategy(factors, defaultFactor), true

	case strings.EqualFold(short, LocalStrategyClass):
		return &LocalStrategy{}, true

	case strings.EqualFold(short, EverywhereStrategyClass):
		return &EverywhereStrategy{}, true
	}

	logger.Info("replication strategy class name not recognized", "class", class)

	return nil, false
}

// ResolveConfig is Resolve for a Config value.
func ResolveConfig(cfg Config, logger types.Logger) (Strategy, bool) {
	return Resolve(cfg.Class, cfg.Options, logger)
}

// ComputeReplicas resolves the configuration and places the token in one call.
//
// Ownership is computed fresh on every call; caching is left to the caller.
//
// Returns:
//   - []types.Host: The replicas
//   - bool: false when the strategy could not be resolved
func ComputeReplicas(ring *Ring, cfg Config, token types.Token, logger types.Logger) ([]types.Host, bool) {
	strategy, ok := ResolveConfig(cfg, logger)
	if !ok {
		return nil, false
	}

	return strategy.Replicas(ring, token), true
}

// SimpleStrategy places replicas on the next distinct hosts clockwise, ignoring
// datacenters and racks.
type SimpleStrategy struct {
	factor int
}

// NewSimpleStrategy creates a SimpleStrategy with the given replication factor.
func NewSimpleStrategy(replicationFactor int) *SimpleStrategy {
	return &SimpleStrategy{factor: replicationFactor}
}

// Name implements Strategy.
func (s *SimpleStrategy) Name() string { return SimpleStrategyClass }

// ReplicationFactor implements Strategy. The factor is the same for every datacenter.
func (s *SimpleStrategy) ReplicationFactor(_ *Ring, _ string) int { return s.factor }

// Replicas walks clockwise from the token's owner collecting distinct hosts until
// the replication factor is reached or the ring is exhausted.
func (s *SimpleStrategy) Replicas(ring *Ring, token types.Token) []types.Host {
	start := ring.Lookup(token)
	if start < 0 || s.factor <= 0 {
		return nil
	}

	n := ring.Len()
	want := min(s.factor, len(ring.hosts))
	replicas := make([]types.Host, 0, want)
	seen := make(map[string]struct{}, want)

	for i := 0; i < n && len(replicas) < want; i++ {
		h := ring.entries[(start+i)%n].Host
		if _, ok := seen[h.Address]; ok {
			continue
		}
		seen[h.Address] = struct{}{}
		replicas = append(replicas, h)
	}

	return replicas
}

// NetworkTopologyStrategy places replicas per datacenter, spreading them over
// distinct racks before reusing a rack.
type NetworkTopologyStrategy struct {
	factors       map[string]int
	defaultFactor int
}

// NewNetworkTopologyStrategy creates a strategy from per-datacenter factors.
func NewNetworkTopologyStrategy(factors map[string]int) *NetworkTopologyStrategy {
	return newNetworkTopologyStrategy(factors, 0)
}

func newNetworkTopologyStrategy(factors map[string]int, defaultFactor int) *NetworkTopologyStrategy {
	copied := make(map[string]int, len(factors))
	for dc, n := range factors {
		copied[dc] = n
	}

	return &NetworkTopologyStrategy{factors: copied, defaultFactor: defaultFactor}
}

// Name implements Strategy.
func (s *NetworkTopologyStrategy) Name() string { return NetworkTopologyStrategyClass }

// ReplicationFactor implements Strategy.
func (s *NetworkTopologyStrategy) ReplicationFactor(ring *Ring, dc string) int {
	if dc != "" {
		return s.factorFor(dc)
	}

	total := 0
	for _, name := range s.dataCenters(ring) {
		total += s.factorFor(name)
	}

	return total
}

func (s *NetworkTopologyStrategy) factorFor(dc string) int {
	if n, ok := s.factors[dc]; ok {
		return n
	}

	return s.defaultFactor
}

// dataCenters returns the datacenters to place replicas in, sorted by name.
// A replication_factor shortcut applies to every datacenter on the ring.
func (s *NetworkTopologyStrategy) dataCenters(ring *Ring) []string {
	set := make(map[string]struct{}, len(s.factors))
	for dc := range s.factors {
		set[dc] = struct{}{}
	}
	if s.defaultFactor > 0 && ring != nil {
		for _, dc := range ring.dcs {
			set[dc] = struct{}{}
		}
	}

	dcs := make([]string, 0, len(set))
	for dc := range set {
		dcs = append(dcs, dc)
	}
	sort.Strings(dcs)

	return dcs
}

// Replicas returns the union of the per-datacenter replica sets, datacenters in
// name order.
func (s *NetworkTopologyStrategy) Replicas(ring *Ring, token types.Token) []types.Host {
	start := ring.Lookup(token)
	if start < 0 {
		return nil
	}

	var replicas []types.Host
	for _, dc := range s.dataCenters(ring) {
		want := min(s.factorFor(dc), ring.HostsIn(dc))
		if want <= 0 {
			continue
		}
		replicas = append(replicas, placeInDataCenter(ring, start, dc, want)...)
	}

	return replicas
}

// placeInDataCenter walks the ring from start, taking hosts of dc from racks not yet
// used. Hosts on an already used rack are kept aside and consumed, in ring order,
// once every rack of the datacenter holds a replica.
func placeInDataCenter(ring *Ring, start int, dc string, want int) []types.Host {
	n := ring.Len()
	rackCount := ring.RacksIn(dc)
	replicas := make([]types.Host, 0, want)
	seen := make(map[string]struct{}, want)
	usedRacks := make(map[string]struct{}, rackCount)
	var skipped []types.Host

	for i := 0; i < n && len(replicas) < want; i++ {
		h := ring.entries[(start+i)%n].Host
		if h.DataCenter != dc {
			continue
		}
		if _, ok := seen[h.Address]; ok {
			continue
		}
		seen[h.Address] = struct{}{}

		if _, used := usedRacks[h.Rack]; !used {
			replicas = append(replicas, h)
			usedRacks[h.Rack] = struct{}{}
			if len(usedRacks) == rackCount {
				for len(skipped) > 0 && len(replicas) < want {
					replicas = append(replicas, skipped[0])
					skipped = skipped[1:]
				}
			}

			continue
		}

		if len(usedRacks) == rackCount {
			replicas = append(replicas, h)
		} else {
			skipped = append(skipped, h)
		}
	}

	for len(skipped) > 0 && len(replicas) < want {
		replicas = append(replicas, skipped[0])
		skipped = skipped[1:]
	}

	return replicas
}

// LocalStrategy keeps data on the owning node only (system keyspaces).
type LocalStrategy struct{}

// Name implements Strategy.
func (s *LocalStrategy) Name() string { return LocalStrategyClass }

// ReplicationFactor implements Strategy.
func (s *LocalStrategy) ReplicationFactor(_ *Ring, _ string) int { return 1 }

// Replicas returns the token's owner.
func (s *LocalStrategy) Replicas(ring *Ring, token types.Token) []types.Host {
	owner, ok := ring.Owner(token)
	if !ok {
		return nil
	}

	return []types.Host{owner}
}

// EverywhereStrategy replicates to every host of the ring.
type EverywhereStrategy struct{}

// Name implements Strategy.
func (s *EverywhereStrategy) Name() string { return EverywhereStrategyClass }

// ReplicationFactor implements Strategy.
func (s *EverywhereStrategy) ReplicationFactor(ring *Ring, dc string) int {
	if dc == "" {
		return len(ring.hosts)
	}

	return ring.HostsIn(dc)
}

// Replicas returns every host, starting at the token's owner.
func (s *EverywhereStrategy) Replicas(ring *Ring, token types.Token) []types.Host {
	return NewSimpleStrategy(len(ring.hosts)).Replicas(ring, token)
}
