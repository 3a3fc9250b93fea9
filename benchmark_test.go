package strand_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/policy"
	"github.com/arloliu/strand/replay"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// =============================================================================
// Benchmark Infrastructure
// =============================================================================

// okTransport answers every dispatch with a shared empty result.
// It measures only executor overhead, not actual database operations.
type okTransport struct {
	count  atomic.Int64
	result types.Result
}

func (t *okTransport) Dispatch(_ context.Context, _ types.Host, _ *types.Statement, _ types.Consistency) (*types.Result, error) {
	t.count.Add(1)

	return &t.result, nil
}

// quorumUnavailableTransport fails every attempt above ONE with an unavailable error.
type quorumUnavailableTransport struct{}

func (quorumUnavailableTransport) Dispatch(_ context.Context, _ types.Host, _ *types.Statement, cl types.Consistency) (*types.Result, error) {
	if cl != types.One {
		return nil, &types.UnavailableError{Consistency: cl, Required: 2, Alive: 1}
	}

	return &types.Result{}, nil
}

// failingTransport fails every attempt with a write timeout.
type failingTransport struct{}

func (failingTransport) Dispatch(_ context.Context, _ types.Host, _ *types.Statement, cl types.Consistency) (*types.Result, error) {
	return nil, &types.WriteTimeoutError{Consistency: cl, WriteType: types.WriteSimple, Required: 2}
}

// countingReplayer measures replay enqueue overhead without actual queueing.
type countingReplayer struct {
	count atomic.Int64
}

func (r *countingReplayer) Enqueue(_ context.Context, _ types.ReplayPayload) error {
	r.count.Add(1)

	return nil
}

// benchMetadata builds a three-datacenter ring with 16 tokens per host.
func benchMetadata(hostsPerDC int) *replication.Metadata {
	var entries []replication.Entry
	dcs := []string{"dc1", "dc2", "dc3"}
	step := int64(1) << 50
	for d, dc := range dcs {
		for h := range hostsPerDC {
			host := types.Host{
				Address:    fmt.Sprintf("10.%d.0.%d:9042", d, h),
				DataCenter: dc,
				Rack:       fmt.Sprintf("r%d", h%3),
			}
			for v := range 16 {
				tok := types.Token(int64(v*len(dcs)*hostsPerDC+d*hostsPerDC+h)*step - (1 << 62))
				entries = append(entries, replication.Entry{Token: tok, Host: host})
			}
		}
	}

	return replication.NewMetadata(1, replication.NewRing(entries), map[string]replication.Config{
		"app": {
			Class:   replication.NetworkTopologyStrategyClass,
			Options: map[string]string{"dc1": "3", "dc2": "3", "dc3": "2"},
		},
		"simple": {
			Class:   replication.SimpleStrategyClass,
			Options: map[string]string{"replication_factor": "3"},
		},
	})
}

func newBenchExecutor(b *testing.B, transport strand.Transport, opts ...strand.Option) *strand.Executor {
	b.Helper()

	md := benchMetadata(4)
	selector := policy.NewTokenAware(policy.NewDCAwareRoundRobin("dc1", md.Ring.Hosts()), policy.WithLocalDC("dc1"))
	executor, err := strand.NewExecutor(selector, transport, opts...)
	if err != nil {
		b.Fatal(err)
	}
	executor.UpdateMetadata(md)
	b.Cleanup(executor.Close)

	return executor
}

// =============================================================================
// Executor Benchmarks
// =============================================================================

// BenchmarkExecuteSuccess measures the overhead of a first-attempt success.
func BenchmarkExecuteSuccess(b *testing.B) {
	executor := newBenchExecutor(b, &okTransport{})
	ctx := context.Background()
	stmt := strand.NewStatement("INSERT INTO t (id) VALUES (?)", 1).
		WithKeyspace("app").
		WithRoutingToken(12345)

	b.ReportAllocs()

	for b.Loop() {
		_ = executor.Execute(ctx, stmt)
	}
}

// BenchmarkExecuteSuccessParallel measures contention on the shared collaborators.
func BenchmarkExecuteSuccessParallel(b *testing.B) {
	executor := newBenchExecutor(b, &okTransport{})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			i++
			stmt := strand.NewStatement("INSERT INTO t (id) VALUES (?)", i).
				WithKeyspace("app").
				WithRoutingToken(types.Token(i * 7919))
			_ = executor.Execute(ctx, stmt)
		}
	})
}

// BenchmarkExecuteDowngrade measures one unavailable failure followed by a
// downgraded retry.
func BenchmarkExecuteDowngrade(b *testing.B) {
	executor := newBenchExecutor(b, quorumUnavailableTransport{},
		strand.WithRetryPolicy(policy.NewDowngradingConsistency()),
	)
	ctx := context.Background()
	stmt := strand.NewStatement("UPDATE t SET v = ? WHERE id = ?", "x", 1).
		WithKeyspace("app").
		WithRoutingToken(-99).
		WithConsistency(types.Quorum)

	b.ReportAllocs()

	for b.Loop() {
		out := executor.Execute(ctx, stmt)
		if !out.Downgraded() {
			b.Fatal("expected a downgraded outcome")
		}
	}
}

// BenchmarkExecuteFailureWithReplay measures a rethrown failure parked for replay.
func BenchmarkExecuteFailureWithReplay(b *testing.B) {
	replayer := &countingReplayer{}
	executor := newBenchExecutor(b, failingTransport{},
		strand.WithRetryPolicy(&policy.Fallthrough{}),
		strand.WithReplayer(replayer),
	)
	ctx := context.Background()
	stmt := strand.NewStatement("INSERT INTO t (id) VALUES (?)", 1).
		WithKeyspace("app").
		WithIdempotent(true)

	b.ReportAllocs()

	for b.Loop() {
		_ = executor.Execute(ctx, stmt)
	}

	b.StopTimer()
	if replayer.count.Load() == 0 {
		b.Fatal("no statement was parked")
	}
}

// =============================================================================
// Routing Benchmarks
// =============================================================================

// BenchmarkTokenAwareNextCandidate measures replica lookup per candidate.
func BenchmarkTokenAwareNextCandidate(b *testing.B) {
	md := benchMetadata(4)
	selector := policy.NewTokenAware(policy.NewRoundRobin(md.Ring.Hosts()), policy.WithLocalDC("dc1"))
	selector.SetMetadata(md)
	ctx := context.Background()
	stmt := strand.NewStatement("SELECT 1").WithKeyspace("app").WithRoutingToken(4242)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = selector.NextCandidate(ctx, stmt, nil)
	}
}

// BenchmarkNetworkTopologyReplicas measures rack-aware placement.
func BenchmarkNetworkTopologyReplicas(b *testing.B) {
	md := benchMetadata(6)

	b.ReportAllocs()

	var tok types.Token
	for b.Loop() {
		tok += 104729
		_, _ = md.Replicas("app", tok, nil)
	}
}

// BenchmarkSimpleStrategyReplicas measures clockwise placement.
func BenchmarkSimpleStrategyReplicas(b *testing.B) {
	md := benchMetadata(6)

	b.ReportAllocs()

	var tok types.Token
	for b.Loop() {
		tok += 104729
		_, _ = md.Replicas("simple", tok, nil)
	}
}

// BenchmarkRingLookup measures owner lookup on a large ring.
func BenchmarkRingLookup(b *testing.B) {
	ring := benchMetadata(32).Ring

	var tok types.Token
	for b.Loop() {
		tok += 15485863
		_ = ring.Lookup(tok)
	}
}

// =============================================================================
// Classification and Replay Benchmarks
// =============================================================================

// BenchmarkClassify measures classification of a wrapped signal.
func BenchmarkClassify(b *testing.B) {
	err := fmt.Errorf("dispatch: %w", &types.ReadTimeoutError{Consistency: types.Quorum, Required: 2, Received: 1})
	unknown := errors.New("protocol error")

	b.ReportAllocs()

	for b.Loop() {
		_ = types.Classify(err)
		_ = types.Classify(unknown)
	}
}

// BenchmarkReplayPayloadCreation measures capturing a failed statement.
func BenchmarkReplayPayloadCreation(b *testing.B) {
	stmt := strand.NewStatement("INSERT INTO t (id, v) VALUES (?, ?)", 1, "v").
		WithKeyspace("app").
		WithRoutingToken(7)

	b.ReportAllocs()

	for b.Loop() {
		_ = types.NewReplayPayload(stmt, types.Quorum, types.SignalWriteTimeout)
	}
}

// BenchmarkMemoryReplayerEnqueueDequeue measures a queue round trip.
func BenchmarkMemoryReplayerEnqueueDequeue(b *testing.B) {
	replayer := replay.NewMemoryReplayer(replay.WithQueueCapacity(1024))
	defer replayer.Close()

	ctx := context.Background()
	payload := types.NewReplayPayload(strand.NewStatement("INSERT INTO t (id) VALUES (?)", 1), types.One, types.SignalUnavailable)

	b.ReportAllocs()

	for b.Loop() {
		_ = replayer.Enqueue(ctx, payload)
		_, _ = replayer.TryDequeue()
	}
}

// BenchmarkMemoryReplayerEnqueueParallel measures enqueue contention.
func BenchmarkMemoryReplayerEnqueueParallel(b *testing.B) {
	replayer := replay.NewMemoryReplayer(replay.WithQueueCapacity(1 << 20))
	defer replayer.Close()

	ctx := context.Background()
	payload := types.NewReplayPayload(strand.NewStatement("INSERT INTO t (id) VALUES (?)", 1), types.One, types.SignalUnavailable)

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := replayer.Enqueue(ctx, payload); errors.Is(err, types.ErrReplayQueueFull) {
				replayer.DrainAll()
			}
		}
	})
}
