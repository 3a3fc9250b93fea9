package strand

import (
	"time"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/internal/metrics"
	"github.com/arloliu/strand/policy"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// Config holds configuration for an Executor.
type Config struct {
	RetryPolicy        types.RetryPolicy
	DefaultConsistency types.Consistency
	ErrorClassifier    ErrorClassifier
	TopologyWatcher    TopologyWatcher
	Metrics            MetricsCollector
	Logger             types.Logger
	LogDecisions       bool
	Replayer           Replayer
	ReplayTimeout      time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
//
// Defaults:
//   - RetryPolicy: policy.Default (retry once on transient failures)
//   - DefaultConsistency: LOCAL_ONE, used by statements without a consistency
//   - ErrorClassifier: nil (types.Classify handles typed signals)
//   - Replayer: nil (failed statements are not parked)
//   - ReplayTimeout: 5s
//
// Returns:
//   - *Config: Configuration with default settings
func DefaultConfig() *Config {
	return &Config{
		RetryPolicy:        policy.NewDefault(),
		DefaultConsistency: types.LocalOne,
		Metrics:            metrics.NewNopMetrics(),
		Logger:             logging.NewNopLogger(),
		ReplayTimeout:      5 * time.Second,
	}
}

// Option configures a Config.
type Option func(*Config)

// WithRetryPolicy sets the retry policy.
//
// Parameters:
//   - p: The retry policy to use (e.g., policy.NewDowngradingConsistency())
//
// Returns:
//   - Option: Configuration option
func WithRetryPolicy(p types.RetryPolicy) Option {
	return func(c *Config) {
		c.RetryPolicy = p
	}
}

// WithDefaultConsistency sets the consistency of statements that do not request one.
//
// Parameters:
//   - cl: The default consistency level
//
// Returns:
//   - Option: Configuration option
func WithDefaultConsistency(cl types.Consistency) Option {
	return func(c *Config) {
		c.DefaultConsistency = cl
	}
}

// WithErrorClassifier sets a classifier for raw transport errors.
//
// Use the ClassifyError function of adapter/cql/v1 or adapter/cql/v2 to map
// gocql errors to failure signals.
//
// Parameters:
//   - classifier: The classifier, consulted before types.Classify
//
// Returns:
//   - Option: Configuration option
func WithErrorClassifier(classifier ErrorClassifier) Option {
	return func(c *Config) {
		c.ErrorClassifier = classifier
	}
}

// WithTopologyWatcher sets the source of cluster metadata snapshots.
//
// Parameters:
//   - watcher: The topology watcher implementation
//
// Returns:
//   - Option: Configuration option
func WithTopologyWatcher(watcher TopologyWatcher) Option {
	return func(c *Config) {
		c.TopologyWatcher = watcher
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	import vmmetrics "github.com/arloliu/strand/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithMetrics(collector),
//	)
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// Use NewZapLogger to plug in a zap logger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithLogger(strand.NewZapLogger(logger)),
//	)
func WithLogger(logger types.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithLogDecisions wraps the retry policy in policy.Logging, which logs every
// retry decision with the configured logger.
//
// Parameters:
//   - enabled: true to log decisions
//
// Returns:
//   - Option: Configuration option
func WithLogDecisions(enabled bool) Option {
	return func(c *Config) {
		c.LogDecisions = enabled
	}
}

// WithReplayer parks failed idempotent statements for deferred execution.
//
// When an idempotent statement fails with an unavailable, timeout or
// no-host-available signal, the executor enqueues a types.ReplayPayload before
// returning the Failed outcome. Statements that are not idempotent, cancelled
// executions and fatal transport errors are never parked.
//
// Parameters:
//   - r: The replayer (e.g., replay.NewMemoryReplayer())
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	replayer := replay.NewMemoryReplayer()
//	executor, _ := strand.NewExecutor(selector, transport,
//	    strand.WithReplayer(replayer),
//	)
//	worker := replay.NewMemoryWorker(replayer, executor.Replay)
//	_ = worker.Start()
//	defer worker.Stop()
func WithReplayer(r Replayer) Option {
	return func(c *Config) {
		c.Replayer = r
	}
}

// WithReplayTimeout bounds the time spent enqueuing a failed statement.
//
// Parameters:
//   - d: Enqueue timeout (default: 5s)
//
// Returns:
//   - Option: Configuration option
func WithReplayTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReplayTimeout = d
	}
}

// propagateMetadata pushes a metadata snapshot to the components that support it.
func propagateMetadata(c *Config, selector HostSelector, md *replication.Metadata) {
	// Propagate to host selector
	if aware, ok := selector.(MetadataAware); ok {
		aware.SetMetadata(md)
	}

	// Propagate to retry policy
	if aware, ok := c.RetryPolicy.(MetadataAware); ok {
		aware.SetMetadata(md)
	}

	// Propagate to metrics collector
	if aware, ok := c.Metrics.(MetadataAware); ok {
		aware.SetMetadata(md)
	}
}
