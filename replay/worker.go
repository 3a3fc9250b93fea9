package replay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/internal/metrics"
	"github.com/arloliu/strand/types"
)

// ErrWorkerAlreadyRunning is returned by Start on a running worker.
var ErrWorkerAlreadyRunning = errors.New("strand: worker already running")

// ExecuteFunc executes a parked statement. Executor.Replay has this signature.
// Returns nil on success, error on failure.
type ExecuteFunc func(ctx context.Context, payload types.ReplayPayload) error

// WorkerConfig configures the replay worker.
type WorkerConfig struct {
	// BatchSize is the number of messages to fetch per dequeue operation.
	// Only used by the NATS backend.
	// Default: 100
	BatchSize int

	// PollInterval is the interval between dequeue attempts when the queue is empty.
	// Default: 100ms
	PollInterval time.Duration

	// RetryDelay is the initial delay before retrying a failed replay.
	// Only used by the memory backend; it doubles on every attempt.
	// Default: 100ms
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay between retries.
	// Default: 30 seconds
	MaxRetryDelay time.Duration

	// MaxAttempts is the number of replay attempts before a payload is dropped.
	// Only used by the memory backend; the NATS backend uses the consumer's
	// MaxDeliver.
	// Default: 5
	MaxAttempts int

	// ExecuteTimeout is the timeout for each replay execution.
	// Default: 30 seconds
	ExecuteTimeout time.Duration

	// Metrics is the metrics collector for recording replay statistics.
	// If nil, no metrics are recorded.
	Metrics types.MetricsCollector

	// Logger is the structured logger for replay worker events.
	// If nil, no logs are emitted.
	Logger types.Logger

	// OnSuccess is called after a successful replay (optional).
	OnSuccess func(payload types.ReplayPayload)

	// OnError is called after a failed replay attempt (optional).
	// The error and attempt number are provided.
	OnError func(payload types.ReplayPayload, err error, attempt int)

	// OnDrop is called when a payload exceeds its attempts and is dropped (optional).
	OnDrop func(payload types.ReplayPayload, err error)
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:      100,
		PollInterval:   100 * time.Millisecond,
		RetryDelay:     100 * time.Millisecond,
		MaxRetryDelay:  30 * time.Second,
		MaxAttempts:    5,
		ExecuteTimeout: 30 * time.Second,
	}
}

// WorkerOption configures a Worker.
type WorkerOption func(*WorkerConfig)

// WithBatchSize sets the batch size for dequeue operations.
func WithBatchSize(n int) WorkerOption {
	return func(c *WorkerConfig) {
		c.BatchSize = n
	}
}

// WithPollInterval sets the polling interval when queue is empty.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.PollInterval = d
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.RetryDelay = d
	}
}

// WithMaxRetryDelay sets the maximum retry delay.
func WithMaxRetryDelay(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.MaxRetryDelay = d
	}
}

// WithMaxAttempts sets the number of replay attempts before a payload is dropped.
func WithMaxAttempts(n int) WorkerOption {
	return func(c *WorkerConfig) {
		c.MaxAttempts = n
	}
}

// WithExecuteTimeout sets the execution timeout per replay.
func WithExecuteTimeout(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.ExecuteTimeout = d
	}
}

// WithOnSuccess sets the success callback.
func WithOnSuccess(fn func(types.ReplayPayload)) WorkerOption {
	return func(c *WorkerConfig) {
		c.OnSuccess = fn
	}
}

// WithOnError sets the error callback.
func WithOnError(fn func(types.ReplayPayload, error, int)) WorkerOption {
	return func(c *WorkerConfig) {
		c.OnError = fn
	}
}

// WithOnDrop sets the drop callback.
func WithOnDrop(fn func(types.ReplayPayload, error)) WorkerOption {
	return func(c *WorkerConfig) {
		c.OnDrop = fn
	}
}

// WithWorkerMetrics sets the metrics collector for the worker.
func WithWorkerMetrics(m types.MetricsCollector) WorkerOption {
	return func(c *WorkerConfig) {
		c.Metrics = m
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(l types.Logger) WorkerOption {
	return func(c *WorkerConfig) {
		c.Logger = l
	}
}

// Worker processes parked statements from a queue and re-executes them.
//
// The worker uses a backend strategy pattern to support different queue implementations.
// It manages the lifecycle (Start/Stop) while delegating queue-specific processing to the backend.
type Worker struct {
	config  WorkerConfig
	execute ExecuteFunc
	backend workerBackend
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	stopped atomic.Bool
}

// workerBackend abstracts queue-specific processing logic.
// Users interact with Worker via NewMemoryWorker/NewNATSWorker.
type workerBackend interface {
	// run processes messages until stopCh is closed.
	run()

	// backendType returns a string identifier for debugging/logging.
	backendType() string
}

// newWorker applies options and never-nil defaults.
func newWorker(execute ExecuteFunc, opts []WorkerOption) *Worker {
	config := DefaultWorkerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	return &Worker{
		config:  config,
		execute: execute,
		stopCh:  make(chan struct{}),
	}
}

// Start begins processing parked statements in a background goroutine.
//
// A stopped worker cannot be restarted.
//
// Returns:
//   - error: ErrWorkerAlreadyRunning if already started or stopped
func (w *Worker) Start() error {
	if w.stopped.Load() || !w.running.CompareAndSwap(false, true) {
		return ErrWorkerAlreadyRunning
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.backend.run()
	}()

	return nil
}

// Stop gracefully stops the worker.
//
// It signals the goroutine to stop and waits for the current replay to finish.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	w.stopped.Store(true)
	close(w.stopCh)
	w.wg.Wait()
}

// IsRunning returns whether the worker is currently running.
func (w *Worker) IsRunning() bool {
	return w.running.Load()
}

// BackendType returns the type of backend being used ("memory" or "nats").
func (w *Worker) BackendType() string {
	return w.backend.backendType()
}

// executeOnce runs a single replay attempt with timeout and records its metrics.
func (w *Worker) executeOnce(payload types.ReplayPayload) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.ExecuteTimeout)
	defer cancel()

	start := time.Now()
	err := w.execute(ctx, payload)
	w.config.Metrics.ObserveReplayDuration(time.Since(start).Seconds())

	if err != nil {
		w.config.Metrics.IncReplayError()
		return err
	}

	w.config.Metrics.IncReplaySuccess()
	if w.config.OnSuccess != nil {
		w.config.OnSuccess(payload)
	}

	return nil
}

// drop reports a payload given up on.
func (w *Worker) drop(payload types.ReplayPayload, err error, attempt int) {
	w.config.Metrics.IncReplayDropped()
	w.config.Logger.Error("replay dropped",
		"statement_id", payload.StatementID,
		"cause", payload.Cause.String(),
		"attempt", attempt,
		"error", err,
	)
	if w.config.OnDrop != nil {
		w.config.OnDrop(payload, err)
	}
}

// sleep waits for d or until the worker is stopped.
//
// Returns:
//   - bool: false if the worker was stopped
func (w *Worker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// calculateBackoff calculates the backoff delay with exponential increase.
func calculateBackoff(attempt int, retryDelay, maxRetryDelay time.Duration) time.Duration {
	delay := retryDelay

	// Exponential backoff: delay * 2^(attempt-1)
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}

	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	return delay
}
