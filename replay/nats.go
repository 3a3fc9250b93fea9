package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/strand/types"
)

// NATSReplayerConfig configures the NATS JetStream replayer.
type NATSReplayerConfig struct {
	// StreamName is the JetStream stream name for storing parked statements.
	// Default: "strand-replay"
	StreamName string

	// SubjectPrefix is the prefix for subjects. Messages are published to
	// "{SubjectPrefix}.{cause}" (e.g., "strand.replay.write_timeout").
	// Default: "strand.replay"
	SubjectPrefix string

	// ConsumerName is the durable pull consumer shared by workers.
	// Default: "strand-replay-worker"
	ConsumerName string

	// MaxAge is the maximum age of messages in the stream.
	// Default: 24 hours
	MaxAge time.Duration

	// MaxMsgs is the maximum number of messages in the stream.
	// Default: 1,000,000
	MaxMsgs int64

	// MaxBytes is the maximum total size of the stream in bytes.
	// Default: 1GB
	MaxBytes int64

	// Replicas is the number of stream replicas (for fault tolerance).
	// Default: 1 (use 3 for production clusters)
	Replicas int

	// MaxDeliver is the number of delivery attempts before a message is dropped.
	// Default: 5
	MaxDeliver int

	// PublishTimeout is the timeout for publishing messages.
	// Default: 5 seconds
	PublishTimeout time.Duration

	// FetchMaxWait bounds how long Dequeue waits for messages.
	// Default: 1 second
	FetchMaxWait time.Duration
}

// DefaultNATSReplayerConfig returns the default configuration.
func DefaultNATSReplayerConfig() NATSReplayerConfig {
	return NATSReplayerConfig{
		StreamName:     "strand-replay",
		SubjectPrefix:  "strand.replay",
		ConsumerName:   "strand-replay-worker",
		MaxAge:         24 * time.Hour,
		MaxMsgs:        1_000_000,
		MaxBytes:       1 << 30, // 1GB
		Replicas:       1,
		MaxDeliver:     5,
		PublishTimeout: 5 * time.Second,
		FetchMaxWait:   time.Second,
	}
}

// NATSReplayer implements a durable replay queue using NATS JetStream.
//
// Unlike MemoryReplayer, parked statements persisted to JetStream survive
// process crashes and can be processed by workers on other instances.
type NATSReplayer struct {
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	config   NATSReplayerConfig
	closed   bool
	mu       sync.RWMutex
}

// NATSReplayerOption configures a NATSReplayer.
type NATSReplayerOption func(*NATSReplayerConfig)

// WithStreamName sets the JetStream stream name.
func WithStreamName(name string) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.StreamName = name
	}
}

// WithSubjectPrefix sets the subject prefix for replay messages.
func WithSubjectPrefix(prefix string) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.SubjectPrefix = prefix
	}
}

// WithConsumerName sets the durable consumer name.
func WithConsumerName(name string) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.ConsumerName = name
	}
}

// WithMaxAge sets the maximum age of messages in the stream.
func WithMaxAge(d time.Duration) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.MaxAge = d
	}
}

// WithMaxMsgs sets the maximum number of messages in the stream.
func WithMaxMsgs(n int64) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.MaxMsgs = n
	}
}

// WithMaxBytes sets the maximum total size of the stream.
func WithMaxBytes(n int64) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.MaxBytes = n
	}
}

// WithReplicas sets the number of stream replicas.
//
// Parameters:
//   - n: Number of replicas (1 for dev, 3 for production)
//
// Returns:
//   - NATSReplayerOption: Configuration option
func WithReplicas(n int) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.Replicas = n
	}
}

// WithMaxDeliver sets the number of delivery attempts per message.
//
// Parameters:
//   - n: Delivery attempts before the worker drops the message
//
// Returns:
//   - NATSReplayerOption: Configuration option
func WithMaxDeliver(n int) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.MaxDeliver = n
	}
}

// WithPublishTimeout sets the timeout for publishing messages.
func WithPublishTimeout(d time.Duration) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.PublishTimeout = d
	}
}

// WithFetchMaxWait sets how long Dequeue waits for messages.
func WithFetchMaxWait(d time.Duration) NATSReplayerOption {
	return func(c *NATSReplayerConfig) {
		c.FetchMaxWait = d
	}
}

// NewNATSReplayer creates a new NATS JetStream replayer.
//
// This function creates or updates a work-queue stream and its durable pull
// consumer. The caller is responsible for creating the JetStream context from
// their NATS connection.
//
// Parameters:
//   - ctx: Context for stream and consumer creation
//   - js: A JetStream context (created via jetstream.New(conn))
//   - opts: Optional configuration options
//
// Returns:
//   - *NATSReplayer: A new NATS replayer
//   - error: Error if stream or consumer creation fails
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	replayer, _ := replay.NewNATSReplayer(ctx, js)
func NewNATSReplayer(ctx context.Context, js jetstream.JetStream, opts ...NATSReplayerOption) (*NATSReplayer, error) {
	if js == nil {
		return nil, errors.New("strand: JetStream context is nil")
	}

	config := DefaultNATSReplayerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "strand deferred statement replay queue",
		Subjects:    []string{config.SubjectPrefix + ".*"}, // {prefix}.{cause}
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      config.MaxAge,
		MaxMsgs:     config.MaxMsgs,
		MaxBytes:    config.MaxBytes,
		Replicas:    config.Replicas,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
	})
	if err != nil {
		return nil, fmt.Errorf("strand: failed to create/update stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          config.ConsumerName,
		Durable:       config.ConsumerName,
		FilterSubject: config.SubjectPrefix + ".*",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    config.MaxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("strand: failed to create consumer: %w", err)
	}

	return &NATSReplayer{
		js:       js,
		stream:   stream,
		consumer: consumer,
		config:   config,
	}, nil
}

// Enqueue publishes a parked statement to the JetStream stream.
//
// The message is published with subject "{prefix}.{cause}".
// JetStream provides at-least-once delivery guarantees.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - payload: The failed statement
//
// Returns:
//   - error: nil on success, error on encode or publish failure
func (n *NATSReplayer) Enqueue(ctx context.Context, payload types.ReplayPayload) error {
	if n.isClosed() {
		return types.ErrReplayerClosed
	}

	data, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("strand: failed to encode replay payload: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, n.config.PublishTimeout)
	defer cancel()

	if _, err := n.js.Publish(pubCtx, n.subject(payload.Cause), data); err != nil {
		return fmt.Errorf("strand: failed to publish replay message: %w", err)
	}

	return nil
}

func (n *NATSReplayer) subject(cause types.SignalKind) string {
	return n.config.SubjectPrefix + "." + cause.String()
}

// Dequeue fetches a batch of parked statements.
//
// The returned messages must be acknowledged after processing with Ack (success),
// Nak (redeliver) or Term (drop). Messages that cannot be decoded are terminated
// and skipped.
//
// Parameters:
//   - ctx: Context for cancellation
//   - batchSize: Maximum number of messages to fetch
//
// Returns:
//   - []ReplayMessage: Batch of messages to process, empty when none are pending
//   - error: Error if fetch fails
func (n *NATSReplayer) Dequeue(ctx context.Context, batchSize int) ([]ReplayMessage, error) {
	if n.isClosed() {
		return nil, types.ErrReplayerClosed
	}

	wait := n.config.FetchMaxWait
	if deadline, ok := ctx.Deadline(); ok {
		wait = min(wait, time.Until(deadline))
	}
	if wait <= 0 {
		return nil, ctx.Err()
	}

	msgs, err := n.consumer.Fetch(batchSize, jetstream.FetchMaxWait(wait))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, jetstream.ErrNoMessages) {
			return nil, nil
		}

		return nil, fmt.Errorf("strand: failed to fetch messages: %w", err)
	}

	result := make([]ReplayMessage, 0, batchSize)
	for msg := range msgs.Messages() {
		payload, err := decodePayload(msg.Data())
		if err != nil {
			_ = msg.Term()

			continue
		}

		var delivered uint64
		if md, err := msg.Metadata(); err == nil {
			delivered = md.NumDelivered
		}

		result = append(result, ReplayMessage{
			Payload:       payload,
			DeliveryCount: delivered,
			MaxDeliver:    n.config.MaxDeliver,
			ackFunc:       msg.Ack,
			nakFunc:       msg.Nak,
			termFunc:      msg.Term,
		})
	}

	if err := msgs.Error(); err != nil && !errors.Is(err, jetstream.ErrNoMessages) {
		return result, fmt.Errorf("strand: error during message fetch: %w", err)
	}

	return result, nil
}

// ReplayMessage wraps a parked statement with acknowledgment functions.
type ReplayMessage struct {
	Payload types.ReplayPayload

	// DeliveryCount is the number of times JetStream delivered the message,
	// including this delivery.
	DeliveryCount uint64

	// MaxDeliver is the configured delivery limit.
	MaxDeliver int

	ackFunc  func() error
	nakFunc  func() error
	termFunc func() error
}

// Ack acknowledges successful processing of the message.
func (m *ReplayMessage) Ack() error {
	if m.ackFunc != nil {
		return m.ackFunc()
	}

	return nil
}

// Nak negatively acknowledges the message for redelivery.
func (m *ReplayMessage) Nak() error {
	if m.nakFunc != nil {
		return m.nakFunc()
	}

	return nil
}

// Term terminates the message, preventing any redelivery.
func (m *ReplayMessage) Term() error {
	if m.termFunc != nil {
		return m.termFunc()
	}

	return nil
}

// LastAttempt reports whether this delivery is the final one.
func (m *ReplayMessage) LastAttempt() bool {
	//nolint:gosec // MaxDeliver is a small positive number
	return m.MaxDeliver > 0 && m.DeliveryCount >= uint64(m.MaxDeliver)
}

// Pending returns the number of messages stored in the stream.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - int: Number of pending messages
//   - error: Error if unable to get stream info
func (n *NATSReplayer) Pending(ctx context.Context) (int, error) {
	if n.isClosed() {
		return 0, types.ErrReplayerClosed
	}

	info, err := n.stream.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("strand: failed to get stream info: %w", err)
	}

	msgs := info.State.Msgs
	if msgs > uint64(^uint(0)>>1) {
		msgs = uint64(^uint(0) >> 1)
	}

	//nolint:gosec // overflow is handled by the cap above
	return int(msgs), nil
}

// Close closes the replayer.
//
// Note: This does NOT close the NATS connection - that is the caller's responsibility.
func (n *NATSReplayer) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true

	return nil
}

func (n *NATSReplayer) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.closed
}

// StreamName returns the JetStream stream name.
func (n *NATSReplayer) StreamName() string {
	return n.config.StreamName
}
