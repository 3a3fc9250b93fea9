package cql

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/internal/logging"
	"github.com/arloliu/strand/replication"
	"github.com/arloliu/strand/types"
)

// LoadFunc reads a metadata snapshot from the cluster.
type LoadFunc func(ctx context.Context) (*replication.Metadata, error)

// Poller is a topology watcher that reloads cluster metadata on an interval.
//
// Every successful load is emitted with a version one higher than the previous
// one. Failed loads are logged and keep the last snapshot.
type Poller struct {
	load     LoadFunc
	interval time.Duration
	timeout  time.Duration
	logger   types.Logger

	version   uint64
	updates   chan strand.TopologyUpdate
	startOnce sync.Once
}

var _ strand.TopologyWatcher = (*Poller)(nil)

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the reload interval. Default: 30s
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLoadTimeout bounds each reload. Default: 10s
func WithLoadTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPollerLogger sets the logger for failed reloads.
func WithPollerLogger(l types.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a Poller.
//
// Parameters:
//   - load: Function reading the cluster metadata
//   - opts: Optional configuration options
//
// Returns:
//   - *Poller: A new poller
//   - error: Error if load is nil
func NewPoller(load LoadFunc, opts ...PollerOption) (*Poller, error) {
	if load == nil {
		return nil, errors.New("strand/cql: load function is nil")
	}

	p := &Poller{
		load:     load,
		interval: 30 * time.Second,
		timeout:  10 * time.Second,
		updates:  make(chan strand.TopologyUpdate, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Ensure logger is never nil
	p.logger = logging.OrNop(p.logger)

	return p, nil
}

// Watch starts polling. The first load happens immediately. The channel is
// closed when ctx is done; only the first call's context is used.
func (p *Poller) Watch(ctx context.Context) <-chan strand.TopologyUpdate {
	p.startOnce.Do(func() {
		go p.pollLoop(ctx)
	})

	return p.updates
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer close(p.updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.reload(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) reload(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	md, err := p.load(loadCtx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("failed to load cluster metadata", "error", err)
		}

		return
	}

	p.version++
	md = replication.NewMetadata(p.version, md.Ring, md.Keyspaces)

	select {
	case p.updates <- strand.TopologyUpdate{Metadata: md}:
	case <-ctx.Done():
	}
}
