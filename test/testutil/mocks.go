package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/strand/types"
)

// Response is a scripted answer of a MockTransport.
type Response struct {
	Result *types.Result
	Err    error

	// Delay holds the response back; the wait ends early when the attempt
	// context is cancelled.
	Delay time.Duration
}

// OK returns a successful response carrying the given rows.
func OK(rows ...map[string]any) Response {
	return Response{Result: &types.Result{Rows: rows}}
}

// Fail returns a failed response.
func Fail(err error) Response {
	return Response{Err: err}
}

// Attempt is a dispatch recorded by MockTransport.
type Attempt struct {
	Host        types.Host
	Consistency types.Consistency
	StatementID string
}

// MockTransport is a scripted implementation of strand.Transport for testing.
//
// Responses are consumed in order, one per dispatch. Once the script is
// exhausted, the last response is repeated; an empty script answers with an
// empty successful result.
type MockTransport struct {
	mu        sync.Mutex
	responses []Response
	next      int
	attempts  []Attempt

	// OnDispatch overrides the script when set.
	OnDispatch func(ctx context.Context, host types.Host, stmt *types.Statement, cl types.Consistency) (*types.Result, error)
}

// NewMockTransport creates a transport answering with the given responses.
func NewMockTransport(responses ...Response) *MockTransport {
	return &MockTransport{responses: responses}
}

// Dispatch records the attempt and returns the next scripted response.
func (m *MockTransport) Dispatch(
	ctx context.Context,
	host types.Host,
	stmt *types.Statement,
	cl types.Consistency,
) (*types.Result, error) {
	m.mu.Lock()
	m.attempts = append(m.attempts, Attempt{Host: host, Consistency: cl, StatementID: stmt.ID()})
	hook := m.OnDispatch
	resp := Response{Result: &types.Result{}}
	if len(m.responses) > 0 {
		idx := min(m.next, len(m.responses)-1)
		resp = m.responses[idx]
		m.next++
	}
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx, host, stmt, cl)
	}

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return resp.Result, resp.Err
}

// Attempts returns a copy of the recorded dispatches.
func (m *MockTransport) Attempts() []Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Attempt, len(m.attempts))
	copy(out, m.attempts)

	return out
}

// AttemptCount returns the number of recorded dispatches.
func (m *MockTransport) AttemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.attempts)
}

// Consistencies returns the consistency of every recorded dispatch, in order.
func (m *MockTransport) Consistencies() []types.Consistency {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Consistency, len(m.attempts))
	for i, a := range m.attempts {
		out[i] = a.Consistency
	}

	return out
}

// Reset clears the recorded attempts and rewinds the script.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts = nil
	m.next = 0
}

// BlockingTransport never answers until the attempt context is cancelled.
//
// Started is closed on the first dispatch, so tests can cancel once a request is
// in flight.
type BlockingTransport struct {
	Started chan struct{}

	once sync.Once
}

// NewBlockingTransport creates a BlockingTransport.
func NewBlockingTransport() *BlockingTransport {
	return &BlockingTransport{Started: make(chan struct{})}
}

// Dispatch blocks until ctx is done and returns its error.
func (b *BlockingTransport) Dispatch(
	ctx context.Context,
	_ types.Host,
	_ *types.Statement,
	_ types.Consistency,
) (*types.Result, error) {
	b.once.Do(func() { close(b.Started) })
	<-ctx.Done()

	return nil, ctx.Err()
}

// StaticSelector offers a fixed list of hosts, each once, in order.
type StaticSelector struct {
	Hosts []types.Host
}

// NewStaticSelector creates a StaticSelector.
func NewStaticSelector(hosts ...types.Host) *StaticSelector {
	return &StaticSelector{Hosts: hosts}
}

// NextCandidate returns the first host not in tried.
func (s *StaticSelector) NextCandidate(_ context.Context, _ *types.Statement, tried []types.Host) (types.Host, bool) {
	for _, h := range s.Hosts {
		found := false
		for _, t := range tried {
			if t.Address == h.Address {
				found = true
				break
			}
		}
		if !found {
			return h, true
		}
	}

	return types.Host{}, false
}

// Host builds a host snapshot for tests.
func Host(addr, dc, rack string) types.Host {
	return types.Host{Address: addr, DataCenter: dc, Rack: rack}
}
