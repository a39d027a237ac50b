package transport

import (
	"context"
	"sync"
	"time"

	"github.com/viant/dbgadapter"
)

// RoundTrip represents one outstanding adapter request awaiting its
// response: a Wait/SetResponse/SetError future matched by integer seq
// and held in a map rather than a fixed-capacity ring.
type RoundTrip struct {
	Seq      int
	Request  *dbgadapter.Request
	Response *dbgadapter.Response
	err      error
	done     chan struct{}
}

// NewRoundTrip creates a new, unresolved RoundTrip for the given request.
func NewRoundTrip(request *dbgadapter.Request) *RoundTrip {
	return &RoundTrip{Seq: request.Seq, Request: request, done: make(chan struct{})}
}

// Wait blocks until the round trip resolves, the context is cancelled, or
// timeout elapses.
func (t *RoundTrip) Wait(ctx context.Context, timeout time.Duration) (*dbgadapter.Response, error) {
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeoutCh:
		return nil, dbgadapter.NewTransportClosedError(nil)
	case <-t.done:
		return t.Response, t.err
	}
}

// SetResponse resolves the round trip with a successful or failed adapter
// response.
func (t *RoundTrip) SetResponse(response *dbgadapter.Response) {
	t.Response = response
	if !response.Success {
		t.err = dbgadapter.NewAdapterError(response.Command, response.Message, response.Body)
	}
	close(t.done)
}

// SetError resolves the round trip with a transport-level error (no
// response was ever received, e.g. the transport closed).
func (t *RoundTrip) SetError(err error) {
	t.err = err
	close(t.done)
}

// PendingRequests is the pending-request table keyed by sequence number,
// required to resolve exactly one response per request.
type PendingRequests struct {
	mu      sync.Mutex
	pending map[int]*RoundTrip
}

// NewPendingRequests creates an empty pending-request table.
func NewPendingRequests() *PendingRequests {
	return &PendingRequests{pending: make(map[int]*RoundTrip)}
}

// Add registers a new round trip before its request frame is written, so
// a response racing the write can never arrive before its future exists.
func (p *PendingRequests) Add(request *dbgadapter.Request) *RoundTrip {
	trip := NewRoundTrip(request)
	p.mu.Lock()
	p.pending[request.Seq] = trip
	p.mu.Unlock()
	return trip
}

// Match looks up and removes the round trip for a given request_seq.
func (p *PendingRequests) Match(requestSeq int) (*RoundTrip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	trip, ok := p.pending[requestSeq]
	if ok {
		delete(p.pending, requestSeq)
	}
	return trip, ok
}

// FailAll resolves every still-pending round trip with err and empties the
// table. Used when the transport closes.
func (p *PendingRequests) FailAll(err error) {
	p.mu.Lock()
	trips := make([]*RoundTrip, 0, len(p.pending))
	for seq, trip := range p.pending {
		trips = append(trips, trip)
		delete(p.pending, seq)
	}
	p.mu.Unlock()
	for _, trip := range trips {
		trip.SetError(err)
	}
}

// Len reports how many requests are currently awaiting a response.
func (p *PendingRequests) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
