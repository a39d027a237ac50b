package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/clientproto"
	"github.com/viant/dbgadapter/config"
)

type fakeTransport struct {
	mu      sync.Mutex
	respond func(command string, arguments interface{}) (*dbgadapter.Response, error)
	events  chan *dbgadapter.Event
	errs    chan error
	exit    chan struct{}
	closed  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan *dbgadapter.Event, 8), errs: make(chan error, 4), exit: make(chan struct{})}
}
func (f *fakeTransport) Send(_ context.Context, command string, args interface{}) (*dbgadapter.Response, error) {
	if f.respond != nil {
		return f.respond(command, args)
	}
	return &dbgadapter.Response{Success: true}, nil
}
func (f *fakeTransport) SendResponse(context.Context, *dbgadapter.Response) error { return nil }
func (f *fakeTransport) Events() <-chan *dbgadapter.Event                        { return f.events }
func (f *fakeTransport) ServerErrors() <-chan error                              { return f.errs }
func (f *fakeTransport) Exit() <-chan struct{}                                   { return f.exit }
func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.exit)
	}
	return nil
}

type noopCallback struct{}

func (noopCallback) SendChromeMessage([]byte) error      { return nil }
func (noopCallback) Notify(string, string) error         { return nil }
func (noopCallback) Output(string, string) error         { return nil }

func testConfig() config.Config {
	return config.Config{AdapterKind: "python", Mode: config.Launch, Arguments: map[string]interface{}{"program": "/tmp/x.py"}}
}

func TestSession_DisposeIsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	s := NewSession(ft, noopCallback{}, testConfig())
	assert.NoError(t, s.Start(context.Background()))

	s.Dispose()
	s.Dispose()

	select {
	case <-s.Done():
	default:
		t.Fatal("expected Done to be closed after Dispose")
	}
}

func TestSession_AdapterTransportExitDisposesSession(t *testing.T) {
	ft := newFakeTransport()
	s := NewSession(ft, noopCallback{}, testConfig())
	assert.NoError(t, s.Start(context.Background()))

	_ = ft.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("expected session to dispose after transport exit")
	}
}

func TestSession_TerminatedEventDisposesAfterFlushDelay(t *testing.T) {
	ft := newFakeTransport()
	s := NewSession(ft, noopCallback{}, testConfig(), WithTerminateDelay(10*time.Millisecond))
	assert.NoError(t, s.Start(context.Background()))

	ft.events <- &dbgadapter.Event{Event: "terminated"}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("expected session to dispose after terminated flush delay")
	}
}

func TestSession_ExitedEventDisposesImmediately(t *testing.T) {
	ft := newFakeTransport()
	s := NewSession(ft, noopCallback{}, testConfig())
	assert.NoError(t, s.Start(context.Background()))

	ft.events <- &dbgadapter.Event{Event: "exited"}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("expected session to dispose after debuggee exited")
	}
}

func TestSession_RouterIsReachableForClientCommands(t *testing.T) {
	ft := newFakeTransport()
	cb := noopCallback{}
	s := NewSession(ft, cb, testConfig())
	assert.NoError(t, s.Start(context.Background()))

	s.Router().Handle(context.Background(), clientproto.Request{ID: 1, Method: "Debugger.enable"})
	assert.Equal(t, int64(1), s.Router().Stats().Processed)
}
