package session

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/viant/dbgadapter"
)

// fakeTransport is a minimal transport.Transport double driven entirely by
// test-supplied responses, so AdapterSession can be exercised without any
// real framing or process.
type fakeTransport struct {
	respond      func(command string, arguments interface{}) (*dbgadapter.Response, error)
	events       chan *dbgadapter.Event
	serverErrors chan error
	exit         chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:       make(chan *dbgadapter.Event, 8),
		serverErrors: make(chan error, 8),
		exit:         make(chan struct{}),
	}
}

func (f *fakeTransport) Send(_ context.Context, command string, arguments interface{}) (*dbgadapter.Response, error) {
	return f.respond(command, arguments)
}
func (f *fakeTransport) SendResponse(context.Context, *dbgadapter.Response) error { return nil }
func (f *fakeTransport) Events() <-chan *dbgadapter.Event                        { return f.events }
func (f *fakeTransport) ServerErrors() <-chan error                              { return f.serverErrors }
func (f *fakeTransport) Exit() <-chan struct{}                                   { return f.exit }
func (f *fakeTransport) Close() error                                           { close(f.exit); return nil }

func TestAdapterSession_InitializeCachesCapabilities(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(command string, _ interface{}) (*dbgadapter.Response, error) {
		assert.Equal(t, "initialize", command)
		body, _ := json.Marshal(Capabilities{SupportsConfigurationDoneRequest: true})
		return &dbgadapter.Response{Success: true, Body: body}, nil
	}
	s := New(ft)
	assert.False(t, s.Capabilities().SupportsConfigurationDoneRequest)

	caps, err := s.Initialize(context.Background(), InitializeArgs{ClientID: "test"})
	assert.NoError(t, err)
	assert.True(t, caps.SupportsConfigurationDoneRequest)
	assert.True(t, s.Capabilities().SupportsConfigurationDoneRequest)
}

func TestAdapterSession_SetBreakpointsDecodesBody(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(command string, args interface{}) (*dbgadapter.Response, error) {
		assert.Equal(t, "setBreakpoints", command)
		line := 10
		body, _ := json.Marshal(SetBreakpointsResult{Breakpoints: []Breakpoint{{Line: &line, Verified: true}}})
		return &dbgadapter.Response{Success: true, Body: body}, nil
	}
	s := New(ft)
	result, err := s.SetBreakpoints(context.Background(), SetBreakpointsArgs{
		Source:      Source{Path: "/a.py"},
		Breakpoints: []SourceBreakpointArg{{Line: 10}},
	})
	assert.NoError(t, err)
	assert.Len(t, result.Breakpoints, 1)
	assert.True(t, result.Breakpoints[0].Verified)
}

func TestAdapterSession_CompletionsSkippedWhenUnsupported(t *testing.T) {
	ft := newFakeTransport()
	called := false
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) {
		called = true
		return &dbgadapter.Response{Success: true}, nil
	}
	s := New(ft)
	result, err := s.Completions(context.Background(), CompletionsArgs{Text: "foo"})
	assert.NoError(t, err)
	assert.Empty(t, result.Targets)
	assert.False(t, called, "completions should short-circuit when capability is false")
}

func TestAdapterSession_VoidRequestPropagatesError(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) {
		return nil, dbgadapter.NewAdapterError("continue", "no such thread", nil)
	}
	s := New(ft)
	err := s.Continue(context.Background(), 7)
	assert.Error(t, err)
}
