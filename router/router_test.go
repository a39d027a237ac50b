package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/breakpoint"
	"github.com/viant/dbgadapter/clientproto"
	"github.com/viant/dbgadapter/config"
	"github.com/viant/dbgadapter/session"
	"github.com/viant/dbgadapter/state"
	"github.com/viant/dbgadapter/thread"
)

type fakeTransport struct {
	mu       sync.Mutex
	respond  func(command string, arguments interface{}) (*dbgadapter.Response, error)
	calls    []string
	events   chan *dbgadapter.Event
	errs     chan error
	exit     chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan *dbgadapter.Event, 8), errs: make(chan error, 4), exit: make(chan struct{})}
}
func (f *fakeTransport) Send(_ context.Context, command string, args interface{}) (*dbgadapter.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	f.mu.Unlock()
	return f.respond(command, args)
}
func (f *fakeTransport) SendResponse(context.Context, *dbgadapter.Response) error { return nil }
func (f *fakeTransport) Events() <-chan *dbgadapter.Event                        { return f.events }
func (f *fakeTransport) ServerErrors() <-chan error                              { return f.errs }
func (f *fakeTransport) Exit() <-chan struct{}                                   { return f.exit }
func (f *fakeTransport) Close() error                                           { close(f.exit); return nil }

func (f *fakeTransport) callCount(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}

// recordingCallback captures every message sent to the client, decoded
// generically so tests can assert on id/result/error/method fields.
type recordingCallback struct {
	mu       sync.Mutex
	messages []map[string]interface{}
}

func (c *recordingCallback) SendChromeMessage(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return nil
}
func (c *recordingCallback) Notify(string, string) error        { return nil }
func (c *recordingCallback) Output(string, string) error         { return nil }

func (c *recordingCallback) snapshot() []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]interface{}, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *recordingCallback) responseFor(id float64) (map[string]interface{}, bool) {
	for _, m := range c.snapshot() {
		if rid, ok := m["id"]; ok {
			if f, ok := rid.(float64); ok && f == id {
				return m, true
			}
		}
	}
	return nil, false
}

func (c *recordingCallback) eventsNamed(method string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, m := range c.snapshot() {
		if _, hasID := m["id"]; hasID {
			continue
		}
		if m["method"] == method {
			out = append(out, m)
		}
	}
	return out
}

func intPtr(n int) *int { return &n }

func newRouter(ft *fakeTransport, cb clientproto.Callback, cfg config.Config) *CommandRouter {
	adapter := session.New(ft)
	bus := session.NewEventBus(ft)
	ledger := breakpoint.New(NewLedgerAdapterClient(adapter))
	registry := thread.New()
	flags := state.New()
	return New(adapter, bus, ledger, registry, flags, cb, cfg)
}

func defaultConfig() config.Config {
	return config.Config{AdapterKind: "python", Mode: config.Launch, Arguments: map[string]interface{}{"program": "/tmp/main.py"}}
}

func TestRouter_EnableRepliesAndEmitsInitialBreak(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) { return &dbgadapter.Response{Success: true}, nil }
	cb := &recordingCallback{}
	r := newRouter(ft, cb, defaultConfig())
	assert.NoError(t, r.Start(context.Background()))

	r.Handle(context.Background(), clientproto.Request{ID: 1, Method: "Debugger.enable"})

	resp, ok := cb.responseFor(1)
	assert.True(t, ok)
	assert.Nil(t, resp["error"])

	paused := cb.eventsNamed("Debugger.paused")
	assert.Len(t, paused, 1)
	params := paused[0]["params"].(map[string]interface{})
	assert.Equal(t, "initial break", params["reason"])
}

func TestRouter_BreakpointBufferingSyncsOnResume(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(command string, _ interface{}) (*dbgadapter.Response, error) {
		if command == "setBreakpoints" {
			body, _ := json.Marshal(session.SetBreakpointsResult{Breakpoints: []session.Breakpoint{
				{Id: intPtr(100), Verified: true, Line: intPtr(11)},
				{Id: intPtr(101), Verified: true, Line: intPtr(21)},
			}})
			return &dbgadapter.Response{Success: true, Body: body}, nil
		}
		return &dbgadapter.Response{Success: true}, nil
	}
	cb := &recordingCallback{}
	r := newRouter(ft, cb, defaultConfig())
	assert.NoError(t, r.Start(context.Background()))

	bpParams := func(line int) json.RawMessage {
		b, _ := json.Marshal(setBreakpointByURLParams{URL: "a", LineNumber: line})
		return b
	}
	r.Handle(context.Background(), clientproto.Request{ID: 2, Method: "Debugger.setBreakpointByUrl", Params: bpParams(10)})
	r.Handle(context.Background(), clientproto.Request{ID: 3, Method: "Debugger.setBreakpointByUrl", Params: bpParams(20)})

	assert.Equal(t, 2, r.Stats().Buffered)
	_, hasReply := cb.responseFor(2)
	assert.False(t, hasReply, "buffered breakpoint replies before resume")

	r.Handle(context.Background(), clientproto.Request{ID: 4, Method: "Debugger.resume"})

	assert.Equal(t, 1, ft.callCount("setBreakpoints"))

	resp2, ok := cb.responseFor(2)
	assert.True(t, ok)
	result2 := resp2["result"].(map[string]interface{})
	assert.Equal(t, "100", result2["breakpointId"])
	locations2 := result2["locations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(10), locations2["lineNumber"])
	assert.Equal(t, true, result2["resolved"])

	resp3, ok := cb.responseFor(3)
	assert.True(t, ok)
	result3 := resp3["result"].(map[string]interface{})
	assert.Equal(t, "101", result3["breakpointId"])

	resp4, ok := cb.responseFor(4)
	assert.True(t, ok)
	assert.Nil(t, resp4["error"])
}

func TestRouter_UnknownCommandRepliesError(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) { return &dbgadapter.Response{Success: true}, nil }
	cb := &recordingCallback{}
	r := newRouter(ft, cb, defaultConfig())
	assert.NoError(t, r.Start(context.Background()))

	r.Handle(context.Background(), clientproto.Request{ID: 9, Method: "Debugger.frobnicate"})

	resp, ok := cb.responseFor(9)
	assert.True(t, ok)
	errBody := resp["error"].(map[string]interface{})
	assert.Contains(t, errBody["message"], "Unknown command: Debugger.frobnicate")
}

func TestRouter_StepWithoutPausedThreadErrors(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) { return &dbgadapter.Response{Success: true}, nil }
	cb := &recordingCallback{}
	r := newRouter(ft, cb, defaultConfig())
	assert.NoError(t, r.Start(context.Background()))

	r.Handle(context.Background(), clientproto.Request{ID: 5, Method: "Debugger.stepOver"})

	resp, ok := cb.responseFor(5)
	assert.True(t, ok)
	errBody := resp["error"].(map[string]interface{})
	assert.Contains(t, errBody["message"], "No paused thread")
}

func TestRouter_ExceptionFilterLatestWinsEndsEmpty(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(string, interface{}) (*dbgadapter.Response, error) { return &dbgadapter.Response{Success: true}, nil }
	cb := &recordingCallback{}
	r := newRouter(ft, cb, defaultConfig())
	assert.NoError(t, r.Start(context.Background()))
	r.flags.SetConfigDoneSent(true)

	stateParams := func(state string) json.RawMessage {
		b, _ := json.Marshal(setPauseOnExceptionsParams{State: state})
		return b
	}
	r.Handle(context.Background(), clientproto.Request{ID: 6, Method: "Debugger.setPauseOnExceptions", Params: stateParams("all")})
	r.Handle(context.Background(), clientproto.Request{ID: 7, Method: "Debugger.setPauseOnExceptions", Params: stateParams("none")})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ft.callCount("setExceptionBreakpoints") >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, []string{}, r.flags.ExceptionFilters())
}
