// Package translate implements the EventTranslator: it consumes
// AdapterSession's event streams and produces client-facing events,
// updating BreakpointLedger and ThreadRegistry along the way.
package translate

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/breakpoint"
	"github.com/viant/dbgadapter/clientproto"
	"github.com/viant/dbgadapter/session"
	"github.com/viant/dbgadapter/state"
	"github.com/viant/dbgadapter/thread"
)

// Location is a client-facing source location, 0-based per the client
// protocol's coordinate convention.
type Location struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber"`
}

// ObjectRef is the `object` field of a Scope.
type ObjectRef struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ObjectID    string `json:"objectId"`
}

// Scope is one entry of a ClientCallFrame's scope chain.
type Scope struct {
	Type   string    `json:"type"`
	Name   string    `json:"name"`
	Object ObjectRef `json:"object"`
}

// ClientCallFrame is one frame of a client-facing call stack.
type ClientCallFrame struct {
	CallFrameID  string  `json:"callFrameId"`
	FunctionName string  `json:"functionName"`
	Location     Location `json:"location"`
	HasSource    bool    `json:"hasSource"`
	ScopeChain   []Scope `json:"scopeChain"`
}

// BuildCallFrames fetches and translates the call stack for threadID.
// levels == 0 means unbounded. A stackTrace failure is returned to the
// caller, who must log it and proceed with an empty frame list rather than
// fail the surrounding operation. A scopes failure is not returned or
// logged; it leaves that frame's scope chain empty.
func BuildCallFrames(ctx context.Context, adapter *session.AdapterSession, threadID, levels int) ([]thread.Frame, []ClientCallFrame, error) {
	result, err := adapter.StackTrace(ctx, session.StackTraceArgs{ThreadId: threadID, Levels: levels})
	if err != nil {
		return nil, nil, dbgadapter.NewStackFetchFailure(threadID, err)
	}

	frames := make([]thread.Frame, 0, len(result.StackFrames))
	clientFrames := make([]ClientCallFrame, 0, len(result.StackFrames))
	for _, f := range result.StackFrames {
		path := "N/A"
		if f.Source != nil && f.Source.Path != "" {
			path = f.Source.Path
		}
		line := f.Line - 1
		column := f.Column - 1

		scopeChain, err := buildScopeChain(ctx, adapter, f.Id)
		if err != nil {
			scopeChain = nil
		}

		frames = append(frames, thread.Frame{FunctionName: f.Name, Path: path, Line: line, Column: column})
		clientFrames = append(clientFrames, ClientCallFrame{
			CallFrameID:  strconv.Itoa(f.Id),
			FunctionName: f.Name,
			Location:     Location{ScriptID: path, LineNumber: line, ColumnNumber: column},
			HasSource:    f.Source != nil,
			ScopeChain:   scopeChain,
		})
	}
	return frames, clientFrames, nil
}

func buildScopeChain(ctx context.Context, adapter *session.AdapterSession, frameID int) ([]Scope, error) {
	result, err := adapter.Scopes(ctx, frameID)
	if err != nil {
		return nil, err
	}
	scopes := make([]Scope, 0, len(result.Scopes))
	for _, s := range result.Scopes {
		scopes = append(scopes, Scope{
			Type: s.Name,
			Name: s.Name,
			Object: ObjectRef{
				Type:        "object",
				Description: s.Name,
				ObjectID:    strconv.Itoa(s.VariablesReference),
			},
		})
	}
	return scopes, nil
}

// PausedEvent is the client `Debugger.paused` event body.
type PausedEvent struct {
	CallFrames          []ClientCallFrame `json:"callFrames"`
	Reason              string            `json:"reason"`
	StopThreadID        int               `json:"stopThreadId"`
	ThreadSwitchMessage *string           `json:"threadSwitchMessage,omitempty"`
}

// outputCategoryMap maps an adapter output event's category to the
// client-facing output-pane channel.
var outputCategoryMap = map[string]string{
	"console": "debug",
	"info":    "info",
	"log":     "log",
	"warning": "warning",
	"error":   "error",
	"debug":   "debug",
	"stderr":  "error",
	"stdout":  "log",
	"success": "success",
}

// Logger is the narrow logging surface EventTranslator needs, matching
// dbgadapter.Logger so callers can pass dbgadapter.DefaultLogger directly.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// EventTranslator consumes adapter events and drives Ledger/Registry/
// Callback. One instance per session.
type EventTranslator struct {
	adapter  *session.AdapterSession
	bus      *session.EventBus
	ledger   *breakpoint.Ledger
	registry *thread.Registry
	flags    *state.Flags
	callback clientproto.Callback
	logger   Logger

	// isPythonAdapter toggles the "user request" allThreadsStopped quirk
	// some Python adapters rely on.
	isPythonAdapter bool

	stopMu         sync.Mutex
	cancelByThread map[int]context.CancelFunc

	sub <-chan *dbgadapter.Event
}

// New creates an EventTranslator. isPythonAdapter selects the Python-only
// stop-event quirk described above.
func New(adapter *session.AdapterSession, bus *session.EventBus, ledger *breakpoint.Ledger, registry *thread.Registry, flags *state.Flags, callback clientproto.Callback, logger Logger, isPythonAdapter bool) *EventTranslator {
	if logger == nil {
		logger = dbgadapter.DefaultLogger
	}
	return &EventTranslator{
		adapter:         adapter,
		bus:             bus,
		ledger:          ledger,
		registry:        registry,
		flags:           flags,
		callback:        callback,
		logger:          logger,
		isPythonAdapter: isPythonAdapter,
		cancelByThread:  make(map[int]context.CancelFunc),
		sub:             bus.SubscribeAll(),
	}
}

// Run dispatches events until ctx is cancelled or the bus stops producing.
func (t *EventTranslator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-t.sub:
			if !ok {
				return
			}
			t.handle(ctx, evt)
		}
	}
}

func (t *EventTranslator) handle(ctx context.Context, evt *dbgadapter.Event) {
	switch evt.Event {
	case "thread":
		t.handleThread(evt)
	case "stopped":
		t.handleStopped(ctx, evt)
	case "continued":
		t.handleContinued(evt)
	case "output":
		t.handleOutput(evt)
	case "initialized":
		t.handleInitialized(ctx)
	case "breakpoint":
		t.handleBreakpoint(evt)
	}
}

func (t *EventTranslator) handleThread(evt *dbgadapter.Event) {
	body := session.ThreadEventBody{}
	if err := json.Unmarshal(evt.Body, &body); err != nil {
		t.logger.Errorf("translate: malformed thread event: %v", err)
		return
	}
	switch body.Reason {
	case "started":
		t.registry.Upsert([]int{body.ThreadId}, thread.Running)
	case "exited":
		t.registry.Remove(body.ThreadId)
	}
	t.emitThreadsUpdated(-1)
}

func (t *EventTranslator) emitThreadsUpdated(stopThreadID int) {
	if stopThreadID < 0 {
		if active, ok := t.registry.ActiveID(); ok {
			stopThreadID = active
		} else {
			stopThreadID = -1
		}
	}
	_ = clientproto.Emit(t.callback, clientproto.Event{
		Method: "Debugger.threadsUpdated",
		Params: map[string]interface{}{
			"threads":      t.registry.Describe(),
			"stopThreadId": stopThreadID,
		},
	})
}

func (t *EventTranslator) handleContinued(evt *dbgadapter.Event) {
	body := session.ContinuedEventBody{}
	_ = json.Unmarshal(evt.Body, &body)

	allContinued := body.AllThreadsContinued || body.ThreadId <= 0
	t.cancelStopFetch(body.ThreadId, allContinued)

	if allContinued {
		for _, id := range t.registry.IDs() {
			t.registry.Upsert([]int{id}, thread.Running)
		}
		t.registry.ClearActive()
	} else {
		t.registry.Upsert([]int{body.ThreadId}, thread.Running)
		if active, ok := t.registry.ActiveID(); ok && active == body.ThreadId {
			t.registry.ClearActive()
		}
	}
	_ = clientproto.Emit(t.callback, clientproto.Event{Method: "Debugger.resumed"})
}

// cancelStopFetch cancels any in-flight stack-trace fetch for threadID (or
// every thread, if all is true): a continued event racing a stopped
// event's stack fetch suppresses that stop's paused event.
func (t *EventTranslator) cancelStopFetch(threadID int, all bool) {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	if all {
		for id, cancel := range t.cancelByThread {
			cancel()
			delete(t.cancelByThread, id)
		}
		return
	}
	if cancel, ok := t.cancelByThread[threadID]; ok {
		cancel()
		delete(t.cancelByThread, threadID)
	}
}

func (t *EventTranslator) handleStopped(ctx context.Context, evt *dbgadapter.Event) {
	body := session.StoppedEventBody{}
	if err := json.Unmarshal(evt.Body, &body); err != nil {
		t.logger.Errorf("translate: malformed stopped event: %v", err)
		return
	}
	if t.isPythonAdapter && body.Reason == "user request" {
		body.AllThreadsStopped = true
	}

	stoppedIDs := t.stoppedThreadIDs(body)
	if len(stoppedIDs) == 0 {
		// No thread resolved from this stop: an async-break with nothing
		// running. Emit the synthetic paused event only if no thread is
		// active and no previous active thread has been recorded.
		if _, hadActive := t.registry.PreviousActiveID(); !hadActive {
			if _, active := t.registry.ActiveID(); !active {
				_ = clientproto.Emit(t.callback, clientproto.Event{
					Method: "Debugger.paused",
					Params: PausedEvent{CallFrames: []ClientCallFrame{}, Reason: "Async-Break", StopThreadID: -1},
				})
			}
		}
		return
	}

	if _, ok := t.registry.ActiveID(); !ok {
		t.registry.SetActive(stoppedIDs[0])
	}
	activeID, _ := t.registry.ActiveID()

	// Each thread's stack fetch gets its own cancellable context so a
	// continued event for one thread doesn't abort the others' fetches:
	// cancelling one thread's fetch must not suppress another thread's
	// paused event.
	threadCtx := make(map[int]context.Context, len(stoppedIDs))
	t.stopMu.Lock()
	for _, id := range stoppedIDs {
		c, cancel := context.WithCancel(ctx)
		threadCtx[id] = c
		t.cancelByThread[id] = cancel
	}
	t.stopMu.Unlock()

	group, _ := errgroup.WithContext(ctx)
	pausedEvents := make([]PausedEvent, len(stoppedIDs))
	cancelledID := make([]bool, len(stoppedIDs))
	for i, id := range stoppedIDs {
		i, id := i, id
		group.Go(func() error {
			levels := 0
			if id != activeID && t.adapter.Capabilities().SupportsDelayedStackTraceLoading {
				levels = 1
			}
			frames, clientFrames, err := BuildCallFrames(threadCtx[id], t.adapter, id, levels)
			if threadCtx[id].Err() != nil {
				cancelledID[i] = true
				return nil
			}
			if err != nil {
				t.logger.Errorf("translate: %v", err)
				frames, clientFrames = nil, nil
			}
			t.registry.MarkPaused(id, body.Reason, frames, id == activeID)
			pausedEvents[i] = PausedEvent{CallFrames: clientFrames, Reason: body.Reason, StopThreadID: id}
			return nil
		})
	}
	_ = group.Wait()

	t.stopMu.Lock()
	for _, id := range stoppedIDs {
		delete(t.cancelByThread, id)
	}
	t.stopMu.Unlock()

	var liveIDs []int
	var livePaused []PausedEvent
	for i, id := range stoppedIDs {
		if cancelledID[i] {
			continue
		}
		liveIDs = append(liveIDs, id)
		livePaused = append(livePaused, pausedEvents[i])
	}
	if len(liveIDs) == 0 {
		return
	}
	if current, ok := t.registry.ActiveID(); !ok || current != activeID {
		return // the active thread's own fetch was cancelled by a race with continued.
	}

	t.emitPaused(liveIDs, livePaused, activeID)
	t.emitThreadsUpdated(activeID)
}

func (t *EventTranslator) stoppedThreadIDs(body session.StoppedEventBody) []int {
	var ids []int
	seen := map[int]bool{}
	if body.ThreadId >= 0 {
		ids = append(ids, body.ThreadId)
		seen[body.ThreadId] = true
	}
	if body.AllThreadsStopped {
		for _, id := range t.registry.IDs() {
			if seen[id] {
				continue
			}
			if info, ok := t.registry.Get(id); ok && info.State != thread.Paused {
				ids = append(ids, id)
				seen[id] = true
			}
		}
	}
	return ids
}

// emitPaused emits exactly one Debugger.paused for the current active
// thread out of the threads expanded by this stop event, suppressing the
// rest.
func (t *EventTranslator) emitPaused(stoppedIDs []int, pausedEvents []PausedEvent, activeID int) {
	prevActive, hadPrevious := t.registry.PreviousActiveID()

	var active *PausedEvent
	for i, id := range stoppedIDs {
		if id == activeID {
			pe := pausedEvents[i]
			active = &pe
			break
		}
	}
	if active == nil {
		return
	}
	if hadPrevious && prevActive != activeID {
		msg := "Active thread switched from thread #" + strconv.Itoa(prevActive) + " to thread #" + strconv.Itoa(activeID)
		active.ThreadSwitchMessage = &msg
	}
	_ = clientproto.Emit(t.callback, clientproto.Event{Method: "Debugger.paused", Params: *active})
}

func (t *EventTranslator) handleOutput(evt *dbgadapter.Event) {
	body := session.OutputEventBody{}
	if err := json.Unmarshal(evt.Body, &body); err != nil {
		t.logger.Errorf("translate: malformed output event: %v", err)
		return
	}
	output := strings.TrimSuffix(strings.TrimSuffix(body.Output, "\n"), "\r")

	if body.Category == "nuclide_notification" {
		data := session.NotificationData{}
		_ = json.Unmarshal(body.Data, &data)
		_ = t.callback.Notify(data.Type, output)
		return
	}
	category, ok := outputCategoryMap[body.Category]
	if !ok {
		category = body.Category
	}
	_ = t.callback.Output(category, output)
}

func (t *EventTranslator) handleInitialized(ctx context.Context) {
	if !t.flags.AdapterReady() {
		return // first initialize, absorbed by CommandRouter's startup orchestration.
	}

	if err := t.ledger.SyncAll(ctx); err != nil {
		t.logger.Errorf("translate: breakpoint resync after adapter restart failed: %v", err)
	}
	if err := t.adapter.SetExceptionBreakpoints(ctx, t.flags.ExceptionFilters()); err != nil {
		t.logger.Errorf("translate: exception filter resync failed: %v", err)
	}
	if t.adapter.Capabilities().SupportsConfigurationDoneRequest {
		if err := t.adapter.ConfigurationDone(ctx); err != nil {
			t.logger.Errorf("translate: configurationDone resync failed: %v", err)
		}
	}
}

func (t *EventTranslator) handleBreakpoint(evt *dbgadapter.Event) {
	body := session.BreakpointEventBody{}
	if err := json.Unmarshal(evt.Body, &body); err != nil {
		t.logger.Errorf("translate: malformed breakpoint event: %v", err)
		return
	}
	var id *string
	if body.Breakpoint.Id != nil {
		s := strconv.Itoa(*body.Breakpoint.Id)
		id = &s
	}
	path := ""
	if body.Source != nil {
		path = body.Source.Path
	}
	t.ledger.OnAdapterBreakpointEvent(id, path, body.Breakpoint.Line, body.Breakpoint.OriginalLine, body.Breakpoint.Verified, body.NuclideHitCount)
}
