// Package router implements CommandRouter: it accepts client commands one
// at a time, dispatches each to a handler, and owns the startup sequencing
// that precedes normal operation (capability wait, buffered breakpoint
// sync, exception filter configuration, configurationDone).
package router

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/breakpoint"
	"github.com/viant/dbgadapter/clientproto"
	"github.com/viant/dbgadapter/config"
	"github.com/viant/dbgadapter/filecache"
	"github.com/viant/dbgadapter/session"
	"github.com/viant/dbgadapter/state"
	"github.com/viant/dbgadapter/thread"
	"github.com/viant/dbgadapter/translate"
)

// LedgerAdapterClient adapts *session.AdapterSession to breakpoint.AdapterClient,
// translating the ledger's path/Record vocabulary into a setBreakpoints
// request and back, keeping the breakpoint package free of a session
// import.
type LedgerAdapterClient struct {
	adapter *session.AdapterSession
}

// NewLedgerAdapterClient wraps adapter for use as a breakpoint.Ledger's
// AdapterClient.
func NewLedgerAdapterClient(adapter *session.AdapterSession) LedgerAdapterClient {
	return LedgerAdapterClient{adapter: adapter}
}

// SetBreakpoints implements breakpoint.AdapterClient.
func (c LedgerAdapterClient) SetBreakpoints(ctx context.Context, source string, records []breakpoint.Record) ([]breakpoint.AdapterBreakpoint, error) {
	args := session.SetBreakpointsArgs{Source: session.Source{Path: source}}
	for _, rec := range records {
		args.Lines = append(args.Lines, rec.Line)
		args.Breakpoints = append(args.Breakpoints, session.SourceBreakpointArg{Line: rec.Line, Condition: rec.Condition})
	}
	result, err := c.adapter.SetBreakpoints(ctx, args)
	if err != nil {
		return nil, err
	}
	out := make([]breakpoint.AdapterBreakpoint, len(result.Breakpoints))
	for i, bp := range result.Breakpoints {
		out[i] = breakpoint.AdapterBreakpoint{
			ID:           idToString(bp.Id),
			Verified:     bp.Verified,
			Line:         bp.Line,
			OriginalLine: bp.OriginalLine,
			Message:      bp.Message,
		}
	}
	return out, nil
}

func idToString(id *int) *string {
	if id == nil {
		return nil
	}
	s := strconv.Itoa(*id)
	return &s
}

// bufferedBreakpoint is a setBreakpointByUrl request seen before the first
// resume: staged into the ledger immediately (staging is local-only), but
// its client response is deferred until the startup bulk sync.
type bufferedBreakpoint struct {
	id     int
	path   string
	handle breakpoint.Handle
}

// CommandRouter is the per-session dispatcher. One instance per bridge
// session; Handle is safe to call repeatedly but is not itself meant to be
// called concurrently by more than one caller (client commands arrive in a
// single stream, per the single-threaded cooperative model this component
// implements).
type CommandRouter struct {
	adapter  *session.AdapterSession
	bus      *session.EventBus
	ledger   *breakpoint.Ledger
	registry *thread.Registry
	flags    *state.Flags
	files    filecache.FileCache
	callback clientproto.Callback
	logger   dbgadapter.Logger

	adapterKind string
	mode        config.Mode
	arguments   map[string]interface{}

	mu            sync.Mutex
	resumed       bool
	enabledOnce   bool
	buffered      []bufferedBreakpoint
	initializedCh chan struct{}
	initOnce      sync.Once

	exceptionMu     sync.Mutex
	exceptionCancel context.CancelFunc

	statsMu   sync.Mutex
	processed int64
}

// Option configures a CommandRouter.
type Option func(*CommandRouter)

// WithLogger overrides the default logger.
func WithLogger(logger dbgadapter.Logger) Option {
	return func(r *CommandRouter) { r.logger = logger }
}

// WithFileCache overrides the default afs-backed FileCache.
func WithFileCache(f filecache.FileCache) Option {
	return func(r *CommandRouter) { r.files = f }
}

// New creates a CommandRouter bound to one session's collaborators.
func New(adapter *session.AdapterSession, bus *session.EventBus, ledger *breakpoint.Ledger, registry *thread.Registry, flags *state.Flags, callback clientproto.Callback, cfg config.Config, opts ...Option) *CommandRouter {
	r := &CommandRouter{
		adapter:       adapter,
		bus:           bus,
		ledger:        ledger,
		registry:      registry,
		flags:         flags,
		callback:      callback,
		logger:        dbgadapter.DefaultLogger,
		adapterKind:   cfg.AdapterKind,
		mode:          cfg.Mode,
		arguments:     cfg.Arguments,
		initializedCh: make(chan struct{}),
		files:         filecache.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start sends `initialize` and begins watching for the first `initialized`
// event, which unblocks a startup sequence in progress. It must be called
// once, before the first client command is handled.
func (r *CommandRouter) Start(ctx context.Context) error {
	go r.watchInitialized()
	_, err := r.adapter.Initialize(ctx, session.InitializeArgs{
		ClientID:             "Nuclide",
		AdapterID:            r.adapterKind,
		LinesStartAt1:        true,
		ColumnsStartAt1:      true,
		SupportsVariableType: true,
		PathFormat:           "path",
	})
	return err
}

func (r *CommandRouter) watchInitialized() {
	for range r.bus.Subscribe("initialized") {
		r.initOnce.Do(func() { close(r.initializedCh) })
	}
}

// Stats is an operational snapshot of the router's bookkeeping.
type Stats struct {
	Processed int64
	Buffered  int
}

// Stats returns a snapshot for operational visibility.
func (r *CommandRouter) Stats() Stats {
	r.statsMu.Lock()
	processed := r.processed
	r.statsMu.Unlock()
	r.mu.Lock()
	buffered := len(r.buffered)
	r.mu.Unlock()
	return Stats{Processed: processed, Buffered: buffered}
}

func (r *CommandRouter) recordProcessed() {
	r.statsMu.Lock()
	r.processed++
	r.statsMu.Unlock()
}

// Handle dispatches one client command. Panics inside a handler are
// recovered and converted to an error response rather than escaping to the
// caller, matching the "handler exceptions never reach the transport" rule.
func (r *CommandRouter) Handle(ctx context.Context, req clientproto.Request) {
	defer r.recordProcessed()
	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("%v", rec)
			}
			handlerErr := dbgadapter.NewHandlerError(req.Method, cause)
			r.logger.Errorf("router: %v", handlerErr)
			r.reply(req.ID, clientproto.Errorf(req.ID, handlerErr.Error()))
		}
	}()
	r.route(ctx, req)
}

func (r *CommandRouter) route(ctx context.Context, req clientproto.Request) {
	switch req.Method {
	case "Debugger.setBreakpointByUrl":
		r.handleSetBreakpointByURL(ctx, req)
	case "Debugger.removeBreakpoint":
		r.handleRemoveBreakpoint(ctx, req)
	case "Debugger.setPauseOnExceptions":
		r.handleSetPauseOnExceptions(req)
	case "Debugger.setDebuggerSettings", "Runtime.enable":
		r.reply(req.ID, clientproto.OK(req.ID, nil))
	case "Debugger.enable":
		r.handleEnable(req)
	case "Debugger.resume":
		r.handleResume(ctx, req)
	case "Debugger.pause":
		r.handlePause(ctx, req)
	case "Debugger.selectThread":
		r.handleSelectThread(req)
	case "Debugger.stepOver":
		r.handleStep(ctx, req, r.adapter.Next)
	case "Debugger.stepInto":
		r.handleStep(ctx, req, r.adapter.StepIn)
	case "Debugger.stepOut":
		r.handleStep(ctx, req, r.adapter.StepOut)
	case "Debugger.continueToLocation":
		r.handleContinueToLocation(ctx, req)
	case "Debugger.getScriptSource":
		r.handleGetScriptSource(ctx, req)
	case "Debugger.getThreadStack":
		r.handleGetThreadStack(ctx, req)
	case "Debugger.evaluateOnCallFrame":
		r.handleEvaluateOnCallFrame(ctx, req)
	case "Runtime.evaluate":
		r.handleRuntimeEvaluate(ctx, req)
	case "Debugger.setVariableValue":
		r.handleSetVariableValue(ctx, req)
	case "Runtime.getProperties":
		r.handleGetProperties(ctx, req)
	case "Debugger.completions":
		r.handleCompletions(ctx, req)
	default:
		r.reply(req.ID, clientproto.Errorf(req.ID, "Unknown command: "+req.Method))
	}
}

func (r *CommandRouter) reply(id int, resp clientproto.Response) {
	if err := clientproto.Send(r.callback, resp); err != nil {
		r.logger.Errorf("router: failed to send response for request %d: %v", id, err)
	}
}

func (r *CommandRouter) activeOrFallback(fallback int) int {
	if id, ok := r.registry.ActiveID(); ok {
		return id
	}
	if id, ok := r.registry.AnyKnownID(); ok {
		return id
	}
	return fallback
}

// --- startup orchestration ---

func (r *CommandRouter) handleEnable(req clientproto.Request) {
	r.mu.Lock()
	first := !r.enabledOnce
	r.enabledOnce = true
	r.mu.Unlock()

	r.reply(req.ID, clientproto.OK(req.ID, nil))
	if first {
		_ = clientproto.Emit(r.callback, clientproto.Event{
			Method: "Debugger.paused",
			Params: map[string]interface{}{
				"callFrames": []interface{}{},
				"reason":     "initial break",
				"data":       map[string]interface{}{},
			},
		})
	}
}

func (r *CommandRouter) handleResume(ctx context.Context, req clientproto.Request) {
	r.mu.Lock()
	first := !r.resumed
	r.resumed = true
	r.mu.Unlock()

	if !first {
		threadID := r.activeOrFallback(-1)
		if err := r.adapter.Continue(ctx, threadID); err != nil {
			r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
			return
		}
		r.reply(req.ID, clientproto.OK(req.ID, nil))
		return
	}

	if err := r.runStartupSequence(ctx); err != nil {
		startupErr := dbgadapter.NewStartupError(string(r.mode), err)
		_ = r.callback.Notify("error", startupErr.UserMessage())
		r.reply(req.ID, clientproto.Errorf(req.ID, startupErr.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

func (r *CommandRouter) runStartupSequence(ctx context.Context) error {
	var err error
	if r.mode == config.Attach {
		err = r.adapter.Attach(ctx, r.arguments)
	} else {
		err = r.adapter.Launch(ctx, r.arguments)
	}
	if err != nil {
		return err
	}

	if !r.adapter.IsReadyForBreakpoints() {
		select {
		case <-r.initializedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.flushBufferedBreakpoints(ctx)

	if err := r.adapter.SetExceptionBreakpoints(ctx, r.flags.ExceptionFilters()); err != nil {
		return err
	}
	if r.adapter.Capabilities().SupportsConfigurationDoneRequest {
		if err := r.adapter.ConfigurationDone(ctx); err != nil {
			return err
		}
	}
	r.flags.SetConfigDoneSent(true)
	r.flags.SetAdapterReady(true)
	return nil
}

// flushBufferedBreakpoints bulk-syncs every path with a buffered request,
// one setBreakpoints round per file, then replies to each deferred request.
// A BreakpointMismatch for one file only fails the requests in that file's
// group; it does not abort the rest of startup.
func (r *CommandRouter) flushBufferedBreakpoints(ctx context.Context) {
	r.mu.Lock()
	buffered := r.buffered
	r.buffered = nil
	r.mu.Unlock()

	byPath := make(map[string][]bufferedBreakpoint)
	var order []string
	for _, b := range buffered {
		if _, ok := byPath[b.path]; !ok {
			order = append(order, b.path)
		}
		byPath[b.path] = append(byPath[b.path], b)
	}

	for _, path := range order {
		group := byPath[path]
		if err := r.ledger.SyncFile(ctx, path); err != nil {
			r.logger.Errorf("router: breakpoint sync for %q failed: %v", path, err)
			for _, b := range group {
				r.reply(b.id, clientproto.Errorf(b.id, err.Error()))
			}
			continue
		}
		for _, b := range group {
			rec, ok := r.ledger.Lookup(b.handle)
			if !ok {
				r.reply(b.id, clientproto.Errorf(b.id, "breakpoint mismatch for "+path))
				continue
			}
			r.replyBreakpointStaged(b.id, rec)
		}
	}
}

func (r *CommandRouter) replyBreakpointStaged(id int, rec breakpoint.Record) {
	bpID := ""
	if rec.ID != nil {
		bpID = *rec.ID
	}
	r.reply(id, clientproto.OK(id, setBreakpointResult{
		BreakpointID: bpID,
		Locations:    []translate.Location{{ScriptID: rec.Path, LineNumber: rec.Line - 1, ColumnNumber: 0}},
		Resolved:     rec.Resolved,
	}))
}

// --- steady-state handlers ---

type setBreakpointByURLParams struct {
	URL        string `json:"url"`
	LineNumber int    `json:"lineNumber"`
	Condition  string `json:"condition,omitempty"`
}

type setBreakpointResult struct {
	BreakpointID string              `json:"breakpointId"`
	Locations    []translate.Location `json:"locations"`
	Resolved     bool                `json:"resolved"`
}

func (r *CommandRouter) handleSetBreakpointByURL(ctx context.Context, req clientproto.Request) {
	var params setBreakpointByURLParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	adapterLine := params.LineNumber + 1

	r.mu.Lock()
	resumed := r.resumed
	r.mu.Unlock()

	handle := r.ledger.Stage(params.URL, adapterLine, params.Condition)
	if !resumed {
		r.mu.Lock()
		r.buffered = append(r.buffered, bufferedBreakpoint{id: req.ID, path: params.URL, handle: handle})
		r.mu.Unlock()
		return
	}

	if err := r.ledger.SyncFile(ctx, params.URL); err != nil {
		r.logger.Errorf("router: breakpoint sync for %q failed: %v", params.URL, err)
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	rec, ok := r.ledger.Lookup(handle)
	if !ok {
		r.reply(req.ID, clientproto.Errorf(req.ID, "breakpoint mismatch for "+params.URL))
		return
	}
	r.replyBreakpointStaged(req.ID, rec)
}

type removeBreakpointParams struct {
	BreakpointID string `json:"breakpointId"`
}

func (r *CommandRouter) handleRemoveBreakpoint(ctx context.Context, req clientproto.Request) {
	var params removeBreakpointParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	path, ok := r.ledger.Remove(params.BreakpointID)
	if !ok {
		r.reply(req.ID, clientproto.OK(req.ID, nil))
		return
	}
	if err := r.ledger.SyncFile(ctx, path); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type setPauseOnExceptionsParams struct {
	State string `json:"state"`
}

func (r *CommandRouter) handleSetPauseOnExceptions(req clientproto.Request) {
	var params setPauseOnExceptionsParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	filters := state.FiltersForState(params.State)
	r.flags.SetExceptionFilters(filters)
	r.reply(req.ID, clientproto.OK(req.ID, nil))

	if r.flags.ConfigDoneSent() {
		r.dispatchExceptionFilters(filters)
	}
}

// dispatchExceptionFilters applies switchMap "latest wins" semantics: a
// newer filter update cancels whichever setExceptionBreakpoints call is
// still in flight.
func (r *CommandRouter) dispatchExceptionFilters(filters []string) {
	r.exceptionMu.Lock()
	if r.exceptionCancel != nil {
		r.exceptionCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.exceptionCancel = cancel
	r.exceptionMu.Unlock()

	go func() {
		if err := r.adapter.SetExceptionBreakpoints(ctx, filters); err != nil && ctx.Err() == nil {
			r.logger.Errorf("router: setExceptionBreakpoints failed: %v", err)
		}
	}()
}

func (r *CommandRouter) handlePause(ctx context.Context, req clientproto.Request) {
	threadID := r.activeOrFallback(-1)
	if err := r.adapter.Pause(ctx, threadID); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.registry.ClearActive()
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type selectThreadParams struct {
	ThreadID int `json:"threadId"`
}

func (r *CommandRouter) handleSelectThread(req clientproto.Request) {
	var params selectThreadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	r.registry.SetActive(params.ThreadID)
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type stepFunc func(ctx context.Context, threadID int) error

func (r *CommandRouter) handleStep(ctx context.Context, req clientproto.Request, step stepFunc) {
	id, ok := r.registry.ActiveID()
	if !ok {
		r.reply(req.ID, clientproto.Errorf(req.ID, "No paused thread to step"))
		return
	}
	if err := step(ctx, id); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type continueToLocationParams struct {
	Location struct {
		ScriptID   string `json:"scriptId"`
		LineNumber int    `json:"lineNumber"`
	} `json:"location"`
}

func (r *CommandRouter) handleContinueToLocation(ctx context.Context, req clientproto.Request) {
	var params continueToLocationParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	if err := r.files.Register(ctx, params.Location.ScriptID); err != nil {
		r.logger.Errorf("router: failed to register %q with file cache: %v", params.Location.ScriptID, err)
	}
	id, ok := r.registry.ActiveID()
	if !ok {
		r.reply(req.ID, clientproto.Errorf(req.ID, "No paused thread to continue"))
		return
	}
	err := r.adapter.ContinueToLocation(ctx, session.ContinueToLocationArgs{
		ThreadId: id,
		Line:     params.Location.LineNumber + 1,
		Path:     params.Location.ScriptID,
	})
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type getScriptSourceParams struct {
	ScriptID string `json:"scriptId"`
}

func (r *CommandRouter) handleGetScriptSource(ctx context.Context, req clientproto.Request) {
	var params getScriptSourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	source, err := r.files.Source(ctx, params.ScriptID)
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, map[string]string{"scriptSource": source}))
}

type getThreadStackParams struct {
	ThreadID int `json:"threadId"`
}

func (r *CommandRouter) handleGetThreadStack(ctx context.Context, req clientproto.Request) {
	var params getThreadStackParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	info, ok := r.registry.Get(params.ThreadID)
	if !ok || info.State != thread.Paused {
		r.reply(req.ID, clientproto.Errorf(req.ID, "No paused thread to fetch a stack for"))
		return
	}
	if info.CallStackLoaded {
		// Already have the full stack; the cached thread.Frame view lacks
		// the scope chain of a fresh fetch, acceptable for a repeat request
		// whose caller already rendered scopes from the first response.
		r.reply(req.ID, clientproto.OK(req.ID, map[string]interface{}{"callFrames": toClientFrames(info.CallFrames)}))
		return
	}
	frames, clientFrames, err := translate.BuildCallFrames(ctx, r.adapter, params.ThreadID, 0)
	if err != nil {
		r.logger.Errorf("router: %v", err)
		r.reply(req.ID, clientproto.OK(req.ID, map[string]interface{}{"callFrames": []interface{}{}}))
		return
	}
	r.registry.MarkPaused(params.ThreadID, info.StopReason, frames, true)
	r.reply(req.ID, clientproto.OK(req.ID, map[string]interface{}{"callFrames": clientFrames}))
}

func toClientFrames(frames []thread.Frame) []translate.ClientCallFrame {
	out := make([]translate.ClientCallFrame, len(frames))
	for i, f := range frames {
		out[i] = translate.ClientCallFrame{
			FunctionName: f.FunctionName,
			Location:     translate.Location{ScriptID: f.Path, LineNumber: f.Line, ColumnNumber: f.Column},
			HasSource:    f.Path != "" && f.Path != "N/A",
		}
	}
	return out
}

type evaluateOnCallFrameParams struct {
	CallFrameID string `json:"callFrameId"`
	Expression  string `json:"expression"`
}

type remoteObject struct {
	Type     string `json:"type,omitempty"`
	Value    string `json:"value,omitempty"`
	ObjectID string `json:"objectId,omitempty"`
}

func toRemoteObject(result session.EvaluateResult) map[string]interface{} {
	obj := remoteObject{Type: result.Type, Value: result.Result}
	if result.VariablesReference > 0 {
		obj.ObjectID = strconv.Itoa(result.VariablesReference)
	}
	return map[string]interface{}{"result": obj}
}

func (r *CommandRouter) handleEvaluateOnCallFrame(ctx context.Context, req clientproto.Request) {
	var params evaluateOnCallFrameParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	frameID, err := strconv.Atoi(params.CallFrameID)
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid callFrameId: "+params.CallFrameID))
		return
	}
	result, err := r.adapter.Evaluate(ctx, session.EvaluateArgs{Expression: params.Expression, FrameId: frameID, Context: "watch"})
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, toRemoteObject(result)))
}

type runtimeEvaluateParams struct {
	Expression string `json:"expression"`
}

func (r *CommandRouter) handleRuntimeEvaluate(ctx context.Context, req clientproto.Request) {
	var params runtimeEvaluateParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	result, err := r.adapter.Evaluate(ctx, session.EvaluateArgs{Expression: params.Expression, Context: "repl"})
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, toRemoteObject(result)))
}

type setVariableValueParams struct {
	CallFrameID  string `json:"callFrameId"`
	VariableName string `json:"variableName"`
	NewValue     struct {
		Value string `json:"value"`
	} `json:"newValue"`
}

func (r *CommandRouter) handleSetVariableValue(ctx context.Context, req clientproto.Request) {
	var params setVariableValueParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	ref, err := strconv.Atoi(params.CallFrameID)
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid callFrameId: "+params.CallFrameID))
		return
	}
	if _, err := r.adapter.SetVariable(ctx, session.SetVariableArgs{VariablesReference: ref, Name: params.VariableName, Value: params.NewValue.Value}); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, nil))
}

type getPropertiesParams struct {
	ObjectID string `json:"objectId"`
}

type propertyDescriptor struct {
	Name  string       `json:"name"`
	Value remoteObject `json:"value"`
}

func (r *CommandRouter) handleGetProperties(ctx context.Context, req clientproto.Request) {
	var params getPropertiesParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	ref, err := strconv.Atoi(params.ObjectID)
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid objectId: "+params.ObjectID))
		return
	}
	result, err := r.adapter.Variables(ctx, ref)
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	descriptors := make([]propertyDescriptor, 0, len(result.Variables))
	for _, v := range result.Variables {
		descriptors = append(descriptors, propertyDescriptor{
			Name:  v.Name,
			Value: remoteObject{Type: v.Type, Value: v.Value, ObjectID: nonZeroRef(v.VariablesReference)},
		})
	}
	r.reply(req.ID, clientproto.OK(req.ID, map[string]interface{}{"result": descriptors}))
}

func nonZeroRef(ref int) string {
	if ref == 0 {
		return ""
	}
	return strconv.Itoa(ref)
}

type completionsParams struct {
	CallFrameID string `json:"callFrameId,omitempty"`
	Expression  string `json:"expression"`
}

func (r *CommandRouter) handleCompletions(ctx context.Context, req clientproto.Request) {
	var params completionsParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, "invalid params: "+err.Error()))
		return
	}
	frameID := 0
	if params.CallFrameID != "" {
		if id, err := strconv.Atoi(params.CallFrameID); err == nil {
			frameID = id
		}
	}
	result, err := r.adapter.Completions(ctx, session.CompletionsArgs{FrameId: frameID, Text: params.Expression, Column: len(params.Expression) + 1})
	if err != nil {
		r.reply(req.ID, clientproto.Errorf(req.ID, err.Error()))
		return
	}
	r.reply(req.ID, clientproto.OK(req.ID, result))
}
