// Package session wraps a raw transport.Transport in the typed adapter
// vocabulary: one method per adapter command, each decoding its response
// body into the shape callers actually want, plus the capability cache
// populated once `initialize` resolves.
package session

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/transport"
)

// AdapterSession is the typed façade router.CommandRouter and
// translate.EventTranslator are built on. It owns no session/thread state of
// its own beyond the capability cache; everything else lives in the
// shared state package.
type AdapterSession struct {
	transport    transport.Transport
	capabilities *capabilityStore
}

// New wraps t in an AdapterSession.
func New(t transport.Transport) *AdapterSession {
	return &AdapterSession{
		transport:    t,
		capabilities: newCapabilityStore(),
	}
}

// Transport exposes the underlying transport for callers (e.g. the bridge)
// that need Events/ServerErrors/Exit directly.
func (s *AdapterSession) Transport() transport.Transport { return s.transport }

// Capabilities returns the cached capability set. Before initialize resolves
// every field is false.
func (s *AdapterSession) Capabilities() Capabilities { return s.capabilities.get() }

// IsReadyForBreakpoints reports whether the adapter has declared itself
// ready to accept `setBreakpointsRequest` calls, consulted by the router
// before flushing breakpoints buffered prior to the first resume.
func (s *AdapterSession) IsReadyForBreakpoints() bool {
	// The adapter has no dedicated "ready" capability; readiness is implied
	// by initialize having resolved at all, which is exactly what the
	// capability cache tracks (it starts zero-valued and is only ever
	// overwritten once, from the initialize response body).
	return s.capabilities.value.Load() != nil
}

func doRequest[T any](ctx context.Context, t transport.Transport, command string, arguments interface{}) (T, error) {
	var zero T
	resp, err := t.Send(ctx, command, arguments)
	if err != nil {
		return zero, err
	}
	var result T
	if len(resp.Body) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return zero, errors.Wrapf(err, "failed to decode %q response body", command)
	}
	return result, nil
}

func doVoidRequest(ctx context.Context, t transport.Transport, command string, arguments interface{}) error {
	_, err := t.Send(ctx, command, arguments)
	return err
}

// InitializeArgs is the request body for `initialize`.
type InitializeArgs struct {
	ClientID                     string `json:"clientID,omitempty"`
	AdapterID                    string `json:"adapterID,omitempty"`
	LinesStartAt1                bool   `json:"linesStartAt1"`
	ColumnsStartAt1              bool   `json:"columnsStartAt1"`
	PathFormat                   string `json:"pathFormat,omitempty"`
	SupportsVariableType         bool   `json:"supportsVariableType,omitempty"`
	SupportsRunInTerminalRequest bool   `json:"supportsRunInTerminalRequest,omitempty"`
}

// Initialize sends `initialize` and caches the returned Capabilities as
// soon as the response arrives. Nothing overwrites the cache afterwards;
// the `initialized` event carries no capability data.
func (s *AdapterSession) Initialize(ctx context.Context, args InitializeArgs) (Capabilities, error) {
	caps, err := doRequest[Capabilities](ctx, s.transport, "initialize", args)
	if err != nil {
		return Capabilities{}, err
	}
	s.capabilities.set(&caps)
	return caps, nil
}

// Launch sends `launch` with adapter-specific arguments.
func (s *AdapterSession) Launch(ctx context.Context, arguments interface{}) error {
	return doVoidRequest(ctx, s.transport, "launch", arguments)
}

// Attach sends `attach` with adapter-specific arguments.
func (s *AdapterSession) Attach(ctx context.Context, arguments interface{}) error {
	return doVoidRequest(ctx, s.transport, "attach", arguments)
}

// SetBreakpointsArgs is the request body for `setBreakpoints`: a full,
// bulk replacement of every breakpoint in one source file. Lines is sent
// alongside Breakpoints for adapters that only understand the older
// line-array shape.
type SetBreakpointsArgs struct {
	Source      Source                `json:"source"`
	Lines       []int                 `json:"lines"`
	Breakpoints []SourceBreakpointArg `json:"breakpoints"`
}

// SourceBreakpointArg is one breakpoint request line (1-based, adapter
// coordinates).
type SourceBreakpointArg struct {
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
	HitCondition string `json:"hitCondition,omitempty"`
	LogMessage string `json:"logMessage,omitempty"`
}

// SetBreakpoints replaces every breakpoint for one source file.
func (s *AdapterSession) SetBreakpoints(ctx context.Context, args SetBreakpointsArgs) (SetBreakpointsResult, error) {
	return doRequest[SetBreakpointsResult](ctx, s.transport, "setBreakpoints", args)
}

// SetExceptionBreakpointsArgs is the request body for
// `setExceptionBreakpoints`.
type SetExceptionBreakpointsArgs struct {
	Filters []string `json:"filters"`
}

// SetExceptionBreakpoints replaces the active exception filter set.
func (s *AdapterSession) SetExceptionBreakpoints(ctx context.Context, filters []string) error {
	return doVoidRequest(ctx, s.transport, "setExceptionBreakpoints", SetExceptionBreakpointsArgs{Filters: filters})
}

// ConfigurationDone sends `configurationDone`, the last step of the startup
// sequence before the adapter starts running.
func (s *AdapterSession) ConfigurationDone(ctx context.Context) error {
	return doVoidRequest(ctx, s.transport, "configurationDone", nil)
}

// ThreadArgs is the request body shared by `continue`, `pause`, `next`,
// `stepIn` and `stepOut`.
type ThreadArgs struct {
	ThreadId int `json:"threadId"`
}

// Continue resumes a thread (or, adapter-dependent, all threads).
func (s *AdapterSession) Continue(ctx context.Context, threadID int) error {
	return doVoidRequest(ctx, s.transport, "continue", ThreadArgs{ThreadId: threadID})
}

// Pause suspends a thread.
func (s *AdapterSession) Pause(ctx context.Context, threadID int) error {
	return doVoidRequest(ctx, s.transport, "pause", ThreadArgs{ThreadId: threadID})
}

// Next steps over on a thread.
func (s *AdapterSession) Next(ctx context.Context, threadID int) error {
	return doVoidRequest(ctx, s.transport, "next", ThreadArgs{ThreadId: threadID})
}

// StepIn steps into on a thread.
func (s *AdapterSession) StepIn(ctx context.Context, threadID int) error {
	return doVoidRequest(ctx, s.transport, "stepIn", ThreadArgs{ThreadId: threadID})
}

// StepOut steps out on a thread.
func (s *AdapterSession) StepOut(ctx context.Context, threadID int) error {
	return doVoidRequest(ctx, s.transport, "stepOut", ThreadArgs{ThreadId: threadID})
}

// StackTraceArgs is the request body for `stackTrace`.
type StackTraceArgs struct {
	ThreadId   int `json:"threadId"`
	StartFrame int `json:"startFrame,omitempty"`
	Levels     int `json:"levels,omitempty"`
}

// StackTrace fetches the call stack for a paused thread.
func (s *AdapterSession) StackTrace(ctx context.Context, args StackTraceArgs) (StackTraceResult, error) {
	return doRequest[StackTraceResult](ctx, s.transport, "stackTrace", args)
}

// ScopesArgs is the request body for `scopes`.
type ScopesArgs struct {
	FrameId int `json:"frameId"`
}

// Scopes fetches the variable scopes of one stack frame.
func (s *AdapterSession) Scopes(ctx context.Context, frameID int) (ScopesResult, error) {
	return doRequest[ScopesResult](ctx, s.transport, "scopes", ScopesArgs{FrameId: frameID})
}

// VariablesArgs is the request body for `variables`.
type VariablesArgs struct {
	VariablesReference int `json:"variablesReference"`
}

// Variables fetches the child variables of a scope or structured value.
func (s *AdapterSession) Variables(ctx context.Context, variablesReference int) (VariablesResult, error) {
	return doRequest[VariablesResult](ctx, s.transport, "variables", VariablesArgs{VariablesReference: variablesReference})
}

// SetVariableArgs is the request body for `setVariable`.
type SetVariableArgs struct {
	VariablesReference int    `json:"variablesReference"`
	Name               string `json:"name"`
	Value              string `json:"value"`
}

// SetVariable assigns a new value to an existing variable.
func (s *AdapterSession) SetVariable(ctx context.Context, args SetVariableArgs) (SetVariableResult, error) {
	return doRequest[SetVariableResult](ctx, s.transport, "setVariable", args)
}

// EvaluateArgs is the request body for `evaluate`.
type EvaluateArgs struct {
	Expression string `json:"expression"`
	FrameId    int    `json:"frameId,omitempty"`
	Context    string `json:"context,omitempty"`
}

// Evaluate evaluates an expression in the context of a stack frame.
func (s *AdapterSession) Evaluate(ctx context.Context, args EvaluateArgs) (EvaluateResult, error) {
	return doRequest[EvaluateResult](ctx, s.transport, "evaluate", args)
}

// CompletionsArgs is the request body for `completions`.
type CompletionsArgs struct {
	FrameId int    `json:"frameId,omitempty"`
	Text    string `json:"text"`
	Column  int    `json:"column"`
}

// Completions fetches completion candidates for a console expression.
func (s *AdapterSession) Completions(ctx context.Context, args CompletionsArgs) (CompletionsResult, error) {
	if !s.Capabilities().SupportsCompletionsRequest {
		return CompletionsResult{}, nil
	}
	return doRequest[CompletionsResult](ctx, s.transport, "completions", args)
}

// ContinueToLocationArgs is the request body for the nonstandard
// `continueToLocation` extension some adapters expose.
type ContinueToLocationArgs struct {
	ThreadId int    `json:"threadId"`
	Line     int    `json:"line"`
	Path     string `json:"path"`
}

// ContinueToLocation resumes execution until the given source location.
func (s *AdapterSession) ContinueToLocation(ctx context.Context, args ContinueToLocationArgs) error {
	return doVoidRequest(ctx, s.transport, "continueToLocation", args)
}
