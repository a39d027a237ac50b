package session

import "github.com/goccy/go-json"

// Source identifies a script on the adapter side.
type Source struct {
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
}

// StackFrame is one adapter-protocol frame, 1-based line/column per the
// `linesStartAt1`/`columnsStartAt1` capabilities we request at initialize.
type StackFrame struct {
	Id     int     `json:"id"`
	Name   string  `json:"name"`
	Source *Source `json:"source,omitempty"`
	Line   int     `json:"line"`
	Column int     `json:"column"`
}

// StackTraceResult is the body of a `stackTrace` response.
type StackTraceResult struct {
	StackFrames []StackFrame `json:"stackFrames"`
	TotalFrames int          `json:"totalFrames,omitempty"`
}

// Scope is one entry of a `scopes` response.
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
	Expensive          bool   `json:"expensive,omitempty"`
}

// ScopesResult is the body of a `scopes` response.
type ScopesResult struct {
	Scopes []Scope `json:"scopes"`
}

// Variable is one entry of a `variables` response.
type Variable struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// VariablesResult is the body of a `variables` response.
type VariablesResult struct {
	Variables []Variable `json:"variables"`
}

// Breakpoint is one entry the adapter returns from `setBreakpoints`.
type Breakpoint struct {
	Id           *int   `json:"id,omitempty"`
	Verified     bool   `json:"verified"`
	Line         *int   `json:"line,omitempty"`
	OriginalLine *int   `json:"originalLine,omitempty"`
	Message      string `json:"message,omitempty"`
}

// SetBreakpointsResult is the body of a `setBreakpoints` response.
type SetBreakpointsResult struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

// CompletionItem is one entry of a `completions` response.
type CompletionItem struct {
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
	Type  string `json:"type,omitempty"`
}

// CompletionsResult is the body of a `completions` response.
type CompletionsResult struct {
	Targets []CompletionItem `json:"targets"`
}

// EvaluateResult is the body of an `evaluate` response.
type EvaluateResult struct {
	Result             string `json:"result"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// SetVariableResult is the body of a `setVariable` response.
type SetVariableResult struct {
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// InitializeResult is the body of the `initialize` response: the adapter's
// Capabilities.
type InitializeResult = Capabilities

// StoppedEventBody is the body of a `stopped` event.
type StoppedEventBody struct {
	Reason           string `json:"reason"`
	ThreadId         int    `json:"threadId"`
	AllThreadsStopped bool  `json:"allThreadsStopped"`
	Text             string `json:"text,omitempty"`
}

// ContinuedEventBody is the body of a `continued` event.
type ContinuedEventBody struct {
	ThreadId            int  `json:"threadId"`
	AllThreadsContinued bool `json:"allThreadsContinued"`
}

// ThreadEventBody is the body of a `thread` event.
type ThreadEventBody struct {
	Reason   string `json:"reason"` // "started" | "exited"
	ThreadId int    `json:"threadId"`
}

// OutputEventBody is the body of an `output` event.
type OutputEventBody struct {
	Category string          `json:"category,omitempty"`
	Output   string          `json:"output"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// NotificationData is the shape carried by `nuclide_notification` output
// events.
type NotificationData struct {
	Type string `json:"type"`
}

// BreakpointEventBody is the body of a `breakpoint` event. Source is not
// part of the base protocol breakpoint shape, but the adapters this
// translator targets attach it so an id-less event can still be matched
// by path and line.
type BreakpointEventBody struct {
	Reason     string     `json:"reason"`
	Breakpoint Breakpoint `json:"breakpoint"`
	Source     *Source    `json:"source,omitempty"`
	// NuclideHitCount is a nonstandard extension carried by some adapters to
	// report updated hit counts without a full re-sync.
	NuclideHitCount *int `json:"nuclide_hitCount,omitempty"`
}
