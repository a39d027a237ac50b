package session

import "sync/atomic"

// Capabilities mirrors the body of the adapter's response to `initialize`.
// AdapterSession.Capabilities returns every field false until that response
// has been received, so callers never have to nil-check.
type Capabilities struct {
	SupportsConfigurationDoneRequest      bool `json:"supportsConfigurationDoneRequest"`
	SupportsFunctionBreakpoints           bool `json:"supportsFunctionBreakpoints"`
	SupportsConditionalBreakpoints        bool `json:"supportsConditionalBreakpoints"`
	SupportsHitConditionalBreakpoints     bool `json:"supportsHitConditionalBreakpoints"`
	SupportsEvaluateForHovers             bool `json:"supportsEvaluateForHovers"`
	SupportsStepBack                      bool `json:"supportsStepBack"`
	SupportsSetVariable                   bool `json:"supportsSetVariable"`
	SupportsRestartFrame                  bool `json:"supportsRestartFrame"`
	SupportsCompletionsRequest            bool `json:"supportsCompletionsRequest"`
	SupportsModulesRequest                bool `json:"supportsModulesRequest"`
	SupportsExceptionOptions              bool `json:"supportsExceptionOptions"`
	SupportsValueFormattingOptions        bool `json:"supportsValueFormattingOptions"`
	SupportsExceptionInfoRequest          bool `json:"supportsExceptionInfoRequest"`
	SupportTerminateDebuggee              bool `json:"supportTerminateDebuggee"`
	SupportsDelayedStackTraceLoading      bool `json:"supportsDelayedStackTraceLoading"`
	SupportsLoadedSourcesRequest          bool `json:"supportsLoadedSourcesRequest"`
	SupportsLogPoints                     bool `json:"supportsLogPoints"`
	SupportsTerminateThreadsRequest       bool `json:"supportsTerminateThreadsRequest"`
	SupportsSetExpression                bool `json:"supportsSetExpression"`
	SupportsTerminateRequest              bool `json:"supportsTerminateRequest"`
	SupportsDataBreakpoints               bool `json:"supportsDataBreakpoints"`
	SupportsReadMemoryRequest             bool `json:"supportsReadMemoryRequest"`
	SupportsDisassembleRequest            bool `json:"supportsDisassembleRequest"`
	SupportsCancelRequest                 bool `json:"supportsCancelRequest"`
	SupportsBreakpointLocationsRequest    bool `json:"supportsBreakpointLocationsRequest"`
	SupportsClipboardContext              bool `json:"supportsClipboardContext"`
}

// capabilityStore holds the capability struct behind an atomic pointer so
// concurrent accessors (router commands, event translation) never race with
// the one write that happens when `initialize` resolves.
type capabilityStore struct {
	value atomic.Pointer[Capabilities]
}

func newCapabilityStore() *capabilityStore {
	s := &capabilityStore{}
	s.value.Store(&Capabilities{})
	return s
}

func (s *capabilityStore) set(c *Capabilities) {
	if c == nil {
		c = &Capabilities{}
	}
	s.value.Store(c)
}

func (s *capabilityStore) get() Capabilities {
	return *s.value.Load()
}
