// Package state holds session-wide flags CommandRouter owns but that
// EventTranslator also needs to read (e.g. to decide whether a restart
// resync should re-send configurationDone). Factored out so router and
// translate do not need to import one another.
package state

import "sync"

// Flags is the mutable session-wide bookkeeping CommandRouter and
// EventTranslator share. All access goes through its methods; both hold a
// pointer to one instance.
type Flags struct {
	mu               sync.RWMutex
	configDoneSent   bool
	exceptionFilters []string
	adapterReady     bool
}

// New creates a zero-valued Flags: no exception filters, configDoneSent and
// adapterReady both false.
func New() *Flags {
	return &Flags{}
}

// ConfigDoneSent reports whether `configurationDone` has been sent.
func (f *Flags) ConfigDoneSent() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.configDoneSent
}

// SetConfigDoneSent sets the configDoneSent flag.
func (f *Flags) SetConfigDoneSent(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configDoneSent = v
}

// AdapterReady reports whether CommandRouter has finished its startup
// sequence (launch/attach, buffered breakpoint sync, exception filters and
// configurationDone). EventTranslator uses it to tell a restart's
// `initialized` event from the first one.
func (f *Flags) AdapterReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.adapterReady
}

// SetAdapterReady records whether the startup sequence has finished.
func (f *Flags) SetAdapterReady(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adapterReady = v
}

// ExceptionFilters returns a copy of the current filter set.
func (f *Flags) ExceptionFilters() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.exceptionFilters))
	copy(out, f.exceptionFilters)
	return out
}

// SetExceptionFilters replaces the current filter set.
func (f *Flags) SetExceptionFilters(filters []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exceptionFilters = filters
}

// FiltersForState maps a client `setPauseOnExceptions` state string to the
// adapter filter list: "none"→[], "uncaught"→["uncaught"], "all"→["all"].
func FiltersForState(clientState string) []string {
	switch clientState {
	case "uncaught":
		return []string{"uncaught"}
	case "all":
		return []string{"all"}
	default:
		return []string{}
	}
}
