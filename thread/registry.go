// Package thread implements the ThreadRegistry: per-thread running/paused
// state, active-paused-thread selection, and the frame cache consulted by
// CommandRouter's getThreadStack handler.
package thread

import (
	"strconv"
	"sync"
)

// State is a thread's coarse execution state.
type State string

const (
	Running State = "running"
	Paused  State = "paused"
)

// Frame is a thin client-facing stack frame, enough for ThreadRegistry's
// describe() to report a top-frame address/location without depending on
// the session or translate packages.
type Frame struct {
	FunctionName string
	Path         string
	Line         int
	Column       int
}

// Info is the per-thread record tracked by Registry.
type Info struct {
	ID              int
	State           State
	CallFrames      []Frame
	CallStackLoaded bool // true iff CallFrames reflects a full, unbounded fetch
	StopReason      string
}

// topFrame returns the thread's top frame, or nil if it has none.
func (i Info) topFrame() *Frame {
	if len(i.CallFrames) == 0 {
		return nil
	}
	return &i.CallFrames[0]
}

// Description is the per-thread payload of the client `Debugger.threadsUpdated`
// event.
type Description struct {
	ID              int
	Name            string
	Address         string
	Path            string
	Line            int
	Column          int
	StopReason      string
	HasSource       bool
	OwningProcessID int
}

// Registry tracks every known thread for one session. Every method takes
// mu, so CommandRouter and EventTranslator can both read and write it from
// their own goroutines.
type Registry struct {
	mu                     sync.RWMutex
	threads                map[int]*Info
	pausedThreadID         *int
	pausedThreadIDPrevious *int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{threads: make(map[int]*Info)}
}

// Upsert sets state for every id in ids, creating records as needed. Moving
// a thread to Running resets its cached frames.
func (r *Registry) Upsert(ids []int, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		info, ok := r.threads[id]
		if !ok {
			info = &Info{ID: id}
			r.threads[id] = info
		}
		info.State = state
		if state == Running {
			info.CallFrames = nil
			info.CallStackLoaded = false
		}
	}
}

// MarkPaused records a thread's pause with its fetched frames.
func (r *Registry) MarkPaused(id int, reason string, frames []Frame, fullyLoaded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.threads[id]
	if !ok {
		info = &Info{ID: id}
		r.threads[id] = info
	}
	info.State = Paused
	info.StopReason = reason
	info.CallFrames = frames
	info.CallStackLoaded = fullyLoaded
}

// Remove drops a thread. If it was the active paused thread, active is
// cleared rather than demoted to the previous active.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
	if r.pausedThreadID != nil && *r.pausedThreadID == id {
		r.pausedThreadID = nil
	}
}

// SetActive updates the active paused thread, tracking the previous one so
// EventTranslator can emit a thread-switch banner.
func (r *Registry) SetActive(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pausedThreadID != nil && *r.pausedThreadID != id {
		prev := *r.pausedThreadID
		r.pausedThreadIDPrevious = &prev
	}
	r.pausedThreadID = &id
}

// ClearActive clears the active paused thread without touching the previous
// marker.
func (r *Registry) ClearActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pausedThreadID = nil
}

// ActiveID returns the active paused thread id, if any.
func (r *Registry) ActiveID() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pausedThreadID == nil {
		return 0, false
	}
	return *r.pausedThreadID, true
}

// PreviousActiveID returns the previously-active paused thread id, if one
// has ever existed.
func (r *Registry) PreviousActiveID() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pausedThreadIDPrevious == nil {
		return 0, false
	}
	return *r.pausedThreadIDPrevious, true
}

// Get returns a copy of the thread's Info, if known.
func (r *Registry) Get(id int) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.threads[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// IDs returns every known thread id, in no particular order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.threads))
	for id := range r.threads {
		ids = append(ids, id)
	}
	return ids
}

// AnyKnownID returns an arbitrary known thread id, used as a pause() target
// fallback when no thread is active.
func (r *Registry) AnyKnownID() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.threads {
		return id, true
	}
	return 0, false
}

// Describe produces the client `Debugger.threadsUpdated` payload for every
// known thread.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Description, 0, len(r.threads))
	for id, info := range r.threads {
		d := Description{
			ID:              id,
			Name:            "Thread " + strconv.Itoa(id),
			Path:            "N/A",
			StopReason:      "running",
			OwningProcessID: -1,
		}
		if info.StopReason != "" {
			d.StopReason = info.StopReason
		}
		if top := info.topFrame(); top != nil {
			d.Address = top.FunctionName
			d.Path = top.Path
			d.Line = top.Line
			d.Column = top.Column
			d.HasSource = true
		}
		out = append(out, d)
	}
	return out
}
