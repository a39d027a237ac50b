// Package breakpoint implements the canonical breakpoint ledger: the
// client stages breakpoints one line at a time, the adapter requires a
// full bulk replacement per source file, and the ledger is what
// reconciles the two.
package breakpoint

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/internal/pointer"
)

// Record is one canonical breakpoint. At most one Record exists per
// (Path, Line) pair in a Ledger.
type Record struct {
	ID        *string
	Path      string
	Line      int
	Condition string
	HitCount  int
	Resolved  bool
	seq       int64
}

// Handle identifies a staged Record for later response correlation. Unlike
// matching on (Path, Line), it stays valid across a sync round that has the
// adapter relocate the breakpoint's line.
type Handle struct {
	Path string
	seq  int64
}

// AdapterClient is the narrow slice of session.AdapterSession the ledger
// needs. Defined here, at the point of use, so this package never imports
// package session.
type AdapterClient interface {
	SetBreakpoints(ctx context.Context, source string, records []Record) (adapterBreakpoints []AdapterBreakpoint, err error)
}

// AdapterBreakpoint is the per-record slice of a setBreakpoints response,
// independent of the session package's wire-shaped Breakpoint type so this
// package stays free of that import.
type AdapterBreakpoint struct {
	ID           *string
	Verified     bool
	Line         *int
	OriginalLine *int
	Message      string
}

// ResolvedEvent is emitted to callers via the OnResolved callback when a
// record transitions to resolved, to back a `Debugger.breakpointResolved`
// client event.
type ResolvedEvent struct {
	Path string
	Line int
	ID   string
}

// HitCountEvent is emitted when a record's hit count changes, to back a
// `Debugger.breakpointHitCountChanged` client event.
type HitCountEvent struct {
	Path     string
	Line     int
	ID       string
	HitCount int
}

// Ledger is the canonical breakpoint set for one session. Every method takes
// mu, so CommandRouter and EventTranslator can call it from their own
// goroutines. SyncFile releases mu during the adapter round-trip and skips
// reconciliation if the number of the file's records changed meanwhile.
type Ledger struct {
	mu         sync.RWMutex
	byPath     map[string][]*Record
	nextID     int64 // synthetic id counter
	nextSeq    int64 // Handle correlation counter
	client     AdapterClient
	onResolved func(ResolvedEvent)
	onHitCount func(HitCountEvent)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithOnResolved registers the callback invoked when a record first
// resolves.
func WithOnResolved(fn func(ResolvedEvent)) Option {
	return func(l *Ledger) { l.onResolved = fn }
}

// WithOnHitCount registers the callback invoked when a record's hit count
// changes.
func WithOnHitCount(fn func(HitCountEvent)) Option {
	return func(l *Ledger) { l.onHitCount = fn }
}

// New creates a Ledger bound to client, the adapter-facing collaborator used
// by SyncFile/SyncAll.
func New(client AdapterClient, opts ...Option) *Ledger {
	l := &Ledger{
		byPath: make(map[string][]*Record),
		client: client,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// syntheticID reserves the next synthetic id, prefixed so it can never
// collide with an adapter-issued numeric id stringified without a prefix.
func (l *Ledger) syntheticID() string {
	n := atomic.AddInt64(&l.nextID, 1)
	return "synthetic-" + strconv.FormatInt(n, 10)
}

// Stage creates or finds the record at (path, line): staging on a line
// that already has a record supersedes it in place, losing the prior
// condition — key-by-last-write on (path,line).
func (l *Ledger) Stage(path string, line int, condition string) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := atomic.AddInt64(&l.nextSeq, 1)
	records := l.byPath[path]
	for i, r := range records {
		if r.Line == line {
			records[i] = &Record{ID: r.ID, Path: path, Line: line, Condition: condition, HitCount: r.HitCount, Resolved: r.Resolved, seq: seq}
			return Handle{Path: path, seq: seq}
		}
	}
	l.byPath[path] = append(records, &Record{Path: path, Line: line, Condition: condition, seq: seq})
	return Handle{Path: path, seq: seq}
}

// Lookup resolves a Handle to its current Record. It still matches after a
// sync round has the adapter relocate the breakpoint off the line it was
// staged on.
func (l *Ledger) Lookup(h Handle) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.byPath[h.Path] {
		if r.seq == h.seq {
			return *r, true
		}
	}
	return Record{}, false
}

// Remove drops the record identified by id and reports which file needs
// re-syncing, if the id was found.
func (l *Ledger) Remove(id string) (path string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for p, records := range l.byPath {
		for i, r := range records {
			if r.ID != nil && *r.ID == id {
				l.byPath[p] = append(records[:i], records[i+1:]...)
				return p, true
			}
		}
	}
	return "", false
}

// RecordsFor returns a snapshot of the records staged for path, in
// insertion order.
func (l *Ledger) RecordsFor(path string) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := l.byPath[path]
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out
}

// Paths returns every path with at least one staged record, used by SyncAll
// after an adapter restart.
func (l *Ledger) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	paths := make([]string, 0, len(l.byPath))
	for p, records := range l.byPath {
		if len(records) > 0 {
			paths = append(paths, p)
		}
	}
	return paths
}

// SyncFile pushes the current record set for path to the adapter via a full
// bulk replacement, then reconciles the response back into the ledger.
func (l *Ledger) SyncFile(ctx context.Context, path string) error {
	l.mu.Lock()
	records := l.byPath[path]
	snapshot := make([]Record, len(records))
	for i, r := range records {
		snapshot[i] = *r
	}
	l.mu.Unlock()

	adapterBreakpoints, err := l.client.SetBreakpoints(ctx, path, snapshot)
	if err != nil {
		return err
	}
	if len(adapterBreakpoints) != len(snapshot) {
		return dbgadapter.NewBreakpointMismatchError(path, len(snapshot), len(adapterBreakpoints))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.byPath[path]
	if len(current) != len(snapshot) {
		// the ledger mutated concurrently with the round-trip (a Stage/Remove
		// landed mid-flight); the positional zip is no longer meaningful, so
		// drop this round's reconciliation rather than mismatch records.
		return nil
	}
	for i, ab := range adapterBreakpoints {
		r := current[i]
		l.applyAdapterBreakpointLocked(r, ab)
	}
	return nil
}

// applyAdapterBreakpointLocked reconciles one adapter-reported breakpoint
// into r from a bulk setBreakpoints round-trip. Caller must hold l.mu. It
// does not fire onResolved: a bulk-sync caller (router.handleSetBreakpointByURL)
// already reports resolution via the resolved field of its own response, so
// a separate event here would be a duplicate. Only the adapter-pushed
// `breakpoint` event path (OnAdapterBreakpointEvent) fires onResolved, for
// resolutions that happen after the response has already gone out.
func (l *Ledger) applyAdapterBreakpointLocked(r *Record, ab AdapterBreakpoint) {
	if r.ID == nil {
		id := l.syntheticID()
		if ab.ID != nil {
			id = *ab.ID
		}
		r.ID = &id
	}
	if ab.Line != nil && *ab.Line != r.Line {
		r.Line = *ab.Line
	}
	if ab.Verified && !r.Resolved {
		r.Resolved = true
	}
}

// SyncAll re-syncs every file that currently has at least one record, used
// after an adapter restart.
func (l *Ledger) SyncAll(ctx context.Context) error {
	for _, path := range l.Paths() {
		if err := l.SyncFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// OnAdapterBreakpointEvent reconciles an adapter-pushed `breakpoint` event
// using id if present, falling back to a (path, originalLine or line) match
// on records that have no id yet. An event that matches no record is
// dropped without being logged.
func (l *Ledger) OnAdapterBreakpointEvent(id *string, path string, line, originalLine *int, verified bool, hitCount *int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.findForEventLocked(id, path, line, originalLine)
	if r == nil {
		return // no match: drop the event
	}
	if verified && !r.Resolved {
		r.Resolved = true
		if l.onResolved != nil {
			l.onResolved(ResolvedEvent{Path: r.Path, Line: r.Line, ID: pointer.Deref(r.ID)})
		}
	}
	if hitCount != nil && *hitCount != r.HitCount {
		r.HitCount = *hitCount
		if l.onHitCount != nil {
			l.onHitCount(HitCountEvent{Path: r.Path, Line: r.Line, ID: pointer.Deref(r.ID), HitCount: r.HitCount})
		}
	}
}

func (l *Ledger) findForEventLocked(id *string, path string, line, originalLine *int) *Record {
	if id != nil {
		for _, records := range l.byPath {
			for _, r := range records {
				if r.ID != nil && *r.ID == *id {
					return r
				}
			}
		}
		return nil
	}
	matchLine := originalLine
	if matchLine == nil {
		matchLine = line
	}
	if matchLine == nil {
		return nil
	}
	for _, r := range l.byPath[path] {
		if r.ID == nil && r.Line == *matchLine {
			return r
		}
	}
	return nil
}
