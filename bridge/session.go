// Package bridge wires one adapter transport and one client callback into
// a complete translator session: AdapterSession, BreakpointLedger,
// ThreadRegistry, session flags, CommandRouter, and EventTranslator, plus
// the session-exit multiplexing that disposes everything when the
// debuggee or the adapter process goes away.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/breakpoint"
	"github.com/viant/dbgadapter/clientproto"
	"github.com/viant/dbgadapter/config"
	"github.com/viant/dbgadapter/filecache"
	"github.com/viant/dbgadapter/router"
	"github.com/viant/dbgadapter/session"
	"github.com/viant/dbgadapter/state"
	"github.com/viant/dbgadapter/thread"
	"github.com/viant/dbgadapter/transport"
	"github.com/viant/dbgadapter/translate"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger          dbgadapter.Logger
	files           filecache.FileCache
	isPythonAdapter bool
	terminateDelay  time.Duration
}

// WithLogger overrides the default logger shared by the router and
// translator.
func WithLogger(logger dbgadapter.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFileCache overrides the default afs-backed FileCache.
func WithFileCache(f filecache.FileCache) Option {
	return func(o *options) { o.files = f }
}

// WithPythonAdapter enables the "user request" allThreadsStopped quirk
// EventTranslator applies for Python adapters.
func WithPythonAdapter() Option {
	return func(o *options) { o.isPythonAdapter = true }
}

// WithTerminateDelay overrides the 1-second flush delay applied to a
// `terminated` event before the session is disposed.
func WithTerminateDelay(d time.Duration) Option {
	return func(o *options) { o.terminateDelay = d }
}

// Session is one translator instance bound to one adapter child and one
// client channel, per the glossary's "Session" entry.
type Session struct {
	ID string

	adapter  *session.AdapterSession
	bus      *session.EventBus
	ledger   *breakpoint.Ledger
	registry *thread.Registry
	flags    *state.Flags
	router   *router.CommandRouter
	translator *translate.EventTranslator
	flushDelay time.Duration

	cancel context.CancelFunc

	disposeOnce sync.Once
	done        chan struct{}
}

// NewSession wires a complete session around t (the adapter's transport)
// and cb (the client callback sink). It does not start it; call Start.
func NewSession(t transport.Transport, cb clientproto.Callback, cfg config.Config, opts ...Option) *Session {
	o := &options{
		logger:         dbgadapter.DefaultLogger,
		terminateDelay: time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.files == nil {
		o.files = filecache.New()
	}

	adapter := session.New(t)
	bus := session.NewEventBus(t)
	registry := thread.New()
	flags := state.New()
	ledger := breakpoint.New(router.NewLedgerAdapterClient(adapter),
		breakpoint.WithOnResolved(func(evt breakpoint.ResolvedEvent) {
			_ = clientproto.Emit(cb, clientproto.Event{
				Method: "Debugger.breakpointResolved",
				Params: map[string]interface{}{"breakpointId": evt.ID, "path": evt.Path, "line": evt.Line},
			})
		}),
		breakpoint.WithOnHitCount(func(evt breakpoint.HitCountEvent) {
			_ = clientproto.Emit(cb, clientproto.Event{
				Method: "Debugger.breakpointHitCountChanged",
				Params: map[string]interface{}{"breakpointId": evt.ID, "path": evt.Path, "line": evt.Line, "hitCount": evt.HitCount},
			})
		}),
	)

	r := router.New(adapter, bus, ledger, registry, flags, cb, cfg, router.WithLogger(o.logger), router.WithFileCache(o.files))
	tr := translate.New(adapter, bus, ledger, registry, flags, cb, o.logger, o.isPythonAdapter)

	return &Session{
		ID:             uuid.NewString(),
		adapter:        adapter,
		bus:            bus,
		ledger:         ledger,
		registry:       registry,
		flags:          flags,
		router:         r,
		translator:     tr,
		flushDelay:     o.terminateDelay,
		done:           make(chan struct{}),
	}
}

// Router exposes the CommandRouter, the entry point for client commands.
func (s *Session) Router() *router.CommandRouter { return s.router }

// Start begins the translator's event loop and the router's capability
// handshake, and starts observing session-end conditions.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	exited := s.bus.Subscribe("exited")
	terminated := s.bus.Subscribe("terminated")
	go s.translator.Run(ctx)
	if err := s.router.Start(ctx); err != nil {
		cancel()
		return err
	}
	go s.observeSessionEnd(ctx, exited, terminated)
	return nil
}

// observeSessionEnd multiplexes the three adapter streams that signal a
// session is over: a debuggee `exited` event, a `terminated` event (with a
// flush delay to let trailing output drain), and the adapter transport
// itself exiting.
func (s *Session) observeSessionEnd(ctx context.Context, exited, terminated <-chan *dbgadapter.Event) {
	adapterExit := s.adapter.Transport().Exit()

	terminateTimer := (<-chan time.Time)(nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-exited:
			s.Dispose()
			return
		case <-terminated:
			timer := time.NewTimer(s.flushDelay)
			defer timer.Stop()
			terminateTimer = timer.C
		case <-terminateTimer:
			s.Dispose()
			return
		case <-adapterExit:
			s.Dispose()
			return
		}
	}
}

// Dispose cancels the session context, which stops the translator and the
// session-end watcher, and closes the adapter transport, which fails every
// pending adapter future with TransportClosedError. Subscriptions on the
// EventBus are not removed. A second Dispose is a no-op.
func (s *Session) Dispose() {
	s.disposeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		_ = s.adapter.Transport().Close()
		close(s.done)
	})
}

// Done closes once the session has been disposed.
func (s *Session) Done() <-chan struct{} { return s.done }
