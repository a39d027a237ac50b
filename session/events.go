package session

import (
	"sync"

	"github.com/viant/dbgadapter"
	"github.com/viant/dbgadapter/internal/collection"
	"github.com/viant/dbgadapter/transport"
)

// eventSubscriberCapacity bounds each subscriber's channel; a slow
// subscriber drops events rather than stalling the pump. No replay: this
// is best-effort fan-out.
const eventSubscriberCapacity = 32

// EventBus fans adapter events out to per-name subscribers (e.g.
// "stopped", "continued", "output") plus any number of catch-all
// subscribers, without replaying history to late joiners.
type EventBus struct {
	byName *collection.SyncMap[string, []chan *dbgadapter.Event]
	mu     sync.Mutex // guards append/remove against concurrent Subscribe/pump
	all    []chan *dbgadapter.Event
}

// NewEventBus starts pumping t's event stream into the bus. The bus stops
// pumping, and closes every subscriber channel, once t.Events() closes.
func NewEventBus(t transport.Transport) *EventBus {
	bus := &EventBus{byName: collection.NewSyncMap[string, []chan *dbgadapter.Event]()}
	go bus.pump(t)
	return bus
}

func (b *EventBus) pump(t transport.Transport) {
	for event := range t.Events() {
		b.publish(event)
	}
	b.closeAll()
}

func (b *EventBus) publish(event *dbgadapter.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.byName.Get(event.Event); ok {
		for _, ch := range subs {
			trySend(ch, event)
		}
	}
	for _, ch := range b.all {
		trySend(ch, event)
	}
}

func trySend(ch chan *dbgadapter.Event, event *dbgadapter.Event) {
	select {
	case ch <- event:
	default:
		// subscriber is behind; drop rather than block the pump.
	}
}

// Subscribe returns a channel of every future event named name.
func (b *EventBus) Subscribe(name string) <-chan *dbgadapter.Event {
	ch := make(chan *dbgadapter.Event, eventSubscriberCapacity)
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, _ := b.byName.Get(name)
	b.byName.Put(name, append(subs, ch))
	return ch
}

// SubscribeAll returns a channel of every future event regardless of name.
func (b *EventBus) SubscribeAll() <-chan *dbgadapter.Event {
	ch := make(chan *dbgadapter.Event, eventSubscriberCapacity)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, ch)
	return ch
}

func (b *EventBus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byName.Range(func(_ string, subs []chan *dbgadapter.Event) bool {
		for _, ch := range subs {
			close(ch)
		}
		return true
	})
	for _, ch := range b.all {
		close(ch)
	}
}
