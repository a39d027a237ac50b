package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/dbgadapter"
)

func TestEventBus_NamedAndCatchAll(t *testing.T) {
	ft := newFakeTransport()
	bus := NewEventBus(ft)

	stopped := bus.Subscribe("stopped")
	all := bus.SubscribeAll()

	ft.events <- &dbgadapter.Event{Event: "stopped", Body: []byte(`{"threadId":1}`)}
	ft.events <- &dbgadapter.Event{Event: "output", Body: []byte(`{"output":"hi"}`)}

	assertRecv(t, stopped, "stopped")
	assertRecv(t, all, "stopped")
	assertRecv(t, all, "output")

	select {
	case evt := <-stopped:
		t.Fatalf("unexpected event on stopped-only subscriber: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_ClosesSubscribersOnTransportExit(t *testing.T) {
	ft := newFakeTransport()
	bus := NewEventBus(ft)
	sub := bus.SubscribeAll()
	close(ft.events)

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed once the transport's events end")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber channel to close")
	}
}

func assertRecv(t *testing.T, ch <-chan *dbgadapter.Event, want string) {
	t.Helper()
	select {
	case evt := <-ch:
		if evt.Event != want {
			t.Fatalf("expected event %q, got %q", want, evt.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event %q", want)
	}
}
