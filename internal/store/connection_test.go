package store

import (
	"encoding/json"
	"testing"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/transport"
)

// fakeBus lets tests fire lifecycle events by hand.
type fakeBus struct {
	connected bool
	handlers  map[string][]transport.Handler
}

func newFakeBus(connected bool) *fakeBus {
	return &fakeBus{connected: connected, handlers: make(map[string][]transport.Handler)}
}

func (b *fakeBus) IsConnected() bool { return b.connected }

func (b *fakeBus) On(event string, fn transport.Handler) {
	b.handlers[event] = append(b.handlers[event], fn)
}

func (b *fakeBus) fire(event string) {
	for _, fn := range b.handlers[event] {
		fn(json.RawMessage(nil))
	}
}

func TestConnectionStore_InitialState(t *testing.T) {
	if st := NewConnectionStore(newFakeBus(false)).State(); st != domain.Disconnected {
		t.Fatalf("initial state = %s, want disconnected", st)
	}
	if st := NewConnectionStore(newFakeBus(true)).State(); st != domain.Connected {
		t.Fatalf("initial state = %s, want connected", st)
	}
}

func TestConnectionStore_Transitions(t *testing.T) {
	bus := newFakeBus(false)
	s := NewConnectionStore(bus)

	steps := []struct {
		event string
		want  domain.ConnectionState
	}{
		{transport.EventConnect, domain.Connected},
		{transport.EventDisconnect, domain.Disconnected},
		{transport.EventReconnectAttempt, domain.Connecting},
		{transport.EventConnectError, domain.Connecting},
		{transport.EventConnect, domain.Connected},
	}
	for _, step := range steps {
		bus.fire(step.event)
		if got := s.State(); got != step.want {
			t.Fatalf("after %s: state = %s, want %s", step.event, got, step.want)
		}
	}
}
