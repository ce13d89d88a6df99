package store

import (
	"encoding/json"
	"sync"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/transport"
)

// LifecycleBus is the transport slice the connection store needs.
type LifecycleBus interface {
	IsConnected() bool
	On(event string, fn transport.Handler)
}

// ConnectionStore mirrors the transport lifecycle into a single state value.
// Transitions are applied as delivered; flapping is rendered as-is since
// this feeds a status indicator, not a control decision.
type ConnectionStore struct {
	mu     sync.RWMutex
	state  domain.ConnectionState
	signal signal
}

// NewConnectionStore registers lifecycle listeners on tc and seeds the
// state from its current connectivity.
func NewConnectionStore(tc LifecycleBus) *ConnectionStore {
	s := &ConnectionStore{
		state:  domain.Disconnected,
		signal: newSignal(),
	}
	if tc.IsConnected() {
		s.state = domain.Connected
	}

	tc.On(transport.EventConnect, func(json.RawMessage) { s.set(domain.Connected) })
	tc.On(transport.EventDisconnect, func(json.RawMessage) { s.set(domain.Disconnected) })
	tc.On(transport.EventConnectError, func(json.RawMessage) { s.set(domain.Connecting) })
	tc.On(transport.EventReconnectAttempt, func(json.RawMessage) { s.set(domain.Connecting) })

	return s
}

func (s *ConnectionStore) set(st domain.ConnectionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.signal.notify()
}

func (s *ConnectionStore) State() domain.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *ConnectionStore) Watch() <-chan struct{} { return s.signal.ch }
