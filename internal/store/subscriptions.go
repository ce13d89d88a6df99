package store

import (
	"sync"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// Emitter is the transport slice the subscription store needs.
type Emitter interface {
	Emit(event string, payload any)
}

// SubscriptionStore tracks which endpoints the client asked the server to
// push updates for. The set is client-side bookkeeping; the server is told
// through explicit emits, which the transport drops when disconnected.
type SubscriptionStore struct {
	tc Emitter

	mu     sync.RWMutex
	ids    map[domain.EndpointID]struct{}
	all    bool
	signal signal
}

func NewSubscriptionStore(tc Emitter) *SubscriptionStore {
	return &SubscriptionStore{tc: tc, ids: make(map[domain.EndpointID]struct{}), signal: newSignal()}
}

func (s *SubscriptionStore) Subscribe(id domain.EndpointID) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
	s.tc.Emit(domain.EvSubscribeEndpoint, domain.SubscribePayload{EndpointID: id})
	s.signal.notify()
}

func (s *SubscriptionStore) Unsubscribe(id domain.EndpointID) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
	s.tc.Emit(domain.EvUnsubscribeEndpoint, domain.SubscribePayload{EndpointID: id})
	s.signal.notify()
}

// SubscribeAll asks for every endpoint's events.
func (s *SubscriptionStore) SubscribeAll() {
	s.mu.Lock()
	s.all = true
	s.mu.Unlock()
	s.tc.Emit(domain.EvSubscribeAll, struct{}{})
	s.signal.notify()
}

func (s *SubscriptionStore) Subscribed(id domain.EndpointID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

func (s *SubscriptionStore) IDs() []domain.EndpointID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EndpointID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

func (s *SubscriptionStore) Watch() <-chan struct{} { return s.signal.ch }

// Reset clears all state. Test hook.
func (s *SubscriptionStore) Reset() {
	s.mu.Lock()
	s.ids = make(map[domain.EndpointID]struct{})
	s.all = false
	s.mu.Unlock()
	s.signal.notify()
}
