package store

import (
	"testing"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

type recordingEmitter struct {
	events   []string
	payloads []any
}

func (r *recordingEmitter) Emit(event string, payload any) {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func TestSubscriptionStore_TracksAndEmits(t *testing.T) {
	em := &recordingEmitter{}
	s := NewSubscriptionStore(em)

	s.Subscribe("ep-1")
	if !s.Subscribed("ep-1") {
		t.Fatal("ep-1 not tracked")
	}
	if len(em.events) != 1 || em.events[0] != domain.EvSubscribeEndpoint {
		t.Fatalf("emit wrong: %v", em.events)
	}

	s.Unsubscribe("ep-1")
	if s.Subscribed("ep-1") {
		t.Fatal("ep-1 still tracked after unsubscribe")
	}
	if em.events[1] != domain.EvUnsubscribeEndpoint {
		t.Fatalf("emit wrong: %v", em.events)
	}

	s.SubscribeAll()
	if !s.Subscribed("anything") {
		t.Fatal("subscribe-all not honored")
	}
	if em.events[2] != domain.EvSubscribeAll {
		t.Fatalf("emit wrong: %v", em.events)
	}

	s.Reset()
	if s.Subscribed("anything") {
		t.Fatal("reset did not clear subscribe-all")
	}
}
