package router

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/notify"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/transport"
)

// fakeBus records registrations and lets tests inject frames.
type fakeBus struct {
	handlers map[string]transport.Handler
	offs     []string
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]transport.Handler)}
}

func (b *fakeBus) On(event string, fn transport.Handler) { b.handlers[event] = fn }

func (b *fakeBus) Off(event string) {
	delete(b.handlers, event)
	b.offs = append(b.offs, event)
}

func (b *fakeBus) push(t *testing.T, event string, payload any) {
	t.Helper()
	fn, ok := b.handlers[event]
	if !ok {
		t.Fatalf("no handler bound for %s", event)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fn(raw)
}

func setup(t *testing.T) (*fakeBus, *store.EndpointStore, *store.IncidentStore, *notify.Feed, *Router) {
	t.Helper()
	bus := newFakeBus()
	eps := store.NewEndpointStore(nil)
	inc := store.NewIncidentStore(nil)
	feed := notify.NewFeed(20)
	r := New(bus, eps, inc, feed, zap.NewNop())
	r.Bind()
	return bus, eps, inc, feed, r
}

func TestBind_RegistersAllSevenEvents(t *testing.T) {
	bus, _, _, _, _ := setup(t)
	for _, ev := range routedEvents {
		if _, ok := bus.handlers[ev]; !ok {
			t.Fatalf("%s not bound", ev)
		}
	}
	if len(bus.handlers) != len(routedEvents) {
		t.Fatalf("extra handlers bound: %v", bus.handlers)
	}
}

func TestUnbind_DetachesByName(t *testing.T) {
	bus, _, _, _, r := setup(t)
	r.Unbind()
	if len(bus.handlers) != 0 {
		t.Fatalf("handlers left after unbind: %v", bus.handlers)
	}
	if len(bus.offs) != len(routedEvents) {
		t.Fatalf("off calls = %d, want %d", len(bus.offs), len(routedEvents))
	}
	// second unbind is a no-op
	r.Unbind()
	if len(bus.offs) != len(routedEvents) {
		t.Fatal("unbind not idempotent")
	}
}

func TestStatusChanged_RoutesAndNotifies(t *testing.T) {
	bus, eps, _, feed, _ := setup(t)
	eps.ApplyCreated(domain.Endpoint{ID: "1", Name: "api", CurrentStatus: domain.StatusUp})

	bus.push(t, domain.EvStatusChanged, domain.StatusChange{
		EndpointID:    "1",
		CurrentStatus: domain.StatusDown,
	})

	ep, _ := eps.Get("1")
	if ep.CurrentStatus != domain.StatusDown {
		t.Fatalf("status not applied: %s", ep.CurrentStatus)
	}
	entries := feed.Recent(0)
	if len(entries) != 1 || entries[0].Level != notify.LevelError {
		t.Fatalf("expected one error notification, got %+v", entries)
	}
}

func TestStatusChanged_NotificationLevels(t *testing.T) {
	cases := []struct {
		status domain.Status
		level  notify.Level
	}{
		{domain.StatusUp, notify.LevelSuccess},
		{domain.StatusDown, notify.LevelError},
		{domain.StatusDegraded, notify.LevelWarning},
	}
	for _, tc := range cases {
		bus, eps, _, feed, _ := setup(t)
		eps.ApplyCreated(domain.Endpoint{ID: "1", Name: "api"})

		bus.push(t, domain.EvStatusChanged, domain.StatusChange{EndpointID: "1", CurrentStatus: tc.status})

		entries := feed.Recent(1)
		if len(entries) != 1 || entries[0].Level != tc.level {
			t.Fatalf("%s: expected %s notification, got %+v", tc.status, tc.level, entries)
		}
	}
}

func TestIncidentLifecycle_Routed(t *testing.T) {
	bus, _, inc, feed, _ := setup(t)

	bus.push(t, domain.EvIncidentStarted, domain.Incident{
		ID: "inc-1", EndpointID: "1", EndpointName: "api", ErrorMessage: "timeout",
	})
	if len(inc.Active()) != 1 {
		t.Fatal("incident not applied")
	}
	if entries := feed.Recent(1); entries[0].Level != notify.LevelError {
		t.Fatalf("incident start should be error-level, got %+v", entries)
	}

	at := time.Now().UTC()
	bus.push(t, domain.EvIncidentResolve, domain.Incident{
		ID: "inc-1", EndpointID: "1", EndpointName: "api", ResolvedAt: &at,
	})
	if len(inc.Active()) != 0 {
		t.Fatal("incident not resolved")
	}
	if entries := feed.Recent(1); entries[0].Level != notify.LevelSuccess {
		t.Fatalf("incident resolve should be success-level, got %+v", entries)
	}
}

func TestCheckCompleted_NotifiesOnlyFailures(t *testing.T) {
	bus, eps, _, feed, _ := setup(t)

	bus.push(t, domain.EvCheckCompleted, domain.CheckResult{EndpointID: "1", Status: "success"})
	if len(feed.Recent(0)) != 0 {
		t.Fatal("successful check should be quiet")
	}

	bus.push(t, domain.EvCheckCompleted, domain.CheckResult{
		EndpointID: "1", Status: "failure", ErrorMessage: "connection refused",
	})
	if entries := feed.Recent(0); len(entries) != 1 || entries[0].Level != notify.LevelError {
		t.Fatalf("failed check should notify as error, got %+v", entries)
	}
	if len(eps.CheckResults()) != 2 {
		t.Fatalf("check feed = %d, want 2", len(eps.CheckResults()))
	}
}

func TestEndpointCRUDEchoes_Routed(t *testing.T) {
	bus, eps, _, _, _ := setup(t)

	bus.push(t, domain.EvEndpointCreated, domain.Endpoint{ID: "1", Name: "api"})
	if _, ok := eps.Get("1"); !ok {
		t.Fatal("created echo not applied")
	}

	bus.push(t, domain.EvEndpointUpdated, domain.Endpoint{ID: "1", Name: "renamed"})
	if ep, _ := eps.Get("1"); ep.Name != "renamed" {
		t.Fatal("updated echo not applied")
	}

	bus.push(t, domain.EvEndpointDeleted, domain.EndpointDeleted{EndpointID: "1"})
	if _, ok := eps.Get("1"); ok {
		t.Fatal("deleted echo not applied")
	}
}

func TestMalformedPayload_IsDropped(t *testing.T) {
	bus, eps, _, feed, _ := setup(t)
	eps.ApplyCreated(domain.Endpoint{ID: "1", CurrentStatus: domain.StatusUp})

	fn := bus.handlers[domain.EvStatusChanged]
	fn(json.RawMessage(`{not json`))

	if ep, _ := eps.Get("1"); ep.CurrentStatus != domain.StatusUp {
		t.Fatal("malformed payload mutated the store")
	}
	if len(feed.Recent(0)) != 0 {
		t.Fatal("malformed payload produced a notification")
	}
}
