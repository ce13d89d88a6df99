// Package router binds push-channel events to store handlers for the
// lifetime of the UI shell. It is the only place the seven routed event
// names are attached to the transport, so detaching by name is safe.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/notify"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/transport"
)

// EventBus is the transport slice the router needs.
type EventBus interface {
	On(event string, fn transport.Handler)
	Off(event string)
}

var routedEvents = []string{
	domain.EvStatusChanged,
	domain.EvIncidentStarted,
	domain.EvIncidentResolve,
	domain.EvCheckCompleted,
	domain.EvEndpointCreated,
	domain.EvEndpointUpdated,
	domain.EvEndpointDeleted,
}

type Router struct {
	bus       EventBus
	endpoints *store.EndpointStore
	incidents *store.IncidentStore
	notifier  notify.Notifier
	log       *zap.Logger

	mu    sync.Mutex
	bound bool
}

func New(bus EventBus, eps *store.EndpointStore, inc *store.IncidentStore, n notify.Notifier, log *zap.Logger) *Router {
	return &Router{bus: bus, endpoints: eps, incidents: inc, notifier: n, log: log}
}

// Bind attaches all routed events. Idempotent per mount: a second Bind
// without an Unbind does nothing.
func (r *Router) Bind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound {
		return
	}
	r.bound = true

	r.bus.On(domain.EvStatusChanged, r.onStatusChanged)
	r.bus.On(domain.EvIncidentStarted, r.onIncidentStarted)
	r.bus.On(domain.EvIncidentResolve, r.onIncidentResolved)
	r.bus.On(domain.EvCheckCompleted, r.onCheckCompleted)
	r.bus.On(domain.EvEndpointCreated, r.onEndpointCreated)
	r.bus.On(domain.EvEndpointUpdated, r.onEndpointUpdated)
	r.bus.On(domain.EvEndpointDeleted, r.onEndpointDeleted)
}

// Unbind detaches all routed events by name.
func (r *Router) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.bound {
		return
	}
	r.bound = false
	for _, ev := range routedEvents {
		r.bus.Off(ev)
	}
}

// Handlers never fail: a payload that does not decode is dropped so one
// bad frame cannot take down the live feed.

func (r *Router) onStatusChanged(payload json.RawMessage) {
	var ev domain.StatusChange
	if !r.decode(domain.EvStatusChanged, payload, &ev) {
		return
	}
	r.endpoints.ApplyStatusChange(ev)

	name := string(ev.EndpointID)
	if ep, ok := r.endpoints.Get(ev.EndpointID); ok {
		name = ep.Name
	}
	switch ev.CurrentStatus {
	case domain.StatusDown:
		r.notify(notify.LevelError, "Endpoint down", name)
	case domain.StatusUp:
		r.notify(notify.LevelSuccess, "Endpoint up", name)
	case domain.StatusDegraded:
		r.notify(notify.LevelWarning, "Endpoint degraded", name)
	default:
		r.notify(notify.LevelInfo, "Endpoint status changed", name)
	}
}

func (r *Router) onIncidentStarted(payload json.RawMessage) {
	var in domain.Incident
	if !r.decode(domain.EvIncidentStarted, payload, &in) {
		return
	}
	r.incidents.ApplyStarted(in)
	r.notify(notify.LevelError, "Incident started",
		fmt.Sprintf("%s: %s", in.EndpointName, in.ErrorMessage))
}

func (r *Router) onIncidentResolved(payload json.RawMessage) {
	var in domain.Incident
	if !r.decode(domain.EvIncidentResolve, payload, &in) {
		return
	}
	r.incidents.ApplyResolved(in)
	r.notify(notify.LevelSuccess, "Incident resolved", in.EndpointName)
}

func (r *Router) onCheckCompleted(payload json.RawMessage) {
	var cr domain.CheckResult
	if !r.decode(domain.EvCheckCompleted, payload, &cr) {
		return
	}
	r.endpoints.ApplyCheckCompleted(cr)
	if !cr.Success() {
		r.notify(notify.LevelError, "Check failed",
			fmt.Sprintf("%s: %s", cr.EndpointID, cr.ErrorMessage))
	}
}

func (r *Router) onEndpointCreated(payload json.RawMessage) {
	var ep domain.Endpoint
	if !r.decode(domain.EvEndpointCreated, payload, &ep) {
		return
	}
	r.endpoints.ApplyCreated(ep)
	r.notify(notify.LevelSuccess, "Endpoint created", ep.Name)
}

func (r *Router) onEndpointUpdated(payload json.RawMessage) {
	var ep domain.Endpoint
	if !r.decode(domain.EvEndpointUpdated, payload, &ep) {
		return
	}
	r.endpoints.ApplyUpdated(ep)
	r.notify(notify.LevelInfo, "Endpoint updated", ep.Name)
}

func (r *Router) onEndpointDeleted(payload json.RawMessage) {
	var ev domain.EndpointDeleted
	if !r.decode(domain.EvEndpointDeleted, payload, &ev) {
		return
	}
	name := string(ev.EndpointID)
	if ep, ok := r.endpoints.Get(ev.EndpointID); ok {
		name = ep.Name
	}
	r.endpoints.ApplyDeleted(ev.EndpointID)
	r.notify(notify.LevelInfo, "Endpoint deleted", name)
}

func (r *Router) decode(event string, payload json.RawMessage, out any) bool {
	if err := json.Unmarshal(payload, out); err != nil {
		r.log.Warn("event_decode_error", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

func (r *Router) notify(level notify.Level, title, text string) {
	if r.notifier == nil {
		return
	}
	_ = r.notifier.Notify(context.Background(), level, title, text)
}
