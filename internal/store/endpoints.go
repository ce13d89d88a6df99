package store

import (
	"context"
	"sync"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

// maxCheckResults caps the live check-result feed.
const maxCheckResults = 50

// EndpointAPI is the REST slice the endpoint store needs. *rest.Client
// satisfies it; tests swap in a fake.
type EndpointAPI interface {
	ListEndpoints(ctx context.Context, q rest.ListEndpointsQuery) (rest.EndpointPage, error)
	GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error)
	CreateEndpoint(ctx context.Context, req rest.CreateEndpointRequest) (domain.Endpoint, error)
	UpdateEndpoint(ctx context.Context, id domain.EndpointID, req rest.UpdateEndpointRequest) (domain.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id domain.EndpointID) error
	RunCheck(ctx context.Context, id domain.EndpointID) (rest.CheckOutcome, error)
	EndpointCheckResults(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckResult, error)
}

// EndpointStore mirrors the monitored-endpoint collection plus the live
// check-result feed of the selected endpoint.
type EndpointStore struct {
	api EndpointAPI

	mu           sync.RWMutex
	status       status
	endpoints    []domain.Endpoint
	total        int
	selected     *domain.Endpoint
	checkResults []domain.CheckResult
	signal       signal

	now func() time.Time
}

func NewEndpointStore(api EndpointAPI) *EndpointStore {
	return &EndpointStore{api: api, signal: newSignal(), now: time.Now}
}

// ---- REST-backed methods ----

// Fetch replaces the list and total from the server.
func (s *EndpointStore) Fetch(ctx context.Context, q rest.ListEndpointsQuery) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	page, err := s.api.ListEndpoints(ctx, q)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.endpoints = page.Data
		s.total = page.Meta.Total
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

// FetchOne loads a single endpoint into the selected view.
func (s *EndpointStore) FetchOne(ctx context.Context, id domain.EndpointID) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	ep, err := s.api.GetEndpoint(ctx, id)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.selected = &ep
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *EndpointStore) Create(ctx context.Context, req rest.CreateEndpointRequest) (domain.Endpoint, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	ep, err := s.api.CreateEndpoint(ctx, req)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.upsertLocked(ep)
	}
	s.mu.Unlock()
	s.signal.notify()
	return ep, err
}

func (s *EndpointStore) Update(ctx context.Context, id domain.EndpointID, req rest.UpdateEndpointRequest) (domain.Endpoint, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	ep, err := s.api.UpdateEndpoint(ctx, id, req)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.replaceLocked(ep)
	}
	s.mu.Unlock()
	s.signal.notify()
	return ep, err
}

func (s *EndpointStore) Delete(ctx context.Context, id domain.EndpointID) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	err := s.api.DeleteEndpoint(ctx, id)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.removeLocked(id)
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

// Check triggers a manual probe on the server. The resulting state change
// arrives over the push channel; only the immediate outcome is returned.
func (s *EndpointStore) Check(ctx context.Context, id domain.EndpointID) (rest.CheckOutcome, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	out, err := s.api.RunCheck(ctx, id)

	s.mu.Lock()
	s.status.finish(err)
	s.mu.Unlock()
	s.signal.notify()
	return out, err
}

// FetchCheckResults bulk-replaces the check-result feed for an endpoint.
func (s *EndpointStore) FetchCheckResults(ctx context.Context, id domain.EndpointID, limit int) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	rs, err := s.api.EndpointCheckResults(ctx, id, limit)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		if len(rs) > maxCheckResults {
			rs = rs[:maxCheckResults]
		}
		s.checkResults = rs
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

// ---- event application (push path, called only by the router) ----

// ApplyStatusChange merges a status event onto the matching endpoint.
// Unknown ids are dropped: a status event never creates an endpoint.
// Only currentStatus, lastCheckedAt and lastResponseTime are touched.
func (s *EndpointStore) ApplyStatusChange(ev domain.StatusChange) {
	s.mu.Lock()
	idx := s.indexLocked(ev.EndpointID)
	if idx < 0 && (s.selected == nil || s.selected.ID != ev.EndpointID) {
		s.mu.Unlock()
		return
	}

	checkedAt := s.now()
	if ev.CheckedAt != nil {
		checkedAt = *ev.CheckedAt
	}

	merge := func(ep domain.Endpoint) domain.Endpoint {
		ep.CurrentStatus = ev.CurrentStatus
		ep.LastCheckedAt = &checkedAt
		if ev.ResponseTime != nil {
			rt := *ev.ResponseTime
			ep.LastResponseTime = &rt
		}
		return ep
	}

	if idx >= 0 {
		s.endpoints[idx] = merge(s.endpoints[idx])
	}
	if s.selected != nil && s.selected.ID == ev.EndpointID {
		sel := merge(*s.selected)
		s.selected = &sel
	}
	s.mu.Unlock()
	s.signal.notify()
}

// ApplyCreated splices a created echo into the list. Application is
// id-checked so a duplicate delivery cannot drift the total count.
func (s *EndpointStore) ApplyCreated(ep domain.Endpoint) {
	s.mu.Lock()
	s.upsertLocked(ep)
	s.mu.Unlock()
	s.signal.notify()
}

// ApplyUpdated replaces the matching endpoint in the list and selected view.
func (s *EndpointStore) ApplyUpdated(ep domain.Endpoint) {
	s.mu.Lock()
	s.replaceLocked(ep)
	s.mu.Unlock()
	s.signal.notify()
}

// ApplyDeleted removes by id. Deleting an absent id is a no-op.
func (s *EndpointStore) ApplyDeleted(id domain.EndpointID) {
	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
	s.signal.notify()
}

// ApplyCheckCompleted prepends to the check-result feed, newest first,
// capped at maxCheckResults.
func (s *EndpointStore) ApplyCheckCompleted(r domain.CheckResult) {
	s.mu.Lock()
	s.checkResults = append([]domain.CheckResult{r}, s.checkResults...)
	if len(s.checkResults) > maxCheckResults {
		s.checkResults = s.checkResults[:maxCheckResults]
	}
	s.mu.Unlock()
	s.signal.notify()
}

// ---- locked helpers ----

func (s *EndpointStore) indexLocked(id domain.EndpointID) int {
	for i := range s.endpoints {
		if s.endpoints[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *EndpointStore) upsertLocked(ep domain.Endpoint) {
	if idx := s.indexLocked(ep.ID); idx >= 0 {
		s.endpoints[idx] = ep
		return
	}
	s.endpoints = append(s.endpoints, ep)
	s.total++
}

func (s *EndpointStore) replaceLocked(ep domain.Endpoint) {
	if idx := s.indexLocked(ep.ID); idx >= 0 {
		s.endpoints[idx] = ep
	}
	if s.selected != nil && s.selected.ID == ep.ID {
		s.selected = &ep
	}
}

func (s *EndpointStore) removeLocked(id domain.EndpointID) {
	idx := s.indexLocked(id)
	if idx < 0 {
		return
	}
	s.endpoints = append(s.endpoints[:idx], s.endpoints[idx+1:]...)
	s.total--
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
}

// ---- snapshots ----

func (s *EndpointStore) Endpoints() []domain.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Endpoint(nil), s.endpoints...)
}

func (s *EndpointStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *EndpointStore) Get(id domain.EndpointID) (domain.Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.endpoints[idx], true
	}
	return domain.Endpoint{}, false
}

func (s *EndpointStore) Selected() (domain.Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return domain.Endpoint{}, false
	}
	return *s.selected, true
}

func (s *EndpointStore) CheckResults() []domain.CheckResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CheckResult(nil), s.checkResults...)
}

func (s *EndpointStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.loading
}

func (s *EndpointStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.lastErr
}

func (s *EndpointStore) Watch() <-chan struct{} { return s.signal.ch }

// Reset clears all state. Test hook.
func (s *EndpointStore) Reset() {
	s.mu.Lock()
	s.status = status{}
	s.endpoints = nil
	s.total = 0
	s.selected = nil
	s.checkResults = nil
	s.mu.Unlock()
	s.signal.notify()
}
