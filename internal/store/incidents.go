package store

import (
	"context"
	"sync"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

// maxRecentIncidents caps the recent-incidents feed.
const maxRecentIncidents = 10

// IncidentAPI is the REST slice the incident store needs.
type IncidentAPI interface {
	ListIncidents(ctx context.Context, q rest.ListIncidentsQuery) (rest.IncidentPage, error)
	GetIncident(ctx context.Context, id string) (domain.Incident, error)
	IncidentsByEndpoint(ctx context.Context, id domain.EndpointID, page, limit int) (rest.IncidentPage, error)
	RecentIncidents(ctx context.Context, limit int) ([]domain.Incident, error)
	ActiveIncidents(ctx context.Context) ([]domain.Incident, error)
	ResolveIncident(ctx context.Context, id string) (domain.Incident, error)
	IncidentStats(ctx context.Context) (domain.IncidentStats, error)
}

// IncidentStore mirrors incidents in three independent lists: the paged
// full list, the active list, and a capped recent feed. Incidents are
// server-detected; the only client-initiated mutation is resolve.
type IncidentStore struct {
	api IncidentAPI

	mu       sync.RWMutex
	status   status
	all      []domain.Incident
	active   []domain.Incident
	recent   []domain.Incident
	total    int
	selected *domain.Incident
	stats    domain.IncidentStats
	signal   signal
}

func NewIncidentStore(api IncidentAPI) *IncidentStore {
	return &IncidentStore{api: api, signal: newSignal()}
}

// ---- REST-backed methods ----

func (s *IncidentStore) Fetch(ctx context.Context, q rest.ListIncidentsQuery) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	page, err := s.api.ListIncidents(ctx, q)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.all = page.Data
		s.total = page.Meta.Total
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *IncidentStore) FetchOne(ctx context.Context, id string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	in, err := s.api.GetIncident(ctx, id)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.selected = &in
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *IncidentStore) FetchActive(ctx context.Context) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	list, err := s.api.ActiveIncidents(ctx)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.active = list
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *IncidentStore) FetchRecent(ctx context.Context, limit int) error {
	if limit <= 0 || limit > maxRecentIncidents {
		limit = maxRecentIncidents
	}
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	list, err := s.api.RecentIncidents(ctx, limit)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		if len(list) > maxRecentIncidents {
			list = list[:maxRecentIncidents]
		}
		s.recent = list
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *IncidentStore) FetchStats(ctx context.Context) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	st, err := s.api.IncidentStats(ctx)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.stats = st
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

// Resolve marks an incident resolved on the server, then applies the
// result like a resolved push plus removal from the active list.
func (s *IncidentStore) Resolve(ctx context.Context, id string) (domain.Incident, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	in, err := s.api.ResolveIncident(ctx, id)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.applyResolvedLocked(in)
	}
	s.mu.Unlock()
	s.signal.notify()
	return in, err
}

// ---- event application (push path) ----

// ApplyStarted prepends the new incident to all three lists; the recent
// feed is truncated to its cap after the prepend.
func (s *IncidentStore) ApplyStarted(in domain.Incident) {
	s.mu.Lock()
	s.all = append([]domain.Incident{in}, s.all...)
	s.active = append([]domain.Incident{in}, s.active...)
	s.recent = append([]domain.Incident{in}, s.recent...)
	if len(s.recent) > maxRecentIncidents {
		s.recent = s.recent[:maxRecentIncidents]
	}
	s.total++
	s.mu.Unlock()
	s.signal.notify()
}

// ApplyResolved replaces by id in the full and recent lists (order kept),
// removes from the active list, and updates the selected view on match.
func (s *IncidentStore) ApplyResolved(in domain.Incident) {
	s.mu.Lock()
	s.applyResolvedLocked(in)
	s.mu.Unlock()
	s.signal.notify()
}

func (s *IncidentStore) applyResolvedLocked(in domain.Incident) {
	for i := range s.all {
		if s.all[i].ID == in.ID {
			s.all[i] = in
			break
		}
	}
	for i := range s.recent {
		if s.recent[i].ID == in.ID {
			s.recent[i] = in
			break
		}
	}
	for i := range s.active {
		if s.active[i].ID == in.ID {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	if s.selected != nil && s.selected.ID == in.ID {
		s.selected = &in
	}
}

// ---- snapshots ----

func (s *IncidentStore) All() []domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Incident(nil), s.all...)
}

func (s *IncidentStore) Active() []domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Incident(nil), s.active...)
}

func (s *IncidentStore) Recent() []domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Incident(nil), s.recent...)
}

func (s *IncidentStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *IncidentStore) Selected() (domain.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return domain.Incident{}, false
	}
	return *s.selected, true
}

func (s *IncidentStore) Stats() domain.IncidentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *IncidentStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.loading
}

func (s *IncidentStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.lastErr
}

func (s *IncidentStore) Watch() <-chan struct{} { return s.signal.ch }

// Reset clears all state. Test hook.
func (s *IncidentStore) Reset() {
	s.mu.Lock()
	s.status = status{}
	s.all, s.active, s.recent = nil, nil, nil
	s.total = 0
	s.selected = nil
	s.stats = domain.IncidentStats{}
	s.mu.Unlock()
	s.signal.notify()
}
