package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// Repo is the in-memory store behind the mock backend. It is the
// authoritative copy the client mirrors in its own stores.
type Repo struct {
	mu        sync.RWMutex
	endpoints map[domain.EndpointID]*domain.Endpoint
	order     []domain.EndpointID
	incidents []*domain.Incident
	results   []domain.CheckResult // append order, oldest first
	seq       int64
}

func NewRepo() *Repo {
	return &Repo{endpoints: make(map[domain.EndpointID]*domain.Endpoint)}
}

func (r *Repo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

// ---- endpoints ----

func (r *Repo) CreateEndpoint(req rest.CreateEndpointRequest) domain.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	ep := &domain.Endpoint{
		ID:                 domain.EndpointID(r.nextID("ep")),
		Name:               req.Name,
		URL:                req.URL,
		Method:             req.Method,
		Headers:            req.Headers,
		Body:               req.Body,
		ExpectedStatusCode: req.ExpectedStatusCode,
		CheckInterval:      req.CheckInterval,
		TimeoutThreshold:   req.TimeoutThreshold,
		IsActive:           req.IsActive,
		CurrentStatus:      domain.StatusUnknown,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	r.endpoints[ep.ID] = ep
	r.order = append(r.order, ep.ID)
	return *ep
}

func (r *Repo) GetEndpoint(id domain.EndpointID) (domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return domain.Endpoint{}, ErrNotFound
	}
	return *ep, nil
}

func (r *Repo) UpdateEndpoint(id domain.EndpointID, req rest.UpdateEndpointRequest) (domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return domain.Endpoint{}, ErrNotFound
	}
	if req.Name != nil {
		ep.Name = *req.Name
	}
	if req.URL != nil {
		ep.URL = *req.URL
	}
	if req.Method != nil {
		ep.Method = *req.Method
	}
	if req.Headers != nil {
		ep.Headers = *req.Headers
	}
	if req.Body != nil {
		ep.Body = *req.Body
	}
	if req.ExpectedStatusCode != nil {
		ep.ExpectedStatusCode = *req.ExpectedStatusCode
	}
	if req.CheckInterval != nil {
		ep.CheckInterval = *req.CheckInterval
	}
	if req.TimeoutThreshold != nil {
		ep.TimeoutThreshold = *req.TimeoutThreshold
	}
	if req.IsActive != nil {
		ep.IsActive = *req.IsActive
	}
	ep.UpdatedAt = time.Now().UTC()
	return *ep, nil
}

func (r *Repo) DeleteEndpoint(id domain.EndpointID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[id]; !ok {
		return ErrNotFound
	}
	delete(r.endpoints, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repo) ListEndpoints(page, limit int, status domain.Status) ([]domain.Endpoint, domain.PageMeta) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Endpoint, 0, len(r.order))
	for _, id := range r.order {
		ep := r.endpoints[id]
		if status != "" && ep.CurrentStatus != status {
			continue
		}
		all = append(all, *ep)
	}
	return paginate(all, page, limit)
}

func (r *Repo) ActiveEndpoints() []domain.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Endpoint, 0, len(r.order))
	for _, id := range r.order {
		if ep := r.endpoints[id]; ep.IsActive {
			out = append(out, *ep)
		}
	}
	return out
}

// SetStatus records a probe outcome on the endpoint and reports whether
// the advisory status actually changed.
func (r *Repo) SetStatus(id domain.EndpointID, st domain.Status, responseTime float64, at time.Time) (domain.Endpoint, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return domain.Endpoint{}, false, ErrNotFound
	}
	changed := ep.CurrentStatus != st
	ep.CurrentStatus = st
	ep.LastCheckedAt = &at
	ep.LastResponseTime = &responseTime
	return *ep, changed, nil
}

// ---- check results ----

func (r *Repo) AppendResult(cr domain.CheckResult) {
	r.mu.Lock()
	if cr.ID == "" {
		cr.ID = r.nextID("cr")
	}
	r.results = append(r.results, cr)
	r.mu.Unlock()
}

func (r *Repo) resultsLocked(filter func(domain.CheckResult) bool) []domain.CheckResult {
	out := make([]domain.CheckResult, 0, len(r.results))
	// newest first
	for i := len(r.results) - 1; i >= 0; i-- {
		if filter == nil || filter(r.results[i]) {
			out = append(out, r.results[i])
		}
	}
	return out
}

func (r *Repo) ResultsByEndpoint(id domain.EndpointID, limit int) []domain.CheckResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.resultsLocked(func(cr domain.CheckResult) bool { return cr.EndpointID == id })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Repo) ListResults(page, limit int, id domain.EndpointID) ([]domain.CheckResult, domain.PageMeta) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var filter func(domain.CheckResult) bool
	if id != "" {
		filter = func(cr domain.CheckResult) bool { return cr.EndpointID == id }
	}
	return paginate(r.resultsLocked(filter), page, limit)
}

func (r *Repo) FailedResults(page, limit int) ([]domain.CheckResult, domain.PageMeta) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paginate(r.resultsLocked(func(cr domain.CheckResult) bool { return !cr.Success() }), page, limit)
}

func (r *Repo) ResultsByDateRange(start, end time.Time, id domain.EndpointID) []domain.CheckResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resultsLocked(func(cr domain.CheckResult) bool {
		if id != "" && cr.EndpointID != id {
			return false
		}
		return !cr.CheckedAt.Before(start) && !cr.CheckedAt.After(end)
	})
}

// ---- incidents ----

// OpenIncident starts an incident for the endpoint unless one is already
// active, in which case the failure count is bumped instead.
func (r *Repo) OpenIncident(id domain.EndpointID, name, errMsg string) (domain.Incident, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.incidents {
		if in.EndpointID == id && in.ResolvedAt == nil {
			in.FailureCount++
			in.ErrorMessage = errMsg
			return *in, false
		}
	}
	in := &domain.Incident{
		ID:           r.nextID("inc"),
		EndpointID:   id,
		EndpointName: name,
		StartedAt:    time.Now().UTC(),
		FailureCount: 1,
		ErrorMessage: errMsg,
	}
	r.incidents = append(r.incidents, in)
	return *in, true
}

// ResolveActiveIncident closes the active incident for an endpoint, if any.
func (r *Repo) ResolveActiveIncident(id domain.EndpointID) (domain.Incident, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.incidents {
		if in.EndpointID == id && in.ResolvedAt == nil {
			now := time.Now().UTC()
			in.ResolvedAt = &now
			return *in, true
		}
	}
	return domain.Incident{}, false
}

func (r *Repo) ResolveIncident(id string) (domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.incidents {
		if in.ID == id {
			if in.ResolvedAt == nil {
				now := time.Now().UTC()
				in.ResolvedAt = &now
			}
			return *in, nil
		}
	}
	return domain.Incident{}, ErrNotFound
}

func (r *Repo) GetIncident(id string) (domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, in := range r.incidents {
		if in.ID == id {
			return *in, nil
		}
	}
	return domain.Incident{}, ErrNotFound
}

func (r *Repo) ListIncidents(page, limit int, id domain.EndpointID, status, sortBy, order string) ([]domain.Incident, domain.PageMeta) {
	r.mu.RLock()
	all := make([]domain.Incident, 0, len(r.incidents))
	for _, in := range r.incidents {
		if id != "" && in.EndpointID != id {
			continue
		}
		if status == "active" && in.ResolvedAt != nil {
			continue
		}
		if status == "resolved" && in.ResolvedAt == nil {
			continue
		}
		all = append(all, *in)
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		less := all[i].StartedAt.Before(all[j].StartedAt)
		if sortBy == "" || sortBy == "startedAt" {
			if order == "asc" {
				return less
			}
			return !less // newest first by default
		}
		return !less
	})
	return paginate(all, page, limit)
}

func (r *Repo) ActiveIncidents() []domain.Incident {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Incident, 0)
	for i := len(r.incidents) - 1; i >= 0; i-- {
		if r.incidents[i].ResolvedAt == nil {
			out = append(out, *r.incidents[i])
		}
	}
	return out
}

func (r *Repo) RecentIncidents(limit int) []domain.Incident {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	out := make([]domain.Incident, 0, limit)
	for i := len(r.incidents) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.incidents[i])
	}
	return out
}

// ---- paging ----

func paginate[T any](all []T, page, limit int) ([]T, domain.PageMeta) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	total := len(all)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], domain.PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
