package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

// fakeEndpointAPI returns canned values and records failures on demand.
type fakeEndpointAPI struct {
	list    rest.EndpointPage
	created domain.Endpoint
	err     error
}

func (f *fakeEndpointAPI) ListEndpoints(context.Context, rest.ListEndpointsQuery) (rest.EndpointPage, error) {
	return f.list, f.err
}

func (f *fakeEndpointAPI) GetEndpoint(_ context.Context, id domain.EndpointID) (domain.Endpoint, error) {
	return domain.Endpoint{ID: id}, f.err
}

func (f *fakeEndpointAPI) CreateEndpoint(context.Context, rest.CreateEndpointRequest) (domain.Endpoint, error) {
	return f.created, f.err
}

func (f *fakeEndpointAPI) UpdateEndpoint(_ context.Context, id domain.EndpointID, _ rest.UpdateEndpointRequest) (domain.Endpoint, error) {
	return domain.Endpoint{ID: id}, f.err
}

func (f *fakeEndpointAPI) DeleteEndpoint(context.Context, domain.EndpointID) error {
	return f.err
}

func (f *fakeEndpointAPI) RunCheck(context.Context, domain.EndpointID) (rest.CheckOutcome, error) {
	return rest.CheckOutcome{Status: domain.StatusUp}, f.err
}

func (f *fakeEndpointAPI) EndpointCheckResults(context.Context, domain.EndpointID, int) ([]domain.CheckResult, error) {
	return nil, f.err
}

func seeded(t *testing.T, eps ...domain.Endpoint) *EndpointStore {
	t.Helper()
	api := &fakeEndpointAPI{list: rest.EndpointPage{
		Data: eps,
		Meta: domain.PageMeta{Total: len(eps)},
	}}
	s := NewEndpointStore(api)
	if err := s.Fetch(context.Background(), rest.ListEndpointsQuery{}); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	return s
}

func TestApplyStatusChange_UnknownIDIsNoop(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1", CurrentStatus: domain.StatusUp})

	s.ApplyStatusChange(domain.StatusChange{EndpointID: "ghost", CurrentStatus: domain.StatusDown})

	eps := s.Endpoints()
	if len(eps) != 1 || eps[0].ID != "1" || eps[0].CurrentStatus != domain.StatusUp {
		t.Fatalf("store changed on unknown id: %+v", eps)
	}
	if s.Total() != 1 {
		t.Fatalf("total drifted: %d", s.Total())
	}
}

func TestApplyStatusChange_MergesFieldMask(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1", Name: "api", CurrentStatus: domain.StatusUp})

	rt := 500.0
	s.ApplyStatusChange(domain.StatusChange{
		EndpointID:    "1",
		CurrentStatus: domain.StatusDown,
		ResponseTime:  &rt,
	})

	ep, ok := s.Get("1")
	if !ok {
		t.Fatal("endpoint missing")
	}
	if ep.CurrentStatus != domain.StatusDown {
		t.Fatalf("status = %s, want DOWN", ep.CurrentStatus)
	}
	if ep.LastResponseTime == nil || *ep.LastResponseTime != 500 {
		t.Fatalf("lastResponseTime = %v, want 500", ep.LastResponseTime)
	}
	if ep.LastCheckedAt == nil {
		t.Fatal("lastCheckedAt not defaulted to processing time")
	}
	// untouched fields survive the merge
	if ep.Name != "api" {
		t.Fatalf("name clobbered: %q", ep.Name)
	}
}

func TestApplyStatusChange_ExplicitCheckedAt(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1", CurrentStatus: domain.StatusUp})

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ApplyStatusChange(domain.StatusChange{EndpointID: "1", CurrentStatus: domain.StatusUp, CheckedAt: &at})

	ep, _ := s.Get("1")
	if ep.LastCheckedAt == nil || !ep.LastCheckedAt.Equal(at) {
		t.Fatalf("lastCheckedAt = %v, want %v", ep.LastCheckedAt, at)
	}
}

func TestCreate_IncrementsTotalAndAppears(t *testing.T) {
	api := &fakeEndpointAPI{created: domain.Endpoint{ID: "new", Name: "fresh"}}
	s := NewEndpointStore(api)

	before := s.Total()
	ep, err := s.Create(context.Background(), rest.CreateEndpointRequest{Name: "fresh"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Total() != before+1 {
		t.Fatalf("total = %d, want %d", s.Total(), before+1)
	}
	got, ok := s.Get(ep.ID)
	if !ok || got.Name != "fresh" {
		t.Fatalf("created endpoint not in list: %+v ok=%v", got, ok)
	}
	if s.Loading() {
		t.Fatal("loading flag stuck")
	}
}

func TestDelete_FailureRecordsErrorAndRethrows(t *testing.T) {
	api := &fakeEndpointAPI{list: rest.EndpointPage{
		Data: []domain.Endpoint{{ID: "x"}},
		Meta: domain.PageMeta{Total: 1},
	}}
	s := NewEndpointStore(api)
	if err := s.Fetch(context.Background(), rest.ListEndpointsQuery{}); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	api.err = errors.New("network down")

	err := s.Delete(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error to propagate to caller")
	}
	if s.LastError() == "" {
		t.Fatal("error slot empty")
	}
	if s.Loading() {
		t.Fatal("loading flag not cleared")
	}
	// failed delete must not touch the list
	if len(s.Endpoints()) != 1 {
		t.Fatalf("list mutated on failure: %+v", s.Endpoints())
	}
}

func TestApplyCreatedAndDeleted_Idempotent(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1"})

	dup := domain.Endpoint{ID: "1", Name: "dup"}
	s.ApplyCreated(dup)
	if s.Total() != 1 {
		t.Fatalf("duplicate create drifted total to %d", s.Total())
	}
	if got, _ := s.Get("1"); got.Name != "dup" {
		t.Fatalf("duplicate create should upsert, got %+v", got)
	}

	s.ApplyDeleted("1")
	s.ApplyDeleted("1") // second delivery of the same deletion
	if s.Total() != 0 {
		t.Fatalf("repeat delete drifted total to %d", s.Total())
	}
}

func TestApplyCheckCompleted_CapsAtFifty(t *testing.T) {
	s := NewEndpointStore(&fakeEndpointAPI{})

	for i := 0; i < 60; i++ {
		s.ApplyCheckCompleted(domain.CheckResult{
			EndpointID:   "1",
			Status:       "success",
			ResponseTime: float64(i),
		})
	}

	rs := s.CheckResults()
	if len(rs) != 50 {
		t.Fatalf("len = %d, want 50", len(rs))
	}
	if rs[0].ResponseTime != 59 {
		t.Fatalf("newest not first: %+v", rs[0])
	}
}

func TestApplyUpdated_ReplacesListAndSelected(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1", Name: "old"})
	if err := s.FetchOne(context.Background(), "1"); err != nil {
		t.Fatalf("fetch one: %v", err)
	}

	s.ApplyUpdated(domain.Endpoint{ID: "1", Name: "renamed"})

	if got, _ := s.Get("1"); got.Name != "renamed" {
		t.Fatalf("list not replaced: %+v", got)
	}
	sel, ok := s.Selected()
	if !ok || sel.Name != "renamed" {
		t.Fatalf("selected not replaced: %+v ok=%v", sel, ok)
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := seeded(t, domain.Endpoint{ID: "1"})
	s.ApplyCheckCompleted(domain.CheckResult{EndpointID: "1"})

	s.Reset()

	if len(s.Endpoints()) != 0 || s.Total() != 0 || len(s.CheckResults()) != 0 {
		t.Fatal("reset left state behind")
	}
}

// keep the fake honest against the real interface
var _ EndpointAPI = (*fakeEndpointAPI)(nil)
