package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

type fakeStatsAPI struct {
	overview     domain.Overview
	uptime       domain.UptimeStat
	responseTime domain.ResponseTimeStat
	series       []domain.TimeseriesPoint
	distribution domain.StatusDistribution
	err          error
}

func (f *fakeStatsAPI) Overview(context.Context) (domain.Overview, error) {
	return f.overview, f.err
}

func (f *fakeStatsAPI) UptimeFor(context.Context, domain.EndpointID, string) (domain.UptimeStat, error) {
	return f.uptime, f.err
}

func (f *fakeStatsAPI) ResponseTimeFor(context.Context, domain.EndpointID, string) (domain.ResponseTimeStat, error) {
	return f.responseTime, f.err
}

func (f *fakeStatsAPI) ResponseTimeTimeseries(context.Context, domain.EndpointID, int) ([]domain.TimeseriesPoint, error) {
	return f.series, f.err
}

func (f *fakeStatsAPI) UptimeTimeseries(context.Context, domain.EndpointID, int) ([]domain.TimeseriesPoint, error) {
	return f.series, f.err
}

func (f *fakeStatsAPI) StatusDistribution(context.Context) (domain.StatusDistribution, error) {
	return f.distribution, f.err
}

var _ StatsAPI = (*fakeStatsAPI)(nil)

func TestStatsStore_FetchReplacesSnapshots(t *testing.T) {
	api := &fakeStatsAPI{
		overview:     domain.Overview{TotalEndpoints: 3, EndpointsUp: 2},
		uptime:       domain.UptimeStat{EndpointID: "ep-1", UptimePercent: 99.5},
		responseTime: domain.ResponseTimeStat{EndpointID: "ep-1", AvgMS: 120},
		series:       []domain.TimeseriesPoint{{Timestamp: time.Now(), Value: 42}},
		distribution: domain.StatusDistribution{Up: 2, Down: 1},
	}
	s := NewStatsStore(api)
	ctx := context.Background()

	if err := s.FetchOverview(ctx); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if got := s.Overview(); got.TotalEndpoints != 3 {
		t.Fatalf("overview snapshot wrong: %+v", got)
	}

	if err := s.FetchUptime(ctx, "ep-1", "24h"); err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if up, ok := s.Uptime("ep-1"); !ok || up.UptimePercent != 99.5 {
		t.Fatalf("uptime snapshot wrong: %+v ok=%v", up, ok)
	}
	if _, ok := s.Uptime("other"); ok {
		t.Fatal("unfetched id present")
	}

	if err := s.FetchResponseTime(ctx, "ep-1", "24h"); err != nil {
		t.Fatalf("response time: %v", err)
	}
	if rt, ok := s.ResponseTime("ep-1"); !ok || rt.AvgMS != 120 {
		t.Fatalf("response time snapshot wrong: %+v", rt)
	}

	if err := s.FetchResponseTimeSeries(ctx, "ep-1", 24); err != nil {
		t.Fatalf("series: %v", err)
	}
	if pts := s.ResponseTimeSeries("ep-1"); len(pts) != 1 || pts[0].Value != 42 {
		t.Fatalf("series snapshot wrong: %+v", pts)
	}

	if err := s.FetchDistribution(ctx); err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if d := s.Distribution(); d.Up != 2 || d.Down != 1 {
		t.Fatalf("distribution snapshot wrong: %+v", d)
	}
}

func TestStatsStore_FetchFailureKeepsSnapshot(t *testing.T) {
	api := &fakeStatsAPI{overview: domain.Overview{TotalEndpoints: 3}}
	s := NewStatsStore(api)

	if err := s.FetchOverview(context.Background()); err != nil {
		t.Fatalf("overview: %v", err)
	}

	api.err = errors.New("boom")
	if err := s.FetchOverview(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Overview(); got.TotalEndpoints != 3 {
		t.Fatalf("snapshot clobbered on failure: %+v", got)
	}
	if s.LastError() == "" || s.Loading() {
		t.Fatalf("status wrong: err=%q loading=%v", s.LastError(), s.Loading())
	}
}

func TestStatsStore_Reset(t *testing.T) {
	api := &fakeStatsAPI{uptime: domain.UptimeStat{UptimePercent: 100}}
	s := NewStatsStore(api)
	if err := s.FetchUptime(context.Background(), "ep-1", ""); err != nil {
		t.Fatalf("uptime: %v", err)
	}

	s.Reset()
	if _, ok := s.Uptime("ep-1"); ok {
		t.Fatal("reset did not clear uptime map")
	}
}
