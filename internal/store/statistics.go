package store

import (
	"context"
	"sync"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// StatsAPI is the REST slice the statistics store needs.
type StatsAPI interface {
	Overview(ctx context.Context) (domain.Overview, error)
	UptimeFor(ctx context.Context, id domain.EndpointID, period string) (domain.UptimeStat, error)
	ResponseTimeFor(ctx context.Context, id domain.EndpointID, period string) (domain.ResponseTimeStat, error)
	ResponseTimeTimeseries(ctx context.Context, id domain.EndpointID, hours int) ([]domain.TimeseriesPoint, error)
	UptimeTimeseries(ctx context.Context, id domain.EndpointID, hours int) ([]domain.TimeseriesPoint, error)
	StatusDistribution(ctx context.Context) (domain.StatusDistribution, error)
}

// StatsStore holds read-only statistics snapshots keyed by endpoint id.
// Every fetch replaces its snapshot wholesale; push events never touch it.
type StatsStore struct {
	api StatsAPI

	mu           sync.RWMutex
	status       status
	overview     domain.Overview
	uptime       map[domain.EndpointID]domain.UptimeStat
	responseTime map[domain.EndpointID]domain.ResponseTimeStat
	rtSeries     map[domain.EndpointID][]domain.TimeseriesPoint
	upSeries     map[domain.EndpointID][]domain.TimeseriesPoint
	distribution domain.StatusDistribution
	signal       signal
}

func NewStatsStore(api StatsAPI) *StatsStore {
	return &StatsStore{
		api:          api,
		uptime:       make(map[domain.EndpointID]domain.UptimeStat),
		responseTime: make(map[domain.EndpointID]domain.ResponseTimeStat),
		rtSeries:     make(map[domain.EndpointID][]domain.TimeseriesPoint),
		upSeries:     make(map[domain.EndpointID][]domain.TimeseriesPoint),
		signal:       newSignal(),
	}
}

func (s *StatsStore) FetchOverview(ctx context.Context) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	ov, err := s.api.Overview(ctx)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.overview = ov
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *StatsStore) FetchUptime(ctx context.Context, id domain.EndpointID, period string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	st, err := s.api.UptimeFor(ctx, id, period)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.uptime[id] = st
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *StatsStore) FetchResponseTime(ctx context.Context, id domain.EndpointID, period string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	st, err := s.api.ResponseTimeFor(ctx, id, period)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.responseTime[id] = st
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *StatsStore) FetchResponseTimeSeries(ctx context.Context, id domain.EndpointID, hours int) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	pts, err := s.api.ResponseTimeTimeseries(ctx, id, hours)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.rtSeries[id] = pts
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *StatsStore) FetchUptimeSeries(ctx context.Context, id domain.EndpointID, hours int) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	pts, err := s.api.UptimeTimeseries(ctx, id, hours)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.upSeries[id] = pts
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

func (s *StatsStore) FetchDistribution(ctx context.Context) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	d, err := s.api.StatusDistribution(ctx)

	s.mu.Lock()
	s.status.finish(err)
	if err == nil {
		s.distribution = d
	}
	s.mu.Unlock()
	s.signal.notify()
	return err
}

// ---- snapshots ----

func (s *StatsStore) Overview() domain.Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overview
}

func (s *StatsStore) Uptime(id domain.EndpointID) (domain.UptimeStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.uptime[id]
	return st, ok
}

func (s *StatsStore) ResponseTime(id domain.EndpointID) (domain.ResponseTimeStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.responseTime[id]
	return st, ok
}

func (s *StatsStore) ResponseTimeSeries(id domain.EndpointID) []domain.TimeseriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TimeseriesPoint(nil), s.rtSeries[id]...)
}

func (s *StatsStore) UptimeSeries(id domain.EndpointID) []domain.TimeseriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TimeseriesPoint(nil), s.upSeries[id]...)
}

func (s *StatsStore) Distribution() domain.StatusDistribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distribution
}

func (s *StatsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.loading
}

func (s *StatsStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.lastErr
}

func (s *StatsStore) Watch() <-chan struct{} { return s.signal.ch }

// Reset clears all state. Test hook.
func (s *StatsStore) Reset() {
	s.mu.Lock()
	s.status = status{}
	s.overview = domain.Overview{}
	s.uptime = make(map[domain.EndpointID]domain.UptimeStat)
	s.responseTime = make(map[domain.EndpointID]domain.ResponseTimeStat)
	s.rtSeries = make(map[domain.EndpointID][]domain.TimeseriesPoint)
	s.upSeries = make(map[domain.EndpointID][]domain.TimeseriesPoint)
	s.distribution = domain.StatusDistribution{}
	s.mu.Unlock()
	s.signal.notify()
}
