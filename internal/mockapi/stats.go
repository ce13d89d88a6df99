package mockapi

import (
	"sort"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// Statistics are computed on demand from the stored check results. Periods
// are "1h", "24h", "7d" and "30d"; the default is 24h.

func periodDuration(period string) time.Duration {
	switch period {
	case "1h":
		return time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (r *Repo) Overview() domain.Overview {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ov := domain.Overview{TotalEndpoints: len(r.endpoints)}
	for _, ep := range r.endpoints {
		if ep.IsActive {
			ov.ActiveEndpoints++
		}
		switch ep.CurrentStatus {
		case domain.StatusUp:
			ov.EndpointsUp++
		case domain.StatusDown:
			ov.EndpointsDown++
		case domain.StatusDegraded:
			ov.EndpointsDegraded++
		}
	}
	for _, in := range r.incidents {
		if in.ResolvedAt == nil {
			ov.ActiveIncidents++
		}
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var ok, total int
	var sumRT float64
	for _, cr := range r.results {
		if cr.CheckedAt.Before(cutoff) {
			continue
		}
		total++
		sumRT += cr.ResponseTime
		if cr.Success() {
			ok++
		}
	}
	ov.ChecksLast24h = total
	if total > 0 {
		ov.OverallUptime = float64(ok) / float64(total) * 100
		ov.AvgResponseTime = sumRT / float64(total)
	}
	return ov
}

func (r *Repo) UptimeStat(id domain.EndpointID, period string) domain.UptimeStat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-periodDuration(period))
	st := domain.UptimeStat{EndpointID: id, Period: period}
	for _, cr := range r.results {
		if cr.EndpointID != id || cr.CheckedAt.Before(cutoff) {
			continue
		}
		st.TotalChecks++
		if !cr.Success() {
			st.FailedChecks++
		}
	}
	if st.TotalChecks > 0 {
		st.UptimePercent = float64(st.TotalChecks-st.FailedChecks) / float64(st.TotalChecks) * 100
	}
	return st
}

func (r *Repo) UptimeStats(period string) []domain.UptimeStat {
	r.mu.RLock()
	ids := append([]domain.EndpointID(nil), r.order...)
	r.mu.RUnlock()

	out := make([]domain.UptimeStat, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.UptimeStat(id, period))
	}
	return out
}

func (r *Repo) ResponseTimeStat(id domain.EndpointID, period string) domain.ResponseTimeStat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-periodDuration(period))
	var samples []float64
	for _, cr := range r.results {
		if cr.EndpointID != id || cr.CheckedAt.Before(cutoff) {
			continue
		}
		samples = append(samples, cr.ResponseTime)
	}

	st := domain.ResponseTimeStat{EndpointID: id, Period: period}
	if len(samples) == 0 {
		return st
	}
	sort.Float64s(samples)
	st.MinMS = samples[0]
	st.MaxMS = samples[len(samples)-1]
	var sum float64
	for _, v := range samples {
		sum += v
	}
	st.AvgMS = sum / float64(len(samples))
	p95 := int(float64(len(samples))*0.95) - 1
	if p95 < 0 {
		p95 = 0
	}
	st.P95MS = samples[p95]
	return st
}

func (r *Repo) ResponseTimeStats(period string) []domain.ResponseTimeStat {
	r.mu.RLock()
	ids := append([]domain.EndpointID(nil), r.order...)
	r.mu.RUnlock()

	out := make([]domain.ResponseTimeStat, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.ResponseTimeStat(id, period))
	}
	return out
}

// ResponseTimeSeries buckets response times into hourly averages.
func (r *Repo) ResponseTimeSeries(id domain.EndpointID, hours int) []domain.TimeseriesPoint {
	return r.series(id, hours, func(crs []domain.CheckResult) float64 {
		if len(crs) == 0 {
			return 0
		}
		var sum float64
		for _, cr := range crs {
			sum += cr.ResponseTime
		}
		return sum / float64(len(crs))
	})
}

// UptimeSeries buckets uptime percentage into hourly values.
func (r *Repo) UptimeSeries(id domain.EndpointID, hours int) []domain.TimeseriesPoint {
	return r.series(id, hours, func(crs []domain.CheckResult) float64 {
		if len(crs) == 0 {
			return 0
		}
		ok := 0
		for _, cr := range crs {
			if cr.Success() {
				ok++
			}
		}
		return float64(ok) / float64(len(crs)) * 100
	})
}

func (r *Repo) series(id domain.EndpointID, hours int, agg func([]domain.CheckResult) float64) []domain.TimeseriesPoint {
	if hours <= 0 {
		hours = 24
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC().Truncate(time.Hour)
	out := make([]domain.TimeseriesPoint, 0, hours)
	for h := hours - 1; h >= 0; h-- {
		bucketStart := now.Add(-time.Duration(h) * time.Hour)
		bucketEnd := bucketStart.Add(time.Hour)
		var bucket []domain.CheckResult
		for _, cr := range r.results {
			if cr.EndpointID != id {
				continue
			}
			if !cr.CheckedAt.Before(bucketStart) && cr.CheckedAt.Before(bucketEnd) {
				bucket = append(bucket, cr)
			}
		}
		out = append(out, domain.TimeseriesPoint{Timestamp: bucketStart, Value: agg(bucket)})
	}
	return out
}

func (r *Repo) Distribution() domain.StatusDistribution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var d domain.StatusDistribution
	for _, ep := range r.endpoints {
		switch ep.CurrentStatus {
		case domain.StatusUp:
			d.Up++
		case domain.StatusDown:
			d.Down++
		case domain.StatusDegraded:
			d.Degraded++
		default:
			d.Unknown++
		}
	}
	return d
}

func (r *Repo) IncidentStats() domain.IncidentStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := domain.IncidentStats{Total: len(r.incidents)}
	cutoff := time.Now().Add(-24 * time.Hour)
	var mttrSum time.Duration
	var resolved int
	for _, in := range r.incidents {
		if in.ResolvedAt == nil {
			st.Active++
			continue
		}
		resolved++
		mttrSum += in.ResolvedAt.Sub(in.StartedAt)
		if in.ResolvedAt.After(cutoff) {
			st.ResolvedLast++
		}
	}
	if resolved > 0 {
		st.MTTRMinutes = mttrSum.Minutes() / float64(resolved)
	}
	return st
}
