package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

func TestPropertyRecentIncidentsCapped(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("recent list stays <= 10 with the newest first", prop.ForAll(
		func(n int) bool {
			s := NewIncidentStore(&fakeIncidentAPI{})
			for i := 0; i < n; i++ {
				s.ApplyStarted(domain.Incident{ID: fmt.Sprintf("inc-%d", i)})
			}
			recent := s.Recent()
			if len(recent) > maxRecentIncidents {
				return false
			}
			if n > 0 && recent[0].ID != fmt.Sprintf("inc-%d", n-1) {
				return false
			}
			return s.Total() == n && len(s.All()) == n
		},
		gen.IntRange(0, 50),
	))

	props.TestingRun(t)
}

func TestPropertyCheckResultsCapped(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("check feed stays <= 50 with the newest first", prop.ForAll(
		func(n int) bool {
			s := NewEndpointStore(&fakeEndpointAPI{})
			for i := 0; i < n; i++ {
				s.ApplyCheckCompleted(domain.CheckResult{ResponseTime: float64(i)})
			}
			rs := s.CheckResults()
			if len(rs) > maxCheckResults {
				return false
			}
			if n > 0 && rs[0].ResponseTime != float64(n-1) {
				return false
			}
			return true
		},
		gen.IntRange(0, 200),
	))

	props.TestingRun(t)
}

func TestPropertyResolveRemovesExactlyOne(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("resolving an active id removes only that id", prop.ForAll(
		func(n, pick int) bool {
			if n < 1 {
				return true
			}
			pick = pick % n

			s := NewIncidentStore(&fakeIncidentAPI{})
			for i := 0; i < n; i++ {
				s.ApplyStarted(domain.Incident{ID: fmt.Sprintf("inc-%d", i)})
			}

			target := fmt.Sprintf("inc-%d", pick)
			at := time.Now().UTC()
			s.ApplyResolved(domain.Incident{ID: target, ResolvedAt: &at})

			active := s.Active()
			if len(active) != n-1 {
				return false
			}
			seen := make(map[string]bool, len(active))
			for _, in := range active {
				if in.ID == target {
					return false
				}
				seen[in.ID] = true
			}
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("inc-%d", i)
				if id != target && !seen[id] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(0, 1<<20),
	))

	props.TestingRun(t)
}

func TestPropertyStatusEventNeverCreates(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("status events for unknown ids never grow the list", prop.ForAll(
		func(ids []string) bool {
			s := NewEndpointStore(&fakeEndpointAPI{})
			for _, id := range ids {
				s.ApplyStatusChange(domain.StatusChange{
					EndpointID:    domain.EndpointID(id),
					CurrentStatus: domain.StatusDown,
				})
			}
			return len(s.Endpoints()) == 0 && s.Total() == 0
		},
		gen.SliceOf(gen.AlphaString()),
	))

	props.TestingRun(t)
}
