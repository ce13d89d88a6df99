package mockapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// Prober drives the mock backend's health checks: it probes each active
// endpoint on a fixed loop, records results, transitions statuses, opens
// and resolves incidents, and broadcasts the corresponding push events.
type Prober struct {
	log         *zap.Logger
	repo        *Repo
	hub         *Hub
	client      *http.Client
	interval    time.Duration
	concurrency int
}

func NewProber(log *zap.Logger, repo *Repo, hub *Hub, interval time.Duration, concurrency int) *Prober {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &Prober{
		log:         log,
		repo:        repo,
		hub:         hub,
		client:      &http.Client{},
		interval:    interval,
		concurrency: concurrency,
	}
}

// Run loops until ctx is cancelled, with an immediate first pass.
func (p *Prober) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("prober_stopped")
			return
		case <-t.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Prober) runOnce(ctx context.Context) {
	eps := p.repo.ActiveEndpoints()
	if len(eps) == 0 {
		return
	}

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for _, ep := range eps {
		ep := ep
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			cr, st := p.probe(ctx, ep)
			p.Record(ep, cr, st)
		}()
	}
	wg.Wait()
}

// CheckNow probes one endpoint immediately and records the outcome. Used
// by the manual-check route.
func (p *Prober) CheckNow(ctx context.Context, ep domain.Endpoint) (domain.CheckResult, domain.Status) {
	cr, st := p.probe(ctx, ep)
	p.Record(ep, cr, st)
	return cr, st
}

func (p *Prober) probe(ctx context.Context, ep domain.Endpoint) (domain.CheckResult, domain.Status) {
	timeout := time.Duration(ep.TimeoutThreshold) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body *strings.Reader
	if ep.Body != "" {
		body = strings.NewReader(ep.Body)
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(cctx, ep.Method, ep.URL, body)
	if err != nil {
		return failResult(ep.ID, 0, err.Error()), domain.StatusDown
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return failResult(ep.ID, latency, err.Error()), domain.StatusDown
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 400
	if ep.ExpectedStatusCode != 0 {
		ok = resp.StatusCode == ep.ExpectedStatusCode
	}
	code := resp.StatusCode
	cr := domain.CheckResult{
		EndpointID:   ep.ID,
		Status:       "success",
		ResponseTime: latency,
		StatusCode:   &code,
		CheckedAt:    time.Now().UTC(),
	}
	if !ok {
		cr.Status = "failure"
		cr.ErrorMessage = resp.Status
		return cr, domain.StatusDown
	}
	// slow but successful responses count as degraded
	if latency > float64(ep.TimeoutThreshold)/2 {
		return cr, domain.StatusDegraded
	}
	return cr, domain.StatusUp
}

func failResult(id domain.EndpointID, latency float64, msg string) domain.CheckResult {
	return domain.CheckResult{
		EndpointID:   id,
		Status:       "failure",
		ResponseTime: latency,
		ErrorMessage: msg,
		CheckedAt:    time.Now().UTC(),
	}
}

// Record stores one outcome and broadcasts the resulting events.
func (p *Prober) Record(ep domain.Endpoint, cr domain.CheckResult, st domain.Status) {
	p.repo.AppendResult(cr)
	p.hub.Broadcast(domain.EvCheckCompleted, cr, ep.ID)

	updated, changed, err := p.repo.SetStatus(ep.ID, st, cr.ResponseTime, cr.CheckedAt)
	if err != nil {
		// endpoint deleted mid-check
		return
	}
	if changed {
		rt := cr.ResponseTime
		at := cr.CheckedAt
		p.hub.Broadcast(domain.EvStatusChanged, domain.StatusChange{
			EndpointID:    ep.ID,
			CurrentStatus: st,
			ResponseTime:  &rt,
			CheckedAt:     &at,
		}, ep.ID)
		p.log.Info("status_changed",
			zap.String("endpoint_id", string(ep.ID)),
			zap.String("status", string(st)),
		)
	}

	if st == domain.StatusDown {
		in, started := p.repo.OpenIncident(ep.ID, updated.Name, cr.ErrorMessage)
		if started {
			p.hub.Broadcast(domain.EvIncidentStarted, in, ep.ID)
			p.log.Warn("incident_started",
				zap.String("incident_id", in.ID),
				zap.String("endpoint_id", string(ep.ID)),
			)
		}
		return
	}
	if in, resolved := p.repo.ResolveActiveIncident(ep.ID); resolved {
		p.hub.Broadcast(domain.EvIncidentResolve, in, ep.ID)
		p.log.Info("incident_resolved",
			zap.String("incident_id", in.ID),
			zap.String("endpoint_id", string(ep.ID)),
		)
	}
}
