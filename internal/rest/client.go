package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// Client talks to the monitoring backend's JSON API. All methods block on
// the wire and honor ctx plus the fixed per-request timeout.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func NewClient(base string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// ---- endpoints ----

func (c *Client) ListEndpoints(ctx context.Context, q ListEndpointsQuery) (EndpointPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	var page EndpointPage
	err := c.get(ctx, "/endpoints", v, &page)
	return page, err
}

func (c *Client) GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error) {
	var ep domain.Endpoint
	err := c.get(ctx, "/endpoints/"+url.PathEscape(string(id)), nil, &ep)
	return ep, err
}

func (c *Client) CreateEndpoint(ctx context.Context, req CreateEndpointRequest) (domain.Endpoint, error) {
	var ep domain.Endpoint
	err := c.send(ctx, http.MethodPost, "/endpoints", req, &ep)
	return ep, err
}

func (c *Client) UpdateEndpoint(ctx context.Context, id domain.EndpointID, req UpdateEndpointRequest) (domain.Endpoint, error) {
	var ep domain.Endpoint
	err := c.send(ctx, http.MethodPut, "/endpoints/"+url.PathEscape(string(id)), req, &ep)
	return ep, err
}

func (c *Client) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	return c.send(ctx, http.MethodDelete, "/endpoints/"+url.PathEscape(string(id)), nil, nil)
}

func (c *Client) RunCheck(ctx context.Context, id domain.EndpointID) (CheckOutcome, error) {
	var out CheckOutcome
	err := c.send(ctx, http.MethodPost, "/endpoints/"+url.PathEscape(string(id))+"/check", nil, &out)
	return out, err
}

func (c *Client) EndpointCheckResults(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckResult, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.CheckResult
	err := c.get(ctx, "/endpoints/"+url.PathEscape(string(id))+"/check-results", v, &out)
	return out, err
}

// ---- incidents ----

func (c *Client) ListIncidents(ctx context.Context, q ListIncidentsQuery) (IncidentPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.EndpointID != "" {
		v.Set("endpointId", string(q.EndpointID))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	var page IncidentPage
	err := c.get(ctx, "/incidents", v, &page)
	return page, err
}

func (c *Client) GetIncident(ctx context.Context, id string) (domain.Incident, error) {
	var in domain.Incident
	err := c.get(ctx, "/incidents/"+url.PathEscape(id), nil, &in)
	return in, err
}

func (c *Client) IncidentsByEndpoint(ctx context.Context, id domain.EndpointID, page, limit int) (IncidentPage, error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out IncidentPage
	err := c.get(ctx, "/incidents/endpoint/"+url.PathEscape(string(id)), v, &out)
	return out, err
}

func (c *Client) RecentIncidents(ctx context.Context, limit int) ([]domain.Incident, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.Incident
	err := c.get(ctx, "/incidents/recent", v, &out)
	return out, err
}

func (c *Client) ActiveIncidents(ctx context.Context) ([]domain.Incident, error) {
	var out []domain.Incident
	err := c.get(ctx, "/incidents/active", nil, &out)
	return out, err
}

func (c *Client) ResolveIncident(ctx context.Context, id string) (domain.Incident, error) {
	var in domain.Incident
	err := c.send(ctx, http.MethodPost, "/incidents/"+url.PathEscape(id)+"/resolve", nil, &in)
	return in, err
}

func (c *Client) IncidentStats(ctx context.Context) (domain.IncidentStats, error) {
	var out domain.IncidentStats
	err := c.get(ctx, "/incidents/stats", nil, &out)
	return out, err
}

// ---- check results ----

func (c *Client) ListCheckResults(ctx context.Context, page, limit int, endpointID domain.EndpointID) (CheckResultPage, error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if endpointID != "" {
		v.Set("endpointId", string(endpointID))
	}
	var out CheckResultPage
	err := c.get(ctx, "/check-results", v, &out)
	return out, err
}

func (c *Client) CheckResultsByEndpoint(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckResult, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.CheckResult
	err := c.get(ctx, "/check-results/endpoint/"+url.PathEscape(string(id)), v, &out)
	return out, err
}

func (c *Client) CheckResultsByDateRange(ctx context.Context, start, end time.Time, endpointID domain.EndpointID) ([]domain.CheckResult, error) {
	v := url.Values{}
	v.Set("startDate", start.Format(time.RFC3339))
	v.Set("endDate", end.Format(time.RFC3339))
	if endpointID != "" {
		v.Set("endpointId", string(endpointID))
	}
	var out []domain.CheckResult
	err := c.get(ctx, "/check-results/date-range", v, &out)
	return out, err
}

func (c *Client) FailedCheckResults(ctx context.Context, page, limit int) (CheckResultPage, error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out CheckResultPage
	err := c.get(ctx, "/check-results/failed", v, &out)
	return out, err
}

// ---- statistics ----

func (c *Client) Overview(ctx context.Context) (domain.Overview, error) {
	var out domain.Overview
	err := c.get(ctx, "/statistics/overview", nil, &out)
	return out, err
}

func (c *Client) UptimeFor(ctx context.Context, id domain.EndpointID, period string) (domain.UptimeStat, error) {
	v := url.Values{}
	if period != "" {
		v.Set("period", period)
	}
	var out domain.UptimeStat
	err := c.get(ctx, "/statistics/uptime/"+url.PathEscape(string(id)), v, &out)
	return out, err
}

func (c *Client) UptimeAll(ctx context.Context, period string) ([]domain.UptimeStat, error) {
	v := url.Values{}
	if period != "" {
		v.Set("period", period)
	}
	var out []domain.UptimeStat
	err := c.get(ctx, "/statistics/uptime", v, &out)
	return out, err
}

func (c *Client) ResponseTimeFor(ctx context.Context, id domain.EndpointID, period string) (domain.ResponseTimeStat, error) {
	v := url.Values{}
	if period != "" {
		v.Set("period", period)
	}
	var out domain.ResponseTimeStat
	err := c.get(ctx, "/statistics/response-time/"+url.PathEscape(string(id)), v, &out)
	return out, err
}

func (c *Client) ResponseTimeAll(ctx context.Context, period string) ([]domain.ResponseTimeStat, error) {
	v := url.Values{}
	if period != "" {
		v.Set("period", period)
	}
	var out []domain.ResponseTimeStat
	err := c.get(ctx, "/statistics/response-time", v, &out)
	return out, err
}

func (c *Client) ResponseTimeTimeseries(ctx context.Context, id domain.EndpointID, hours int) ([]domain.TimeseriesPoint, error) {
	v := url.Values{}
	if hours > 0 {
		v.Set("hours", strconv.Itoa(hours))
	}
	var out []domain.TimeseriesPoint
	err := c.get(ctx, "/statistics/response-time/"+url.PathEscape(string(id))+"/timeseries", v, &out)
	return out, err
}

func (c *Client) UptimeTimeseries(ctx context.Context, id domain.EndpointID, hours int) ([]domain.TimeseriesPoint, error) {
	v := url.Values{}
	if hours > 0 {
		v.Set("hours", strconv.Itoa(hours))
	}
	var out []domain.TimeseriesPoint
	err := c.get(ctx, "/statistics/uptime/"+url.PathEscape(string(id))+"/timeseries", v, &out)
	return out, err
}

func (c *Client) StatusDistribution(ctx context.Context) (domain.StatusDistribution, error) {
	var out domain.StatusDistribution
	err := c.get(ctx, "/statistics/status-distribution", nil, &out)
	return out, err
}

// ---- plumbing ----

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); rerr == nil {
			if json.Unmarshal(b, &e) == nil {
				if e.Message != "" {
					apiErr.Message = e.Message
				} else {
					apiErr.Message = e.Error
				}
			}
		}
		c.log.Warn("api_error",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
