package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

// Server is the development backend: the full REST surface the client
// consumes plus the websocket push channel at /ws.
type Server struct {
	Logger *zap.Logger
	Repo   *Repo
	Hub    *Hub
	Prober *Prober
}

func NewServer(l *zap.Logger, repo *Repo, hub *Hub, prober *Prober) *Server {
	return &Server{Logger: l, Repo: repo, Hub: hub, Prober: prober}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/ws", s.Hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/endpoints", s.handleListEndpoints)
		r.Post("/endpoints", s.handleCreateEndpoint)
		r.Get("/endpoints/{id}", s.handleGetEndpoint)
		r.Put("/endpoints/{id}", s.handleUpdateEndpoint)
		r.Delete("/endpoints/{id}", s.handleDeleteEndpoint)
		r.Post("/endpoints/{id}/check", s.handleCheckEndpoint)
		r.Get("/endpoints/{id}/check-results", s.handleEndpointResults)

		r.Get("/incidents", s.handleListIncidents)
		r.Get("/incidents/stats", s.handleIncidentStats)
		r.Get("/incidents/recent", s.handleRecentIncidents)
		r.Get("/incidents/active", s.handleActiveIncidents)
		r.Get("/incidents/endpoint/{endpointId}", s.handleIncidentsByEndpoint)
		r.Get("/incidents/{id}", s.handleGetIncident)
		r.Post("/incidents/{id}/resolve", s.handleResolveIncident)

		r.Get("/check-results", s.handleListResults)
		r.Get("/check-results/endpoint/{endpointId}", s.handleResultsByEndpoint)
		r.Get("/check-results/date-range", s.handleResultsByDateRange)
		r.Get("/check-results/failed", s.handleFailedResults)

		r.Get("/statistics/overview", s.handleOverview)
		r.Get("/statistics/status-distribution", s.handleDistribution)
		r.Get("/statistics/uptime", s.handleUptimeAll)
		r.Get("/statistics/uptime/{endpointId}", s.handleUptime)
		r.Get("/statistics/uptime/{endpointId}/timeseries", s.handleUptimeSeries)
		r.Get("/statistics/response-time", s.handleResponseTimeAll)
		r.Get("/statistics/response-time/{endpointId}", s.handleResponseTime)
		r.Get("/statistics/response-time/{endpointId}/timeseries", s.handleResponseTimeSeries)
	})

	return r
}

// ---- endpoints ----

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	status := domain.Status(r.URL.Query().Get("status"))
	data, meta := s.Repo.ListEndpoints(page, limit, status)
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req rest.CreateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if errs := req.Validate(); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "validation failed", "fields": errs})
		return
	}
	ep := s.Repo.CreateEndpoint(req)
	s.Hub.Broadcast(domain.EvEndpointCreated, ep, "")
	s.Logger.Info("endpoint_created", zap.String("id", string(ep.ID)), zap.String("url", ep.URL))
	writeJSON(w, http.StatusCreated, ep)
}

func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := s.Repo.GetEndpoint(domain.EndpointID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

func (s *Server) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req rest.UpdateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	ep, err := s.Repo.UpdateEndpoint(domain.EndpointID(chi.URLParam(r, "id")), req)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	s.Hub.Broadcast(domain.EvEndpointUpdated, ep, "")
	writeJSON(w, http.StatusOK, ep)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "id"))
	if err := s.Repo.DeleteEndpoint(id); err != nil {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	s.Hub.Broadcast(domain.EvEndpointDeleted, domain.EndpointDeleted{EndpointID: id}, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := s.Repo.GetEndpoint(domain.EndpointID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	cr, st := s.Prober.CheckNow(r.Context(), ep)
	code := 0
	if cr.StatusCode != nil {
		code = *cr.StatusCode
	}
	writeJSON(w, http.StatusOK, rest.CheckOutcome{
		Status:       st,
		ResponseTime: cr.ResponseTime,
		StatusCode:   code,
		Message:      cr.ErrorMessage,
	})
}

func (s *Server) handleEndpointResults(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s.Repo.ResultsByEndpoint(id, queryInt(r, "limit", 50)))
}

// ---- incidents ----

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, meta := s.Repo.ListIncidents(
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20),
		domain.EndpointID(q.Get("endpointId")),
		q.Get("status"),
		q.Get("sortBy"),
		q.Get("order"),
	)
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	in, err := s.Repo.GetIncident(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleIncidentsByEndpoint(w http.ResponseWriter, r *http.Request) {
	data, meta := s.Repo.ListIncidents(
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20),
		domain.EndpointID(chi.URLParam(r, "endpointId")),
		"", "", "",
	)
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleRecentIncidents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.RecentIncidents(queryInt(r, "limit", 10)))
}

func (s *Server) handleActiveIncidents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.ActiveIncidents())
}

func (s *Server) handleResolveIncident(w http.ResponseWriter, r *http.Request) {
	in, err := s.Repo.ResolveIncident(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}
	s.Hub.Broadcast(domain.EvIncidentResolve, in, in.EndpointID)
	s.Logger.Info("incident_resolved_manually", zap.String("incident_id", in.ID))
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleIncidentStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.IncidentStats())
}

// ---- check results ----

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	data, meta := s.Repo.ListResults(
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20),
		domain.EndpointID(r.URL.Query().Get("endpointId")),
	)
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleResultsByEndpoint(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "endpointId"))
	writeJSON(w, http.StatusOK, s.Repo.ResultsByEndpoint(id, queryInt(r, "limit", 50)))
}

func (s *Server) handleResultsByDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err1 := time.Parse(time.RFC3339, q.Get("startDate"))
	end, err2 := time.Parse(time.RFC3339, q.Get("endDate"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "startDate and endDate must be RFC3339")
		return
	}
	writeJSON(w, http.StatusOK, s.Repo.ResultsByDateRange(start, end, domain.EndpointID(q.Get("endpointId"))))
}

func (s *Server) handleFailedResults(w http.ResponseWriter, r *http.Request) {
	data, meta := s.Repo.FailedResults(queryInt(r, "page", 1), queryInt(r, "limit", 20))
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

// ---- statistics ----

func (s *Server) handleOverview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.Overview())
}

func (s *Server) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.Distribution())
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "endpointId"))
	writeJSON(w, http.StatusOK, s.Repo.UptimeStat(id, r.URL.Query().Get("period")))
}

func (s *Server) handleUptimeAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.UptimeStats(r.URL.Query().Get("period")))
}

func (s *Server) handleUptimeSeries(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "endpointId"))
	writeJSON(w, http.StatusOK, s.Repo.UptimeSeries(id, queryInt(r, "hours", 24)))
}

func (s *Server) handleResponseTime(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "endpointId"))
	writeJSON(w, http.StatusOK, s.Repo.ResponseTimeStat(id, r.URL.Query().Get("period")))
}

func (s *Server) handleResponseTimeAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Repo.ResponseTimeStats(r.URL.Query().Get("period")))
}

func (s *Server) handleResponseTimeSeries(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "endpointId"))
	writeJSON(w, http.StatusOK, s.Repo.ResponseTimeSeries(id, queryInt(r, "hours", 24)))
}

// ---- helpers ----

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}
