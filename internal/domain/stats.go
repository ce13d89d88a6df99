package domain

import "time"

// Statistics snapshots are read-only REST payloads, replaced wholesale on
// each fetch and never patched by push events.

type Overview struct {
	TotalEndpoints    int     `json:"totalEndpoints"`
	ActiveEndpoints   int     `json:"activeEndpoints"`
	EndpointsUp       int     `json:"endpointsUp"`
	EndpointsDown     int     `json:"endpointsDown"`
	EndpointsDegraded int     `json:"endpointsDegraded"`
	ActiveIncidents   int     `json:"activeIncidents"`
	OverallUptime     float64 `json:"overallUptime"`     // percent
	AvgResponseTime   float64 `json:"avgResponseTime"`   // ms
	ChecksLast24h     int     `json:"checksLast24Hours"`
}

type UptimeStat struct {
	EndpointID    EndpointID `json:"endpointId"`
	Period        string     `json:"period"`
	UptimePercent float64    `json:"uptimePercentage"`
	TotalChecks   int        `json:"totalChecks"`
	FailedChecks  int        `json:"failedChecks"`
}

type ResponseTimeStat struct {
	EndpointID EndpointID `json:"endpointId"`
	Period     string     `json:"period"`
	AvgMS      float64    `json:"average"`
	MinMS      float64    `json:"min"`
	MaxMS      float64    `json:"max"`
	P95MS      float64    `json:"p95"`
}

type TimeseriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type StatusDistribution struct {
	Up       int `json:"up"`
	Down     int `json:"down"`
	Degraded int `json:"degraded"`
	Unknown  int `json:"unknown"`
}

type IncidentStats struct {
	Total        int     `json:"total"`
	Active       int     `json:"active"`
	ResolvedLast int     `json:"resolvedLast24Hours"`
	MTTRMinutes  float64 `json:"mttrMinutes"`
}
