package domain

import "time"

type EndpointID string

// Status is the advisory health of an endpoint. It mirrors the server's
// latest poll outcome and may lag server truth between pushes.
type Status string

const (
	StatusUp       Status = "UP"
	StatusDown     Status = "DOWN"
	StatusDegraded Status = "DEGRADED"
	StatusUnknown  Status = "UNKNOWN"
)

// HTTPMethods is the fixed method set an endpoint check may use.
var HTTPMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

const (
	MinCheckIntervalSec = 30
	MinTimeoutMS        = 1000
)

// Endpoint is a monitored HTTP target, mirrored from the server.
type Endpoint struct {
	ID                 EndpointID        `json:"id"`
	Name               string            `json:"name"`
	URL                string            `json:"url"`
	Method             string            `json:"method"`
	Headers            map[string]string `json:"headers,omitempty"`
	Body               string            `json:"body,omitempty"`
	ExpectedStatusCode int               `json:"expectedStatusCode"`
	CheckInterval      int               `json:"checkInterval"`    // seconds, >= 30
	TimeoutThreshold   int               `json:"timeoutThreshold"` // ms, >= 1000
	IsActive           bool              `json:"isActive"`
	CurrentStatus      Status            `json:"currentStatus"`
	LastCheckedAt      *time.Time        `json:"lastCheckedAt,omitempty"`
	LastResponseTime   *float64          `json:"lastResponseTime,omitempty"` // ms
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// Incident is a contiguous episode of endpoint failure. ResolvedAt being
// set is the canonical resolved marker; there is no separate status field.
type Incident struct {
	ID           string     `json:"id"`
	EndpointID   EndpointID `json:"endpointId"`
	EndpointName string     `json:"endpointName"`
	StartedAt    time.Time  `json:"startedAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	FailureCount int        `json:"failureCount"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

func (i Incident) Resolved() bool { return i.ResolvedAt != nil }

// CheckResult is one outcome of a single health probe.
type CheckResult struct {
	ID           string     `json:"id,omitempty"`
	EndpointID   EndpointID `json:"endpointId"`
	Status       string     `json:"status"`       // "success" or "failure"
	ResponseTime float64    `json:"responseTime"` // ms
	StatusCode   *int       `json:"statusCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CheckedAt    time.Time  `json:"checkedAt"`
}

func (r CheckResult) Success() bool { return r.Status == "success" }

// ConnectionState mirrors the push-channel lifecycle.
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Connecting   ConnectionState = "connecting"
	Disconnected ConnectionState = "disconnected"
)

// PageMeta is the pagination envelope the REST API wraps lists in.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}
