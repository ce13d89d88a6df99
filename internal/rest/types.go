package rest

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/pulsedeck/pulsedeck/internal/domain"
)

// APIError is a non-2xx response reduced to its status and server message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

type EndpointPage struct {
	Data []domain.Endpoint `json:"data"`
	Meta domain.PageMeta   `json:"meta"`
}

type IncidentPage struct {
	Data []domain.Incident `json:"data"`
	Meta domain.PageMeta   `json:"meta"`
}

type CheckResultPage struct {
	Data []domain.CheckResult `json:"data"`
	Meta domain.PageMeta      `json:"meta"`
}

type ListEndpointsQuery struct {
	Page   int
	Limit  int
	Status domain.Status
}

type ListIncidentsQuery struct {
	Page       int
	Limit      int
	EndpointID domain.EndpointID
	Status     string // "active" or "resolved"
	SortBy     string
	Order      string
}

type CreateEndpointRequest struct {
	Name               string            `json:"name"`
	URL                string            `json:"url"`
	Method             string            `json:"method"`
	Headers            map[string]string `json:"headers,omitempty"`
	Body               string            `json:"body,omitempty"`
	ExpectedStatusCode int               `json:"expectedStatusCode"`
	CheckInterval      int               `json:"checkInterval"`
	TimeoutThreshold   int               `json:"timeoutThreshold"`
	IsActive           bool              `json:"isActive"`
}

// UpdateEndpointRequest is a partial CreateEndpointRequest; nil fields are
// left unchanged by the server.
type UpdateEndpointRequest struct {
	Name               *string            `json:"name,omitempty"`
	URL                *string            `json:"url,omitempty"`
	Method             *string            `json:"method,omitempty"`
	Headers            *map[string]string `json:"headers,omitempty"`
	Body               *string            `json:"body,omitempty"`
	ExpectedStatusCode *int               `json:"expectedStatusCode,omitempty"`
	CheckInterval      *int               `json:"checkInterval,omitempty"`
	TimeoutThreshold   *int               `json:"timeoutThreshold,omitempty"`
	IsActive           *bool              `json:"isActive,omitempty"`
}

// CheckOutcome is the response of a manually triggered check.
type CheckOutcome struct {
	Status       domain.Status `json:"status"`
	ResponseTime float64       `json:"responseTime"`
	StatusCode   int           `json:"statusCode"`
	Message      string        `json:"message"`
}

// Validate runs the local pre-submission checks. A non-empty map blocks the
// request; keys are field names, values are display messages.
func (r CreateEndpointRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	u, err := url.ParseRequestURI(r.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs["url"] = "must be a valid http(s) URL"
	}
	if !slices.Contains(domain.HTTPMethods, r.Method) {
		errs["method"] = "unsupported HTTP method"
	}
	if r.CheckInterval < domain.MinCheckIntervalSec {
		errs["checkInterval"] = fmt.Sprintf("minimum interval is %d seconds", domain.MinCheckIntervalSec)
	}
	if r.TimeoutThreshold < domain.MinTimeoutMS {
		errs["timeoutThreshold"] = fmt.Sprintf("minimum timeout is %d ms", domain.MinTimeoutMS)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
