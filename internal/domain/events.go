package domain

import "time"

// Push-channel event names. Server-to-client events carry entity payloads;
// client-to-server events manage per-endpoint subscriptions.
const (
	EvStatusChanged   = "endpoint:status-changed"
	EvIncidentStarted = "incident:started"
	EvIncidentResolve = "incident:resolved"
	EvCheckCompleted  = "check:completed"
	EvEndpointCreated = "endpoint:created"
	EvEndpointUpdated = "endpoint:updated"
	EvEndpointDeleted = "endpoint:deleted"

	EvSubscribeEndpoint   = "subscribe:endpoint"
	EvUnsubscribeEndpoint = "unsubscribe:endpoint"
	EvSubscribeAll        = "subscribe:all"
)

// StatusChange is the payload of endpoint:status-changed. Only the fields
// present overwrite the stored endpoint; LastCheckedAt defaults to the
// processing time when the server omits it.
type StatusChange struct {
	EndpointID    EndpointID `json:"endpointId"`
	CurrentStatus Status     `json:"currentStatus"`
	ResponseTime  *float64   `json:"responseTime,omitempty"`
	CheckedAt     *time.Time `json:"checkedAt,omitempty"`
}

// EndpointDeleted is the payload of endpoint:deleted.
type EndpointDeleted struct {
	EndpointID EndpointID `json:"endpointId"`
}

// SubscribePayload is emitted with subscribe:endpoint / unsubscribe:endpoint.
type SubscribePayload struct {
	EndpointID EndpointID `json:"endpointId"`
}
