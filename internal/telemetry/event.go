package telemetry

import "time"

// Event types emitted by the service.
const (
	EventLeadCreated = "lead_created"
	EventHTTPRequest = "http_request"
)

// SourceServer is the Source value of events emitted by the HTTP server.
const SourceServer = "lead-capture"

// Event is a single best-effort telemetry record. It is serialized as JSON for Kafka and Loki.
// Lead events carry the lead id and property only; contact details never leave the store.
type Event struct {
	EventType  string            `json:"eventType"`
	Source     string            `json:"source"`
	LeadID     string            `json:"leadId,omitempty"`
	Property   string            `json:"property,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewLeadCreated returns the lead_created event for a stored lead.
func NewLeadCreated(leadID, property string, at time.Time) *Event {
	return &Event{
		EventType: EventLeadCreated,
		Source:    SourceServer,
		LeadID:    leadID,
		Property:  property,
		CreatedAt: at.UTC(),
	}
}
