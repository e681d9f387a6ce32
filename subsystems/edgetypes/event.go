package edgetypes

import (
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Event type and source identifiers recognized by the pipeline. An event is classified by its
// (Type, Source) pair; unrecognized pairs are ignored by the client.
const (
	EventTypeEdge    = "edge"
	EventTypeConsent = "consent"

	EventSourceRequestContent  = "requestContent"
	EventSourceUpdateConsent   = "updateConsent"
	EventSourceResponseContent = "responseContent"
	EventSourceErrorResponse   = "errorResponseContent"
	EventSourceWarningResponse = "warningResponseContent"
	EventSourceConsentChanged  = "consentChanged"
)

// Event is a single message exchanged with the host event dispatcher. The Data payload is an
// arbitrary JSON object represented as an ldvalue.Value.
type Event struct {
	// ID uniquely identifies the event. It is also used as the durable queue record key.
	ID uuid.UUID
	// Timestamp is the time at which the event was originally produced.
	Timestamp time.Time
	// Type is the event type identifier, such as EventTypeEdge.
	Type string
	// Source is the event source identifier, such as EventSourceRequestContent.
	Source string
	// Data is the event payload.
	Data ldvalue.Value
}

// NewEvent constructs an Event with a new random ID and the current time.
func NewEvent(eventType, source string, data ldvalue.Value) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Type:      eventType,
		Source:    source,
		Data:      data,
	}
}

// IsExperienceEvent returns true if this is an application telemetry event submitted for
// collection.
func (e Event) IsExperienceEvent() bool {
	return e.Type == EventTypeEdge && e.Source == EventSourceRequestContent
}

// IsUpdateConsentEvent returns true if this event carries a collect-consent change request.
// Such events must be deliverable even while consent is denied.
func (e Event) IsUpdateConsentEvent() bool {
	return e.Type == EventTypeEdge && e.Source == EventSourceUpdateConsent
}

// IsConsentPreferencesEvent returns true if this event is a consent preferences response from
// the host's consent component.
func (e Event) IsConsentPreferencesEvent() bool {
	return e.Type == EventTypeConsent && e.Source == EventSourceResponseContent
}
