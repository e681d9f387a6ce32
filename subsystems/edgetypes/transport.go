package edgetypes

// HitRequest is a single outbound network request built from one queued record. There is no
// client-side batching: one request always corresponds to exactly one queued record.
type HitRequest struct {
	// RequestID is a fresh correlation ID generated at dispatch time. Responses are correlated
	// back to the originating events through this ID.
	RequestID string
	// ConfigID is the datastream configuration ID from the configuration shared state.
	ConfigID string
	// Body is the serialized JSON request envelope.
	Body []byte
}

// HitOutcome classifies the terminal result of a network dispatch.
type HitOutcome int

const (
	// HitOutcomeSuccess means a 2xx response was received. Body holds the raw response stream.
	HitOutcomeSuccess HitOutcome = iota
	// HitOutcomeClientError means a top-level 4xx response was received. Retrying a
	// structurally invalid request can never succeed, so this outcome is permanent.
	HitOutcomeClientError
	// HitOutcomeServerError means a 5xx response was received; the request may be retried.
	HitOutcomeServerError
	// HitOutcomeTimeout means the request timed out before a response was received.
	HitOutcomeTimeout
	// HitOutcomeUnreachable means the endpoint could not be reached or the response could not
	// be read.
	HitOutcomeUnreachable
)

// String returns a human-readable name for the outcome, used in log messages.
func (o HitOutcome) String() string {
	switch o {
	case HitOutcomeSuccess:
		return "success"
	case HitOutcomeClientError:
		return "client error"
	case HitOutcomeServerError:
		return "server error"
	case HitOutcomeTimeout:
		return "timeout"
	case HitOutcomeUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// HitResult is the terminal result of a network dispatch as reported by the transport.
type HitResult struct {
	Outcome HitOutcome
	// StatusCode is the HTTP status code, when a response was received.
	StatusCode int
	// Body is the raw response body, present for HitOutcomeSuccess and HitOutcomeClientError.
	Body []byte
}
