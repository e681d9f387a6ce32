package subsystems

import (
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// EventEmitter publishes notification events back to the host event dispatcher. Delivery of a
// queued event is fire-and-forget; these notifications are the only feedback channel for
// eventual success, per-event errors, and warnings.
type EventEmitter interface {
	Dispatch(event edgetypes.Event)
}
