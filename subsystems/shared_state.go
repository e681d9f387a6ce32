package subsystems

import (
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// SharedStateProvider resolves externally-owned shared states, versioned as of a given event.
// The pipeline polls it on every drain trigger rather than subscribing to change
// notifications, which keeps it decoupled from the host's notification mechanism.
type SharedStateProvider interface {
	// GetSharedState returns a snapshot of the named owner's state as of the given event.
	// A status other than edgetypes.SharedStateSet means the state is not yet resolved.
	GetSharedState(owner string, event edgetypes.Event) edgetypes.SharedState
}
