package edgetypes

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Names of the externally-owned shared states consulted by the readiness gate.
const (
	StateOwnerConfiguration = "configuration"
	StateOwnerIdentity      = "identity"
)

// SharedStateStatus describes the resolution status of a shared state lookup.
type SharedStateStatus int

const (
	// SharedStateNone means no state has ever been published for the owner.
	SharedStateNone SharedStateStatus = iota
	// SharedStatePending means a state change is in progress and the value is not yet usable.
	SharedStatePending
	// SharedStateSet means the state value is resolved and usable.
	SharedStateSet
)

// SharedState is a snapshot of an externally-owned state value. Any status other than
// SharedStateSet is treated as "not ready" by the pipeline.
type SharedState struct {
	Status SharedStateStatus
	Value  ldvalue.Value
}
