package subsystems

import (
	"context"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// NetworkTransport dispatches one request to the collection endpoint and reports a terminal
// outcome. Send blocks until the outcome is known or the context is canceled; a canceled
// context should be reported as edgetypes.HitOutcomeUnreachable so the caller treats the
// record as undelivered.
type NetworkTransport interface {
	Send(ctx context.Context, request edgetypes.HitRequest) edgetypes.HitResult
}
