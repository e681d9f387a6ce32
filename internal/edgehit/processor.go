package edgehit

import (
	"context"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/edgetelemetry/go-edge-sdk/internal/edgeconsent"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgeentity"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgeresponse"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgestate"
	"github.com/edgetelemetry/go-edge-sdk/subsystems"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// ProcessOutcome is the terminal state of one processing attempt of a queued record.
type ProcessOutcome int

const (
	// HitComplete means the record reached a terminal outcome, successful or not, and must be
	// removed from the queue.
	HitComplete ProcessOutcome = iota
	// HitRetry means the dispatch failed transiently; the record stays at the head of the
	// queue and blocks it until it resolves.
	HitRetry
	// HitNotReady means the record's preconditions do not hold yet. The record is not
	// consumed and the whole drain pauses until the next trigger.
	HitNotReady
)

// HitProcessor processes one queued record per call. Implementations never see more than one
// in-flight record at a time.
type HitProcessor interface {
	ProcessHit(ctx context.Context, entity edgetypes.DataEntity) ProcessOutcome
}

// EdgeHitProcessor is the production HitProcessor: it decodes the record, re-checks readiness,
// builds the network request, dispatches it, and hands the response to the response handler.
type EdgeHitProcessor struct {
	transport    subsystems.NetworkTransport
	response     *edgeresponse.Handler
	sharedStates subsystems.SharedStateProvider
	state        *edgestate.State
	loggers      ldlog.Loggers
}

// NewEdgeHitProcessor creates an EdgeHitProcessor.
func NewEdgeHitProcessor(
	transport subsystems.NetworkTransport,
	response *edgeresponse.Handler,
	sharedStates subsystems.SharedStateProvider,
	state *edgestate.State,
	loggers ldlog.Loggers,
) *EdgeHitProcessor {
	return &EdgeHitProcessor{
		transport:    transport,
		response:     response,
		sharedStates: sharedStates,
		state:        state,
		loggers:      loggers,
	}
}

//nolint:revive // no doc comment for standard method
func (p *EdgeHitProcessor) ProcessHit(ctx context.Context, entity edgetypes.DataEntity) ProcessOutcome {
	// the first evaluated record triggers the bootstrap; the persistence layer may not have
	// existed when the processor was constructed
	p.state.BootupIfNeeded()

	ent, err := edgeentity.Decode(entity.Data)
	if err != nil {
		p.loggers.Errorf("Dropping queued record %s that could not be decoded: %s", entity.ID, err)
		return HitComplete
	}

	configuration := p.sharedStates.GetSharedState(edgetypes.StateOwnerConfiguration, ent.Event)
	identity := p.sharedStates.GetSharedState(edgetypes.StateOwnerIdentity, ent.Event)
	if configuration.Status != edgetypes.SharedStateSet || identity.Status != edgetypes.SharedStateSet {
		return HitNotReady
	}
	// consent-update records bypass the consent clause, otherwise consent could never be
	// restored once denied
	if !ent.Event.IsUpdateConsentEvent() && p.state.Consent().Current() != edgeconsent.StatusYes {
		return HitNotReady
	}

	configID := configuration.Value.GetByKey("edge").GetByKey("configId").StringValue()
	if configID == "" {
		p.loggers.Errorf("Dropping record %s: configuration has no edge.configId", entity.ID)
		return HitComplete
	}

	request := edgetypes.HitRequest{
		RequestID: uuid.New().String(),
		ConfigID:  configID,
		Body:      buildRequestBody(ent, unexpiredPayloads(ent.StorePayloads)),
	}
	p.response.AddWaitingEvents(request.RequestID, []edgetypes.Event{ent.Event})

	result := p.transport.Send(ctx, request)
	switch result.Outcome {
	case edgetypes.HitOutcomeSuccess:
		p.response.OnResponseSuccess(request.RequestID, result.Body)
		return HitComplete
	case edgetypes.HitOutcomeClientError:
		p.loggers.Errorf("Dropping record %s after unrecoverable HTTP error %d",
			entity.ID, result.StatusCode)
		p.response.OnResponseError(request.RequestID, result.Body)
		return HitComplete
	default:
		p.loggers.Warnf("Dispatch of record %s failed (%s); will retry", entity.ID, result.Outcome)
		p.response.RemoveWaitingEvents(request.RequestID)
		return HitRetry
	}
}
