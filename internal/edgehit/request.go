package edgehit

import (
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/edgetelemetry/go-edge-sdk/internal/edgeentity"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// unexpiredPayloads filters the store payloads snapshotted into the entity at enqueue time.
// Expiration is evaluated at dispatch time, so an entry that expired while the record waited
// in the queue is not replayed.
func unexpiredPayloads(payloads []edgetypes.StorePayload) []edgetypes.StorePayload {
	ret := make([]edgetypes.StorePayload, 0, len(payloads))
	for _, p := range payloads {
		if !p.IsExpired() {
			ret = append(ret, p)
		}
	}
	return ret
}

// buildRequestBody serializes the request envelope for one record: the identity context
// snapshotted at enqueue time, the event payload, and the unexpired store payloads (absent for
// consent-update records, which carry no cached server state).
//
// Envelope shape:
//
//	{
//	  "xdm": {"identityMap": {...}},
//	  "events": [{..., "xdm": {..., "eventId": "...", "timestamp": "..."}}],
//	  "meta": {"state": {"entries": [{"key": ..., "value": ..., "maxAge": ...}]}}
//	}
func buildRequestBody(entity edgeentity.Entity, payloads []edgetypes.StorePayload) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()

	envelopeXDM := obj.Name("xdm").Object()
	entity.IdentityMap.WriteToJSONWriter(envelopeXDM.Name("identityMap"))
	envelopeXDM.End()

	events := obj.Name("events").Array()
	writeRequestEvent(&w, entity.Event)
	events.End()

	if entity.HasStorePayloads && len(payloads) > 0 {
		meta := obj.Name("meta").Object()
		state := meta.Name("state").Object()
		entries := state.Name("entries").Array()
		for _, p := range payloads {
			entryObj := w.Object()
			entryObj.Name("key").String(p.Key)
			entryObj.Name("value").String(p.Value)
			entryObj.Name("maxAge").Int(p.MaxAgeSeconds)
			entryObj.End()
		}
		entries.End()
		state.End()
		meta.End()
	}

	obj.End()
	return w.Bytes()
}

// writeRequestEvent writes the event payload with the event's ID and timestamp merged into its
// "xdm" section. The request preserves event ordering, which is what makes index-based result
// correlation valid.
func writeRequestEvent(w *jwriter.Writer, event edgetypes.Event) {
	obj := w.Object()
	for _, key := range event.Data.Keys(nil) {
		if key == "xdm" {
			continue
		}
		event.Data.GetByKey(key).WriteToJSONWriter(obj.Name(key))
	}

	xdm := obj.Name("xdm").Object()
	eventXDM := event.Data.GetByKey("xdm")
	for _, key := range eventXDM.Keys(nil) {
		if key == "eventId" || key == "timestamp" {
			continue
		}
		eventXDM.GetByKey(key).WriteToJSONWriter(xdm.Name(key))
	}
	xdm.Name("eventId").String(event.ID.String())
	xdm.Name("timestamp").String(event.Timestamp.UTC().Format(time.RFC3339Nano))
	xdm.End()

	obj.End()
}
