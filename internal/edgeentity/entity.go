package edgeentity

import (
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

var entityRequiredProperties = []string{"event", "identityMap"} //nolint:gochecknoglobals

// Entity is the durable representation of one queued event.
//
// IdentityMap is snapshotted from the identity shared state at enqueue time, not re-fetched at
// send time, so the identity used for a request always matches what was valid when the event
// was captured.
//
// StorePayloads is present only for experience events; consent-update records carry no locally
// cached server state, and HasStorePayloads distinguishes an absent list from an empty one.
type Entity struct {
	Event            edgetypes.Event
	IdentityMap      ldvalue.Value
	StorePayloads    []edgetypes.StorePayload
	HasStorePayloads bool
}

// Encode serializes the entity for storage in the durable queue.
func Encode(entity Entity) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()

	eventObj := obj.Name("event").Object()
	eventObj.Name("id").String(entity.Event.ID.String())
	eventObj.Name("timestamp").Float64(float64(ldtime.UnixMillisFromTime(entity.Event.Timestamp)))
	eventObj.Name("type").String(entity.Event.Type)
	eventObj.Name("source").String(entity.Event.Source)
	entity.Event.Data.WriteToJSONWriter(eventObj.Name("data"))
	eventObj.End()

	entity.IdentityMap.WriteToJSONWriter(obj.Name("identityMap"))

	if entity.HasStorePayloads {
		arr := obj.Name("storePayloads").Array()
		for _, p := range entity.StorePayloads {
			p.WriteToJSONWriter(&w)
		}
		arr.End()
	}

	obj.End()
	return w.Bytes()
}

// Decode deserializes an entity previously produced by Encode. A decoding failure is permanent:
// a corrupt record can never become processable, so callers must drop it rather than retry.
func Decode(data []byte) (Entity, error) {
	var ret Entity
	r := jreader.NewReader(data)
	for obj := r.Object().WithRequiredProperties(entityRequiredProperties); obj.Next(); {
		switch string(obj.Name()) {
		case "event":
			readEvent(&r, &ret.Event)
		case "identityMap":
			ret.IdentityMap.ReadFromJSONReader(&r)
		case "storePayloads":
			ret.HasStorePayloads = true
			ret.StorePayloads = []edgetypes.StorePayload{}
			for arr := r.Array(); arr.Next(); {
				var p edgetypes.StorePayload
				p.ReadFromJSONReader(&r)
				ret.StorePayloads = append(ret.StorePayloads, p)
			}
		}
	}
	if err := r.Error(); err != nil {
		return Entity{}, err
	}
	return ret, nil
}

func readEvent(r *jreader.Reader, event *edgetypes.Event) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "id":
			if id, err := uuid.Parse(r.String()); err == nil {
				event.ID = id
			}
		case "timestamp":
			event.Timestamp = time.UnixMilli(int64(r.Float64()))
		case "type":
			event.Type = r.String()
		case "source":
			event.Source = r.String()
		case "data":
			event.Data.ReadFromJSONReader(r)
		}
	}
}
