package edgeentity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

func makeTestEvent() edgetypes.Event {
	return edgetypes.Event{
		ID:        uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Timestamp: time.UnixMilli(1700000000000),
		Type:      edgetypes.EventTypeEdge,
		Source:    edgetypes.EventSourceRequestContent,
		Data: ldvalue.ObjectBuild().
			Set("xdm", ldvalue.ObjectBuild().Set("eventType", ldvalue.String("commerce.purchases")).Build()).
			Build(),
	}
}

func TestEntityRoundTrip(t *testing.T) {
	original := Entity{
		Event:       makeTestEvent(),
		IdentityMap: ldvalue.ObjectBuild().Set("ECID", ldvalue.String("12345")).Build(),
		StorePayloads: []edgetypes.StorePayload{
			edgetypes.NewStorePayload("kndctr_consent", "in", 7200),
		},
		HasStorePayloads: true,
	}

	restored, err := Decode(Encode(original))
	require.NoError(t, err)

	assert.Equal(t, original.Event.ID, restored.Event.ID)
	assert.Equal(t, original.Event.Timestamp.UnixMilli(), restored.Event.Timestamp.UnixMilli())
	assert.Equal(t, original.Event.Type, restored.Event.Type)
	assert.Equal(t, original.Event.Source, restored.Event.Source)
	assert.Equal(t, original.Event.Data, restored.Event.Data)
	assert.Equal(t, original.IdentityMap, restored.IdentityMap)
	assert.True(t, restored.HasStorePayloads)
	require.Len(t, restored.StorePayloads, 1)
	assert.Equal(t, "kndctr_consent", restored.StorePayloads[0].Key)
	assert.Equal(t, "in", restored.StorePayloads[0].Value)
	assert.Equal(t, 7200, restored.StorePayloads[0].MaxAgeSeconds)
}

func TestEntityAbsentStorePayloadsAreDistinctFromEmpty(t *testing.T) {
	withoutPayloads := Entity{
		Event:       makeTestEvent(),
		IdentityMap: ldvalue.ObjectBuild().Build(),
	}
	encoded := Encode(withoutPayloads)
	assert.NotContains(t, string(encoded), "storePayloads")

	restored, err := Decode(encoded)
	require.NoError(t, err)
	assert.False(t, restored.HasStorePayloads)
	assert.Nil(t, restored.StorePayloads)

	withEmptyPayloads := Entity{
		Event:            makeTestEvent(),
		IdentityMap:      ldvalue.ObjectBuild().Build(),
		HasStorePayloads: true,
	}
	restored, err = Decode(Encode(withEmptyPayloads))
	require.NoError(t, err)
	assert.True(t, restored.HasStorePayloads)
	assert.Len(t, restored.StorePayloads, 0)
}

func TestDecodeRejectsMalformedData(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestDecodeRejectsRecordWithMissingProperties(t *testing.T) {
	_, err := Decode([]byte(`{"event":{"id":"11111111-2222-3333-4444-555555555555"}}`))
	assert.Error(t, err)
}
