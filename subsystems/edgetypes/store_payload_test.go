package edgetypes

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorePayloadComputesExpiryFromMaxAge(t *testing.T) {
	p := NewStorePayload("kndctr_consent", "in", 60)
	assert.False(t, p.IsExpired())
	assert.WithinDuration(t, time.Now().Add(60*time.Second), p.Expiry, time.Second)
}

func TestStorePayloadIsExpired(t *testing.T) {
	p := StorePayload{Key: "k", Value: "v", MaxAgeSeconds: 1, Expiry: time.Now().Add(-time.Second)}
	assert.True(t, p.IsExpired())
}

func TestStorePayloadSerializationRoundTrip(t *testing.T) {
	original := NewStorePayload("kndctr_consent", "in", 7200)

	w := jwriter.NewWriter()
	original.WriteToJSONWriter(&w)
	require.NoError(t, w.Error())

	r := jreader.NewReader(w.Bytes())
	var restored StorePayload
	restored.ReadFromJSONReader(&r)
	require.NoError(t, r.Error())

	assert.Equal(t, original.Key, restored.Key)
	assert.Equal(t, original.Value, restored.Value)
	assert.Equal(t, original.MaxAgeSeconds, restored.MaxAgeSeconds)
	assert.Equal(t, original.Expiry.UnixMilli(), restored.Expiry.UnixMilli())
}

func TestStorePayloadReadComputesExpiryWhenAbsent(t *testing.T) {
	// a payload fresh from the server has no expiry property
	r := jreader.NewReader([]byte(`{"key":"k","value":"v","maxAge":60}`))
	var p StorePayload
	p.ReadFromJSONReader(&r)
	require.NoError(t, r.Error())

	assert.Equal(t, "k", p.Key)
	assert.Equal(t, 60, p.MaxAgeSeconds)
	assert.WithinDuration(t, time.Now().Add(60*time.Second), p.Expiry, time.Second)
}
