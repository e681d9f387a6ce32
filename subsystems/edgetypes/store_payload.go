package edgetypes

import (
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
)

// StorePayload is a server-issued key/value state entry, returned in the "state:store" section
// of a response and replayed on subsequent requests until it expires. Expired entries are
// excluded from requests lazily rather than deleted eagerly.
type StorePayload struct {
	// Key identifies the entry; a later payload with the same key overwrites the earlier one.
	Key string
	// Value is the opaque state value.
	Value string
	// MaxAgeSeconds is the entry's time-to-live as issued by the server.
	MaxAgeSeconds int
	// Expiry is the absolute expiration time, computed when the payload was received.
	Expiry time.Time
}

// NewStorePayload constructs a StorePayload with an expiry computed from the current time.
func NewStorePayload(key, value string, maxAgeSeconds int) StorePayload {
	return StorePayload{
		Key:           key,
		Value:         value,
		MaxAgeSeconds: maxAgeSeconds,
		Expiry:        time.Now().Add(time.Duration(maxAgeSeconds) * time.Second),
	}
}

// IsExpired returns true if the payload is past its expiration time.
func (p StorePayload) IsExpired() bool {
	return time.Now().After(p.Expiry)
}

// WriteToJSONWriter writes the payload in its wire representation. The expiry property is a
// local bookkeeping field and is included so that persisted payloads keep their original
// expiration across restarts.
func (p StorePayload) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("key").String(p.Key)
	obj.Name("value").String(p.Value)
	obj.Name("maxAge").Int(p.MaxAgeSeconds)
	obj.Name("expiry").Float64(float64(ldtime.UnixMillisFromTime(p.Expiry)))
	obj.End()
}

// ReadFromJSONReader reads a payload written by WriteToJSONWriter. If the expiry property is
// absent, as in a payload freshly received from the server, the expiry is computed from maxAge.
func (p *StorePayload) ReadFromJSONReader(r *jreader.Reader) {
	hasExpiry := false
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			p.Key = r.String()
		case "value":
			p.Value = r.String()
		case "maxAge":
			p.MaxAgeSeconds = r.Int()
		case "expiry":
			p.Expiry = time.UnixMilli(int64(r.Float64()))
			hasExpiry = true
		}
	}
	if !hasExpiry {
		p.Expiry = time.Now().Add(time.Duration(p.MaxAgeSeconds) * time.Second)
	}
}
