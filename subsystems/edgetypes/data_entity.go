package edgetypes

import (
	"time"
)

// DataEntity is an opaque record in the durable queue. Data is a serialized entity produced by
// the entity codec; the queue itself never inspects it. Entities are immutable once added and
// are removed only after a terminal processing outcome.
type DataEntity struct {
	// ID is a unique identifier for the record, normally the originating event's ID.
	ID string
	// Timestamp is the time the record was enqueued.
	Timestamp time.Time
	// Data is the serialized payload.
	Data []byte
}
