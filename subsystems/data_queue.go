package subsystems

import (
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// DataQueue is an ordered, durable FIFO of opaque records. The pipeline appends records during
// intake and removes them from the head after a terminal processing outcome; the queue must
// never reorder records.
//
// Add must be safe to call concurrently with Peek and Remove: intake happens on the host's
// dispatch goroutine while the drain loop consumes from its own.
type DataQueue interface {
	// Add appends a record at the tail of the queue, durably.
	Add(entity edgetypes.DataEntity) error

	// Peek returns the oldest record without removing it. The second return value is false if
	// the queue is empty.
	Peek() (edgetypes.DataEntity, bool)

	// Remove deletes the oldest record.
	Remove() error

	// IsEmpty returns true if the queue holds no records.
	IsEmpty() bool

	// Close releases any resources held by the queue. Records remain persisted for the next
	// process lifetime.
	Close() error
}
