package edgeconsent

import (
	"sync"
	"sync/atomic"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Status is the tri-state collect-consent value.
type Status string

const (
	// StatusYes means collection is allowed.
	StatusYes Status = "y"
	// StatusNo means collection is denied; experience events are dropped at intake.
	StatusNo Status = "n"
	// StatusPending is the value before any consent signal has been received.
	StatusPending Status = "p"
)

// StatusFromEventData extracts the collect-consent value from a consent payload of the form
// {"consents": {"collect": {"val": "y"}}}. Unrecognized or missing values map to StatusPending.
func StatusFromEventData(data ldvalue.Value) Status {
	val := data.GetByKey("consents").GetByKey("collect").GetByKey("val").StringValue()
	switch Status(val) {
	case StatusYes, StatusNo:
		return Status(val)
	default:
		return StatusPending
	}
}

// Tracker holds the current consent value. There is a single writer (the host consent signal
// path) and many readers; reads are lock-free snapshots of the latest committed value.
type Tracker struct {
	value     atomic.Value
	writeLock sync.Mutex
	onChange  func(Status)
	loggers   ldlog.Loggers
}

// NewTracker creates a Tracker with an initial value of StatusPending. If onChange is non-nil
// it is called, on the writer's goroutine, whenever the committed value changes.
func NewTracker(loggers ldlog.Loggers, onChange func(Status)) *Tracker {
	t := &Tracker{onChange: onChange, loggers: loggers}
	t.value.Store(StatusPending)
	return t
}

// Current returns the latest committed consent value.
func (t *Tracker) Current() Status {
	return t.value.Load().(Status)
}

// Update atomically replaces the current value.
func (t *Tracker) Update(status Status) {
	t.writeLock.Lock()
	previous := t.value.Load().(Status)
	t.value.Store(status)
	t.writeLock.Unlock()

	if previous != status {
		t.loggers.Debugf("Collect consent changed from %s to %s", previous, status)
		if t.onChange != nil {
			t.onChange(status)
		}
	}
}

// InitializeIfPending sets the value only if no consent signal has been received yet. It is
// used during bootstrap to restore a value persisted by a previous process run without
// overwriting a fresher in-memory value. Returns true if the value was applied.
func (t *Tracker) InitializeIfPending(status Status) bool {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	if t.value.Load().(Status) != StatusPending {
		return false
	}
	t.value.Store(status)
	return true
}
