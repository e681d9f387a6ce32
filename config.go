package edgeclient

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/edgetelemetry/go-edge-sdk/subsystems"
)

// DefaultStoragePath is the directory used for the built-in file persistence when none of
// Config.StoragePath, Config.DataQueue, and Config.DataStore are set.
const DefaultStoragePath = "edgedata"

// Config is the configuration for NewClient. SharedStates and Emitter are required; every
// other field has a usable default.
type Config struct {
	// SharedStates resolves the externally-owned configuration and identity states.
	SharedStates subsystems.SharedStateProvider

	// Emitter receives the downstream notification events.
	Emitter subsystems.EventEmitter

	// Transport dispatches requests to the collection endpoint. Defaults to
	// edgehttp.NewTransport().
	Transport subsystems.NetworkTransport

	// DataQueue is the durable record queue. Defaults to a file-backed queue under
	// StoragePath.
	DataQueue subsystems.DataQueue

	// DataStore persists the consent value and store payloads across restarts. Defaults to a
	// file-backed store under StoragePath.
	DataStore subsystems.DataStore

	// StoragePath is the directory for the built-in file persistence. Defaults to
	// DefaultStoragePath. Ignored when both DataQueue and DataStore are supplied.
	StoragePath string

	// Loggers is the log destination. The zero value logs to standard error at Info level.
	Loggers ldlog.Loggers

	// RetryInitialDelay is the backoff before the first retry of a transiently failed
	// dispatch. Defaults to edgehit.DefaultRetryInitialDelay.
	RetryInitialDelay time.Duration

	// RetryMaxDelay caps the exponentially growing retry backoff. Defaults to
	// edgehit.DefaultRetryMaxDelay.
	RetryMaxDelay time.Duration

	// MaxRetryAttempts, if positive, drops a record after that many failed dispatch attempts
	// instead of retrying indefinitely. Unbounded retry preserves the delivery guarantee but
	// lets the queue grow during a sustained outage; bounding it trades one for the other.
	MaxRetryAttempts int
}
