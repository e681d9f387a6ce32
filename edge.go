package edgeclient

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/edgetelemetry/go-edge-sdk/edgehttp"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgeconsent"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgeentity"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgehit"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgeresponse"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgestate"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgestore"
	"github.com/edgetelemetry/go-edge-sdk/internal/filepersist"
	"github.com/edgetelemetry/go-edge-sdk/subsystems"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

const (
	queueFileName = "edge-queue.jsonl"
	storeFileName = "edge-store.json"
)

// Client is the pipeline's entry point. The host registers its event handlers with its own
// dispatcher and forwards matching events to HandleEvent; everything downstream of intake runs
// on the client's single drain goroutine.
type Client struct {
	sharedStates subsystems.SharedStateProvider
	emitter      subsystems.EventEmitter
	state        *edgestate.State
	hitQueue     *edgehit.PersistentHitQueue
	loggers      ldlog.Loggers
}

// NewClient creates a Client and starts its drain loop. Records persisted by a previous
// process run begin draining on the first trigger.
func NewClient(config Config) (*Client, error) {
	if config.SharedStates == nil {
		return nil, errors.New("config must specify a SharedStates provider")
	}
	if config.Emitter == nil {
		return nil, errors.New("config must specify an Emitter")
	}

	loggers := config.Loggers
	transport := config.Transport
	if transport == nil {
		transport = edgehttp.NewTransport(edgehttp.Loggers(loggers))
	}

	dataQueue, dataStore, err := makePersistence(config, loggers)
	if err != nil {
		return nil, err
	}

	c := &Client{
		sharedStates: config.SharedStates,
		emitter:      config.Emitter,
		loggers:      loggers,
	}

	consent := edgeconsent.NewTracker(loggers, c.dispatchConsentChanged)
	storeManager := edgestore.NewManager(dataStore, loggers)
	c.state = edgestate.NewState(consent, storeManager, dataStore, loggers)

	responseHandler := edgeresponse.NewHandler(config.Emitter, storeManager, loggers)
	processor := edgehit.NewEdgeHitProcessor(transport, responseHandler, config.SharedStates, c.state, loggers)
	c.hitQueue = edgehit.NewPersistentHitQueue(dataQueue, processor, edgehit.RetryConfig{
		InitialDelay: config.RetryInitialDelay,
		MaxDelay:     config.RetryMaxDelay,
		MaxAttempts:  config.MaxRetryAttempts,
	}, loggers)

	return c, nil
}

func makePersistence(config Config, loggers ldlog.Loggers) (subsystems.DataQueue, subsystems.DataStore, error) {
	dataQueue, dataStore := config.DataQueue, config.DataStore
	if dataQueue != nil && dataStore != nil {
		return dataQueue, dataStore, nil
	}

	path := config.StoragePath
	if path == "" {
		path = DefaultStoragePath
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, nil, err
	}
	if dataQueue == nil {
		q, err := filepersist.NewDataQueue(filepath.Join(path, queueFileName), loggers)
		if err != nil {
			return nil, nil, err
		}
		dataQueue = q
	}
	if dataStore == nil {
		s, err := filepersist.NewDataStore(filepath.Join(path, storeFileName), loggers)
		if err != nil {
			return nil, nil, err
		}
		dataStore = s
	}
	return dataQueue, dataStore, nil
}

// ReadyForEvent reports whether the client can accept the event right now. Hosts whose
// dispatchers support readiness gating should hold back events while this is false; events
// accepted while the identity state is unresolved are dropped.
func (c *Client) ReadyForEvent(event edgetypes.Event) bool {
	c.state.BootupIfNeeded()

	if event.IsExperienceEvent() || event.IsUpdateConsentEvent() {
		configuration := c.sharedStates.GetSharedState(edgetypes.StateOwnerConfiguration, event)
		identity := c.sharedStates.GetSharedState(edgetypes.StateOwnerIdentity, event)
		return configuration.Status == edgetypes.SharedStateSet && identity.Status == edgetypes.SharedStateSet
	}
	return true
}

// HandleEvent routes an event by its (type, source) pair. Events that match none of the
// recognized pairs are ignored. Every call also acts as a drain trigger, so a record left
// queued by an earlier not-ready check is re-evaluated.
func (c *Client) HandleEvent(event edgetypes.Event) {
	switch {
	case event.IsExperienceEvent():
		c.handleExperienceEvent(event)
	case event.IsUpdateConsentEvent():
		c.handleConsentUpdate(event)
	case event.IsConsentPreferencesEvent():
		c.handleConsentPreferences(event)
	}
	c.hitQueue.TriggerDrain()
}

// TriggerDrain asks the drain loop to re-evaluate the head of the queue. Hosts should call it
// on their periodic maintenance signal so that records held back by an unready shared state
// are retried without a new event arriving.
func (c *Client) TriggerDrain() {
	c.hitQueue.TriggerDrain()
}

// Close stops the drain loop. Persisted, undispatched records are kept for the next process
// lifetime; an in-flight request may complete or be abandoned, and an abandoned request's
// record is retried on the next startup.
func (c *Client) Close() error {
	return c.hitQueue.Close()
}

// handleExperienceEvent queues an experience event for delivery, snapshotting the identity
// context and the active store payloads as of now. If the current consent value is No the
// event is dropped before it ever reaches the queue; this is a hard filter, distinct from the
// readiness gate's retryable not-yet-known case.
func (c *Client) handleExperienceEvent(event edgetypes.Event) {
	if event.Data.Count() == 0 {
		c.loggers.Debugf("Event %s contained no data, ignoring", event.ID)
		return
	}
	if c.state.Consent().Current() == edgeconsent.StatusNo {
		c.loggers.Debugf("Dropping event %s due to collect consent setting (n)", event.ID)
		return
	}

	identityMap, ok := c.identitySnapshot(event)
	if !ok {
		return
	}
	c.queueEntity(edgeentity.Entity{
		Event:            event,
		IdentityMap:      identityMap,
		StorePayloads:    c.state.StoreManager().ActivePayloads(),
		HasStorePayloads: true,
	})
}

// handleConsentUpdate queues a consent-update event. It intentionally skips the consent
// filter: a consent update must be deliverable even while consent is No, and it carries no
// cached server state.
func (c *Client) handleConsentUpdate(event edgetypes.Event) {
	if event.Data.Count() == 0 {
		c.loggers.Debugf("Event %s contained no data, ignoring", event.ID)
		return
	}

	identityMap, ok := c.identitySnapshot(event)
	if !ok {
		return
	}
	c.queueEntity(edgeentity.Entity{
		Event:       event,
		IdentityMap: identityMap,
	})
}

// handleConsentPreferences applies a consent preferences response from the host's consent
// component to the tracker.
func (c *Client) handleConsentPreferences(event edgetypes.Event) {
	if event.Data.Count() == 0 {
		c.loggers.Debugf("Event %s contained no data, ignoring", event.ID)
		return
	}
	c.state.UpdateConsent(edgeconsent.StatusFromEventData(event.Data))
}

func (c *Client) identitySnapshot(event edgetypes.Event) (ldvalue.Value, bool) {
	identity := c.sharedStates.GetSharedState(edgetypes.StateOwnerIdentity, event)
	if identity.Status != edgetypes.SharedStateSet {
		c.loggers.Warnf("Unable to process event %s, identity shared state is not resolved", event.ID)
		return ldvalue.Null(), false
	}
	return identity.Value.GetByKey("identityMap"), true
}

func (c *Client) queueEntity(entity edgeentity.Entity) {
	record := edgetypes.DataEntity{
		ID:        entity.Event.ID.String(),
		Timestamp: entity.Event.Timestamp,
		Data:      edgeentity.Encode(entity),
	}
	c.loggers.Debugf("Queuing event %s", entity.Event.ID)
	if err := c.hitQueue.Queue(record); err != nil {
		c.loggers.Errorf("Failed to queue event %s: %s", entity.Event.ID, err)
	}
}

func (c *Client) dispatchConsentChanged(status edgeconsent.Status) {
	data := ldvalue.ObjectBuild().
		Set("consents", ldvalue.ObjectBuild().
			Set("collect", ldvalue.ObjectBuild().
				Set("val", ldvalue.String(string(status))).
				Build()).
			Build()).
		Build()
	c.emitter.Dispatch(edgetypes.NewEvent(edgetypes.EventTypeConsent, edgetypes.EventSourceConsentChanged, data))
}
