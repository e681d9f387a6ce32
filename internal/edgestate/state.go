package edgestate

import (
	"sync/atomic"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"golang.org/x/sync/singleflight"

	"github.com/edgetelemetry/go-edge-sdk/internal/edgeconsent"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgestore"
	"github.com/edgetelemetry/go-edge-sdk/subsystems"
)

const consentPersistenceKey = "collectConsent"

// State ties together the consent tracker, the stored-state manager, and their persistence.
type State struct {
	consent      *edgeconsent.Tracker
	storeManager *edgestore.Manager
	dataStore    subsystems.DataStore
	bootupDone   atomic.Bool
	bootupGroup  singleflight.Group
	loggers      ldlog.Loggers
}

// NewState creates a State. Persisted values are not loaded here; the persistence layer may
// not be usable at construction time, so restoration is deferred to BootupIfNeeded.
func NewState(
	consent *edgeconsent.Tracker,
	storeManager *edgestore.Manager,
	dataStore subsystems.DataStore,
	loggers ldlog.Loggers,
) *State {
	return &State{
		consent:      consent,
		storeManager: storeManager,
		dataStore:    dataStore,
		loggers:      loggers,
	}
}

// Consent returns the consent tracker.
func (s *State) Consent() *edgeconsent.Tracker {
	return s.consent
}

// StoreManager returns the stored-state manager.
func (s *State) StoreManager() *edgestore.Manager {
	return s.storeManager
}

// BootupIfNeeded runs the bootstrap sequence the first time it is called: it restores the
// persisted consent value (only if no consent signal has arrived yet) and the persisted store
// payloads. Subsequent calls are no-ops; concurrent first calls are collapsed into one run.
func (s *State) BootupIfNeeded() {
	if s.bootupDone.Load() {
		return
	}
	_, _, _ = s.bootupGroup.Do("bootup", func() (interface{}, error) {
		if s.bootupDone.Load() {
			return nil, nil
		}

		if s.dataStore != nil {
			if value, ok := s.dataStore.Get(consentPersistenceKey); ok {
				switch status := edgeconsent.Status(value); status {
				case edgeconsent.StatusYes, edgeconsent.StatusNo, edgeconsent.StatusPending:
					if s.consent.InitializeIfPending(status) {
						s.loggers.Debugf("Restored collect consent %s from persistence", value)
					}
				default:
					s.loggers.Warnf("Ignoring unrecognized persisted consent value %q", value)
				}
			}
		}
		s.storeManager.Load()

		s.bootupDone.Store(true)
		s.loggers.Debug("Bootup completed")
		return nil, nil
	})
}

// UpdateConsent commits a new consent value and persists it for the next process lifetime.
func (s *State) UpdateConsent(status edgeconsent.Status) {
	s.consent.Update(status)
	if s.dataStore != nil {
		s.dataStore.Set(consentPersistenceKey, string(status))
	}
}
