package edgestate

import (
	"sync"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/stretchr/testify/assert"

	"github.com/edgetelemetry/go-edge-sdk/internal/edgeconsent"
	"github.com/edgetelemetry/go-edge-sdk/internal/edgestore"
	"github.com/edgetelemetry/go-edge-sdk/internal/sharedtest"
)

func makeState(store *sharedtest.InMemoryDataStore, loggers ldlog.Loggers) *State {
	consent := edgeconsent.NewTracker(loggers, nil)
	return NewState(consent, edgestore.NewManager(store, loggers), store, loggers)
}

func TestBootupRestoresPersistedConsent(t *testing.T) {
	store := sharedtest.NewInMemoryDataStore()
	store.Set("collectConsent", "n")

	s := makeState(store, ldlog.NewDisabledLoggers())
	assert.Equal(t, edgeconsent.StatusPending, s.Consent().Current())

	s.BootupIfNeeded()
	assert.Equal(t, edgeconsent.StatusNo, s.Consent().Current())
}

func TestBootupDoesNotOverwriteFresherConsent(t *testing.T) {
	store := sharedtest.NewInMemoryDataStore()
	store.Set("collectConsent", "n")

	s := makeState(store, ldlog.NewDisabledLoggers())
	s.Consent().Update(edgeconsent.StatusYes)

	s.BootupIfNeeded()
	assert.Equal(t, edgeconsent.StatusYes, s.Consent().Current())
}

func TestBootupIgnoresUnrecognizedPersistedConsent(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	store := sharedtest.NewInMemoryDataStore()
	store.Set("collectConsent", "maybe")

	s := makeState(store, mockLog.Loggers)
	s.BootupIfNeeded()

	assert.Equal(t, edgeconsent.StatusPending, s.Consent().Current())
	mockLog.AssertMessageMatch(t, true, ldlog.Warn, "unrecognized persisted consent")
}

func TestBootupRunsOnlyOnce(t *testing.T) {
	store := sharedtest.NewInMemoryDataStore()
	s := makeState(store, ldlog.NewDisabledLoggers())
	s.BootupIfNeeded()

	// a value persisted after the first bootup must not be picked up by later calls
	store.Set("collectConsent", "n")
	s.BootupIfNeeded()
	assert.Equal(t, edgeconsent.StatusPending, s.Consent().Current())
}

func TestConcurrentBootupIsCollapsed(t *testing.T) {
	store := sharedtest.NewInMemoryDataStore()
	store.Set("collectConsent", "y")
	s := makeState(store, ldlog.NewDisabledLoggers())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.BootupIfNeeded()
		}()
	}
	wg.Wait()
	assert.Equal(t, edgeconsent.StatusYes, s.Consent().Current())
}

func TestUpdateConsentPersists(t *testing.T) {
	store := sharedtest.NewInMemoryDataStore()
	s := makeState(store, ldlog.NewDisabledLoggers())

	s.UpdateConsent(edgeconsent.StatusNo)

	assert.Equal(t, edgeconsent.StatusNo, s.Consent().Current())
	value, ok := store.Get("collectConsent")
	assert.True(t, ok)
	assert.Equal(t, "n", value)
}
