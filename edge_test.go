package edgeclient

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgetelemetry/go-edge-sdk/internal/sharedtest"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

type clientTestFixture struct {
	client    *Client
	transport *sharedtest.CapturingTransport
	emitter   *sharedtest.CapturingEmitter
	states    *sharedtest.MockSharedStates
	dataQueue *sharedtest.InMemoryDataQueue
	dataStore *sharedtest.InMemoryDataStore
}

func newClientTestFixture(t *testing.T) clientTestFixture {
	f := clientTestFixture{
		transport: sharedtest.NewCapturingTransport(),
		emitter:   sharedtest.NewCapturingEmitter(),
		states:    sharedtest.NewMockSharedStates(),
		dataQueue: sharedtest.NewInMemoryDataQueue(),
		dataStore: sharedtest.NewInMemoryDataStore(),
	}
	client, err := NewClient(Config{
		SharedStates:      f.states,
		Emitter:           f.emitter,
		Transport:         f.transport,
		DataQueue:         f.dataQueue,
		DataStore:         f.dataStore,
		Loggers:           ldlog.NewDisabledLoggers(),
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     2 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	f.client = client
	return f
}

func (f clientTestFixture) makeReady() {
	f.states.SetConfiguration("config-1")
	f.states.SetIdentity(ldvalue.ObjectBuild().Set("ECID", ldvalue.String("12345")).Build())
}

func makeExperienceEvent() edgetypes.Event {
	return edgetypes.NewEvent(edgetypes.EventTypeEdge, edgetypes.EventSourceRequestContent,
		ldvalue.ObjectBuild().
			Set("xdm", ldvalue.ObjectBuild().Set("eventType", ldvalue.String("commerce.purchases")).Build()).
			Build())
}

func makeConsentPreferencesEvent(val string) edgetypes.Event {
	return edgetypes.NewEvent(edgetypes.EventTypeConsent, edgetypes.EventSourceResponseContent,
		ldvalue.ObjectBuild().
			Set("consents", ldvalue.ObjectBuild().
				Set("collect", ldvalue.ObjectBuild().
					Set("val", ldvalue.String(val)).
					Build()).
				Build()).
			Build())
}

func makeConsentUpdateEvent(val string) edgetypes.Event {
	e := makeConsentPreferencesEvent(val)
	e.Type = edgetypes.EventTypeEdge
	e.Source = edgetypes.EventSourceUpdateConsent
	return e
}

func TestNewClientRequiresSharedStatesAndEmitter(t *testing.T) {
	_, err := NewClient(Config{Emitter: sharedtest.NewCapturingEmitter()})
	assert.Error(t, err)

	_, err = NewClient(Config{SharedStates: sharedtest.NewMockSharedStates()})
	assert.Error(t, err)
}

func TestExperienceEventIsDeliveredEndToEnd(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	f.client.HandleEvent(makeConsentPreferencesEvent("y"))
	f.transport.EnqueueResult(edgetypes.HitResult{
		Outcome:    edgetypes.HitOutcomeSuccess,
		StatusCode: 200,
		Body:       []byte(`{"handle":[{"type":"t","eventIndex":0}]}`),
	})
	// the consent change itself produces a notification event
	changed := f.emitter.AwaitEvent(t, time.Second)
	assert.Equal(t, edgetypes.EventSourceConsentChanged, changed.Source)

	event := makeExperienceEvent()
	f.client.HandleEvent(event)

	request := f.transport.AwaitRequest(t, time.Second)
	assert.Equal(t, "config-1", request.ConfigID)
	assert.Contains(t, string(request.Body), `"identityMap"`)

	result := f.emitter.AwaitEvent(t, time.Second)
	assert.Equal(t, edgetypes.EventSourceResponseContent, result.Source)
	assert.Equal(t, event.ID.String(), result.Data.GetByKey("requestEventId").StringValue())

	assert.Eventually(t, f.dataQueue.IsEmpty, time.Second, 5*time.Millisecond)
}

func TestExperienceEventWithNoDataIsIgnored(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()

	f.client.HandleEvent(edgetypes.NewEvent(edgetypes.EventTypeEdge, edgetypes.EventSourceRequestContent,
		ldvalue.ObjectBuild().Build()))

	assert.True(t, f.dataQueue.IsEmpty())
}

func TestExperienceEventDroppedWhenConsentDenied(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	f.client.HandleEvent(makeConsentPreferencesEvent("n"))

	f.client.HandleEvent(makeExperienceEvent())

	f.transport.AssertNoRequests(t, 50*time.Millisecond)
	assert.True(t, f.dataQueue.IsEmpty())
}

func TestQueuedEventsWaitForConsent(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()

	// consent is pending: the event is captured durably but not dispatched
	f.client.HandleEvent(makeExperienceEvent())
	f.transport.AssertNoRequests(t, 50*time.Millisecond)
	assert.False(t, f.dataQueue.IsEmpty())

	f.client.HandleEvent(makeConsentPreferencesEvent("y"))

	f.transport.AwaitRequest(t, time.Second)
	assert.Eventually(t, f.dataQueue.IsEmpty, time.Second, 5*time.Millisecond)
}

func TestConsentUpdateEventIsDeliveredWhileConsentDenied(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	f.client.HandleEvent(makeConsentPreferencesEvent("n"))

	f.client.HandleEvent(makeConsentUpdateEvent("y"))

	request := f.transport.AwaitRequest(t, time.Second)
	assert.NotContains(t, string(request.Body), `"meta"`)
}

func TestQueuedEventsWaitForSharedStates(t *testing.T) {
	f := newClientTestFixture(t)
	f.states.SetConfiguration("config-1")
	f.states.SetIdentity(ldvalue.ObjectBuild().Build())
	f.client.HandleEvent(makeConsentPreferencesEvent("y"))

	// the configuration disappears before the event arrives
	f.states.SetState(edgetypes.StateOwnerConfiguration, edgetypes.SharedState{Status: edgetypes.SharedStatePending})
	f.client.HandleEvent(makeExperienceEvent())
	f.transport.AssertNoRequests(t, 50*time.Millisecond)
	assert.False(t, f.dataQueue.IsEmpty())

	f.states.SetConfiguration("config-1")
	f.client.TriggerDrain()
	f.transport.AwaitRequest(t, time.Second)
}

func TestTransientFailureRetriesWithoutLosingOrder(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	f.client.HandleEvent(makeConsentPreferencesEvent("y"))
	f.transport.EnqueueResult(edgetypes.HitResult{Outcome: edgetypes.HitOutcomeServerError, StatusCode: 503})

	f.client.HandleEvent(makeExperienceEvent())

	first := f.transport.AwaitRequest(t, time.Second)
	second := f.transport.AwaitRequest(t, time.Second)
	// the retry is the same record under a fresh request ID
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.JSONEq(t, string(first.Body), string(second.Body))
	assert.Eventually(t, f.dataQueue.IsEmpty, time.Second, 5*time.Millisecond)
}

func TestReadyForEvent(t *testing.T) {
	f := newClientTestFixture(t)

	experience := makeExperienceEvent()
	assert.False(t, f.client.ReadyForEvent(experience))

	f.states.SetConfiguration("config-1")
	assert.False(t, f.client.ReadyForEvent(experience))

	f.states.SetIdentity(ldvalue.ObjectBuild().Build())
	assert.True(t, f.client.ReadyForEvent(experience))

	// consent preferences responses have no readiness requirements
	assert.True(t, f.client.ReadyForEvent(makeConsentPreferencesEvent("y")))
}

func TestPersistedConsentIsRestoredOnBootup(t *testing.T) {
	f := clientTestFixture{
		transport: sharedtest.NewCapturingTransport(),
		emitter:   sharedtest.NewCapturingEmitter(),
		states:    sharedtest.NewMockSharedStates(),
		dataQueue: sharedtest.NewInMemoryDataQueue(),
		dataStore: sharedtest.NewInMemoryDataStore(),
	}
	f.dataStore.Set("collectConsent", "n")
	client, err := NewClient(Config{
		SharedStates: f.states,
		Emitter:      f.emitter,
		Transport:    f.transport,
		DataQueue:    f.dataQueue,
		DataStore:    f.dataStore,
		Loggers:      ldlog.NewDisabledLoggers(),
	})
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck
	f.client = client
	f.makeReady()

	// the readiness check triggers the bootstrap, which restores the persisted denial
	require.True(t, f.client.ReadyForEvent(makeExperienceEvent()))
	f.client.HandleEvent(makeExperienceEvent())

	assert.True(t, f.dataQueue.IsEmpty())
}

func TestUnrecognizedEventsAreIgnored(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	f.client.HandleEvent(makeConsentPreferencesEvent("y"))

	f.client.HandleEvent(edgetypes.NewEvent("lifecycle", "applicationLaunch",
		ldvalue.ObjectBuild().Set("k", ldvalue.String("v")).Build()))

	f.transport.AssertNoRequests(t, 50*time.Millisecond)
	assert.True(t, f.dataQueue.IsEmpty())
}

func TestCloseKeepsUndispatchedRecords(t *testing.T) {
	f := newClientTestFixture(t)
	f.makeReady()
	// consent stays pending so the record is never dispatched

	f.client.HandleEvent(makeExperienceEvent())
	f.transport.AssertNoRequests(t, 50*time.Millisecond)

	require.NoError(t, f.client.Close())
	assert.Equal(t, 1, len(f.dataQueue.Entries()))
}
