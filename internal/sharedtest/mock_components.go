package sharedtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// CapturingTransport is a NetworkTransport that records every request and returns scripted
// results.
type CapturingTransport struct {
	lock          sync.Mutex
	requests      []edgetypes.HitRequest
	queuedResults []edgetypes.HitResult
	requestCh     chan edgetypes.HitRequest

	// DefaultResult is returned when no queued result is available.
	DefaultResult edgetypes.HitResult
}

// NewCapturingTransport creates a CapturingTransport whose default result is a 200 with an
// empty JSON body.
func NewCapturingTransport() *CapturingTransport {
	return &CapturingTransport{
		requestCh:     make(chan edgetypes.HitRequest, 100),
		DefaultResult: edgetypes.HitResult{Outcome: edgetypes.HitOutcomeSuccess, StatusCode: 200, Body: []byte(`{}`)},
	}
}

//nolint:revive // no doc comment for standard method
func (t *CapturingTransport) Send(_ context.Context, request edgetypes.HitRequest) edgetypes.HitResult {
	t.lock.Lock()
	t.requests = append(t.requests, request)
	result := t.DefaultResult
	if len(t.queuedResults) > 0 {
		result = t.queuedResults[0]
		t.queuedResults = t.queuedResults[1:]
	}
	t.lock.Unlock()
	t.requestCh <- request
	return result
}

// EnqueueResult adds a result to be returned for the next request, taking precedence over
// DefaultResult.
func (t *CapturingTransport) EnqueueResult(result edgetypes.HitResult) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.queuedResults = append(t.queuedResults, result)
}

// Requests returns a copy of all requests received so far.
func (t *CapturingTransport) Requests() []edgetypes.HitRequest {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]edgetypes.HitRequest(nil), t.requests...)
}

// AwaitRequest blocks until a request is dispatched or the timeout elapses.
func (t *CapturingTransport) AwaitRequest(tb testing.TB, timeout time.Duration) edgetypes.HitRequest {
	tb.Helper()
	select {
	case request := <-t.requestCh:
		return request
	case <-time.After(timeout):
		tb.Fatalf("timed out waiting for a request after %s", timeout)
		return edgetypes.HitRequest{}
	}
}

// AssertNoRequests asserts that no request is dispatched within the given duration.
func (t *CapturingTransport) AssertNoRequests(tb testing.TB, duration time.Duration) {
	tb.Helper()
	select {
	case request := <-t.requestCh:
		tb.Fatalf("expected no requests but got one with ID %s", request.RequestID)
	case <-time.After(duration):
	}
}

// CapturingEmitter is an EventEmitter that records every dispatched event.
type CapturingEmitter struct {
	lock    sync.Mutex
	events  []edgetypes.Event
	eventCh chan edgetypes.Event
}

// NewCapturingEmitter creates a CapturingEmitter.
func NewCapturingEmitter() *CapturingEmitter {
	return &CapturingEmitter{eventCh: make(chan edgetypes.Event, 100)}
}

//nolint:revive // no doc comment for standard method
func (e *CapturingEmitter) Dispatch(event edgetypes.Event) {
	e.lock.Lock()
	e.events = append(e.events, event)
	e.lock.Unlock()
	e.eventCh <- event
}

// Events returns a copy of all events dispatched so far.
func (e *CapturingEmitter) Events() []edgetypes.Event {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]edgetypes.Event(nil), e.events...)
}

// AwaitEvent blocks until an event is dispatched or the timeout elapses.
func (e *CapturingEmitter) AwaitEvent(tb testing.TB, timeout time.Duration) edgetypes.Event {
	tb.Helper()
	select {
	case event := <-e.eventCh:
		return event
	case <-time.After(timeout):
		tb.Fatalf("timed out waiting for an event after %s", timeout)
		return edgetypes.Event{}
	}
}

// MockSharedStates is a SharedStateProvider whose states are set directly by tests.
type MockSharedStates struct {
	lock   sync.RWMutex
	states map[string]edgetypes.SharedState
}

// NewMockSharedStates creates a MockSharedStates with no resolved states.
func NewMockSharedStates() *MockSharedStates {
	return &MockSharedStates{states: make(map[string]edgetypes.SharedState)}
}

//nolint:revive // no doc comment for standard method
func (m *MockSharedStates) GetSharedState(owner string, _ edgetypes.Event) edgetypes.SharedState {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if state, ok := m.states[owner]; ok {
		return state
	}
	return edgetypes.SharedState{Status: edgetypes.SharedStateNone}
}

// SetState sets the state returned for an owner.
func (m *MockSharedStates) SetState(owner string, state edgetypes.SharedState) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.states[owner] = state
}

// SetConfiguration resolves the configuration state with the given datastream config ID.
func (m *MockSharedStates) SetConfiguration(configID string) {
	m.SetState(edgetypes.StateOwnerConfiguration, edgetypes.SharedState{
		Status: edgetypes.SharedStateSet,
		Value: ldvalue.ObjectBuild().
			Set("edge", ldvalue.ObjectBuild().Set("configId", ldvalue.String(configID)).Build()).
			Build(),
	})
}

// SetIdentity resolves the identity state with the given identity map.
func (m *MockSharedStates) SetIdentity(identityMap ldvalue.Value) {
	m.SetState(edgetypes.StateOwnerIdentity, edgetypes.SharedState{
		Status: edgetypes.SharedStateSet,
		Value:  ldvalue.ObjectBuild().Set("identityMap", identityMap).Build(),
	})
}
