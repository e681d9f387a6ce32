package edgeresponse

import (
	"bytes"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/patrickmn/go-cache"

	"github.com/edgetelemetry/go-edge-sdk/internal/edgestore"
	"github.com/edgetelemetry/go-edge-sdk/subsystems"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

const handleTypeStateStore = "state:store"

// Per-request bookkeeping is short-lived: entries are cleared when the response is processed,
// and the TTL only covers requests that were abandoned mid-flight.
const (
	waitingEventsTTL           = 5 * time.Minute
	waitingEventsSweepInterval = 10 * time.Minute
)

type resultKind int

const (
	kindResult resultKind = iota
	kindWarning
	kindError
)

func (k resultKind) eventSource() string {
	switch k {
	case kindError:
		return edgetypes.EventSourceErrorResponse
	case kindWarning:
		return edgetypes.EventSourceWarningResponse
	default:
		return edgetypes.EventSourceResponseContent
	}
}

// Handler turns raw responses into notification events. It is driven by the sequential
// processing loop, so there is exactly one writer for the stored-state updates it performs.
type Handler struct {
	emitter      subsystems.EventEmitter
	storeManager *edgestore.Manager
	waiting      *cache.Cache
	loggers      ldlog.Loggers
}

// NewHandler creates a Handler.
func NewHandler(emitter subsystems.EventEmitter, storeManager *edgestore.Manager, loggers ldlog.Loggers) *Handler {
	return &Handler{
		emitter:      emitter,
		storeManager: storeManager,
		waiting:      cache.New(waitingEventsTTL, waitingEventsSweepInterval),
		loggers:      loggers,
	}
}

// AddWaitingEvents records which events were sent under a request ID, in request order, so
// that indexed results in the response can be attributed to them. It must be called before the
// request is dispatched.
func (h *Handler) AddWaitingEvents(requestID string, events []edgetypes.Event) {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	h.waiting.Set(requestID, ids, cache.DefaultExpiration)
}

// RemoveWaitingEvents discards the bookkeeping for a request ID, for example when the attempt
// failed and will be retried under a fresh ID.
func (h *Handler) RemoveWaitingEvents(requestID string) {
	h.waiting.Delete(requestID)
}

// OnResponseSuccess processes the body of a 2xx response. The body may contain several JSON
// chunks separated by line feeds; a malformed chunk is logged and skipped without aborting the
// remaining chunks.
func (h *Handler) OnResponseSuccess(requestID string, body []byte) {
	for _, chunk := range splitStream(body) {
		value, err := parseChunk(chunk)
		if err != nil {
			h.loggers.Warnf("Failed to parse response chunk for request %s: %s", requestID, err)
			continue
		}
		h.processResultChunk(requestID, value)
	}
	h.RemoveWaitingEvents(requestID)
}

// OnResponseError processes the body of a top-level error response. It emits one error
// notification event per error entry, or a single generic one if the body is not parseable.
func (h *Handler) OnResponseError(requestID string, body []byte) {
	value, err := parseChunk(bytes.TrimSpace(body))
	if err != nil {
		h.loggers.Warnf("Failed to parse error response for request %s: %s", requestID, err)
		h.dispatchResult(requestID, ldvalue.ObjectBuild().
			Set("title", ldvalue.String("Unexpected error")).
			Build(), -1, kindError)
	} else if errs := value.GetByKey("errors"); errs.Count() > 0 {
		h.processResults(requestID, errs, kindError)
	} else {
		// a bare error object with no errors array is itself the error payload
		h.dispatchResult(requestID, value, -1, kindError)
	}
	h.RemoveWaitingEvents(requestID)
}

func (h *Handler) processResultChunk(requestID string, value ldvalue.Value) {
	if handles := value.GetByKey("handle"); handles.Count() > 0 {
		h.processHandles(requestID, handles)
	}
	if errs := value.GetByKey("errors"); errs.Count() > 0 {
		h.processResults(requestID, errs, kindError)
	}
	if warnings := value.GetByKey("warnings"); warnings.Count() > 0 {
		h.processResults(requestID, warnings, kindWarning)
	}
}

func (h *Handler) processHandles(requestID string, handles ldvalue.Value) {
	for i := 0; i < handles.Count(); i++ {
		handle := handles.GetByIndex(i)
		if handle.GetByKey("type").StringValue() == handleTypeStateStore {
			h.storeManager.SavePayloads(storePayloadsFromValue(handle.GetByKey("payload")))
		}
		h.dispatchResult(requestID, handle, eventIndexOf(handle), kindResult)
	}
}

func (h *Handler) processResults(requestID string, results ldvalue.Value, kind resultKind) {
	for i := 0; i < results.Count(); i++ {
		result := results.GetByIndex(i)
		h.dispatchResult(requestID, result, eventIndexOf(result), kind)
	}
}

// dispatchResult emits one notification event carrying the result payload. When the result's
// event index resolves to an event sent under this request ID, the payload gains a
// requestEventId property attributing it to that event; otherwise the result is
// connection-scoped.
func (h *Handler) dispatchResult(requestID string, payload ldvalue.Value, eventIndex int, kind resultKind) {
	data := ldvalue.ObjectBuild()
	for _, key := range payload.Keys(nil) {
		if key == "eventIndex" {
			continue
		}
		data.Set(key, payload.GetByKey(key))
	}
	data.Set("requestId", ldvalue.String(requestID))
	if id, ok := h.waitingEventID(requestID, eventIndex); ok {
		data.Set("requestEventId", ldvalue.String(id.String()))
	}
	h.emitter.Dispatch(edgetypes.NewEvent(edgetypes.EventTypeEdge, kind.eventSource(), data.Build()))
}

func (h *Handler) waitingEventID(requestID string, eventIndex int) (uuid.UUID, bool) {
	if eventIndex < 0 {
		return uuid.UUID{}, false
	}
	entry, ok := h.waiting.Get(requestID)
	if !ok {
		return uuid.UUID{}, false
	}
	ids := entry.([]uuid.UUID)
	if eventIndex >= len(ids) {
		h.loggers.Warnf("Response for request %s referenced event index %d out of %d sent events",
			requestID, eventIndex, len(ids))
		return uuid.UUID{}, false
	}
	return ids[eventIndex], true
}

// eventIndexOf returns the originating event index of a result, or -1 when the result has no
// resolvable index and is therefore connection-scoped.
func eventIndexOf(result ldvalue.Value) int {
	index := result.GetByKey("eventIndex")
	if index.IsNull() || !index.IsNumber() {
		return -1
	}
	return index.IntValue()
}

func storePayloadsFromValue(payload ldvalue.Value) []edgetypes.StorePayload {
	ret := make([]edgetypes.StorePayload, 0, payload.Count())
	for i := 0; i < payload.Count(); i++ {
		entry := payload.GetByIndex(i)
		ret = append(ret, edgetypes.NewStorePayload(
			entry.GetByKey("key").StringValue(),
			entry.GetByKey("value").StringValue(),
			entry.GetByKey("maxAge").IntValue(),
		))
	}
	return ret
}

// splitStream breaks a streamed response body into its JSON chunks. Chunks are separated by
// line feeds, and each chunk may be prefixed with a NUL record separator.
func splitStream(body []byte) [][]byte {
	var ret [][]byte
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(bytes.TrimPrefix(line, []byte{0}))
		if len(line) > 0 {
			ret = append(ret, line)
		}
	}
	return ret
}

func parseChunk(chunk []byte) (ldvalue.Value, error) {
	r := jreader.NewReader(chunk)
	var value ldvalue.Value
	value.ReadFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return ldvalue.Null(), err
	}
	if value.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), errors.New("response chunk is not a JSON object")
	}
	return value, nil
}
