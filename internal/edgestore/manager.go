package edgestore

import (
	"sort"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/patrickmn/go-cache"

	"github.com/edgetelemetry/go-edge-sdk/subsystems"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

const (
	persistenceKey     = "storePayloads"
	cacheSweepInterval = 5 * time.Minute
)

// Manager holds the active store payloads. The cache handles per-entry expiration; the
// persistent copy keeps absolute expiry times so entries are not resurrected with a fresh TTL
// after a restart. There is a single writer (the response-processing path), so persistence
// writes are not coalesced.
type Manager struct {
	cache   *cache.Cache
	store   subsystems.DataStore
	loggers ldlog.Loggers
}

// NewManager creates an empty Manager. Call Load to restore previously persisted payloads.
func NewManager(store subsystems.DataStore, loggers ldlog.Loggers) *Manager {
	return &Manager{
		cache:   cache.New(cache.NoExpiration, cacheSweepInterval),
		store:   store,
		loggers: loggers,
	}
}

// Load restores payloads persisted by a previous process run, discarding any that have expired
// in the meantime.
func (m *Manager) Load() {
	if m.store == nil {
		return
	}
	data, ok := m.store.Get(persistenceKey)
	if !ok {
		return
	}
	r := jreader.NewReader([]byte(data))
	var payloads []edgetypes.StorePayload
	for arr := r.Array(); arr.Next(); {
		var p edgetypes.StorePayload
		p.ReadFromJSONReader(&r)
		payloads = append(payloads, p)
	}
	if err := r.Error(); err != nil {
		m.loggers.Warnf("Discarding persisted store payloads that could not be parsed: %s", err)
		m.store.Remove(persistenceKey)
		return
	}
	for _, p := range payloads {
		if !p.IsExpired() {
			m.cache.Set(p.Key, p, time.Until(p.Expiry))
		}
	}
}

// SavePayloads inserts or overwrites payloads by key. A payload with a non-positive maxAge is
// a server-requested deletion of that key.
func (m *Manager) SavePayloads(payloads []edgetypes.StorePayload) {
	if len(payloads) == 0 {
		return
	}
	for _, p := range payloads {
		if p.MaxAgeSeconds <= 0 {
			m.cache.Delete(p.Key)
			continue
		}
		m.cache.Set(p.Key, p, time.Until(p.Expiry))
	}
	m.persist()
}

// ActivePayloads returns the unexpired payloads, ordered by key for deterministic request
// bodies.
func (m *Manager) ActivePayloads() []edgetypes.StorePayload {
	items := m.cache.Items()
	ret := make([]edgetypes.StorePayload, 0, len(items))
	for _, item := range items {
		p := item.Object.(edgetypes.StorePayload)
		if !p.IsExpired() {
			ret = append(ret, p)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Key < ret[j].Key })
	return ret
}

func (m *Manager) persist() {
	if m.store == nil {
		return
	}
	w := jwriter.NewWriter()
	arr := w.Array()
	for _, p := range m.ActivePayloads() {
		p.WriteToJSONWriter(&w)
	}
	arr.End()
	if err := w.Error(); err != nil {
		m.loggers.Warnf("Failed to serialize store payloads for persistence: %s", err)
		return
	}
	m.store.Set(persistenceKey, string(w.Bytes()))
}
