package sharedtest

import (
	"sync"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// InMemoryDataQueue is a DataQueue for tests that must not touch the filesystem.
type InMemoryDataQueue struct {
	lock    sync.Mutex
	entries []edgetypes.DataEntity
}

// NewInMemoryDataQueue creates an empty InMemoryDataQueue.
func NewInMemoryDataQueue() *InMemoryDataQueue {
	return &InMemoryDataQueue{}
}

//nolint:revive // no doc comment for standard method
func (q *InMemoryDataQueue) Add(entity edgetypes.DataEntity) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.entries = append(q.entries, entity)
	return nil
}

//nolint:revive // no doc comment for standard method
func (q *InMemoryDataQueue) Peek() (edgetypes.DataEntity, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.entries) == 0 {
		return edgetypes.DataEntity{}, false
	}
	return q.entries[0], true
}

//nolint:revive // no doc comment for standard method
func (q *InMemoryDataQueue) Remove() error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.entries) > 0 {
		q.entries = q.entries[1:]
	}
	return nil
}

//nolint:revive // no doc comment for standard method
func (q *InMemoryDataQueue) IsEmpty() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.entries) == 0
}

//nolint:revive // no doc comment for standard method
func (q *InMemoryDataQueue) Close() error {
	return nil
}

// Entries returns a copy of the queued records.
func (q *InMemoryDataQueue) Entries() []edgetypes.DataEntity {
	q.lock.Lock()
	defer q.lock.Unlock()
	return append([]edgetypes.DataEntity(nil), q.entries...)
}

// InMemoryDataStore is a DataStore for tests that must not touch the filesystem.
type InMemoryDataStore struct {
	lock   sync.RWMutex
	values map[string]string
}

// NewInMemoryDataStore creates an empty InMemoryDataStore.
func NewInMemoryDataStore() *InMemoryDataStore {
	return &InMemoryDataStore{values: make(map[string]string)}
}

//nolint:revive // no doc comment for standard method
func (s *InMemoryDataStore) Get(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

//nolint:revive // no doc comment for standard method
func (s *InMemoryDataStore) Set(key string, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
}

//nolint:revive // no doc comment for standard method
func (s *InMemoryDataStore) Remove(key string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
}
