package filepersist

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// DataStore is a small key/value store persisted as a single JSON object file. Values are read
// from memory; every write rewrites the file.
type DataStore struct {
	path    string
	values  map[string]string
	lock    sync.RWMutex
	loggers ldlog.Loggers
}

// NewDataStore opens or creates the store file at path.
func NewDataStore(path string, loggers ldlog.Loggers) (*DataStore, error) {
	s := &DataStore{path: path, values: make(map[string]string), loggers: loggers}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		loggers.Warnf("Discarding unparseable store file %s: %s", path, err)
		s.values = make(map[string]string)
	}
	return s, nil
}

//nolint:revive // no doc comment for standard method
func (s *DataStore) Get(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

//nolint:revive // no doc comment for standard method
func (s *DataStore) Set(key string, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	s.flush()
}

//nolint:revive // no doc comment for standard method
func (s *DataStore) Remove(key string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
	s.flush()
}

func (s *DataStore) flush() {
	data, err := json.Marshal(s.values)
	if err != nil {
		s.loggers.Errorf("Failed to serialize store file %s: %s", s.path, err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		s.loggers.Errorf("Failed to write store file %s: %s", s.path, err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.loggers.Errorf("Failed to replace store file %s: %s", s.path, err)
	}
}
