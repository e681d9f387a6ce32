package filepersist

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// ErrQueueClosed is returned by Add after the queue has been closed.
var ErrQueueClosed = errors.New("data queue is closed")

type queueRecord struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Data      string `json:"data"`
}

// DataQueue is a durable FIFO stored as a JSON-lines file. Add appends a line; Remove rewrites
// the file without the head record. All operations are guarded by one mutex, which is what
// makes concurrent intake during a drain safe.
type DataQueue struct {
	path    string
	entries []edgetypes.DataEntity
	lock    sync.Mutex
	closed  bool
	loggers ldlog.Loggers
}

// NewDataQueue opens or creates the queue file at path and loads any records persisted by a
// previous process run. A line that cannot be parsed is dropped with a warning rather than
// poisoning the whole queue.
func NewDataQueue(path string, loggers ldlog.Loggers) (*DataQueue, error) {
	q := &DataQueue{path: path, loggers: loggers}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

//nolint:revive // no doc comment for standard method
func (q *DataQueue) Add(entity edgetypes.DataEntity) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	line, err := json.Marshal(makeQueueRecord(entity))
	if err != nil {
		return err
	}
	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	_, writeErr := f.Write(append(line, '\n'))
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return closeErr
	}

	q.entries = append(q.entries, entity)
	return nil
}

//nolint:revive // no doc comment for standard method
func (q *DataQueue) Peek() (edgetypes.DataEntity, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.entries) == 0 {
		return edgetypes.DataEntity{}, false
	}
	return q.entries[0], true
}

//nolint:revive // no doc comment for standard method
func (q *DataQueue) Remove() error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if len(q.entries) == 0 {
		return nil
	}
	q.entries = q.entries[1:]
	return q.rewrite()
}

//nolint:revive // no doc comment for standard method
func (q *DataQueue) IsEmpty() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.entries) == 0
}

// Close marks the queue closed. Records already persisted remain in the file for the next
// process lifetime.
func (q *DataQueue) Close() error {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.closed = true
	return nil
}

func (q *DataQueue) load() error {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec queueRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			q.loggers.Warnf("Dropping unparseable record from queue file %s: %s", q.path, err)
			continue
		}
		data, err := base64.StdEncoding.DecodeString(rec.Data)
		if err != nil {
			q.loggers.Warnf("Dropping record %s with unparseable payload: %s", rec.ID, err)
			continue
		}
		q.entries = append(q.entries, edgetypes.DataEntity{
			ID:        rec.ID,
			Timestamp: time.UnixMilli(rec.Timestamp),
			Data:      data,
		})
	}
	return scanner.Err()
}

func (q *DataQueue) rewrite() error {
	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, entity := range q.entries {
		line, err := json.Marshal(makeQueueRecord(entity))
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			_ = f.Close()
			return fmt.Errorf("rewriting queue file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}

func makeQueueRecord(entity edgetypes.DataEntity) queueRecord {
	return queueRecord{
		ID:        entity.ID,
		Timestamp: entity.Timestamp.UnixMilli(),
		Data:      base64.StdEncoding.EncodeToString(entity.Data),
	}
}
