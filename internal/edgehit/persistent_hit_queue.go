package edgehit

import (
	"context"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/edgetelemetry/go-edge-sdk/subsystems"
	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// PersistentHitQueue drains a durable queue through a HitProcessor on a single goroutine, so
// at most one record is ever in flight and records complete strictly in enqueue order. Queue
// may be called concurrently from the host's dispatch goroutine while a drain is in progress.
type PersistentHitQueue struct {
	queue     subsystems.DataQueue
	processor HitProcessor
	delay     *retryDelay
	attempts  int
	wake      chan struct{}
	halt      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	loggers   ldlog.Loggers
}

// NewPersistentHitQueue creates the queue and starts its drain goroutine. The goroutine is
// idle until the first trigger.
func NewPersistentHitQueue(
	queue subsystems.DataQueue,
	processor HitProcessor,
	retryConfig RetryConfig,
	loggers ldlog.Loggers,
) *PersistentHitQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &PersistentHitQueue{
		queue:     queue,
		processor: processor,
		delay:     newRetryDelay(retryConfig),
		wake:      make(chan struct{}, 1),
		halt:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		loggers:   loggers,
	}
	go q.run()
	return q
}

// Queue durably appends a record and wakes the drain loop.
func (q *PersistentHitQueue) Queue(entity edgetypes.DataEntity) error {
	if err := q.queue.Add(entity); err != nil {
		return err
	}
	q.TriggerDrain()
	return nil
}

// TriggerDrain wakes the drain loop if it is idle. The host calls this periodically so that a
// record left queued by an earlier not-ready check is re-evaluated without busy-polling.
func (q *PersistentHitQueue) TriggerDrain() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close stops the drain loop permanently. An in-flight dispatch is abandoned via context
// cancellation; its record is not removed and will be retried on the next process start.
// Already-persisted, undispatched records likewise remain in the durable queue.
func (q *PersistentHitQueue) Close() error {
	var err error
	q.closeOnce.Do(func() {
		close(q.halt)
		q.cancel()
		err = q.queue.Close()
	})
	return err
}

func (q *PersistentHitQueue) run() {
	for {
		select {
		case <-q.halt:
			return
		case <-q.wake:
			if !q.drain() {
				return
			}
		}
	}
}

// drain processes records from the head of the queue until it is empty, a record is not ready,
// or the queue is closed. Returns false if the loop should exit.
func (q *PersistentHitQueue) drain() bool {
	for {
		entity, ok := q.queue.Peek()
		if !ok {
			return true
		}

		outcome := q.processor.ProcessHit(q.ctx, entity)

		select {
		case <-q.halt:
			// a record that completed before the shutdown landed is still removed; anything
			// else stays queued for the next process lifetime
			if outcome == HitComplete {
				q.remove(entity)
			}
			return false
		default:
		}

		switch outcome {
		case HitComplete:
			q.remove(entity)
			q.resetRetries()
		case HitNotReady:
			return true
		case HitRetry:
			q.attempts++
			if max := q.delay.cfg.MaxAttempts; max > 0 && q.attempts >= max {
				q.loggers.Errorf("Dropping record %s after %d failed dispatch attempts", entity.ID, q.attempts)
				q.remove(entity)
				q.resetRetries()
				continue
			}
			if !q.sleep(q.delay.nextDelay()) {
				return false
			}
		}
	}
}

func (q *PersistentHitQueue) remove(entity edgetypes.DataEntity) {
	if err := q.queue.Remove(); err != nil {
		q.loggers.Errorf("Failed to remove record %s from queue: %s", entity.ID, err)
	}
}

func (q *PersistentHitQueue) resetRetries() {
	q.attempts = 0
	q.delay.reset()
}

func (q *PersistentHitQueue) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-q.halt:
		return false
	case <-timer.C:
		return true
	}
}
