package edgehit

import (
	"math/rand"
	"time"
)

// Default retry behavior for transient network failures. There is deliberately no default
// attempt cap; bounding retries is a configuration decision, since dropping the head record
// breaks the delivery guarantee while unbounded retry risks storage growth during a sustained
// outage.
const (
	DefaultRetryInitialDelay = 1 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	defaultRetryJitterRatio  = 0.5
)

// RetryConfig controls the backoff applied between attempts of a record whose dispatch failed
// with a transient error.
type RetryConfig struct {
	// InitialDelay is the delay before the first retry. Defaults to DefaultRetryInitialDelay.
	InitialDelay time.Duration
	// MaxDelay caps the exponentially growing delay. Defaults to DefaultRetryMaxDelay.
	MaxDelay time.Duration
	// MaxAttempts, if positive, drops a record after that many failed dispatch attempts.
	// Zero means retry indefinitely.
	MaxAttempts int
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultRetryInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultRetryMaxDelay
	}
	return c
}

// retryDelay produces exponentially increasing delays with jitter, doubling on each call until
// MaxDelay and resetting after a successful dispatch.
type retryDelay struct {
	cfg  RetryConfig
	next time.Duration
}

func newRetryDelay(cfg RetryConfig) *retryDelay {
	cfg = cfg.withDefaults()
	return &retryDelay{cfg: cfg, next: cfg.InitialDelay}
}

func (r *retryDelay) nextDelay() time.Duration {
	delay := r.next
	r.next *= 2
	if r.next > r.cfg.MaxDelay {
		r.next = r.cfg.MaxDelay
	}
	// subtract up to half the delay so that repeated failures don't synchronize
	jitter := time.Duration(rand.Int63n(int64(float64(delay)*defaultRetryJitterRatio) + 1))
	return delay - jitter
}

func (r *retryDelay) reset() {
	r.next = r.cfg.InitialDelay
}
