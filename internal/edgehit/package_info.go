// Package edgehit implements the persistent hit queue and its processor: the single sequential
// worker that drains the durable queue in strict FIFO order, dispatches each record to the
// collection endpoint, and applies the retry/drop policy for the outcome.
package edgehit
