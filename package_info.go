// Package edgeclient is the durable event-dispatch pipeline of the Edge telemetry SDK: it
// accepts experience events from a host application, persists them so no event is lost across
// process restarts or network loss, and forwards them to the collection endpoint under strict
// ordering, consent, and readiness constraints.
//
// Delivery is fire-and-forget: callers receive no synchronous result, and notification events
// published through the configured EventEmitter are the only feedback channel.
package edgeclient
