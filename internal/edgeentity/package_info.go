// Package edgeentity defines the serialized form of a queued event: the source event itself,
// the identity context snapshotted at enqueue time, and any locally cached server state.
package edgeentity
