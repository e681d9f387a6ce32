// Package edgestore manages the server-issued "state:store" payloads: a small TTL'd key/value
// set that is cached in memory, persisted across restarts, and replayed on outbound requests
// until the entries expire.
package edgestore
