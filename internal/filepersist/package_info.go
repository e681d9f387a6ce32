// Package filepersist provides the default file-backed implementations of the durable queue
// and the key/value store. Both are plain JSON files, suitable for the small volumes an
// embedded SDK component produces; hosts with their own persistence primitives can supply
// replacements through the subsystems interfaces.
package filepersist
