// Package edgeresponse parses collection-endpoint responses. A response body may contain a
// stream of JSON chunks; each chunk carries per-event results ("handle"), errors, and
// warnings, which are correlated back to the originating events and republished as
// notification events. "state:store" results additionally update the local stored-state cache.
package edgeresponse
