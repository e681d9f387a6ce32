// Package edgehttp provides the default NetworkTransport implementation, sending requests to
// the collection endpoint over HTTPS. Hosts with special networking requirements can replace
// it with their own subsystems.NetworkTransport.
package edgehttp
